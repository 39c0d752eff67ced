package repository

import (
	"context"
	"database/sql"
	"errors"

	"catalog-admin/internal/domain"
)

var (
	ErrAttributeNotFound      = domain.NotFound("attribute not found")
	ErrAttributeAlreadyExists = domain.DuplicateValue("attribute with this value already exists for its type")
)

// AttributeRepository defines the interface for attribute data access
type AttributeRepository interface {
	Create(ctx context.Context, attribute *domain.Attribute) error
	Update(ctx context.Context, attribute *domain.Attribute) error
	Delete(ctx context.Context, id int64) (*domain.Attribute, error)
	FindByID(ctx context.Context, id int64) (*domain.Attribute, error)
	List(ctx context.Context, attrType *domain.AttributeType) ([]*domain.Attribute, error)
}

type attributeRepository struct {
	db *sql.DB
}

// NewAttributeRepository creates a new instance of AttributeRepository
func NewAttributeRepository(db *sql.DB) AttributeRepository {
	return &attributeRepository{db: db}
}

// Create inserts a new attribute and sets its generated ID
func (r *attributeRepository) Create(ctx context.Context, attribute *domain.Attribute) error {
	query := `
		INSERT INTO attribute (value, type)
		VALUES ($1, $2)
		RETURNING id
	`

	return withTx(ctx, r.db, func(tx *sql.Tx) error {
		err := tx.QueryRowContext(ctx, query, attribute.Value, string(attribute.Type)).Scan(&attribute.ID)
		if err != nil {
			if isUniqueViolation(err) {
				return ErrAttributeAlreadyExists.WithCause(err)
			}
			return storageError(err, "failed to create attribute")
		}
		return nil
	})
}

// Update changes the value and type of an existing attribute in place
func (r *attributeRepository) Update(ctx context.Context, attribute *domain.Attribute) error {
	query := `
		UPDATE attribute
		SET value = $2, type = $3
		WHERE id = $1
	`

	return withTx(ctx, r.db, func(tx *sql.Tx) error {
		result, err := tx.ExecContext(ctx, query, attribute.ID, attribute.Value, string(attribute.Type))
		if err != nil {
			if isUniqueViolation(err) {
				return ErrAttributeAlreadyExists.WithCause(err)
			}
			return storageError(err, "failed to update attribute")
		}

		rowsAffected, err := result.RowsAffected()
		if err != nil {
			return storageError(err, "failed to get rows affected")
		}

		if rowsAffected == 0 {
			return ErrAttributeNotFound
		}

		return nil
	})
}

// Delete removes an attribute and returns the row as it was before deletion.
// Product links to the attribute are removed with it.
func (r *attributeRepository) Delete(ctx context.Context, id int64) (*domain.Attribute, error) {
	query := `
		DELETE FROM attribute
		WHERE id = $1
		RETURNING id, value, type
	`

	attribute := &domain.Attribute{}

	err := withTx(ctx, r.db, func(tx *sql.Tx) error {
		err := tx.QueryRowContext(ctx, query, id).Scan(&attribute.ID, &attribute.Value, &attribute.Type)
		if err != nil {
			if errors.Is(err, sql.ErrNoRows) {
				return ErrAttributeNotFound
			}
			return storageError(err, "failed to delete attribute")
		}
		return nil
	})
	if err != nil {
		return nil, err
	}

	return attribute, nil
}

// FindByID retrieves an attribute by ID using parameterized queries
func (r *attributeRepository) FindByID(ctx context.Context, id int64) (*domain.Attribute, error) {
	query := `
		SELECT id, value, type
		FROM attribute
		WHERE id = $1
	`

	attribute := &domain.Attribute{}
	err := r.db.QueryRowContext(ctx, query, id).Scan(
		&attribute.ID,
		&attribute.Value,
		&attribute.Type,
	)

	if err != nil {
		if errors.Is(err, sql.ErrNoRows) {
			return nil, ErrAttributeNotFound
		}
		return nil, storageError(err, "failed to find attribute by ID")
	}

	return attribute, nil
}

// List retrieves attributes, most recently created first, optionally
// restricted to one type
func (r *attributeRepository) List(ctx context.Context, attrType *domain.AttributeType) ([]*domain.Attribute, error) {
	query := `
		SELECT id, value, type
		FROM attribute
		WHERE ($1::text IS NULL OR type = $1::text)
		ORDER BY id DESC
	`

	var typeArg interface{}
	if attrType != nil {
		typeArg = string(*attrType)
	}

	rows, err := r.db.QueryContext(ctx, query, typeArg)
	if err != nil {
		return nil, storageError(err, "failed to list attributes")
	}
	defer rows.Close()

	attributes := []*domain.Attribute{}
	for rows.Next() {
		attribute := &domain.Attribute{}
		if err := rows.Scan(&attribute.ID, &attribute.Value, &attribute.Type); err != nil {
			return nil, storageError(err, "failed to scan attribute")
		}
		attributes = append(attributes, attribute)
	}

	if err = rows.Err(); err != nil {
		return nil, storageError(err, "error iterating attributes")
	}

	return attributes, nil
}
