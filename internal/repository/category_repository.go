package repository

import (
	"context"
	"database/sql"
	"errors"

	"catalog-admin/internal/config"
	"catalog-admin/internal/domain"
)

var (
	ErrCategoryNotFound      = domain.NotFound("category not found")
	ErrCategoryAlreadyExists = domain.DuplicateValue("category with this name already exists")
	ErrCategoryInUse         = domain.Referenced("category is still referenced by products")
)

// CategoryRepository defines the interface for category data access
type CategoryRepository interface {
	Create(ctx context.Context, category *domain.Category) error
	Update(ctx context.Context, category *domain.Category) error
	Delete(ctx context.Context, id int64) (*domain.Category, error)
	FindByID(ctx context.Context, id int64) (*domain.Category, error)
	List(ctx context.Context) ([]*domain.Category, error)
}

type categoryRepository struct {
	db           *sql.DB
	deletePolicy config.CategoryDeletePolicy
}

// NewCategoryRepository creates a new instance of CategoryRepository
func NewCategoryRepository(db *sql.DB, deletePolicy config.CategoryDeletePolicy) CategoryRepository {
	return &categoryRepository{db: db, deletePolicy: deletePolicy}
}

// Create inserts a new category and sets its generated ID
func (r *categoryRepository) Create(ctx context.Context, category *domain.Category) error {
	query := `
		INSERT INTO category (name)
		VALUES ($1)
		RETURNING id
	`

	return withTx(ctx, r.db, func(tx *sql.Tx) error {
		err := tx.QueryRowContext(ctx, query, category.Name).Scan(&category.ID)
		if err != nil {
			if isUniqueViolation(err) {
				return ErrCategoryAlreadyExists.WithCause(err)
			}
			return storageError(err, "failed to create category")
		}
		return nil
	})
}

// Update renames an existing category
func (r *categoryRepository) Update(ctx context.Context, category *domain.Category) error {
	query := `
		UPDATE category
		SET name = $2
		WHERE id = $1
	`

	return withTx(ctx, r.db, func(tx *sql.Tx) error {
		result, err := tx.ExecContext(ctx, query, category.ID, category.Name)
		if err != nil {
			if isUniqueViolation(err) {
				return ErrCategoryAlreadyExists.WithCause(err)
			}
			return storageError(err, "failed to update category")
		}

		rowsAffected, err := result.RowsAffected()
		if err != nil {
			return storageError(err, "failed to get rows affected")
		}

		if rowsAffected == 0 {
			return ErrCategoryNotFound
		}

		return nil
	})
}

// Delete removes a category and returns the row as it was before deletion.
// Under the restrict policy a category still referenced by products is kept
// and ErrCategoryInUse is returned; under the allow policy referencing
// products are left with a dangling category_id.
func (r *categoryRepository) Delete(ctx context.Context, id int64) (*domain.Category, error) {
	category := &domain.Category{}

	err := withTx(ctx, r.db, func(tx *sql.Tx) error {
		err := tx.QueryRowContext(ctx,
			`SELECT id, name FROM category WHERE id = $1 FOR UPDATE`, id,
		).Scan(&category.ID, &category.Name)
		if err != nil {
			if errors.Is(err, sql.ErrNoRows) {
				return ErrCategoryNotFound
			}
			return storageError(err, "failed to find category by ID")
		}

		if r.deletePolicy == config.CategoryDeleteRestrict {
			var referenced bool
			err := tx.QueryRowContext(ctx,
				`SELECT EXISTS (SELECT 1 FROM products WHERE category_id = $1)`, id,
			).Scan(&referenced)
			if err != nil {
				return storageError(err, "failed to check category references")
			}
			if referenced {
				return ErrCategoryInUse.WithDetails(map[string]interface{}{"category_id": id, "name": category.Name})
			}
		}

		if _, err := tx.ExecContext(ctx, `DELETE FROM category WHERE id = $1`, id); err != nil {
			return storageError(err, "failed to delete category")
		}

		return nil
	})
	if err != nil {
		return nil, err
	}

	return category, nil
}

// FindByID retrieves a category by ID using parameterized queries
func (r *categoryRepository) FindByID(ctx context.Context, id int64) (*domain.Category, error) {
	query := `
		SELECT id, name
		FROM category
		WHERE id = $1
	`

	category := &domain.Category{}
	err := r.db.QueryRowContext(ctx, query, id).Scan(
		&category.ID,
		&category.Name,
	)

	if err != nil {
		if errors.Is(err, sql.ErrNoRows) {
			return nil, ErrCategoryNotFound
		}
		return nil, storageError(err, "failed to find category by ID")
	}

	return category, nil
}

// List retrieves all categories, most recently created first
func (r *categoryRepository) List(ctx context.Context) ([]*domain.Category, error) {
	query := `
		SELECT id, name
		FROM category
		ORDER BY id DESC
	`

	rows, err := r.db.QueryContext(ctx, query)
	if err != nil {
		return nil, storageError(err, "failed to list categories")
	}
	defer rows.Close()

	categories := []*domain.Category{}
	for rows.Next() {
		category := &domain.Category{}
		if err := rows.Scan(&category.ID, &category.Name); err != nil {
			return nil, storageError(err, "failed to scan category")
		}
		categories = append(categories, category)
	}

	if err = rows.Err(); err != nil {
		return nil, storageError(err, "error iterating categories")
	}

	return categories, nil
}
