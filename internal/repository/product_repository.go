package repository

import (
	"context"
	"database/sql"
	"errors"

	"catalog-admin/internal/domain"
)

var (
	ErrProductNotFound = domain.NotFound("product not found")
)

// ProductRepository defines the interface for product data access
type ProductRepository interface {
	Create(ctx context.Context, product *domain.Product, refs domain.AttributeRefs) error
	Delete(ctx context.Context, id int64) error
	FindByID(ctx context.Context, id int64) (*domain.Product, error)
	ListWithCategory(ctx context.Context) ([]*domain.ProductWithCategory, error)
}

type productRepository struct {
	db *sql.DB
}

// NewProductRepository creates a new instance of ProductRepository
func NewProductRepository(db *sql.DB) ProductRepository {
	return &productRepository{db: db}
}

// Create writes the product row and its attribute links in one transaction.
// The category must exist and every referenced attribute must exist with the
// type it was submitted as; otherwise nothing is written.
func (r *productRepository) Create(ctx context.Context, product *domain.Product, refs domain.AttributeRefs) error {
	return withTx(ctx, r.db, func(tx *sql.Tx) error {
		// FOR SHARE blocks a concurrent delete of the category until commit.
		var categoryID int64
		err := tx.QueryRowContext(ctx,
			`SELECT id FROM category WHERE id = $1 FOR SHARE`, product.CategoryID,
		).Scan(&categoryID)
		if err != nil {
			if errors.Is(err, sql.ErrNoRows) {
				return domain.Validation("category %d does not exist", product.CategoryID).
					WithDetails(map[string]interface{}{"category_id": product.CategoryID})
			}
			return storageError(err, "failed to check category")
		}

		query := `
			INSERT INTO products (name, regular_price, sale_price, quantity, category_id, thumbnail, description)
			VALUES ($1, $2, $3, $4, $5, $6, $7)
			RETURNING id, created_at
		`

		err = tx.QueryRowContext(
			ctx,
			query,
			product.Name,
			product.RegularPrice,
			product.SalePrice,
			product.Quantity,
			product.CategoryID,
			product.Thumbnail,
			product.Description,
		).Scan(&product.ID, &product.CreatedAt)
		if err != nil {
			return storageError(err, "failed to create product")
		}

		position := 0
		for _, group := range []struct {
			ids      []int64
			attrType domain.AttributeType
		}{
			{refs.SizeIDs, domain.AttributeTypeSize},
			{refs.ColorIDs, domain.AttributeTypeColor},
		} {
			for _, attributeID := range uniqueIDs(group.ids) {
				if err := linkAttribute(ctx, tx, product.ID, attributeID, group.attrType, position); err != nil {
					return err
				}
				position++
			}
		}

		attributes, err := loadAttributes(ctx, tx, []int64{product.ID})
		if err != nil {
			return err
		}
		product.Sizes, product.Colors = splitAttributes(attributes[product.ID])

		return nil
	})
}

// linkAttribute inserts one product_attribute row, only if the attribute
// exists with the expected type. The type is stored as the link's role.
func linkAttribute(ctx context.Context, tx *sql.Tx, productID, attributeID int64, attrType domain.AttributeType, position int) error {
	query := `
		INSERT INTO product_attribute (product_id, attribute_id, role, position)
		SELECT $1, id, type, $3
		FROM attribute
		WHERE id = $2 AND type = $4
	`

	result, err := tx.ExecContext(ctx, query, productID, attributeID, position, string(attrType))
	if err != nil {
		if pgErr, ok := pgError(err); ok && pgErr.Code == pgForeignKeyViolation {
			return domain.Validation("attribute %d does not exist", attributeID).WithCause(err)
		}
		return storageError(err, "failed to link product attribute")
	}

	rowsAffected, err := result.RowsAffected()
	if err != nil {
		return storageError(err, "failed to get rows affected")
	}

	if rowsAffected == 0 {
		return domain.Validation("attribute %d is not an existing %s", attributeID, attrType).
			WithDetails(map[string]interface{}{"attribute_id": attributeID, "type": string(attrType)})
	}

	return nil
}

// Delete removes a product and its attribute links. The thumbnail asset is
// not touched.
func (r *productRepository) Delete(ctx context.Context, id int64) error {
	return withTx(ctx, r.db, func(tx *sql.Tx) error {
		result, err := tx.ExecContext(ctx, `DELETE FROM products WHERE id = $1`, id)
		if err != nil {
			return storageError(err, "failed to delete product")
		}

		rowsAffected, err := result.RowsAffected()
		if err != nil {
			return storageError(err, "failed to get rows affected")
		}

		if rowsAffected == 0 {
			return ErrProductNotFound
		}

		return nil
	})
}

// FindByID retrieves a product and its attributes by ID
func (r *productRepository) FindByID(ctx context.Context, id int64) (*domain.Product, error) {
	query := `
		SELECT id, name, regular_price, sale_price, quantity, category_id, thumbnail, description, created_at
		FROM products
		WHERE id = $1
	`

	product := &domain.Product{}
	err := r.db.QueryRowContext(ctx, query, id).Scan(
		&product.ID,
		&product.Name,
		&product.RegularPrice,
		&product.SalePrice,
		&product.Quantity,
		&product.CategoryID,
		&product.Thumbnail,
		&product.Description,
		&product.CreatedAt,
	)

	if err != nil {
		if errors.Is(err, sql.ErrNoRows) {
			return nil, ErrProductNotFound
		}
		return nil, storageError(err, "failed to find product by ID")
	}

	attributes, err := loadAttributes(ctx, r.db, []int64{product.ID})
	if err != nil {
		return nil, err
	}
	product.Sizes, product.Colors = splitAttributes(attributes[product.ID])

	return product, nil
}

// ListWithCategory retrieves products joined with their category name, most
// recently created first. The join is an inner join: a product whose
// category has been deleted is not listed.
func (r *productRepository) ListWithCategory(ctx context.Context) ([]*domain.ProductWithCategory, error) {
	query := `
		SELECT p.id, p.name, p.regular_price, p.sale_price, p.quantity, p.category_id,
		       p.thumbnail, p.description, p.created_at, c.name
		FROM products p
		JOIN category c ON p.category_id = c.id
		ORDER BY p.id DESC
	`

	rows, err := r.db.QueryContext(ctx, query)
	if err != nil {
		return nil, storageError(err, "failed to list products")
	}
	defer rows.Close()

	products := []*domain.ProductWithCategory{}
	ids := []int64{}
	for rows.Next() {
		product := &domain.ProductWithCategory{}
		err := rows.Scan(
			&product.ID,
			&product.Name,
			&product.RegularPrice,
			&product.SalePrice,
			&product.Quantity,
			&product.CategoryID,
			&product.Thumbnail,
			&product.Description,
			&product.CreatedAt,
			&product.CategoryName,
		)
		if err != nil {
			return nil, storageError(err, "failed to scan product")
		}
		products = append(products, product)
		ids = append(ids, product.ID)
	}

	if err = rows.Err(); err != nil {
		return nil, storageError(err, "error iterating products")
	}

	if len(ids) == 0 {
		return products, nil
	}

	attributes, err := loadAttributes(ctx, r.db, ids)
	if err != nil {
		return nil, err
	}
	for _, product := range products {
		product.Sizes, product.Colors = splitAttributes(attributes[product.ID])
	}

	return products, nil
}

// linkedAttribute is an attribute together with the role it was linked as.
type linkedAttribute struct {
	role      domain.AttributeType
	attribute domain.Attribute
}

// loadAttributes returns the linked attributes of each product, in the order
// they were submitted.
func loadAttributes(ctx context.Context, db DBTX, productIDs []int64) (map[int64][]linkedAttribute, error) {
	query := `
		SELECT pa.product_id, pa.role, a.id, a.value, a.type
		FROM product_attribute pa
		JOIN attribute a ON a.id = pa.attribute_id
		WHERE pa.product_id = ANY($1)
		ORDER BY pa.product_id, pa.position
	`

	rows, err := db.QueryContext(ctx, query, productIDs)
	if err != nil {
		return nil, storageError(err, "failed to load product attributes")
	}
	defer rows.Close()

	byProduct := make(map[int64][]linkedAttribute, len(productIDs))
	for rows.Next() {
		var productID int64
		var link linkedAttribute
		if err := rows.Scan(&productID, &link.role, &link.attribute.ID, &link.attribute.Value, &link.attribute.Type); err != nil {
			return nil, storageError(err, "failed to scan product attribute")
		}
		byProduct[productID] = append(byProduct[productID], link)
	}

	if err = rows.Err(); err != nil {
		return nil, storageError(err, "error iterating product attributes")
	}

	return byProduct, nil
}

// splitAttributes groups links by the role they were created with, so a
// later type change on the attribute does not move it between lists.
func splitAttributes(links []linkedAttribute) (sizes, colors []domain.Attribute) {
	sizes = []domain.Attribute{}
	colors = []domain.Attribute{}
	for _, link := range links {
		switch link.role {
		case domain.AttributeTypeSize:
			sizes = append(sizes, link.attribute)
		case domain.AttributeTypeColor:
			colors = append(colors, link.attribute)
		}
	}
	return sizes, colors
}

// uniqueIDs drops repeated ids, keeping first occurrences in order.
func uniqueIDs(ids []int64) []int64 {
	seen := make(map[int64]bool, len(ids))
	out := make([]int64, 0, len(ids))
	for _, id := range ids {
		if !seen[id] {
			seen[id] = true
			out = append(out, id)
		}
	}
	return out
}
