package domain

import (
	"time"

	"github.com/shopspring/decimal"
)

// Category represents a product category
type Category struct {
	ID   int64  `json:"id" db:"id"`
	Name string `json:"name" db:"name"`
}

// AttributeType is the kind of selectable option an Attribute describes.
type AttributeType string

const (
	AttributeTypeSize  AttributeType = "size"
	AttributeTypeColor AttributeType = "color"
)

// Valid reports whether t is one of the known attribute types.
func (t AttributeType) Valid() bool {
	return t == AttributeTypeSize || t == AttributeTypeColor
}

// Attribute represents a reusable selectable option such as a size or a color
type Attribute struct {
	ID    int64         `json:"id" db:"id"`
	Value string        `json:"value" db:"value"`
	Type  AttributeType `json:"type" db:"type"`
}

// Product represents a product in the catalog
type Product struct {
	ID           int64           `json:"id" db:"id"`
	Name         string          `json:"name" db:"name"`
	RegularPrice decimal.Decimal `json:"regular_price" db:"regular_price"`
	SalePrice    decimal.Decimal `json:"sale_price" db:"sale_price"`
	Quantity     int             `json:"quantity" db:"quantity"`
	CategoryID   int64           `json:"category_id" db:"category_id"`
	Sizes        []Attribute     `json:"available_sizes"`
	Colors       []Attribute     `json:"available_colors"`
	Thumbnail    string          `json:"thumbnail" db:"thumbnail"`
	Description  string          `json:"description" db:"description"`
	CreatedAt    time.Time       `json:"created_at" db:"created_at"`
}

// AttributeRefs are the attribute ids selected for a product, split by type.
type AttributeRefs struct {
	SizeIDs  []int64
	ColorIDs []int64
}

// ProductWithCategory is a product joined with the name of its category.
type ProductWithCategory struct {
	Product
	CategoryName string `json:"category_name"`
}

// StoredAsset describes an uploaded file persisted under a generated name.
type StoredAsset struct {
	Name        string `json:"name"`
	Extension   string `json:"extension"`
	ContentType string `json:"content_type"`
	Size        int64  `json:"size"`
}
