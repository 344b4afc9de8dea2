package domain

import (
	"time"

	"github.com/google/uuid"
	"github.com/shopspring/decimal"
)

// Product represents a product in the catalog. Price and ComparePrice are
// amounts in the canonical currency. ComparePrice is non-nil only while a
// discount is active; it holds the price captured before the first discount
// was applied.
type Product struct {
	ID           uuid.UUID        `json:"id" db:"id"`
	Name         string           `json:"name" db:"name"`
	Description  string           `json:"description" db:"description"`
	SKU          string           `json:"sku" db:"sku"`
	Price        decimal.Decimal  `json:"price" db:"price"`
	ComparePrice *decimal.Decimal `json:"compare_price,omitempty" db:"compare_price"`
	CategoryID   uuid.UUID        `json:"category_id" db:"category_id"`
	BrandID      uuid.UUID        `json:"brand_id" db:"brand_id"`
	ImageURL     string           `json:"image_url" db:"image_url"`
	Stock        int              `json:"stock" db:"stock"`
	CreatedAt    time.Time        `json:"created_at" db:"created_at"`
	UpdatedAt    time.Time        `json:"updated_at" db:"updated_at"`
}

// Discounted reports whether the product currently carries an active discount.
func (p *Product) Discounted() bool {
	return p.ComparePrice != nil
}

// ProductUpdate is the allow-listed set of fields an admin may edit directly.
// Stock and identifiers are deliberately absent: stock moves only through
// order placement, cancellation and explicit restock, never through a blanket
// product edit.
type ProductUpdate struct {
	Name        *string          `json:"name,omitempty"`
	Description *string          `json:"description,omitempty"`
	SKU         *string          `json:"sku,omitempty"`
	Price       *decimal.Decimal `json:"price,omitempty"`
	CategoryID  *uuid.UUID       `json:"category_id,omitempty"`
	BrandID     *uuid.UUID       `json:"brand_id,omitempty"`
	ImageURL    *string          `json:"image_url,omitempty"`
}

// Category represents a product category
type Category struct {
	ID          uuid.UUID `json:"id" db:"id"`
	Name        string    `json:"name" db:"name"`
	Description string    `json:"description" db:"description"`
	CreatedAt   time.Time `json:"created_at" db:"created_at"`
}

// Brand represents a product brand
type Brand struct {
	ID        uuid.UUID `json:"id" db:"id"`
	Name      string    `json:"name" db:"name"`
	CreatedAt time.Time `json:"created_at" db:"created_at"`
}
