// Package product provides the finished-goods catalog.
package product

import (
	"context"
	"time"

	"hornada/internal/core/apperror"
	"hornada/internal/core/id"
	"hornada/internal/core/types"
)

// Product represents a finished good the bakery sells.
type Product struct {
	ID       id.ID  `db:"id" json:"id"`
	Name     string `db:"name" json:"name"`
	Category string `db:"category" json:"category,omitempty"`

	SellingPrice types.Money `db:"selling_price" json:"sellingPrice"`

	Active bool `db:"active" json:"active"`

	CreatedAt time.Time `db:"created_at" json:"createdAt"`
	UpdatedAt time.Time `db:"updated_at" json:"updatedAt"`
}

// NewProduct creates a product with a generated ID.
func NewProduct(name string, sellingPrice types.Money) *Product {
	now := time.Now().UTC()
	return &Product{
		ID:           id.New(),
		Name:         name,
		SellingPrice: sellingPrice,
		Active:       true,
		CreatedAt:    now,
		UpdatedAt:    now,
	}
}

// Validate checks required fields.
func (p *Product) Validate(ctx context.Context) error {
	if p.Name == "" {
		return apperror.NewValidation("product name is required").WithDetail("field", "name")
	}
	if p.SellingPrice.IsNegative() {
		return apperror.NewValidation("selling price must not be negative").WithDetail("field", "sellingPrice")
	}
	return nil
}

// Repository defines persistence operations for products.
type Repository interface {
	Create(ctx context.Context, p *Product) error
	Update(ctx context.Context, p *Product) error
	GetByID(ctx context.Context, productID id.ID) (*Product, error)
	List(ctx context.Context, search string, limit, offset int) ([]*Product, error)
}
