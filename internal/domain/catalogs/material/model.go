// Package material provides the raw-material catalog.
package material

import (
	"context"
	"time"

	"hornada/internal/core/apperror"
	"hornada/internal/core/id"
	"hornada/internal/core/types"
)

// StockStatus classifies a material's stock level.
type StockStatus string

const (
	StatusOutOfStock StockStatus = "out_of_stock"
	StatusLowStock   StockStatus = "low_stock"
	StatusInStock    StockStatus = "in_stock"
)

// RawMaterial represents an ingredient held in inventory.
//
// CurrentStock is a cached projection of the movement ledger and is mutated
// only by the ledger service; the movement log is the source of truth.
type RawMaterial struct {
	ID       id.ID  `db:"id" json:"id"`
	Name     string `db:"name" json:"name"`
	Category string `db:"category" json:"category,omitempty"`
	Unit     string `db:"unit" json:"unit"`

	CostPerUnit  types.Money    `db:"cost_per_unit" json:"costPerUnit"`
	CurrentStock types.Quantity `db:"current_stock" json:"currentStock"`
	MinimumStock types.Quantity `db:"minimum_stock" json:"minimumStock"`

	Supplier string `db:"supplier" json:"supplier,omitempty"`

	CreatedAt time.Time `db:"created_at" json:"createdAt"`
	UpdatedAt time.Time `db:"updated_at" json:"updatedAt"`
}

// NewRawMaterial creates a raw material with a generated ID.
func NewRawMaterial(name, unit string, costPerUnit types.Money, minimumStock types.Quantity) *RawMaterial {
	now := time.Now().UTC()
	return &RawMaterial{
		ID:           id.New(),
		Name:         name,
		Unit:         unit,
		CostPerUnit:  costPerUnit,
		MinimumStock: minimumStock,
		CreatedAt:    now,
		UpdatedAt:    now,
	}
}

// Status classifies the current stock against the minimum threshold.
func (m *RawMaterial) Status() StockStatus {
	switch {
	case m.CurrentStock <= 0:
		return StatusOutOfStock
	case m.CurrentStock <= m.MinimumStock:
		return StatusLowStock
	default:
		return StatusInStock
	}
}

// Validate checks required fields.
func (m *RawMaterial) Validate(ctx context.Context) error {
	if m.Name == "" {
		return apperror.NewValidation("material name is required").WithDetail("field", "name")
	}
	if m.Unit == "" {
		return apperror.NewValidation("unit of measure is required").WithDetail("field", "unit")
	}
	if m.MinimumStock.IsNegative() {
		return apperror.NewValidation("minimum stock must not be negative").WithDetail("field", "minimumStock")
	}
	return nil
}
