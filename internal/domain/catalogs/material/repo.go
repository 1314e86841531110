package material

import (
	"context"

	"hornada/internal/core/id"
)

// ListFilter narrows material listings.
type ListFilter struct {
	Search   string
	Category string
	Status   StockStatus
	Limit    int
	Offset   int
}

// Repository defines persistence operations for raw materials.
type Repository interface {
	Create(ctx context.Context, m *RawMaterial) error
	Update(ctx context.Context, m *RawMaterial) error
	GetByID(ctx context.Context, materialID id.ID) (*RawMaterial, error)
	List(ctx context.Context, filter ListFilter) ([]*RawMaterial, error)
}
