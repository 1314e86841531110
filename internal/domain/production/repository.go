package production

import (
	"context"

	"hornada/internal/core/id"
)

// ItemListFilter narrows plan item listings.
type ItemListFilter struct {
	Status    ItemStatus
	ProductID id.ID
	OrderID   id.ID
	Limit     int
	Offset    int
}

// PlanRepository defines persistence operations for plan items.
type PlanRepository interface {
	CreateItem(ctx context.Context, item *PlanItem) error
	GetItem(ctx context.Context, itemID id.ID) (*PlanItem, error)

	// GetItemForUpdate loads the item with a row lock so concurrent
	// progress updates serialize.
	GetItemForUpdate(ctx context.Context, itemID id.ID) (*PlanItem, error)

	UpdateItem(ctx context.Context, item *PlanItem) error
	ListItems(ctx context.Context, filter ItemListFilter) ([]*PlanItem, error)

	// ListPendingByProduct returns batchable items, oldest first.
	ListPendingByProduct(ctx context.Context, productID id.ID) ([]*PlanItem, error)
}

// BatchRepository defines persistence operations for batches.
type BatchRepository interface {
	CreateBatch(ctx context.Context, b *Batch) error
	GetBatch(ctx context.Context, batchID id.ID) (*Batch, error)
	GetBatchForUpdate(ctx context.Context, batchID id.ID) (*Batch, error)
	UpdateBatch(ctx context.Context, b *Batch) error
	ListBatches(ctx context.Context, status BatchStatus, limit, offset int) ([]*Batch, error)
}
