// Package production schedules and tracks the making of ordered goods.
package production

import (
	"time"

	"hornada/internal/core/id"
)

// ItemStatus is the plan item lifecycle state.
type ItemStatus string

const (
	ItemPending    ItemStatus = "pending"
	ItemInProgress ItemStatus = "in_progress"
	ItemCompleted  ItemStatus = "completed"
	ItemBlocked    ItemStatus = "blocked"
)

// PlanItem is one unit of scheduled production work, usually created by
// quote conversion (one per order line) or entered manually.
type PlanItem struct {
	ID        id.ID `db:"id" json:"id"`
	ProductID id.ID `db:"product_id" json:"productId"`

	// OrderID attributes the item to the order that demanded it. Nil for
	// make-to-stock items.
	OrderID *id.ID `db:"order_id" json:"orderId,omitempty"`

	Quantity          int64 `db:"quantity" json:"quantity"`
	CompletedQuantity int64 `db:"completed_quantity" json:"completedQuantity"`

	Status        ItemStatus `db:"status" json:"status"`
	AssignedTo    string     `db:"assigned_to" json:"assignedTo,omitempty"`
	ScheduledDate *time.Time `db:"scheduled_date" json:"scheduledDate,omitempty"`
	Notes         string     `db:"notes" json:"notes,omitempty"`

	// BatchID is set once the item is folded into a batch.
	BatchID *id.ID `db:"batch_id" json:"batchId,omitempty"`

	CreatedAt time.Time `db:"created_at" json:"createdAt"`
	UpdatedAt time.Time `db:"updated_at" json:"updatedAt"`
}

// NewPlanItem creates a pending plan item.
func NewPlanItem(productID id.ID, quantity int64) *PlanItem {
	now := time.Now().UTC()
	return &PlanItem{
		ID:        id.New(),
		ProductID: productID,
		Quantity:  quantity,
		Status:    ItemPending,
		CreatedAt: now,
		UpdatedAt: now,
	}
}

// Remaining returns units still to be produced.
func (p *PlanItem) Remaining() int64 {
	r := p.Quantity - p.CompletedQuantity
	if r < 0 {
		return 0
	}
	return r
}

// Progress returns the completion percentage (0..100).
func (p *PlanItem) Progress() int {
	if p.Quantity <= 0 {
		return 0
	}
	return int(p.CompletedQuantity * 100 / p.Quantity)
}

// BatchStatus is the batch lifecycle state.
type BatchStatus string

const (
	BatchOpen       BatchStatus = "open"
	BatchInProgress BatchStatus = "in_progress"
	BatchCompleted  BatchStatus = "completed"
)

// Batch folds pending plan items for the same product into one production
// run. Progress reported against the batch is attributed back to its items
// in creation order.
type Batch struct {
	ID        id.ID `db:"id" json:"id"`
	ProductID id.ID `db:"product_id" json:"productId"`

	Quantity          int64 `db:"quantity" json:"quantity"`
	CompletedQuantity int64 `db:"completed_quantity" json:"completedQuantity"`

	Status BatchStatus `db:"status" json:"status"`

	ItemIDs []id.ID `db:"-" json:"itemIds"`

	CreatedAt time.Time `db:"created_at" json:"createdAt"`
	UpdatedAt time.Time `db:"updated_at" json:"updatedAt"`
}

// Patch carries a partial plan item update. Nil fields are left untouched,
// so callers send only what changed.
type Patch struct {
	Status            *ItemStatus `json:"status,omitempty"`
	CompletedQuantity *int64      `json:"completedQuantity,omitempty"`
	AssignedTo        *string     `json:"assignedTo,omitempty"`
	ScheduledDate     *time.Time  `json:"scheduledDate,omitempty"`
	Notes             *string     `json:"notes,omitempty"`
}
