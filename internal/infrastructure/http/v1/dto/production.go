package dto

import (
	"time"

	"hornada/internal/domain/production"
)

// CreatePlanItemRequest schedules a manual plan item.
type CreatePlanItemRequest struct {
	ProductID     string     `json:"productId" binding:"required"`
	Quantity      int64      `json:"quantity" binding:"required"`
	ScheduledDate *time.Time `json:"scheduledDate"`
}

// PatchPlanItemRequest is a partial plan item update. Absent fields stay
// unchanged.
type PatchPlanItemRequest struct {
	Status            *production.ItemStatus `json:"status"`
	CompletedQuantity *int64                 `json:"completedQuantity"`
	AssignedTo        *string                `json:"assignedTo"`
	ScheduledDate     *time.Time             `json:"scheduledDate"`
	Notes             *string                `json:"notes"`
}

// BatchProgressRequest reports cumulative completed units on a batch.
type BatchProgressRequest struct {
	CompletedQuantity int64 `json:"completedQuantity" binding:"required"`
}
