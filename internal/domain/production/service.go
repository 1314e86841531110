package production

import (
	"context"
	"fmt"
	"time"

	"hornada/internal/core/apperror"
	"hornada/internal/core/id"
	"hornada/internal/core/tx"
	"hornada/internal/domain/catalogs/recipe"
	"hornada/internal/domain/ledger"
	"hornada/pkg/logger"
)

// Service manages the production plan. Progress that completes units
// consumes raw materials through the ledger; a patch and its consumption
// commit together or not at all.
type Service struct {
	items     PlanRepository
	batches   BatchRepository
	recipes   recipe.Resolver
	ledger    *ledger.Service
	txManager tx.Manager

	now func() time.Time
}

// NewService creates a production service.
func NewService(items PlanRepository, batches BatchRepository, recipes recipe.Resolver, ledgerSvc *ledger.Service, txManager tx.Manager) *Service {
	return &Service{
		items:     items,
		batches:   batches,
		recipes:   recipes,
		ledger:    ledgerSvc,
		txManager: txManager,
		now:       func() time.Time { return time.Now().UTC() },
	}
}

// CreateItem schedules a manual plan item. The product must have an active
// recipe, otherwise completing the item could never consume materials.
func (s *Service) CreateItem(ctx context.Context, productID id.ID, quantity int64, scheduled *time.Time) (*PlanItem, error) {
	if quantity <= 0 {
		return nil, apperror.NewValidation("quantity must be positive").WithDetail("field", "quantity")
	}
	if _, err := s.recipes.RequirementsFor(ctx, productID, 1); err != nil {
		return nil, err
	}

	item := NewPlanItem(productID, quantity)
	item.ScheduledDate = scheduled
	if err := s.items.CreateItem(ctx, item); err != nil {
		return nil, err
	}

	logger.Info(ctx, "plan item created", "item_id", item.ID, "product_id", productID, "quantity", quantity)
	return item, nil
}

// GetItem returns a plan item by id.
func (s *Service) GetItem(ctx context.Context, itemID id.ID) (*PlanItem, error) {
	return s.items.GetItem(ctx, itemID)
}

// ListItems returns plan items matching the filter.
func (s *Service) ListItems(ctx context.Context, filter ItemListFilter) ([]*PlanItem, error) {
	return s.items.ListItems(ctx, filter)
}

// PatchItem applies a partial update to a plan item. An increase in
// completed quantity consumes the recipe's materials for the newly
// completed units; insufficient stock rolls the entire patch back and the
// item stays untouched, typically flipped to blocked by the caller.
func (s *Service) PatchItem(ctx context.Context, itemID id.ID, patch Patch, actor string) (*PlanItem, error) {
	var updated *PlanItem
	err := s.txManager.RunInTransaction(ctx, func(ctx context.Context) error {
		item, err := s.items.GetItemForUpdate(ctx, itemID)
		if err != nil {
			return err
		}

		var completedDelta int64
		if patch.CompletedQuantity != nil {
			next := *patch.CompletedQuantity
			if next < item.CompletedQuantity {
				return apperror.NewValidation("completed quantity cannot decrease").
					WithDetail("field", "completedQuantity")
			}
			if next > item.Quantity {
				return apperror.NewValidation("completed quantity cannot exceed planned quantity").
					WithDetail("field", "completedQuantity")
			}
			completedDelta = next - item.CompletedQuantity
			item.CompletedQuantity = next
		}
		if patch.Status != nil {
			item.Status = *patch.Status
		}
		if patch.AssignedTo != nil {
			item.AssignedTo = *patch.AssignedTo
		}
		if patch.ScheduledDate != nil {
			item.ScheduledDate = patch.ScheduledDate
		}
		if patch.Notes != nil {
			item.Notes = *patch.Notes
		}

		// Completing every unit finishes the item regardless of the
		// status carried by the patch.
		if item.CompletedQuantity == item.Quantity && item.Quantity > 0 {
			item.Status = ItemCompleted
		}
		item.UpdatedAt = s.now()

		if completedDelta > 0 {
			if err := s.consume(ctx, item.ProductID, completedDelta, actor); err != nil {
				return err
			}
		}

		if err := s.items.UpdateItem(ctx, item); err != nil {
			return fmt.Errorf("update plan item: %w", err)
		}
		updated = item
		return nil
	})
	if err != nil {
		return nil, err
	}

	logger.Debug(ctx, "plan item patched", "item_id", itemID, "status", updated.Status, "completed", updated.CompletedQuantity)
	return updated, nil
}

// consume records a production_consumption movement per ingredient for
// units completed products.
func (s *Service) consume(ctx context.Context, productID id.ID, units int64, actor string) error {
	reqs, err := s.recipes.RequirementsFor(ctx, productID, units)
	if err != nil {
		return err
	}
	for materialID, qty := range reqs {
		if _, err := s.ledger.RecordMovement(ctx, materialID, qty.Neg(), ledger.ReasonProductionConsumption, actor); err != nil {
			return err
		}
	}
	return nil
}

// GetBatch returns a batch by id.
func (s *Service) GetBatch(ctx context.Context, batchID id.ID) (*Batch, error) {
	return s.batches.GetBatch(ctx, batchID)
}

// ListBatches returns batches matching the status filter.
func (s *Service) ListBatches(ctx context.Context, status BatchStatus, limit, offset int) ([]*Batch, error) {
	return s.batches.ListBatches(ctx, status, limit, offset)
}

// MergePending folds all pending plan items for a product into one batch so
// the kitchen runs them as a single production pass. Items keep their order
// attribution; the batch only aggregates quantities.
func (s *Service) MergePending(ctx context.Context, productID id.ID) (*Batch, error) {
	var batch *Batch
	err := s.txManager.RunInTransaction(ctx, func(ctx context.Context) error {
		pending, err := s.items.ListPendingByProduct(ctx, productID)
		if err != nil {
			return err
		}
		if len(pending) == 0 {
			return apperror.NewNotFound("pending plan items", productID.String())
		}

		now := s.now()
		batch = &Batch{
			ID:        id.New(),
			ProductID: productID,
			Status:    BatchOpen,
			ItemIDs:   make([]id.ID, 0, len(pending)),
			CreatedAt: now,
			UpdatedAt: now,
		}
		for _, item := range pending {
			batch.Quantity += item.Remaining()
			batch.ItemIDs = append(batch.ItemIDs, item.ID)
			item.BatchID = &batch.ID
			item.Status = ItemInProgress
			item.UpdatedAt = now
			if err := s.items.UpdateItem(ctx, item); err != nil {
				return fmt.Errorf("attach item to batch: %w", err)
			}
		}
		return s.batches.CreateBatch(ctx, batch)
	})
	if err != nil {
		return nil, err
	}

	logger.Info(ctx, "pending items merged into batch",
		"batch_id", batch.ID, "product_id", productID, "items", len(batch.ItemIDs), "quantity", batch.Quantity)
	return batch, nil
}

// UpdateBatchProgress records units newly completed on a batch and
// distributes them across the batch's items oldest first, so the earliest
// orders finish first. Material consumption happens once for the batch
// delta, not per item.
func (s *Service) UpdateBatchProgress(ctx context.Context, batchID id.ID, completed int64, actor string) (*Batch, error) {
	var updated *Batch
	err := s.txManager.RunInTransaction(ctx, func(ctx context.Context) error {
		b, err := s.batches.GetBatchForUpdate(ctx, batchID)
		if err != nil {
			return err
		}
		if completed < b.CompletedQuantity {
			return apperror.NewValidation("completed quantity cannot decrease").
				WithDetail("field", "completedQuantity")
		}
		if completed > b.Quantity {
			return apperror.NewValidation("completed quantity cannot exceed batch quantity").
				WithDetail("field", "completedQuantity")
		}

		delta := completed - b.CompletedQuantity
		if delta == 0 {
			updated = b
			return nil
		}

		if err := s.consume(ctx, b.ProductID, delta, actor); err != nil {
			return err
		}

		remaining := delta
		for _, itemID := range b.ItemIDs {
			if remaining == 0 {
				break
			}
			item, err := s.items.GetItemForUpdate(ctx, itemID)
			if err != nil {
				return err
			}
			take := item.Remaining()
			if take > remaining {
				take = remaining
			}
			if take == 0 {
				continue
			}
			item.CompletedQuantity += take
			if item.CompletedQuantity == item.Quantity {
				item.Status = ItemCompleted
			}
			item.UpdatedAt = s.now()
			if err := s.items.UpdateItem(ctx, item); err != nil {
				return fmt.Errorf("update batch item: %w", err)
			}
			remaining -= take
		}

		b.CompletedQuantity = completed
		b.Status = BatchInProgress
		if b.CompletedQuantity == b.Quantity {
			b.Status = BatchCompleted
		}
		b.UpdatedAt = s.now()
		if err := s.batches.UpdateBatch(ctx, b); err != nil {
			return fmt.Errorf("update batch: %w", err)
		}
		updated = b
		return nil
	})
	if err != nil {
		return nil, err
	}
	return updated, nil
}
