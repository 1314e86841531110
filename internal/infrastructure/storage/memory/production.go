package memory

import (
	"context"
	"sort"
	"sync"

	"hornada/internal/core/apperror"
	"hornada/internal/core/id"
	"hornada/internal/domain/production"
)

// PlanRepo implements production.PlanRepository in memory.
type PlanRepo struct {
	mu    sync.RWMutex
	items map[id.ID]production.PlanItem
}

// NewPlanRepo creates an empty plan repository.
func NewPlanRepo() *PlanRepo {
	return &PlanRepo{items: make(map[id.ID]production.PlanItem)}
}

func (r *PlanRepo) CreateItem(ctx context.Context, item *production.PlanItem) error {
	r.mu.Lock()
	defer r.mu.Unlock()
	if _, ok := r.items[item.ID]; ok {
		return apperror.NewDuplicate("plan item", "id", item.ID.String())
	}
	r.items[item.ID] = *item
	return nil
}

func (r *PlanRepo) GetItem(ctx context.Context, itemID id.ID) (*production.PlanItem, error) {
	r.mu.RLock()
	defer r.mu.RUnlock()
	item, ok := r.items[itemID]
	if !ok {
		return nil, apperror.NewNotFound("plan item", itemID)
	}
	return &item, nil
}

func (r *PlanRepo) GetItemForUpdate(ctx context.Context, itemID id.ID) (*production.PlanItem, error) {
	return r.GetItem(ctx, itemID)
}

func (r *PlanRepo) UpdateItem(ctx context.Context, item *production.PlanItem) error {
	r.mu.Lock()
	defer r.mu.Unlock()
	if _, ok := r.items[item.ID]; !ok {
		return apperror.NewNotFound("plan item", item.ID)
	}
	r.items[item.ID] = *item
	return nil
}

func (r *PlanRepo) ListItems(ctx context.Context, filter production.ItemListFilter) ([]*production.PlanItem, error) {
	r.mu.RLock()
	defer r.mu.RUnlock()

	var out []*production.PlanItem
	for _, item := range r.items {
		if filter.Status != "" && item.Status != filter.Status {
			continue
		}
		if !id.IsNil(filter.ProductID) && item.ProductID != filter.ProductID {
			continue
		}
		if !id.IsNil(filter.OrderID) && (item.OrderID == nil || *item.OrderID != filter.OrderID) {
			continue
		}
		item := item
		out = append(out, &item)
	}
	sort.Slice(out, func(i, j int) bool { return out[i].CreatedAt.Before(out[j].CreatedAt) })
	return paginate(out, filter.Limit, filter.Offset), nil
}

func (r *PlanRepo) ListPendingByProduct(ctx context.Context, productID id.ID) ([]*production.PlanItem, error) {
	r.mu.RLock()
	defer r.mu.RUnlock()

	var out []*production.PlanItem
	for _, item := range r.items {
		if item.ProductID == productID && item.Status == production.ItemPending && item.BatchID == nil {
			item := item
			out = append(out, &item)
		}
	}
	sort.Slice(out, func(i, j int) bool { return out[i].CreatedAt.Before(out[j].CreatedAt) })
	return out, nil
}

var _ production.PlanRepository = (*PlanRepo)(nil)

// BatchRepo implements production.BatchRepository in memory.
type BatchRepo struct {
	mu      sync.RWMutex
	batches map[id.ID]production.Batch
}

// NewBatchRepo creates an empty batch repository.
func NewBatchRepo() *BatchRepo {
	return &BatchRepo{batches: make(map[id.ID]production.Batch)}
}

func (r *BatchRepo) CreateBatch(ctx context.Context, b *production.Batch) error {
	r.mu.Lock()
	defer r.mu.Unlock()
	if _, ok := r.batches[b.ID]; ok {
		return apperror.NewDuplicate("batch", "id", b.ID.String())
	}
	r.batches[b.ID] = cloneBatch(b)
	return nil
}

func (r *BatchRepo) GetBatch(ctx context.Context, batchID id.ID) (*production.Batch, error) {
	r.mu.RLock()
	defer r.mu.RUnlock()
	b, ok := r.batches[batchID]
	if !ok {
		return nil, apperror.NewNotFound("batch", batchID)
	}
	out := cloneBatch(&b)
	return &out, nil
}

func (r *BatchRepo) GetBatchForUpdate(ctx context.Context, batchID id.ID) (*production.Batch, error) {
	return r.GetBatch(ctx, batchID)
}

func (r *BatchRepo) UpdateBatch(ctx context.Context, b *production.Batch) error {
	r.mu.Lock()
	defer r.mu.Unlock()
	if _, ok := r.batches[b.ID]; !ok {
		return apperror.NewNotFound("batch", b.ID)
	}
	r.batches[b.ID] = cloneBatch(b)
	return nil
}

func (r *BatchRepo) ListBatches(ctx context.Context, status production.BatchStatus, limit, offset int) ([]*production.Batch, error) {
	r.mu.RLock()
	defer r.mu.RUnlock()

	var out []*production.Batch
	for _, b := range r.batches {
		if status != "" && b.Status != status {
			continue
		}
		c := cloneBatch(&b)
		out = append(out, &c)
	}
	sort.Slice(out, func(i, j int) bool { return out[i].CreatedAt.After(out[j].CreatedAt) })
	return paginate(out, limit, offset), nil
}

func cloneBatch(b *production.Batch) production.Batch {
	out := *b
	out.ItemIDs = append([]id.ID(nil), b.ItemIDs...)
	return out
}

var _ production.BatchRepository = (*BatchRepo)(nil)
