// Package production_repo provides PostgreSQL implementations for the
// production plan and batches.
package production_repo

import (
	"context"
	"fmt"

	"github.com/Masterminds/squirrel"
	"github.com/georgysavva/scany/v2/pgxscan"

	"hornada/internal/core/apperror"
	"hornada/internal/core/id"
	"hornada/internal/domain/production"
	"hornada/internal/infrastructure/storage/postgres"
)

const planItemsTable = "production_plan_items"

var planItemColumns = []string{
	"id", "product_id", "order_id", "quantity", "completed_quantity",
	"status", "assigned_to", "scheduled_date", "notes", "batch_id",
	"created_at", "updated_at",
}

// PlanRepo implements production.PlanRepository.
type PlanRepo struct {
	txm     *postgres.TxManager
	builder squirrel.StatementBuilderType
}

// NewPlanRepo creates a plan item repository.
func NewPlanRepo(txm *postgres.TxManager) *PlanRepo {
	return &PlanRepo{
		txm:     txm,
		builder: squirrel.StatementBuilder.PlaceholderFormat(squirrel.Dollar),
	}
}

func (r *PlanRepo) CreateItem(ctx context.Context, item *production.PlanItem) error {
	q := r.builder.Insert(planItemsTable).
		Columns(planItemColumns...).
		Values(item.ID, item.ProductID, item.OrderID, item.Quantity, item.CompletedQuantity,
			item.Status, item.AssignedTo, item.ScheduledDate, item.Notes, item.BatchID,
			item.CreatedAt, item.UpdatedAt)

	sql, args, err := q.ToSql()
	if err != nil {
		return fmt.Errorf("build insert: %w", err)
	}
	if _, err := r.txm.GetQuerier(ctx).Exec(ctx, sql, args...); err != nil {
		return fmt.Errorf("insert plan item: %w", err)
	}
	return nil
}

func (r *PlanRepo) get(ctx context.Context, itemID id.ID, forUpdate bool) (*production.PlanItem, error) {
	sql := `
		SELECT id, product_id, order_id, quantity, completed_quantity,
		       status, assigned_to, scheduled_date, notes, batch_id,
		       created_at, updated_at
		FROM production_plan_items
		WHERE id = $1
	`
	if forUpdate {
		sql += " FOR UPDATE"
	}

	var item production.PlanItem
	if err := pgxscan.Get(ctx, r.txm.GetQuerier(ctx), &item, sql, itemID); err != nil {
		if pgxscan.NotFound(err) {
			return nil, apperror.NewNotFound("plan item", itemID)
		}
		return nil, fmt.Errorf("get plan item: %w", err)
	}
	return &item, nil
}

func (r *PlanRepo) GetItem(ctx context.Context, itemID id.ID) (*production.PlanItem, error) {
	return r.get(ctx, itemID, false)
}

func (r *PlanRepo) GetItemForUpdate(ctx context.Context, itemID id.ID) (*production.PlanItem, error) {
	return r.get(ctx, itemID, true)
}

func (r *PlanRepo) UpdateItem(ctx context.Context, item *production.PlanItem) error {
	q := r.builder.Update(planItemsTable).
		Set("completed_quantity", item.CompletedQuantity).
		Set("status", item.Status).
		Set("assigned_to", item.AssignedTo).
		Set("scheduled_date", item.ScheduledDate).
		Set("notes", item.Notes).
		Set("batch_id", item.BatchID).
		Set("updated_at", item.UpdatedAt).
		Where(squirrel.Eq{"id": item.ID})

	sql, args, err := q.ToSql()
	if err != nil {
		return fmt.Errorf("build update: %w", err)
	}
	tag, err := r.txm.GetQuerier(ctx).Exec(ctx, sql, args...)
	if err != nil {
		return fmt.Errorf("update plan item: %w", err)
	}
	if tag.RowsAffected() == 0 {
		return apperror.NewNotFound("plan item", item.ID)
	}
	return nil
}

func (r *PlanRepo) ListItems(ctx context.Context, filter production.ItemListFilter) ([]*production.PlanItem, error) {
	q := r.builder.Select(planItemColumns...).From(planItemsTable)

	if filter.Status != "" {
		q = q.Where(squirrel.Eq{"status": filter.Status})
	}
	if !id.IsNil(filter.ProductID) {
		q = q.Where(squirrel.Eq{"product_id": filter.ProductID})
	}
	if !id.IsNil(filter.OrderID) {
		q = q.Where(squirrel.Eq{"order_id": filter.OrderID})
	}

	q = q.OrderBy("created_at")
	if filter.Limit > 0 {
		q = q.Limit(uint64(filter.Limit))
	}
	if filter.Offset > 0 {
		q = q.Offset(uint64(filter.Offset))
	}

	sql, args, err := q.ToSql()
	if err != nil {
		return nil, fmt.Errorf("build query: %w", err)
	}

	var items []*production.PlanItem
	if err := pgxscan.Select(ctx, r.txm.GetQuerier(ctx), &items, sql, args...); err != nil {
		return nil, fmt.Errorf("select plan items: %w", err)
	}
	return items, nil
}

// ListPendingByProduct returns batchable items oldest first, locked so a
// concurrent merge cannot pick up the same items.
func (r *PlanRepo) ListPendingByProduct(ctx context.Context, productID id.ID) ([]*production.PlanItem, error) {
	sql := `
		SELECT id, product_id, order_id, quantity, completed_quantity,
		       status, assigned_to, scheduled_date, notes, batch_id,
		       created_at, updated_at
		FROM production_plan_items
		WHERE product_id = $1 AND status = $2 AND batch_id IS NULL
		ORDER BY created_at
		FOR UPDATE
	`

	var items []*production.PlanItem
	if err := pgxscan.Select(ctx, r.txm.GetQuerier(ctx), &items, sql, productID, production.ItemPending); err != nil {
		return nil, fmt.Errorf("select pending items: %w", err)
	}
	return items, nil
}

var _ production.PlanRepository = (*PlanRepo)(nil)
