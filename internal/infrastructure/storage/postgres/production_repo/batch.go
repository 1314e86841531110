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

const batchesTable = "production_batches"

var batchColumns = []string{
	"id", "product_id", "quantity", "completed_quantity", "status",
	"created_at", "updated_at",
}

// BatchRepo implements production.BatchRepository. Batch membership lives
// on the plan item rows (batch_id), so the ItemIDs slice is rebuilt on read.
type BatchRepo struct {
	txm     *postgres.TxManager
	builder squirrel.StatementBuilderType
}

// NewBatchRepo creates a batch repository.
func NewBatchRepo(txm *postgres.TxManager) *BatchRepo {
	return &BatchRepo{
		txm:     txm,
		builder: squirrel.StatementBuilder.PlaceholderFormat(squirrel.Dollar),
	}
}

func (r *BatchRepo) CreateBatch(ctx context.Context, b *production.Batch) error {
	q := r.builder.Insert(batchesTable).
		Columns(batchColumns...).
		Values(b.ID, b.ProductID, b.Quantity, b.CompletedQuantity, b.Status, b.CreatedAt, b.UpdatedAt)

	sql, args, err := q.ToSql()
	if err != nil {
		return fmt.Errorf("build insert: %w", err)
	}
	if _, err := r.txm.GetQuerier(ctx).Exec(ctx, sql, args...); err != nil {
		return fmt.Errorf("insert batch: %w", err)
	}
	return nil
}

func (r *BatchRepo) get(ctx context.Context, batchID id.ID, forUpdate bool) (*production.Batch, error) {
	sql := `
		SELECT id, product_id, quantity, completed_quantity, status,
		       created_at, updated_at
		FROM production_batches
		WHERE id = $1
	`
	if forUpdate {
		sql += " FOR UPDATE"
	}

	var b production.Batch
	if err := pgxscan.Get(ctx, r.txm.GetQuerier(ctx), &b, sql, batchID); err != nil {
		if pgxscan.NotFound(err) {
			return nil, apperror.NewNotFound("batch", batchID)
		}
		return nil, fmt.Errorf("get batch: %w", err)
	}

	// Rebuild membership oldest first so progress attribution is stable.
	itemsSQL := `
		SELECT id FROM production_plan_items
		WHERE batch_id = $1
		ORDER BY created_at
	`
	rows, err := r.txm.GetQuerier(ctx).Query(ctx, itemsSQL, batchID)
	if err != nil {
		return nil, fmt.Errorf("get batch items: %w", err)
	}
	defer rows.Close()
	for rows.Next() {
		var itemID id.ID
		if err := rows.Scan(&itemID); err != nil {
			return nil, fmt.Errorf("scan batch item: %w", err)
		}
		b.ItemIDs = append(b.ItemIDs, itemID)
	}
	if err := rows.Err(); err != nil {
		return nil, fmt.Errorf("iterate batch items: %w", err)
	}
	return &b, nil
}

func (r *BatchRepo) GetBatch(ctx context.Context, batchID id.ID) (*production.Batch, error) {
	return r.get(ctx, batchID, false)
}

func (r *BatchRepo) GetBatchForUpdate(ctx context.Context, batchID id.ID) (*production.Batch, error) {
	return r.get(ctx, batchID, true)
}

func (r *BatchRepo) UpdateBatch(ctx context.Context, b *production.Batch) error {
	q := r.builder.Update(batchesTable).
		Set("quantity", b.Quantity).
		Set("completed_quantity", b.CompletedQuantity).
		Set("status", b.Status).
		Set("updated_at", b.UpdatedAt).
		Where(squirrel.Eq{"id": b.ID})

	sql, args, err := q.ToSql()
	if err != nil {
		return fmt.Errorf("build update: %w", err)
	}
	tag, err := r.txm.GetQuerier(ctx).Exec(ctx, sql, args...)
	if err != nil {
		return fmt.Errorf("update batch: %w", err)
	}
	if tag.RowsAffected() == 0 {
		return apperror.NewNotFound("batch", b.ID)
	}
	return nil
}

func (r *BatchRepo) ListBatches(ctx context.Context, status production.BatchStatus, limit, offset int) ([]*production.Batch, error) {
	q := r.builder.Select(batchColumns...).From(batchesTable)

	if status != "" {
		q = q.Where(squirrel.Eq{"status": status})
	}
	q = q.OrderBy("created_at DESC")
	if limit > 0 {
		q = q.Limit(uint64(limit))
	}
	if offset > 0 {
		q = q.Offset(uint64(offset))
	}

	sql, args, err := q.ToSql()
	if err != nil {
		return nil, fmt.Errorf("build query: %w", err)
	}

	var batches []*production.Batch
	if err := pgxscan.Select(ctx, r.txm.GetQuerier(ctx), &batches, sql, args...); err != nil {
		return nil, fmt.Errorf("select batches: %w", err)
	}
	return batches, nil
}

var _ production.BatchRepository = (*BatchRepo)(nil)
