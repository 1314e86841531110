// Package sales_repo provides PostgreSQL implementations for quotes and
// orders using the header + lines pattern.
package sales_repo

import (
	"context"
	"fmt"

	"github.com/Masterminds/squirrel"
	"github.com/georgysavva/scany/v2/pgxscan"

	"hornada/internal/core/apperror"
	"hornada/internal/core/id"
	"hornada/internal/domain/sales/quote"
	"hornada/internal/infrastructure/storage/postgres"
)

const (
	quotesTable     = "doc_quotes"
	quoteItemsTable = "doc_quote_items"
)

var quoteColumns = []string{
	"id", "number", "customer_id", "status", "total_amount",
	"valid_until", "created_at", "updated_at",
}

// QuoteRepo implements quote.Repository.
type QuoteRepo struct {
	txm     *postgres.TxManager
	builder squirrel.StatementBuilderType
}

// NewQuoteRepo creates a quote repository.
func NewQuoteRepo(txm *postgres.TxManager) *QuoteRepo {
	return &QuoteRepo{
		txm:     txm,
		builder: squirrel.StatementBuilder.PlaceholderFormat(squirrel.Dollar),
	}
}

// Create inserts the quote header and its items.
func (r *QuoteRepo) Create(ctx context.Context, q *quote.Quote) error {
	ins := r.builder.Insert(quotesTable).
		Columns(quoteColumns...).
		Values(q.ID, q.Number, q.CustomerID, q.Status, q.TotalAmount,
			q.ValidUntil, q.CreatedAt, q.UpdatedAt)

	sql, args, err := ins.ToSql()
	if err != nil {
		return fmt.Errorf("build insert: %w", err)
	}
	if _, err := r.txm.GetQuerier(ctx).Exec(ctx, sql, args...); err != nil {
		return fmt.Errorf("insert quote: %w", err)
	}

	return r.saveItems(ctx, q.ID, q.Items)
}

func (r *QuoteRepo) saveItems(ctx context.Context, quoteID id.ID, items []quote.Item) error {
	querier := r.txm.GetQuerier(ctx)

	if _, err := querier.Exec(ctx, "DELETE FROM "+quoteItemsTable+" WHERE quote_id = $1", quoteID); err != nil {
		return fmt.Errorf("delete existing items: %w", err)
	}
	if len(items) == 0 {
		return nil
	}

	ins := r.builder.Insert(quoteItemsTable).
		Columns("line_id", "quote_id", "line_no", "product_id", "quantity", "unit_price", "total")
	for _, it := range items {
		ins = ins.Values(it.LineID, quoteID, it.LineNo, it.ProductID, it.Quantity, it.UnitPrice, it.Total)
	}

	sql, args, err := ins.ToSql()
	if err != nil {
		return fmt.Errorf("build insert items: %w", err)
	}
	if _, err := querier.Exec(ctx, sql, args...); err != nil {
		return fmt.Errorf("insert items: %w", err)
	}
	return nil
}

func (r *QuoteRepo) getItems(ctx context.Context, quoteID id.ID) ([]quote.Item, error) {
	sel := r.builder.Select("line_id", "line_no", "product_id", "quantity", "unit_price", "total").
		From(quoteItemsTable).
		Where(squirrel.Eq{"quote_id": quoteID}).
		OrderBy("line_no")

	sql, args, err := sel.ToSql()
	if err != nil {
		return nil, fmt.Errorf("build query: %w", err)
	}

	var items []quote.Item
	if err := pgxscan.Select(ctx, r.txm.GetQuerier(ctx), &items, sql, args...); err != nil {
		return nil, fmt.Errorf("get items: %w", err)
	}
	return items, nil
}

func (r *QuoteRepo) get(ctx context.Context, quoteID id.ID, forUpdate bool) (*quote.Quote, error) {
	sql := `
		SELECT id, number, customer_id, status, total_amount,
		       valid_until, created_at, updated_at
		FROM doc_quotes
		WHERE id = $1
	`
	if forUpdate {
		sql += " FOR UPDATE"
	}

	var q quote.Quote
	if err := pgxscan.Get(ctx, r.txm.GetQuerier(ctx), &q, sql, quoteID); err != nil {
		if pgxscan.NotFound(err) {
			return nil, apperror.NewNotFound("quote", quoteID)
		}
		return nil, fmt.Errorf("get quote: %w", err)
	}

	items, err := r.getItems(ctx, q.ID)
	if err != nil {
		return nil, err
	}
	q.Items = items
	return &q, nil
}

// GetByID loads a quote with its items.
func (r *QuoteRepo) GetByID(ctx context.Context, quoteID id.ID) (*quote.Quote, error) {
	return r.get(ctx, quoteID, false)
}

// GetByIDForUpdate loads a quote with a row lock.
func (r *QuoteRepo) GetByIDForUpdate(ctx context.Context, quoteID id.ID) (*quote.Quote, error) {
	return r.get(ctx, quoteID, true)
}

// UpdateStatus transitions the quote status.
func (r *QuoteRepo) UpdateStatus(ctx context.Context, quoteID id.ID, status quote.Status) error {
	upd := r.builder.Update(quotesTable).
		Set("status", status).
		Set("updated_at", squirrel.Expr("now()")).
		Where(squirrel.Eq{"id": quoteID})

	sql, args, err := upd.ToSql()
	if err != nil {
		return fmt.Errorf("build update: %w", err)
	}
	tag, err := r.txm.GetQuerier(ctx).Exec(ctx, sql, args...)
	if err != nil {
		return fmt.Errorf("update quote status: %w", err)
	}
	if tag.RowsAffected() == 0 {
		return apperror.NewNotFound("quote", quoteID)
	}
	return nil
}

// List returns quote headers, newest first, without items.
func (r *QuoteRepo) List(ctx context.Context, status quote.Status, limit, offset int) ([]*quote.Quote, error) {
	sel := r.builder.Select(quoteColumns...).From(quotesTable)

	if status != "" {
		sel = sel.Where(squirrel.Eq{"status": status})
	}
	sel = sel.OrderBy("created_at DESC")
	if limit > 0 {
		sel = sel.Limit(uint64(limit))
	}
	if offset > 0 {
		sel = sel.Offset(uint64(offset))
	}

	sql, args, err := sel.ToSql()
	if err != nil {
		return nil, fmt.Errorf("build query: %w", err)
	}

	var quotes []*quote.Quote
	if err := pgxscan.Select(ctx, r.txm.GetQuerier(ctx), &quotes, sql, args...); err != nil {
		return nil, fmt.Errorf("select quotes: %w", err)
	}
	return quotes, nil
}

var _ quote.Repository = (*QuoteRepo)(nil)
