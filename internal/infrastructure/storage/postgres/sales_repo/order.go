package sales_repo

import (
	"context"
	"fmt"

	"github.com/Masterminds/squirrel"
	"github.com/georgysavva/scany/v2/pgxscan"

	"hornada/internal/core/apperror"
	"hornada/internal/core/id"
	"hornada/internal/domain/sales/order"
	"hornada/internal/infrastructure/storage/postgres"
)

const (
	ordersTable     = "doc_orders"
	orderItemsTable = "doc_order_items"
)

var orderColumns = []string{
	"id", "number", "customer_id", "quote_id", "status", "total",
	"delivery_date", "created_at", "updated_at",
}

// OrderRepo implements order.Repository.
type OrderRepo struct {
	txm     *postgres.TxManager
	builder squirrel.StatementBuilderType
}

// NewOrderRepo creates an order repository.
func NewOrderRepo(txm *postgres.TxManager) *OrderRepo {
	return &OrderRepo{
		txm:     txm,
		builder: squirrel.StatementBuilder.PlaceholderFormat(squirrel.Dollar),
	}
}

// Create inserts the order header and its items. Always called inside the
// conversion transaction.
func (r *OrderRepo) Create(ctx context.Context, o *order.Order) error {
	ins := r.builder.Insert(ordersTable).
		Columns(orderColumns...).
		Values(o.ID, o.Number, o.CustomerID, o.QuoteID, o.Status, o.Total,
			o.DeliveryDate, o.CreatedAt, o.UpdatedAt)

	sql, args, err := ins.ToSql()
	if err != nil {
		return fmt.Errorf("build insert: %w", err)
	}
	querier := r.txm.GetQuerier(ctx)
	if _, err := querier.Exec(ctx, sql, args...); err != nil {
		return fmt.Errorf("insert order: %w", err)
	}

	if len(o.Items) == 0 {
		return nil
	}
	itemsIns := r.builder.Insert(orderItemsTable).
		Columns("line_id", "order_id", "line_no", "product_id", "quantity", "unit_price", "total")
	for _, it := range o.Items {
		itemsIns = itemsIns.Values(it.LineID, o.ID, it.LineNo, it.ProductID, it.Quantity, it.UnitPrice, it.Total)
	}
	sql, args, err = itemsIns.ToSql()
	if err != nil {
		return fmt.Errorf("build insert items: %w", err)
	}
	if _, err := querier.Exec(ctx, sql, args...); err != nil {
		return fmt.Errorf("insert items: %w", err)
	}
	return nil
}

// GetByID loads an order with its items.
func (r *OrderRepo) GetByID(ctx context.Context, orderID id.ID) (*order.Order, error) {
	sel := r.builder.Select(orderColumns...).
		From(ordersTable).
		Where(squirrel.Eq{"id": orderID}).
		Limit(1)

	sql, args, err := sel.ToSql()
	if err != nil {
		return nil, fmt.Errorf("build query: %w", err)
	}

	var o order.Order
	if err := pgxscan.Get(ctx, r.txm.GetQuerier(ctx), &o, sql, args...); err != nil {
		if pgxscan.NotFound(err) {
			return nil, apperror.NewNotFound("order", orderID)
		}
		return nil, fmt.Errorf("get order: %w", err)
	}

	itemsSel := r.builder.Select("line_id", "line_no", "product_id", "quantity", "unit_price", "total").
		From(orderItemsTable).
		Where(squirrel.Eq{"order_id": o.ID}).
		OrderBy("line_no")

	sql, args, err = itemsSel.ToSql()
	if err != nil {
		return nil, fmt.Errorf("build query: %w", err)
	}
	if err := pgxscan.Select(ctx, r.txm.GetQuerier(ctx), &o.Items, sql, args...); err != nil {
		return nil, fmt.Errorf("get items: %w", err)
	}
	return &o, nil
}

// UpdateStatus transitions the order status.
func (r *OrderRepo) UpdateStatus(ctx context.Context, orderID id.ID, status order.Status) error {
	upd := r.builder.Update(ordersTable).
		Set("status", status).
		Set("updated_at", squirrel.Expr("now()")).
		Where(squirrel.Eq{"id": orderID})

	sql, args, err := upd.ToSql()
	if err != nil {
		return fmt.Errorf("build update: %w", err)
	}
	tag, err := r.txm.GetQuerier(ctx).Exec(ctx, sql, args...)
	if err != nil {
		return fmt.Errorf("update order status: %w", err)
	}
	if tag.RowsAffected() == 0 {
		return apperror.NewNotFound("order", orderID)
	}
	return nil
}

// List returns order headers, newest first, without items.
func (r *OrderRepo) List(ctx context.Context, status order.Status, limit, offset int) ([]*order.Order, error) {
	sel := r.builder.Select(orderColumns...).From(ordersTable)

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

	var orders []*order.Order
	if err := pgxscan.Select(ctx, r.txm.GetQuerier(ctx), &orders, sql, args...); err != nil {
		return nil, fmt.Errorf("select orders: %w", err)
	}
	return orders, nil
}

var _ order.Repository = (*OrderRepo)(nil)
