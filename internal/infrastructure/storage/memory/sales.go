package memory

import (
	"context"
	"sort"
	"sync"
	"time"

	"hornada/internal/core/apperror"
	"hornada/internal/core/id"
	"hornada/internal/domain/sales/order"
	"hornada/internal/domain/sales/quote"
)

// QuoteRepo implements quote.Repository in memory.
type QuoteRepo struct {
	mu     sync.RWMutex
	quotes map[id.ID]quote.Quote
}

// NewQuoteRepo creates an empty quote repository.
func NewQuoteRepo() *QuoteRepo {
	return &QuoteRepo{quotes: make(map[id.ID]quote.Quote)}
}

func (r *QuoteRepo) Create(ctx context.Context, q *quote.Quote) error {
	r.mu.Lock()
	defer r.mu.Unlock()
	if _, ok := r.quotes[q.ID]; ok {
		return apperror.NewDuplicate("quote", "id", q.ID.String())
	}
	r.quotes[q.ID] = cloneQuote(q)
	return nil
}

func (r *QuoteRepo) GetByID(ctx context.Context, quoteID id.ID) (*quote.Quote, error) {
	r.mu.RLock()
	defer r.mu.RUnlock()
	q, ok := r.quotes[quoteID]
	if !ok {
		return nil, apperror.NewNotFound("quote", quoteID)
	}
	out := cloneQuote(&q)
	return &out, nil
}

func (r *QuoteRepo) GetByIDForUpdate(ctx context.Context, quoteID id.ID) (*quote.Quote, error) {
	return r.GetByID(ctx, quoteID)
}

func (r *QuoteRepo) UpdateStatus(ctx context.Context, quoteID id.ID, status quote.Status) error {
	r.mu.Lock()
	defer r.mu.Unlock()
	q, ok := r.quotes[quoteID]
	if !ok {
		return apperror.NewNotFound("quote", quoteID)
	}
	q.Status = status
	q.UpdatedAt = time.Now().UTC()
	r.quotes[quoteID] = q
	return nil
}

func (r *QuoteRepo) List(ctx context.Context, status quote.Status, limit, offset int) ([]*quote.Quote, error) {
	r.mu.RLock()
	defer r.mu.RUnlock()

	var out []*quote.Quote
	for _, q := range r.quotes {
		if status != "" && q.Status != status {
			continue
		}
		c := cloneQuote(&q)
		out = append(out, &c)
	}
	sort.Slice(out, func(i, j int) bool { return out[i].CreatedAt.After(out[j].CreatedAt) })
	return paginate(out, limit, offset), nil
}

func cloneQuote(q *quote.Quote) quote.Quote {
	out := *q
	out.Items = append([]quote.Item(nil), q.Items...)
	return out
}

var _ quote.Repository = (*QuoteRepo)(nil)

// OrderRepo implements order.Repository in memory.
type OrderRepo struct {
	mu     sync.RWMutex
	orders map[id.ID]order.Order
}

// NewOrderRepo creates an empty order repository.
func NewOrderRepo() *OrderRepo {
	return &OrderRepo{orders: make(map[id.ID]order.Order)}
}

func (r *OrderRepo) Create(ctx context.Context, o *order.Order) error {
	r.mu.Lock()
	defer r.mu.Unlock()
	if _, ok := r.orders[o.ID]; ok {
		return apperror.NewDuplicate("order", "id", o.ID.String())
	}
	r.orders[o.ID] = cloneOrder(o)
	return nil
}

func (r *OrderRepo) GetByID(ctx context.Context, orderID id.ID) (*order.Order, error) {
	r.mu.RLock()
	defer r.mu.RUnlock()
	o, ok := r.orders[orderID]
	if !ok {
		return nil, apperror.NewNotFound("order", orderID)
	}
	out := cloneOrder(&o)
	return &out, nil
}

func (r *OrderRepo) UpdateStatus(ctx context.Context, orderID id.ID, status order.Status) error {
	r.mu.Lock()
	defer r.mu.Unlock()
	o, ok := r.orders[orderID]
	if !ok {
		return apperror.NewNotFound("order", orderID)
	}
	o.Status = status
	o.UpdatedAt = time.Now().UTC()
	r.orders[orderID] = o
	return nil
}

func (r *OrderRepo) List(ctx context.Context, status order.Status, limit, offset int) ([]*order.Order, error) {
	r.mu.RLock()
	defer r.mu.RUnlock()

	var out []*order.Order
	for _, o := range r.orders {
		if status != "" && o.Status != status {
			continue
		}
		c := cloneOrder(&o)
		out = append(out, &c)
	}
	sort.Slice(out, func(i, j int) bool { return out[i].CreatedAt.After(out[j].CreatedAt) })
	return paginate(out, limit, offset), nil
}

// Count returns the number of stored orders. Test helper.
func (r *OrderRepo) Count() int {
	r.mu.RLock()
	defer r.mu.RUnlock()
	return len(r.orders)
}

func cloneOrder(o *order.Order) order.Order {
	out := *o
	out.Items = append([]order.Item(nil), o.Items...)
	return out
}

var _ order.Repository = (*OrderRepo)(nil)
