// Package quote provides customer quotations.
package quote

import (
	"context"
	"time"

	"hornada/internal/core/apperror"
	"hornada/internal/core/id"
	"hornada/internal/core/types"
)

// Status is the quote lifecycle state. converted and expired are terminal.
type Status string

const (
	StatusDraft     Status = "draft"
	StatusSent      Status = "sent"
	StatusConverted Status = "converted"
	StatusExpired   Status = "expired"
)

// Quote is a priced offer that may be converted into an order.
type Quote struct {
	ID         id.ID  `db:"id" json:"id"`
	Number     string `db:"number" json:"number"`
	CustomerID id.ID  `db:"customer_id" json:"customerId"`

	Status      Status      `db:"status" json:"status"`
	TotalAmount types.Money `db:"total_amount" json:"totalAmount"`

	ValidUntil *time.Time `db:"valid_until" json:"validUntil,omitempty"`

	Items []Item `db:"-" json:"items"`

	CreatedAt time.Time `db:"created_at" json:"createdAt"`
	UpdatedAt time.Time `db:"updated_at" json:"updatedAt"`
}

// Item is one quoted product line.
type Item struct {
	LineID    id.ID       `db:"line_id" json:"lineId"`
	LineNo    int         `db:"line_no" json:"lineNo"`
	ProductID id.ID       `db:"product_id" json:"productId"`
	Quantity  int64       `db:"quantity" json:"quantity"`
	UnitPrice types.Money `db:"unit_price" json:"unitPrice"`
	Total     types.Money `db:"total" json:"total"`
}

// NewQuote creates a draft quote.
func NewQuote(customerID id.ID) *Quote {
	now := time.Now().UTC()
	return &Quote{
		ID:          id.New(),
		CustomerID:  customerID,
		Status:      StatusDraft,
		TotalAmount: types.ZeroMoney(),
		Items:       make([]Item, 0),
		CreatedAt:   now,
		UpdatedAt:   now,
	}
}

// AddItem appends a line and recalculates the total.
func (q *Quote) AddItem(productID id.ID, quantity int64, unitPrice types.Money) {
	lineTotal := unitPrice.Mul(types.NewMoney(float64(quantity)))
	q.Items = append(q.Items, Item{
		LineID:    id.New(),
		LineNo:    len(q.Items) + 1,
		ProductID: productID,
		Quantity:  quantity,
		UnitPrice: unitPrice,
		Total:     lineTotal,
	})
	q.recalculateTotal()
}

func (q *Quote) recalculateTotal() {
	total := types.ZeroMoney()
	for _, it := range q.Items {
		total = total.Add(it.Total)
	}
	q.TotalAmount = total
}

// Convertible reports whether the quote is in a sendable state.
// Only the fulfillment transaction manager moves a quote to converted.
func (q *Quote) Convertible(now time.Time) error {
	switch q.Status {
	case StatusDraft, StatusSent:
	default:
		return apperror.NewQuoteAlreadyConverted(q.ID.String(), string(q.Status))
	}
	if q.ValidUntil != nil && now.After(*q.ValidUntil) {
		return apperror.NewBusinessRule(apperror.CodeQuoteExpired, "quote validity period has passed").
			WithDetail("quote_id", q.ID.String())
	}
	return nil
}

// Validate checks structural invariants.
func (q *Quote) Validate(ctx context.Context) error {
	if id.IsNil(q.CustomerID) {
		return apperror.NewValidation("customer is required").WithDetail("field", "customerId")
	}
	if len(q.Items) == 0 {
		return apperror.NewValidation("at least one item is required").WithDetail("field", "items")
	}
	for i, it := range q.Items {
		if id.IsNil(it.ProductID) {
			return apperror.NewValidation("product is required").
				WithDetail("field", "items").WithDetail("lineNo", i+1)
		}
		if it.Quantity <= 0 {
			return apperror.NewValidation("quantity must be positive").
				WithDetail("field", "items").WithDetail("lineNo", i+1)
		}
	}
	return nil
}

// Repository defines persistence operations for quotes.
type Repository interface {
	Create(ctx context.Context, q *Quote) error
	GetByID(ctx context.Context, quoteID id.ID) (*Quote, error)

	// GetByIDForUpdate loads the quote with a row lock so concurrent
	// conversions of the same quote serialize.
	GetByIDForUpdate(ctx context.Context, quoteID id.ID) (*Quote, error)

	// UpdateStatus transitions the quote status.
	UpdateStatus(ctx context.Context, quoteID id.ID, status Status) error

	List(ctx context.Context, status Status, limit, offset int) ([]*Quote, error)
}
