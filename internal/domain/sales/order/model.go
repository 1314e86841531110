// Package order provides confirmed customer orders.
package order

import (
	"context"
	"time"

	"hornada/internal/core/apperror"
	"hornada/internal/core/id"
	"hornada/internal/core/types"
)

// Status is the order lifecycle state.
type Status string

const (
	StatusPending      Status = "pending"
	StatusConfirmed    Status = "confirmed"
	StatusInProduction Status = "in_production"
	StatusReady        Status = "ready"
	StatusDelivered    Status = "delivered"
	StatusCancelled    Status = "cancelled"
)

// Order is a confirmed sale. When created via quote conversion its items
// mirror the quote items and its stock is already committed.
type Order struct {
	ID         id.ID  `db:"id" json:"id"`
	Number     string `db:"number" json:"number"`
	CustomerID id.ID  `db:"customer_id" json:"customerId"`

	// QuoteID references the originating quote, if any.
	QuoteID *id.ID `db:"quote_id" json:"quoteId,omitempty"`

	Status Status      `db:"status" json:"status"`
	Total  types.Money `db:"total" json:"total"`

	DeliveryDate *time.Time `db:"delivery_date" json:"deliveryDate,omitempty"`

	Items []Item `db:"-" json:"items"`

	CreatedAt time.Time `db:"created_at" json:"createdAt"`
	UpdatedAt time.Time `db:"updated_at" json:"updatedAt"`
}

// Item is one ordered product line.
type Item struct {
	LineID    id.ID       `db:"line_id" json:"lineId"`
	LineNo    int         `db:"line_no" json:"lineNo"`
	ProductID id.ID       `db:"product_id" json:"productId"`
	Quantity  int64       `db:"quantity" json:"quantity"`
	UnitPrice types.Money `db:"unit_price" json:"unitPrice"`
	Total     types.Money `db:"total" json:"total"`
}

// New creates an order with a generated ID.
func New(customerID id.ID) *Order {
	now := time.Now().UTC()
	return &Order{
		ID:         id.New(),
		CustomerID: customerID,
		Status:     StatusPending,
		Total:      types.ZeroMoney(),
		Items:      make([]Item, 0),
		CreatedAt:  now,
		UpdatedAt:  now,
	}
}

// AddItem appends a line and recalculates the total, keeping the invariant
// that an order's total equals the sum of its line totals.
func (o *Order) AddItem(productID id.ID, quantity int64, unitPrice types.Money) {
	lineTotal := unitPrice.Mul(types.NewMoney(float64(quantity)))
	o.Items = append(o.Items, Item{
		LineID:    id.New(),
		LineNo:    len(o.Items) + 1,
		ProductID: productID,
		Quantity:  quantity,
		UnitPrice: unitPrice,
		Total:     lineTotal,
	})
	o.recalculateTotal()
}

func (o *Order) recalculateTotal() {
	total := types.ZeroMoney()
	for _, it := range o.Items {
		total = total.Add(it.Total)
	}
	o.Total = total
}

// Validate checks structural invariants.
func (o *Order) Validate(ctx context.Context) error {
	if id.IsNil(o.CustomerID) {
		return apperror.NewValidation("customer is required").WithDetail("field", "customerId")
	}
	if len(o.Items) == 0 {
		return apperror.NewValidation("at least one item is required").WithDetail("field", "items")
	}
	return nil
}

// Repository defines persistence operations for orders.
type Repository interface {
	// Create persists the order and its items atomically.
	Create(ctx context.Context, o *Order) error
	GetByID(ctx context.Context, orderID id.ID) (*Order, error)
	UpdateStatus(ctx context.Context, orderID id.ID, status Status) error
	List(ctx context.Context, status Status, limit, offset int) ([]*Order, error)
}
