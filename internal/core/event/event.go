// Package event defines domain events and the publisher contract.
//
// Events are advisory signals to external collaborators (notification
// dispatchers, predictors). Delivery is best-effort: a failed or dropped
// event must never fail or roll back the operation that produced it.
package event

import (
	"context"

	"hornada/internal/core/id"
)

// Event types emitted by the fulfillment engine.
const (
	TypeLowStock        = "low_stock"
	TypeProductionReady = "production_ready"
	TypeQuoteConverted  = "quote_converted"
	TypePaymentReceived = "payment_received"
)

// Event is a domain event bound for external dispatch.
type Event struct {
	// AggregateType names the entity kind (e.g. "RawMaterial", "Order").
	AggregateType string
	// AggregateID identifies the entity the event is about.
	AggregateID id.ID
	// Type is one of the Type* constants.
	Type string
	// Payload carries event-specific data, JSON-marshalable.
	Payload any
}

// Publisher delivers events to external collaborators.
//
// Implementations must be non-blocking from the caller's perspective and
// must swallow delivery failures (log-and-continue).
type Publisher interface {
	Publish(ctx context.Context, ev Event)
}

// Nop is a Publisher that discards all events. Useful in tests.
type Nop struct{}

func (Nop) Publish(context.Context, Event) {}

// Fanout publishes every event to all wrapped publishers in order.
type Fanout []Publisher

func (f Fanout) Publish(ctx context.Context, ev Event) {
	for _, p := range f {
		p.Publish(ctx, ev)
	}
}
