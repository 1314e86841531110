// Package events provides in-process event dispatch and the outbox
// delivery handler used by the background worker.
package events

import (
	"context"
	"encoding/json"
	"sync"

	"hornada/internal/core/event"
	"hornada/internal/infrastructure/storage/postgres"
	"hornada/pkg/logger"
)

// HandlerFunc consumes one event.
type HandlerFunc func(ctx context.Context, ev event.Event)

// Dispatcher is an in-process, best-effort event.Publisher. Events are
// queued on a bounded channel and fanned out to subscribers from a single
// goroutine; when the queue is full the event is dropped, never blocking
// the publishing operation.
type Dispatcher struct {
	queue chan event.Event

	mu       sync.RWMutex
	handlers map[string][]HandlerFunc
}

var _ event.Publisher = (*Dispatcher)(nil)

// NewDispatcher creates a dispatcher with the given queue capacity.
func NewDispatcher(capacity int) *Dispatcher {
	if capacity <= 0 {
		capacity = 256
	}
	return &Dispatcher{
		queue:    make(chan event.Event, capacity),
		handlers: make(map[string][]HandlerFunc),
	}
}

// Subscribe registers a handler for an event type. Must be called before
// Run starts consuming.
func (d *Dispatcher) Subscribe(eventType string, fn HandlerFunc) {
	d.mu.Lock()
	defer d.mu.Unlock()
	d.handlers[eventType] = append(d.handlers[eventType], fn)
}

// Publish enqueues the event, dropping it when the queue is full.
func (d *Dispatcher) Publish(ctx context.Context, ev event.Event) {
	select {
	case d.queue <- ev:
	default:
		logger.Warn(ctx, "event queue full, dropping event", "type", ev.Type, "aggregate_id", ev.AggregateID)
	}
}

// Run consumes the queue until ctx is cancelled. Handler panics are
// contained so one bad subscriber cannot stop dispatch.
func (d *Dispatcher) Run(ctx context.Context) {
	for {
		select {
		case <-ctx.Done():
			return
		case ev := <-d.queue:
			d.dispatch(ctx, ev)
		}
	}
}

func (d *Dispatcher) dispatch(ctx context.Context, ev event.Event) {
	d.mu.RLock()
	handlers := d.handlers[ev.Type]
	d.mu.RUnlock()

	for _, fn := range handlers {
		func() {
			defer func() {
				if r := recover(); r != nil {
					logger.Error(ctx, "event handler panicked", "type", ev.Type, "panic", r)
				}
			}()
			fn(ctx, ev)
		}()
	}
}

// LogHandler is an OutboxHandler that logs delivered messages. Stands in
// for a webhook or broker integration.
type LogHandler struct{}

var _ postgres.OutboxHandler = (*LogHandler)(nil)

// Handle logs the message payload.
func (LogHandler) Handle(ctx context.Context, msg *postgres.OutboxMessage) error {
	var payload map[string]any
	if len(msg.Payload) > 0 {
		if err := json.Unmarshal(msg.Payload, &payload); err != nil {
			return err
		}
	}
	logger.Info(ctx, "event delivered",
		"event_type", msg.EventType,
		"aggregate_type", msg.AggregateType,
		"aggregate_id", msg.AggregateID,
		"payload", payload,
	)
	return nil
}
