// Package fulfillment converts quotes into orders with committed stock.
package fulfillment

import (
	"context"
	"fmt"
	"sort"
	"time"

	"hornada/internal/core/apperror"
	"hornada/internal/core/audit"
	"hornada/internal/core/event"
	"hornada/internal/core/id"
	"hornada/internal/core/tx"
	"hornada/internal/core/types"
	"hornada/internal/domain/catalogs/recipe"
	"hornada/internal/domain/ledger"
	"hornada/internal/domain/production"
	"hornada/internal/domain/sales/order"
	"hornada/internal/domain/sales/quote"
	"hornada/pkg/logger"
)

// NumberGenerator issues sequential document numbers (ORD-000001, ...).
type NumberGenerator interface {
	Next(ctx context.Context, docType string) (string, error)
}

// commitRetries bounds re-reservation attempts when a hold expires between
// acquisition and commit.
const commitRetries = 2

// Service orchestrates the conversion of a quote into an order. Stock is
// acquired through ledger reservations so a failure at any step releases
// every hold and leaves the system exactly as it was.
type Service struct {
	quotes    quote.Repository
	orders    order.Repository
	plans     production.PlanRepository
	recipes   recipe.Resolver
	ledger    *ledger.Service
	txManager tx.Manager
	numbers   NumberGenerator
	events    event.Publisher
	auditor   audit.Recorder

	now func() time.Time
}

// NewService creates a fulfillment service.
func NewService(
	quotes quote.Repository,
	orders order.Repository,
	plans production.PlanRepository,
	recipes recipe.Resolver,
	ledgerSvc *ledger.Service,
	txManager tx.Manager,
	numbers NumberGenerator,
	events event.Publisher,
	auditor audit.Recorder,
) *Service {
	if events == nil {
		events = event.Nop{}
	}
	if auditor == nil {
		auditor = audit.Nop{}
	}
	return &Service{
		quotes:    quotes,
		orders:    orders,
		plans:     plans,
		recipes:   recipes,
		ledger:    ledgerSvc,
		txManager: txManager,
		numbers:   numbers,
		events:    events,
		auditor:   auditor,
		now:       func() time.Time { return time.Now().UTC() },
	}
}

// ConvertQuoteToOrder turns a convertible quote into a confirmed order.
//
// The protocol: aggregate material requirements across all quote items via
// their recipes, reserve every material (collecting all shortages before
// failing), then in one transaction create the order, mark the quote
// converted and commit every hold. Production plan items and the
// production_ready notification follow after commit.
func (s *Service) ConvertQuoteToOrder(ctx context.Context, quoteID id.ID, actor string) (*order.Order, error) {
	q, err := s.quotes.GetByID(ctx, quoteID)
	if err != nil {
		return nil, err
	}
	if err := q.Convertible(s.now()); err != nil {
		return nil, err
	}

	reqs, err := s.aggregateRequirements(ctx, q)
	if err != nil {
		return nil, err
	}

	var ord *order.Order
	for attempt := 0; ; attempt++ {
		tokens, err := s.reserveAll(ctx, reqs)
		if err != nil {
			return nil, err
		}

		ord, err = s.commitConversion(ctx, q, tokens, actor)
		if err == nil {
			break
		}

		// Release whatever survived; CancelReservation is idempotent.
		s.releaseAll(ctx, tokens)

		if apperror.IsReservationExpired(err) && attempt < commitRetries {
			logger.Warn(ctx, "reservation expired before commit, retrying conversion",
				"quote_id", quoteID, "attempt", attempt+1)
			continue
		}
		return nil, err
	}

	s.afterConversion(ctx, q, ord)

	logger.Info(ctx, "quote converted",
		"quote_id", q.ID,
		"order_id", ord.ID,
		"order_number", ord.Number,
		"total", ord.Total,
	)
	return ord, nil
}

// aggregateRequirements sums recipe ingredient needs across all quote items.
// A product without an active recipe fails the whole conversion up front.
func (s *Service) aggregateRequirements(ctx context.Context, q *quote.Quote) (recipe.Requirements, error) {
	total := make(recipe.Requirements)
	for _, it := range q.Items {
		reqs, err := s.recipes.RequirementsFor(ctx, it.ProductID, it.Quantity)
		if err != nil {
			return nil, err
		}
		total.Merge(reqs)
	}
	return total, nil
}

// reserveAll places a hold per material. Every material is attempted even
// after the first shortage so the caller sees the complete short list; any
// shortage releases the holds already acquired.
func (s *Service) reserveAll(ctx context.Context, reqs recipe.Requirements) ([]id.ID, error) {
	// Deterministic order keeps concurrent conversions from deadlocking on
	// row locks and makes shortage reports stable.
	materials := make([]id.ID, 0, len(reqs))
	for mid := range reqs {
		materials = append(materials, mid)
	}
	sort.Slice(materials, func(i, j int) bool {
		return materials[i].String() < materials[j].String()
	})

	tokens := make([]id.ID, 0, len(materials))
	var short []apperror.ShortMaterial
	for _, mid := range materials {
		need := reqs[mid]
		res, err := s.ledger.Reserve(ctx, mid, need)
		if err != nil {
			if apperror.IsInsufficientStock(err) {
				available, availErr := s.ledger.Available(ctx, mid)
				if availErr != nil {
					available = 0
				}
				short = append(short, apperror.ShortMaterial{
					MaterialID: mid.String(),
					Requested:  need.Float64(),
					Available:  available.Float64(),
				})
				continue
			}
			s.releaseAll(ctx, tokens)
			return nil, err
		}
		tokens = append(tokens, res.Token)
	}

	if len(short) > 0 {
		s.releaseAll(ctx, tokens)
		return nil, apperror.NewInsufficientStockList(short)
	}
	return tokens, nil
}

func (s *Service) releaseAll(ctx context.Context, tokens []id.ID) {
	for _, token := range tokens {
		if err := s.ledger.CancelReservation(ctx, token); err != nil {
			logger.Error(ctx, "failed to release reservation", "token", token, "error", err)
		}
	}
}

// commitConversion performs the atomic step: order creation, quote status
// flip and commit of every hold happen in one transaction, or none of them
// happen at all.
func (s *Service) commitConversion(ctx context.Context, q *quote.Quote, tokens []id.ID, actor string) (*order.Order, error) {
	var ord *order.Order
	err := s.txManager.RunInTransaction(ctx, func(ctx context.Context) error {
		// Re-check under lock: a concurrent conversion may have won.
		locked, err := s.quotes.GetByIDForUpdate(ctx, q.ID)
		if err != nil {
			return err
		}
		if err := locked.Convertible(s.now()); err != nil {
			return err
		}

		number, err := s.numbers.Next(ctx, "order")
		if err != nil {
			return fmt.Errorf("generate order number: %w", err)
		}

		ord = order.New(locked.CustomerID)
		ord.Number = number
		ord.QuoteID = &locked.ID
		ord.Status = order.StatusConfirmed
		for _, it := range locked.Items {
			ord.AddItem(it.ProductID, it.Quantity, it.UnitPrice)
		}
		if err := ord.Validate(ctx); err != nil {
			return err
		}
		if err := s.orders.Create(ctx, ord); err != nil {
			return apperror.NewOrderCreationFailed(err)
		}

		if err := s.quotes.UpdateStatus(ctx, locked.ID, quote.StatusConverted); err != nil {
			return fmt.Errorf("mark quote converted: %w", err)
		}

		if err := s.auditor.LogChange(ctx, "quote", locked.ID, audit.ActionConvert, map[string]any{
			"order_id":     ord.ID.String(),
			"order_number": ord.Number,
			"total":        ord.Total.String(),
		}); err != nil {
			return fmt.Errorf("audit conversion: %w", err)
		}

		for _, token := range tokens {
			if err := s.ledger.CommitReservation(ctx, token, actor); err != nil {
				return err
			}
		}
		return nil
	})
	if err != nil {
		return nil, err
	}
	return ord, nil
}

// afterConversion enqueues production work and notifies listeners. Both are
// best-effort: the order already exists and must not be rolled back by a
// planning or notification failure.
func (s *Service) afterConversion(ctx context.Context, q *quote.Quote, ord *order.Order) {
	for _, it := range ord.Items {
		item := production.NewPlanItem(it.ProductID, it.Quantity)
		item.OrderID = &ord.ID
		if err := s.plans.CreateItem(ctx, item); err != nil {
			logger.Error(ctx, "failed to enqueue production plan item",
				"order_id", ord.ID, "product_id", it.ProductID, "error", err)
		}
	}

	s.events.Publish(ctx, event.Event{
		AggregateType: "Quote",
		AggregateID:   q.ID,
		Type:          event.TypeQuoteConverted,
		Payload: map[string]any{
			"quote_id": q.ID.String(),
			"order_id": ord.ID.String(),
		},
	})
	s.events.Publish(ctx, event.Event{
		AggregateType: "Order",
		AggregateID:   ord.ID,
		Type:          event.TypeProductionReady,
		Payload: map[string]any{
			"order_id":     ord.ID.String(),
			"order_number": ord.Number,
			"quote_id":     q.ID.String(),
			"items":        len(ord.Items),
		},
	})
}

// ReserveForOrder places holds for an ad-hoc material need outside of quote
// conversion, e.g. a direct counter sale.
func (s *Service) ReserveForOrder(ctx context.Context, materialID id.ID, quantity types.Quantity) (*ledger.Reservation, error) {
	return s.ledger.Reserve(ctx, materialID, quantity)
}

// ReleaseReservation cancels a hold placed via ReserveForOrder.
func (s *Service) ReleaseReservation(ctx context.Context, token id.ID) error {
	return s.ledger.CancelReservation(ctx, token)
}
