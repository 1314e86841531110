package cash

import (
	"context"
	"fmt"
	"time"

	"hornada/internal/core/apperror"
	"hornada/internal/core/audit"
	"hornada/internal/core/event"
	"hornada/internal/core/id"
	"hornada/internal/core/tx"
	"hornada/internal/core/types"
	"hornada/pkg/logger"
)

// Service manages register sessions. The single-open-session invariant is
// enforced under a row lock on the open session.
type Service struct {
	repo      Repository
	txManager tx.Manager
	events    event.Publisher
	auditor   audit.Recorder

	now func() time.Time
}

// NewService creates a cash service.
func NewService(repo Repository, txManager tx.Manager, events event.Publisher, auditor audit.Recorder) *Service {
	if events == nil {
		events = event.Nop{}
	}
	if auditor == nil {
		auditor = audit.Nop{}
	}
	return &Service{
		repo:      repo,
		txManager: txManager,
		events:    events,
		auditor:   auditor,
		now:       func() time.Time { return time.Now().UTC() },
	}
}

// OpenSession starts a shift. Fails with CASH_SESSION_OPEN if one is
// already open.
func (s *Service) OpenSession(ctx context.Context, startAmount types.Money, actor string) (*Session, error) {
	if startAmount.IsNegative() {
		return nil, apperror.NewValidation("start amount cannot be negative").WithDetail("field", "startAmount")
	}

	var session *Session
	err := s.txManager.RunInTransaction(ctx, func(ctx context.Context) error {
		open, err := s.repo.GetOpenSessionForUpdate(ctx)
		if err != nil && !apperror.IsNotFound(err) {
			return err
		}
		if open != nil {
			return apperror.NewCashSessionOpen(open.ID.String())
		}

		session = &Session{
			ID:          id.New(),
			Status:      SessionOpen,
			OpenedBy:    actor,
			StartAmount: startAmount,
			OpenedAt:    s.now(),
		}
		return s.repo.CreateSession(ctx, session)
	})
	if err != nil {
		return nil, err
	}

	logger.Info(ctx, "cash session opened", "session_id", session.ID, "start_amount", startAmount)
	return session, nil
}

// RecordMovement appends a cash movement to the open session.
func (s *Service) RecordMovement(ctx context.Context, kind MovementKind, amount types.Money, orderID *id.ID, description, actor string) (*Movement, error) {
	if !amount.IsPositive() {
		return nil, apperror.NewValidation("amount must be positive").WithDetail("field", "amount")
	}

	var mv *Movement
	err := s.txManager.RunInTransaction(ctx, func(ctx context.Context) error {
		session, err := s.repo.GetOpenSessionForUpdate(ctx)
		if err != nil {
			if apperror.IsNotFound(err) {
				return apperror.NewBusinessRule(apperror.CodeBusinessRule, "no open cash session")
			}
			return err
		}

		mv = &Movement{
			ID:          id.New(),
			SessionID:   session.ID,
			Kind:        kind,
			Amount:      kind.Signed(amount),
			OrderID:     orderID,
			Description: description,
			Actor:       actor,
			CreatedAt:   s.now(),
		}
		return s.repo.AppendMovement(ctx, mv)
	})
	if err != nil {
		return nil, err
	}

	if kind == MovementSale && orderID != nil {
		s.events.Publish(ctx, event.Event{
			AggregateType: "Order",
			AggregateID:   *orderID,
			Type:          event.TypePaymentReceived,
			Payload: map[string]any{
				"order_id": orderID.String(),
				"amount":   amount.String(),
			},
		})
	}
	return mv, nil
}

// CloseSession ends the open session. The calculated end amount is the
// start amount plus every movement; the difference against the declared
// count is stored for reconciliation.
func (s *Service) CloseSession(ctx context.Context, declaredEnd types.Money, actor string) (*Session, error) {
	var session *Session
	err := s.txManager.RunInTransaction(ctx, func(ctx context.Context) error {
		open, err := s.repo.GetOpenSessionForUpdate(ctx)
		if err != nil {
			if apperror.IsNotFound(err) {
				return apperror.NewBusinessRule(apperror.CodeBusinessRule, "no open cash session")
			}
			return err
		}

		movements, err := s.repo.ListMovements(ctx, open.ID)
		if err != nil {
			return fmt.Errorf("list session movements: %w", err)
		}

		calculated := open.StartAmount
		for _, m := range movements {
			calculated = calculated.Add(m.Amount)
		}
		difference := declaredEnd.Sub(calculated)

		now := s.now()
		open.Status = SessionClosed
		open.DeclaredEndAmount = &declaredEnd
		open.CalculatedEndAmount = &calculated
		open.Difference = &difference
		open.ClosedAt = &now
		if err := s.repo.UpdateSession(ctx, open); err != nil {
			return fmt.Errorf("close session: %w", err)
		}
		if err := s.auditor.LogChange(ctx, "cash_session", open.ID, audit.ActionClose, map[string]any{
			"declared":   declaredEnd.String(),
			"calculated": calculated.String(),
			"difference": difference.String(),
			"closed_by":  actor,
		}); err != nil {
			return fmt.Errorf("audit session close: %w", err)
		}
		session = open
		return nil
	})
	if err != nil {
		return nil, err
	}

	logger.Info(ctx, "cash session closed",
		"session_id", session.ID,
		"calculated", session.CalculatedEndAmount,
		"declared", session.DeclaredEndAmount,
		"difference", session.Difference,
	)
	return session, nil
}

// CurrentSession returns the open session, or nil when the register is
// closed.
func (s *Service) CurrentSession(ctx context.Context) (*Session, error) {
	var session *Session
	err := s.txManager.RunInTransaction(ctx, func(ctx context.Context) error {
		open, err := s.repo.GetOpenSessionForUpdate(ctx)
		if err != nil {
			if apperror.IsNotFound(err) {
				return nil
			}
			return err
		}
		session = open
		return nil
	})
	return session, err
}

// SessionMovements returns all movements of a session.
func (s *Service) SessionMovements(ctx context.Context, sessionID id.ID) ([]*Movement, error) {
	return s.repo.ListMovements(ctx, sessionID)
}
