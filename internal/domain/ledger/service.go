package ledger

import (
	"context"
	"fmt"
	"time"

	"hornada/internal/core/apperror"
	"hornada/internal/core/event"
	"hornada/internal/core/id"
	"hornada/internal/core/tx"
	"hornada/internal/core/types"
	"hornada/pkg/logger"
)

// Service is the sole writer of cached stock and movement rows. All other
// components route stock mutation through it.
type Service struct {
	repo      Repository
	txManager tx.Manager
	events    event.Publisher
	cfg       Config

	// now is swappable for expiry tests.
	now func() time.Time
}

// NewService creates a ledger service.
func NewService(repo Repository, txManager tx.Manager, events event.Publisher, cfg Config) *Service {
	if events == nil {
		events = event.Nop{}
	}
	return &Service{
		repo:      repo,
		txManager: txManager,
		events:    events,
		cfg:       cfg,
		now:       func() time.Time { return time.Now().UTC() },
	}
}

// RecordMovement atomically appends a movement and updates the cached stock.
// Negative deltas that would drive stock below zero fail with
// INSUFFICIENT_STOCK and leave nothing behind.
func (s *Service) RecordMovement(ctx context.Context, materialID id.ID, delta types.Quantity, reason Reason, actor string) (Movement, error) {
	if delta.IsZero() {
		return Movement{}, apperror.NewValidation("movement delta must not be zero").WithDetail("field", "delta")
	}

	var (
		mv       Movement
		lowStock bool
		newStock types.Quantity
	)
	err := s.txManager.RunInTransaction(ctx, func(ctx context.Context) error {
		mat, err := s.repo.GetMaterialForUpdate(ctx, materialID)
		if err != nil {
			return err
		}

		newStock = mat.CurrentStock + delta
		if newStock.IsNegative() {
			return apperror.NewInsufficientStock(materialID.String(), delta.Neg().Float64(), mat.CurrentStock.Float64())
		}

		mv = NewMovement(materialID, delta, reason, actor)
		if err := s.repo.AppendMovement(ctx, mv); err != nil {
			return fmt.Errorf("append movement: %w", err)
		}
		if err := s.repo.UpdateCachedStock(ctx, materialID, newStock); err != nil {
			return fmt.Errorf("update cached stock: %w", err)
		}

		lowStock = delta.IsNegative() && newStock <= mat.MinimumStock
		return nil
	})
	if err != nil {
		return Movement{}, err
	}

	logger.Debug(ctx, "movement recorded",
		"material_id", materialID,
		"delta", delta,
		"reason", reason,
		"stock", newStock,
	)

	// Best-effort: a failed notification never affects the ledger write.
	if lowStock {
		s.events.Publish(ctx, event.Event{
			AggregateType: "RawMaterial",
			AggregateID:   materialID,
			Type:          event.TypeLowStock,
			Payload: map[string]any{
				"material_id": materialID.String(),
				"stock":       newStock.Float64(),
			},
		})
	}

	return mv, nil
}

// GetStock returns the point-in-time on-hand stock. May race with concurrent
// movements; callers needing consistency must use Reserve.
func (s *Service) GetStock(ctx context.Context, materialID id.ID) (types.Quantity, error) {
	mat, err := s.repo.GetMaterial(ctx, materialID)
	if err != nil {
		return 0, err
	}
	return mat.CurrentStock, nil
}

// Available returns on-hand stock minus active reservations.
func (s *Service) Available(ctx context.Context, materialID id.ID) (types.Quantity, error) {
	var available types.Quantity
	err := s.txManager.RunInTransaction(ctx, func(ctx context.Context) error {
		mat, err := s.repo.GetMaterialForUpdate(ctx, materialID)
		if err != nil {
			return err
		}
		reserved, err := s.repo.ActiveReservedQuantity(ctx, materialID, s.now())
		if err != nil {
			return fmt.Errorf("sum reservations: %w", err)
		}
		available = mat.CurrentStock - reserved
		return nil
	})
	return available, err
}

// Reserve places a soft hold on quantity units of a material. Concurrent
// reservations on the same material serialize on the material row lock, so
// holds can never over-commit available stock.
func (s *Service) Reserve(ctx context.Context, materialID id.ID, quantity types.Quantity) (*Reservation, error) {
	if !quantity.IsPositive() {
		return nil, apperror.NewValidation("reservation quantity must be positive").WithDetail("field", "quantity")
	}

	var res *Reservation
	err := s.txManager.RunInTransaction(ctx, func(ctx context.Context) error {
		mat, err := s.repo.GetMaterialForUpdate(ctx, materialID)
		if err != nil {
			return err
		}
		reserved, err := s.repo.ActiveReservedQuantity(ctx, materialID, s.now())
		if err != nil {
			return fmt.Errorf("sum reservations: %w", err)
		}

		available := mat.CurrentStock - reserved
		if available < quantity {
			return apperror.NewInsufficientStock(materialID.String(), quantity.Float64(), available.Float64())
		}

		now := s.now()
		res = &Reservation{
			Token:      id.New(),
			MaterialID: materialID,
			Quantity:   quantity,
			Status:     ReservationActive,
			ExpiresAt:  now.Add(s.cfg.ReservationTTL),
			CreatedAt:  now,
		}
		if err := s.repo.CreateReservation(ctx, res); err != nil {
			return fmt.Errorf("create reservation: %w", err)
		}
		return nil
	})
	if err != nil {
		return nil, err
	}

	logger.Debug(ctx, "stock reserved", "token", res.Token, "material_id", materialID, "quantity", quantity)
	return res, nil
}

// CommitReservation converts a hold into real consumption: an irreversible
// negative sale movement. A stale or expired token fails with
// RESERVATION_EXPIRED so the caller can retry resolution.
func (s *Service) CommitReservation(ctx context.Context, token id.ID, actor string) error {
	return s.txManager.RunInTransaction(ctx, func(ctx context.Context) error {
		res, err := s.repo.GetReservationForUpdate(ctx, token)
		if err != nil {
			return err
		}
		if !res.IsActive(s.now()) {
			return apperror.NewReservationExpired(token.String())
		}

		mat, err := s.repo.GetMaterialForUpdate(ctx, res.MaterialID)
		if err != nil {
			return err
		}

		newStock := mat.CurrentStock - res.Quantity
		if newStock.IsNegative() {
			// The hold guaranteed availability; reaching here means the
			// cached projection drifted from the movement log.
			return apperror.NewInternal(fmt.Errorf("reservation %s exceeds on-hand stock for material %s", token, res.MaterialID))
		}

		mv := NewMovement(res.MaterialID, res.Quantity.Neg(), ReasonSale, actor)
		if err := s.repo.AppendMovement(ctx, mv); err != nil {
			return fmt.Errorf("append movement: %w", err)
		}
		if err := s.repo.UpdateCachedStock(ctx, res.MaterialID, newStock); err != nil {
			return fmt.Errorf("update cached stock: %w", err)
		}
		if err := s.repo.UpdateReservationStatus(ctx, token, ReservationCommitted); err != nil {
			return fmt.Errorf("commit reservation: %w", err)
		}
		return nil
	})
}

// CancelReservation releases a hold without touching stock. Cancelling an
// already-released reservation is a no-op, so compensating rollbacks can
// retry safely.
func (s *Service) CancelReservation(ctx context.Context, token id.ID) error {
	return s.txManager.RunInTransaction(ctx, func(ctx context.Context) error {
		res, err := s.repo.GetReservationForUpdate(ctx, token)
		if err != nil {
			if apperror.IsNotFound(err) {
				return nil
			}
			return err
		}
		if res.Status != ReservationActive {
			return nil
		}
		return s.repo.UpdateReservationStatus(ctx, token, ReservationCancelled)
	})
}

// ReverseSale restores stock after a reverted sale (e.g. payment failure).
func (s *Service) ReverseSale(ctx context.Context, materialID id.ID, quantity types.Quantity, actor string) (Movement, error) {
	if !quantity.IsPositive() {
		return Movement{}, apperror.NewValidation("reversal quantity must be positive").WithDetail("field", "quantity")
	}
	return s.RecordMovement(ctx, materialID, quantity, ReasonSaleReversal, actor)
}

// ExpireStale sweeps overdue active reservations. Run periodically by the
// worker; keeps crashed transactions from holding stock forever.
func (s *Service) ExpireStale(ctx context.Context) (int64, error) {
	var swept int64
	err := s.txManager.RunInTransaction(ctx, func(ctx context.Context) error {
		n, err := s.repo.ExpireReservations(ctx, s.now())
		if err != nil {
			return fmt.Errorf("expire reservations: %w", err)
		}
		swept = n
		return nil
	})
	if err != nil {
		return 0, err
	}
	if swept > 0 {
		logger.Info(ctx, "expired stale reservations", "count", swept)
	}
	return swept, nil
}

// GetMovements returns movement history for a material.
func (s *Service) GetMovements(ctx context.Context, materialID id.ID, limit, offset int) ([]Movement, error) {
	return s.repo.GetMovements(ctx, materialID, limit, offset)
}

// VerifyProjection recomputes stock from the movement log and reports drift
// between the ledger and the cached projection.
func (s *Service) VerifyProjection(ctx context.Context, materialID id.ID) (cached, computed types.Quantity, err error) {
	err = s.txManager.RunInTransaction(ctx, func(ctx context.Context) error {
		mat, err := s.repo.GetMaterialForUpdate(ctx, materialID)
		if err != nil {
			return err
		}
		sum, err := s.repo.SumMovements(ctx, materialID)
		if err != nil {
			return fmt.Errorf("sum movements: %w", err)
		}
		cached, computed = mat.CurrentStock, sum
		return nil
	})
	return cached, computed, err
}
