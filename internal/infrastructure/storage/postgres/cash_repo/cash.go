// Package cash_repo provides the PostgreSQL implementation of cash session
// storage.
package cash_repo

import (
	"context"
	"fmt"

	"github.com/Masterminds/squirrel"
	"github.com/georgysavva/scany/v2/pgxscan"

	"hornada/internal/core/apperror"
	"hornada/internal/core/id"
	"hornada/internal/domain/cash"
	"hornada/internal/infrastructure/storage/postgres"
)

const (
	sessionsTable      = "cash_sessions"
	cashMovementsTable = "cash_movements"
)

var sessionColumns = []string{
	"id", "status", "opened_by", "start_amount",
	"declared_end_amount", "calculated_end_amount", "difference",
	"opened_at", "closed_at",
}

// CashRepo implements cash.Repository.
type CashRepo struct {
	txm     *postgres.TxManager
	builder squirrel.StatementBuilderType
}

// NewCashRepo creates a cash repository.
func NewCashRepo(txm *postgres.TxManager) *CashRepo {
	return &CashRepo{
		txm:     txm,
		builder: squirrel.StatementBuilder.PlaceholderFormat(squirrel.Dollar),
	}
}

func (r *CashRepo) CreateSession(ctx context.Context, s *cash.Session) error {
	q := r.builder.Insert(sessionsTable).
		Columns(sessionColumns...).
		Values(s.ID, s.Status, s.OpenedBy, s.StartAmount,
			s.DeclaredEndAmount, s.CalculatedEndAmount, s.Difference,
			s.OpenedAt, s.ClosedAt)

	sql, args, err := q.ToSql()
	if err != nil {
		return fmt.Errorf("build insert: %w", err)
	}
	if _, err := r.txm.GetQuerier(ctx).Exec(ctx, sql, args...); err != nil {
		return fmt.Errorf("insert session: %w", err)
	}
	return nil
}

func (r *CashRepo) GetSession(ctx context.Context, sessionID id.ID) (*cash.Session, error) {
	q := r.builder.Select(sessionColumns...).
		From(sessionsTable).
		Where(squirrel.Eq{"id": sessionID}).
		Limit(1)

	sql, args, err := q.ToSql()
	if err != nil {
		return nil, fmt.Errorf("build query: %w", err)
	}

	var s cash.Session
	if err := pgxscan.Get(ctx, r.txm.GetQuerier(ctx), &s, sql, args...); err != nil {
		if pgxscan.NotFound(err) {
			return nil, apperror.NewNotFound("cash session", sessionID)
		}
		return nil, fmt.Errorf("get session: %w", err)
	}
	return &s, nil
}

// GetOpenSessionForUpdate returns the open session with a row lock. The
// single-open-session invariant rests on this lock.
func (r *CashRepo) GetOpenSessionForUpdate(ctx context.Context) (*cash.Session, error) {
	sql := `
		SELECT id, status, opened_by, start_amount,
		       declared_end_amount, calculated_end_amount, difference,
		       opened_at, closed_at
		FROM cash_sessions
		WHERE status = $1
		ORDER BY opened_at DESC
		LIMIT 1
		FOR UPDATE
	`

	var s cash.Session
	if err := pgxscan.Get(ctx, r.txm.GetQuerier(ctx), &s, sql, cash.SessionOpen); err != nil {
		if pgxscan.NotFound(err) {
			return nil, apperror.NewNotFound("open cash session", nil)
		}
		return nil, fmt.Errorf("get open session: %w", err)
	}
	return &s, nil
}

func (r *CashRepo) UpdateSession(ctx context.Context, s *cash.Session) error {
	q := r.builder.Update(sessionsTable).
		Set("status", s.Status).
		Set("declared_end_amount", s.DeclaredEndAmount).
		Set("calculated_end_amount", s.CalculatedEndAmount).
		Set("difference", s.Difference).
		Set("closed_at", s.ClosedAt).
		Where(squirrel.Eq{"id": s.ID})

	sql, args, err := q.ToSql()
	if err != nil {
		return fmt.Errorf("build update: %w", err)
	}
	tag, err := r.txm.GetQuerier(ctx).Exec(ctx, sql, args...)
	if err != nil {
		return fmt.Errorf("update session: %w", err)
	}
	if tag.RowsAffected() == 0 {
		return apperror.NewNotFound("cash session", s.ID)
	}
	return nil
}

func (r *CashRepo) ListSessions(ctx context.Context, limit, offset int) ([]*cash.Session, error) {
	q := r.builder.Select(sessionColumns...).
		From(sessionsTable).
		OrderBy("opened_at DESC")

	if limit > 0 {
		q = q.Limit(uint64(limit))
	}
	if offset > 0 {
		q = q.Offset(uint64(offset))
	}

	sql, args, err := q.ToSql()
	if err != nil {
		return nil, fmt.Errorf("build query: %w", err)
	}

	var sessions []*cash.Session
	if err := pgxscan.Select(ctx, r.txm.GetQuerier(ctx), &sessions, sql, args...); err != nil {
		return nil, fmt.Errorf("select sessions: %w", err)
	}
	return sessions, nil
}

func (r *CashRepo) AppendMovement(ctx context.Context, m *cash.Movement) error {
	q := r.builder.Insert(cashMovementsTable).
		Columns("id", "session_id", "kind", "amount", "order_id", "description", "actor", "created_at").
		Values(m.ID, m.SessionID, m.Kind, m.Amount, m.OrderID, m.Description, m.Actor, m.CreatedAt)

	sql, args, err := q.ToSql()
	if err != nil {
		return fmt.Errorf("build insert: %w", err)
	}
	if _, err := r.txm.GetQuerier(ctx).Exec(ctx, sql, args...); err != nil {
		return fmt.Errorf("insert cash movement: %w", err)
	}
	return nil
}

func (r *CashRepo) ListMovements(ctx context.Context, sessionID id.ID) ([]*cash.Movement, error) {
	q := r.builder.Select("id", "session_id", "kind", "amount", "order_id", "description", "actor", "created_at").
		From(cashMovementsTable).
		Where(squirrel.Eq{"session_id": sessionID}).
		OrderBy("created_at")

	sql, args, err := q.ToSql()
	if err != nil {
		return nil, fmt.Errorf("build query: %w", err)
	}

	var movements []*cash.Movement
	if err := pgxscan.Select(ctx, r.txm.GetQuerier(ctx), &movements, sql, args...); err != nil {
		return nil, fmt.Errorf("select cash movements: %w", err)
	}
	return movements, nil
}

var _ cash.Repository = (*CashRepo)(nil)
