// Package ledger_repo provides the PostgreSQL implementation of the stock
// ledger: the movement register, the cached stock projection and the
// reservation table.
package ledger_repo

import (
	"context"
	"fmt"
	"time"

	"github.com/Masterminds/squirrel"
	"github.com/georgysavva/scany/v2/pgxscan"
	"github.com/jackc/pgx/v5"

	"hornada/internal/core/apperror"
	"hornada/internal/core/id"
	"hornada/internal/core/types"
	"hornada/internal/domain/catalogs/material"
	"hornada/internal/domain/ledger"
	"hornada/internal/infrastructure/storage/postgres"
)

const (
	materialsTable    = "raw_materials"
	movementsTable    = "stock_movements"
	reservationsTable = "stock_reservations"
)

// LedgerRepo implements ledger.Repository.
type LedgerRepo struct {
	txm     *postgres.TxManager
	builder squirrel.StatementBuilderType
}

// NewLedgerRepo creates a ledger repository.
func NewLedgerRepo(txm *postgres.TxManager) *LedgerRepo {
	return &LedgerRepo{
		txm:     txm,
		builder: squirrel.StatementBuilder.PlaceholderFormat(squirrel.Dollar),
	}
}

const materialSelect = `
	SELECT id, name, category, unit, cost_per_unit,
	       current_stock, minimum_stock, supplier,
	       created_at, updated_at
	FROM raw_materials
	WHERE id = $1
`

// GetMaterial loads the material row without locking.
func (r *LedgerRepo) GetMaterial(ctx context.Context, materialID id.ID) (*material.RawMaterial, error) {
	var m material.RawMaterial
	if err := pgxscan.Get(ctx, r.txm.GetQuerier(ctx), &m, materialSelect, materialID); err != nil {
		if pgxscan.NotFound(err) {
			return nil, apperror.NewNotFound("raw material", materialID)
		}
		return nil, fmt.Errorf("get material: %w", err)
	}
	return &m, nil
}

// GetMaterialForUpdate loads the material row with a pessimistic lock. This
// row lock is what serializes all stock operations on one material.
func (r *LedgerRepo) GetMaterialForUpdate(ctx context.Context, materialID id.ID) (*material.RawMaterial, error) {
	var m material.RawMaterial
	if err := pgxscan.Get(ctx, r.txm.GetQuerier(ctx), &m, materialSelect+" FOR UPDATE", materialID); err != nil {
		if pgxscan.NotFound(err) {
			return nil, apperror.NewNotFound("raw material", materialID)
		}
		return nil, fmt.Errorf("get material for update: %w", err)
	}
	return &m, nil
}

// UpdateCachedStock writes the cached projection column.
func (r *LedgerRepo) UpdateCachedStock(ctx context.Context, materialID id.ID, stock types.Quantity) error {
	q := r.builder.Update(materialsTable).
		Set("current_stock", stock.Int64Scaled()).
		Set("updated_at", time.Now().UTC()).
		Where(squirrel.Eq{"id": materialID})

	sql, args, err := q.ToSql()
	if err != nil {
		return fmt.Errorf("build update: %w", err)
	}
	tag, err := r.txm.GetQuerier(ctx).Exec(ctx, sql, args...)
	if err != nil {
		return fmt.Errorf("update cached stock: %w", err)
	}
	if tag.RowsAffected() == 0 {
		return apperror.NewNotFound("raw material", materialID)
	}
	return nil
}

// AppendMovement inserts an immutable movement row.
func (r *LedgerRepo) AppendMovement(ctx context.Context, m ledger.Movement) error {
	q := r.builder.Insert(movementsTable).
		Columns("id", "material_id", "delta", "reason", "actor", "created_at").
		Values(m.ID, m.MaterialID, m.Delta.Int64Scaled(), m.Reason, m.Actor, m.CreatedAt)

	sql, args, err := q.ToSql()
	if err != nil {
		return fmt.Errorf("build insert: %w", err)
	}
	if _, err := r.txm.GetQuerier(ctx).Exec(ctx, sql, args...); err != nil {
		return fmt.Errorf("insert movement: %w", err)
	}
	return nil
}

// GetMovements returns movement history, newest first.
func (r *LedgerRepo) GetMovements(ctx context.Context, materialID id.ID, limit, offset int) ([]ledger.Movement, error) {
	q := r.builder.Select("id", "material_id", "delta", "reason", "actor", "created_at").
		From(movementsTable).
		Where(squirrel.Eq{"material_id": materialID}).
		OrderBy("created_at DESC")

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

	var movements []ledger.Movement
	if err := pgxscan.Select(ctx, r.txm.GetQuerier(ctx), &movements, sql, args...); err != nil {
		return nil, fmt.Errorf("select movements: %w", err)
	}
	return movements, nil
}

// SumMovements recomputes stock from the movement log.
func (r *LedgerRepo) SumMovements(ctx context.Context, materialID id.ID) (types.Quantity, error) {
	sql := `SELECT COALESCE(SUM(delta), 0) FROM stock_movements WHERE material_id = $1`

	var sumScaled int64
	err := r.txm.GetQuerier(ctx).QueryRow(ctx, sql, materialID).Scan(&sumScaled)
	if err != nil && err != pgx.ErrNoRows {
		return 0, fmt.Errorf("sum movements: %w", err)
	}
	return types.NewQuantityFromInt64Scaled(sumScaled), nil
}

// CreateReservation inserts an active reservation.
func (r *LedgerRepo) CreateReservation(ctx context.Context, res *ledger.Reservation) error {
	q := r.builder.Insert(reservationsTable).
		Columns("token", "material_id", "quantity", "status", "expires_at", "created_at").
		Values(res.Token, res.MaterialID, res.Quantity.Int64Scaled(), res.Status, res.ExpiresAt, res.CreatedAt)

	sql, args, err := q.ToSql()
	if err != nil {
		return fmt.Errorf("build insert: %w", err)
	}
	if _, err := r.txm.GetQuerier(ctx).Exec(ctx, sql, args...); err != nil {
		return fmt.Errorf("insert reservation: %w", err)
	}
	return nil
}

// GetReservationForUpdate loads a reservation with a pessimistic lock.
func (r *LedgerRepo) GetReservationForUpdate(ctx context.Context, token id.ID) (*ledger.Reservation, error) {
	sql := `
		SELECT token, material_id, quantity, status, expires_at, created_at
		FROM stock_reservations
		WHERE token = $1
		FOR UPDATE
	`

	var res ledger.Reservation
	if err := pgxscan.Get(ctx, r.txm.GetQuerier(ctx), &res, sql, token); err != nil {
		if pgxscan.NotFound(err) {
			return nil, apperror.NewNotFound("reservation", token)
		}
		return nil, fmt.Errorf("get reservation for update: %w", err)
	}
	return &res, nil
}

// UpdateReservationStatus transitions a reservation.
func (r *LedgerRepo) UpdateReservationStatus(ctx context.Context, token id.ID, status ledger.ReservationStatus) error {
	q := r.builder.Update(reservationsTable).
		Set("status", status).
		Where(squirrel.Eq{"token": token})

	sql, args, err := q.ToSql()
	if err != nil {
		return fmt.Errorf("build update: %w", err)
	}
	tag, err := r.txm.GetQuerier(ctx).Exec(ctx, sql, args...)
	if err != nil {
		return fmt.Errorf("update reservation status: %w", err)
	}
	if tag.RowsAffected() == 0 {
		return apperror.NewNotFound("reservation", token)
	}
	return nil
}

// ActiveReservedQuantity sums active, unexpired holds for a material.
func (r *LedgerRepo) ActiveReservedQuantity(ctx context.Context, materialID id.ID, now time.Time) (types.Quantity, error) {
	sql := `
		SELECT COALESCE(SUM(quantity), 0)
		FROM stock_reservations
		WHERE material_id = $1 AND status = $2 AND expires_at > $3
	`

	var reservedScaled int64
	err := r.txm.GetQuerier(ctx).QueryRow(ctx, sql, materialID, ledger.ReservationActive, now).Scan(&reservedScaled)
	if err != nil && err != pgx.ErrNoRows {
		return 0, fmt.Errorf("sum active reservations: %w", err)
	}
	return types.NewQuantityFromInt64Scaled(reservedScaled), nil
}

// ExpireReservations flips overdue active reservations to expired.
func (r *LedgerRepo) ExpireReservations(ctx context.Context, now time.Time) (int64, error) {
	q := r.builder.Update(reservationsTable).
		Set("status", ledger.ReservationExpired).
		Where(squirrel.Eq{"status": ledger.ReservationActive}).
		Where(squirrel.LtOrEq{"expires_at": now})

	sql, args, err := q.ToSql()
	if err != nil {
		return 0, fmt.Errorf("build update: %w", err)
	}
	tag, err := r.txm.GetQuerier(ctx).Exec(ctx, sql, args...)
	if err != nil {
		return 0, fmt.Errorf("expire reservations: %w", err)
	}
	return tag.RowsAffected(), nil
}

var _ ledger.Repository = (*LedgerRepo)(nil)
