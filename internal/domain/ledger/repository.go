package ledger

import (
	"context"
	"time"

	"hornada/internal/core/id"
	"hornada/internal/core/types"
	"hornada/internal/domain/catalogs/material"
)

// Repository defines persistence operations for the ledger.
//
// Mutating methods are always called inside a transaction started by the
// service; GetMaterialForUpdate takes the per-material row lock that
// serializes concurrent movements and reservations.
type Repository interface {
	// GetMaterial loads the material row without locking.
	GetMaterial(ctx context.Context, materialID id.ID) (*material.RawMaterial, error)

	// GetMaterialForUpdate loads the material row with a pessimistic lock.
	GetMaterialForUpdate(ctx context.Context, materialID id.ID) (*material.RawMaterial, error)

	// UpdateCachedStock writes the cached stock projection.
	UpdateCachedStock(ctx context.Context, materialID id.ID, stock types.Quantity) error

	// AppendMovement inserts an immutable movement row.
	AppendMovement(ctx context.Context, m Movement) error

	// GetMovements returns movement history for a material, newest first.
	GetMovements(ctx context.Context, materialID id.ID, limit, offset int) ([]Movement, error)

	// SumMovements returns the sum of all deltas for a material.
	SumMovements(ctx context.Context, materialID id.ID) (types.Quantity, error)

	// CreateReservation inserts an active reservation.
	CreateReservation(ctx context.Context, r *Reservation) error

	// GetReservationForUpdate loads a reservation with a pessimistic lock.
	GetReservationForUpdate(ctx context.Context, token id.ID) (*Reservation, error)

	// UpdateReservationStatus transitions a reservation.
	UpdateReservationStatus(ctx context.Context, token id.ID, status ReservationStatus) error

	// ActiveReservedQuantity sums active, unexpired holds for a material.
	ActiveReservedQuantity(ctx context.Context, materialID id.ID, now time.Time) (types.Quantity, error)

	// ExpireReservations flips overdue active reservations to expired and
	// returns how many were swept.
	ExpireReservations(ctx context.Context, now time.Time) (int64, error)
}
