// Package ledger provides the raw-material inventory ledger: an append-only
// movement log with a cached stock projection and time-bounded reservations.
package ledger

import (
	"time"

	"hornada/internal/core/id"
	"hornada/internal/core/types"
)

// Reason classifies why stock changed.
type Reason string

const (
	// ReasonPurchase records incoming goods from a supplier.
	ReasonPurchase Reason = "purchase"
	// ReasonProductionConsumption records materials consumed by production.
	ReasonProductionConsumption Reason = "production_consumption"
	// ReasonAdjustment records manual stock corrections.
	ReasonAdjustment Reason = "adjustment"
	// ReasonSale records consumption committed from a reservation.
	ReasonSale Reason = "sale"
	// ReasonSaleReversal restores stock after a reverted sale (payment failure).
	ReasonSaleReversal Reason = "sale_reversal"
)

// Movement is one immutable ledger entry. Movements are never updated or
// deleted; the running sum of deltas for a material equals its cached stock.
type Movement struct {
	ID         id.ID          `db:"id" json:"id"`
	MaterialID id.ID          `db:"material_id" json:"materialId"`
	Delta      types.Quantity `db:"delta" json:"delta"`
	Reason     Reason         `db:"reason" json:"reason"`
	Actor      string         `db:"actor" json:"actor"`
	CreatedAt  time.Time      `db:"created_at" json:"createdAt"`
}

// NewMovement creates a movement with a generated ID.
func NewMovement(materialID id.ID, delta types.Quantity, reason Reason, actor string) Movement {
	return Movement{
		ID:         id.New(),
		MaterialID: materialID,
		Delta:      delta,
		Reason:     reason,
		Actor:      actor,
		CreatedAt:  time.Now().UTC(),
	}
}

// ReservationStatus is the lifecycle state of a soft hold.
type ReservationStatus string

const (
	ReservationActive    ReservationStatus = "active"
	ReservationCommitted ReservationStatus = "committed"
	ReservationCancelled ReservationStatus = "cancelled"
	ReservationExpired   ReservationStatus = "expired"
)

// Reservation is a time-bounded soft hold on stock. It reduces available
// (but not on-hand) stock until committed, cancelled, or expired.
type Reservation struct {
	Token      id.ID             `db:"token" json:"token"`
	MaterialID id.ID             `db:"material_id" json:"materialId"`
	Quantity   types.Quantity    `db:"quantity" json:"quantity"`
	Status     ReservationStatus `db:"status" json:"status"`
	ExpiresAt  time.Time         `db:"expires_at" json:"expiresAt"`
	CreatedAt  time.Time         `db:"created_at" json:"createdAt"`
}

// IsActive reports whether the hold still counts against available stock.
func (r *Reservation) IsActive(now time.Time) bool {
	return r.Status == ReservationActive && now.Before(r.ExpiresAt)
}
