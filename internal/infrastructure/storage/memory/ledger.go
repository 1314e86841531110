package memory

import (
	"context"
	"sync"
	"time"

	"hornada/internal/core/apperror"
	"hornada/internal/core/id"
	"hornada/internal/core/types"
	"hornada/internal/domain/catalogs/material"
	"hornada/internal/domain/ledger"
)

// LedgerRepo implements ledger.Repository in memory. It shares the
// material map with a MaterialRepo so cached stock is visible to both.
type LedgerRepo struct {
	mu           sync.RWMutex
	materials    *MaterialRepo
	movements    []ledger.Movement
	reservations map[id.ID]ledger.Reservation
}

// NewLedgerRepo creates a ledger repository over the given material store.
func NewLedgerRepo(materials *MaterialRepo) *LedgerRepo {
	return &LedgerRepo{
		materials:    materials,
		reservations: make(map[id.ID]ledger.Reservation),
	}
}

func (r *LedgerRepo) GetMaterial(ctx context.Context, materialID id.ID) (*material.RawMaterial, error) {
	return r.materials.GetByID(ctx, materialID)
}

// GetMaterialForUpdate returns the material. Mutual exclusion is provided
// by the memory TxManager's global lock, not per-row locks.
func (r *LedgerRepo) GetMaterialForUpdate(ctx context.Context, materialID id.ID) (*material.RawMaterial, error) {
	return r.materials.GetByID(ctx, materialID)
}

func (r *LedgerRepo) UpdateCachedStock(ctx context.Context, materialID id.ID, stock types.Quantity) error {
	m, err := r.materials.GetByID(ctx, materialID)
	if err != nil {
		return err
	}
	m.CurrentStock = stock
	m.UpdatedAt = time.Now().UTC()
	r.materials.SetStock(materialID, *m)
	return nil
}

func (r *LedgerRepo) AppendMovement(ctx context.Context, m ledger.Movement) error {
	r.mu.Lock()
	defer r.mu.Unlock()
	r.movements = append(r.movements, m)
	return nil
}

func (r *LedgerRepo) GetMovements(ctx context.Context, materialID id.ID, limit, offset int) ([]ledger.Movement, error) {
	r.mu.RLock()
	defer r.mu.RUnlock()

	var out []ledger.Movement
	for i := len(r.movements) - 1; i >= 0; i-- {
		if r.movements[i].MaterialID == materialID {
			out = append(out, r.movements[i])
		}
	}
	return paginate(out, limit, offset), nil
}

func (r *LedgerRepo) SumMovements(ctx context.Context, materialID id.ID) (types.Quantity, error) {
	r.mu.RLock()
	defer r.mu.RUnlock()

	var sum types.Quantity
	for _, m := range r.movements {
		if m.MaterialID == materialID {
			sum += m.Delta
		}
	}
	return sum, nil
}

func (r *LedgerRepo) CreateReservation(ctx context.Context, res *ledger.Reservation) error {
	r.mu.Lock()
	defer r.mu.Unlock()
	if _, ok := r.reservations[res.Token]; ok {
		return apperror.NewDuplicate("reservation", "token", res.Token.String())
	}
	r.reservations[res.Token] = *res
	return nil
}

func (r *LedgerRepo) GetReservationForUpdate(ctx context.Context, token id.ID) (*ledger.Reservation, error) {
	r.mu.RLock()
	defer r.mu.RUnlock()
	res, ok := r.reservations[token]
	if !ok {
		return nil, apperror.NewNotFound("reservation", token)
	}
	return &res, nil
}

func (r *LedgerRepo) UpdateReservationStatus(ctx context.Context, token id.ID, status ledger.ReservationStatus) error {
	r.mu.Lock()
	defer r.mu.Unlock()
	res, ok := r.reservations[token]
	if !ok {
		return apperror.NewNotFound("reservation", token)
	}
	res.Status = status
	r.reservations[token] = res
	return nil
}

func (r *LedgerRepo) ActiveReservedQuantity(ctx context.Context, materialID id.ID, now time.Time) (types.Quantity, error) {
	r.mu.RLock()
	defer r.mu.RUnlock()

	var reserved types.Quantity
	for _, res := range r.reservations {
		if res.MaterialID == materialID && res.Status == ledger.ReservationActive && res.ExpiresAt.After(now) {
			reserved += res.Quantity
		}
	}
	return reserved, nil
}

func (r *LedgerRepo) ExpireReservations(ctx context.Context, now time.Time) (int64, error) {
	r.mu.Lock()
	defer r.mu.Unlock()

	var swept int64
	for token, res := range r.reservations {
		if res.Status == ledger.ReservationActive && !res.ExpiresAt.After(now) {
			res.Status = ledger.ReservationExpired
			r.reservations[token] = res
			swept++
		}
	}
	return swept, nil
}

var _ ledger.Repository = (*LedgerRepo)(nil)
