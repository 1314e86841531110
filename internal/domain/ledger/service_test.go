package ledger_test

import (
	"context"
	"sync"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"hornada/internal/core/apperror"
	"hornada/internal/core/id"
	"hornada/internal/core/types"
	"hornada/internal/domain/catalogs/material"
	"hornada/internal/domain/ledger"
	"hornada/internal/infrastructure/storage/memory"
)

type fixture struct {
	svc       *ledger.Service
	materials *memory.MaterialRepo
	repo      *memory.LedgerRepo
}

func newFixture(t *testing.T, cfg ledger.Config) *fixture {
	t.Helper()
	materials := memory.NewMaterialRepo()
	repo := memory.NewLedgerRepo(materials)
	svc := ledger.NewService(repo, memory.NewTxManager(), nil, cfg)
	return &fixture{svc: svc, materials: materials, repo: repo}
}

// seedMaterial creates a material and stocks it through the ledger so the
// movement log and the cached projection agree from the start.
func (f *fixture) seedMaterial(t *testing.T, name string, stock float64) id.ID {
	t.Helper()
	m := material.NewRawMaterial(name, "kg", types.ZeroMoney(), types.NewQuantityFromInt(1))
	require.NoError(t, f.materials.Create(context.Background(), m))
	if stock != 0 {
		_, err := f.svc.RecordMovement(context.Background(), m.ID, types.NewQuantityFromFloat64(stock), ledger.ReasonPurchase, "test")
		require.NoError(t, err)
	}
	return m.ID
}

func TestRecordMovement_StockIsSumOfDeltas(t *testing.T) {
	f := newFixture(t, ledger.DefaultConfig())
	ctx := context.Background()
	flour := f.seedMaterial(t, "flour", 100)

	_, err := f.svc.RecordMovement(ctx, flour, types.NewQuantityFromFloat64(-30), ledger.ReasonProductionConsumption, "baker")
	require.NoError(t, err)
	_, err = f.svc.RecordMovement(ctx, flour, types.NewQuantityFromFloat64(12.5), ledger.ReasonPurchase, "buyer")
	require.NoError(t, err)

	stock, err := f.svc.GetStock(ctx, flour)
	require.NoError(t, err)
	assert.Equal(t, types.NewQuantityFromFloat64(82.5), stock)

	cached, computed, err := f.svc.VerifyProjection(ctx, flour)
	require.NoError(t, err)
	assert.Equal(t, computed, cached, "cached projection must equal the movement sum")
}

func TestRecordMovement_RejectsZeroDelta(t *testing.T) {
	f := newFixture(t, ledger.DefaultConfig())
	flour := f.seedMaterial(t, "flour", 10)

	_, err := f.svc.RecordMovement(context.Background(), flour, 0, ledger.ReasonAdjustment, "test")
	require.Error(t, err)
	assert.True(t, apperror.IsCode(err, apperror.CodeValidation))
}

func TestRecordMovement_NeverGoesNegative(t *testing.T) {
	f := newFixture(t, ledger.DefaultConfig())
	ctx := context.Background()
	flour := f.seedMaterial(t, "flour", 10)

	_, err := f.svc.RecordMovement(ctx, flour, types.NewQuantityFromFloat64(-10.0001), ledger.ReasonAdjustment, "test")
	require.Error(t, err)
	assert.True(t, apperror.IsInsufficientStock(err))

	// The failed movement must leave no trace.
	stock, err := f.svc.GetStock(ctx, flour)
	require.NoError(t, err)
	assert.Equal(t, types.NewQuantityFromInt(10), stock)

	movements, err := f.svc.GetMovements(ctx, flour, 10, 0)
	require.NoError(t, err)
	assert.Len(t, movements, 1, "only the seeding purchase should exist")
}

func TestReserve_ReducesAvailableNotStock(t *testing.T) {
	f := newFixture(t, ledger.DefaultConfig())
	ctx := context.Background()
	flour := f.seedMaterial(t, "flour", 100)

	res, err := f.svc.Reserve(ctx, flour, types.NewQuantityFromInt(60))
	require.NoError(t, err)
	require.NotNil(t, res)
	assert.Equal(t, ledger.ReservationActive, res.Status)

	stock, err := f.svc.GetStock(ctx, flour)
	require.NoError(t, err)
	assert.Equal(t, types.NewQuantityFromInt(100), stock, "a hold must not move on-hand stock")

	available, err := f.svc.Available(ctx, flour)
	require.NoError(t, err)
	assert.Equal(t, types.NewQuantityFromInt(40), available)
}

func TestReserve_CannotOverCommit(t *testing.T) {
	f := newFixture(t, ledger.DefaultConfig())
	ctx := context.Background()
	flour := f.seedMaterial(t, "flour", 100)

	_, err := f.svc.Reserve(ctx, flour, types.NewQuantityFromInt(60))
	require.NoError(t, err)

	_, err = f.svc.Reserve(ctx, flour, types.NewQuantityFromInt(50))
	require.Error(t, err)
	assert.True(t, apperror.IsInsufficientStock(err))
}

func TestReserve_ConcurrentHoldsSerialize(t *testing.T) {
	f := newFixture(t, ledger.DefaultConfig())
	ctx := context.Background()
	flour := f.seedMaterial(t, "flour", 100)

	const workers = 10
	var wg sync.WaitGroup
	granted := make(chan struct{}, workers)
	for i := 0; i < workers; i++ {
		wg.Add(1)
		go func() {
			defer wg.Done()
			if _, err := f.svc.Reserve(ctx, flour, types.NewQuantityFromInt(30)); err == nil {
				granted <- struct{}{}
			}
		}()
	}
	wg.Wait()
	close(granted)

	assert.Equal(t, 3, len(granted), "only 3 holds of 30 fit into 100")
}

func TestCommitReservation_ConsumesStock(t *testing.T) {
	f := newFixture(t, ledger.DefaultConfig())
	ctx := context.Background()
	flour := f.seedMaterial(t, "flour", 100)

	res, err := f.svc.Reserve(ctx, flour, types.NewQuantityFromInt(60))
	require.NoError(t, err)

	require.NoError(t, f.svc.CommitReservation(ctx, res.Token, "cashier"))

	stock, err := f.svc.GetStock(ctx, flour)
	require.NoError(t, err)
	assert.Equal(t, types.NewQuantityFromInt(40), stock)

	movements, err := f.svc.GetMovements(ctx, flour, 10, 0)
	require.NoError(t, err)
	require.Len(t, movements, 2)
	assert.Equal(t, ledger.ReasonSale, movements[0].Reason)
	assert.Equal(t, types.NewQuantityFromInt(60).Neg(), movements[0].Delta)

	// A committed token cannot be committed again.
	err = f.svc.CommitReservation(ctx, res.Token, "cashier")
	assert.True(t, apperror.IsReservationExpired(err))
}

func TestCancelReservation_IsIdempotent(t *testing.T) {
	f := newFixture(t, ledger.DefaultConfig())
	ctx := context.Background()
	flour := f.seedMaterial(t, "flour", 100)

	res, err := f.svc.Reserve(ctx, flour, types.NewQuantityFromInt(60))
	require.NoError(t, err)

	require.NoError(t, f.svc.CancelReservation(ctx, res.Token))
	require.NoError(t, f.svc.CancelReservation(ctx, res.Token), "double cancel must be a no-op")
	require.NoError(t, f.svc.CancelReservation(ctx, id.New()), "unknown token must be a no-op")

	available, err := f.svc.Available(ctx, flour)
	require.NoError(t, err)
	assert.Equal(t, types.NewQuantityFromInt(100), available)
}

func TestExpireStale_SweepsOverdueHolds(t *testing.T) {
	// Negative TTL makes every hold born expired.
	cfg := ledger.Config{ReservationTTL: -time.Second}
	f := newFixture(t, cfg)
	ctx := context.Background()
	flour := f.seedMaterial(t, "flour", 100)

	res, err := f.svc.Reserve(ctx, flour, types.NewQuantityFromInt(60))
	require.NoError(t, err)

	// Expired holds no longer count against available stock.
	available, err := f.svc.Available(ctx, flour)
	require.NoError(t, err)
	assert.Equal(t, types.NewQuantityFromInt(100), available)

	// Committing an expired hold fails with the retryable code.
	err = f.svc.CommitReservation(ctx, res.Token, "cashier")
	assert.True(t, apperror.IsReservationExpired(err))

	swept, err := f.svc.ExpireStale(ctx)
	require.NoError(t, err)
	assert.EqualValues(t, 1, swept)

	// Second sweep finds nothing.
	swept, err = f.svc.ExpireStale(ctx)
	require.NoError(t, err)
	assert.EqualValues(t, 0, swept)
}

func TestReverseSale_RestoresStock(t *testing.T) {
	f := newFixture(t, ledger.DefaultConfig())
	ctx := context.Background()
	flour := f.seedMaterial(t, "flour", 100)

	res, err := f.svc.Reserve(ctx, flour, types.NewQuantityFromInt(25))
	require.NoError(t, err)
	require.NoError(t, f.svc.CommitReservation(ctx, res.Token, "cashier"))

	_, err = f.svc.ReverseSale(ctx, flour, types.NewQuantityFromInt(25), "cashier")
	require.NoError(t, err)

	stock, err := f.svc.GetStock(ctx, flour)
	require.NoError(t, err)
	assert.Equal(t, types.NewQuantityFromInt(100), stock)

	cached, computed, err := f.svc.VerifyProjection(ctx, flour)
	require.NoError(t, err)
	assert.Equal(t, computed, cached)
}
