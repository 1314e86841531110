package fulfillment_test

import (
	"context"
	"errors"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"hornada/internal/core/apperror"
	"hornada/internal/core/audit"
	"hornada/internal/core/id"
	"hornada/internal/core/tx"
	"hornada/internal/core/types"
	"hornada/internal/domain/catalogs/material"
	"hornada/internal/domain/catalogs/recipe"
	"hornada/internal/domain/fulfillment"
	"hornada/internal/domain/ledger"
	"hornada/internal/domain/production"
	"hornada/internal/domain/sales/order"
	"hornada/internal/domain/sales/quote"
	"hornada/internal/infrastructure/storage/memory"
)

// recordingAuditor captures audit rows for assertions.
type recordingAuditor struct {
	entries []recordedChange
}

type recordedChange struct {
	entityType string
	entityID   id.ID
	action     audit.Action
	changes    map[string]any
}

func (r *recordingAuditor) LogChange(_ context.Context, entityType string, entityID id.ID, action audit.Action, changes map[string]any) error {
	r.entries = append(r.entries, recordedChange{entityType, entityID, action, changes})
	return nil
}

// failingOrderRepo injects an error into Create while delegating the rest.
type failingOrderRepo struct {
	*memory.OrderRepo
	createErr error
}

func (r *failingOrderRepo) Create(ctx context.Context, o *order.Order) error {
	if r.createErr != nil {
		return r.createErr
	}
	return r.OrderRepo.Create(ctx, o)
}

type fixture struct {
	svc     *fulfillment.Service
	ledger  *ledger.Service
	recipes *recipe.Service
	txm     tx.Manager
	audits  *recordingAuditor

	materials *memory.MaterialRepo
	quotes    *memory.QuoteRepo
	orders    *memory.OrderRepo
	plans     *memory.PlanRepo
}

func newFixture(t *testing.T) *fixture {
	t.Helper()
	txm := memory.NewTxManager()

	materials := memory.NewMaterialRepo()
	ledgerSvc := ledger.NewService(memory.NewLedgerRepo(materials), txm, nil, ledger.DefaultConfig())
	recipeSvc := recipe.NewService(memory.NewRecipeRepo(), txm, nil)

	quotes := memory.NewQuoteRepo()
	orders := memory.NewOrderRepo()
	plans := memory.NewPlanRepo()
	audits := &recordingAuditor{}

	svc := fulfillment.NewService(
		quotes, orders, plans,
		recipeSvc, ledgerSvc,
		txm, memory.NewNumberGenerator(), nil, audits,
	)
	return &fixture{
		svc:       svc,
		ledger:    ledgerSvc,
		recipes:   recipeSvc,
		txm:       txm,
		audits:    audits,
		materials: materials,
		quotes:    quotes,
		orders:    orders,
		plans:     plans,
	}
}

func (f *fixture) seedMaterial(t *testing.T, name string, stock float64) id.ID {
	t.Helper()
	m := material.NewRawMaterial(name, "kg", types.ZeroMoney(), 0)
	require.NoError(t, f.materials.Create(context.Background(), m))
	if stock != 0 {
		_, err := f.ledger.RecordMovement(context.Background(), m.ID, types.NewQuantityFromFloat64(stock), ledger.ReasonPurchase, "test")
		require.NoError(t, err)
	}
	return m.ID
}

// seedProduct registers an active recipe and returns the product id.
// perUnit maps material ids to the quantity consumed per product unit.
func (f *fixture) seedProduct(t *testing.T, name string, perUnit map[id.ID]float64) id.ID {
	t.Helper()
	productID := id.New()
	r := recipe.NewRecipe(productID, name)
	for materialID, qty := range perUnit {
		r.AddIngredient(materialID, types.NewQuantityFromFloat64(qty), "kg", types.ZeroMoney())
	}
	require.NoError(t, f.recipes.Save(context.Background(), r))
	return productID
}

func (f *fixture) seedQuote(t *testing.T, items map[id.ID]int64) *quote.Quote {
	t.Helper()
	q := quote.NewQuote(id.New())
	for productID, qty := range items {
		q.AddItem(productID, qty, types.NewMoney(10))
	}
	require.NoError(t, f.quotes.Create(context.Background(), q))
	return q
}

func TestConvertQuoteToOrder_Success(t *testing.T) {
	f := newFixture(t)
	ctx := context.Background()

	flour := f.seedMaterial(t, "flour", 100)
	yeast := f.seedMaterial(t, "yeast", 5)
	bread := f.seedProduct(t, "sourdough", map[id.ID]float64{flour: 0.5, yeast: 0.01})
	q := f.seedQuote(t, map[id.ID]int64{bread: 10})

	ord, err := f.svc.ConvertQuoteToOrder(ctx, q.ID, "seller")
	require.NoError(t, err)
	require.NotNil(t, ord)

	assert.Equal(t, "ORD-000001", ord.Number)
	assert.Equal(t, order.StatusConfirmed, ord.Status)
	require.NotNil(t, ord.QuoteID)
	assert.Equal(t, q.ID, *ord.QuoteID)
	assert.True(t, ord.Total.Equal(q.TotalAmount), "order total must mirror the quote total")

	// The quote is terminally converted.
	converted, err := f.quotes.GetByID(ctx, q.ID)
	require.NoError(t, err)
	assert.Equal(t, quote.StatusConverted, converted.Status)

	// Stock was committed: 10 units consumed 5kg flour and 0.1kg yeast.
	flourStock, err := f.ledger.GetStock(ctx, flour)
	require.NoError(t, err)
	assert.Equal(t, types.NewQuantityFromInt(95), flourStock)

	yeastStock, err := f.ledger.GetStock(ctx, yeast)
	require.NoError(t, err)
	assert.Equal(t, types.NewQuantityFromFloat64(4.9), yeastStock)

	// No holds left behind.
	available, err := f.ledger.Available(ctx, flour)
	require.NoError(t, err)
	assert.Equal(t, flourStock, available)

	// Production plan items carry the order attribution.
	items, err := f.plans.ListItems(ctx, production.ItemListFilter{OrderID: ord.ID})
	require.NoError(t, err)
	require.Len(t, items, 1)
	assert.Equal(t, bread, items[0].ProductID)
	assert.EqualValues(t, 10, items[0].Quantity)
	assert.Equal(t, production.ItemPending, items[0].Status)
}

func TestConvertQuoteToOrder_TwoProductsOneOrder(t *testing.T) {
	f := newFixture(t)
	ctx := context.Background()

	flour := f.seedMaterial(t, "flour", 100)
	sugar := f.seedMaterial(t, "sugar", 20)
	bread := f.seedProduct(t, "bread", map[id.ID]float64{flour: 0.5})
	cake := f.seedProduct(t, "cake", map[id.ID]float64{flour: 0.3, sugar: 0.2})
	q := f.seedQuote(t, map[id.ID]int64{bread: 5, cake: 3})

	ord, err := f.svc.ConvertQuoteToOrder(ctx, q.ID, "seller")
	require.NoError(t, err)
	require.Len(t, ord.Items, 2)
	assert.True(t, ord.Total.Equal(q.TotalAmount))

	// Exactly one committed consumption per material touched:
	// flour 5*0.5 + 3*0.3 = 3.4kg in a single sale movement.
	movements, err := f.ledger.GetMovements(ctx, flour, 100, 0)
	require.NoError(t, err)
	var sales int
	for _, mv := range movements {
		if mv.Reason == ledger.ReasonSale {
			sales++
			assert.Equal(t, types.NewQuantityFromFloat64(3.4), mv.Delta.Neg())
		}
	}
	assert.Equal(t, 1, sales)

	sugarStock, err := f.ledger.GetStock(ctx, sugar)
	require.NoError(t, err)
	assert.Equal(t, types.NewQuantityFromFloat64(19.4), sugarStock)
}

func TestConvertQuoteToOrder_ShortageNamesEveryMaterial(t *testing.T) {
	f := newFixture(t)
	ctx := context.Background()

	flour := f.seedMaterial(t, "flour", 2)
	butter := f.seedMaterial(t, "butter", 1)
	sugar := f.seedMaterial(t, "sugar", 50)
	croissant := f.seedProduct(t, "croissant", map[id.ID]float64{flour: 0.5, butter: 0.25, sugar: 0.1})
	q := f.seedQuote(t, map[id.ID]int64{croissant: 20})

	_, err := f.svc.ConvertQuoteToOrder(ctx, q.ID, "seller")
	require.Error(t, err)
	require.True(t, apperror.IsInsufficientStock(err))

	appErr, ok := apperror.AsAppError(err)
	require.True(t, ok)
	shorts, ok := appErr.Details["materials"].([]apperror.ShortMaterial)
	require.True(t, ok)
	assert.Len(t, shorts, 2, "both flour and butter are short; sugar is not")

	// All-or-nothing: nothing was created or consumed.
	assert.Equal(t, 0, f.orders.Count())

	unchanged, err := f.quotes.GetByID(ctx, q.ID)
	require.NoError(t, err)
	assert.Equal(t, quote.StatusDraft, unchanged.Status)

	for _, materialID := range []id.ID{flour, butter, sugar} {
		stock, err := f.ledger.GetStock(ctx, materialID)
		require.NoError(t, err)
		available, err := f.ledger.Available(ctx, materialID)
		require.NoError(t, err)
		assert.Equal(t, stock, available, "no hold may survive a failed conversion")
	}
}

func TestConvertQuoteToOrder_PersistenceFailureLeavesNoTrace(t *testing.T) {
	f := newFixture(t)
	ctx := context.Background()

	flour := f.seedMaterial(t, "flour", 100)
	bread := f.seedProduct(t, "bread", map[id.ID]float64{flour: 0.5})
	q := f.seedQuote(t, map[id.ID]int64{bread: 10})

	broken := &failingOrderRepo{OrderRepo: f.orders, createErr: errors.New("connection reset by peer")}
	svc := fulfillment.NewService(
		f.quotes, broken, f.plans,
		f.recipes, f.ledger,
		f.txm, memory.NewNumberGenerator(), nil, nil,
	)

	_, err := svc.ConvertQuoteToOrder(ctx, q.ID, "seller")
	require.Error(t, err)
	assert.True(t, apperror.IsCode(err, apperror.CodeOrderCreationFailed))

	// The reservation was rolled back in full: stock untouched, no hold left.
	stock, err := f.ledger.GetStock(ctx, flour)
	require.NoError(t, err)
	assert.Equal(t, types.NewQuantityFromInt(100), stock)

	available, err := f.ledger.Available(ctx, flour)
	require.NoError(t, err)
	assert.Equal(t, types.NewQuantityFromInt(100), available)

	// The quote stays convertible and no order exists.
	unchanged, err := f.quotes.GetByID(ctx, q.ID)
	require.NoError(t, err)
	assert.Equal(t, quote.StatusDraft, unchanged.Status)
	assert.Equal(t, 0, f.orders.Count())

	// A later attempt with a healthy repository succeeds.
	ord, err := f.svc.ConvertQuoteToOrder(ctx, q.ID, "seller")
	require.NoError(t, err)
	assert.Equal(t, order.StatusConfirmed, ord.Status)
}

func TestConvertQuoteToOrder_WritesAuditTrail(t *testing.T) {
	f := newFixture(t)
	ctx := context.Background()

	flour := f.seedMaterial(t, "flour", 100)
	bread := f.seedProduct(t, "bread", map[id.ID]float64{flour: 0.5})
	q := f.seedQuote(t, map[id.ID]int64{bread: 4})

	ord, err := f.svc.ConvertQuoteToOrder(ctx, q.ID, "seller")
	require.NoError(t, err)

	require.Len(t, f.audits.entries, 1)
	entry := f.audits.entries[0]
	assert.Equal(t, "quote", entry.entityType)
	assert.Equal(t, q.ID, entry.entityID)
	assert.Equal(t, audit.ActionConvert, entry.action)
	assert.Equal(t, ord.ID.String(), entry.changes["order_id"])
	assert.Equal(t, ord.Number, entry.changes["order_number"])
}

func TestConvertQuoteToOrder_AlreadyConverted(t *testing.T) {
	f := newFixture(t)
	ctx := context.Background()

	flour := f.seedMaterial(t, "flour", 100)
	bread := f.seedProduct(t, "bread", map[id.ID]float64{flour: 0.5})
	q := f.seedQuote(t, map[id.ID]int64{bread: 4})

	_, err := f.svc.ConvertQuoteToOrder(ctx, q.ID, "seller")
	require.NoError(t, err)

	_, err = f.svc.ConvertQuoteToOrder(ctx, q.ID, "seller")
	require.Error(t, err)
	assert.True(t, apperror.IsCode(err, apperror.CodeQuoteAlreadyConverted))
	assert.Equal(t, 1, f.orders.Count(), "the second attempt must not create an order")
}

func TestConvertQuoteToOrder_ExpiredQuote(t *testing.T) {
	f := newFixture(t)
	ctx := context.Background()

	flour := f.seedMaterial(t, "flour", 100)
	bread := f.seedProduct(t, "bread", map[id.ID]float64{flour: 0.5})

	q := quote.NewQuote(id.New())
	q.AddItem(bread, 2, types.NewMoney(8))
	past := time.Now().UTC().Add(-time.Hour)
	q.ValidUntil = &past
	require.NoError(t, f.quotes.Create(ctx, q))

	_, err := f.svc.ConvertQuoteToOrder(ctx, q.ID, "seller")
	require.Error(t, err)
	assert.True(t, apperror.IsCode(err, apperror.CodeQuoteExpired))
}

func TestConvertQuoteToOrder_NoRecipeFailsUpFront(t *testing.T) {
	f := newFixture(t)
	ctx := context.Background()

	flour := f.seedMaterial(t, "flour", 100)
	bread := f.seedProduct(t, "bread", map[id.ID]float64{flour: 0.5})
	bagel := id.New() // no recipe registered
	q := f.seedQuote(t, map[id.ID]int64{bread: 2, bagel: 3})

	_, err := f.svc.ConvertQuoteToOrder(ctx, q.ID, "seller")
	require.Error(t, err)
	assert.True(t, apperror.IsCode(err, apperror.CodeNoRecipeDefined))

	// Failing during aggregation must not touch stock.
	available, err := f.ledger.Available(ctx, flour)
	require.NoError(t, err)
	assert.Equal(t, types.NewQuantityFromInt(100), available)
}

func TestConvertQuoteToOrder_SharedMaterialIsAggregated(t *testing.T) {
	f := newFixture(t)
	ctx := context.Background()

	// Two products share flour: 4*0.5 + 6*0.25 = 3.5kg needed, only 3 on hand.
	flour := f.seedMaterial(t, "flour", 3)
	bread := f.seedProduct(t, "bread", map[id.ID]float64{flour: 0.5})
	roll := f.seedProduct(t, "roll", map[id.ID]float64{flour: 0.25})
	q := f.seedQuote(t, map[id.ID]int64{bread: 4, roll: 6})

	_, err := f.svc.ConvertQuoteToOrder(ctx, q.ID, "seller")
	require.Error(t, err)
	assert.True(t, apperror.IsInsufficientStock(err),
		"per-line checks would pass; only the aggregated demand reveals the shortage")
}
