package production_test

import (
	"context"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"hornada/internal/core/apperror"
	"hornada/internal/core/id"
	"hornada/internal/core/types"
	"hornada/internal/domain/catalogs/material"
	"hornada/internal/domain/catalogs/recipe"
	"hornada/internal/domain/ledger"
	"hornada/internal/domain/production"
	"hornada/internal/infrastructure/storage/memory"
)

type fixture struct {
	svc     *production.Service
	ledger  *ledger.Service
	recipes *recipe.Service

	materials *memory.MaterialRepo
	plans     *memory.PlanRepo
}

func newFixture(t *testing.T) *fixture {
	t.Helper()
	txm := memory.NewTxManager()

	materials := memory.NewMaterialRepo()
	ledgerSvc := ledger.NewService(memory.NewLedgerRepo(materials), txm, nil, ledger.DefaultConfig())
	recipeSvc := recipe.NewService(memory.NewRecipeRepo(), txm, nil)
	plans := memory.NewPlanRepo()

	svc := production.NewService(plans, memory.NewBatchRepo(), recipeSvc, ledgerSvc, txm)
	return &fixture{
		svc:       svc,
		ledger:    ledgerSvc,
		recipes:   recipeSvc,
		materials: materials,
		plans:     plans,
	}
}

// seedProduct registers a one-ingredient recipe and returns (product, material).
func (f *fixture) seedProduct(t *testing.T, perUnit, stock float64) (id.ID, id.ID) {
	t.Helper()
	ctx := context.Background()

	m := material.NewRawMaterial("flour", "kg", types.ZeroMoney(), 0)
	require.NoError(t, f.materials.Create(ctx, m))
	if stock != 0 {
		_, err := f.ledger.RecordMovement(ctx, m.ID, types.NewQuantityFromFloat64(stock), ledger.ReasonPurchase, "test")
		require.NoError(t, err)
	}

	productID := id.New()
	r := recipe.NewRecipe(productID, "bread")
	r.AddIngredient(m.ID, types.NewQuantityFromFloat64(perUnit), "kg", types.ZeroMoney())
	require.NoError(t, f.recipes.Save(ctx, r))
	return productID, m.ID
}

func TestCreateItem_RequiresRecipe(t *testing.T) {
	f := newFixture(t)

	_, err := f.svc.CreateItem(context.Background(), id.New(), 5, nil)
	require.Error(t, err)
	assert.True(t, apperror.IsCode(err, apperror.CodeNoRecipeDefined))
}

func TestPatchItem_MergeSemantics(t *testing.T) {
	f := newFixture(t)
	ctx := context.Background()
	productID, _ := f.seedProduct(t, 0.5, 100)

	item, err := f.svc.CreateItem(ctx, productID, 10, nil)
	require.NoError(t, err)

	// Patching only the notes leaves everything else alone.
	notes := "use the older flour first"
	patched, err := f.svc.PatchItem(ctx, item.ID, production.Patch{Notes: &notes}, "baker")
	require.NoError(t, err)
	assert.Equal(t, notes, patched.Notes)
	assert.Equal(t, production.ItemPending, patched.Status)
	assert.EqualValues(t, 0, patched.CompletedQuantity)

	// Patching the schedule does not clear the notes.
	when := time.Now().UTC().Add(24 * time.Hour)
	patched, err = f.svc.PatchItem(ctx, item.ID, production.Patch{ScheduledDate: &when}, "baker")
	require.NoError(t, err)
	assert.Equal(t, notes, patched.Notes)
	require.NotNil(t, patched.ScheduledDate)

	// Progress alone leaves the assignee and status untouched.
	who := "marta"
	_, err = f.svc.PatchItem(ctx, item.ID, production.Patch{AssignedTo: &who}, "baker")
	require.NoError(t, err)

	two := int64(2)
	patched, err = f.svc.PatchItem(ctx, item.ID, production.Patch{CompletedQuantity: &two}, "baker")
	require.NoError(t, err)
	assert.Equal(t, who, patched.AssignedTo)
	assert.Equal(t, production.ItemPending, patched.Status)
	assert.Equal(t, 20, patched.Progress())
}

func TestPatchItem_CompletionConsumesMaterials(t *testing.T) {
	f := newFixture(t)
	ctx := context.Background()
	productID, flour := f.seedProduct(t, 0.5, 100)

	item, err := f.svc.CreateItem(ctx, productID, 10, nil)
	require.NoError(t, err)

	four := int64(4)
	patched, err := f.svc.PatchItem(ctx, item.ID, production.Patch{CompletedQuantity: &four}, "baker")
	require.NoError(t, err)
	assert.EqualValues(t, 4, patched.CompletedQuantity)
	assert.NotEqual(t, production.ItemCompleted, patched.Status)

	stock, err := f.ledger.GetStock(ctx, flour)
	require.NoError(t, err)
	assert.Equal(t, types.NewQuantityFromInt(98), stock, "4 units at 0.5kg each")

	// Completing the rest consumes only the delta and finishes the item.
	ten := int64(10)
	patched, err = f.svc.PatchItem(ctx, item.ID, production.Patch{CompletedQuantity: &ten}, "baker")
	require.NoError(t, err)
	assert.Equal(t, production.ItemCompleted, patched.Status)

	stock, err = f.ledger.GetStock(ctx, flour)
	require.NoError(t, err)
	assert.Equal(t, types.NewQuantityFromInt(95), stock)
}

func TestPatchItem_CompletedQuantityBounds(t *testing.T) {
	f := newFixture(t)
	ctx := context.Background()
	productID, _ := f.seedProduct(t, 0.5, 100)

	item, err := f.svc.CreateItem(ctx, productID, 10, nil)
	require.NoError(t, err)

	five := int64(5)
	_, err = f.svc.PatchItem(ctx, item.ID, production.Patch{CompletedQuantity: &five}, "baker")
	require.NoError(t, err)

	three := int64(3)
	_, err = f.svc.PatchItem(ctx, item.ID, production.Patch{CompletedQuantity: &three}, "baker")
	require.Error(t, err, "completed quantity cannot decrease")

	eleven := int64(11)
	_, err = f.svc.PatchItem(ctx, item.ID, production.Patch{CompletedQuantity: &eleven}, "baker")
	require.Error(t, err, "completed quantity cannot exceed planned")
}

func TestPatchItem_InsufficientStockLeavesItemUntouched(t *testing.T) {
	f := newFixture(t)
	ctx := context.Background()
	productID, flour := f.seedProduct(t, 0.5, 1)

	item, err := f.svc.CreateItem(ctx, productID, 10, nil)
	require.NoError(t, err)

	// Completing 4 units needs 2kg; only 1kg on hand.
	four := int64(4)
	_, err = f.svc.PatchItem(ctx, item.ID, production.Patch{CompletedQuantity: &four}, "baker")
	require.Error(t, err)
	assert.True(t, apperror.IsInsufficientStock(err))

	unchanged, err := f.svc.GetItem(ctx, item.ID)
	require.NoError(t, err)
	assert.EqualValues(t, 0, unchanged.CompletedQuantity)
	assert.Equal(t, production.ItemPending, unchanged.Status)

	stock, err := f.ledger.GetStock(ctx, flour)
	require.NoError(t, err)
	assert.Equal(t, types.NewQuantityFromInt(1), stock)
}

func TestMergePending_FoldsItemsIntoOneBatch(t *testing.T) {
	f := newFixture(t)
	ctx := context.Background()
	productID, _ := f.seedProduct(t, 0.5, 100)

	first, err := f.svc.CreateItem(ctx, productID, 3, nil)
	require.NoError(t, err)
	second, err := f.svc.CreateItem(ctx, productID, 5, nil)
	require.NoError(t, err)

	batch, err := f.svc.MergePending(ctx, productID)
	require.NoError(t, err)
	assert.EqualValues(t, 8, batch.Quantity)
	assert.Equal(t, production.BatchOpen, batch.Status)
	assert.Equal(t, []id.ID{first.ID, second.ID}, batch.ItemIDs, "oldest first")

	for _, itemID := range batch.ItemIDs {
		item, err := f.svc.GetItem(ctx, itemID)
		require.NoError(t, err)
		assert.Equal(t, production.ItemInProgress, item.Status)
		require.NotNil(t, item.BatchID)
		assert.Equal(t, batch.ID, *item.BatchID)
	}

	// Items already in a batch are not batchable again.
	_, err = f.svc.MergePending(ctx, productID)
	require.Error(t, err)
	assert.True(t, apperror.IsNotFound(err))
}

func TestUpdateBatchProgress_DistributesOldestFirst(t *testing.T) {
	f := newFixture(t)
	ctx := context.Background()
	productID, flour := f.seedProduct(t, 0.5, 100)

	first, err := f.svc.CreateItem(ctx, productID, 3, nil)
	require.NoError(t, err)
	second, err := f.svc.CreateItem(ctx, productID, 5, nil)
	require.NoError(t, err)

	batch, err := f.svc.MergePending(ctx, productID)
	require.NoError(t, err)

	// 4 done: the oldest item absorbs its full 3, the next takes 1.
	batch, err = f.svc.UpdateBatchProgress(ctx, batch.ID, 4, "baker")
	require.NoError(t, err)
	assert.EqualValues(t, 4, batch.CompletedQuantity)
	assert.Equal(t, production.BatchInProgress, batch.Status)

	firstItem, err := f.svc.GetItem(ctx, first.ID)
	require.NoError(t, err)
	assert.EqualValues(t, 3, firstItem.CompletedQuantity)
	assert.Equal(t, production.ItemCompleted, firstItem.Status)

	secondItem, err := f.svc.GetItem(ctx, second.ID)
	require.NoError(t, err)
	assert.EqualValues(t, 1, secondItem.CompletedQuantity)

	// Consumption happened once for the batch delta: 4 * 0.5kg.
	stock, err := f.ledger.GetStock(ctx, flour)
	require.NoError(t, err)
	assert.Equal(t, types.NewQuantityFromInt(98), stock)

	// Finishing the batch completes every item.
	batch, err = f.svc.UpdateBatchProgress(ctx, batch.ID, 8, "baker")
	require.NoError(t, err)
	assert.Equal(t, production.BatchCompleted, batch.Status)

	secondItem, err = f.svc.GetItem(ctx, second.ID)
	require.NoError(t, err)
	assert.Equal(t, production.ItemCompleted, secondItem.Status)

	// Progress cannot run backwards or past the batch quantity.
	_, err = f.svc.UpdateBatchProgress(ctx, batch.ID, 7, "baker")
	require.Error(t, err)
	_, err = f.svc.UpdateBatchProgress(ctx, batch.ID, 9, "baker")
	require.Error(t, err)
}
