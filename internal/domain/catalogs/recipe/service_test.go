package recipe_test

import (
	"context"
	"testing"

	"hornada/internal/core/apperror"
	"hornada/internal/core/audit"
	"hornada/internal/core/id"
	"hornada/internal/core/types"
	"hornada/internal/domain/catalogs/recipe"
	"hornada/internal/infrastructure/storage/memory"
)

func newService() *recipe.Service {
	return recipe.NewService(memory.NewRecipeRepo(), memory.NewTxManager(), nil)
}

// recordingAuditor captures audit actions for assertions.
type recordingAuditor struct {
	actions []audit.Action
}

func (r *recordingAuditor) LogChange(_ context.Context, _ string, _ id.ID, action audit.Action, _ map[string]any) error {
	r.actions = append(r.actions, action)
	return nil
}

func TestRequirementsFor_ScalesLinearly(t *testing.T) {
	svc := newService()
	ctx := context.Background()

	productID := id.New()
	flour := id.New()
	yeast := id.New()

	r := recipe.NewRecipe(productID, "baguette")
	r.AddIngredient(flour, types.NewQuantityFromFloat64(0.25), "kg", types.ZeroMoney())
	r.AddIngredient(yeast, types.NewQuantityFromFloat64(0.005), "kg", types.ZeroMoney())
	if err := svc.Save(ctx, r); err != nil {
		t.Fatalf("save recipe: %v", err)
	}

	reqs, err := svc.RequirementsFor(ctx, productID, 12)
	if err != nil {
		t.Fatalf("requirements: %v", err)
	}
	if got, want := reqs[flour], types.NewQuantityFromInt(3); got != want {
		t.Errorf("flour: want %s, got %s", want, got)
	}
	if got, want := reqs[yeast], types.NewQuantityFromFloat64(0.06); got != want {
		t.Errorf("yeast: want %s, got %s", want, got)
	}
}

func TestRequirementsFor_NoRecipeIsExplicit(t *testing.T) {
	svc := newService()

	_, err := svc.RequirementsFor(context.Background(), id.New(), 1)
	if err == nil {
		t.Fatal("expected error for product without recipe")
	}
	if !apperror.IsCode(err, apperror.CodeNoRecipeDefined) {
		t.Errorf("want NO_RECIPE_DEFINED, got %v", err)
	}
}

func TestRequirementsFor_RejectsNonPositiveQuantity(t *testing.T) {
	svc := newService()

	for _, qty := range []int64{0, -3} {
		if _, err := svc.RequirementsFor(context.Background(), id.New(), qty); err == nil {
			t.Errorf("expected validation error for quantity %d", qty)
		}
	}
}

func TestSave_DeactivatesPreviousActiveRecipe(t *testing.T) {
	svc := newService()
	ctx := context.Background()

	productID := id.New()
	flour := id.New()

	v1 := recipe.NewRecipe(productID, "brioche v1")
	v1.AddIngredient(flour, types.NewQuantityFromFloat64(0.3), "kg", types.ZeroMoney())
	if err := svc.Save(ctx, v1); err != nil {
		t.Fatalf("save v1: %v", err)
	}

	v2 := recipe.NewRecipe(productID, "brioche v2")
	v2.AddIngredient(flour, types.NewQuantityFromFloat64(0.35), "kg", types.ZeroMoney())
	if err := svc.Save(ctx, v2); err != nil {
		t.Fatalf("save v2: %v", err)
	}

	// Resolution now uses v2's quantities.
	reqs, err := svc.RequirementsFor(ctx, productID, 10)
	if err != nil {
		t.Fatalf("requirements: %v", err)
	}
	if got, want := reqs[flour], types.NewQuantityFromFloat64(3.5); got != want {
		t.Errorf("flour: want %s, got %s", want, got)
	}

	// The old version survives as an inactive record.
	old, err := svc.GetByID(ctx, v1.ID)
	if err != nil {
		t.Fatalf("get v1: %v", err)
	}
	if old.Active {
		t.Error("previous recipe must be deactivated")
	}
}

func TestSave_AuditsCreateThenUpdate(t *testing.T) {
	audits := &recordingAuditor{}
	svc := recipe.NewService(memory.NewRecipeRepo(), memory.NewTxManager(), audits)
	ctx := context.Background()

	productID := id.New()
	flour := id.New()

	v1 := recipe.NewRecipe(productID, "rye v1")
	v1.AddIngredient(flour, types.NewQuantityFromFloat64(0.4), "kg", types.ZeroMoney())
	if err := svc.Save(ctx, v1); err != nil {
		t.Fatalf("save v1: %v", err)
	}

	v2 := recipe.NewRecipe(productID, "rye v2")
	v2.AddIngredient(flour, types.NewQuantityFromFloat64(0.45), "kg", types.ZeroMoney())
	if err := svc.Save(ctx, v2); err != nil {
		t.Fatalf("save v2: %v", err)
	}

	if len(audits.actions) != 2 {
		t.Fatalf("want 2 audit rows, got %d", len(audits.actions))
	}
	if audits.actions[0] != audit.ActionCreate {
		t.Errorf("first save: want %q, got %q", audit.ActionCreate, audits.actions[0])
	}
	if audits.actions[1] != audit.ActionUpdate {
		t.Errorf("replacing save: want %q, got %q", audit.ActionUpdate, audits.actions[1])
	}
}

func TestSave_ValidatesIngredients(t *testing.T) {
	svc := newService()
	ctx := context.Background()

	empty := recipe.NewRecipe(id.New(), "empty")
	if err := svc.Save(ctx, empty); err == nil {
		t.Error("recipe without ingredients must be rejected")
	}

	bad := recipe.NewRecipe(id.New(), "bad line")
	bad.AddIngredient(id.New(), types.NewQuantityFromFloat64(-1), "kg", types.ZeroMoney())
	if err := svc.Save(ctx, bad); err == nil {
		t.Error("negative ingredient quantity must be rejected")
	}
}
