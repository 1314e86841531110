package advisor

import (
	"context"
	"testing"

	"hornada/internal/core/apperror"
	"hornada/internal/core/id"
	"hornada/internal/core/types"
	"hornada/internal/domain/catalogs/recipe"
)

func stockFn(stocks map[id.ID]types.Quantity) func(id.ID) types.Quantity {
	return func(materialID id.ID) types.Quantity { return stocks[materialID] }
}

// stubResolver maps products to per-unit material needs.
type stubResolver map[id.ID]recipe.Requirements

func (s stubResolver) RequirementsFor(_ context.Context, productID id.ID, quantity int64) (recipe.Requirements, error) {
	perUnit, ok := s[productID]
	if !ok {
		return nil, apperror.NewNoRecipeDefined(productID.String())
	}
	out := make(recipe.Requirements, len(perUnit))
	for materialID, qty := range perUnit {
		out[materialID] = qty.MulInt(quantity)
	}
	return out, nil
}

func TestCompute_ShortageMath(t *testing.T) {
	flour := id.New()
	demand := Demand{flour: types.NewQuantityFromInt(200)}
	stocks := map[id.ID]types.Quantity{flour: types.NewQuantityFromInt(50)}

	recs := Compute(demand, stockFn(stocks), DefaultConfig())
	if len(recs) != 1 {
		t.Fatalf("expected 1 recommendation, got %d", len(recs))
	}

	rec := recs[0]
	if rec.Shortage != types.NewQuantityFromInt(150) {
		t.Errorf("shortage: want 150, got %s", rec.Shortage)
	}
	// ceil(150 * 1.2) = 180
	if rec.Recommended != types.NewQuantityFromInt(180) {
		t.Errorf("recommended: want 180, got %s", rec.Recommended)
	}
	// 150 > 0.5 * 200
	if rec.Priority != PriorityHigh {
		t.Errorf("priority: want high, got %s", rec.Priority)
	}
	// 150 > 50 on hand
	if rec.OrderWithinDays != 1 {
		t.Errorf("orderWithinDays: want 1, got %d", rec.OrderWithinDays)
	}
}

func TestCompute_FractionalShortageRoundsUp(t *testing.T) {
	butter := id.New()
	demand := Demand{butter: types.NewQuantityFromFloat64(10.5)}
	stocks := map[id.ID]types.Quantity{butter: types.NewQuantityFromInt(10)}

	recs := Compute(demand, stockFn(stocks), DefaultConfig())
	if len(recs) != 1 {
		t.Fatalf("expected 1 recommendation, got %d", len(recs))
	}

	// shortage 0.5, buffered 0.6, ceil -> 1 whole unit
	if recs[0].Recommended != types.NewQuantityFromInt(1) {
		t.Errorf("recommended: want 1, got %s", recs[0].Recommended)
	}
}

func TestCompute_SkipsCoveredMaterials(t *testing.T) {
	flour := id.New()
	sugar := id.New()
	demand := Demand{
		flour: types.NewQuantityFromInt(10),
		sugar: types.NewQuantityFromInt(10),
	}
	stocks := map[id.ID]types.Quantity{
		flour: types.NewQuantityFromInt(10), // exactly covered
		sugar: types.NewQuantityFromInt(50), // surplus
	}

	recs := Compute(demand, stockFn(stocks), DefaultConfig())
	if len(recs) != 0 {
		t.Errorf("expected no recommendations, got %d", len(recs))
	}
}

func TestCompute_PriorityAndHorizonBoundaries(t *testing.T) {
	tests := []struct {
		name         string
		need         types.Quantity
		current      types.Quantity
		wantPriority Priority
		wantDays     int
	}{
		{
			// shortage 40 is not > 0.5*100; 40 < 60 on hand
			name:         "mild shortage",
			need:         types.NewQuantityFromInt(100),
			current:      types.NewQuantityFromInt(60),
			wantPriority: PriorityMedium,
			wantDays:     3,
		},
		{
			// shortage 50 is not strictly > 50; not > current either
			name:         "exactly half short",
			need:         types.NewQuantityFromInt(100),
			current:      types.NewQuantityFromInt(50),
			wantPriority: PriorityMedium,
			wantDays:     3,
		},
		{
			// shortage 51 > 50 and > 49 on hand
			name:         "just past half",
			need:         types.NewQuantityFromInt(100),
			current:      types.NewQuantityFromInt(49),
			wantPriority: PriorityHigh,
			wantDays:     1,
		},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			materialID := id.New()
			recs := Compute(
				Demand{materialID: tt.need},
				stockFn(map[id.ID]types.Quantity{materialID: tt.current}),
				DefaultConfig(),
			)
			if len(recs) != 1 {
				t.Fatalf("expected 1 recommendation, got %d", len(recs))
			}
			if recs[0].Priority != tt.wantPriority {
				t.Errorf("priority: want %s, got %s", tt.wantPriority, recs[0].Priority)
			}
			if recs[0].OrderWithinDays != tt.wantDays {
				t.Errorf("orderWithinDays: want %d, got %d", tt.wantDays, recs[0].OrderWithinDays)
			}
		})
	}
}

func TestComputeFromForecasts_ResolvesRecipes(t *testing.T) {
	productA := id.New()
	flour := id.New()

	resolver := stubResolver{
		productA: {flour: types.NewQuantityFromInt(2)},
	}
	forecasts := []Forecast{
		{ProductID: productA, PredictedQuantity: 100, Confidence: 0.8},
	}
	stocks := map[id.ID]types.Quantity{flour: types.NewQuantityFromInt(50)}

	recs, err := ComputeFromForecasts(context.Background(), forecasts, resolver, stockFn(stocks), DefaultConfig())
	if err != nil {
		t.Fatalf("compute: %v", err)
	}
	if len(recs) != 1 {
		t.Fatalf("expected 1 recommendation, got %d", len(recs))
	}

	rec := recs[0]
	if rec.Need != types.NewQuantityFromInt(200) {
		t.Errorf("need: want 200, got %s", rec.Need)
	}
	if rec.Shortage != types.NewQuantityFromInt(150) {
		t.Errorf("shortage: want 150, got %s", rec.Shortage)
	}
	if rec.Recommended != types.NewQuantityFromInt(180) {
		t.Errorf("recommended: want 180, got %s", rec.Recommended)
	}
	if rec.Priority != PriorityHigh {
		t.Errorf("priority: want high, got %s", rec.Priority)
	}
	if rec.OrderWithinDays != 1 {
		t.Errorf("orderWithinDays: want 1, got %d", rec.OrderWithinDays)
	}
}

func TestComputeFromForecasts_AggregatesSharedMaterials(t *testing.T) {
	productA := id.New()
	productB := id.New()
	flour := id.New()

	resolver := stubResolver{
		productA: {flour: types.NewQuantityFromInt(2)},
		productB: {flour: types.NewQuantityFromInt(1)},
	}
	forecasts := []Forecast{
		{ProductID: productA, PredictedQuantity: 10},
		{ProductID: productB, PredictedQuantity: 5},
	}
	stocks := map[id.ID]types.Quantity{flour: types.NewQuantityFromInt(20)}

	recs, err := ComputeFromForecasts(context.Background(), forecasts, resolver, stockFn(stocks), DefaultConfig())
	if err != nil {
		t.Fatalf("compute: %v", err)
	}
	if len(recs) != 1 {
		t.Fatalf("expected 1 recommendation, got %d", len(recs))
	}
	// 10*2 + 5*1 = 25 needed, 20 on hand
	if recs[0].Shortage != types.NewQuantityFromInt(5) {
		t.Errorf("shortage: want 5, got %s", recs[0].Shortage)
	}
}

func TestComputeFromForecasts_NoRecipeFails(t *testing.T) {
	forecasts := []Forecast{
		{ProductID: id.New(), PredictedQuantity: 10},
	}

	_, err := ComputeFromForecasts(context.Background(), forecasts, stubResolver{}, stockFn(nil), DefaultConfig())
	if err == nil {
		t.Fatal("forecast for a product without a recipe must fail")
	}
	if !apperror.IsCode(err, apperror.CodeNoRecipeDefined) {
		t.Errorf("want NO_RECIPE_DEFINED, got %v", err)
	}
}

func TestCompute_SortedWorstFirst(t *testing.T) {
	a := id.New()
	b := id.New()
	demand := Demand{
		a: types.NewQuantityFromInt(20),
		b: types.NewQuantityFromInt(100),
	}
	stocks := map[id.ID]types.Quantity{
		a: types.NewQuantityFromInt(15), // shortage 5
		b: types.NewQuantityFromInt(30), // shortage 70
	}

	recs := Compute(demand, stockFn(stocks), DefaultConfig())
	if len(recs) != 2 {
		t.Fatalf("expected 2 recommendations, got %d", len(recs))
	}
	if recs[0].MaterialID != b {
		t.Errorf("worst shortage must come first")
	}
}
