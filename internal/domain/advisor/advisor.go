// Package advisor computes purchase recommendations from upcoming
// production demand versus current stock.
package advisor

import (
	"context"
	"math"
	"sort"
	"time"

	"hornada/internal/core/id"
	"hornada/internal/core/types"
	"hornada/internal/domain/catalogs/recipe"
	"hornada/internal/domain/production"
)

// Priority classifies how badly a material is short.
type Priority string

const (
	PriorityHigh   Priority = "high"
	PriorityMedium Priority = "medium"
)

// Recommendation is one material the bakery should buy.
type Recommendation struct {
	MaterialID id.ID `json:"materialId"`

	// Need is total demand from unfinished plan items.
	Need types.Quantity `json:"need"`
	// Current is on-hand stock at computation time.
	Current types.Quantity `json:"current"`
	// Shortage is max(0, need - current).
	Shortage types.Quantity `json:"shortage"`
	// Recommended is the shortage scaled by the safety buffer, rounded
	// up to whole units.
	Recommended types.Quantity `json:"recommended"`

	Priority Priority `json:"priority"`
	// OrderWithinDays is the suggested purchasing horizon.
	OrderWithinDays int `json:"orderWithinDays"`
}

// Demand is aggregated per-material need, keyed by material.
type Demand map[id.ID]types.Quantity

// Forecast is predicted demand for one product, supplied as data by an
// external predictor.
type Forecast struct {
	ProductID         id.ID     `json:"productId"`
	PredictedQuantity int64     `json:"predictedQuantity"`
	Confidence        float64   `json:"confidence"`
	Date              time.Time `json:"date"`
}

// DemandFromForecasts resolves forecasts into aggregated per-material need.
// A forecast for a product without an active recipe fails the whole
// computation; forecast input is setup data and a missing recipe there must
// surface rather than silently shrink the report.
func DemandFromForecasts(ctx context.Context, forecasts []Forecast, resolver recipe.Resolver) (Demand, error) {
	demand := make(Demand)
	for _, f := range forecasts {
		if f.PredictedQuantity <= 0 {
			continue
		}
		reqs, err := resolver.RequirementsFor(ctx, f.ProductID, f.PredictedQuantity)
		if err != nil {
			return nil, err
		}
		for materialID, qty := range reqs {
			demand[materialID] += qty
		}
	}
	return demand, nil
}

// ComputeFromForecasts is the forecast-driven entry: resolve, aggregate,
// compute. Pure given its inputs.
func ComputeFromForecasts(ctx context.Context, forecasts []Forecast, resolver recipe.Resolver, stock func(id.ID) types.Quantity, cfg Config) ([]Recommendation, error) {
	demand, err := DemandFromForecasts(ctx, forecasts, resolver)
	if err != nil {
		return nil, err
	}
	return Compute(demand, stock, cfg), nil
}

// Compute derives recommendations from demand and a stock lookup. Pure
// given its inputs; results are sorted by shortage, worst first.
func Compute(demand Demand, stock func(id.ID) types.Quantity, cfg Config) []Recommendation {
	recs := make([]Recommendation, 0, len(demand))
	for materialID, need := range demand {
		current := stock(materialID)
		shortage := need - current
		if shortage <= 0 {
			continue
		}

		recommendedUnits := math.Ceil(shortage.Float64() * cfg.SafetyBuffer)
		rec := Recommendation{
			MaterialID:      materialID,
			Need:            need,
			Current:         current,
			Shortage:        shortage,
			Recommended:     types.NewQuantityFromFloat64(recommendedUnits),
			Priority:        PriorityMedium,
			OrderWithinDays: cfg.StandardDays,
		}
		if shortage.Float64() > cfg.HighPriorityRatio*need.Float64() {
			rec.Priority = PriorityHigh
		}
		if shortage > current {
			rec.OrderWithinDays = cfg.UrgentDays
		}
		recs = append(recs, rec)
	}

	sort.Slice(recs, func(i, j int) bool {
		if recs[i].Shortage != recs[j].Shortage {
			return recs[i].Shortage > recs[j].Shortage
		}
		return recs[i].MaterialID.String() < recs[j].MaterialID.String()
	})
	return recs
}

// Service assembles demand from the production plan and current stock from
// the ledger, then runs the pure computation.
type Service struct {
	items   production.PlanRepository
	recipes recipe.Resolver
	stock   StockReader
	cfg     Config
}

// StockReader exposes the single ledger read the advisor needs.
type StockReader interface {
	GetStock(ctx context.Context, materialID id.ID) (types.Quantity, error)
}

// NewService creates an advisor service.
func NewService(items production.PlanRepository, recipes recipe.Resolver, stock StockReader, cfg Config) *Service {
	return &Service{items: items, recipes: recipes, stock: stock, cfg: cfg}
}

// Recommendations computes what to buy for all unfinished plan items.
// Items whose product lost its recipe are skipped rather than failing the
// whole report.
func (s *Service) Recommendations(ctx context.Context) ([]Recommendation, error) {
	demand := make(Demand)
	for _, status := range []production.ItemStatus{production.ItemPending, production.ItemInProgress, production.ItemBlocked} {
		items, err := s.items.ListItems(ctx, production.ItemListFilter{Status: status})
		if err != nil {
			return nil, err
		}
		for _, item := range items {
			remaining := item.Remaining()
			if remaining == 0 {
				continue
			}
			reqs, err := s.recipes.RequirementsFor(ctx, item.ProductID, remaining)
			if err != nil {
				continue
			}
			for materialID, qty := range reqs {
				demand[materialID] += qty
			}
		}
	}

	return s.compute(ctx, demand)
}

// Shortages computes recommendations for externally supplied forecasts
// instead of the open production plan.
func (s *Service) Shortages(ctx context.Context, forecasts []Forecast) ([]Recommendation, error) {
	demand, err := DemandFromForecasts(ctx, forecasts, s.recipes)
	if err != nil {
		return nil, err
	}
	return s.compute(ctx, demand)
}

func (s *Service) compute(ctx context.Context, demand Demand) ([]Recommendation, error) {
	stocks := make(map[id.ID]types.Quantity, len(demand))
	for materialID := range demand {
		current, err := s.stock.GetStock(ctx, materialID)
		if err != nil {
			return nil, err
		}
		stocks[materialID] = current
	}

	return Compute(demand, func(materialID id.ID) types.Quantity {
		return stocks[materialID]
	}, s.cfg), nil
}
