// Package recipe provides the bill-of-materials catalog and resolver.
package recipe

import (
	"context"
	"time"

	"hornada/internal/core/apperror"
	"hornada/internal/core/id"
	"hornada/internal/core/types"
)

// Recipe maps one unit of a product to the raw materials consumed to make it.
// A product has at most one active recipe.
type Recipe struct {
	ID        id.ID `db:"id" json:"id"`
	ProductID id.ID `db:"product_id" json:"productId"`

	Name       string `db:"name" json:"name"`
	Category   string `db:"category" json:"category,omitempty"`
	Difficulty string `db:"difficulty" json:"difficulty,omitempty"`

	PrepTimeMin int `db:"prep_time_min" json:"prepTimeMin,omitempty"`
	CookTimeMin int `db:"cook_time_min" json:"cookTimeMin,omitempty"`

	YieldQuantity types.Quantity `db:"yield_quantity" json:"yieldQuantity"`
	YieldUnit     string         `db:"yield_unit" json:"yieldUnit,omitempty"`

	TotalCost types.Money `db:"total_cost" json:"totalCost"`

	Active bool `db:"active" json:"active"`

	// Table part: ordered ingredient list.
	Ingredients []Ingredient `db:"-" json:"ingredients"`

	CreatedAt time.Time `db:"created_at" json:"createdAt"`
	UpdatedAt time.Time `db:"updated_at" json:"updatedAt"`
}

// Ingredient is one (material, quantity-per-unit) pair of a recipe.
type Ingredient struct {
	LineID     id.ID          `db:"line_id" json:"lineId"`
	LineNo     int            `db:"line_no" json:"lineNo"`
	MaterialID id.ID          `db:"material_id" json:"materialId"`
	Quantity   types.Quantity `db:"quantity" json:"quantity"` // per one product unit
	Unit       string         `db:"unit" json:"unit,omitempty"`
	Cost       types.Money    `db:"cost" json:"cost"`
}

// NewRecipe creates an active recipe for a product.
func NewRecipe(productID id.ID, name string) *Recipe {
	now := time.Now().UTC()
	return &Recipe{
		ID:          id.New(),
		ProductID:   productID,
		Name:        name,
		Active:      true,
		Ingredients: make([]Ingredient, 0),
		CreatedAt:   now,
		UpdatedAt:   now,
	}
}

// AddIngredient appends an ingredient line and recalculates the total cost.
func (r *Recipe) AddIngredient(materialID id.ID, quantity types.Quantity, unit string, cost types.Money) {
	r.Ingredients = append(r.Ingredients, Ingredient{
		LineID:     id.New(),
		LineNo:     len(r.Ingredients) + 1,
		MaterialID: materialID,
		Quantity:   quantity,
		Unit:       unit,
		Cost:       cost,
	})
	r.recalculateTotalCost()
}

func (r *Recipe) recalculateTotalCost() {
	total := types.ZeroMoney()
	for _, ing := range r.Ingredients {
		total = total.Add(ing.Cost)
	}
	r.TotalCost = total
}

// Validate enforces the strongly-typed ingredient shape: every line needs a
// material reference and a positive quantity-per-unit.
func (r *Recipe) Validate(ctx context.Context) error {
	if id.IsNil(r.ProductID) {
		return apperror.NewValidation("product is required").WithDetail("field", "productId")
	}
	if r.Name == "" {
		return apperror.NewValidation("recipe name is required").WithDetail("field", "name")
	}
	if len(r.Ingredients) == 0 {
		return apperror.NewValidation("at least one ingredient is required").WithDetail("field", "ingredients")
	}
	for i, ing := range r.Ingredients {
		if id.IsNil(ing.MaterialID) {
			return apperror.NewValidation("ingredient material is required").
				WithDetail("field", "ingredients").
				WithDetail("lineNo", i+1)
		}
		if !ing.Quantity.IsPositive() {
			return apperror.NewValidation("ingredient quantity must be positive").
				WithDetail("field", "ingredients").
				WithDetail("lineNo", i+1)
		}
	}
	return nil
}
