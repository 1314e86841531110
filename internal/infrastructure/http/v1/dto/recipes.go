package dto

// IngredientRequest is one ingredient line of a recipe payload.
type IngredientRequest struct {
	MaterialID string  `json:"materialId" binding:"required"`
	Quantity   float64 `json:"quantity" binding:"required"`
	Unit       string  `json:"unit"`
	Cost       string  `json:"cost"`
}

// SaveRecipeRequest creates or replaces the active recipe of a product.
type SaveRecipeRequest struct {
	ProductID     string              `json:"productId" binding:"required"`
	Name          string              `json:"name" binding:"required"`
	Category      string              `json:"category"`
	Difficulty    string              `json:"difficulty"`
	PrepTimeMin   int                 `json:"prepTimeMin"`
	CookTimeMin   int                 `json:"cookTimeMin"`
	YieldQuantity float64             `json:"yieldQuantity"`
	YieldUnit     string              `json:"yieldUnit"`
	Ingredients   []IngredientRequest `json:"ingredients" binding:"required"`
}

// CreateProductRequest creates a sellable product.
type CreateProductRequest struct {
	Name         string `json:"name" binding:"required"`
	Category     string `json:"category"`
	SellingPrice string `json:"sellingPrice"`
}
