package recipe

import (
	"context"

	"hornada/internal/core/id"
)

// ListFilter narrows recipe listings.
type ListFilter struct {
	Search     string
	Category   string
	Difficulty string
	Limit      int
	Offset     int
}

// Repository defines persistence operations for recipes.
type Repository interface {
	// Create persists the recipe and its ingredient lines atomically.
	Create(ctx context.Context, r *Recipe) error
	Update(ctx context.Context, r *Recipe) error
	GetByID(ctx context.Context, recipeID id.ID) (*Recipe, error)

	// GetActiveByProduct returns the single active recipe for a product,
	// or a NOT_FOUND error when none exists.
	GetActiveByProduct(ctx context.Context, productID id.ID) (*Recipe, error)

	List(ctx context.Context, filter ListFilter) ([]*Recipe, error)
}
