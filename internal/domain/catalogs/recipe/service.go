package recipe

import (
	"context"
	"fmt"

	"hornada/internal/core/apperror"
	"hornada/internal/core/audit"
	"hornada/internal/core/id"
	"hornada/internal/core/tx"
	"hornada/internal/core/types"
	"hornada/pkg/logger"
)

// Requirements maps material IDs to required quantities.
type Requirements map[id.ID]types.Quantity

// Merge adds other's quantities into r.
func (r Requirements) Merge(other Requirements) {
	for materialID, qty := range other {
		r[materialID] += qty
	}
}

// Service provides recipe CRUD and BOM resolution.
type Service struct {
	repo      Repository
	txManager tx.Manager
	auditor   audit.Recorder
}

// NewService creates a recipe service.
func NewService(repo Repository, txManager tx.Manager, auditor audit.Recorder) *Service {
	if auditor == nil {
		auditor = audit.Nop{}
	}
	return &Service{repo: repo, txManager: txManager, auditor: auditor}
}

// Save validates and persists a recipe with its ingredient lines.
// Deactivates any previous active recipe for the same product so the
// "at most one active recipe per product" invariant holds.
func (s *Service) Save(ctx context.Context, r *Recipe) error {
	if err := r.Validate(ctx); err != nil {
		return err
	}

	err := s.txManager.RunInTransaction(ctx, func(ctx context.Context) error {
		previous, err := s.repo.GetActiveByProduct(ctx, r.ProductID)
		if err != nil && !apperror.IsNotFound(err) {
			return fmt.Errorf("check active recipe: %w", err)
		}
		if previous != nil && previous.ID != r.ID {
			previous.Active = false
			if err := s.repo.Update(ctx, previous); err != nil {
				return fmt.Errorf("deactivate previous recipe: %w", err)
			}
		}
		if err := s.repo.Create(ctx, r); err != nil {
			return fmt.Errorf("create recipe: %w", err)
		}
		action := audit.ActionCreate
		if previous != nil {
			action = audit.ActionUpdate
		}
		if err := s.auditor.LogChange(ctx, "recipe", r.ID, action, map[string]any{
			"product_id":  r.ProductID.String(),
			"name":        r.Name,
			"ingredients": len(r.Ingredients),
		}); err != nil {
			return fmt.Errorf("audit recipe save: %w", err)
		}
		return nil
	})
	if err != nil {
		return err
	}

	logger.Info(ctx, "recipe saved", "id", r.ID, "product_id", r.ProductID, "ingredients", len(r.Ingredients))
	return nil
}

// GetByID retrieves a recipe with ingredients.
func (s *Service) GetByID(ctx context.Context, recipeID id.ID) (*Recipe, error) {
	return s.repo.GetByID(ctx, recipeID)
}

// List retrieves recipes with filtering.
func (s *Service) List(ctx context.Context, filter ListFilter) ([]*Recipe, error) {
	return s.repo.List(ctx, filter)
}

// RequirementsFor resolves the bill of materials for producing quantity units
// of a product. Purely functional: no side effects, linear in quantity.
// Returns NO_RECIPE_DEFINED when the product has no active recipe; the caller
// decides whether that is fatal or skippable.
func (s *Service) RequirementsFor(ctx context.Context, productID id.ID, quantity int64) (Requirements, error) {
	if quantity <= 0 {
		return nil, apperror.NewValidation("quantity must be positive").WithDetail("field", "quantity")
	}

	r, err := s.repo.GetActiveByProduct(ctx, productID)
	if err != nil {
		if apperror.IsNotFound(err) {
			return nil, apperror.NewNoRecipeDefined(productID.String())
		}
		return nil, fmt.Errorf("load recipe: %w", err)
	}

	reqs := make(Requirements, len(r.Ingredients))
	for _, ing := range r.Ingredients {
		reqs[ing.MaterialID] += ing.Quantity.MulInt(quantity)
	}
	return reqs, nil
}

// Resolver is the narrow read-side interface consumed by fulfillment,
// production and the shortage advisor.
type Resolver interface {
	RequirementsFor(ctx context.Context, productID id.ID, quantity int64) (Requirements, error)
}

var _ Resolver = (*Service)(nil)
