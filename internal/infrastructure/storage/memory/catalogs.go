package memory

import (
	"context"
	"sort"
	"strings"
	"sync"

	"hornada/internal/core/apperror"
	"hornada/internal/core/id"
	"hornada/internal/domain/catalogs/material"
	"hornada/internal/domain/catalogs/product"
	"hornada/internal/domain/catalogs/recipe"
)

// MaterialRepo implements material.Repository in memory.
type MaterialRepo struct {
	mu        sync.RWMutex
	materials map[id.ID]material.RawMaterial
}

// NewMaterialRepo creates an empty material repository.
func NewMaterialRepo() *MaterialRepo {
	return &MaterialRepo{materials: make(map[id.ID]material.RawMaterial)}
}

func (r *MaterialRepo) Create(ctx context.Context, m *material.RawMaterial) error {
	r.mu.Lock()
	defer r.mu.Unlock()
	if _, ok := r.materials[m.ID]; ok {
		return apperror.NewDuplicate("raw material", "id", m.ID.String())
	}
	r.materials[m.ID] = *m
	return nil
}

func (r *MaterialRepo) Update(ctx context.Context, m *material.RawMaterial) error {
	r.mu.Lock()
	defer r.mu.Unlock()
	existing, ok := r.materials[m.ID]
	if !ok {
		return apperror.NewNotFound("raw material", m.ID)
	}
	// Stock columns are ledger-owned.
	updated := *m
	updated.CurrentStock = existing.CurrentStock
	r.materials[m.ID] = updated
	return nil
}

func (r *MaterialRepo) GetByID(ctx context.Context, materialID id.ID) (*material.RawMaterial, error) {
	r.mu.RLock()
	defer r.mu.RUnlock()
	m, ok := r.materials[materialID]
	if !ok {
		return nil, apperror.NewNotFound("raw material", materialID)
	}
	return &m, nil
}

func (r *MaterialRepo) List(ctx context.Context, filter material.ListFilter) ([]*material.RawMaterial, error) {
	r.mu.RLock()
	defer r.mu.RUnlock()

	var out []*material.RawMaterial
	for _, m := range r.materials {
		if filter.Search != "" && !strings.Contains(strings.ToLower(m.Name), strings.ToLower(filter.Search)) {
			continue
		}
		if filter.Category != "" && m.Category != filter.Category {
			continue
		}
		m := m
		out = append(out, &m)
	}
	sort.Slice(out, func(i, j int) bool { return out[i].Name < out[j].Name })
	return paginate(out, filter.Limit, filter.Offset), nil
}

// SetStock overwrites the cached stock directly. Test seeding helper.
func (r *MaterialRepo) SetStock(materialID id.ID, m material.RawMaterial) {
	r.mu.Lock()
	defer r.mu.Unlock()
	r.materials[materialID] = m
}

var _ material.Repository = (*MaterialRepo)(nil)

// ProductRepo implements product.Repository in memory.
type ProductRepo struct {
	mu       sync.RWMutex
	products map[id.ID]product.Product
}

// NewProductRepo creates an empty product repository.
func NewProductRepo() *ProductRepo {
	return &ProductRepo{products: make(map[id.ID]product.Product)}
}

func (r *ProductRepo) Create(ctx context.Context, p *product.Product) error {
	r.mu.Lock()
	defer r.mu.Unlock()
	if _, ok := r.products[p.ID]; ok {
		return apperror.NewDuplicate("product", "id", p.ID.String())
	}
	r.products[p.ID] = *p
	return nil
}

func (r *ProductRepo) Update(ctx context.Context, p *product.Product) error {
	r.mu.Lock()
	defer r.mu.Unlock()
	if _, ok := r.products[p.ID]; !ok {
		return apperror.NewNotFound("product", p.ID)
	}
	r.products[p.ID] = *p
	return nil
}

func (r *ProductRepo) GetByID(ctx context.Context, productID id.ID) (*product.Product, error) {
	r.mu.RLock()
	defer r.mu.RUnlock()
	p, ok := r.products[productID]
	if !ok {
		return nil, apperror.NewNotFound("product", productID)
	}
	return &p, nil
}

func (r *ProductRepo) List(ctx context.Context, search string, limit, offset int) ([]*product.Product, error) {
	r.mu.RLock()
	defer r.mu.RUnlock()

	var out []*product.Product
	for _, p := range r.products {
		if search != "" && !strings.Contains(strings.ToLower(p.Name), strings.ToLower(search)) {
			continue
		}
		p := p
		out = append(out, &p)
	}
	sort.Slice(out, func(i, j int) bool { return out[i].Name < out[j].Name })
	return paginate(out, limit, offset), nil
}

var _ product.Repository = (*ProductRepo)(nil)

// RecipeRepo implements recipe.Repository in memory.
type RecipeRepo struct {
	mu      sync.RWMutex
	recipes map[id.ID]recipe.Recipe
}

// NewRecipeRepo creates an empty recipe repository.
func NewRecipeRepo() *RecipeRepo {
	return &RecipeRepo{recipes: make(map[id.ID]recipe.Recipe)}
}

func (r *RecipeRepo) Create(ctx context.Context, rec *recipe.Recipe) error {
	r.mu.Lock()
	defer r.mu.Unlock()
	if _, ok := r.recipes[rec.ID]; ok {
		return apperror.NewDuplicate("recipe", "id", rec.ID.String())
	}
	r.recipes[rec.ID] = cloneRecipe(rec)
	return nil
}

func (r *RecipeRepo) Update(ctx context.Context, rec *recipe.Recipe) error {
	r.mu.Lock()
	defer r.mu.Unlock()
	if _, ok := r.recipes[rec.ID]; !ok {
		return apperror.NewNotFound("recipe", rec.ID)
	}
	r.recipes[rec.ID] = cloneRecipe(rec)
	return nil
}

func (r *RecipeRepo) GetByID(ctx context.Context, recipeID id.ID) (*recipe.Recipe, error) {
	r.mu.RLock()
	defer r.mu.RUnlock()
	rec, ok := r.recipes[recipeID]
	if !ok {
		return nil, apperror.NewNotFound("recipe", recipeID)
	}
	out := cloneRecipe(&rec)
	return &out, nil
}

func (r *RecipeRepo) GetActiveByProduct(ctx context.Context, productID id.ID) (*recipe.Recipe, error) {
	r.mu.RLock()
	defer r.mu.RUnlock()
	for _, rec := range r.recipes {
		if rec.ProductID == productID && rec.Active {
			out := cloneRecipe(&rec)
			return &out, nil
		}
	}
	return nil, apperror.NewNotFound("active recipe for product", productID)
}

func (r *RecipeRepo) List(ctx context.Context, filter recipe.ListFilter) ([]*recipe.Recipe, error) {
	r.mu.RLock()
	defer r.mu.RUnlock()

	var out []*recipe.Recipe
	for _, rec := range r.recipes {
		if filter.Search != "" && !strings.Contains(strings.ToLower(rec.Name), strings.ToLower(filter.Search)) {
			continue
		}
		if filter.Category != "" && rec.Category != filter.Category {
			continue
		}
		if filter.Difficulty != "" && rec.Difficulty != filter.Difficulty {
			continue
		}
		c := cloneRecipe(&rec)
		out = append(out, &c)
	}
	sort.Slice(out, func(i, j int) bool { return out[i].Name < out[j].Name })
	return paginate(out, filter.Limit, filter.Offset), nil
}

func cloneRecipe(rec *recipe.Recipe) recipe.Recipe {
	out := *rec
	out.Ingredients = append([]recipe.Ingredient(nil), rec.Ingredients...)
	return out
}

var _ recipe.Repository = (*RecipeRepo)(nil)

func paginate[T any](items []T, limit, offset int) []T {
	if offset > 0 {
		if offset >= len(items) {
			return nil
		}
		items = items[offset:]
	}
	if limit > 0 && limit < len(items) {
		items = items[:limit]
	}
	return items
}
