package catalog_repo

import (
	"context"
	"fmt"

	"github.com/Masterminds/squirrel"
	"github.com/georgysavva/scany/v2/pgxscan"

	"hornada/internal/core/apperror"
	"hornada/internal/core/id"
	"hornada/internal/domain/catalogs/recipe"
	"hornada/internal/infrastructure/storage/postgres"
)

const (
	recipesTable           = "recipes"
	recipeIngredientsTable = "recipe_ingredients"
)

var recipeColumns = []string{
	"id", "product_id", "name", "category", "difficulty",
	"prep_time_min", "cook_time_min", "yield_quantity", "yield_unit",
	"total_cost", "active", "created_at", "updated_at",
}

// RecipeRepo implements recipe.Repository using the header + lines pattern:
// the recipe row plus an ordered ingredient table part.
type RecipeRepo struct {
	txm     *postgres.TxManager
	builder squirrel.StatementBuilderType
}

// NewRecipeRepo creates a recipe repository.
func NewRecipeRepo(txm *postgres.TxManager) *RecipeRepo {
	return &RecipeRepo{
		txm:     txm,
		builder: squirrel.StatementBuilder.PlaceholderFormat(squirrel.Dollar),
	}
}

// Create inserts the recipe and its ingredient lines. Callers wrap this in
// a transaction.
func (r *RecipeRepo) Create(ctx context.Context, rec *recipe.Recipe) error {
	q := r.builder.Insert(recipesTable).
		Columns(recipeColumns...).
		Values(
			rec.ID, rec.ProductID, rec.Name, rec.Category, rec.Difficulty,
			rec.PrepTimeMin, rec.CookTimeMin, rec.YieldQuantity.Int64Scaled(), rec.YieldUnit,
			rec.TotalCost, rec.Active, rec.CreatedAt, rec.UpdatedAt,
		)

	sql, args, err := q.ToSql()
	if err != nil {
		return fmt.Errorf("build insert: %w", err)
	}
	if _, err := r.txm.GetQuerier(ctx).Exec(ctx, sql, args...); err != nil {
		return fmt.Errorf("insert recipe: %w", err)
	}

	return r.saveIngredients(ctx, rec.ID, rec.Ingredients)
}

// Update rewrites the recipe header and replaces its ingredient lines.
func (r *RecipeRepo) Update(ctx context.Context, rec *recipe.Recipe) error {
	q := r.builder.Update(recipesTable).
		Set("name", rec.Name).
		Set("category", rec.Category).
		Set("difficulty", rec.Difficulty).
		Set("prep_time_min", rec.PrepTimeMin).
		Set("cook_time_min", rec.CookTimeMin).
		Set("yield_quantity", rec.YieldQuantity.Int64Scaled()).
		Set("yield_unit", rec.YieldUnit).
		Set("total_cost", rec.TotalCost).
		Set("active", rec.Active).
		Set("updated_at", rec.UpdatedAt).
		Where(squirrel.Eq{"id": rec.ID})

	sql, args, err := q.ToSql()
	if err != nil {
		return fmt.Errorf("build update: %w", err)
	}
	tag, err := r.txm.GetQuerier(ctx).Exec(ctx, sql, args...)
	if err != nil {
		return fmt.Errorf("update recipe: %w", err)
	}
	if tag.RowsAffected() == 0 {
		return apperror.NewNotFound("recipe", rec.ID)
	}

	return r.saveIngredients(ctx, rec.ID, rec.Ingredients)
}

// saveIngredients replaces lines: delete existing, insert new.
func (r *RecipeRepo) saveIngredients(ctx context.Context, recipeID id.ID, lines []recipe.Ingredient) error {
	querier := r.txm.GetQuerier(ctx)

	if _, err := querier.Exec(ctx, "DELETE FROM "+recipeIngredientsTable+" WHERE recipe_id = $1", recipeID); err != nil {
		return fmt.Errorf("delete existing ingredients: %w", err)
	}
	if len(lines) == 0 {
		return nil
	}

	columns := []string{"line_id", "recipe_id", "line_no", "material_id", "quantity", "unit", "cost"}

	// Fast path: COPY when inside a transaction.
	if r.txm.ActiveTx(ctx) != nil {
		inserter := postgres.NewBatchInserter(r.txm)
		rows := make([][]any, 0, len(lines))
		for _, line := range lines {
			rows = append(rows, []any{
				line.LineID, recipeID, line.LineNo, line.MaterialID,
				line.Quantity.Int64Scaled(), line.Unit, line.Cost,
			})
		}
		if _, err := inserter.CopyFromSlice(ctx, recipeIngredientsTable, columns, rows); err != nil {
			return fmt.Errorf("copy ingredients: %w", err)
		}
		return nil
	}

	q := r.builder.Insert(recipeIngredientsTable).Columns(columns...)
	for _, line := range lines {
		q = q.Values(line.LineID, recipeID, line.LineNo, line.MaterialID, line.Quantity.Int64Scaled(), line.Unit, line.Cost)
	}

	sql, args, err := q.ToSql()
	if err != nil {
		return fmt.Errorf("build insert ingredients: %w", err)
	}
	if _, err := querier.Exec(ctx, sql, args...); err != nil {
		return fmt.Errorf("insert ingredients: %w", err)
	}
	return nil
}

func (r *RecipeRepo) getIngredients(ctx context.Context, recipeID id.ID) ([]recipe.Ingredient, error) {
	q := r.builder.Select("line_id", "line_no", "material_id", "quantity", "unit", "cost").
		From(recipeIngredientsTable).
		Where(squirrel.Eq{"recipe_id": recipeID}).
		OrderBy("line_no")

	sql, args, err := q.ToSql()
	if err != nil {
		return nil, fmt.Errorf("build query: %w", err)
	}

	var lines []recipe.Ingredient
	if err := pgxscan.Select(ctx, r.txm.GetQuerier(ctx), &lines, sql, args...); err != nil {
		return nil, fmt.Errorf("get ingredients: %w", err)
	}
	return lines, nil
}

// GetByID loads a recipe with its ingredients.
func (r *RecipeRepo) GetByID(ctx context.Context, recipeID id.ID) (*recipe.Recipe, error) {
	q := r.builder.Select(recipeColumns...).
		From(recipesTable).
		Where(squirrel.Eq{"id": recipeID}).
		Limit(1)

	sql, args, err := q.ToSql()
	if err != nil {
		return nil, fmt.Errorf("build query: %w", err)
	}

	var rec recipe.Recipe
	if err := pgxscan.Get(ctx, r.txm.GetQuerier(ctx), &rec, sql, args...); err != nil {
		if pgxscan.NotFound(err) {
			return nil, apperror.NewNotFound("recipe", recipeID)
		}
		return nil, fmt.Errorf("get recipe: %w", err)
	}

	lines, err := r.getIngredients(ctx, rec.ID)
	if err != nil {
		return nil, err
	}
	rec.Ingredients = lines
	return &rec, nil
}

// GetActiveByProduct returns the single active recipe for a product.
func (r *RecipeRepo) GetActiveByProduct(ctx context.Context, productID id.ID) (*recipe.Recipe, error) {
	q := r.builder.Select(recipeColumns...).
		From(recipesTable).
		Where(squirrel.Eq{"product_id": productID, "active": true}).
		Limit(1)

	sql, args, err := q.ToSql()
	if err != nil {
		return nil, fmt.Errorf("build query: %w", err)
	}

	var rec recipe.Recipe
	if err := pgxscan.Get(ctx, r.txm.GetQuerier(ctx), &rec, sql, args...); err != nil {
		if pgxscan.NotFound(err) {
			return nil, apperror.NewNotFound("active recipe for product", productID)
		}
		return nil, fmt.Errorf("get active recipe: %w", err)
	}

	lines, err := r.getIngredients(ctx, rec.ID)
	if err != nil {
		return nil, err
	}
	rec.Ingredients = lines
	return &rec, nil
}

// List returns recipe headers matching the filter, without ingredients.
func (r *RecipeRepo) List(ctx context.Context, filter recipe.ListFilter) ([]*recipe.Recipe, error) {
	q := r.builder.Select(recipeColumns...).From(recipesTable)

	if filter.Search != "" {
		q = q.Where(squirrel.ILike{"name": "%" + filter.Search + "%"})
	}
	if filter.Category != "" {
		q = q.Where(squirrel.Eq{"category": filter.Category})
	}
	if filter.Difficulty != "" {
		q = q.Where(squirrel.Eq{"difficulty": filter.Difficulty})
	}

	q = q.OrderBy("name")
	if filter.Limit > 0 {
		q = q.Limit(uint64(filter.Limit))
	}
	if filter.Offset > 0 {
		q = q.Offset(uint64(filter.Offset))
	}

	sql, args, err := q.ToSql()
	if err != nil {
		return nil, fmt.Errorf("build query: %w", err)
	}

	var recipes []*recipe.Recipe
	if err := pgxscan.Select(ctx, r.txm.GetQuerier(ctx), &recipes, sql, args...); err != nil {
		return nil, fmt.Errorf("select recipes: %w", err)
	}
	return recipes, nil
}

var _ recipe.Repository = (*RecipeRepo)(nil)
