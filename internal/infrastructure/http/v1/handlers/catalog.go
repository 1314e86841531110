package handlers

import (
	"github.com/gin-gonic/gin"

	"hornada/internal/core/apperror"
	"hornada/internal/core/types"
	"hornada/internal/domain/catalogs/product"
	"hornada/internal/domain/catalogs/recipe"
	"hornada/internal/infrastructure/http/v1/dto"
)

// CatalogHandler handles product and recipe catalog endpoints.
type CatalogHandler struct {
	*BaseHandler
	products product.Repository
	recipes  *recipe.Service
}

// NewCatalogHandler creates a catalog handler.
func NewCatalogHandler(base *BaseHandler, products product.Repository, recipes *recipe.Service) *CatalogHandler {
	return &CatalogHandler{
		BaseHandler: base,
		products:    products,
		recipes:     recipes,
	}
}

// CreateProduct handles POST /catalog/products
func (h *CatalogHandler) CreateProduct(c *gin.Context) {
	var req dto.CreateProductRequest
	if !h.BindJSON(c, &req) {
		return
	}

	price := types.ZeroMoney()
	if req.SellingPrice != "" {
		parsed, err := types.NewMoneyFromString(req.SellingPrice)
		if err != nil {
			h.Error(c, apperror.NewValidation("invalid sellingPrice").WithDetail("field", "sellingPrice"))
			return
		}
		price = parsed
	}

	p := product.NewProduct(req.Name, price)
	p.Category = req.Category

	ctx := c.Request.Context()
	if err := p.Validate(ctx); err != nil {
		h.Error(c, err)
		return
	}
	if err := h.products.Create(ctx, p); err != nil {
		h.Error(c, err)
		return
	}
	h.Created(c, p.ID.String())
}

// GetProduct handles GET /catalog/products/:id
func (h *CatalogHandler) GetProduct(c *gin.Context) {
	productID, ok := h.ParseID(c, "id")
	if !ok {
		return
	}

	p, err := h.products.GetByID(c.Request.Context(), productID)
	if err != nil {
		h.Error(c, err)
		return
	}
	h.OK(c, p)
}

// ListProducts handles GET /catalog/products
func (h *CatalogHandler) ListProducts(c *gin.Context) {
	items, err := h.products.List(
		c.Request.Context(),
		c.Query("search"),
		h.ParseIntQuery(c, "limit", 100),
		h.ParseIntQuery(c, "offset", 0),
	)
	if err != nil {
		h.Error(c, err)
		return
	}
	h.OK(c, dto.NewListResponse(items))
}

// SaveRecipe handles POST /catalog/recipes
func (h *CatalogHandler) SaveRecipe(c *gin.Context) {
	var req dto.SaveRecipeRequest
	if !h.BindJSON(c, &req) {
		return
	}

	r, err := h.buildRecipe(req)
	if err != nil {
		h.Error(c, err)
		return
	}

	if err := h.recipes.Save(c.Request.Context(), r); err != nil {
		h.Error(c, err)
		return
	}
	h.Created(c, r.ID.String())
}

func (h *CatalogHandler) buildRecipe(req dto.SaveRecipeRequest) (*recipe.Recipe, error) {
	productID, err := idFromString(req.ProductID, "productId")
	if err != nil {
		return nil, err
	}

	r := recipe.NewRecipe(productID, req.Name)
	r.Category = req.Category
	r.Difficulty = req.Difficulty
	r.PrepTimeMin = req.PrepTimeMin
	r.CookTimeMin = req.CookTimeMin
	r.YieldQuantity = types.NewQuantityFromFloat64(req.YieldQuantity)
	r.YieldUnit = req.YieldUnit

	for _, ing := range req.Ingredients {
		materialID, err := idFromString(ing.MaterialID, "ingredients.materialId")
		if err != nil {
			return nil, err
		}
		cost := types.ZeroMoney()
		if ing.Cost != "" {
			cost, err = types.NewMoneyFromString(ing.Cost)
			if err != nil {
				return nil, apperror.NewValidation("invalid ingredient cost").WithDetail("field", "ingredients.cost")
			}
		}
		r.AddIngredient(materialID, types.NewQuantityFromFloat64(ing.Quantity), ing.Unit, cost)
	}
	return r, nil
}

// GetRecipe handles GET /catalog/recipes/:id
func (h *CatalogHandler) GetRecipe(c *gin.Context) {
	recipeID, ok := h.ParseID(c, "id")
	if !ok {
		return
	}

	r, err := h.recipes.GetByID(c.Request.Context(), recipeID)
	if err != nil {
		h.Error(c, err)
		return
	}
	h.OK(c, r)
}

// ListRecipes handles GET /catalog/recipes
func (h *CatalogHandler) ListRecipes(c *gin.Context) {
	filter := recipe.ListFilter{
		Search:     c.Query("search"),
		Category:   c.Query("category"),
		Difficulty: c.Query("difficulty"),
		Limit:      h.ParseIntQuery(c, "limit", 100),
		Offset:     h.ParseIntQuery(c, "offset", 0),
	}

	items, err := h.recipes.List(c.Request.Context(), filter)
	if err != nil {
		h.Error(c, err)
		return
	}
	h.OK(c, dto.NewListResponse(items))
}

// GetRequirements handles GET /catalog/products/:id/requirements
// Resolves the bill of materials for producing the given quantity.
func (h *CatalogHandler) GetRequirements(c *gin.Context) {
	productID, ok := h.ParseID(c, "id")
	if !ok {
		return
	}
	quantity := int64(h.ParseIntQuery(c, "quantity", 1))

	reqs, err := h.recipes.RequirementsFor(c.Request.Context(), productID, quantity)
	if err != nil {
		h.Error(c, err)
		return
	}

	out := make(map[string]types.Quantity, len(reqs))
	for materialID, qty := range reqs {
		out[materialID.String()] = qty
	}
	h.OK(c, out)
}
