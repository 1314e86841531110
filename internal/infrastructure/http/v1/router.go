// Package v1 provides HTTP API version 1.
package v1

import (
	"github.com/gin-gonic/gin"
	"github.com/jackc/pgx/v5/pgxpool"

	"hornada/internal/domain/advisor"
	"hornada/internal/domain/cash"
	"hornada/internal/domain/catalogs/material"
	"hornada/internal/domain/catalogs/product"
	"hornada/internal/domain/catalogs/recipe"
	"hornada/internal/domain/fulfillment"
	"hornada/internal/domain/ledger"
	"hornada/internal/domain/production"
	"hornada/internal/domain/sales/order"
	"hornada/internal/domain/sales/quote"
	"hornada/internal/infrastructure/http/v1/handlers"
	"hornada/internal/infrastructure/http/v1/middleware"
	"hornada/pkg/logger"
)

// RouterConfig carries the wired services the API exposes.
type RouterConfig struct {
	Pool   *pgxpool.Pool
	Logger *logger.Logger

	Materials *material.Service
	Products  product.Repository
	Recipes   *recipe.Service
	Ledger    *ledger.Service

	Quotes      quote.Repository
	Orders      order.Repository
	Fulfillment *fulfillment.Service
	Numbers     fulfillment.NumberGenerator

	Production *production.Service
	Advisor    *advisor.Service
	Cash       *cash.Service
}

// NewRouter creates and configures the Gin router.
func NewRouter(cfg RouterConfig) *gin.Engine {
	gin.SetMode(gin.ReleaseMode)

	router := gin.New()

	// Global middleware (order matters!)
	router.Use(middleware.Recovery())
	router.Use(middleware.Trace())
	router.Use(middleware.Logger(cfg.Logger))
	router.Use(middleware.ErrorHandler())

	healthHandler := handlers.NewHealthHandler(cfg.Pool)
	health := router.Group("/health")
	{
		health.GET("/live", healthHandler.Live)
		health.GET("/ready", healthHandler.Ready)
	}

	base := handlers.NewBaseHandler()

	api := router.Group("/api/v1")
	{
		registerInventoryRoutes(api, base, cfg)
		registerCatalogRoutes(api, base, cfg)
		registerSalesRoutes(api, base, cfg)
		registerProductionRoutes(api, base, cfg)
		registerCashRoutes(api, base, cfg)
	}

	return router
}

func registerInventoryRoutes(rg *gin.RouterGroup, base *handlers.BaseHandler, cfg RouterConfig) {
	h := handlers.NewInventoryHandler(base, cfg.Materials, cfg.Ledger)

	materials := rg.Group("/inventory/materials")
	{
		materials.POST("", h.CreateMaterial)
		materials.GET("", h.ListMaterials)
		materials.GET("/:id", h.GetMaterial)
		materials.PUT("/:id", h.UpdateMaterial)
		materials.GET("/:id/stock", h.GetStock)
		materials.GET("/:id/movements", h.GetMovements)
		materials.POST("/:id/movements", h.RecordMovement)
	}
}

func registerCatalogRoutes(rg *gin.RouterGroup, base *handlers.BaseHandler, cfg RouterConfig) {
	h := handlers.NewCatalogHandler(base, cfg.Products, cfg.Recipes)

	catalog := rg.Group("/catalog")
	{
		catalog.POST("/products", h.CreateProduct)
		catalog.GET("/products", h.ListProducts)
		catalog.GET("/products/:id", h.GetProduct)
		catalog.GET("/products/:id/requirements", h.GetRequirements)

		catalog.POST("/recipes", h.SaveRecipe)
		catalog.GET("/recipes", h.ListRecipes)
		catalog.GET("/recipes/:id", h.GetRecipe)
	}
}

func registerSalesRoutes(rg *gin.RouterGroup, base *handlers.BaseHandler, cfg RouterConfig) {
	h := handlers.NewSalesHandler(base, cfg.Quotes, cfg.Orders, cfg.Fulfillment, cfg.Numbers)

	sales := rg.Group("/sales")
	{
		sales.POST("/quotes", h.CreateQuote)
		sales.GET("/quotes", h.ListQuotes)
		sales.GET("/quotes/:id", h.GetQuote)
		sales.POST("/quotes/:id/send", h.SendQuote)
		sales.POST("/quotes/:id/convert", h.ConvertQuote)

		sales.POST("/reservations", h.CreateReservation)
		sales.DELETE("/reservations/:token", h.ReleaseReservation)

		sales.GET("/orders", h.ListOrders)
		sales.GET("/orders/:id", h.GetOrder)
		sales.PUT("/orders/:id/status", h.UpdateOrderStatus)
	}
}

func registerProductionRoutes(rg *gin.RouterGroup, base *handlers.BaseHandler, cfg RouterConfig) {
	production := rg.Group("/production")

	h := handlers.NewProductionHandler(base, cfg.Production)
	{
		production.POST("/items", h.CreateItem)
		production.GET("/items", h.ListItems)
		production.GET("/items/:id", h.GetItem)
		production.PATCH("/items/:id", h.PatchItem)

		production.POST("/batches/merge/:productId", h.MergePending)
		production.GET("/batches", h.ListBatches)
		production.GET("/batches/:id", h.GetBatch)
		production.PUT("/batches/:id/progress", h.UpdateBatchProgress)
	}

	advisorHandler := handlers.NewAdvisorHandler(base, cfg.Advisor)
	rg.GET("/advisor/recommendations", advisorHandler.GetRecommendations)
	rg.POST("/advisor/shortages", advisorHandler.ComputeShortages)
}

func registerCashRoutes(rg *gin.RouterGroup, base *handlers.BaseHandler, cfg RouterConfig) {
	h := handlers.NewCashHandler(base, cfg.Cash)

	cashGroup := rg.Group("/cash")
	{
		cashGroup.POST("/sessions", h.OpenSession)
		cashGroup.POST("/sessions/close", h.CloseSession)
		cashGroup.GET("/sessions/current", h.CurrentSession)
		cashGroup.GET("/sessions/:id/movements", h.SessionMovements)
		cashGroup.POST("/movements", h.RecordMovement)
	}
}
