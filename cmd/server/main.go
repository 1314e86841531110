// Package main is the entry point for the hornada API server.
package main

import (
	"context"
	"fmt"
	"net/http"
	"os"
	"os/signal"
	"syscall"
	"time"

	"hornada/internal/core/event"
	"hornada/internal/domain/advisor"
	"hornada/internal/domain/cash"
	"hornada/internal/domain/catalogs/material"
	"hornada/internal/domain/catalogs/recipe"
	"hornada/internal/domain/fulfillment"
	"hornada/internal/domain/ledger"
	"hornada/internal/domain/production"
	"hornada/internal/infrastructure/events"
	v1 "hornada/internal/infrastructure/http/v1"
	"hornada/internal/infrastructure/storage/postgres"
	"hornada/internal/infrastructure/storage/postgres/cash_repo"
	"hornada/internal/infrastructure/storage/postgres/catalog_repo"
	"hornada/internal/infrastructure/storage/postgres/ledger_repo"
	"hornada/internal/infrastructure/storage/postgres/production_repo"
	"hornada/internal/infrastructure/storage/postgres/sales_repo"
	"hornada/pkg/logger"
	"hornada/pkg/numerator"
)

func main() {
	log, err := logger.New(logger.Config{
		Level:       getEnv("LOG_LEVEL", "info"),
		Development: getEnv("APP_ENV", "development") == "development",
	})
	if err != nil {
		fmt.Printf("failed to initialize logger: %v\n", err)
		os.Exit(1)
	}

	ctx := logger.WithLogger(context.Background(), log)
	log.Info("starting hornada server")

	// --- Database ---
	poolCfg := postgres.DefaultPoolConfig(mustEnv("DATABASE_URL"))
	if maxConns := getEnvInt("DB_MAX_CONNS", 0); maxConns > 0 {
		poolCfg.MaxConns = int32(maxConns)
	}

	pool, err := postgres.NewPool(ctx, poolCfg)
	if err != nil {
		log.Fatalw("failed to connect to database", "error", err)
	}
	defer pool.Close()
	log.Info("database connection established")

	txManager := postgres.NewTxManager(pool)

	// Domain events go through the transactional outbox for durable delivery
	// (the worker relays them out of process) and through the in-process
	// dispatcher for immediate subscribers.
	dispatcher := events.NewDispatcher(getEnvInt("EVENT_QUEUE_SIZE", 256))
	dispatcher.Subscribe(event.TypeLowStock, func(ctx context.Context, ev event.Event) {
		logger.Warn(ctx, "material running low", "aggregate_id", ev.AggregateID, "payload", ev.Payload)
	})

	runCtx, stopDispatch := context.WithCancel(ctx)
	defer stopDispatch()
	go dispatcher.Run(runCtx)

	publisher := event.Fanout{postgres.NewOutboxPublisher(txManager), dispatcher}

	// Audit rows join the ambient transaction, so a conversion or session
	// close commits together with its audit trail.
	auditService, err := postgres.NewAuditService(txManager)
	if err != nil {
		log.Fatalw("failed to initialize audit service", "error", err)
	}

	// --- Repositories ---
	materialRepo := catalog_repo.NewMaterialRepo(txManager)
	productRepo := catalog_repo.NewProductRepo(txManager)
	recipeRepo := catalog_repo.NewRecipeRepo(txManager)
	ledgerRepo := ledger_repo.NewLedgerRepo(txManager)
	quoteRepo := sales_repo.NewQuoteRepo(txManager)
	orderRepo := sales_repo.NewOrderRepo(txManager)
	planRepo := production_repo.NewPlanRepo(txManager)
	batchRepo := production_repo.NewBatchRepo(txManager)
	cashRepo := cash_repo.NewCashRepo(txManager)

	// --- Services ---
	ledgerCfg := ledger.DefaultConfig()
	if ttl := getEnvDuration("RESERVATION_TTL", 0); ttl > 0 {
		ledgerCfg.ReservationTTL = ttl
	}
	ledgerService := ledger.NewService(ledgerRepo, txManager, publisher, ledgerCfg)

	materialService := material.NewService(materialRepo)
	recipeService := recipe.NewService(recipeRepo, txManager, auditService)

	numbers := numerator.New(pool, map[string]numerator.Config{
		"order": numerator.DefaultConfig("ORD"),
		"quote": numerator.DefaultConfig("QT"),
	})

	fulfillmentService := fulfillment.NewService(
		quoteRepo, orderRepo, planRepo,
		recipeService, ledgerService,
		txManager, numbers, publisher, auditService,
	)
	productionService := production.NewService(planRepo, batchRepo, recipeService, ledgerService, txManager)
	advisorService := advisor.NewService(planRepo, recipeService, ledgerService, advisor.DefaultConfig())
	cashService := cash.NewService(cashRepo, txManager, publisher, auditService)

	// --- Router ---
	router := v1.NewRouter(v1.RouterConfig{
		Pool:        pool.Pool,
		Logger:      log,
		Materials:   materialService,
		Products:    productRepo,
		Recipes:     recipeService,
		Ledger:      ledgerService,
		Quotes:      quoteRepo,
		Orders:      orderRepo,
		Fulfillment: fulfillmentService,
		Numbers:     numbers,
		Production:  productionService,
		Advisor:     advisorService,
		Cash:        cashService,
	})

	// --- HTTP Server ---
	port := getEnv("APP_PORT", "8080")
	server := &http.Server{
		Addr:         ":" + port,
		Handler:      router,
		ReadTimeout:  15 * time.Second,
		WriteTimeout: 30 * time.Second,
		IdleTimeout:  60 * time.Second,
	}

	go func() {
		log.Infow("server starting", "port", port)
		if err := server.ListenAndServe(); err != nil && err != http.ErrServerClosed {
			log.Fatalw("server failed", "error", err)
		}
	}()

	// --- Graceful shutdown ---
	quit := make(chan os.Signal, 1)
	signal.Notify(quit, syscall.SIGINT, syscall.SIGTERM)
	<-quit

	log.Info("shutting down server...")

	shutdownCtx, cancel := context.WithTimeout(context.Background(), 30*time.Second)
	defer cancel()

	if err := server.Shutdown(shutdownCtx); err != nil {
		log.Fatalw("server forced to shutdown", "error", err)
	}

	log.Info("server stopped")
}

func getEnv(key, defaultValue string) string {
	if value := os.Getenv(key); value != "" {
		return value
	}
	return defaultValue
}

func mustEnv(key string) string {
	value := os.Getenv(key)
	if value == "" {
		fmt.Printf("required environment variable %s not set\n", key)
		os.Exit(1)
	}
	return value
}

func getEnvInt(key string, defaultValue int) int {
	if value := os.Getenv(key); value != "" {
		var result int
		if _, err := fmt.Sscanf(value, "%d", &result); err == nil {
			return result
		}
	}
	return defaultValue
}

func getEnvDuration(key string, defaultValue time.Duration) time.Duration {
	if value := os.Getenv(key); value != "" {
		if d, err := time.ParseDuration(value); err == nil {
			return d
		}
	}
	return defaultValue
}
