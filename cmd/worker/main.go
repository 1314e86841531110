// Package main is the entry point for the hornada background worker.
// Sweeps expired stock reservations and relays outbox events.
package main

import (
	"context"
	"fmt"
	"os"
	"os/signal"
	"sync"
	"syscall"
	"time"

	"hornada/internal/domain/ledger"
	"hornada/internal/infrastructure/events"
	"hornada/internal/infrastructure/storage/postgres"
	"hornada/internal/infrastructure/storage/postgres/ledger_repo"
	"hornada/pkg/logger"
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

	ctx, cancel := context.WithCancel(logger.WithLogger(context.Background(), log))
	defer cancel()

	log.Info("starting hornada worker")

	pool, err := postgres.NewPool(ctx, postgres.DefaultPoolConfig(mustEnv("DATABASE_URL")))
	if err != nil {
		log.Fatalw("failed to connect to database", "error", err)
	}
	defer pool.Close()

	txManager := postgres.NewTxManager(pool)
	ledgerRepo := ledger_repo.NewLedgerRepo(txManager)
	ledgerService := ledger.NewService(ledgerRepo, txManager, nil, ledger.DefaultConfig())

	relay := postgres.NewOutboxRelay(pool.Pool, getEnvInt("OUTBOX_BATCH_SIZE", 100), events.LogHandler{})

	worker := &Worker{
		pool:          pool,
		ledger:        ledgerService,
		relay:         relay,
		sweepInterval: getEnvDuration("SWEEP_INTERVAL", time.Minute),
		relayInterval: getEnvDuration("RELAY_INTERVAL", 500*time.Millisecond),
		log:           log.WithComponent("worker"),
	}

	var wg sync.WaitGroup
	wg.Add(1)
	go func() {
		defer wg.Done()
		worker.Run(ctx)
	}()

	quit := make(chan os.Signal, 1)
	signal.Notify(quit, syscall.SIGINT, syscall.SIGTERM)
	<-quit

	log.Info("shutting down worker...")
	cancel()

	wg.Wait()
	log.Info("worker stopped")
}

// Worker runs the periodic maintenance loops.
type Worker struct {
	pool   *postgres.Pool
	ledger *ledger.Service
	relay  *postgres.OutboxRelay

	sweepInterval time.Duration
	relayInterval time.Duration

	log *logger.Logger
}

// Run loops until ctx is cancelled.
func (w *Worker) Run(ctx context.Context) {
	sweepTicker := time.NewTicker(w.sweepInterval)
	defer sweepTicker.Stop()

	relayTicker := time.NewTicker(w.relayInterval)
	defer relayTicker.Stop()

	statsTicker := time.NewTicker(10 * time.Minute)
	defer statsTicker.Stop()

	for {
		select {
		case <-ctx.Done():
			return

		case <-sweepTicker.C:
			if _, err := w.ledger.ExpireStale(ctx); err != nil {
				w.log.Errorw("reservation sweep failed", "error", err)
			}

		case <-relayTicker.C:
			if _, err := w.relay.ProcessBatch(ctx); err != nil {
				w.log.Errorw("outbox relay failed", "error", err)
			}

		case <-statsTicker.C:
			postgres.LogPoolStats(ctx, w.pool.Pool)
		}
	}
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
