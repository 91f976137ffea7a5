package main

import (
	"context"
	"errors"
	"os"
	"os/signal"
	"syscall"

	"github.com/joho/godotenv"

	"condomini/internal/config"
	"condomini/internal/ledger"
	"condomini/internal/log"
	"condomini/internal/storage"
	"condomini/internal/worker"
)

func main() {
	// Load .env file for local development (ignore errors in production/docker)
	_ = godotenv.Load()

	logCfg := log.DefaultConfig()
	logCfg.Component = log.ComponentWorker
	logger := log.New(logCfg)
	log.SetDefault(logger)

	ctx, stop := signal.NotifyContext(context.Background(), syscall.SIGINT, syscall.SIGTERM)
	defer stop()

	logger.InfoContext(ctx, "Starting projection-worker")

	cfg := config.Load()
	if err := cfg.Validate(); err != nil {
		logger.ErrorContext(ctx, "Configuration validation failed", "error", err)
		os.Exit(1)
	}

	repo, err := storage.NewSQLiteRepository(cfg.SQLiteDBPath)
	if err != nil {
		logger.ErrorContext(ctx, "Failed to initialize SQLite repository", "error", err, "path", cfg.SQLiteDBPath)
		os.Exit(1)
	}
	defer repo.Close()

	runner := worker.NewRunner(ledger.NewGenerator(repo), worker.RunnerConfig{
		Enabled:     cfg.DailyJobEnabled,
		Interval:    cfg.DailyJobInterval,
		MaxAttempts: cfg.DailyMaxAttempts,
		RetryDelay:  cfg.DailyRetryDelay,
	})

	logger.InfoContext(ctx, "Daily projection job configured",
		"enabled", cfg.DailyJobEnabled,
		"interval", cfg.DailyJobInterval,
		"sqlite_db", cfg.SQLiteDBPath)

	if err := runner.Start(ctx); err != nil && !errors.Is(err, context.Canceled) {
		logger.ErrorContext(ctx, "Projection runner stopped with error", "error", err)
		os.Exit(1)
	}
	logger.InfoContext(ctx, "Projection-worker shutdown complete")
}
