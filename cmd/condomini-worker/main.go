package main

import (
	"context"
	"os"
	"os/signal"
	"syscall"

	"github.com/joho/godotenv"
	"golang.org/x/sync/errgroup"

	"condomini/internal/amqp"
	"condomini/internal/budget"
	"condomini/internal/config"
	"condomini/internal/ledger"
	"condomini/internal/log"
	"condomini/internal/scheduler"
	"condomini/internal/sheets"
	"condomini/internal/sheets/google"
	"condomini/internal/sheets/memory"
	"condomini/internal/storage"
)

// budgetPublisher forwards budget rebuild notifications onto the budget
// updates queue, where the export consumer picks them up.
type budgetPublisher struct {
	client *amqp.Client
	logger *log.Logger
}

func (p *budgetPublisher) BudgetUpdated(ctx context.Context, buildingID int64) {
	if err := p.client.PublishBudgetUpdated(ctx, buildingID); err != nil {
		p.logger.ErrorContext(ctx, "Failed to publish budget updated message",
			"building_id", buildingID, "error", err)
	}
}

func main() {
	// Load .env file for local development (ignore errors in production/docker)
	_ = godotenv.Load()

	logger := log.New(log.DefaultConfig())
	log.SetDefault(logger)

	ctx, stop := signal.NotifyContext(context.Background(), syscall.SIGINT, syscall.SIGTERM)
	defer stop()

	logger.InfoContext(ctx, "Starting condomini-worker")

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

	changeClient, err := amqp.NewClient(cfg.AMQPURL, cfg.AMQPExchange, cfg.AMQPChangeQueue)
	if err != nil {
		logger.ErrorContext(ctx, "Failed to initialize AMQP change client", "error", err)
		os.Exit(1)
	}
	defer changeClient.Close()

	budgetClient, err := amqp.NewClient(cfg.AMQPURL, cfg.AMQPExchange, cfg.AMQPBudgetQueue)
	if err != nil {
		logger.ErrorContext(ctx, "Failed to initialize AMQP budget client", "error", err)
		os.Exit(1)
	}
	defer budgetClient.Close()

	var exporter sheets.BudgetWriter
	if cfg.SheetsExportEnabled {
		exporter, err = google.NewFromEnv(ctx)
		if err != nil {
			logger.ErrorContext(ctx, "Failed to initialize Google Sheets exporter", "error", err)
			os.Exit(1)
		}
		logger.InfoContext(ctx, "Google Sheets budget export enabled", "spreadsheet", cfg.GoogleSpreadsheetID)
	} else {
		exporter = memory.New()
		logger.InfoContext(ctx, "Sheets export disabled, keeping budget reports in memory")
	}

	ledgerGen := ledger.NewGenerator(repo)
	budgetAgg := budget.NewAggregator(repo)
	coordinator := scheduler.NewCoordinator(
		ledgerGen,
		budgetAgg,
		repo,
		&budgetPublisher{
			client: budgetClient,
			logger: logger.With("queue", cfg.AMQPBudgetQueue).WithComponent(log.ComponentAMQP),
		},
		cfg.UpdateDelay,
		scheduler.RealClock(),
	)

	logger.InfoContext(ctx, "Update coordinator configured",
		"delay", cfg.UpdateDelay,
		"sqlite_db", cfg.SQLiteDBPath)

	group, ctx := errgroup.WithContext(ctx)

	group.Go(func() error {
		coordinator.Run(ctx)
		return ctx.Err()
	})

	group.Go(func() error {
		return changeClient.ConsumeChanges(ctx, func(msg *amqp.ChangeMessage) error {
			switch msg.Kind {
			case amqp.KindBill:
				coordinator.NotifyBillChanged(msg.ID)
			case amqp.KindResidence:
				coordinator.NotifyResidenceChanged(msg.ID)
			default:
				logger.WarnContext(ctx, "Unknown change kind, dropping", "kind", msg.Kind, "id", msg.ID)
			}
			return nil
		})
	})

	group.Go(func() error {
		return budgetClient.ConsumeBudgetUpdates(ctx, func(msg *amqp.BudgetUpdatedMessage) error {
			building, err := repo.GetBuilding(ctx, msg.BuildingID)
			if err != nil {
				return err
			}
			budgets, err := repo.ListBudgets(ctx, msg.BuildingID)
			if err != nil {
				return err
			}
			return exporter.WriteBudgets(ctx, building.Name, budgets)
		})
	})

	if err := group.Wait(); err != nil && ctx.Err() == nil {
		logger.ErrorContext(ctx, "Worker stopped with error", "error", err)
		os.Exit(1)
	}
	logger.InfoContext(ctx, "Condomini-worker shutdown complete")
}
