package main

import (
	"context"
	"log"
	"os"
	"os/signal"
	"syscall"

	"github.com/unclebandit/groundzero-backend/internal/config"
	"github.com/unclebandit/groundzero-backend/internal/db"
	"github.com/unclebandit/groundzero-backend/internal/logger"
	"github.com/unclebandit/groundzero-backend/internal/queue"
	"github.com/unclebandit/groundzero-backend/internal/repository"
	"github.com/unclebandit/groundzero-backend/internal/service"
)

// The worker consumes campaign.finalized events from RabbitMQ and repairs
// campaign counts that the dispatch could not write. A periodic sweep
// catches anything whose event was lost.
func main() {
	cfg, err := config.Load()
	if err != nil {
		log.Fatal("❌ failed to load config:", err)
	}
	appLog := logger.NewStructured(cfg.Logging.Level, cfg.Logging.Format).
		WithFields(map[string]interface{}{"app": cfg.App.Name, "component": "worker"})

	ctx, stop := signal.NotifyContext(context.Background(), os.Interrupt, syscall.SIGTERM)
	defer stop()

	if err := run(ctx, cfg, appLog); err != nil {
		appLog.Error("❌ worker exited", map[string]interface{}{"error": err})
		os.Exit(1)
	}
}

func run(ctx context.Context, cfg *config.Config, appLog logger.Logger) error {
	sqlDB, err := db.Open(ctx, cfg.Database, appLog)
	if err != nil {
		return err
	}
	defer sqlDB.Close()

	reconciler := &service.ReconcileService{
		CampaignRepo: &repository.CampaignRepository{DB: sqlDB},
		SendRepo:     &repository.SendRepository{DB: sqlDB},
		Log:          appLog,
		StaleAfter:   cfg.Worker.StaleAfter,
	}

	if cfg.Queue.AMQPURL != "" {
		q, err := queue.DialAMQP(cfg.Queue.AMQPURL, cfg.Queue.Name, appLog)
		if err != nil {
			return err
		}
		defer q.Close()
		if err := queue.OnCampaignFinalized(ctx, q, reconciler.HandleFinalized); err != nil {
			return err
		}
		appLog.Info("👂 consuming campaign events", map[string]interface{}{"queue": cfg.Queue.Name})
	} else {
		appLog.Warn("⚠️ no AMQP URL configured, running the sweep only", nil)
	}

	worker := service.NewWorker(reconciler, cfg.Worker.SweepInterval, cfg.Worker.SweepLimit, appLog)
	appLog.Info("Worker running", map[string]interface{}{"sweep_interval": cfg.Worker.SweepInterval.String()})
	worker.Start(ctx)
	return nil
}
