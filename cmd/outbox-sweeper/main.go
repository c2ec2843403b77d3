package main

import (
	"context"
	"fmt"
	"log/slog"
	"os"
	"os/signal"
	"syscall"

	"github.com/vidmark/platform/internal/infra"
	"github.com/vidmark/platform/internal/notify"
	"github.com/vidmark/platform/internal/outbox"
	"github.com/vidmark/platform/internal/repository"
)

// outbox-sweeper is the standalone fallback publisher: it polls domain_events
// on a fixed interval and dispatches anything left pending. Run it alongside
// the API in poller mode, or as the recovery net behind pipeline mode.
func main() {
	logger := slog.New(slog.NewJSONHandler(os.Stdout, &slog.HandlerOptions{Level: slog.LevelInfo}))
	slog.SetDefault(logger)

	if err := run(logger); err != nil {
		logger.Error("outbox sweeper failed", "error", err)
		os.Exit(1)
	}
}

func run(logger *slog.Logger) error {
	ctx, stop := signal.NotifyContext(context.Background(), syscall.SIGINT, syscall.SIGTERM)
	defer stop()

	cfg, err := infra.LoadConfig()
	if err != nil {
		return fmt.Errorf("load config: %w", err)
	}

	pool, err := infra.NewPostgresPool(ctx, cfg)
	if err != nil {
		return fmt.Errorf("connect postgres: %w", err)
	}
	defer pool.Close()
	logger.Info("outbox-sweeper connected to postgres")

	// This process has no live push connections; hub sends fall through to
	// the notifications table, which clients read on reconnect.
	hub := notify.NewHub(logger)
	registry := outbox.NewRegistry()
	if err := outbox.RegisterDefaultRoutes(registry, hub); err != nil {
		return fmt.Errorf("register event routes: %w", err)
	}

	producer := infra.NewKafkaProducer(cfg.KafkaBrokers, cfg.KafkaEnabled, logger)
	defer producer.Close()

	store := outbox.NewPgEventStore(pool, repository.NewEventRepository())
	sweeper := outbox.NewSweeper(
		store,
		registry,
		hub,
		repository.NewNotificationRepository(),
		logger,
		outbox.WithBatchSize(cfg.OutboxBatchSize),
		outbox.WithDispatchTimeout(cfg.OutboxDispatchTimeout),
		outbox.WithRelay(infra.NewEventRelay(producer)),
	)

	poller := outbox.NewPoller(sweeper, cfg.OutboxPollInterval, logger)
	poller.Run(ctx)
	return nil
}
