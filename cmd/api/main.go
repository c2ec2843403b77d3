package main

import (
	"context"
	"fmt"
	"log/slog"
	"net/http"
	"os"
	"os/signal"
	"syscall"
	"time"

	"github.com/vidmark/platform/internal/app"
	"github.com/vidmark/platform/internal/auth"
	"github.com/vidmark/platform/internal/infra"
	"github.com/vidmark/platform/internal/notify"
	"github.com/vidmark/platform/internal/outbox"
	"github.com/vidmark/platform/internal/repository"
)

func main() {
	logger := slog.New(slog.NewJSONHandler(os.Stdout, &slog.HandlerOptions{Level: slog.LevelInfo}))
	slog.SetDefault(logger)

	if err := run(logger); err != nil {
		logger.Error("server failed", "error", err)
		os.Exit(1)
	}
}

func run(logger *slog.Logger) error {
	ctx, stop := signal.NotifyContext(context.Background(), syscall.SIGINT, syscall.SIGTERM)
	defer stop()

	// Load config
	cfg, err := infra.LoadConfig()
	if err != nil {
		return fmt.Errorf("load config: %w", err)
	}
	if err := cfg.Validate(); err != nil {
		return fmt.Errorf("validate config: %w", err)
	}

	// Migrations
	if err := infra.RunMigrations(cfg.DSN(), logger); err != nil {
		return fmt.Errorf("run migrations: %w", err)
	}

	// Connect to Postgres
	pool, err := infra.NewPostgresPool(ctx, cfg)
	if err != nil {
		return fmt.Errorf("connect postgres: %w", err)
	}
	defer pool.Close()
	logger.Info("connected to postgres")

	// Parse JWT expiry durations
	userExpiry, err := time.ParseDuration(cfg.JWTUserExpiry)
	if err != nil {
		return fmt.Errorf("parse user JWT expiry: %w", err)
	}
	adminExpiry, err := time.ParseDuration(cfg.JWTAdminExpiry)
	if err != nil {
		return fmt.Errorf("parse admin JWT expiry: %w", err)
	}
	jwtMgr := auth.NewJWTManager(cfg.JWTSecret, userExpiry, adminExpiry)

	// Push hub and typed-event routes
	hub := notify.NewHub(logger)
	registry := outbox.NewRegistry()
	if err := outbox.RegisterDefaultRoutes(registry, hub); err != nil {
		return fmt.Errorf("register event routes: %w", err)
	}

	// Kafka relay for published typed events
	producer := infra.NewKafkaProducer(cfg.KafkaBrokers, cfg.KafkaEnabled, logger)
	defer producer.Close()

	// Outbox sweeper
	eventRepo := repository.NewEventRepository()
	store := outbox.NewPgEventStore(pool, eventRepo)
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

	// In pipeline mode the API process dispatches events itself, right after
	// each commit plus a kick-driven fallback loop. In poller mode the
	// standalone outbox-sweeper owns dispatch.
	var trigger *outbox.Trigger
	if cfg.OutboxProcessingMode == infra.OutboxModePipeline {
		trigger = outbox.NewTrigger(sweeper, logger)
		go trigger.Run(ctx)
		logger.Info("outbox pipeline mode: in-process dispatch enabled")
	} else {
		logger.Info("outbox poller mode: dispatch deferred to outbox-sweeper")
	}

	r := app.NewRouter(app.RouterDeps{
		Pool:        pool,
		JWTMgr:      jwtMgr,
		Logger:      logger,
		Hub:         hub,
		Sweeper:     sweeper,
		Trigger:     trigger,
		ReportsRoot: cfg.ReportsRootDirectory,
		CORSOrigin:  cfg.CORSAllowedOrigins,
	})

	// Start server
	addr := fmt.Sprintf(":%d", cfg.APIPort)
	srv := &http.Server{
		Addr:        addr,
		Handler:     r,
		ReadTimeout: 15 * time.Second,
		// No WriteTimeout: /notifications/stream holds its connection open.
		IdleTimeout: 60 * time.Second,
	}

	// Graceful shutdown
	errCh := make(chan error, 1)
	go func() {
		logger.Info("api server starting", "addr", addr, "outbox_mode", cfg.OutboxProcessingMode)
		if err := srv.ListenAndServe(); err != nil && err != http.ErrServerClosed {
			errCh <- err
		}
	}()

	select {
	case <-ctx.Done():
		logger.Info("shutdown signal received")
	case err := <-errCh:
		return fmt.Errorf("server error: %w", err)
	}

	// Shutdown with timeout
	shutdownCtx, cancel := context.WithTimeout(context.Background(), 10*time.Second)
	defer cancel()

	if err := srv.Shutdown(shutdownCtx); err != nil {
		return fmt.Errorf("graceful shutdown failed: %w", err)
	}
	hub.Shutdown(shutdownCtx)

	logger.Info("server stopped gracefully")
	return nil
}
