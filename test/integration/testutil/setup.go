//go:build integration

package testutil

import (
	"context"
	"fmt"
	"log/slog"
	"net/http/httptest"
	"os"
	"path/filepath"
	"sync"
	"testing"
	"time"

	"github.com/golang-migrate/migrate/v4"
	_ "github.com/golang-migrate/migrate/v4/database/postgres"
	_ "github.com/golang-migrate/migrate/v4/source/file"
	"github.com/jackc/pgx/v5/pgxpool"
	"github.com/vidmark/platform/internal/app"
	"github.com/vidmark/platform/internal/auth"
	"github.com/vidmark/platform/internal/notify"
	"github.com/vidmark/platform/internal/outbox"
	"github.com/vidmark/platform/internal/repository"
)

const (
	TestJWTSecret = "integration-test-secret"
	TestDBHost    = "localhost"
	TestDBPort    = 5435
	TestDBUser    = "vidmark"
	TestDBPass    = "vidmark"
	TestDBName    = "vidmark_test"
)

// TestEnv holds all resources for an integration test.
type TestEnv struct {
	Server  *httptest.Server
	Pool    *pgxpool.Pool
	JWTMgr  *auth.JWTManager
	Hub     *notify.Hub
	Sweeper *outbox.Sweeper
	t       *testing.T
}

var (
	sharedPool *pgxpool.Pool
	poolOnce   sync.Once
	poolErr    error
)

func testDSN() string {
	return fmt.Sprintf("postgres://%s:%s@%s:%d/%s?sslmode=disable",
		TestDBUser, TestDBPass, TestDBHost, TestDBPort, TestDBName)
}

func bootstrapDSN() string {
	return fmt.Sprintf("postgres://%s:%s@%s:%d/%s?sslmode=disable",
		TestDBUser, TestDBPass, TestDBHost, TestDBPort, "vidmark")
}

func ensureTestDB() error {
	ctx, cancel := context.WithTimeout(context.Background(), 10*time.Second)
	defer cancel()

	bPool, err := pgxpool.New(ctx, bootstrapDSN())
	if err != nil {
		return fmt.Errorf("connect bootstrap db: %w", err)
	}
	defer bPool.Close()

	var exists bool
	err = bPool.QueryRow(ctx,
		"SELECT EXISTS(SELECT 1 FROM pg_database WHERE datname = $1)", TestDBName).Scan(&exists)
	if err != nil {
		return fmt.Errorf("check db exists: %w", err)
	}

	if !exists {
		_, err = bPool.Exec(ctx, fmt.Sprintf("CREATE DATABASE %s", TestDBName))
		if err != nil {
			return fmt.Errorf("create test db: %w", err)
		}
	}

	return nil
}

func runMigrations() error {
	sourceURL := fmt.Sprintf("file://%s/db/migrations", findProjectRoot())

	m, err := migrate.New(sourceURL, testDSN())
	if err != nil {
		return fmt.Errorf("create migrator: %w", err)
	}
	defer m.Close()

	if err := m.Up(); err != nil && err != migrate.ErrNoChange {
		return fmt.Errorf("migrate up: %w", err)
	}
	return nil
}

func findProjectRoot() string {
	dir, _ := os.Getwd()
	for {
		if _, err := os.Stat(filepath.Join(dir, "go.mod")); err == nil {
			return dir
		}
		parent := filepath.Dir(dir)
		if parent == dir {
			return "."
		}
		dir = parent
	}
}

func getSharedPool(t *testing.T) *pgxpool.Pool {
	t.Helper()
	poolOnce.Do(func() {
		if err := ensureTestDB(); err != nil {
			poolErr = err
			return
		}

		ctx, cancel := context.WithTimeout(context.Background(), 10*time.Second)
		defer cancel()

		poolCfg, err := pgxpool.ParseConfig(testDSN())
		if err != nil {
			poolErr = fmt.Errorf("parse pool config: %w", err)
			return
		}
		poolCfg.MaxConns = 10
		poolCfg.MinConns = 1

		sharedPool, err = pgxpool.NewWithConfig(ctx, poolCfg)
		if err != nil {
			poolErr = fmt.Errorf("create pool: %w", err)
			return
		}

		if err := runMigrations(); err != nil {
			poolErr = fmt.Errorf("run migrations: %w", err)
			sharedPool.Close()
			sharedPool = nil
			return
		}
	})

	if poolErr != nil {
		t.Fatalf("failed to initialize test pool: %v", poolErr)
	}
	return sharedPool
}

// NewTestEnv creates a test environment with an httptest.Server backed by the
// real router and test DB, running the outbox in pipeline mode.
func NewTestEnv(t *testing.T) *TestEnv {
	t.Helper()

	pool := getSharedPool(t)

	jwtMgr := auth.NewJWTManager(TestJWTSecret, 24*time.Hour, 8*time.Hour)
	logger := slog.New(slog.NewTextHandler(os.Stderr, &slog.HandlerOptions{Level: slog.LevelError}))

	hub := notify.NewHub(logger)
	registry := outbox.NewRegistry()
	if err := outbox.RegisterDefaultRoutes(registry, hub); err != nil {
		t.Fatalf("register event routes: %v", err)
	}

	eventRepo := repository.NewEventRepository()
	store := outbox.NewPgEventStore(pool, eventRepo)
	sweeper := outbox.NewSweeper(store, registry, hub, repository.NewNotificationRepository(), logger)
	trigger := outbox.NewTrigger(sweeper, logger)

	ctx, cancel := context.WithCancel(context.Background())
	go trigger.Run(ctx)

	router := app.NewRouter(app.RouterDeps{
		Pool:        pool,
		JWTMgr:      jwtMgr,
		Logger:      logger,
		Hub:         hub,
		Sweeper:     sweeper,
		Trigger:     trigger,
		ReportsRoot: t.TempDir(),
		CORSOrigin:  "*",
	})

	server := httptest.NewServer(router)

	env := &TestEnv{
		Server:  server,
		Pool:    pool,
		JWTMgr:  jwtMgr,
		Hub:     hub,
		Sweeper: sweeper,
		t:       t,
	}

	t.Cleanup(func() {
		cancel()
		server.Close()
		env.CleanAll()
	})

	// Clean before test to ensure isolation
	env.CleanAll()

	return env
}

// CleanAll truncates every table the tests write to.
func (env *TestEnv) CleanAll() {
	env.t.Helper()
	ctx, cancel := context.WithTimeout(context.Background(), 10*time.Second)
	defer cancel()

	_, err := env.Pool.Exec(ctx, `
		TRUNCATE domain_events, notifications, generated_reports, subjects, projects
		RESTART IDENTITY CASCADE`)
	if err != nil {
		env.t.Fatalf("CleanAll: %v", err)
	}
}
