package infra

import (
	"fmt"
	"time"

	"github.com/caarlos0/env/v11"
)

// Outbox processing modes. Pipeline mode sweeps inside the API process after
// each write; poller mode leaves sweeping to the standalone outbox-sweeper.
const (
	OutboxModePipeline = "pipeline"
	OutboxModePoller   = "poller"
)

// Config holds all application configuration parsed from environment variables.
type Config struct {
	// Database
	DatabaseURL string `env:"DATABASE_URL"`
	PGHost      string `env:"PGHOST" envDefault:"localhost"`
	PGPort      int    `env:"PGPORT" envDefault:"5432"`
	PGUser      string `env:"PGUSER" envDefault:"vidmark"`
	PGPassword  string `env:"PGPASSWORD" envDefault:"vidmark"`
	PGDatabase  string `env:"PGDATABASE" envDefault:"vidmark"`

	// JWT
	JWTSecret      string `env:"JWT_SECRET" envDefault:"change-me-in-production"`
	JWTUserExpiry  string `env:"JWT_USER_EXPIRY" envDefault:"24h"`
	JWTAdminExpiry string `env:"JWT_ADMIN_EXPIRY" envDefault:"8h"`

	// Server
	APIPort int `env:"API_PORT" envDefault:"3200"`

	// Outbox
	OutboxProcessingMode  string        `env:"OUTBOX_PROCESSING_MODE" envDefault:"pipeline"`
	OutboxPollInterval    time.Duration `env:"OUTBOX_POLL_INTERVAL" envDefault:"2s"`
	OutboxBatchSize       int           `env:"OUTBOX_BATCH_SIZE" envDefault:"100"`
	OutboxDispatchTimeout time.Duration `env:"OUTBOX_DISPATCH_TIMEOUT" envDefault:"5s"`

	// Kafka relay for published typed events
	KafkaBrokers string `env:"KAFKA_BROKERS" envDefault:"localhost:9092"`
	KafkaEnabled bool   `env:"KAFKA_ENABLED" envDefault:"false"`

	// Reports
	ReportsRootDirectory string `env:"REPORTS_ROOT_DIRECTORY" envDefault:"reports"`

	// CORS
	CORSAllowedOrigins string `env:"CORS_ALLOWED_ORIGINS" envDefault:"*"`

	// Dev
	AllowInsecureDefaults bool `env:"ALLOW_INSECURE_DEFAULTS" envDefault:"false"`
}

// LoadConfig parses environment variables into a Config struct.
func LoadConfig() (*Config, error) {
	cfg := &Config{}
	if err := env.Parse(cfg); err != nil {
		return nil, fmt.Errorf("parse config: %w", err)
	}
	return cfg, nil
}

// Validate checks for insecure or inconsistent configuration.
// Set ALLOW_INSECURE_DEFAULTS=true to bypass the secret checks (local dev only).
func (c *Config) Validate() error {
	if c.OutboxProcessingMode != OutboxModePipeline && c.OutboxProcessingMode != OutboxModePoller {
		return fmt.Errorf("OUTBOX_PROCESSING_MODE must be %q or %q, got %q",
			OutboxModePipeline, OutboxModePoller, c.OutboxProcessingMode)
	}
	if c.AllowInsecureDefaults {
		return nil
	}
	if c.JWTSecret == "change-me-in-production" {
		return fmt.Errorf("JWT_SECRET is set to the insecure default; set a strong secret or set ALLOW_INSECURE_DEFAULTS=true for local dev")
	}
	if len(c.JWTSecret) < 32 {
		return fmt.Errorf("JWT_SECRET is too short (%d chars); minimum 32 characters required", len(c.JWTSecret))
	}
	return nil
}

// DSN returns the PostgreSQL connection string, preferring DATABASE_URL if set.
func (c *Config) DSN() string {
	if c.DatabaseURL != "" {
		return c.DatabaseURL
	}
	return fmt.Sprintf("postgres://%s:%s@%s:%d/%s?sslmode=disable",
		c.PGUser, c.PGPassword, c.PGHost, c.PGPort, c.PGDatabase)
}
