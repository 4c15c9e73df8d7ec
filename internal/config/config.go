package config

import (
	"fmt"
	"strings"
	"time"

	"github.com/caarlos0/env/v10"
)

// Config holds the environment driven configuration for the catalog service.
type Config struct {
	// Service Configuration
	ServiceName     string        `env:"SERVICE_NAME" envDefault:"catalog-api"`
	Environment     string        `env:"ENVIRONMENT" envDefault:"development"`
	HTTPPort        int           `env:"CATALOG_API_PORT" envDefault:"8288"`
	LogLevel        string        `env:"CATALOG_LOG_LEVEL" envDefault:"info"`
	EnableTracing   bool          `env:"ENABLE_TRACING" envDefault:"false"`
	OTLPEndpoint    string        `env:"OTEL_EXPORTER_OTLP_ENDPOINT" envDefault:""`
	ShutdownTimeout time.Duration `env:"SHUTDOWN_TIMEOUT" envDefault:"10s"`

	// Database (required, no default)
	DatabaseURL string `env:"DB_POSTGRESQL_DSN,notEmpty"`

	// Database Connection Pool
	DBMaxIdleConns int           `env:"DB_MAX_IDLE_CONNS" envDefault:"5"`
	DBMaxOpenConns int           `env:"DB_MAX_OPEN_CONNS" envDefault:"15"`
	DBConnLifetime time.Duration `env:"DB_CONN_MAX_LIFETIME" envDefault:"30m"`

	// Redis cache
	RedisURL        string        `env:"REDIS_URL" envDefault:"redis://localhost:6379/0"`
	CatalogCacheTTL time.Duration `env:"CATALOG_CACHE_TTL" envDefault:"10m"`
	SyncLockTTL     time.Duration `env:"SYNC_LOCK_TTL" envDefault:"5m"`

	// Upstream fetch behavior
	FetchMaxAttempts int           `env:"SOURCE_FETCH_MAX_ATTEMPTS" envDefault:"3"`
	FetchRetryDelay  time.Duration `env:"SOURCE_FETCH_RETRY_DELAY" envDefault:"1s"`
	FetchTimeout     time.Duration `env:"SOURCE_FETCH_TIMEOUT" envDefault:"15s"`

	// Upstream source endpoints
	ModelsDevURL   string `env:"SOURCE_MODELS_DEV_URL" envDefault:"https://models.dev/api.json"`
	OpenRouterURL  string `env:"SOURCE_OPENROUTER_URL" envDefault:"https://openrouter.ai/api/v1/models"`
	HuggingFaceURL string `env:"SOURCE_HUGGINGFACE_URL" envDefault:"https://huggingface.co/api/models?pipeline_tag=text-generation&sort=likes&limit=100"`
	BenchmarkURL   string `env:"SOURCE_BENCHMARK_URL" envDefault:""`

	// Sync scheduling
	SyncEnabled         bool `env:"MODEL_SYNC_ENABLED" envDefault:"true"`
	SyncIntervalMinutes int  `env:"MODEL_SYNC_INTERVAL_MINUTES" envDefault:"60"`

	// Evaluation limits
	EvaluationLimitCeiling int `env:"EVALUATION_LIMIT_CEILING" envDefault:"500"`
}

// Load parses environment variables into Config.
func Load() (*Config, error) {
	cfg := &Config{}
	if err := env.Parse(cfg); err != nil {
		return nil, fmt.Errorf("parse env config: %w", err)
	}

	cfg.RedisURL = strings.TrimSpace(cfg.RedisURL)
	if cfg.FetchMaxAttempts <= 0 {
		cfg.FetchMaxAttempts = 3
	}
	if cfg.EvaluationLimitCeiling <= 0 {
		cfg.EvaluationLimitCeiling = 500
	}
	return cfg, nil
}

// Addr returns the HTTP listen address.
func (c *Config) Addr() string {
	return fmt.Sprintf(":%d", c.HTTPPort)
}
