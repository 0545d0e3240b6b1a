// Package config provides environment-based configuration loading for the
// dispatch core and its admin HTTP surface.
package config

import (
	"fmt"
	"strings"
	"time"

	"github.com/kelseyhightower/envconfig"
)

// Config holds every dispatch tuning knob, plus database DSN pieces and
// observability toggles. Required fields cause startup failure if unset.
type Config struct {
	// Required - database connection string for the event store.
	DatabaseURL string `envconfig:"DATABASE_URL" required:"true"`

	DBPoolMaxConns int32 `envconfig:"DB_POOL_MAX_CONNS" default:"10"`
	DBPoolMinConns int32 `envconfig:"DB_POOL_MIN_CONNS" default:"2"`

	LogLevel    string `envconfig:"LOG_LEVEL" default:"info"`
	Env         string `envconfig:"ENV" default:"development"`
	ServiceName string `envconfig:"SERVICE_NAME" default:"reflex-dispatch"`

	// Dispatch loop knobs.
	MaxAttempts              int     `envconfig:"MAX_ATTEMPTS" default:"3"`
	RetryBaseDelaySeconds    float64 `envconfig:"RETRY_BASE_DELAY_SECONDS" default:"1"`
	RetryMaxDelaySeconds     float64 `envconfig:"RETRY_MAX_DELAY_SECONDS" default:"60"`
	MaxConcurrent            int     `envconfig:"MAX_CONCURRENT" default:"10"`
	ClaimBatchSize           int     `envconfig:"CLAIM_BATCH_SIZE" default:"100"`
	NotifyPollTimeoutSeconds int     `envconfig:"NOTIFY_POLL_TIMEOUT_SECONDS" default:"5"`

	// LockBackend selects the scoped lock manager: "local" (single process)
	// or "distributed" (postgres advisory locks, safe across replicas).
	LockBackend string `envconfig:"LOCK_BACKEND" default:"local"`

	// Admin HTTP surface.
	AdminPort         int    `envconfig:"ADMIN_PORT" default:"8080"`
	ProblemBaseURL    string `envconfig:"PROBLEM_BASE_URL" default:"https://dispatch.example.com/problems/"`
	AdminRateLimitRPS int    `envconfig:"ADMIN_RATE_LIMIT_RPS" default:"50"`

	// JWT auth guarding admin mutation endpoints.
	JWTEnabled  bool   `envconfig:"JWT_ENABLED" default:"false"`
	JWTSecret   string `envconfig:"JWT_SECRET"`
	JWTIssuer   string `envconfig:"JWT_ISSUER"`
	JWTAudience string `envconfig:"JWT_AUDIENCE"`

	// OpenTelemetry.
	OTELEnabled          bool   `envconfig:"OTEL_ENABLED" default:"false"`
	OTELExporterEndpoint string `envconfig:"OTEL_EXPORTER_OTLP_ENDPOINT"`
	OTELExporterInsecure bool   `envconfig:"OTEL_EXPORTER_OTLP_INSECURE" default:"false"`

	// Server timeouts.
	HTTPReadTimeout  time.Duration `envconfig:"HTTP_READ_TIMEOUT" default:"15s"`
	HTTPWriteTimeout time.Duration `envconfig:"HTTP_WRITE_TIMEOUT" default:"15s"`
	ShutdownTimeout  time.Duration `envconfig:"SHUTDOWN_TIMEOUT" default:"30s"`

	// Resilience - circuit breaker settings. These are loaded and exposed
	// here but not passed to the event store, whose breaker always uses
	// resilience.DefaultCircuitBreakerConfig (the same values as these
	// defaults).
	CBMaxRequests      int           `envconfig:"CB_MAX_REQUESTS" default:"3"`
	CBInterval         time.Duration `envconfig:"CB_INTERVAL" default:"10s"`
	CBTimeout          time.Duration `envconfig:"CB_TIMEOUT" default:"30s"`
	CBFailureThreshold int           `envconfig:"CB_FAILURE_THRESHOLD" default:"5"`
}

// Redacted returns a safe string representation of Config for logging.
func (c *Config) Redacted() string {
	safe := *c
	safe.DatabaseURL = "[REDACTED]"
	safe.JWTSecret = "[REDACTED]"
	return fmt.Sprintf("%+v", safe)
}

// Load reads configuration from environment variables and validates it.
func Load() (*Config, error) {
	const op = "config.Load"

	var cfg Config
	if err := envconfig.Process("", &cfg); err != nil {
		return nil, fmt.Errorf("%s: %w", op, err)
	}
	if err := cfg.Validate(); err != nil {
		return nil, fmt.Errorf("%s: %w", op, err)
	}
	return &cfg, nil
}

// Validate normalizes string fields and rejects inconsistent combinations.
func (c *Config) Validate() error {
	if strings.TrimSpace(c.DatabaseURL) == "" {
		return fmt.Errorf("DATABASE_URL is required and cannot be empty")
	}

	c.LogLevel = strings.ToLower(strings.TrimSpace(c.LogLevel))
	switch c.LogLevel {
	case "debug", "info", "warn", "error":
	default:
		return fmt.Errorf("invalid LOG_LEVEL: must be one of debug, info, warn, error")
	}

	c.Env = strings.ToLower(strings.TrimSpace(c.Env))
	switch c.Env {
	case "development", "staging", "production", "test":
	default:
		return fmt.Errorf("invalid ENV: must be one of development, staging, production, test")
	}

	if strings.TrimSpace(c.ServiceName) == "" {
		return fmt.Errorf("invalid SERVICE_NAME: must not be empty")
	}

	c.LockBackend = strings.ToLower(strings.TrimSpace(c.LockBackend))
	switch c.LockBackend {
	case "local", "distributed":
	default:
		return fmt.Errorf("invalid LOCK_BACKEND: must be 'local' or 'distributed'")
	}

	if c.MaxAttempts < 1 {
		return fmt.Errorf("invalid MAX_ATTEMPTS: must be greater than 0")
	}
	if c.MaxConcurrent < 1 {
		return fmt.Errorf("invalid MAX_CONCURRENT: must be greater than 0")
	}
	if c.ClaimBatchSize < 1 {
		return fmt.Errorf("invalid CLAIM_BATCH_SIZE: must be greater than 0")
	}
	if c.RetryBaseDelaySeconds <= 0 || c.RetryMaxDelaySeconds <= 0 {
		return fmt.Errorf("invalid retry delay configuration: base and max must be greater than 0")
	}
	if c.RetryBaseDelaySeconds > c.RetryMaxDelaySeconds {
		return fmt.Errorf("invalid retry delay configuration: RETRY_BASE_DELAY_SECONDS must not exceed RETRY_MAX_DELAY_SECONDS")
	}

	if c.OTELEnabled && strings.TrimSpace(c.OTELExporterEndpoint) == "" {
		return fmt.Errorf("OTEL_ENABLED is true but OTEL_EXPORTER_OTLP_ENDPOINT is empty")
	}

	if c.AdminPort < 0 || c.AdminPort > 65535 {
		return fmt.Errorf("invalid ADMIN_PORT: must be between 0 and 65535")
	}
	if c.AdminRateLimitRPS < 1 {
		return fmt.Errorf("invalid ADMIN_RATE_LIMIT_RPS: must be greater than 0")
	}

	if c.JWTEnabled {
		if c.JWTSecret == "" {
			return fmt.Errorf("JWT_ENABLED is true but JWT_SECRET is empty")
		}
		if len(c.JWTSecret) < 32 {
			return fmt.Errorf("JWT_SECRET must be at least 32 bytes when JWT_ENABLED is true")
		}
	}

	return nil
}
