// Package config provides application configuration management.
// Configuration is loaded from environment variables following 12-factor principles.
package config

import (
	"errors"
	"fmt"
	"strings"
	"time"

	"github.com/caarlos0/env/v10"
)

// Config holds all application configuration.
// All fields are populated from environment variables.
type Config struct {
	// Application settings
	AppEnv  string `env:"APP_ENV" envDefault:"development"`
	AppPort int    `env:"APP_PORT" envDefault:"8080"`

	// Database (PostgreSQL)
	DatabaseURL      string `env:"DATABASE_URL,required,notEmpty"`
	MigrateOnStart   bool   `env:"MIGRATE_ON_START" envDefault:"false"`
	DatabaseMaxConns int32  `env:"DB_MAX_CONNS" envDefault:"10"`
	DatabaseMinConns int32  `env:"DB_MIN_CONNS" envDefault:"2"`

	// Cache and sessions (Redis)
	RedisURL          string `env:"REDIS_URL,required,notEmpty"`
	RedisPoolSize     int    `env:"REDIS_POOL_SIZE" envDefault:"20"`
	RedisMinIdleConns int    `env:"REDIS_MIN_IDLE_CONNS" envDefault:"2"`

	// Public base URL used to build file preview and avatar URLs.
	BaseURL string `env:"BASE_URL" envDefault:"http://localhost:8080"`

	// Object storage (S3-compatible, e.g. MinIO)
	StorageEndpoint  string `env:"STORAGE_ENDPOINT" envDefault:"localhost:9000"`
	StorageAccessKey string `env:"STORAGE_ACCESS_KEY" envDefault:"pictora"`
	StorageSecretKey string `env:"STORAGE_SECRET_KEY" envDefault:"pictoraminio"`
	StorageRegion    string `env:"STORAGE_REGION" envDefault:"us-east-1"`
	StorageUseSSL    bool   `env:"STORAGE_USE_SSL" envDefault:"false"`
	StorageBucket    string `env:"STORAGE_BUCKET" envDefault:"pictora-media"`

	// Logging
	LogLevel  string `env:"LOG_LEVEL" envDefault:"info"`
	LogFormat string `env:"LOG_FORMAT" envDefault:"json"`

	// Server timeouts
	ReadTimeout     time.Duration `env:"READ_TIMEOUT" envDefault:"15s"`
	WriteTimeout    time.Duration `env:"WRITE_TIMEOUT" envDefault:"30s"`
	IdleTimeout     time.Duration `env:"IDLE_TIMEOUT" envDefault:"60s"`
	ShutdownTimeout time.Duration `env:"SHUTDOWN_TIMEOUT" envDefault:"30s"`

	// Sessions
	SessionTTL time.Duration `env:"SESSION_TTL" envDefault:"720h"`
	// Domain attribute of the session cookie; empty means host-only.
	CookieDomain string `env:"COOKIE_DOMAIN" envDefault:""`

	// Activity stream consumer (Redis stream -> activity_events table)
	ActivityConsumerEnabled bool `env:"ACTIVITY_CONSUMER_ENABLED" envDefault:"true"`
	ActivityBatchSize       int  `env:"ACTIVITY_BATCH_SIZE" envDefault:"200"`

	// Rate limiting
	RateLimitAPIEnabled  bool `env:"RATE_LIMIT_API_ENABLED" envDefault:"true"`
	RateLimitAPIRPM      int  `env:"RATE_LIMIT_API_RPM" envDefault:"600"`
	RateLimitAPIBurst    int  `env:"RATE_LIMIT_API_BURST" envDefault:"50"`
	RateLimitAuthEnabled bool `env:"RATE_LIMIT_AUTH_ENABLED" envDefault:"true"`
	RateLimitAuthRPS     int  `env:"RATE_LIMIT_AUTH_RPS" envDefault:"1"`
	RateLimitAuthBurst   int  `env:"RATE_LIMIT_AUTH_BURST" envDefault:"5"`

	// CORS configuration
	// Comma-separated list of allowed origins (e.g., "https://pictora.app,http://localhost:5173")
	CORSAllowedOrigins string `env:"CORS_ALLOWED_ORIGINS" envDefault:""`

	// Request body size limit in bytes for JSON endpoints (default 1MB)
	MaxRequestBodySize int64 `env:"MAX_REQUEST_BODY_SIZE" envDefault:"1048576"`

	// Upload size limit in bytes for multipart endpoints (default 20MB)
	MaxUploadSize int64 `env:"MAX_UPLOAD_SIZE" envDefault:"20971520"`
}

// IsDevelopment returns true if running in development mode.
func (c *Config) IsDevelopment() bool {
	return c.AppEnv == "development"
}

// IsProduction returns true if running in production mode.
func (c *Config) IsProduction() bool {
	return c.AppEnv == "production"
}

// GetCORSAllowedOrigins parses the comma-separated origins string into a slice.
func (c *Config) GetCORSAllowedOrigins() []string {
	if c.CORSAllowedOrigins == "" {
		return nil
	}

	origins := strings.Split(c.CORSAllowedOrigins, ",")
	result := make([]string, 0, len(origins))

	for _, origin := range origins {
		trimmed := strings.TrimSpace(origin)
		if trimmed != "" {
			result = append(result, trimmed)
		}
	}

	return result
}

// Validate checks cross-field constraints env tags cannot express.
func (c *Config) Validate() error {
	if strings.Contains(c.StorageEndpoint, "://") {
		return fmt.Errorf("STORAGE_ENDPOINT must not include scheme: %q", c.StorageEndpoint)
	}
	if strings.TrimSpace(c.StorageBucket) == "" {
		return errors.New("STORAGE_BUCKET is required")
	}
	if c.SessionTTL <= 0 {
		return errors.New("SESSION_TTL must be positive")
	}
	if c.MaxUploadSize <= 0 {
		return errors.New("MAX_UPLOAD_SIZE must be positive")
	}
	return nil
}

// Load parses environment variables and returns a Config.
// Returns an error if required variables are missing.
func Load() (*Config, error) {
	cfg := &Config{}
	if err := env.Parse(cfg); err != nil {
		return nil, fmt.Errorf("failed to parse config: %w", err)
	}
	if err := cfg.Validate(); err != nil {
		return nil, fmt.Errorf("invalid config: %w", err)
	}
	return cfg, nil
}
