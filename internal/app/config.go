package app

import (
	"errors"
	"time"

	"github.com/kelseyhightower/envconfig"
)

// Config holds runtime configuration for the application.
type Config struct {
	AppEnv            string        `envconfig:"APP_ENV" default:"development"`
	AppAddr           string        `envconfig:"APP_ADDR" default:":8080"`
	AppReadTimeout    time.Duration `envconfig:"APP_READ_TIMEOUT" default:"15s"`
	AppWriteTimeout   time.Duration `envconfig:"APP_WRITE_TIMEOUT" default:"15s"`
	AppRequestTimeout time.Duration `envconfig:"APP_REQUEST_TIMEOUT" default:"30s"`

	LogFormat string `envconfig:"LOG_FORMAT" default:"pretty"`

	RedisAddr         string        `envconfig:"REDIS_ADDR" default:"127.0.0.1:6379"`
	SessionTTL        time.Duration `envconfig:"SESSION_TTL" default:"4h"`
	SessionIdleCutoff time.Duration `envconfig:"SESSION_IDLE_CUTOFF" default:"2h"`

	OrdersAPIURL     string        `envconfig:"ORDERS_API_URL" required:"true"`
	OrdersAPITimeout time.Duration `envconfig:"ORDERS_API_TIMEOUT" default:"15s"`

	CatalogAPIURL     string        `envconfig:"CATALOG_API_URL" required:"true"`
	CatalogAPITimeout time.Duration `envconfig:"CATALOG_API_TIMEOUT" default:"10s"`
	CatalogCacheTTL   time.Duration `envconfig:"CATALOG_CACHE_TTL" default:"5m"`

	AuditPGDSN string `envconfig:"AUDIT_PG_DSN" default:""`

	CORSAllowedOrigins []string `envconfig:"CORS_ALLOWED_ORIGINS" default:"*"`
}

// LoadConfig reads configuration from environment variables.
func LoadConfig() (*Config, error) {
	var cfg Config
	if err := envconfig.Process("", &cfg); err != nil {
		return nil, err
	}
	if cfg.OrdersAPIURL == "" {
		return nil, errors.New("orders api url must be provided")
	}
	if cfg.CatalogAPIURL == "" {
		return nil, errors.New("catalog api url must be provided")
	}
	if cfg.SessionIdleCutoff > cfg.SessionTTL {
		return nil, errors.New("session idle cutoff cannot exceed the session ttl")
	}
	return &cfg, nil
}

// IsProduction returns true when the application runs in production.
func (c *Config) IsProduction() bool {
	return c != nil && c.AppEnv == "production"
}
