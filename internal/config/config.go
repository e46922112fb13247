// Package config loads and validates service configuration from the
// environment and an optional .env file using Viper.
package config

import (
	"errors"
	"time"

	"github.com/spf13/viper"
)

// Config holds service configuration loaded from the environment.
type Config struct {
	// HTTPAddr is the address the HTTP server listens on (e.g. :8080).
	HTTPAddr string `mapstructure:"SENTRA_HTTP_ADDR"`
	// DatabaseURL is the Postgres DSN; empty runs the service without a store
	// (health endpoints only).
	DatabaseURL string `mapstructure:"SENTRA_PG_DSN"`
	// SessionMaxAge is the session lifetime (e.g. "24h").
	SessionMaxAge string `mapstructure:"SENTRA_SESSION_MAX_AGE"`
	// SessionPurgeInterval is how often expired session rows are swept.
	SessionPurgeInterval string `mapstructure:"SENTRA_SESSION_PURGE_INTERVAL"`
	// MaxBodyBytes caps request body size.
	MaxBodyBytes int64 `mapstructure:"SENTRA_MAX_BODY_BYTES"`
	// Env is the application environment (e.g. "development", "production").
	Env string `mapstructure:"SENTRA_ENV"`
}

// Load reads .env (if present), then builds and validates Config from the
// environment. Missing .env is ignored; env vars override .env.
func Load() (*Config, error) {
	v := viper.New()

	v.SetConfigFile(".env")
	v.SetConfigType("env")
	_ = v.ReadInConfig() // ignore ErrConfigFileNotFound

	v.AutomaticEnv()

	v.SetDefault("SENTRA_HTTP_ADDR", ":8080")
	v.SetDefault("SENTRA_PG_DSN", "")
	v.SetDefault("SENTRA_SESSION_MAX_AGE", "24h")
	v.SetDefault("SENTRA_SESSION_PURGE_INTERVAL", "1h")
	v.SetDefault("SENTRA_MAX_BODY_BYTES", 1<<20)
	v.SetDefault("SENTRA_ENV", "")

	var cfg Config
	if err := v.Unmarshal(&cfg); err != nil {
		return nil, err
	}

	if cfg.HTTPAddr == "" {
		return nil, errors.New("config: SENTRA_HTTP_ADDR must be set")
	}
	if cfg.MaxBodyBytes <= 0 {
		return nil, errors.New("config: SENTRA_MAX_BODY_BYTES must be positive")
	}
	return &cfg, nil
}

// SessionTTL parses SessionMaxAge as a time.Duration. Returns 24h if unset
// or invalid.
func (c *Config) SessionTTL() time.Duration {
	d, err := time.ParseDuration(c.SessionMaxAge)
	if err != nil || d <= 0 {
		return 24 * time.Hour
	}
	return d
}

// PurgeInterval parses SessionPurgeInterval. Returns 1h if unset or invalid.
func (c *Config) PurgeInterval() time.Duration {
	d, err := time.ParseDuration(c.SessionPurgeInterval)
	if err != nil || d <= 0 {
		return time.Hour
	}
	return d
}
