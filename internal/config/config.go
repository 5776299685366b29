// Package config loads process configuration from environment variables.
package config

import (
	"errors"
	"fmt"
	"time"

	"github.com/caarlos0/env/v11"
)

// Config holds every knob the service reads from the environment.
type Config struct {
	ListenAddr string `env:"ANALYZEIT_ADDR" envDefault:":4000"`

	// DatabaseDSN is the Postgres connection string.
	DatabaseDSN string `env:"ANALYZEIT_PG_DSN"`

	// TokenSecret signs bearer tokens (HS256). Required.
	TokenSecret string        `env:"ANALYZEIT_TOKEN_SECRET"`
	TokenTTL    time.Duration `env:"ANALYZEIT_TOKEN_TTL" envDefault:"168h"`

	// PredictionBaseURL is the base URL of the external forecasting service.
	PredictionBaseURL string        `env:"ANALYZEIT_PREDICT_URL" envDefault:"http://127.0.0.1:8000"`
	PredictionTimeout time.Duration `env:"ANALYZEIT_PREDICT_TIMEOUT" envDefault:"10s"`

	RateBurst  int `env:"ANALYZEIT_RATE_BURST" envDefault:"40"`
	RatePerSec int `env:"ANALYZEIT_RATE_PER_SEC" envDefault:"20"`

	MaxBodyBytes int64 `env:"ANALYZEIT_MAX_BODY_BYTES" envDefault:"1048576"`

	// AuthDisabled puts the dashboard client into the open deployment mode
	// where no bearer token is attached to requests.
	AuthDisabled bool `env:"ANALYZEIT_AUTH_DISABLED" envDefault:"false"`
}

// Load parses the environment into a Config.
func Load() (*Config, error) {
	var cfg Config
	if err := env.Parse(&cfg); err != nil {
		return nil, fmt.Errorf("parse env: %w", err)
	}
	if err := cfg.validate(); err != nil {
		return nil, err
	}
	return &cfg, nil
}

func (c *Config) validate() error {
	if c.TokenSecret == "" {
		return errors.New("config: ANALYZEIT_TOKEN_SECRET is required")
	}
	if c.TokenTTL <= 0 {
		return errors.New("config: token TTL must be positive")
	}
	if c.PredictionTimeout <= 0 {
		return errors.New("config: prediction timeout must be positive")
	}
	return nil
}
