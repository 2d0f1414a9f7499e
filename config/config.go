// Package config loads runtime configuration from the environment, with an
// optional .env file for local development.
package config

import (
	"os"
	"strconv"

	"github.com/joho/godotenv"
)

// Config contains runtime configuration for the compiler CLI.
type Config struct {
	SentryDSN string // Sentry DSN for compile telemetry (optional)
	Seed      int64  // default random seed for generative patterns
}

// Load reads configuration from the environment. A .env file in the working
// directory is merged in when present; real environment variables win.
func Load() *Config {
	_ = godotenv.Load()

	cfg := &Config{
		SentryDSN: os.Getenv("ETHERDAW_SENTRY_DSN"),
	}
	if raw := os.Getenv("ETHERDAW_SEED"); raw != "" {
		if seed, err := strconv.ParseInt(raw, 10, 64); err == nil {
			cfg.Seed = seed
		}
	}
	return cfg
}
