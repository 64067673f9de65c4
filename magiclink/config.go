package magiclink

import (
	"fmt"

	"github.com/caarlos0/env/v11"
)

// Config controls capability-link signing and lifetimes.
//
// These values are read at startup so operator-controlled defaults can be
// tuned without changing runtime code paths.
type Config struct {
	BaseURL           string `env:"IMMERSIONFLOW_MAGIC_LINK_BASE_URL" envDefault:"http://localhost:8080"`
	JWTSecret         string `env:"IMMERSIONFLOW_JWT_SECRET"`
	ShortLifetimeDays int    `env:"IMMERSIONFLOW_MAGIC_LINK_SHORT_DAYS" envDefault:"7"`
	LongLifetimeDays  int    `env:"IMMERSIONFLOW_MAGIC_LINK_LONG_DAYS" envDefault:"31"`
}

// LoadConfigFromEnv loads magic-link configuration and applies defensive
// defaults. The secret has no default: minting capability links without an
// operator-provided secret must fail loudly.
func LoadConfigFromEnv() (Config, error) {
	var cfg Config
	if err := env.Parse(&cfg); err != nil {
		return Config{}, fmt.Errorf("magiclink: parse env: %w", err)
	}
	if cfg.JWTSecret == "" {
		return Config{}, fmt.Errorf("magiclink: IMMERSIONFLOW_JWT_SECRET is required")
	}
	if cfg.ShortLifetimeDays <= 0 {
		cfg.ShortLifetimeDays = 7
	}
	if cfg.LongLifetimeDays <= 0 {
		cfg.LongLifetimeDays = 31
	}
	return cfg, nil
}
