// Package config handles application configuration from environment variables
package config

import (
	"fmt"
	"time"

	"github.com/caarlos0/env/v11"
	"github.com/joho/godotenv"
)

// Config holds all application configuration
type Config struct {
	Transport  TransportConfig
	Vendo      VendoConfig
	Split      SplitConfig
	Server     ServerConfig
	Masterdata MasterdataConfig
}

// TransportConfig holds settings for the transport.rest client
type TransportConfig struct {
	BaseURL      string        `env:"BETTER_BAHN_API_URL" envDefault:"https://v6.db.transport.rest"`
	UserAgent    string        `env:"BETTER_BAHN_USER_AGENT" envDefault:"better-bahn/1.0"`
	Timeout      time.Duration `env:"BETTER_BAHN_TIMEOUT" envDefault:"30s"`
	RateCapacity float64       `env:"BETTER_BAHN_RATE_LIMIT_CAPACITY" envDefault:"5"`
	RateWindow   time.Duration `env:"BETTER_BAHN_RATE_LIMIT_WINDOW" envDefault:"5s"`
	CacheSize    int           `env:"BETTER_BAHN_CACHE_MAX_SIZE" envDefault:"100"`
	CacheMaxAge  time.Duration `env:"BETTER_BAHN_CACHE_MAX_AGE" envDefault:"2m"`
	StaleWindow  time.Duration `env:"BETTER_BAHN_CACHE_STALE_WINDOW" envDefault:"15m"`
	CacheEnabled bool          `env:"BETTER_BAHN_CACHE_ENABLED" envDefault:"true"`
}

// VendoConfig holds settings for the bahn.de pricing client
type VendoConfig struct {
	BaseURL   string `env:"BETTER_BAHN_VENDO_URL" envDefault:"https://www.bahn.de/web/api"`
	UserAgent string `env:"BETTER_BAHN_VENDO_USER_AGENT" envDefault:"Mozilla/5.0"`
}

// SplitConfig holds settings for the split-ticket analyzer
type SplitConfig struct {
	SegmentDelay time.Duration `env:"BETTER_BAHN_SEGMENT_DELAY" envDefault:"500ms"`
}

// ServerConfig holds settings for the HTTP API server
type ServerConfig struct {
	Addr string `env:"BETTER_BAHN_LISTEN_ADDR" envDefault:":8080"`
}

// MasterdataConfig points at the static timetable document
type MasterdataConfig struct {
	Path string `env:"BETTER_BAHN_MASTERDATA_PATH" envDefault:"data/Timetables-1.0.213.yaml"`
}

// Load reads configuration from environment variables, honoring a .env file
// when one is present.
func Load() (*Config, error) {
	_ = godotenv.Load()

	cfg := &Config{}
	if err := env.Parse(cfg); err != nil {
		return nil, fmt.Errorf("parse environment: %w", err)
	}
	if err := cfg.Validate(); err != nil {
		return nil, err
	}
	return cfg, nil
}

// Validate rejects values the clients cannot work with
func (c *Config) Validate() error {
	if c.Transport.BaseURL == "" {
		return fmt.Errorf("BETTER_BAHN_API_URL must not be empty")
	}
	if c.Vendo.BaseURL == "" {
		return fmt.Errorf("BETTER_BAHN_VENDO_URL must not be empty")
	}
	if c.Transport.RateCapacity <= 0 {
		return fmt.Errorf("BETTER_BAHN_RATE_LIMIT_CAPACITY must be positive, got %v", c.Transport.RateCapacity)
	}
	if c.Transport.RateWindow <= 0 {
		return fmt.Errorf("BETTER_BAHN_RATE_LIMIT_WINDOW must be positive, got %v", c.Transport.RateWindow)
	}
	if c.Transport.CacheSize <= 0 {
		return fmt.Errorf("BETTER_BAHN_CACHE_MAX_SIZE must be positive, got %d", c.Transport.CacheSize)
	}
	if c.Split.SegmentDelay < 0 {
		return fmt.Errorf("BETTER_BAHN_SEGMENT_DELAY must not be negative, got %v", c.Split.SegmentDelay)
	}
	return nil
}
