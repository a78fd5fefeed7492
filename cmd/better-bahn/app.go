// Package main provides the better-bahn CLI application.
package main

import (
	"fmt"

	"github.com/logic-arts-official/Better-Bahn/internal/config"
	"github.com/logic-arts-official/Better-Bahn/internal/metrics"
	"github.com/logic-arts-official/Better-Bahn/transport"
	"github.com/logic-arts-official/Better-Bahn/vendo"
	"github.com/rs/zerolog"
)

// app bundles the configured clients shared by the subcommands.
type app struct {
	cfg     *config.Config
	log     zerolog.Logger
	metrics *metrics.Collector
	api     *transport.Client
	vendo   *vendo.Client
}

// newApp loads the configuration and wires up the clients.
func newApp() (*app, error) {
	cfg, err := config.Load()
	if err != nil {
		return nil, fmt.Errorf("load config: %w", err)
	}
	log := newLogger()
	collector := metrics.NewCollector()

	apiOpts := []transport.Option{
		transport.WithBaseURL(cfg.Transport.BaseURL),
		transport.WithUserAgent(cfg.Transport.UserAgent),
		transport.WithTimeout(cfg.Transport.Timeout),
		transport.WithRateLimit(cfg.Transport.RateCapacity, cfg.Transport.RateWindow),
		transport.WithCacheSize(cfg.Transport.CacheSize),
		transport.WithFreshness(cfg.Transport.CacheMaxAge, cfg.Transport.StaleWindow),
		transport.WithLogger(log.With().Str("component", "transport").Logger()),
		transport.WithMetrics(collector),
	}
	if !cfg.Transport.CacheEnabled {
		apiOpts = append(apiOpts, transport.WithoutCache())
	}

	return &app{
		cfg:     cfg,
		log:     log,
		metrics: collector,
		api:     transport.New(apiOpts...),
		vendo: vendo.New(
			vendo.WithBaseURL(cfg.Vendo.BaseURL),
			vendo.WithUserAgent(cfg.Vendo.UserAgent),
			vendo.WithLogger(log.With().Str("component", "vendo").Logger()),
		),
	}, nil
}
