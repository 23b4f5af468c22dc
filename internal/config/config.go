// Tandem - Relationship Coaching Personalization & Smart Scheduling
// Copyright 2026 Tandem Labs
// SPDX-License-Identifier: AGPL-3.0-or-later
// https://github.com/tandemlabs/tandem

// Package config loads and validates the application configuration.
//
// Configuration is layered: built-in defaults, then an optional YAML
// file, then environment variables, with later layers overriding
// earlier ones.
package config

import (
	"fmt"
	"time"

	"github.com/tandemlabs/tandem/internal/catalog"
	"github.com/tandemlabs/tandem/internal/growth"
	"github.com/tandemlabs/tandem/internal/profile"
	"github.com/tandemlabs/tandem/internal/recommend"
	"github.com/tandemlabs/tandem/internal/schedule"
)

// Config is the root application configuration.
type Config struct {
	Server    ServerConfig     `koanf:"server"`
	Store     StoreConfig      `koanf:"store"`
	Logging   LoggingConfig    `koanf:"logging"`
	Catalog   CatalogConfig    `koanf:"catalog"`
	Profile   profile.Config   `koanf:"profile"`
	Recommend recommend.Config `koanf:"recommend"`
	Schedule  schedule.Config  `koanf:"schedule"`
	Growth    growth.Config    `koanf:"growth"`
	Sweep     SweepConfig      `koanf:"sweep"`
}

// ServerConfig configures the HTTP API server.
type ServerConfig struct {
	Host    string        `koanf:"host"`
	Port    int           `koanf:"port"`
	Timeout time.Duration `koanf:"timeout"`

	// CORSOrigins lists allowed cross-origin request origins.
	CORSOrigins []string `koanf:"cors_origins"`

	// RateLimitReqs caps requests per client IP per RateLimitWindow.
	// Zero disables rate limiting.
	RateLimitReqs   int           `koanf:"rate_limit_reqs"`
	RateLimitWindow time.Duration `koanf:"rate_limit_window"`
}

// Addr returns the listen address.
func (c ServerConfig) Addr() string {
	return fmt.Sprintf("%s:%d", c.Host, c.Port)
}

// StoreConfig configures the document store.
type StoreConfig struct {
	// Path is the BadgerDB data directory. Empty selects the in-memory
	// store, which loses data on restart.
	Path string `koanf:"path"`
}

// LoggingConfig configures log output.
type LoggingConfig struct {
	Level  string `koanf:"level"`
	Format string `koanf:"format"`
	Caller bool   `koanf:"caller"`
}

// CatalogConfig configures the activity-template catalog.
type CatalogConfig struct {
	// Path is the YAML catalog file.
	Path string `koanf:"path"`

	Breaker catalog.BreakerConfig `koanf:"breaker"`
}

// SweepConfig configures the background expiry sweep.
type SweepConfig struct {
	// Interval between sweep runs. Default: 5m.
	Interval time.Duration `koanf:"interval"`
}

// defaultConfig returns the built-in defaults, overridden by the config
// file and environment.
func defaultConfig() *Config {
	return &Config{
		Server: ServerConfig{
			Host:            "0.0.0.0",
			Port:            8480,
			Timeout:         30 * time.Second,
			CORSOrigins:     []string{"*"},
			RateLimitReqs:   100,
			RateLimitWindow: time.Minute,
		},
		Store: StoreConfig{
			Path: "/data/tandem",
		},
		Logging: LoggingConfig{
			Level:  "info",
			Format: "json",
			Caller: false,
		},
		Catalog: CatalogConfig{
			Path:    "catalog.yaml",
			Breaker: catalog.DefaultBreakerConfig(),
		},
		Profile:   profile.DefaultConfig(),
		Recommend: recommend.DefaultConfig(),
		Schedule:  schedule.DefaultConfig(),
		Growth:    growth.DefaultConfig(),
		Sweep: SweepConfig{
			Interval: 5 * time.Minute,
		},
	}
}

// Validate checks the configuration for errors.
func (c *Config) Validate() error {
	if c.Server.Port < 1 || c.Server.Port > 65535 {
		return fmt.Errorf("server.port must be in [1,65535], got %d", c.Server.Port)
	}
	if c.Server.Timeout <= 0 {
		return fmt.Errorf("server.timeout must be positive, got %s", c.Server.Timeout)
	}
	if c.Server.RateLimitReqs < 0 {
		return fmt.Errorf("server.rate_limit_reqs must not be negative, got %d", c.Server.RateLimitReqs)
	}
	if c.Catalog.Path == "" {
		return fmt.Errorf("catalog.path must be set")
	}
	if c.Sweep.Interval <= 0 {
		return fmt.Errorf("sweep.interval must be positive, got %s", c.Sweep.Interval)
	}
	if err := c.Profile.Validate(); err != nil {
		return fmt.Errorf("profile: %w", err)
	}
	if err := c.Recommend.Validate(); err != nil {
		return fmt.Errorf("recommend: %w", err)
	}
	if err := c.Schedule.Validate(); err != nil {
		return fmt.Errorf("schedule: %w", err)
	}
	if err := c.Growth.Validate(); err != nil {
		return fmt.Errorf("growth: %w", err)
	}
	return nil
}
