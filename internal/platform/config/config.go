// Copyright (c) 2026 Resona. All rights reserved.
// Author: tai.buivan.jp@gmail.com

/*
Package config handles application-wide settings and environment parsing.

It leverages 'caarlos0/env' to map OS environment variables into a strongly-typed
Go struct, providing early validation and default values.

Usage:

	cfg, err := config.Load()
	if err != nil {
	    log.Fatal(err)
	}

Architecture:

  - Immutability: Once loaded, configuration is read-only.
  - DI-Friendly: Passed to core components (DB, Redis, Scanner) via constructors.
  - Zero Hidden State: No global variables are used to store config.

This ensures the application is Twelve-Factor compliant by storing config in the env.
*/
package config

import (
	"fmt"
	"time"

	"github.com/caarlos0/env/v11"
)

// # Configuration Schema

// Config holds all runtime configuration for the Resona engine.
type Config struct {

	// Server settings
	ServerPort  string `env:"SERVER_PORT"  envDefault:"8080"`
	Environment string `env:"ENVIRONMENT"  envDefault:"development"`
	Debug       bool   `env:"DEBUG"        envDefault:"false"`

	// Relational Database (PostgreSQL)
	DatabaseURL string `env:"DATABASE_URL,required"`

	// MigrationPath is the filesystem path to the SQL migrations directory.
	MigrationPath string `env:"MIGRATION_PATH" envDefault:"./data/migrations"`

	// Key-Value Cache (Redis)
	RedisURL string `env:"REDIS_URL,required"`

	// LibraryPath is the root of the managed Artist/Release folder tree.
	LibraryPath string `env:"LIBRARY_PATH,required"`

	// ScanWorkers bounds parallel metadata extraction within one folder scan.
	ScanWorkers int `env:"SCAN_WORKERS" envDefault:"4"`

	// CacheTTL is the lifetime of cached read-model entries.
	CacheTTL time.Duration `env:"CACHE_TTL" envDefault:"15m"`

	// LockTTL caps how long an advisory entity lease may be held before it
	// expires on its own (crash recovery).
	LockTTL time.Duration `env:"LOCK_TTL" envDefault:"10m"`

	// CollectionStaleAfter is the age past which a collection is re-imported
	// by the batch driver.
	CollectionStaleAfter time.Duration `env:"COLLECTION_STALE_AFTER" envDefault:"168h"`
}

// # Configuration Loading

// Load parses environment variables into a [Config] struct.
func Load() (*Config, error) {

	// Initialize an empty config struct
	cfg := &Config{}

	// Use the 'env' package to map environment variables to struct fields.
	// This will fail if any field marked with 'required' is missing.
	if err := env.Parse(cfg); err != nil {
		return nil, fmt.Errorf("config: failed to parse environment variables: %w", err)
	}

	return cfg, nil
}

// IsDevelopment reports whether the engine is running in development mode.
func (c *Config) IsDevelopment() bool {
	return c.Environment == "development"
}

// IsProduction reports whether the engine is running in production mode.
func (c *Config) IsProduction() bool {
	return c.Environment == "production"
}
