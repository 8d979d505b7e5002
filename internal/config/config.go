// Package config defines service configuration structures and loading hooks.
//
// Conventions:
// - Provide New() to build a Config with defaults; Load() layers file/env.
// - External errors must be wrapped via this package's error helpers.
package config

import (
	"time"
)

// Config contains process configuration. Extend as needed.
type Config struct {
	// LogLevel controls verbosity: debug, info, warn, error.
	LogLevel string `koanf:"log_level"`

	// Addr configures the HTTP listen address, e.g. ":8080".
	Addr string `koanf:"addr"`

	// DBPath points at the sqlite database file. Empty selects the
	// in-memory store (dev/test mode, no durability).
	DBPath string `koanf:"db_path"`

	// AggregationInterval is the period of the team card refresh schedule.
	// The original runs weekly.
	AggregationInterval time.Duration `koanf:"aggregation_interval"`

	// AggregationWorkerCount sets the number of aggregation workers.
	AggregationWorkerCount int `koanf:"aggregation_worker_count"`

	// AggregationQueueSize bounds the in-memory aggregation job queue.
	AggregationQueueSize int `koanf:"aggregation_queue_size"`

	// DedupeSize bounds the submission idempotency cache.
	DedupeSize int `koanf:"dedupe_size"`
}

// New creates a Config with defaults.
func New() *Config {
	return &Config{
		LogLevel:               "info",
		Addr:                   ":8080",
		DBPath:                 "",
		AggregationInterval:    7 * 24 * time.Hour,
		AggregationWorkerCount: 4,
		AggregationQueueSize:   10_000,
		DedupeSize:             50_000,
	}
}
