// Package config defines service configuration structures and loading hooks.
//
// Conventions:
// - Provide New(ctx) to build a Config with defaults.
// - Load(ctx) layers an optional YAML file and ARGRISK_* env vars on top.
// - External errors must be wrapped via this package's error helpers.
package config

import (
	"context"
	"runtime"
)

// Config contains process configuration. Extend as needed.
type Config struct {
	// LogLevel controls verbosity: debug, info, warn, error.
	LogLevel string `koanf:"log_level"`

	// Addr configures the HTTP listen address, e.g. ":8080".
	Addr string `koanf:"addr"`

	// TablePath points at the risk reference table (CSV or TSV).
	TablePath string `koanf:"table_path"`

	// FuzzyThreshold is the minimum similarity for a fuzzy match, in (0,1].
	FuzzyThreshold float64 `koanf:"fuzzy_threshold"`

	// FuzzyTopK caps how many fuzzy candidates a lookup returns.
	FuzzyTopK int `koanf:"fuzzy_top_k"`

	// SuggestLimit caps GET /suggest?limit.
	SuggestLimit int `koanf:"suggest_limit"`

	// MaxBatchSize caps the number of rows in a single batch submission.
	MaxBatchSize int `koanf:"max_batch_size"`

	// QueueSize bounds the in-memory batch task queue.
	QueueSize int `koanf:"queue_size"`

	// WorkerCount sets the number of batch workers.
	WorkerCount int `koanf:"worker_count"`

	// ParallelBatchMin is the batch size at which row work goes parallel.
	ParallelBatchMin int `koanf:"parallel_batch_min"`

	// ResolveCacheSize sets the size of the resolution memo cache.
	ResolveCacheSize int `koanf:"resolve_cache_size"`

	// FinalScoreMarker is the substring naming the authoritative score
	// column for composite scoring.
	FinalScoreMarker string `koanf:"final_score_marker"`
}

// New creates a Config with defaults. Context is accepted first to satisfy
// the project-wide convention; it is reserved for future use and currently
// unused.
func New(_ context.Context) *Config {
	c := &Config{
		LogLevel:         "info",
		Addr:             ":9080",
		TablePath:        "data/risk_table.csv",
		FuzzyThreshold:   0.6,
		FuzzyTopK:        5,
		SuggestLimit:     20,
		MaxBatchSize:     10_000,
		QueueSize:        65_536,
		WorkerCount:      runtime.NumCPU() * 4,
		ParallelBatchMin: 256,
		ResolveCacheSize: 10_000,
		FinalScoreMarker: "final",
	}
	return c
}
