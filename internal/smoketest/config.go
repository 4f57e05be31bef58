// Package smoketest drives a running lookup service end to end: it samples
// known identifiers, fires single lookups, a batch and a risk index request,
// and verifies the responses agree with each other.
package smoketest

import (
	"errors"
	"time"
)

// Default configuration constants.
const (
	DefaultBaseURL    = "http://localhost:9080"
	DefaultNumQueries = 200
	DefaultWorkers    = 8
	DefaultTimeout    = 30 * time.Second
	DefaultSampleSize = 50
)

// Config holds the smoke test parameters.
type Config struct {
	// BaseURL is the root of the service under test.
	BaseURL string

	// NumQueries is how many single lookups to fire.
	NumQueries int

	// Workers is the number of concurrent lookup workers.
	Workers int

	// Timeout bounds each HTTP request.
	Timeout time.Duration

	// SampleSize is how many known identifiers to sample via /suggest.
	SampleSize int

	// Verbose enables per-query logging.
	Verbose bool
}

// DefaultConfig returns a Config with defaults applied.
func DefaultConfig() *Config {
	return &Config{
		BaseURL:    DefaultBaseURL,
		NumQueries: DefaultNumQueries,
		Workers:    DefaultWorkers,
		Timeout:    DefaultTimeout,
		SampleSize: DefaultSampleSize,
	}
}

// Validate checks the configuration for usable values.
func (c *Config) Validate() error {
	switch {
	case c.BaseURL == "":
		return errors.New("base URL must not be empty")
	case c.NumQueries < 1:
		return errors.New("number of queries must be at least 1")
	case c.Workers < 1:
		return errors.New("worker count must be at least 1")
	case c.Timeout <= 0:
		return errors.New("timeout must be positive")
	case c.SampleSize < 1:
		return errors.New("sample size must be at least 1")
	}
	return nil
}
