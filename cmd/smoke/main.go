// Command smoke runs an end-to-end smoke test against a running lookup
// service: sampled lookups, a batch submission and a risk index request,
// cross-checked against each other.
package main

import (
	"context"
	"flag"
	"os"
	"os/signal"
	"syscall"
	"time"

	"github.com/Jaber-Ghorbani/arg-risk-lookup/internal/smoketest"
	"github.com/Jaber-Ghorbani/arg-risk-lookup/pkg/logger"
)

func main() {
	var (
		baseURL    = flag.String("url", smoketest.DefaultBaseURL, "Base URL of the service")
		numQueries = flag.Int("queries", smoketest.DefaultNumQueries, "Number of single lookups to fire")
		workers    = flag.Int("workers", smoketest.DefaultWorkers, "Number of concurrent workers")
		timeout    = flag.Duration("timeout", smoketest.DefaultTimeout, "HTTP request timeout")
		sample     = flag.Int("sample", smoketest.DefaultSampleSize, "How many known identifiers to sample")
		verbose    = flag.Bool("verbose", false, "Enable per-query logging")
	)
	flag.Parse()

	if err := logger.Init(); err != nil {
		os.Stderr.WriteString("failed to initialize logging: " + err.Error() + "\n")
		os.Exit(1)
	}
	if *verbose {
		_ = logger.SetLevelString("debug")
	}

	ctx, stop := signal.NotifyContext(context.Background(), syscall.SIGINT, syscall.SIGTERM)
	defer stop()

	cfg := &smoketest.Config{
		BaseURL:    *baseURL,
		NumQueries: *numQueries,
		Workers:    *workers,
		Timeout:    *timeout,
		SampleSize: *sample,
		Verbose:    *verbose,
	}

	start := time.Now()
	if err := smoketest.Run(ctx, cfg); err != nil {
		logger.Get().Error(ctx, "smoke test failed",
			logger.Error(err),
			logger.String("duration", time.Since(start).String()),
		)
		os.Exit(1)
	}
}
