// Package service provides the core business service that implements
// the dependencies required by the HTTP API.
package service

import (
	"context"
	"fmt"
	"runtime"
	"sync"
	"time"

	"github.com/Jaber-Ghorbani/arg-risk-lookup/internal/adapters/loader"
	taskqueue "github.com/Jaber-Ghorbani/arg-risk-lookup/internal/adapters/mq/queue"
	workerpool "github.com/Jaber-Ghorbani/arg-risk-lookup/internal/adapters/mq/worker"
	"github.com/Jaber-Ghorbani/arg-risk-lookup/internal/adapters/repository"
	"github.com/Jaber-Ghorbani/arg-risk-lookup/internal/domain/batch"
	"github.com/Jaber-Ghorbani/arg-risk-lookup/internal/domain/memo"
	"github.com/Jaber-Ghorbani/arg-risk-lookup/internal/domain/model"
	"github.com/Jaber-Ghorbani/arg-risk-lookup/internal/domain/resolve"
	"github.com/Jaber-Ghorbani/arg-risk-lookup/internal/domain/scoring"
	"github.com/Jaber-Ghorbani/arg-risk-lookup/pkg/logger"
	"github.com/Jaber-Ghorbani/arg-risk-lookup/pkg/metrics"
)

// tableState bundles everything derived from one table load so a reload can
// swap it all at once. The resolver's memo cache belongs to the table it was
// built against and is never carried across loads.
type tableState struct {
	store    repository.Store
	resolver *resolve.Resolver
	warnings []model.Warning
	loadedAt time.Time
}

// Service implements the API dependencies for the risk lookup system.
type Service struct {
	mu sync.RWMutex

	// Core components
	state     *tableState
	agg       *scoring.Aggregator
	taskQueue *taskqueue.InMemoryQueue
	pool      *workerpool.Pool

	// Configuration
	tablePath        string
	fuzzyThreshold   float64
	fuzzyTopK        int
	workerCount      int
	queueSize        int
	parallelMin      int
	resolveCacheSize int
	finalMarker      string

	// State
	started bool

	// Logging
	logger logger.Logger
}

// Option applies a configuration option to the Service.
type Option func(*Service)

// WithTablePath sets the risk table file to load on Start and Reload.
func WithTablePath(path string) Option {
	return func(s *Service) {
		if path != "" {
			s.tablePath = path
		}
	}
}

// WithFuzzyThreshold sets the default fuzzy similarity threshold.
func WithFuzzyThreshold(threshold float64) Option {
	return func(s *Service) {
		if threshold > 0 && threshold <= 1 {
			s.fuzzyThreshold = threshold
		}
	}
}

// WithFuzzyTopK caps the number of candidates a lookup returns.
func WithFuzzyTopK(k int) Option {
	return func(s *Service) {
		if k > 0 {
			s.fuzzyTopK = k
		}
	}
}

// WithWorkerCount sets the number of batch worker goroutines.
func WithWorkerCount(count int) Option {
	return func(s *Service) {
		if count > 0 {
			s.workerCount = count
		}
	}
}

// WithQueueSize sets the maximum size of the batch task queue.
func WithQueueSize(size int) Option {
	return func(s *Service) {
		if size > 0 {
			s.queueSize = size
		}
	}
}

// WithParallelBatchMin sets the batch size at which row work goes parallel.
func WithParallelBatchMin(n int) Option {
	return func(s *Service) {
		if n > 0 {
			s.parallelMin = n
		}
	}
}

// WithResolveCacheSize sets the size of the per-table resolution cache.
func WithResolveCacheSize(size int) Option {
	return func(s *Service) {
		if size > 0 {
			s.resolveCacheSize = size
		}
	}
}

// WithFinalMarker sets the substring that marks the authoritative score
// column when computing composites.
func WithFinalMarker(marker string) Option {
	return func(s *Service) {
		if marker != "" {
			s.finalMarker = marker
		}
	}
}

// WithLogger sets a custom logger for the service.
func WithLogger(logger logger.Logger) Option {
	return func(s *Service) {
		if logger != nil {
			s.logger = logger
		}
	}
}

// New constructs a new Service with default configuration.
func New(opts ...Option) *Service {
	s := &Service{
		tablePath:        "data/risk_table.csv",
		fuzzyThreshold:   resolve.DefaultThreshold,
		fuzzyTopK:        resolve.DefaultTopK,
		workerCount:      runtime.NumCPU() * 4,
		queueSize:        65536,
		parallelMin:      256,
		resolveCacheSize: 10000,
		logger:           nil, // Will be replaced when service starts
	}

	for _, opt := range opts {
		opt(s)
	}

	return s
}

// Start loads the risk table and starts the batch worker pool.
func (s *Service) Start(ctx context.Context) error {
	s.mu.Lock()
	defer s.mu.Unlock()

	if s.started {
		return nil
	}

	if s.logger == nil {
		s.logger = logger.Get()
	}

	s.logger.Info(ctx, "starting risk lookup service...")

	state, err := s.loadTable(ctx)
	if err != nil {
		return fmt.Errorf("start service: %w", err)
	}
	s.state = state

	s.agg = scoring.New(scoring.WithFinalMarker(s.finalMarker))

	s.taskQueue = taskqueue.NewInMemoryQueue(
		taskqueue.WithCapacity(s.queueSize),
		taskqueue.WithBufferSize(s.queueSize),
	)
	s.pool = workerpool.NewPool(s.workerCount, s.taskQueue)
	s.pool.Start(ctx)

	s.started = true
	s.logger.Info(ctx, "risk lookup service started",
		logger.Int("records", state.store.Count(ctx)),
		logger.Int("loadWarnings", len(state.warnings)),
		logger.Int("workers", s.workerCount),
		logger.Int("queueSize", s.queueSize),
	)

	return nil
}

// Stop gracefully shuts down the service.
func (s *Service) Stop() {
	s.mu.Lock()
	defer s.mu.Unlock()

	if !s.started {
		return
	}

	ctx := context.Background()
	s.logger.Info(ctx, "stopping risk lookup service...")

	if s.pool != nil {
		_ = s.pool.Shutdown(ctx)
	}

	s.started = false
	s.logger.Info(ctx, "risk lookup service stopped")
}

// loadTable reads the configured file and builds a fresh table state.
func (s *Service) loadTable(ctx context.Context) (*tableState, error) {
	start := time.Now()

	header, rows, err := loader.Load(ctx, s.tablePath)
	if err != nil {
		return nil, err
	}
	store, warnings, err := repository.Build(ctx, header, rows)
	if err != nil {
		return nil, err
	}

	for _, w := range warnings {
		s.logger.Warn(ctx, "table load warning",
			logger.String("code", w.Code),
			logger.String("detail", w.Detail),
		)
	}

	resolver := resolve.New(
		resolve.WithThreshold(s.fuzzyThreshold),
		resolve.WithTopK(s.fuzzyTopK),
		resolve.WithCache(memo.New(memo.WithMaxSize(s.resolveCacheSize))),
	)

	metrics.RecordTableLoadDuration(float64(time.Since(start).Milliseconds()))

	return &tableState{
		store:    store,
		resolver: resolver,
		warnings: warnings,
		loadedAt: time.Now(),
	}, nil
}

// Reload re-reads the table file and swaps the new table in atomically.
// In-flight reads keep the table they started with.
func (s *Service) Reload(ctx context.Context) error {
	state, err := s.loadTable(ctx)
	if err != nil {
		return fmt.Errorf("reload table: %w", err)
	}

	s.mu.Lock()
	s.state = state
	s.mu.Unlock()

	metrics.RecordTableReload()
	s.logger.Info(ctx, "risk table reloaded",
		logger.Int("records", state.store.Count(ctx)),
		logger.Int("loadWarnings", len(state.warnings)),
	)
	return nil
}

// snapshot returns the current table state for one logical operation.
func (s *Service) snapshot() *tableState {
	s.mu.RLock()
	defer s.mu.RUnlock()
	return s.state
}

// Lookup resolves one identifier to ranked candidates. A non-positive
// threshold selects the configured default.
func (s *Service) Lookup(ctx context.Context, query string, threshold float64) []model.MatchCandidate {
	st := s.snapshot()
	if threshold <= 0 {
		return st.resolver.Resolve(ctx, st.store, query)
	}
	return st.resolver.ResolveWithThreshold(ctx, st.store, query, threshold)
}

// Suggest returns up to limit known identifiers starting with prefix.
// An empty prefix lists identifiers in table order.
func (s *Service) Suggest(ctx context.Context, prefix string, limit int) []string {
	st := s.snapshot()
	return st.store.PrefixSearch(ctx, prefix, limit)
}

// Batch resolves and scores a list of identifiers, preserving input order.
func (s *Service) Batch(ctx context.Context, identifiers []string, threshold float64) model.BatchResult {
	st := s.snapshot()
	if threshold <= 0 {
		threshold = st.resolver.Threshold()
	}
	return s.processorFor(st).Run(ctx, st.store, identifiers, threshold)
}

// RiskIndex resolves each pair's identifier and computes the abundance
// weighted risk index over the chosen score column.
func (s *Service) RiskIndex(ctx context.Context, items []model.SampleItem, scoreColumn string) (float64, []scoring.Contribution) {
	st := s.snapshot()

	indexItems := make([]scoring.IndexItem, len(items))
	for i, it := range items {
		candidates := st.resolver.Resolve(ctx, st.store, it.Query)
		indexItems[i] = scoring.IndexItem{
			Candidate: candidates[0],
			Abundance: it.Abundance,
		}
	}

	total, contribs := s.agg.RiskIndex(ctx, indexItems, scoreColumn)
	metrics.RecordRiskIndexComputed()
	return total, contribs
}

// Columns returns the table's attribute partition.
func (s *Service) Columns(ctx context.Context) model.Columns {
	return s.snapshot().store.Columns(ctx)
}

// Score computes a record's composite score.
func (s *Service) Score(ctx context.Context, rec *model.GeneRecord) (float64, bool) {
	return s.agg.Composite(ctx, rec)
}

// Count returns the number of records in the current table.
func (s *Service) Count(ctx context.Context) int {
	return s.snapshot().store.Count(ctx)
}

// GetStats returns service statistics for monitoring.
func (s *Service) GetStats() map[string]interface{} {
	s.mu.RLock()
	defer s.mu.RUnlock()

	ctx := context.Background()
	stats := map[string]interface{}{
		"started":        s.started,
		"tablePath":      s.tablePath,
		"workerCount":    s.workerCount,
		"queueSize":      s.queueSize,
		"fuzzyThreshold": s.fuzzyThreshold,
		"fuzzyTopK":      s.fuzzyTopK,
	}

	if s.state != nil {
		stats["records"] = s.state.store.Count(ctx)
		stats["loadWarnings"] = len(s.state.warnings)
		stats["loadedAt"] = s.state.loadedAt.UTC().Format(time.RFC3339)
	}
	if s.started {
		stats["queueLength"] = s.taskQueue.Len(ctx)
		metrics.UpdateWorkerCount(s.workerCount)
	}

	return stats
}

// Warnings returns the warnings from the most recent table load.
func (s *Service) Warnings(_ context.Context) []model.Warning {
	s.mu.RLock()
	defer s.mu.RUnlock()
	if s.state == nil {
		return nil
	}
	return s.state.warnings
}

// processorFor builds the row processor bound to st's resolver. The pool
// and aggregator are shared; only the resolver changes per table. Before
// Start the pool is nil and rows run sequentially.
func (s *Service) processorFor(st *tableState) *batch.Processor {
	opts := []batch.Option{batch.WithParallelMin(s.parallelMin)}
	if s.pool != nil {
		opts = append(opts, batch.WithRunner(s.pool))
	}
	return batch.New(st.resolver, s.agg, opts...)
}
