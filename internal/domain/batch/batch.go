// Package batch drives the resolver and aggregator over uploaded identifier
// lists, producing ordered per-row outcomes and summary statistics.
package batch

import (
	"context"
	"time"

	"github.com/Jaber-Ghorbani/arg-risk-lookup/internal/domain/model"
	"github.com/Jaber-Ghorbani/arg-risk-lookup/internal/domain/resolve"
	"github.com/Jaber-Ghorbani/arg-risk-lookup/internal/domain/scoring"
	"github.com/Jaber-Ghorbani/arg-risk-lookup/internal/domain/similarity"
	"github.com/Jaber-Ghorbani/arg-risk-lookup/pkg/metrics"
	"github.com/google/uuid"
)

// defaultParallelMin is the batch size at which a configured runner takes
// over from the sequential loop.
const defaultParallelMin = 256

// Runner executes fn for every index in [0,n) and returns when all calls
// have finished. Implementations may parallelize; rows are independent and
// each fn(i) writes only its own slot, so output order and tie-breaks are
// identical to the sequential path.
type Runner interface {
	Map(ctx context.Context, n int, fn func(ctx context.Context, i int))
}

// Processor orchestrates per-row resolution and scoring.
type Processor struct {
	resolver    *resolve.Resolver
	agg         *scoring.Aggregator
	runner      Runner
	parallelMin int
}

// Option applies a configuration option to the Processor.
type Option func(*Processor)

// WithRunner installs a parallel runner for large batches.
func WithRunner(r Runner) Option {
	return func(p *Processor) {
		p.runner = r
	}
}

// WithParallelMin sets the minimum batch size handed to the runner.
func WithParallelMin(n int) Option {
	return func(p *Processor) {
		if n > 0 {
			p.parallelMin = n
		}
	}
}

// New creates a Processor with configuration options.
func New(resolver *resolve.Resolver, agg *scoring.Aggregator, opts ...Option) *Processor {
	p := &Processor{
		resolver:    resolver,
		agg:         agg,
		parallelMin: defaultParallelMin,
	}

	for _, opt := range opts {
		opt(p)
	}

	return p
}

// Run processes identifiers in order against t. No row's failure aborts the
// batch; unmatched and unscored are per-row data. The summary mean covers
// matched scored rows only, and HasMean is false when there are none.
func (p *Processor) Run(ctx context.Context, t resolve.Table, identifiers []string, threshold float64) model.BatchResult {
	start := time.Now()
	metrics.RecordBatchSubmission(len(identifiers))

	result := model.BatchResult{
		ID:   uuid.NewString(),
		Rows: make([]model.BatchRow, len(identifiers)),
	}

	fill := func(ctx context.Context, i int) {
		result.Rows[i] = p.processRow(ctx, t, identifiers[i], threshold)
	}

	if p.runner != nil && len(identifiers) >= p.parallelMin {
		p.runner.Map(ctx, len(identifiers), fill)
	} else {
		for i := range identifiers {
			fill(ctx, i)
		}
	}

	sum := 0.0
	scored := 0
	for _, row := range result.Rows {
		if !row.Candidate.Matched() {
			result.Unmatched++
			continue
		}
		result.Matched++
		if row.Scored {
			sum += row.Composite
			scored++
		}
	}
	if scored > 0 {
		result.MeanScore = sum / float64(scored)
		result.HasMean = true
	}

	metrics.RecordBatchUnmatched(result.Unmatched)
	metrics.RecordBatchDuration(float64(time.Since(start).Milliseconds()))
	return result
}

// processRow resolves one identifier and scores the top candidate. Blank
// identifiers skip resolution entirely.
func (p *Processor) processRow(ctx context.Context, t resolve.Table, raw string, threshold float64) model.BatchRow {
	if similarity.Normalize(raw) == "" {
		return model.BatchRow{
			Candidate: model.MatchCandidate{Query: raw, Method: model.MatchUnmatched},
		}
	}

	candidates := p.resolver.ResolveWithThreshold(ctx, t, raw, threshold)
	row := model.BatchRow{Candidate: candidates[0]}
	if row.Candidate.Matched() {
		row.Composite, row.Scored = p.agg.Composite(ctx, row.Candidate.Record)
	}
	return row
}
