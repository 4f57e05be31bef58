// Package resolve turns one raw identifier into ranked candidate matches
// against the canonical risk table.
//
// Resolution escalates through three stages: exact, prefix, fuzzy. Exact and
// prefix matches are unambiguous and cheap; fuzzy matching is the only stage
// with a tunable false-positive risk, so it is isolated behind a similarity
// threshold and a top-K cap.
package resolve

import (
	"context"
	"sort"
	"strconv"
	"time"

	"github.com/Jaber-Ghorbani/arg-risk-lookup/internal/domain/memo"
	"github.com/Jaber-Ghorbani/arg-risk-lookup/internal/domain/model"
	"github.com/Jaber-Ghorbani/arg-risk-lookup/internal/domain/similarity"
	"github.com/Jaber-Ghorbani/arg-risk-lookup/pkg/metrics"
)

// Default resolution configuration constants.
const (
	// DefaultThreshold is the minimum similarity for an accepted fuzzy match.
	DefaultThreshold = 0.6
	// DefaultTopK caps the number of candidates a stage may return.
	DefaultTopK = 5

	millisecondsPerNanosecond = 1e-6
)

// Table abstracts the read operations the resolver needs from the store.
type Table interface {
	Get(ctx context.Context, id string) (*model.GeneRecord, bool)
	PrefixSearch(ctx context.Context, text string, limit int) []string
	IDs(ctx context.Context) []string
}

// Resolver resolves raw identifiers. It never fails: the result always
// holds at least one candidate, possibly unmatched.
type Resolver struct {
	threshold float64
	topK      int
	cache     memo.Cache
}

// New creates a Resolver with configuration options.
func New(opts ...Option) *Resolver {
	r := &Resolver{
		threshold: DefaultThreshold,
		topK:      DefaultTopK,
	}

	for _, opt := range opts {
		opt(r)
	}

	return r
}

// Threshold returns the configured default fuzzy threshold.
func (r *Resolver) Threshold() float64 {
	return r.threshold
}

// Resolve resolves raw using the configured default threshold.
func (r *Resolver) Resolve(ctx context.Context, t Table, raw string) []model.MatchCandidate {
	return r.ResolveWithThreshold(ctx, t, raw, r.threshold)
}

// ResolveWithThreshold resolves raw against t, returning ranked candidates,
// highest similarity first, ties broken by ascending id. Blank input (empty
// after normalization) resolves to a single unmatched candidate.
func (r *Resolver) ResolveWithThreshold(ctx context.Context, t Table, raw string, threshold float64) []model.MatchCandidate {
	start := time.Now()
	defer func() {
		metrics.RecordResolveLatency(float64(time.Since(start).Nanoseconds()) * millisecondsPerNanosecond)
	}()

	q := similarity.Normalize(raw)
	if q == "" {
		metrics.RecordResolution(string(model.MatchUnmatched))
		return []model.MatchCandidate{unmatched(raw)}
	}

	cacheKey := q + "|" + strconv.FormatFloat(threshold, 'f', -1, 64)
	if r.cache != nil {
		if cached, ok := r.cache.Get(ctx, cacheKey); ok {
			metrics.RecordResolveCacheHit()
			return rebindQuery(cached, raw)
		}
		metrics.RecordResolveCacheMiss()
	}

	out := r.resolveStages(ctx, t, raw, q, threshold)

	if r.cache != nil {
		r.cache.Put(ctx, cacheKey, out)
	}
	return out
}

func (r *Resolver) resolveStages(ctx context.Context, t Table, raw, q string, threshold float64) []model.MatchCandidate {
	// Exact stage.
	if rec, ok := t.Get(ctx, q); ok {
		metrics.RecordResolution(string(model.MatchExact))
		return []model.MatchCandidate{{
			Query:      raw,
			MatchedID:  rec.ID,
			Method:     model.MatchExact,
			Similarity: 1,
			Record:     rec,
		}}
	}

	// Prefix stage: the query is a prefix of a canonical id (partial typing).
	if out := r.prefixStage(ctx, t, raw, q); len(out) > 0 {
		metrics.RecordResolution(string(model.MatchPrefix))
		return out
	}

	// Fuzzy stage: score every canonical id and keep those above threshold.
	if out := r.fuzzyStage(ctx, t, raw, q, threshold); len(out) > 0 {
		metrics.RecordResolution(string(model.MatchFuzzy))
		metrics.RecordFuzzySimilarity(out[0].Similarity)
		return out
	}

	metrics.RecordResolution(string(model.MatchUnmatched))
	return []model.MatchCandidate{unmatched(raw)}
}

// prefixStage returns the ids the query partially types out, in ascending
// id order. Only the forward direction counts: a query that extends a
// canonical id is noisy input, not partial typing, and falls through to the
// fuzzy stage where the threshold can still reject it.
func (r *Resolver) prefixStage(ctx context.Context, t Table, raw, q string) []model.MatchCandidate {
	ids := t.PrefixSearch(ctx, q, r.topK)
	if len(ids) == 0 {
		return nil
	}

	out := make([]model.MatchCandidate, 0, len(ids))
	for _, id := range ids {
		if id == q {
			continue // exact stage already ruled this out
		}
		rec, _ := t.Get(ctx, id)
		out = append(out, model.MatchCandidate{
			Query:      raw,
			MatchedID:  id,
			Method:     model.MatchPrefix,
			Similarity: 1,
			Record:     rec,
		})
	}
	return out
}

// fuzzyStage scans the whole id space. Cost is bounded by table size; the
// top-K cap bounds the result, not the scan.
func (r *Resolver) fuzzyStage(ctx context.Context, t Table, raw, q string, threshold float64) []model.MatchCandidate {
	type scored struct {
		id  string
		sim float64
	}
	var kept []scored

	for _, id := range t.IDs(ctx) {
		sim := similarity.Ratio(q, id)
		if sim >= threshold {
			kept = append(kept, scored{id: id, sim: sim})
		}
	}
	if len(kept) == 0 {
		return nil
	}

	sort.Slice(kept, func(a, b int) bool {
		if kept[a].sim != kept[b].sim {
			return kept[a].sim > kept[b].sim
		}
		return kept[a].id < kept[b].id
	})
	if len(kept) > r.topK {
		kept = kept[:r.topK]
	}

	out := make([]model.MatchCandidate, 0, len(kept))
	for _, s := range kept {
		rec, _ := t.Get(ctx, s.id)
		out = append(out, model.MatchCandidate{
			Query:      raw,
			MatchedID:  s.id,
			Method:     model.MatchFuzzy,
			Similarity: s.sim,
			Record:     rec,
		})
	}
	return out
}

func unmatched(raw string) model.MatchCandidate {
	return model.MatchCandidate{
		Query:  raw,
		Method: model.MatchUnmatched,
	}
}

// rebindQuery rewrites the raw query on cached candidates; the cache key is
// the normalized form, so "MecA" and "meca " share an entry.
func rebindQuery(cached []model.MatchCandidate, raw string) []model.MatchCandidate {
	out := make([]model.MatchCandidate, len(cached))
	copy(out, cached)
	for i := range out {
		out[i].Query = raw
	}
	return out
}
