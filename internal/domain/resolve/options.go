// Package resolve turns one raw identifier into ranked candidate matches.
package resolve

import "github.com/Jaber-Ghorbani/arg-risk-lookup/internal/domain/memo"

// Option applies a configuration option to the Resolver.
type Option func(*Resolver)

// WithThreshold sets the default minimum similarity for fuzzy matches.
func WithThreshold(threshold float64) Option {
	return func(r *Resolver) {
		if threshold > 0 && threshold <= 1 {
			r.threshold = threshold
		}
	}
}

// WithTopK caps the number of candidates returned per stage.
func WithTopK(k int) Option {
	return func(r *Resolver) {
		if k > 0 {
			r.topK = k
		}
	}
}

// WithCache memoizes resolution results keyed by normalized query. The
// caller owns invalidation: drop the cache together with the table it was
// built against.
func WithCache(cache memo.Cache) Option {
	return func(r *Resolver) {
		r.cache = cache
	}
}
