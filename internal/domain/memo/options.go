// Package memo defines a bounded cache for resolved queries.
package memo

// Option applies a configuration option to the in-memory cache.
type Option func(*inMemoryCache)

// WithMaxSize sets the maximum number of entries to keep.
// If maxSize > 0: bounded mode with LIFO eviction.
// If maxSize <= 0: unbounded mode (no eviction, no size limit).
func WithMaxSize(maxSize int) Option {
	return func(c *inMemoryCache) {
		c.maxSize = maxSize
	}
}
