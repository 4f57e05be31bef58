// Package memo defines a bounded cache for resolved queries. Batch uploads
// repeat identifiers often, so memoizing resolution results saves repeated
// fuzzy scans over the whole table.
package memo

import (
	"context"
	"sync"
	"sync/atomic"

	"github.com/Jaber-Ghorbani/arg-risk-lookup/internal/domain/model"
)

// Cache stores resolution results keyed by normalized query. Implementations
// must be safe for concurrent use.
type Cache interface {
	// Get returns the cached candidates for key, if present.
	Get(ctx context.Context, key string) ([]model.MatchCandidate, bool)

	// Put records candidates under key, evicting an old entry when full.
	Put(ctx context.Context, key string, candidates []model.MatchCandidate)

	Size() int64
}

// node is a single entry in the eviction list.
type node struct {
	key        string
	candidates []model.MatchCandidate
	next       *node
}

// reset clears the node state for reuse.
func (n *node) reset() {
	n.key = ""
	n.candidates = nil
	n.next = nil
}

// inMemoryCache implements Cache with a map plus a linked list for LIFO
// eviction in bounded mode.
// For bounded mode (maxSize > 0): linked list with LIFO eviction and a
// sync.Pool for nodes.
// For unbounded mode (maxSize <= 0): plain map, no eviction.
type inMemoryCache struct {
	mu       sync.RWMutex
	entries  map[string]*node
	head     *node // most recently added
	maxSize  int   // 0 or negative = unbounded
	size     atomic.Int64
	nodePool sync.Pool
}

// New creates an in-memory cache with configuration options.
func New(opts ...Option) Cache {
	c := &inMemoryCache{
		maxSize: 10000, // default max size
	}

	for _, opt := range opts {
		opt(c)
	}

	c.entries = make(map[string]*node)
	if c.maxSize > 0 {
		c.nodePool = sync.Pool{
			New: func() interface{} {
				return &node{}
			},
		}
	}

	return c
}

// Get returns the cached candidates for key, if present.
func (c *inMemoryCache) Get(_ context.Context, key string) ([]model.MatchCandidate, bool) {
	c.mu.RLock()
	defer c.mu.RUnlock()

	n, ok := c.entries[key]
	if !ok {
		return nil, false
	}
	return n.candidates, true
}

// Put records candidates under key. Existing entries are left untouched;
// resolution is deterministic for a fixed table, so the first write is as
// good as any later one.
func (c *inMemoryCache) Put(_ context.Context, key string, candidates []model.MatchCandidate) {
	c.mu.Lock()
	defer c.mu.Unlock()

	if _, exists := c.entries[key]; exists {
		return
	}

	if c.maxSize > 0 && len(c.entries) >= c.maxSize {
		c.evictLIFO()
	}

	n := c.newNode()
	n.key = key
	n.candidates = candidates
	n.next = c.head

	c.head = n
	c.entries[key] = n
	c.size.Add(1)
}

func (c *inMemoryCache) newNode() *node {
	if c.maxSize > 0 {
		return c.nodePool.Get().(*node)
	}
	return &node{}
}

// evictLIFO removes the oldest entry (tail of the list).
// Must be called with c.mu held.
func (c *inMemoryCache) evictLIFO() {
	if len(c.entries) == 0 || c.head == nil {
		return
	}

	// Single node: drop it.
	if c.head.next == nil {
		delete(c.entries, c.head.key)
		c.head.reset()
		c.nodePool.Put(c.head)
		c.head = nil
		c.size.Add(-1)
		return
	}

	// Walk to the second-to-last node.
	prev := c.head
	for prev.next.next != nil {
		prev = prev.next
	}

	tail := prev.next
	prev.next = nil
	delete(c.entries, tail.key)
	tail.reset()
	c.nodePool.Put(tail)
	c.size.Add(-1)
}

// Size returns the current number of cached entries.
func (c *inMemoryCache) Size() int64 {
	return c.size.Load()
}
