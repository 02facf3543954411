package engine

import "github.com/piwi3910/GridPlan/internal/model"

// SolutionCache memoizes the best shape of every expression evaluated during
// one run. A nil entry marks an infeasible expression. Entries are never evicted.
type SolutionCache struct {
	entries map[string]*model.Shape
	hits    int
	keyType model.CacheKey
}

// NewSolutionCache returns a cache keyed by the exact expression text.
func NewSolutionCache() *SolutionCache {
	return NewSolutionCacheFor(model.CacheKeyExact)
}

// NewSolutionCacheFor returns a cache keyed the way kind selects. Trees
// consult KeyType to pick their key; an empty kind means exact.
func NewSolutionCacheFor(kind model.CacheKey) *SolutionCache {
	if kind == "" {
		kind = model.CacheKeyExact
	}
	return &SolutionCache{entries: make(map[string]*model.Shape), keyType: kind}
}

// KeyType reports how trees key their entries in this cache.
func (c *SolutionCache) KeyType() model.CacheKey {
	return c.keyType
}

// Reset drops all entries and the hit counter.
func (c *SolutionCache) Reset() {
	c.entries = make(map[string]*model.Shape)
	c.hits = 0
}

// Fetch returns a copy of the cached shape for the exact expression.
// A hit with a nil shape means the expression is known to be infeasible.
func (c *SolutionCache) Fetch(e Expression) (*model.Shape, bool) {
	return c.FetchKey(e.Key())
}

// FetchKey is Fetch for a precomputed key.
func (c *SolutionCache) FetchKey(key string) (*model.Shape, bool) {
	shape, ok := c.entries[key]
	if !ok {
		return nil, false
	}
	c.hits++
	return cloneShape(shape), true
}

// Store records the best shape (or nil) for an expression.
func (c *SolutionCache) Store(e Expression, shape *model.Shape) {
	c.StoreKey(e.Key(), shape)
}

// StoreKey is Store for a precomputed key.
func (c *SolutionCache) StoreKey(key string, shape *model.Shape) {
	c.entries[key] = cloneShape(shape)
}

func (c *SolutionCache) Len() int {
	return len(c.entries)
}

func (c *SolutionCache) Hits() int {
	return c.hits
}

func cloneShape(s *model.Shape) *model.Shape {
	if s == nil {
		return nil
	}
	cp := s.Clone()
	return &cp
}
