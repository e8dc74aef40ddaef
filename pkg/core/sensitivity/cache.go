package sensitivity

import (
	"sync"

	"github.com/golang/groupcache/lru"

	"dcf_valuation/pkg/core/valuation"
)

type valueKey struct {
	base   float64
	params valuation.ModelParameters
}

type impliedKey struct {
	target float64
	base   float64
	params valuation.ModelParameters
	solver solverKey
}

type solverKey struct {
	bounds     valuation.Bounds
	iterations int
	tolerance  float64
}

// cellCache memoizes cell results across grid calls, keyed on the full input tuple.
type cellCache struct {
	mu    sync.Mutex
	cache *lru.Cache
}

func newCellCache(size int) *cellCache {
	if size <= 0 {
		return nil
	}
	return &cellCache{cache: lru.New(size)}
}

func (c *cellCache) get(key lru.Key) (Cell, bool) {
	if c == nil {
		return Cell{}, false
	}
	c.mu.Lock()
	defer c.mu.Unlock()
	v, ok := c.cache.Get(key)
	if !ok {
		return Cell{}, false
	}
	return v.(Cell), true
}

func (c *cellCache) add(key lru.Key, cell Cell) {
	if c == nil {
		return
	}
	c.mu.Lock()
	c.cache.Add(key, cell)
	c.mu.Unlock()
}

func (c *cellCache) len() int {
	if c == nil {
		return 0
	}
	c.mu.Lock()
	defer c.mu.Unlock()
	return c.cache.Len()
}
