package isda

import (
	"context"
	"encoding/json"
	"fmt"
	"sync"

	"github.com/couchcryptid/soil-analysis-service/internal/domain"
	"github.com/couchcryptid/soil-analysis-service/internal/observability"
)

// CachedSource wraps a SoilDataSource with an in-memory LRU cache of property
// payloads keyed by coordinate. iSDA data is a static raster, so repeat
// analyses of the same farm skip the expensive unfiltered fetch.
type CachedSource struct {
	inner   domain.SoilDataSource
	cache   *lruCache
	metrics *observability.Metrics
}

// NewCachedSource creates a cache decorator around a soil data source.
func NewCachedSource(inner domain.SoilDataSource, maxEntries int, metrics *observability.Metrics) *CachedSource {
	return &CachedSource{
		inner:   inner,
		cache:   newLRUCache(maxEntries),
		metrics: metrics,
	}
}

func (c *CachedSource) EnsureAuthenticated(ctx context.Context) error {
	return c.inner.EnsureAuthenticated(ctx)
}

func (c *CachedSource) AvailableLayers(ctx context.Context) (json.RawMessage, error) {
	return c.inner.AvailableLayers(ctx)
}

func (c *CachedSource) SoilProperties(ctx context.Context, lat, lon float64) (domain.PropertyPayload, error) {
	// 6 decimal places ≈ 0.1m, far below the provider's 30m raster resolution.
	key := fmt.Sprintf("%.6f,%.6f", lat, lon)
	if payload, ok := c.cache.get(key); ok {
		c.metrics.PayloadCache.WithLabelValues("hit").Inc()
		return payload, nil
	}
	c.metrics.PayloadCache.WithLabelValues("miss").Inc()

	payload, err := c.inner.SoilProperties(ctx, lat, lon)
	if err != nil {
		return payload, err
	}
	// Only cache non-empty payloads so transient empty responses can be retried.
	if len(payload.Property) > 0 {
		c.cache.put(key, payload)
	}
	return payload, nil
}

// lruCache is a simple thread-safe LRU cache for property payloads.
type lruCache struct {
	maxEntries int
	mu         sync.Mutex
	entries    map[string]*entry
	head       *entry // most recently used
	tail       *entry // least recently used
}

type entry struct {
	key   string
	value domain.PropertyPayload
	prev  *entry
	next  *entry
}

func newLRUCache(maxEntries int) *lruCache {
	return &lruCache{
		maxEntries: maxEntries,
		entries:    make(map[string]*entry),
	}
}

func (c *lruCache) get(key string) (domain.PropertyPayload, bool) {
	c.mu.Lock()
	defer c.mu.Unlock()

	e, ok := c.entries[key]
	if !ok {
		return domain.PropertyPayload{}, false
	}
	c.moveToFront(e)
	return e.value, true
}

func (c *lruCache) put(key string, value domain.PropertyPayload) {
	c.mu.Lock()
	defer c.mu.Unlock()

	if e, ok := c.entries[key]; ok {
		e.value = value
		c.moveToFront(e)
		return
	}

	e := &entry{key: key, value: value}
	c.entries[key] = e
	c.addToFront(e)

	if len(c.entries) > c.maxEntries {
		c.evictTail()
	}
}

func (c *lruCache) moveToFront(e *entry) {
	if e == c.head {
		return
	}
	c.remove(e)
	c.addToFront(e)
}

func (c *lruCache) addToFront(e *entry) {
	e.next = c.head
	e.prev = nil
	if c.head != nil {
		c.head.prev = e
	}
	c.head = e
	if c.tail == nil {
		c.tail = e
	}
}

func (c *lruCache) remove(e *entry) {
	if e.prev != nil {
		e.prev.next = e.next
	} else {
		c.head = e.next
	}
	if e.next != nil {
		e.next.prev = e.prev
	} else {
		c.tail = e.prev
	}
}

func (c *lruCache) evictTail() {
	if c.tail == nil {
		return
	}
	delete(c.entries, c.tail.key)
	c.remove(c.tail)
}
