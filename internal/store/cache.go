package store

import (
	"context"
	"slices"
	"sync"

	"github.com/couchcryptid/groundwater-hmpi-service/internal/domain"
)

// CacheObserver is notified of every cached batch lookup.
type CacheObserver interface {
	CacheLookup(hit bool)
}

// CachedStore wraps a Store with an in-memory LRU cache of batch samples.
// Batches never change after SaveBatch, so entries only leave the cache on
// eviction or DeleteBatch.
type CachedStore struct {
	Store
	cache    *lruCache
	observer CacheObserver
}

// NewCachedStore creates a cache decorator around a store. observer may be nil.
func NewCachedStore(inner Store, maxEntries int, observer CacheObserver) *CachedStore {
	return &CachedStore{
		Store:    inner,
		cache:    newLRUCache(maxEntries),
		observer: observer,
	}
}

func (c *CachedStore) BatchSamples(ctx context.Context, id string) ([]domain.Sample, error) {
	if samples, ok := c.cache.get(id); ok {
		c.observe(true)
		return slices.Clone(samples), nil
	}
	c.observe(false)

	gen := c.cache.generation(id)
	samples, err := c.Store.BatchSamples(ctx, id)
	if err != nil {
		return nil, err
	}
	c.cache.put(id, slices.Clone(samples), gen)
	return samples, nil
}

// DeleteBatch invalidates before and after the inner delete. A load that
// began before the second invalidation carries a stale generation and is
// not cached.
func (c *CachedStore) DeleteBatch(ctx context.Context, id string) error {
	c.cache.invalidate(id)
	defer c.cache.invalidate(id)
	return c.Store.DeleteBatch(ctx, id)
}

func (c *CachedStore) observe(hit bool) {
	if c.observer != nil {
		c.observer.CacheLookup(hit)
	}
}

// lruCache is a simple thread-safe LRU cache keyed by batch id.
type lruCache struct {
	maxEntries int
	mu         sync.Mutex
	entries    map[string]*entry
	gens       map[string]uint64 // bumped on every invalidate
	head       *entry            // most recently used
	tail       *entry            // least recently used
}

type entry struct {
	key   string
	value []domain.Sample
	prev  *entry
	next  *entry
}

func newLRUCache(maxEntries int) *lruCache {
	if maxEntries < 1 {
		maxEntries = 1
	}
	return &lruCache{
		maxEntries: maxEntries,
		entries:    make(map[string]*entry),
		gens:       make(map[string]uint64),
	}
}

func (c *lruCache) get(key string) ([]domain.Sample, bool) {
	c.mu.Lock()
	defer c.mu.Unlock()

	e, ok := c.entries[key]
	if !ok {
		return nil, false
	}
	c.moveToFront(e)
	return e.value, true
}

// generation returns the invalidation count for key.
func (c *lruCache) generation(key string) uint64 {
	c.mu.Lock()
	defer c.mu.Unlock()
	return c.gens[key]
}

// invalidate drops key and rejects in-flight loads of it.
func (c *lruCache) invalidate(key string) {
	c.mu.Lock()
	defer c.mu.Unlock()
	c.gens[key]++
	c.drop(key)
}

// put stores value unless key was invalidated after gen was read.
func (c *lruCache) put(key string, value []domain.Sample, gen uint64) {
	c.mu.Lock()
	defer c.mu.Unlock()

	if c.gens[key] != gen {
		return
	}
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

func (c *lruCache) drop(key string) {
	e, ok := c.entries[key]
	if !ok {
		return
	}
	delete(c.entries, key)
	c.unlink(e)
}

func (c *lruCache) moveToFront(e *entry) {
	if e == c.head {
		return
	}
	c.unlink(e)
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

func (c *lruCache) unlink(e *entry) {
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
	c.unlink(c.tail)
}
