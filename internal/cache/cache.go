// Package cache provides a memoizing TTL cache. Each namespace (pages,
// database queries, hours rollups) gets its own instance with its own key
// type and TTL, so unrelated keys can never collide.
package cache

import (
	"context"
	"sync"
	"time"

	"github.com/hashicorp/golang-lru/v2/expirable"
)

// entry is either resolved or in flight; done closes on resolution.
type entry[V any] struct {
	done chan struct{}
	val  V
	err  error
}

// Cache memoizes the results of a loader function for a TTL and collapses
// concurrent identical lookups into a single underlying call: the promise is
// stored before the loader resolves, so a second caller arriving during the
// first call waits on it instead of issuing its own.
type Cache[K comparable, V any] struct {
	mu  sync.Mutex
	lru *expirable.LRU[K, *entry[V]]
}

// New creates a cache holding at most size entries, each expiring ttl after
// being stored.
func New[K comparable, V any](size int, ttl time.Duration) *Cache[K, V] {
	return &Cache[K, V]{
		lru: expirable.NewLRU[K, *entry[V]](size, nil, ttl),
	}
}

// Do returns the cached value for key, waiting on an in-flight load if one
// exists, or runs load and caches its result. Errors are never cached: a
// failed entry is evicted so the next caller retries, but every caller that
// shared the failed in-flight call receives its error.
func (c *Cache[K, V]) Do(ctx context.Context, key K, load func(context.Context) (V, error)) (V, error) {
	c.mu.Lock()
	if e, ok := c.lru.Get(key); ok {
		c.mu.Unlock()
		select {
		case <-e.done:
			return e.val, e.err
		case <-ctx.Done():
			var zero V
			return zero, ctx.Err()
		}
	}

	e := &entry[V]{done: make(chan struct{})}
	c.lru.Add(key, e)
	c.mu.Unlock()

	e.val, e.err = load(ctx)
	close(e.done)

	if e.err != nil {
		c.mu.Lock()
		if cur, ok := c.lru.Peek(key); ok && cur == e {
			c.lru.Remove(key)
		}
		c.mu.Unlock()
	}
	return e.val, e.err
}

// Put stores an already-resolved value, replacing whatever is cached. Used
// to eagerly refresh a record after a successful write so a read in the same
// tick does not race the write's propagation delay.
func (c *Cache[K, V]) Put(key K, val V) {
	e := &entry[V]{done: make(chan struct{}), val: val}
	close(e.done)

	c.mu.Lock()
	c.lru.Add(key, e)
	c.mu.Unlock()
}

// Forget drops the cached value for key.
func (c *Cache[K, V]) Forget(key K) {
	c.mu.Lock()
	c.lru.Remove(key)
	c.mu.Unlock()
}

// Len reports the number of cached (including in-flight) entries.
func (c *Cache[K, V]) Len() int {
	c.mu.Lock()
	defer c.mu.Unlock()
	return c.lru.Len()
}
