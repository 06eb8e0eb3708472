// Package cache implements the bounded in-process caches used by the SSO gate.
//
// Every cache is a mutex-guarded LRU with a per-cache TTL. Two expiry policies
// are supported: ExpireAfterWrite (entry lifetime measured from the last Put,
// used for the session-validation cache whose window mirrors the remote
// service's own re-validation interval) and ExpireAfterAccess (lifetime reset
// on every Get, used for the principal, user and group caches).
package cache

import (
	"container/list"
	"sync"
	"time"
)

// Policy selects how an entry's expiry deadline is maintained.
type Policy int

const (
	// ExpireAfterWrite measures the TTL from the last Put of the key.
	ExpireAfterWrite Policy = iota
	// ExpireAfterAccess resets the TTL on every Get (sliding expiry).
	ExpireAfterAccess
)

// Cache is a bounded LRU with TTL, safe for concurrent use.
// Values may be nil pointers; a stored nil is a regular entry and Get
// reports it as a hit.
type Cache[V any] struct {
	mu     sync.Mutex
	cap    int
	ttl    time.Duration
	policy Policy
	items  map[string]*list.Element
	lru    *list.List

	// now is swapped out in tests to drive expiry deterministically.
	now func() time.Time
}

type entry[V any] struct {
	key    string
	value  V
	expiry time.Time
}

// Option configures a Cache.
type Option[V any] func(*Cache[V])

// WithNow overrides the cache's clock. Intended for tests.
func WithNow[V any](now func() time.Time) Option[V] {
	return func(c *Cache[V]) { c.now = now }
}

// New creates a cache holding at most capacity entries whose lifetime is ttl
// under the given policy.
func New[V any](capacity int, ttl time.Duration, policy Policy, opts ...Option[V]) *Cache[V] {
	if capacity <= 0 {
		capacity = 1
	}

	c := &Cache[V]{
		cap:    capacity,
		ttl:    ttl,
		policy: policy,
		items:  make(map[string]*list.Element),
		lru:    list.New(),
		now:    time.Now,
	}

	for _, opt := range opts {
		opt(c)
	}

	return c
}

// Get returns the value stored under key and whether it was present and
// unexpired. Under ExpireAfterAccess the entry's deadline is pushed out by
// the cache TTL. Expired entries are removed on lookup.
func (c *Cache[V]) Get(key string) (V, bool) {
	var zero V

	c.mu.Lock()
	defer c.mu.Unlock()

	el, ok := c.items[key]
	if !ok {
		return zero, false
	}

	ent := el.Value.(*entry[V]) //nolint:forcetypeassert // list only holds *entry[V]

	now := c.now()
	if !now.Before(ent.expiry) {
		delete(c.items, key)
		c.lru.Remove(el)

		return zero, false
	}

	if c.policy == ExpireAfterAccess {
		ent.expiry = now.Add(c.ttl)
	}

	c.lru.MoveToFront(el)

	return ent.value, true
}

// Put stores value under key, replacing any previous entry and resetting its
// deadline. The least recently used entry is evicted when the cache is full.
func (c *Cache[V]) Put(key string, value V) {
	c.mu.Lock()
	defer c.mu.Unlock()

	expiry := c.now().Add(c.ttl)

	if el, ok := c.items[key]; ok {
		ent := el.Value.(*entry[V]) //nolint:forcetypeassert // list only holds *entry[V]
		ent.value = value
		ent.expiry = expiry
		c.lru.MoveToFront(el)

		return
	}

	if c.lru.Len() >= c.cap {
		if back := c.lru.Back(); back != nil {
			ent := back.Value.(*entry[V]) //nolint:forcetypeassert // list only holds *entry[V]
			delete(c.items, ent.key)
			c.lru.Remove(back)
		}
	}

	c.items[key] = c.lru.PushFront(&entry[V]{key: key, value: value, expiry: expiry})
}

// Invalidate removes the entry stored under key, if any. Removing an absent
// key is a no-op.
func (c *Cache[V]) Invalidate(key string) {
	c.mu.Lock()
	defer c.mu.Unlock()

	if el, ok := c.items[key]; ok {
		delete(c.items, key)
		c.lru.Remove(el)
	}
}

// Len reports the number of entries currently held, including entries that
// have expired but not yet been looked up.
func (c *Cache[V]) Len() int {
	c.mu.Lock()
	defer c.mu.Unlock()

	return c.lru.Len()
}
