package cache

import (
	"container/list"
	"sync"
	"time"
)

type lruEntry[K comparable, V any] struct {
	key       K
	value     V
	expiresAt time.Time // zero means the entry never expires
}

func (e *lruEntry[K, V]) expired(now time.Time) bool {
	return !e.expiresAt.IsZero() && !now.Before(e.expiresAt)
}

// LRUCache is a thread-safe LRU cache with optional per-entry expiration.
// When the cache reaches its capacity, the least recently used item is evicted.
// Expired entries are dropped lazily on access.
type LRUCache[K comparable, V any] struct {
	capacity int
	items    map[K]*list.Element
	eviction *list.List
	mu       sync.Mutex
	onEvict  func(key K, value V) // called for live entries evicted by capacity
	now      func() time.Time
}

// Option configures an LRUCache.
type Option func(*settings)

type settings struct {
	now func() time.Time
}

// WithClock replaces the time source used to expire entries.
func WithClock(now func() time.Time) Option {
	return func(s *settings) {
		if now != nil {
			s.now = now
		}
	}
}

// NewLRUCache creates a new LRU cache with the specified capacity.
// The capacity must be positive, otherwise it panics.
func NewLRUCache[K comparable, V any](capacity int, opts ...Option) *LRUCache[K, V] {
	if capacity <= 0 {
		panic("LRU cache capacity must be positive")
	}

	s := settings{now: time.Now}
	for _, opt := range opts {
		opt(&s)
	}

	return &LRUCache[K, V]{
		capacity: capacity,
		items:    make(map[K]*list.Element),
		eviction: list.New(),
		now:      s.now,
	}
}

// SetEvictCallback sets a function called when a live entry is evicted to
// make room for a new one. Expired entries and Remove do not trigger it.
// The callback runs with the cache lock held and must not call back into
// the cache.
func (c *LRUCache[K, V]) SetEvictCallback(fn func(key K, value V)) {
	c.mu.Lock()
	defer c.mu.Unlock()
	c.onEvict = fn
}

// Get retrieves a live value from the cache and marks it as recently used.
func (c *LRUCache[K, V]) Get(key K) (V, bool) {
	c.mu.Lock()
	defer c.mu.Unlock()

	if entry := c.lookup(key); entry != nil {
		return entry.value, true
	}

	var zero V
	return zero, false
}

// Add stores the value only if the key holds no live entry.
// It reports whether the value was stored.
func (c *LRUCache[K, V]) Add(key K, value V, ttl time.Duration) bool {
	c.mu.Lock()
	defer c.mu.Unlock()

	if c.lookup(key) != nil {
		return false
	}
	c.insert(key, value, ttl)
	return true
}

// Update atomically replaces the value with fn(old, found). A new entry is
// created with ttl; an existing entry keeps its expiration.
func (c *LRUCache[K, V]) Update(key K, ttl time.Duration, fn func(old V, found bool) V) V {
	c.mu.Lock()
	defer c.mu.Unlock()

	if entry := c.lookup(key); entry != nil {
		entry.value = fn(entry.value, true)
		return entry.value
	}

	var zero V
	value := fn(zero, false)
	c.insert(key, value, ttl)
	return value
}

// Remove removes an item from the cache.
// Returns the removed value and true if it existed, zero value and false otherwise.
func (c *LRUCache[K, V]) Remove(key K) (V, bool) {
	c.mu.Lock()
	defer c.mu.Unlock()

	if elem, ok := c.items[key]; ok {
		return c.removeElement(elem).value, true
	}

	var zero V
	return zero, false
}

// Len returns the number of entries, expired ones not yet dropped included.
func (c *LRUCache[K, V]) Len() int {
	c.mu.Lock()
	defer c.mu.Unlock()
	return c.eviction.Len()
}

// Must be called with lock held. Returns nil for missing or expired keys.
func (c *LRUCache[K, V]) lookup(key K) *lruEntry[K, V] {
	elem, ok := c.items[key]
	if !ok {
		return nil
	}

	entry := elem.Value.(*lruEntry[K, V])
	if entry.expired(c.now()) {
		c.removeElement(elem)
		return nil
	}

	c.eviction.MoveToFront(elem)
	return entry
}

// Must be called with lock held.
func (c *LRUCache[K, V]) insert(key K, value V, ttl time.Duration) {
	entry := &lruEntry[K, V]{key: key, value: value, expiresAt: c.deadline(ttl)}
	c.items[key] = c.eviction.PushFront(entry)

	if c.eviction.Len() > c.capacity {
		c.evictOldest()
	}
}

func (c *LRUCache[K, V]) deadline(ttl time.Duration) time.Time {
	if ttl <= 0 {
		return time.Time{}
	}
	return c.now().Add(ttl)
}

// Must be called with lock held.
func (c *LRUCache[K, V]) evictOldest() {
	elem := c.eviction.Back()
	if elem == nil {
		return
	}

	entry := c.removeElement(elem)
	if c.onEvict != nil && !entry.expired(c.now()) {
		c.onEvict(entry.key, entry.value)
	}
}

// Must be called with lock held.
func (c *LRUCache[K, V]) removeElement(elem *list.Element) *lruEntry[K, V] {
	c.eviction.Remove(elem)
	entry := elem.Value.(*lruEntry[K, V])
	delete(c.items, entry.key)
	return entry
}
