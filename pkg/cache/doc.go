// Package cache provides a generic, thread-safe LRU cache with optional
// per-entry expiration.
//
// The cache evicts the least recently used entry once it reaches its
// capacity, and drops expired entries lazily when they are touched. It backs
// the in-process counter store of the rate limiter, where counters must
// vanish when their window ends and memory must stay bounded no matter how
// many identifiers are seen.
//
// # Usage
//
//	c := cache.NewLRUCache[string, int64](10_000)
//
//	c.Add("session:abc", 1, time.Minute) // expires after a minute
//	c.Add("config", 42, 0)               // never expires
//
//	v, ok := c.Get("session:abc")
//	c.Remove("config")
//
// # Atomic updates
//
// Add writes only when no live entry exists, and Update performs a
// read-modify-write under the cache lock. A counter increment that keeps
// the original expiration looks like:
//
//	n := c.Update("hits:client-1", time.Minute, func(old int64, _ bool) int64 {
//		return old + 1
//	})
//
// # Eviction callbacks
//
// SetEvictCallback registers a function called when a live entry is pushed
// out by capacity. Entries dropped on expiry or by Remove do not invoke it,
// so the callback sees exactly the data the cache lost early:
//
//	c.SetEvictCallback(func(key string, _ int64) {
//		evicted.Add(1)
//	})
//
// # Testing
//
// WithClock swaps the time source so expiration can be driven by a fake clock:
//
//	c := cache.NewLRUCache[string, int](8, cache.WithClock(clock.Now))
package cache
