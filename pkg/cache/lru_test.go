package cache_test

import (
	"sync"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/dmitrymomot/ratekit/pkg/cache"
)

type fakeClock struct {
	mu  sync.Mutex
	now time.Time
}

func newFakeClock() *fakeClock {
	return &fakeClock{now: time.Unix(1_700_000_000, 0)}
}

func (c *fakeClock) Now() time.Time {
	c.mu.Lock()
	defer c.mu.Unlock()
	return c.now
}

func (c *fakeClock) Advance(d time.Duration) {
	c.mu.Lock()
	defer c.mu.Unlock()
	c.now = c.now.Add(d)
}

func TestLRUCache_Basic(t *testing.T) {
	t.Parallel()

	t.Run("add and get", func(t *testing.T) {
		t.Parallel()
		c := cache.NewLRUCache[string, int](3)

		c.Add("a", 1, 0)
		c.Add("b", 2, 0)

		val, ok := c.Get("a")
		assert.True(t, ok)
		assert.Equal(t, 1, val)

		val, ok = c.Get("b")
		assert.True(t, ok)
		assert.Equal(t, 2, val)
		assert.Equal(t, 2, c.Len())
	})

	t.Run("get non-existent", func(t *testing.T) {
		t.Parallel()
		c := cache.NewLRUCache[string, int](3)

		val, ok := c.Get("missing")
		assert.False(t, ok)
		assert.Equal(t, 0, val)
	})
}

func TestLRUCache_Expiration(t *testing.T) {
	t.Parallel()

	t.Run("entry expires after ttl", func(t *testing.T) {
		t.Parallel()
		clock := newFakeClock()
		c := cache.NewLRUCache[string, int](3, cache.WithClock(clock.Now))

		c.Add("a", 1, 10*time.Second)

		clock.Advance(9 * time.Second)
		_, ok := c.Get("a")
		assert.True(t, ok)

		clock.Advance(time.Second)
		_, ok = c.Get("a")
		assert.False(t, ok)
		assert.Equal(t, 0, c.Len())
	})

	t.Run("zero ttl never expires", func(t *testing.T) {
		t.Parallel()
		clock := newFakeClock()
		c := cache.NewLRUCache[string, int](3, cache.WithClock(clock.Now))

		c.Add("a", 1, 0)
		clock.Advance(24 * time.Hour)

		_, ok := c.Get("a")
		assert.True(t, ok)
	})

	t.Run("expired entries do not fire evict callback", func(t *testing.T) {
		t.Parallel()
		clock := newFakeClock()
		c := cache.NewLRUCache[string, int](3, cache.WithClock(clock.Now))

		var evicted []string
		c.SetEvictCallback(func(key string, _ int) {
			evicted = append(evicted, key)
		})

		c.Add("a", 1, time.Second)
		clock.Advance(time.Second)
		c.Get("a")

		assert.Empty(t, evicted)
	})
}

func TestLRUCache_Add(t *testing.T) {
	t.Parallel()

	clock := newFakeClock()
	c := cache.NewLRUCache[string, int](3, cache.WithClock(clock.Now))

	assert.True(t, c.Add("a", 1, time.Second))
	assert.False(t, c.Add("a", 2, time.Second), "live entry must not be overwritten")

	val, _ := c.Get("a")
	assert.Equal(t, 1, val)

	clock.Advance(time.Second)
	assert.True(t, c.Add("a", 3, time.Second), "expired entry can be replaced")

	val, _ = c.Get("a")
	assert.Equal(t, 3, val)
}

func TestLRUCache_Update(t *testing.T) {
	t.Parallel()

	t.Run("keeps original expiration", func(t *testing.T) {
		t.Parallel()
		clock := newFakeClock()
		c := cache.NewLRUCache[string, int](3, cache.WithClock(clock.Now))
		incr := func(old int, _ bool) int { return old + 1 }

		assert.Equal(t, 1, c.Update("n", 10*time.Second, incr))
		clock.Advance(6 * time.Second)
		assert.Equal(t, 2, c.Update("n", 10*time.Second, incr))

		clock.Advance(3 * time.Second)
		val, ok := c.Get("n")
		require.True(t, ok)
		assert.Equal(t, 2, val)

		clock.Advance(time.Second)
		assert.Equal(t, 1, c.Update("n", 10*time.Second, incr), "expired counter restarts")
	})

	t.Run("reports whether the entry existed", func(t *testing.T) {
		t.Parallel()
		c := cache.NewLRUCache[string, int](3)

		var seen []bool
		fn := func(old int, found bool) int {
			seen = append(seen, found)
			return old
		}
		c.Update("k", 0, fn)
		c.Update("k", 0, fn)

		assert.Equal(t, []bool{false, true}, seen)
	})

	t.Run("concurrent updates are atomic", func(t *testing.T) {
		t.Parallel()
		c := cache.NewLRUCache[string, int](3)

		var wg sync.WaitGroup
		for range 100 {
			wg.Add(1)
			go func() {
				defer wg.Done()
				c.Update("n", 0, func(old int, _ bool) int { return old + 1 })
			}()
		}
		wg.Wait()

		val, _ := c.Get("n")
		assert.Equal(t, 100, val)
	})
}

func TestLRUCache_Eviction(t *testing.T) {
	t.Parallel()

	t.Run("evict least recently used", func(t *testing.T) {
		t.Parallel()
		c := cache.NewLRUCache[string, int](3)

		c.Add("a", 1, 0)
		c.Add("b", 2, 0)
		c.Add("c", 3, 0)
		c.Add("d", 4, 0)

		_, ok := c.Get("a")
		assert.False(t, ok, "a should have been evicted")

		val, ok := c.Get("d")
		assert.True(t, ok)
		assert.Equal(t, 4, val)
		assert.Equal(t, 3, c.Len())
	})

	t.Run("get updates recency", func(t *testing.T) {
		t.Parallel()
		c := cache.NewLRUCache[string, int](3)

		c.Add("a", 1, 0)
		c.Add("b", 2, 0)
		c.Add("c", 3, 0)
		c.Get("a")
		c.Add("d", 4, 0)

		_, ok := c.Get("b")
		assert.False(t, ok, "b should have been evicted")

		_, ok = c.Get("a")
		assert.True(t, ok)
	})

	t.Run("callback on live capacity eviction only", func(t *testing.T) {
		t.Parallel()
		clock := newFakeClock()
		c := cache.NewLRUCache[string, int](2, cache.WithClock(clock.Now))

		evicted := make(map[string]int)
		c.SetEvictCallback(func(key string, value int) {
			evicted[key] = value
		})

		c.Add("a", 1, 0)
		c.Add("b", 2, 0)
		c.Add("c", 3, 0)
		assert.Equal(t, map[string]int{"a": 1}, evicted)

		c.Remove("b")
		assert.NotContains(t, evicted, "b", "remove is not an eviction")

		c.Add("d", 4, time.Second)
		clock.Advance(time.Second)
		c.Add("e", 5, 0)
		c.Add("f", 6, 0)
		assert.Contains(t, evicted, "c")
		assert.NotContains(t, evicted, "d", "expired entries are not reported")
	})
}

func TestLRUCache_Remove(t *testing.T) {
	t.Parallel()

	c := cache.NewLRUCache[string, int](3)
	c.Add("a", 1, 0)
	c.Add("b", 2, 0)

	val, ok := c.Remove("b")
	assert.True(t, ok)
	assert.Equal(t, 2, val)
	assert.Equal(t, 1, c.Len())

	_, ok = c.Get("b")
	assert.False(t, ok)

	_, ok = c.Remove("missing")
	assert.False(t, ok)
}

func TestLRUCache_EdgeCases(t *testing.T) {
	t.Parallel()

	assert.Panics(t, func() {
		cache.NewLRUCache[string, int](0)
	})
	assert.Panics(t, func() {
		cache.NewLRUCache[string, int](-1)
	})
}

func BenchmarkLRUCache_Update(b *testing.B) {
	c := cache.NewLRUCache[int, int](1000)
	incr := func(old int, _ bool) int { return old + 1 }

	b.ResetTimer()
	for i := range b.N {
		c.Update(i%2000, time.Minute, incr)
	}
}
