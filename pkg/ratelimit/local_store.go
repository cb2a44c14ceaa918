package ratelimit

import (
	"context"
	"time"

	"github.com/dmitrymomot/ratekit/pkg/cache"
)

// LocalStore is a bounded in-process Store backed by an expiring LRU cache.
// It suits single-instance deployments that want rolling windows with a
// hard cap on memory; the least recently used identifiers are forgotten
// first once the capacity is reached.
type LocalStore struct {
	entries *cache.LRUCache[string, int64]
}

var _ WindowStartStore = (*LocalStore)(nil)

// LocalStoreOption configures a LocalStore.
type LocalStoreOption func(*localStoreConfig)

type localStoreConfig struct {
	now     func() time.Time
	onEvict func(key string)
}

// WithLocalClock replaces the time source used to expire counters.
func WithLocalClock(now func() time.Time) LocalStoreOption {
	return func(c *localStoreConfig) {
		if now != nil {
			c.now = now
		}
	}
}

// WithEvictionHandler sets a function called with each live key the store
// forgets because it ran out of capacity. An evicted counter restarts from
// zero, so frequent calls mean the capacity is too small for the traffic.
// The handler runs under the store lock and must not use the store.
func WithEvictionHandler(fn func(key string)) LocalStoreOption {
	return func(c *localStoreConfig) {
		c.onEvict = fn
	}
}

// NewLocalStore creates a store holding at most capacity keys. Every
// identifier needs a counter and a window-start key, so capacity must be at
// least 2.
func NewLocalStore(capacity int, opts ...LocalStoreOption) (*LocalStore, error) {
	if capacity < 2 {
		return nil, CannotUse("local store capacity %d cannot hold a counter and its window start", capacity)
	}

	cfg := localStoreConfig{now: time.Now}
	for _, opt := range opts {
		opt(&cfg)
	}

	entries := cache.NewLRUCache[string, int64](capacity, cache.WithClock(cfg.now))
	if cfg.onEvict != nil {
		entries.SetEvictCallback(func(key string, _ int64) {
			cfg.onEvict(key)
		})
	}

	return &LocalStore{entries: entries}, nil
}

func (s *LocalStore) Get(_ context.Context, key string) (int64, error) {
	v, _ := s.entries.Get(key)
	return v, nil
}

func (s *LocalStore) Increment(_ context.Context, key string, ttl time.Duration) (int64, error) {
	return s.entries.Update(key, ttl, func(old int64, _ bool) int64 {
		return old + 1
	}), nil
}

func (s *LocalStore) Add(_ context.Context, key string, value int64, ttl time.Duration) error {
	s.entries.Add(key, value, ttl)
	return nil
}

func (s *LocalStore) Delete(_ context.Context, keys ...string) error {
	for _, key := range keys {
		s.entries.Remove(key)
	}
	return nil
}

// Len returns the number of keys held, including expired ones not yet dropped.
func (s *LocalStore) Len() int {
	return s.entries.Len()
}
