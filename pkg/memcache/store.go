package memcache

import (
	"context"
	"errors"
	"fmt"
	"strconv"
	"strings"
	"time"

	"github.com/bradfitz/gomemcache/memcache"
	"github.com/google/uuid"

	"github.com/dmitrymomot/ratekit/pkg/ratelimit"
)

// maxRelativeExpiration is the longest expiration memcached reads as
// seconds from now; larger values are taken as unix timestamps.
const maxRelativeExpiration = 30 * 24 * 60 * 60

// Client is the subset of *memcache.Client the store needs.
type Client interface {
	Get(key string) (*memcache.Item, error)
	Increment(key string, delta uint64) (uint64, error)
	Add(item *memcache.Item) error
	Delete(key string) error
}

// Store keeps window counters in memcached. Memcached cannot report the
// time a key has left, so the window start is kept under its own key.
type Store struct {
	client Client
	now    func() time.Time
}

var _ ratelimit.WindowStartStore = (*Store)(nil)

// StoreOption configures New.
type StoreOption func(*Store)

// WithClock replaces the time source used for absolute expirations.
func WithClock(now func() time.Time) StoreOption {
	return func(s *Store) {
		if now != nil {
			s.now = now
		}
	}
}

// New creates a Store and probes the servers: a fresh key must increment
// to exactly 1, otherwise counting would be wrong and
// ErrCannotUseRateLimiter is returned.
func New(ctx context.Context, client Client, opts ...StoreOption) (*Store, error) {
	if client == nil {
		return nil, ErrClientRequired
	}

	s := &Store{client: client, now: time.Now}
	for _, opt := range opts {
		opt(s)
	}

	probe := "ratekit:probe:" + uuid.NewString()
	n, err := s.Increment(ctx, probe, 10*time.Second)
	if err != nil {
		return nil, fmt.Errorf("memcache: probe: %w", err)
	}
	if err := s.Delete(ctx, probe); err != nil {
		return nil, fmt.Errorf("memcache: remove probe key: %w", err)
	}
	if n != 1 {
		return nil, ratelimit.CannotUse("memcached incremented a fresh key to %d", n)
	}

	return s, nil
}

func (s *Store) Get(_ context.Context, key string) (int64, error) {
	item, err := s.client.Get(key)
	if errors.Is(err, memcache.ErrCacheMiss) {
		return 0, nil
	}
	if err != nil {
		return 0, fmt.Errorf("memcache: get %s: %w", key, err)
	}
	return parseCounter(item.Value)
}

// Increment adds one to the counter. A missing counter is created with Add
// so a concurrent creator is detected and the increment retried on its key.
func (s *Store) Increment(_ context.Context, key string, ttl time.Duration) (int64, error) {
	for range 2 {
		n, err := s.client.Increment(key, 1)
		if err == nil {
			return int64(n), nil
		}
		if !errors.Is(err, memcache.ErrCacheMiss) {
			return 0, fmt.Errorf("memcache: increment %s: %w", key, err)
		}

		err = s.client.Add(&memcache.Item{Key: key, Value: []byte("1"), Expiration: s.expiration(ttl)})
		if err == nil {
			return 1, nil
		}
		if !errors.Is(err, memcache.ErrNotStored) {
			return 0, fmt.Errorf("memcache: create %s: %w", key, err)
		}
	}
	return 0, fmt.Errorf("memcache: increment %s: counter kept disappearing", key)
}

func (s *Store) Add(_ context.Context, key string, value int64, ttl time.Duration) error {
	err := s.client.Add(&memcache.Item{
		Key:        key,
		Value:      []byte(strconv.FormatInt(value, 10)),
		Expiration: s.expiration(ttl),
	})
	if err != nil && !errors.Is(err, memcache.ErrNotStored) {
		return fmt.Errorf("memcache: add %s: %w", key, err)
	}
	return nil
}

func (s *Store) Delete(_ context.Context, keys ...string) error {
	for _, key := range keys {
		if err := s.client.Delete(key); err != nil && !errors.Is(err, memcache.ErrCacheMiss) {
			return fmt.Errorf("memcache: delete %s: %w", key, err)
		}
	}
	return nil
}

// expiration converts ttl to memcached's expiration field, switching to an
// absolute timestamp past the relative limit.
func (s *Store) expiration(ttl time.Duration) int32 {
	secs := int64((ttl + time.Second - 1) / time.Second)
	if secs > maxRelativeExpiration {
		return int32(s.now().Unix() + secs)
	}
	return int32(secs)
}

// parseCounter reads a counter value; memcached may pad incremented values with spaces.
func parseCounter(raw []byte) (int64, error) {
	n, err := strconv.ParseInt(strings.TrimSpace(string(raw)), 10, 64)
	if err != nil {
		return 0, fmt.Errorf("%w: %q", ErrMalformedCounter, raw)
	}
	return n, nil
}
