package redis

import (
	"context"
	"errors"
	"fmt"
	"time"

	"github.com/redis/go-redis/v9"

	"github.com/dmitrymomot/ratekit/pkg/ratelimit"
)

// incrementScript increments the counter and starts its expiration on the
// first hit of a window, in one round trip.
var incrementScript = redis.NewScript(`
local current = redis.call("INCR", KEYS[1])
if current == 1 then
	redis.call("PEXPIRE", KEYS[1], ARGV[1])
end
return current
`)

// Store keeps window counters in Redis. Windows roll from the first
// operation and end when Redis expires the counter.
type Store struct {
	client redis.UniversalClient
}

var _ ratelimit.ExpiryStore = (*Store)(nil)

// StoreOption configures New.
type StoreOption func(*storeOptions)

type storeOptions struct {
	requireNoEviction bool
}

// RequireNoEviction makes New fail unless the server's maxmemory-policy is
// noeviction. With any other policy counters may vanish under memory
// pressure and identifiers get their quota back early.
func RequireNoEviction() StoreOption {
	return func(o *storeOptions) { o.requireNoEviction = true }
}

// New creates a Store over client.
func New(ctx context.Context, client redis.UniversalClient, opts ...StoreOption) (*Store, error) {
	if client == nil {
		return nil, ErrClientRequired
	}

	var o storeOptions
	for _, opt := range opts {
		opt(&o)
	}

	if o.requireNoEviction {
		if err := verifyEvictionPolicy(ctx, client); err != nil {
			return nil, err
		}
	}

	return &Store{client: client}, nil
}

func verifyEvictionPolicy(ctx context.Context, client redis.UniversalClient) error {
	cfg, err := client.ConfigGet(ctx, "maxmemory-policy").Result()
	if err != nil {
		return fmt.Errorf("redis: read maxmemory-policy: %w", err)
	}
	return checkEvictionPolicy(cfg["maxmemory-policy"])
}

func checkEvictionPolicy(policy string) error {
	if policy != "noeviction" {
		return ratelimit.CannotUse("redis maxmemory-policy is %q, counters may be evicted; set it to noeviction", policy)
	}
	return nil
}

func (s *Store) Get(ctx context.Context, key string) (int64, error) {
	n, err := s.client.Get(ctx, key).Int64()
	if errors.Is(err, redis.Nil) {
		return 0, nil
	}
	if err != nil {
		return 0, fmt.Errorf("redis: get %s: %w", key, err)
	}
	return n, nil
}

func (s *Store) Increment(ctx context.Context, key string, ttl time.Duration) (int64, error) {
	n, err := incrementScript.Run(ctx, s.client, []string{key}, ttl.Milliseconds()).Int64()
	if err != nil {
		return 0, fmt.Errorf("redis: increment %s: %w", key, err)
	}
	return n, nil
}

func (s *Store) TTL(ctx context.Context, key string) (time.Duration, error) {
	ttl, err := s.client.PTTL(ctx, key).Result()
	if err != nil {
		return 0, fmt.Errorf("redis: ttl %s: %w", key, err)
	}
	// Negative values flag a missing key or one without expiration.
	return max(0, ttl), nil
}

func (s *Store) Delete(ctx context.Context, keys ...string) error {
	if len(keys) == 0 {
		return nil
	}
	if err := s.client.Del(ctx, keys...).Err(); err != nil {
		return fmt.Errorf("redis: delete: %w", err)
	}
	return nil
}
