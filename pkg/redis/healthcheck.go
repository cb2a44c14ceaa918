package redis

import (
	"context"
	"errors"

	"github.com/redis/go-redis/v9"
)

// Healthcheck returns a readiness probe for a counter server. With
// RequireNoEviction it also fails once maxmemory-policy is changed at
// runtime to one that may evict counters.
func Healthcheck(client redis.UniversalClient, opts ...StoreOption) func(context.Context) error {
	var o storeOptions
	for _, opt := range opts {
		opt(&o)
	}

	return func(ctx context.Context) error {
		if err := client.Ping(ctx).Err(); err != nil {
			return errors.Join(ErrHealthcheckFailed, err)
		}
		if o.requireNoEviction {
			if err := verifyEvictionPolicy(ctx, client); err != nil {
				return errors.Join(ErrHealthcheckFailed, err)
			}
		}
		return nil
	}
}
