// Package redis stores rate limit window counters in Redis.
//
// Store implements ratelimit.ExpiryStore on top of a go-redis
// UniversalClient. Counters are incremented by a Lua script that sets the
// key's expiration on the first hit of a window, so a window lasts exactly
// one interval from its first operation and reset times come straight from
// PTTL.
//
// Connect and Healthcheck cover the connection lifecycle, configured by the
// env-tagged Config.
//
// # Usage
//
//	client, err := redis.Connect(ctx, cfg)
//	if err != nil {
//		return err
//	}
//	store, err := redis.New(ctx, client, redis.RequireNoEviction())
//	if err != nil {
//		return err // errors.Is(err, ratelimit.ErrCannotUseRateLimiter) on a misconfigured server
//	}
//	limiter, err := ratelimit.NewWindowLimiter(store, ratelimit.WithPrefix("rl:"))
package redis
