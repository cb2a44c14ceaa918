// Package ratelimit counts operations per identifier in fixed windows and
// decides whether an identifier may proceed under a Rate such as
// PerMinute(10).
//
// # Capabilities
//
// Every limiter implements Limiter, whose Limit call records an operation or
// returns a *LimitExceededError (matching ErrLimitExceeded) without
// recording one. Optional interfaces add more:
//
//   - SilentLimiter.LimitSilently always records up to one operation past the
//     limit and returns a Status instead of failing.
//   - StatusLimiter.Status reads the quota without recording anything.
//   - Resetter.Reset drops the counter of one identifier and rate.
//
// The helpers Silently, StatusOf and Reset type-assert these and return
// ErrUnsupported when a limiter lacks them.
//
// # Backends
//
// MemoryLimiter keeps counters in a MemoryStore and aligns windows to the
// calendar: a per-minute window always starts at a whole minute.
//
// WindowLimiter runs on any shared Store and rolls windows from the first
// recorded operation. Stores that report key expiry (ExpiryStore) derive the
// reset time from it; the rest (WindowStartStore) record the window start
// under a second key. LocalStore is an in-process WindowStartStore; the
// redis, memcache, pg and mongo packages provide shared ones.
//
//	store, err := redis.New(ctx, client)
//	if err != nil {
//		return err
//	}
//	limiter, err := ratelimit.NewWindowLimiter(store, ratelimit.WithPrefix("api:"))
//	if err != nil {
//		return err
//	}
//	if err := limiter.Limit(ctx, userID, ratelimit.PerHour(1000)); errors.Is(err, ratelimit.ErrLimitExceeded) {
//		// reject
//	}
//
// Shared stores read the counter before incrementing it, so concurrent
// callers at the edge of a window can overshoot the limit by up to the
// number of callers racing.
//
// # HTTP
//
// Middleware applies a PolicyResolver (Static, or PathPolicies loaded with
// LoadPolicies) keyed by a KeyFunc, sets the X-RateLimit-* headers and
// answers 429 with Retry-After once a policy is exhausted.
//
// The ratelimittest subpackage holds the behavioural suite every backend
// is run against.
package ratelimit
