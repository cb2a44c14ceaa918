// Package memcache stores rate limit window counters in memcached through
// bradfitz/gomemcache.
//
// Store implements ratelimit.WindowStartStore: counters are created with an
// expiration of one interval and incremented atomically, and the start of
// each window is written once under a companion key so reset times can be
// computed without expiry introspection.
//
//	client, err := memcache.Connect(ctx, cfg)
//	if err != nil {
//		return err
//	}
//	store, err := memcache.New(ctx, client)
//	if err != nil {
//		return err
//	}
//	limiter, err := ratelimit.NewWindowLimiter(store)
package memcache
