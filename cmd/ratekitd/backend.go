package main

import (
	"context"
	"fmt"
	"log/slog"

	"github.com/dmitrymomot/ratekit/pkg/config"
	"github.com/dmitrymomot/ratekit/pkg/httpserver"
	"github.com/dmitrymomot/ratekit/pkg/logger"
	"github.com/dmitrymomot/ratekit/pkg/memcache"
	"github.com/dmitrymomot/ratekit/pkg/mongo"
	"github.com/dmitrymomot/ratekit/pkg/pg"
	"github.com/dmitrymomot/ratekit/pkg/ratelimit"
	"github.com/dmitrymomot/ratekit/pkg/redis"
)

// backend is an opened counter store and the limiter built on it.
type backend struct {
	name    string
	limiter ratelimit.Limiter
	checks  []httpserver.Check
	close   func(context.Context) error
}

func openBackend(ctx context.Context, cfg Config, log *slog.Logger) (*backend, error) {
	opts := []ratelimit.Option{ratelimit.WithPrefix(cfg.Prefix)}
	b := &backend{name: cfg.Backend, close: func(context.Context) error { return nil }}

	switch cfg.Backend {
	case backendMemory:
		store := ratelimit.NewMemoryStore(ratelimit.WithCleanupInterval(cfg.CleanupInterval))
		l, err := ratelimit.NewMemoryLimiter(store, opts...)
		if err != nil {
			_ = store.Close()
			return nil, err
		}
		b.limiter = l
		b.close = func(context.Context) error { return store.Close() }

	case backendLocal:
		store, err := ratelimit.NewLocalStore(cfg.LocalCapacity, ratelimit.WithEvictionHandler(func(key string) {
			log.Warn("local store evicted a live key, consider raising RATELIMIT_LOCAL_CAPACITY",
				logger.Backend(backendLocal), slog.String("key", key))
		}))
		if err != nil {
			return nil, err
		}
		if b.limiter, err = ratelimit.NewWindowLimiter(store, opts...); err != nil {
			return nil, err
		}

	case backendRedis:
		var rc redis.Config
		if err := config.Load(&rc); err != nil {
			return nil, err
		}
		client, err := redis.Connect(ctx, rc)
		if err != nil {
			return nil, err
		}
		var storeOpts []redis.StoreOption
		if rc.RequireNoEviction {
			storeOpts = append(storeOpts, redis.RequireNoEviction())
		}
		store, err := redis.New(ctx, client, storeOpts...)
		if err == nil {
			b.limiter, err = ratelimit.NewWindowLimiter(store, opts...)
		}
		if err != nil {
			_ = client.Close()
			return nil, err
		}
		b.checks = append(b.checks, httpserver.Check{Name: backendRedis, Fn: redis.Healthcheck(client, storeOpts...)})
		b.close = func(context.Context) error { return client.Close() }

	case backendMemcached:
		var mc memcache.Config
		if err := config.Load(&mc); err != nil {
			return nil, err
		}
		client, err := memcache.Connect(ctx, mc)
		if err != nil {
			return nil, err
		}
		store, err := memcache.New(ctx, client)
		if err != nil {
			return nil, err
		}
		if b.limiter, err = ratelimit.NewWindowLimiter(store, opts...); err != nil {
			return nil, err
		}
		b.checks = append(b.checks, httpserver.Check{Name: backendMemcached, Fn: memcache.Healthcheck(client)})

	case backendPostgres:
		var pc pg.Config
		if err := config.Load(&pc); err != nil {
			return nil, err
		}
		pool, err := pg.Connect(ctx, pc)
		if err != nil {
			return nil, err
		}
		if err := pg.Migrate(ctx, pool, pc, log); err != nil {
			pool.Close()
			return nil, err
		}
		store, err := pg.New(ctx, pool)
		if err == nil {
			b.limiter, err = ratelimit.NewWindowLimiter(store, opts...)
		}
		if err != nil {
			pool.Close()
			return nil, err
		}

		purgeCtx, stopPurge := context.WithCancel(context.WithoutCancel(ctx))
		go store.RunPurge(purgeCtx, pc.PurgeInterval, func(err error) {
			log.ErrorContext(purgeCtx, "failed to purge expired counters", logger.Backend(backendPostgres), logger.Error(err))
		})
		b.checks = append(b.checks, httpserver.Check{Name: backendPostgres, Fn: pg.Healthcheck(pool)})
		b.close = func(context.Context) error {
			stopPurge()
			pool.Close()
			return nil
		}

	case backendMongo:
		var mc mongo.Config
		if err := config.Load(&mc); err != nil {
			return nil, err
		}
		coll, err := mongo.ConnectCollection(ctx, mc)
		if err != nil {
			return nil, err
		}
		client := coll.Database().Client()
		store, err := mongo.New(ctx, coll)
		if err == nil {
			err = store.EnsureIndexes(ctx)
		}
		if err == nil {
			b.limiter, err = ratelimit.NewWindowLimiter(store, opts...)
		}
		if err != nil {
			_ = client.Disconnect(context.WithoutCancel(ctx))
			return nil, err
		}
		b.checks = append(b.checks, httpserver.Check{Name: backendMongo, Fn: mongo.Healthcheck(client)})
		b.close = client.Disconnect

	default:
		return nil, fmt.Errorf("unknown rate limit backend %q", cfg.Backend)
	}

	log.InfoContext(ctx, "rate limit backend ready", logger.Backend(b.name))
	return b, nil
}
