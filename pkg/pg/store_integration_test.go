//go:build integration

package pg_test

import (
	"context"
	"os"
	"testing"
	"time"

	"github.com/jackc/pgx/v5/pgxpool"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/dmitrymomot/ratekit/pkg/logger"
	"github.com/dmitrymomot/ratekit/pkg/pg"
	"github.com/dmitrymomot/ratekit/pkg/ratelimit"
	"github.com/dmitrymomot/ratekit/pkg/ratelimit/ratelimittest"
)

func setupPool(t *testing.T) *pgxpool.Pool {
	t.Helper()

	url := os.Getenv("PG_CONN_URL")
	if url == "" {
		t.Skip("PG_CONN_URL is not set")
	}

	ctx := context.Background()
	cfg := pg.Config{
		ConnectionString: url,
		MaxOpenConns:     10,
		MaxIdleConns:     1,
		RetryAttempts:    1,
		RetryInterval:    time.Second,
		MigrationsTable:  "ratekit_schema_migrations",
	}

	pool, err := pg.Connect(ctx, cfg)
	require.NoError(t, err)
	t.Cleanup(pool.Close)

	require.NoError(t, pg.Migrate(ctx, pool, cfg, logger.Discard()))
	return pool
}

func TestStore_Contract(t *testing.T) {
	pool := setupPool(t)

	ratelimittest.Run(t, func(t *testing.T) ratelimittest.Backend {
		clock := ratelimittest.NewClock()
		store, err := pg.New(context.Background(), pool, pg.WithClock(clock.Now))
		require.NoError(t, err)

		l, err := ratelimit.NewWindowLimiter(store, ratelimit.WithClock(clock.Now), ratelimit.WithPrefix("it:"+t.Name()+":"))
		require.NoError(t, err)
		return ratelimittest.NewFakeBackend(l, clock, nil)
	})
}

func TestStore_Primitives(t *testing.T) {
	pool := setupPool(t)
	ctx := context.Background()
	clock := ratelimittest.NewClock()

	store, err := pg.New(ctx, pool, pg.WithClock(clock.Now))
	require.NoError(t, err)

	key := "primitives:" + time.Now().Format(time.RFC3339Nano)
	t.Cleanup(func() { _ = store.Delete(ctx, key) })

	n, err := store.Get(ctx, key)
	require.NoError(t, err)
	assert.Zero(t, n)

	for want := int64(1); want <= 3; want++ {
		n, err = store.Increment(ctx, key, time.Minute)
		require.NoError(t, err)
		assert.Equal(t, want, n)
	}

	clock.Advance(20 * time.Second)
	ttl, err := store.TTL(ctx, key)
	require.NoError(t, err)
	assert.Equal(t, 40*time.Second, ttl)

	clock.Advance(time.Minute)
	n, err = store.Get(ctx, key)
	require.NoError(t, err)
	assert.Zero(t, n, "expired rows read as absent")

	n, err = store.Increment(ctx, key, time.Minute)
	require.NoError(t, err)
	assert.Equal(t, int64(1), n, "expired rows restart on increment")

	clock.Advance(2 * time.Minute)
	purged, err := store.Purge(ctx)
	require.NoError(t, err)
	assert.GreaterOrEqual(t, purged, int64(1))
}

func TestMigrate_Idempotent(t *testing.T) {
	pool := setupPool(t)

	cfg := pg.Config{MigrationsTable: "ratekit_schema_migrations"}
	assert.NoError(t, pg.Migrate(context.Background(), pool, cfg, logger.Discard()))
}
