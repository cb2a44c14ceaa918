package redis_test

import (
	"context"
	"testing"
	"time"

	"github.com/alicebob/miniredis/v2"
	goredis "github.com/redis/go-redis/v9"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/dmitrymomot/ratekit/pkg/ratelimit"
	"github.com/dmitrymomot/ratekit/pkg/ratelimit/ratelimittest"
	"github.com/dmitrymomot/ratekit/pkg/redis"
)

func newStore(t *testing.T) (*redis.Store, *miniredis.Miniredis) {
	t.Helper()

	mr := miniredis.RunT(t)
	client := goredis.NewClient(&goredis.Options{Addr: mr.Addr()})
	t.Cleanup(func() { _ = client.Close() })

	store, err := redis.New(context.Background(), client)
	require.NoError(t, err)
	return store, mr
}

func TestStore_Contract(t *testing.T) {
	t.Parallel()

	ratelimittest.Run(t, func(t *testing.T) ratelimittest.Backend {
		store, mr := newStore(t)
		clock := ratelimittest.NewClock()

		l, err := ratelimit.NewWindowLimiter(store, ratelimit.WithClock(clock.Now), ratelimit.WithPrefix("rl:"))
		require.NoError(t, err)
		return ratelimittest.NewFakeBackend(l, clock, mr.FastForward)
	})
}

func TestStore_Increment(t *testing.T) {
	t.Parallel()

	ctx := context.Background()
	store, mr := newStore(t)

	n, err := store.Increment(ctx, "counter", time.Minute)
	require.NoError(t, err)
	assert.Equal(t, int64(1), n)
	assert.Equal(t, time.Minute, mr.TTL("counter"))

	mr.FastForward(20 * time.Second)

	n, err = store.Increment(ctx, "counter", time.Minute)
	require.NoError(t, err)
	assert.Equal(t, int64(2), n)
	assert.Equal(t, 40*time.Second, mr.TTL("counter"), "later increments keep the first expiration")

	mr.FastForward(40 * time.Second)
	assert.False(t, mr.Exists("counter"))
}

func TestStore_GetAndTTL(t *testing.T) {
	t.Parallel()

	ctx := context.Background()
	store, mr := newStore(t)

	n, err := store.Get(ctx, "missing")
	require.NoError(t, err)
	assert.Zero(t, n)

	ttl, err := store.TTL(ctx, "missing")
	require.NoError(t, err)
	assert.Zero(t, ttl)

	require.NoError(t, mr.Set("persistent", "7"))
	n, err = store.Get(ctx, "persistent")
	require.NoError(t, err)
	assert.Equal(t, int64(7), n)

	ttl, err = store.TTL(ctx, "persistent")
	require.NoError(t, err)
	assert.Zero(t, ttl, "keys without expiration report no time left")

	require.NoError(t, mr.Set("garbage", "abc"))
	_, err = store.Get(ctx, "garbage")
	assert.Error(t, err)
}

func TestStore_Delete(t *testing.T) {
	t.Parallel()

	ctx := context.Background()
	store, mr := newStore(t)

	require.NoError(t, mr.Set("a", "1"))
	require.NoError(t, mr.Set("b", "1"))

	require.NoError(t, store.Delete(ctx, "a", "b", "missing"))
	assert.False(t, mr.Exists("a"))
	assert.False(t, mr.Exists("b"))
	assert.NoError(t, store.Delete(ctx))
}

func TestStore_ServerDown(t *testing.T) {
	t.Parallel()

	store, mr := newStore(t)
	mr.Close()

	_, err := store.Increment(context.Background(), "k", time.Minute)
	assert.Error(t, err)
}

func TestNew_NilClient(t *testing.T) {
	t.Parallel()

	_, err := redis.New(context.Background(), nil)
	assert.ErrorIs(t, err, redis.ErrClientRequired)
}

func TestConnectAndHealthcheck(t *testing.T) {
	t.Parallel()

	mr := miniredis.RunT(t)
	client, err := redis.Connect(context.Background(), redis.Config{
		ConnectionURL:  "redis://" + mr.Addr() + "/0",
		RetryAttempts:  1,
		RetryInterval:  10 * time.Millisecond,
		ConnectTimeout: time.Second,
	})
	require.NoError(t, err)
	t.Cleanup(func() { _ = client.Close() })

	check := redis.Healthcheck(client)
	require.NoError(t, check(context.Background()))

	mr.Close()
	assert.ErrorIs(t, check(context.Background()), redis.ErrHealthcheckFailed)
}

func TestConnect_ZeroTimeout(t *testing.T) {
	t.Parallel()

	mr := miniredis.RunT(t)
	client, err := redis.Connect(context.Background(), redis.Config{
		ConnectionURL: "redis://" + mr.Addr() + "/0",
	})
	require.NoError(t, err)
	t.Cleanup(func() { _ = client.Close() })

	assert.NoError(t, redis.Healthcheck(client)(context.Background()))
}

func TestConnect_Errors(t *testing.T) {
	t.Parallel()

	_, err := redis.Connect(context.Background(), redis.Config{ConnectTimeout: time.Second})
	assert.ErrorIs(t, err, redis.ErrEmptyConnectionURL)

	_, err = redis.Connect(context.Background(), redis.Config{ConnectionURL: "http://nope", ConnectTimeout: time.Second})
	assert.ErrorIs(t, err, redis.ErrFailedToParseRedisConnString)
}
