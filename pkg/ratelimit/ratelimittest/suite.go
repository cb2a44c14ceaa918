// Package ratelimittest holds the behavioural suite every limiter backend
// must pass, plus a fake clock to drive window expiry in tests.
package ratelimittest

import (
	"context"
	"strconv"
	"sync"
	"sync/atomic"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/dmitrymomot/ratekit/pkg/ratelimit"
)

// Backend is one freshly prepared limiter under test.
type Backend struct {
	Limiter ratelimit.Limiter

	// Now is the time source the limiter uses.
	Now func() time.Time

	// Advance moves time forward for both the limiter and its storage.
	// Backends on a real clock sleep.
	Advance func(d time.Duration)
}

// Setup returns a backend with no recorded state for the calling test.
type Setup func(t *testing.T) Backend

// NewFakeBackend wraps a limiter built on clock. extra runs after every
// advance, for storages with their own notion of time.
func NewFakeBackend(l ratelimit.Limiter, clock *Clock, extra func(time.Duration)) Backend {
	return Backend{
		Limiter: l,
		Now:     clock.Now,
		Advance: func(d time.Duration) {
			clock.Advance(d)
			if extra != nil {
				extra(d)
			}
		},
	}
}

var idSeq atomic.Int64

func freshID() string {
	return "id-" + strconv.FormatInt(idSeq.Add(1), 10) + "-" + strconv.FormatInt(time.Now().UnixNano(), 36)
}

// Run exercises the full limiter contract against backends produced by setup.
// Limiters must support every capability.
func Run(t *testing.T, setup Setup) {
	t.Helper()

	for _, tc := range []struct {
		name string
		fn   func(t *testing.T, b Backend)
	}{
		{"limit allows up to operations then rejects", testLimitRejectsOverflow},
		{"limit resets after interval", testLimitResetsAfterInterval},
		{"per second scenario", testPerSecondScenario},
		{"silent overflow reports exceeded", testSilentOverflow},
		{"per hour silent scenario", testPerHourSilentScenario},
		{"status is read only", testStatusReadOnly},
		{"status round trip", testStatusRoundTrip},
		{"reset time tracks window start", testResetTime},
		{"identifiers and intervals are independent", testIndependentCounters},
		{"reset drops the counter", testReset},
		{"concurrent silent calls are all recorded", testConcurrentSilent},
		{"invalid input", testInvalidInput},
		{"capability helpers", testCapabilityHelpers},
	} {
		t.Run(tc.name, func(t *testing.T) {
			t.Parallel()
			tc.fn(t, setup(t))
		})
	}
}

func silent(t *testing.T, b Backend) ratelimit.SilentLimiter {
	t.Helper()
	sl, ok := b.Limiter.(ratelimit.SilentLimiter)
	require.True(t, ok, "limiter must support silent mode")
	return sl
}

func status(t *testing.T, b Backend, id string, rate ratelimit.Rate) ratelimit.Status {
	t.Helper()
	st, err := ratelimit.StatusOf(context.Background(), b.Limiter, id, rate)
	require.NoError(t, err)
	return st
}

func testLimitRejectsOverflow(t *testing.T, b Backend) {
	ctx := context.Background()
	id := freshID()
	rate := ratelimit.PerMinute(5)

	for i := range 5 {
		require.NoError(t, b.Limiter.Limit(ctx, id, rate), "call %d", i+1)
	}

	err := b.Limiter.Limit(ctx, id, rate)
	require.ErrorIs(t, err, ratelimit.ErrLimitExceeded)

	exceeded, ok := ratelimit.AsLimitExceeded(err)
	require.True(t, ok)
	assert.Equal(t, id, exceeded.Identifier)
	assert.True(t, exceeded.Rate.Equal(rate))

	// Rejected calls record nothing.
	require.ErrorIs(t, b.Limiter.Limit(ctx, id, rate), ratelimit.ErrLimitExceeded)
	st := status(t, b, id, rate)
	assert.Equal(t, 0, st.RemainingAttempts())
	assert.False(t, st.LimitExceeded())
}

func testLimitResetsAfterInterval(t *testing.T, b Backend) {
	ctx := context.Background()
	id := freshID()
	rate := ratelimit.MustRate(2, 2*time.Second)

	require.NoError(t, b.Limiter.Limit(ctx, id, rate))
	require.NoError(t, b.Limiter.Limit(ctx, id, rate))
	require.ErrorIs(t, b.Limiter.Limit(ctx, id, rate), ratelimit.ErrLimitExceeded)

	b.Advance(rate.Interval())

	require.NoError(t, b.Limiter.Limit(ctx, id, rate))
	assert.Equal(t, 1, status(t, b, id, rate).RemainingAttempts(), "new window starts from a count of 1")
}

func testPerSecondScenario(t *testing.T, b Backend) {
	ctx := context.Background()
	rate := ratelimit.PerSecond(1)
	id := "test-" + freshID()

	require.NoError(t, b.Limiter.Limit(ctx, id, rate))

	err := b.Limiter.Limit(ctx, id, rate)
	exceeded, ok := ratelimit.AsLimitExceeded(err)
	require.True(t, ok, "second call must be rejected, got %v", err)
	assert.Equal(t, id, exceeded.Identifier)

	b.Advance(2 * time.Second)
	require.NoError(t, b.Limiter.Limit(ctx, id, rate))
}

func testSilentOverflow(t *testing.T, b Backend) {
	ctx := context.Background()
	id := freshID()
	rate := ratelimit.PerMinute(3)
	sl := silent(t, b)

	for i := range 3 {
		st, err := sl.LimitSilently(ctx, id, rate)
		require.NoError(t, err)
		assert.Equal(t, 3-i-1, st.RemainingAttempts())
		assert.False(t, st.LimitExceeded())
	}

	for range 3 {
		st, err := sl.LimitSilently(ctx, id, rate)
		require.NoError(t, err)
		assert.Equal(t, 0, st.RemainingAttempts())
		assert.True(t, st.LimitExceeded())
		assert.Equal(t, id, st.Identifier())
		assert.Equal(t, 3, st.Limit())
	}
}

func testPerHourSilentScenario(t *testing.T, b Backend) {
	ctx := context.Background()
	id := freshID()
	rate := ratelimit.PerHour(1)
	sl := silent(t, b)

	st, err := sl.LimitSilently(ctx, id, rate)
	require.NoError(t, err)
	assert.False(t, st.LimitExceeded())

	st, err = sl.LimitSilently(ctx, id, rate)
	require.NoError(t, err)
	assert.Equal(t, 0, st.RemainingAttempts())
	assert.True(t, st.LimitExceeded())
}

func testStatusReadOnly(t *testing.T, b Backend) {
	ctx := context.Background()
	id := freshID()
	rate := ratelimit.PerMinute(4)

	require.NoError(t, b.Limiter.Limit(ctx, id, rate))

	for range 5 {
		assert.Equal(t, 3, status(t, b, id, rate).RemainingAttempts())
	}
}

func testStatusRoundTrip(t *testing.T, b Backend) {
	ctx := context.Background()
	id := freshID()
	rate := ratelimit.PerMinute(10)

	st := status(t, b, id, rate)
	assert.Equal(t, 10, st.Limit())
	assert.Equal(t, 10, st.RemainingAttempts())
	assert.False(t, st.LimitExceeded())

	require.NoError(t, b.Limiter.Limit(ctx, id, rate))
	assert.Equal(t, 9, status(t, b, id, rate).RemainingAttempts())

	for range 9 {
		require.NoError(t, b.Limiter.Limit(ctx, id, rate))
	}
	assert.Equal(t, 0, status(t, b, id, rate).RemainingAttempts())

	require.ErrorIs(t, b.Limiter.Limit(ctx, id, rate), ratelimit.ErrLimitExceeded)
	st = status(t, b, id, rate)
	assert.Equal(t, 0, st.RemainingAttempts())
	assert.False(t, st.LimitExceeded(), "status reflects recorded operations only")

	_, err := silent(t, b).LimitSilently(ctx, id, rate)
	require.NoError(t, err)
	assert.True(t, status(t, b, id, rate).LimitExceeded())
}

func testResetTime(t *testing.T, b Backend) {
	ctx := context.Background()
	id := freshID()
	rate := ratelimit.MustRate(5, 4*time.Second)

	start := b.Now()
	st, err := silent(t, b).LimitSilently(ctx, id, rate)
	require.NoError(t, err)
	assert.WithinDuration(t, start.Add(rate.Interval()), st.ResetAt(), time.Second)

	b.Advance(rate.Interval() / 2)

	st = status(t, b, id, rate)
	assert.WithinDuration(t, start.Add(rate.Interval()), st.ResetAt(), time.Second)
	assert.False(t, st.ResetAt().Before(b.Now().Truncate(time.Second)), "reset time never lies in the past")
}

func testIndependentCounters(t *testing.T, b Backend) {
	ctx := context.Background()
	a, c := freshID(), freshID()
	perMinute := ratelimit.PerMinute(1)
	perHour := ratelimit.PerHour(1)

	require.NoError(t, b.Limiter.Limit(ctx, a, perMinute))
	require.ErrorIs(t, b.Limiter.Limit(ctx, a, perMinute), ratelimit.ErrLimitExceeded)

	require.NoError(t, b.Limiter.Limit(ctx, c, perMinute), "other identifier has its own counter")
	require.NoError(t, b.Limiter.Limit(ctx, a, perHour), "other interval has its own counter")
}

func testReset(t *testing.T, b Backend) {
	ctx := context.Background()
	id := freshID()
	rate := ratelimit.PerMinute(1)

	require.NoError(t, b.Limiter.Limit(ctx, id, rate))
	require.ErrorIs(t, b.Limiter.Limit(ctx, id, rate), ratelimit.ErrLimitExceeded)

	require.NoError(t, ratelimit.Reset(ctx, b.Limiter, id, rate))

	assert.Equal(t, 1, status(t, b, id, rate).RemainingAttempts())
	require.NoError(t, b.Limiter.Limit(ctx, id, rate))
}

func testConcurrentSilent(t *testing.T, b Backend) {
	ctx := context.Background()
	id := freshID()
	rate := ratelimit.PerHour(1000)
	sl := silent(t, b)

	const callers = 50
	var (
		wg   sync.WaitGroup
		errs = make(chan error, callers)
	)
	for range callers {
		wg.Add(1)
		go func() {
			defer wg.Done()
			if _, err := sl.LimitSilently(ctx, id, rate); err != nil {
				errs <- err
			}
		}()
	}
	wg.Wait()
	close(errs)

	for err := range errs {
		require.NoError(t, err)
	}
	assert.Equal(t, 1000-callers, status(t, b, id, rate).RemainingAttempts())
}

func testInvalidInput(t *testing.T, b Backend) {
	ctx := context.Background()

	err := b.Limiter.Limit(ctx, "", ratelimit.PerMinute(1))
	assert.ErrorIs(t, err, ratelimit.ErrIdentifierRequired)

	err = b.Limiter.Limit(ctx, freshID(), ratelimit.PerMinute(0))
	assert.ErrorIs(t, err, ratelimit.ErrInvalidRate)

	_, err = silent(t, b).LimitSilently(ctx, freshID(), ratelimit.Rate{})
	assert.ErrorIs(t, err, ratelimit.ErrInvalidRate)
}

func testCapabilityHelpers(t *testing.T, b Backend) {
	ctx := context.Background()
	id := freshID()
	rate := ratelimit.PerMinute(2)

	st, err := ratelimit.Silently(ctx, b.Limiter, id, rate)
	require.NoError(t, err)
	assert.Equal(t, 1, st.RemainingAttempts())

	st, err = ratelimit.StatusOf(ctx, b.Limiter, id, rate)
	require.NoError(t, err)
	assert.Equal(t, 1, st.RemainingAttempts())

	assert.NoError(t, ratelimit.Reset(ctx, b.Limiter, id, rate))
}
