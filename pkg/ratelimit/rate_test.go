package ratelimit_test

import (
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/dmitrymomot/ratekit/pkg/ratelimit"
)

func TestNewRate(t *testing.T) {
	t.Parallel()

	tests := []struct {
		name       string
		operations int
		interval   time.Duration
		wantErr    bool
	}{
		{name: "valid", operations: 10, interval: time.Minute},
		{name: "one per second", operations: 1, interval: time.Second},
		{name: "zero operations", operations: 0, interval: time.Minute, wantErr: true},
		{name: "negative operations", operations: -1, interval: time.Minute, wantErr: true},
		{name: "sub second interval", operations: 1, interval: 500 * time.Millisecond, wantErr: true},
		{name: "fractional seconds", operations: 1, interval: 1500 * time.Millisecond, wantErr: true},
		{name: "zero interval", operations: 1, interval: 0, wantErr: true},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			t.Parallel()

			r, err := ratelimit.NewRate(tt.operations, tt.interval)
			if tt.wantErr {
				assert.ErrorIs(t, err, ratelimit.ErrInvalidRate)
				return
			}
			require.NoError(t, err)
			assert.Equal(t, tt.operations, r.Operations())
			assert.Equal(t, tt.interval, r.Interval())
		})
	}
}

func TestRate_NamedConstructors(t *testing.T) {
	t.Parallel()

	assert.Equal(t, int64(1), ratelimit.PerSecond(5).Seconds())
	assert.Equal(t, int64(60), ratelimit.PerMinute(5).Seconds())
	assert.Equal(t, int64(3600), ratelimit.PerHour(5).Seconds())
	assert.Equal(t, int64(86400), ratelimit.PerDay(5).Seconds())
	assert.Equal(t, 5, ratelimit.PerDay(5).Operations())

	assert.Error(t, ratelimit.PerMinute(0).Validate())
	assert.Panics(t, func() { ratelimit.MustRate(0, time.Second) })
}

func TestRate_Equality(t *testing.T) {
	t.Parallel()

	a := ratelimit.PerMinute(10)
	b := ratelimit.MustRate(10, 60*time.Second)

	assert.True(t, a == b)
	assert.True(t, a.Equal(b))
	assert.False(t, a.Equal(ratelimit.PerHour(10)))
	assert.Equal(t, "10/1m0s", a.String())
}

func TestParseRate(t *testing.T) {
	t.Parallel()

	tests := []struct {
		in      string
		want    ratelimit.Rate
		wantErr bool
	}{
		{in: "100/minute", want: ratelimit.PerMinute(100)},
		{in: " 5 / Second ", want: ratelimit.PerSecond(5)},
		{in: "1000/h", want: ratelimit.PerHour(1000)},
		{in: "3/day", want: ratelimit.PerDay(3)},
		{in: "5/10s", want: ratelimit.MustRate(5, 10*time.Second)},
		{in: "10/1m0s", want: ratelimit.PerMinute(10)},
		{in: "10", wantErr: true},
		{in: "x/minute", wantErr: true},
		{in: "10/fortnight", wantErr: true},
		{in: "0/minute", wantErr: true},
		{in: "1/100ms", wantErr: true},
	}

	for _, tt := range tests {
		t.Run(tt.in, func(t *testing.T) {
			t.Parallel()

			got, err := ratelimit.ParseRate(tt.in)
			if tt.wantErr {
				assert.ErrorIs(t, err, ratelimit.ErrInvalidRate)
				return
			}
			require.NoError(t, err)
			assert.Equal(t, tt.want, got)
		})
	}
}

func TestRate_Text(t *testing.T) {
	t.Parallel()

	text, err := ratelimit.PerHour(7).MarshalText()
	require.NoError(t, err)

	var r ratelimit.Rate
	require.NoError(t, r.UnmarshalText(text))
	assert.Equal(t, ratelimit.PerHour(7), r)

	assert.ErrorIs(t, r.UnmarshalText([]byte("nope")), ratelimit.ErrInvalidRate)
}
