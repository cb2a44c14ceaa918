package logger_test

import (
	"errors"
	"log/slog"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/dmitrymomot/ratekit/pkg/logger"
)

type stringer string

func (s stringer) String() string { return string(s) }

func TestGroup(t *testing.T) {
	t.Parallel()

	attr := logger.Group("req", slog.String("id", "1"), slog.Int("n", 2))
	require.Equal(t, "req", attr.Key)
	require.Equal(t, slog.KindGroup, attr.Value.Kind())
	g := attr.Value.Group()
	require.Len(t, g, 2)
	assert.Equal(t, "id", g[0].Key)
	assert.Equal(t, "n", g[1].Key)
}

func TestError(t *testing.T) {
	t.Parallel()

	err := errors.New("boom")
	attr := logger.Error(err)
	require.Equal(t, "error", attr.Key)
	assert.Equal(t, err, attr.Value.Any())

	assert.True(t, logger.Error(nil).Equal(slog.Attr{}))
}

func TestRequestID(t *testing.T) {
	t.Parallel()

	attr := logger.RequestID("abc")
	require.Equal(t, "request_id", attr.Key)
	assert.Equal(t, "abc", attr.Value.String())

	assert.True(t, logger.RequestID("").Equal(slog.Attr{}))
}

func TestDomainAttrs(t *testing.T) {
	t.Parallel()

	tests := []struct {
		name  string
		attr  slog.Attr
		key   string
		value string
	}{
		{name: "identifier", attr: logger.Identifier("10.0.0.1"), key: "identifier", value: "10.0.0.1"},
		{name: "rate", attr: logger.Rate(stringer("10/1m0s")), key: "rate", value: "10/1m0s"},
		{name: "policy", attr: logger.Policy("login"), key: "policy", value: "login"},
		{name: "backend", attr: logger.Backend("redis"), key: "backend", value: "redis"},
		{name: "component", attr: logger.Component("ratelimit"), key: "component", value: "ratelimit"},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			t.Parallel()
			assert.Equal(t, tt.key, tt.attr.Key)
			assert.Equal(t, tt.value, tt.attr.Value.String())
		})
	}

	t.Run("nil rate", func(t *testing.T) {
		t.Parallel()
		assert.True(t, logger.Rate(nil).Equal(slog.Attr{}))
	})
}

func TestQuota(t *testing.T) {
	t.Parallel()

	resetAt := time.Unix(1_700_000_060, 0)
	attr := logger.Quota(3, resetAt)
	require.Equal(t, "quota", attr.Key)

	g := attr.Value.Group()
	require.Len(t, g, 2)
	assert.Equal(t, int64(3), g[0].Value.Int64())
	assert.Equal(t, resetAt, g[1].Value.Time())
}

func TestDuration(t *testing.T) {
	t.Parallel()

	attr := logger.Duration(2 * time.Second)
	assert.Equal(t, "duration", attr.Key)
	assert.Equal(t, 2*time.Second, attr.Value.Duration())
}
