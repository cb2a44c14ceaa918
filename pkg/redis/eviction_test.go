package redis

import (
	"testing"

	"github.com/stretchr/testify/assert"

	"github.com/dmitrymomot/ratekit/pkg/ratelimit"
)

func TestCheckEvictionPolicy(t *testing.T) {
	t.Parallel()

	assert.NoError(t, checkEvictionPolicy("noeviction"))

	for _, policy := range []string{"allkeys-lru", "volatile-ttl", ""} {
		assert.ErrorIs(t, checkEvictionPolicy(policy), ratelimit.ErrCannotUseRateLimiter, policy)
	}
}
