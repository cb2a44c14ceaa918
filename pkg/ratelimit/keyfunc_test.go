package ratelimit_test

import (
	"crypto/sha256"
	"encoding/hex"
	"net/http"
	"net/http/httptest"
	"strings"
	"testing"

	"github.com/stretchr/testify/assert"

	"github.com/dmitrymomot/ratekit/pkg/ratelimit"
)

func TestComposite(t *testing.T) {
	t.Parallel()

	userKeyFunc := ratelimit.ByHeader("X-User-ID")
	pathKeyFunc := func(r *http.Request) string { return r.URL.Path }
	longKeyFunc := func(*http.Request) string { return strings.Repeat("k", 70) }

	tests := []struct {
		name     string
		keyFuncs []ratelimit.KeyFunc
		setup    func(*http.Request)
		expected string
	}{
		{
			name:     "no key functions",
			expected: "",
		},
		{
			name:     "single key",
			keyFuncs: []ratelimit.KeyFunc{ratelimit.ByRemoteAddr()},
			expected: "192.0.2.1",
		},
		{
			name:     "multiple keys combined",
			keyFuncs: []ratelimit.KeyFunc{ratelimit.ByRemoteAddr(), pathKeyFunc},
			expected: "192.0.2.1:/api/v1/users",
		},
		{
			name:     "empty keys skipped",
			keyFuncs: []ratelimit.KeyFunc{userKeyFunc, pathKeyFunc},
			expected: "/api/v1/users",
		},
		{
			name:     "header key",
			keyFuncs: []ratelimit.KeyFunc{userKeyFunc},
			setup:    func(r *http.Request) { r.Header.Set("X-User-ID", " user-42 ") },
			expected: "user-42",
		},
		{
			name:     "long key hashed",
			keyFuncs: []ratelimit.KeyFunc{longKeyFunc},
			expected: func() string {
				sum := sha256.Sum256([]byte(strings.Repeat("k", 70)))
				return hex.EncodeToString(sum[:16])
			}(),
		},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			t.Parallel()

			req := httptest.NewRequest("GET", "/api/v1/users", nil)
			if tt.setup != nil {
				tt.setup(req)
			}
			assert.Equal(t, tt.expected, ratelimit.Composite(tt.keyFuncs...)(req))
		})
	}
}

func TestByRemoteAddr(t *testing.T) {
	t.Parallel()

	req := httptest.NewRequest("GET", "/", nil)

	req.RemoteAddr = "[2001:db8::1]:443"
	assert.Equal(t, "2001:db8::1", ratelimit.ByRemoteAddr()(req))

	req.RemoteAddr = "unix-socket"
	assert.Equal(t, "unix-socket", ratelimit.ByRemoteAddr()(req))
}
