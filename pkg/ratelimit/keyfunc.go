package ratelimit

import (
	"crypto/sha256"
	"encoding/hex"
	"net"
	"net/http"
	"strings"
)

// maxKeyLength caps identifiers built from requests so they stay short
// enough for every backend's key limits (memcached allows 250 bytes).
const maxKeyLength = 64

// KeyFunc extracts the identifier to rate limit from an HTTP request.
// An empty identifier exempts the request.
type KeyFunc func(*http.Request) string

// ByHeader uses the value of the named request header.
func ByHeader(name string) KeyFunc {
	return func(r *http.Request) string {
		return strings.TrimSpace(r.Header.Get(name))
	}
}

// ByRemoteAddr uses the host part of the connection's remote address.
func ByRemoteAddr() KeyFunc {
	return func(r *http.Request) string {
		host, _, err := net.SplitHostPort(r.RemoteAddr)
		if err != nil {
			return r.RemoteAddr
		}
		return host
	}
}

// Composite combines multiple key functions into a single identifier.
// Keys longer than 64 characters are hashed to 32 hex characters with SHA256.
func Composite(keyFuncs ...KeyFunc) KeyFunc {
	return func(r *http.Request) string {
		parts := make([]string, 0, len(keyFuncs))
		for _, fn := range keyFuncs {
			if key := fn(r); key != "" {
				parts = append(parts, key)
			}
		}

		if len(parts) == 0 {
			return ""
		}

		combined := strings.Join(parts, ":")
		if len(combined) > maxKeyLength {
			hash := sha256.Sum256([]byte(combined))
			return hex.EncodeToString(hash[:16])
		}
		return combined
	}
}
