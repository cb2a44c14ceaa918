// Package clientip resolves the client address that keys per-client rate
// limits.
//
// A Resolver checks its trusted proxy headers in order (CF-Connecting-IP,
// X-Forwarded-For, X-Real-IP by default), then falls back to RemoteAddr.
// Addresses are normalized with net/netip: IPv4-mapped IPv6 is unmapped,
// zones are dropped, and IPv6 clients are collapsed to their /64 so one
// subscriber cannot spread requests across its whole block.
//
// Only trust headers your edge proxy overwrites. A client that can set
// X-Forwarded-For directly can choose its own rate limit key.
//
//	ips := clientip.New(clientip.WithTrustedHeaders("X-Real-IP"))
//	r.Use(ips.Middleware)
//	r.Use(ratelimit.Middleware(limiter, policies, ips.Key))
package clientip
