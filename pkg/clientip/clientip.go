package clientip

import (
	"net"
	"net/http"
	"net/netip"
	"strings"
)

// Default proxy headers, checked in order before RemoteAddr.
var DefaultHeaders = []string{"CF-Connecting-IP", "X-Forwarded-For", "X-Real-IP"}

// Resolver extracts the client address used as a rate limiting key.
type Resolver struct {
	headers    []string
	ipv6Prefix int
}

type Option func(*Resolver)

// WithTrustedHeaders replaces the headers consulted before RemoteAddr.
// Pass no names to trust RemoteAddr only, for servers not behind a proxy.
func WithTrustedHeaders(names ...string) Option {
	return func(r *Resolver) {
		r.headers = make([]string, 0, len(names))
		for _, n := range names {
			if n = strings.TrimSpace(n); n != "" {
				r.headers = append(r.headers, http.CanonicalHeaderKey(n))
			}
		}
	}
}

// WithIPv6Prefix masks IPv6 addresses to the given prefix length, so a
// client rotating through its allocated block shares one counter.
// Values outside 1..128 disable masking.
func WithIPv6Prefix(bits int) Option {
	return func(r *Resolver) { r.ipv6Prefix = bits }
}

// New returns a Resolver. Without options it trusts DefaultHeaders and
// masks IPv6 clients to /64.
func New(opts ...Option) *Resolver {
	r := &Resolver{headers: DefaultHeaders, ipv6Prefix: 64}
	for _, opt := range opts {
		opt(r)
	}
	return r
}

// IP returns the normalized client address, or "" when none is valid.
// Comma separated header values yield their first valid entry.
func (r *Resolver) IP(req *http.Request) string {
	for _, h := range r.headers {
		for v := range strings.SplitSeq(req.Header.Get(h), ",") {
			if ip := r.parse(v); ip != "" {
				return ip
			}
		}
	}

	host, _, err := net.SplitHostPort(req.RemoteAddr)
	if err != nil {
		return r.parse(req.RemoteAddr)
	}
	return r.parse(host)
}

// Key returns the address stored by Middleware, resolving it when absent.
// It satisfies ratelimit.KeyFunc.
func (r *Resolver) Key(req *http.Request) string {
	if ip := FromContext(req.Context()); ip != "" {
		return ip
	}
	return r.IP(req)
}

func (r *Resolver) parse(s string) string {
	s = strings.TrimSpace(s)
	if s == "" {
		return ""
	}

	addr, err := netip.ParseAddr(strings.Trim(s, "[]"))
	if err != nil {
		return ""
	}
	addr = addr.Unmap().WithZone("")

	if addr.Is6() && r.ipv6Prefix > 0 && r.ipv6Prefix < 128 {
		p, err := addr.Prefix(r.ipv6Prefix)
		if err == nil {
			return p.String()
		}
	}
	return addr.String()
}
