package clientip_test

import (
	"net/http"
	"net/http/httptest"
	"testing"

	"github.com/stretchr/testify/assert"

	"github.com/dmitrymomot/ratekit/pkg/clientip"
)

func request(remote string, headers map[string]string) *http.Request {
	r := httptest.NewRequest(http.MethodGet, "/", nil)
	r.RemoteAddr = remote
	for k, v := range headers {
		r.Header.Set(k, v)
	}
	return r
}

func TestResolver_IP(t *testing.T) {
	t.Parallel()

	tests := []struct {
		name    string
		opts    []clientip.Option
		remote  string
		headers map[string]string
		want    string
	}{
		{name: "remote addr", remote: "192.0.2.1:1234", want: "192.0.2.1"},
		{name: "remote addr without port", remote: "192.0.2.1", want: "192.0.2.1"},
		{name: "cloudflare wins", remote: "10.0.0.1:1", headers: map[string]string{"CF-Connecting-IP": "203.0.113.7", "X-Forwarded-For": "198.51.100.1"}, want: "203.0.113.7"},
		{name: "first valid forwarded entry", remote: "10.0.0.1:1", headers: map[string]string{"X-Forwarded-For": "garbage, 198.51.100.1, 10.0.0.2"}, want: "198.51.100.1"},
		{name: "real ip", remote: "10.0.0.1:1", headers: map[string]string{"X-Real-IP": " 198.51.100.9 "}, want: "198.51.100.9"},
		{name: "invalid headers fall back", remote: "10.0.0.1:1", headers: map[string]string{"X-Real-IP": "nope"}, want: "10.0.0.1"},
		{name: "ipv4 mapped", remote: "[::ffff:192.0.2.5]:80", want: "192.0.2.5"},
		{name: "ipv6 masked to 64", remote: "[2001:db8:1:2:3:4:5:6]:443", want: "2001:db8:1:2::/64"},
		{name: "ipv6 zone dropped", remote: "[fe80::1%eth0]:443", want: "fe80::/64"},
		{name: "ipv6 custom prefix", opts: []clientip.Option{clientip.WithIPv6Prefix(48)}, remote: "[2001:db8:1:2::9]:1", want: "2001:db8:1::/48"},
		{name: "ipv6 unmasked", opts: []clientip.Option{clientip.WithIPv6Prefix(0)}, remote: "[2001:db8::9]:1", want: "2001:db8::9"},
		{name: "headers untrusted", opts: []clientip.Option{clientip.WithTrustedHeaders()}, remote: "10.0.0.1:1", headers: map[string]string{"X-Forwarded-For": "198.51.100.1"}, want: "10.0.0.1"},
		{name: "custom header", opts: []clientip.Option{clientip.WithTrustedHeaders("fly-client-ip")}, remote: "10.0.0.1:1", headers: map[string]string{"Fly-Client-IP": "198.51.100.4", "X-Real-IP": "198.51.100.5"}, want: "198.51.100.4"},
		{name: "nothing valid", remote: "pipe", want: ""},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			t.Parallel()
			r := clientip.New(tt.opts...)
			assert.Equal(t, tt.want, r.IP(request(tt.remote, tt.headers)))
		})
	}
}

func TestResolver_MiddlewareAndKey(t *testing.T) {
	t.Parallel()

	res := clientip.New()

	var fromCtx, key string
	h := res.Middleware(http.HandlerFunc(func(_ http.ResponseWriter, r *http.Request) {
		fromCtx = clientip.FromContext(r.Context())
		r.Header.Set("X-Real-IP", "198.51.100.200")
		key = res.Key(r)
	}))
	h.ServeHTTP(httptest.NewRecorder(), request("192.0.2.10:5000", nil))

	assert.Equal(t, "192.0.2.10", fromCtx)
	assert.Equal(t, "192.0.2.10", key, "key prefers the address resolved by the middleware")

	assert.Equal(t, "192.0.2.11", res.Key(request("192.0.2.11:1", nil)), "key resolves without the middleware")
}
