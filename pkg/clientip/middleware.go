package clientip

import "net/http"

// Middleware resolves the client address once per request and stores it
// in the request context.
func (r *Resolver) Middleware(next http.Handler) http.Handler {
	return http.HandlerFunc(func(w http.ResponseWriter, req *http.Request) {
		if ip := r.IP(req); ip != "" {
			req = req.WithContext(WithContext(req.Context(), ip))
		}
		next.ServeHTTP(w, req)
	})
}
