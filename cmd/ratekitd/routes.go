package main

import (
	"encoding/json"
	"errors"
	"log/slog"
	"net/http"
	"net/url"
	"strconv"
	"time"

	"github.com/go-chi/chi/v5"

	"github.com/dmitrymomot/ratekit/pkg/clientip"
	"github.com/dmitrymomot/ratekit/pkg/httpserver"
	"github.com/dmitrymomot/ratekit/pkg/logger"
	"github.com/dmitrymomot/ratekit/pkg/ratelimit"
	"github.com/dmitrymomot/ratekit/pkg/requestid"
)

type quotaResponse struct {
	Identifier string    `json:"identifier"`
	Limit      int       `json:"limit"`
	Remaining  int       `json:"remaining"`
	ResetAt    time.Time `json:"reset_at"`
	Exceeded   bool      `json:"exceeded"`
	RetryAfter int64     `json:"retry_after"`
}

type errorResponse struct {
	Error string `json:"error"`
}

// newRouter serves the probes and the quota admin API unthrottled, and
// rate limits every other path by policy.
func newRouter(b *backend, policies ratelimit.PolicyResolver, ips *clientip.Resolver, log *slog.Logger, mwOpts ...ratelimit.MiddlewareOption) http.Handler {
	r := chi.NewRouter()
	r.Use(requestid.Middleware, ips.Middleware)

	r.Get("/healthz", httpserver.LivenessHandler())
	r.Get("/readyz", httpserver.ReadinessHandler(log, b.checks...))

	r.Get("/quota/*", quotaHandler(b.limiter))
	r.Delete("/quota/*", resetHandler(b.limiter, log))

	r.Group(func(r chi.Router) {
		r.Use(ratelimit.Middleware(b.limiter, policies, ips.Key, append([]ratelimit.MiddlewareOption{ratelimit.WithLogger(log)}, mwOpts...)...))
		r.HandleFunc("/*", func(w http.ResponseWriter, _ *http.Request) {
			w.WriteHeader(http.StatusOK)
			_, _ = w.Write([]byte("OK"))
		})
	})

	return r
}

// quotaHandler reports the status of /quota/{identifier}?operations=&interval=.
// interval is a Go duration or a number of seconds.
func quotaHandler(l ratelimit.Limiter) http.HandlerFunc {
	return func(w http.ResponseWriter, r *http.Request) {
		identifier, rate, err := quotaParams(r)
		if err != nil {
			writeJSON(w, http.StatusBadRequest, errorResponse{Error: err.Error()})
			return
		}

		st, err := ratelimit.StatusOf(r.Context(), l, identifier, rate)
		if err != nil {
			writeLimiterError(w, err)
			return
		}

		writeJSON(w, http.StatusOK, quotaResponse{
			Identifier: st.Identifier(),
			Limit:      st.Limit(),
			Remaining:  st.RemainingAttempts(),
			ResetAt:    st.ResetAt().UTC(),
			Exceeded:   st.LimitExceeded(),
			RetryAfter: int64(st.RetryAfter() / time.Second),
		})
	}
}

func resetHandler(l ratelimit.Limiter, log *slog.Logger) http.HandlerFunc {
	return func(w http.ResponseWriter, r *http.Request) {
		identifier, rate, err := quotaParams(r)
		if err != nil {
			writeJSON(w, http.StatusBadRequest, errorResponse{Error: err.Error()})
			return
		}

		if err := ratelimit.Reset(r.Context(), l, identifier, rate); err != nil {
			writeLimiterError(w, err)
			return
		}

		log.InfoContext(r.Context(), "quota reset", logger.Identifier(identifier), logger.Rate(rate))
		w.WriteHeader(http.StatusNoContent)
	}
}

func quotaParams(r *http.Request) (string, ratelimit.Rate, error) {
	identifier, err := url.PathUnescape(chi.URLParam(r, "*"))
	if err != nil {
		return "", ratelimit.Rate{}, err
	}
	if identifier == "" {
		return "", ratelimit.Rate{}, ratelimit.ErrIdentifierRequired
	}

	q := r.URL.Query()
	ops, err := strconv.Atoi(q.Get("operations"))
	if err != nil {
		return "", ratelimit.Rate{}, errors.New("operations must be an integer")
	}

	raw := q.Get("interval")
	interval, err := time.ParseDuration(raw)
	if err != nil {
		secs, convErr := strconv.Atoi(raw)
		if convErr != nil {
			return "", ratelimit.Rate{}, errors.New("interval must be a duration or a number of seconds")
		}
		interval = time.Duration(secs) * time.Second
	}

	rate, err := ratelimit.NewRate(ops, interval)
	if err != nil {
		return "", ratelimit.Rate{}, err
	}
	return identifier, rate, nil
}

func writeLimiterError(w http.ResponseWriter, err error) {
	switch {
	case errors.Is(err, ratelimit.ErrUnsupported):
		writeJSON(w, http.StatusNotImplemented, errorResponse{Error: err.Error()})
	case errors.Is(err, ratelimit.ErrInvalidRate), errors.Is(err, ratelimit.ErrIdentifierRequired):
		writeJSON(w, http.StatusBadRequest, errorResponse{Error: err.Error()})
	default:
		writeJSON(w, http.StatusBadGateway, errorResponse{Error: "rate limit backend unavailable"})
	}
}

func writeJSON(w http.ResponseWriter, status int, v any) {
	w.Header().Set("Content-Type", "application/json")
	w.WriteHeader(status)
	_ = json.NewEncoder(w).Encode(v)
}
