package ratelimit

import (
	"errors"
	"log/slog"
	"net/http"
	"strconv"
	"time"

	"github.com/dmitrymomot/ratekit/pkg/logger"
)

// Response headers written by Middleware.
const (
	HeaderLimit      = "X-RateLimit-Limit"
	HeaderRemaining  = "X-RateLimit-Remaining"
	HeaderReset      = "X-RateLimit-Reset"
	HeaderRetryAfter = "Retry-After"
)

// MiddlewareOption configures middleware behavior.
type MiddlewareOption func(*middlewareConfig)

type middlewareConfig struct {
	logger         *slog.Logger
	onError        func(w http.ResponseWriter, r *http.Request, err error)
	onLimitReached func(w http.ResponseWriter, r *http.Request, st Status)
	now            func() time.Time
}

// WithLogger sets the logger for rejected requests and backend failures.
func WithLogger(l *slog.Logger) MiddlewareOption {
	return func(c *middlewareConfig) {
		if l != nil {
			c.logger = l
		}
	}
}

// WithErrorHandler replaces the fail open behavior on backend errors.
// The handler owns the response; the wrapped handler is not called.
func WithErrorHandler(fn func(w http.ResponseWriter, r *http.Request, err error)) MiddlewareOption {
	return func(c *middlewareConfig) {
		c.onError = fn
	}
}

// WithOnLimitReached sets a custom response for requests over the limit.
func WithOnLimitReached(fn func(w http.ResponseWriter, r *http.Request, st Status)) MiddlewareOption {
	return func(c *middlewareConfig) {
		if fn != nil {
			c.onLimitReached = fn
		}
	}
}

// WithMiddlewareClock replaces time.Now for Retry-After computation.
func WithMiddlewareClock(now func() time.Time) MiddlewareOption {
	return func(c *middlewareConfig) {
		if now != nil {
			c.now = now
		}
	}
}

// Middleware rate limits requests by the policy the resolver picks and the
// identifier keyFunc extracts. Requests with no policy or an empty key pass
// through untouched.
//
// Limiters supporting LimitSilently are used in silent mode, which yields
// the quota headers on every response. Other limiters run in enforcing mode
// and only report quota when they also support Status.
//
// Backend errors fail open: the request is served and the error logged,
// unless WithErrorHandler is set.
func Middleware(limiter Limiter, resolver PolicyResolver, keyFunc KeyFunc, opts ...MiddlewareOption) func(http.Handler) http.Handler {
	if limiter == nil || resolver == nil || keyFunc == nil {
		panic("ratelimit.Middleware: limiter, resolver and keyFunc are required")
	}

	cfg := &middlewareConfig{
		logger: logger.Discard(),
		now:    time.Now,
	}
	cfg.onLimitReached = cfg.tooManyRequests
	for _, opt := range opts {
		opt(cfg)
	}

	silent, isSilent := limiter.(SilentLimiter)

	return func(next http.Handler) http.Handler {
		return http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
			policy, ok := resolver.Resolve(r)
			if !ok {
				next.ServeHTTP(w, r)
				return
			}
			key := keyFunc(r)
			if key == "" {
				next.ServeHTTP(w, r)
				return
			}

			ctx := r.Context()
			identifier := policy.Identifier(key)

			var (
				st  Status
				err error
			)
			if isSilent {
				st, err = silent.LimitSilently(ctx, identifier, policy.Rate)
			} else {
				st, err = cfg.enforce(r, limiter, identifier, policy.Rate)
			}

			if err != nil && !errors.Is(err, ErrLimitExceeded) {
				cfg.logger.ErrorContext(ctx, "rate limiter backend failed",
					logger.Policy(policy.Name),
					logger.Identifier(key),
					logger.Error(err),
				)
				if cfg.onError != nil {
					cfg.onError(w, r, err)
					return
				}
				next.ServeHTTP(w, r)
				return
			}

			if st.Limit() > 0 {
				writeHeaders(w, st)
			}

			if st.LimitExceeded() {
				cfg.logger.WarnContext(ctx, "rate limit reached",
					logger.Policy(policy.Name),
					logger.Identifier(key),
					logger.Rate(policy.Rate),
					logger.Quota(st.RemainingAttempts(), st.ResetAt()),
				)
				cfg.onLimitReached(w, r, st)
				return
			}

			next.ServeHTTP(w, r)
		})
	}
}

// enforce runs Limit and derives a Status for the headers. When the limiter
// cannot report status, a rejected request gets a Status whose reset is one
// full interval away, and an accepted one gets none.
func (c *middlewareConfig) enforce(r *http.Request, l Limiter, identifier string, rate Rate) (Status, error) {
	ctx := r.Context()

	limitErr := l.Limit(ctx, identifier, rate)
	if limitErr != nil && !errors.Is(limitErr, ErrLimitExceeded) {
		return Status{}, limitErr
	}

	st, err := StatusOf(ctx, l, identifier, rate)
	switch {
	case err == nil:
	case errors.Is(err, ErrUnsupported):
		if limitErr == nil {
			return Status{}, nil
		}
		st = NewStatus(identifier, int64(rate.Operations())+1, rate.Operations(), c.now().Add(rate.Interval()))
	default:
		return Status{}, err
	}

	if limitErr != nil {
		// Limit does not record the rejected operation, so the counter sits at the limit.
		st = NewStatus(st.Identifier(), int64(st.Limit())+1, st.Limit(), st.ResetAt())
	}
	return st, nil
}

func (c *middlewareConfig) tooManyRequests(w http.ResponseWriter, _ *http.Request, st Status) {
	retryAfter := max(1, ceilSeconds(st.ResetAt().Sub(c.now())))
	w.Header().Set(HeaderRetryAfter, strconv.FormatInt(retryAfter, 10))
	http.Error(w, http.StatusText(http.StatusTooManyRequests), http.StatusTooManyRequests)
}

func writeHeaders(w http.ResponseWriter, st Status) {
	h := w.Header()
	h.Set(HeaderLimit, strconv.Itoa(st.Limit()))
	h.Set(HeaderRemaining, strconv.Itoa(st.RemainingAttempts()))
	h.Set(HeaderReset, strconv.FormatInt(st.ResetAt().Unix(), 10))
}
