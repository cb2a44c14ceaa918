package ratelimit

import (
	"context"
	"time"
)

// Limiter is the enforcing capability. Limit records one operation for the
// identifier, or returns a *LimitExceededError without recording anything
// when the quota for the current window is already used up.
type Limiter interface {
	Limit(ctx context.Context, identifier string, rate Rate) error
}

// SilentLimiter records usage without ever failing on an exhausted quota.
// The returned Status tells the caller whether the limit has been exceeded.
type SilentLimiter interface {
	LimitSilently(ctx context.Context, identifier string, rate Rate) (Status, error)
}

// StatusLimiter reports the current consumption without recording usage.
type StatusLimiter interface {
	Status(ctx context.Context, identifier string, rate Rate) (Status, error)
}

// Resetter drops the counting state of an identifier for a rate.
type Resetter interface {
	Reset(ctx context.Context, identifier string, rate Rate) error
}

// Silently calls LimitSilently when l supports it and returns ErrUnsupported otherwise.
func Silently(ctx context.Context, l Limiter, identifier string, rate Rate) (Status, error) {
	sl, ok := l.(SilentLimiter)
	if !ok {
		return Status{}, ErrUnsupported
	}
	return sl.LimitSilently(ctx, identifier, rate)
}

// StatusOf calls Status when l supports it and returns ErrUnsupported otherwise.
func StatusOf(ctx context.Context, l Limiter, identifier string, rate Rate) (Status, error) {
	sl, ok := l.(StatusLimiter)
	if !ok {
		return Status{}, ErrUnsupported
	}
	return sl.Status(ctx, identifier, rate)
}

// Reset calls Reset when l supports it and returns ErrUnsupported otherwise.
func Reset(ctx context.Context, l Limiter, identifier string, rate Rate) error {
	r, ok := l.(Resetter)
	if !ok {
		return ErrUnsupported
	}
	return r.Reset(ctx, identifier, rate)
}

// Option configures a limiter.
type Option func(*options)

type options struct {
	prefix string
	now    func() time.Time
}

func defaultOptions() options {
	return options{now: time.Now}
}

// WithPrefix namespaces every key the limiter creates. Limiters sharing a
// backend with distinct prefixes count independently.
func WithPrefix(prefix string) Option {
	return func(o *options) { o.prefix = prefix }
}

// WithClock replaces time.Now. Nil is ignored. A MemoryStore shared with a
// MemoryLimiter needs the same clock via WithStoreClock.
func WithClock(now func() time.Time) Option {
	return func(o *options) {
		if now != nil {
			o.now = now
		}
	}
}

func validate(identifier string, rate Rate) error {
	if identifier == "" {
		return ErrIdentifierRequired
	}
	return rate.Validate()
}
