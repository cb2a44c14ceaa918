package ratelimit

import (
	"context"
	"time"
)

// Store is the set of primitives a shared backend must offer to count
// operations in rolling windows. Implementations must be safe for concurrent use.
type Store interface {
	// Get returns the counter value, or 0 when the key does not exist.
	Get(ctx context.Context, key string) (int64, error)

	// Increment atomically adds one to the counter and returns the new value.
	// A missing key is created with the given ttl and reported as 1.
	// The ttl of an existing key is left untouched.
	Increment(ctx context.Context, key string, ttl time.Duration) (int64, error)

	// Delete removes the keys. Missing keys are not an error.
	Delete(ctx context.Context, keys ...string) error
}

// ExpiryStore is a Store able to report how long a key has left to live.
// Window reset times are derived from the counter's own expiration.
type ExpiryStore interface {
	Store
	TTL(ctx context.Context, key string) (time.Duration, error)
}

// WindowStartStore is a Store that can write a value only if the key is absent.
// Stores without expiry reporting keep the window start under a second key.
type WindowStartStore interface {
	Store
	Add(ctx context.Context, key string, value int64, ttl time.Duration) error
}

// WindowLimiter counts operations in rolling windows on a shared Store.
// A window opens with the first recorded operation and lasts one interval,
// after which the backend expires the counter.
type WindowLimiter struct {
	store  Store
	expiry ExpiryStore
	starts WindowStartStore
	prefix string
	now    func() time.Time
}

var (
	_ Limiter       = (*WindowLimiter)(nil)
	_ SilentLimiter = (*WindowLimiter)(nil)
	_ StatusLimiter = (*WindowLimiter)(nil)
	_ Resetter      = (*WindowLimiter)(nil)
)

// NewWindowLimiter creates a limiter over store. The store must implement
// either ExpiryStore or WindowStartStore, otherwise reset times cannot be
// computed and ErrCannotUseRateLimiter is returned.
func NewWindowLimiter(store Store, opts ...Option) (*WindowLimiter, error) {
	if store == nil {
		return nil, ErrStoreRequired
	}

	o := defaultOptions()
	for _, opt := range opts {
		opt(&o)
	}

	l := &WindowLimiter{store: store, prefix: o.prefix, now: o.now}
	if es, ok := store.(ExpiryStore); ok {
		l.expiry = es
	} else if ws, ok := store.(WindowStartStore); ok {
		l.starts = ws
	} else {
		return nil, CannotUse("store %T reports neither key expiry nor window start", store)
	}

	return l, nil
}

func (l *WindowLimiter) Limit(ctx context.Context, identifier string, rate Rate) error {
	if err := validate(identifier, rate); err != nil {
		return err
	}

	keys := newKeyset(l.prefix, identifier, rate)
	current, err := l.store.Get(ctx, keys.counter)
	if err != nil {
		return err
	}
	if current >= int64(rate.Operations()) {
		return &LimitExceededError{Identifier: identifier, Rate: rate}
	}

	_, err = l.increment(ctx, keys, rate)
	return err
}

func (l *WindowLimiter) LimitSilently(ctx context.Context, identifier string, rate Rate) (Status, error) {
	if err := validate(identifier, rate); err != nil {
		return Status{}, err
	}

	keys := newKeyset(l.prefix, identifier, rate)
	current, err := l.store.Get(ctx, keys.counter)
	if err != nil {
		return Status{}, err
	}
	if current <= int64(rate.Operations()) {
		if current, err = l.increment(ctx, keys, rate); err != nil {
			return Status{}, err
		}
	}

	return l.status(ctx, keys, identifier, current, rate)
}

func (l *WindowLimiter) Status(ctx context.Context, identifier string, rate Rate) (Status, error) {
	if err := validate(identifier, rate); err != nil {
		return Status{}, err
	}

	keys := newKeyset(l.prefix, identifier, rate)
	current, err := l.store.Get(ctx, keys.counter)
	if err != nil {
		return Status{}, err
	}

	return l.status(ctx, keys, identifier, current, rate)
}

func (l *WindowLimiter) Reset(ctx context.Context, identifier string, rate Rate) error {
	if err := validate(identifier, rate); err != nil {
		return err
	}

	keys := newKeyset(l.prefix, identifier, rate)
	if l.starts != nil {
		return l.store.Delete(ctx, keys.counter, keys.windowStart)
	}
	return l.store.Delete(ctx, keys.counter)
}

// increment records one operation. The first operation of a window also
// records the window start; Add never overwrites a start written by a
// concurrent first hit.
func (l *WindowLimiter) increment(ctx context.Context, keys keyset, rate Rate) (int64, error) {
	current, err := l.store.Increment(ctx, keys.counter, rate.Interval())
	if err != nil {
		return 0, err
	}

	if current == 1 && l.starts != nil {
		if err := l.starts.Add(ctx, keys.windowStart, l.now().Unix(), rate.Interval()); err != nil {
			return 0, err
		}
	}

	return current, nil
}

func (l *WindowLimiter) status(ctx context.Context, keys keyset, identifier string, current int64, rate Rate) (Status, error) {
	now := l.now().Unix()
	left, err := l.secondsLeft(ctx, keys, rate, current, now)
	if err != nil {
		return Status{}, err
	}
	return NewStatus(identifier, current, rate.Operations(), time.Unix(now+left, 0)), nil
}

// secondsLeft returns max(0, interval - elapsed) for the current window.
// An identifier with no window yet, or a counter whose start key is gone,
// gets a full interval: its window would open with the next hit.
func (l *WindowLimiter) secondsLeft(ctx context.Context, keys keyset, rate Rate, current, now int64) (int64, error) {
	if current == 0 {
		return rate.Seconds(), nil
	}

	if l.expiry != nil {
		ttl, err := l.expiry.TTL(ctx, keys.counter)
		if err != nil {
			return 0, err
		}
		return ceilSeconds(ttl), nil
	}

	started, err := l.store.Get(ctx, keys.windowStart)
	if err != nil {
		return 0, err
	}
	if started == 0 {
		return rate.Seconds(), nil
	}
	return min(rate.Seconds(), max(0, rate.Seconds()-(now-started))), nil
}

func ceilSeconds(d time.Duration) int64 {
	if d <= 0 {
		return 0
	}
	return int64((d + time.Second - 1) / time.Second)
}
