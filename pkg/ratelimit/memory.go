package ratelimit

import (
	"context"
	"strconv"
	"time"
)

// MemoryLimiter counts operations in process memory using calendar aligned
// windows: the window id is floor(unix time / interval), so all identifiers
// switch windows at the same instants.
type MemoryLimiter struct {
	store  *MemoryStore
	prefix string
	now    func() time.Time
}

var (
	_ Limiter       = (*MemoryLimiter)(nil)
	_ SilentLimiter = (*MemoryLimiter)(nil)
	_ StatusLimiter = (*MemoryLimiter)(nil)
	_ Resetter      = (*MemoryLimiter)(nil)
)

// NewMemoryLimiter creates a limiter over store.
func NewMemoryLimiter(store *MemoryStore, opts ...Option) (*MemoryLimiter, error) {
	if store == nil {
		return nil, ErrStoreRequired
	}

	o := defaultOptions()
	for _, opt := range opts {
		opt(&o)
	}

	return &MemoryLimiter{store: store, prefix: o.prefix, now: o.now}, nil
}

func (l *MemoryLimiter) Limit(_ context.Context, identifier string, rate Rate) error {
	if err := validate(identifier, rate); err != nil {
		return err
	}

	key, resetAt := l.window(identifier, rate)
	_, ok := l.store.hit(key, resetAt, func(current int64) bool {
		return current < int64(rate.Operations())
	})
	if !ok {
		return &LimitExceededError{Identifier: identifier, Rate: rate}
	}
	return nil
}

func (l *MemoryLimiter) LimitSilently(_ context.Context, identifier string, rate Rate) (Status, error) {
	if err := validate(identifier, rate); err != nil {
		return Status{}, err
	}

	key, resetAt := l.window(identifier, rate)
	current, _ := l.store.hit(key, resetAt, func(current int64) bool {
		return current <= int64(rate.Operations())
	})
	return NewStatus(identifier, current, rate.Operations(), resetAt), nil
}

func (l *MemoryLimiter) Status(_ context.Context, identifier string, rate Rate) (Status, error) {
	if err := validate(identifier, rate); err != nil {
		return Status{}, err
	}

	key, resetAt := l.window(identifier, rate)
	return NewStatus(identifier, l.store.get(key), rate.Operations(), resetAt), nil
}

// Reset drops the counters of identifier for every window of the rate's interval.
func (l *MemoryLimiter) Reset(_ context.Context, identifier string, rate Rate) error {
	if err := validate(identifier, rate); err != nil {
		return err
	}

	l.store.deleteWindows(CounterKey(l.prefix, identifier, rate.Seconds()))
	return nil
}

// window returns the key of the current calendar window and the time it ends.
func (l *MemoryLimiter) window(identifier string, rate Rate) (string, time.Time) {
	seconds := rate.Seconds()
	id := l.now().Unix() / seconds
	key := CounterKey(l.prefix, identifier, seconds) + ":" + strconv.FormatInt(id, 10)
	return key, time.Unix((id+1)*seconds, 0)
}
