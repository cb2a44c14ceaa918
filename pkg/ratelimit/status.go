package ratelimit

import "time"

// Status is a snapshot of the consumption of one identifier under one rate.
// It is computed fresh by every status producing call and never changes afterwards.
type Status struct {
	identifier string
	current    int64
	limit      int
	resetAt    time.Time
}

// NewStatus builds a Status from the raw counter value.
// The remaining attempts are derived as max(0, limit-current).
func NewStatus(identifier string, current int64, limit int, resetAt time.Time) Status {
	return Status{
		identifier: identifier,
		current:    current,
		limit:      limit,
		resetAt:    resetAt,
	}
}

func (s Status) Identifier() string { return s.identifier }

// Limit is the number of operations allowed within the window.
func (s Status) Limit() int { return s.limit }

// RemainingAttempts is how many operations are left in the current window.
func (s Status) RemainingAttempts() int {
	return int(max(0, int64(s.limit)-s.current))
}

// ResetAt is the moment the current window ends, with second resolution.
func (s Status) ResetAt() time.Time { return s.resetAt }

// LimitExceeded reports whether the counter has recorded an operation past the limit.
// A counter sitting exactly at the limit has no remaining attempts but is not exceeded.
func (s Status) LimitExceeded() bool {
	return s.current > int64(s.limit)
}

// RetryAfter returns how long to wait before the window resets.
// Returns 0 if the limit has not been exceeded.
func (s Status) RetryAfter() time.Duration {
	if !s.LimitExceeded() {
		return 0
	}
	return max(0, time.Until(s.resetAt))
}
