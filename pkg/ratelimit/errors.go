package ratelimit

import (
	"errors"
	"fmt"
)

var (
	// ErrLimitExceeded is matched by every *LimitExceededError.
	ErrLimitExceeded = errors.New("rate limit exceeded")

	// ErrCannotUseRateLimiter is returned by constructors when the backend is
	// reachable but configured in a way that would make counting unreliable.
	ErrCannotUseRateLimiter = errors.New("cannot use rate limiter")

	ErrInvalidRate        = errors.New("invalid rate")
	ErrIdentifierRequired = errors.New("identifier is required")
	ErrStoreRequired      = errors.New("store is required")

	// ErrUnsupported is returned by the capability helpers when the limiter
	// does not implement the requested operation.
	ErrUnsupported = errors.New("operation not supported by rate limiter")
)

// LimitExceededError is returned by Limit when the identifier has used up its quota.
type LimitExceededError struct {
	Identifier string
	Rate       Rate
}

func (e *LimitExceededError) Error() string {
	return fmt.Sprintf("limit has been exceeded for identifier %q", e.Identifier)
}

// Is makes errors.Is(err, ErrLimitExceeded) hold for any LimitExceededError.
func (e *LimitExceededError) Is(target error) bool {
	return target == ErrLimitExceeded
}

// AsLimitExceeded extracts the LimitExceededError from an error chain.
func AsLimitExceeded(err error) (*LimitExceededError, bool) {
	var le *LimitExceededError
	if errors.As(err, &le) {
		return le, true
	}
	return nil, false
}

// CannotUse wraps a reason with ErrCannotUseRateLimiter.
// Store packages use it for their construction time checks.
func CannotUse(format string, args ...any) error {
	return fmt.Errorf("%w: %s", ErrCannotUseRateLimiter, fmt.Sprintf(format, args...))
}
