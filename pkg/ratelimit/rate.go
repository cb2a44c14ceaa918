package ratelimit

import (
	"fmt"
	"strconv"
	"strings"
	"time"
)

// Rate is the number of operations allowed per interval.
// The zero value is invalid; use NewRate or one of the Per* constructors.
type Rate struct {
	operations int
	interval   time.Duration
}

// NewRate returns a rate of operations per interval.
// The interval must be a whole number of seconds, at least one second long.
func NewRate(operations int, interval time.Duration) (Rate, error) {
	r := Rate{operations: operations, interval: interval}
	if err := r.Validate(); err != nil {
		return Rate{}, err
	}
	return r, nil
}

// MustRate is like NewRate but panics on invalid input.
func MustRate(operations int, interval time.Duration) Rate {
	r, err := NewRate(operations, interval)
	if err != nil {
		panic(err)
	}
	return r
}

func PerSecond(operations int) Rate { return Rate{operations: operations, interval: time.Second} }

func PerMinute(operations int) Rate { return Rate{operations: operations, interval: time.Minute} }

func PerHour(operations int) Rate { return Rate{operations: operations, interval: time.Hour} }

func PerDay(operations int) Rate { return Rate{operations: operations, interval: 24 * time.Hour} }

// Operations returns the maximum number of operations per interval.
func (r Rate) Operations() int { return r.operations }

// Interval returns the window length.
func (r Rate) Interval() time.Duration { return r.interval }

// Seconds returns the window length in whole seconds.
func (r Rate) Seconds() int64 { return int64(r.interval / time.Second) }

// Validate reports whether the rate can be used for counting.
func (r Rate) Validate() error {
	if r.operations <= 0 {
		return fmt.Errorf("%w: operations must be positive, got %d", ErrInvalidRate, r.operations)
	}
	if r.interval < time.Second {
		return fmt.Errorf("%w: interval must be at least 1s, got %v", ErrInvalidRate, r.interval)
	}
	if r.interval%time.Second != 0 {
		return fmt.Errorf("%w: interval must be a whole number of seconds, got %v", ErrInvalidRate, r.interval)
	}
	return nil
}

// Equal reports whether both rates allow the same operations per the same interval.
func (r Rate) Equal(other Rate) bool {
	return r.operations == other.operations && r.interval == other.interval
}

func (r Rate) String() string {
	return strconv.Itoa(r.operations) + "/" + r.interval.String()
}

// unitAliases maps human friendly units accepted by ParseRate.
var unitAliases = map[string]time.Duration{
	"second": time.Second,
	"sec":    time.Second,
	"s":      time.Second,
	"minute": time.Minute,
	"min":    time.Minute,
	"m":      time.Minute,
	"hour":   time.Hour,
	"h":      time.Hour,
	"day":    24 * time.Hour,
	"d":      24 * time.Hour,
}

// ParseRate parses "<operations>/<interval>" where interval is either a unit
// alias ("second", "minute", "hour", "day") or a Go duration such as "30s".
//
//	ParseRate("100/minute") // PerMinute(100)
//	ParseRate("5/10s")      // 5 operations per 10 seconds
func ParseRate(s string) (Rate, error) {
	opsRaw, intervalRaw, ok := strings.Cut(strings.TrimSpace(s), "/")
	if !ok {
		return Rate{}, fmt.Errorf("%w: %q must look like <operations>/<interval>", ErrInvalidRate, s)
	}

	ops, err := strconv.Atoi(strings.TrimSpace(opsRaw))
	if err != nil {
		return Rate{}, fmt.Errorf("%w: operations in %q: %w", ErrInvalidRate, s, err)
	}

	intervalRaw = strings.ToLower(strings.TrimSpace(intervalRaw))
	interval, known := unitAliases[intervalRaw]
	if !known {
		interval, err = time.ParseDuration(intervalRaw)
		if err != nil {
			return Rate{}, fmt.Errorf("%w: interval in %q: %w", ErrInvalidRate, s, err)
		}
	}

	return NewRate(ops, interval)
}

// MarshalText renders the rate in the form accepted by ParseRate.
func (r Rate) MarshalText() ([]byte, error) {
	return []byte(r.String()), nil
}

// UnmarshalText parses a rate with ParseRate, which lets rates be read
// straight from env tags and YAML documents.
func (r *Rate) UnmarshalText(text []byte) error {
	parsed, err := ParseRate(string(text))
	if err != nil {
		return err
	}
	*r = parsed
	return nil
}
