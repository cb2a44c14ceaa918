package ratelimit

import "strconv"

// CounterKey returns the key holding the operation counter of identifier
// for a window of intervalSeconds: prefix + identifier + ":" + interval.
func CounterKey(prefix, identifier string, intervalSeconds int64) string {
	return prefix + identifier + ":" + strconv.FormatInt(intervalSeconds, 10)
}

// WindowStartKey returns the key holding the unix time of the first
// operation recorded in the current window.
func WindowStartKey(counterKey string) string {
	return counterKey + ":time"
}

type keyset struct {
	counter     string
	windowStart string
}

func newKeyset(prefix, identifier string, rate Rate) keyset {
	counter := CounterKey(prefix, identifier, rate.Seconds())
	return keyset{counter: counter, windowStart: WindowStartKey(counter)}
}
