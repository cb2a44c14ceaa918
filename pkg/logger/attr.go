package logger

import (
	"fmt"
	"log/slog"
	"time"
)

// Group creates a slog group attribute from the provided attributes.
func Group(name string, attrs ...slog.Attr) slog.Attr {
	return slog.Attr{Key: name, Value: slog.GroupValue(attrs...)}
}

// Error creates an attribute for a single error under the key "error".
// If err is nil, it returns an empty Attr.
func Error(err error) slog.Attr {
	if err == nil {
		return slog.Attr{}
	}
	return slog.Any("error", err)
}

// RequestID records the request identifier under the key "request_id".
// If id is empty, it returns an empty Attr.
func RequestID(id string) slog.Attr {
	if id == "" {
		return slog.Attr{}
	}
	return slog.String("request_id", id)
}

// Identifier records the rate limited identifier under the key "identifier".
func Identifier(id string) slog.Attr {
	return slog.String("identifier", id)
}

// Rate records a rate as "operations/interval" under the key "rate".
// Accepts anything printable so the ratelimit package stays free of a cycle.
func Rate(rate fmt.Stringer) slog.Attr {
	if rate == nil {
		return slog.Attr{}
	}
	return slog.String("rate", rate.String())
}

// Policy records the matched policy name under the key "policy".
func Policy(name string) slog.Attr {
	return slog.String("policy", name)
}

// Backend records the storage backend name under the key "backend".
func Backend(name string) slog.Attr {
	return slog.String("backend", name)
}

// Quota groups the remaining attempts and reset time under the key "quota".
func Quota(remaining int, resetAt time.Time) slog.Attr {
	return Group("quota",
		slog.Int("remaining", remaining),
		slog.Time("reset_at", resetAt),
	)
}

// Component records the component name under the key "component".
func Component(name string) slog.Attr {
	return slog.String("component", name)
}

// Duration records a duration under the key "duration".
func Duration(d time.Duration) slog.Attr {
	return slog.Duration("duration", d)
}
