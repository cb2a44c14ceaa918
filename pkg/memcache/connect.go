package memcache

import (
	"context"
	"errors"
	"time"

	"github.com/bradfitz/gomemcache/memcache"
)

// Connect creates a client for cfg.Servers and pings every server until
// they all answer, up to cfg.RetryAttempts times.
func Connect(ctx context.Context, cfg Config) (*memcache.Client, error) {
	if len(cfg.Servers) == 0 {
		return nil, ErrNoServers
	}

	client := memcache.New(cfg.Servers...)
	client.Timeout = cfg.Timeout
	client.MaxIdleConns = cfg.MaxIdleConns

	var lastErr error
	for range max(1, cfg.RetryAttempts) {
		if lastErr = client.Ping(); lastErr == nil {
			return client, nil
		}

		select {
		case <-ctx.Done():
			return nil, errors.Join(ErrMemcachedNotReady, ctx.Err())
		case <-time.After(cfg.RetryInterval):
		}
	}

	return nil, errors.Join(ErrMemcachedNotReady, lastErr)
}

// Pinger is implemented by *memcache.Client.
type Pinger interface {
	Ping() error
}

// Healthcheck reports whether every server answers.
func Healthcheck(client Pinger) func(context.Context) error {
	return func(context.Context) error {
		if err := client.Ping(); err != nil {
			return errors.Join(ErrHealthcheckFailed, err)
		}
		return nil
	}
}
