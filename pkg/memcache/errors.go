package memcache

import "errors"

var (
	ErrNoServers         = errors.New("no memcached servers configured")
	ErrMemcachedNotReady = errors.New("memcached did not become ready")
	ErrHealthcheckFailed = errors.New("memcached healthcheck failed")
	ErrClientRequired    = errors.New("memcached client is required")
	ErrMalformedCounter  = errors.New("memcached counter holds a non numeric value")
)
