package memcache

import "time"

type Config struct {
	Servers       []string      `env:"MEMCACHED_SERVERS" envSeparator:"," envDefault:"localhost:11211"`
	Timeout       time.Duration `env:"MEMCACHED_TIMEOUT" envDefault:"500ms"`
	MaxIdleConns  int           `env:"MEMCACHED_MAX_IDLE_CONNS" envDefault:"8"`
	RetryAttempts int           `env:"MEMCACHED_RETRY_ATTEMPTS" envDefault:"3"`
	RetryInterval time.Duration `env:"MEMCACHED_RETRY_INTERVAL" envDefault:"2s"`
}
