package main

import (
	"time"

	"github.com/dmitrymomot/ratekit/pkg/httpserver"
	"github.com/dmitrymomot/ratekit/pkg/logger"
	"github.com/dmitrymomot/ratekit/pkg/ratelimit"
)

// Supported RATELIMIT_BACKEND values.
const (
	backendMemory    = "memory"
	backendLocal     = "local"
	backendRedis     = "redis"
	backendMemcached = "memcached"
	backendPostgres  = "postgres"
	backendMongo     = "mongo"
)

type Config struct {
	Backend         string         `env:"RATELIMIT_BACKEND" envDefault:"memory"`
	Prefix          string         `env:"RATELIMIT_PREFIX" envDefault:"ratekit:"`
	PoliciesFile    string         `env:"RATELIMIT_POLICIES_FILE"`
	DefaultRate     ratelimit.Rate `env:"RATELIMIT_DEFAULT_RATE" envDefault:"100/minute"` // DefaultRate applies to paths no policy matches.
	LocalCapacity   int            `env:"RATELIMIT_LOCAL_CAPACITY" envDefault:"100000"`
	CleanupInterval time.Duration  `env:"RATELIMIT_CLEANUP_INTERVAL" envDefault:"1m"`

	TrustedHeaders []string `env:"CLIENTIP_TRUSTED_HEADERS" envSeparator:"," envDefault:"CF-Connecting-IP,X-Forwarded-For,X-Real-IP"`
	IPv6Prefix     int      `env:"CLIENTIP_IPV6_PREFIX" envDefault:"64"`

	HTTP httpserver.Config
	Log  logger.Config
}
