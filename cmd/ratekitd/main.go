// Command ratekitd is an HTTP service that rate limits requests by client
// address, with policies per path pattern and a pluggable counter backend.
//
// Every setting comes from the environment (or a .env file): see Config
// for RATELIMIT_* and CLIENTIP_*, and the backend packages for REDIS_*,
// MEMCACHED_*, PG_* and MONGODB_*.
package main

import (
	"context"
	"fmt"
	"log/slog"
	"os"

	"github.com/dmitrymomot/ratekit/pkg/clientip"
	"github.com/dmitrymomot/ratekit/pkg/config"
	"github.com/dmitrymomot/ratekit/pkg/httpserver"
	"github.com/dmitrymomot/ratekit/pkg/logger"
	"github.com/dmitrymomot/ratekit/pkg/ratelimit"
	"github.com/dmitrymomot/ratekit/pkg/requestid"
)

func main() {
	var cfg Config
	config.MustLoad(&cfg)

	log := logger.New(
		logger.WithConfig(cfg.Log),
		logger.WithContextExtractors(requestid.LoggerExtractor()),
	)
	logger.SetAsDefault(log)

	if err := run(context.Background(), cfg, log); err != nil {
		log.Error("ratekitd stopped", logger.Error(err))
		os.Exit(1)
	}
}

func run(ctx context.Context, cfg Config, log *slog.Logger) error {
	policies, err := loadPolicies(cfg)
	if err != nil {
		return err
	}

	b, err := openBackend(ctx, cfg, log)
	if err != nil {
		return fmt.Errorf("open %s backend: %w", cfg.Backend, err)
	}

	ips := clientip.New(
		clientip.WithTrustedHeaders(cfg.TrustedHeaders...),
		clientip.WithIPv6Prefix(cfg.IPv6Prefix),
	)

	srv := httpserver.NewFromConfig(cfg.HTTP,
		httpserver.WithLogger(log),
		httpserver.WithStopHook(b.name, b.close),
	)
	return srv.Run(ctx, newRouter(b, policies, ips, log))
}

// loadPolicies reads RATELIMIT_POLICIES_FILE when set. Paths no policy
// matches fall back to the default rate.
func loadPolicies(cfg Config) (ratelimit.PolicyResolver, error) {
	fallback := ratelimit.Policy{Name: "default", Rate: cfg.DefaultRate}
	if err := fallback.Rate.Validate(); err != nil {
		return nil, fmt.Errorf("RATELIMIT_DEFAULT_RATE: %w", err)
	}

	if cfg.PoliciesFile == "" {
		return ratelimit.Static(fallback), nil
	}

	f, err := os.Open(cfg.PoliciesFile)
	if err != nil {
		return nil, fmt.Errorf("open policies: %w", err)
	}
	defer f.Close()

	policies, err := ratelimit.LoadPolicies(f)
	if err != nil {
		return nil, fmt.Errorf("load %s: %w", cfg.PoliciesFile, err)
	}
	if err := policies.Add(".*", fallback); err != nil {
		return nil, err
	}
	return policies, nil
}
