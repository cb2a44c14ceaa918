// Package httpserver runs the rate limiting daemon's HTTP listener with
// graceful shutdown and health probes.
//
// Server.Run binds the listener, serves until the context is cancelled or
// SIGINT/SIGTERM arrives, then drains connections within the shutdown
// timeout and runs the stop hooks registered with WithStopHook. Hooks are
// where counter backends are released: closing the memory store janitor,
// the redis client or the database pool.
//
//	srv := httpserver.NewFromConfig(cfg.HTTP,
//		httpserver.WithLogger(log),
//		httpserver.WithStopHook("memory", func(context.Context) error { return store.Close() }),
//	)
//	r.Get("/healthz", httpserver.LivenessHandler())
//	r.Get("/readyz", httpserver.ReadinessHandler(log, httpserver.Check{Name: "redis", Fn: redis.Healthcheck(client)}))
//	if err := srv.Run(ctx, r); err != nil {
//		log.Error("server stopped", logger.Error(err))
//	}
//
// Listen failures are wrapped with ErrStart and shutdown failures with
// ErrShutdown.
package httpserver
