// Package pg stores rate limit window counters in PostgreSQL through pgx.
//
// Store implements ratelimit.ExpiryStore over the rate_limit_counters
// table. Increment is one UPSERT that restarts expired rows in place, so a
// stale row never extends a window. Times are taken from the store clock
// (time.Now unless WithClock is given) and passed as query arguments.
// Expired rows are removed by Purge, which RunPurge schedules in the
// background.
//
// The schema ships embedded in the binary and is applied by Migrate with
// goose. New refuses to build a store until the table exists.
//
//	pool, err := pg.Connect(ctx, cfg)
//	if err != nil {
//		return err
//	}
//	if err := pg.Migrate(ctx, pool, cfg, log); err != nil {
//		return err
//	}
//	store, err := pg.New(ctx, pool)
//	if err != nil {
//		return err
//	}
//	go store.RunPurge(ctx, cfg.PurgeInterval, func(err error) { log.Error("purge", logger.Error(err)) })
package pg
