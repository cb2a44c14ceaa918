// Package mongo stores rate limit window counters in MongoDB.
//
// Store implements ratelimit.ExpiryStore with one document per counter:
//
//	{_id: <counter key>, count: <int64>, expiresAt: <date>}
//
// Increment is a single FindOneAndUpdate with an aggregation pipeline
// update and upsert, so creating, restarting and bumping a counter are all
// atomic on the server. Pipeline updates need MongoDB 4.2 or newer; New
// reports ratelimit.ErrCannotUseRateLimiter for older servers.
//
// Documents past expiresAt read as absent immediately. The TTL index made
// by EnsureIndexes deletes them in the background.
//
//	coll, err := mongo.ConnectCollection(ctx, cfg)
//	if err != nil {
//		return err
//	}
//	store, err := mongo.New(ctx, coll)
//	if err != nil {
//		return err
//	}
//	if err := store.EnsureIndexes(ctx); err != nil {
//		return err
//	}
//	limiter, err := ratelimit.NewWindowLimiter(store)
//
// Connection settings come from MONGODB_* environment variables, see Config.
package mongo
