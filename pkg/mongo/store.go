package mongo

import (
	"context"
	"errors"
	"fmt"
	"time"

	"go.mongodb.org/mongo-driver/v2/bson"
	"go.mongodb.org/mongo-driver/v2/mongo"
	"go.mongodb.org/mongo-driver/v2/mongo/options"

	"github.com/dmitrymomot/ratekit/pkg/ratelimit"
)

// Pipeline updates arrived in 4.2.
var minServerVersion = [2]int32{4, 2}

type counter struct {
	Key       string    `bson:"_id"`
	Count     int64     `bson:"count"`
	ExpiresAt time.Time `bson:"expiresAt"`
}

// Store keeps one document per window counter. Documents past expiresAt
// read as absent and are dropped by the TTL index created by EnsureIndexes.
type Store struct {
	coll *mongo.Collection
	now  func() time.Time
}

var _ ratelimit.ExpiryStore = (*Store)(nil)

type StoreOption func(*Store)

// WithClock sets the clock expirations are computed against.
func WithClock(now func() time.Time) StoreOption {
	return func(s *Store) {
		if now != nil {
			s.now = now
		}
	}
}

// New checks the server version and returns a Store over coll.
func New(ctx context.Context, coll *mongo.Collection, opts ...StoreOption) (*Store, error) {
	if coll == nil {
		return nil, ErrCollectionRequired
	}

	var info struct {
		Version      string  `bson:"version"`
		VersionArray []int32 `bson:"versionArray"`
	}
	if err := coll.Database().RunCommand(ctx, bson.D{{Key: "buildInfo", Value: 1}}).Decode(&info); err != nil {
		return nil, fmt.Errorf("mongo: build info: %w", err)
	}
	if !supportsPipelineUpdates(info.VersionArray) {
		return nil, ratelimit.CannotUse("mongo server %s is older than %d.%d", info.Version, minServerVersion[0], minServerVersion[1])
	}

	s := &Store{coll: coll, now: time.Now}
	for _, opt := range opts {
		opt(s)
	}
	return s, nil
}

func supportsPipelineUpdates(version []int32) bool {
	if len(version) < 2 {
		return false
	}
	if version[0] != minServerVersion[0] {
		return version[0] > minServerVersion[0]
	}
	return version[1] >= minServerVersion[1]
}

// EnsureIndexes creates the TTL index that removes expired counters.
func (s *Store) EnsureIndexes(ctx context.Context) error {
	_, err := s.coll.Indexes().CreateOne(ctx, mongo.IndexModel{
		Keys:    bson.D{{Key: "expiresAt", Value: 1}},
		Options: options.Index().SetName("expiresAt_ttl").SetExpireAfterSeconds(0),
	})
	if err != nil {
		return fmt.Errorf("mongo: create ttl index: %w", err)
	}
	return nil
}

func (s *Store) Get(ctx context.Context, key string) (int64, error) {
	c, err := s.find(ctx, key)
	if err != nil || c == nil {
		return 0, err
	}
	return c.Count, nil
}

// Increment restarts an expired or missing counter at 1 and bumps a live
// one, in a single pipeline update.
func (s *Store) Increment(ctx context.Context, key string, ttl time.Duration) (int64, error) {
	now := s.now()
	expired := bson.D{{Key: "$lte", Value: bson.A{
		bson.D{{Key: "$ifNull", Value: bson.A{"$expiresAt", time.Unix(0, 0)}}},
		now,
	}}}
	update := mongo.Pipeline{
		{{Key: "$set", Value: bson.D{
			{Key: "count", Value: bson.D{{Key: "$cond", Value: bson.A{expired, 1, bson.D{{Key: "$add", Value: bson.A{"$count", 1}}}}}}},
			{Key: "expiresAt", Value: bson.D{{Key: "$cond", Value: bson.A{expired, now.Add(ttl), "$expiresAt"}}}},
		}}},
	}
	opts := options.FindOneAndUpdate().SetUpsert(true).SetReturnDocument(options.After)

	var c counter
	err := s.coll.FindOneAndUpdate(ctx, bson.D{{Key: "_id", Value: key}}, update, opts).Decode(&c)
	if mongo.IsDuplicateKeyError(err) {
		// Two upserts raced on a missing key; the loser now finds the document.
		err = s.coll.FindOneAndUpdate(ctx, bson.D{{Key: "_id", Value: key}}, update, opts).Decode(&c)
	}
	if err != nil {
		return 0, fmt.Errorf("mongo: increment %s: %w", key, err)
	}
	return c.Count, nil
}

func (s *Store) TTL(ctx context.Context, key string) (time.Duration, error) {
	c, err := s.find(ctx, key)
	if err != nil || c == nil {
		return 0, err
	}
	return max(0, c.ExpiresAt.Sub(s.now())), nil
}

func (s *Store) Delete(ctx context.Context, keys ...string) error {
	if len(keys) == 0 {
		return nil
	}
	if _, err := s.coll.DeleteMany(ctx, bson.D{{Key: "_id", Value: bson.D{{Key: "$in", Value: keys}}}}); err != nil {
		return fmt.Errorf("mongo: delete: %w", err)
	}
	return nil
}

// find returns the live counter for key, or nil.
func (s *Store) find(ctx context.Context, key string) (*counter, error) {
	filter := bson.D{
		{Key: "_id", Value: key},
		{Key: "expiresAt", Value: bson.D{{Key: "$gt", Value: s.now()}}},
	}

	var c counter
	err := s.coll.FindOne(ctx, filter).Decode(&c)
	if errors.Is(err, mongo.ErrNoDocuments) {
		return nil, nil
	}
	if err != nil {
		return nil, fmt.Errorf("mongo: get %s: %w", key, err)
	}
	return &c, nil
}
