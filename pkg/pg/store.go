package pg

import (
	"context"
	"fmt"
	"time"

	"github.com/jackc/pgx/v5"
	"github.com/jackc/pgx/v5/pgconn"

	"github.com/dmitrymomot/ratekit/pkg/ratelimit"
)

// DB is the subset of *pgxpool.Pool the store needs.
type DB interface {
	Exec(ctx context.Context, sql string, args ...any) (pgconn.CommandTag, error)
	QueryRow(ctx context.Context, sql string, args ...any) pgx.Row
}

const (
	tableExistsQuery = `SELECT to_regclass('rate_limit_counters') IS NOT NULL`

	// An expired row is restarted in place, so a window never outlives its interval
	// even before the purge removes the row.
	incrementQuery = `
INSERT INTO rate_limit_counters (key, count, expires_at)
VALUES ($1, 1, $2::timestamptz + $3::bigint * interval '1 millisecond')
ON CONFLICT (key) DO UPDATE SET
	count = CASE
		WHEN rate_limit_counters.expires_at <= $2::timestamptz THEN 1
		ELSE rate_limit_counters.count + 1
	END,
	expires_at = CASE
		WHEN rate_limit_counters.expires_at <= $2::timestamptz THEN EXCLUDED.expires_at
		ELSE rate_limit_counters.expires_at
	END
RETURNING count`

	getQuery = `
SELECT count FROM rate_limit_counters
WHERE key = $1 AND expires_at > $2::timestamptz`

	ttlQuery = `
SELECT (EXTRACT(EPOCH FROM expires_at - $2::timestamptz) * 1000)::bigint
FROM rate_limit_counters
WHERE key = $1 AND expires_at > $2::timestamptz`

	deleteQuery = `DELETE FROM rate_limit_counters WHERE key = ANY($1)`

	purgeQuery = `DELETE FROM rate_limit_counters WHERE expires_at <= $1::timestamptz`
)

// Store keeps window counters in a PostgreSQL table. Every increment is a
// single UPSERT; rows past expires_at read as absent.
type Store struct {
	db  DB
	now func() time.Time
}

var _ ratelimit.ExpiryStore = (*Store)(nil)

type StoreOption func(*Store)

// WithClock sets the clock expirations are computed against. All
// application instances sharing a table should agree on it.
func WithClock(now func() time.Time) StoreOption {
	return func(s *Store) {
		if now != nil {
			s.now = now
		}
	}
}

// New creates a Store. The counters table must exist; run Migrate first.
func New(ctx context.Context, db DB, opts ...StoreOption) (*Store, error) {
	if db == nil {
		return nil, ErrDBRequired
	}

	var exists bool
	if err := db.QueryRow(ctx, tableExistsQuery).Scan(&exists); err != nil {
		return nil, fmt.Errorf("pg: check counters table: %w", err)
	}
	if !exists {
		return nil, ratelimit.CannotUse("table rate_limit_counters does not exist, apply migrations first")
	}

	s := &Store{db: db, now: time.Now}
	for _, opt := range opts {
		opt(s)
	}
	return s, nil
}

func (s *Store) Get(ctx context.Context, key string) (int64, error) {
	var n int64
	err := s.db.QueryRow(ctx, getQuery, key, s.now()).Scan(&n)
	if IsNotFoundError(err) {
		return 0, nil
	}
	if err != nil {
		return 0, fmt.Errorf("pg: get %s: %w", key, err)
	}
	return n, nil
}

func (s *Store) Increment(ctx context.Context, key string, ttl time.Duration) (int64, error) {
	var n int64
	if err := s.db.QueryRow(ctx, incrementQuery, key, s.now(), ttl.Milliseconds()).Scan(&n); err != nil {
		return 0, fmt.Errorf("pg: increment %s: %w", key, err)
	}
	return n, nil
}

func (s *Store) TTL(ctx context.Context, key string) (time.Duration, error) {
	var ms int64
	err := s.db.QueryRow(ctx, ttlQuery, key, s.now()).Scan(&ms)
	if IsNotFoundError(err) {
		return 0, nil
	}
	if err != nil {
		return 0, fmt.Errorf("pg: ttl %s: %w", key, err)
	}
	return time.Duration(max(0, ms)) * time.Millisecond, nil
}

func (s *Store) Delete(ctx context.Context, keys ...string) error {
	if len(keys) == 0 {
		return nil
	}
	if _, err := s.db.Exec(ctx, deleteQuery, keys); err != nil {
		return fmt.Errorf("pg: delete: %w", err)
	}
	return nil
}

// Purge deletes expired counters and returns how many rows were removed.
func (s *Store) Purge(ctx context.Context) (int64, error) {
	tag, err := s.db.Exec(ctx, purgeQuery, s.now())
	if err != nil {
		return 0, fmt.Errorf("pg: purge: %w", err)
	}
	return tag.RowsAffected(), nil
}

// RunPurge calls Purge every interval until ctx is done. Failures are
// reported to onError and do not stop the loop.
func (s *Store) RunPurge(ctx context.Context, interval time.Duration, onError func(error)) {
	if interval <= 0 {
		return
	}

	ticker := time.NewTicker(interval)
	defer ticker.Stop()

	for {
		select {
		case <-ctx.Done():
			return
		case <-ticker.C:
			if _, err := s.Purge(ctx); err != nil && onError != nil {
				onError(err)
			}
		}
	}
}
