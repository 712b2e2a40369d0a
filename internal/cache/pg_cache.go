package cache

import (
	"context"
	"errors"
	"fmt"
	"time"

	"github.com/jackc/pgx/v5"
	"github.com/jackc/pgx/v5/pgconn"
)

var (
	ErrCacheMiss    = errors.New("cache miss")
	ErrCacheExpired = errors.New("cache expired")
)

// Cache stores opaque values with a per-entry TTL
type Cache interface {
	Get(ctx context.Context, key string) ([]byte, error)
	Set(ctx context.Context, key string, value []byte, ttl time.Duration) error
	Delete(ctx context.Context, key string) error
	CleanupExpired(ctx context.Context) (int64, error)
}

// DB is satisfied by *pgxpool.Pool and pgxmock
type DB interface {
	QueryRow(ctx context.Context, sql string, args ...interface{}) pgx.Row
	Exec(ctx context.Context, sql string, arguments ...interface{}) (pgconn.CommandTag, error)
}

// PGCache keeps entries in cache_entries. Expiry is evaluated with the
// database clock so replicas with skewed clocks agree on it.
type PGCache struct {
	db DB
}

func NewPGCache(db DB) *PGCache {
	return &PGCache{db: db}
}

const getEntryQuery = `
	SELECT value, expires_at <= NOW() AS expired
	FROM cache_entries
	WHERE key = $1
`

func (c *PGCache) Get(ctx context.Context, key string) ([]byte, error) {
	var (
		value   []byte
		expired bool
	)

	if err := c.db.QueryRow(ctx, getEntryQuery, key).Scan(&value, &expired); err != nil {
		if errors.Is(err, pgx.ErrNoRows) {
			return nil, ErrCacheMiss
		}
		return nil, fmt.Errorf("read cache entry: %w", err)
	}

	if expired {
		// lazily evicted; the janitor sweeps whatever is never read again
		_ = c.Delete(ctx, key)
		return nil, ErrCacheExpired
	}

	return value, nil
}

const setEntryQuery = `
	INSERT INTO cache_entries (key, value, expires_at)
	VALUES ($1, $2, NOW() + make_interval(secs => $3))
	ON CONFLICT (key) DO UPDATE
	SET value = EXCLUDED.value,
	    expires_at = EXCLUDED.expires_at,
	    created_at = NOW()
`

// Set stores value for ttl. A non-positive ttl stores nothing.
func (c *PGCache) Set(ctx context.Context, key string, value []byte, ttl time.Duration) error {
	if ttl <= 0 {
		return nil
	}
	if _, err := c.db.Exec(ctx, setEntryQuery, key, value, ttl.Seconds()); err != nil {
		return fmt.Errorf("write cache entry: %w", err)
	}
	return nil
}

func (c *PGCache) Delete(ctx context.Context, key string) error {
	if _, err := c.db.Exec(ctx, `DELETE FROM cache_entries WHERE key = $1`, key); err != nil {
		return fmt.Errorf("delete cache entry: %w", err)
	}
	return nil
}

func (c *PGCache) CleanupExpired(ctx context.Context) (int64, error) {
	tag, err := c.db.Exec(ctx, `DELETE FROM cache_entries WHERE expires_at <= NOW()`)
	if err != nil {
		return 0, fmt.Errorf("sweep cache entries: %w", err)
	}
	return tag.RowsAffected(), nil
}

var _ Cache = (*PGCache)(nil)
