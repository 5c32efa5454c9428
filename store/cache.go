package store

import (
	"context"

	"github.com/redis/go-redis/v9"

	"rubin.dev/capcore/model"
)

// CachedResultStore wraps a DB with an optional redis/go-redis/v9
// write-through cache for ResultStore reads. Per spec.md §9, a cache is
// only ever allowed to be write-through and must never influence
// visibility: GetResult here always falls back to the backing bbolt store
// on a miss, and PutResult only populates the cache AFTER the bbolt write
// has committed, never before and never speculatively. Disabling the cache
// (passing a nil client, or simply using *DB directly) cannot change any
// observable syscall result — only latency.
type CachedResultStore struct {
	*DB
	rdb    *redis.Client
	prefix string
}

// NewCachedResultStore wraps db with rdb. rdb may be nil, in which case the
// wrapper behaves exactly like db (every call falls through).
func NewCachedResultStore(db *DB, rdb *redis.Client, keyPrefix string) *CachedResultStore {
	return &CachedResultStore{DB: db, rdb: rdb, prefix: keyPrefix}
}

func (c *CachedResultStore) cacheKey(taskID [32]byte) string {
	return c.prefix + string(taskID[:])
}

// GetResult checks the cache first, falling back to (and repopulating from)
// the backing store on any miss or cache error.
func (c *CachedResultStore) GetResult(ctx context.Context, taskID [32]byte) (model.ResultRecord, bool, error) {
	if c.rdb != nil {
		if raw, err := c.rdb.Get(ctx, c.cacheKey(taskID)).Bytes(); err == nil {
			if rec, derr := model.DecodeResultRecord(raw); derr == nil {
				return rec, true, nil
			}
			// Undecodable cache entry (stale schema version, corruption):
			// fall through to the backing store rather than trust it.
		}
	}

	rec, ok, err := c.DB.GetResult(taskID)
	if err != nil || !ok || c.rdb == nil {
		return rec, ok, err
	}

	if encoded, eerr := model.EncodeResultRecord(rec); eerr == nil {
		_ = c.rdb.Set(ctx, c.cacheKey(taskID), encoded, 0).Err()
	}
	return rec, ok, nil
}

// PutResult writes to the backing store first; only on success does it
// populate the cache, so a cache write can never race ahead of the
// consensus-visible commit.
func (c *CachedResultStore) PutResult(ctx context.Context, rec model.ResultRecord) error {
	if err := c.DB.PutResult(rec); err != nil {
		return err
	}
	if c.rdb == nil {
		return nil
	}
	if encoded, eerr := model.EncodeResultRecord(rec); eerr == nil {
		_ = c.rdb.Set(ctx, c.cacheKey(rec.TaskID), encoded, 0).Err()
	}
	return nil
}
