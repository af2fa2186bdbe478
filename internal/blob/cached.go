package blob

import (
	"context"
	"log/slog"
	"time"

	"github.com/framelab/annotation-service/internal/cache"
)

// CachedStore keeps fetched objects in redis.
type CachedStore struct {
	next  Store
	cache *cache.CacheHelper
	ttl   time.Duration
}

func NewCachedStore(next Store, helper *cache.CacheHelper, ttl time.Duration) *CachedStore {
	return &CachedStore{next: next, cache: helper, ttl: ttl}
}

func (c *CachedStore) Get(ctx context.Context, path string) ([]byte, error) {
	if data, err := c.cache.GetBytes(ctx, path); err == nil {
		return data, nil
	}

	data, err := c.next.Get(ctx, path)
	if err != nil {
		return nil, err
	}
	if err := c.cache.SetBytes(ctx, path, data, c.ttl); err != nil {
		slog.WarnContext(ctx, "Failed to cache blob", "error", err, "path", path)
	}
	return data, nil
}
