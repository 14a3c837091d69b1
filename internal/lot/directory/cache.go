package directory

import (
	"encoding/json"
	"errors"
	"time"

	"github.com/redis/go-redis/v9"

	"github.com/tair/rfid-textile/internal/lot/domain"
	"github.com/tair/rfid-textile/pkg/database"
	"github.com/tair/rfid-textile/pkg/logger"
)

// CachedWorkerDirectory caches worker lookups in redis.
// A nil redis client turns it into a pass-through.
type CachedWorkerDirectory struct {
	next  domain.WorkerDirectory
	redis *redis.Client
	ttl   time.Duration
}

// NewCachedWorkerDirectory wraps next with a redis cache
func NewCachedWorkerDirectory(next domain.WorkerDirectory, redisClient *redis.Client, ttl time.Duration) *CachedWorkerDirectory {
	if ttl <= 0 {
		ttl = 5 * time.Minute
	}
	return &CachedWorkerDirectory{next: next, redis: redisClient, ttl: ttl}
}

func cacheKey(fullName string) string {
	return "worker:" + domain.NormalizeName(fullName)
}

// ResolveWorker returns the cached worker or resolves and caches it
func (c *CachedWorkerDirectory) ResolveWorker(dbc database.Context, fullName string) (*domain.Worker, error) {
	if c.redis == nil {
		return c.next.ResolveWorker(dbc, fullName)
	}

	key := cacheKey(fullName)
	cached, err := c.redis.Get(dbc.Ctx, key).Bytes()
	switch {
	case err == nil:
		var w domain.Worker
		if jsonErr := json.Unmarshal(cached, &w); jsonErr == nil {
			logger.Debug(dbc.Ctx).Str("cache_key", key).Msg("Worker cache hit")
			return &w, nil
		}
	case !errors.Is(err, redis.Nil):
		logger.Warn(dbc.Ctx).Err(err).Str("cache_key", key).Msg("Worker cache unavailable")
	}

	w, err := c.next.ResolveWorker(dbc, fullName)
	if err != nil {
		return nil, err
	}

	if payload, jsonErr := json.Marshal(w); jsonErr == nil {
		if setErr := c.redis.Set(dbc.Ctx, key, payload, c.ttl).Err(); setErr != nil {
			logger.Warn(dbc.Ctx).Err(setErr).Str("cache_key", key).Msg("Failed to cache worker")
		}
	}
	return w, nil
}
