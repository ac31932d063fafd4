package cache

import (
	"context"
	"encoding/json"
	"errors"
	"time"

	appcatalog "github.com/erp/stockledger/internal/application/catalog"
	"github.com/redis/go-redis/v9"
	"go.uber.org/zap"
)

const defaultSearchKeyPrefix = "stockledger:search:"

// RedisSearchCache caches product lookups in Redis so every instance sees the
// same invalidations. Keys embed a generation counter; Invalidate bumps the
// counter and stale keys expire on their own.
type RedisSearchCache struct {
	client    *redis.Client
	ttl       time.Duration
	keyPrefix string
	logger    *zap.Logger
}

// NewRedisSearchCache creates a search cache on an existing Redis client
func NewRedisSearchCache(client *redis.Client, ttl time.Duration, logger *zap.Logger) *RedisSearchCache {
	if logger == nil {
		logger = zap.NewNop()
	}
	return &RedisSearchCache{
		client:    client,
		ttl:       ttl,
		keyPrefix: defaultSearchKeyPrefix,
		logger:    logger,
	}
}

// Get returns the cached lookup for term. Redis errors count as a miss.
func (c *RedisSearchCache) Get(ctx context.Context, term string) ([]appcatalog.ProductLookup, bool) {
	gen, err := c.generation(ctx)
	if err != nil {
		c.logger.Warn("search cache generation read failed", zap.Error(err))
		return nil, false
	}

	val, err := c.client.Get(ctx, c.entryKey(gen, term)).Bytes()
	if err != nil {
		if !errors.Is(err, redis.Nil) {
			c.logger.Warn("search cache read failed", zap.Error(err))
		}
		return nil, false
	}

	var items []appcatalog.ProductLookup
	if err := json.Unmarshal(val, &items); err != nil {
		c.logger.Warn("search cache entry is corrupt", zap.String("term", term), zap.Error(err))
		return nil, false
	}
	return items, true
}

// Set stores the lookup for term under the current generation
func (c *RedisSearchCache) Set(ctx context.Context, term string, items []appcatalog.ProductLookup) {
	gen, err := c.generation(ctx)
	if err != nil {
		c.logger.Warn("search cache generation read failed", zap.Error(err))
		return
	}

	data, err := json.Marshal(items)
	if err != nil {
		c.logger.Warn("search cache encode failed", zap.Error(err))
		return
	}
	if err := c.client.Set(ctx, c.entryKey(gen, term), data, c.ttl).Err(); err != nil {
		c.logger.Warn("search cache write failed", zap.Error(err))
	}
}

// Invalidate makes every cached lookup unreachable
func (c *RedisSearchCache) Invalidate(ctx context.Context) {
	if err := c.client.Incr(ctx, c.generationKey()).Err(); err != nil {
		c.logger.Warn("search cache invalidation failed", zap.Error(err))
	}
}

func (c *RedisSearchCache) generation(ctx context.Context) (string, error) {
	gen, err := c.client.Get(ctx, c.generationKey()).Result()
	if errors.Is(err, redis.Nil) {
		return "0", nil
	}
	return gen, err
}

func (c *RedisSearchCache) generationKey() string {
	return c.keyPrefix + "gen"
}

func (c *RedisSearchCache) entryKey(gen, term string) string {
	return c.keyPrefix + gen + ":" + term
}

var _ appcatalog.SearchCache = (*RedisSearchCache)(nil)
