package services

import (
	"context"
	"encoding/json"
	"errors"
	"time"

	"github.com/redis/go-redis/v9"
	"go.uber.org/zap"

	"poi-explorer/models"
)

// RedisResultCache keeps finalized discovery results in Redis for a short TTL.
type RedisResultCache struct {
	client *redis.Client
	ttl    time.Duration
	logger *zap.Logger
}

func NewRedisResultCache(client *redis.Client, ttl time.Duration, logger *zap.Logger) *RedisResultCache {
	return &RedisResultCache{client: client, ttl: ttl, logger: logger}
}

func (c *RedisResultCache) Get(ctx context.Context, key string) (*models.DiscoveryResult, bool) {
	data, err := c.client.Get(ctx, key).Bytes()
	if err != nil {
		if !errors.Is(err, redis.Nil) {
			c.logger.Warn("discovery cache read failed", zap.String("key", key), zap.Error(err))
		}
		return nil, false
	}

	var result models.DiscoveryResult
	if err := json.Unmarshal(data, &result); err != nil {
		c.logger.Warn("discarding undecodable cache entry", zap.String("key", key), zap.Error(err))
		return nil, false
	}
	return &result, true
}

// Set stores result unless it is empty; an empty outcome is always re-queried.
func (c *RedisResultCache) Set(ctx context.Context, key string, result *models.DiscoveryResult) {
	if result == nil || result.Empty {
		return
	}
	data, err := json.Marshal(result)
	if err != nil {
		c.logger.Warn("failed to marshal discovery result", zap.String("key", key), zap.Error(err))
		return
	}
	if err := c.client.Set(ctx, key, data, c.ttl).Err(); err != nil {
		c.logger.Warn("discovery cache write failed", zap.String("key", key), zap.Error(err))
	}
}
