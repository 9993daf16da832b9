// Package cache memoizes aggregated profiles in Redis. It implements the
// aggregation.ProfileCache contract: every error path reads as a miss so a
// Redis outage costs only recomputation.
package cache

import (
	"context"
	"encoding/json"
	"time"

	"github.com/redis/go-redis/v9"
	"go.uber.org/zap"

	"github.com/fraghub/metrics-api/internal/models"
)

// Client is the narrow slice of the Redis API the cache uses.
type Client interface {
	Get(ctx context.Context, key string) *redis.StringCmd
	Set(ctx context.Context, key string, value interface{}, expiration time.Duration) *redis.StatusCmd
	Del(ctx context.Context, keys ...string) *redis.IntCmd
}

type ProfileCache struct {
	redis  Client
	ttl    time.Duration
	logger *zap.SugaredLogger
}

func NewProfileCache(client Client, ttl time.Duration, logger *zap.Logger) *ProfileCache {
	return &ProfileCache{
		redis:  client,
		ttl:    ttl,
		logger: logger.Sugar(),
	}
}

func (c *ProfileCache) GetPlayerProfile(ctx context.Context, key string) (*models.AggregatedPlayerProfile, bool) {
	var profile models.AggregatedPlayerProfile
	if !c.get(ctx, key, &profile) {
		return nil, false
	}
	return &profile, true
}

func (c *ProfileCache) SetPlayerProfile(ctx context.Context, key string, profile *models.AggregatedPlayerProfile) bool {
	return c.set(ctx, key, profile)
}

func (c *ProfileCache) GetTeamProfile(ctx context.Context, key string) (*models.AggregatedTeamProfile, bool) {
	var profile models.AggregatedTeamProfile
	if !c.get(ctx, key, &profile) {
		return nil, false
	}
	return &profile, true
}

func (c *ProfileCache) SetTeamProfile(ctx context.Context, key string, profile *models.AggregatedTeamProfile) bool {
	return c.set(ctx, key, profile)
}

// Invalidate removes cached profiles, e.g. after a recompute job.
func (c *ProfileCache) Invalidate(ctx context.Context, keys ...string) {
	if len(keys) == 0 {
		return
	}
	if err := c.redis.Del(ctx, keys...).Err(); err != nil {
		c.logger.Warnw("Cache invalidation failed", "keys", keys, "error", err)
	}
}

func (c *ProfileCache) get(ctx context.Context, key string, out interface{}) bool {
	data, err := c.redis.Get(ctx, key).Bytes()
	if err != nil {
		if err != redis.Nil {
			c.logger.Warnw("Cache read failed", "key", key, "error", err)
		}
		return false
	}
	if err := json.Unmarshal(data, out); err != nil {
		c.logger.Warnw("Cache entry corrupt, discarding", "key", key, "error", err)
		return false
	}
	return true
}

func (c *ProfileCache) set(ctx context.Context, key string, value interface{}) bool {
	data, err := json.Marshal(value)
	if err != nil {
		c.logger.Errorw("Cache marshal failed", "key", key, "error", err)
		return false
	}
	if err := c.redis.Set(ctx, key, data, c.ttl).Err(); err != nil {
		c.logger.Warnw("Cache write failed", "key", key, "error", err)
		return false
	}
	return true
}
