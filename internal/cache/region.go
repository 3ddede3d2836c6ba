// Copyright (c) 2026 Resona. All rights reserved.
// Author: tai.buivan.jp@gmail.com

package cache

import (
	"context"
	"errors"
	"log/slog"
	"time"

	"github.com/redis/go-redis/v9"

	"github.com/taibuivan/resona/internal/platform/constants"
)

// regionIndexKey tracks every live region so InvalidateAll avoids a keyspace
// scan.
const regionIndexKey = constants.RedisPrefixRegion + "_index"

// Regions implements [Cache] on Redis.
//
// Entries live under "cache:entry:<region>:<key>"; each region keeps a set of
// its member keys under "cache:region:<region>".
type Regions struct {
	client *redis.Client
	ttl    time.Duration
	logger *slog.Logger
}

// NewRegions creates the Redis-backed region cache.
func NewRegions(client *redis.Client, ttl time.Duration, logger *slog.Logger) *Regions {
	return &Regions{client: client, ttl: ttl, logger: logger}
}

func entryKey(region, key string) string {
	return constants.RedisPrefixEntry + region + ":" + key
}

func regionKey(region string) string {
	return constants.RedisPrefixRegion + region
}

func (c *Regions) GetOrCompute(ctx context.Context, region, key string, factory func(ctx context.Context) ([]byte, error)) ([]byte, error) {
	fullKey := entryKey(region, key)

	value, err := c.client.Get(ctx, fullKey).Bytes()
	if err == nil {
		return value, nil
	}
	if !errors.Is(err, redis.Nil) {
		// Redis being down degrades to a recompute, never to a failure.
		c.logger.Warn("cache_read_failed", slog.String("key", fullKey), slog.String("error", err.Error()))
	}

	value, err = factory(ctx)
	if err != nil {
		return nil, err
	}

	pipe := c.client.TxPipeline()
	pipe.Set(ctx, fullKey, value, c.ttl)
	pipe.SAdd(ctx, regionKey(region), fullKey)
	pipe.Expire(ctx, regionKey(region), c.ttl)
	pipe.SAdd(ctx, regionIndexKey, region)
	if _, err := pipe.Exec(ctx); err != nil {
		c.logger.Warn("cache_write_failed", slog.String("key", fullKey), slog.String("error", err.Error()))
	}

	return value, nil
}

func (c *Regions) Invalidate(ctx context.Context, region string) error {
	members, err := c.client.SMembers(ctx, regionKey(region)).Result()
	if err != nil && !errors.Is(err, redis.Nil) {
		return err
	}

	pipe := c.client.TxPipeline()
	if len(members) > 0 {
		pipe.Del(ctx, members...)
	}
	pipe.Del(ctx, regionKey(region))
	pipe.SRem(ctx, regionIndexKey, region)
	_, err = pipe.Exec(ctx)

	c.logger.Debug("cache_region_invalidated",
		slog.String("region", region),
		slog.Int("entries", len(members)),
	)
	return err
}

func (c *Regions) InvalidateAll(ctx context.Context) error {
	regions, err := c.client.SMembers(ctx, regionIndexKey).Result()
	if err != nil && !errors.Is(err, redis.Nil) {
		return err
	}

	for _, region := range regions {
		if err := c.Invalidate(ctx, region); err != nil {
			return err
		}
	}

	c.logger.Debug("cache_flushed", slog.Int("regions", len(regions)))
	return nil
}
