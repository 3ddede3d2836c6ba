// Copyright (c) 2026 Resona. All rights reserved.
// Author: tai.buivan.jp@gmail.com

package cache

import (
	"context"
	"log/slog"
	"time"

	"github.com/redis/go-redis/v9"

	"github.com/taibuivan/resona/internal/platform/apperr"
	"github.com/taibuivan/resona/internal/platform/constants"
	"github.com/taibuivan/resona/pkg/uuidv7"
)

// releaseScript deletes the lease only if the caller still holds it, so a
// lease that expired and was re-acquired by someone else is never clobbered.
var releaseScript = redis.NewScript(`
	if redis.call("GET", KEYS[1]) == ARGV[1] then
		return redis.call("DEL", KEYS[1])
	end
	return 0
`)

// Lease implements [Locker] as a Redis SET NX advisory lock with TTL.
type Lease struct {
	client *redis.Client
	ttl    time.Duration
	logger *slog.Logger
}

// NewLease creates the Redis-backed entity lock.
func NewLease(client *redis.Client, ttl time.Duration, logger *slog.Logger) *Lease {
	return &Lease{client: client, ttl: ttl, logger: logger}
}

func (l *Lease) Acquire(ctx context.Context, entity string) (func(), error) {
	key := constants.RedisPrefixLease + entity
	token := uuidv7.New()

	acquired, err := l.client.SetNX(ctx, key, token, l.ttl).Result()
	if err != nil {
		return nil, apperr.Internal(err)
	}
	if !acquired {
		return nil, apperr.Locked(entity)
	}

	l.logger.Debug("lease_acquired", slog.String("entity", entity))

	release := func() {
		// Release runs on the way out of scan/merge/import; a fresh context
		// lets it succeed even when the operation's context was cancelled.
		ctx, cancel := context.WithTimeout(context.Background(), 5*time.Second)
		defer cancel()

		if err := releaseScript.Run(ctx, l.client, []string{key}, token).Err(); err != nil {
			l.logger.Warn("lease_release_failed", slog.String("entity", entity), slog.String("error", err.Error()))
		}
	}
	return release, nil
}
