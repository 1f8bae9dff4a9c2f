// Package ratelimit provides a fixed-window counter on redis, used to
// cap how often verification and reset codes can be requested for one
// email address.
package ratelimit

import (
	"context"
	"fmt"
	"time"

	"github.com/redis/go-redis/v9"
	"github.com/rs/zerolog"
)

type Limiter struct {
	client *redis.Client
	log    zerolog.Logger
}

func New(client *redis.Client, log zerolog.Logger) *Limiter {
	return &Limiter{client: client, log: log}
}

// Allow increments the window counter for key and reports whether the
// caller is still under limit. Redis being down degrades open: auth
// flows must not hard-depend on the cache.
func (l *Limiter) Allow(ctx context.Context, key string, limit int, window time.Duration) bool {
	if l == nil || l.client == nil {
		return true
	}

	redisKey := fmt.Sprintf("ratelimit:%s", key)

	count, err := l.client.Incr(ctx, redisKey).Result()
	if err != nil {
		l.log.Warn().Err(err).Str("key", key).Msg("rate limiter unavailable")
		return true
	}
	if count == 1 {
		if err := l.client.Expire(ctx, redisKey, window).Err(); err != nil {
			l.log.Warn().Err(err).Str("key", key).Msg("rate limiter expire failed")
		}
	}

	return count <= int64(limit)
}
