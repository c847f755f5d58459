package cache

import (
	"context"
	stderrors "errors"
	"time"

	"github.com/redis/go-redis/v9"

	"pedagoplay/internal/common/errors"
)

// DefaultTTL applies when the configured TTL is not positive.
const DefaultTTL = time.Hour

// CompletionCache stores formatted completion text in Redis with a TTL.
type CompletionCache struct {
	redis *RedisClient
	ttl   time.Duration
}

func NewCompletionCache(rc *RedisClient, ttl time.Duration) *CompletionCache {
	if ttl <= 0 {
		ttl = DefaultTTL
	}
	return &CompletionCache{redis: rc, ttl: ttl}
}

// Get reports a miss as ok=false with a nil error.
func (c *CompletionCache) Get(ctx context.Context, key string) (string, bool, error) {
	val, err := c.redis.Client.Get(ctx, key).Result()
	if stderrors.Is(err, redis.Nil) {
		return "", false, nil
	}
	if err != nil {
		return "", false, errors.NewCacheUnavailableError(err)
	}
	return val, true, nil
}

func (c *CompletionCache) Set(ctx context.Context, key, value string) error {
	if err := c.redis.Client.Set(ctx, key, value, c.ttl).Err(); err != nil {
		return errors.NewCacheUnavailableError(err)
	}
	return nil
}

func (c *CompletionCache) TTL() time.Duration {
	return c.ttl
}
