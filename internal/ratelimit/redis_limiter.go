package ratelimit

import (
	"context"

	"github.com/redis/go-redis/v9"
)

const redisKeyPrefix = "ratelimit:"

// RedisLimiter shares fixed-window counters across instances. The key
// expiry set on the first hit bounds the window; Redis evicts the rest.
type RedisLimiter struct {
	client *redis.Client
}

// NewRedisLimiter wraps the shared Redis client.
func NewRedisLimiter(client *redis.Client) *RedisLimiter {
	return &RedisLimiter{client: client}
}

func (l *RedisLimiter) Allow(ctx context.Context, clientKey string, rule Rule) (bool, error) {
	key := redisKeyPrefix + rule.Name + ":" + clientKey

	count, err := l.client.Incr(ctx, key).Result()
	if err != nil {
		return false, err
	}
	if count == 1 {
		if err := l.client.Expire(ctx, key, rule.Window).Err(); err != nil {
			return false, err
		}
	}
	return count <= int64(rule.Limit), nil
}
