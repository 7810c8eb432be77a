package ratelimit

import (
	"context"
	"log/slog"
	"time"

	"github.com/redis/go-redis/v9"
)

var fixedWindowScript = redis.NewScript(`
local current = redis.call("INCR", KEYS[1])
if current == 1 then
  redis.call("PEXPIRE", KEYS[1], ARGV[1])
end
local ttl = redis.call("PTTL", KEYS[1])
return {current, ttl}
`)

const redisTimeout = 2 * time.Second

// RedisLimiter shares counters across replicas. When Redis errors the
// in-memory fallback answers, so an outage degrades to per-instance limits
// instead of failing open.
type RedisLimiter struct {
	client   redis.Cmdable
	window   time.Duration
	prefix   string
	fallback *InMemoryLimiter
	logger   *slog.Logger
}

// NewRedis creates a limiter whose keys are prefix+key.
func NewRedis(client redis.Cmdable, prefix string, window time.Duration, logger *slog.Logger) *RedisLimiter {
	if window <= 0 {
		window = time.Minute
	}
	if prefix == "" {
		prefix = "rl:"
	}
	return &RedisLimiter{
		client:   client,
		window:   window,
		prefix:   prefix,
		fallback: NewInMemory(window),
		logger:   logger,
	}
}

// Allow records a hit for key.
func (l *RedisLimiter) Allow(ctx context.Context, key string, limit int) Decision {
	if limit <= 0 {
		limit = 1
	}
	if l.client == nil {
		return l.fallback.Allow(ctx, key, limit)
	}

	ctx, cancel := context.WithTimeout(ctx, redisTimeout)
	defer cancel()

	res, err := fixedWindowScript.Run(ctx, l.client, []string{l.prefix + key}, l.window.Milliseconds()).Int64Slice()
	if err != nil || len(res) < 2 {
		if l.logger != nil {
			attrs := []any{slog.String("key", key)}
			if err != nil {
				attrs = append(attrs, slog.String("error", err.Error()))
			}
			l.logger.WarnContext(ctx, "rate limiter falling back to memory", attrs...)
		}
		return l.fallback.Allow(ctx, key, limit)
	}

	ttl := time.Duration(res[1]) * time.Millisecond
	if ttl < 0 {
		ttl = l.window
	}
	return decide(int(res[0]), limit, time.Now().UTC().Add(ttl))
}

// Reset clears key in Redis and in the fallback.
func (l *RedisLimiter) Reset(ctx context.Context, key string) error {
	_ = l.fallback.Reset(ctx, key)
	if l.client == nil {
		return nil
	}
	return l.client.Del(ctx, l.prefix+key).Err()
}
