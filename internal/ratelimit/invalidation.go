package ratelimit

import (
	"context"
	"fmt"
	"log/slog"
	"strings"
)

// InvalidateIP removes every bucket held for ip and returns how many were
// removed.
func (rl *RateLimiter) InvalidateIP(ctx context.Context, ip string) (int, error) {
	if !rl.redisClient.IsEnabled() {
		n := rl.deleteFallback(func(key string) bool {
			return key == ipKey(ip) ||
				(strings.HasPrefix(key, "ratelimit:endpoint:") && strings.HasSuffix(key, ":"+ip))
		})
		slog.Info("Invalidated IP rate limits (in-memory)", "ip", ip, "count", n)
		return n, nil
	}

	n, err := rl.deleteByPattern(ctx, ipKey(ip))
	if err != nil {
		return n, err
	}
	m, err := rl.deleteByPattern(ctx, endpointKey("*", ip))
	return n + m, err
}

// InvalidateAll removes every rate limit bucket
func (rl *RateLimiter) InvalidateAll(ctx context.Context) (int, error) {
	if !rl.redisClient.IsEnabled() {
		n := rl.deleteFallback(func(string) bool { return true })
		slog.Warn("Invalidated all rate limits (in-memory)", "count", n)
		return n, nil
	}

	slog.Warn("Invalidating all rate limits")
	return rl.deleteByPattern(ctx, "ratelimit:*")
}

func (rl *RateLimiter) deleteFallback(match func(key string) bool) int {
	rl.fallbackMutex.Lock()
	defer rl.fallbackMutex.Unlock()

	n := 0
	for key := range rl.fallbackLimiters {
		if match(key) {
			delete(rl.fallbackLimiters, key)
			n++
		}
	}
	return n
}

// deleteByPattern deletes all Redis keys matching a pattern
func (rl *RateLimiter) deleteByPattern(ctx context.Context, pattern string) (int, error) {
	client := rl.redisClient.GetClient()
	pattern = redisPrefix + pattern

	var cursor uint64
	deleted := 0

	for {
		keys, next, err := client.Scan(ctx, cursor, pattern, 100).Result()
		if err != nil {
			return deleted, fmt.Errorf("failed to scan keys: %w", err)
		}

		if len(keys) > 0 {
			n, err := client.Del(ctx, keys...).Result()
			if err != nil {
				return deleted, fmt.Errorf("failed to delete keys: %w", err)
			}
			deleted += int(n)
		}

		cursor = next
		if cursor == 0 {
			break
		}
	}

	slog.Info("Deleted rate limit keys by pattern", "pattern", pattern, "count", deleted)
	return deleted, nil
}

// redis_rate stores its state under this prefix
const redisPrefix = "rate:"
