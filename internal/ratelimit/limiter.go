package ratelimit

import (
	"context"
	"fmt"
	"log/slog"
	"math"
	"sync"
	"time"

	"github.com/ZanzyTHEbar/energy-o-meter/internal/monitoring"
	"github.com/go-redis/redis_rate/v10"
	"golang.org/x/time/rate"
)

// Config holds rate limiter configuration
type Config struct {
	IPLimitPerMin      int // all routes, per client IP
	PredictLimitPerMin int // prediction endpoint, per client IP
}

// DefaultConfig returns default rate limiting configuration
func DefaultConfig() Config {
	return Config{
		IPLimitPerMin:      120,
		PredictLimitPerMin: 30,
	}
}

// Result represents the result of a rate limit check
type Result struct {
	Allowed    bool
	Limit      int
	Remaining  int
	ResetAt    time.Time
	RetryAfter time.Duration
}

type fallbackEntry struct {
	limiter  *rate.Limiter
	lastSeen time.Time
}

// RateLimiter provides distributed rate limiting with Redis and in-memory fallback
type RateLimiter struct {
	redisLimiter *redis_rate.Limiter
	redisClient  *RedisClient
	config       Config

	fallbackLimiters map[string]*fallbackEntry
	fallbackMutex    sync.Mutex
	now              func() time.Time
}

// NewRateLimiter creates a new rate limiter. A nil or disabled Redis client
// keeps every decision in memory.
func NewRateLimiter(redisClient *RedisClient, config Config) *RateLimiter {
	if redisClient == nil {
		redisClient = &RedisClient{}
	}

	rl := &RateLimiter{
		redisClient:      redisClient,
		config:           config,
		fallbackLimiters: make(map[string]*fallbackEntry),
		now:              time.Now,
	}

	if redisClient.IsEnabled() {
		rl.redisLimiter = redis_rate.NewLimiter(redisClient.GetClient())
		slog.Info("Redis rate limiter initialized")
	} else {
		slog.Warn("Redis unavailable, using in-memory rate limiting only")
	}

	return rl
}

// Config returns the configured limits
func (rl *RateLimiter) Config() Config {
	return rl.config
}

func ipKey(ip string) string {
	return fmt.Sprintf("ratelimit:ip:%s", ip)
}

func endpointKey(endpoint, ip string) string {
	return fmt.Sprintf("ratelimit:endpoint:%s:%s", endpoint, ip)
}

// AllowIP checks the per-minute limit of an IP address across all routes
func (rl *RateLimiter) AllowIP(ctx context.Context, ip string) (*Result, error) {
	return rl.allow(ctx, ipKey(ip), rl.config.IPLimitPerMin, time.Minute)
}

// AllowEndpoint checks the per-minute limit of an IP address on one endpoint
func (rl *RateLimiter) AllowEndpoint(ctx context.Context, endpoint, ip string, limit int) (*Result, error) {
	return rl.allow(ctx, endpointKey(endpoint, ip), limit, time.Minute)
}

func (rl *RateLimiter) allow(ctx context.Context, key string, limit int, period time.Duration) (*Result, error) {
	if limit <= 0 {
		return nil, fmt.Errorf("invalid limit %d for %s", limit, key)
	}

	if rl.redisLimiter != nil {
		result, err := rl.allowRedis(ctx, key, limit, period)
		if err == nil {
			return result, nil
		}
		slog.Warn("Redis rate limit check failed, using fallback", "key", key, "error", err)
		monitoring.IncRateLimitFallback()
	}

	return rl.allowFallback(key, limit, period), nil
}

// allowRedis performs rate limiting using the Redis GCRA limiter
func (rl *RateLimiter) allowRedis(ctx context.Context, key string, limit int, period time.Duration) (*Result, error) {
	res, err := rl.redisLimiter.Allow(ctx, key, redis_rate.Limit{
		Rate:   limit,
		Burst:  limit,
		Period: period,
	})
	if err != nil {
		return nil, fmt.Errorf("redis rate limit check failed: %w", err)
	}

	result := &Result{
		Allowed:    res.Allowed > 0,
		Limit:      res.Limit.Rate,
		Remaining:  res.Remaining,
		ResetAt:    rl.now().Add(res.ResetAfter),
		RetryAfter: res.RetryAfter,
	}
	if result.RetryAfter < 0 {
		result.RetryAfter = 0
	}
	return result, nil
}

// allowFallback performs rate limiting using an in-memory token bucket.
// The bucket holds limit tokens and refills over period.
func (rl *RateLimiter) allowFallback(key string, limit int, period time.Duration) *Result {
	now := rl.now()
	perToken := period / time.Duration(limit)

	rl.fallbackMutex.Lock()
	defer rl.fallbackMutex.Unlock()

	entry, exists := rl.fallbackLimiters[key]
	if !exists || entry.limiter.Burst() != limit {
		entry = &fallbackEntry{limiter: rate.NewLimiter(rate.Every(perToken), limit)}
		rl.fallbackLimiters[key] = entry
	}
	entry.lastSeen = now

	allowed := entry.limiter.AllowN(now, 1)
	tokens := entry.limiter.TokensAt(now)

	remaining := int(math.Floor(tokens))
	if remaining < 0 {
		remaining = 0
	}

	result := &Result{
		Allowed:   allowed,
		Limit:     limit,
		Remaining: remaining,
		ResetAt:   now.Add(time.Duration((float64(limit) - tokens) * float64(perToken))),
	}
	if !allowed {
		result.RetryAfter = time.Duration((1 - tokens) * float64(perToken))
	}
	return result
}

// StartCleanup drops in-memory buckets idle for longer than maxIdle until
// ctx is cancelled.
func (rl *RateLimiter) StartCleanup(ctx context.Context, interval, maxIdle time.Duration) {
	go func() {
		ticker := time.NewTicker(interval)
		defer ticker.Stop()

		for {
			select {
			case <-ctx.Done():
				return
			case <-ticker.C:
				if n := rl.pruneIdle(maxIdle); n > 0 {
					slog.Debug("Pruned idle rate limit buckets", "count", n)
				}
			}
		}
	}()
}

func (rl *RateLimiter) pruneIdle(maxIdle time.Duration) int {
	cutoff := rl.now().Add(-maxIdle)

	rl.fallbackMutex.Lock()
	defer rl.fallbackMutex.Unlock()

	pruned := 0
	for key, entry := range rl.fallbackLimiters {
		if entry.lastSeen.Before(cutoff) {
			delete(rl.fallbackLimiters, key)
			pruned++
		}
	}
	return pruned
}

// Backend names the store deciding limits: "redis" or "memory"
func (rl *RateLimiter) Backend() string {
	if rl.redisClient.IsEnabled() {
		return "redis"
	}
	return "memory"
}

// HealthCheck pings Redis when it backs the limiter. The in-memory
// backend is always healthy.
func (rl *RateLimiter) HealthCheck(ctx context.Context) error {
	if !rl.redisClient.IsEnabled() {
		return nil
	}
	return rl.redisClient.HealthCheck(ctx)
}

// GetStats returns rate limiter statistics
func (rl *RateLimiter) GetStats() map[string]interface{} {
	rl.fallbackMutex.Lock()
	fallbackCount := len(rl.fallbackLimiters)
	rl.fallbackMutex.Unlock()

	stats := map[string]interface{}{
		"redis_enabled":     rl.redisClient.IsEnabled(),
		"fallback_limiters": fallbackCount,
	}
	if rl.redisClient.IsEnabled() {
		stats["redis_pool"] = rl.redisClient.GetPoolStats()
	}
	return stats
}
