package ratelimit

import (
	"context"
	"encoding/json"
	"net/http"
	"net/http/httptest"
	"testing"
	"time"

	"github.com/gin-gonic/gin"
	"github.com/redis/go-redis/v9"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func init() {
	gin.SetMode(gin.TestMode)
}

func newTestLimiter(ipLimit, predictLimit int) *RateLimiter {
	return NewRateLimiter(nil, Config{IPLimitPerMin: ipLimit, PredictLimitPerMin: predictLimit})
}

func TestAllowIPFallback(t *testing.T) {
	rl := newTestLimiter(5, 2)
	ctx := context.Background()

	for i := 0; i < 5; i++ {
		result, err := rl.AllowIP(ctx, "10.0.0.1")
		require.NoError(t, err)
		assert.True(t, result.Allowed, "request %d should be allowed", i+1)
		assert.Equal(t, 5, result.Limit)
		assert.Equal(t, 4-i, result.Remaining)
	}

	result, err := rl.AllowIP(ctx, "10.0.0.1")
	require.NoError(t, err)
	assert.False(t, result.Allowed)
	assert.Equal(t, 0, result.Remaining)
	assert.Greater(t, result.RetryAfter, time.Duration(0))

	// other clients have their own bucket
	result, err = rl.AllowIP(ctx, "10.0.0.2")
	require.NoError(t, err)
	assert.True(t, result.Allowed)
}

func TestAllowFallbackRefills(t *testing.T) {
	rl := newTestLimiter(2, 2)
	now := time.Date(2024, 1, 1, 12, 0, 0, 0, time.UTC)
	rl.now = func() time.Time { return now }
	ctx := context.Background()

	for i := 0; i < 2; i++ {
		result, err := rl.AllowIP(ctx, "10.0.0.1")
		require.NoError(t, err)
		require.True(t, result.Allowed)
	}
	result, err := rl.AllowIP(ctx, "10.0.0.1")
	require.NoError(t, err)
	require.False(t, result.Allowed)

	// one token every 30s at 2 per minute
	now = now.Add(31 * time.Second)
	result, err = rl.AllowIP(ctx, "10.0.0.1")
	require.NoError(t, err)
	assert.True(t, result.Allowed)
}

func TestAllowFallbackResetAtPartialToken(t *testing.T) {
	rl := newTestLimiter(2, 2)
	now := time.Date(2024, 1, 1, 12, 0, 0, 0, time.UTC)
	rl.now = func() time.Time { return now }
	ctx := context.Background()

	_, err := rl.AllowIP(ctx, "10.0.0.1")
	require.NoError(t, err)

	// 1.5 tokens before this request, 0.5 after; a full bucket is 1.5 tokens away
	now = now.Add(15 * time.Second)
	result, err := rl.AllowIP(ctx, "10.0.0.1")
	require.NoError(t, err)
	require.True(t, result.Allowed)
	assert.WithinDuration(t, now.Add(45*time.Second), result.ResetAt, time.Millisecond)
}

func TestAllowEndpointIsSeparateFromIP(t *testing.T) {
	rl := newTestLimiter(10, 1)
	ctx := context.Background()

	result, err := rl.AllowEndpoint(ctx, "predict", "10.0.0.1", 1)
	require.NoError(t, err)
	assert.True(t, result.Allowed)

	result, err = rl.AllowEndpoint(ctx, "predict", "10.0.0.1", 1)
	require.NoError(t, err)
	assert.False(t, result.Allowed)

	result, err = rl.AllowIP(ctx, "10.0.0.1")
	require.NoError(t, err)
	assert.True(t, result.Allowed)
}

func TestAllowRejectsInvalidLimit(t *testing.T) {
	rl := newTestLimiter(10, 10)

	tests := []struct {
		name  string
		limit int
	}{
		{"zero", 0},
		{"negative", -3},
	}
	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			_, err := rl.AllowEndpoint(context.Background(), "predict", "10.0.0.1", tt.limit)
			assert.Error(t, err)
		})
	}
}

func TestPruneIdle(t *testing.T) {
	rl := newTestLimiter(10, 10)
	now := time.Date(2024, 1, 1, 12, 0, 0, 0, time.UTC)
	rl.now = func() time.Time { return now }
	ctx := context.Background()

	_, err := rl.AllowIP(ctx, "10.0.0.1")
	require.NoError(t, err)
	now = now.Add(10 * time.Minute)
	_, err = rl.AllowIP(ctx, "10.0.0.2")
	require.NoError(t, err)

	assert.Equal(t, 1, rl.pruneIdle(5*time.Minute))
	assert.Equal(t, 1, rl.GetStats()["fallback_limiters"])
}

func TestInvalidateFallback(t *testing.T) {
	rl := newTestLimiter(10, 10)
	ctx := context.Background()

	_, err := rl.AllowIP(ctx, "10.0.0.1")
	require.NoError(t, err)
	_, err = rl.AllowEndpoint(ctx, "predict", "10.0.0.1", 10)
	require.NoError(t, err)
	_, err = rl.AllowIP(ctx, "10.0.0.2")
	require.NoError(t, err)

	n, err := rl.InvalidateIP(ctx, "10.0.0.1")
	require.NoError(t, err)
	assert.Equal(t, 2, n)

	n, err = rl.InvalidateAll(ctx)
	require.NoError(t, err)
	assert.Equal(t, 1, n)
	assert.Equal(t, 0, rl.GetStats()["fallback_limiters"])
}

func TestNewRedisClient(t *testing.T) {
	t.Run("empty address disables redis", func(t *testing.T) {
		client, err := NewRedisClient(context.Background(), RedisOptions{})
		require.NoError(t, err)
		assert.False(t, client.IsEnabled())
		assert.Error(t, client.HealthCheck(context.Background()))
		assert.NoError(t, client.Close())
	})

	t.Run("unreachable address falls back", func(t *testing.T) {
		ctx, cancel := context.WithTimeout(context.Background(), 5*time.Second)
		defer cancel()

		client, err := NewRedisClient(ctx, RedisOptions{Addr: "127.0.0.1:1"})
		assert.Error(t, err)
		require.NotNil(t, client)
		assert.False(t, client.IsEnabled())

		rl := NewRateLimiter(client, DefaultConfig())
		result, err := rl.AllowIP(ctx, "10.0.0.1")
		require.NoError(t, err)
		assert.True(t, result.Allowed)
	})
}

func TestIPRateLimitMiddleware(t *testing.T) {
	rl := newTestLimiter(1, 1)

	router := gin.New()
	router.Use(rl.IPRateLimitMiddleware())
	router.GET("/", func(c *gin.Context) { c.String(http.StatusOK, "ok") })

	w := httptest.NewRecorder()
	router.ServeHTTP(w, httptest.NewRequest(http.MethodGet, "/", nil))
	assert.Equal(t, http.StatusOK, w.Code)
	assert.Equal(t, "1", w.Header().Get("X-RateLimit-Limit"))
	assert.Equal(t, "0", w.Header().Get("X-RateLimit-Remaining"))
	assert.NotEmpty(t, w.Header().Get("X-RateLimit-Reset"))

	w = httptest.NewRecorder()
	router.ServeHTTP(w, httptest.NewRequest(http.MethodGet, "/", nil))
	assert.Equal(t, http.StatusTooManyRequests, w.Code)
	assert.NotEmpty(t, w.Header().Get("Retry-After"))

	var body map[string]interface{}
	require.NoError(t, json.Unmarshal(w.Body.Bytes(), &body))
	assert.Equal(t, "rate_limit", body["category"])
	assert.Equal(t, "Rate limit exceeded", body["error"])
}

func TestEndpointRateLimitMiddleware(t *testing.T) {
	rl := newTestLimiter(100, 1)

	router := gin.New()
	router.POST("/predict", rl.EndpointRateLimitMiddleware("predict", rl.Config().PredictLimitPerMin),
		func(c *gin.Context) { c.String(http.StatusOK, "ok") })
	router.GET("/other", func(c *gin.Context) { c.String(http.StatusOK, "ok") })

	w := httptest.NewRecorder()
	router.ServeHTTP(w, httptest.NewRequest(http.MethodPost, "/predict", nil))
	assert.Equal(t, http.StatusOK, w.Code)
	assert.Equal(t, "1", w.Header().Get("X-RateLimit-Endpoint-Limit"))

	w = httptest.NewRecorder()
	router.ServeHTTP(w, httptest.NewRequest(http.MethodPost, "/predict", nil))
	assert.Equal(t, http.StatusTooManyRequests, w.Code)

	w = httptest.NewRecorder()
	router.ServeHTTP(w, httptest.NewRequest(http.MethodGet, "/other", nil))
	assert.Equal(t, http.StatusOK, w.Code)
}

func TestHandleRateLimitStatus(t *testing.T) {
	rl := newTestLimiter(60, 20)

	router := gin.New()
	router.GET("/api/ratelimit", rl.HandleRateLimitStatus())

	w := httptest.NewRecorder()
	router.ServeHTTP(w, httptest.NewRequest(http.MethodGet, "/api/ratelimit", nil))
	require.Equal(t, http.StatusOK, w.Code)

	var status StatusResponse
	require.NoError(t, json.Unmarshal(w.Body.Bytes(), &status))
	assert.Equal(t, 60, status.PerMinute)
	assert.Equal(t, 20, status.PredictLimit)
	assert.Equal(t, "memory", status.Backend)
	assert.Equal(t, "192.0.2.1", status.IP)
	assert.Equal(t, false, status.Stats["redis_enabled"])
	assert.Equal(t, float64(0), status.Stats["fallback_limiters"])
	assert.NotContains(t, status.Stats, "redis_pool")
}

func TestBackendAndHealthCheck(t *testing.T) {
	rl := newTestLimiter(10, 10)
	assert.Equal(t, "memory", rl.Backend())
	assert.NoError(t, rl.HealthCheck(context.Background()))
}

func TestGetStatsWithRedisPool(t *testing.T) {
	// a client that is enabled but whose server went away after startup
	client := &RedisClient{
		client:  redis.NewClient(&redis.Options{Addr: "127.0.0.1:1", MaxRetries: -1, DialTimeout: 100 * time.Millisecond}),
		enabled: true,
		addr:    "127.0.0.1:1",
	}
	defer func() { _ = client.Close() }()

	rl := NewRateLimiter(client, DefaultConfig())
	assert.Equal(t, "redis", rl.Backend())
	assert.Error(t, rl.HealthCheck(context.Background()))

	stats := rl.GetStats()
	assert.Equal(t, true, stats["redis_enabled"])
	pool, ok := stats["redis_pool"].(map[string]interface{})
	require.True(t, ok)
	assert.Equal(t, "127.0.0.1:1", pool["addr"])
}
