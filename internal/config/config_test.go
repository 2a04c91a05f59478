package config

import (
	"os"
	"path/filepath"
	"testing"
	"time"

	"github.com/ZanzyTHEbar/energy-o-meter/internal/ratelimit"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func clearEnv(t *testing.T) {
	for _, k := range []string{
		"ENERGY_PREDICTOR_CONFIG", "PORT", "ALLOWED_ORIGINS", "ENABLE_SWAGGER",
		"PREDICTOR_KIND", "PREDICTOR_ARTIFACT", "PREDICTOR_ENDPOINT", "PREDICTOR_TIMEOUT",
		"LOG_LEVEL", "LOG_FORMAT", "REDIS_ADDR", "REDIS_PASSWORD", "REDIS_DB", "RATE_LIMIT_PER_MIN",
	} {
		t.Setenv(k, "")
	}
}

func TestLoad_Defaults(t *testing.T) {
	clearEnv(t)

	cfg, err := Load("")
	require.NoError(t, err)
	assert.Equal(t, Default(), *cfg)
	assert.Equal(t, PredictorLinear, cfg.Predictor.Kind)
	assert.Equal(t, "8080", cfg.Server.Port)
}

func TestLoad_FileAndEnv(t *testing.T) {
	clearEnv(t)

	path := filepath.Join(t.TempDir(), "config.yaml")
	require.NoError(t, os.WriteFile(path, []byte(`
server:
  port: "9000"
  allowedOrigins: ["https://energy.example.edu"]
predictor:
  kind: remote
  endpoint: http://model:5001
  timeout: 2s
logging:
  level: debug
  json: false
rateLimit:
  perMinute: 10
  predictPerMinute: 5
`), 0o600))

	t.Setenv("REDIS_ADDR", "redis:6379")
	t.Setenv("REDIS_DB", "2")
	t.Setenv("PREDICTOR_TIMEOUT", "750ms")
	t.Setenv("ALLOWED_ORIGINS", "https://a.example, https://b.example")

	cfg, err := Load(path)
	require.NoError(t, err)

	assert.Equal(t, "9000", cfg.Server.Port)
	assert.Equal(t, []string{"https://a.example", "https://b.example"}, cfg.Server.AllowedOrigins)
	assert.Equal(t, PredictorRemote, cfg.Predictor.Kind)
	assert.Equal(t, "http://model:5001", cfg.Predictor.Endpoint)
	assert.Equal(t, 750*time.Millisecond, cfg.Predictor.Timeout)
	assert.Equal(t, "debug", cfg.Logging.Level)
	assert.False(t, cfg.Logging.JSON)
	assert.Equal(t, 10, cfg.RateLimit.PerMinute)
	assert.Equal(t, "redis:6379", cfg.RateLimit.RedisAddr)
	assert.Equal(t, 2, cfg.RateLimit.RedisDB)
	// untouched keys keep their defaults
	assert.Equal(t, 10*time.Second, cfg.Server.GracefulTimeout)
}

func TestLoad_ConfigFromEnvPath(t *testing.T) {
	clearEnv(t)

	path := filepath.Join(t.TempDir(), "config.yaml")
	require.NoError(t, os.WriteFile(path, []byte("server:\n  port: \"7000\"\n"), 0o600))
	t.Setenv("ENERGY_PREDICTOR_CONFIG", path)

	cfg, err := Load("")
	require.NoError(t, err)
	assert.Equal(t, "7000", cfg.Server.Port)
}

func TestLoad_Errors(t *testing.T) {
	clearEnv(t)

	_, err := Load(filepath.Join(t.TempDir(), "missing.yaml"))
	assert.ErrorContains(t, err, "not found")

	bad := filepath.Join(t.TempDir(), "bad.yaml")
	require.NoError(t, os.WriteFile(bad, []byte("server: [unclosed"), 0o600))
	_, err = Load(bad)
	assert.ErrorContains(t, err, "parse config")
}

func TestLoad_MalformedEnv(t *testing.T) {
	tests := []struct {
		key   string
		value string
	}{
		{"PREDICTOR_TIMEOUT", "5 seconds"},
		{"REDIS_DB", "one"},
		{"RATE_LIMIT_PER_MIN", "12O"},
	}

	for _, tt := range tests {
		t.Run(tt.key, func(t *testing.T) {
			clearEnv(t)
			t.Setenv(tt.key, tt.value)

			_, err := Load("")
			require.Error(t, err)
			assert.ErrorContains(t, err, tt.key)
		})
	}
}

func TestDefault_RateLimits(t *testing.T) {
	limits := ratelimit.DefaultConfig()
	cfg := Default()
	assert.Equal(t, limits.IPLimitPerMin, cfg.RateLimit.PerMinute)
	assert.Equal(t, limits.PredictLimitPerMin, cfg.RateLimit.PredictPerMinute)
}

func TestConfig_Validate(t *testing.T) {
	tests := []struct {
		name    string
		mutate  func(c *Config)
		wantErr string
	}{
		{name: "defaults", mutate: func(c *Config) {}},
		{
			name:    "unknown kind",
			mutate:  func(c *Config) { c.Predictor.Kind = "onnx" },
			wantErr: "unknown predictor kind",
		},
		{
			name:    "linear without artifact",
			mutate:  func(c *Config) { c.Predictor.ArtifactPath = "" },
			wantErr: "artifactPath",
		},
		{
			name:    "remote without endpoint",
			mutate:  func(c *Config) { c.Predictor.Kind = PredictorRemote },
			wantErr: "endpoint",
		},
		{
			name:    "zero timeout",
			mutate:  func(c *Config) { c.Predictor.Timeout = 0 },
			wantErr: "timeout",
		},
		{
			name:    "zero rate limit",
			mutate:  func(c *Config) { c.RateLimit.PredictPerMinute = 0 },
			wantErr: "rate limits",
		},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			cfg := Default()
			tt.mutate(&cfg)
			err := cfg.Validate()
			if tt.wantErr == "" {
				assert.NoError(t, err)
				return
			}
			assert.ErrorContains(t, err, tt.wantErr)
		})
	}
}
