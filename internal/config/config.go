package config

import (
	"errors"
	"fmt"
	"io/fs"
	"os"
	"strconv"
	"strings"
	"time"

	"github.com/ZanzyTHEbar/energy-o-meter/internal/ratelimit"
	"gopkg.in/yaml.v3"
)

// Predictor kinds
const (
	PredictorLinear = "linear"
	PredictorRemote = "remote"
)

// Config captures the settings required to boot the predictor service.
type Config struct {
	Server    ServerConfig    `yaml:"server"`
	Predictor PredictorConfig `yaml:"predictor"`
	Logging   LoggingConfig   `yaml:"logging"`
	RateLimit RateLimitConfig `yaml:"rateLimit"`
}

// ServerConfig controls the HTTP listener.
type ServerConfig struct {
	Port            string        `yaml:"port"`
	GracefulTimeout time.Duration `yaml:"gracefulTimeout"`
	RequestTimeout  time.Duration `yaml:"requestTimeout"`
	MaxBodyBytes    int64         `yaml:"maxBodyBytes"`
	AllowedOrigins  []string      `yaml:"allowedOrigins"`
	TrustedProxies  []string      `yaml:"trustedProxies"`
	EnableSwagger   bool          `yaml:"enableSwagger"`
}

// PredictorConfig selects and configures the model adapter.
type PredictorConfig struct {
	Kind         string        `yaml:"kind"`
	ArtifactPath string        `yaml:"artifactPath"`
	Endpoint     string        `yaml:"endpoint"`
	Timeout      time.Duration `yaml:"timeout"`
}

// LoggingConfig controls structured logging.
type LoggingConfig struct {
	Level string `yaml:"level"`
	JSON  bool   `yaml:"json"`
}

// RateLimitConfig controls request throttling. An empty RedisAddr keeps the
// limiter in memory.
type RateLimitConfig struct {
	PerMinute        int    `yaml:"perMinute"`
	PredictPerMinute int    `yaml:"predictPerMinute"`
	RedisAddr        string `yaml:"redisAddr"`
	RedisPassword    string `yaml:"redisPassword"`
	RedisDB          int    `yaml:"redisDB"`
}

// Load initialises Config from a YAML file and optional environment overrides.
func Load(path string) (*Config, error) {
	if path == "" {
		path = os.Getenv("ENERGY_PREDICTOR_CONFIG")
	}

	cfg := Default()

	if path != "" {
		data, err := os.ReadFile(path)
		if err != nil {
			if errors.Is(err, fs.ErrNotExist) {
				return nil, fmt.Errorf("config file %s not found: %w", path, err)
			}
			return nil, fmt.Errorf("read config: %w", err)
		}
		if err := yaml.Unmarshal(data, &cfg); err != nil {
			return nil, fmt.Errorf("parse config: %w", err)
		}
	}

	if err := applyEnvOverrides(&cfg); err != nil {
		return nil, err
	}
	if err := cfg.Validate(); err != nil {
		return nil, err
	}
	return &cfg, nil
}

// Default returns the built-in configuration.
func Default() Config {
	limits := ratelimit.DefaultConfig()
	return Config{
		Server: ServerConfig{
			Port:            "8080",
			GracefulTimeout: 10 * time.Second,
			RequestTimeout:  30 * time.Second,
			MaxBodyBytes:    64 << 10,
			AllowedOrigins:  []string{"http://localhost:8080"},
			EnableSwagger:   true,
		},
		Predictor: PredictorConfig{
			Kind:         PredictorLinear,
			ArtifactPath: "configs/model.yaml",
			Timeout:      5 * time.Second,
		},
		Logging: LoggingConfig{Level: "info", JSON: true},
		RateLimit: RateLimitConfig{
			PerMinute:        limits.IPLimitPerMin,
			PredictPerMinute: limits.PredictLimitPerMin,
		},
	}
}

// Validate rejects settings the service cannot start with.
func (c Config) Validate() error {
	switch c.Predictor.Kind {
	case PredictorLinear:
		if c.Predictor.ArtifactPath == "" {
			return fmt.Errorf("predictor.artifactPath is required for the %s predictor", PredictorLinear)
		}
	case PredictorRemote:
		if c.Predictor.Endpoint == "" {
			return fmt.Errorf("predictor.endpoint is required for the %s predictor", PredictorRemote)
		}
	default:
		return fmt.Errorf("unknown predictor kind %q", c.Predictor.Kind)
	}
	if c.Predictor.Timeout <= 0 {
		return fmt.Errorf("predictor.timeout must be positive")
	}
	if c.RateLimit.PerMinute <= 0 || c.RateLimit.PredictPerMinute <= 0 {
		return fmt.Errorf("rate limits must be positive")
	}
	return nil
}

func applyEnvOverrides(cfg *Config) error {
	if v := os.Getenv("PORT"); v != "" {
		cfg.Server.Port = v
	}
	if v := os.Getenv("ALLOWED_ORIGINS"); v != "" {
		cfg.Server.AllowedOrigins = splitList(v)
	}
	if v := os.Getenv("ENABLE_SWAGGER"); v != "" {
		cfg.Server.EnableSwagger = strings.EqualFold(v, "true") || v == "1"
	}
	if v := os.Getenv("PREDICTOR_KIND"); v != "" {
		cfg.Predictor.Kind = strings.ToLower(v)
	}
	if v := os.Getenv("PREDICTOR_ARTIFACT"); v != "" {
		cfg.Predictor.ArtifactPath = v
	}
	if v := os.Getenv("PREDICTOR_ENDPOINT"); v != "" {
		cfg.Predictor.Endpoint = v
	}
	if v := os.Getenv("PREDICTOR_TIMEOUT"); v != "" {
		d, err := time.ParseDuration(v)
		if err != nil {
			return fmt.Errorf("PREDICTOR_TIMEOUT: %w", err)
		}
		cfg.Predictor.Timeout = d
	}
	if v := os.Getenv("LOG_LEVEL"); v != "" {
		cfg.Logging.Level = v
	}
	if v := os.Getenv("LOG_FORMAT"); v != "" {
		cfg.Logging.JSON = strings.EqualFold(v, "json")
	}
	if v := os.Getenv("REDIS_ADDR"); v != "" {
		cfg.RateLimit.RedisAddr = v
	}
	if v := os.Getenv("REDIS_PASSWORD"); v != "" {
		cfg.RateLimit.RedisPassword = v
	}
	if v := os.Getenv("REDIS_DB"); v != "" {
		db, err := strconv.Atoi(v)
		if err != nil {
			return fmt.Errorf("REDIS_DB: %w", err)
		}
		cfg.RateLimit.RedisDB = db
	}
	if v := os.Getenv("RATE_LIMIT_PER_MIN"); v != "" {
		n, err := strconv.Atoi(v)
		if err != nil {
			return fmt.Errorf("RATE_LIMIT_PER_MIN: %w", err)
		}
		cfg.RateLimit.PerMinute = n
	}
	return nil
}

func splitList(v string) []string {
	parts := strings.Split(v, ",")
	out := make([]string, 0, len(parts))
	for _, p := range parts {
		if p = strings.TrimSpace(p); p != "" {
			out = append(out, p)
		}
	}
	return out
}
