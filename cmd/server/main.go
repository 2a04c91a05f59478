package main

import (
	"context"
	"fmt"
	"io"
	"log/slog"
	"net/http"
	"os"
	"os/signal"
	"syscall"
	"time"

	"github.com/ZanzyTHEbar/energy-o-meter/internal/config"
	"github.com/ZanzyTHEbar/energy-o-meter/internal/errors"
	"github.com/ZanzyTHEbar/energy-o-meter/internal/model"
	"github.com/ZanzyTHEbar/energy-o-meter/internal/monitoring"
	"github.com/ZanzyTHEbar/energy-o-meter/internal/ratelimit"
	"github.com/gin-gonic/gin"
	"github.com/urfave/cli/v2"
)

// version is set at build time with -ldflags "-X main.version=..."
var version = "dev"

func main() {
	if err := newCLI().Run(os.Args); err != nil {
		slog.Error("Command failed", "error", err)
		os.Exit(1)
	}
}

func newCLI() *cli.App {
	return &cli.App{
		Name:    "energy-predictor",
		Usage:   "Building energy consumption predictor",
		Version: version,
		Flags: []cli.Flag{
			&cli.StringFlag{
				Name:    "config",
				Aliases: []string{"c"},
				Usage:   "path to the YAML configuration file",
				EnvVars: []string{"ENERGY_PREDICTOR_CONFIG"},
			},
		},
		Action: serveCommand,
		Commands: []*cli.Command{
			{
				Name:   "serve",
				Usage:  "run the HTTP server",
				Action: serveCommand,
			},
			{
				Name:  "predict",
				Usage: "run one prediction from a JSON request file",
				Flags: []cli.Flag{
					&cli.StringFlag{
						Name:     "input",
						Aliases:  []string{"i"},
						Usage:    "JSON request file, - for stdin",
						Required: true,
					},
					&cli.BoolFlag{
						Name:  "json",
						Usage: "print the full API response instead of a table",
					},
				},
				Action: predictCommand,
			},
			{
				Name:  "reset-limits",
				Usage: "clear rate limit buckets stored in Redis",
				Flags: []cli.Flag{
					&cli.StringFlag{
						Name:  "ip",
						Usage: "only clear the buckets of this client IP",
					},
				},
				Action: resetLimitsCommand,
			},
		},
	}
}

func setupLogging(cfg config.LoggingConfig, w io.Writer) *monitoring.Logger {
	logger := monitoring.NewLoggerTo(w, cfg.Level, cfg.JSON)
	slog.SetDefault(logger.Logger)

	if monitoring.ParseLevel(cfg.Level) == slog.LevelDebug {
		gin.SetMode(gin.DebugMode)
	} else {
		gin.SetMode(gin.ReleaseMode)
	}
	return logger
}

func redisOptions(cfg config.RateLimitConfig) ratelimit.RedisOptions {
	return ratelimit.RedisOptions{
		Addr:     cfg.RedisAddr,
		Password: cfg.RedisPassword,
		DB:       cfg.RedisDB,
	}
}

func limiterConfig(cfg config.RateLimitConfig) ratelimit.Config {
	return ratelimit.Config{
		IPLimitPerMin:      cfg.PerMinute,
		PredictLimitPerMin: cfg.PredictPerMinute,
	}
}

func serveCommand(c *cli.Context) error {
	cfg, err := config.Load(c.String("config"))
	if err != nil {
		return err
	}
	return runServer(c.Context, cfg)
}

func runServer(parent context.Context, cfg *config.Config) error {
	logger := setupLogging(cfg.Logging, os.Stdout)

	ctx, stop := signal.NotifyContext(parent, syscall.SIGINT, syscall.SIGTERM)
	defer stop()

	// a predictor that cannot be loaded is fatal
	predictor, err := model.Load(ctx, cfg.Predictor)
	if err != nil {
		return err
	}
	if closer, ok := predictor.(io.Closer); ok {
		defer errors.SafeClose(closer, "predictor")
	}

	redisClient, err := ratelimit.NewRedisClient(ctx, redisOptions(cfg.RateLimit))
	if err != nil {
		slog.Warn("Redis unavailable, rate limiting in memory", "addr", cfg.RateLimit.RedisAddr, "error", err)
	}
	defer errors.SafeClose(redisClient, "redis")

	limiter := ratelimit.NewRateLimiter(redisClient, limiterConfig(cfg.RateLimit))
	limiter.StartCleanup(ctx, 5*time.Minute, 10*time.Minute)

	a, err := newApp(cfg, predictor, limiter, logger)
	if err != nil {
		return err
	}
	router, err := a.setupRouter()
	if err != nil {
		return err
	}

	srv := &http.Server{
		Addr:              ":" + cfg.Server.Port,
		Handler:           router,
		ReadHeaderTimeout: 10 * time.Second,
	}

	serveErr := make(chan error, 1)
	go func() {
		slog.Info("Starting server",
			"port", cfg.Server.Port,
			"predictor", predictor.Name(),
			"predictor_version", predictor.Version(),
			"version", version)
		if err := srv.ListenAndServe(); err != nil && err != http.ErrServerClosed {
			serveErr <- err
		}
	}()

	select {
	case err := <-serveErr:
		return errors.WrapError(err, "server failed")
	case <-ctx.Done():
	}

	slog.Info("Shutting down server...")
	shutdownCtx, cancel := context.WithTimeout(context.Background(), cfg.Server.GracefulTimeout)
	defer cancel()

	if err := srv.Shutdown(shutdownCtx); err != nil {
		return errors.WrapError(err, "server forced to shutdown")
	}

	slog.Info("Server exited")
	return nil
}

func resetLimitsCommand(c *cli.Context) error {
	cfg, err := config.Load(c.String("config"))
	if err != nil {
		return err
	}
	setupLogging(cfg.Logging, c.App.ErrWriter)

	if cfg.RateLimit.RedisAddr == "" {
		return cli.Exit("rate limits live in server memory without Redis; restart the server to clear them", 1)
	}

	client, err := ratelimit.NewRedisClient(c.Context, redisOptions(cfg.RateLimit))
	if err != nil {
		return err
	}
	defer errors.SafeClose(client, "redis")

	limiter := ratelimit.NewRateLimiter(client, limiterConfig(cfg.RateLimit))

	var n int
	if ip := c.String("ip"); ip != "" {
		n, err = limiter.InvalidateIP(c.Context, ip)
	} else {
		n, err = limiter.InvalidateAll(c.Context)
	}
	if err != nil {
		return err
	}

	fmt.Fprintf(c.App.Writer, "removed %d rate limit keys\n", n)
	return nil
}
