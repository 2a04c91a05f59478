package main

import (
	"context"
	stderrors "errors"
	"html/template"
	"io/fs"
	"net/http"
	"time"

	"github.com/ZanzyTHEbar/energy-o-meter/internal/config"
	_ "github.com/ZanzyTHEbar/energy-o-meter/internal/docs"
	"github.com/ZanzyTHEbar/energy-o-meter/internal/errors"
	"github.com/ZanzyTHEbar/energy-o-meter/internal/features"
	"github.com/ZanzyTHEbar/energy-o-meter/internal/frontend"
	"github.com/ZanzyTHEbar/energy-o-meter/internal/middleware"
	"github.com/ZanzyTHEbar/energy-o-meter/internal/model"
	"github.com/ZanzyTHEbar/energy-o-meter/internal/monitoring"
	"github.com/ZanzyTHEbar/energy-o-meter/internal/prediction"
	"github.com/ZanzyTHEbar/energy-o-meter/internal/ratelimit"
	"github.com/ZanzyTHEbar/energy-o-meter/internal/security"
	"github.com/ZanzyTHEbar/energy-o-meter/internal/types"
	"github.com/gin-gonic/gin"
	"github.com/prometheus/client_golang/prometheus"
	"github.com/prometheus/client_golang/prometheus/promhttp"
	swaggerFiles "github.com/swaggo/files"
	ginSwagger "github.com/swaggo/gin-swagger"
)

const predictEndpoint = "predict"

// pinger is implemented by predictors backed by a remote endpoint
type pinger interface {
	Ping(ctx context.Context) error
}

// app holds everything the HTTP layer needs
type app struct {
	cfg       *config.Config
	predictor model.Handle
	service   *prediction.Service
	limiter   *ratelimit.RateLimiter
	logger    *monitoring.Logger
	registry  *prometheus.Registry
	dist      fs.FS
	page      *template.Template
}

func newApp(cfg *config.Config, predictor model.Handle, limiter *ratelimit.RateLimiter, logger *monitoring.Logger) (*app, error) {
	registry := prometheus.NewRegistry()
	if err := monitoring.Register(registry, true); err != nil {
		return nil, errors.WrapError(err, "register metrics")
	}

	dist, err := frontend.GetDistFS()
	if err != nil {
		return nil, errors.WrapError(err, "load frontend")
	}
	page, err := frontend.LoadIndexTemplate(dist)
	if err != nil {
		return nil, errors.WrapError(err, "load page template")
	}

	return &app{
		cfg:       cfg,
		predictor: predictor,
		service:   prediction.NewService(predictor, predictor.Name(), prediction.WithLogger(logger)),
		limiter:   limiter,
		logger:    logger,
		registry:  registry,
		dist:      dist,
		page:      page,
	}, nil
}

func (a *app) securityConfig() security.SecurityConfig {
	sc := security.DefaultSecurityConfig()
	sc.MaxBodyBytes = a.cfg.Server.MaxBodyBytes
	sc.AllowedOrigins = a.cfg.Server.AllowedOrigins
	sc.TrustedProxies = a.cfg.Server.TrustedProxies
	sc.RequestTimeout = a.cfg.Server.RequestTimeout
	return sc
}

func (a *app) setupRouter() (*gin.Engine, error) {
	types.RegisterValidations()

	sm := security.NewSecurityMiddleware(a.securityConfig())

	r := gin.New()
	if err := r.SetTrustedProxies(sm.Config().TrustedProxies); err != nil {
		return nil, errors.WrapError(err, "trusted proxies")
	}

	r.Use(errors.RecoveryHandler())
	r.Use(sm.RequestID)
	r.Use(monitoring.MonitoringMiddleware(a.logger))
	r.Use(monitoring.SecurityMonitoringMiddleware(a.logger, sm.Config().MaxBodyBytes))
	r.Use(errors.ErrorHandler())
	r.Use(sm.SecurityHeaders)
	r.Use(sm.CORS())
	r.Use(sm.RequestTimeout)
	r.Use(middleware.NewCompressionMiddleware(middleware.DefaultCompressionConfig()).Handler())

	// probes and scrapes are not rate limited
	r.GET("/health", a.handleHealth)
	r.GET("/metrics", gin.WrapH(promhttp.HandlerFor(a.registry, promhttp.HandlerOpts{})))

	limited := r.Group("", a.limiter.IPRateLimitMiddleware())
	limited.GET("/", security.CSPMiddleware(), frontend.NewPageHandler(a.page, features.Catalogue(), types.DefaultPredictRequest().FormValues()))
	limited.GET("/assets/*filepath", frontend.NewAssetHandler(a.dist))

	api := limited.Group("/api", sm.ValidateContentType, sm.LimitBody)
	api.GET("/catalogue", a.handleCatalogue)
	api.GET("/ratelimit", a.limiter.HandleRateLimitStatus())
	api.POST("/predict",
		a.limiter.EndpointRateLimitMiddleware(predictEndpoint, a.cfg.RateLimit.PredictPerMinute),
		a.handlePredict)

	if a.cfg.Server.EnableSwagger {
		r.GET("/swagger/*any", ginSwagger.WrapHandler(swaggerFiles.Handler))
	}

	return r, nil
}

// handlePredict godoc
// @Summary Predict energy consumption
// @Tags prediction
// @Accept json
// @Produce json
// @Param request body types.PredictRequest true "Building and weather features"
// @Success 200 {object} types.PredictResponse
// @Failure 400 {object} errors.AppError
// @Failure 502 {object} errors.AppError
// @Router /api/predict [post]
func (a *app) handlePredict(c *gin.Context) {
	var req types.PredictRequest
	if err := c.ShouldBindJSON(&req); err != nil {
		var tooLarge *http.MaxBytesError
		if stderrors.As(err, &tooLarge) {
			c.AbortWithStatusJSON(http.StatusRequestEntityTooLarge, gin.H{
				"error": "request body too large",
			})
			return
		}
		errors.Respond(c, errors.NewValidationErrorWithMap(types.FieldErrors(err)))
		return
	}

	in, err := req.ToInput()
	if err != nil {
		errors.Respond(c, errors.NewValidationError("invalid date or time", err.Error()))
		return
	}

	ctx := c.Request.Context()
	res, err := a.service.Predict(ctx, in)
	if err != nil {
		if ctx.Err() == context.DeadlineExceeded {
			errors.Respond(c, errors.NewTimeoutError("Prediction timed out", err))
			return
		}
		errors.Respond(c, errors.NewPredictorError(a.service.PredictorName(), err))
		return
	}

	c.JSON(http.StatusOK, types.PredictResponse{
		Prediction:    res.Prediction,
		Formatted:     res.Formatted,
		Unit:          res.Unit,
		Predictor:     a.service.PredictorName(),
		Record:        res.Record,
		Contributions: res.Contributions,
		Inputs:        types.Summarize(in),
		RequestID:     c.GetString(errors.RequestIDKey),
		Timestamp:     time.Now().UTC(),
	})
}

// handleCatalogue godoc
// @Summary Input catalogue
// @Tags prediction
// @Produce json
// @Success 200 {object} features.CatalogueData
// @Router /api/catalogue [get]
func (a *app) handleCatalogue(c *gin.Context) {
	c.JSON(http.StatusOK, features.Catalogue())
}

// handleHealth reports degraded when a remote predictor stops answering.
// A Redis outage is reported too, but the limiter keeps working in memory
// so the status code stays 200.
func (a *app) handleHealth(c *gin.Context) {
	resp := types.HealthResponse{
		Status:    "healthy",
		Predictor: a.predictor.Name(),
		Version:   a.predictor.Version(),
		RateLimit: a.limiter.Backend(),
		Timestamp: time.Now().UTC(),
	}

	ctx, cancel := context.WithTimeout(c.Request.Context(), 2*time.Second)
	defer cancel()

	if err := a.limiter.HealthCheck(ctx); err != nil {
		a.logger.ExternalAPILogger("redis", 0, err)
		resp.Status = "degraded"
		resp.RateLimit = "redis_unreachable"
	}

	if p, ok := a.predictor.(pinger); ok {
		if err := p.Ping(ctx); err != nil {
			a.logger.ExternalAPILogger(a.predictor.Name(), 0, err)
			resp.Status = "degraded"
			c.JSON(http.StatusServiceUnavailable, resp)
			return
		}
	}

	c.JSON(http.StatusOK, resp)
}
