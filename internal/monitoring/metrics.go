package monitoring

import (
	"strconv"
	"time"

	"github.com/prometheus/client_golang/prometheus"
	"github.com/prometheus/client_golang/prometheus/collectors"
)

const namespace = "energy_predictor"

const (
	// OutcomeSuccess labels predictions that returned a value.
	OutcomeSuccess = "success"
	// OutcomeError labels predictions whose predictor call failed.
	OutcomeError = "error"
)

var (
	httpRequestsTotal = prometheus.NewCounterVec(
		prometheus.CounterOpts{
			Namespace: namespace,
			Name:      "http_requests_total",
			Help:      "HTTP requests handled, partitioned by method, route and status.",
		},
		[]string{"method", "route", "status"},
	)

	httpRequestSeconds = prometheus.NewHistogramVec(
		prometheus.HistogramOpts{
			Namespace: namespace,
			Name:      "http_request_seconds",
			Help:      "HTTP request latency in seconds.",
			Buckets:   prometheus.DefBuckets,
		},
		[]string{"route"},
	)

	predictionsTotal = prometheus.NewCounterVec(
		prometheus.CounterOpts{
			Namespace: namespace,
			Name:      "predictions_total",
			Help:      "Predictions served, partitioned by outcome.",
		},
		[]string{"outcome"},
	)

	predictionSeconds = prometheus.NewHistogram(
		prometheus.HistogramOpts{
			Namespace: namespace,
			Name:      "prediction_seconds",
			Help:      "Predictor call latency in seconds.",
			Buckets:   []float64{0.001, 0.005, 0.01, 0.05, 0.1, 0.25, 0.5, 1, 2.5, 5},
		},
	)

	contributionsUndefinedTotal = prometheus.NewCounter(
		prometheus.CounterOpts{
			Namespace: namespace,
			Name:      "contributions_undefined_total",
			Help:      "Requests whose contribution ratios summed to zero.",
		},
	)

	rateLimitBlocksTotal = prometheus.NewCounterVec(
		prometheus.CounterOpts{
			Namespace: namespace,
			Name:      "ratelimit_blocks_total",
			Help:      "Requests rejected by the rate limiter, partitioned by scope.",
		},
		[]string{"scope"},
	)

	rateLimitFallbackTotal = prometheus.NewCounter(
		prometheus.CounterOpts{
			Namespace: namespace,
			Name:      "ratelimit_fallback_total",
			Help:      "Rate limit decisions taken in memory after a Redis failure.",
		},
	)
)

// Register attaches the service collectors to the supplied registerer.
// Process and Go runtime collectors are added when includeRuntime is set.
func Register(reg prometheus.Registerer, includeRuntime bool) error {
	cs := []prometheus.Collector{
		httpRequestsTotal,
		httpRequestSeconds,
		predictionsTotal,
		predictionSeconds,
		contributionsUndefinedTotal,
		rateLimitBlocksTotal,
		rateLimitFallbackTotal,
	}
	if includeRuntime {
		cs = append(cs,
			collectors.NewGoCollector(),
			collectors.NewProcessCollector(collectors.ProcessCollectorOpts{}),
		)
	}

	for _, collector := range cs {
		if err := reg.Register(collector); err != nil {
			if _, ok := err.(prometheus.AlreadyRegisteredError); ok {
				continue
			}
			return err
		}
	}
	return nil
}

// ObserveRequest records one HTTP request.
func ObserveRequest(method, route string, status int, duration time.Duration) {
	if route == "" {
		route = "unmatched"
	}
	httpRequestsTotal.WithLabelValues(method, route, strconv.Itoa(status)).Inc()
	httpRequestSeconds.WithLabelValues(route).Observe(clamp(duration).Seconds())
}

// ObservePrediction records a predictor call duration and outcome label.
func ObservePrediction(duration time.Duration, outcome string) {
	label := outcome
	if label != OutcomeError {
		label = OutcomeSuccess
	}
	predictionsTotal.WithLabelValues(label).Inc()
	predictionSeconds.Observe(clamp(duration).Seconds())
}

// IncContributionsUndefined counts a degenerate contribution table.
func IncContributionsUndefined() {
	contributionsUndefinedTotal.Inc()
}

// IncRateLimitBlock counts a rejected request for scope ("ip" or "endpoint").
func IncRateLimitBlock(scope string) {
	rateLimitBlocksTotal.WithLabelValues(scope).Inc()
}

// IncRateLimitFallback counts a decision taken by the in-memory limiter
// because Redis failed.
func IncRateLimitFallback() {
	rateLimitFallbackTotal.Inc()
}

func clamp(d time.Duration) time.Duration {
	if d < 0 {
		return 0
	}
	return d
}
