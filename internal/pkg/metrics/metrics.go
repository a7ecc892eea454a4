package metrics

import (
	"strconv"
	"time"

	"github.com/gofiber/fiber/v2"
	"github.com/prometheus/client_golang/prometheus"
	"github.com/prometheus/client_golang/prometheus/promauto"
	"github.com/prometheus/client_golang/prometheus/promhttp"
	"github.com/valyala/fasthttp/fasthttpadaptor"
)

var (
	// HTTP metrics
	httpRequestsTotal = promauto.NewCounterVec(prometheus.CounterOpts{
		Namespace: "agroruta",
		Subsystem: "http",
		Name:      "requests_total",
		Help:      "Total HTTP requests processed",
	}, []string{"method", "path", "status"})

	httpRequestDuration = promauto.NewHistogramVec(prometheus.HistogramOpts{
		Namespace: "agroruta",
		Subsystem: "http",
		Name:      "request_duration_seconds",
		Help:      "HTTP request latency in seconds",
		Buckets:   []float64{0.001, 0.005, 0.01, 0.025, 0.05, 0.1, 0.25, 0.5, 1, 2.5},
	}, []string{"method", "path"})

	httpResponseSize = promauto.NewHistogramVec(prometheus.HistogramOpts{
		Namespace: "agroruta",
		Subsystem: "http",
		Name:      "response_size_bytes",
		Help:      "HTTP response size in bytes",
		Buckets:   prometheus.ExponentialBuckets(100, 10, 6),
	}, []string{"method", "path"})

	// Engine metrics
	EvaluationsTotal = promauto.NewCounterVec(prometheus.CounterOpts{
		Namespace: "agroruta",
		Subsystem: "engine",
		Name:      "evaluations_total",
		Help:      "Total destination evaluations computed",
	}, []string{"grain"})

	DestinationsEvaluated = promauto.NewHistogram(prometheus.HistogramOpts{
		Namespace: "agroruta",
		Subsystem: "engine",
		Name:      "destinations_per_evaluation",
		Help:      "Number of eligible destinations per evaluation",
		Buckets:   []float64{1, 2, 5, 10, 25, 50, 100, 250},
	})

	DestinationsSkippedRadius = promauto.NewCounter(prometheus.CounterOpts{
		Namespace: "agroruta",
		Subsystem: "engine",
		Name:      "destinations_skipped_radius_total",
		Help:      "Collection points excluded by the eligibility radius",
	})

	// Registry metrics
	RegistryRowsLoaded = promauto.NewCounter(prometheus.CounterOpts{
		Namespace: "agroruta",
		Subsystem: "registry",
		Name:      "rows_loaded_total",
		Help:      "Total collection-point rows accepted by the loader",
	})

	RegistryRowsDropped = promauto.NewCounter(prometheus.CounterOpts{
		Namespace: "agroruta",
		Subsystem: "registry",
		Name:      "rows_dropped_total",
		Help:      "Total malformed collection-point rows dropped",
	})

	// Market metrics
	MarketFallbacks = promauto.NewCounter(prometheus.CounterOpts{
		Namespace: "agroruta",
		Subsystem: "market",
		Name:      "fallback_snapshots_total",
		Help:      "Total snapshots served from the built-in fallback board",
	})

	BoardRefreshes = promauto.NewCounterVec(prometheus.CounterOpts{
		Namespace: "agroruta",
		Subsystem: "market",
		Name:      "board_refreshes_total",
		Help:      "Total board refresh workflow runs",
	}, []string{"result"})

	// Cache metrics
	CacheHits = promauto.NewCounterVec(prometheus.CounterOpts{
		Namespace: "agroruta",
		Subsystem: "cache",
		Name:      "hits_total",
		Help:      "Total cache hits",
	}, []string{"operation"})

	CacheMisses = promauto.NewCounterVec(prometheus.CounterOpts{
		Namespace: "agroruta",
		Subsystem: "cache",
		Name:      "misses_total",
		Help:      "Total cache misses",
	}, []string{"operation"})

	// WebSocket metrics
	ActiveWebSockets = promauto.NewGauge(prometheus.GaugeOpts{
		Namespace: "agroruta",
		Subsystem: "ws",
		Name:      "active_connections",
		Help:      "Current number of active WebSocket connections",
	})

	// Database pool metrics
	DBPoolConnsOpen = promauto.NewGauge(prometheus.GaugeOpts{
		Namespace: "agroruta",
		Subsystem: "db",
		Name:      "pool_conns_open",
		Help:      "Total connections open in the database pool",
	})

	DBPoolConnsAcquired = promauto.NewGauge(prometheus.GaugeOpts{
		Namespace: "agroruta",
		Subsystem: "db",
		Name:      "pool_conns_acquired",
		Help:      "Connections currently acquired from the database pool",
	})

	DBPoolConnsIdle = promauto.NewGauge(prometheus.GaugeOpts{
		Namespace: "agroruta",
		Subsystem: "db",
		Name:      "pool_conns_idle",
		Help:      "Idle connections in the database pool",
	})
)

// Middleware records request metrics.
func Middleware() fiber.Handler {
	return func(c *fiber.Ctx) error {
		start := time.Now()

		err := c.Next()

		duration := time.Since(start).Seconds()
		status := strconv.Itoa(c.Response().StatusCode())
		path := c.Route().Path
		if path == "" {
			path = c.Path()
		}
		method := c.Method()

		httpRequestsTotal.WithLabelValues(method, path, status).Inc()
		httpRequestDuration.WithLabelValues(method, path).Observe(duration)
		httpResponseSize.WithLabelValues(method, path).Observe(float64(len(c.Response().Body())))

		return err
	}
}

// Handler returns a Fiber handler serving the Prometheus /metrics endpoint.
func Handler() fiber.Handler {
	handler := promhttp.Handler()
	return func(c *fiber.Ctx) error {
		fasthttpadaptor.NewFastHTTPHandler(handler)(c.Context())
		return nil
	}
}

// UpdateDBPoolMetrics updates database pool gauges from pgx pool stats.
// Takes an interface to keep this package free of a pgxpool import.
func UpdateDBPoolMetrics(stat interface{}) {
	type poolStat interface {
		AcquiredConns() int32
		IdleConns() int32
		TotalConns() int32
	}

	if s, ok := stat.(poolStat); ok {
		DBPoolConnsAcquired.Set(float64(s.AcquiredConns()))
		DBPoolConnsIdle.Set(float64(s.IdleConns()))
		DBPoolConnsOpen.Set(float64(s.TotalConns()))
	}
}
