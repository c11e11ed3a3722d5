package metrics

import (
	"strconv"
	"strings"
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
		Namespace: "horizonmask",
		Subsystem: "http",
		Name:      "requests_total",
		Help:      "Total HTTP requests processed",
	}, []string{"method", "path", "status"})

	httpRequestDuration = promauto.NewHistogramVec(prometheus.HistogramOpts{
		Namespace: "horizonmask",
		Subsystem: "http",
		Name:      "request_duration_seconds",
		Help:      "HTTP request latency in seconds",
		Buckets:   []float64{0.001, 0.005, 0.01, 0.025, 0.05, 0.1, 0.25, 0.5, 1, 2.5},
	}, []string{"method", "path"})

	httpResponseSize = promauto.NewHistogramVec(prometheus.HistogramOpts{
		Namespace: "horizonmask",
		Subsystem: "http",
		Name:      "response_size_bytes",
		Help:      "HTTP response size in bytes",
		Buckets:   prometheus.ExponentialBuckets(100, 10, 6),
	}, []string{"method", "path"})

	// Editor metrics
	EditorSessions = promauto.NewGaugeVec(prometheus.GaugeOpts{
		Namespace: "horizonmask",
		Subsystem: "editor",
		Name:      "sessions_active",
		Help:      "Editor sessions currently running",
	}, []string{"session"})

	EditorSaves = promauto.NewCounterVec(prometheus.CounterOpts{
		Namespace: "horizonmask",
		Subsystem: "editor",
		Name:      "saves_total",
		Help:      "Total debounced saves issued by editor sessions",
	}, []string{"session", "result"})

	EditorSaveDuration = promauto.NewHistogramVec(prometheus.HistogramOpts{
		Namespace: "horizonmask",
		Subsystem: "editor",
		Name:      "save_duration_seconds",
		Help:      "Latency of editor saves",
		Buckets:   []float64{0.005, 0.01, 0.025, 0.05, 0.1, 0.25, 0.5, 1, 2.5, 5},
	}, []string{"session"})

	EditorRedraws = promauto.NewCounterVec(prometheus.CounterOpts{
		Namespace: "horizonmask",
		Subsystem: "editor",
		Name:      "redraws_total",
		Help:      "Total frames pushed by editor sessions",
	}, []string{"session"})

	StatusPolls = promauto.NewCounterVec(prometheus.CounterOpts{
		Namespace: "horizonmask",
		Subsystem: "mount",
		Name:      "status_polls_total",
		Help:      "Total mount position polls",
	}, []string{"result"})

	MountSyncs = promauto.NewCounterVec(prometheus.CounterOpts{
		Namespace: "horizonmask",
		Subsystem: "mount",
		Name:      "horizon_syncs_total",
		Help:      "Total horizon pushes to the mount controller",
	}, []string{"result"})

	FrameRenderDuration = promauto.NewHistogram(prometheus.HistogramOpts{
		Namespace: "horizonmask",
		Subsystem: "render",
		Name:      "frame_duration_seconds",
		Help:      "Time spent rasterising a mask frame",
		Buckets:   []float64{0.0005, 0.001, 0.0025, 0.005, 0.01, 0.025, 0.05, 0.1},
	})

	ActiveWebSockets = promauto.NewGauge(prometheus.GaugeOpts{
		Namespace: "horizonmask",
		Subsystem: "ws",
		Name:      "active_connections",
		Help:      "Current number of active WebSocket connections",
	})

	CacheHits = promauto.NewCounterVec(prometheus.CounterOpts{
		Namespace: "horizonmask",
		Subsystem: "cache",
		Name:      "hits_total",
		Help:      "Total cache hits",
	}, []string{"operation"})

	CacheMisses = promauto.NewCounterVec(prometheus.CounterOpts{
		Namespace: "horizonmask",
		Subsystem: "cache",
		Name:      "misses_total",
		Help:      "Total cache misses",
	}, []string{"operation"})

	// Database pool metrics
	DBPoolConnsOpen = promauto.NewGauge(prometheus.GaugeOpts{
		Namespace: "horizonmask",
		Subsystem: "db",
		Name:      "pool_conns_open",
		Help:      "Total connections open in the database pool",
	})

	DBPoolConnsAcquired = promauto.NewGauge(prometheus.GaugeOpts{
		Namespace: "horizonmask",
		Subsystem: "db",
		Name:      "pool_conns_acquired",
		Help:      "Connections currently acquired from the database pool",
	})

	DBPoolConnsIdle = promauto.NewGauge(prometheus.GaugeOpts{
		Namespace: "horizonmask",
		Subsystem: "db",
		Name:      "pool_conns_idle",
		Help:      "Idle connections in the database pool",
	})

	DBPoolEmptyAcquires = promauto.NewGauge(prometheus.GaugeOpts{
		Namespace: "horizonmask",
		Subsystem: "db",
		Name:      "pool_empty_acquires",
		Help:      "Cumulative acquires that had to open a new connection",
	})
)

// normalizePath reduces path cardinality for metrics when fiber has no
// route pattern (404s, upgraded sockets).
func normalizePath(path string) string {
	switch {
	case strings.HasPrefix(path, "/ws/mask/"):
		return "/ws/mask/:kind"
	case strings.HasPrefix(path, "/docs"):
		return "/docs"
	default:
		return path
	}
}

// Middleware records request metrics.
func Middleware() fiber.Handler {
	return func(c *fiber.Ctx) error {
		start := time.Now()

		err := c.Next()

		duration := time.Since(start).Seconds()
		status := strconv.Itoa(c.Response().StatusCode())
		path := c.Route().Path
		if path == "" || path == "/" {
			path = normalizePath(c.Path())
		}
		method := c.Method()

		httpRequestsTotal.WithLabelValues(method, path, status).Inc()
		httpRequestDuration.WithLabelValues(method, path).Observe(duration)
		httpResponseSize.WithLabelValues(method, path).Observe(float64(len(c.Response().Body())))

		return err
	}
}

// Handler returns a Fiber handler serving Prometheus /metrics endpoint.
func Handler() fiber.Handler {
	handler := fasthttpadaptor.NewFastHTTPHandler(promhttp.Handler())
	return func(c *fiber.Ctx) error {
		handler(c.Context())
		return nil
	}
}

// PoolStat is the subset of pgxpool.Stat the pool gauges read.
type PoolStat interface {
	AcquiredConns() int32
	IdleConns() int32
	TotalConns() int32
	EmptyAcquireCount() int64
}

// UpdateDBPoolMetrics copies pool statistics into the db gauges.
func UpdateDBPoolMetrics(s PoolStat) {
	DBPoolConnsAcquired.Set(float64(s.AcquiredConns()))
	DBPoolConnsIdle.Set(float64(s.IdleConns()))
	DBPoolConnsOpen.Set(float64(s.TotalConns()))
	DBPoolEmptyAcquires.Set(float64(s.EmptyAcquireCount()))
}
