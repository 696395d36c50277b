package monitoring

import (
	"strconv"
	"sync"
	"time"

	"github.com/gin-gonic/gin"
	"github.com/prometheus/client_golang/prometheus"
	"github.com/prometheus/client_golang/prometheus/promhttp"
)

var (
	RequestCounter = prometheus.NewCounterVec(
		prometheus.CounterOpts{
			Name: "http_requests_total",
			Help: "Total number of HTTP requests",
		},
		[]string{"method", "endpoint", "status"},
	)

	RequestDuration = prometheus.NewHistogramVec(
		prometheus.HistogramOpts{
			Name:    "http_request_duration_seconds",
			Help:    "Duration of HTTP requests",
			Buckets: []float64{0.1, 0.5, 1, 2, 5},
		},
		[]string{"method", "endpoint"},
	)

	SessionsStarted = prometheus.NewCounterVec(
		prometheus.CounterOpts{
			Name: "practice_sessions_started_total",
			Help: "Practice sessions started or resumed",
		},
		[]string{"kind", "resumed"},
	)

	ItemsSubmitted = prometheus.NewCounterVec(
		prometheus.CounterOpts{
			Name: "practice_items_submitted_total",
			Help: "Answers and speaking results recorded",
		},
		[]string{"kind", "correct"},
	)

	SideEffectFailures = prometheus.NewCounterVec(
		prometheus.CounterOpts{
			Name: "practice_side_effect_failures_total",
			Help: "Scoring side effects that failed and were skipped",
		},
		[]string{"task"},
	)

	PronunciationDuration = prometheus.NewHistogramVec(
		prometheus.HistogramOpts{
			Name:    "pronunciation_request_duration_seconds",
			Help:    "Latency of the pronunciation scoring service",
			Buckets: []float64{0.25, 0.5, 1, 2, 4, 8},
		},
		[]string{"outcome"},
	)
)

var registerOnce sync.Once

func Init() {
	registerOnce.Do(func() {
		prometheus.MustRegister(
			RequestCounter,
			RequestDuration,
			SessionsStarted,
			ItemsSubmitted,
			SideEffectFailures,
			PronunciationDuration,
		)
	})
}

func MetricsMiddleware() gin.HandlerFunc {
	return func(c *gin.Context) {
		start := time.Now()
		c.Next()

		duration := time.Since(start).Seconds()
		status := c.Writer.Status()

		RequestCounter.WithLabelValues(
			c.Request.Method,
			c.FullPath(),
			strconv.Itoa(status),
		).Inc()

		RequestDuration.WithLabelValues(
			c.Request.Method,
			c.FullPath(),
		).Observe(duration)
	}
}

func PrometheusHandler() gin.HandlerFunc {
	h := promhttp.Handler()
	return func(c *gin.Context) {
		h.ServeHTTP(c.Writer, c.Request)
	}
}
