// Package metrics exposes prometheus instrumentation for the HTTP
// surface and the background grading/synthesis pipeline.
package metrics

import (
	"strconv"
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

	// GradingTasks counts resolved grading tasks by outcome: "graded"
	// for collaborator results, "degraded" for caught failures.
	GradingTasks = prometheus.NewCounterVec(
		prometheus.CounterOpts{
			Name: "grading_tasks_total",
			Help: "Resolved grading tasks by outcome",
		},
		[]string{"outcome"},
	)

	GradingDuration = prometheus.NewHistogram(
		prometheus.HistogramOpts{
			Name:    "grading_task_duration_seconds",
			Help:    "Duration of grading tasks",
			Buckets: []float64{1, 5, 10, 30, 60, 120},
		},
	)

	// TTSCacheLookups counts ensure() calls by "hit" or "miss".
	TTSCacheLookups = prometheus.NewCounterVec(
		prometheus.CounterOpts{
			Name: "tts_cache_lookups_total",
			Help: "Audio cache lookups by result",
		},
		[]string{"result"},
	)

	TTSFailures = prometheus.NewCounter(
		prometheus.CounterOpts{
			Name: "tts_synthesis_failures_total",
			Help: "Failed speech synthesis calls",
		},
	)

	TTSSynthesizedSeconds = prometheus.NewCounter(
		prometheus.CounterOpts{
			Name: "tts_synthesized_audio_seconds_total",
			Help: "Seconds of synthesized speech written to the cache",
		},
	)
)

func Init() {
	prometheus.MustRegister(
		RequestCounter,
		RequestDuration,
		GradingTasks,
		GradingDuration,
		TTSCacheLookups,
		TTSFailures,
		TTSSynthesizedSeconds,
	)
}

// Middleware records request counts and latency per route.
func Middleware() gin.HandlerFunc {
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

// Handler serves the prometheus scrape endpoint.
func Handler() gin.HandlerFunc {
	h := promhttp.Handler()
	return func(c *gin.Context) {
		h.ServeHTTP(c.Writer, c.Request)
	}
}
