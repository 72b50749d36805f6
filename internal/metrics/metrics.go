// Package metrics provides Prometheus instrumentation for the exposure and
// MTM engines and the HTTP surface that hosts them.
package metrics

import (
	"net/http"
	"strconv"
	"time"

	"github.com/gin-gonic/gin"
	"github.com/prometheus/client_golang/prometheus"
	"github.com/prometheus/client_golang/prometheus/promauto"
	"github.com/prometheus/client_golang/prometheus/promhttp"
)

var (
	// MalformedFormulas counts persisted formulas that collapsed to the empty sentinel.
	MalformedFormulas = promauto.NewCounterVec(prometheus.CounterOpts{
		Name: "mtmengine_malformed_formulas_total",
		Help: "Persisted formulas that failed to parse",
	}, []string{"field"})

	// SkippedLegs counts legs left out of an exposure pass, by leg kind.
	SkippedLegs = promauto.NewCounterVec(prometheus.CounterOpts{
		Name: "mtmengine_skipped_legs_total",
		Help: "Trade legs skipped by exposure aggregation",
	}, []string{"kind"})

	// PriceLookups counts price store reads by source and outcome
	// (hit, miss, error, cached).
	PriceLookups = promauto.NewCounterVec(prometheus.CounterOpts{
		Name: "mtmengine_price_lookups_total",
		Help: "Price lookups by source and outcome",
	}, []string{"source", "outcome"})

	// UnresolvedValuations counts MTM valuations that could not be priced.
	UnresolvedValuations = promauto.NewCounter(prometheus.CounterOpts{
		Name: "mtmengine_unresolved_valuations_total",
		Help: "Leg valuations reported as unresolved",
	})

	// PassDuration tracks how long one engine pass takes.
	PassDuration = promauto.NewHistogramVec(prometheus.HistogramOpts{
		Name:    "mtmengine_pass_duration_seconds",
		Help:    "Engine pass duration in seconds",
		Buckets: []float64{0.005, 0.01, 0.025, 0.05, 0.1, 0.25, 0.5, 1, 2.5},
	}, []string{"engine"})

	// HTTPRequestsTotal counts HTTP requests by method, route and status.
	HTTPRequestsTotal = promauto.NewCounterVec(prometheus.CounterOpts{
		Name: "mtmengine_http_requests_total",
		Help: "Total HTTP requests",
	}, []string{"method", "path", "status"})

	// HTTPRequestDuration tracks request duration by method and route.
	HTTPRequestDuration = promauto.NewHistogramVec(prometheus.HistogramOpts{
		Name:    "mtmengine_http_request_duration_seconds",
		Help:    "HTTP request duration in seconds",
		Buckets: []float64{0.001, 0.005, 0.01, 0.025, 0.05, 0.1, 0.25, 0.5, 1.0},
	}, []string{"method", "path"})
)

// ObservePass records the duration of an engine pass that started at start.
func ObservePass(engine string, start time.Time) {
	PassDuration.WithLabelValues(engine).Observe(time.Since(start).Seconds())
}

// Handler returns the Prometheus metrics HTTP handler.
func Handler() http.Handler {
	return promhttp.Handler()
}

// Middleware records request metrics. The route template is used as the
// path label so path parameters do not explode cardinality.
func Middleware() gin.HandlerFunc {
	return func(c *gin.Context) {
		start := time.Now()
		c.Next()

		path := c.FullPath()
		if path == "" {
			path = "unmatched"
		}
		HTTPRequestsTotal.WithLabelValues(c.Request.Method, path, strconv.Itoa(c.Writer.Status())).Inc()
		HTTPRequestDuration.WithLabelValues(c.Request.Method, path).Observe(time.Since(start).Seconds())
	}
}
