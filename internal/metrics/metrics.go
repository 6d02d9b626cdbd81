// Package metrics provides Prometheus instrumentation for the engine's
// batch runs and HTTP surface.
package metrics

import (
	"net/http"
	"strconv"
	"time"

	"github.com/prometheus/client_golang/prometheus"
	"github.com/prometheus/client_golang/prometheus/promauto"
	"github.com/prometheus/client_golang/prometheus/promhttp"
)

var (
	// PerformanceRunsTotal counts session performance runs by outcome.
	PerformanceRunsTotal = promauto.NewCounterVec(prometheus.CounterOpts{
		Name: "engine_performance_runs_total",
		Help: "Session performance computation runs",
	}, []string{"outcome"})

	// PerformanceRunDuration tracks how long a session performance run takes.
	PerformanceRunDuration = promauto.NewHistogram(prometheus.HistogramOpts{
		Name:    "engine_performance_run_duration_seconds",
		Help:    "Duration of one session performance run",
		Buckets: []float64{0.1, 0.5, 1, 5, 15, 60, 300},
	})

	// PortfoliosProcessed counts portfolios reconstructed by outcome.
	PortfoliosProcessed = promauto.NewCounterVec(prometheus.CounterOpts{
		Name: "engine_portfolios_processed_total",
		Help: "Portfolios processed during performance runs",
	}, []string{"outcome"})

	// RankingRunsTotal counts ranking aggregation runs by outcome.
	RankingRunsTotal = promauto.NewCounterVec(prometheus.CounterOpts{
		Name: "engine_ranking_runs_total",
		Help: "Session ranking aggregation runs",
	}, []string{"outcome"})

	// SyncFailuresTotal counts historical-data sync failures.
	SyncFailuresTotal = promauto.NewCounter(prometheus.CounterOpts{
		Name: "engine_price_sync_failures_total",
		Help: "Historical price sync failures (degraded, not fatal)",
	})

	// PricelessAssetsTotal counts assets that contributed zero value because
	// no price source existed at all for the reconstruction interval.
	PricelessAssetsTotal = promauto.NewCounter(prometheus.CounterOpts{
		Name: "engine_priceless_assets_total",
		Help: "Assets valued at zero for lack of any price source",
	})

	// HTTPRequestsTotal counts API requests by method, path and status.
	HTTPRequestsTotal = promauto.NewCounterVec(prometheus.CounterOpts{
		Name: "engine_http_requests_total",
		Help: "Total HTTP requests",
	}, []string{"method", "path", "status"})

	// HTTPRequestDuration tracks API request duration.
	HTTPRequestDuration = promauto.NewHistogramVec(prometheus.HistogramOpts{
		Name:    "engine_http_request_duration_seconds",
		Help:    "HTTP request duration in seconds",
		Buckets: []float64{0.005, 0.025, 0.1, 0.5, 1, 5},
	}, []string{"method", "path"})
)

// Handler returns the Prometheus metrics HTTP handler.
func Handler() http.Handler {
	return promhttp.Handler()
}

// Middleware records request count and duration for every API request.
func Middleware(next http.Handler) http.Handler {
	return http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		start := time.Now()
		wrapped := &statusWriter{ResponseWriter: w, status: http.StatusOK}
		next.ServeHTTP(wrapped, r)

		HTTPRequestsTotal.WithLabelValues(r.Method, r.URL.Path, strconv.Itoa(wrapped.status)).Inc()
		HTTPRequestDuration.WithLabelValues(r.Method, r.URL.Path).Observe(time.Since(start).Seconds())
	})
}

type statusWriter struct {
	http.ResponseWriter
	status int
}

func (w *statusWriter) WriteHeader(code int) {
	w.status = code
	w.ResponseWriter.WriteHeader(code)
}
