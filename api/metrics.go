/*
metrics.go - Prometheus instrumentation

PURPOSE:
  Counts and times HTTP requests, and tracks domain-level outcomes the
  office actually watches: submissions processed, lines dispensed,
  insufficiency aborts, receipts issued.

EXPOSURE:
  Metrics are registered with the default registry and served on
  /metrics by promhttp (wired in server.go).

SEE ALSO:
  - server.go: Middleware and /metrics route
*/
package api

import (
	"net/http"
	"strconv"
	"time"

	"github.com/go-chi/chi/v5"
	"github.com/go-chi/chi/v5/middleware"
	"github.com/prometheus/client_golang/prometheus"
	"github.com/prometheus/client_golang/prometheus/promauto"
)

var (
	httpRequestsTotal = promauto.NewCounterVec(prometheus.CounterOpts{
		Name: "barangay_http_requests_total",
		Help: "HTTP requests by method, path pattern, and status code.",
	}, []string{"method", "path", "status"})

	httpRequestDuration = promauto.NewHistogramVec(prometheus.HistogramOpts{
		Name:    "barangay_http_request_duration_seconds",
		Help:    "HTTP request latency by method and path pattern.",
		Buckets: prometheus.DefBuckets,
	}, []string{"method", "path"})

	submissionsTotal = promauto.NewCounterVec(prometheus.CounterOpts{
		Name: "barangay_submissions_total",
		Help: "Composite submissions by kind and outcome (completed, aborted, rejected, duplicate).",
	}, []string{"kind", "outcome"})

	linesDispensedTotal = promauto.NewCounterVec(prometheus.CounterOpts{
		Name: "barangay_lines_dispensed_total",
		Help: "Successfully dispensed lines by kind.",
	}, []string{"kind"})

	receiptsIssuedTotal = promauto.NewCounter(prometheus.CounterOpts{
		Name: "barangay_receipts_issued_total",
		Help: "Official receipts issued.",
	})

	expiredStockGauge = promauto.NewGaugeVec(prometheus.GaugeOpts{
		Name: "barangay_expired_stock_items",
		Help: "Inventory rows past expiry with stock remaining, by kind.",
	}, []string{"kind"})
)

// MetricsMiddleware records request counts and latency. Uses the chi
// route pattern rather than the raw URL so ids don't explode cardinality.
func MetricsMiddleware(next http.Handler) http.Handler {
	return http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		start := time.Now()
		ww := middleware.NewWrapResponseWriter(w, r.ProtoMajor)

		next.ServeHTTP(ww, r)

		pattern := chiRoutePattern(r)
		httpRequestsTotal.WithLabelValues(
			r.Method, pattern, strconv.Itoa(ww.Status())).Inc()
		httpRequestDuration.WithLabelValues(
			r.Method, pattern).Observe(time.Since(start).Seconds())
	})
}

func chiRoutePattern(r *http.Request) string {
	if rctx := chi.RouteContext(r.Context()); rctx != nil {
		if p := rctx.RoutePattern(); p != "" {
			return p
		}
	}
	return r.URL.Path
}
