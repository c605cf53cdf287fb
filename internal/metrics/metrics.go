// Package metrics defines the prometheus collectors exposed on /metrics.
package metrics

import (
	"net/http"
	"time"

	"github.com/prometheus/client_golang/prometheus"
	"github.com/prometheus/client_golang/prometheus/promauto"
	"github.com/prometheus/client_golang/prometheus/promhttp"
)

var (
	APIRequestsTotal = promauto.NewCounterVec(
		prometheus.CounterOpts{
			Name: "egitim_http_requests_total",
			Help: "Total number of HTTP requests",
		},
		[]string{"method", "route", "status"},
	)

	APIRequestDuration = promauto.NewHistogramVec(
		prometheus.HistogramOpts{
			Name:    "egitim_http_request_duration_seconds",
			Help:    "Duration of HTTP requests in seconds",
			Buckets: prometheus.DefBuckets,
		},
		[]string{"method", "route"},
	)

	RateLimitDenied = promauto.NewCounterVec(
		prometheus.CounterOpts{
			Name: "egitim_rate_limit_denied_total",
			Help: "Requests rejected by the rate limiter",
		},
		[]string{"purpose"},
	)

	RateLimitEntries = promauto.NewGauge(
		prometheus.GaugeOpts{
			Name: "egitim_rate_limit_entries",
			Help: "Live rate limit windows after the last sweep",
		},
	)

	AuditWriteFailures = promauto.NewCounter(
		prometheus.CounterOpts{
			Name: "audit_write_failures_total",
			Help: "Audit entries that could not be persisted",
		},
	)

	AuditDropped = promauto.NewCounter(
		prometheus.CounterOpts{
			Name: "audit_dropped_total",
			Help: "Audit entries dropped because the queue was full",
		},
	)

	ImportRows = promauto.NewCounterVec(
		prometheus.CounterOpts{
			Name: "egitim_import_rows_total",
			Help: "Imported rows by entity and outcome",
		},
		[]string{"entity", "outcome"}, // outcome: created, updated, skipped, error
	)
)

// RecordAPIRequest records one served request.
func RecordAPIRequest(method, route, status string, duration time.Duration) {
	APIRequestsTotal.WithLabelValues(method, route, status).Inc()
	APIRequestDuration.WithLabelValues(method, route).Observe(duration.Seconds())
}

// RecordImport adds the counters of one import call.
func RecordImport(entity string, created, updated, skipped, failed int) {
	ImportRows.WithLabelValues(entity, "created").Add(float64(created))
	ImportRows.WithLabelValues(entity, "updated").Add(float64(updated))
	ImportRows.WithLabelValues(entity, "skipped").Add(float64(skipped))
	ImportRows.WithLabelValues(entity, "error").Add(float64(failed))
}

// Handler serves the default registry.
func Handler() http.Handler {
	return promhttp.Handler()
}
