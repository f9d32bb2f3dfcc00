// Package telemetry provides application-level observability for the FacilityHub backend.
//
// # Prometheus Metrics Endpoint
//
// All metrics are registered against the default Prometheus registry and are
// automatically available on the side-channel HTTP server started by main.go:
//
//	GET http(s)://<host>:<FH_TELEMETRY_METRICS_PROMETHEUS_PORT>/metrics
//
// Default port: 9090. The endpoint returns data in the Prometheus text
// exposition format and is intended to be scraped every 15–60 seconds. It is
// NOT served by the Gin router, so it never competes with API traffic and is
// absent from the public API surface.
//
// # Metric Groups
//
//   - HTTP request counters and latency histograms (labelled by route template, not raw URL)
//   - Inspection lifecycle counters (completions by outcome, approvals, rejections)
//   - Follow-up artifact counters (jobs and recommendations created)
//   - Recurring generation pass duration, created count, and per-schedule error counter
//   - Notification delivery counters (sent / failed by event kind)
//   - Database connection pool gauge (polled every 30 s)
//
// # Label Cardinality
//
// HTTP metrics use c.FullPath() (route template such as
// /api/v1/inspections/:id/complete) rather than the raw URL to prevent
// unbounded label cardinality from user-supplied path segments.
package telemetry

import (
	"database/sql"
	"log/slog"
	"time"

	"github.com/prometheus/client_golang/prometheus"
	"github.com/prometheus/client_golang/prometheus/promauto"
)

// HTTP metrics — labelled by method, route template, and status code.
var (
	HTTPRequestsTotal = promauto.NewCounterVec(
		prometheus.CounterOpts{
			Name: "http_requests_total",
			Help: "Total number of HTTP requests processed, by method, route template, and status code.",
		},
		[]string{"method", "path", "status"},
	)

	HTTPRequestDuration = promauto.NewHistogramVec(
		prometheus.HistogramOpts{
			Name:    "http_request_duration_seconds",
			Help:    "Histogram of HTTP request latencies, by method and route template.",
			Buckets: []float64{0.005, 0.01, 0.025, 0.05, 0.1, 0.25, 0.5, 1, 2.5, 5, 10, 30},
		},
		[]string{"method", "path"},
	)
)

// Inspection lifecycle metrics — recorded by the lifecycle service after a
// status transition commits.
//
// InspectionCompletionsTotal is labelled by resulting status
// ("COMPLETED" or "PENDING_APPROVAL") so dashboards can separate
// self-approved manager completions from technician submissions.
var (
	InspectionCompletionsTotal = promauto.NewCounterVec(
		prometheus.CounterOpts{
			Name: "inspection_completions_total",
			Help: "Total number of committed inspection completions, by resulting status.",
		},
		[]string{"status"},
	)

	InspectionApprovalsTotal = promauto.NewCounter(
		prometheus.CounterOpts{
			Name: "inspection_approvals_total",
			Help: "Total number of inspections approved from PENDING_APPROVAL.",
		},
	)

	InspectionRejectionsTotal = promauto.NewCounter(
		prometheus.CounterOpts{
			Name: "inspection_rejections_total",
			Help: "Total number of inspections rejected back to IN_PROGRESS.",
		},
	)

	FollowUpJobsCreatedTotal = promauto.NewCounter(
		prometheus.CounterOpts{
			Name: "followup_jobs_created_total",
			Help: "Total number of follow-up jobs created from parsed findings.",
		},
	)

	RecommendationsCreatedTotal = promauto.NewCounter(
		prometheus.CounterOpts{
			Name: "recommendations_created_total",
			Help: "Total number of recommendations created from failed checklist items.",
		},
	)
)

// Recurring generation metrics — recorded by the recurring inspection
// generator background job. An alert on
// increase(recurring_generation_errors_total[1d]) > 0 catches schedules that
// repeatedly fail to materialize.
var (
	RecurringGenerationDuration = promauto.NewHistogram(
		prometheus.HistogramOpts{
			Name:    "recurring_generation_duration_seconds",
			Help:    "Duration of a single recurring inspection generation pass.",
			Buckets: prometheus.DefBuckets,
		},
	)

	RecurringInspectionsGeneratedTotal = promauto.NewCounter(
		prometheus.CounterOpts{
			Name: "recurring_inspections_generated_total",
			Help: "Total number of inspections materialized from recurring schedules.",
		},
	)

	RecurringGenerationErrorsTotal = promauto.NewCounterVec(
		prometheus.CounterOpts{
			Name: "recurring_generation_errors_total",
			Help: "Total number of failed per-schedule generation attempts, by schedule ID.",
		},
		[]string{"schedule_id"},
	)
)

// Notification metrics — recorded by the notification dispatcher. Delivery is
// best-effort, so a rising failure counter is the only operational signal that
// a transport (e.g. SMTP) is misbehaving.
var (
	NotificationsSentTotal = promauto.NewCounterVec(
		prometheus.CounterOpts{
			Name: "notifications_sent_total",
			Help: "Total number of notifications successfully handed to the transport, by event kind.",
		},
		[]string{"event"},
	)

	NotificationFailuresTotal = promauto.NewCounterVec(
		prometheus.CounterOpts{
			Name: "notification_failures_total",
			Help: "Total number of failed notification deliveries, by event kind.",
		},
		[]string{"event"},
	)
)

// DBOpenConnections is a Gauge that tracks the number of open connections
// currently held by the sql.DB connection pool. It is sampled every 30 seconds
// by StartDBStatsCollector rather than per-request.
var DBOpenConnections = promauto.NewGauge(
	prometheus.GaugeOpts{
		Name: "db_open_connections",
		Help: "Current number of open database connections in the pool.",
	},
)

// StartDBStatsCollector launches a background goroutine that samples sql.DB
// connection pool statistics every 30 seconds and updates the
// DBOpenConnections gauge. The goroutine exits cleanly when the database
// becomes unreachable (db.Ping fails), which happens automatically when the
// application shuts down and defers db.Close().
//
// Call this once, immediately after db.Connect() succeeds in main.go.
func StartDBStatsCollector(db *sql.DB) {
	go func() {
		ticker := time.NewTicker(30 * time.Second)
		defer ticker.Stop()
		for range ticker.C {
			if err := db.Ping(); err != nil {
				slog.Warn("db stats collector: database unreachable, stopping collector", "error", err)
				return
			}
			DBOpenConnections.Set(float64(db.Stats().OpenConnections))
		}
	}()
}
