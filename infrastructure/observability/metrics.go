/*
Package observability owns the Prometheus collectors and the tracer used by
the service. Application code sees them only through small interfaces.
*/
package observability

import (
	"net/http"
	"strconv"
	"time"

	apperrors "ecommerce/pkg/errors"

	"github.com/prometheus/client_golang/prometheus"
	"github.com/prometheus/client_golang/prometheus/promhttp"
)

const namespace = "ecommerce"

// Metrics groups every collector of the service.
type Metrics struct {
	workflowOps      *prometheus.CounterVec
	workflowLatency  *prometheus.HistogramVec
	ledgerEntries    *prometheus.CounterVec
	ledgerRejections *prometheus.CounterVec
	httpRequests     *prometheus.CounterVec
	httpLatency      *prometheus.HistogramVec
	outboxPublished  *prometheus.CounterVec
	outboxFailed     *prometheus.CounterVec
	gatherer         prometheus.Gatherer
}

// NewMetrics registers all collectors on reg. Tests pass a fresh
// prometheus.NewRegistry(); the server passes prometheus.DefaultRegisterer.
func NewMetrics(reg prometheus.Registerer, gatherer prometheus.Gatherer) *Metrics {
	m := &Metrics{
		workflowOps: prometheus.NewCounterVec(prometheus.CounterOpts{
			Namespace: namespace, Subsystem: "workflow", Name: "operations_total",
			Help: "Order workflow operations by outcome code.",
		}, []string{"operation", "outcome"}),
		workflowLatency: prometheus.NewHistogramVec(prometheus.HistogramOpts{
			Namespace: namespace, Subsystem: "workflow", Name: "operation_duration_seconds",
			Help:    "Order workflow operation latency.",
			Buckets: prometheus.DefBuckets,
		}, []string{"operation"}),
		ledgerEntries: prometheus.NewCounterVec(prometheus.CounterOpts{
			Namespace: namespace, Name: "stock_ledger_entries_total",
			Help: "Stock ledger entries applied, by change type.",
		}, []string{"change_type"}),
		ledgerRejections: prometheus.NewCounterVec(prometheus.CounterOpts{
			Namespace: namespace, Name: "stock_ledger_rejections_total",
			Help: "Stock ledger entries rejected, by reason.",
		}, []string{"reason"}),
		httpRequests: prometheus.NewCounterVec(prometheus.CounterOpts{
			Namespace: namespace, Subsystem: "http", Name: "requests_total",
			Help: "HTTP requests by route and status.",
		}, []string{"method", "route", "status"}),
		httpLatency: prometheus.NewHistogramVec(prometheus.HistogramOpts{
			Namespace: namespace, Subsystem: "http", Name: "request_duration_seconds",
			Help:    "HTTP request latency by route.",
			Buckets: prometheus.DefBuckets,
		}, []string{"method", "route"}),
		outboxPublished: prometheus.NewCounterVec(prometheus.CounterOpts{
			Namespace: namespace, Subsystem: "outbox", Name: "published_total",
			Help: "Outbox events published, by event type.",
		}, []string{"event_type"}),
		outboxFailed: prometheus.NewCounterVec(prometheus.CounterOpts{
			Namespace: namespace, Subsystem: "outbox", Name: "failed_total",
			Help: "Outbox publish failures, by event type.",
		}, []string{"event_type"}),
		gatherer: gatherer,
	}
	reg.MustRegister(
		m.workflowOps, m.workflowLatency,
		m.ledgerEntries, m.ledgerRejections,
		m.httpRequests, m.httpLatency,
		m.outboxPublished, m.outboxFailed,
	)
	return m
}

// NewDefaultMetrics registers on the process-wide registry.
func NewDefaultMetrics() *Metrics {
	return NewMetrics(prometheus.DefaultRegisterer, prometheus.DefaultGatherer)
}

// ObserveWorkflow records one workflow operation. The outcome label is the
// API error code, or "ok".
func (m *Metrics) ObserveWorkflow(operation string, err error, elapsed time.Duration) {
	m.workflowOps.WithLabelValues(operation, outcome(err)).Inc()
	m.workflowLatency.WithLabelValues(operation).Observe(elapsed.Seconds())
}

func (m *Metrics) LedgerEntry(changeType string) {
	m.ledgerEntries.WithLabelValues(changeType).Inc()
}

func (m *Metrics) LedgerRejection(reason string) {
	m.ledgerRejections.WithLabelValues(reason).Inc()
}

// ObserveHTTP route must be the matched route template, not the raw path.
func (m *Metrics) ObserveHTTP(method, route string, status int, elapsed time.Duration) {
	m.httpRequests.WithLabelValues(method, route, strconv.Itoa(status)).Inc()
	m.httpLatency.WithLabelValues(method, route).Observe(elapsed.Seconds())
}

func (m *Metrics) OutboxPublished(eventType string) {
	m.outboxPublished.WithLabelValues(eventType).Inc()
}

func (m *Metrics) OutboxFailed(eventType string) {
	m.outboxFailed.WithLabelValues(eventType).Inc()
}

// Handler serves the scrape endpoint for this registry.
func (m *Metrics) Handler() http.Handler {
	return promhttp.HandlerFor(m.gatherer, promhttp.HandlerOpts{})
}

func outcome(err error) string {
	if err == nil {
		return "ok"
	}
	return string(apperrors.FromDomainError(err).Code)
}
