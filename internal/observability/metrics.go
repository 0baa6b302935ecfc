package observability

import (
	"strconv"
	"time"

	"github.com/prometheus/client_golang/prometheus"
	"github.com/prometheus/client_golang/prometheus/promauto"
)

// Metrics holds the Prometheus collectors of the service. A nil *Metrics is a no-op.
type Metrics struct {
	requests      *prometheus.CounterVec
	duration      *prometheus.HistogramVec
	errors        *prometheus.CounterVec
	mutations     *prometheus.CounterVec
	events        *prometheus.CounterVec
	notifications *prometheus.CounterVec
	reports       *prometheus.CounterVec
	cache         *prometheus.CounterVec
}

// NewMetrics registers collectors with reg. Tests pass a fresh prometheus.NewRegistry().
func NewMetrics(reg prometheus.Registerer) *Metrics {
	factory := promauto.With(reg)
	return &Metrics{
		requests: factory.NewCounterVec(prometheus.CounterOpts{
			Name: "helpdesk_http_requests_total",
			Help: "HTTP requests by route and status.",
		}, []string{"method", "path", "status"}),
		duration: factory.NewHistogramVec(prometheus.HistogramOpts{
			Name:    "helpdesk_http_request_duration_seconds",
			Help:    "HTTP request latency by route.",
			Buckets: prometheus.DefBuckets,
		}, []string{"method", "path"}),
		errors: factory.NewCounterVec(prometheus.CounterOpts{
			Name: "helpdesk_http_errors_total",
			Help: "Error responses by route and error code.",
		}, []string{"method", "path", "code"}),
		mutations: factory.NewCounterVec(prometheus.CounterOpts{
			Name: "helpdesk_ticket_mutations_total",
			Help: "Successful ticket writes by operation.",
		}, []string{"operation"}),
		events: factory.NewCounterVec(prometheus.CounterOpts{
			Name: "helpdesk_events_total",
			Help: "Domain events by type and outcome.",
		}, []string{"type", "outcome"}),
		notifications: factory.NewCounterVec(prometheus.CounterOpts{
			Name: "helpdesk_notifications_total",
			Help: "Outbound notifications by channel and outcome.",
		}, []string{"channel", "outcome"}),
		reports: factory.NewCounterVec(prometheus.CounterOpts{
			Name: "helpdesk_reports_total",
			Help: "Rendered PDF reports by kind and cache result.",
		}, []string{"kind", "cache"}),
		cache: factory.NewCounterVec(prometheus.CounterOpts{
			Name: "helpdesk_catalog_cache_lookups_total",
			Help: "Department and reason lookups by result (hit or miss).",
		}, []string{"kind", "result"}),
	}
}

// RecordRequest increments counters for requests.
func (m *Metrics) RecordRequest(path, method string, status int, duration time.Duration) {
	if m == nil {
		return
	}
	m.requests.WithLabelValues(method, path, strconv.Itoa(status)).Inc()
	m.duration.WithLabelValues(method, path).Observe(duration.Seconds())
}

// RecordError increments error counters.
func (m *Metrics) RecordError(path, method, code string) {
	if m == nil {
		return
	}
	m.errors.WithLabelValues(method, path, code).Inc()
}

// RecordMutation counts a persisted ticket change.
func (m *Metrics) RecordMutation(operation string) {
	if m == nil {
		return
	}
	m.mutations.WithLabelValues(operation).Inc()
}

// RecordEvent counts an event outcome such as published, delivered or dead.
func (m *Metrics) RecordEvent(eventType, outcome string) {
	if m == nil {
		return
	}
	m.events.WithLabelValues(eventType, outcome).Inc()
}

// RecordNotification counts a delivery attempt.
func (m *Metrics) RecordNotification(channel, outcome string) {
	if m == nil {
		return
	}
	m.notifications.WithLabelValues(channel, outcome).Inc()
}

// RecordReport counts a rendered or cached report.
func (m *Metrics) RecordReport(kind, cache string) {
	if m == nil {
		return
	}
	m.reports.WithLabelValues(kind, cache).Inc()
}

// RecordCacheLookup counts a catalog cache hit or miss.
func (m *Metrics) RecordCacheLookup(kind string, hit bool) {
	if m == nil {
		return
	}
	result := "miss"
	if hit {
		result = "hit"
	}
	m.cache.WithLabelValues(kind, result).Inc()
}
