package observability

import (
	"testing"
	"time"

	"github.com/prometheus/client_golang/prometheus"
	"github.com/prometheus/client_golang/prometheus/testutil"
	"github.com/stretchr/testify/assert"
)

func TestMetricsCounters(t *testing.T) {
	m := NewMetrics(prometheus.NewRegistry())
	m.RecordRequest("/tickets/", "GET", 200, 15*time.Millisecond)
	m.RecordRequest("/tickets/", "GET", 200, 5*time.Millisecond)
	m.RecordNotification("webhook", "failed")

	assert.Equal(t, 2.0, testutil.ToFloat64(m.requests.WithLabelValues("GET", "/tickets/", "200")))
	assert.Equal(t, 1.0, testutil.ToFloat64(m.notifications.WithLabelValues("webhook", "failed")))
}

func TestCacheLookupCounters(t *testing.T) {
	m := NewMetrics(prometheus.NewRegistry())
	m.RecordCacheLookup("department", false)
	m.RecordCacheLookup("department", true)
	m.RecordCacheLookup("department", true)

	assert.Equal(t, 2.0, testutil.ToFloat64(m.cache.WithLabelValues("department", "hit")))
	assert.Equal(t, 1.0, testutil.ToFloat64(m.cache.WithLabelValues("department", "miss")))
	assert.Equal(t, 0.0, testutil.ToFloat64(m.cache.WithLabelValues("reason", "hit")))
}

func TestNilMetricsIsNoop(t *testing.T) {
	var m *Metrics
	assert.NotPanics(t, func() {
		m.RecordRequest("/", "GET", 200, time.Millisecond)
		m.RecordError("/", "GET", "X")
		m.RecordMutation("create")
		m.RecordEvent("ticket_created", "published")
		m.RecordNotification("log", "sent")
		m.RecordReport("stats", "miss")
		m.RecordCacheLookup("reason", true)
	})
}
