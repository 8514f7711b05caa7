package metrics

import (
	"net/http"
	"net/http/httptest"
	"strings"
	"testing"
	"time"

	"github.com/prometheus/client_golang/prometheus/testutil"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestCollectorsRecord(t *testing.T) {
	m := New()

	m.Checkout("created")
	m.Checkout("created")
	m.PriceMismatch()
	m.Delivery("delivered")
	m.Email("delivery", "sent")
	m.CronItem("drip", "sent")
	m.Assessment("priority", "ok")
	m.Transition("paid")
	m.PipelineOrder("advanced")
	m.ObserveRequest(http.MethodGet, "/healthz", http.StatusOK, 5*time.Millisecond)

	assert.Equal(t, 2.0, testutil.ToFloat64(m.checkouts.WithLabelValues("created")))
	assert.Equal(t, 1.0, testutil.ToFloat64(m.priceMismatch))
	assert.Equal(t, 1.0, testutil.ToFloat64(m.emails.WithLabelValues("delivery", "sent")))
	assert.Equal(t, 1, testutil.CollectAndCount(m.httpDuration))
}

func TestHandlerExposesRegistry(t *testing.T) {
	m := New()
	m.Delivery("delivered")

	rec := httptest.NewRecorder()
	m.Handler().ServeHTTP(rec, httptest.NewRequest(http.MethodGet, "/metrics", nil))

	require.Equal(t, http.StatusOK, rec.Code)
	assert.True(t, strings.Contains(rec.Body.String(), "melodiemacher_deliveries_total"))
}

func TestNilMetricsIsSafe(t *testing.T) {
	var m *Metrics
	assert.NotPanics(t, func() {
		m.Checkout("x")
		m.PriceMismatch()
		m.Delivery("x")
		m.Transition("x")
		m.Assessment("x", "y")
		m.Email("x", "y")
		m.CronItem("x", "y")
		m.PipelineOrder("x")
		m.ObserveRequest("GET", "/", 200, time.Second)
	})
	assert.Nil(t, m.Registry())

	rec := httptest.NewRecorder()
	m.Handler().ServeHTTP(rec, httptest.NewRequest(http.MethodGet, "/metrics", nil))
	assert.Equal(t, http.StatusNotFound, rec.Code)
}
