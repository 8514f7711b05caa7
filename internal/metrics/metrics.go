// Package metrics exposes Prometheus collectors for the storefront.
package metrics

import (
	"net/http"
	"strconv"
	"time"

	"github.com/prometheus/client_golang/prometheus"
	"github.com/prometheus/client_golang/prometheus/collectors"
	"github.com/prometheus/client_golang/prometheus/promhttp"
)

const namespace = "melodiemacher"

// Metrics groups application collectors registered on a private registry.
// A nil *Metrics is valid and records nothing.
type Metrics struct {
	registry *prometheus.Registry

	httpDuration   *prometheus.HistogramVec
	checkouts      *prometheus.CounterVec
	priceMismatch  prometheus.Counter
	deliveries     *prometheus.CounterVec
	transitions    *prometheus.CounterVec
	assessments    *prometheus.CounterVec
	emails         *prometheus.CounterVec
	cronProcessed  *prometheus.CounterVec
	pipelineOrders *prometheus.CounterVec
}

// New builds and registers all collectors.
func New() *Metrics {
	reg := prometheus.NewRegistry()
	m := &Metrics{
		registry: reg,
		httpDuration: prometheus.NewHistogramVec(prometheus.HistogramOpts{
			Namespace: namespace,
			Name:      "http_request_duration_seconds",
			Help:      "HTTP request latency by route and status.",
			Buckets:   prometheus.DefBuckets,
		}, []string{"method", "route", "status"}),
		checkouts: prometheus.NewCounterVec(prometheus.CounterOpts{
			Namespace: namespace,
			Name:      "checkouts_total",
			Help:      "Checkout attempts by outcome.",
		}, []string{"outcome"}),
		priceMismatch: prometheus.NewCounter(prometheus.CounterOpts{
			Namespace: namespace,
			Name:      "checkout_price_mismatches_total",
			Help:      "Checkouts rejected because the client total diverged.",
		}),
		deliveries: prometheus.NewCounterVec(prometheus.CounterOpts{
			Namespace: namespace,
			Name:      "deliveries_total",
			Help:      "Delivery attempts by outcome.",
		}, []string{"outcome"}),
		transitions: prometheus.NewCounterVec(prometheus.CounterOpts{
			Namespace: namespace,
			Name:      "order_transitions_total",
			Help:      "Applied order status transitions.",
		}, []string{"to"}),
		assessments: prometheus.NewCounterVec(prometheus.CounterOpts{
			Namespace: namespace,
			Name:      "ai_assessments_total",
			Help:      "AI assistant calls by kind and result.",
		}, []string{"kind", "result"}),
		emails: prometheus.NewCounterVec(prometheus.CounterOpts{
			Namespace: namespace,
			Name:      "emails_total",
			Help:      "Emails by template and result.",
		}, []string{"template", "result"}),
		cronProcessed: prometheus.NewCounterVec(prometheus.CounterOpts{
			Namespace: namespace,
			Name:      "cron_items_total",
			Help:      "Items handled by cron jobs.",
		}, []string{"job", "result"}),
		pipelineOrders: prometheus.NewCounterVec(prometheus.CounterOpts{
			Namespace: namespace,
			Name:      "pipeline_orders_total",
			Help:      "Orders handled by the production pipeline.",
		}, []string{"result"}),
	}

	reg.MustRegister(
		collectors.NewGoCollector(),
		collectors.NewProcessCollector(collectors.ProcessCollectorOpts{}),
		m.httpDuration,
		m.checkouts,
		m.priceMismatch,
		m.deliveries,
		m.transitions,
		m.assessments,
		m.emails,
		m.cronProcessed,
		m.pipelineOrders,
	)
	return m
}

// Handler serves the registry in the Prometheus exposition format.
func (m *Metrics) Handler() http.Handler {
	if m == nil {
		return http.NotFoundHandler()
	}
	return promhttp.HandlerFor(m.registry, promhttp.HandlerOpts{Registry: m.registry})
}

// Registry returns the underlying registry.
func (m *Metrics) Registry() *prometheus.Registry {
	if m == nil {
		return nil
	}
	return m.registry
}

func (m *Metrics) ObserveRequest(method, route string, status int, elapsed time.Duration) {
	if m == nil {
		return
	}
	m.httpDuration.WithLabelValues(method, route, strconv.Itoa(status)).Observe(elapsed.Seconds())
}

func (m *Metrics) Checkout(outcome string) {
	if m == nil {
		return
	}
	m.checkouts.WithLabelValues(outcome).Inc()
}

func (m *Metrics) PriceMismatch() {
	if m == nil {
		return
	}
	m.priceMismatch.Inc()
}

func (m *Metrics) Delivery(outcome string) {
	if m == nil {
		return
	}
	m.deliveries.WithLabelValues(outcome).Inc()
}

func (m *Metrics) Transition(to string) {
	if m == nil {
		return
	}
	m.transitions.WithLabelValues(to).Inc()
}

func (m *Metrics) Assessment(kind, result string) {
	if m == nil {
		return
	}
	m.assessments.WithLabelValues(kind, result).Inc()
}

func (m *Metrics) Email(template, result string) {
	if m == nil {
		return
	}
	m.emails.WithLabelValues(template, result).Inc()
}

func (m *Metrics) CronItem(job, result string) {
	if m == nil {
		return
	}
	m.cronProcessed.WithLabelValues(job, result).Inc()
}

func (m *Metrics) PipelineOrder(result string) {
	if m == nil {
		return
	}
	m.pipelineOrders.WithLabelValues(result).Inc()
}
