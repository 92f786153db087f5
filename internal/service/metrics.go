package service

import (
	"net/http"
	"time"

	kerrors "github.com/go-kratos/kratos/v2/errors"
	"github.com/prometheus/client_golang/prometheus"
	"github.com/prometheus/client_golang/prometheus/collectors"
	"github.com/prometheus/client_golang/prometheus/promhttp"
)

const outcomeSuccess = "success"

// Metrics holds the service's prometheus collectors on a private registry.
type Metrics struct {
	registry        *prometheus.Registry
	purchases       *prometheus.CounterVec
	purchaseLatency prometheus.Histogram
	notifications   *prometheus.CounterVec
}

// NewMetrics registers the purchase collectors plus the Go and process
// collectors.
func NewMetrics() *Metrics {
	m := &Metrics{
		registry: prometheus.NewRegistry(),
		purchases: prometheus.NewCounterVec(prometheus.CounterOpts{
			Namespace: "purchase",
			Name:      "requests_total",
			Help:      "Subscription purchase requests by outcome.",
		}, []string{"outcome"}),
		purchaseLatency: prometheus.NewHistogram(prometheus.HistogramOpts{
			Namespace: "purchase",
			Name:      "request_duration_seconds",
			Help:      "Subscription purchase latency, provider call included.",
			Buckets:   prometheus.DefBuckets,
		}),
		notifications: prometheus.NewCounterVec(prometheus.CounterOpts{
			Namespace: "purchase",
			Name:      "payment_notifications_total",
			Help:      "Payment notifications by source and outcome.",
		}, []string{"source", "outcome"}),
	}
	m.registry.MustRegister(
		m.purchases,
		m.purchaseLatency,
		m.notifications,
		collectors.NewGoCollector(),
		collectors.NewProcessCollector(collectors.ProcessCollectorOpts{}),
	)
	return m
}

// Registry exposes the private registry, mainly for tests.
func (m *Metrics) Registry() *prometheus.Registry { return m.registry }

// Handler serves the registry in the prometheus text format.
func (m *Metrics) Handler() http.Handler {
	return promhttp.HandlerFor(m.registry, promhttp.HandlerOpts{})
}

func (m *Metrics) ObservePurchase(outcome string, elapsed time.Duration) {
	m.purchases.WithLabelValues(outcome).Inc()
	m.purchaseLatency.Observe(elapsed.Seconds())
}

func (m *Metrics) ObserveNotification(source, outcome string) {
	m.notifications.WithLabelValues(source, outcome).Inc()
}

// outcome labels err by its kratos reason.
func outcome(err error) string {
	if err == nil {
		return outcomeSuccess
	}
	if reason := kerrors.Reason(err); reason != "" {
		return reason
	}
	return "UNKNOWN"
}
