// Package metrics holds the Prometheus collectors of the service.
package metrics

import (
	"github.com/prometheus/client_golang/prometheus"
)

type Metrics struct {
	// VisitTransitions counts applied lifecycle transitions by target status and trigger.
	VisitTransitions *prometheus.CounterVec

	// SweepRuns counts sweep executions by outcome (ok, skipped, error).
	SweepRuns *prometheus.CounterVec

	// SweepVisits counts visits touched by the sweep per rule.
	SweepVisits *prometheus.CounterVec

	// NotificationsSent counts notification deliveries by type and status.
	NotificationsSent *prometheus.CounterVec

	HTTPRequests *prometheus.CounterVec
	HTTPDuration *prometheus.HistogramVec
}

// New creates the collectors and registers them on reg.
func New(namespace string, reg prometheus.Registerer) *Metrics {
	m := &Metrics{
		VisitTransitions: prometheus.NewCounterVec(
			prometheus.CounterOpts{
				Namespace: namespace,
				Name:      "visit_transitions_total",
				Help:      "Total number of visit status transitions",
			},
			[]string{"to", "trigger"},
		),

		SweepRuns: prometheus.NewCounterVec(
			prometheus.CounterOpts{
				Namespace: namespace,
				Name:      "sweep_runs_total",
				Help:      "Total number of missed-visit sweep runs",
			},
			[]string{"outcome"},
		),

		SweepVisits: prometheus.NewCounterVec(
			prometheus.CounterOpts{
				Namespace: namespace,
				Name:      "sweep_visits_total",
				Help:      "Total number of visits processed by the sweep",
			},
			[]string{"rule"},
		),

		NotificationsSent: prometheus.NewCounterVec(
			prometheus.CounterOpts{
				Namespace: namespace,
				Name:      "notifications_total",
				Help:      "Total number of notifications dispatched",
			},
			[]string{"type", "status"},
		),

		HTTPRequests: prometheus.NewCounterVec(
			prometheus.CounterOpts{
				Namespace: namespace,
				Name:      "http_requests_total",
				Help:      "Total number of HTTP requests",
			},
			[]string{"method", "route", "status"},
		),

		HTTPDuration: prometheus.NewHistogramVec(
			prometheus.HistogramOpts{
				Namespace: namespace,
				Name:      "http_request_duration_seconds",
				Help:      "HTTP request latency",
				Buckets:   []float64{.005, .01, .05, .1, .25, .5, 1, 2.5, 5},
			},
			[]string{"method", "route"},
		),
	}

	if reg != nil {
		reg.MustRegister(
			m.VisitTransitions,
			m.SweepRuns,
			m.SweepVisits,
			m.NotificationsSent,
			m.HTTPRequests,
			m.HTTPDuration,
		)
	}

	return m
}

// NewNop returns unregistered collectors, for tests.
func NewNop() *Metrics {
	return New("test", nil)
}

func (m *Metrics) IncTransition(to, trigger string) {
	m.VisitTransitions.WithLabelValues(to, trigger).Inc()
}

func (m *Metrics) IncSweepRun(outcome string) {
	m.SweepRuns.WithLabelValues(outcome).Inc()
}

func (m *Metrics) AddSweepVisits(rule string, n int) {
	if n > 0 {
		m.SweepVisits.WithLabelValues(rule).Add(float64(n))
	}
}

func (m *Metrics) IncNotification(typ, status string) {
	m.NotificationsSent.WithLabelValues(typ, status).Inc()
}

func (m *Metrics) ObserveRequest(method, route, status string, seconds float64) {
	m.HTTPRequests.WithLabelValues(method, route, status).Inc()
	m.HTTPDuration.WithLabelValues(method, route).Observe(seconds)
}
