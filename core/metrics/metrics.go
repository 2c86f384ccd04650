// Package metrics exposes the bot's Prometheus collectors and the ops HTTP endpoint.
package metrics

import (
	"sync/atomic"
	"time"

	"github.com/prometheus/client_golang/prometheus"
	"github.com/prometheus/client_golang/prometheus/collectors"
)

const namespace = "furnibot"

// Metrics groups the collectors updated by the Telegram runtime and services.
// All methods are safe on a nil receiver.
type Metrics struct {
	registry *prometheus.Registry

	updates            *prometheus.CounterVec
	handlerDuration    *prometheus.HistogramVec
	rateLimited        prometheus.Counter
	panics             prometheus.Counter
	sendFailures       *prometheus.CounterVec
	leadsCreated       *prometheus.CounterVec
	leadFailures       *prometheus.CounterVec
	validationFailures *prometheus.CounterVec
	formsStarted       *prometheus.CounterVec
	adminDenied        prometheus.Counter
}

// New registers a fresh collector set on its own registry.
func New() *Metrics {
	reg := prometheus.NewRegistry()
	m := &Metrics{
		registry: reg,
		updates: prometheus.NewCounterVec(prometheus.CounterOpts{
			Namespace: namespace,
			Name:      "updates_total",
			Help:      "Telegram updates received, by kind.",
		}, []string{"kind"}),
		handlerDuration: prometheus.NewHistogramVec(prometheus.HistogramOpts{
			Namespace: namespace,
			Name:      "handler_duration_seconds",
			Help:      "Handler latency, by handler and status.",
			Buckets:   []float64{0.01, 0.05, 0.1, 0.25, 0.5, 1, 2.5, 5},
		}, []string{"handler", "status"}),
		rateLimited: prometheus.NewCounter(prometheus.CounterOpts{
			Namespace: namespace,
			Name:      "rate_limited_total",
			Help:      "Updates dropped by the per-user rate limit.",
		}),
		panics: prometheus.NewCounter(prometheus.CounterOpts{
			Namespace: namespace,
			Name:      "handler_panics_total",
			Help:      "Panics recovered in handlers.",
		}),
		sendFailures: prometheus.NewCounterVec(prometheus.CounterOpts{
			Namespace: namespace,
			Name:      "send_failures_total",
			Help:      "Outbound Telegram calls that failed after retries, by error kind.",
		}, []string{"kind"}),
		leadsCreated: prometheus.NewCounterVec(prometheus.CounterOpts{
			Namespace: namespace,
			Name:      "leads_created_total",
			Help:      "Leads persisted by completed forms, by interest type.",
		}, []string{"interest_type"}),
		leadFailures: prometheus.NewCounterVec(prometheus.CounterOpts{
			Namespace: namespace,
			Name:      "lead_persist_failures_total",
			Help:      "Completed forms whose lead could not be stored, by interest type.",
		}, []string{"interest_type"}),
		validationFailures: prometheus.NewCounterVec(prometheus.CounterOpts{
			Namespace: namespace,
			Name:      "form_validation_failures_total",
			Help:      "Rejected form inputs, by form and state.",
		}, []string{"form", "state"}),
		formsStarted: prometheus.NewCounterVec(prometheus.CounterOpts{
			Namespace: namespace,
			Name:      "forms_started_total",
			Help:      "Conversations entered, by form.",
		}, []string{"form"}),
		adminDenied: prometheus.NewCounter(prometheus.CounterOpts{
			Namespace: namespace,
			Name:      "admin_denied_total",
			Help:      "Admin actions rejected by the access gate.",
		}),
	}
	reg.MustRegister(
		collectors.NewGoCollector(),
		collectors.NewProcessCollector(collectors.ProcessCollectorOpts{}),
		m.updates, m.handlerDuration, m.rateLimited, m.panics, m.sendFailures,
		m.leadsCreated, m.leadFailures, m.validationFailures, m.formsStarted, m.adminDenied,
	)
	return m
}

var current atomic.Pointer[Metrics]

// Set installs m as the process-wide collector set used by middleware.
func Set(m *Metrics) { current.Store(m) }

// Get returns the installed collector set or nil.
func Get() *Metrics { return current.Load() }

// Registry returns the underlying registry for exposition.
func (m *Metrics) Registry() *prometheus.Registry {
	if m == nil {
		return nil
	}
	return m.registry
}

func (m *Metrics) Update(kind string) {
	if m != nil {
		m.updates.WithLabelValues(kind).Inc()
	}
}

func (m *Metrics) ObserveHandler(handler, status string, took time.Duration) {
	if m != nil {
		m.handlerDuration.WithLabelValues(handler, status).Observe(took.Seconds())
	}
}

func (m *Metrics) RateLimited() {
	if m != nil {
		m.rateLimited.Inc()
	}
}

func (m *Metrics) Panic() {
	if m != nil {
		m.panics.Inc()
	}
}

func (m *Metrics) SendFailed(kind string) {
	if m != nil {
		m.sendFailures.WithLabelValues(kind).Inc()
	}
}

func (m *Metrics) LeadCreated(interestType string) {
	if m != nil {
		m.leadsCreated.WithLabelValues(interestType).Inc()
	}
}

func (m *Metrics) LeadFailed(interestType string) {
	if m != nil {
		m.leadFailures.WithLabelValues(interestType).Inc()
	}
}

func (m *Metrics) ValidationFailed(form, state string) {
	if m != nil {
		m.validationFailures.WithLabelValues(form, state).Inc()
	}
}

func (m *Metrics) FormStarted(form string) {
	if m != nil {
		m.formsStarted.WithLabelValues(form).Inc()
	}
}

func (m *Metrics) AdminDenied() {
	if m != nil {
		m.adminDenied.Inc()
	}
}
