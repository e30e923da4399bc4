package auth

import (
	"github.com/prometheus/client_golang/prometheus"
)

// Metrics contains the Prometheus counters for the authentication pipeline
type Metrics struct {
	LoginsTotal         *prometheus.CounterVec
	GateRejectionsTotal *prometheus.CounterVec
	ResetRequestsTotal  *prometheus.CounterVec
	RegistrationsTotal  *prometheus.CounterVec
}

// NewMetrics creates and registers the auth metrics.
func NewMetrics(reg prometheus.Registerer) *Metrics {
	m := &Metrics{
		LoginsTotal: prometheus.NewCounterVec(
			prometheus.CounterOpts{
				Name: "users_backend_logins_total",
				Help: "Total number of login attempts by outcome",
			},
			[]string{"outcome"},
		),
		GateRejectionsTotal: prometheus.NewCounterVec(
			prometheus.CounterOpts{
				Name: "users_backend_gate_rejections_total",
				Help: "Total number of requests rejected by the auth gates by gate and reason",
			},
			[]string{"gate", "reason"},
		),
		ResetRequestsTotal: prometheus.NewCounterVec(
			prometheus.CounterOpts{
				Name: "users_backend_password_reset_requests_total",
				Help: "Total number of password reset requests by outcome",
			},
			[]string{"outcome"},
		),
		RegistrationsTotal: prometheus.NewCounterVec(
			prometheus.CounterOpts{
				Name: "users_backend_registrations_total",
				Help: "Total number of registrations by role",
			},
			[]string{"role"},
		),
	}

	reg.MustRegister(m.LoginsTotal)
	reg.MustRegister(m.GateRejectionsTotal)
	reg.MustRegister(m.ResetRequestsTotal)
	reg.MustRegister(m.RegistrationsTotal)

	return m
}

// nil-safe recorders so tests and tools can run without a registry

func (m *Metrics) login(outcome string) {
	if m != nil {
		m.LoginsTotal.WithLabelValues(outcome).Inc()
	}
}

func (m *Metrics) rejected(gate, reason string) {
	if m != nil {
		m.GateRejectionsTotal.WithLabelValues(gate, reason).Inc()
	}
}

func (m *Metrics) resetRequested(outcome string) {
	if m != nil {
		m.ResetRequestsTotal.WithLabelValues(outcome).Inc()
	}
}

func (m *Metrics) registered(role string) {
	if m != nil {
		m.RegistrationsTotal.WithLabelValues(role).Inc()
	}
}
