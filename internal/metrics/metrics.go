// Package metrics exposes Prometheus collectors for the approval workflow
// steps: decision outcomes and latency, expirations, publishes, and benign
// conflict resolutions.
package metrics

import (
	"time"

	"github.com/prometheus/client_golang/prometheus"
)

// Metrics holds the Prometheus collectors recorded by the workflow steps.
// A nil *Metrics is a valid no-op receiver so steps can run unmetered in
// tests without guarding every call site.
type Metrics struct {
	decisions       *prometheus.CounterVec
	decisionLatency *prometheus.HistogramVec
	expirations     prometheus.Counter
	publishes       prometheus.Counter
	conflicts       *prometheus.CounterVec
}

// MustNew constructs a Metrics instance using the provided registerer.
// Supply a fresh registry in tests to avoid duplicate-registration panics.
// Registration errors panic, mirroring promauto semantics.
func MustNew(reg prometheus.Registerer) *Metrics {
	if reg == nil {
		reg = prometheus.DefaultRegisterer
	}

	m := &Metrics{
		decisions: prometheus.NewCounterVec(
			prometheus.CounterOpts{
				Namespace: "greenlight",
				Subsystem: "approvals",
				Name:      "decisions_total",
				Help:      "Review decisions resolved, by outcome.",
			},
			[]string{"outcome"},
		),
		decisionLatency: prometheus.NewHistogramVec(
			prometheus.HistogramOpts{
				Namespace: "greenlight",
				Subsystem: "approvals",
				Name:      "decision_latency_seconds",
				Help:      "Time from review request to decision, by outcome.",
				Buckets:   prometheus.ExponentialBuckets(1, 4, 12),
			},
			[]string{"outcome"},
		),
		expirations: prometheus.NewCounter(
			prometheus.CounterOpts{
				Namespace: "greenlight",
				Subsystem: "approvals",
				Name:      "expirations_total",
				Help:      "Pending decisions reclaimed by timeout.",
			},
		),
		publishes: prometheus.NewCounter(
			prometheus.CounterOpts{
				Namespace: "greenlight",
				Subsystem: "approvals",
				Name:      "publishes_total",
				Help:      "Items published.",
			},
		),
		conflicts: prometheus.NewCounterVec(
			prometheus.CounterOpts{
				Namespace: "greenlight",
				Subsystem: "approvals",
				Name:      "benign_conflicts_total",
				Help:      "Conditional writes lost to an already-completed transition, by step.",
			},
			[]string{"step"},
		),
	}

	reg.MustRegister(m.decisions, m.decisionLatency, m.expirations, m.publishes, m.conflicts)
	return m
}

// RecordDecision counts a resolved decision and, when the review request
// time is known, observes decision latency.
func (m *Metrics) RecordDecision(outcome string, requestedAt, decidedAt time.Time) {
	if m == nil {
		return
	}
	m.decisions.WithLabelValues(outcome).Inc()
	if !requestedAt.IsZero() && decidedAt.After(requestedAt) {
		m.decisionLatency.WithLabelValues(outcome).Observe(decidedAt.Sub(requestedAt).Seconds())
	}
}

// RecordExpiration counts a timeout reclamation.
func (m *Metrics) RecordExpiration() {
	if m == nil {
		return
	}
	m.expirations.Inc()
}

// RecordPublish counts a completed publication.
func (m *Metrics) RecordPublish() {
	if m == nil {
		return
	}
	m.publishes.Inc()
}

// RecordBenignConflict counts a conditional write that lost its race to a
// completed transition and was classified as idempotent success.
func (m *Metrics) RecordBenignConflict(step string) {
	if m == nil {
		return
	}
	m.conflicts.WithLabelValues(step).Inc()
}
