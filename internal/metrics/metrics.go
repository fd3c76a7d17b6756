package metrics

import (
	"net/http"

	"github.com/prometheus/client_golang/prometheus"
	"github.com/prometheus/client_golang/prometheus/collectors"
	"github.com/prometheus/client_golang/prometheus/promhttp"
)

const namespace = "provider_portal"

// Metrics holds the service counters. A nil *Metrics records nothing, which
// keeps service tests free of registry setup.
type Metrics struct {
	registry *prometheus.Registry

	onboardingSteps     *prometheus.CounterVec
	documentUploads     *prometheus.CounterVec
	moderationActions   *prometheus.CounterVec
	bookingTransitions  *prometheus.CounterVec
	phaseGateRejections *prometheus.CounterVec
}

func New() *Metrics {
	reg := prometheus.NewRegistry()
	reg.MustRegister(
		collectors.NewGoCollector(),
		collectors.NewProcessCollector(collectors.ProcessCollectorOpts{}),
	)

	m := &Metrics{
		registry: reg,
		onboardingSteps: prometheus.NewCounterVec(prometheus.CounterOpts{
			Namespace: namespace,
			Name:      "onboarding_step_saves_total",
			Help:      "Onboarding step saves by step and result.",
		}, []string{"step", "result"}),
		documentUploads: prometheus.NewCounterVec(prometheus.CounterOpts{
			Namespace: namespace,
			Name:      "document_uploads_total",
			Help:      "Document uploads by type and result.",
		}, []string{"document_type", "result"}),
		moderationActions: prometheus.NewCounterVec(prometheus.CounterOpts{
			Namespace: namespace,
			Name:      "moderation_actions_total",
			Help:      "Admin moderation actions by entity and action.",
		}, []string{"entity", "action"}),
		bookingTransitions: prometheus.NewCounterVec(prometheus.CounterOpts{
			Namespace: namespace,
			Name:      "booking_transitions_total",
			Help:      "Booking status transitions by from, to and result.",
		}, []string{"from", "to", "result"}),
		phaseGateRejections: prometheus.NewCounterVec(prometheus.CounterOpts{
			Namespace: namespace,
			Name:      "phase_gate_rejections_total",
			Help:      "Rejected phase-2 link requests by internal reason.",
		}, []string{"reason"}),
	}

	reg.MustRegister(m.onboardingSteps, m.documentUploads, m.moderationActions, m.bookingTransitions, m.phaseGateRejections)
	return m
}

// Handler serves the registry in the Prometheus exposition format.
func (m *Metrics) Handler() http.Handler {
	return promhttp.HandlerFor(m.registry, promhttp.HandlerOpts{})
}

func (m *Metrics) OnboardingStep(step, result string) {
	if m == nil {
		return
	}
	m.onboardingSteps.WithLabelValues(step, result).Inc()
}

func (m *Metrics) DocumentUpload(documentType, result string) {
	if m == nil {
		return
	}
	m.documentUploads.WithLabelValues(documentType, result).Inc()
}

func (m *Metrics) Moderation(entity, action string) {
	if m == nil {
		return
	}
	m.moderationActions.WithLabelValues(entity, action).Inc()
}

func (m *Metrics) BookingTransition(from, to, result string) {
	if m == nil {
		return
	}
	m.bookingTransitions.WithLabelValues(from, to, result).Inc()
}

func (m *Metrics) PhaseGateRejected(reason string) {
	if m == nil {
		return
	}
	m.phaseGateRejections.WithLabelValues(reason).Inc()
}
