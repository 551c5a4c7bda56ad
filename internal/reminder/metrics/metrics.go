// Package metrics provides observability for the reminder pipeline.
package metrics

import (
	"time"

	"github.com/prometheus/client_golang/prometheus"
	"github.com/prometheus/client_golang/prometheus/promauto"
)

// Region outcomes recorded per triggering region in a transition event.
const (
	OutcomeNotified        = "notified"
	OutcomeTypeMismatch    = "type_mismatch"
	OutcomeNotPending      = "not_pending"
	OutcomeDeviceMismatch  = "device_mismatch"
	OutcomeNotFound        = "not_found"
	OutcomeMalformedRegion = "malformed_region"
	OutcomeShowFailed      = "show_failed"
)

// Metrics holds the Prometheus metrics for the reconciliation pipeline.
// All methods are nil-safe so callers can run without metrics in tests.
type Metrics struct {
	// Transition events received, by transition kind
	TransitionEvents *prometheus.CounterVec

	// Events carrying a platform error flag
	TransitionErrors prometheus.Counter

	// Per-region reconciliation outcomes
	RegionOutcomes *prometheus.CounterVec

	// Notifications posted, by kind
	NotificationsShown *prometheus.CounterVec

	// Snooze jobs scheduled
	SnoozesScheduled prometheus.Counter

	// Reminders marked completed
	RemindersCompleted prometheus.Counter

	// Full event reconciliation latency
	ReconcileLatency prometheus.Histogram
}

// New creates and registers all pipeline metrics.
func New() *Metrics {
	return &Metrics{
		TransitionEvents: promauto.NewCounterVec(prometheus.CounterOpts{
			Name: "pinder_transition_events_total",
			Help: "Transition events received by transition kind",
		}, []string{"kind"}),

		TransitionErrors: promauto.NewCounter(prometheus.CounterOpts{
			Name: "pinder_transition_errors_total",
			Help: "Transition events aborted because the platform reported an error",
		}),

		RegionOutcomes: promauto.NewCounterVec(prometheus.CounterOpts{
			Name: "pinder_region_outcomes_total",
			Help: "Per-region reconciliation outcomes",
		}, []string{"outcome"}),

		NotificationsShown: promauto.NewCounterVec(prometheus.CounterOpts{
			Name: "pinder_notifications_shown_total",
			Help: "Notifications posted by kind",
		}, []string{"kind"}),

		SnoozesScheduled: promauto.NewCounter(prometheus.CounterOpts{
			Name: "pinder_snoozes_scheduled_total",
			Help: "Snooze jobs scheduled (replacements included)",
		}),

		RemindersCompleted: promauto.NewCounter(prometheus.CounterOpts{
			Name: "pinder_reminders_completed_total",
			Help: "Reminders marked completed from any entry point",
		}),

		ReconcileLatency: promauto.NewHistogram(prometheus.HistogramOpts{
			Name:    "pinder_reconcile_duration_seconds",
			Help:    "Duration of full transition event reconciliation",
			Buckets: []float64{0.001, 0.0025, 0.005, 0.01, 0.025, 0.05, 0.1, 0.25, 0.5, 1},
		}),
	}
}

// IncTransitionEvent records a received event by kind.
func (m *Metrics) IncTransitionEvent(kind string) {
	if m != nil {
		m.TransitionEvents.WithLabelValues(kind).Inc()
	}
}

// IncTransitionError records an event aborted on the platform error flag.
func (m *Metrics) IncTransitionError() {
	if m != nil {
		m.TransitionErrors.Inc()
	}
}

// IncRegionOutcome records one per-region reconciliation outcome.
func (m *Metrics) IncRegionOutcome(outcome string) {
	if m != nil {
		m.RegionOutcomes.WithLabelValues(outcome).Inc()
	}
}

// IncNotificationShown records a posted notification.
func (m *Metrics) IncNotificationShown(kind string) {
	if m != nil {
		m.NotificationsShown.WithLabelValues(kind).Inc()
	}
}

// IncSnoozeScheduled records a scheduled snooze.
func (m *Metrics) IncSnoozeScheduled() {
	if m != nil {
		m.SnoozesScheduled.Inc()
	}
}

// IncReminderCompleted records a reminder marked completed.
func (m *Metrics) IncReminderCompleted() {
	if m != nil {
		m.RemindersCompleted.Inc()
	}
}

// ObserveReconcileLatency records the duration of one event reconciliation.
func (m *Metrics) ObserveReconcileLatency(d time.Duration) {
	if m != nil {
		m.ReconcileLatency.Observe(d.Seconds())
	}
}
