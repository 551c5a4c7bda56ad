// Package reconcile matches incoming geofence transition events against
// persisted reminder state and decides whether to notify. It is the
// correctness core of the pipeline: the geofencing service delivers
// at-least-once, several entry points mutate the same reminder, and the
// type and status gates here are the only mechanisms keeping duplicate or
// stale deliveries from re-notifying.
package reconcile

import (
	"context"
	"errors"
	"fmt"
	"log/slog"
	"time"

	"github.com/trivedidharmik/pinder/internal/geofence"
	"github.com/trivedidharmik/pinder/internal/reminder/metrics"
	"github.com/trivedidharmik/pinder/internal/reminder/models"
	"github.com/trivedidharmik/pinder/internal/reminder/store"
)

// Notifier is the slice of the notification gateway the reconciler needs.
type Notifier interface {
	ShowActive(ctx context.Context, reminder models.Reminder) error
}

// Reconciler resolves transition events against the reminder store and
// drives notifications. It runs on background goroutines (the ingest
// consumer), never on a request-serving path, because every region lookup
// is a store round trip.
type Reconciler struct {
	store    store.Store
	notifier Notifier
	logger   *slog.Logger
	metrics  *metrics.Metrics
}

// New constructs a reconciler. metrics may be nil.
func New(st store.Store, notifier Notifier, logger *slog.Logger, m *metrics.Metrics) *Reconciler {
	if logger == nil {
		logger = slog.Default()
	}
	return &Reconciler{store: st, notifier: notifier, logger: logger, metrics: m}
}

// Process reconciles one transition event.
//
// Events with the platform error flag are dropped without retry: the
// geofencing service emits a fresh event on the next real transition, so
// there is nothing useful to re-process. Unrecognized transition kinds are
// ignored. Each triggering region is processed independently; a failure on
// one never aborts the others.
func (r *Reconciler) Process(ctx context.Context, event TransitionEvent) error {
	start := time.Now()
	defer func() { r.metrics.ObserveReconcileLatency(time.Since(start)) }()

	log := r.logger.With("event_id", event.EventID.String(), "kind", string(event.Kind))

	if event.ErrorCode != "" {
		r.metrics.IncTransitionError()
		log.Error("geofencing error event", "error_code", event.ErrorCode)
		return nil
	}

	r.metrics.IncTransitionEvent(string(event.Kind))

	wantType, ok := GeofenceTypeFor(event.Kind)
	if !ok {
		log.Warn("ignoring unrecognized transition kind")
		return nil
	}

	for _, regionID := range event.RegionIDs {
		if err := r.processRegion(ctx, log, event.DeviceID, regionID, wantType); err != nil {
			// Isolated per region: log and keep going.
			log.Error("region reconciliation failed", "region_id", regionID, "error", err)
		}
	}
	return nil
}

func (r *Reconciler) processRegion(ctx context.Context, log *slog.Logger, deviceID, regionID string, wantType models.GeofenceType) error {
	reminderID, err := geofence.ParseRegionID(regionID)
	if err != nil {
		// Not ours; skip rather than fail the batch.
		r.metrics.IncRegionOutcome(metrics.OutcomeMalformedRegion)
		log.Warn("malformed region id", "region_id", regionID)
		return nil
	}

	reminder, err := r.store.Get(ctx, reminderID)
	if err != nil {
		if errors.Is(err, store.ErrNotFound) {
			// Deleted between registration and trigger; expected race.
			r.metrics.IncRegionOutcome(metrics.OutcomeNotFound)
			log.Debug("reminder gone", "reminder_id", reminderID)
			return nil
		}
		return fmt.Errorf("lookup reminder %d: %w", reminderID, err)
	}

	// Ownership gate: events carry the reporting device's identity, and a
	// device must never fire another device's reminder, whatever region ids
	// it claims to have crossed.
	if deviceID != "" && reminder.DeviceID != deviceID {
		r.metrics.IncRegionOutcome(metrics.OutcomeDeviceMismatch)
		log.Warn("transition device does not own reminder",
			"reminder_id", reminderID, "event_device_id", deviceID)
		return nil
	}

	// Type gate: the platform does not discriminate transition types per
	// registration on redelivery, so an arrive-at reminder must not react
	// to an exit reaching the same pipeline, and vice versa.
	if reminder.Type != wantType {
		r.metrics.IncRegionOutcome(metrics.OutcomeTypeMismatch)
		log.Debug("transition type mismatch",
			"reminder_id", reminderID,
			"reminder_type", string(reminder.Type),
			"event_type", string(wantType))
		return nil
	}

	// Status gate: the idempotency backstop against at-least-once
	// delivery. A completed or expired reminder never re-notifies.
	if !reminder.IsPending() {
		r.metrics.IncRegionOutcome(metrics.OutcomeNotPending)
		log.Debug("reminder not pending",
			"reminder_id", reminderID, "status", string(reminder.Status))
		return nil
	}

	if err := r.notifier.ShowActive(ctx, reminder); err != nil {
		r.metrics.IncRegionOutcome(metrics.OutcomeShowFailed)
		return fmt.Errorf("show notification for reminder %d: %w", reminderID, err)
	}

	r.metrics.IncRegionOutcome(metrics.OutcomeNotified)
	r.metrics.IncNotificationShown("active")
	log.Info("reminder notified", "reminder_id", reminderID)
	return nil
}
