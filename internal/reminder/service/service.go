// Package service orchestrates the reminder lifecycle: CRUD against the
// store, geofence registration kept in lockstep with persisted state, and
// the notification actions (complete, snooze) shared by every entry point.
package service

import (
	"context"
	"errors"
	"fmt"
	"log/slog"
	"time"

	"github.com/trivedidharmik/pinder/internal/geofence"
	"github.com/trivedidharmik/pinder/internal/prefs"
	"github.com/trivedidharmik/pinder/internal/reminder/metrics"
	"github.com/trivedidharmik/pinder/internal/reminder/models"
	"github.com/trivedidharmik/pinder/internal/reminder/store"
	dErrors "github.com/trivedidharmik/pinder/pkg/domain-errors"
	"github.com/trivedidharmik/pinder/pkg/requestcontext"
)

// Registry keeps platform geofences in sync with reminder rows.
type Registry interface {
	Register(ctx context.Context, reminder models.Reminder) error
	Update(ctx context.Context, reminder models.Reminder) error
	Remove(ctx context.Context, reminderID int64) error
}

// Notifications is the slice of the gateway the service needs.
type Notifications interface {
	Cancel(ctx context.Context, id int64) error
}

// Snoozer schedules and cancels delayed re-notifications.
type Snoozer interface {
	ScheduleSnooze(ctx context.Context, reminder models.Reminder, delay time.Duration) error
	CancelSnooze(ctx context.Context, reminderID int64) error
}

// Service owns reminder lifecycle orchestration. Handlers stay transport
// only; everything that touches more than one collaborator lives here.
type Service struct {
	store         store.Store
	registry      Registry
	notifications Notifications
	snoozer       Snoozer
	prefs         prefs.Store
	logger        *slog.Logger
	metrics       *metrics.Metrics
}

func New(st store.Store, registry Registry, notifications Notifications, snoozer Snoozer, preferences prefs.Store, logger *slog.Logger, m *metrics.Metrics) *Service {
	if logger == nil {
		logger = slog.Default()
	}
	return &Service{
		store:         st,
		registry:      registry,
		notifications: notifications,
		snoozer:       snoozer,
		prefs:         preferences,
		logger:        logger,
		metrics:       m,
	}
}

// Create validates and persists a reminder, then registers its geofence.
// A zero radius means "use the device default". The store row is rolled
// back when registration fails so a reminder never exists without a
// watched region.
func (s *Service) Create(ctx context.Context, reminder models.Reminder) (models.Reminder, error) {
	if reminder.RadiusM == 0 {
		defaults, err := s.prefs.Defaults(ctx, reminder.DeviceID)
		if err != nil {
			return models.Reminder{}, fmt.Errorf("load preference defaults: %w", err)
		}
		reminder.RadiusM = defaults.DefaultRadiusMeters
	}
	if reminder.Priority == "" {
		reminder.Priority = models.PriorityMedium
	}
	reminder.Status = models.StatusPending
	reminder.CompletedAt = nil
	reminder.CreatedAt = requestcontext.Now(ctx)

	if err := reminder.Validate(); err != nil {
		return models.Reminder{}, err
	}

	id, err := s.store.Insert(ctx, reminder)
	if err != nil {
		return models.Reminder{}, fmt.Errorf("insert reminder: %w", err)
	}
	reminder.ID = id

	if err := s.registry.Register(ctx, reminder); err != nil {
		if delErr := s.store.Delete(ctx, id); delErr != nil {
			s.logger.Error("rollback after failed registration",
				"reminder_id", id, "error", delErr)
		}
		return models.Reminder{}, registrationError(err)
	}

	s.logger.Info("reminder created", "reminder_id", id, "type", string(reminder.Type))
	return reminder, nil
}

// Get returns a single reminder.
func (s *Service) Get(ctx context.Context, id int64) (models.Reminder, error) {
	reminder, err := s.store.Get(ctx, id)
	if err != nil {
		return models.Reminder{}, notFoundOr(err, id)
	}
	return reminder, nil
}

// List returns a device's reminders, newest first.
func (s *Service) List(ctx context.Context, deviceID string) ([]models.Reminder, error) {
	return s.store.List(ctx, deviceID)
}

// Update replaces a reminder's editable fields and re-registers its
// geofence. Status, creation and completion timestamps are lifecycle
// state and carry over from the stored row.
func (s *Service) Update(ctx context.Context, reminder models.Reminder) (models.Reminder, error) {
	existing, err := s.store.Get(ctx, reminder.ID)
	if err != nil {
		return models.Reminder{}, notFoundOr(err, reminder.ID)
	}
	reminder.DeviceID = existing.DeviceID
	reminder.Status = existing.Status
	reminder.CreatedAt = existing.CreatedAt
	reminder.CompletedAt = existing.CompletedAt
	if reminder.Priority == "" {
		reminder.Priority = existing.Priority
	}

	if err := reminder.Validate(); err != nil {
		return models.Reminder{}, err
	}

	if err := s.store.Update(ctx, reminder); err != nil {
		return models.Reminder{}, notFoundOr(err, reminder.ID)
	}

	if reminder.IsPending() {
		if err := s.registry.Update(ctx, reminder); err != nil {
			return models.Reminder{}, registrationError(err)
		}
	}

	s.logger.Info("reminder updated", "reminder_id", reminder.ID)
	return reminder, nil
}

// Delete removes the reminder row and tears down everything attached to
// it. The region, any shown notification and any pending snooze are best
// effort once the row is gone.
func (s *Service) Delete(ctx context.Context, id int64) error {
	if err := s.store.Delete(ctx, id); err != nil {
		return notFoundOr(err, id)
	}
	if err := s.registry.Remove(ctx, id); err != nil {
		s.logger.Error("remove region on delete", "reminder_id", id, "error", err)
	}
	if err := s.notifications.Cancel(ctx, id); err != nil {
		s.logger.Error("cancel notification on delete", "reminder_id", id, "error", err)
	}
	if err := s.snoozer.CancelSnooze(ctx, id); err != nil {
		s.logger.Error("cancel snooze on delete", "reminder_id", id, "error", err)
	}
	s.logger.Info("reminder deleted", "reminder_id", id)
	return nil
}

// Complete marks a reminder done, dismisses its notification and stops
// watching its region. completedAt is pinned to the request time and set
// exactly once; redelivered completes keep the first timestamp.
func (s *Service) Complete(ctx context.Context, id int64) error {
	now := requestcontext.Now(ctx)
	if err := s.store.UpdateStatus(ctx, id, models.StatusCompleted, &now); err != nil {
		return notFoundOr(err, id)
	}
	if err := s.notifications.Cancel(ctx, id); err != nil {
		s.logger.Error("cancel notification on complete", "reminder_id", id, "error", err)
	}
	if err := s.registry.Remove(ctx, id); err != nil {
		s.logger.Error("remove region on complete", "reminder_id", id, "error", err)
	}
	if err := s.snoozer.CancelSnooze(ctx, id); err != nil {
		s.logger.Error("cancel snooze on complete", "reminder_id", id, "error", err)
	}
	s.metrics.IncReminderCompleted()
	s.logger.Info("reminder completed", "reminder_id", id)
	return nil
}

// Snooze dismisses the current notification and schedules a re-display.
// A non-positive delay falls back to the device's default snooze
// duration. The reminder stays pending so the status gate still decides
// at fire time.
func (s *Service) Snooze(ctx context.Context, id int64, delay time.Duration) error {
	if err := s.notifications.Cancel(ctx, id); err != nil {
		s.logger.Error("cancel notification on snooze", "reminder_id", id, "error", err)
	}

	reminder, err := s.store.Get(ctx, id)
	if err != nil {
		return notFoundOr(err, id)
	}
	if !reminder.IsPending() {
		return dErrors.New(dErrors.CodeConflict,
			fmt.Sprintf("reminder %d is %s, not pending", id, reminder.Status))
	}

	if err := s.snoozer.ScheduleSnooze(ctx, reminder, delay); err != nil {
		return fmt.Errorf("schedule snooze for reminder %d: %w", id, err)
	}
	s.metrics.IncSnoozeScheduled()
	s.logger.Info("reminder snoozed", "reminder_id", id, "delay", delay)
	return nil
}

func notFoundOr(err error, id int64) error {
	if errors.Is(err, store.ErrNotFound) {
		return dErrors.Wrap(dErrors.CodeNotFound,
			fmt.Sprintf("reminder %d not found", id), err)
	}
	return err
}

func registrationError(err error) error {
	if errors.Is(err, geofence.ErrPermissionDenied) {
		return dErrors.Wrap(dErrors.CodePermissionDenied,
			"location permission not granted", err)
	}
	return fmt.Errorf("register geofence: %w", err)
}
