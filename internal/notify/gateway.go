// Package notify renders reminder alerts and posts them through a
// Presenter. Posted alerts are keyed by reminder id so a re-post replaces
// any stale instance instead of stacking.
package notify

import (
	"context"
	"fmt"
	"log/slog"

	"github.com/trivedidharmik/pinder/internal/geofence"
	"github.com/trivedidharmik/pinder/internal/reminder/models"
)

// Kind distinguishes first-fire alerts from snoozed re-fires. Both use the
// same notification slot; only the presentation differs.
type Kind string

const (
	KindActive  Kind = "active"
	KindSnoozed Kind = "snoozed"
)

// Action identifiers carried on every alert. The device echoes them back
// through the action endpoints.
const (
	ActionComplete = "complete"
	ActionSnooze   = "snooze"
)

// Content is everything a presenter needs to render one alert.
type Content struct {
	Kind       Kind
	Title      string
	Body       string
	Address    string
	ReminderID int64
	DeviceID   string
	Actions    []string
}

// Presenter posts and cancels user-visible alerts. Post with an id that is
// already showing replaces the existing alert.
type Presenter interface {
	Post(ctx context.Context, id int64, content Content) error
	Cancel(ctx context.Context, id int64) error
}

// Gateway applies the notification permission gate and builds alert content
// from reminders.
type Gateway struct {
	presenter   Presenter
	permissions geofence.PermissionChecker
	logger      *slog.Logger
}

// NewGateway constructs a gateway over the given presenter.
func NewGateway(presenter Presenter, permissions geofence.PermissionChecker, logger *slog.Logger) *Gateway {
	if logger == nil {
		logger = slog.Default()
	}
	return &Gateway{presenter: presenter, permissions: permissions, logger: logger}
}

// ShowActive posts the first-fire alert for a reminder. Missing
// notification permission is a silent, expected degradation: the reminder
// stays pending and will surface once permission returns.
func (g *Gateway) ShowActive(ctx context.Context, reminder models.Reminder) error {
	return g.show(ctx, reminder, KindActive)
}

// ShowSnoozed posts the re-surfaced variant of the alert in the same slot,
// replacing any stale instance.
func (g *Gateway) ShowSnoozed(ctx context.Context, reminder models.Reminder) error {
	return g.show(ctx, reminder, KindSnoozed)
}

func (g *Gateway) show(ctx context.Context, reminder models.Reminder, kind Kind) error {
	if !g.permissions.HasNotificationPermission(ctx) {
		g.logger.Debug("notification permission absent, suppressing alert",
			"reminder_id", reminder.ID, "kind", string(kind))
		return nil
	}

	title := reminder.Title
	if kind == KindSnoozed {
		title = "Snoozed: " + reminder.Title
	}

	content := Content{
		Kind:       kind,
		Title:      title,
		Body:       reminder.Description,
		Address:    reminder.Address,
		ReminderID: reminder.ID,
		DeviceID:   reminder.DeviceID,
		Actions:    []string{ActionComplete, ActionSnooze},
	}
	if err := g.presenter.Post(ctx, reminder.ID, content); err != nil {
		return fmt.Errorf("post notification: %w", err)
	}
	return nil
}

// Cancel removes any posted alert for the reminder id. Cancelling an alert
// that was never posted is a no-op.
func (g *Gateway) Cancel(ctx context.Context, id int64) error {
	if err := g.presenter.Cancel(ctx, id); err != nil {
		return fmt.Errorf("cancel notification: %w", err)
	}
	return nil
}
