// Package store persists reminders. Implementations must serialize
// conflicting writes to the same reminder; the status gates in the
// reconciler and snooze worker rely on reads observing committed state.
package store

import (
	"context"
	"errors"
	"time"

	"github.com/trivedidharmik/pinder/internal/reminder/models"
)

// ErrNotFound keeps store-level misses consistent across the in-memory and
// Postgres implementations. Services translate it into a domain error.
var ErrNotFound = errors.New("reminder not found")

// Store is the single source of truth for reminder state. The geofence
// registry and posted notifications are derived projections that may
// transiently diverge and are reconciled lazily by status gating.
type Store interface {
	// Get returns the reminder with the given id or ErrNotFound.
	Get(ctx context.Context, id int64) (models.Reminder, error)
	// List returns all reminders for a device, newest first.
	List(ctx context.Context, deviceID string) ([]models.Reminder, error)
	// Insert persists a new reminder and returns its assigned id.
	Insert(ctx context.Context, reminder models.Reminder) (int64, error)
	// Update replaces all mutable fields of an existing reminder.
	Update(ctx context.Context, reminder models.Reminder) error
	// Delete removes a reminder. Deleting an unknown id returns ErrNotFound.
	Delete(ctx context.Context, id int64) error
	// UpdateStatus transitions a reminder's lifecycle status. completedAt is
	// recorded only on the first transition to COMPLETED; later calls must
	// not overwrite it.
	UpdateStatus(ctx context.Context, id int64, status models.ReminderStatus, completedAt *time.Time) error
}
