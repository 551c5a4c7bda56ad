// Package snooze defers a reminder's notification by a configurable delay
// without touching its completion status. Each reminder has at most one
// outstanding snooze: jobs are keyed per reminder and re-scheduling
// replaces the pending job rather than stacking a second timer.
package snooze

import (
	"context"
	"fmt"
	"log/slog"
	"strconv"
	"strings"
	"time"

	"github.com/trivedidharmik/pinder/internal/prefs"
	"github.com/trivedidharmik/pinder/internal/reminder/models"
)

const snoozeKeyPrefix = "snooze_reminder_"

// Key derives the unique job key for a reminder's snooze.
func Key(reminderID int64) string {
	return snoozeKeyPrefix + strconv.FormatInt(reminderID, 10)
}

// ParseKey recovers the reminder id from a job key.
func ParseKey(key string) (int64, error) {
	raw, ok := strings.CutPrefix(key, snoozeKeyPrefix)
	if !ok {
		return 0, fmt.Errorf("not a snooze key: %q", key)
	}
	return strconv.ParseInt(raw, 10, 64)
}

// Queue is a delayed one-shot job queue. Scheduling an already-queued key
// replaces its fire time (enqueue-unique with replace semantics).
type Queue interface {
	Schedule(ctx context.Context, key string, at time.Time) error
	// Cancel removes a pending job; unknown keys are not an error.
	Cancel(ctx context.Context, key string) error
	// PopDue removes and returns up to limit jobs whose fire time has
	// passed. A popped job that fails downstream is not re-queued; the
	// pipeline's status gates make a lost re-display recoverable.
	PopDue(ctx context.Context, now time.Time, limit int) ([]string, error)
}

// Scheduler enqueues snooze jobs. The delay comes from the preference
// store at schedule time unless the caller passes an explicit one, so a
// settings change applies to the very next snooze.
type Scheduler struct {
	queue  Queue
	prefs  prefs.Store
	logger *slog.Logger
}

// NewScheduler constructs a scheduler over the given queue.
func NewScheduler(queue Queue, prefStore prefs.Store, logger *slog.Logger) *Scheduler {
	if logger == nil {
		logger = slog.Default()
	}
	return &Scheduler{queue: queue, prefs: prefStore, logger: logger}
}

// ScheduleSnooze enqueues the one-shot re-notification for a reminder.
// delay <= 0 means "use the preference default". A snooze scheduled while
// one is already pending replaces it.
func (s *Scheduler) ScheduleSnooze(ctx context.Context, reminder models.Reminder, delay time.Duration) error {
	if delay <= 0 {
		p, err := s.prefs.Defaults(ctx, reminder.DeviceID)
		if err != nil {
			return fmt.Errorf("read snooze preference: %w", err)
		}
		delay = time.Duration(p.DefaultSnoozeMinutes) * time.Minute
	}

	at := time.Now().Add(delay)
	if err := s.queue.Schedule(ctx, Key(reminder.ID), at); err != nil {
		return fmt.Errorf("schedule snooze: %w", err)
	}
	s.logger.Debug("snooze scheduled",
		"reminder_id", reminder.ID, "fire_at", at)
	return nil
}

// CancelSnooze drops any pending snooze for a reminder. Explicit
// cancellation is an optimization; a fired job for a completed reminder is
// a no-op anyway because of the status gate.
func (s *Scheduler) CancelSnooze(ctx context.Context, reminderID int64) error {
	return s.queue.Cancel(ctx, Key(reminderID))
}
