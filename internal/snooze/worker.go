package snooze

import (
	"context"
	"errors"
	"log/slog"
	"time"

	"github.com/trivedidharmik/pinder/internal/reminder/models"
	"github.com/trivedidharmik/pinder/internal/reminder/store"
)

// Notifier is the slice of the notification gateway the worker needs.
type Notifier interface {
	ShowSnoozed(ctx context.Context, reminder models.Reminder) error
}

// Worker polls the delayed queue and re-surfaces due reminders. A due job
// re-resolves its reminder by id and shows the snoozed alert only while the
// reminder is still pending: a reminder deleted or completed after the
// snooze was scheduled makes the firing a silent no-op, even though the
// queued job itself was never cancelled.
type Worker struct {
	queue    Queue
	store    store.Store
	notifier Notifier
	logger   *slog.Logger
	interval time.Duration
	batch    int
}

// NewWorker constructs a worker polling at the given interval.
func NewWorker(queue Queue, st store.Store, notifier Notifier, logger *slog.Logger, interval time.Duration) *Worker {
	if logger == nil {
		logger = slog.Default()
	}
	if interval <= 0 {
		interval = 15 * time.Second
	}
	return &Worker{
		queue:    queue,
		store:    st,
		notifier: notifier,
		logger:   logger,
		interval: interval,
		batch:    100,
	}
}

// Run polls until the context is cancelled.
func (w *Worker) Run(ctx context.Context) error {
	ticker := time.NewTicker(w.interval)
	defer ticker.Stop()

	for {
		select {
		case <-ctx.Done():
			return ctx.Err()
		case <-ticker.C:
			w.Tick(ctx, time.Now())
		}
	}
}

// Tick processes one batch of due jobs. Exposed for tests and for the run
// loop; failures are logged per job and never abort the batch.
func (w *Worker) Tick(ctx context.Context, now time.Time) {
	due, err := w.queue.PopDue(ctx, now, w.batch)
	if err != nil {
		w.logger.Error("pop due snooze jobs failed", "error", err)
		return
	}

	for _, key := range due {
		w.fire(ctx, key)
	}
}

func (w *Worker) fire(ctx context.Context, key string) {
	reminderID, err := ParseKey(key)
	if err != nil {
		w.logger.Warn("dropping malformed snooze job", "key", key, "error", err)
		return
	}

	reminder, err := w.store.Get(ctx, reminderID)
	if err != nil {
		if errors.Is(err, store.ErrNotFound) {
			// Deleted between scheduling and firing; expected, not an error.
			w.logger.Debug("snoozed reminder gone", "reminder_id", reminderID)
			return
		}
		w.logger.Error("snooze lookup failed", "reminder_id", reminderID, "error", err)
		return
	}

	if !reminder.IsPending() {
		w.logger.Debug("snoozed reminder no longer pending",
			"reminder_id", reminderID, "status", string(reminder.Status))
		return
	}

	if err := w.notifier.ShowSnoozed(ctx, reminder); err != nil {
		w.logger.Error("show snoozed notification failed",
			"reminder_id", reminderID, "error", err)
	}
}
