package snooze

import (
	"context"
	"sync"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/trivedidharmik/pinder/internal/prefs"
	"github.com/trivedidharmik/pinder/internal/reminder/models"
	"github.com/trivedidharmik/pinder/internal/reminder/store"
)

type recordingNotifier struct {
	mu      sync.Mutex
	snoozed []models.Reminder
}

func (n *recordingNotifier) ShowSnoozed(_ context.Context, r models.Reminder) error {
	n.mu.Lock()
	defer n.mu.Unlock()
	n.snoozed = append(n.snoozed, r)
	return nil
}

func (n *recordingNotifier) calls() []models.Reminder {
	n.mu.Lock()
	defer n.mu.Unlock()
	return append([]models.Reminder(nil), n.snoozed...)
}

func insertPending(t *testing.T, st *store.MemoryStore) models.Reminder {
	t.Helper()
	r := models.Reminder{
		DeviceID:  "device-1",
		Title:     "Buy milk",
		Latitude:  45.96,
		Longitude: -66.64,
		RadiusM:   100,
		Type:      models.GeofenceArriveAt,
		Status:    models.StatusPending,
		Priority:  models.PriorityMedium,
		CreatedAt: time.Now(),
	}
	id, err := st.Insert(context.Background(), r)
	require.NoError(t, err)
	r.ID = id
	return r
}

func TestKeyRoundTrip(t *testing.T) {
	assert.Equal(t, "snooze_reminder_42", Key(42))

	id, err := ParseKey("snooze_reminder_42")
	require.NoError(t, err)
	assert.Equal(t, int64(42), id)

	_, err = ParseKey("something_else_42")
	assert.Error(t, err)
}

func TestScheduleSnoozeUsesPreferenceDelay(t *testing.T) {
	ctx := context.Background()
	queue := NewMemoryQueue()
	prefStore := prefs.NewMemory()
	require.NoError(t, prefStore.Save(ctx, "device-1", prefs.Preferences{DefaultSnoozeMinutes: 5}))
	scheduler := NewScheduler(queue, prefStore, nil)

	before := time.Now()
	require.NoError(t, scheduler.ScheduleSnooze(ctx, models.Reminder{ID: 1, DeviceID: "device-1"}, 0))

	at, ok := queue.Pending(Key(1))
	require.True(t, ok)
	assert.WithinDuration(t, before.Add(5*time.Minute), at, time.Second)
}

func TestRescheduleReplacesPendingJob(t *testing.T) {
	ctx := context.Background()
	queue := NewMemoryQueue()
	scheduler := NewScheduler(queue, prefs.NewMemory(), nil)

	require.NoError(t, scheduler.ScheduleSnooze(ctx, models.Reminder{ID: 1}, time.Hour))
	require.NoError(t, scheduler.ScheduleSnooze(ctx, models.Reminder{ID: 1}, time.Minute))

	// Exactly one pending job for the reminder, at the latest delay.
	assert.Equal(t, 1, queue.Len())
	at, ok := queue.Pending(Key(1))
	require.True(t, ok)
	assert.WithinDuration(t, time.Now().Add(time.Minute), at, time.Second)
}

func TestWorkerFiresDueSnoozeForPendingReminder(t *testing.T) {
	ctx := context.Background()
	queue := NewMemoryQueue()
	st := store.NewMemory()
	notifier := &recordingNotifier{}
	reminder := insertPending(t, st)

	scheduler := NewScheduler(queue, prefs.NewMemory(), nil)
	require.NoError(t, scheduler.ScheduleSnooze(ctx, reminder, time.Minute))

	worker := NewWorker(queue, st, notifier, nil, time.Second)

	// Not due yet.
	worker.Tick(ctx, time.Now())
	assert.Empty(t, notifier.calls())

	// Due now.
	worker.Tick(ctx, time.Now().Add(2*time.Minute))
	calls := notifier.calls()
	require.Len(t, calls, 1)
	assert.Equal(t, reminder.ID, calls[0].ID)

	// The job was consumed; a later tick must not re-fire it.
	worker.Tick(ctx, time.Now().Add(3*time.Minute))
	assert.Len(t, notifier.calls(), 1)
}

func TestWorkerSkipsCompletedReminder(t *testing.T) {
	ctx := context.Background()
	queue := NewMemoryQueue()
	st := store.NewMemory()
	notifier := &recordingNotifier{}
	reminder := insertPending(t, st)

	scheduler := NewScheduler(queue, prefs.NewMemory(), nil)
	require.NoError(t, scheduler.ScheduleSnooze(ctx, reminder, time.Minute))

	// Completed after scheduling, before firing. The un-cancelled timer
	// must become a no-op.
	now := time.Now()
	require.NoError(t, st.UpdateStatus(ctx, reminder.ID, models.StatusCompleted, &now))

	worker := NewWorker(queue, st, notifier, nil, time.Second)
	worker.Tick(ctx, now.Add(2*time.Minute))
	assert.Empty(t, notifier.calls())
}

func TestWorkerSkipsDeletedReminder(t *testing.T) {
	ctx := context.Background()
	queue := NewMemoryQueue()
	st := store.NewMemory()
	notifier := &recordingNotifier{}
	reminder := insertPending(t, st)

	scheduler := NewScheduler(queue, prefs.NewMemory(), nil)
	require.NoError(t, scheduler.ScheduleSnooze(ctx, reminder, time.Minute))
	require.NoError(t, st.Delete(ctx, reminder.ID))

	worker := NewWorker(queue, st, notifier, nil, time.Second)
	worker.Tick(ctx, time.Now().Add(2*time.Minute))
	assert.Empty(t, notifier.calls())
}

func TestWorkerDropsMalformedJobKeys(t *testing.T) {
	ctx := context.Background()
	queue := NewMemoryQueue()
	require.NoError(t, queue.Schedule(ctx, "garbage-key", time.Now().Add(-time.Minute)))

	worker := NewWorker(queue, store.NewMemory(), &recordingNotifier{}, nil, time.Second)
	worker.Tick(ctx, time.Now())
	assert.Equal(t, 0, queue.Len())
}
