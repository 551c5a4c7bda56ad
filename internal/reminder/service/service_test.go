package service

import (
	"context"
	"errors"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
	"github.com/stretchr/testify/suite"

	"github.com/trivedidharmik/pinder/internal/geofence"
	"github.com/trivedidharmik/pinder/internal/notify"
	"github.com/trivedidharmik/pinder/internal/prefs"
	"github.com/trivedidharmik/pinder/internal/reconcile"
	"github.com/trivedidharmik/pinder/internal/reminder/models"
	"github.com/trivedidharmik/pinder/internal/reminder/store"
	"github.com/trivedidharmik/pinder/internal/snooze"
	dErrors "github.com/trivedidharmik/pinder/pkg/domain-errors"
	"github.com/trivedidharmik/pinder/pkg/requestcontext"
)

type fakeRegistry struct {
	registered map[int64]models.Reminder
	removed    []int64
	failWith   error
}

func newFakeRegistry() *fakeRegistry {
	return &fakeRegistry{registered: make(map[int64]models.Reminder)}
}

func (f *fakeRegistry) Register(_ context.Context, r models.Reminder) error {
	if f.failWith != nil {
		return f.failWith
	}
	f.registered[r.ID] = r
	return nil
}

func (f *fakeRegistry) Update(ctx context.Context, r models.Reminder) error {
	return f.Register(ctx, r)
}

func (f *fakeRegistry) Remove(_ context.Context, id int64) error {
	delete(f.registered, id)
	f.removed = append(f.removed, id)
	return nil
}

type fakeNotifications struct {
	cancelled []int64
}

func (f *fakeNotifications) Cancel(_ context.Context, id int64) error {
	f.cancelled = append(f.cancelled, id)
	return nil
}

type fakeSnoozer struct {
	scheduled map[int64]time.Duration
	cancelled []int64
}

func newFakeSnoozer() *fakeSnoozer {
	return &fakeSnoozer{scheduled: make(map[int64]time.Duration)}
}

func (f *fakeSnoozer) ScheduleSnooze(_ context.Context, r models.Reminder, delay time.Duration) error {
	f.scheduled[r.ID] = delay
	return nil
}

func (f *fakeSnoozer) CancelSnooze(_ context.Context, id int64) error {
	f.cancelled = append(f.cancelled, id)
	return nil
}

type ServiceSuite struct {
	suite.Suite

	store         *store.MemoryStore
	registry      *fakeRegistry
	notifications *fakeNotifications
	snoozer       *fakeSnoozer
	prefs         prefs.Store
	svc           *Service
	ctx           context.Context
}

func TestServiceSuite(t *testing.T) {
	suite.Run(t, new(ServiceSuite))
}

func (s *ServiceSuite) SetupTest() {
	s.store = store.NewMemory()
	s.registry = newFakeRegistry()
	s.notifications = &fakeNotifications{}
	s.snoozer = newFakeSnoozer()
	s.prefs = prefs.NewMemory()
	s.svc = New(s.store, s.registry, s.notifications, s.snoozer, s.prefs, nil, nil)
	s.ctx = context.Background()
}

func (s *ServiceSuite) validReminder() models.Reminder {
	return models.Reminder{
		DeviceID:  "device-1",
		Title:     "Pick up parcel",
		Address:   "12 Queen St",
		Latitude:  45.9636,
		Longitude: -66.6431,
		RadiusM:   150,
		Type:      models.GeofenceArriveAt,
	}
}

func (s *ServiceSuite) TestCreatePersistsAndRegisters() {
	created, err := s.svc.Create(s.ctx, s.validReminder())
	s.Require().NoError(err)

	s.NotZero(created.ID)
	s.Equal(models.StatusPending, created.Status)
	s.False(created.CreatedAt.IsZero())

	stored, err := s.store.Get(s.ctx, created.ID)
	s.Require().NoError(err)
	s.Equal(created.Title, stored.Title)

	s.Contains(s.registry.registered, created.ID)
}

func (s *ServiceSuite) TestCreateZeroRadiusUsesPreferenceDefault() {
	r := s.validReminder()
	r.RadiusM = 0

	created, err := s.svc.Create(s.ctx, r)
	s.Require().NoError(err)
	s.Equal(prefs.DefaultRadiusMeters, created.RadiusM)
}

func (s *ServiceSuite) TestCreateValidationFailureDoesNotPersist() {
	r := s.validReminder()
	r.RadiusM = 10 // below the platform minimum

	_, err := s.svc.Create(s.ctx, r)
	s.Require().Error(err)
	s.True(dErrors.HasCode(err, dErrors.CodeInvalidInput))

	all, err := s.store.List(s.ctx, "")
	s.Require().NoError(err)
	s.Empty(all)
}

func (s *ServiceSuite) TestCreateRollsBackOnRegistrationFailure() {
	s.registry.failWith = geofence.ErrPermissionDenied

	_, err := s.svc.Create(s.ctx, s.validReminder())
	s.Require().Error(err)
	s.True(dErrors.HasCode(err, dErrors.CodePermissionDenied))

	all, err := s.store.List(s.ctx, "")
	s.Require().NoError(err)
	s.Empty(all, "row must be rolled back when registration fails")
}

func (s *ServiceSuite) TestCreateIgnoresCallerLifecycleFields() {
	r := s.validReminder()
	r.Status = models.StatusCompleted
	done := time.Now()
	r.CompletedAt = &done

	created, err := s.svc.Create(s.ctx, r)
	s.Require().NoError(err)
	s.Equal(models.StatusPending, created.Status)
	s.Nil(created.CompletedAt)
}

func (s *ServiceSuite) TestUpdateReRegistersGeofence() {
	created, err := s.svc.Create(s.ctx, s.validReminder())
	s.Require().NoError(err)

	created.RadiusM = 500
	created.Type = models.GeofenceLeaveAt
	updated, err := s.svc.Update(s.ctx, created)
	s.Require().NoError(err)

	s.Equal(500.0, s.registry.registered[created.ID].RadiusM)
	s.Equal(models.GeofenceLeaveAt, updated.Type)
}

func (s *ServiceSuite) TestUpdatePreservesLifecycleState() {
	created, err := s.svc.Create(s.ctx, s.validReminder())
	s.Require().NoError(err)
	s.Require().NoError(s.svc.Complete(s.ctx, created.ID))

	created.Title = "Renamed"
	created.Status = models.StatusPending // caller cannot resurrect
	updated, err := s.svc.Update(s.ctx, created)
	s.Require().NoError(err)

	s.Equal(models.StatusCompleted, updated.Status)
	s.NotNil(updated.CompletedAt)
}

func (s *ServiceSuite) TestUpdateMissingReturnsNotFound() {
	r := s.validReminder()
	r.ID = 404
	_, err := s.svc.Update(s.ctx, r)
	s.True(dErrors.HasCode(err, dErrors.CodeNotFound))
}

func (s *ServiceSuite) TestDeleteTearsEverythingDown() {
	created, err := s.svc.Create(s.ctx, s.validReminder())
	s.Require().NoError(err)

	s.Require().NoError(s.svc.Delete(s.ctx, created.ID))

	_, err = s.store.Get(s.ctx, created.ID)
	s.ErrorIs(err, store.ErrNotFound)
	s.NotContains(s.registry.registered, created.ID)
	s.Contains(s.notifications.cancelled, created.ID)
	s.Contains(s.snoozer.cancelled, created.ID)
}

func (s *ServiceSuite) TestCompleteSetsTimestampOnce() {
	first := time.Date(2026, 3, 1, 9, 0, 0, 0, time.UTC)
	created, err := s.svc.Create(s.ctx, s.validReminder())
	s.Require().NoError(err)

	s.Require().NoError(s.svc.Complete(requestcontext.WithTime(s.ctx, first), created.ID))
	s.Require().NoError(s.svc.Complete(requestcontext.WithTime(s.ctx, first.Add(time.Hour)), created.ID))

	got, err := s.store.Get(s.ctx, created.ID)
	s.Require().NoError(err)
	s.Equal(models.StatusCompleted, got.Status)
	s.Require().NotNil(got.CompletedAt)
	s.True(got.CompletedAt.Equal(first), "redelivered complete must keep the first timestamp")
}

func (s *ServiceSuite) TestSnoozeCancelsThenSchedules() {
	created, err := s.svc.Create(s.ctx, s.validReminder())
	s.Require().NoError(err)

	s.Require().NoError(s.svc.Snooze(s.ctx, created.ID, 10*time.Minute))
	s.Contains(s.notifications.cancelled, created.ID)
	s.Equal(10*time.Minute, s.snoozer.scheduled[created.ID])
}

func (s *ServiceSuite) TestSnoozeMissingReminderReturnsNotFound() {
	err := s.svc.Snooze(s.ctx, 404, time.Minute)
	s.True(dErrors.HasCode(err, dErrors.CodeNotFound))
	s.Empty(s.snoozer.scheduled)
}

func (s *ServiceSuite) TestSnoozeCompletedReminderConflicts() {
	created, err := s.svc.Create(s.ctx, s.validReminder())
	s.Require().NoError(err)
	s.Require().NoError(s.svc.Complete(s.ctx, created.ID))

	err = s.svc.Snooze(s.ctx, created.ID, time.Minute)
	s.True(dErrors.HasCode(err, dErrors.CodeConflict))
	s.Empty(s.snoozer.scheduled)
}

// End-to-end wiring over the in-memory implementations: create, trigger,
// act, redeliver.

type staticRegions struct {
	specs map[string]geofence.RegionSpec
}

func (r *staticRegions) RegisterRegion(_ context.Context, spec geofence.RegionSpec) error {
	r.specs[spec.ID] = spec
	return nil
}

func (r *staticRegions) UnregisterRegion(_ context.Context, id string) error {
	delete(r.specs, id)
	return nil
}

type pipeline struct {
	svc        *Service
	store      *store.MemoryStore
	presenter  *notify.MemoryPresenter
	queue      *snooze.MemoryQueue
	worker     *snooze.Worker
	reconciler *reconcile.Reconciler
}

func newPipeline(t *testing.T) *pipeline {
	t.Helper()

	st := store.NewMemory()
	permissions := geofence.NewStaticPermissions()
	registry := geofence.NewRegistry(&staticRegions{specs: make(map[string]geofence.RegionSpec)}, permissions, nil)
	presenter := notify.NewMemoryPresenter()
	gateway := notify.NewGateway(presenter, permissions, nil)
	preferences := prefs.NewMemory()
	queue := snooze.NewMemoryQueue()
	scheduler := snooze.NewScheduler(queue, preferences, nil)
	worker := snooze.NewWorker(queue, st, gateway, nil, 0)
	reconciler := reconcile.New(st, gateway, nil, nil)
	svc := New(st, registry, gateway, scheduler, preferences, nil, nil)

	return &pipeline{
		svc:        svc,
		store:      st,
		presenter:  presenter,
		queue:      queue,
		worker:     worker,
		reconciler: reconciler,
	}
}

func (p *pipeline) enter(t *testing.T, reminderID int64) {
	t.Helper()
	err := p.reconciler.Process(context.Background(), reconcile.TransitionEvent{
		DeviceID:   "device-1",
		Kind:       reconcile.KindEnter,
		RegionIDs:  []string{geofence.RegionID(reminderID)},
		OccurredAt: time.Now(),
	})
	require.NoError(t, err)
}

func TestArriveNotifyCompleteRedeliver(t *testing.T) {
	p := newPipeline(t)
	ctx := context.Background()

	created, err := p.svc.Create(ctx, models.Reminder{
		DeviceID:  "device-1",
		Title:     "Grab keys",
		Latitude:  45.96,
		Longitude: -66.64,
		RadiusM:   100,
		Type:      models.GeofenceArriveAt,
	})
	require.NoError(t, err)

	p.enter(t, created.ID)
	_, showing := p.presenter.Showing(created.ID)
	require.True(t, showing, "enter transition must surface a notification")

	require.NoError(t, p.svc.Complete(ctx, created.ID))
	_, showing = p.presenter.Showing(created.ID)
	assert.False(t, showing, "complete must dismiss the notification")

	// Redelivered transition after completion: the status gate holds.
	p.enter(t, created.ID)
	_, showing = p.presenter.Showing(created.ID)
	assert.False(t, showing)
	assert.Len(t, p.presenter.Posts(), 1)
}

func TestSnoozeRefires(t *testing.T) {
	p := newPipeline(t)
	ctx := context.Background()

	created, err := p.svc.Create(ctx, models.Reminder{
		DeviceID:  "device-1",
		Title:     "Return book",
		Latitude:  45.96,
		Longitude: -66.64,
		RadiusM:   100,
		Type:      models.GeofenceArriveAt,
	})
	require.NoError(t, err)

	p.enter(t, created.ID)
	require.NoError(t, p.svc.Snooze(ctx, created.ID, 10*time.Minute))

	_, showing := p.presenter.Showing(created.ID)
	assert.False(t, showing, "snooze must dismiss the active notification")
	require.Equal(t, 1, p.queue.Len())

	// Before the delay elapses nothing fires.
	p.worker.Tick(ctx, time.Now().Add(5*time.Minute))
	_, showing = p.presenter.Showing(created.ID)
	assert.False(t, showing)

	// After the delay the snoozed notification comes back.
	p.worker.Tick(ctx, time.Now().Add(11*time.Minute))
	content, showing := p.presenter.Showing(created.ID)
	require.True(t, showing)
	assert.Equal(t, notify.KindSnoozed, content.Kind)
}

func TestSnoozeThenCompleteSuppressesRefire(t *testing.T) {
	p := newPipeline(t)
	ctx := context.Background()

	created, err := p.svc.Create(ctx, models.Reminder{
		DeviceID:  "device-1",
		Title:     "Water plants",
		Latitude:  45.96,
		Longitude: -66.64,
		RadiusM:   100,
		Type:      models.GeofenceArriveAt,
	})
	require.NoError(t, err)

	p.enter(t, created.ID)
	require.NoError(t, p.svc.Snooze(ctx, created.ID, 10*time.Minute))
	require.NoError(t, p.svc.Complete(ctx, created.ID))

	p.worker.Tick(ctx, time.Now().Add(time.Hour))
	_, showing := p.presenter.Showing(created.ID)
	assert.False(t, showing, "completing during a snooze must suppress the refire")
}

func TestCreateStoreFailurePropagates(t *testing.T) {
	// Guard against partially constructed reminders reaching the registry.
	registry := newFakeRegistry()
	svc := New(failingStore{}, registry, &fakeNotifications{}, newFakeSnoozer(), prefs.NewMemory(), nil, nil)

	_, err := svc.Create(context.Background(), models.Reminder{
		DeviceID:  "device-1",
		Title:     "x",
		Latitude:  1,
		Longitude: 1,
		RadiusM:   100,
		Type:      models.GeofenceArriveAt,
	})
	require.Error(t, err)
	assert.Empty(t, registry.registered)
}

type failingStore struct{}

var errStoreDown = errors.New("store down")

func (failingStore) Get(context.Context, int64) (models.Reminder, error) {
	return models.Reminder{}, errStoreDown
}
func (failingStore) List(context.Context, string) ([]models.Reminder, error) { return nil, errStoreDown }
func (failingStore) Insert(context.Context, models.Reminder) (int64, error) { return 0, errStoreDown }
func (failingStore) Update(context.Context, models.Reminder) error          { return errStoreDown }
func (failingStore) Delete(context.Context, int64) error                    { return errStoreDown }
func (failingStore) UpdateStatus(context.Context, int64, models.ReminderStatus, *time.Time) error {
	return errStoreDown
}
