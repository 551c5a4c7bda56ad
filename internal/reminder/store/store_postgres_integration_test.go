//go:build integration

package store_test

import (
	"context"
	"testing"
	"time"

	"github.com/stretchr/testify/suite"

	"github.com/trivedidharmik/pinder/internal/reminder/models"
	"github.com/trivedidharmik/pinder/internal/reminder/store"
	"github.com/trivedidharmik/pinder/pkg/testutil/containers"
)

type PostgresStoreSuite struct {
	suite.Suite
	postgres *containers.PostgresContainer
	store    *store.PostgresStore
	ctx      context.Context
}

func TestPostgresStoreSuite(t *testing.T) {
	if testing.Short() {
		t.Skip("skipping integration test in short mode")
	}
	suite.Run(t, new(PostgresStoreSuite))
}

func (s *PostgresStoreSuite) SetupSuite() {
	s.postgres = containers.NewPostgresContainer(s.T(), store.Schema)
	s.store = store.NewPostgres(s.postgres.DB)
	s.ctx = context.Background()
}

func (s *PostgresStoreSuite) SetupTest() {
	s.Require().NoError(s.postgres.TruncateTables(s.ctx, "reminders"))
}

func (s *PostgresStoreSuite) insert(deviceID string, createdAt time.Time) models.Reminder {
	r := models.Reminder{
		DeviceID:  deviceID,
		Title:     "Pick up parcel",
		Address:   "12 Queen St",
		Latitude:  45.9636,
		Longitude: -66.6431,
		RadiusM:   150,
		Type:      models.GeofenceArriveAt,
		Status:    models.StatusPending,
		Priority:  models.PriorityMedium,
		CreatedAt: createdAt,
	}
	id, err := s.store.Insert(s.ctx, r)
	s.Require().NoError(err)
	r.ID = id
	return r
}

func (s *PostgresStoreSuite) TestInsertAndGetRoundTrip() {
	created := s.insert("device-1", time.Now().UTC().Truncate(time.Microsecond))

	got, err := s.store.Get(s.ctx, created.ID)
	s.Require().NoError(err)
	s.Equal(created.Title, got.Title)
	s.Equal(created.DeviceID, got.DeviceID)
	s.Equal(models.StatusPending, got.Status)
	s.Nil(got.CompletedAt)
	s.InDelta(created.Latitude, got.Latitude, 1e-9)
}

func (s *PostgresStoreSuite) TestGetMissingReturnsErrNotFound() {
	_, err := s.store.Get(s.ctx, 9999)
	s.ErrorIs(err, store.ErrNotFound)
}

func (s *PostgresStoreSuite) TestListNewestFirstFilteredByDevice() {
	base := time.Now().UTC().Truncate(time.Microsecond)
	old := s.insert("device-1", base.Add(-time.Hour))
	newer := s.insert("device-1", base)
	s.insert("device-2", base)

	reminders, err := s.store.List(s.ctx, "device-1")
	s.Require().NoError(err)
	s.Require().Len(reminders, 2)
	s.Equal(newer.ID, reminders[0].ID)
	s.Equal(old.ID, reminders[1].ID)
}

func (s *PostgresStoreSuite) TestUpdateStatusSetsCompletedAtOnce() {
	created := s.insert("device-1", time.Now().UTC())
	first := time.Date(2026, 3, 1, 9, 0, 0, 0, time.UTC)
	later := first.Add(time.Hour)

	s.Require().NoError(s.store.UpdateStatus(s.ctx, created.ID, models.StatusCompleted, &first))
	s.Require().NoError(s.store.UpdateStatus(s.ctx, created.ID, models.StatusCompleted, &later))

	got, err := s.store.Get(s.ctx, created.ID)
	s.Require().NoError(err)
	s.Equal(models.StatusCompleted, got.Status)
	s.Require().NotNil(got.CompletedAt)
	s.True(got.CompletedAt.Equal(first), "completed_at must keep its first value")
}

func (s *PostgresStoreSuite) TestUpdateReplacesEditableFields() {
	created := s.insert("device-1", time.Now().UTC())
	created.Title = "Renamed"
	created.RadiusM = 750
	created.Type = models.GeofenceLeaveAt

	s.Require().NoError(s.store.Update(s.ctx, created))

	got, err := s.store.Get(s.ctx, created.ID)
	s.Require().NoError(err)
	s.Equal("Renamed", got.Title)
	s.Equal(750.0, got.RadiusM)
	s.Equal(models.GeofenceLeaveAt, got.Type)
}

func (s *PostgresStoreSuite) TestDeleteThenGetNotFound() {
	created := s.insert("device-1", time.Now().UTC())

	s.Require().NoError(s.store.Delete(s.ctx, created.ID))
	_, err := s.store.Get(s.ctx, created.ID)
	s.ErrorIs(err, store.ErrNotFound)

	s.ErrorIs(s.store.Delete(s.ctx, created.ID), store.ErrNotFound)
}
