package store

import (
	"context"
	"sort"
	"sync"
	"time"

	"github.com/trivedidharmik/pinder/internal/reminder/models"
)

// MemoryStore is a mutex-guarded map implementation used in tests and local
// development. It intentionally favors clarity over performance.
type MemoryStore struct {
	mu        sync.RWMutex
	nextID    int64
	reminders map[int64]models.Reminder
}

// NewMemory creates an empty in-memory store.
func NewMemory() *MemoryStore {
	return &MemoryStore{nextID: 1, reminders: make(map[int64]models.Reminder)}
}

func (s *MemoryStore) Get(_ context.Context, id int64) (models.Reminder, error) {
	s.mu.RLock()
	defer s.mu.RUnlock()
	if r, ok := s.reminders[id]; ok {
		return r, nil
	}
	return models.Reminder{}, ErrNotFound
}

func (s *MemoryStore) List(_ context.Context, deviceID string) ([]models.Reminder, error) {
	s.mu.RLock()
	defer s.mu.RUnlock()
	out := make([]models.Reminder, 0, len(s.reminders))
	for _, r := range s.reminders {
		if deviceID == "" || r.DeviceID == deviceID {
			out = append(out, r)
		}
	}
	sort.Slice(out, func(i, j int) bool {
		if out[i].CreatedAt.Equal(out[j].CreatedAt) {
			return out[i].ID > out[j].ID
		}
		return out[i].CreatedAt.After(out[j].CreatedAt)
	})
	return out, nil
}

func (s *MemoryStore) Insert(_ context.Context, reminder models.Reminder) (int64, error) {
	s.mu.Lock()
	defer s.mu.Unlock()
	reminder.ID = s.nextID
	s.nextID++
	s.reminders[reminder.ID] = reminder
	return reminder.ID, nil
}

func (s *MemoryStore) Update(_ context.Context, reminder models.Reminder) error {
	s.mu.Lock()
	defer s.mu.Unlock()
	existing, ok := s.reminders[reminder.ID]
	if !ok {
		return ErrNotFound
	}
	// Only the editable columns; owner and lifecycle fields are written by
	// Insert and UpdateStatus alone, mirroring the SQL UPDATE.
	existing.Title = reminder.Title
	existing.Description = reminder.Description
	existing.Address = reminder.Address
	existing.Latitude = reminder.Latitude
	existing.Longitude = reminder.Longitude
	existing.RadiusM = reminder.RadiusM
	existing.Type = reminder.Type
	existing.Priority = reminder.Priority
	s.reminders[reminder.ID] = existing
	return nil
}

func (s *MemoryStore) Delete(_ context.Context, id int64) error {
	s.mu.Lock()
	defer s.mu.Unlock()
	if _, ok := s.reminders[id]; !ok {
		return ErrNotFound
	}
	delete(s.reminders, id)
	return nil
}

func (s *MemoryStore) UpdateStatus(_ context.Context, id int64, status models.ReminderStatus, completedAt *time.Time) error {
	s.mu.Lock()
	defer s.mu.Unlock()
	r, ok := s.reminders[id]
	if !ok {
		return ErrNotFound
	}
	r.Status = status
	// completedAt is set exactly once; a redelivered complete must not move it.
	if completedAt != nil && r.CompletedAt == nil {
		t := *completedAt
		r.CompletedAt = &t
	}
	s.reminders[id] = r
	return nil
}
