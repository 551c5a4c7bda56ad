package snooze

import (
	"context"
	"sync"
	"time"
)

// MemoryQueue is an in-process delayed queue for tests and development.
type MemoryQueue struct {
	mu   sync.Mutex
	jobs map[string]time.Time
}

// NewMemoryQueue creates an empty queue.
func NewMemoryQueue() *MemoryQueue {
	return &MemoryQueue{jobs: make(map[string]time.Time)}
}

func (q *MemoryQueue) Schedule(_ context.Context, key string, at time.Time) error {
	q.mu.Lock()
	defer q.mu.Unlock()
	// Re-scheduling an existing key replaces its fire time.
	q.jobs[key] = at
	return nil
}

func (q *MemoryQueue) Cancel(_ context.Context, key string) error {
	q.mu.Lock()
	defer q.mu.Unlock()
	delete(q.jobs, key)
	return nil
}

func (q *MemoryQueue) PopDue(_ context.Context, now time.Time, limit int) ([]string, error) {
	q.mu.Lock()
	defer q.mu.Unlock()
	var due []string
	for key, at := range q.jobs {
		if !at.After(now) {
			due = append(due, key)
			delete(q.jobs, key)
			if limit > 0 && len(due) >= limit {
				break
			}
		}
	}
	return due, nil
}

// Pending reports whether a job is queued for the key, and its fire time.
func (q *MemoryQueue) Pending(key string) (time.Time, bool) {
	q.mu.Lock()
	defer q.mu.Unlock()
	at, ok := q.jobs[key]
	return at, ok
}

// Len returns the number of queued jobs.
func (q *MemoryQueue) Len() int {
	q.mu.Lock()
	defer q.mu.Unlock()
	return len(q.jobs)
}
