// Package models defines the reminder domain entities shared by stores,
// services, and the reconciliation pipeline.
package models

import (
	"time"

	dErrors "github.com/trivedidharmik/pinder/pkg/domain-errors"
)

// GeofenceType selects which platform transition a reminder reacts to.
type GeofenceType string

const (
	// GeofenceArriveAt fires on enter and dwell transitions.
	GeofenceArriveAt GeofenceType = "ARRIVE_AT"
	// GeofenceLeaveAt fires on exit transitions.
	GeofenceLeaveAt GeofenceType = "LEAVE_AT"
)

// ParseGeofenceType constructs a GeofenceType from external input.
func ParseGeofenceType(s string) (GeofenceType, error) {
	switch GeofenceType(s) {
	case GeofenceArriveAt, GeofenceLeaveAt:
		return GeofenceType(s), nil
	}
	return "", dErrors.New(dErrors.CodeInvalidInput, "invalid geofence type")
}

// ReminderStatus is the lifecycle gate for a reminder. Notifications fire
// only while a reminder is pending.
type ReminderStatus string

const (
	StatusPending   ReminderStatus = "PENDING"
	StatusCompleted ReminderStatus = "COMPLETED"
	// StatusExpired is reserved; no code path assigns it today. Kept so a
	// future auto-expiry sweep can use it without a schema change.
	StatusExpired ReminderStatus = "EXPIRED"
)

// ParseReminderStatus constructs a ReminderStatus from external input.
func ParseReminderStatus(s string) (ReminderStatus, error) {
	switch ReminderStatus(s) {
	case StatusPending, StatusCompleted, StatusExpired:
		return ReminderStatus(s), nil
	}
	return "", dErrors.New(dErrors.CodeInvalidInput, "invalid reminder status")
}

// Priority is display-only; no pipeline behavior depends on it.
type Priority string

const (
	PriorityLow    Priority = "LOW"
	PriorityMedium Priority = "MEDIUM"
	PriorityHigh   Priority = "HIGH"
)

// ParsePriority constructs a Priority from external input.
func ParsePriority(s string) (Priority, error) {
	switch Priority(s) {
	case PriorityLow, PriorityMedium, PriorityHigh:
		return Priority(s), nil
	}
	return "", dErrors.New(dErrors.CodeInvalidInput, "invalid priority")
}

// Radius bounds in meters.
const (
	MinRadiusMeters = 50.0
	MaxRadiusMeters = 10000.0
)

// Reminder is the central entity: a note pinned to a circular region.
// ID 0 means not yet persisted. The registered region for a reminder reuses
// the stringified ID as its request key, giving a 1:1 reminder-region
// mapping.
type Reminder struct {
	ID          int64
	DeviceID    string
	Title       string
	Description string
	Address     string
	Latitude    float64
	Longitude   float64
	RadiusM     float64
	Type        GeofenceType
	Status      ReminderStatus
	Priority    Priority
	CreatedAt   time.Time
	CompletedAt *time.Time
}

// Validate checks the fields a caller controls. It does not enforce
// lifecycle invariants; those belong to the service layer.
func (r *Reminder) Validate() error {
	if r.Title == "" {
		return dErrors.New(dErrors.CodeInvalidInput, "title is required")
	}
	if r.Latitude < -90 || r.Latitude > 90 {
		return dErrors.New(dErrors.CodeInvalidInput, "latitude out of range")
	}
	if r.Longitude < -180 || r.Longitude > 180 {
		return dErrors.New(dErrors.CodeInvalidInput, "longitude out of range")
	}
	if r.RadiusM < MinRadiusMeters || r.RadiusM > MaxRadiusMeters {
		return dErrors.New(dErrors.CodeInvalidInput, "radius must be between 50 and 10000 meters")
	}
	switch r.Type {
	case GeofenceArriveAt, GeofenceLeaveAt:
	default:
		return dErrors.New(dErrors.CodeInvalidInput, "invalid geofence type")
	}
	switch r.Priority {
	case PriorityLow, PriorityMedium, PriorityHigh:
	default:
		return dErrors.New(dErrors.CodeInvalidInput, "invalid priority")
	}
	return nil
}

// IsPending reports whether the reminder may still notify.
func (r *Reminder) IsPending() bool {
	return r.Status == StatusPending
}
