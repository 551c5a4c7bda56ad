package reconcile

import (
	"time"

	"github.com/google/uuid"

	"github.com/trivedidharmik/pinder/internal/reminder/models"
)

// TransitionKind is the raw transition reported by the platform geofencing
// service.
type TransitionKind string

const (
	KindEnter TransitionKind = "enter"
	KindDwell TransitionKind = "dwell"
	KindExit  TransitionKind = "exit"
)

// TransitionEvent is one delivery from the geofencing service. Delivery is
// at-least-once: the same physical transition can arrive more than once,
// and one event can carry several triggering regions.
type TransitionEvent struct {
	// EventID identifies the delivery for logging; redeliveries may carry a
	// fresh id, so it must not be used for deduplication.
	EventID uuid.UUID `json:"event_id"`
	// DeviceID is the reporting device.
	DeviceID string `json:"device_id"`
	// ErrorCode is non-empty when the platform reports a geofencing error
	// instead of a transition. Such events carry no usable regions.
	ErrorCode string `json:"error_code,omitempty"`
	// Kind is the transition that fired.
	Kind TransitionKind `json:"kind"`
	// RegionIDs are the region request keys that triggered.
	RegionIDs []string `json:"region_ids"`
	// OccurredAt is the device-side transition time.
	OccurredAt time.Time `json:"occurred_at"`
}

// GeofenceTypeFor maps a raw transition kind onto the reminder type that
// reacts to it. ok is false for unrecognized kinds, which are ignored.
func GeofenceTypeFor(kind TransitionKind) (models.GeofenceType, bool) {
	switch kind {
	case KindEnter, KindDwell:
		return models.GeofenceArriveAt, true
	case KindExit:
		return models.GeofenceLeaveAt, true
	}
	return "", false
}
