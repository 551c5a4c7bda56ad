// Package prefs holds the per-device defaults the pipeline reads at
// decision time: the geofence radius applied when a reminder omits one and
// the snooze delay applied when a notification is snoozed.
package prefs

import "context"

// Fallbacks when nothing has been saved yet.
const (
	DefaultRadiusMeters  = 100.0
	DefaultSnoozeMinutes = 60
)

// Preferences are read at schedule time, never cached across operations, so
// a settings change applies to the next snooze without a restart.
type Preferences struct {
	DefaultRadiusMeters  float64 `json:"default_radius_meters"`
	DefaultSnoozeMinutes int     `json:"default_snooze_minutes"`
}

// Store persists preferences per device. Reads must return the fallback
// defaults when the device has saved nothing yet.
type Store interface {
	Defaults(ctx context.Context, deviceID string) (Preferences, error)
	Save(ctx context.Context, deviceID string, p Preferences) error
}

// withFallbacks fills zero values with the shipped defaults.
func withFallbacks(p Preferences) Preferences {
	if p.DefaultRadiusMeters <= 0 {
		p.DefaultRadiusMeters = DefaultRadiusMeters
	}
	if p.DefaultSnoozeMinutes <= 0 {
		p.DefaultSnoozeMinutes = DefaultSnoozeMinutes
	}
	return p
}
