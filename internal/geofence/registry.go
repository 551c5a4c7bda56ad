// Package geofence maps reminders onto region watches held by the platform
// geofencing service. The registry is a derived projection of the reminder
// store: it may transiently diverge (a region still registered after its
// reminder completed) and is reconciled lazily by the pipeline's status
// gates, not by two-phase updates.
package geofence

import (
	"context"
	"errors"
	"fmt"
	"log/slog"
	"strconv"
	"time"

	"github.com/trivedidharmik/pinder/internal/reminder/models"
)

// ErrPermissionDenied is returned when the device lacks the location
// permission at call time. Callers are expected to prompt and retry.
var ErrPermissionDenied = errors.New("location permission not granted")

// PlatformError wraps a failure reported by the underlying geofencing
// service, e.g. too many regions registered.
type PlatformError struct {
	Op  string
	Err error
}

func (e *PlatformError) Error() string {
	return fmt.Sprintf("geofence %s: %v", e.Op, e.Err)
}

func (e *PlatformError) Unwrap() error { return e.Err }

// Transition masks understood by the platform service.
const (
	TransitionEnter = 1 << iota
	TransitionExit
	TransitionDwell
)

// DwellDelay is how long the device must linger inside an arrive-at region
// before a dwell transition fires.
const DwellDelay = 30 * time.Second

// RegionSpec describes one circular region watch.
type RegionSpec struct {
	ID             string        `json:"id"`
	DeviceID       string        `json:"device_id"`
	Latitude       float64       `json:"latitude"`
	Longitude      float64       `json:"longitude"`
	RadiusM        float64       `json:"radius_m"`
	TransitionMask int           `json:"transition_mask"`
	DwellDelay     time.Duration `json:"dwell_delay"`
}

// Regions is the platform geofencing service. Registered watches never
// expire; they are removed explicitly.
type Regions interface {
	RegisterRegion(ctx context.Context, spec RegionSpec) error
	// UnregisterRegion is idempotent: unknown ids are not an error.
	UnregisterRegion(ctx context.Context, id string) error
}

// PermissionChecker answers whether the device currently holds a runtime
// permission. Checked synchronously on every call, never cached, because
// the user can revoke permissions between operations.
type PermissionChecker interface {
	HasLocationPermission(ctx context.Context) bool
	HasNotificationPermission(ctx context.Context) bool
}

// Registry keeps reminder-region registrations 1:1 by reusing the
// stringified reminder id as the region request key.
type Registry struct {
	regions     Regions
	permissions PermissionChecker
	logger      *slog.Logger
}

// NewRegistry constructs a registry over the given platform client.
func NewRegistry(regions Regions, permissions PermissionChecker, logger *slog.Logger) *Registry {
	if logger == nil {
		logger = slog.Default()
	}
	return &Registry{regions: regions, permissions: permissions, logger: logger}
}

// RegionID derives the region request key for a reminder.
func RegionID(reminderID int64) string {
	return strconv.FormatInt(reminderID, 10)
}

// ParseRegionID recovers the reminder id from a region request key.
func ParseRegionID(regionID string) (int64, error) {
	return strconv.ParseInt(regionID, 10, 64)
}

// Register builds and registers the region watch for a reminder. Arrive-at
// reminders watch enter and dwell; leave-at reminders watch exit.
func (r *Registry) Register(ctx context.Context, reminder models.Reminder) error {
	if !r.permissions.HasLocationPermission(ctx) {
		return ErrPermissionDenied
	}

	spec := RegionSpec{
		ID:        RegionID(reminder.ID),
		DeviceID:  reminder.DeviceID,
		Latitude:  reminder.Latitude,
		Longitude: reminder.Longitude,
		RadiusM:   reminder.RadiusM,
	}
	switch reminder.Type {
	case models.GeofenceLeaveAt:
		spec.TransitionMask = TransitionExit
	default:
		spec.TransitionMask = TransitionEnter | TransitionDwell
		spec.DwellDelay = DwellDelay
	}

	if err := r.regions.RegisterRegion(ctx, spec); err != nil {
		return &PlatformError{Op: "register", Err: err}
	}
	return nil
}

// Update rebuilds a reminder's registration: remove then register. The
// remove is fire-and-forget relative to the add, trading strict ordering
// for latency. Known risk: the old and new watch can briefly coexist, or
// the add can fail leaving neither registered.
func (r *Registry) Update(ctx context.Context, reminder models.Reminder) error {
	if !r.permissions.HasLocationPermission(ctx) {
		return ErrPermissionDenied
	}

	regionID := RegionID(reminder.ID)
	go func() {
		ctx, cancel := context.WithTimeout(context.WithoutCancel(ctx), 10*time.Second)
		defer cancel()
		if err := r.regions.UnregisterRegion(ctx, regionID); err != nil {
			r.logger.Warn("geofence remove before re-register failed",
				"region_id", regionID, "error", err)
		}
	}()

	return r.Register(ctx, reminder)
}

// Remove unregisters a reminder's region watch. Removing an id that was
// never registered is not an error.
func (r *Registry) Remove(ctx context.Context, reminderID int64) error {
	if err := r.regions.UnregisterRegion(ctx, RegionID(reminderID)); err != nil {
		return &PlatformError{Op: "remove", Err: err}
	}
	return nil
}
