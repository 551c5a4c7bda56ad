package geofence

import (
	"context"
	"sync"
)

// StaticPermissions is a PermissionChecker backed by in-process flags. The
// device agent reports permission changes and the transport layer flips the
// flags; tests set them directly.
type StaticPermissions struct {
	mu           sync.RWMutex
	location     bool
	notification bool
}

// NewStaticPermissions creates a checker with both permissions granted,
// which is the common steady state after onboarding.
func NewStaticPermissions() *StaticPermissions {
	return &StaticPermissions{location: true, notification: true}
}

func (p *StaticPermissions) HasLocationPermission(context.Context) bool {
	p.mu.RLock()
	defer p.mu.RUnlock()
	return p.location
}

func (p *StaticPermissions) HasNotificationPermission(context.Context) bool {
	p.mu.RLock()
	defer p.mu.RUnlock()
	return p.notification
}

// SetLocation records the current location permission state.
func (p *StaticPermissions) SetLocation(granted bool) {
	p.mu.Lock()
	defer p.mu.Unlock()
	p.location = granted
}

// SetNotification records the current notification permission state.
func (p *StaticPermissions) SetNotification(granted bool) {
	p.mu.Lock()
	defer p.mu.Unlock()
	p.notification = granted
}
