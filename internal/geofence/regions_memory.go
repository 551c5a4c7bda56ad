package geofence

import (
	"context"
	"sync"
)

// MemoryRegions keeps registered regions in-process. Used in tests and
// when no geofencing service is configured; transitions then arrive
// solely from device agents reporting their own platform geofences.
type MemoryRegions struct {
	mu    sync.Mutex
	specs map[string]RegionSpec
}

// NewMemoryRegions creates an empty region set.
func NewMemoryRegions() *MemoryRegions {
	return &MemoryRegions{specs: make(map[string]RegionSpec)}
}

func (r *MemoryRegions) RegisterRegion(_ context.Context, spec RegionSpec) error {
	r.mu.Lock()
	defer r.mu.Unlock()
	r.specs[spec.ID] = spec
	return nil
}

func (r *MemoryRegions) UnregisterRegion(_ context.Context, id string) error {
	r.mu.Lock()
	defer r.mu.Unlock()
	delete(r.specs, id)
	return nil
}

// Registered returns the RegionSpec currently held for a region id, if any.
func (r *MemoryRegions) Registered(id string) (RegionSpec, bool) {
	r.mu.Lock()
	defer r.mu.Unlock()
	spec, ok := r.specs[id]
	return spec, ok
}
