package prefs

import (
	"context"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestMemoryStoreFallbacks(t *testing.T) {
	ctx := context.Background()
	store := NewMemory()

	p, err := store.Defaults(ctx, "device-1")
	require.NoError(t, err)
	assert.Equal(t, DefaultRadiusMeters, p.DefaultRadiusMeters)
	assert.Equal(t, DefaultSnoozeMinutes, p.DefaultSnoozeMinutes)
}

func TestMemoryStoreSaveAndRead(t *testing.T) {
	ctx := context.Background()
	store := NewMemory()

	require.NoError(t, store.Save(ctx, "device-1", Preferences{
		DefaultRadiusMeters:  250,
		DefaultSnoozeMinutes: 15,
	}))

	p, err := store.Defaults(ctx, "device-1")
	require.NoError(t, err)
	assert.Equal(t, 250.0, p.DefaultRadiusMeters)
	assert.Equal(t, 15, p.DefaultSnoozeMinutes)
}

func TestMemoryStoreZeroValuesFallBack(t *testing.T) {
	ctx := context.Background()
	store := NewMemory()

	// Saving a partial preference set must not zero out the other default.
	require.NoError(t, store.Save(ctx, "device-1", Preferences{DefaultSnoozeMinutes: 5}))

	p, err := store.Defaults(ctx, "device-1")
	require.NoError(t, err)
	assert.Equal(t, DefaultRadiusMeters, p.DefaultRadiusMeters)
	assert.Equal(t, 5, p.DefaultSnoozeMinutes)
}

func TestMemoryStoreIsolatesDevices(t *testing.T) {
	ctx := context.Background()
	store := NewMemory()

	require.NoError(t, store.Save(ctx, "device-1", Preferences{DefaultRadiusMeters: 250}))

	// One device's settings never leak into another's defaults.
	p, err := store.Defaults(ctx, "device-2")
	require.NoError(t, err)
	assert.Equal(t, DefaultRadiusMeters, p.DefaultRadiusMeters)

	p, err = store.Defaults(ctx, "device-1")
	require.NoError(t, err)
	assert.Equal(t, 250.0, p.DefaultRadiusMeters)
}
