package prefs

import (
	"context"
	"fmt"
	"strconv"

	"github.com/redis/go-redis/v9"
)

const (
	fieldRadiusMeters = "radius_meters"
	fieldSnoozeMins   = "snooze_minutes"
)

// prefsKey is the hash holding one device's saved preferences.
func prefsKey(deviceID string) string {
	return "prefs:" + deviceID
}

// RedisStore persists per-device preferences in Redis hashes so every
// instance sees a settings change immediately.
type RedisStore struct {
	client *redis.Client
}

// NewRedis constructs a Redis-backed preference store.
func NewRedis(client *redis.Client) *RedisStore {
	return &RedisStore{client: client}
}

func (s *RedisStore) Defaults(ctx context.Context, deviceID string) (Preferences, error) {
	values, err := s.client.HGetAll(ctx, prefsKey(deviceID)).Result()
	if err != nil {
		return Preferences{}, fmt.Errorf("read preferences: %w", err)
	}

	var p Preferences
	if v, ok := values[fieldRadiusMeters]; ok {
		if f, err := strconv.ParseFloat(v, 64); err == nil {
			p.DefaultRadiusMeters = f
		}
	}
	if v, ok := values[fieldSnoozeMins]; ok {
		if n, err := strconv.Atoi(v); err == nil {
			p.DefaultSnoozeMinutes = n
		}
	}
	return withFallbacks(p), nil
}

func (s *RedisStore) Save(ctx context.Context, deviceID string, p Preferences) error {
	err := s.client.HSet(ctx, prefsKey(deviceID),
		fieldRadiusMeters, strconv.FormatFloat(p.DefaultRadiusMeters, 'f', -1, 64),
		fieldSnoozeMins, strconv.Itoa(p.DefaultSnoozeMinutes),
	).Err()
	if err != nil {
		return fmt.Errorf("save preferences: %w", err)
	}
	return nil
}
