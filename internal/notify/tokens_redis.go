package notify

import (
	"context"
	"errors"
	"fmt"

	"github.com/redis/go-redis/v9"
)

const tokenKeyPrefix = "fcm:token:"

// ErrNoToken is returned when a device has not registered a push token yet.
var ErrNoToken = errors.New("no push token registered for device")

// RedisTokens stores FCM registration tokens by device id. Tokens rotate on
// the device's schedule; the device re-registers whenever FCM issues a new
// one.
type RedisTokens struct {
	client *redis.Client
}

// NewRedisTokens constructs a Redis-backed token source.
func NewRedisTokens(client *redis.Client) *RedisTokens {
	return &RedisTokens{client: client}
}

func (t *RedisTokens) Token(ctx context.Context, deviceID string) (string, error) {
	token, err := t.client.Get(ctx, tokenKeyPrefix+deviceID).Result()
	if errors.Is(err, redis.Nil) {
		return "", ErrNoToken
	}
	if err != nil {
		return "", fmt.Errorf("read device token: %w", err)
	}
	return token, nil
}

// SetToken records the device's current registration token.
func (t *RedisTokens) SetToken(ctx context.Context, deviceID, token string) error {
	if err := t.client.Set(ctx, tokenKeyPrefix+deviceID, token, 0).Err(); err != nil {
		return fmt.Errorf("save device token: %w", err)
	}
	return nil
}
