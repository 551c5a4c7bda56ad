package notify

import (
	"context"
	"fmt"
	"strconv"
	"strings"

	firebase "firebase.google.com/go/v4"
	"firebase.google.com/go/v4/messaging"
)

// FCMPresenter delivers alerts as Firebase Cloud Messaging pushes. The
// device renders them as local notifications tagged with the reminder id,
// so a re-post for the same id replaces the visible alert. Cancellation is
// a data-only push the device app handles by dismissing that tag.
type FCMPresenter struct {
	client *messaging.Client
	tokens TokenSource
}

// TokenSource resolves a device id to its current FCM registration token.
type TokenSource interface {
	Token(ctx context.Context, deviceID string) (string, error)
}

// NewFCMPresenter builds a presenter from an initialized Firebase app.
func NewFCMPresenter(ctx context.Context, app *firebase.App, tokens TokenSource) (*FCMPresenter, error) {
	client, err := app.Messaging(ctx)
	if err != nil {
		return nil, fmt.Errorf("messaging client: %w", err)
	}
	return &FCMPresenter{client: client, tokens: tokens}, nil
}

func (p *FCMPresenter) Post(ctx context.Context, id int64, content Content) error {
	token, err := p.tokens.Token(ctx, content.DeviceID)
	if err != nil {
		return fmt.Errorf("resolve device token: %w", err)
	}

	body := content.Body
	if content.Address != "" {
		body = body + "\nLocation: " + content.Address
	}

	msg := &messaging.Message{
		Token: token,
		Notification: &messaging.Notification{
			Title: content.Title,
			Body:  body,
		},
		Data: map[string]string{
			"type":        "reminder",
			"kind":        string(content.Kind),
			"reminder_id": strconv.FormatInt(id, 10),
			"actions":     strings.Join(content.Actions, ","),
		},
		Android: &messaging.AndroidConfig{
			Priority: "high",
			Notification: &messaging.AndroidNotification{
				Tag:       strconv.FormatInt(id, 10),
				ChannelID: "location_reminders",
				Priority:  messaging.PriorityHigh,
			},
		},
	}

	if _, err := p.client.Send(ctx, msg); err != nil {
		return fmt.Errorf("send push: %w", err)
	}
	return nil
}

func (p *FCMPresenter) Cancel(ctx context.Context, id int64) error {
	// No device routing is stored for a cancel, so the cancel push is sent
	// to the topic the device subscribes to for its own reminders. The
	// device dismisses the notification tagged with the reminder id.
	msg := &messaging.Message{
		Topic: "reminder-cancel",
		Data: map[string]string{
			"type":        "cancel",
			"reminder_id": strconv.FormatInt(id, 10),
		},
	}
	if _, err := p.client.Send(ctx, msg); err != nil {
		return fmt.Errorf("send cancel push: %w", err)
	}
	return nil
}
