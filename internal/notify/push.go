package notify

import (
	"context"
	"fmt"
	"strconv"

	firebase "firebase.google.com/go/v4"
	"firebase.google.com/go/v4/messaging"
	"google.golang.org/api/option"

	"sharenet-backend/internal/domain"
)

type pushSender interface {
	Send(ctx context.Context, message *messaging.Message) (string, error)
}

// PushChannel publishes notifications to the recipient's Firebase topic.
// Clients subscribe to "user-<id>" after login.
type PushChannel struct {
	client pushSender
}

func NewPushChannel(ctx context.Context, credentialsFile string) (*PushChannel, error) {
	app, err := firebase.NewApp(ctx, nil, option.WithCredentialsFile(credentialsFile))
	if err != nil {
		return nil, fmt.Errorf("failed to initialize firebase app: %w", err)
	}
	client, err := app.Messaging(ctx)
	if err != nil {
		return nil, fmt.Errorf("failed to initialize firebase messaging: %w", err)
	}
	return &PushChannel{client: client}, nil
}

func (c *PushChannel) Name() string { return "firebase" }

func UserTopic(userID int32) string {
	return "user-" + strconv.Itoa(int(userID))
}

func (c *PushChannel) Deliver(ctx context.Context, recipient *domain.User, n domain.Notification) error {
	data := map[string]string{
		"type":            string(n.Type),
		"notification_id": strconv.Itoa(int(n.ID)),
	}
	if n.RelatedRequestID != nil {
		data["request_id"] = strconv.Itoa(int(*n.RelatedRequestID))
	}
	if n.RelatedReportID != nil {
		data["report_id"] = strconv.Itoa(int(*n.RelatedReportID))
	}

	_, err := c.client.Send(ctx, &messaging.Message{
		Topic: UserTopic(recipient.ID),
		Notification: &messaging.Notification{
			Title: n.Title,
			Body:  n.Message,
		},
		Data: data,
	})
	if err != nil {
		return fmt.Errorf("failed to send push message: %w", err)
	}
	return nil
}
