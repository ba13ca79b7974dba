package notify

import (
	"context"
	"fmt"
	"html"

	"github.com/sendgrid/rest"
	"github.com/sendgrid/sendgrid-go"
	"github.com/sendgrid/sendgrid-go/helpers/mail"

	"sharenet-backend/internal/domain"
)

type mailSender interface {
	SendWithContext(ctx context.Context, email *mail.SGMailV3) (*rest.Response, error)
}

// EmailChannel sends notifications through SendGrid.
type EmailChannel struct {
	client    mailSender
	fromEmail string
	fromName  string
}

func NewEmailChannel(apiKey, fromEmail, fromName string) *EmailChannel {
	return &EmailChannel{
		client:    sendgrid.NewSendClient(apiKey),
		fromEmail: fromEmail,
		fromName:  fromName,
	}
}

func (c *EmailChannel) Name() string { return "sendgrid" }

func (c *EmailChannel) Deliver(ctx context.Context, recipient *domain.User, n domain.Notification) error {
	if recipient.Email == "" {
		return nil
	}
	from := mail.NewEmail(c.fromName, c.fromEmail)
	to := mail.NewEmail(recipient.Name, recipient.Email)

	subject := fmt.Sprintf("ShareNet: %s", n.Title)
	htmlContent := fmt.Sprintf(`<html><body><h2>%s</h2><p>%s</p></body></html>`,
		html.EscapeString(n.Title), html.EscapeString(n.Message))

	message := mail.NewSingleEmail(from, subject, to, n.Message, htmlContent)
	response, err := c.client.SendWithContext(ctx, message)
	if err != nil {
		return fmt.Errorf("failed to send email: %w", err)
	}
	if response.StatusCode >= 400 {
		return fmt.Errorf("sendgrid error: status %d, body: %s", response.StatusCode, response.Body)
	}
	return nil
}
