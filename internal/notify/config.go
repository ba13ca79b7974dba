package notify

import (
	"context"

	"sharenet-backend/internal/config"
	"sharenet-backend/internal/logger"
)

// FromConfig builds a dispatcher with every channel enabled in cfg. With no
// channel enabled the dispatcher accepts notifications and drops them.
func FromConfig(ctx context.Context, cfg config.NotifyConfig, users UserLookup) (*Dispatcher, error) {
	var channels []Channel

	if cfg.Email.Provider == "sendgrid" {
		channels = append(channels, NewEmailChannel(cfg.Email.APIKey, cfg.Email.FromEmail, cfg.Email.FromName))
		logger.Info("Email notifications enabled", "provider", cfg.Email.Provider, "from", cfg.Email.FromEmail)
	}

	if cfg.Push.Enabled {
		push, err := NewPushChannel(ctx, cfg.Push.CredentialsFile)
		if err != nil {
			return nil, err
		}
		channels = append(channels, push)
		logger.Info("Push notifications enabled")
	}

	if len(channels) == 0 {
		logger.Info("No external notification channel configured, in-app inbox only")
	}
	return NewDispatcher(users, cfg.QueueSize, channels...), nil
}
