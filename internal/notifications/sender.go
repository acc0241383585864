package notifications

import (
	"context"

	"community-registration/volunteer-forms-backend/internal/config"
	"community-registration/volunteer-forms-backend/pkg/mail"
)

// NewSender builds the configured mail sender. It returns nil when no
// provider is set, which disables email.
func NewSender(ctx context.Context, cfg config.MailConfig) (mail.Sender, error) {
	if cfg.Provider == "" {
		return nil, nil
	}
	return mail.New(ctx, mail.Config{
		Provider: cfg.Provider,
		From:     mail.From{Address: cfg.FromAddress, Name: cfg.FromName},
		SMTP: mail.SMTPConfig{
			Host:               cfg.SMTP.Host,
			Port:               cfg.SMTP.Port,
			Username:           cfg.SMTP.Username,
			Password:           cfg.SMTP.Password,
			SSL:                cfg.SMTP.SSL,
			InsecureSkipVerify: cfg.SMTP.InsecureSkipVerify,
		},
		SES: mail.SESConfig{
			Region:           cfg.SESRegion,
			ConfigurationSet: cfg.ConfigurationSet,
		},
	})
}
