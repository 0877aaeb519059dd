package mail

import (
	"context"
	"fmt"
	"os"

	"go.uber.org/zap"

	"ratebot/internal/config"
)

// NewTransport builds the transport selected by cfg.Mail.Transport.
func NewTransport(ctx context.Context, cfg *config.Config, logger *zap.SugaredLogger) (Transport, error) {
	sender := SenderFromConfig(cfg.Mail)

	switch cfg.Mail.Transport {
	case config.TransportMailjet:
		return NewMailjetTransport(cfg.Mailjet.BaseURL, cfg.Mailjet.APIKey, cfg.Mailjet.SecretKey, sender, cfg.Mailjet.Timeout), nil
	case config.TransportSMTP:
		return NewSMTPTransport(cfg.SMTP.Host, cfg.SMTP.Port, cfg.SMTP.FallbackPort,
			cfg.SMTP.Username, cfg.SMTP.Password, sender, cfg.SMTP.Timeout), nil
	case config.TransportGmail:
		creds, err := os.ReadFile(cfg.Gmail.CredentialsFile)
		if err != nil {
			return nil, fmt.Errorf("read gmail credentials: %w", err)
		}
		t, err := NewGmailTransport(ctx, creds, sender)
		if err != nil {
			return nil, err
		}
		return t, nil
	case config.TransportLog:
		return NewLogTransport(sender, logger), nil
	default:
		return nil, fmt.Errorf("unknown mail transport %q", cfg.Mail.Transport)
	}
}

// SenderFromConfig returns the configured sender identity.
func SenderFromConfig(cfg config.MailConfig) Sender {
	return Sender{Email: cfg.SenderEmail, Name: cfg.SenderName}
}
