package mail

import (
	"context"

	"go.uber.org/zap"
)

var _ Transport = (*LogTransport)(nil)

// previewChars is how much of the body is logged.
const previewChars = 500

// LogTransport only logs what would be sent. Used for dry runs.
type LogTransport struct {
	sender Sender
	log    *zap.SugaredLogger
}

// NewLogTransport creates a new LogTransport.
func NewLogTransport(sender Sender, logger *zap.SugaredLogger) *LogTransport {
	return &LogTransport{sender: sender, log: logger}
}

// Send logs the message details and always succeeds.
func (t *LogTransport) Send(_ context.Context, msg Message) error {
	if err := validate(msg); err != nil {
		return err
	}
	LogDetails(t.log, t.sender, msg)
	t.log.Infow("Dry run, email not sent", "recipients", len(msg.To))
	return nil
}

// LogDetails logs sender, recipients, subject and the start of the body.
func LogDetails(logger *zap.SugaredLogger, sender Sender, msg Message) {
	preview := msg.HTML
	if r := []rune(preview); len(r) > previewChars {
		preview = string(r[:previewChars]) + "..."
	}
	logger.Infow("Email details",
		"from", sender.Email,
		"to", msg.To,
		"subject", msg.Subject,
		"html_preview", preview,
	)
}
