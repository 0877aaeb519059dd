package mail

import (
	"context"
	"encoding/base64"
	"fmt"
	"mime"
	"strings"

	"golang.org/x/oauth2/google"
	"google.golang.org/api/gmail/v1"
	"google.golang.org/api/option"
)

var _ Transport = (*GmailTransport)(nil)

// GmailTransport sends through the Gmail API using a service account with
// domain-wide delegation for the sender mailbox.
type GmailTransport struct {
	service *gmail.Service
	sender  Sender
}

// NewGmailTransport creates a GmailTransport from service account credentials JSON.
func NewGmailTransport(ctx context.Context, credentialsJSON []byte, sender Sender) (*GmailTransport, error) {
	if len(credentialsJSON) == 0 {
		return nil, fmt.Errorf("gmail: credentials JSON is required")
	}
	if sender.Email == "" {
		return nil, fmt.Errorf("gmail: sender address is required")
	}

	jwtConfig, err := google.JWTConfigFromJSON(credentialsJSON, gmail.GmailSendScope)
	if err != nil {
		return nil, fmt.Errorf("gmail: failed to parse credentials: %w", err)
	}
	jwtConfig.Subject = sender.Email

	svc, err := gmail.NewService(ctx, option.WithHTTPClient(jwtConfig.Client(ctx)))
	if err != nil {
		return nil, fmt.Errorf("gmail: failed to create service: %w", err)
	}
	return newGmailTransport(svc, sender), nil
}

func newGmailTransport(svc *gmail.Service, sender Sender) *GmailTransport {
	return &GmailTransport{service: svc, sender: sender}
}

// Send sends one message per recipient.
func (g *GmailTransport) Send(ctx context.Context, msg Message) error {
	if err := validate(msg); err != nil {
		return err
	}
	for _, rcpt := range msg.To {
		raw := base64.URLEncoding.EncodeToString([]byte(buildMIME(g.sender, rcpt, msg)))
		if _, err := g.service.Users.Messages.Send("me", &gmail.Message{Raw: raw}).Context(ctx).Do(); err != nil {
			return fmt.Errorf("gmail: failed to send to %s: %w", rcpt, err)
		}
	}
	return nil
}

func buildMIME(sender Sender, to string, msg Message) string {
	from := sender.Email
	if sender.Name != "" {
		from = fmt.Sprintf("%s <%s>", mime.QEncoding.Encode("utf-8", sender.Name), sender.Email)
	}
	return strings.Join([]string{
		"From: " + from,
		"To: " + to,
		"Subject: " + mime.QEncoding.Encode("utf-8", msg.Subject),
		"MIME-Version: 1.0",
		"Content-Type: text/html; charset=UTF-8",
		"",
		msg.HTML,
	}, "\r\n")
}
