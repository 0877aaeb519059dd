// Package mail delivers the rendered report through a pluggable transport.
package mail

import (
	"context"
	"errors"
)

// ErrNoRecipients is returned when Send is called with an empty recipient list.
var ErrNoRecipients = errors.New("no recipients")

// Message is one HTML email addressed to many recipients.
// Transports deliver it so recipients do not see each other's addresses.
type Message struct {
	Subject string
	HTML    string
	To      []string
}

// Transport is the single capability the pipeline needs to distribute a report.
type Transport interface {
	Send(ctx context.Context, msg Message) error
}

// Sender is the identity reports are sent from.
type Sender struct {
	Email string
	Name  string
}

func validate(msg Message) error {
	if len(msg.To) == 0 {
		return ErrNoRecipients
	}
	return nil
}
