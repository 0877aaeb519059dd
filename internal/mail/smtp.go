package mail

import (
	"context"
	"errors"
	"fmt"
	"time"

	gomail "github.com/wneessen/go-mail"
)

var _ Transport = (*SMTPTransport)(nil)

// implicitTLSPort is the SMTPS port; other ports negotiate STARTTLS.
const implicitTLSPort = 465

// smtpSession is the part of *gomail.Client the transport drives.
type smtpSession interface {
	DialWithContext(ctx context.Context) error
	Send(msgs ...*gomail.Msg) error
	Close() error
}

// SMTPTransport sends through an SMTP relay, retrying once on a fallback port
// when the primary port cannot be connected to. Once a session is established,
// errors are delivery failures and never move to the fallback port.
type SMTPTransport struct {
	host       string
	ports      []int
	username   string
	password   string
	timeout    time.Duration
	sender     Sender
	newSession func(port int) (smtpSession, error)
}

// NewSMTPTransport creates a new SMTPTransport. fallbackPort may be 0.
func NewSMTPTransport(host string, port, fallbackPort int, username, password string, sender Sender, timeoutSec int) *SMTPTransport {
	ports := []int{port}
	if fallbackPort > 0 && fallbackPort != port {
		ports = append(ports, fallbackPort)
	}
	t := &SMTPTransport{
		host:     host,
		ports:    ports,
		username: username,
		password: password,
		timeout:  time.Duration(timeoutSec) * time.Second,
		sender:   sender,
	}
	t.newSession = func(port int) (smtpSession, error) { return t.newClient(port) }
	return t
}

// Send delivers one message per recipient in a single SMTP session.
func (t *SMTPTransport) Send(ctx context.Context, msg Message) error {
	if err := validate(msg); err != nil {
		return err
	}

	msgs, err := t.buildMessages(msg)
	if err != nil {
		return err
	}

	var errs []error
	for _, port := range t.ports {
		session, err := t.newSession(port)
		if err != nil {
			errs = append(errs, fmt.Errorf("smtp port %d: %w", port, err))
			continue
		}
		if err := session.DialWithContext(ctx); err != nil {
			errs = append(errs, fmt.Errorf("smtp port %d: connect: %w", port, err))
			if ctx.Err() != nil {
				break
			}
			continue
		}
		return t.deliver(session, port, msgs)
	}
	return fmt.Errorf("smtp: all ports failed: %w", errors.Join(errs...))
}

func (t *SMTPTransport) deliver(session smtpSession, port int, msgs []*gomail.Msg) error {
	defer session.Close() //nolint:errcheck // messages are already accepted or failed
	if err := session.Send(msgs...); err != nil {
		return fmt.Errorf("smtp port %d: send: %w", port, err)
	}
	return nil
}

func (t *SMTPTransport) buildMessages(msg Message) ([]*gomail.Msg, error) {
	msgs := make([]*gomail.Msg, 0, len(msg.To))
	for _, rcpt := range msg.To {
		m := gomail.NewMsg()
		if err := m.FromFormat(t.sender.Name, t.sender.Email); err != nil {
			return nil, fmt.Errorf("smtp: invalid sender %q: %w", t.sender.Email, err)
		}
		if err := m.To(rcpt); err != nil {
			return nil, fmt.Errorf("smtp: invalid recipient %q: %w", rcpt, err)
		}
		m.Subject(msg.Subject)
		m.SetBodyString(gomail.TypeTextHTML, msg.HTML)
		msgs = append(msgs, m)
	}
	return msgs, nil
}

func (t *SMTPTransport) newClient(port int) (*gomail.Client, error) {
	opts := []gomail.Option{gomail.WithPort(port)}
	if t.timeout > 0 {
		opts = append(opts, gomail.WithTimeout(t.timeout))
	}
	if t.username != "" {
		opts = append(opts,
			gomail.WithSMTPAuth(gomail.SMTPAuthPlain),
			gomail.WithUsername(t.username),
			gomail.WithPassword(t.password),
		)
	}
	if port == implicitTLSPort {
		opts = append(opts, gomail.WithSSL())
	} else {
		opts = append(opts, gomail.WithTLSPolicy(gomail.TLSMandatory))
	}
	return gomail.NewClient(t.host, opts...)
}
