package mail

import (
	"context"
	"errors"
	"strings"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
	gomail "github.com/wneessen/go-mail"
	"go.uber.org/zap"
	"go.uber.org/zap/zaptest/observer"
)

func TestNewSMTPTransport_Ports(t *testing.T) {
	sender := Sender{Email: "bot@example.com"}

	tr := NewSMTPTransport("smtp.example.com", 465, 587, "bot@example.com", "pw", sender, 5)
	assert.Equal(t, []int{465, 587}, tr.ports)

	tr = NewSMTPTransport("smtp.example.com", 587, 587, "", "", sender, 5)
	assert.Equal(t, []int{587}, tr.ports)

	tr = NewSMTPTransport("smtp.example.com", 25, 0, "", "", sender, 5)
	assert.Equal(t, []int{25}, tr.ports)
}

func TestSMTPTransport_BuildMessages(t *testing.T) {
	tr := NewSMTPTransport("smtp.example.com", 465, 587, "", "", Sender{Email: "bot@example.com", Name: "USD DOP Bot"}, 5)

	msgs, err := tr.buildMessages(Message{Subject: "Tasas", HTML: "<p>x</p>", To: []string{"a@example.com", "b@example.com"}})
	require.NoError(t, err)
	require.Len(t, msgs, 2)

	_, err = tr.buildMessages(Message{Subject: "Tasas", HTML: "<p>x</p>", To: []string{"not an address"}})
	assert.Error(t, err)
}

func TestSMTPTransport_NoRecipients(t *testing.T) {
	tr := NewSMTPTransport("smtp.example.com", 465, 587, "", "", Sender{Email: "bot@example.com"}, 5)
	assert.ErrorIs(t, tr.Send(context.Background(), Message{}), ErrNoRecipients)
}

type fakeSession struct {
	port    int
	dialErr error
	sendErr error
	sent    *[]int
	closed  bool
}

func (f *fakeSession) DialWithContext(context.Context) error { return f.dialErr }

func (f *fakeSession) Send(msgs ...*gomail.Msg) error {
	if f.sendErr != nil {
		return f.sendErr
	}
	for range msgs {
		*f.sent = append(*f.sent, f.port)
	}
	return nil
}

func (f *fakeSession) Close() error {
	f.closed = true
	return nil
}

func TestSMTPTransport_Fallback(t *testing.T) {
	msg := Message{Subject: "Tasas", HTML: "<p>x</p>", To: []string{"a@example.com", "b@example.com"}}

	newTransport := func(sessions map[int]*fakeSession) *SMTPTransport {
		tr := NewSMTPTransport("smtp.example.com", 465, 587, "", "", Sender{Email: "bot@example.com"}, 5)
		tr.newSession = func(port int) (smtpSession, error) { return sessions[port], nil }
		return tr
	}

	t.Run("connect failure moves to the fallback port", func(t *testing.T) {
		var sent []int
		sessions := map[int]*fakeSession{
			465: {port: 465, dialErr: errors.New("connection refused"), sent: &sent},
			587: {port: 587, sent: &sent},
		}

		require.NoError(t, newTransport(sessions).Send(context.Background(), msg))
		assert.Equal(t, []int{587, 587}, sent)
		assert.True(t, sessions[587].closed)
	})

	t.Run("send failure does not resend on the fallback port", func(t *testing.T) {
		var sent []int
		sessions := map[int]*fakeSession{
			465: {port: 465, sendErr: errors.New("552 message rejected"), sent: &sent},
			587: {port: 587, sent: &sent},
		}

		err := newTransport(sessions).Send(context.Background(), msg)
		require.Error(t, err)
		assert.Contains(t, err.Error(), "smtp port 465: send")
		assert.Empty(t, sent)
		assert.True(t, sessions[465].closed)
	})

	t.Run("both ports unreachable", func(t *testing.T) {
		var sent []int
		sessions := map[int]*fakeSession{
			465: {port: 465, dialErr: errors.New("timeout"), sent: &sent},
			587: {port: 587, dialErr: errors.New("timeout"), sent: &sent},
		}

		err := newTransport(sessions).Send(context.Background(), msg)
		require.Error(t, err)
		assert.Contains(t, err.Error(), "all ports failed")
	})
}

func TestBuildMIME(t *testing.T) {
	raw := buildMIME(Sender{Email: "bot@example.com", Name: "USD DOP Bot"}, "a@example.com",
		Message{Subject: "Tasas USD/DOP hoy", HTML: "<p>León</p>"})

	assert.True(t, strings.HasPrefix(raw, "From: USD DOP Bot <bot@example.com>\r\n"))
	assert.Contains(t, raw, "To: a@example.com\r\n")
	assert.Contains(t, raw, "Content-Type: text/html; charset=UTF-8\r\n\r\n<p>León</p>")
}

func TestLogTransport_Send(t *testing.T) {
	core, logs := observer.New(zap.InfoLevel)
	tr := NewLogTransport(Sender{Email: "bot@example.com"}, zap.New(core).Sugar())

	body := strings.Repeat("x", 600)
	require.NoError(t, tr.Send(context.Background(), Message{Subject: "Tasas", HTML: body, To: []string{"a@example.com"}}))

	details := logs.FilterMessage("Email details").All()
	require.Len(t, details, 1)
	preview := details[0].ContextMap()["html_preview"].(string)
	assert.Equal(t, strings.Repeat("x", 500)+"...", preview)
	assert.Equal(t, 1, logs.FilterMessage("Dry run, email not sent").Len())

	assert.ErrorIs(t, tr.Send(context.Background(), Message{}), ErrNoRecipients)
}
