package mail

import (
	"bytes"
	"context"
	"encoding/json"
	"fmt"
	"io"
	"net/http"
	"strings"
	"time"
)

var _ Transport = (*MailjetTransport)(nil)

// mailjetBatchSize is the number of messages Mailjet accepts per send call.
const mailjetBatchSize = 50

// MailjetTransport sends through the Mailjet v3.1 send API.
type MailjetTransport struct {
	baseURL   string
	apiKey    string
	secretKey string
	sender    Sender
	client    *http.Client
}

// NewMailjetTransport creates a new MailjetTransport.
func NewMailjetTransport(baseURL, apiKey, secretKey string, sender Sender, timeoutSec int) *MailjetTransport {
	if baseURL == "" {
		baseURL = "https://api.mailjet.com"
	}
	return &MailjetTransport{
		baseURL:   strings.TrimRight(baseURL, "/"),
		apiKey:    apiKey,
		secretKey: secretKey,
		sender:    sender,
		client:    &http.Client{Timeout: time.Duration(timeoutSec) * time.Second},
	}
}

type mjAddress struct {
	Email string `json:"Email"`
	Name  string `json:"Name,omitempty"`
}

type mjMessage struct {
	From     mjAddress   `json:"From"`
	To       []mjAddress `json:"To"`
	Subject  string      `json:"Subject"`
	HTMLPart string      `json:"HTMLPart"`
}

type mjRequest struct {
	Messages []mjMessage `json:"Messages"`
}

type mjResponse struct {
	Messages []struct {
		Status string `json:"Status"`
		Errors []struct {
			ErrorMessage string `json:"ErrorMessage"`
		} `json:"Errors"`
	} `json:"Messages"`
}

// Send posts one message per recipient, batched per API call.
func (t *MailjetTransport) Send(ctx context.Context, msg Message) error {
	if err := validate(msg); err != nil {
		return err
	}

	for start := 0; start < len(msg.To); start += mailjetBatchSize {
		end := min(start+mailjetBatchSize, len(msg.To))
		if err := t.sendBatch(ctx, msg, msg.To[start:end]); err != nil {
			return err
		}
	}
	return nil
}

func (t *MailjetTransport) sendBatch(ctx context.Context, msg Message, recipients []string) error {
	payload := mjRequest{Messages: make([]mjMessage, 0, len(recipients))}
	for _, rcpt := range recipients {
		payload.Messages = append(payload.Messages, mjMessage{
			From:     mjAddress{Email: t.sender.Email, Name: t.sender.Name},
			To:       []mjAddress{{Email: rcpt}},
			Subject:  msg.Subject,
			HTMLPart: msg.HTML,
		})
	}

	body, err := json.Marshal(payload)
	if err != nil {
		return fmt.Errorf("mailjet: encode request: %w", err)
	}

	req, err := http.NewRequestWithContext(ctx, http.MethodPost, t.baseURL+"/v3.1/send", bytes.NewReader(body))
	if err != nil {
		return fmt.Errorf("mailjet: request creation failed: %w", err)
	}
	req.Header.Set("Content-Type", "application/json")
	req.SetBasicAuth(t.apiKey, t.secretKey)

	resp, err := t.client.Do(req)
	if err != nil {
		return fmt.Errorf("mailjet: request failed: %w", err)
	}
	defer resp.Body.Close() //nolint:errcheck // best-effort close

	if resp.StatusCode != http.StatusOK {
		respBody, _ := io.ReadAll(resp.Body)
		return fmt.Errorf("mailjet: API returned status %d: %s", resp.StatusCode, string(respBody))
	}

	var result mjResponse
	if err := json.NewDecoder(resp.Body).Decode(&result); err != nil {
		return fmt.Errorf("mailjet: failed to decode response: %w", err)
	}
	for i, m := range result.Messages {
		if m.Status == "success" {
			continue
		}
		reason := m.Status
		if len(m.Errors) > 0 {
			reason = m.Errors[0].ErrorMessage
		}
		return fmt.Errorf("mailjet: message %d not accepted: %s", i, reason)
	}
	return nil
}
