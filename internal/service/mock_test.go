package service

import (
	"context"
	"errors"
	"sync"
	"time"

	"ratebot/internal/config"
	"ratebot/internal/mail"
	"ratebot/internal/rates"
	"ratebot/internal/repository"
)

// Mock repository
type mockRunRepo struct {
	createRunFunc        func(ctx context.Context, reportName, id string) (string, error)
	markRunningFunc      func(ctx context.Context, id string) error
	markCompletedFunc    func(ctx context.Context, id string, outcome repository.Outcome) error
	getByIDFunc          func(ctx context.Context, id string) (*repository.Run, error)
	getLatestSuccessFunc func(ctx context.Context, reportName string) (*repository.Run, error)
}

func (m *mockRunRepo) CreateRun(ctx context.Context, reportName, id string) (string, error) {
	return m.createRunFunc(ctx, reportName, id)
}

func (m *mockRunRepo) MarkRunning(ctx context.Context, id string) error {
	if m.markRunningFunc == nil {
		return nil
	}
	return m.markRunningFunc(ctx, id)
}

func (m *mockRunRepo) MarkCompleted(ctx context.Context, id string, outcome repository.Outcome) error {
	return m.markCompletedFunc(ctx, id, outcome)
}

func (m *mockRunRepo) GetByID(ctx context.Context, id string) (*repository.Run, error) {
	return m.getByIDFunc(ctx, id)
}

func (m *mockRunRepo) GetLatestSuccess(ctx context.Context, reportName string) (*repository.Run, error) {
	return m.getLatestSuccessFunc(ctx, reportName)
}

// pageFetcher serves fixed markup per URL; unknown URLs fail like a network error.
type pageFetcher struct {
	pages map[string]string
	delay func(url string) time.Duration
}

func (f *pageFetcher) Fetch(ctx context.Context, url string) (string, error) {
	if f.delay != nil {
		select {
		case <-time.After(f.delay(url)):
		case <-ctx.Done():
			return "", ctx.Err()
		}
	}
	page, ok := f.pages[url]
	if !ok {
		return "", errors.New("connection refused")
	}
	return page, nil
}

// Mock provider
type mockRatesProvider struct {
	getRatesFunc func(ctx context.Context, source config.SourceConfig) (rates.Pair, error)
}

func (m *mockRatesProvider) GetRates(ctx context.Context, source config.SourceConfig) (rates.Pair, error) {
	return m.getRatesFunc(ctx, source)
}

type mockRecipients struct {
	emails []string
	err    error
}

func (m *mockRecipients) ListRecipients(_ context.Context) ([]string, error) {
	return m.emails, m.err
}

type recordingTransport struct {
	mu   sync.Mutex
	sent []mail.Message
	err  error
}

func (t *recordingTransport) Send(_ context.Context, msg mail.Message) error {
	t.mu.Lock()
	defer t.mu.Unlock()
	if t.err != nil {
		return t.err
	}
	t.sent = append(t.sent, msg)
	return nil
}

type mockEnqueuer struct {
	payloads []RunReportPayload
	err      error
}

func (m *mockEnqueuer) EnqueueRunTask(_ context.Context, payload RunReportPayload) error {
	if m.err != nil {
		return m.err
	}
	m.payloads = append(m.payloads, payload)
	return nil
}
