package api

import (
	"context"

	"ratebot/internal/service"
)

// mockReportService implements service.ReportServiceInterface for testing.
type mockReportService struct {
	requestRunFunc      func(ctx context.Context) (string, string, error)
	getRunFunc          func(ctx context.Context, runID string) (*service.RunResult, error)
	getLatestReportFunc func(ctx context.Context) (*service.LatestReport, error)
	previewFunc         func(ctx context.Context) (string, error)
}

func (m *mockReportService) RequestRun(ctx context.Context) (string, string, error) {
	return m.requestRunFunc(ctx)
}

func (m *mockReportService) GetRun(ctx context.Context, runID string) (*service.RunResult, error) {
	return m.getRunFunc(ctx, runID)
}

func (m *mockReportService) GetLatestReport(ctx context.Context) (*service.LatestReport, error) {
	return m.getLatestReportFunc(ctx)
}

func (m *mockReportService) Preview(ctx context.Context) (string, error) {
	return m.previewFunc(ctx)
}

func (m *mockReportService) ProcessRun(_ context.Context, _ string) error {
	return nil // Not used in handler tests
}
