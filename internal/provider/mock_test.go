package provider

import (
	"context"

	"github.com/stretchr/testify/mock"

	"ratebot/internal/config"
	"ratebot/internal/rates"
)

type MockProvider struct {
	mock.Mock
}

func (m *MockProvider) GetRates(ctx context.Context, source config.SourceConfig) (rates.Pair, error) {
	args := m.Called(ctx, source)
	return args.Get(0).(rates.Pair), args.Error(1)
}

type MockFetcher struct {
	mock.Mock
}

func (m *MockFetcher) Fetch(ctx context.Context, url string) (string, error) {
	args := m.Called(ctx, url)
	return args.String(0), args.Error(1)
}
