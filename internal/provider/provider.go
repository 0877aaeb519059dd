// Package provider fetches bank rate pages and turns them into buy/sell rate pairs.
package provider

import (
	"context"

	"ratebot/internal/config"
	"ratebot/internal/rates"
)

// RatesProvider defines an interface for fetching the rates published by one source.
type RatesProvider interface {
	GetRates(ctx context.Context, source config.SourceConfig) (rates.Pair, error)
}

// PageFetcher retrieves the markup of a page.
type PageFetcher interface {
	Fetch(ctx context.Context, url string) (string, error)
}
