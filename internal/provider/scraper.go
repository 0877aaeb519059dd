package provider

import (
	"context"
	"fmt"

	"go.uber.org/zap"

	"ratebot/internal/config"
	"ratebot/internal/rates"
)

var _ RatesProvider = (*ScrapingProvider)(nil)

// ScrapingProvider fetches a source page and extracts its rate row.
type ScrapingProvider struct {
	fetcher PageFetcher
	log     *zap.SugaredLogger
}

// NewScrapingProvider creates a new ScrapingProvider.
func NewScrapingProvider(fetcher PageFetcher, logger *zap.SugaredLogger) *ScrapingProvider {
	return &ScrapingProvider{fetcher: fetcher, log: logger}
}

// GetRates fetches source.URL and extracts the buy/sell pair.
// Extraction failures wrap rates.ErrNotFound.
func (p *ScrapingProvider) GetRates(ctx context.Context, source config.SourceConfig) (rates.Pair, error) {
	page, err := p.fetcher.Fetch(ctx, source.URL)
	if err != nil {
		return rates.Pair{}, fmt.Errorf("fetch %s: %w", source.Name, err)
	}

	res, err := rates.NewExtractor(source.Anchor).Extract(page)
	if err != nil {
		return rates.Pair{}, fmt.Errorf("extract %s: %w", source.Name, err)
	}
	if res.Confidence == rates.ConfidenceLow {
		p.log.Warnw("Anchor not found, used first row heuristic",
			"source", source.Name, "anchor", source.Anchor)
	}
	return res.Pair, nil
}
