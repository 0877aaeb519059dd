package provider

import (
	"time"

	"github.com/redis/go-redis/v9"
	"go.uber.org/zap"

	"ratebot/internal/config"
)

// NewRatesProvider builds the scraping provider, cached in Redis when cache is set.
func NewRatesProvider(cfg *config.Config, cache *redis.Client, logger *zap.SugaredLogger) RatesProvider {
	scraper := NewScrapingProvider(NewHTTPFetcher(cfg.Scraper.TimeoutSec, cfg.Scraper.UserAgent), logger)
	if cache == nil {
		return scraper
	}
	return NewCachedRatesProvider(scraper, cache, time.Duration(cfg.Cache.RatesTTLSec)*time.Second)
}
