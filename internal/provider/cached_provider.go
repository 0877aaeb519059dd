package provider

import (
	"context"
	"fmt"
	"time"

	"github.com/redis/go-redis/v9"

	"ratebot/internal/config"
	"ratebot/internal/rates"
)

// CachedRatesProviderDecorator wraps a RatesProvider with Redis caching.
// Only successful lookups are cached.
type CachedRatesProviderDecorator struct {
	provider RatesProvider
	cache    *redis.Client
	ttl      time.Duration
}

// NewCachedRatesProvider creates a new CachedRatesProviderDecorator.
func NewCachedRatesProvider(provider RatesProvider, cache *redis.Client, ttl time.Duration) *CachedRatesProviderDecorator {
	return &CachedRatesProviderDecorator{
		provider: provider,
		cache:    cache,
		ttl:      ttl,
	}
}

func cacheKey(source config.SourceConfig) string {
	if source.Anchor == "" {
		return fmt.Sprintf("rates_cache:{%s}", source.URL)
	}
	return fmt.Sprintf("rates_cache:{%s}:%s", source.URL, source.Anchor)
}

// GetRates attempts to read the pair from cache before calling the underlying provider.
func (p *CachedRatesProviderDecorator) GetRates(ctx context.Context, source config.SourceConfig) (rates.Pair, error) {
	if p.cache == nil || p.ttl <= 0 {
		return p.provider.GetRates(ctx, source)
	}

	key := cacheKey(source)

	// check cache
	vals, err := p.cache.HMGet(ctx, key, "buy", "sell").Result()
	if err == nil && len(vals) == 2 && vals[0] != nil && vals[1] != nil {
		buy, ok1 := vals[0].(string)
		sell, ok2 := vals[1].(string)
		if ok1 && ok2 && buy != "" && sell != "" {
			return rates.Pair{Buy: buy, Sell: sell}, nil
		}
	}

	pair, err := p.provider.GetRates(ctx, source)
	if err != nil {
		return rates.Pair{}, err
	}

	pipe := p.cache.Pipeline()
	pipe.HSet(ctx, key, "buy", pair.Buy, "sell", pair.Sell, "fetched_at", time.Now().UTC().Format(time.RFC3339))
	pipe.Expire(ctx, key, p.ttl)
	_, _ = pipe.Exec(ctx)

	return pair, nil
}

var _ RatesProvider = (*CachedRatesProviderDecorator)(nil)
