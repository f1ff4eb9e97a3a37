package currency

import (
	"context"
	"sync"
	"time"

	"essentia/internal/core/types"
	"essentia/pkg/logger"
)

// CachedConverter wraps a RateSource with a TTL cache and a fixed
// fallback rate. A source failure first falls back to a stale cached
// rate, then to the configured fallback; the caller always gets a
// conversion with its source labelled.
type CachedConverter struct {
	source RateSource
	ttl    time.Duration

	// fallbackRate applies to the configured base/display pair when
	// neither the source nor the cache can serve
	fallbackRate types.Money

	mu    sync.RWMutex
	cache map[string]cachedRate
}

type cachedRate struct {
	rate      types.Money
	fetchedAt time.Time
}

// CachedConverterOption configures a CachedConverter.
type CachedConverterOption func(*CachedConverter)

// WithTTL sets the cache freshness window.
func WithTTL(ttl time.Duration) CachedConverterOption {
	return func(c *CachedConverter) { c.ttl = ttl }
}

// WithFallbackRate sets the rate of last resort.
func WithFallbackRate(rate types.Money) CachedConverterOption {
	return func(c *CachedConverter) { c.fallbackRate = rate }
}

// NewCachedConverter creates a converter over the given source.
// Defaults: 1 hour TTL, fallback rate 1.
func NewCachedConverter(source RateSource, opts ...CachedConverterOption) *CachedConverter {
	c := &CachedConverter{
		source:       source,
		ttl:          time.Hour,
		fallbackRate: types.MustMoney("1"),
		cache:        make(map[string]cachedRate),
	}
	for _, opt := range opts {
		opt(c)
	}
	return c
}

// Convert implements Converter. Same-currency conversions short-circuit
// with rate 1 and never touch the source.
func (c *CachedConverter) Convert(ctx context.Context, amount types.Money, from, to string) (*Conversion, error) {
	from = NormalizeCode(from)
	to = NormalizeCode(to)

	if err := ValidateCode(from); err != nil {
		return nil, err
	}
	if err := ValidateCode(to); err != nil {
		return nil, err
	}

	if from == to {
		return &Conversion{
			Amount: amount,
			Rate:   types.MustMoney("1"),
			From:   from,
			To:     to,
			Source: SourceIdentity,
		}, nil
	}

	rate, source := c.resolveRate(ctx, from, to)

	return &Conversion{
		Amount: amount.Mul(rate),
		Rate:   rate,
		From:   from,
		To:     to,
		Source: source,
	}, nil
}

func (c *CachedConverter) resolveRate(ctx context.Context, from, to string) (types.Money, string) {
	pair := from + "/" + to

	c.mu.RLock()
	cached, ok := c.cache[pair]
	c.mu.RUnlock()

	if ok && time.Since(cached.fetchedAt) < c.ttl {
		return cached.rate, SourceCache
	}

	rate, err := c.source.Rate(ctx, from, to)
	if err == nil {
		c.mu.Lock()
		c.cache[pair] = cachedRate{rate: rate, fetchedAt: time.Now()}
		c.mu.Unlock()
		return rate, SourceLive
	}

	if ok {
		// Stale beats fabricated.
		logger.Warn(ctx, "rate source failed, serving stale cached rate",
			"pair", pair,
			"age", time.Since(cached.fetchedAt).String(),
			"error", err,
		)
		return cached.rate, SourceCache
	}

	logger.Warn(ctx, "rate source failed with empty cache, using fallback rate",
		"pair", pair,
		"fallback_rate", c.fallbackRate,
		"error", err,
	)
	return c.fallbackRate, SourceFallback
}
