// Package currency converts monetary amounts between currencies for
// display. Base-currency figures are the source of truth; conversion
// failures degrade to a fallback rate instead of failing the caller.
package currency

import (
	"context"
	"strings"

	"essentia/internal/core/apperror"
	"essentia/internal/core/types"
)

// Rate sources, reported on every conversion so callers can surface
// degraded figures.
const (
	SourceIdentity = "identity"
	SourceLive     = "live"
	SourceCache    = "cache"
	SourceFallback = "fallback"
)

// Conversion is the result of converting an amount.
type Conversion struct {
	Amount types.Money `json:"amount"`
	Rate   types.Money `json:"rate"`
	From   string      `json:"from"`
	To     string      `json:"to"`

	// Source tells where the rate came from: identity, live, cache
	// or fallback
	Source string `json:"source"`
}

// Degraded reports whether the conversion used the fallback rate.
func (c *Conversion) Degraded() bool {
	return c.Source == SourceFallback
}

// Converter converts amounts between currencies.
type Converter interface {
	Convert(ctx context.Context, amount types.Money, from, to string) (*Conversion, error)
}

// RateSource provides exchange rates. Implementations may call an
// external provider; the cached converter shields callers from its
// latency and failures.
type RateSource interface {
	// Rate returns how many units of `to` one unit of `from` buys
	Rate(ctx context.Context, from, to string) (types.Money, error)
}

// NormalizeCode upper-cases and trims a currency code.
func NormalizeCode(code string) string {
	return strings.ToUpper(strings.TrimSpace(code))
}

// ValidateCode checks a currency code is three letters.
func ValidateCode(code string) error {
	code = NormalizeCode(code)
	if len(code) != 3 {
		return apperror.NewInvalidInput("currency code must be 3 letters").
			WithDetail("code", code)
	}
	for _, r := range code {
		if r < 'A' || r > 'Z' {
			return apperror.NewInvalidInput("currency code must be 3 letters").
				WithDetail("code", code)
		}
	}
	return nil
}

// StaticSource serves rates from a fixed table, keyed "FROM/TO".
// Used in tests and deployments without a live provider.
type StaticSource struct {
	rates map[string]types.Money
}

// NewStaticSource creates a source from a FROM/TO rate table.
func NewStaticSource(rates map[string]types.Money) *StaticSource {
	normalized := make(map[string]types.Money, len(rates))
	for pair, rate := range rates {
		normalized[NormalizeCode(pair)] = rate
	}
	return &StaticSource{rates: normalized}
}

// Rate implements RateSource.
func (s *StaticSource) Rate(_ context.Context, from, to string) (types.Money, error) {
	pair := NormalizeCode(from) + "/" + NormalizeCode(to)
	rate, ok := s.rates[pair]
	if !ok {
		return types.Money{}, apperror.NewNotFound("exchange rate", pair)
	}
	return rate, nil
}
