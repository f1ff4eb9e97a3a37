package catalog_repo

import (
	"context"
	"fmt"

	"github.com/shopspring/decimal"

	"essentia/internal/core/apperror"
	"essentia/internal/core/types"
	"essentia/internal/domain/currency"
	"essentia/internal/infrastructure/storage/postgres"
)

// CurrencyRateSource implements currency.RateSource from the
// cat_currencies table, where exchange_rate is the amount of that
// currency one base unit buys.
type CurrencyRateSource struct {
	tm *postgres.TxManager
}

// NewCurrencyRateSource creates a rate source backed by cat_currencies.
func NewCurrencyRateSource(tm *postgres.TxManager) *CurrencyRateSource {
	return &CurrencyRateSource{tm: tm}
}

// Rate returns how many units of `to` one unit of `from` buys, derived
// from the two base-relative rates.
func (s *CurrencyRateSource) Rate(ctx context.Context, from, to string) (types.Money, error) {
	sql := `
		SELECT code, exchange_rate
		FROM cat_currencies
		WHERE code = ANY($1)
	`

	rows, err := s.tm.GetQuerier(ctx).Query(ctx, sql, []string{from, to})
	if err != nil {
		return types.Money{}, fmt.Errorf("query rates: %w", err)
	}
	defer rows.Close()

	rates := make(map[string]decimal.Decimal, 2)
	for rows.Next() {
		var code string
		var rate decimal.Decimal
		if err := rows.Scan(&code, &rate); err != nil {
			return types.Money{}, fmt.Errorf("scan rate: %w", err)
		}
		rates[code] = rate
	}
	if err := rows.Err(); err != nil {
		return types.Money{}, fmt.Errorf("read rates: %w", err)
	}

	fromRate, ok := rates[from]
	if !ok || fromRate.IsZero() {
		return types.Money{}, apperror.NewNotFound("currency", from)
	}
	toRate, ok := rates[to]
	if !ok {
		return types.Money{}, apperror.NewNotFound("currency", to)
	}

	return toRate.Div(fromRate), nil
}

var _ currency.RateSource = (*CurrencyRateSource)(nil)
