package fx

import (
	"context"
	"testing"

	"github.com/shopspring/decimal"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/josh-kwaku/collective-ledger/internal/domain"
)

func TestStaticRates_GetRate(t *testing.T) {
	svc := NewStaticRates(map[string]decimal.Decimal{
		"EUR_USD": decimal.RequireFromString("1.1654"),
		"USD_GBP": decimal.RequireFromString("0.8"),
	})
	ctx := context.Background()

	tests := []struct {
		name     string
		base     domain.Currency
		target   domain.Currency
		wantRate string
		wantErr  error
	}{
		{name: "listed pair", base: domain.CurrencyEUR, target: domain.CurrencyUSD, wantRate: "1.1654"},
		{name: "inverse pair", base: domain.CurrencyGBP, target: domain.CurrencyUSD, wantRate: "1.25"},
		{name: "same currency", base: domain.CurrencyEUR, target: domain.CurrencyEUR, wantRate: "1"},
		{name: "unknown pair", base: domain.CurrencyEUR, target: domain.CurrencyMXN, wantErr: domain.ErrRateUnavailable},
	}

	for _, tc := range tests {
		t.Run(tc.name, func(t *testing.T) {
			quote, err := svc.GetRate(ctx, tc.base, tc.target)
			if tc.wantErr != nil {
				require.ErrorIs(t, err, tc.wantErr)
				return
			}
			require.NoError(t, err)
			assert.True(t, quote.Rate.Equal(decimal.RequireFromString(tc.wantRate)),
				"rate: got %s, want %s", quote.Rate, tc.wantRate)
		})
	}
}

func TestStaticRates_Set(t *testing.T) {
	svc := NewStaticRates(nil)
	svc.Set(domain.CurrencyEUR, domain.CurrencyUSD, decimal.RequireFromString("1.2"))

	quote, err := svc.GetRate(context.Background(), domain.CurrencyEUR, domain.CurrencyUSD)
	require.NoError(t, err)
	assert.Equal(t, "1.2", quote.Rate.String())
}
