package ledger

import (
	"testing"

	"github.com/shopspring/decimal"
	"github.com/stretchr/testify/assert"

	"github.com/josh-kwaku/collective-ledger/internal/domain"
)

func TestRoundHalfUp(t *testing.T) {
	tests := []struct {
		in   string
		want int64
	}{
		{"1165.4", 1165},
		{"58.25", 58},
		{"49.5", 50},
		{"-1150", -1150},
		{"-0.5", 0},
		{"-1.5", -1},
		{"-1.51", -2},
		{"0", 0},
	}

	for _, tc := range tests {
		t.Run(tc.in, func(t *testing.T) {
			assert.Equal(t, tc.want, roundHalfUp(decimal.RequireFromString(tc.in)))
		})
	}
}

func TestFeePolicy(t *testing.T) {
	five := decimal.NewFromInt(5)

	t.Run("host fee on inflow", func(t *testing.T) {
		assert.Equal(t, int64(58), FeePolicy{}.HostFee(1165, five, false))
	})

	t.Run("host funded pays no fees", func(t *testing.T) {
		p := NewFeePolicy(5)
		assert.Zero(t, p.HostFee(1165, five, true))
		assert.Zero(t, p.PlatformFee(1165, true))
	})

	t.Run("outflows carry no percentage fees", func(t *testing.T) {
		p := NewFeePolicy(5)
		assert.Zero(t, p.HostFee(-1150, five, false))
		assert.Zero(t, p.PlatformFee(-1150, false))
	})

	t.Run("default platform fee is zero", func(t *testing.T) {
		assert.Zero(t, NewFeePolicy(0).PlatformFee(100000, false))
	})

	t.Run("fractional percentage", func(t *testing.T) {
		assert.Equal(t, int64(25), NewFeePolicy(2.5).PlatformFee(1000, false))
	})
}

func TestStoredRate(t *testing.T) {
	tests := []struct {
		quote string
		want  string
	}{
		{"1", "1"},
		{"1.1654", "0.858074480864939"},
		{"1.15", "0.869565217391304"},
		{"0.8", "1.25"},
	}

	for _, tc := range tests {
		t.Run(tc.quote, func(t *testing.T) {
			got := StoredRate(decimal.RequireFromString(tc.quote))
			assert.True(t, got.Equal(decimal.RequireFromString(tc.want)), "got %s", got)
		})
	}
}

func TestBuildPair_DebitMirrorsCredit(t *testing.T) {
	f := newFixture(t)
	req := f.addFundsRequest(f.user.ID)
	req.PaymentMethodID = &f.paypal.ID
	req.PaymentProcessorFeeInHostCurrency = 35

	pair := buildPair(pairInputs{
		req:            req,
		hostCurrency:   domain.CurrencyUSD,
		hostFeePercent: decimal.NewFromInt(5),
		quote:          decimal.RequireFromString(eurUsd),
		policy:         FeePolicy{},
	})

	d, c := pair.Debit, pair.Credit
	assert.NotEqual(t, d.ID, c.ID)
	assert.Equal(t, c.FromCollectiveID, d.CollectiveID)
	assert.Equal(t, c.CollectiveID, d.FromCollectiveID)
	assert.Equal(t, -c.Amount, d.Amount)
	assert.Equal(t, -c.AmountInHostCurrency, d.AmountInHostCurrency)
	assert.Equal(t, -c.NetAmountInCollectiveCurrency, d.NetAmountInCollectiveCurrency)
	assert.True(t, c.HostCurrencyFxRate.Equal(d.HostCurrencyFxRate))
	assert.Equal(t, c.HostFeeInHostCurrency, d.HostFeeInHostCurrency)
	assert.Equal(t, c.PaymentProcessorFeeInHostCurrency, d.PaymentProcessorFeeInHostCurrency)
	assert.Equal(t, c.PaymentMethodID, d.PaymentMethodID)
	assert.Equal(t, c.HostCurrency, d.HostCurrency)
	// (58 + 35) / 1.1654 = 79.8
	assert.Equal(t, int64(920), c.NetAmountInCollectiveCurrency)
}
