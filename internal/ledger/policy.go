package ledger

import (
	"github.com/shopspring/decimal"
)

var (
	hundred = decimal.NewFromInt(100)
	half    = decimal.New(5, -1)
)

// FeePolicy holds the platform-level fee configuration. Host fee
// percentages live on the hosted collective, not here.
type FeePolicy struct {
	PlatformFeePercent decimal.Decimal
}

func NewFeePolicy(platformFeePct float64) FeePolicy {
	return FeePolicy{PlatformFeePercent: decimal.NewFromFloat(platformFeePct)}
}

// HostFee is zero when the host funds the entry itself and for outflows.
func (p FeePolicy) HostFee(amountInHostCurrency int64, hostFeePercent decimal.Decimal, hostFunded bool) int64 {
	if hostFunded || amountInHostCurrency <= 0 {
		return 0
	}
	return percentOf(amountInHostCurrency, hostFeePercent)
}

func (p FeePolicy) PlatformFee(amountInHostCurrency int64, hostFunded bool) int64 {
	if hostFunded || amountInHostCurrency <= 0 {
		return 0
	}
	return percentOf(amountInHostCurrency, p.PlatformFeePercent)
}

func percentOf(amount int64, pct decimal.Decimal) int64 {
	if !pct.IsPositive() {
		return 0
	}
	return roundHalfUp(pct.Div(hundred).Mul(decimal.NewFromInt(amount)))
}

// roundHalfUp rounds toward +Inf on ties, matching JavaScript Math.round.
func roundHalfUp(d decimal.Decimal) int64 {
	return d.Add(half).Floor().IntPart()
}
