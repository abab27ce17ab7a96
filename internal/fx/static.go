package fx

import (
	"context"
	"fmt"
	"sync"
	"time"

	"github.com/shopspring/decimal"

	"github.com/josh-kwaku/collective-ledger/internal/domain"
)

// StaticRates serves quotes from an in-memory table. Used by the mock FX
// server and in development.
type StaticRates struct {
	mu    sync.RWMutex
	rates map[string]decimal.Decimal
	asOf  time.Time
}

func NewStaticRates(rates map[string]decimal.Decimal) *StaticRates {
	s := &StaticRates{rates: make(map[string]decimal.Decimal, len(rates)), asOf: time.Now().UTC()}
	for k, v := range rates {
		s.rates[k] = v
	}
	return s
}

func DefaultStaticRates() *StaticRates {
	return NewStaticRates(map[string]decimal.Decimal{
		"EUR_USD": decimal.RequireFromString("1.1654"),
		"USD_EUR": decimal.RequireFromString("0.8581"),
		"GBP_USD": decimal.RequireFromString("1.3197"),
		"USD_GBP": decimal.RequireFromString("0.7577"),
		"EUR_GBP": decimal.RequireFromString("0.8831"),
		"GBP_EUR": decimal.RequireFromString("1.1324"),
		"USD_CAD": decimal.RequireFromString("1.2718"),
		"USD_MXN": decimal.RequireFromString("19.1385"),
		"USD_AUD": decimal.RequireFromString("1.3052"),
	})
}

func pairKey(base, target domain.Currency) string {
	return string(base) + "_" + string(target)
}

func (s *StaticRates) Set(base, target domain.Currency, rate decimal.Decimal) {
	s.mu.Lock()
	defer s.mu.Unlock()
	s.rates[pairKey(base, target)] = rate
	s.asOf = time.Now().UTC()
}

func (s *StaticRates) GetRate(_ context.Context, base, target domain.Currency) (*Quote, error) {
	if base == target {
		return identityQuote(base, time.Now().UTC()), nil
	}

	s.mu.RLock()
	defer s.mu.RUnlock()

	if rate, ok := s.rates[pairKey(base, target)]; ok {
		return &Quote{Base: base, Target: target, Rate: rate, AsOf: s.asOf}, nil
	}
	// Fall back to the inverse pair when only one direction is listed.
	if inv, ok := s.rates[pairKey(target, base)]; ok && inv.IsPositive() {
		return &Quote{
			Base:   base,
			Target: target,
			Rate:   decimal.NewFromInt(1).DivRound(inv, 16),
			AsOf:   s.asOf,
		}, nil
	}

	return nil, fmt.Errorf("GetRate: no quote for %s/%s: %w", base, target, domain.ErrRateUnavailable)
}
