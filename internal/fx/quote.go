package fx

import (
	"time"

	"github.com/shopspring/decimal"

	"github.com/josh-kwaku/collective-ledger/internal/domain"
)

// Quote is a mid-market rate: one unit of Base buys Rate units of Target.
type Quote struct {
	Base   domain.Currency
	Target domain.Currency
	Rate   decimal.Decimal
	AsOf   time.Time
}

func identityQuote(c domain.Currency, now time.Time) *Quote {
	return &Quote{Base: c, Target: c, Rate: decimal.NewFromInt(1), AsOf: now}
}
