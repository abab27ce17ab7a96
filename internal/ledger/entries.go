package ledger

import (
	"time"

	"github.com/google/uuid"
	"github.com/shopspring/decimal"

	"github.com/josh-kwaku/collective-ledger/internal/domain"
)

// RatePrecision is the number of decimal places kept on the stored rate.
const RatePrecision = 15

type Request struct {
	OrderID                           uuid.UUID
	FromCollectiveID                  uuid.UUID
	CollectiveID                      uuid.UUID
	HostCollectiveID                  uuid.UUID
	CreatedByUserID                   uuid.UUID
	PaymentMethodID                   *uuid.UUID
	Amount                            int64
	Currency                          domain.Currency
	HostCurrency                      domain.Currency
	PaymentProcessorFeeInHostCurrency int64
	Description                       string

	// FxQuote, when set, is used instead of asking the rate provider.
	// It is expressed as host-currency units per collective-currency unit.
	FxQuote *decimal.Decimal
	// NetAmountInCollectiveCurrency, when set, is recorded as given.
	NetAmountInCollectiveCurrency *int64
}

type Pair struct {
	Debit  *domain.Transaction
	Credit *domain.Transaction
}

// StoredRate converts a provider quote into the persisted
// hostCurrencyFxRate: the reciprocal, fixed to RatePrecision places.
func StoredRate(quote decimal.Decimal) decimal.Decimal {
	if quote.Equal(decimal.NewFromInt(1)) {
		return decimal.NewFromInt(1)
	}
	return decimal.NewFromInt(1).DivRound(quote, RatePrecision)
}

type pairInputs struct {
	req            Request
	hostCurrency   domain.Currency
	hostFeePercent decimal.Decimal
	quote          decimal.Decimal
	policy         FeePolicy
	now            time.Time
}

func buildPair(in pairInputs) *Pair {
	req := in.req
	hostFunded := req.FromCollectiveID == req.HostCollectiveID

	amountInHost := roundHalfUp(decimal.NewFromInt(req.Amount).Mul(in.quote))
	hostFee := in.policy.HostFee(amountInHost, in.hostFeePercent, hostFunded)
	platformFee := in.policy.PlatformFee(amountInHost, hostFunded)
	ppFee := req.PaymentProcessorFeeInHostCurrency

	var net int64
	if req.NetAmountInCollectiveCurrency != nil {
		net = *req.NetAmountInCollectiveCurrency
	} else {
		fees := decimal.NewFromInt(hostFee + platformFee + ppFee)
		net = req.Amount - roundHalfUp(fees.Div(in.quote))
	}

	credit := &domain.Transaction{
		ID:                                uuid.New(),
		OrderID:                           req.OrderID,
		Type:                              domain.TransactionTypeCredit,
		FromCollectiveID:                  req.FromCollectiveID,
		CollectiveID:                      req.CollectiveID,
		HostCollectiveID:                  req.HostCollectiveID,
		CreatedByUserID:                   req.CreatedByUserID,
		PaymentMethodID:                   req.PaymentMethodID,
		Amount:                            req.Amount,
		Currency:                          req.Currency,
		HostCurrency:                      in.hostCurrency,
		HostCurrencyFxRate:                StoredRate(in.quote),
		AmountInHostCurrency:              amountInHost,
		HostFeeInHostCurrency:             hostFee,
		PlatformFeeInHostCurrency:         platformFee,
		PaymentProcessorFeeInHostCurrency: ppFee,
		NetAmountInCollectiveCurrency:     net,
		Description:                       req.Description,
		CreatedAt:                         in.now,
	}

	debit := *credit
	debit.ID = uuid.New()
	debit.Type = domain.TransactionTypeDebit
	debit.FromCollectiveID = req.CollectiveID
	debit.CollectiveID = req.FromCollectiveID
	debit.Amount = -credit.Amount
	debit.AmountInHostCurrency = -credit.AmountInHostCurrency
	debit.NetAmountInCollectiveCurrency = -credit.NetAmountInCollectiveCurrency

	return &Pair{Debit: &debit, Credit: credit}
}
