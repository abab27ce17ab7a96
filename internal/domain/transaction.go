package domain

import (
	"time"

	"github.com/google/uuid"
	"github.com/shopspring/decimal"
)

type TransactionType string

const (
	TransactionTypeDebit  TransactionType = "DEBIT"
	TransactionTypeCredit TransactionType = "CREDIT"
)

// Transaction is one leg of a double-entry pair. Rows are append-only.
type Transaction struct {
	ID                                uuid.UUID
	OrderID                           uuid.UUID
	Type                              TransactionType
	FromCollectiveID                  uuid.UUID
	CollectiveID                      uuid.UUID
	HostCollectiveID                  uuid.UUID
	CreatedByUserID                   uuid.UUID
	PaymentMethodID                   *uuid.UUID
	Amount                            int64
	Currency                          Currency
	HostCurrency                      Currency
	HostCurrencyFxRate                decimal.Decimal
	AmountInHostCurrency              int64
	HostFeeInHostCurrency             int64
	PlatformFeeInHostCurrency         int64
	PaymentProcessorFeeInHostCurrency int64
	NetAmountInCollectiveCurrency     int64
	Description                       string
	CreatedAt                         time.Time
}

// TotalFeesInHostCurrency sums the three fee columns.
func (t *Transaction) TotalFeesInHostCurrency() int64 {
	return t.HostFeeInHostCurrency + t.PlatformFeeInHostCurrency + t.PaymentProcessorFeeInHostCurrency
}

// BalanceIn is what this leg adds to a payment method balance read in
// asCurrency. A CREDIT counts net of fees. A DEBIT carries the pair's fee
// columns for reference only, so it counts the gross amount it paid out.
// ok is false when asCurrency is neither the host nor the collective currency.
func (t *Transaction) BalanceIn(asCurrency Currency) (amount int64, ok bool) {
	debit := t.Type == TransactionTypeDebit
	switch {
	case asCurrency == t.HostCurrency && debit:
		return t.AmountInHostCurrency, true
	case asCurrency == t.HostCurrency:
		return t.AmountInHostCurrency - t.TotalFeesInHostCurrency(), true
	case asCurrency == t.Currency && debit:
		return t.Amount, true
	case asCurrency == t.Currency:
		return t.NetAmountInCollectiveCurrency, true
	}
	return 0, false
}

type TransactionFilter struct {
	CollectiveID    *uuid.UUID
	OrderID         *uuid.UUID
	PaymentMethodID *uuid.UUID
	Type            *TransactionType
	Limit           int
	Offset          int
}
