package domain_test

import (
	"testing"

	"github.com/stretchr/testify/assert"

	"github.com/josh-kwaku/collective-ledger/internal/domain"
)

func TestTransaction_BalanceIn(t *testing.T) {
	// 1000 EUR paid into a USD-hosted collective with 58 host fee and 35
	// processor fee; both legs carry the same fee columns.
	credit := domain.Transaction{
		Type:                              domain.TransactionTypeCredit,
		Amount:                            1000,
		Currency:                          domain.CurrencyEUR,
		HostCurrency:                      domain.CurrencyUSD,
		AmountInHostCurrency:              1165,
		HostFeeInHostCurrency:             58,
		PaymentProcessorFeeInHostCurrency: 35,
		NetAmountInCollectiveCurrency:     920,
	}
	debit := credit
	debit.Type = domain.TransactionTypeDebit
	debit.Amount = -1000
	debit.AmountInHostCurrency = -1165
	debit.NetAmountInCollectiveCurrency = -920

	tests := []struct {
		name   string
		txn    domain.Transaction
		as     domain.Currency
		want   int64
		wantOK bool
	}{
		{"credit in host currency is net of fees", credit, domain.CurrencyUSD, 1072, true},
		{"credit in collective currency", credit, domain.CurrencyEUR, 920, true},
		{"debit in host currency is gross", debit, domain.CurrencyUSD, -1165, true},
		{"debit in collective currency is gross", debit, domain.CurrencyEUR, -1000, true},
		{"unrelated currency", credit, domain.CurrencyGBP, 0, false},
		{"unrelated currency on debit", debit, domain.CurrencyGBP, 0, false},
	}
	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			got, ok := tt.txn.BalanceIn(tt.as)
			assert.Equal(t, tt.wantOK, ok)
			assert.Equal(t, tt.want, got)
		})
	}
}
