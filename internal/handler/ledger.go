package handler

import (
	"context"
	"net/http"
	"strings"
	"time"

	"github.com/google/uuid"

	"github.com/josh-kwaku/collective-ledger/internal/domain"
	"github.com/josh-kwaku/collective-ledger/internal/ledger"
	"github.com/josh-kwaku/collective-ledger/internal/logging"
)

type ledgerReader interface {
	GetBalance(ctx context.Context, paymentMethodID uuid.UUID, asCurrency domain.Currency) (int64, error)
	PaymentMethodBalances(ctx context.Context, collectiveID uuid.UUID) ([]ledger.PaymentMethodBalance, error)
	ListTransactions(ctx context.Context, filter domain.TransactionFilter) ([]domain.Transaction, int, error)
}

type LedgerHandler struct {
	ledger ledgerReader
}

func NewLedgerHandler(l ledgerReader) *LedgerHandler {
	return &LedgerHandler{ledger: l}
}

type transactionResponse struct {
	ID                                string  `json:"id"`
	OrderID                           string  `json:"order_id"`
	Type                              string  `json:"type"`
	FromCollectiveID                  string  `json:"from_collective_id"`
	CollectiveID                      string  `json:"collective_id"`
	HostCollectiveID                  string  `json:"host_collective_id"`
	CreatedByUserID                   string  `json:"created_by_user_id"`
	PaymentMethodID                   *string `json:"payment_method_id"`
	Amount                            int64   `json:"amount"`
	Currency                          string  `json:"currency"`
	HostCurrency                      string  `json:"host_currency"`
	HostCurrencyFxRate                string  `json:"host_currency_fx_rate"`
	AmountInHostCurrency              int64   `json:"amount_in_host_currency"`
	HostFeeInHostCurrency             int64   `json:"host_fee_in_host_currency"`
	PlatformFeeInHostCurrency         int64   `json:"platform_fee_in_host_currency"`
	PaymentProcessorFeeInHostCurrency int64   `json:"payment_processor_fee_in_host_currency"`
	NetAmountInCollectiveCurrency     int64   `json:"net_amount_in_collective_currency"`
	Description                       string  `json:"description"`
	CreatedAt                         string  `json:"created_at"`
}

func toTransactionResponse(t *domain.Transaction) transactionResponse {
	return transactionResponse{
		ID:                                t.ID.String(),
		OrderID:                           t.OrderID.String(),
		Type:                              string(t.Type),
		FromCollectiveID:                  t.FromCollectiveID.String(),
		CollectiveID:                      t.CollectiveID.String(),
		HostCollectiveID:                  t.HostCollectiveID.String(),
		CreatedByUserID:                   t.CreatedByUserID.String(),
		PaymentMethodID:                   uuidString(t.PaymentMethodID),
		Amount:                            t.Amount,
		Currency:                          string(t.Currency),
		HostCurrency:                      string(t.HostCurrency),
		HostCurrencyFxRate:                t.HostCurrencyFxRate.String(),
		AmountInHostCurrency:              t.AmountInHostCurrency,
		HostFeeInHostCurrency:             t.HostFeeInHostCurrency,
		PlatformFeeInHostCurrency:         t.PlatformFeeInHostCurrency,
		PaymentProcessorFeeInHostCurrency: t.PaymentProcessorFeeInHostCurrency,
		NetAmountInCollectiveCurrency:     t.NetAmountInCollectiveCurrency,
		Description:                       t.Description,
		CreatedAt:                         t.CreatedAt.UTC().Format(time.RFC3339),
	}
}

type paymentMethodResponse struct {
	ID           string `json:"id"`
	CollectiveID string `json:"collective_id"`
	Service      string `json:"service"`
	Name         string `json:"name"`
	Currency     string `json:"currency"`
	Balance      int64  `json:"balance"`
}

type balanceResponse struct {
	PaymentMethodID string `json:"payment_method_id"`
	Currency        string `json:"currency,omitempty"`
	Balance         int64  `json:"balance"`
}

func (h *LedgerHandler) ListTransactions(w http.ResponseWriter, r *http.Request) {
	q := r.URL.Query()

	var errs fieldErrors
	filter := domain.TransactionFilter{
		CollectiveID:    errs.optionalUUID("collective_id", optionalQuery(q.Get("collective_id"))),
		OrderID:         errs.optionalUUID("order_id", optionalQuery(q.Get("order_id"))),
		PaymentMethodID: errs.optionalUUID("payment_method_id", optionalQuery(q.Get("payment_method_id"))),
		Limit:           errs.queryInt(r, "limit"),
		Offset:          errs.queryInt(r, "offset"),
	}
	if raw := strings.ToUpper(q.Get("type")); raw != "" {
		t := domain.TransactionType(raw)
		if t != domain.TransactionTypeCredit && t != domain.TransactionTypeDebit {
			errs.add("type", "must be CREDIT or DEBIT")
		} else {
			filter.Type = &t
		}
	}
	if len(errs) > 0 {
		RespondValidationError(w, errs)
		return
	}

	filter = ledger.ClampFilter(filter)
	txns, total, err := h.ledger.ListTransactions(r.Context(), filter)
	if err != nil {
		logging.FromContext(r.Context()).Error("list transactions failed", "error", err)
		RespondDomainError(w, err)
		return
	}

	items := make([]transactionResponse, len(txns))
	for i := range txns {
		items[i] = toTransactionResponse(&txns[i])
	}
	RespondSuccess(w, http.StatusOK, listResponse[transactionResponse]{
		Items:  items,
		Total:  total,
		Limit:  filter.Limit,
		Offset: filter.Offset,
	})
}

func (h *LedgerHandler) ListPaymentMethods(w http.ResponseWriter, r *http.Request) {
	collectiveID, ok := pathUUID(w, r, "id")
	if !ok {
		return
	}

	balances, err := h.ledger.PaymentMethodBalances(r.Context(), collectiveID)
	if err != nil {
		logging.FromContext(r.Context()).Warn("list payment methods failed", "error", err, "collective_id", collectiveID)
		RespondDomainError(w, err)
		return
	}

	items := make([]paymentMethodResponse, len(balances))
	for i, b := range balances {
		items[i] = paymentMethodResponse{
			ID:           b.PaymentMethod.ID.String(),
			CollectiveID: b.PaymentMethod.CollectiveID.String(),
			Service:      string(b.PaymentMethod.Service),
			Name:         b.PaymentMethod.Name,
			Currency:     string(b.PaymentMethod.Currency),
			Balance:      b.Balance,
		}
	}
	RespondSuccess(w, http.StatusOK, items)
}

// GetBalance answers in the payment method's own currency unless
// ?currency= asks for another one.
func (h *LedgerHandler) GetBalance(w http.ResponseWriter, r *http.Request) {
	pmID, ok := pathUUID(w, r, "id")
	if !ok {
		return
	}
	currency := domain.Currency(strings.ToUpper(r.URL.Query().Get("currency")))

	balance, err := h.ledger.GetBalance(r.Context(), pmID, currency)
	if err != nil {
		logging.FromContext(r.Context()).Warn("balance lookup failed", "error", err, "payment_method_id", pmID, "currency", currency)
		RespondDomainError(w, err)
		return
	}

	RespondSuccess(w, http.StatusOK, balanceResponse{
		PaymentMethodID: pmID.String(),
		Currency:        string(currency),
		Balance:         balance,
	})
}

func optionalQuery(v string) *string {
	if v == "" {
		return nil
	}
	return &v
}
