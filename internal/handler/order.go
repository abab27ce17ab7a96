package handler

import (
	"context"
	"net/http"
	"strings"
	"time"

	"github.com/google/uuid"
	"github.com/shopspring/decimal"

	"github.com/josh-kwaku/collective-ledger/internal/auth"
	"github.com/josh-kwaku/collective-ledger/internal/domain"
	"github.com/josh-kwaku/collective-ledger/internal/logging"
	"github.com/josh-kwaku/collective-ledger/internal/service/order"
)

const IdempotencyKeyHeader = "Idempotency-Key"

type orderService interface {
	CreateOrder(ctx context.Context, req order.CreateOrderRequest) (*domain.Order, error)
	RecordExpense(ctx context.Context, req order.ExpenseRequest) (*domain.Order, error)
	OrderTransactions(ctx context.Context, orderID uuid.UUID) ([]domain.Transaction, error)
}

type OrderHandler struct {
	orders orderService
}

func NewOrderHandler(orders orderService) *OrderHandler {
	return &OrderHandler{orders: orders}
}

type newOrganizationRequest struct {
	Name    string `json:"name"`
	Website string `json:"website"`
}

type createOrderRequest struct {
	CollectiveID                      string                  `json:"collective_id"`
	FromCollectiveID                  *string                 `json:"from_collective_id"`
	FromOrganization                  *newOrganizationRequest `json:"from_organization"`
	PaymentMethodID                   *string                 `json:"payment_method_id"`
	TotalAmount                       int64                   `json:"total_amount"`
	Currency                          string                  `json:"currency"`
	PaymentProcessorFeeInHostCurrency int64                   `json:"payment_processor_fee_in_host_currency"`
	Description                       string                  `json:"description"`
}

type createExpenseRequest struct {
	CollectiveID                      string  `json:"collective_id"`
	PayeeCollectiveID                 string  `json:"payee_collective_id"`
	PaymentMethodID                   *string `json:"payment_method_id"`
	Amount                            int64   `json:"amount"`
	Currency                          string  `json:"currency"`
	PaymentProcessorFeeInHostCurrency int64   `json:"payment_processor_fee_in_host_currency"`
	Description                       string  `json:"description"`
	FxQuote                           *string `json:"fx_quote"`
	NetAmountInCollectiveCurrency     *int64  `json:"net_amount_in_collective_currency"`
}

type orderResponse struct {
	ID               string  `json:"id"`
	IdempotencyKey   string  `json:"idempotency_key"`
	FromCollectiveID string  `json:"from_collective_id"`
	CollectiveID     string  `json:"collective_id"`
	PaymentMethodID  *string `json:"payment_method_id"`
	TotalAmount      int64   `json:"total_amount"`
	Currency         string  `json:"currency"`
	Description      string  `json:"description"`
	Status           string  `json:"status"`
	FailureReason    *string `json:"failure_reason,omitempty"`
	CreatedAt        string  `json:"created_at"`
}

func toOrderResponse(o *domain.Order) orderResponse {
	return orderResponse{
		ID:               o.ID.String(),
		IdempotencyKey:   o.IdempotencyKey,
		FromCollectiveID: o.FromCollectiveID.String(),
		CollectiveID:     o.CollectiveID.String(),
		PaymentMethodID:  uuidString(o.PaymentMethodID),
		TotalAmount:      o.TotalAmount,
		Currency:         string(o.Currency),
		Description:      o.Description,
		Status:           string(o.Status),
		FailureReason:    o.FailureReason,
		CreatedAt:        o.CreatedAt.UTC().Format(time.RFC3339),
	}
}

func uuidString(id *uuid.UUID) *string {
	if id == nil {
		return nil
	}
	s := id.String()
	return &s
}

// respondOrder reports a failed order with 422 and its reason so clients
// can tell a recorded failure from a transport error.
func respondOrder(w http.ResponseWriter, o *domain.Order) {
	status := http.StatusCreated
	if o.Status == domain.OrderStatusError {
		status = http.StatusUnprocessableEntity
	}
	RespondSuccess(w, status, toOrderResponse(o))
}

func (h *OrderHandler) CreateOrder(w http.ResponseWriter, r *http.Request) {
	userID, ok := auth.UserIDFromContext(r.Context())
	if !ok {
		RespondAppError(w, ErrMissingToken, nil)
		return
	}

	var body createOrderRequest
	if !decodeJSON(w, r, &body) {
		return
	}

	var errs fieldErrors
	collectiveID := errs.uuid("collective_id", body.CollectiveID)
	fromID := errs.optionalUUID("from_collective_id", body.FromCollectiveID)
	pmID := errs.optionalUUID("payment_method_id", body.PaymentMethodID)
	if body.TotalAmount <= 0 {
		errs.add("total_amount", "must be positive")
	}
	if body.PaymentProcessorFeeInHostCurrency < 0 {
		errs.add("payment_processor_fee_in_host_currency", "must not be negative")
	}
	if fromID == nil && body.FromOrganization != nil && strings.TrimSpace(body.FromOrganization.Name) == "" {
		errs.add("from_organization.name", "required")
	}
	if len(errs) > 0 {
		RespondValidationError(w, errs)
		return
	}

	req := order.CreateOrderRequest{
		IdempotencyKey:                    r.Header.Get(IdempotencyKeyHeader),
		CreatedByUserID:                   userID,
		CollectiveID:                      collectiveID,
		FromCollectiveID:                  fromID,
		PaymentMethodID:                   pmID,
		TotalAmount:                       body.TotalAmount,
		Currency:                          domain.Currency(strings.ToUpper(body.Currency)),
		PaymentProcessorFeeInHostCurrency: body.PaymentProcessorFeeInHostCurrency,
		Description:                       body.Description,
	}
	if fromID == nil && body.FromOrganization != nil {
		req.FromOrganization = &order.NewOrganization{
			Name:    body.FromOrganization.Name,
			Website: body.FromOrganization.Website,
		}
	}

	o, err := h.orders.CreateOrder(r.Context(), req)
	if err != nil {
		logging.FromContext(r.Context()).Warn("create order failed", "error", err, "collective_id", collectiveID)
		RespondDomainError(w, err)
		return
	}
	respondOrder(w, o)
}

func (h *OrderHandler) RecordExpense(w http.ResponseWriter, r *http.Request) {
	userID, ok := auth.UserIDFromContext(r.Context())
	if !ok {
		RespondAppError(w, ErrMissingToken, nil)
		return
	}

	var body createExpenseRequest
	if !decodeJSON(w, r, &body) {
		return
	}

	var errs fieldErrors
	collectiveID := errs.uuid("collective_id", body.CollectiveID)
	payeeID := errs.uuid("payee_collective_id", body.PayeeCollectiveID)
	pmID := errs.optionalUUID("payment_method_id", body.PaymentMethodID)
	if body.Amount <= 0 {
		errs.add("amount", "must be positive")
	}
	if body.PaymentProcessorFeeInHostCurrency < 0 {
		errs.add("payment_processor_fee_in_host_currency", "must not be negative")
	}
	var fxQuote *decimal.Decimal
	if body.FxQuote != nil {
		d, err := decimal.NewFromString(*body.FxQuote)
		if err != nil || !d.IsPositive() {
			errs.add("fx_quote", "must be a positive decimal")
		} else {
			fxQuote = &d
		}
	}
	if len(errs) > 0 {
		RespondValidationError(w, errs)
		return
	}

	o, err := h.orders.RecordExpense(r.Context(), order.ExpenseRequest{
		IdempotencyKey:                    r.Header.Get(IdempotencyKeyHeader),
		CreatedByUserID:                   userID,
		CollectiveID:                      collectiveID,
		PayeeCollectiveID:                 payeeID,
		PaymentMethodID:                   pmID,
		Amount:                            body.Amount,
		Currency:                          domain.Currency(strings.ToUpper(body.Currency)),
		PaymentProcessorFeeInHostCurrency: body.PaymentProcessorFeeInHostCurrency,
		Description:                       body.Description,
		FxQuote:                           fxQuote,
		NetAmountInCollectiveCurrency:     body.NetAmountInCollectiveCurrency,
	})
	if err != nil {
		logging.FromContext(r.Context()).Warn("record expense failed", "error", err, "collective_id", collectiveID)
		RespondDomainError(w, err)
		return
	}
	respondOrder(w, o)
}

func (h *OrderHandler) ListOrderTransactions(w http.ResponseWriter, r *http.Request) {
	orderID, ok := pathUUID(w, r, "id")
	if !ok {
		return
	}

	txns, err := h.orders.OrderTransactions(r.Context(), orderID)
	if err != nil {
		logging.FromContext(r.Context()).Warn("list order transactions failed", "error", err, "order_id", orderID)
		RespondDomainError(w, err)
		return
	}

	items := make([]transactionResponse, len(txns))
	for i := range txns {
		items[i] = toTransactionResponse(&txns[i])
	}
	RespondSuccess(w, http.StatusOK, items)
}
