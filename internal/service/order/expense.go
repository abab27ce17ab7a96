package order

import (
	"context"
	"fmt"
	"strings"
	"time"

	"github.com/google/uuid"
	"github.com/shopspring/decimal"

	"github.com/josh-kwaku/collective-ledger/internal/domain"
	"github.com/josh-kwaku/collective-ledger/internal/ledger"
)

// ExpenseRequest describes a reimbursement that was already paid out by
// the host, typically through PayPal. Amount is the positive magnitude;
// it is recorded as an outflow of CollectiveID.
type ExpenseRequest struct {
	IdempotencyKey                    string
	CreatedByUserID                   uuid.UUID
	CollectiveID                      uuid.UUID
	PayeeCollectiveID                 uuid.UUID
	PaymentMethodID                   *uuid.UUID
	Amount                            int64
	Currency                          domain.Currency
	PaymentProcessorFeeInHostCurrency int64
	Description                       string

	// Settlement figures reported by the payout, recorded as given.
	FxQuote                       *decimal.Decimal
	NetAmountInCollectiveCurrency *int64
}

func (s *Service) RecordExpense(ctx context.Context, req ExpenseRequest) (*domain.Order, error) {
	if err := validateExpense(req); err != nil {
		return nil, fmt.Errorf("RecordExpense: %w", err)
	}
	fingerprint, err := requestFingerprint(kindExpense, req)
	if err != nil {
		return nil, fmt.Errorf("RecordExpense: %w", err)
	}

	if o, err := s.existing(ctx, req.IdempotencyKey, fingerprint); err != nil || o != nil {
		if err != nil {
			return nil, fmt.Errorf("RecordExpense: %w", err)
		}
		return o, nil
	}

	collective, err := s.collectives.GetByID(ctx, req.CollectiveID)
	if err != nil {
		return nil, fmt.Errorf("RecordExpense: %w", err)
	}
	hostID, err := s.resolveHost(collective)
	if err != nil {
		return nil, fmt.Errorf("RecordExpense: %w", err)
	}
	payee, err := s.collectives.GetByID(ctx, req.PayeeCollectiveID)
	if err != nil {
		return nil, fmt.Errorf("RecordExpense: payee: %w", err)
	}
	if req.PaymentMethodID != nil {
		if _, err := s.paymentMethods.GetByID(ctx, *req.PaymentMethodID); err != nil {
			return nil, fmt.Errorf("RecordExpense: %w", err)
		}
	}

	currency := req.Currency
	if currency == "" {
		currency = collective.Currency
	}

	now := time.Now().UTC()
	o, created, err := s.persistPending(ctx, &domain.Order{
		ID:                 uuid.New(),
		IdempotencyKey:     req.IdempotencyKey,
		FromCollectiveID:   payee.ID,
		CollectiveID:       collective.ID,
		PaymentMethodID:    req.PaymentMethodID,
		TotalAmount:        -req.Amount,
		Currency:           currency,
		Description:        req.Description,
		Status:             domain.OrderStatusPending,
		RequestFingerprint: fingerprint,
		CreatedByUserID:    req.CreatedByUserID,
		CreatedAt:          now,
		UpdatedAt:          now,
	})
	if err != nil {
		return nil, fmt.Errorf("RecordExpense: %w", err)
	}
	if !created {
		return o, nil
	}

	o, err = s.settle(ctx, o, ledger.Request{
		OrderID:                           o.ID,
		FromCollectiveID:                  payee.ID,
		CollectiveID:                      collective.ID,
		HostCollectiveID:                  hostID,
		CreatedByUserID:                   req.CreatedByUserID,
		PaymentMethodID:                   req.PaymentMethodID,
		Amount:                            -req.Amount,
		Currency:                          currency,
		PaymentProcessorFeeInHostCurrency: req.PaymentProcessorFeeInHostCurrency,
		Description:                       req.Description,
		FxQuote:                           req.FxQuote,
		NetAmountInCollectiveCurrency:     req.NetAmountInCollectiveCurrency,
	})
	if err != nil {
		return nil, fmt.Errorf("RecordExpense: %w", err)
	}
	return o, nil
}

func validateExpense(req ExpenseRequest) error {
	if strings.TrimSpace(req.IdempotencyKey) == "" {
		return fmt.Errorf("validateExpense: missing idempotency key: %w", domain.ErrInvalidRequest)
	}
	if req.Amount <= 0 {
		return fmt.Errorf("validateExpense: amount must be positive: %w", domain.ErrInvalidAmount)
	}
	if req.PaymentProcessorFeeInHostCurrency < 0 {
		return fmt.Errorf("validateExpense: negative payment processor fee: %w", domain.ErrInvalidAmount)
	}
	if req.NetAmountInCollectiveCurrency != nil && *req.NetAmountInCollectiveCurrency > 0 {
		return fmt.Errorf("validateExpense: net amount of an outflow cannot be positive: %w", domain.ErrInvalidAmount)
	}
	return nil
}
