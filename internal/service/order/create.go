package order

import (
	"context"
	"errors"
	"fmt"
	"regexp"
	"strings"
	"time"

	"github.com/google/uuid"

	"github.com/josh-kwaku/collective-ledger/internal/domain"
	"github.com/josh-kwaku/collective-ledger/internal/ledger"
	"github.com/josh-kwaku/collective-ledger/internal/repository"
)

const (
	maxSlugAttempts = 5

	kindOrder   = "order"
	kindExpense = "expense"
)

var nonSlugChars = regexp.MustCompile(`[^a-z0-9]+`)

type NewOrganization struct {
	Name    string
	Website string
}

type CreateOrderRequest struct {
	IdempotencyKey   string
	CreatedByUserID  uuid.UUID
	CollectiveID     uuid.UUID
	FromCollectiveID *uuid.UUID
	// FromOrganization creates the paying organization when
	// FromCollectiveID is not given.
	FromOrganization                  *NewOrganization
	PaymentMethodID                   *uuid.UUID
	TotalAmount                       int64
	Currency                          domain.Currency
	PaymentProcessorFeeInHostCurrency int64
	Description                       string
}

// CreateOrder records a contribution or fund addition. Replaying an
// idempotency key with the same request returns the order stored the first
// time; any other request under that key fails with ErrIdempotencyConflict.
func (s *Service) CreateOrder(ctx context.Context, req CreateOrderRequest) (*domain.Order, error) {
	if err := validateCreate(req); err != nil {
		return nil, fmt.Errorf("CreateOrder: %w", err)
	}
	fingerprint, err := requestFingerprint(kindOrder, req)
	if err != nil {
		return nil, fmt.Errorf("CreateOrder: %w", err)
	}

	if o, err := s.existing(ctx, req.IdempotencyKey, fingerprint); err != nil || o != nil {
		if err != nil {
			return nil, fmt.Errorf("CreateOrder: %w", err)
		}
		return o, nil
	}

	collective, err := s.collectives.GetByID(ctx, req.CollectiveID)
	if err != nil {
		return nil, fmt.Errorf("CreateOrder: %w", err)
	}
	hostID, err := s.resolveHost(collective)
	if err != nil {
		return nil, fmt.Errorf("CreateOrder: %w", err)
	}

	if req.PaymentMethodID != nil {
		if _, err := s.paymentMethods.GetByID(ctx, *req.PaymentMethodID); err != nil {
			return nil, fmt.Errorf("CreateOrder: %w", err)
		}
	}

	currency := req.Currency
	if currency == "" {
		currency = collective.Currency
	}
	if currency != collective.Currency {
		return nil, fmt.Errorf("CreateOrder: %s order for collective keeping %s: %w",
			currency, collective.Currency, domain.ErrCurrencyMismatch)
	}

	fromID, err := s.resolveFrom(ctx, req, currency)
	if err != nil {
		return nil, fmt.Errorf("CreateOrder: %w", err)
	}

	now := time.Now().UTC()
	o, created, err := s.persistPending(ctx, &domain.Order{
		ID:                 uuid.New(),
		IdempotencyKey:     req.IdempotencyKey,
		FromCollectiveID:   fromID,
		CollectiveID:       collective.ID,
		PaymentMethodID:    req.PaymentMethodID,
		TotalAmount:        req.TotalAmount,
		Currency:           currency,
		Description:        req.Description,
		Status:             domain.OrderStatusPending,
		RequestFingerprint: fingerprint,
		CreatedByUserID:    req.CreatedByUserID,
		CreatedAt:          now,
		UpdatedAt:          now,
	})
	if err != nil {
		return nil, fmt.Errorf("CreateOrder: %w", err)
	}
	if !created {
		return o, nil
	}

	o, err = s.settle(ctx, o, ledger.Request{
		OrderID:                           o.ID,
		FromCollectiveID:                  fromID,
		CollectiveID:                      collective.ID,
		HostCollectiveID:                  hostID,
		CreatedByUserID:                   req.CreatedByUserID,
		PaymentMethodID:                   req.PaymentMethodID,
		Amount:                            req.TotalAmount,
		Currency:                          currency,
		PaymentProcessorFeeInHostCurrency: req.PaymentProcessorFeeInHostCurrency,
		Description:                       req.Description,
	})
	if err != nil {
		return nil, fmt.Errorf("CreateOrder: %w", err)
	}
	return o, nil
}

func validateCreate(req CreateOrderRequest) error {
	if strings.TrimSpace(req.IdempotencyKey) == "" {
		return fmt.Errorf("validateCreate: missing idempotency key: %w", domain.ErrInvalidRequest)
	}
	if req.TotalAmount <= 0 {
		return fmt.Errorf("validateCreate: total amount must be positive: %w", domain.ErrInvalidAmount)
	}
	if req.FromCollectiveID == nil && req.FromOrganization == nil {
		return fmt.Errorf("validateCreate: fromCollective or a new organization is required: %w", domain.ErrInvalidRequest)
	}
	if req.FromCollectiveID == nil && strings.TrimSpace(req.FromOrganization.Name) == "" {
		return fmt.Errorf("validateCreate: organization name is required: %w", domain.ErrInvalidRequest)
	}
	if req.PaymentProcessorFeeInHostCurrency < 0 {
		return fmt.Errorf("validateCreate: negative payment processor fee: %w", domain.ErrInvalidAmount)
	}
	return nil
}

func (s *Service) resolveFrom(ctx context.Context, req CreateOrderRequest, currency domain.Currency) (uuid.UUID, error) {
	if req.FromCollectiveID != nil {
		from, err := s.collectives.GetByID(ctx, *req.FromCollectiveID)
		if err != nil {
			return uuid.Nil, fmt.Errorf("resolveFrom: %w", err)
		}
		return from.ID, nil
	}

	org, err := s.createOrganization(ctx, *req.FromOrganization, req.CreatedByUserID, currency)
	if err != nil {
		return uuid.Nil, fmt.Errorf("resolveFrom: %w", err)
	}
	return org.ID, nil
}

func (s *Service) createOrganization(ctx context.Context, in NewOrganization, createdBy uuid.UUID, currency domain.Currency) (*domain.Collective, error) {
	org := &domain.Collective{
		ID:              uuid.New(),
		Name:            strings.TrimSpace(in.Name),
		Type:            domain.CollectiveTypeOrganization,
		Currency:        currency,
		CreatedByUserID: createdBy,
		CreatedAt:       time.Now().UTC(),
	}
	if w := strings.TrimSpace(in.Website); w != "" {
		org.Website = &w
	}

	base := Slugify(org.Name)
	for attempt := range maxSlugAttempts {
		org.Slug = base
		if attempt > 0 {
			org.Slug = fmt.Sprintf("%s-%s", base, uuid.NewString()[:6])
		}
		err := s.collectives.Create(ctx, org)
		if err == nil {
			return org, nil
		}
		if !errors.Is(err, repository.ErrSlugTaken) {
			return nil, fmt.Errorf("createOrganization: %w", err)
		}
	}
	return nil, fmt.Errorf("createOrganization: no free slug for %q: %w", base, repository.ErrSlugTaken)
}

// Slugify lowercases name and collapses every run of other characters
// into a single dash.
func Slugify(name string) string {
	slug := strings.Trim(nonSlugChars.ReplaceAllString(strings.ToLower(name), "-"), "-")
	if slug == "" {
		return "org"
	}
	return slug
}
