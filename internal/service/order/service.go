// Package order turns incoming contributions, fund additions and expense
// reimbursements into orders and hands them to the ledger engine.
package order

import (
	"context"
	"crypto/sha256"
	"encoding/hex"
	"encoding/json"
	"errors"
	"fmt"
	"time"

	"github.com/cenkalti/backoff/v4"
	"github.com/google/uuid"

	"github.com/josh-kwaku/collective-ledger/internal/config"
	"github.com/josh-kwaku/collective-ledger/internal/domain"
	"github.com/josh-kwaku/collective-ledger/internal/ledger"
	"github.com/josh-kwaku/collective-ledger/internal/logging"
)

type orderRepo interface {
	Create(ctx context.Context, o *domain.Order) error
	GetByID(ctx context.Context, id uuid.UUID) (*domain.Order, error)
	GetByIdempotencyKey(ctx context.Context, key string) (*domain.Order, error)
	UpdateStatus(ctx context.Context, id uuid.UUID, status domain.OrderStatus, failureReason *string) error
}

type collectiveRepo interface {
	GetByID(ctx context.Context, id uuid.UUID) (*domain.Collective, error)
	Create(ctx context.Context, c *domain.Collective) error
}

type paymentMethodRepo interface {
	GetByID(ctx context.Context, id uuid.UUID) (*domain.PaymentMethod, error)
}

type ledgerEngine interface {
	RecordDoubleEntry(ctx context.Context, req ledger.Request) (*ledger.Pair, error)
	ListTransactions(ctx context.Context, filter domain.TransactionFilter) ([]domain.Transaction, int, error)
}

type Option func(*Service)

// WithBackOff replaces the policy used between rate-unavailable retries.
func WithBackOff(newBackOff func() backoff.BackOff) Option {
	return func(s *Service) { s.newBackOff = newBackOff }
}

type Service struct {
	orders         orderRepo
	collectives    collectiveRepo
	paymentMethods paymentMethodRepo
	engine         ledgerEngine
	rateRetries    uint64
	newBackOff     func() backoff.BackOff
}

func NewService(
	orders orderRepo,
	collectives collectiveRepo,
	paymentMethods paymentMethodRepo,
	engine ledgerEngine,
	cfg *config.Config,
	opts ...Option,
) *Service {
	s := &Service{
		orders:         orders,
		collectives:    collectives,
		paymentMethods: paymentMethods,
		engine:         engine,
		rateRetries:    cfg.OrderRateRetries,
		newBackOff:     defaultBackOff,
	}
	for _, opt := range opts {
		opt(s)
	}
	return s
}

func defaultBackOff() backoff.BackOff {
	b := backoff.NewExponentialBackOff()
	b.InitialInterval = 200 * time.Millisecond
	b.MaxInterval = 2 * time.Second
	b.MaxElapsedTime = 10 * time.Second
	return b
}

func (s *Service) GetOrder(ctx context.Context, id uuid.UUID) (*domain.Order, error) {
	o, err := s.orders.GetByID(ctx, id)
	if err != nil {
		return nil, fmt.Errorf("GetOrder: %w", err)
	}
	return o, nil
}

// OrderTransactions returns both legs recorded for an order, or none when
// the order never reached the ledger.
func (s *Service) OrderTransactions(ctx context.Context, orderID uuid.UUID) ([]domain.Transaction, error) {
	if _, err := s.orders.GetByID(ctx, orderID); err != nil {
		return nil, fmt.Errorf("OrderTransactions: %w", err)
	}

	txns, _, err := s.engine.ListTransactions(ctx, domain.TransactionFilter{OrderID: &orderID, Limit: 2})
	if err != nil {
		return nil, fmt.Errorf("OrderTransactions: %w", err)
	}
	return txns, nil
}

// resolveHost returns the collective's host. An organization without a
// host acts as its own.
func (s *Service) resolveHost(c *domain.Collective) (uuid.UUID, error) {
	if c.HostCollectiveID != nil {
		return *c.HostCollectiveID, nil
	}
	if c.Type == domain.CollectiveTypeOrganization {
		return c.ID, nil
	}
	return uuid.Nil, fmt.Errorf("resolveHost: collective %s: %w", c.ID, domain.ErrNoHost)
}

// persistPending stores a new PENDING order. A concurrent request with the
// same idempotency key wins the insert; the stored order is returned with
// created=false.
func (s *Service) persistPending(ctx context.Context, o *domain.Order) (*domain.Order, bool, error) {
	err := s.orders.Create(ctx, o)
	if err == nil {
		return o, true, nil
	}
	if !errors.Is(err, domain.ErrDuplicateOrder) {
		return nil, false, fmt.Errorf("persistPending: %w", err)
	}

	existing, getErr := s.orders.GetByIdempotencyKey(ctx, o.IdempotencyKey)
	if getErr != nil {
		return nil, false, fmt.Errorf("persistPending: %w", getErr)
	}
	if err := sameRequest(existing, o.RequestFingerprint); err != nil {
		return nil, false, fmt.Errorf("persistPending: %w", err)
	}
	return existing, false, nil
}

// existing returns the order already stored under key, or nil. The stored
// order must have been created by the same request.
func (s *Service) existing(ctx context.Context, key, fingerprint string) (*domain.Order, error) {
	o, err := s.orders.GetByIdempotencyKey(ctx, key)
	if err != nil {
		if errors.Is(err, domain.ErrNotFound) {
			return nil, nil
		}
		return nil, fmt.Errorf("existing: %w", err)
	}
	if err := sameRequest(o, fingerprint); err != nil {
		return nil, fmt.Errorf("existing: %w", err)
	}
	return o, nil
}

func sameRequest(o *domain.Order, fingerprint string) error {
	if o.RequestFingerprint != fingerprint {
		return fmt.Errorf("idempotency key %q belongs to order %s: %w", o.IdempotencyKey, o.ID, domain.ErrIdempotencyConflict)
	}
	return nil
}

// requestFingerprint hashes the kind of operation together with every field
// of the request, including the calling user.
func requestFingerprint(kind string, req any) (string, error) {
	b, err := json.Marshal(struct {
		Kind    string
		Request any
	}{kind, req})
	if err != nil {
		return "", fmt.Errorf("requestFingerprint: %w", err)
	}
	sum := sha256.Sum256(b)
	return hex.EncodeToString(sum[:]), nil
}

// settle records the double entry for a pending order and moves the order
// to PAID, or to ERROR with the failure reason.
func (s *Service) settle(ctx context.Context, o *domain.Order, req ledger.Request) (*domain.Order, error) {
	log := logging.FromContext(ctx).With("order_id", o.ID)

	pair, err := s.recordWithRetry(ctx, req)
	if err != nil {
		reason := err.Error()
		if updErr := s.orders.UpdateStatus(context.WithoutCancel(ctx), o.ID, domain.OrderStatusError, &reason); updErr != nil {
			log.Error("failed to mark order as errored", "error", updErr)
		}
		log.Warn("order failed", "error", err)
		return nil, fmt.Errorf("settle: %w", err)
	}

	if err := s.orders.UpdateStatus(ctx, o.ID, domain.OrderStatusPaid, nil); err != nil {
		return nil, fmt.Errorf("settle: mark paid: %w", err)
	}
	o.Status = domain.OrderStatusPaid
	o.FailureReason = nil

	log.Info("order paid",
		"collective_id", o.CollectiveID,
		"credit_id", pair.Credit.ID,
		"debit_id", pair.Debit.ID,
	)
	return o, nil
}

// recordWithRetry retries only ErrRateUnavailable, the one failure that
// guarantees nothing was written.
func (s *Service) recordWithRetry(ctx context.Context, req ledger.Request) (*ledger.Pair, error) {
	attempt := 0
	op := func() (*ledger.Pair, error) {
		attempt++
		pair, err := s.engine.RecordDoubleEntry(ctx, req)
		if err != nil && !errors.Is(err, domain.ErrRateUnavailable) {
			return nil, backoff.Permanent(err)
		}
		return pair, err
	}
	notify := func(err error, wait time.Duration) {
		logging.FromContext(ctx).Warn("fx rate unavailable, retrying",
			"order_id", req.OrderID,
			"attempt", attempt,
			"wait", wait,
			"error", err,
		)
	}

	b := backoff.WithContext(backoff.WithMaxRetries(s.newBackOff(), s.rateRetries), ctx)
	pair, err := backoff.RetryNotifyWithData(op, b, notify)
	if err != nil {
		return nil, fmt.Errorf("recordWithRetry: after %d attempt(s): %w", attempt, err)
	}
	return pair, nil
}
