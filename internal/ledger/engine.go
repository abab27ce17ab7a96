package ledger

import (
	"context"
	"errors"
	"fmt"
	"time"

	"github.com/google/uuid"
	"github.com/shopspring/decimal"

	"github.com/josh-kwaku/collective-ledger/internal/domain"
	"github.com/josh-kwaku/collective-ledger/internal/fx"
	"github.com/josh-kwaku/collective-ledger/internal/logging"
)

const (
	defaultListLimit = 50
	maxListLimit     = 200
)

type collectiveDirectory interface {
	GetByID(ctx context.Context, id uuid.UUID) (*domain.Collective, error)
}

type paymentMethodRepo interface {
	GetByID(ctx context.Context, id uuid.UUID) (*domain.PaymentMethod, error)
	ListByCollective(ctx context.Context, collectiveID uuid.UUID) ([]domain.PaymentMethod, error)
}

type rateProvider interface {
	GetRate(ctx context.Context, base, target domain.Currency) (*fx.Quote, error)
}

type transactionStore interface {
	CreatePair(ctx context.Context, debit, credit *domain.Transaction) error
	List(ctx context.Context, filter domain.TransactionFilter) ([]domain.Transaction, int, error)
	SumForPaymentMethod(ctx context.Context, paymentMethodID, ownerID uuid.UUID, asCurrency domain.Currency) (int64, error)
}

// Engine turns validated economic events into double-entry transaction
// pairs. It keeps no state between calls.
type Engine struct {
	collectives    collectiveDirectory
	paymentMethods paymentMethodRepo
	rates          rateProvider
	store          transactionStore
	currencies     *domain.CurrencyCatalog
	policy         FeePolicy
	now            func() time.Time
}

func NewEngine(
	collectives collectiveDirectory,
	paymentMethods paymentMethodRepo,
	rates rateProvider,
	store transactionStore,
	currencies *domain.CurrencyCatalog,
	policy FeePolicy,
) *Engine {
	return &Engine{
		collectives:    collectives,
		paymentMethods: paymentMethods,
		rates:          rates,
		store:          store,
		currencies:     currencies,
		policy:         policy,
		now:            func() time.Time { return time.Now().UTC() },
	}
}

func (e *Engine) RecordDoubleEntry(ctx context.Context, req Request) (*Pair, error) {
	if err := e.validate(req); err != nil {
		return nil, fmt.Errorf("RecordDoubleEntry: order %s: %w", req.OrderID, err)
	}

	collective, err := e.collectives.GetByID(ctx, req.CollectiveID)
	if err != nil {
		return nil, fmt.Errorf("RecordDoubleEntry: order %s: collective: %w", req.OrderID, err)
	}
	if !hostMatches(collective, req.HostCollectiveID) {
		return nil, fmt.Errorf("RecordDoubleEntry: order %s: collective %s, host %s: %w",
			req.OrderID, collective.ID, req.HostCollectiveID, domain.ErrInconsistentHost)
	}
	if !currencyAccepted(collective, req) {
		return nil, fmt.Errorf("RecordDoubleEntry: order %s: %s order for collective keeping %s: %w",
			req.OrderID, req.Currency, collective.Currency, domain.ErrCurrencyMismatch)
	}

	host, err := e.collectives.GetByID(ctx, req.HostCollectiveID)
	if err != nil {
		return nil, fmt.Errorf("RecordDoubleEntry: order %s: host: %w", req.OrderID, err)
	}
	if !e.currencies.Recognizes(host.Currency) {
		return nil, fmt.Errorf("RecordDoubleEntry: order %s: host currency %q: %w", req.OrderID, host.Currency, domain.ErrInvalidCurrency)
	}
	if req.HostCurrency != "" && req.HostCurrency != host.Currency {
		return nil, fmt.Errorf("RecordDoubleEntry: order %s: declared host currency %s, host keeps %s: %w",
			req.OrderID, req.HostCurrency, host.Currency, domain.ErrInconsistentHost)
	}

	quote, err := e.quote(ctx, req, host.Currency)
	if err != nil {
		return nil, fmt.Errorf("RecordDoubleEntry: order %s: %w", req.OrderID, err)
	}

	pair := buildPair(pairInputs{
		req:            req,
		hostCurrency:   host.Currency,
		hostFeePercent: collective.HostFeePercent,
		quote:          quote,
		policy:         e.policy,
		now:            e.now(),
	})

	if err := e.store.CreatePair(ctx, pair.Debit, pair.Credit); err != nil {
		if errors.Is(err, domain.ErrDuplicateOrder) {
			return nil, fmt.Errorf("RecordDoubleEntry: order %s: %w", req.OrderID, err)
		}
		return nil, fmt.Errorf("RecordDoubleEntry: order %s: %w: %w", req.OrderID, domain.ErrPersistence, err)
	}

	logging.FromContext(ctx).Info("double entry recorded",
		"order_id", req.OrderID,
		"collective_id", req.CollectiveID,
		"host_collective_id", req.HostCollectiveID,
		"currency", req.Currency,
		"host_currency", host.Currency,
	)

	return pair, nil
}

func (e *Engine) validate(req Request) error {
	if req.OrderID == uuid.Nil {
		return fmt.Errorf("validate: missing order id: %w", domain.ErrInvalidRequest)
	}
	if req.Amount == 0 {
		return fmt.Errorf("validate: zero amount: %w", domain.ErrInvalidAmount)
	}
	if req.PaymentProcessorFeeInHostCurrency < 0 {
		return fmt.Errorf("validate: negative payment processor fee: %w", domain.ErrInvalidAmount)
	}
	if !e.currencies.Recognizes(req.Currency) {
		return fmt.Errorf("validate: currency %q: %w", req.Currency, domain.ErrInvalidCurrency)
	}
	if req.HostCurrency != "" && !e.currencies.Recognizes(req.HostCurrency) {
		return fmt.Errorf("validate: host currency %q: %w", req.HostCurrency, domain.ErrInvalidCurrency)
	}
	if req.FxQuote != nil && !req.FxQuote.IsPositive() {
		return fmt.Errorf("validate: fx quote %s: %w", req.FxQuote, domain.ErrInvalidRequest)
	}
	return nil
}

// hostMatches reports whether hostID may hold the collective's funds. Only
// an unhosted collective acts as its own host.
func hostMatches(c *domain.Collective, hostID uuid.UUID) bool {
	if c.ID == hostID {
		return c.HostCollectiveID == nil
	}
	return c.IsHostedBy(hostID)
}

// currencyAccepted requires the entry in the collective's currency. A payout
// already settled by a processor is the exception: it is recorded in the
// currency it was paid in, at the rate the processor reported.
func currencyAccepted(c *domain.Collective, req Request) bool {
	if req.Currency == c.Currency {
		return true
	}
	return req.Amount < 0 && req.FxQuote != nil
}

// quote resolves the host-per-collective multiplier. The provider is asked
// at most once per call and never when both currencies match.
func (e *Engine) quote(ctx context.Context, req Request, hostCurrency domain.Currency) (decimal.Decimal, error) {
	one := decimal.NewFromInt(1)

	if req.Currency == hostCurrency {
		if req.FxQuote != nil && !req.FxQuote.Equal(one) {
			return decimal.Zero, fmt.Errorf("quote: %s/%s must be 1, got %s: %w",
				req.Currency, hostCurrency, req.FxQuote, domain.ErrInvalidRequest)
		}
		return one, nil
	}
	if req.FxQuote != nil {
		return *req.FxQuote, nil
	}

	q, err := e.rates.GetRate(ctx, req.Currency, hostCurrency)
	if err != nil {
		if errors.Is(err, domain.ErrRateUnavailable) {
			return decimal.Zero, fmt.Errorf("quote: %w", err)
		}
		return decimal.Zero, fmt.Errorf("quote: %s/%s: %w: %w", req.Currency, hostCurrency, domain.ErrRateUnavailable, err)
	}
	if !q.Rate.IsPositive() {
		return decimal.Zero, fmt.Errorf("quote: %s/%s non-positive rate: %w", req.Currency, hostCurrency, domain.ErrRateUnavailable)
	}
	return q.Rate, nil
}

// GetBalance sums the owner's leg of every transaction that references the
// payment method. An empty asCurrency means the payment method's currency.
func (e *Engine) GetBalance(ctx context.Context, paymentMethodID uuid.UUID, asCurrency domain.Currency) (int64, error) {
	pm, err := e.paymentMethods.GetByID(ctx, paymentMethodID)
	if err != nil {
		return 0, fmt.Errorf("GetBalance: %w", err)
	}
	if asCurrency == "" {
		asCurrency = pm.Currency
	}
	if !e.currencies.Recognizes(asCurrency) {
		return 0, fmt.Errorf("GetBalance: currency %q: %w", asCurrency, domain.ErrInvalidCurrency)
	}

	balance, err := e.store.SumForPaymentMethod(ctx, pm.ID, pm.CollectiveID, asCurrency)
	if err != nil {
		return 0, fmt.Errorf("GetBalance: payment method %s: %w", pm.ID, err)
	}
	return balance, nil
}

type PaymentMethodBalance struct {
	PaymentMethod domain.PaymentMethod
	Balance       int64
}

func (e *Engine) PaymentMethodBalances(ctx context.Context, collectiveID uuid.UUID) ([]PaymentMethodBalance, error) {
	pms, err := e.paymentMethods.ListByCollective(ctx, collectiveID)
	if err != nil {
		return nil, fmt.Errorf("PaymentMethodBalances: %w", err)
	}

	out := make([]PaymentMethodBalance, 0, len(pms))
	for _, pm := range pms {
		balance, err := e.store.SumForPaymentMethod(ctx, pm.ID, pm.CollectiveID, pm.Currency)
		if err != nil {
			return nil, fmt.Errorf("PaymentMethodBalances: payment method %s: %w", pm.ID, err)
		}
		out = append(out, PaymentMethodBalance{PaymentMethod: pm, Balance: balance})
	}
	return out, nil
}

// ClampFilter applies the default and maximum page size.
func ClampFilter(filter domain.TransactionFilter) domain.TransactionFilter {
	if filter.Limit <= 0 {
		filter.Limit = defaultListLimit
	}
	if filter.Limit > maxListLimit {
		filter.Limit = maxListLimit
	}
	if filter.Offset < 0 {
		filter.Offset = 0
	}
	return filter
}

func (e *Engine) ListTransactions(ctx context.Context, filter domain.TransactionFilter) ([]domain.Transaction, int, error) {
	filter = ClampFilter(filter)

	txns, total, err := e.store.List(ctx, filter)
	if err != nil {
		return nil, 0, fmt.Errorf("ListTransactions: %w", err)
	}
	return txns, total, nil
}
