package ledger

import (
	"context"
	"fmt"
	"sync"

	"github.com/google/uuid"

	"github.com/josh-kwaku/collective-ledger/internal/domain"
	"github.com/josh-kwaku/collective-ledger/internal/fx"
)

type mockDirectory struct {
	collectives map[uuid.UUID]*domain.Collective
}

func (m *mockDirectory) GetByID(_ context.Context, id uuid.UUID) (*domain.Collective, error) {
	c, ok := m.collectives[id]
	if !ok {
		return nil, fmt.Errorf("GetByID: %w", domain.ErrNotFound)
	}
	return c, nil
}

type mockPaymentMethods struct {
	methods map[uuid.UUID]*domain.PaymentMethod
}

func (m *mockPaymentMethods) GetByID(_ context.Context, id uuid.UUID) (*domain.PaymentMethod, error) {
	pm, ok := m.methods[id]
	if !ok {
		return nil, fmt.Errorf("GetByID: %w", domain.ErrNotFound)
	}
	return pm, nil
}

func (m *mockPaymentMethods) ListByCollective(_ context.Context, collectiveID uuid.UUID) ([]domain.PaymentMethod, error) {
	var out []domain.PaymentMethod
	for _, pm := range m.methods {
		if pm.CollectiveID == collectiveID {
			out = append(out, *pm)
		}
	}
	return out, nil
}

type mockRates struct {
	mu    sync.Mutex
	rates map[string]*fx.Quote
	err   error
	calls int
}

func (m *mockRates) GetRate(_ context.Context, base, target domain.Currency) (*fx.Quote, error) {
	m.mu.Lock()
	defer m.mu.Unlock()
	m.calls++
	if m.err != nil {
		return nil, m.err
	}
	q, ok := m.rates[string(base)+"_"+string(target)]
	if !ok {
		return nil, fmt.Errorf("GetRate: %w", domain.ErrRateUnavailable)
	}
	return q, nil
}

type mockStore struct {
	mu     sync.Mutex
	txns   []domain.Transaction
	orders map[uuid.UUID]bool
	err    error
}

func newMockStore() *mockStore {
	return &mockStore{orders: make(map[uuid.UUID]bool)}
}

func (m *mockStore) CreatePair(_ context.Context, debit, credit *domain.Transaction) error {
	m.mu.Lock()
	defer m.mu.Unlock()
	if m.err != nil {
		return m.err
	}
	if m.orders[credit.OrderID] {
		return fmt.Errorf("CreatePair: %w", domain.ErrDuplicateOrder)
	}
	m.orders[credit.OrderID] = true
	m.txns = append(m.txns, *debit, *credit)
	return nil
}

func (m *mockStore) List(_ context.Context, filter domain.TransactionFilter) ([]domain.Transaction, int, error) {
	m.mu.Lock()
	defer m.mu.Unlock()
	end := min(filter.Offset+filter.Limit, len(m.txns))
	if filter.Offset >= len(m.txns) {
		return nil, len(m.txns), nil
	}
	return m.txns[filter.Offset:end], len(m.txns), nil
}

func (m *mockStore) SumForPaymentMethod(_ context.Context, paymentMethodID, ownerID uuid.UUID, asCurrency domain.Currency) (int64, error) {
	m.mu.Lock()
	defer m.mu.Unlock()
	var sum int64
	for _, t := range m.txns {
		if t.PaymentMethodID == nil || *t.PaymentMethodID != paymentMethodID || t.CollectiveID != ownerID {
			continue
		}
		amount, ok := t.BalanceIn(asCurrency)
		if !ok {
			return 0, fmt.Errorf("SumForPaymentMethod: %w", domain.ErrCurrencyMismatch)
		}
		sum += amount
	}
	return sum, nil
}
