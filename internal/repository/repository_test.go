package repository_test

import (
	"context"
	"sync"
	"testing"
	"time"

	"github.com/google/uuid"
	"github.com/shopspring/decimal"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/josh-kwaku/collective-ledger/internal/domain"
	"github.com/josh-kwaku/collective-ledger/internal/repository"
	"github.com/josh-kwaku/collective-ledger/internal/testutil"
)

func newPair(orderID uuid.UUID, host, collective, from *domain.Collective, pmID *uuid.UUID, amount, inHost, hostFee int64, rate string) (*domain.Transaction, *domain.Transaction) {
	now := time.Now().UTC().Truncate(time.Microsecond)
	credit := &domain.Transaction{
		ID:                            uuid.New(),
		OrderID:                       orderID,
		Type:                          domain.TransactionTypeCredit,
		FromCollectiveID:              from.ID,
		CollectiveID:                  collective.ID,
		HostCollectiveID:              host.ID,
		CreatedByUserID:               testutil.AdminUserID,
		PaymentMethodID:               pmID,
		Amount:                        amount,
		Currency:                      collective.Currency,
		HostCurrency:                  host.Currency,
		HostCurrencyFxRate:            decimal.RequireFromString(rate),
		AmountInHostCurrency:          inHost,
		HostFeeInHostCurrency:         hostFee,
		NetAmountInCollectiveCurrency: amount,
		CreatedAt:                     now,
	}
	debit := *credit
	debit.ID = uuid.New()
	debit.Type = domain.TransactionTypeDebit
	debit.FromCollectiveID, debit.CollectiveID = credit.CollectiveID, credit.FromCollectiveID
	debit.Amount = -credit.Amount
	debit.AmountInHostCurrency = -credit.AmountInHostCurrency
	debit.NetAmountInCollectiveCurrency = -credit.NetAmountInCollectiveCurrency
	return &debit, credit
}

func TestTransactionRepository_CreatePair(t *testing.T) {
	db := testutil.SetupTestDB(t)
	repo := repository.NewTransactionRepository(db)
	ctx := context.Background()

	host := testutil.SeedHost(t, db, "host-create-pair", domain.CurrencyUSD)
	tipbox := testutil.SeedHostedCollective(t, db, "tipbox-create-pair", domain.CurrencyEUR, host.ID, 5)

	orderID := uuid.New()
	debit, credit := newPair(orderID, host, tipbox, host, nil, 1000, 1165, 0, "0.858074480864939")

	require.NoError(t, repo.CreatePair(ctx, debit, credit))
	assert.Equal(t, 2, testutil.CountTransactions(t, db, orderID))
	assert.Equal(t, int64(0), testutil.SumAmountInHostCurrency(t, db, orderID))

	legs, err := repo.ListByOrder(ctx, orderID)
	require.NoError(t, err)
	require.Len(t, legs, 2)
	assert.Equal(t, domain.TransactionTypeDebit, legs[0].Type)
	assert.Equal(t, domain.TransactionTypeCredit, legs[1].Type)
	assert.True(t, legs[1].HostCurrencyFxRate.Equal(decimal.RequireFromString("0.858074480864939")))
	assert.Nil(t, legs[1].PaymentMethodID)
	assert.Equal(t, domain.CurrencyUSD, legs[1].HostCurrency)

	t.Run("second pair for the same order", func(t *testing.T) {
		d2, c2 := newPair(orderID, host, tipbox, host, nil, 1000, 1165, 0, "0.858074480864939")
		err := repo.CreatePair(ctx, d2, c2)
		require.ErrorIs(t, err, domain.ErrDuplicateOrder)
		assert.Equal(t, 2, testutil.CountTransactions(t, db, orderID))
	})

	t.Run("failed second leg rolls back the first", func(t *testing.T) {
		other := uuid.New()
		d3, c3 := newPair(other, host, tipbox, host, nil, 1000, 1165, 0, "0.858074480864939")
		c3.HostFeeInHostCurrency = -1

		err := repo.CreatePair(ctx, d3, c3)
		require.Error(t, err)
		assert.Equal(t, 0, testutil.CountTransactions(t, db, other))
	})
}

func TestTransactionRepository_ConcurrentSameOrder(t *testing.T) {
	db := testutil.SetupTestDB(t)
	repo := repository.NewTransactionRepository(db)
	ctx := context.Background()

	host := testutil.SeedHost(t, db, "host-concurrent", domain.CurrencyUSD)
	tipbox := testutil.SeedHostedCollective(t, db, "tipbox-concurrent", domain.CurrencyUSD, host.ID, 0)
	orderID := uuid.New()

	const workers = 8
	var (
		wg      sync.WaitGroup
		mu      sync.Mutex
		success int
		dupes   int
	)
	for range workers {
		wg.Add(1)
		go func() {
			defer wg.Done()
			d, c := newPair(orderID, host, tipbox, host, nil, 500, 500, 0, "1")
			err := repo.CreatePair(ctx, d, c)
			mu.Lock()
			defer mu.Unlock()
			if err == nil {
				success++
			} else if assert.ErrorIs(t, err, domain.ErrDuplicateOrder) {
				dupes++
			}
		}()
	}
	wg.Wait()

	assert.Equal(t, 1, success)
	assert.Equal(t, workers-1, dupes)
	assert.Equal(t, 2, testutil.CountTransactions(t, db, orderID))
}

func TestTransactionRepository_SumForPaymentMethod(t *testing.T) {
	db := testutil.SetupTestDB(t)
	repo := repository.NewTransactionRepository(db)
	ctx := context.Background()

	host := testutil.SeedHost(t, db, "host-balance", domain.CurrencyUSD)
	user := testutil.SeedUserCollective(t, db, "xavier-balance", domain.CurrencyEUR)
	paypal := testutil.SeedPaymentMethod(t, db, host.ID, domain.PaymentMethodServicePaypal, domain.CurrencyUSD)

	// Reimbursement recorded on the host itself: -1150 USD with a 100 fee.
	d, c := newPair(uuid.New(), host, host, user, &paypal.ID, -1000, -1150, 0, "0.869565217391304")
	c.Currency, d.Currency = domain.CurrencyEUR, domain.CurrencyEUR
	c.PaymentProcessorFeeInHostCurrency, d.PaymentProcessorFeeInHostCurrency = 100, 100
	c.NetAmountInCollectiveCurrency, d.NetAmountInCollectiveCurrency = -1250, 1250
	require.NoError(t, repo.CreatePair(ctx, d, c))

	balance, err := repo.SumForPaymentMethod(ctx, paypal.ID, host.ID, domain.CurrencyUSD)
	require.NoError(t, err)
	assert.Equal(t, int64(-1250), balance)

	balance, err = repo.SumForPaymentMethod(ctx, paypal.ID, host.ID, domain.CurrencyEUR)
	require.NoError(t, err)
	assert.Equal(t, int64(-1250), balance)

	_, err = repo.SumForPaymentMethod(ctx, paypal.ID, host.ID, domain.CurrencyGBP)
	require.ErrorIs(t, err, domain.ErrCurrencyMismatch)

	balance, err = repo.SumForPaymentMethod(ctx, uuid.New(), host.ID, domain.CurrencyUSD)
	require.NoError(t, err)
	assert.Zero(t, balance)
}

func TestTransactionRepository_SumForPaymentMethod_PayerLeg(t *testing.T) {
	db := testutil.SetupTestDB(t)
	repo := repository.NewTransactionRepository(db)
	ctx := context.Background()

	host := testutil.SeedHost(t, db, "host-payer", domain.CurrencyUSD)
	tipbox := testutil.SeedHostedCollective(t, db, "tipbox-payer", domain.CurrencyEUR, host.ID, 5)
	user := testutil.SeedUserCollective(t, db, "xavier-payer", domain.CurrencyEUR)
	card := testutil.SeedPaymentMethod(t, db, user.ID, domain.PaymentMethodServiceStripe, domain.CurrencyEUR)

	// 1000 EUR at 1.1654 with 58 host fee and 35 processor fee on both legs.
	d, c := newPair(uuid.New(), host, tipbox, user, &card.ID, 1000, 1165, 58, "0.858074480864939")
	c.PaymentProcessorFeeInHostCurrency, d.PaymentProcessorFeeInHostCurrency = 35, 35
	c.NetAmountInCollectiveCurrency, d.NetAmountInCollectiveCurrency = 920, -920
	require.NoError(t, repo.CreatePair(ctx, d, c))

	tests := []struct {
		name  string
		owner uuid.UUID
		as    domain.Currency
		want  int64
	}{
		{"payer in collective currency", user.ID, domain.CurrencyEUR, -1000},
		{"payer in host currency", user.ID, domain.CurrencyUSD, -1165},
		{"receiver in collective currency", tipbox.ID, domain.CurrencyEUR, 920},
		{"receiver in host currency", tipbox.ID, domain.CurrencyUSD, 1072},
	}
	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			balance, err := repo.SumForPaymentMethod(ctx, card.ID, tt.owner, tt.as)
			require.NoError(t, err)
			assert.Equal(t, tt.want, balance)
		})
	}
}

func TestTransactionRepository_List(t *testing.T) {
	db := testutil.SetupTestDB(t)
	repo := repository.NewTransactionRepository(db)
	ctx := context.Background()

	host := testutil.SeedHost(t, db, "host-list", domain.CurrencyUSD)
	tipbox := testutil.SeedHostedCollective(t, db, "tipbox-list", domain.CurrencyUSD, host.ID, 5)
	for range 3 {
		d, c := newPair(uuid.New(), host, tipbox, host, nil, 100, 100, 0, "1")
		require.NoError(t, repo.CreatePair(ctx, d, c))
	}

	all, total, err := repo.List(ctx, domain.TransactionFilter{Limit: 50})
	require.NoError(t, err)
	assert.Equal(t, 6, total)
	assert.Len(t, all, 6)

	credit := domain.TransactionTypeCredit
	credits, total, err := repo.List(ctx, domain.TransactionFilter{CollectiveID: &tipbox.ID, Type: &credit, Limit: 2})
	require.NoError(t, err)
	assert.Equal(t, 3, total)
	assert.Len(t, credits, 2)
	for _, c := range credits {
		assert.Equal(t, tipbox.ID, c.CollectiveID)
		assert.Equal(t, domain.TransactionTypeCredit, c.Type)
	}
}

func TestConnectedAccountRepository_Ensure(t *testing.T) {
	db := testutil.SetupTestDB(t)
	repo := repository.NewConnectedAccountRepository(db)
	ctx := context.Background()

	org := testutil.SeedHost(t, db, "org-connected", domain.CurrencyUSD)

	var (
		wg  sync.WaitGroup
		ids = make([]uuid.UUID, 5)
	)
	for i := range ids {
		wg.Add(1)
		go func() {
			defer wg.Done()
			a, err := repo.Ensure(ctx, domain.ConnectedAccountServiceGithub, org.ID, nil)
			if assert.NoError(t, err) {
				ids[i] = a.ID
			}
		}()
	}
	wg.Wait()

	for _, id := range ids[1:] {
		assert.Equal(t, ids[0], id)
	}

	a, err := repo.GetByID(ctx, ids[0])
	require.NoError(t, err)
	username := "opencollective"
	a.Username = &username
	require.NoError(t, repo.UpdateCredentials(ctx, a))

	accounts, err := repo.ListByCollective(ctx, org.ID)
	require.NoError(t, err)
	require.Len(t, accounts, 1)
	require.NotNil(t, accounts[0].Username)
	assert.Equal(t, "opencollective", *accounts[0].Username)
	assert.JSONEq(t, `{}`, string(accounts[0].Data))
}

func TestOrderRepository(t *testing.T) {
	db := testutil.SetupTestDB(t)
	repo := repository.NewOrderRepository(db)
	ctx := context.Background()

	host := testutil.SeedHost(t, db, "host-orders", domain.CurrencyUSD)
	tipbox := testutil.SeedHostedCollective(t, db, "tipbox-orders", domain.CurrencyEUR, host.ID, 5)

	now := time.Now().UTC()
	o := &domain.Order{
		ID:                 uuid.New(),
		IdempotencyKey:     "order-key-1",
		FromCollectiveID:   host.ID,
		CollectiveID:       tipbox.ID,
		TotalAmount:        1000,
		Currency:           domain.CurrencyEUR,
		Status:             domain.OrderStatusPending,
		RequestFingerprint: "3f1c9a",
		CreatedByUserID:    testutil.AdminUserID,
		CreatedAt:          now,
		UpdatedAt:          now,
	}
	require.NoError(t, repo.Create(ctx, o))

	dup := *o
	dup.ID = uuid.New()
	require.ErrorIs(t, repo.Create(ctx, &dup), domain.ErrDuplicateOrder)

	reason := "rate unavailable"
	require.NoError(t, repo.UpdateStatus(ctx, o.ID, domain.OrderStatusError, &reason))

	got, err := repo.GetByIdempotencyKey(ctx, "order-key-1")
	require.NoError(t, err)
	assert.Equal(t, o.ID, got.ID)
	assert.Equal(t, domain.OrderStatusError, got.Status)
	require.NotNil(t, got.FailureReason)
	assert.Equal(t, reason, *got.FailureReason)
	assert.Equal(t, "3f1c9a", got.RequestFingerprint)

	_, err = repo.GetByID(ctx, uuid.New())
	require.ErrorIs(t, err, domain.ErrNotFound)
	require.ErrorIs(t, repo.UpdateStatus(ctx, uuid.New(), domain.OrderStatusPaid, nil), domain.ErrNotFound)
}

func TestCollectiveRepository(t *testing.T) {
	db := testutil.SetupTestDB(t)
	repo := repository.NewCollectiveRepository(db)
	ctx := context.Background()

	host := testutil.SeedHost(t, db, "host-directory", domain.CurrencyUSD)
	tipbox := testutil.SeedHostedCollective(t, db, "tipbox-directory", domain.CurrencyEUR, host.ID, 5)

	got, err := repo.GetByID(ctx, tipbox.ID)
	require.NoError(t, err)
	assert.True(t, got.IsHostedBy(host.ID))
	assert.True(t, got.HostFeePercent.Equal(decimal.NewFromInt(5)))
	assert.Equal(t, domain.CurrencyEUR, got.Currency)

	bySlug, err := repo.GetBySlug(ctx, "host-directory")
	require.NoError(t, err)
	assert.Equal(t, host.ID, bySlug.ID)
	assert.Nil(t, bySlug.HostCollectiveID)

	clash := *host
	clash.ID = uuid.New()
	require.ErrorIs(t, repo.Create(ctx, &clash), repository.ErrSlugTaken)

	_, err = repo.GetByID(ctx, uuid.New())
	require.ErrorIs(t, err, domain.ErrNotFound)
}
