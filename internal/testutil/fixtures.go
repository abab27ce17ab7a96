package testutil

import (
	"database/sql"
	"strings"
	"testing"
	"time"

	"github.com/google/uuid"
	"github.com/shopspring/decimal"

	"github.com/josh-kwaku/collective-ledger/internal/domain"
)

var AdminUserID = uuid.MustParse("00000000-0000-0000-0000-000000000001")

// SeedHost inserts an ORGANIZATION that hosts other collectives.
func SeedHost(t *testing.T, db *sql.DB, slug string, currency domain.Currency) *domain.Collective {
	t.Helper()
	return insertCollective(t, db, &domain.Collective{
		ID:              uuid.New(),
		Slug:            slug,
		Name:            strings.ToUpper(slug[:1]) + slug[1:],
		Type:            domain.CollectiveTypeOrganization,
		Currency:        currency,
		CreatedByUserID: AdminUserID,
		CreatedAt:       time.Now().UTC(),
	})
}

// SeedHostedCollective inserts a COLLECTIVE hosted by hostID.
func SeedHostedCollective(t *testing.T, db *sql.DB, slug string, currency domain.Currency, hostID uuid.UUID, hostFeePercent int64) *domain.Collective {
	t.Helper()
	return insertCollective(t, db, &domain.Collective{
		ID:               uuid.New(),
		Slug:             slug,
		Name:             slug,
		Type:             domain.CollectiveTypeCollective,
		Currency:         currency,
		HostCollectiveID: &hostID,
		HostFeePercent:   decimal.NewFromInt(hostFeePercent),
		CreatedByUserID:  AdminUserID,
		CreatedAt:        time.Now().UTC(),
	})
}

func SeedUserCollective(t *testing.T, db *sql.DB, slug string, currency domain.Currency) *domain.Collective {
	t.Helper()
	return insertCollective(t, db, &domain.Collective{
		ID:              uuid.New(),
		Slug:            slug,
		Name:            slug,
		Type:            domain.CollectiveTypeUser,
		Currency:        currency,
		CreatedByUserID: AdminUserID,
		CreatedAt:       time.Now().UTC(),
	})
}

func insertCollective(t *testing.T, db *sql.DB, c *domain.Collective) *domain.Collective {
	t.Helper()

	_, err := db.Exec(
		`INSERT INTO collectives (id, slug, name, type, currency, host_collective_id,
			host_fee_percent, created_by_user_id, created_at)
		 VALUES ($1, $2, $3, $4, $5, $6, $7, $8, $9)`,
		c.ID, c.Slug, c.Name, c.Type, c.Currency, c.HostCollectiveID,
		c.HostFeePercent, c.CreatedByUserID, c.CreatedAt,
	)
	if err != nil {
		t.Fatalf("seed collective %s: %v", c.Slug, err)
	}
	return c
}

func SeedPaymentMethod(t *testing.T, db *sql.DB, collectiveID uuid.UUID, service domain.PaymentMethodService, currency domain.Currency) *domain.PaymentMethod {
	t.Helper()

	pm := &domain.PaymentMethod{
		ID:           uuid.New(),
		CollectiveID: collectiveID,
		Service:      service,
		Name:         string(service),
		Currency:     currency,
		CreatedAt:    time.Now().UTC(),
	}
	_, err := db.Exec(
		`INSERT INTO payment_methods (id, collective_id, service, name, currency, created_at)
		 VALUES ($1, $2, $3, $4, $5, $6)`,
		pm.ID, pm.CollectiveID, pm.Service, pm.Name, pm.Currency, pm.CreatedAt,
	)
	if err != nil {
		t.Fatalf("seed payment method %s/%s: %v", collectiveID, service, err)
	}
	return pm
}

func CountTransactions(t *testing.T, db *sql.DB, orderID uuid.UUID) int {
	t.Helper()

	var count int
	err := db.QueryRow(`SELECT COUNT(*) FROM transactions WHERE order_id = $1`, orderID).Scan(&count)
	if err != nil {
		t.Fatalf("count transactions for order %s: %v", orderID, err)
	}
	return count
}

func CountAllTransactions(t *testing.T, db *sql.DB) int {
	t.Helper()

	var count int
	if err := db.QueryRow(`SELECT COUNT(*) FROM transactions`).Scan(&count); err != nil {
		t.Fatalf("count transactions: %v", err)
	}
	return count
}

// SumAmountInHostCurrency returns the signed sum over an order's legs.
func SumAmountInHostCurrency(t *testing.T, db *sql.DB, orderID uuid.UUID) int64 {
	t.Helper()

	var sum int64
	err := db.QueryRow(
		`SELECT COALESCE(SUM(amount_in_host_currency), 0)::BIGINT FROM transactions WHERE order_id = $1`, orderID,
	).Scan(&sum)
	if err != nil {
		t.Fatalf("sum transactions for order %s: %v", orderID, err)
	}
	return sum
}
