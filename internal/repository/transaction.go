package repository

import (
	"context"
	"database/sql"
	"fmt"
	"strings"
	"time"

	"github.com/google/uuid"
	"github.com/jmoiron/sqlx"
	"github.com/shopspring/decimal"

	"github.com/josh-kwaku/collective-ledger/internal/domain"
)

const transactionColumns = `id, order_id, type, from_collective_id, collective_id,
	host_collective_id, created_by_user_id, payment_method_id, amount, currency,
	host_currency, host_currency_fx_rate, amount_in_host_currency,
	host_fee_in_host_currency, platform_fee_in_host_currency,
	payment_processor_fee_in_host_currency, net_amount_in_collective_currency,
	description, created_at`

// transactionRow mirrors the transactions table for sqlx struct scanning.
type transactionRow struct {
	ID                                uuid.UUID       `db:"id"`
	OrderID                           uuid.UUID       `db:"order_id"`
	Type                              string          `db:"type"`
	FromCollectiveID                  uuid.UUID       `db:"from_collective_id"`
	CollectiveID                      uuid.UUID       `db:"collective_id"`
	HostCollectiveID                  uuid.UUID       `db:"host_collective_id"`
	CreatedByUserID                   uuid.UUID       `db:"created_by_user_id"`
	PaymentMethodID                   uuid.NullUUID   `db:"payment_method_id"`
	Amount                            int64           `db:"amount"`
	Currency                          string          `db:"currency"`
	HostCurrency                      string          `db:"host_currency"`
	HostCurrencyFxRate                decimal.Decimal `db:"host_currency_fx_rate"`
	AmountInHostCurrency              int64           `db:"amount_in_host_currency"`
	HostFeeInHostCurrency             int64           `db:"host_fee_in_host_currency"`
	PlatformFeeInHostCurrency         int64           `db:"platform_fee_in_host_currency"`
	PaymentProcessorFeeInHostCurrency int64           `db:"payment_processor_fee_in_host_currency"`
	NetAmountInCollectiveCurrency     int64           `db:"net_amount_in_collective_currency"`
	Description                       string          `db:"description"`
	CreatedAt                         time.Time       `db:"created_at"`
}

func (r transactionRow) toDomain() domain.Transaction {
	t := domain.Transaction{
		ID:                                r.ID,
		OrderID:                           r.OrderID,
		Type:                              domain.TransactionType(r.Type),
		FromCollectiveID:                  r.FromCollectiveID,
		CollectiveID:                      r.CollectiveID,
		HostCollectiveID:                  r.HostCollectiveID,
		CreatedByUserID:                   r.CreatedByUserID,
		Amount:                            r.Amount,
		Currency:                          domain.Currency(r.Currency),
		HostCurrency:                      domain.Currency(r.HostCurrency),
		HostCurrencyFxRate:                r.HostCurrencyFxRate,
		AmountInHostCurrency:              r.AmountInHostCurrency,
		HostFeeInHostCurrency:             r.HostFeeInHostCurrency,
		PlatformFeeInHostCurrency:         r.PlatformFeeInHostCurrency,
		PaymentProcessorFeeInHostCurrency: r.PaymentProcessorFeeInHostCurrency,
		NetAmountInCollectiveCurrency:     r.NetAmountInCollectiveCurrency,
		Description:                       r.Description,
		CreatedAt:                         r.CreatedAt,
	}
	if r.PaymentMethodID.Valid {
		id := r.PaymentMethodID.UUID
		t.PaymentMethodID = &id
	}
	return t
}

// TransactionRepository writes double-entry pairs through database/sql and
// serves the read side through sqlx.
type TransactionRepository struct {
	db  *sql.DB
	dbx *sqlx.DB
}

func NewTransactionRepository(db *sql.DB) *TransactionRepository {
	return &TransactionRepository{db: db, dbx: sqlx.NewDb(db, "postgres")}
}

// CreatePair inserts both legs in one SQL transaction. The unique
// (order_id, type) index turns a second pair for the same order into
// domain.ErrDuplicateOrder.
func (r *TransactionRepository) CreatePair(ctx context.Context, debit, credit *domain.Transaction) error {
	tx, err := r.db.BeginTx(ctx, nil)
	if err != nil {
		return fmt.Errorf("CreatePair: begin: %w", err)
	}
	defer tx.Rollback()

	for _, t := range []*domain.Transaction{debit, credit} {
		if err := r.insert(ctx, tx, t); err != nil {
			if isDuplicateKey(err) {
				return fmt.Errorf("CreatePair: order %s: %w", t.OrderID, domain.ErrDuplicateOrder)
			}
			return fmt.Errorf("CreatePair: %s leg: %w", t.Type, err)
		}
	}

	if err := tx.Commit(); err != nil {
		return fmt.Errorf("CreatePair: commit: %w", err)
	}
	return nil
}

func (r *TransactionRepository) insert(ctx context.Context, tx *sql.Tx, t *domain.Transaction) error {
	_, err := tx.ExecContext(ctx,
		`INSERT INTO transactions (`+transactionColumns+`)
		VALUES ($1, $2, $3, $4, $5, $6, $7, $8, $9, $10, $11, $12, $13, $14, $15, $16, $17, $18, $19)`,
		t.ID, t.OrderID, t.Type, t.FromCollectiveID, t.CollectiveID,
		t.HostCollectiveID, t.CreatedByUserID, t.PaymentMethodID, t.Amount, t.Currency,
		t.HostCurrency, t.HostCurrencyFxRate, t.AmountInHostCurrency,
		t.HostFeeInHostCurrency, t.PlatformFeeInHostCurrency,
		t.PaymentProcessorFeeInHostCurrency, t.NetAmountInCollectiveCurrency,
		t.Description, t.CreatedAt,
	)
	return err
}

func (r *TransactionRepository) List(ctx context.Context, filter domain.TransactionFilter) ([]domain.Transaction, int, error) {
	where, args := transactionWhere(filter)

	var total int
	err := r.dbx.GetContext(ctx, &total, r.dbx.Rebind(`SELECT COUNT(*) FROM transactions`+where), args...)
	if err != nil {
		return nil, 0, fmt.Errorf("List: count: %w", err)
	}

	query := r.dbx.Rebind(`SELECT ` + transactionColumns + ` FROM transactions` + where +
		` ORDER BY created_at DESC, type LIMIT ? OFFSET ?`)

	var rows []transactionRow
	if err := r.dbx.SelectContext(ctx, &rows, query, append(args, filter.Limit, filter.Offset)...); err != nil {
		return nil, 0, fmt.Errorf("List: %w", err)
	}

	txns := make([]domain.Transaction, 0, len(rows))
	for _, row := range rows {
		txns = append(txns, row.toDomain())
	}
	return txns, total, nil
}

func (r *TransactionRepository) ListByOrder(ctx context.Context, orderID uuid.UUID) ([]domain.Transaction, error) {
	var rows []transactionRow
	err := r.dbx.SelectContext(ctx, &rows,
		`SELECT `+transactionColumns+` FROM transactions WHERE order_id = $1 ORDER BY type DESC`, orderID,
	)
	if err != nil {
		return nil, fmt.Errorf("ListByOrder: %w", err)
	}

	txns := make([]domain.Transaction, 0, len(rows))
	for _, row := range rows {
		txns = append(txns, row.toDomain())
	}
	return txns, nil
}

// SumForPaymentMethod aggregates the owner's leg of every transaction that
// references the payment method, counting each row the way
// domain.Transaction.BalanceIn does. A row whose host currency and collective
// currency both differ from asCurrency cannot be expressed without a rate,
// so any such row fails the whole read with domain.ErrCurrencyMismatch.
func (r *TransactionRepository) SumForPaymentMethod(ctx context.Context, paymentMethodID, ownerID uuid.UUID, asCurrency domain.Currency) (int64, error) {
	var res struct {
		Balance   int64 `db:"balance"`
		Unmatched int   `db:"unmatched"`
		RowsSeen  int   `db:"rows_seen"`
	}
	err := r.dbx.GetContext(ctx, &res,
		`SELECT
			COALESCE(SUM(CASE
				WHEN host_currency = $3 AND type = 'DEBIT' THEN amount_in_host_currency
				WHEN host_currency = $3 THEN amount_in_host_currency
					- host_fee_in_host_currency
					- platform_fee_in_host_currency
					- payment_processor_fee_in_host_currency
				WHEN currency = $3 AND type = 'DEBIT' THEN amount
				WHEN currency = $3 THEN net_amount_in_collective_currency
			END), 0)::BIGINT AS balance,
			COUNT(*) FILTER (WHERE host_currency <> $3 AND currency <> $3) AS unmatched,
			COUNT(*) AS rows_seen
		FROM transactions
		WHERE payment_method_id = $1 AND collective_id = $2`,
		paymentMethodID, ownerID, string(asCurrency),
	)
	if err != nil {
		return 0, fmt.Errorf("SumForPaymentMethod: %w", err)
	}
	if res.Unmatched > 0 {
		return 0, fmt.Errorf("SumForPaymentMethod: %d of %d rows in neither host currency nor collective currency %s: %w",
			res.Unmatched, res.RowsSeen, asCurrency, domain.ErrCurrencyMismatch)
	}
	return res.Balance, nil
}

func transactionWhere(f domain.TransactionFilter) (string, []any) {
	var (
		clauses []string
		args    []any
	)
	if f.CollectiveID != nil {
		clauses = append(clauses, "collective_id = ?")
		args = append(args, *f.CollectiveID)
	}
	if f.OrderID != nil {
		clauses = append(clauses, "order_id = ?")
		args = append(args, *f.OrderID)
	}
	if f.PaymentMethodID != nil {
		clauses = append(clauses, "payment_method_id = ?")
		args = append(args, *f.PaymentMethodID)
	}
	if f.Type != nil {
		clauses = append(clauses, "type = ?")
		args = append(args, string(*f.Type))
	}
	if len(clauses) == 0 {
		return "", nil
	}
	return " WHERE " + strings.Join(clauses, " AND "), args
}
