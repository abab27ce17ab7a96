package repository

import (
	"context"
	"database/sql"
	"errors"
	"fmt"
	"time"

	"github.com/google/uuid"

	"github.com/josh-kwaku/collective-ledger/internal/domain"
)

const orderColumns = `id, idempotency_key, from_collective_id, collective_id,
	payment_method_id, total_amount, currency, description, status,
	failure_reason, request_fingerprint, created_by_user_id, created_at, updated_at`

type OrderRepository struct {
	db *sql.DB
}

func NewOrderRepository(db *sql.DB) *OrderRepository {
	return &OrderRepository{db: db}
}

func (r *OrderRepository) Create(ctx context.Context, o *domain.Order) error {
	_, err := r.db.ExecContext(ctx,
		`INSERT INTO orders (
			id, idempotency_key, from_collective_id, collective_id,
			payment_method_id, total_amount, currency, description, status,
			failure_reason, request_fingerprint, created_by_user_id, created_at, updated_at
		) VALUES ($1, $2, $3, $4, $5, $6, $7, $8, $9, $10, $11, $12, $13, $14)`,
		o.ID, o.IdempotencyKey, o.FromCollectiveID, o.CollectiveID,
		o.PaymentMethodID, o.TotalAmount, o.Currency, o.Description, o.Status,
		o.FailureReason, o.RequestFingerprint, o.CreatedByUserID, o.CreatedAt, o.UpdatedAt,
	)
	if err != nil {
		if isDuplicateKey(err) {
			return fmt.Errorf("Create: idempotency key %q: %w", o.IdempotencyKey, domain.ErrDuplicateOrder)
		}
		return fmt.Errorf("Create: %w", err)
	}
	return nil
}

func (r *OrderRepository) GetByID(ctx context.Context, id uuid.UUID) (*domain.Order, error) {
	row := r.db.QueryRowContext(ctx,
		`SELECT `+orderColumns+` FROM orders WHERE id = $1`, id,
	)
	o, err := scanOrder(row)
	if err != nil {
		if errors.Is(err, sql.ErrNoRows) {
			return nil, fmt.Errorf("GetByID: order %s: %w", id, domain.ErrNotFound)
		}
		return nil, fmt.Errorf("GetByID: %w", err)
	}
	return o, nil
}

func (r *OrderRepository) GetByIdempotencyKey(ctx context.Context, key string) (*domain.Order, error) {
	row := r.db.QueryRowContext(ctx,
		`SELECT `+orderColumns+` FROM orders WHERE idempotency_key = $1`, key,
	)
	o, err := scanOrder(row)
	if err != nil {
		if errors.Is(err, sql.ErrNoRows) {
			return nil, fmt.Errorf("GetByIdempotencyKey: %w", domain.ErrNotFound)
		}
		return nil, fmt.Errorf("GetByIdempotencyKey: %w", err)
	}
	return o, nil
}

func (r *OrderRepository) UpdateStatus(ctx context.Context, id uuid.UUID, status domain.OrderStatus, failureReason *string) error {
	res, err := r.db.ExecContext(ctx,
		`UPDATE orders SET status = $1, failure_reason = $2, updated_at = $3 WHERE id = $4`,
		status, failureReason, time.Now().UTC(), id,
	)
	if err != nil {
		return fmt.Errorf("UpdateStatus: %w", err)
	}
	n, err := res.RowsAffected()
	if err != nil {
		return fmt.Errorf("UpdateStatus: rows affected: %w", err)
	}
	if n == 0 {
		return fmt.Errorf("UpdateStatus: order %s: %w", id, domain.ErrNotFound)
	}
	return nil
}

func scanOrder(s scanner) (*domain.Order, error) {
	var o domain.Order
	err := s.Scan(
		&o.ID, &o.IdempotencyKey, &o.FromCollectiveID, &o.CollectiveID,
		&o.PaymentMethodID, &o.TotalAmount, &o.Currency, &o.Description, &o.Status,
		&o.FailureReason, &o.RequestFingerprint, &o.CreatedByUserID, &o.CreatedAt, &o.UpdatedAt,
	)
	if err != nil {
		return nil, err
	}
	return &o, nil
}
