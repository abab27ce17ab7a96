package repository

import (
	"context"
	"database/sql"
	"errors"
	"fmt"

	"github.com/google/uuid"

	"github.com/josh-kwaku/collective-ledger/internal/domain"
)

const paymentMethodColumns = `id, collective_id, service, name, token, currency, created_at`

type PaymentMethodRepository struct {
	db *sql.DB
}

func NewPaymentMethodRepository(db *sql.DB) *PaymentMethodRepository {
	return &PaymentMethodRepository{db: db}
}

func (r *PaymentMethodRepository) GetByID(ctx context.Context, id uuid.UUID) (*domain.PaymentMethod, error) {
	row := r.db.QueryRowContext(ctx,
		`SELECT `+paymentMethodColumns+` FROM payment_methods WHERE id = $1`, id,
	)
	pm, err := scanPaymentMethod(row)
	if err != nil {
		if errors.Is(err, sql.ErrNoRows) {
			return nil, fmt.Errorf("GetByID: payment method %s: %w", id, domain.ErrNotFound)
		}
		return nil, fmt.Errorf("GetByID: %w", err)
	}
	return pm, nil
}

func (r *PaymentMethodRepository) ListByCollective(ctx context.Context, collectiveID uuid.UUID) ([]domain.PaymentMethod, error) {
	rows, err := r.db.QueryContext(ctx,
		`SELECT `+paymentMethodColumns+` FROM payment_methods
		WHERE collective_id = $1 ORDER BY created_at`, collectiveID,
	)
	if err != nil {
		return nil, fmt.Errorf("ListByCollective: %w", err)
	}
	defer rows.Close()

	var methods []domain.PaymentMethod
	for rows.Next() {
		pm, err := scanPaymentMethod(rows)
		if err != nil {
			return nil, fmt.Errorf("ListByCollective: scan: %w", err)
		}
		methods = append(methods, *pm)
	}
	if err := rows.Err(); err != nil {
		return nil, fmt.Errorf("ListByCollective: rows: %w", err)
	}
	return methods, nil
}

func (r *PaymentMethodRepository) Create(ctx context.Context, pm *domain.PaymentMethod) error {
	_, err := r.db.ExecContext(ctx,
		`INSERT INTO payment_methods (id, collective_id, service, name, token, currency, created_at)
		VALUES ($1, $2, $3, $4, $5, $6, $7)`,
		pm.ID, pm.CollectiveID, pm.Service, pm.Name, pm.Token, pm.Currency, pm.CreatedAt,
	)
	if err != nil {
		return fmt.Errorf("Create: %w", err)
	}
	return nil
}

func scanPaymentMethod(s scanner) (*domain.PaymentMethod, error) {
	var pm domain.PaymentMethod
	err := s.Scan(&pm.ID, &pm.CollectiveID, &pm.Service, &pm.Name, &pm.Token, &pm.Currency, &pm.CreatedAt)
	if err != nil {
		return nil, err
	}
	return &pm, nil
}
