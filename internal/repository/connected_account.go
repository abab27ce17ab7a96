package repository

import (
	"context"
	"database/sql"
	"encoding/json"
	"errors"
	"fmt"
	"time"

	"github.com/google/uuid"

	"github.com/josh-kwaku/collective-ledger/internal/domain"
)

const connectedAccountColumns = `id, collective_id, service, username, client_id,
	token, data, created_by_user_id, created_at, updated_at`

type ConnectedAccountRepository struct {
	db *sql.DB
}

func NewConnectedAccountRepository(db *sql.DB) *ConnectedAccountRepository {
	return &ConnectedAccountRepository{db: db}
}

// Ensure returns the account for (service, collectiveID), creating an empty
// one when none exists. Concurrent callers converge on the same row.
func (r *ConnectedAccountRepository) Ensure(ctx context.Context, service domain.ConnectedAccountService, collectiveID uuid.UUID, createdBy *uuid.UUID) (*domain.ConnectedAccount, error) {
	now := time.Now().UTC()
	_, err := r.db.ExecContext(ctx,
		`INSERT INTO connected_accounts (id, collective_id, service, created_by_user_id, created_at, updated_at)
		VALUES ($1, $2, $3, $4, $5, $5)
		ON CONFLICT (service, collective_id) DO NOTHING`,
		uuid.New(), collectiveID, service, createdBy, now,
	)
	if err != nil {
		return nil, fmt.Errorf("Ensure: insert: %w", err)
	}

	row := r.db.QueryRowContext(ctx,
		`SELECT `+connectedAccountColumns+` FROM connected_accounts
		WHERE service = $1 AND collective_id = $2`,
		service, collectiveID,
	)
	a, err := scanConnectedAccount(row)
	if err != nil {
		return nil, fmt.Errorf("Ensure: select: %w", err)
	}
	return a, nil
}

func (r *ConnectedAccountRepository) UpdateCredentials(ctx context.Context, a *domain.ConnectedAccount) error {
	data := a.Data
	if len(data) == 0 {
		data = json.RawMessage(`{}`)
	}
	a.UpdatedAt = time.Now().UTC()

	res, err := r.db.ExecContext(ctx,
		`UPDATE connected_accounts
		SET username = $1, client_id = $2, token = $3, data = $4, updated_at = $5
		WHERE id = $6`,
		a.Username, a.ClientID, a.Token, []byte(data), a.UpdatedAt, a.ID,
	)
	if err != nil {
		return fmt.Errorf("UpdateCredentials: %w", err)
	}
	n, err := res.RowsAffected()
	if err != nil {
		return fmt.Errorf("UpdateCredentials: rows affected: %w", err)
	}
	if n == 0 {
		return fmt.Errorf("UpdateCredentials: connected account %s: %w", a.ID, domain.ErrNotFound)
	}
	return nil
}

func (r *ConnectedAccountRepository) GetByID(ctx context.Context, id uuid.UUID) (*domain.ConnectedAccount, error) {
	row := r.db.QueryRowContext(ctx,
		`SELECT `+connectedAccountColumns+` FROM connected_accounts WHERE id = $1`, id,
	)
	a, err := scanConnectedAccount(row)
	if err != nil {
		if errors.Is(err, sql.ErrNoRows) {
			return nil, fmt.Errorf("GetByID: connected account %s: %w", id, domain.ErrNotFound)
		}
		return nil, fmt.Errorf("GetByID: %w", err)
	}
	return a, nil
}

func (r *ConnectedAccountRepository) ListByCollective(ctx context.Context, collectiveID uuid.UUID) ([]domain.ConnectedAccount, error) {
	rows, err := r.db.QueryContext(ctx,
		`SELECT `+connectedAccountColumns+` FROM connected_accounts
		WHERE collective_id = $1 ORDER BY service`, collectiveID,
	)
	if err != nil {
		return nil, fmt.Errorf("ListByCollective: %w", err)
	}
	defer rows.Close()

	var accounts []domain.ConnectedAccount
	for rows.Next() {
		a, err := scanConnectedAccount(rows)
		if err != nil {
			return nil, fmt.Errorf("ListByCollective: scan: %w", err)
		}
		accounts = append(accounts, *a)
	}
	if err := rows.Err(); err != nil {
		return nil, fmt.Errorf("ListByCollective: rows: %w", err)
	}
	return accounts, nil
}

func scanConnectedAccount(s scanner) (*domain.ConnectedAccount, error) {
	var (
		a    domain.ConnectedAccount
		data []byte
	)
	err := s.Scan(
		&a.ID, &a.CollectiveID, &a.Service, &a.Username, &a.ClientID,
		&a.Token, &data, &a.CreatedByUserID, &a.CreatedAt, &a.UpdatedAt,
	)
	if err != nil {
		return nil, err
	}
	a.Data = json.RawMessage(data)
	return &a, nil
}
