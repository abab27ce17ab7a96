package repository

import (
	"context"
	"database/sql"
	"errors"
	"fmt"

	"github.com/google/uuid"

	"github.com/josh-kwaku/collective-ledger/internal/domain"
)

const collectiveColumns = `id, slug, name, type, currency, host_collective_id,
	host_fee_percent, website, created_by_user_id, created_at`

// ErrSlugTaken is returned by Create when the slug is already in use.
var ErrSlugTaken = errors.New("slug taken")

type CollectiveRepository struct {
	db *sql.DB
}

func NewCollectiveRepository(db *sql.DB) *CollectiveRepository {
	return &CollectiveRepository{db: db}
}

func (r *CollectiveRepository) GetByID(ctx context.Context, id uuid.UUID) (*domain.Collective, error) {
	row := r.db.QueryRowContext(ctx,
		`SELECT `+collectiveColumns+` FROM collectives WHERE id = $1`, id,
	)
	c, err := scanCollective(row)
	if err != nil {
		if errors.Is(err, sql.ErrNoRows) {
			return nil, fmt.Errorf("GetByID: collective %s: %w", id, domain.ErrNotFound)
		}
		return nil, fmt.Errorf("GetByID: %w", err)
	}
	return c, nil
}

func (r *CollectiveRepository) GetBySlug(ctx context.Context, slug string) (*domain.Collective, error) {
	row := r.db.QueryRowContext(ctx,
		`SELECT `+collectiveColumns+` FROM collectives WHERE slug = $1`, slug,
	)
	c, err := scanCollective(row)
	if err != nil {
		if errors.Is(err, sql.ErrNoRows) {
			return nil, fmt.Errorf("GetBySlug: %w", domain.ErrNotFound)
		}
		return nil, fmt.Errorf("GetBySlug: %w", err)
	}
	return c, nil
}

func (r *CollectiveRepository) Create(ctx context.Context, c *domain.Collective) error {
	_, err := r.db.ExecContext(ctx,
		`INSERT INTO collectives (
			id, slug, name, type, currency, host_collective_id,
			host_fee_percent, website, created_by_user_id, created_at
		) VALUES ($1, $2, $3, $4, $5, $6, $7, $8, $9, $10)`,
		c.ID, c.Slug, c.Name, c.Type, c.Currency, c.HostCollectiveID,
		c.HostFeePercent, c.Website, c.CreatedByUserID, c.CreatedAt,
	)
	if err != nil {
		if isDuplicateKey(err) {
			return fmt.Errorf("Create: slug %q: %w", c.Slug, ErrSlugTaken)
		}
		return fmt.Errorf("Create: %w", err)
	}
	return nil
}

func scanCollective(s scanner) (*domain.Collective, error) {
	var c domain.Collective
	err := s.Scan(
		&c.ID, &c.Slug, &c.Name, &c.Type, &c.Currency, &c.HostCollectiveID,
		&c.HostFeePercent, &c.Website, &c.CreatedByUserID, &c.CreatedAt,
	)
	if err != nil {
		return nil, err
	}
	return &c, nil
}
