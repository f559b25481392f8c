package dao

import (
	"context"
	"errors"
	"fmt"

	"github.com/jackc/pgx/v5"
	"github.com/jackc/pgx/v5/pgxpool"

	"github.com/vadim/automarketer/internal/domain/content/entity"
)

// BusinessPostgres implements BusinessRepository over the businesses table
type BusinessPostgres struct {
	pool *pgxpool.Pool
}

// NewBusinessPostgres creates a new PostgreSQL business repository
func NewBusinessPostgres(pool *pgxpool.Pool) *BusinessPostgres {
	return &BusinessPostgres{pool: pool}
}

// GetByID retrieves a business profile. Soft-deleted rows are ignored.
func (r *BusinessPostgres) GetByID(ctx context.Context, id string) (*entity.Business, error) {
	query := `
		SELECT id, name, industry, updated_at
		FROM businesses
		WHERE id = $1 AND deleted_at IS NULL
	`

	var b entity.Business
	var industry *string
	err := r.pool.QueryRow(ctx, query, id).Scan(&b.ID, &b.Name, &industry, &b.UpdatedAt)
	if errors.Is(err, pgx.ErrNoRows) {
		return nil, nil
	}
	if err != nil {
		return nil, fmt.Errorf("querying business: %w", err)
	}
	if industry != nil {
		b.Industry = *industry
	}

	return &b, nil
}

// Upsert implements BusinessRepository
func (r *BusinessPostgres) Upsert(ctx context.Context, b *entity.Business) error {
	query := `
		INSERT INTO businesses (id, name, industry, updated_at)
		VALUES ($1, $2, NULLIF($3, ''), $4)
		ON CONFLICT (id) DO UPDATE
		SET name = EXCLUDED.name, industry = EXCLUDED.industry,
			updated_at = EXCLUDED.updated_at, deleted_at = NULL
	`

	if _, err := r.pool.Exec(ctx, query, b.ID, b.Name, b.Industry, b.UpdatedAt); err != nil {
		return fmt.Errorf("upserting business: %w", err)
	}
	return nil
}
