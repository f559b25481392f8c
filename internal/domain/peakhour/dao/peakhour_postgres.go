package dao

import (
	"context"
	"errors"
	"fmt"

	"github.com/jackc/pgx/v5"
	"github.com/jackc/pgx/v5/pgxpool"

	"github.com/vadim/automarketer/internal/domain/peakhour/entity"
)

// PeakHourPostgres implements Repository over the peak_hours table
type PeakHourPostgres struct {
	pool *pgxpool.Pool
}

// NewPeakHourPostgres creates a new PostgreSQL peak hour repository
func NewPeakHourPostgres(pool *pgxpool.Pool) *PeakHourPostgres {
	return &PeakHourPostgres{pool: pool}
}

// Get implements Repository
func (r *PeakHourPostgres) Get(ctx context.Context, platform string) (*entity.PeakHours, error) {
	query := `
		SELECT platform, hours, updated_at
		FROM peak_hours
		WHERE platform = $1
	`

	var ph entity.PeakHours
	var hours []int32
	err := r.pool.QueryRow(ctx, query, platform).Scan(&ph.Platform, &hours, &ph.UpdatedAt)
	if errors.Is(err, pgx.ErrNoRows) {
		return nil, nil
	}
	if err != nil {
		return nil, fmt.Errorf("querying peak hours: %w", err)
	}

	ph.Hours = toSet(hours)
	return &ph, nil
}

// Put implements Repository
func (r *PeakHourPostgres) Put(ctx context.Context, ph *entity.PeakHours) error {
	query := `
		INSERT INTO peak_hours (platform, hours, updated_at)
		VALUES ($1, $2, $3)
		ON CONFLICT (platform) DO UPDATE
		SET hours = EXCLUDED.hours, updated_at = EXCLUDED.updated_at
	`

	hours := make([]int32, len(ph.Hours))
	for i, h := range ph.Hours {
		hours[i] = int32(h)
	}

	if _, err := r.pool.Exec(ctx, query, ph.Platform, hours, ph.UpdatedAt); err != nil {
		return fmt.Errorf("upserting peak hours: %w", err)
	}
	return nil
}

// List implements Repository
func (r *PeakHourPostgres) List(ctx context.Context) ([]entity.PeakHours, error) {
	rows, err := r.pool.Query(ctx, `SELECT platform, hours, updated_at FROM peak_hours ORDER BY platform`)
	if err != nil {
		return nil, fmt.Errorf("querying peak hours: %w", err)
	}
	defer rows.Close()

	var out []entity.PeakHours
	for rows.Next() {
		var ph entity.PeakHours
		var hours []int32
		if err := rows.Scan(&ph.Platform, &hours, &ph.UpdatedAt); err != nil {
			return nil, fmt.Errorf("scanning peak hours: %w", err)
		}
		ph.Hours = toSet(hours)
		out = append(out, ph)
	}

	return out, rows.Err()
}

func toSet(hours []int32) entity.Set {
	out := make(entity.Set, len(hours))
	for i, h := range hours {
		out[i] = int(h)
	}
	return out
}
