package dao

import (
	"context"
	"errors"
	"fmt"

	"github.com/jackc/pgx/v5"
	"github.com/jackc/pgx/v5/pgxpool"

	"github.com/vadim/automarketer/internal/domain/content/entity"
)

// RecordPostgres implements RecordRepository over the contents table
type RecordPostgres struct {
	pool *pgxpool.Pool
}

// NewRecordPostgres creates a new PostgreSQL content repository
func NewRecordPostgres(pool *pgxpool.Pool) *RecordPostgres {
	return &RecordPostgres{pool: pool}
}

// Create implements RecordRepository
func (r *RecordPostgres) Create(ctx context.Context, rec *entity.Record) error {
	query := `
		INSERT INTO contents (id, business_id, body, image_url, audio_url, video_url, platform_hint, created_at)
		VALUES ($1, $2, $3, $4, $5, $6, $7, $8)
	`

	_, err := r.pool.Exec(ctx, query,
		rec.ID,
		rec.BusinessID,
		rec.Body,
		rec.Media.ImageURL,
		rec.Media.AudioURL,
		rec.Media.VideoURL,
		rec.PlatformHint,
		rec.CreatedAt,
	)
	if err != nil {
		return fmt.Errorf("inserting content: %w", err)
	}
	return nil
}

// GetByID implements RecordRepository
func (r *RecordPostgres) GetByID(ctx context.Context, id string) (*entity.Record, error) {
	query := `
		SELECT id, business_id, body, image_url, audio_url, video_url, platform_hint, created_at
		FROM contents
		WHERE id = $1
	`

	rec, err := scanRecord(r.pool.QueryRow(ctx, query, id))
	if errors.Is(err, pgx.ErrNoRows) {
		return nil, nil
	}
	if err != nil {
		return nil, fmt.Errorf("querying content: %w", err)
	}
	return rec, nil
}

// List implements RecordRepository
func (r *RecordPostgres) List(ctx context.Context, filter ListFilter) ([]entity.Record, error) {
	query := `
		SELECT id, business_id, body, image_url, audio_url, video_url, platform_hint, created_at
		FROM contents
		WHERE 1=1
	`
	args := []interface{}{}
	argNum := 1

	if filter.BusinessID != "" {
		query += fmt.Sprintf(" AND business_id = $%d", argNum)
		args = append(args, filter.BusinessID)
		argNum++
	}

	query += " ORDER BY created_at DESC, id"

	if filter.Limit > 0 {
		query += fmt.Sprintf(" LIMIT $%d", argNum)
		args = append(args, filter.Limit)
		argNum++
	}
	if filter.Offset > 0 {
		query += fmt.Sprintf(" OFFSET $%d", argNum)
		args = append(args, filter.Offset)
	}

	rows, err := r.pool.Query(ctx, query, args...)
	if err != nil {
		return nil, fmt.Errorf("querying contents: %w", err)
	}
	defer rows.Close()

	var out []entity.Record
	for rows.Next() {
		rec, err := scanRecord(rows)
		if err != nil {
			return nil, fmt.Errorf("scanning content: %w", err)
		}
		out = append(out, *rec)
	}
	return out, rows.Err()
}

// Update implements RecordRepository
func (r *RecordPostgres) Update(ctx context.Context, rec *entity.Record) (bool, error) {
	query := `
		UPDATE contents
		SET body = $2, image_url = $3, audio_url = $4, video_url = $5, platform_hint = $6
		WHERE id = $1
	`

	tag, err := r.pool.Exec(ctx, query,
		rec.ID,
		rec.Body,
		rec.Media.ImageURL,
		rec.Media.AudioURL,
		rec.Media.VideoURL,
		rec.PlatformHint,
	)
	if err != nil {
		return false, fmt.Errorf("updating content: %w", err)
	}
	return tag.RowsAffected() > 0, nil
}

// Delete implements RecordRepository
func (r *RecordPostgres) Delete(ctx context.Context, id string) (bool, error) {
	tag, err := r.pool.Exec(ctx, `DELETE FROM contents WHERE id = $1`, id)
	if err != nil {
		return false, fmt.Errorf("deleting content: %w", err)
	}
	return tag.RowsAffected() > 0, nil
}

func scanRecord(row pgx.Row) (*entity.Record, error) {
	var rec entity.Record
	err := row.Scan(
		&rec.ID,
		&rec.BusinessID,
		&rec.Body,
		&rec.Media.ImageURL,
		&rec.Media.AudioURL,
		&rec.Media.VideoURL,
		&rec.PlatformHint,
		&rec.CreatedAt,
	)
	if err != nil {
		return nil, err
	}
	return &rec, nil
}
