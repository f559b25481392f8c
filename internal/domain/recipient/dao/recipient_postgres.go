package dao

import (
	"context"
	"fmt"

	"github.com/jackc/pgx/v5/pgxpool"

	"github.com/vadim/automarketer/internal/domain/recipient/entity"
)

// RecipientPostgres implements Repository over the email_recipients table
type RecipientPostgres struct {
	pool *pgxpool.Pool
}

// NewRecipientPostgres creates a new PostgreSQL recipient repository
func NewRecipientPostgres(pool *pgxpool.Pool) *RecipientPostgres {
	return &RecipientPostgres{pool: pool}
}

// List implements Repository
func (r *RecipientPostgres) List(ctx context.Context) ([]entity.Recipient, error) {
	rows, err := r.pool.Query(ctx, `SELECT email, created_at FROM email_recipients ORDER BY email`)
	if err != nil {
		return nil, fmt.Errorf("querying recipients: %w", err)
	}
	defer rows.Close()

	var out []entity.Recipient
	for rows.Next() {
		var rec entity.Recipient
		if err := rows.Scan(&rec.Email, &rec.CreatedAt); err != nil {
			return nil, fmt.Errorf("scanning recipient: %w", err)
		}
		out = append(out, rec)
	}
	return out, rows.Err()
}

// Add implements Repository
func (r *RecipientPostgres) Add(ctx context.Context, rec *entity.Recipient) error {
	// The no-op update makes RETURNING yield the existing row on conflict
	query := `
		INSERT INTO email_recipients (email, created_at)
		VALUES ($1, $2)
		ON CONFLICT (email) DO UPDATE SET email = EXCLUDED.email
		RETURNING created_at
	`

	if err := r.pool.QueryRow(ctx, query, rec.Email, rec.CreatedAt).Scan(&rec.CreatedAt); err != nil {
		return fmt.Errorf("inserting recipient: %w", err)
	}
	return nil
}

// Remove implements Repository
func (r *RecipientPostgres) Remove(ctx context.Context, email string) (bool, error) {
	tag, err := r.pool.Exec(ctx, `DELETE FROM email_recipients WHERE email = $1`, email)
	if err != nil {
		return false, fmt.Errorf("deleting recipient: %w", err)
	}
	return tag.RowsAffected() > 0, nil
}
