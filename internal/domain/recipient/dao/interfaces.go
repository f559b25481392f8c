package dao

import (
	"context"

	"github.com/vadim/automarketer/internal/domain/recipient/entity"
)

// Repository defines data access for managed recipients.
// Emails are stored normalized.
type Repository interface {
	// List returns recipients ordered by email
	List(ctx context.Context) ([]entity.Recipient, error)

	// Add inserts a recipient. Adding an existing email keeps the original row.
	Add(ctx context.Context, r *entity.Recipient) error

	// Remove deletes a recipient and reports whether it existed
	Remove(ctx context.Context, email string) (bool, error)
}
