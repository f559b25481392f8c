package dao

import (
	"context"

	"github.com/vadim/automarketer/internal/domain/content/entity"
)

// ListFilter narrows content listings
type ListFilter struct {
	BusinessID string
	Limit      int
	Offset     int
}

// RecordRepository defines data access for stored content
type RecordRepository interface {
	// Create inserts a new record. ID and CreatedAt must be set.
	Create(ctx context.Context, rec *entity.Record) error

	// GetByID returns nil, nil when the record does not exist
	GetByID(ctx context.Context, id string) (*entity.Record, error)

	// List returns records newest first
	List(ctx context.Context, filter ListFilter) ([]entity.Record, error)

	// Update replaces the body, media and platform hint. Reports false when the record does not exist.
	Update(ctx context.Context, rec *entity.Record) (bool, error)

	// Delete removes a record. Reports false when the record does not exist.
	Delete(ctx context.Context, id string) (bool, error)
}

// BusinessRepository defines data access for business profiles
type BusinessRepository interface {
	// GetByID returns nil, nil when the business does not exist
	GetByID(ctx context.Context, id string) (*entity.Business, error)

	// Upsert creates or replaces a profile
	Upsert(ctx context.Context, b *entity.Business) error
}
