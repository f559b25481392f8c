package dao

import (
	"context"

	"github.com/vadim/automarketer/internal/domain/peakhour/entity"
)

// Repository stores one hour set per platform
type Repository interface {
	// Get returns nil, nil when the platform has no stored set
	Get(ctx context.Context, platform string) (*entity.PeakHours, error)

	// Put creates or replaces the set of a platform
	Put(ctx context.Context, ph *entity.PeakHours) error

	// List returns every stored set ordered by platform
	List(ctx context.Context) ([]entity.PeakHours, error)
}
