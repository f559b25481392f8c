package dao

import (
	"context"
	"time"

	"github.com/vadim/automarketer/internal/domain/schedule/entity"
)

// ListFilter contains filters for listing scheduled posts
type ListFilter struct {
	BusinessID string
	Status     *entity.Status
	Limit      int
}

// ScheduledPostRepository defines data access for scheduled posts
type ScheduledPostRepository interface {
	// Create inserts a new pending post
	Create(ctx context.Context, post *entity.ScheduledPost) error

	// GetByID returns nil, nil when the post does not exist
	GetByID(ctx context.Context, id string) (*entity.ScheduledPost, error)

	// List returns posts ordered by scheduled time
	List(ctx context.Context, filter ListFilter) ([]entity.ScheduledPost, error)

	// ClaimDue atomically moves up to limit pending posts with
	// scheduled_at <= now to processing and returns them.
	// A post is returned by at most one caller.
	ClaimDue(ctx context.Context, now time.Time, limit int) ([]entity.ScheduledPost, error)

	// Complete moves a processing post to a final status.
	// Returns entity.ErrPostNotClaimed if the post is not processing.
	Complete(ctx context.Context, id string, c entity.Completion) error

	// Cancel moves a pending post to failed with the cancelled reason.
	// Returns entity.ErrPostNotCancellable if the post is not pending.
	Cancel(ctx context.Context, id string, at time.Time) error

	// FailStale fails processing posts not updated since before,
	// left behind by a dispatcher that stopped mid-flight
	FailStale(ctx context.Context, before time.Time, reason string) (int, error)
}
