package dao

import (
	"context"
	"sort"
	"sync"
	"time"

	"github.com/vadim/automarketer/internal/domain/schedule/entity"
)

// ScheduledPostMemory is an in-process ScheduledPostRepository.
// One mutex covers the whole queue so claims are check-and-remove.
type ScheduledPostMemory struct {
	mu    sync.Mutex
	posts map[string]*entity.ScheduledPost
}

// NewScheduledPostMemory creates an empty in-memory queue store
func NewScheduledPostMemory() *ScheduledPostMemory {
	return &ScheduledPostMemory{posts: make(map[string]*entity.ScheduledPost)}
}

func clonePost(p *entity.ScheduledPost) entity.ScheduledPost {
	out := *p
	out.Targets = append(out.Targets[:0:0], p.Targets...)
	if p.CompletedAt != nil {
		at := *p.CompletedAt
		out.CompletedAt = &at
	}
	return out
}

func sortByScheduledAt(posts []entity.ScheduledPost) {
	sort.Slice(posts, func(i, j int) bool {
		if posts[i].ScheduledAt.Equal(posts[j].ScheduledAt) {
			return posts[i].CreatedAt.Before(posts[j].CreatedAt)
		}
		return posts[i].ScheduledAt.Before(posts[j].ScheduledAt)
	})
}

// Create implements ScheduledPostRepository
func (r *ScheduledPostMemory) Create(_ context.Context, post *entity.ScheduledPost) error {
	r.mu.Lock()
	defer r.mu.Unlock()

	stored := clonePost(post)
	r.posts[post.ID] = &stored
	return nil
}

// GetByID implements ScheduledPostRepository
func (r *ScheduledPostMemory) GetByID(_ context.Context, id string) (*entity.ScheduledPost, error) {
	r.mu.Lock()
	defer r.mu.Unlock()

	p, ok := r.posts[id]
	if !ok {
		return nil, nil
	}
	out := clonePost(p)
	return &out, nil
}

// List implements ScheduledPostRepository
func (r *ScheduledPostMemory) List(_ context.Context, filter ListFilter) ([]entity.ScheduledPost, error) {
	r.mu.Lock()
	defer r.mu.Unlock()

	var out []entity.ScheduledPost
	for _, p := range r.posts {
		if filter.BusinessID != "" && p.BusinessID != filter.BusinessID {
			continue
		}
		if filter.Status != nil && p.Status != *filter.Status {
			continue
		}
		out = append(out, clonePost(p))
	}
	sortByScheduledAt(out)

	if filter.Limit > 0 && len(out) > filter.Limit {
		out = out[:filter.Limit]
	}
	return out, nil
}

// ClaimDue implements ScheduledPostRepository
func (r *ScheduledPostMemory) ClaimDue(_ context.Context, now time.Time, limit int) ([]entity.ScheduledPost, error) {
	r.mu.Lock()
	defer r.mu.Unlock()

	var due []*entity.ScheduledPost
	for _, p := range r.posts {
		if p.Status == entity.StatusPending && !p.ScheduledAt.After(now) {
			due = append(due, p)
		}
	}
	sort.Slice(due, func(i, j int) bool { return due[i].ScheduledAt.Before(due[j].ScheduledAt) })
	if limit > 0 && len(due) > limit {
		due = due[:limit]
	}

	out := make([]entity.ScheduledPost, 0, len(due))
	for _, p := range due {
		p.Status = entity.StatusProcessing
		p.UpdatedAt = now
		out = append(out, clonePost(p))
	}
	return out, nil
}

// Complete implements ScheduledPostRepository
func (r *ScheduledPostMemory) Complete(_ context.Context, id string, c entity.Completion) error {
	r.mu.Lock()
	defer r.mu.Unlock()

	p, ok := r.posts[id]
	if !ok {
		return entity.ErrPostNotFound
	}
	if p.Status != entity.StatusProcessing {
		return entity.ErrPostNotClaimed
	}

	at := c.At
	p.Status = c.Status
	p.Report = c.Report
	p.Error = c.Error
	p.UpdatedAt = at
	p.CompletedAt = &at
	return nil
}

// Cancel implements ScheduledPostRepository
func (r *ScheduledPostMemory) Cancel(_ context.Context, id string, at time.Time) error {
	r.mu.Lock()
	defer r.mu.Unlock()

	p, ok := r.posts[id]
	if !ok {
		return entity.ErrPostNotFound
	}
	if !p.IsCancellable() {
		return entity.ErrPostNotCancellable
	}

	p.Status = entity.StatusFailed
	p.Error = entity.CancelledReason
	p.UpdatedAt = at
	p.CompletedAt = &at
	return nil
}

// FailStale implements ScheduledPostRepository
func (r *ScheduledPostMemory) FailStale(_ context.Context, before time.Time, reason string) (int, error) {
	r.mu.Lock()
	defer r.mu.Unlock()

	n := 0
	now := time.Now()
	for _, p := range r.posts {
		if p.Status == entity.StatusProcessing && p.UpdatedAt.Before(before) {
			p.Status = entity.StatusFailed
			p.Error = reason
			p.UpdatedAt = now
			p.CompletedAt = &now
			n++
		}
	}
	return n, nil
}
