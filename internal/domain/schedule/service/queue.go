package service

import (
	"context"
	"log/slog"
	"time"

	"github.com/google/uuid"
	"golang.org/x/sync/errgroup"

	peak "github.com/vadim/automarketer/internal/domain/peakhour/entity"
	publish "github.com/vadim/automarketer/internal/domain/publish/entity"
	"github.com/vadim/automarketer/internal/domain/schedule/dao"
	"github.com/vadim/automarketer/internal/domain/schedule/entity"
)

// PeakHourSource provides peak hours per platform
type PeakHourSource interface {
	Get(ctx context.Context, platform string) (peak.Set, error)
	Location() *time.Location
}

// Publisher runs one orchestration
type Publisher interface {
	Validate(payload publish.ContentPayload, targets []publish.Target) error
	Publish(ctx context.Context, payload publish.ContentPayload, targets []publish.Target) (*publish.Report, error)
}

// Recorder receives the final status of every processed post
type Recorder interface {
	ObservePost(status string)
}

// Config tunes queue processing
type Config struct {
	BatchSize   int // posts claimed per ProcessDue call
	Concurrency int // posts published in parallel
}

// Queue holds pending scheduled posts and dispatches them when due
type Queue struct {
	posts     dao.ScheduledPostRepository
	peaks     PeakHourSource
	publisher Publisher
	recorder  Recorder
	logger    *slog.Logger
	cfg       Config
	now       func() time.Time
}

// New creates a new schedule queue
func New(posts dao.ScheduledPostRepository, peaks PeakHourSource, publisher Publisher, cfg Config, logger *slog.Logger) *Queue {
	if cfg.BatchSize <= 0 {
		cfg.BatchSize = 50
	}
	if cfg.Concurrency <= 0 {
		cfg.Concurrency = 4
	}
	if logger == nil {
		logger = slog.Default()
	}
	return &Queue{
		posts:     posts,
		peaks:     peaks,
		publisher: publisher,
		logger:    logger,
		cfg:       cfg,
		now:       time.Now,
	}
}

// SetRecorder sets the metrics recorder
func (q *Queue) SetRecorder(r Recorder) {
	q.recorder = r
}

// SetClock overrides time.Now
func (q *Queue) SetClock(now func() time.Time) {
	q.now = now
}

// ScheduleInput represents input for scheduling a post
type ScheduleInput struct {
	BusinessID string
	Content    publish.ContentPayload
	Targets    []publish.Target
	Delay      *time.Duration // overrides peak-hour selection
}

// Schedule validates the request and stores a pending post at the next peak time
func (q *Queue) Schedule(ctx context.Context, in ScheduleInput) (*entity.ScheduledPost, error) {
	if err := q.publisher.Validate(in.Content, in.Targets); err != nil {
		return nil, err
	}

	now := q.now()

	var at time.Time
	if in.Delay != nil {
		if *in.Delay <= 0 {
			return nil, entity.ErrNegativeDelay
		}
		at = now.Add(*in.Delay)
	} else {
		sets := make([]peak.Set, 0, len(in.Targets))
		seen := make(map[publish.Channel]bool, len(in.Targets))
		for _, t := range in.Targets {
			if seen[t.Channel] {
				continue
			}
			seen[t.Channel] = true

			set, err := q.peaks.Get(ctx, string(t.Channel))
			if err != nil {
				return nil, err
			}
			sets = append(sets, set)
		}
		at = NextPeakTime(now, q.peaks.Location(), sets...)
	}

	post := &entity.ScheduledPost{
		ID:          uuid.New().String(),
		BusinessID:  in.BusinessID,
		Content:     in.Content,
		Targets:     append([]publish.Target(nil), in.Targets...),
		ScheduledAt: at,
		Status:      entity.StatusPending,
		CreatedAt:   now,
		UpdatedAt:   now,
	}

	if err := q.posts.Create(ctx, post); err != nil {
		return nil, err
	}

	q.logger.Info("post scheduled",
		"post_id", post.ID,
		"business_id", post.BusinessID,
		"platforms", post.Platforms(),
		"scheduled_at", post.ScheduledAt,
	)

	return post, nil
}

// NextPeakTime returns the earliest upcoming peak hour across all sets.
// An hour that is not strictly after now moves to the next day.
// With no hours at all it returns now plus one hour.
func NextPeakTime(now time.Time, loc *time.Location, sets ...peak.Set) time.Time {
	if loc == nil {
		loc = time.UTC
	}
	local := now.In(loc)

	var best time.Time
	for _, set := range sets {
		for _, h := range set {
			candidate := time.Date(local.Year(), local.Month(), local.Day(), h, 0, 0, 0, loc)
			if !candidate.After(local) {
				candidate = candidate.AddDate(0, 0, 1)
			}
			if best.IsZero() || candidate.Before(best) {
				best = candidate
			}
		}
	}

	if best.IsZero() {
		return now.Add(time.Hour)
	}
	return best
}

// DequeueDue claims the pending posts due at now, at most BatchSize of them,
// earliest first. No post is returned twice; the dispatcher keeps calling
// until a batch comes back short.
func (q *Queue) DequeueDue(ctx context.Context, now time.Time) ([]entity.ScheduledPost, error) {
	return q.posts.ClaimDue(ctx, now, q.cfg.BatchSize)
}

// ProcessDue claims due posts and publishes them, returning how many were processed
func (q *Queue) ProcessDue(ctx context.Context) (int, error) {
	posts, err := q.DequeueDue(ctx, q.now())
	if err != nil {
		return 0, err
	}
	if len(posts) == 0 {
		return 0, nil
	}

	var g errgroup.Group
	g.SetLimit(q.cfg.Concurrency)
	for i := range posts {
		post := &posts[i]
		g.Go(func() error {
			q.process(ctx, post)
			return nil
		})
	}
	_ = g.Wait()

	return len(posts), nil
}

// process publishes one claimed post and records its final status
func (q *Queue) process(ctx context.Context, post *entity.ScheduledPost) {
	c := entity.Completion{Status: entity.StatusFailed}

	report, err := q.publisher.Publish(ctx, post.Content, post.Targets)
	switch {
	case err != nil:
		c.Error = err.Error()
	case report.SucceededCount() > 0:
		c.Status = entity.StatusPublished
		c.Report = report
	default:
		c.Report = report
		c.Error = "all targets failed"
	}
	c.At = q.now()

	// The claim must be resolved even when the caller is shutting down
	if err := q.posts.Complete(context.WithoutCancel(ctx), post.ID, c); err != nil {
		q.logger.Error("failed to complete scheduled post", "post_id", post.ID, "error", err)
		return
	}

	if q.recorder != nil {
		q.recorder.ObservePost(string(c.Status))
	}

	q.logger.Info("scheduled post processed",
		"post_id", post.ID,
		"status", c.Status,
		"error", c.Error,
	)
}

// ListFilter filters List
type ListFilter = dao.ListFilter

// List returns scheduled posts ordered by time
func (q *Queue) List(ctx context.Context, filter ListFilter) ([]entity.ScheduledPost, error) {
	return q.posts.List(ctx, filter)
}

// Get returns one scheduled post
func (q *Queue) Get(ctx context.Context, id string) (*entity.ScheduledPost, error) {
	post, err := q.posts.GetByID(ctx, id)
	if err != nil {
		return nil, err
	}
	if post == nil {
		return nil, entity.ErrPostNotFound
	}
	return post, nil
}

// Cancel fails a pending post so it is never dispatched
func (q *Queue) Cancel(ctx context.Context, id string) (*entity.ScheduledPost, error) {
	if err := q.posts.Cancel(ctx, id, q.now()); err != nil {
		return nil, err
	}
	return q.Get(ctx, id)
}

// RecoverStale fails posts left in processing for longer than olderThan
func (q *Queue) RecoverStale(ctx context.Context, olderThan time.Duration) (int, error) {
	n, err := q.posts.FailStale(ctx, q.now().Add(-olderThan), "interrupted during dispatch")
	if err != nil {
		return 0, err
	}
	if n > 0 {
		q.logger.Warn("failed stale scheduled posts", "count", n)
	}
	return n, nil
}
