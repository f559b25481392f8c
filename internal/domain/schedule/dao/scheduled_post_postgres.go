package dao

import (
	"context"
	"encoding/json"
	"errors"
	"fmt"
	"time"

	"github.com/jackc/pgx/v5"
	"github.com/jackc/pgx/v5/pgxpool"

	publish "github.com/vadim/automarketer/internal/domain/publish/entity"
	"github.com/vadim/automarketer/internal/domain/schedule/entity"
)

const postColumns = `id, business_id, content, targets, scheduled_at, status,
	report, error_message, created_at, updated_at, completed_at`

// ScheduledPostPostgres implements ScheduledPostRepository for PostgreSQL
type ScheduledPostPostgres struct {
	pool *pgxpool.Pool
}

// NewScheduledPostPostgres creates a new PostgreSQL scheduled post repository
func NewScheduledPostPostgres(pool *pgxpool.Pool) *ScheduledPostPostgres {
	return &ScheduledPostPostgres{pool: pool}
}

// Create inserts a new scheduled post
func (r *ScheduledPostPostgres) Create(ctx context.Context, post *entity.ScheduledPost) error {
	content, err := json.Marshal(post.Content)
	if err != nil {
		return fmt.Errorf("encoding content: %w", err)
	}
	targets, err := json.Marshal(post.Targets)
	if err != nil {
		return fmt.Errorf("encoding targets: %w", err)
	}

	query := `
		INSERT INTO scheduled_posts (id, business_id, content, targets, scheduled_at, status, created_at, updated_at)
		VALUES ($1, $2, $3, $4, $5, $6, $7, $8)
	`

	_, err = r.pool.Exec(ctx, query,
		post.ID,
		post.BusinessID,
		content,
		targets,
		post.ScheduledAt,
		post.Status,
		post.CreatedAt,
		post.UpdatedAt,
	)
	if err != nil {
		return fmt.Errorf("inserting scheduled post: %w", err)
	}

	return nil
}

// GetByID retrieves a scheduled post by ID
func (r *ScheduledPostPostgres) GetByID(ctx context.Context, id string) (*entity.ScheduledPost, error) {
	query := `SELECT ` + postColumns + ` FROM scheduled_posts WHERE id = $1`

	post, err := scanPost(r.pool.QueryRow(ctx, query, id))
	if errors.Is(err, pgx.ErrNoRows) {
		return nil, nil
	}
	if err != nil {
		return nil, fmt.Errorf("scanning scheduled post: %w", err)
	}

	return post, nil
}

// List retrieves scheduled posts with filtering
func (r *ScheduledPostPostgres) List(ctx context.Context, filter ListFilter) ([]entity.ScheduledPost, error) {
	query := `SELECT ` + postColumns + ` FROM scheduled_posts WHERE 1=1`
	args := []interface{}{}
	argNum := 1

	if filter.BusinessID != "" {
		query += fmt.Sprintf(" AND business_id = $%d", argNum)
		args = append(args, filter.BusinessID)
		argNum++
	}

	if filter.Status != nil {
		query += fmt.Sprintf(" AND status = $%d", argNum)
		args = append(args, *filter.Status)
		argNum++
	}

	query += " ORDER BY scheduled_at ASC, created_at ASC"

	if filter.Limit > 0 {
		query += fmt.Sprintf(" LIMIT $%d", argNum)
		args = append(args, filter.Limit)
	}

	rows, err := r.pool.Query(ctx, query, args...)
	if err != nil {
		return nil, fmt.Errorf("querying scheduled posts: %w", err)
	}
	defer rows.Close()

	return collectPosts(rows)
}

// ClaimDue claims due posts with SKIP LOCKED so concurrent dispatchers never share a row
func (r *ScheduledPostPostgres) ClaimDue(ctx context.Context, now time.Time, limit int) ([]entity.ScheduledPost, error) {
	if limit <= 0 {
		limit = 100
	}

	query := `
		UPDATE scheduled_posts
		SET status = 'processing', updated_at = $1
		WHERE id IN (
			SELECT id FROM scheduled_posts
			WHERE status = 'pending' AND scheduled_at <= $1
			ORDER BY scheduled_at
			LIMIT $2
			FOR UPDATE SKIP LOCKED
		)
		RETURNING ` + postColumns

	rows, err := r.pool.Query(ctx, query, now, limit)
	if err != nil {
		return nil, fmt.Errorf("claiming due posts: %w", err)
	}
	defer rows.Close()

	posts, err := collectPosts(rows)
	if err != nil {
		return nil, err
	}
	sortByScheduledAt(posts)
	return posts, nil
}

// Complete stores the final status of a claimed post
func (r *ScheduledPostPostgres) Complete(ctx context.Context, id string, c entity.Completion) error {
	var report []byte
	if c.Report != nil {
		var err error
		if report, err = json.Marshal(c.Report); err != nil {
			return fmt.Errorf("encoding report: %w", err)
		}
	}

	query := `
		UPDATE scheduled_posts
		SET status = $2, report = $3, error_message = $4, updated_at = $5, completed_at = $5
		WHERE id = $1 AND status = 'processing'
	`

	tag, err := r.pool.Exec(ctx, query, id, c.Status, report, nullable(c.Error), c.At)
	if err != nil {
		return fmt.Errorf("completing scheduled post: %w", err)
	}
	if tag.RowsAffected() == 0 {
		return entity.ErrPostNotClaimed
	}

	return nil
}

// Cancel fails a pending post
func (r *ScheduledPostPostgres) Cancel(ctx context.Context, id string, at time.Time) error {
	query := `
		UPDATE scheduled_posts
		SET status = 'failed', error_message = $2, updated_at = $3, completed_at = $3
		WHERE id = $1 AND status = 'pending'
	`

	tag, err := r.pool.Exec(ctx, query, id, entity.CancelledReason, at)
	if err != nil {
		return fmt.Errorf("cancelling scheduled post: %w", err)
	}
	if tag.RowsAffected() == 0 {
		existing, err := r.GetByID(ctx, id)
		if err != nil {
			return err
		}
		if existing == nil {
			return entity.ErrPostNotFound
		}
		return entity.ErrPostNotCancellable
	}

	return nil
}

// FailStale fails posts stuck in processing
func (r *ScheduledPostPostgres) FailStale(ctx context.Context, before time.Time, reason string) (int, error) {
	query := `
		UPDATE scheduled_posts
		SET status = 'failed', error_message = $2, updated_at = NOW(), completed_at = NOW()
		WHERE status = 'processing' AND updated_at < $1
	`

	tag, err := r.pool.Exec(ctx, query, before, reason)
	if err != nil {
		return 0, fmt.Errorf("failing stale posts: %w", err)
	}

	return int(tag.RowsAffected()), nil
}

func scanPost(row pgx.Row) (*entity.ScheduledPost, error) {
	var post entity.ScheduledPost
	var content, targets, report []byte
	var errorMessage *string

	err := row.Scan(
		&post.ID,
		&post.BusinessID,
		&content,
		&targets,
		&post.ScheduledAt,
		&post.Status,
		&report,
		&errorMessage,
		&post.CreatedAt,
		&post.UpdatedAt,
		&post.CompletedAt,
	)
	if err != nil {
		return nil, err
	}

	if err := json.Unmarshal(content, &post.Content); err != nil {
		return nil, fmt.Errorf("decoding content: %w", err)
	}
	if err := json.Unmarshal(targets, &post.Targets); err != nil {
		return nil, fmt.Errorf("decoding targets: %w", err)
	}
	if len(report) > 0 {
		post.Report = &publish.Report{}
		if err := json.Unmarshal(report, post.Report); err != nil {
			return nil, fmt.Errorf("decoding report: %w", err)
		}
	}
	if errorMessage != nil {
		post.Error = *errorMessage
	}

	return &post, nil
}

func collectPosts(rows pgx.Rows) ([]entity.ScheduledPost, error) {
	var posts []entity.ScheduledPost
	for rows.Next() {
		post, err := scanPost(rows)
		if err != nil {
			return nil, fmt.Errorf("scanning scheduled post: %w", err)
		}
		posts = append(posts, *post)
	}
	if err := rows.Err(); err != nil {
		return nil, fmt.Errorf("iterating scheduled posts: %w", err)
	}
	return posts, nil
}

func nullable(s string) *string {
	if s == "" {
		return nil
	}
	return &s
}
