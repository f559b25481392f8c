package dao

import (
	"context"
	"fmt"
	"sync"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	publish "github.com/vadim/automarketer/internal/domain/publish/entity"
	"github.com/vadim/automarketer/internal/domain/schedule/entity"
)

func seed(t *testing.T, repo *ScheduledPostMemory, n int, at time.Time) {
	t.Helper()
	for i := 0; i < n; i++ {
		require.NoError(t, repo.Create(context.Background(), &entity.ScheduledPost{
			ID:          fmt.Sprintf("p%03d", i),
			Content:     publish.ContentPayload{Body: "hello"},
			Targets:     publish.Targets(publish.ChannelTwitter),
			ScheduledAt: at.Add(time.Duration(i) * time.Second),
			Status:      entity.StatusPending,
		}))
	}
}

func TestClaimDue_ConcurrentCallersNeverShare(t *testing.T) {
	repo := NewScheduledPostMemory()
	now := time.Date(2024, 1, 1, 12, 0, 0, 0, time.UTC)
	seed(t, repo, 200, now.Add(-time.Hour))

	var (
		mu      sync.Mutex
		claimed = map[string]int{}
		wg      sync.WaitGroup
	)
	for w := 0; w < 8; w++ {
		wg.Add(1)
		go func() {
			defer wg.Done()
			for {
				posts, err := repo.ClaimDue(context.Background(), now, 7)
				assert.NoError(t, err)
				if len(posts) == 0 {
					return
				}
				mu.Lock()
				for _, p := range posts {
					claimed[p.ID]++
				}
				mu.Unlock()
			}
		}()
	}
	wg.Wait()

	assert.Len(t, claimed, 200)
	for id, n := range claimed {
		assert.Equal(t, 1, n, "post %s claimed %d times", id, n)
	}
}

func TestClaimDue_OnlyDuePendingInOrder(t *testing.T) {
	repo := NewScheduledPostMemory()
	now := time.Date(2024, 1, 1, 12, 0, 0, 0, time.UTC)
	seed(t, repo, 3, now.Add(-2*time.Second)) // the last one is due exactly at now
	require.NoError(t, repo.Create(context.Background(), &entity.ScheduledPost{
		ID: "future", ScheduledAt: now.Add(time.Minute), Status: entity.StatusPending,
	}))

	posts, err := repo.ClaimDue(context.Background(), now, 0)
	require.NoError(t, err)
	require.Len(t, posts, 3)
	assert.Equal(t, "p000", posts[0].ID)
	assert.Equal(t, "p002", posts[2].ID)
	for _, p := range posts {
		assert.Equal(t, entity.StatusProcessing, p.Status)
	}
}

func TestComplete_RequiresClaim(t *testing.T) {
	ctx := context.Background()
	repo := NewScheduledPostMemory()
	now := time.Now()
	seed(t, repo, 1, now.Add(-time.Minute))

	err := repo.Complete(ctx, "p000", entity.Completion{Status: entity.StatusPublished, At: now})
	assert.ErrorIs(t, err, entity.ErrPostNotClaimed)

	_, err = repo.ClaimDue(ctx, now, 0)
	require.NoError(t, err)
	require.NoError(t, repo.Complete(ctx, "p000", entity.Completion{Status: entity.StatusPublished, At: now}))

	err = repo.Complete(ctx, "p000", entity.Completion{Status: entity.StatusFailed, At: now})
	assert.ErrorIs(t, err, entity.ErrPostNotClaimed, "final status never changes")
}

func TestFailStale(t *testing.T) {
	ctx := context.Background()
	repo := NewScheduledPostMemory()
	now := time.Now()
	seed(t, repo, 2, now.Add(-time.Hour))

	_, err := repo.ClaimDue(ctx, now.Add(-30*time.Minute), 0)
	require.NoError(t, err)

	n, err := repo.FailStale(ctx, now, "interrupted")
	require.NoError(t, err)
	assert.Equal(t, 2, n)

	p, err := repo.GetByID(ctx, "p000")
	require.NoError(t, err)
	assert.Equal(t, entity.StatusFailed, p.Status)
	assert.Equal(t, "interrupted", p.Error)
}
