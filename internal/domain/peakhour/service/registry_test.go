package service

import (
	"context"
	"sync"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/vadim/automarketer/internal/domain/peakhour/dao"
	"github.com/vadim/automarketer/internal/domain/peakhour/entity"
)

func newRegistry() *Registry {
	return New(dao.NewPeakHourMemory(), nil, time.UTC)
}

func TestRegistry_UnknownPlatformUsesDefaults(t *testing.T) {
	r := newRegistry()

	set, err := r.Get(context.Background(), "tiktok")
	require.NoError(t, err)
	assert.Equal(t, entity.Set{9, 12, 15, 18, 20}, set)

	_, err = r.Get(context.Background(), "  ")
	assert.ErrorIs(t, err, entity.ErrEmptyPlatform)
}

func TestRegistry_RegisterSeedsOnlyMissing(t *testing.T) {
	ctx := context.Background()
	repo := dao.NewPeakHourMemory()
	require.NoError(t, repo.Put(ctx, &entity.PeakHours{Platform: "linkedin", Hours: entity.Set{8}}))

	r := New(repo, nil, time.UTC)
	require.NoError(t, r.Register(ctx, "Twitter", "linkedin", "email"))

	twitter, err := r.Get(ctx, "twitter")
	require.NoError(t, err)
	assert.Equal(t, entity.Set{9, 10, 11, 17, 18, 21}, twitter)

	linkedin, err := r.Get(ctx, "linkedin")
	require.NoError(t, err)
	assert.Equal(t, entity.Set{8}, linkedin)

	all, err := r.List(ctx)
	require.NoError(t, err)
	require.Len(t, all, 3)
	assert.Equal(t, "email", all[0].Platform)
	assert.Equal(t, entity.Set{9, 12, 15, 18, 20}, all[0].Hours)
}

func TestRegistry_ToggleTwiceRestores(t *testing.T) {
	ctx := context.Background()
	r := newRegistry()
	require.NoError(t, r.Register(ctx, "twitter"))

	before, err := r.Get(ctx, "twitter")
	require.NoError(t, err)

	for _, hour := range []int{9, 14} {
		_, err = r.Toggle(ctx, "twitter", hour)
		require.NoError(t, err)
		_, err = r.Toggle(ctx, "twitter", hour)
		require.NoError(t, err)

		after, err := r.Get(ctx, "twitter")
		require.NoError(t, err)
		assert.Equal(t, before, after)
	}
}

func TestRegistry_ToggleOutOfRangeDoesNotMutate(t *testing.T) {
	ctx := context.Background()
	r := newRegistry()
	require.NoError(t, r.Register(ctx, "twitter"))

	_, err := r.Toggle(ctx, "twitter", 24)
	assert.ErrorIs(t, err, entity.ErrHourOutOfRange)

	set, err := r.Get(ctx, "twitter")
	require.NoError(t, err)
	assert.Equal(t, entity.SeedDefaults["twitter"], set)
}

func TestRegistry_ToggleUnknownPlatformStartsFromDefaults(t *testing.T) {
	ctx := context.Background()
	r := newRegistry()

	set, err := r.Toggle(ctx, "blog", 12)
	require.NoError(t, err)
	assert.Equal(t, entity.Set{9, 15, 18, 20}, set)
}

func TestRegistry_ConcurrentTogglesAreSerialized(t *testing.T) {
	ctx := context.Background()
	r := New(dao.NewPeakHourMemory(), entity.Set{23}, time.UTC)
	require.NoError(t, r.Register(ctx, "blog", "email"))

	var wg sync.WaitGroup
	for hour := 0; hour < 23; hour++ {
		for _, platform := range []string{"blog", "email"} {
			wg.Add(1)
			go func() {
				defer wg.Done()
				_, err := r.Toggle(ctx, platform, hour)
				assert.NoError(t, err)
			}()
		}
	}
	wg.Wait()

	for _, platform := range []string{"blog", "email"} {
		set, err := r.Get(ctx, platform)
		require.NoError(t, err)
		assert.Len(t, set, 24, "every toggle must observe the previous one on %s", platform)
	}
}

func TestRegistry_IsPeak(t *testing.T) {
	ctx := context.Background()
	loc := time.FixedZone("UTC+3", 3*3600)
	r := New(dao.NewPeakHourMemory(), entity.Set{12}, loc)

	peak, err := r.IsPeak(ctx, "blog", time.Date(2024, 5, 1, 9, 30, 0, 0, time.UTC))
	require.NoError(t, err)
	assert.True(t, peak)

	peak, err = r.IsPeak(ctx, "blog", time.Date(2024, 5, 1, 12, 30, 0, 0, time.UTC))
	require.NoError(t, err)
	assert.False(t, peak)
}
