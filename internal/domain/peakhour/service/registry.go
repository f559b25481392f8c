package service

import (
	"context"
	"sync"
	"time"

	"github.com/vadim/automarketer/internal/domain/peakhour/dao"
	"github.com/vadim/automarketer/internal/domain/peakhour/entity"
)

// Registry serves per-platform peak hours over a durable store.
// Toggles on the same platform are serialized; different platforms proceed in parallel.
type Registry struct {
	repo     dao.Repository
	defaults entity.Set
	loc      *time.Location
	now      func() time.Time

	mu    sync.Mutex
	locks map[string]*sync.Mutex
}

// New creates a registry. An empty defaults uses entity.DefaultSet, a nil loc uses UTC.
func New(repo dao.Repository, defaults entity.Set, loc *time.Location) *Registry {
	if len(defaults) == 0 {
		defaults = entity.DefaultSet
	}
	if loc == nil {
		loc = time.UTC
	}
	return &Registry{
		repo:     repo,
		defaults: defaults.Clone(),
		loc:      loc,
		now:      time.Now,
		locks:    make(map[string]*sync.Mutex),
	}
}

// Location is the timezone hours are interpreted in
func (r *Registry) Location() *time.Location {
	return r.loc
}

// Defaults returns the fallback set
func (r *Registry) Defaults() entity.Set {
	return r.defaults.Clone()
}

func (r *Registry) lockFor(platform string) *sync.Mutex {
	r.mu.Lock()
	defer r.mu.Unlock()

	l, ok := r.locks[platform]
	if !ok {
		l = &sync.Mutex{}
		r.locks[platform] = l
	}
	return l
}

// Register seeds platforms that have no stored set yet
func (r *Registry) Register(ctx context.Context, platforms ...string) error {
	for _, raw := range platforms {
		platform, err := entity.NormalizePlatform(raw)
		if err != nil {
			return err
		}

		l := r.lockFor(platform)
		l.Lock()
		err = r.seed(ctx, platform)
		l.Unlock()
		if err != nil {
			return err
		}
	}
	return nil
}

func (r *Registry) seed(ctx context.Context, platform string) error {
	existing, err := r.repo.Get(ctx, platform)
	if err != nil {
		return err
	}
	if existing != nil {
		return nil
	}

	hours := r.defaults
	if seed, ok := entity.SeedDefaults[platform]; ok {
		hours = seed
	}
	return r.repo.Put(ctx, &entity.PeakHours{
		Platform:  platform,
		Hours:     hours.Clone(),
		UpdatedAt: r.now(),
	})
}

// Get returns the platform's set, or the default set for unknown platforms
func (r *Registry) Get(ctx context.Context, platform string) (entity.Set, error) {
	p, err := entity.NormalizePlatform(platform)
	if err != nil {
		return nil, err
	}

	ph, err := r.repo.Get(ctx, p)
	if err != nil {
		return nil, err
	}
	if ph == nil {
		return r.defaults.Clone(), nil
	}
	return ph.Hours.Clone(), nil
}

// List returns every stored platform set
func (r *Registry) List(ctx context.Context) ([]entity.PeakHours, error) {
	return r.repo.List(ctx)
}

// Toggle flips hour in the platform's set and returns the new set.
// Unknown platforms start from the default set.
func (r *Registry) Toggle(ctx context.Context, platform string, hour int) (entity.Set, error) {
	if err := entity.ValidateHour(hour); err != nil {
		return nil, err
	}
	p, err := entity.NormalizePlatform(platform)
	if err != nil {
		return nil, err
	}

	l := r.lockFor(p)
	l.Lock()
	defer l.Unlock()

	current, err := r.Get(ctx, p)
	if err != nil {
		return nil, err
	}

	next, err := current.Toggle(hour)
	if err != nil {
		return nil, err
	}

	if err := r.repo.Put(ctx, &entity.PeakHours{Platform: p, Hours: next, UpdatedAt: r.now()}); err != nil {
		return nil, err
	}
	return next.Clone(), nil
}

// IsPeak reports whether t falls in one of the platform's peak hours
func (r *Registry) IsPeak(ctx context.Context, platform string, t time.Time) (bool, error) {
	set, err := r.Get(ctx, platform)
	if err != nil {
		return false, err
	}
	return set.Contains(t.In(r.loc).Hour()), nil
}
