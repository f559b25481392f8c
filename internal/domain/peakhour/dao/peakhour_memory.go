package dao

import (
	"context"
	"sort"
	"sync"

	"github.com/vadim/automarketer/internal/domain/peakhour/entity"
)

// PeakHourMemory is an in-process Repository
type PeakHourMemory struct {
	mu   sync.RWMutex
	sets map[string]entity.PeakHours
}

// NewPeakHourMemory creates an empty in-memory repository
func NewPeakHourMemory() *PeakHourMemory {
	return &PeakHourMemory{sets: make(map[string]entity.PeakHours)}
}

// Get implements Repository
func (r *PeakHourMemory) Get(_ context.Context, platform string) (*entity.PeakHours, error) {
	r.mu.RLock()
	defer r.mu.RUnlock()

	ph, ok := r.sets[platform]
	if !ok {
		return nil, nil
	}
	ph.Hours = ph.Hours.Clone()
	return &ph, nil
}

// Put implements Repository
func (r *PeakHourMemory) Put(_ context.Context, ph *entity.PeakHours) error {
	r.mu.Lock()
	defer r.mu.Unlock()

	stored := *ph
	stored.Hours = ph.Hours.Clone()
	r.sets[ph.Platform] = stored
	return nil
}

// List implements Repository
func (r *PeakHourMemory) List(_ context.Context) ([]entity.PeakHours, error) {
	r.mu.RLock()
	defer r.mu.RUnlock()

	out := make([]entity.PeakHours, 0, len(r.sets))
	for _, ph := range r.sets {
		ph.Hours = ph.Hours.Clone()
		out = append(out, ph)
	}
	sort.Slice(out, func(i, j int) bool { return out[i].Platform < out[j].Platform })
	return out, nil
}
