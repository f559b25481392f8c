package dao

import (
	"context"
	"sort"
	"sync"

	"github.com/vadim/automarketer/internal/domain/content/entity"
)

// RecordMemory is an in-process RecordRepository
type RecordMemory struct {
	mu      sync.RWMutex
	records map[string]entity.Record
}

// NewRecordMemory creates an empty in-memory content store
func NewRecordMemory() *RecordMemory {
	return &RecordMemory{records: make(map[string]entity.Record)}
}

// Create implements RecordRepository
func (r *RecordMemory) Create(_ context.Context, rec *entity.Record) error {
	r.mu.Lock()
	defer r.mu.Unlock()
	r.records[rec.ID] = *rec
	return nil
}

// GetByID implements RecordRepository
func (r *RecordMemory) GetByID(_ context.Context, id string) (*entity.Record, error) {
	r.mu.RLock()
	defer r.mu.RUnlock()

	rec, ok := r.records[id]
	if !ok {
		return nil, nil
	}
	return &rec, nil
}

// List implements RecordRepository
func (r *RecordMemory) List(_ context.Context, filter ListFilter) ([]entity.Record, error) {
	r.mu.RLock()
	out := make([]entity.Record, 0, len(r.records))
	for _, rec := range r.records {
		if filter.BusinessID != "" && rec.BusinessID != filter.BusinessID {
			continue
		}
		out = append(out, rec)
	}
	r.mu.RUnlock()

	sort.Slice(out, func(i, j int) bool {
		if out[i].CreatedAt.Equal(out[j].CreatedAt) {
			return out[i].ID < out[j].ID
		}
		return out[i].CreatedAt.After(out[j].CreatedAt)
	})

	if filter.Offset > 0 {
		if filter.Offset >= len(out) {
			return []entity.Record{}, nil
		}
		out = out[filter.Offset:]
	}
	if filter.Limit > 0 && len(out) > filter.Limit {
		out = out[:filter.Limit]
	}
	return out, nil
}

// Update implements RecordRepository
func (r *RecordMemory) Update(_ context.Context, rec *entity.Record) (bool, error) {
	r.mu.Lock()
	defer r.mu.Unlock()

	cur, ok := r.records[rec.ID]
	if !ok {
		return false, nil
	}
	cur.Body = rec.Body
	cur.Media = rec.Media
	cur.PlatformHint = rec.PlatformHint
	r.records[rec.ID] = cur
	return true, nil
}

// Delete implements RecordRepository
func (r *RecordMemory) Delete(_ context.Context, id string) (bool, error) {
	r.mu.Lock()
	defer r.mu.Unlock()

	if _, ok := r.records[id]; !ok {
		return false, nil
	}
	delete(r.records, id)
	return true, nil
}

// BusinessMemory is an in-process BusinessRepository
type BusinessMemory struct {
	mu         sync.RWMutex
	businesses map[string]entity.Business
}

// NewBusinessMemory creates an empty in-memory profile store
func NewBusinessMemory() *BusinessMemory {
	return &BusinessMemory{businesses: make(map[string]entity.Business)}
}

// GetByID implements BusinessRepository
func (r *BusinessMemory) GetByID(_ context.Context, id string) (*entity.Business, error) {
	r.mu.RLock()
	defer r.mu.RUnlock()

	b, ok := r.businesses[id]
	if !ok {
		return nil, nil
	}
	return &b, nil
}

// Upsert implements BusinessRepository
func (r *BusinessMemory) Upsert(_ context.Context, b *entity.Business) error {
	r.mu.Lock()
	defer r.mu.Unlock()
	r.businesses[b.ID] = *b
	return nil
}
