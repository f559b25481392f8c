package dao

import (
	"context"
	"sort"
	"sync"

	"github.com/vadim/automarketer/internal/domain/recipient/entity"
)

// RecipientMemory is an in-process Repository
type RecipientMemory struct {
	mu         sync.RWMutex
	recipients map[string]entity.Recipient
}

// NewRecipientMemory creates an empty in-memory recipient list
func NewRecipientMemory() *RecipientMemory {
	return &RecipientMemory{recipients: make(map[string]entity.Recipient)}
}

// List implements Repository
func (r *RecipientMemory) List(_ context.Context) ([]entity.Recipient, error) {
	r.mu.RLock()
	defer r.mu.RUnlock()

	out := make([]entity.Recipient, 0, len(r.recipients))
	for _, rec := range r.recipients {
		out = append(out, rec)
	}
	sort.Slice(out, func(i, j int) bool { return out[i].Email < out[j].Email })
	return out, nil
}

// Add implements Repository
func (r *RecipientMemory) Add(_ context.Context, rec *entity.Recipient) error {
	r.mu.Lock()
	defer r.mu.Unlock()

	if existing, ok := r.recipients[rec.Email]; ok {
		*rec = existing
		return nil
	}
	r.recipients[rec.Email] = *rec
	return nil
}

// Remove implements Repository
func (r *RecipientMemory) Remove(_ context.Context, email string) (bool, error) {
	r.mu.Lock()
	defer r.mu.Unlock()

	if _, ok := r.recipients[email]; !ok {
		return false, nil
	}
	delete(r.recipients, email)
	return true, nil
}
