package service

import (
	"context"
	"fmt"
	"strings"
	"time"

	"github.com/google/uuid"

	"github.com/vadim/automarketer/internal/domain/content/dao"
	"github.com/vadim/automarketer/internal/domain/content/entity"
	publish "github.com/vadim/automarketer/internal/domain/publish/entity"
)

const defaultListLimit = 50

// Service stores content payloads and business profiles
type Service struct {
	records    dao.RecordRepository
	businesses dao.BusinessRepository
	now        func() time.Time
}

// New creates a new content service
func New(records dao.RecordRepository, businesses dao.BusinessRepository) *Service {
	return &Service{
		records:    records,
		businesses: businesses,
		now:        time.Now,
	}
}

// Save stores the payload for a business and returns it with its assigned ID
func (s *Service) Save(ctx context.Context, businessID string, payload publish.ContentPayload) (publish.ContentPayload, error) {
	if strings.TrimSpace(businessID) == "" {
		return payload, entity.ErrEmptyBusinessID
	}
	if err := payload.Validate(); err != nil {
		return payload, err
	}

	rec := entity.NewRecord(businessID, payload)
	rec.ID = uuid.New().String()
	rec.CreatedAt = s.now().UTC()

	if err := s.records.Create(ctx, rec); err != nil {
		return payload, fmt.Errorf("saving content: %w", err)
	}

	return rec.Payload(), nil
}

// Get returns a stored record
func (s *Service) Get(ctx context.Context, id string) (*entity.Record, error) {
	rec, err := s.records.GetByID(ctx, id)
	if err != nil {
		return nil, fmt.Errorf("getting content: %w", err)
	}
	if rec == nil {
		return nil, entity.ErrRecordNotFound
	}
	return rec, nil
}

// Payload resolves a content ID to a publishable payload
func (s *Service) Payload(ctx context.Context, id string) (publish.ContentPayload, error) {
	rec, err := s.Get(ctx, id)
	if err != nil {
		return publish.ContentPayload{}, err
	}
	return rec.Payload(), nil
}

// List returns records newest first
func (s *Service) List(ctx context.Context, filter dao.ListFilter) ([]entity.Record, error) {
	if filter.Limit <= 0 {
		filter.Limit = defaultListLimit
	}
	recs, err := s.records.List(ctx, filter)
	if err != nil {
		return nil, fmt.Errorf("listing content: %w", err)
	}
	if recs == nil {
		recs = []entity.Record{}
	}
	return recs, nil
}

// Update changes selected fields of a stored record. The result must still be publishable.
func (s *Service) Update(ctx context.Context, id string, u entity.Update) (*entity.Record, error) {
	rec, err := s.Get(ctx, id)
	if err != nil {
		return nil, err
	}
	if u.IsEmpty() {
		return rec, nil
	}

	rec.Apply(u)
	if err := rec.Payload().Validate(); err != nil {
		return nil, err
	}

	found, err := s.records.Update(ctx, rec)
	if err != nil {
		return nil, fmt.Errorf("updating content: %w", err)
	}
	if !found {
		return nil, entity.ErrRecordNotFound
	}
	return rec, nil
}

// Delete removes a stored record. Posts already scheduled keep their own copy.
func (s *Service) Delete(ctx context.Context, id string) error {
	found, err := s.records.Delete(ctx, id)
	if err != nil {
		return fmt.Errorf("deleting content: %w", err)
	}
	if !found {
		return entity.ErrRecordNotFound
	}
	return nil
}

// Business returns a profile, or nil if the business is unknown
func (s *Service) Business(ctx context.Context, id string) (*entity.Business, error) {
	b, err := s.businesses.GetByID(ctx, id)
	if err != nil {
		return nil, fmt.Errorf("getting business: %w", err)
	}
	return b, nil
}

// PutBusiness creates or replaces a profile
func (s *Service) PutBusiness(ctx context.Context, b entity.Business) (*entity.Business, error) {
	b.ID = strings.TrimSpace(b.ID)
	b.Name = strings.TrimSpace(b.Name)
	b.Industry = strings.TrimSpace(b.Industry)
	if err := b.Validate(); err != nil {
		return nil, err
	}
	b.UpdatedAt = s.now().UTC()

	if err := s.businesses.Upsert(ctx, &b); err != nil {
		return nil, fmt.Errorf("saving business: %w", err)
	}
	return &b, nil
}
