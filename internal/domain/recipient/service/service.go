package service

import (
	"context"
	"fmt"
	"time"

	"github.com/go-playground/validator/v10"

	"github.com/vadim/automarketer/internal/domain/recipient/dao"
	"github.com/vadim/automarketer/internal/domain/recipient/entity"
)

// Service manages the email recipient list.
// The static list comes from configuration and cannot be removed through the API.
type Service struct {
	repo     dao.Repository
	static   []string
	validate *validator.Validate
	now      func() time.Time
}

// New creates a new recipient service
func New(repo dao.Repository, static []string) *Service {
	return &Service{
		repo:     repo,
		static:   static,
		validate: validator.New(),
		now:      time.Now,
	}
}

// List returns the managed recipients
func (s *Service) List(ctx context.Context) ([]entity.Recipient, error) {
	recs, err := s.repo.List(ctx)
	if err != nil {
		return nil, fmt.Errorf("listing recipients: %w", err)
	}
	if recs == nil {
		recs = []entity.Recipient{}
	}
	return recs, nil
}

// Add validates and stores an address. Adding an existing address is a no-op.
func (s *Service) Add(ctx context.Context, email string) (*entity.Recipient, error) {
	email = entity.NormalizeEmail(email)
	if err := s.validate.Var(email, "required,email"); err != nil {
		return nil, fmt.Errorf("%w: %q", entity.ErrInvalidEmail, email)
	}

	rec := &entity.Recipient{Email: email, CreatedAt: s.now().UTC()}
	if err := s.repo.Add(ctx, rec); err != nil {
		return nil, fmt.Errorf("adding recipient: %w", err)
	}
	return rec, nil
}

// Remove deletes an address from the managed list
func (s *Service) Remove(ctx context.Context, email string) error {
	ok, err := s.repo.Remove(ctx, entity.NormalizeEmail(email))
	if err != nil {
		return fmt.Errorf("removing recipient: %w", err)
	}
	if !ok {
		return entity.ErrRecipientNotFound
	}
	return nil
}

// Recipients returns the static list followed by the managed list.
// Duplicates are removed by the email adapter.
func (s *Service) Recipients(ctx context.Context) ([]string, error) {
	recs, err := s.repo.List(ctx)
	if err != nil {
		return nil, fmt.Errorf("listing recipients: %w", err)
	}

	out := make([]string, 0, len(s.static)+len(recs))
	out = append(out, s.static...)
	for _, r := range recs {
		out = append(out, r.Email)
	}
	return out, nil
}
