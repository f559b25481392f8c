package entity

import (
	"errors"
	"strings"
	"time"

	publish "github.com/vadim/automarketer/internal/domain/publish/entity"
)

// Domain errors for stored content
var (
	ErrRecordNotFound    = errors.New("content not found")
	ErrBusinessNotFound  = errors.New("business not found")
	ErrEmptyBusinessID   = errors.New("business id is required")
	ErrEmptyBusinessName = errors.New("business name is required")
)

// Record is a stored content payload owned by a business
type Record struct {
	ID           string            `json:"id"`
	BusinessID   string            `json:"business_id"`
	Body         string            `json:"body"`
	Media        publish.MediaRefs `json:"media"`
	PlatformHint string            `json:"platform_hint,omitempty"`
	CreatedAt    time.Time         `json:"created_at"`
}

// NewRecord builds a record from a payload. ID and CreatedAt are left to the store.
func NewRecord(businessID string, p publish.ContentPayload) *Record {
	return &Record{
		ID:           p.ID,
		BusinessID:   businessID,
		Body:         p.Body,
		Media:        p.Media,
		PlatformHint: p.PlatformHint,
	}
}

// Payload returns the publishable form of the record
func (r *Record) Payload() publish.ContentPayload {
	return publish.ContentPayload{
		ID:           r.ID,
		Body:         r.Body,
		Media:        r.Media,
		PlatformHint: r.PlatformHint,
	}
}

// Update changes selected fields of a record. Nil fields are left as they are.
type Update struct {
	Body         *string
	ImageURL     *string
	AudioURL     *string
	VideoURL     *string
	PlatformHint *string
}

// IsEmpty reports whether the update changes nothing
func (u Update) IsEmpty() bool {
	return u.Body == nil && u.ImageURL == nil && u.AudioURL == nil && u.VideoURL == nil && u.PlatformHint == nil
}

// Apply writes the set fields of u onto the record
func (r *Record) Apply(u Update) {
	if u.Body != nil {
		r.Body = *u.Body
	}
	if u.ImageURL != nil {
		r.Media.ImageURL = *u.ImageURL
	}
	if u.AudioURL != nil {
		r.Media.AudioURL = *u.AudioURL
	}
	if u.VideoURL != nil {
		r.Media.VideoURL = *u.VideoURL
	}
	if u.PlatformHint != nil {
		r.PlatformHint = *u.PlatformHint
	}
}

// Business is the profile used for generation prompts and trend queries
type Business struct {
	ID        string    `json:"id"`
	Name      string    `json:"name"`
	Industry  string    `json:"industry,omitempty"`
	UpdatedAt time.Time `json:"updated_at"`
}

// Validate checks the required profile fields
func (b *Business) Validate() error {
	if strings.TrimSpace(b.ID) == "" {
		return ErrEmptyBusinessID
	}
	if strings.TrimSpace(b.Name) == "" {
		return ErrEmptyBusinessName
	}
	return nil
}
