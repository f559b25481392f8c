package entity

import (
	"time"

	publish "github.com/vadim/automarketer/internal/domain/publish/entity"
)

// Status represents the lifecycle state of a scheduled post
type Status string

const (
	StatusPending    Status = "pending"
	StatusProcessing Status = "processing" // claimed by a dispatcher
	StatusPublished  Status = "published"
	StatusFailed     Status = "failed"
)

// CancelledReason is stored as the error of a cancelled post
const CancelledReason = "cancelled"

// ParseStatus validates a status string
func ParseStatus(s string) (Status, error) {
	switch st := Status(s); st {
	case StatusPending, StatusProcessing, StatusPublished, StatusFailed:
		return st, nil
	default:
		return "", ErrInvalidStatus
	}
}

// IsFinal reports whether the status can no longer change
func (s Status) IsFinal() bool {
	return s == StatusPublished || s == StatusFailed
}

// ScheduledPost is content waiting to be published at ScheduledAt
type ScheduledPost struct {
	ID          string                 `json:"id"`
	BusinessID  string                 `json:"business_id,omitempty"`
	Content     publish.ContentPayload `json:"content"`
	Targets     []publish.Target       `json:"targets"`
	ScheduledAt time.Time              `json:"scheduled_at"`
	Status      Status                 `json:"status"`
	Report      *publish.Report        `json:"report,omitempty"`
	Error       string                 `json:"error,omitempty"`
	CreatedAt   time.Time              `json:"created_at"`
	UpdatedAt   time.Time              `json:"updated_at"`
	CompletedAt *time.Time             `json:"completed_at,omitempty"`
}

// IsCancellable returns true if the post has not been claimed yet
func (p *ScheduledPost) IsCancellable() bool {
	return p.Status == StatusPending
}

// Platforms returns the target channel names in order
func (p *ScheduledPost) Platforms() []string {
	out := make([]string, len(p.Targets))
	for i, t := range p.Targets {
		out[i] = string(t.Channel)
	}
	return out
}

// Completion is the terminal transition of a claimed post
type Completion struct {
	Status Status
	Report *publish.Report
	Error  string
	At     time.Time
}
