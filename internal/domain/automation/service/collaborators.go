package service

import (
	"context"
	"log/slog"
	"time"

	publish "github.com/vadim/automarketer/internal/domain/publish/entity"
	"github.com/vadim/automarketer/internal/notify"
)

// GenerateRequest asks for one platform-specific piece of content
type GenerateRequest struct {
	BusinessID   string
	BusinessName string
	Industry     string
	Platform     publish.Channel
	Topic        string
}

// Generator is the content generation collaborator
type Generator interface {
	Generate(ctx context.Context, req GenerateRequest) (publish.ContentPayload, error)
}

// TrendSource lists trending topics for a query
type TrendSource interface {
	Trending(ctx context.Context, query string) ([]string, error)
}

// Business is the profile data used for prompts and trend queries
type Business struct {
	Name     string
	Industry string
}

// BusinessReader loads business profiles. A nil result means unknown.
type BusinessReader interface {
	Business(ctx context.Context, id string) (*Business, error)
}

// ContentStore persists generated content and assigns its ID
type ContentStore interface {
	Save(ctx context.Context, businessID string, payload publish.ContentPayload) (publish.ContentPayload, error)
}

// Publisher publishes content immediately
type Publisher interface {
	Publish(ctx context.Context, payload publish.ContentPayload, targets []publish.Target) (*publish.Report, error)
}

// Enqueuer schedules content for the next peak hour and returns the chosen time
type Enqueuer interface {
	Enqueue(ctx context.Context, businessID string, payload publish.ContentPayload, targets []publish.Target) (time.Time, error)
}

// TargetValidator rejects target sets that cannot be published
type TargetValidator interface {
	ValidateTargets(targets []publish.Target) error
}

// PeakChecker tells whether a platform is in a peak hour
type PeakChecker interface {
	IsPeak(ctx context.Context, platform string, t time.Time) (bool, error)
}

// Recorder receives one observation per tick
type Recorder interface {
	ObserveTick(mode string, failed bool)
}

// Deps are the collaborators a tick talks to. Business, Content,
// Peaks, Targets and Recorder are optional.
type Deps struct {
	Generator   Generator
	Trends      TrendSource
	Business    BusinessReader
	Content     ContentStore
	Publisher   Publisher
	Enqueuer    Enqueuer
	Targets     TargetValidator
	Peaks       PeakChecker
	Sink        notify.Sink
	Recorder    Recorder
	Logger      *slog.Logger
	TickTimeout time.Duration
	Now         func() time.Time
}
