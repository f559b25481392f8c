package entity

import (
	"errors"
	"time"

	publish "github.com/vadim/automarketer/internal/domain/publish/entity"
)

// Domain errors for automation
var (
	// Validation errors
	ErrEmptyBusinessID = errors.New("business ID is required")
	ErrInvalidInterval = errors.New("interval must be positive")
	ErrInvalidMode     = errors.New("mode must be post_now or schedule_peak")
	ErrNoPlatforms     = errors.New("at least one platform is required")

	// Tick errors
	ErrNoTopics       = errors.New("no trending topics available")
	ErrAllTargetsFail = errors.New("all targets failed")

	// Business logic errors
	ErrSessionNotFound = errors.New("automation session not found")
	ErrManagerClosed   = errors.New("automation manager is shut down")
)

// Mode decides what a tick does with generated content
type Mode string

const (
	ModePostNow      Mode = "post_now"
	ModeSchedulePeak Mode = "schedule_peak"
)

// IsValid reports whether the mode is known
func (m Mode) IsValid() bool {
	return m == ModePostNow || m == ModeSchedulePeak
}

// Config describes one automation session
type Config struct {
	BusinessID string
	Interval   time.Duration
	Mode       Mode
	Topic      string // empty means pull a trending topic every tick
	Targets    []publish.Target
	PeakOnly   bool // post_now only: skip platforms outside their peak hours
}

// Validate validates the session configuration
func (c *Config) Validate() error {
	if c.BusinessID == "" {
		return ErrEmptyBusinessID
	}
	if c.Interval <= 0 {
		return ErrInvalidInterval
	}
	if !c.Mode.IsValid() {
		return ErrInvalidMode
	}
	if len(c.Targets) == 0 {
		return ErrNoPlatforms
	}
	return nil
}

// Session is a snapshot of an automation session
type Session struct {
	BusinessID      string           `json:"business_id"`
	IntervalSeconds int64            `json:"interval_seconds"`
	Mode            Mode             `json:"mode"`
	Topic           string           `json:"topic,omitempty"`
	Targets         []publish.Target `json:"targets"`
	PeakOnly        bool             `json:"peak_only"`
	Running         bool             `json:"running"`
	StartedAt       time.Time        `json:"started_at"`
	StoppedAt       *time.Time       `json:"stopped_at,omitempty"`
	Ticks           int              `json:"ticks"`
	FailedTicks     int              `json:"failed_ticks"`
	LastTickAt      *time.Time       `json:"last_tick_at,omitempty"`
	LastError       string           `json:"last_error,omitempty"`
}

// TickResult summarizes one tick
type TickResult struct {
	Topic     string
	Published int // platforms with at least one successful outcome
	Scheduled int
	Skipped   int // outside peak hours
	Errors    []error
}

// Failed reports whether the tick produced nothing
func (r *TickResult) Failed() bool {
	return len(r.Errors) > 0 && r.Published == 0 && r.Scheduled == 0
}
