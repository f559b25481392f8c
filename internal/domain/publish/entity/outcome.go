package entity

import (
	"context"
	"encoding/json"
	"errors"
	"fmt"
	"net"
	"time"
)

// FailureKind classifies a failed outcome
type FailureKind string

const (
	FailureNone       FailureKind = ""
	FailureValidation FailureKind = "validation" // no external call was made
	FailureRejected   FailureKind = "rejected"   // upstream refused the request
	FailureTransient  FailureKind = "transient"  // network, timeout, 5xx, rate limit
)

// Outcome is the result of publishing to one target
type Outcome struct {
	Target  Channel     `json:"target"`
	Success bool        `json:"success"`
	Detail  string      `json:"detail"`
	Failure FailureKind `json:"failure,omitempty"`
}

// Succeeded builds a successful outcome
func Succeeded(ch Channel, detail string) Outcome {
	return Outcome{Target: ch, Success: true, Detail: detail}
}

// Invalid builds a validation failure. The detail is used verbatim.
func Invalid(ch Channel, detail string) Outcome {
	return Outcome{Target: ch, Detail: detail, Failure: FailureValidation}
}

// Failed builds a failed outcome from an upstream error
func Failed(ch Channel, err error) Outcome {
	kind := Classify(err)
	return Outcome{
		Target:  ch,
		Detail:  fmt.Sprintf("%s: %v", kind, err),
		Failure: kind,
	}
}

// temporary is implemented by upstream API errors
type temporary interface {
	Temporary() bool
}

// Classify tells transient failures from permanent rejections
func Classify(err error) FailureKind {
	if errors.Is(err, context.DeadlineExceeded) || errors.Is(err, context.Canceled) {
		return FailureTransient
	}

	var t temporary
	if errors.As(err, &t) {
		if t.Temporary() {
			return FailureTransient
		}
		return FailureRejected
	}

	var netErr net.Error
	if errors.As(err, &netErr) {
		return FailureTransient
	}

	return FailureRejected
}

// Report aggregates the outcomes of one orchestration run.
// Outcomes are in input target order.
type Report struct {
	Outcomes   []Outcome `json:"outcomes"`
	StartedAt  time.Time `json:"started_at"`
	FinishedAt time.Time `json:"finished_at"`
}

// SucceededCount returns the number of successful outcomes
func (r *Report) SucceededCount() int {
	n := 0
	for _, o := range r.Outcomes {
		if o.Success {
			n++
		}
	}
	return n
}

// FailedCount returns the number of failed outcomes
func (r *Report) FailedCount() int {
	return len(r.Outcomes) - r.SucceededCount()
}

// AllSucceeded is true when no target failed
func (r *Report) AllSucceeded() bool {
	return r.FailedCount() == 0
}

// Partial is true when some but not all targets succeeded
func (r *Report) Partial() bool {
	s := r.SucceededCount()
	return s > 0 && s < len(r.Outcomes)
}

// AllFailed is true when no target succeeded
func (r *Report) AllFailed() bool {
	return r.SucceededCount() == 0
}

type reportJSON struct {
	Outcomes       []Outcome `json:"outcomes"`
	SucceededCount int       `json:"succeeded_count"`
	FailedCount    int       `json:"failed_count"`
	AllSucceeded   bool      `json:"all_succeeded"`
	Partial        bool      `json:"partial"`
	AllFailed      bool      `json:"all_failed"`
	StartedAt      time.Time `json:"started_at"`
	FinishedAt     time.Time `json:"finished_at"`
}

// MarshalJSON adds the derived counts
func (r Report) MarshalJSON() ([]byte, error) {
	return json.Marshal(reportJSON{
		Outcomes:       r.Outcomes,
		SucceededCount: r.SucceededCount(),
		FailedCount:    r.FailedCount(),
		AllSucceeded:   r.AllSucceeded(),
		Partial:        r.Partial(),
		AllFailed:      r.AllFailed(),
		StartedAt:      r.StartedAt,
		FinishedAt:     r.FinishedAt,
	})
}

// UnmarshalJSON drops the derived fields
func (r *Report) UnmarshalJSON(data []byte) error {
	var raw reportJSON
	if err := json.Unmarshal(data, &raw); err != nil {
		return err
	}
	r.Outcomes = raw.Outcomes
	r.StartedAt = raw.StartedAt
	r.FinishedAt = raw.FinishedAt
	return nil
}
