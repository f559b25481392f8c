package service

import (
	"context"
	"errors"
	"fmt"
	"log/slog"
	"time"

	"github.com/failsafe-go/failsafe-go"
	"github.com/failsafe-go/failsafe-go/circuitbreaker"
	"golang.org/x/sync/errgroup"

	"github.com/vadim/automarketer/internal/domain/publish/adapter"
	"github.com/vadim/automarketer/internal/domain/publish/entity"
)

const defaultTargetTimeout = 30 * time.Second

// CircuitOpenDetail is the outcome detail when a channel breaker rejects the call
const CircuitOpenDetail = "transient: channel circuit open"

// Recorder receives one observation per attempted target
type Recorder interface {
	ObserveOutcome(channel string, success bool, failure string, elapsed time.Duration)
}

// BreakerConfig configures the optional per-channel circuit breaker
type BreakerConfig struct {
	Enabled          bool
	FailureThreshold uint          // failures within Window that open the breaker
	Window           uint          // executions considered
	Delay            time.Duration // time spent open before half-open
}

// Option configures the Orchestrator
type Option func(*Orchestrator)

// WithTargetTimeout bounds every adapter call
func WithTargetTimeout(d time.Duration) Option {
	return func(o *Orchestrator) {
		if d > 0 {
			o.targetTimeout = d
		}
	}
}

// WithRecorder sets the metrics recorder
func WithRecorder(r Recorder) Option {
	return func(o *Orchestrator) {
		o.recorder = r
	}
}

// WithLogger sets the logger
func WithLogger(l *slog.Logger) Option {
	return func(o *Orchestrator) {
		o.logger = l
	}
}

// WithBreaker enables per-channel circuit breakers
func WithBreaker(cfg BreakerConfig) Option {
	return func(o *Orchestrator) {
		o.breakerCfg = cfg
	}
}

// WithClock overrides time.Now
func WithClock(now func() time.Time) Option {
	return func(o *Orchestrator) {
		o.now = now
	}
}

// Orchestrator fans one payload out to many channels and aggregates the outcomes
type Orchestrator struct {
	registry      *adapter.Registry
	targetTimeout time.Duration
	recorder      Recorder
	logger        *slog.Logger
	breakerCfg    BreakerConfig
	breakers      map[entity.Channel]circuitbreaker.CircuitBreaker[entity.Outcome]
	now           func() time.Time
}

// New creates an orchestrator over a closed adapter registry
func New(registry *adapter.Registry, opts ...Option) *Orchestrator {
	o := &Orchestrator{
		registry:      registry,
		targetTimeout: defaultTargetTimeout,
		logger:        slog.Default(),
		now:           time.Now,
	}
	for _, opt := range opts {
		opt(o)
	}

	if o.breakerCfg.Enabled {
		o.breakers = make(map[entity.Channel]circuitbreaker.CircuitBreaker[entity.Outcome])
		for _, ch := range registry.Channels() {
			o.breakers[ch] = newBreaker(o.breakerCfg)
		}
	}

	return o
}

func newBreaker(cfg BreakerConfig) circuitbreaker.CircuitBreaker[entity.Outcome] {
	if cfg.Window == 0 {
		cfg.Window = 10
	}
	if cfg.FailureThreshold == 0 || cfg.FailureThreshold > cfg.Window {
		cfg.FailureThreshold = cfg.Window / 2
		if cfg.FailureThreshold == 0 {
			cfg.FailureThreshold = 1
		}
	}
	if cfg.Delay == 0 {
		cfg.Delay = time.Minute
	}

	return circuitbreaker.NewBuilder[entity.Outcome]().
		HandleIf(func(o entity.Outcome, err error) bool {
			return err != nil || (!o.Success && o.Failure == entity.FailureTransient)
		}).
		WithFailureThresholdRatio(cfg.FailureThreshold, cfg.Window).
		WithDelay(cfg.Delay).
		WithSuccessThreshold(1).
		Build()
}

// Channels returns the registered channel identifiers
func (o *Orchestrator) Channels() []entity.Channel {
	return o.registry.Channels()
}

// Validate checks a publish request without dispatching it
func (o *Orchestrator) Validate(payload entity.ContentPayload, targets []entity.Target) error {
	if err := o.ValidateTargets(targets); err != nil {
		return err
	}
	return payload.Validate()
}

// ValidateTargets checks that the target set is non-empty and every channel is registered
func (o *Orchestrator) ValidateTargets(targets []entity.Target) error {
	if len(targets) == 0 {
		return entity.ErrNoTargets
	}
	for _, t := range targets {
		if _, ok := o.registry.Lookup(t.Channel); !ok {
			return fmt.Errorf("%w: %q", entity.ErrInvalidTarget, t.Channel)
		}
	}
	return nil
}

// Publish invokes every target's adapter exactly once and returns the report.
// Only configuration and validation errors are returned; adapter failures
// are captured in the report.
func (o *Orchestrator) Publish(ctx context.Context, payload entity.ContentPayload, targets []entity.Target) (*entity.Report, error) {
	if err := o.Validate(payload, targets); err != nil {
		return nil, err
	}

	report := &entity.Report{
		Outcomes:  make([]entity.Outcome, len(targets)),
		StartedAt: o.now(),
	}

	var g errgroup.Group
	for i, target := range targets {
		a, _ := o.registry.Lookup(target.Channel)
		g.Go(func() error {
			report.Outcomes[i] = o.invoke(ctx, a, payload, target)
			return nil
		})
	}
	_ = g.Wait()

	report.FinishedAt = o.now()

	o.logger.Info("publish finished",
		"content_id", payload.ID,
		"targets", len(targets),
		"succeeded", report.SucceededCount(),
		"failed", report.FailedCount(),
	)

	return report, nil
}

// invoke runs one adapter bounded by the per-target timeout
func (o *Orchestrator) invoke(ctx context.Context, a adapter.Adapter, payload entity.ContentPayload, target entity.Target) entity.Outcome {
	start := time.Now()

	var out entity.Outcome
	if cb, ok := o.breakers[target.Channel]; ok {
		res, err := failsafe.With[entity.Outcome](cb).Get(func() (entity.Outcome, error) {
			return o.call(ctx, a, payload, target), nil
		})
		switch {
		case errors.Is(err, circuitbreaker.ErrOpen):
			out = entity.Outcome{Target: target.Channel, Detail: CircuitOpenDetail, Failure: entity.FailureTransient}
		case err != nil:
			out = entity.Failed(target.Channel, err)
		default:
			out = res
		}
	} else {
		out = o.call(ctx, a, payload, target)
	}

	// Adapters report their own channel, the report keys on the requested one
	out.Target = target.Channel

	if !out.Success {
		o.logger.Warn("publish target failed",
			"content_id", payload.ID,
			"channel", target.Channel,
			"failure", out.Failure,
			"detail", out.Detail,
		)
	}
	if o.recorder != nil {
		o.recorder.ObserveOutcome(string(target.Channel), out.Success, string(out.Failure), time.Since(start))
	}

	return out
}

// call waits for the adapter or the target deadline, whichever comes first.
// An adapter that ignores its context is abandoned at the deadline.
func (o *Orchestrator) call(ctx context.Context, a adapter.Adapter, payload entity.ContentPayload, target entity.Target) entity.Outcome {
	tctx, cancel := context.WithTimeout(ctx, o.targetTimeout)
	defer cancel()

	done := make(chan entity.Outcome, 1)
	go func() {
		defer func() {
			if r := recover(); r != nil {
				done <- entity.Outcome{
					Target:  target.Channel,
					Detail:  fmt.Sprintf("%s: adapter panic: %v", entity.FailureRejected, r),
					Failure: entity.FailureRejected,
				}
			}
		}()
		done <- a.Publish(tctx, payload, target)
	}()

	select {
	case out := <-done:
		return out
	case <-tctx.Done():
		return entity.Failed(target.Channel, tctx.Err())
	}
}
