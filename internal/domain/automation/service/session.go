package service

import (
	"context"
	"sync"
	"time"

	"github.com/vadim/automarketer/internal/domain/automation/entity"
)

// session owns the timer loop of one business.
// A tick starts only while holding mu with stopped unset, so once stop
// returns no new tick can begin.
type session struct {
	cfg  entity.Config
	deps *Deps

	mu          sync.Mutex
	stopped     bool
	startedAt   time.Time
	stoppedAt   *time.Time
	ticks       int
	failedTicks int
	lastTickAt  *time.Time
	lastError   string

	stopCh chan struct{}
	done   chan struct{}
}

func newSession(cfg entity.Config, deps *Deps) *session {
	return &session{
		cfg:       cfg,
		deps:      deps,
		startedAt: deps.Now(),
		stopCh:    make(chan struct{}),
		done:      make(chan struct{}),
	}
}

// stop prevents further ticks. It does not wait for an in-flight tick.
// Returns false if the session was already stopped.
func (s *session) stop() bool {
	s.mu.Lock()
	defer s.mu.Unlock()

	if s.stopped {
		return false
	}
	s.stopped = true
	now := s.deps.Now()
	s.stoppedAt = &now
	close(s.stopCh)
	return true
}

func (s *session) isStopped() bool {
	s.mu.Lock()
	defer s.mu.Unlock()
	return s.stopped
}

// run drives ticks until stopped. prev is the done channel of the session
// this one replaced: its in-flight tick must finish before ours starts.
func (s *session) run(ctx context.Context, prev <-chan struct{}) {
	defer close(s.done)

	// prev is already stopped, so it exits right after its in-flight tick.
	// Waiting unconditionally keeps done ordered across a chain of replacements.
	if prev != nil {
		<-prev
	}

	timer := time.NewTimer(0)
	defer timer.Stop()

	for {
		select {
		case <-timer.C:
		case <-s.stopCh:
			return
		case <-ctx.Done():
			return
		}

		started := time.Now()
		if !s.runTick(ctx) {
			return
		}

		// Fixed rate measured from tick start, never overlapping
		wait := s.cfg.Interval - time.Since(started)
		if wait < 0 {
			wait = 0
		}
		timer.Reset(wait)
	}
}

// runTick executes one tick unless the session was stopped
func (s *session) runTick(ctx context.Context) bool {
	s.mu.Lock()
	if s.stopped {
		s.mu.Unlock()
		return false
	}
	s.ticks++
	s.mu.Unlock()

	tctx := ctx
	if s.deps.TickTimeout > 0 {
		var cancel context.CancelFunc
		tctx, cancel = context.WithTimeout(ctx, s.deps.TickTimeout)
		defer cancel()
	}

	res := s.tick(tctx)

	now := s.deps.Now()
	s.mu.Lock()
	s.lastTickAt = &now
	if res.Failed() {
		s.failedTicks++
	}
	if len(res.Errors) > 0 {
		s.lastError = res.Errors[len(res.Errors)-1].Error()
	} else {
		s.lastError = ""
	}
	s.mu.Unlock()

	if s.deps.Recorder != nil {
		s.deps.Recorder.ObserveTick(string(s.cfg.Mode), res.Failed())
	}

	return true
}

func (s *session) snapshot() entity.Session {
	s.mu.Lock()
	defer s.mu.Unlock()

	return entity.Session{
		BusinessID:      s.cfg.BusinessID,
		IntervalSeconds: int64(s.cfg.Interval / time.Second),
		Mode:            s.cfg.Mode,
		Topic:           s.cfg.Topic,
		Targets:         s.cfg.Targets,
		PeakOnly:        s.cfg.PeakOnly,
		Running:         !s.stopped,
		StartedAt:       s.startedAt,
		StoppedAt:       s.stoppedAt,
		Ticks:           s.ticks,
		FailedTicks:     s.failedTicks,
		LastTickAt:      s.lastTickAt,
		LastError:       s.lastError,
	}
}
