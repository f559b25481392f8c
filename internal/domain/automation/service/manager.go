package service

import (
	"context"
	"log/slog"
	"sort"
	"sync"
	"time"

	"github.com/vadim/automarketer/internal/domain/automation/entity"
	"github.com/vadim/automarketer/internal/notify"
)

// Manager is the registry of automation sessions, at most one live per business
type Manager struct {
	deps *Deps

	mu       sync.Mutex
	sessions map[string]*session
	closed   bool

	ctx    context.Context
	cancel context.CancelFunc
	wg     sync.WaitGroup
}

// NewManager creates a manager. Sessions run until stopped or Shutdown.
func NewManager(deps Deps) *Manager {
	if deps.Logger == nil {
		deps.Logger = slog.Default()
	}
	if deps.Sink == nil {
		deps.Sink = notify.NewLogSink(deps.Logger)
	}
	if deps.Now == nil {
		deps.Now = time.Now
	}

	ctx, cancel := context.WithCancel(context.Background())
	return &Manager{
		deps:     &deps,
		sessions: make(map[string]*session),
		ctx:      ctx,
		cancel:   cancel,
	}
}

// Start starts a session, stopping the business's running session first.
// The new session's first tick waits for the previous session's in-flight tick.
func (m *Manager) Start(cfg entity.Config) (entity.Session, error) {
	if err := cfg.Validate(); err != nil {
		return entity.Session{}, err
	}
	if m.deps.Targets != nil {
		if err := m.deps.Targets.ValidateTargets(cfg.Targets); err != nil {
			return entity.Session{}, err
		}
	}

	m.mu.Lock()
	defer m.mu.Unlock()

	if m.closed {
		return entity.Session{}, entity.ErrManagerClosed
	}

	var prevDone <-chan struct{}
	if prev, ok := m.sessions[cfg.BusinessID]; ok {
		if prev.stop() {
			m.deps.Logger.Info("automation session replaced", "business_id", cfg.BusinessID)
		}
		prevDone = prev.done
	}

	s := newSession(cfg, m.deps)
	m.sessions[cfg.BusinessID] = s

	m.wg.Add(1)
	go func() {
		defer m.wg.Done()
		s.run(m.ctx, prevDone)
	}()

	m.deps.Logger.Info("automation session started",
		"business_id", cfg.BusinessID,
		"interval", cfg.Interval,
		"mode", cfg.Mode,
	)

	return s.snapshot(), nil
}

// Stop stops the business's session. Stopping a stopped or unknown session is a no-op.
// No tick starts after Stop returns; an in-flight tick finishes its issued calls.
func (m *Manager) Stop(businessID string) entity.Session {
	m.mu.Lock()
	s, ok := m.sessions[businessID]
	m.mu.Unlock()

	if !ok {
		return entity.Session{BusinessID: businessID}
	}

	if s.stop() {
		m.deps.Logger.Info("automation session stopped", "business_id", businessID)
	}
	return s.snapshot()
}

// Get returns the latest session of a business
func (m *Manager) Get(businessID string) (entity.Session, error) {
	m.mu.Lock()
	s, ok := m.sessions[businessID]
	m.mu.Unlock()

	if !ok {
		return entity.Session{}, entity.ErrSessionNotFound
	}
	return s.snapshot(), nil
}

// List returns the latest session of every business ordered by business ID
func (m *Manager) List() []entity.Session {
	m.mu.Lock()
	all := make([]*session, 0, len(m.sessions))
	for _, s := range m.sessions {
		all = append(all, s)
	}
	m.mu.Unlock()

	out := make([]entity.Session, 0, len(all))
	for _, s := range all {
		out = append(out, s.snapshot())
	}
	sort.Slice(out, func(i, j int) bool { return out[i].BusinessID < out[j].BusinessID })
	return out
}

// Shutdown stops every session, cancels in-flight ticks and waits for the loops to exit
func (m *Manager) Shutdown(ctx context.Context) error {
	m.mu.Lock()
	m.closed = true
	for _, s := range m.sessions {
		s.stop()
	}
	m.mu.Unlock()

	m.cancel()

	done := make(chan struct{})
	go func() {
		m.wg.Wait()
		close(done)
	}()

	select {
	case <-done:
		m.deps.Logger.Info("automation manager stopped")
		return nil
	case <-ctx.Done():
		return ctx.Err()
	}
}
