package service

import (
	"context"
	"errors"
	"fmt"
	"io"
	"log/slog"
	"sync"
	"sync/atomic"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/vadim/automarketer/internal/domain/automation/entity"
	publish "github.com/vadim/automarketer/internal/domain/publish/entity"
	"github.com/vadim/automarketer/internal/notify"
)

type fakeGenerator struct {
	calls    atomic.Int32
	inFlight atomic.Int32
	maxSeen  atomic.Int32
	delay    time.Duration
	err      error

	mu     sync.Mutex
	topics []string
}

func (g *fakeGenerator) Generate(ctx context.Context, req GenerateRequest) (publish.ContentPayload, error) {
	g.calls.Add(1)
	n := g.inFlight.Add(1)
	defer g.inFlight.Add(-1)
	for {
		cur := g.maxSeen.Load()
		if n <= cur || g.maxSeen.CompareAndSwap(cur, n) {
			break
		}
	}

	g.mu.Lock()
	g.topics = append(g.topics, req.Topic)
	g.mu.Unlock()

	if g.delay > 0 {
		time.Sleep(g.delay)
	}
	if g.err != nil {
		return publish.ContentPayload{}, g.err
	}
	return publish.ContentPayload{Body: "About " + req.Topic + " for " + string(req.Platform)}, nil
}

type fakePublisher struct {
	calls atomic.Int32
	fail  bool
}

func (p *fakePublisher) Publish(_ context.Context, _ publish.ContentPayload, targets []publish.Target) (*publish.Report, error) {
	p.calls.Add(1)
	r := &publish.Report{}
	for _, t := range targets {
		if p.fail {
			r.Outcomes = append(r.Outcomes, publish.Failed(t.Channel, errors.New("down")))
		} else {
			r.Outcomes = append(r.Outcomes, publish.Succeeded(t.Channel, "ok"))
		}
	}
	return r, nil
}

type fakeEnqueuer struct {
	mu      sync.Mutex
	targets []publish.Target
}

func (e *fakeEnqueuer) Enqueue(_ context.Context, _ string, _ publish.ContentPayload, targets []publish.Target) (time.Time, error) {
	e.mu.Lock()
	defer e.mu.Unlock()
	e.targets = append(e.targets, targets...)
	return time.Now().Add(time.Hour), nil
}

type staticTrends []string

func (s staticTrends) Trending(context.Context, string) ([]string, error) { return s, nil }

type peakOnly map[string]bool

func (p peakOnly) IsPeak(_ context.Context, platform string, _ time.Time) (bool, error) {
	return p[platform], nil
}

type recordingSink struct {
	mu     sync.Mutex
	events []notify.Event
}

func (s *recordingSink) Notify(_ context.Context, e notify.Event) {
	s.mu.Lock()
	defer s.mu.Unlock()
	s.events = append(s.events, e)
}

func (s *recordingSink) count() int {
	s.mu.Lock()
	defer s.mu.Unlock()
	return len(s.events)
}

func newManager(gen *fakeGenerator, pub *fakePublisher, sink *recordingSink) *Manager {
	return NewManager(Deps{
		Generator: gen,
		Trends:    staticTrends{"AI", "Coffee"},
		Publisher: pub,
		Enqueuer:  &fakeEnqueuer{},
		Sink:      sink,
		Logger:    slog.New(slog.NewTextHandler(io.Discard, nil)),
	})
}

func cfg(businessID string, interval time.Duration) entity.Config {
	return entity.Config{
		BusinessID: businessID,
		Interval:   interval,
		Mode:       entity.ModePostNow,
		Targets:    publish.Targets(publish.ChannelTwitter),
	}
}

func TestManager_StartValidates(t *testing.T) {
	m := newManager(&fakeGenerator{}, &fakePublisher{}, &recordingSink{})
	defer m.Shutdown(context.Background())

	_, err := m.Start(entity.Config{})
	assert.ErrorIs(t, err, entity.ErrEmptyBusinessID)

	c := cfg("b1", 0)
	_, err = m.Start(c)
	assert.ErrorIs(t, err, entity.ErrInvalidInterval)

	c = cfg("b1", time.Second)
	c.Mode = "sometimes"
	_, err = m.Start(c)
	assert.ErrorIs(t, err, entity.ErrInvalidMode)

	c = cfg("b1", time.Second)
	c.Targets = nil
	_, err = m.Start(c)
	assert.ErrorIs(t, err, entity.ErrNoPlatforms)
}

type registeredChannels map[publish.Channel]bool

func (r registeredChannels) ValidateTargets(targets []publish.Target) error {
	for _, t := range targets {
		if !r[t.Channel] {
			return fmt.Errorf("%w: %q", publish.ErrInvalidTarget, t.Channel)
		}
	}
	return nil
}

func TestManager_StartRejectsUnregisteredTargets(t *testing.T) {
	gen := &fakeGenerator{}
	m := NewManager(Deps{
		Generator: gen,
		Trends:    staticTrends{"AI"},
		Publisher: &fakePublisher{},
		Enqueuer:  &fakeEnqueuer{},
		Targets:   registeredChannels{publish.ChannelTwitter: true},
		Sink:      &recordingSink{},
		Logger:    slog.New(slog.NewTextHandler(io.Discard, nil)),
	})
	defer m.Shutdown(context.Background())

	_, err := m.Start(cfg("b1", 10*time.Millisecond))
	require.NoError(t, err)

	c := cfg("b1", 10*time.Millisecond)
	c.Targets = publish.Targets(publish.ChannelTwitter, "myspace")
	_, err = m.Start(c)
	assert.ErrorIs(t, err, publish.ErrInvalidTarget)

	// the rejected start leaves the running session alone
	s, err := m.Get("b1")
	require.NoError(t, err)
	assert.True(t, s.Running)
	assert.Equal(t, publish.Targets(publish.ChannelTwitter), s.Targets)

	c.BusinessID = "b2"
	_, err = m.Start(c)
	assert.ErrorIs(t, err, publish.ErrInvalidTarget)
	_, err = m.Get("b2")
	assert.ErrorIs(t, err, entity.ErrSessionNotFound)
}

func TestManager_TicksRepeatAndRotateTopics(t *testing.T) {
	gen := &fakeGenerator{}
	pub := &fakePublisher{}
	m := newManager(gen, pub, &recordingSink{})
	defer m.Shutdown(context.Background())

	s, err := m.Start(cfg("b1", 20*time.Millisecond))
	require.NoError(t, err)
	assert.True(t, s.Running)
	assert.EqualValues(t, 0, s.IntervalSeconds)

	require.Eventually(t, func() bool { return pub.calls.Load() >= 3 }, time.Second, 5*time.Millisecond)

	gen.mu.Lock()
	assert.Equal(t, []string{"AI", "Coffee", "AI"}, gen.topics[:3])
	gen.mu.Unlock()

	got, err := m.Get("b1")
	require.NoError(t, err)
	assert.GreaterOrEqual(t, got.Ticks, 3)
	assert.Zero(t, got.FailedTicks)
}

func TestManager_StopIsIdempotentAndFinal(t *testing.T) {
	gen := &fakeGenerator{}
	m := newManager(gen, &fakePublisher{}, &recordingSink{})
	defer m.Shutdown(context.Background())

	_, err := m.Start(cfg("b1", 10*time.Millisecond))
	require.NoError(t, err)
	require.Eventually(t, func() bool { return gen.calls.Load() >= 2 }, time.Second, time.Millisecond)

	first := m.Stop("b1")
	second := m.Stop("b1")
	assert.False(t, first.Running)
	assert.False(t, second.Running)
	assert.Equal(t, first.StoppedAt, second.StoppedAt)

	// an in-flight tick may still finish, but no new one starts
	time.Sleep(20 * time.Millisecond)
	settled := gen.calls.Load()
	time.Sleep(50 * time.Millisecond)
	assert.Equal(t, settled, gen.calls.Load())

	unknown := m.Stop("nobody")
	assert.False(t, unknown.Running)
}

func TestManager_TickFailureDoesNotStopLoop(t *testing.T) {
	gen := &fakeGenerator{err: errors.New("model overloaded")}
	sink := &recordingSink{}
	m := newManager(gen, &fakePublisher{}, sink)
	defer m.Shutdown(context.Background())

	_, err := m.Start(cfg("b1", 10*time.Millisecond))
	require.NoError(t, err)

	require.Eventually(t, func() bool { return sink.count() >= 3 }, time.Second, time.Millisecond)

	s, err := m.Get("b1")
	require.NoError(t, err)
	assert.True(t, s.Running)
	assert.GreaterOrEqual(t, s.FailedTicks, 3)
	assert.Contains(t, s.LastError, "model overloaded")

	sink.mu.Lock()
	assert.Equal(t, "content generation failed", sink.events[0].Message)
	assert.Equal(t, "b1", sink.events[0].BusinessID)
	sink.mu.Unlock()
}

func TestManager_AllFailedPublishIsReported(t *testing.T) {
	sink := &recordingSink{}
	m := newManager(&fakeGenerator{}, &fakePublisher{fail: true}, sink)
	defer m.Shutdown(context.Background())

	_, err := m.Start(cfg("b1", time.Hour))
	require.NoError(t, err)

	require.Eventually(t, func() bool { return sink.count() >= 1 }, time.Second, time.Millisecond)
	sink.mu.Lock()
	assert.ErrorIs(t, sink.events[0].Err, entity.ErrAllTargetsFail)
	sink.mu.Unlock()
}

func TestManager_RestartNeverOverlapsTicks(t *testing.T) {
	gen := &fakeGenerator{delay: 30 * time.Millisecond}
	m := newManager(gen, &fakePublisher{}, &recordingSink{})
	defer m.Shutdown(context.Background())

	for i := 0; i < 5; i++ {
		_, err := m.Start(cfg("b1", 5*time.Millisecond))
		require.NoError(t, err)
		time.Sleep(10 * time.Millisecond)
	}
	time.Sleep(100 * time.Millisecond)

	assert.EqualValues(t, 1, gen.maxSeen.Load(), "ticks of one business must never overlap")

	sessions := m.List()
	require.Len(t, sessions, 1)
	assert.True(t, sessions[0].Running)
}

func TestManager_SessionsAreIndependentPerBusiness(t *testing.T) {
	gen := &fakeGenerator{}
	m := newManager(gen, &fakePublisher{}, &recordingSink{})
	defer m.Shutdown(context.Background())

	_, err := m.Start(cfg("b1", 10*time.Millisecond))
	require.NoError(t, err)
	_, err = m.Start(cfg("b2", 10*time.Millisecond))
	require.NoError(t, err)

	m.Stop("b1")

	sessions := m.List()
	require.Len(t, sessions, 2)
	assert.Equal(t, "b1", sessions[0].BusinessID)
	assert.False(t, sessions[0].Running)
	assert.True(t, sessions[1].Running)
}

func TestManager_SchedulePeakEnqueues(t *testing.T) {
	enq := &fakeEnqueuer{}
	pub := &fakePublisher{}
	m := NewManager(Deps{
		Generator: &fakeGenerator{},
		Trends:    staticTrends{"AI"},
		Publisher: pub,
		Enqueuer:  enq,
		Logger:    slog.New(slog.NewTextHandler(io.Discard, nil)),
	})
	defer m.Shutdown(context.Background())

	c := cfg("b1", time.Hour)
	c.Mode = entity.ModeSchedulePeak
	c.Targets = publish.Targets(publish.ChannelLinkedIn, publish.ChannelBlog)
	_, err := m.Start(c)
	require.NoError(t, err)

	require.Eventually(t, func() bool {
		enq.mu.Lock()
		defer enq.mu.Unlock()
		return len(enq.targets) == 2
	}, time.Second, time.Millisecond)

	enq.mu.Lock()
	assert.Equal(t, publish.ChannelLinkedIn, enq.targets[0].Channel)
	assert.Equal(t, "AI", enq.targets[1].Title, "blog posts are titled after the topic")
	enq.mu.Unlock()
	assert.Zero(t, pub.calls.Load())
}

func TestManager_PeakOnlySkipsOffPeakPlatforms(t *testing.T) {
	gen := &fakeGenerator{}
	pub := &fakePublisher{}
	m := NewManager(Deps{
		Generator: gen,
		Trends:    staticTrends{"AI"},
		Publisher: pub,
		Enqueuer:  &fakeEnqueuer{},
		Peaks:     peakOnly{"twitter": true},
		Logger:    slog.New(slog.NewTextHandler(io.Discard, nil)),
	})
	defer m.Shutdown(context.Background())

	c := cfg("b1", time.Hour)
	c.PeakOnly = true
	c.Targets = publish.Targets(publish.ChannelTwitter, publish.ChannelLinkedIn)
	_, err := m.Start(c)
	require.NoError(t, err)

	require.Eventually(t, func() bool {
		s, _ := m.Get("b1")
		return s.LastTickAt != nil
	}, time.Second, time.Millisecond)

	assert.EqualValues(t, 1, gen.calls.Load())
	assert.EqualValues(t, 1, pub.calls.Load())
}

func TestManager_Shutdown(t *testing.T) {
	m := newManager(&fakeGenerator{}, &fakePublisher{}, &recordingSink{})

	_, err := m.Start(cfg("b1", 10*time.Millisecond))
	require.NoError(t, err)

	ctx, cancel := context.WithTimeout(context.Background(), time.Second)
	defer cancel()
	require.NoError(t, m.Shutdown(ctx))

	_, err = m.Start(cfg("b1", 10*time.Millisecond))
	assert.ErrorIs(t, err, entity.ErrManagerClosed)

	s, err := m.Get("b1")
	require.NoError(t, err)
	assert.False(t, s.Running)
}
