package scheduler

import (
	"context"
	"errors"
	"io"
	"log/slog"
	"sync"
	"sync/atomic"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

var discard = slog.New(slog.NewTextHandler(io.Discard, nil))

type countingProcessor struct {
	calls atomic.Int32
	err   error
}

func (p *countingProcessor) ProcessDue(context.Context) (int, error) {
	p.calls.Add(1)
	return 1, p.err
}

// backlog hands out up to batch posts per call from a fixed number of due posts
type backlog struct {
	mu        sync.Mutex
	remaining int
	batch     int
	calls     int
	processed int
}

func (b *backlog) ProcessDue(context.Context) (int, error) {
	b.mu.Lock()
	defer b.mu.Unlock()

	n := min(b.batch, b.remaining)
	b.remaining -= n
	b.processed += n
	b.calls++
	return n, nil
}

func (b *backlog) snapshot() (calls, processed int) {
	b.mu.Lock()
	defer b.mu.Unlock()
	return b.calls, b.processed
}

type countingRecoverer struct {
	calls     atomic.Int32
	olderThan atomic.Int64
}

func (r *countingRecoverer) RecoverStale(_ context.Context, olderThan time.Duration) (int, error) {
	r.calls.Add(1)
	r.olderThan.Store(int64(olderThan))
	return 0, nil
}

func TestDispatcher_RunsImmediatelyAndOnTicks(t *testing.T) {
	proc := &countingProcessor{err: errors.New("db down")}
	d := New(proc, nil, Config{Interval: 10 * time.Millisecond}, discard)

	d.Start(context.Background())
	d.Start(context.Background()) // second start is a no-op

	assert.Eventually(t, func() bool { return proc.calls.Load() >= 3 }, time.Second, 5*time.Millisecond)

	d.Stop()
	d.Stop()

	after := proc.calls.Load()
	time.Sleep(30 * time.Millisecond)
	assert.Equal(t, after, proc.calls.Load())
}

func TestDispatcher_DrainsFullBatchesInOnePass(t *testing.T) {
	b := &backlog{remaining: 25, batch: 10}
	d := New(b, nil, Config{Interval: time.Hour, BatchSize: 10}, discard)

	d.Start(context.Background())
	defer d.Stop()

	require.Eventually(t, func() bool {
		_, processed := b.snapshot()
		return processed == 25
	}, time.Second, time.Millisecond)

	// 10 + 10 + 5: the short batch ends the pass
	time.Sleep(20 * time.Millisecond)
	calls, _ := b.snapshot()
	assert.Equal(t, 3, calls)
}

func TestDispatcher_RecoversStalePostsPeriodically(t *testing.T) {
	rec := &countingRecoverer{}
	d := New(&countingProcessor{}, rec, Config{Interval: time.Hour, StaleAfter: 10 * time.Millisecond}, discard)

	d.Start(context.Background())
	require.Eventually(t, func() bool { return rec.calls.Load() >= 2 }, time.Second, time.Millisecond)
	d.Stop()

	assert.Equal(t, int64(10*time.Millisecond), rec.olderThan.Load())
}

func TestDispatcher_JitterDelaysFirstPass(t *testing.T) {
	proc := &countingProcessor{}
	d := New(proc, nil, Config{Interval: time.Hour, MaxJitter: time.Hour}, discard)

	d.Start(context.Background())

	stopped := make(chan struct{})
	go func() {
		d.Stop()
		close(stopped)
	}()

	select {
	case <-stopped:
	case <-time.After(time.Second):
		t.Fatal("Stop blocked while waiting out the jitter")
	}
	assert.LessOrEqual(t, proc.calls.Load(), int32(1))
}

func TestDispatcher_RestartAfterStop(t *testing.T) {
	proc := &countingProcessor{}
	d := New(proc, nil, Config{Interval: time.Hour}, discard)

	d.Start(context.Background())
	require.Eventually(t, func() bool { return proc.calls.Load() == 1 }, time.Second, time.Millisecond)
	d.Stop()

	d.Start(context.Background())
	require.Eventually(t, func() bool { return proc.calls.Load() == 2 }, time.Second, time.Millisecond)
	d.Stop()
}

func TestDispatcher_StopsWithContext(t *testing.T) {
	proc := &countingProcessor{}
	d := New(proc, nil, Config{Interval: 5 * time.Millisecond}, discard)

	ctx, cancel := context.WithCancel(context.Background())
	d.Start(ctx)
	require.Eventually(t, func() bool { return proc.calls.Load() >= 1 }, time.Second, time.Millisecond)

	cancel()
	time.Sleep(20 * time.Millisecond)
	settled := proc.calls.Load()
	time.Sleep(30 * time.Millisecond)
	assert.Equal(t, settled, proc.calls.Load())

	d.Stop()
}
