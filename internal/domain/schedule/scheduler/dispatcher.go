package scheduler

import (
	"context"
	"log/slog"
	"math/rand/v2"
	"sync"
	"time"
)

// DueProcessor processes scheduled posts whose time has come
type DueProcessor interface {
	ProcessDue(ctx context.Context) (int, error)
}

// StaleRecoverer fails posts whose dispatch was interrupted
type StaleRecoverer interface {
	RecoverStale(ctx context.Context, olderThan time.Duration) (int, error)
}

// Config tunes the dispatcher
type Config struct {
	// Interval between dispatch passes
	Interval time.Duration

	// BatchSize is the processor's claim limit. A pass that fills a whole
	// batch is followed by another one right away until the queue is drained.
	BatchSize int

	// MaxJitter delays the first pass by a random duration below it
	MaxJitter time.Duration

	// StaleAfter enables periodic recovery of posts stuck in processing
	StaleAfter time.Duration
}

// Dispatcher periodically feeds due scheduled posts to the orchestrator
type Dispatcher struct {
	processor DueProcessor
	recoverer StaleRecoverer
	cfg       Config
	logger    *slog.Logger

	mu      sync.Mutex
	running bool
	stopCh  chan struct{}
	wg      sync.WaitGroup
}

// New creates a new dispatcher. recoverer may be nil.
func New(processor DueProcessor, recoverer StaleRecoverer, cfg Config, logger *slog.Logger) *Dispatcher {
	if cfg.Interval <= 0 {
		cfg.Interval = 30 * time.Second
	}
	if logger == nil {
		logger = slog.Default()
	}
	return &Dispatcher{
		processor: processor,
		recoverer: recoverer,
		cfg:       cfg,
		logger:    logger,
	}
}

// Start starts the dispatcher. A stopped dispatcher can be started again.
func (d *Dispatcher) Start(ctx context.Context) {
	d.mu.Lock()
	defer d.mu.Unlock()

	if d.running {
		return
	}
	d.running = true
	d.stopCh = make(chan struct{})

	d.logger.Info("schedule dispatcher started",
		"interval", d.cfg.Interval,
		"batch_size", d.cfg.BatchSize,
		"stale_after", d.cfg.StaleAfter,
	)

	d.wg.Add(1)
	go d.run(ctx, d.stopCh)
}

// Stop stops the dispatcher and waits for the current batch
func (d *Dispatcher) Stop() {
	d.mu.Lock()
	if !d.running {
		d.mu.Unlock()
		return
	}
	d.running = false
	close(d.stopCh)
	d.mu.Unlock()

	d.wg.Wait()
	d.logger.Info("schedule dispatcher stopped")
}

func (d *Dispatcher) run(ctx context.Context, stopCh <-chan struct{}) {
	defer d.wg.Done()

	if d.cfg.MaxJitter > 0 {
		delay := rand.N(d.cfg.MaxJitter)
		select {
		case <-time.After(delay):
		case <-stopCh:
			return
		case <-ctx.Done():
			return
		}
	}

	ticker := time.NewTicker(d.cfg.Interval)
	defer ticker.Stop()

	var recoverC <-chan time.Time
	if d.recoverer != nil && d.cfg.StaleAfter > 0 {
		recoverTicker := time.NewTicker(d.cfg.StaleAfter)
		defer recoverTicker.Stop()
		recoverC = recoverTicker.C
	}

	d.drain(ctx, stopCh)

	for {
		select {
		case <-ticker.C:
			d.drain(ctx, stopCh)
		case <-recoverC:
			d.recoverStale(ctx)
		case <-stopCh:
			return
		case <-ctx.Done():
			return
		}
	}
}

// drain runs passes until one comes back short of a full batch
func (d *Dispatcher) drain(ctx context.Context, stopCh <-chan struct{}) {
	total := 0
	defer func() {
		if total > 0 {
			d.logger.Info("processed scheduled posts", "count", total)
		}
	}()

	for {
		n, err := d.processor.ProcessDue(ctx)
		if err != nil {
			d.logger.Error("failed to process scheduled posts", "error", err)
			return
		}
		total += n

		if d.cfg.BatchSize <= 0 || n < d.cfg.BatchSize {
			return
		}

		select {
		case <-stopCh:
			return
		case <-ctx.Done():
			return
		default:
		}
	}
}

func (d *Dispatcher) recoverStale(ctx context.Context) {
	if _, err := d.recoverer.RecoverStale(ctx, d.cfg.StaleAfter); err != nil {
		d.logger.Error("failed to recover stale scheduled posts", "error", err)
	}
}
