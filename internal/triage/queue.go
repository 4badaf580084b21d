package triage

import (
	"context"
	"errors"
	"log/slog"
	"sync"
	"time"

	"github.com/ahmetcoskunkizilkaya/hazard-triage/internal/observability"
)

// ErrQueueFull is returned by PublishReportCreated when the event cannot be buffered.
var ErrQueueFull = errors.New("triage queue full")

// Handler processes one report-created event. Trigger implements it.
type Handler interface {
	Handle(ctx context.Context, evt ReportCreated)
}

// Queue decouples report creation from triage: publishing never blocks and a
// fixed pool of workers drains the buffer in the background.
type Queue struct {
	handler Handler
	events  chan ReportCreated
	workers int
	timeout time.Duration
	logger  *slog.Logger
	metrics *observability.Metrics

	mu     sync.RWMutex
	closed bool
	wg     sync.WaitGroup
}

// QueueConfig sizes the in-process queue.
type QueueConfig struct {
	Workers int
	Size    int
	// Timeout bounds a single triage run. Zero means no per-run deadline.
	Timeout time.Duration
}

func NewQueue(handler Handler, cfg QueueConfig, logger *slog.Logger, metrics *observability.Metrics) *Queue {
	if cfg.Workers <= 0 {
		cfg.Workers = 1
	}
	if cfg.Size <= 0 {
		cfg.Size = 1
	}
	return &Queue{
		handler: handler,
		events:  make(chan ReportCreated, cfg.Size),
		workers: cfg.Workers,
		timeout: cfg.Timeout,
		logger:  logger,
		metrics: metrics,
	}
}

// Start launches the workers. They run until Stop is called; ctx is the
// parent for every triage run.
func (q *Queue) Start(ctx context.Context) {
	q.logger.Info("triage queue started", "workers", q.workers, "capacity", cap(q.events))
	for i := 0; i < q.workers; i++ {
		q.wg.Add(1)
		go q.work(ctx)
	}
}

func (q *Queue) work(ctx context.Context) {
	defer q.wg.Done()
	for evt := range q.events {
		q.metrics.QueueDepth.Set(float64(len(q.events)))
		q.run(ctx, evt)
	}
}

func (q *Queue) run(parent context.Context, evt ReportCreated) {
	// Runs are detached from the parent's cancellation so draining on
	// shutdown still finishes queued work.
	ctx := context.WithoutCancel(parent)
	if q.timeout > 0 {
		var cancel context.CancelFunc
		ctx, cancel = context.WithTimeout(ctx, q.timeout)
		defer cancel()
	}
	q.handler.Handle(ctx, evt)
}

// PublishReportCreated enqueues evt without blocking.
func (q *Queue) PublishReportCreated(_ context.Context, evt ReportCreated) error {
	q.mu.RLock()
	defer q.mu.RUnlock()
	if q.closed {
		q.metrics.QueueDropped.Inc()
		return errors.New("triage queue stopped")
	}

	select {
	case q.events <- evt:
		q.metrics.QueueDepth.Set(float64(len(q.events)))
		return nil
	default:
		q.metrics.QueueDropped.Inc()
		return ErrQueueFull
	}
}

// Stop closes the queue and waits for queued events to drain or ctx to end.
func (q *Queue) Stop(ctx context.Context) error {
	q.mu.Lock()
	if !q.closed {
		q.closed = true
		close(q.events)
	}
	q.mu.Unlock()

	done := make(chan struct{})
	go func() {
		q.wg.Wait()
		close(done)
	}()

	select {
	case <-done:
		q.logger.Info("triage queue drained")
		return nil
	case <-ctx.Done():
		return ctx.Err()
	}
}
