package calendar

import (
	"context"
	"errors"
	"log/slog"
	"sync"
	"time"

	"github.com/gyeo009/lookback-Backend/internal/logging"
	"github.com/gyeo009/lookback-Backend/internal/metrics"
)

// ErrQueueFull is returned by Dispatcher.Dispatch when no slot is free.
var ErrQueueFull = errors.New("calendar sync queue is full")

// ErrDispatcherStopped is returned after Stop.
var ErrDispatcherStopped = errors.New("calendar dispatcher stopped")

// PersistFunc matches Persister.Persist.
type PersistFunc func(ctx context.Context, accessToken, email string) error

type job struct {
	accessToken string
	email       string
	requestID   string
}

// Dispatcher runs calendar persistence on a bounded pool of workers so the
// login response never waits on the Calendar API.
type Dispatcher struct {
	persist    PersistFunc
	jobs       chan job
	jobTimeout time.Duration
	workers    int

	mu      sync.RWMutex
	stopped bool
	wg      sync.WaitGroup
}

// NewDispatcher creates a dispatcher. Call Start before Dispatch.
func NewDispatcher(persist PersistFunc, workers, queueSize int, jobTimeout time.Duration) *Dispatcher {
	if workers < 1 {
		workers = 1
	}
	if queueSize < 1 {
		queueSize = 1
	}
	return &Dispatcher{
		persist:    persist,
		jobs:       make(chan job, queueSize),
		jobTimeout: jobTimeout,
		workers:    workers,
	}
}

// Start launches the workers.
func (d *Dispatcher) Start() {
	for i := 0; i < d.workers; i++ {
		d.wg.Add(1)
		go d.worker()
	}
	slog.Info("Calendar dispatcher started", "workers", d.workers, "queue_size", cap(d.jobs))
}

// Dispatch queues a job without blocking. The request context only contributes
// its request ID; the job outlives the request.
func (d *Dispatcher) Dispatch(ctx context.Context, accessToken, email string) error {
	d.mu.RLock()
	defer d.mu.RUnlock()
	if d.stopped {
		return ErrDispatcherStopped
	}

	j := job{accessToken: accessToken, email: email}
	if id, ok := logging.GetRequestID(ctx); ok {
		j.requestID = id
	}

	select {
	case d.jobs <- j:
		metrics.CalendarQueueDepth.Set(float64(len(d.jobs)))
		return nil
	default:
		metrics.CalendarSyncs.WithLabelValues(metrics.CalendarDropped).Inc()
		slog.WarnContext(ctx, "Calendar sync queue full, dropping job", "queue_size", cap(d.jobs))
		return ErrQueueFull
	}
}

// Persist queues the job. It lets the dispatcher stand in for a Persister.
func (d *Dispatcher) Persist(ctx context.Context, accessToken, email string) error {
	return d.Dispatch(ctx, accessToken, email)
}

// Stop stops accepting jobs and waits for queued ones to finish or ctx to expire.
func (d *Dispatcher) Stop(ctx context.Context) error {
	d.mu.Lock()
	if !d.stopped {
		d.stopped = true
		close(d.jobs)
	}
	d.mu.Unlock()

	done := make(chan struct{})
	go func() {
		d.wg.Wait()
		close(done)
	}()

	select {
	case <-done:
		slog.Info("Calendar dispatcher stopped")
		return nil
	case <-ctx.Done():
		return ctx.Err()
	}
}

func (d *Dispatcher) worker() {
	defer d.wg.Done()
	for j := range d.jobs {
		metrics.CalendarQueueDepth.Set(float64(len(d.jobs)))
		d.run(j)
	}
}

func (d *Dispatcher) run(j job) {
	ctx := context.Background()
	if j.requestID != "" {
		ctx = logging.WithRequestID(ctx, j.requestID)
	}
	ctx = logging.WithUserEmail(ctx, j.email)
	if d.jobTimeout > 0 {
		var cancel context.CancelFunc
		ctx, cancel = context.WithTimeout(ctx, d.jobTimeout)
		defer cancel()
	}

	if err := d.persist(ctx, j.accessToken, j.email); err != nil {
		metrics.CalendarSyncs.WithLabelValues(metrics.CalendarFailed).Inc()
		slog.ErrorContext(ctx, "Calendar sync failed", "err", err)
		return
	}
	metrics.CalendarSyncs.WithLabelValues(metrics.CalendarStored).Inc()
}
