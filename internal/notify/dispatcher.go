package notify

import (
	"context"
	"sync"
	"sync/atomic"
	"time"

	"go.uber.org/zap"
)

// Messenger is the external messaging collaborator (email/SMS gateway
// ingress). Implementations must be safe for concurrent use.
type Messenger interface {
	Send(ctx context.Context, report Report) error
}

type Stats struct {
	Enqueued uint64 `json:"enqueued"`
	Sent     uint64 `json:"sent"`
	Failed   uint64 `json:"failed"`
	Dropped  uint64 `json:"dropped"`
}

// Dispatcher delivers duty reports through a bounded worker pool. Delivery
// is best-effort: a failed send is counted and logged, never retried, and
// a full queue drops the report instead of blocking the request path.
type Dispatcher struct {
	jobs        chan Report
	messenger   Messenger
	logger      *zap.Logger
	workers     int
	sendTimeout time.Duration
	wg          sync.WaitGroup

	mu     sync.RWMutex
	closed bool

	enqueued atomic.Uint64
	sent     atomic.Uint64
	failed   atomic.Uint64
	dropped  atomic.Uint64
}

func NewDispatcher(m Messenger, workers, queueSize int, logger ...*zap.Logger) *Dispatcher {
	l := zap.L().Named("notify.dispatcher")
	if len(logger) > 0 && logger[0] != nil {
		l = logger[0].Named("notify.dispatcher")
	}
	if workers <= 0 {
		workers = 2
	}
	if queueSize <= 0 {
		queueSize = 64
	}
	return &Dispatcher{
		jobs:        make(chan Report, queueSize),
		messenger:   m,
		logger:      l,
		workers:     workers,
		sendTimeout: 10 * time.Second,
	}
}

// Start launches the worker pool. Workers drain the queue until Close is
// called or ctx is cancelled.
func (d *Dispatcher) Start(ctx context.Context) {
	d.logger.Info("dispatcher started",
		zap.Int("workers", d.workers),
		zap.Int("queue_size", cap(d.jobs)),
	)
	for i := 0; i < d.workers; i++ {
		d.wg.Add(1)
		go d.worker(ctx)
	}
}

func (d *Dispatcher) worker(ctx context.Context) {
	defer d.wg.Done()
	for {
		select {
		case <-ctx.Done():
			return
		case report, ok := <-d.jobs:
			if !ok {
				return
			}
			d.deliver(ctx, report)
		}
	}
}

func (d *Dispatcher) deliver(ctx context.Context, report Report) {
	sendCtx, cancel := context.WithTimeout(ctx, d.sendTimeout)
	defer cancel()

	if err := d.messenger.Send(sendCtx, report); err != nil {
		d.failed.Add(1)
		d.logger.Error("report dispatch failed",
			zap.String("driver_id", report.Driver.ID),
			zap.String("action", report.Action),
			zap.Error(err),
		)
		return
	}

	d.sent.Add(1)
	d.logger.Info("report dispatched",
		zap.String("driver_id", report.Driver.ID),
		zap.String("action", report.Action),
	)
}

// Enqueue hands a report to the pool without blocking. Returns false when
// the queue is full or the dispatcher has been closed; either way the
// report is counted as dropped, never panicking a request goroutine that
// raced shutdown.
func (d *Dispatcher) Enqueue(report Report) bool {
	d.mu.RLock()
	defer d.mu.RUnlock()

	if d.closed {
		d.dropped.Add(1)
		d.logger.Warn("dispatcher closed, report dropped",
			zap.String("driver_id", report.Driver.ID),
			zap.String("action", report.Action),
		)
		return false
	}

	select {
	case d.jobs <- report:
		d.enqueued.Add(1)
		return true
	default:
		d.dropped.Add(1)
		d.logger.Warn("dispatch queue full, report dropped",
			zap.String("driver_id", report.Driver.ID),
			zap.String("action", report.Action),
		)
		return false
	}
}

// Close stops accepting reports and waits for in-flight deliveries.
// Safe to call more than once.
func (d *Dispatcher) Close() {
	d.mu.Lock()
	if d.closed {
		d.mu.Unlock()
		return
	}
	d.closed = true
	d.mu.Unlock()

	close(d.jobs)
	d.wg.Wait()
	d.logger.Info("dispatcher stopped")
}

func (d *Dispatcher) Stats() Stats {
	return Stats{
		Enqueued: d.enqueued.Load(),
		Sent:     d.sent.Load(),
		Failed:   d.failed.Load(),
		Dropped:  d.dropped.Load(),
	}
}
