package ingest

import (
	"context"
	"sync"
	"sync/atomic"
	"time"

	"go.uber.org/zap"

	"shuttletrack/backend/services/telemetry-service/internal/metrics"
)

// Job is one unit of ingestion work executed on the store-owning worker.
type Job func(ctx context.Context)

// Dispatcher moves work from broker callback goroutines onto a single worker
// goroutine that owns all persistence writes. Submission never blocks: when
// the queue is full or the worker is not running, the job is dropped and the
// caller is told so. Jobs for the same device are enqueued in arrival order
// but nothing re-orders completions; last-write-wins is probabilistic, which
// is acceptable for monitoring-grade data.
type Dispatcher struct {
	queue   chan Job
	logger  *zap.Logger
	metrics *metrics.Metrics
	running atomic.Bool
	wg      sync.WaitGroup
}

// NewDispatcher builds a dispatcher with the given queue capacity.
func NewDispatcher(queueSize int, m *metrics.Metrics, logger *zap.Logger) *Dispatcher {
	if queueSize <= 0 {
		queueSize = 256
	}
	return &Dispatcher{
		queue:   make(chan Job, queueSize),
		logger:  logger,
		metrics: m,
	}
}

const drainTimeout = 5 * time.Second

// Start launches the worker. It returns immediately; when ctx is cancelled the
// worker stops accepting new jobs, drains what was already accepted and exits.
func (d *Dispatcher) Start(ctx context.Context) {
	if !d.running.CompareAndSwap(false, true) {
		return
	}
	d.wg.Add(1)
	go func() {
		defer d.wg.Done()
		for {
			// Checked before the select: with the context cancelled and the
			// queue non-empty both cases are ready, and shutdown must win.
			if ctx.Err() != nil {
				d.drain()
				return
			}
			select {
			case <-ctx.Done():
				d.drain()
				return
			case job := <-d.queue:
				d.observeDepth()
				job(ctx)
			}
		}
	}()
}

// drain runs every job accepted before shutdown. The jobs get a fresh bounded
// context because the worker's own context is already cancelled and the writes
// still have to reach the stores.
func (d *Dispatcher) drain() {
	d.running.Store(false)

	ctx, cancel := context.WithTimeout(context.Background(), drainTimeout)
	defer cancel()
	for {
		select {
		case job := <-d.queue:
			d.observeDepth()
			job(ctx)
		default:
			return
		}
	}
}

// TrySubmit enqueues a job without blocking. Returns false when the job was
// dropped because the worker is stopped or the queue is saturated.
func (d *Dispatcher) TrySubmit(job Job) bool {
	if !d.running.Load() {
		return false
	}
	select {
	case d.queue <- job:
		d.observeDepth()
		return true
	default:
		if d.metrics != nil {
			d.metrics.MessagesDropped.Inc()
		}
		return false
	}
}

// Wait blocks until the worker goroutine has exited.
func (d *Dispatcher) Wait() {
	d.wg.Wait()
}

func (d *Dispatcher) observeDepth() {
	if d.metrics != nil {
		d.metrics.QueueDepth.Set(float64(len(d.queue)))
	}
}
