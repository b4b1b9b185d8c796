// Package worker drains the email queue: each job is rendered, delivered
// and its outcome appended to the lead's email log.
package worker

import (
	"context"
	"fmt"
	"strconv"
	"sync"
	"sync/atomic"
	"time"

	"github.com/okian/relocator/internal/adapters/mq/queue"
	"github.com/okian/relocator/internal/domain/model"
	"github.com/okian/relocator/pkg/logger"
	"github.com/okian/relocator/pkg/metrics"
)

const (
	defaultWorkerCount = 4
	defaultJobTimeout  = 30 * time.Second
)

// Deliverer turns a job into a delivery outcome. Failures are reported in
// the returned entry, never dropped.
type Deliverer interface {
	Deliver(ctx context.Context, job model.EmailJob) model.EmailLog
}

// Recorder persists delivery outcomes.
type Recorder interface {
	RecordEmail(ctx context.Context, entry model.EmailLog) (model.EmailLog, error)
}

// Queue defines how workers receive jobs.
type Queue interface {
	Dequeue(ctx context.Context) <-chan queue.Job
}

// Worker processes jobs until its queue closes.
type Worker interface {
	Run(ctx context.Context)
	Shutdown(ctx context.Context) error
}

// InMemoryWorker implements Worker.
type InMemoryWorker struct {
	queue      Queue
	deliverer  Deliverer
	recorder   Recorder
	name       string
	jobTimeout time.Duration
	processed  *atomic.Int64

	shutdown chan struct{}
	stopOnce sync.Once
	done     chan struct{}

	logger logger.Logger
}

// NewInMemoryWorker creates a worker with configuration options.
func NewInMemoryWorker(q Queue, d Deliverer, r Recorder, opts ...Option) *InMemoryWorker {
	w := &InMemoryWorker{
		queue:      q,
		deliverer:  d,
		recorder:   r,
		name:       "worker",
		jobTimeout: defaultJobTimeout,
		processed:  new(atomic.Int64),
		shutdown:   make(chan struct{}),
		done:       make(chan struct{}),
	}
	for _, opt := range opts {
		opt(w)
	}
	if w.logger == nil {
		w.logger = logger.Get()
	}
	w.logger = w.logger.Named(w.name)
	return w
}

// Run consumes jobs until the queue closes, ctx is done or Shutdown is called.
func (w *InMemoryWorker) Run(ctx context.Context) {
	defer close(w.done)

	// The dequeue goroutine must not outlive the worker.
	dctx, cancel := context.WithCancel(ctx)
	defer cancel()
	jobs := w.queue.Dequeue(dctx)
	for {
		select {
		case <-ctx.Done():
			return
		case <-w.shutdown:
			return
		case job, ok := <-jobs:
			if !ok {
				return
			}
			if err := w.process(ctx, job); err != nil {
				w.logger.Error(ctx, "error processing email job", logger.Error(err))
			}
		}
	}
}

// Shutdown stops the worker after its current job.
func (w *InMemoryWorker) Shutdown(ctx context.Context) error {
	w.stop()
	select {
	case <-w.done:
		return nil
	case <-ctx.Done():
		w.logger.Warn(ctx, "shutdown timed out")
		return fmt.Errorf("shutdown timed out: %w", ctx.Err())
	}
}

func (w *InMemoryWorker) stop() {
	w.stopOnce.Do(func() { close(w.shutdown) })
}

func (w *InMemoryWorker) process(ctx context.Context, job model.EmailJob) error { //nolint:gocritic // hugeParam: jobs travel by value
	start := time.Now()
	defer func() {
		metrics.RecordWorkerProcessingLatency(float64(time.Since(start).Milliseconds()))
		w.processed.Add(1)
	}()

	ctx, cancel := context.WithTimeout(ctx, w.jobTimeout)
	defer cancel()

	entry := w.deliverer.Deliver(ctx, job)
	metrics.RecordEmail(string(entry.Kind), string(entry.Status))
	if entry.Status == model.EmailFailed {
		w.logger.Warn(ctx, "email delivery failed",
			logger.String("lead_id", job.Lead.ID),
			logger.String("kind", string(job.Kind)),
			logger.String("reason", entry.Error),
		)
	}

	if _, err := w.recorder.RecordEmail(ctx, entry); err != nil {
		metrics.RecordWorkerError()
		metrics.RecordErrorByComponent("worker", "record_error")
		return fmt.Errorf("record %s email for lead %s: %w", job.Kind, job.Lead.ID, err)
	}
	return nil
}

// Pool manages multiple workers sharing one queue.
type Pool struct {
	workers   []*InMemoryWorker
	queue     Queue
	processed *atomic.Int64
	active    atomic.Int64
	cancel    context.CancelFunc
	logger    logger.Logger
}

// NewPool creates a pool of workerCount workers. A count below one selects
// the default.
func NewPool(workerCount int, q Queue, d Deliverer, r Recorder, opts ...Option) *Pool {
	if workerCount < 1 {
		workerCount = defaultWorkerCount
	}
	probe := &InMemoryWorker{}
	for _, opt := range opts {
		opt(probe)
	}
	base := probe.logger
	if base == nil {
		base = logger.Get()
	}
	p := &Pool{
		workers:   make([]*InMemoryWorker, workerCount),
		queue:     q,
		processed: new(atomic.Int64),
		logger:    base.Named("worker-pool"),
	}
	for i := range p.workers {
		w := NewInMemoryWorker(q, d, r, append(opts, WithName("worker-"+strconv.Itoa(i)))...)
		w.processed = p.processed
		p.workers[i] = w
	}
	metrics.UpdateWorkerCount(workerCount)
	metrics.UpdateWorkerActiveCount(0)
	return p
}

// Start launches every worker. The workers run on a child of ctx that
// Shutdown cancels once they have exited or the drain deadline passed.
func (p *Pool) Start(ctx context.Context) {
	ctx, p.cancel = context.WithCancel(ctx)
	for _, w := range p.workers {
		p.active.Add(1)
		metrics.UpdateWorkerActiveCount(int(p.active.Load()))
		go func(w *InMemoryWorker) {
			defer func() {
				metrics.UpdateWorkerActiveCount(int(p.active.Add(-1)))
			}()
			w.Run(ctx)
		}(w)
	}
}

// Processed reports how many jobs the pool has finished.
func (p *Pool) Processed() int64 {
	return p.processed.Load()
}

// Shutdown closes the queue and lets workers drain what is already queued.
// When ctx is done first, workers are stopped and in-flight deliveries
// cancelled.
func (p *Pool) Shutdown(ctx context.Context) error {
	if closer, ok := p.queue.(interface{ Close() error }); ok {
		if err := closer.Close(); err != nil {
			p.logger.Error(ctx, "error closing queue", logger.Error(err))
		}
	}

	for i, w := range p.workers {
		select {
		case <-w.done:
		case <-ctx.Done():
			p.logger.Warn(ctx, "worker drain timed out", logger.Int("worker_id", i))
			p.forceStop()
			return fmt.Errorf("worker pool drain: %w", ctx.Err())
		}
	}
	if p.cancel != nil {
		p.cancel()
	}
	return nil
}

// forceStop stops every worker and cancels in-flight deliveries.
func (p *Pool) forceStop() {
	for _, w := range p.workers {
		w.stop()
	}
	if p.cancel != nil {
		p.cancel()
	}
}
