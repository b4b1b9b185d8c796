package worker_test

import (
	"context"
	"errors"
	"fmt"
	"sync"
	"testing"
	"time"

	queue "github.com/okian/relocator/internal/adapters/mq/queue"
	worker "github.com/okian/relocator/internal/adapters/mq/worker"
	model "github.com/okian/relocator/internal/domain/model"
	logging "github.com/okian/relocator/pkg/logger"
	"github.com/smartystreets/goconvey/convey"
)

type fakeDeliverer struct {
	mu     sync.Mutex
	fail   map[string]bool
	gate   chan struct{}
	called int
}

func (f *fakeDeliverer) Deliver(ctx context.Context, job model.EmailJob) model.EmailLog {
	if f.gate != nil {
		select {
		case <-f.gate:
		case <-ctx.Done():
		}
	}
	f.mu.Lock()
	defer f.mu.Unlock()
	f.called++
	entry := model.EmailLog{LeadID: job.Lead.ID, Kind: job.Kind, Status: model.EmailSent, SentAt: time.Now()}
	if f.fail[job.Lead.ID] {
		entry.Status, entry.Error = model.EmailFailed, "relay refused"
	}
	return entry
}

// trackingQueue remembers the contexts its consumers dequeue with.
type trackingQueue struct {
	*queue.InMemoryQueue
	mu   sync.Mutex
	ctxs []context.Context
}

func (q *trackingQueue) Dequeue(ctx context.Context) <-chan queue.Job {
	q.mu.Lock()
	q.ctxs = append(q.ctxs, ctx)
	q.mu.Unlock()
	return q.InMemoryQueue.Dequeue(ctx)
}

func (q *trackingQueue) allCancelled() bool {
	q.mu.Lock()
	defer q.mu.Unlock()
	if len(q.ctxs) == 0 {
		return false
	}
	for _, ctx := range q.ctxs {
		if ctx.Err() == nil {
			return false
		}
	}
	return true
}

type fakeRecorder struct {
	mu      sync.Mutex
	entries map[string][]model.EmailLog
	err     error
}

func newFakeRecorder() *fakeRecorder {
	return &fakeRecorder{entries: map[string][]model.EmailLog{}}
}

func (f *fakeRecorder) RecordEmail(_ context.Context, entry model.EmailLog) (model.EmailLog, error) {
	f.mu.Lock()
	defer f.mu.Unlock()
	if f.err != nil {
		return model.EmailLog{}, f.err
	}
	f.entries[entry.LeadID] = append(f.entries[entry.LeadID], entry)
	return entry, nil
}

func (f *fakeRecorder) get(leadID string) []model.EmailLog {
	f.mu.Lock()
	defer f.mu.Unlock()
	return append([]model.EmailLog(nil), f.entries[leadID]...)
}

func (f *fakeRecorder) total() int {
	f.mu.Lock()
	defer f.mu.Unlock()
	n := 0
	for _, e := range f.entries {
		n += len(e)
	}
	return n
}

func job(leadID string, kind model.EmailKind) model.EmailJob {
	return model.EmailJob{Lead: model.LeadRecord{ID: leadID}, Kind: kind, EnqueuedAt: time.Now()}
}

func waitFor(cond func() bool) bool {
	deadline := time.Now().Add(2 * time.Second)
	for time.Now().Before(deadline) {
		if cond() {
			return true
		}
		time.Sleep(5 * time.Millisecond)
	}
	return cond()
}

func TestInMemoryWorker(t *testing.T) {
	convey.Convey("Given a worker over an in-memory queue", t, func() {
		_ = logging.Init()

		q := queue.NewInMemoryQueue(queue.WithCapacity(10))
		deliverer := &fakeDeliverer{fail: map[string]bool{"lead-bad": true}}
		recorder := newFakeRecorder()
		w := worker.NewInMemoryWorker(q, deliverer, recorder, worker.WithName("test-worker"), worker.WithJobTimeout(time.Second))

		ctx, cancel := context.WithCancel(context.Background())
		defer cancel()
		go w.Run(ctx)

		convey.Convey("When a job is delivered", func() {
			convey.So(q.Enqueue(ctx, job("lead-1", model.EmailWelcome)), convey.ShouldBeNil)

			convey.Convey("Then its outcome should be recorded", func() {
				convey.So(waitFor(func() bool { return len(recorder.get("lead-1")) == 1 }), convey.ShouldBeTrue)
				entry := recorder.get("lead-1")[0]
				convey.So(entry.Kind, convey.ShouldEqual, model.EmailWelcome)
				convey.So(entry.Status, convey.ShouldEqual, model.EmailSent)
			})
		})

		convey.Convey("When delivery fails", func() {
			convey.So(q.Enqueue(ctx, job("lead-bad", model.EmailQuizFollowup)), convey.ShouldBeNil)

			convey.Convey("Then the failure should still be recorded", func() {
				convey.So(waitFor(func() bool { return len(recorder.get("lead-bad")) == 1 }), convey.ShouldBeTrue)
				entry := recorder.get("lead-bad")[0]
				convey.So(entry.Status, convey.ShouldEqual, model.EmailFailed)
				convey.So(entry.Error, convey.ShouldEqual, "relay refused")
			})
		})

		convey.Convey("When recording fails", func() {
			recorder.mu.Lock()
			recorder.err = errors.New("disk full")
			recorder.mu.Unlock()
			convey.So(q.Enqueue(ctx, job("lead-2", model.EmailWelcome)), convey.ShouldBeNil)
			convey.So(q.Enqueue(ctx, job("lead-3", model.EmailWelcome)), convey.ShouldBeNil)

			convey.Convey("Then the worker should keep consuming", func() {
				convey.So(waitFor(func() bool {
					deliverer.mu.Lock()
					defer deliverer.mu.Unlock()
					return deliverer.called == 2
				}), convey.ShouldBeTrue)
				convey.So(recorder.total(), convey.ShouldEqual, 0)
			})
		})

		convey.Convey("When the queue closes", func() {
			convey.So(q.Close(), convey.ShouldBeNil)

			convey.Convey("Then shutdown should return promptly", func() {
				sctx, scancel := context.WithTimeout(context.Background(), time.Second)
				defer scancel()
				convey.So(w.Shutdown(sctx), convey.ShouldBeNil)
			})
		})

		convey.Convey("When shut down twice", func() {
			sctx, scancel := context.WithTimeout(context.Background(), time.Second)
			defer scancel()
			convey.So(w.Shutdown(sctx), convey.ShouldBeNil)
			convey.So(w.Shutdown(sctx), convey.ShouldBeNil)
		})
	})
}

func TestWorkerPool(t *testing.T) {
	convey.Convey("Given a pool of workers", t, func() {
		_ = logging.Init()

		q := queue.NewInMemoryQueue(queue.WithCapacity(200))
		deliverer := &fakeDeliverer{}
		recorder := newFakeRecorder()
		pool := worker.NewPool(4, q, deliverer, recorder)

		ctx, cancel := context.WithCancel(context.Background())
		defer cancel()
		pool.Start(ctx)

		convey.Convey("When many producers enqueue concurrently", func() {
			const producers, perProducer = 5, 20
			var wg sync.WaitGroup
			for i := 0; i < producers; i++ {
				wg.Add(1)
				go func(id int) {
					defer wg.Done()
					for j := 0; j < perProducer; j++ {
						_ = q.Enqueue(ctx, job(fmt.Sprintf("lead-%d-%d", id, j), model.EmailWelcome))
					}
				}(i)
			}
			wg.Wait()

			convey.Convey("Then every job should be processed once", func() {
				convey.So(waitFor(func() bool { return pool.Processed() == producers*perProducer }), convey.ShouldBeTrue)
				convey.So(recorder.total(), convey.ShouldEqual, producers*perProducer)
			})
		})

		convey.Convey("When shutting down with jobs still queued", func() {
			for i := 0; i < 10; i++ {
				convey.So(q.Enqueue(ctx, job(fmt.Sprintf("drain-%d", i), model.EmailWelcome)), convey.ShouldBeNil)
			}
			sctx, scancel := context.WithTimeout(context.Background(), 2*time.Second)
			defer scancel()

			convey.Convey("Then queued jobs should drain before workers exit", func() {
				convey.So(pool.Shutdown(sctx), convey.ShouldBeNil)
				convey.So(recorder.total(), convey.ShouldEqual, 10)
				convey.So(q.IsClosed(), convey.ShouldBeTrue)
			})
		})
	})

	convey.Convey("Given a pool whose deliveries hang", t, func() {
		_ = logging.Init()

		q := queue.NewInMemoryQueue()
		deliverer := &fakeDeliverer{gate: make(chan struct{})}
		pool := worker.NewPool(1, q, deliverer, newFakeRecorder())
		ctx, cancel := context.WithCancel(context.Background())
		defer cancel()
		pool.Start(ctx)
		convey.So(q.Enqueue(ctx, job("stuck", model.EmailWelcome)), convey.ShouldBeNil)

		convey.Convey("When the drain deadline passes", func() {
			sctx, scancel := context.WithTimeout(context.Background(), 50*time.Millisecond)
			defer scancel()
			err := pool.Shutdown(sctx)
			close(deliverer.gate)

			convey.Convey("Then shutdown should report the timeout", func() {
				convey.So(errors.Is(err, context.DeadlineExceeded), convey.ShouldBeTrue)
			})
		})
	})

	convey.Convey("Given a pool stuck on one job with another already dequeued", t, func() {
		_ = logging.Init()

		q := &trackingQueue{InMemoryQueue: queue.NewInMemoryQueue()}
		deliverer := &fakeDeliverer{gate: make(chan struct{})}
		defer close(deliverer.gate)
		pool := worker.NewPool(1, q, deliverer, newFakeRecorder())
		pool.Start(context.WithoutCancel(context.Background()))
		convey.So(q.Enqueue(context.Background(), job("stuck", model.EmailWelcome)), convey.ShouldBeNil)
		convey.So(q.Enqueue(context.Background(), job("held", model.EmailWelcome)), convey.ShouldBeNil)
		convey.So(waitFor(func() bool { return q.Len() == 0 }), convey.ShouldBeTrue)

		convey.Convey("When the drain deadline passes", func() {
			sctx, scancel := context.WithTimeout(context.Background(), 50*time.Millisecond)
			defer scancel()
			err := pool.Shutdown(sctx)

			convey.Convey("Then the consumers should be released instead of leaking", func() {
				convey.So(errors.Is(err, context.DeadlineExceeded), convey.ShouldBeTrue)
				convey.So(waitFor(q.allCancelled), convey.ShouldBeTrue)
				convey.So(waitFor(func() bool {
					deliverer.mu.Lock()
					defer deliverer.mu.Unlock()
					return deliverer.called >= 1
				}), convey.ShouldBeTrue)
			})
		})
	})

	convey.Convey("Given a pool built with a non-positive count", t, func() {
		_ = logging.Init()
		pool := worker.NewPool(0, queue.NewInMemoryQueue(), &fakeDeliverer{}, newFakeRecorder())

		convey.Convey("Then it should still be usable", func() {
			convey.So(pool, convey.ShouldNotBeNil)
			convey.So(pool.Processed(), convey.ShouldEqual, 0)
		})
	})
}
