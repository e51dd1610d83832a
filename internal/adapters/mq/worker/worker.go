// Package worker runs profile tasks on a fixed number of concurrent workers.
package worker

import (
	"context"
	"errors"
	"fmt"
	"runtime/debug"
	"strconv"
	"sync"
	"sync/atomic"
	"time"

	"github.com/okian/lobbyrisk/internal/adapters/mq/queue"
	"github.com/okian/lobbyrisk/internal/domain/model"
	"github.com/okian/lobbyrisk/internal/domain/profile"
	"github.com/okian/lobbyrisk/pkg/logger"
	"github.com/okian/lobbyrisk/pkg/metrics"
)

// Default worker configuration constants.
const (
	defaultPoolSize       = 5
	poolShutdownTimeout   = 30 * time.Second
	workerShutdownTimeout = 5 * time.Second
)

// Runner resolves one identity into a risk score.
type Runner interface {
	Run(ctx context.Context, id model.Identity) (float64, error)
}

// Queue defines how workers receive tasks.
type Queue interface {
	Dequeue(ctx context.Context) <-chan queue.Task
}

// Worker processes tasks until its queue is closed and drained.
type Worker interface {
	// Run starts the worker loop. Tasks run under ctx.
	Run(ctx context.Context)

	// Shutdown waits for the worker loop to finish.
	Shutdown(ctx context.Context) error
}

// InMemoryWorker implements Worker. Each worker is one concurrency slot.
type InMemoryWorker struct {
	queue  Queue
	runner Runner
	name   string
	active *atomic.Int64

	done   chan struct{}
	logger logger.Logger
}

// NewInMemoryWorker creates a new worker with configuration options.
func NewInMemoryWorker(q Queue, runner Runner, active *atomic.Int64, opts ...Option) *InMemoryWorker {
	if active == nil {
		active = &atomic.Int64{}
	}
	w := &InMemoryWorker{
		queue:  q,
		runner: runner,
		name:   "worker",
		active: active,
		done:   make(chan struct{}),
		logger: logger.Get().Named("worker"),
	}

	for _, opt := range opts {
		opt(w)
	}

	if w.name != "worker" {
		w.logger = w.logger.Named(w.name)
	}

	return w
}

// Run consumes tasks until the queue channel is closed. Queued tasks are
// never abandoned: once ctx is canceled they still run and fail fast.
func (w *InMemoryWorker) Run(ctx context.Context) {
	defer close(w.done)

	for task := range w.queue.Dequeue(ctx) {
		w.process(ctx, task)
	}
}

// Shutdown waits for the worker loop to finish.
func (w *InMemoryWorker) Shutdown(ctx context.Context) error {
	select {
	case <-w.done:
		return nil
	case <-ctx.Done():
		w.logger.Warn(ctx, "shutdown timed out")
		return fmt.Errorf("shutdown timed out: %w", ctx.Err())
	}
}

// process runs one task and delivers exactly one result, even on panic.
func (w *InMemoryWorker) process(ctx context.Context, task queue.Task) {
	metrics.RecordQueueWait(float64(time.Since(task.Enqueued).Milliseconds()))
	metrics.UpdatePoolActive(int(w.active.Add(1)))
	start := time.Now()

	res := model.TaskResult{Identity: task.Identity}
	defer func() {
		if r := recover(); r != nil {
			res = model.TaskResult{Identity: task.Identity, Err: fmt.Errorf("%w: %v", ErrTaskPanic, r)}
			w.logger.Error(ctx, "task panicked",
				logger.String("identity", task.Identity),
				logger.Any("panic", r),
				logger.String("stack", string(debug.Stack())),
			)
		}

		metrics.UpdatePoolActive(int(w.active.Add(-1)))
		metrics.RecordTaskLatency(float64(time.Since(start).Milliseconds()))
		if res.Err != nil {
			reason := failureReason(res.Err)
			metrics.RecordTaskFailed(reason)
			metrics.RecordErrorByComponent("worker", reason)
			w.logger.Warn(ctx, "task failed",
				logger.String("identity", task.Identity),
				logger.String("reason", reason),
				logger.Error(res.Err),
			)
		} else {
			metrics.RecordTaskSucceeded()
		}

		task.Reply <- res
	}()

	res.RiskScore, res.Err = w.runner.Run(ctx, task.Identity)
}

func failureReason(err error) string {
	switch {
	case errors.Is(err, ErrTaskPanic):
		return "panic"
	case errors.Is(err, profile.ErrFetchTimeout):
		return "fetch_timeout"
	case errors.Is(err, profile.ErrFetch):
		return "fetch"
	case errors.Is(err, profile.ErrParse):
		return "parse"
	case errors.Is(err, context.Canceled):
		return "canceled"
	default:
		return "other"
	}
}

// TaskQueue is the queue surface the Pool needs.
type TaskQueue interface {
	Queue
	Enqueue(ctx context.Context, t queue.Task) error
	Len(ctx context.Context) int
	Cap() int
	Close() error
}

// Pool owns K workers sharing one queue. At most K tasks run at once; the
// rest wait in the queue.
type Pool struct {
	workers []*InMemoryWorker
	queue   TaskQueue
	runner  Runner
	active  atomic.Int64

	ctx             context.Context
	cancel          context.CancelFunc
	startOnce       sync.Once
	shutdownOnce    sync.Once
	shutdownTimeout time.Duration

	logger logger.Logger
}

// NewPool creates a pool of size workers. A non-positive size uses the default of 5.
func NewPool(size int, q TaskQueue, runner Runner, opts ...PoolOption) *Pool {
	if size < 1 {
		size = defaultPoolSize
	}

	p := &Pool{
		workers:         make([]*InMemoryWorker, size),
		queue:           q,
		runner:          runner,
		shutdownTimeout: poolShutdownTimeout,
		logger:          logger.Get().Named("worker-pool"),
	}

	for _, opt := range opts {
		opt(p)
	}

	for i := 0; i < size; i++ {
		p.workers[i] = NewInMemoryWorker(q, runner, &p.active, WithName("worker-"+strconv.Itoa(i)))
	}

	metrics.UpdatePoolSize(size)
	metrics.UpdatePoolActive(0)

	return p
}

// Start launches the workers. Tasks run under a context derived from ctx,
// not under the submitting caller's context.
func (p *Pool) Start(ctx context.Context) {
	p.startOnce.Do(func() {
		p.ctx, p.cancel = context.WithCancel(ctx)
		for _, w := range p.workers {
			go w.Run(p.ctx)
		}
		p.logger.Info(ctx, "worker pool started", logger.Int("size", len(p.workers)), logger.Int("queue_capacity", p.queue.Cap()))
	})
}

// Submit enqueues id and returns the channel its result will arrive on.
// It blocks while the queue is full and fails with ErrStopped after Shutdown.
func (p *Pool) Submit(ctx context.Context, id model.Identity) (<-chan model.TaskResult, error) {
	reply := make(chan model.TaskResult, 1)
	err := p.queue.Enqueue(ctx, queue.Task{Identity: id, Reply: reply, Enqueued: time.Now()})
	switch {
	case err == nil:
		metrics.RecordTaskSubmitted()
		return reply, nil
	case errors.Is(err, queue.ErrClosed):
		return nil, ErrStopped
	default:
		return nil, fmt.Errorf("submit %s: %w", id, err)
	}
}

// Size returns the number of workers.
func (p *Pool) Size() int { return len(p.workers) }

// Active returns the number of tasks currently running.
func (p *Pool) Active() int64 { return p.active.Load() }

// QueueLen returns the number of tasks waiting for a worker.
func (p *Pool) QueueLen(ctx context.Context) int { return p.queue.Len(ctx) }

// QueueCap returns the queue capacity.
func (p *Pool) QueueCap() int { return p.queue.Cap() }

// Shutdown stops accepting tasks and waits for queued tasks to drain. If
// draining outlasts ctx or the shutdown timeout, in-flight tasks are canceled
// and the remaining ones fail fast.
func (p *Pool) Shutdown(ctx context.Context) error {
	var err error
	p.shutdownOnce.Do(func() {
		if cerr := p.queue.Close(); cerr != nil {
			p.logger.Error(ctx, "error closing queue", logger.Error(cerr))
		}

		if p.cancel == nil {
			return
		}

		drainCtx, cancel := context.WithTimeout(ctx, p.shutdownTimeout)
		defer cancel()

		for i, w := range p.workers {
			if werr := w.Shutdown(drainCtx); werr != nil {
				p.logger.Warn(ctx, "worker drain timed out, canceling in-flight tasks", logger.Int("worker_id", i))
				p.cancel()
				err = werr
				break
			}
		}
		p.cancel()

		if err != nil {
			// Canceled tasks finish quickly; give them a bounded grace period.
			graceCtx, graceCancel := context.WithTimeout(context.Background(), workerShutdownTimeout)
			defer graceCancel()
			for _, w := range p.workers {
				_ = w.Shutdown(graceCtx)
			}
		}
	})
	return err
}
