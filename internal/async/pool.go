// Package async runs blocking pipeline work (text recovery, geocoding) on a
// bounded set of workers so request handlers never block on it directly.
package async

import (
	"context"
	"errors"
	"fmt"
	"log/slog"
	"sync"
	"time"
)

// ErrClosed is returned for work submitted after Shutdown.
var ErrClosed = errors.New("async pool is shut down")

// Task is one unit of blocking work.
type Task func(ctx context.Context) error

type job struct {
	name        string
	ctx         context.Context
	task        Task
	done        chan error // nil for fire-and-forget
	submittedAt time.Time
}

type Pool struct {
	logger  *slog.Logger
	workers int
	timeout time.Duration

	ch   chan job
	wg   sync.WaitGroup
	once sync.Once

	mu     sync.RWMutex
	closed bool
}

type Option func(*Pool)

func WithWorkers(n int) Option {
	return func(p *Pool) {
		if n > 0 {
			p.workers = n
		}
	}
}

func WithQueueSize(n int) Option {
	return func(p *Pool) {
		if n > 0 {
			p.ch = make(chan job, n)
		}
	}
}

// WithTaskTimeout bounds each task; zero or negative leaves the default.
func WithTaskTimeout(d time.Duration) Option {
	return func(p *Pool) {
		if d > 0 {
			p.timeout = d
		}
	}
}

func NewPool(logger *slog.Logger, opts ...Option) *Pool {
	if logger == nil {
		logger = slog.Default()
	}
	p := &Pool{
		logger:  logger,
		workers: 4,
		timeout: 3 * time.Minute,
		ch:      make(chan job, 256),
	}
	for _, o := range opts {
		o(p)
	}
	p.start()
	return p
}

func (p *Pool) start() {
	p.once.Do(func() {
		for i := 0; i < p.workers; i++ {
			p.wg.Add(1)
			go func(workerID int) {
				defer p.wg.Done()
				p.logger.Debug("worker started", "worker_id", workerID)

				for j := range p.ch {
					err := p.run(j)
					if j.done != nil {
						j.done <- err
						continue
					}
					if err != nil {
						p.logger.Error("task failed", "worker_id", workerID, "task", j.name, "error", err)
					} else {
						p.logger.Debug("task done", "worker_id", workerID, "task", j.name,
							"elapsed_ms", time.Since(j.submittedAt).Milliseconds())
					}
				}

				p.logger.Debug("worker stopped", "worker_id", workerID)
			}(i + 1)
		}
	})
}

func (p *Pool) run(j job) (err error) {
	ctx, cancel := context.WithTimeout(j.ctx, p.timeout)
	defer cancel()
	defer func() {
		if r := recover(); r != nil {
			err = fmt.Errorf("task %s panicked: %v", j.name, r)
		}
	}()
	if err := ctx.Err(); err != nil {
		return err
	}
	return j.task(ctx)
}

func (p *Pool) enqueue(ctx context.Context, j job) error {
	p.mu.RLock()
	defer p.mu.RUnlock()
	if p.closed {
		p.logger.Warn("cannot enqueue: pool is shutting down", "task", j.name)
		return ErrClosed
	}
	select {
	case p.ch <- j:
		return nil
	default:
	}
	p.logger.Warn("queue full, applying backpressure", "task", j.name)
	select {
	case p.ch <- j:
		return nil
	case <-ctx.Done():
		return ctx.Err()
	}
}

// Do runs task on a worker and waits for its result. The task context
// inherits ctx's values and cancellation plus the pool's per-task timeout.
func (p *Pool) Do(ctx context.Context, name string, task Task) error {
	done := make(chan error, 1)
	if err := p.enqueue(ctx, job{name: name, ctx: ctx, task: task, done: done, submittedAt: time.Now()}); err != nil {
		return err
	}
	select {
	case err := <-done:
		return err
	case <-ctx.Done():
		return ctx.Err()
	}
}

// Go queues task without waiting. The task keeps ctx's values but not its
// cancellation, so it outlives the request that submitted it.
func (p *Pool) Go(ctx context.Context, name string, task Task) error {
	return p.enqueue(ctx, job{name: name, ctx: context.WithoutCancel(ctx), task: task, submittedAt: time.Now()})
}

// Shutdown stops intake and waits for queued work to drain or ctx to end.
func (p *Pool) Shutdown(ctx context.Context) {
	p.mu.Lock()
	if p.closed {
		p.mu.Unlock()
		return
	}
	p.closed = true
	close(p.ch)
	p.mu.Unlock()

	done := make(chan struct{})
	go func() { defer close(done); p.wg.Wait() }()

	select {
	case <-ctx.Done():
		p.logger.Warn("shutdown interrupted by context")
	case <-done:
		p.logger.Info("pool drained, shutdown complete")
	}
}
