// Package parallel fans sequence decoding out over a fixed set of
// goroutines.
package parallel

import (
	"context"
	"errors"
	"fmt"
	"runtime"
	"sync"
	"sync/atomic"

	"github.com/dd0wney/cluso-tmhmm/pkg/logging"
)

var (
	// ErrPoolClosed is returned by Submit after Close.
	ErrPoolClosed = errors.New("worker pool closed")
	// ErrTooManyWorkers is returned for worker counts above MaxWorkers.
	ErrTooManyWorkers = errors.New("worker count exceeds maximum")
)

// MaxWorkers bounds the pool size. Decoding is CPU bound, so anything
// near this is already far past useful.
const MaxWorkers = 4096

// WorkerPool runs submitted tasks on a fixed set of goroutines. A task
// that panics is logged and counted; its worker keeps running.
type WorkerPool struct {
	workers int
	tasks   chan func()
	logger  logging.Logger

	// mu guards closed and the close of tasks against in-flight sends.
	mu     sync.RWMutex
	closed bool
	once   sync.Once
	wg     sync.WaitGroup

	completed atomic.Int64
	panicked  atomic.Int64
}

// PoolStats counts finished tasks.
type PoolStats struct {
	Completed int64
	Panicked  int64
}

// NewWorkerPool starts workers goroutines. A non-positive count uses
// GOMAXPROCS.
func NewWorkerPool(workers int, logger logging.Logger) (*WorkerPool, error) {
	if workers <= 0 {
		workers = runtime.GOMAXPROCS(0)
	}
	if workers > MaxWorkers {
		return nil, fmt.Errorf("%w: %d > %d", ErrTooManyWorkers, workers, MaxWorkers)
	}

	p := &WorkerPool{
		workers: workers,
		tasks:   make(chan func(), workers),
		logger:  logging.OrNop(logger).With(logging.Component("worker_pool")),
	}
	p.wg.Add(workers)
	for range workers {
		go p.work()
	}
	return p, nil
}

func (p *WorkerPool) work() {
	defer p.wg.Done()
	for task := range p.tasks {
		p.run(task)
	}
}

func (p *WorkerPool) run(task func()) {
	defer func() {
		if r := recover(); r != nil {
			p.panicked.Add(1)
			p.logger.Error("worker panic recovered", logging.Any("panic", r))
			return
		}
		p.completed.Add(1)
	}()
	task()
}

// Submit queues task, blocking while every worker is busy and the queue
// is full. It fails with ErrPoolClosed after Close and with ctx's error
// if ctx ends first.
func (p *WorkerPool) Submit(ctx context.Context, task func()) error {
	if err := ctx.Err(); err != nil {
		return err
	}
	p.mu.RLock()
	defer p.mu.RUnlock()
	if p.closed {
		return ErrPoolClosed
	}
	select {
	case p.tasks <- task:
		return nil
	case <-ctx.Done():
		return ctx.Err()
	}
}

// Close stops accepting tasks and waits for queued ones to finish. It is
// safe to call more than once.
func (p *WorkerPool) Close() {
	p.once.Do(func() {
		p.mu.Lock()
		p.closed = true
		close(p.tasks)
		p.mu.Unlock()
	})
	p.wg.Wait()
}

func (p *WorkerPool) Workers() int { return p.workers }

func (p *WorkerPool) Stats() PoolStats {
	return PoolStats{Completed: p.completed.Load(), Panicked: p.panicked.Load()}
}
