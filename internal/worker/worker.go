package worker

import (
	"context"
	"errors"
	"log/slog"
	"sync"
	"sync/atomic"
)

var (
	ErrQueueFull = errors.New("worker queue is full")
	ErrStopped   = errors.New("worker pool is stopped")
)

type Job any

type ProcessFunc func(ctx context.Context, job Job) error

type WorkerPool struct {
	name       string
	numWorkers int
	jobs       chan Job
	processor  ProcessFunc
	wg         sync.WaitGroup

	mu      sync.RWMutex
	stopped bool

	processed atomic.Int64
	failed    atomic.Int64
}

func NewWorkerPool(name string, numWorkers int, bufferSize int, processor ProcessFunc) *WorkerPool {
	return &WorkerPool{
		name:       name,
		numWorkers: numWorkers,
		jobs:       make(chan Job, bufferSize),
		processor:  processor,
	}
}

func (wp *WorkerPool) Start(ctx context.Context) {
	for i := 1; i <= wp.numWorkers; i++ {
		wp.wg.Add(1)
		go wp.worker(ctx, i)
	}
}

func (wp *WorkerPool) worker(ctx context.Context, id int) {
	defer wp.wg.Done()

	for {
		select {
		case <-ctx.Done():
			return
		case job, ok := <-wp.jobs:
			if !ok {
				return
			}
			if err := wp.processor(ctx, job); err != nil {
				wp.failed.Add(1)
				slog.Warn("job failed", "pool", wp.name, "worker", id, "error", err)
				continue
			}
			wp.processed.Add(1)
		}
	}
}

// Submit queues a job, waiting for room until ctx is done. A Submit blocked
// on a full queue holds off Stop until it returns.
func (wp *WorkerPool) Submit(ctx context.Context, job Job) error {
	wp.mu.RLock()
	defer wp.mu.RUnlock()

	if wp.stopped {
		return ErrStopped
	}
	select {
	case wp.jobs <- job:
		return nil
	case <-ctx.Done():
		return ctx.Err()
	}
}

// TrySubmit queues a job without blocking.
func (wp *WorkerPool) TrySubmit(job Job) error {
	wp.mu.RLock()
	defer wp.mu.RUnlock()

	if wp.stopped {
		return ErrStopped
	}
	select {
	case wp.jobs <- job:
		return nil
	default:
		return ErrQueueFull
	}
}

// Stop rejects new jobs and waits for the workers to drain the queue.
// It is safe to call more than once.
func (wp *WorkerPool) Stop() {
	wp.mu.Lock()
	if !wp.stopped {
		wp.stopped = true
		close(wp.jobs)
	}
	wp.mu.Unlock()

	wp.wg.Wait()
}

func (wp *WorkerPool) Processed() int64 {
	return wp.processed.Load()
}

func (wp *WorkerPool) Failed() int64 {
	return wp.failed.Load()
}
