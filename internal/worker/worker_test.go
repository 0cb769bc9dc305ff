package worker

import (
	"context"
	"errors"
	"sync"
	"sync/atomic"
	"testing"
	"time"

	"go.uber.org/goleak"
)

func TestMain(m *testing.M) {
	goleak.VerifyTestMain(m)
}

func TestWorkerPool_DrainsOnStop(t *testing.T) {
	var processed atomic.Int64
	processor := func(ctx context.Context, job Job) error {
		processed.Add(1)
		return nil
	}

	pool := NewWorkerPool("test", 2, 10, processor)

	ctx, cancel := context.WithCancel(context.Background())
	defer cancel()
	pool.Start(ctx)

	for i := 0; i < 5; i++ {
		if err := pool.Submit(ctx, i); err != nil {
			t.Fatalf("Submit failed: %v", err)
		}
	}

	// Stop before cancel so queued jobs are drained.
	pool.Stop()

	if processed.Load() != 5 {
		t.Errorf("expected 5 jobs processed, got %d", processed.Load())
	}
	if pool.Processed() != 5 {
		t.Errorf("expected Processed() 5, got %d", pool.Processed())
	}
}

func TestWorkerPool_ConcurrentSubmit(t *testing.T) {
	var processed atomic.Int64
	processor := func(ctx context.Context, job Job) error {
		processed.Add(1)
		return nil
	}

	pool := NewWorkerPool("test", 4, 100, processor)

	ctx, cancel := context.WithCancel(context.Background())
	defer cancel()
	pool.Start(ctx)

	var wg sync.WaitGroup
	for i := 0; i < 100; i++ {
		wg.Add(1)
		go func(n int) {
			defer wg.Done()
			pool.Submit(ctx, n)
		}(i)
	}
	wg.Wait()
	pool.Stop()

	if processed.Load() != 100 {
		t.Errorf("expected 100 jobs processed, got %d", processed.Load())
	}
}

func TestWorkerPool_CountsFailures(t *testing.T) {
	processor := func(ctx context.Context, job Job) error {
		if job.(int)%2 == 0 {
			return errors.New("even job")
		}
		return nil
	}

	pool := NewWorkerPool("test", 1, 10, processor)

	ctx, cancel := context.WithCancel(context.Background())
	defer cancel()
	pool.Start(ctx)

	for i := 0; i < 6; i++ {
		pool.Submit(ctx, i)
	}
	pool.Stop()

	if pool.Failed() != 3 || pool.Processed() != 3 {
		t.Errorf("expected 3 failed / 3 processed, got %d / %d", pool.Failed(), pool.Processed())
	}
}

func TestWorkerPool_TrySubmit(t *testing.T) {
	release := make(chan struct{})
	processor := func(ctx context.Context, job Job) error {
		<-release
		return nil
	}

	pool := NewWorkerPool("test", 1, 1, processor)

	ctx, cancel := context.WithCancel(context.Background())
	defer cancel()
	pool.Start(ctx)

	// First job occupies the worker, second fills the buffer.
	if err := pool.Submit(ctx, 1); err != nil {
		t.Fatalf("Submit failed: %v", err)
	}
	deadline := time.Now().Add(time.Second)
	for {
		if err := pool.TrySubmit(2); err == nil {
			break
		}
		if time.Now().After(deadline) {
			t.Fatal("buffer never freed up")
		}
		time.Sleep(time.Millisecond)
	}

	if err := pool.TrySubmit(3); !errors.Is(err, ErrQueueFull) {
		t.Errorf("expected ErrQueueFull, got %v", err)
	}

	close(release)
	pool.Stop()

	if err := pool.TrySubmit(4); !errors.Is(err, ErrStopped) {
		t.Errorf("expected ErrStopped, got %v", err)
	}
	if err := pool.Submit(ctx, 5); !errors.Is(err, ErrStopped) {
		t.Errorf("expected ErrStopped, got %v", err)
	}
	pool.Stop()
}

func TestWorkerPool_ContextCancellation(t *testing.T) {
	var completed atomic.Int64
	processor := func(ctx context.Context, job Job) error {
		select {
		case <-ctx.Done():
			return ctx.Err()
		case <-time.After(100 * time.Millisecond):
			completed.Add(1)
			return nil
		}
	}

	pool := NewWorkerPool("test", 2, 10, processor)

	ctx, cancel := context.WithCancel(context.Background())
	pool.Start(ctx)

	for i := 0; i < 5; i++ {
		pool.Submit(ctx, i)
	}

	time.Sleep(20 * time.Millisecond)
	cancel()

	done := make(chan struct{})
	go func() {
		pool.Stop()
		close(done)
	}()

	select {
	case <-done:
	case <-time.After(5 * time.Second):
		t.Fatal("pool.Stop() timed out")
	}

	if completed.Load() == 5 {
		t.Error("expected cancellation to cut work short")
	}
}

func TestWorkerPool_SubmitWaitsForRoom(t *testing.T) {
	pool := NewWorkerPool("test", 1, 1, func(ctx context.Context, job Job) error { return nil })

	if err := pool.Submit(context.Background(), 1); err != nil {
		t.Fatalf("Submit failed: %v", err)
	}

	// Not started, so the single slot stays taken.
	ctx, cancel := context.WithTimeout(context.Background(), 20*time.Millisecond)
	defer cancel()
	if err := pool.Submit(ctx, 2); !errors.Is(err, context.DeadlineExceeded) {
		t.Errorf("expected context.DeadlineExceeded, got %v", err)
	}

	pool.Stop()
	if err := pool.Submit(context.Background(), 3); !errors.Is(err, ErrStopped) {
		t.Errorf("expected ErrStopped after Stop, got %v", err)
	}
}
