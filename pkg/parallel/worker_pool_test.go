package parallel

import (
	"bytes"
	"context"
	"errors"
	"runtime"
	"strings"
	"sync"
	"sync/atomic"
	"testing"
	"time"

	"github.com/dd0wney/cluso-tmhmm/pkg/logging"
)

func newPool(t *testing.T, workers int) *WorkerPool {
	t.Helper()
	pool, err := NewWorkerPool(workers, nil)
	if err != nil {
		t.Fatalf("NewWorkerPool(%d) failed: %v", workers, err)
	}
	t.Cleanup(pool.Close)
	return pool
}

func TestWorkerPool_RunsEveryTask(t *testing.T) {
	pool := newPool(t, 8)
	ctx := context.Background()

	var counter atomic.Int64
	var wg sync.WaitGroup
	for range 10 {
		wg.Add(1)
		go func() {
			defer wg.Done()
			for range 10 {
				if err := pool.Submit(ctx, func() { counter.Add(1) }); err != nil {
					t.Errorf("Submit: %v", err)
				}
			}
		}()
	}
	wg.Wait()
	pool.Close()

	if counter.Load() != 100 {
		t.Errorf("ran %d tasks, want 100", counter.Load())
	}
	if s := pool.Stats(); s.Completed != 100 || s.Panicked != 0 {
		t.Errorf("Stats() = %+v", s)
	}
}

func TestWorkerPool_SubmitAfterClose(t *testing.T) {
	pool := newPool(t, 2)
	pool.Close()
	pool.Close()

	if err := pool.Submit(context.Background(), func() {}); !errors.Is(err, ErrPoolClosed) {
		t.Errorf("Submit after Close = %v, want ErrPoolClosed", err)
	}
}

func TestWorkerPool_CloseWhileSubmitting(t *testing.T) {
	for range 20 {
		pool := newPool(t, 4)

		var wg sync.WaitGroup
		for range 10 {
			wg.Add(1)
			go func() {
				defer wg.Done()
				for range 10 {
					err := pool.Submit(context.Background(), func() {})
					if err != nil && !errors.Is(err, ErrPoolClosed) {
						t.Errorf("unexpected Submit error: %v", err)
					}
				}
			}()
		}
		pool.Close()
		wg.Wait()
	}
}

func TestWorkerPool_SubmitHonoursContext(t *testing.T) {
	pool := newPool(t, 1)
	release := make(chan struct{})
	defer close(release)

	// One task occupies the worker and one fills the queue.
	block := func() { <-release }
	for range 2 {
		if err := pool.Submit(context.Background(), block); err != nil {
			t.Fatal(err)
		}
	}

	ctx, cancel := context.WithTimeout(context.Background(), 20*time.Millisecond)
	defer cancel()
	if err := pool.Submit(ctx, func() {}); !errors.Is(err, context.DeadlineExceeded) {
		t.Errorf("Submit on a full pool = %v, want deadline exceeded", err)
	}

	cancelled, stop := context.WithCancel(context.Background())
	stop()
	if err := pool.Submit(cancelled, func() {}); !errors.Is(err, context.Canceled) {
		t.Errorf("Submit with cancelled ctx = %v", err)
	}
}

func TestWorkerPool_Panic(t *testing.T) {
	var buf bytes.Buffer
	pool, err := NewWorkerPool(1, logging.NewJSONLogger(&buf, logging.InfoLevel))
	if err != nil {
		t.Fatal(err)
	}

	var after atomic.Bool
	ctx := context.Background()
	_ = pool.Submit(ctx, func() { panic("boom") })
	_ = pool.Submit(ctx, func() { after.Store(true) })
	pool.Close()

	if !after.Load() {
		t.Error("worker stopped after a task panic")
	}
	if s := pool.Stats(); s.Panicked != 1 || s.Completed != 1 {
		t.Errorf("Stats() = %+v", s)
	}
	if out := buf.String(); !strings.Contains(out, "worker panic recovered") || !strings.Contains(out, "boom") {
		t.Errorf("panic not logged: %q", out)
	}
}

func TestWorkerPool_Size(t *testing.T) {
	tests := []struct {
		requested, want int
	}{
		{1, 1},
		{16, 16},
		{0, runtime.GOMAXPROCS(0)},
		{-5, runtime.GOMAXPROCS(0)},
	}
	for _, tt := range tests {
		pool := newPool(t, tt.requested)
		if pool.Workers() != tt.want {
			t.Errorf("NewWorkerPool(%d).Workers() = %d, want %d", tt.requested, pool.Workers(), tt.want)
		}
	}

	if _, err := NewWorkerPool(MaxWorkers+1, nil); !errors.Is(err, ErrTooManyWorkers) {
		t.Errorf("oversized pool error = %v", err)
	}
}

func BenchmarkWorkerPool_Submit(b *testing.B) {
	pool, _ := NewWorkerPool(4, nil)
	defer pool.Close()
	ctx := context.Background()

	for b.Loop() {
		_ = pool.Submit(ctx, func() {})
	}
}
