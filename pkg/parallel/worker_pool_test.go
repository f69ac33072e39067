package parallel

import (
	"context"
	"errors"
	"sync"
	"sync/atomic"
	"testing"
	"time"
)

func newTestPool(t *testing.T, workers int) *WorkerPool {
	t.Helper()
	pool, err := NewWorkerPool(workers)
	if err != nil {
		t.Fatalf("NewWorkerPool(%d) failed: %v", workers, err)
	}
	t.Cleanup(pool.Close)
	return pool
}

func TestNewWorkerPool_Bounds(t *testing.T) {
	pool, err := NewWorkerPool(0)
	if err != nil {
		t.Fatalf("NewWorkerPool(0) failed: %v", err)
	}
	defer pool.Close()
	if pool.Workers() != 1 {
		t.Errorf("Expected non-positive worker count to default to 1, got %d", pool.Workers())
	}

	if _, err := NewWorkerPool(MaxWorkers + 1); !errors.Is(err, ErrTooManyWorkers) {
		t.Errorf("Expected ErrTooManyWorkers, got %v", err)
	}
}

func TestWorkerPool_CloseIsIdempotent(t *testing.T) {
	pool := newTestPool(t, 4)

	tasks := make([]Task, 20)
	for i := range tasks {
		tasks[i] = func() error {
			time.Sleep(time.Millisecond)
			return nil
		}
	}
	if err := RunAll(context.Background(), pool, tasks); err != nil {
		t.Fatalf("RunAll failed: %v", err)
	}

	var wg sync.WaitGroup
	for range 10 {
		wg.Add(1)
		go func() {
			defer wg.Done()
			pool.Close()
		}()
	}
	wg.Wait()
}

func TestWorkerPool_SurvivesPanickingBatches(t *testing.T) {
	pool := newTestPool(t, 2)

	for range 3 {
		err := RunAll(context.Background(), pool, []Task{
			func() error { panic("intentional panic") },
			func() error { panic("intentional panic") },
		})
		if err == nil {
			t.Fatal("Expected panics to be reported")
		}
	}

	var counter int64
	tasks := make([]Task, 10)
	for i := range tasks {
		tasks[i] = func() error {
			atomic.AddInt64(&counter, 1)
			return nil
		}
	}
	if err := RunAll(context.Background(), pool, tasks); err != nil {
		t.Fatalf("RunAll after panics failed: %v", err)
	}
	if counter != 10 {
		t.Errorf("Expected counter 10, got %d", counter)
	}
}

func TestRunAll_IsABarrier(t *testing.T) {
	for _, pool := range []*WorkerPool{nil, newTestPool(t, 3)} {
		var done int64
		tasks := make([]Task, 16)
		for i := range tasks {
			tasks[i] = func() error {
				time.Sleep(time.Millisecond)
				atomic.AddInt64(&done, 1)
				return nil
			}
		}

		if err := RunAll(context.Background(), pool, tasks); err != nil {
			t.Fatalf("RunAll failed: %v", err)
		}
		if got := atomic.LoadInt64(&done); got != 16 {
			t.Errorf("Expected all 16 tasks finished when RunAll returns, got %d", got)
		}
	}
}

func TestRunAll_SurfacesErrors(t *testing.T) {
	errBoom := errors.New("boom")
	pool := newTestPool(t, 2)

	var ran int64
	tasks := []Task{
		func() error { atomic.AddInt64(&ran, 1); return nil },
		func() error { atomic.AddInt64(&ran, 1); return errBoom },
		func() error { atomic.AddInt64(&ran, 1); return nil },
	}

	err := RunAll(context.Background(), pool, tasks)
	if !errors.Is(err, errBoom) {
		t.Errorf("Expected errBoom, got %v", err)
	}
	if ran != 3 {
		t.Errorf("Expected every task of the batch to run, got %d", ran)
	}
}

func TestRunAll_RecoversPanics(t *testing.T) {
	for _, pool := range []*WorkerPool{nil, newTestPool(t, 2)} {
		err := RunAll(context.Background(), pool, []Task{
			func() error { panic("step exploded") },
		})

		var panicErr *TaskPanicError
		if !errors.As(err, &panicErr) {
			t.Fatalf("Expected TaskPanicError, got %v", err)
		}
		if panicErr.Value != "step exploded" {
			t.Errorf("Panic value = %v, want %q", panicErr.Value, "step exploded")
		}
		if len(panicErr.Stack) == 0 {
			t.Error("Expected stack trace to be captured")
		}
	}
}

func TestRunAll_CancelledContext(t *testing.T) {
	ctx, cancel := context.WithCancel(context.Background())
	cancel()

	var ran int64
	task := func() error { atomic.AddInt64(&ran, 1); return nil }

	for _, pool := range []*WorkerPool{nil, newTestPool(t, 2)} {
		err := RunAll(ctx, pool, []Task{task, task})
		if !errors.Is(err, context.Canceled) {
			t.Errorf("Expected context.Canceled, got %v", err)
		}
	}
	if ran != 0 {
		t.Errorf("Expected no task to start after cancellation, %d ran", ran)
	}
}

func TestRunAll_ClosedPool(t *testing.T) {
	pool := newTestPool(t, 2)
	pool.Close()

	err := RunAll(context.Background(), pool, []Task{func() error { return nil }})
	if !errors.Is(err, ErrPoolClosed) {
		t.Errorf("Expected ErrPoolClosed, got %v", err)
	}
}

// BenchmarkRunAll benchmarks a barrier of small tasks
func BenchmarkRunAll(b *testing.B) {
	pool, err := NewWorkerPool(8)
	if err != nil {
		b.Fatal(err)
	}
	defer pool.Close()

	tasks := make([]Task, 8)
	for i := range tasks {
		tasks[i] = func() error {
			sum := 0
			for j := range 100 {
				sum += j
			}
			_ = sum
			return nil
		}
	}

	for b.Loop() {
		_ = RunAll(context.Background(), pool, tasks)
	}
}
