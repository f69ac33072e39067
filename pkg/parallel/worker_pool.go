// Package parallel runs batches of compute tasks on a bounded set of workers.
package parallel

import (
	"context"
	"errors"
	"fmt"
	"math"
	"runtime/debug"
	"sync"
)

// Task is a unit of work whose failure must reach the caller
type Task func() error

// ErrTooManyWorkers is returned when the worker count exceeds MaxWorkers
var ErrTooManyWorkers = errors.New("worker count exceeds maximum")

// ErrPoolClosed is returned when tasks are run on a closed pool
var ErrPoolClosed = errors.New("worker pool is closed")

// MaxWorkers bounds the pool size so the queue capacity cannot overflow
const MaxWorkers = math.MaxInt / 2

// TaskPanicError wraps a panic raised by a task
type TaskPanicError struct {
	Value any
	Stack []byte
}

func (e *TaskPanicError) Error() string {
	return fmt.Sprintf("task panicked: %v", e.Value)
}

// job is one task of a batch. The worker writes the outcome to result
// before signalling done.
type job struct {
	task   Task
	result *error
	done   *sync.WaitGroup
}

// WorkerPool keeps a fixed set of goroutines alive across batches so
// repeated barriers do not pay goroutine startup
type WorkerPool struct {
	workers int
	queue   chan job
	wg      sync.WaitGroup
	once    sync.Once
	mu      sync.RWMutex // guards queue against close during send
	closed  bool
}

// NewWorkerPool starts a pool with the given number of workers.
// Non-positive counts start a single worker.
func NewWorkerPool(workers int) (*WorkerPool, error) {
	if workers <= 0 {
		workers = 1
	}
	if workers > MaxWorkers {
		return nil, fmt.Errorf("%w: %d exceeds %d", ErrTooManyWorkers, workers, MaxWorkers)
	}

	pool := &WorkerPool{
		workers: workers,
		queue:   make(chan job, workers*2),
	}
	pool.wg.Add(workers)
	for range workers {
		go pool.work()
	}
	return pool, nil
}

// Workers returns the number of worker goroutines
func (wp *WorkerPool) Workers() int {
	return wp.workers
}

func (wp *WorkerPool) work() {
	defer wp.wg.Done()
	for j := range wp.queue {
		*j.result = runTask(j.task)
		j.done.Done()
	}
}

// submit queues j, reporting false once the pool is closed
func (wp *WorkerPool) submit(j job) bool {
	wp.mu.RLock()
	defer wp.mu.RUnlock()
	if wp.closed {
		return false
	}
	wp.queue <- j
	return true
}

// Close stops accepting batches and waits for queued tasks to finish.
// It is safe to call more than once and from several goroutines.
func (wp *WorkerPool) Close() {
	wp.once.Do(func() {
		wp.mu.Lock()
		wp.closed = true
		close(wp.queue)
		wp.mu.Unlock()
	})
	wp.wg.Wait()
}

// RunAll runs every task and returns once all submitted tasks finished.
// It is a barrier: no task of the batch is still running when it returns.
// A nil pool runs the tasks sequentially on the calling goroutine.
//
// Task errors and recovered panics are joined into the returned error.
// Once ctx is cancelled no further tasks are started and ctx.Err() is
// reported alongside any task failures.
func RunAll(ctx context.Context, pool *WorkerPool, tasks []Task) error {
	errs := make([]error, len(tasks)+1)

	if pool == nil {
		for i, task := range tasks {
			if err := ctx.Err(); err != nil {
				errs[i] = err
				break
			}
			errs[i] = runTask(task)
		}
		return errors.Join(errs...)
	}

	var done sync.WaitGroup
	for i, task := range tasks {
		if err := ctx.Err(); err != nil {
			errs[len(tasks)] = err
			break
		}
		done.Add(1)
		if !pool.submit(job{task: task, result: &errs[i], done: &done}) {
			done.Done()
			errs[i] = ErrPoolClosed
			break
		}
	}
	done.Wait()

	return errors.Join(errs...)
}

// runTask runs a task, converting a panic into a TaskPanicError
func runTask(task Task) (err error) {
	defer func() {
		if r := recover(); r != nil {
			err = &TaskPanicError{Value: r, Stack: debug.Stack()}
		}
	}()
	return task()
}
