package algorithms

import (
	"context"
	"errors"
	"fmt"
	"iter"
	"runtime"
	"sync"
	"time"

	"github.com/google/uuid"

	"github.com/dd0wney/cluso-graphalgo/pkg/graph"
	"github.com/dd0wney/cluso-graphalgo/pkg/logging"
	"github.com/dd0wney/cluso-graphalgo/pkg/metrics"
)

// DefaultQueueCapacity bounds the results buffered between the traversal
// and the consumer. Memory held by a stream is O(capacity), not O(N^2).
const DefaultQueueCapacity = 1024

// ShortestPathResult is the hop distance between two nodes in external id space
type ShortestPathResult struct {
	SourceNodeID int64
	TargetNodeID int64
	Distance     int
}

// AllShortestPathsOptions configures the all-pairs shortest path stream
type AllShortestPathsOptions struct {
	Concurrency   int // Maximum number of BFS waves in flight, 0 = runtime.NumCPU()
	QueueCapacity int // Results buffered ahead of the consumer

	Logger  logging.Logger    // nil discards; the defaults use logging.DefaultLogger()
	Metrics *metrics.Registry // Optional
}

// DefaultAllShortestPathsOptions returns default stream configuration
func DefaultAllShortestPathsOptions() AllShortestPathsOptions {
	return AllShortestPathsOptions{
		Concurrency:   runtime.NumCPU(),
		QueueCapacity: DefaultQueueCapacity,
		Logger:        logging.DefaultLogger(),
	}
}

// AllShortestPaths streams the unweighted shortest distance of every
// reachable (source, target) pair, following outgoing relationships.
//
// The result set is quadratic in the node count, so nothing is collected:
// a producer drives a multi-source BFS over all nodes and blocks on a
// bounded queue whenever the consumer falls behind.
type AllShortestPaths struct {
	graph graph.Graph
	opts  AllShortestPathsOptions
}

// NewAllShortestPaths validates the options and prepares the computation
func NewAllShortestPaths(g graph.Graph, opts AllShortestPathsOptions) (*AllShortestPaths, error) {
	if opts.Concurrency < 0 {
		return nil, &AlgorithmError{Op: "AllShortestPaths", Cause: fmt.Errorf("%w: got %d", ErrInvalidConcurrency, opts.Concurrency)}
	}
	if opts.QueueCapacity <= 0 {
		return nil, &AlgorithmError{Op: "AllShortestPaths", Cause: fmt.Errorf("%w: got %d", ErrInvalidQueueCapacity, opts.QueueCapacity)}
	}
	if opts.Logger == nil {
		opts.Logger = logging.NewNopLogger()
	}
	return &AllShortestPaths{graph: g, opts: opts}, nil
}

// streamItem is a queue slot; the terminal item marks the end of a
// successful traversal and is never handed to the consumer
type streamItem struct {
	result   ShortestPathResult
	terminal bool
}

// ResultStream is a lazy, single-pass sequence of shortest path results.
//
// Next, Result, Err and Close belong to the consuming goroutine. To abort
// a blocked Next from elsewhere, cancel the context the stream was
// started with.
type ResultStream struct {
	queue  chan streamItem
	cancel context.CancelFunc
	done   chan struct{} // closed once the producer returned

	producerErr error // written before done is closed

	current   ShortestPathResult
	err       error
	finished  bool
	closeOnce sync.Once

	logger  logging.Logger
	metrics *metrics.Registry
	started time.Time
}

// ResultStream starts the producer and returns the stream it feeds.
// The caller must exhaust or Close the stream.
func (a *AllShortestPaths) ResultStream(ctx context.Context) *ResultStream {
	ctx, cancel := context.WithCancel(ctx)
	s := &ResultStream{
		queue:   make(chan streamItem, a.opts.QueueCapacity),
		cancel:  cancel,
		done:    make(chan struct{}),
		logger:  a.opts.Logger.With(logging.Algorithm("all_shortest_paths"), logging.RunID(uuid.NewString())),
		metrics: a.opts.Metrics,
		started: time.Now(),
	}

	go s.produce(ctx, a)
	return s
}

// produce runs the traversal and ends the queue with the terminal item.
// On failure or cancellation no terminal item is queued and the error is
// left in producerErr.
func (s *ResultStream) produce(ctx context.Context, a *AllShortestPaths) {
	defer close(s.done)

	g := a.graph
	consumer := func(targetNodeID, depth int, sources iter.Seq[int]) error {
		targetID := g.ToOriginalNodeID(targetNodeID)
		for source := range sources {
			item := streamItem{result: ShortestPathResult{
				SourceNodeID: g.ToOriginalNodeID(source),
				TargetNodeID: targetID,
				Distance:     depth,
			}}
			if err := s.put(ctx, item); err != nil {
				return err
			}
			s.metrics.RecordStreamResult(len(s.queue))
		}
		return nil
	}

	bfs, err := NewMultiSourceBFS(g, graph.Outgoing, consumer, MSBFSOptions{
		Concurrency: a.opts.Concurrency,
		Logger:      s.logger,
		Metrics:     a.opts.Metrics,
	})
	if err != nil {
		s.producerErr = err
		return
	}

	s.logger.Debug("result stream started",
		logging.NodeCount(g.NodeCount()),
		logging.Int("waves", bfs.Waves()))

	if err := bfs.Run(ctx); err != nil {
		s.producerErr = err
		return
	}
	s.producerErr = s.put(ctx, streamItem{terminal: true})
}

// put blocks until the queue accepts the item or ctx is cancelled
func (s *ResultStream) put(ctx context.Context, item streamItem) error {
	select {
	case s.queue <- item:
		return nil
	case <-ctx.Done():
		return ctx.Err()
	}
}

// Next blocks for the next result. It returns false once the stream is
// exhausted, failed or closed; Err tells which.
func (s *ResultStream) Next() bool {
	if s.finished {
		return false
	}

	done := s.done
	for {
		select {
		case item := <-s.queue:
			if item.terminal {
				s.finish(nil)
				return false
			}
			s.current = item.result
			return true
		case <-done:
			if s.producerErr != nil {
				s.finish(s.producerErr)
				return false
			}
			// a successful producer left the terminal item in the queue
			done = nil
		}
	}
}

// Result returns the result read by the last successful Next
func (s *ResultStream) Result() ShortestPathResult {
	return s.current
}

// Err returns nil after the stream was exhausted, ErrStreamClosed when it
// was closed early, or the error that stopped the producer
func (s *ResultStream) Err() error {
	return s.err
}

// Close stops the producer and waits for it to return. Closing a stream
// that was not exhausted makes Err report ErrStreamClosed. Close is
// idempotent.
func (s *ResultStream) Close() error {
	s.closeOnce.Do(func() {
		s.cancel()
		<-s.done
		if !s.finished {
			s.metrics.RecordStreamClosedEarly()
			s.finish(ErrStreamClosed)
		}
	})
	return nil
}

// All returns the remaining results as an iterator. Breaking out of the
// loop closes the stream.
func (s *ResultStream) All() iter.Seq[ShortestPathResult] {
	return func(yield func(ShortestPathResult) bool) {
		defer s.Close()
		for s.Next() {
			if !yield(s.current) {
				return
			}
		}
	}
}

// Collect drains the stream into a slice. Only sensible for small graphs.
func (s *ResultStream) Collect() ([]ShortestPathResult, error) {
	var results []ShortestPathResult
	for r := range s.All() {
		results = append(results, r)
	}
	return results, s.Err()
}

func (s *ResultStream) finish(err error) {
	s.finished = true
	s.err = err
	s.cancel()

	status := "success"
	switch {
	case errors.Is(err, ErrStreamClosed):
		status = "closed"
	case err != nil:
		status = "error"
	}
	s.metrics.RecordComputation("all_shortest_paths", status, time.Since(s.started))
	s.logger.Debug("result stream finished", logging.String("status", status), logging.Error(err))
}
