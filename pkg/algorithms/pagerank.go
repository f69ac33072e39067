package algorithms

import (
	"context"
	"fmt"
	"runtime"
	"time"

	"github.com/google/uuid"

	"github.com/dd0wney/cluso-graphalgo/pkg/graph"
	"github.com/dd0wney/cluso-graphalgo/pkg/logging"
	"github.com/dd0wney/cluso-graphalgo/pkg/metrics"
	"github.com/dd0wney/cluso-graphalgo/pkg/parallel"
	"github.com/dd0wney/cluso-graphalgo/pkg/partition"
)

// ScoreScale is the fixed-point factor used when compute steps exchange
// scores. Contributions are truncated to 1/ScoreScale, which keeps
// accumulation exact under integer addition.
const ScoreScale = 100_000

// PageRankOptions configures PageRank algorithm
type PageRankOptions struct {
	DampingFactor float64 // Usually 0.85
	Concurrency   int     // Maximum number of compute steps, 0 = runtime.NumCPU()
	BatchSize     int     // Nodes per partition before degree adjustment
	Tolerance     float64 // Stop once no score moves more than this, 0 runs every iteration

	Logger  logging.Logger    // nil discards; the defaults use logging.DefaultLogger()
	Metrics *metrics.Registry // Optional
}

// DefaultPageRankOptions returns default PageRank configuration
func DefaultPageRankOptions() PageRankOptions {
	return PageRankOptions{
		DampingFactor: 0.85,
		Concurrency:   runtime.NumCPU(),
		BatchSize:     partition.DefaultBatchSize,
		Logger:        logging.DefaultLogger(),
	}
}

func (o PageRankOptions) validate() error {
	if !(o.DampingFactor > 0 && o.DampingFactor < 1) {
		return fmt.Errorf("%w: got %v", ErrInvalidDampingFactor, o.DampingFactor)
	}
	if o.Concurrency < 0 {
		return fmt.Errorf("%w: got %d", ErrInvalidConcurrency, o.Concurrency)
	}
	if o.BatchSize <= 0 {
		return fmt.Errorf("%w: got %d", ErrInvalidBatchSize, o.BatchSize)
	}
	if o.Tolerance < 0 {
		return fmt.Errorf("%w: got %v", ErrInvalidTolerance, o.Tolerance)
	}
	return nil
}

// PageRank is a partition based parallel PageRank solver.
//
// The node space is cut into contiguous ranges balanced by out-degree and
// every range is owned by one compute step. A step keeps the ranks of its
// own nodes only and writes the contributions it produces into a private
// row of an exchange arena, one buffer per receiving step. Between the
// parallel iterate and synchronize phases the coordinator hands every step
// the column of buffers addressed to it, so no step ever writes memory
// another step is touching.
type PageRank struct {
	graph      graph.Graph
	opts       PageRankOptions
	partitions []partition.Partition
	steps      *computeSteps
	pool       *parallel.WorkerPool
	logger     logging.Logger

	iterations int
	converged  bool
}

// NewPageRank partitions the graph and prepares the compute steps.
// With a concurrency of 1 the whole graph is one partition and every phase
// runs on the calling goroutine.
func NewPageRank(g graph.Graph, opts PageRankOptions) (*PageRank, error) {
	if err := opts.validate(); err != nil {
		return nil, &AlgorithmError{Op: "PageRank", Cause: err}
	}

	concurrency := opts.Concurrency
	if concurrency == 0 {
		concurrency = runtime.NumCPU()
	}

	logger := opts.Logger
	if logger == nil {
		logger = logging.NewNopLogger()
	}
	logger = logger.With(logging.Algorithm("pagerank"), logging.RunID(uuid.NewString()))

	nodeCount := g.NodeCount()
	var parts []partition.Partition
	if concurrency > 1 {
		parts = partition.ByDegree(nodeCount, g.Nodes(), g, partition.AdjustBatchSize(opts.BatchSize))
		parts = partition.Merge(parts, concurrency)
	} else {
		parts = partition.Single(nodeCount, g)
	}

	pr := &PageRank{
		graph:      g,
		opts:       opts,
		partitions: parts,
		steps:      newComputeSteps(g, parts, opts.DampingFactor),
		logger:     logger,
	}

	if len(parts) > 1 {
		pool, err := parallel.NewWorkerPool(len(parts))
		if err != nil {
			return nil, &AlgorithmError{Op: "PageRank", Cause: err}
		}
		pr.pool = pool
	}

	workers := 1
	if pr.pool != nil {
		workers = pr.pool.Workers()
	}
	stats := partition.Stats(parts)
	opts.Metrics.SetPageRankPartitioning(len(parts), stats.LoadBalance)
	logger.Info("pagerank prepared",
		logging.NodeCount(nodeCount),
		logging.Partitions(len(parts)),
		logging.Int("workers", workers),
		logging.Float64("load_balance", stats.LoadBalance),
		logging.Float64("damping_factor", opts.DampingFactor))

	return pr, nil
}

// Compute runs the given number of iterations, continuing from the scores
// of any previous call. It stops early when a positive Tolerance is met.
func (pr *PageRank) Compute(ctx context.Context, iterations int) (*PageRank, error) {
	if iterations < 1 {
		return pr, &AlgorithmError{Op: "PageRank.Compute", Cause: fmt.Errorf("%w: got %d", ErrInvalidIterations, iterations)}
	}

	start := time.Now()
	timer := logging.StartTimer(pr.logger, "pagerank computed", logging.Int("requested_iterations", iterations))
	pr.converged = false

	for i := 1; i <= iterations; i++ {
		delta, err := pr.steps.runIteration(ctx, pr.pool, pr.iterations+1, pr.logger, pr.opts.Metrics)
		if err != nil {
			pr.opts.Metrics.RecordComputation("pagerank", "error", time.Since(start))
			timer.EndError(err)
			return pr, err
		}
		pr.iterations++
		pr.opts.Metrics.RecordPageRankIteration()
		pr.logger.Debug("pagerank iteration finished",
			logging.Iteration(pr.iterations),
			logging.Float64("max_delta", delta))

		if pr.opts.Tolerance > 0 && delta < pr.opts.Tolerance {
			pr.converged = true
			break
		}
	}

	pr.opts.Metrics.RecordComputation("pagerank", "success", time.Since(start))
	timer.End()
	return pr, nil
}

// Scores returns the current scores indexed by internal node id
func (pr *PageRank) Scores() []float64 {
	return pr.steps.scores()
}

// Partitions returns the node ranges owned by the compute steps
func (pr *PageRank) Partitions() []partition.Partition {
	return append([]partition.Partition(nil), pr.partitions...)
}

// Iterations returns the number of iterations completed so far
func (pr *PageRank) Iterations() int {
	return pr.iterations
}

// Converged reports whether the last Compute call stopped on Tolerance
func (pr *PageRank) Converged() bool {
	return pr.converged
}

// TopNodes returns the n highest ranked nodes in external id space
func (pr *PageRank) TopNodes(n int) []RankedNode {
	return topNodes(pr.graph, pr.Scores(), n)
}

// Close releases the worker pool
func (pr *PageRank) Close() {
	if pr.pool != nil {
		pr.pool.Close()
	}
}
