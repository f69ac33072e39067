package algorithms

import (
	"context"
	"fmt"
	"iter"
	"math/bits"
	"runtime"

	"golang.org/x/sync/errgroup"

	"github.com/dd0wney/cluso-graphalgo/pkg/graph"
	"github.com/dd0wney/cluso-graphalgo/pkg/logging"
	"github.com/dd0wney/cluso-graphalgo/pkg/metrics"
	"github.com/dd0wney/cluso-graphalgo/pkg/pools"
)

// MSBFSWidth is the number of sources a single wave tracks, one bit each
const MSBFSWidth = 64

// BFSConsumer is called once per node and level with the sources that
// reached the node at that level for the first time. Sources are reported
// at depth 0. sources is lazy and may be iterated more than once.
//
// Consumers are called concurrently from different waves. Calls for the
// same source never overlap. Returning an error aborts the traversal.
type BFSConsumer func(targetNodeID, depth int, sources iter.Seq[int]) error

// MSBFSOptions configures a multi-source BFS
type MSBFSOptions struct {
	Concurrency int // Maximum number of waves in flight, 0 = runtime.NumCPU()

	Logger  logging.Logger    // nil discards; the defaults use logging.DefaultLogger()
	Metrics *metrics.Registry // Optional
}

// DefaultMSBFSOptions returns default multi-source BFS configuration
func DefaultMSBFSOptions() MSBFSOptions {
	return MSBFSOptions{
		Concurrency: runtime.NumCPU(),
		Logger:      logging.DefaultLogger(),
	}
}

// MultiSourceBFS computes hop distances from many sources at once.
//
// Sources are packed into waves of MSBFSWidth. Within a wave every node
// carries a bit-vector of the sources whose frontier currently sits on it,
// so one scan of a node's relationships advances all of them together. A
// per-node seen vector guarantees each (source, node) pair is reported
// exactly once, at its minimum hop count.
type MultiSourceBFS struct {
	graph     graph.Graph
	direction graph.Direction
	consumer  BFSConsumer
	sources   []int
	opts      MSBFSOptions
	words     *pools.WordPool
	logger    logging.Logger
}

// NewMultiSourceBFS prepares a traversal from the given internal node ids.
// Without sources every node is a source. Duplicate sources are ignored.
func NewMultiSourceBFS(g graph.Graph, direction graph.Direction, consumer BFSConsumer, opts MSBFSOptions, sources ...int) (*MultiSourceBFS, error) {
	switch direction {
	case graph.Outgoing, graph.Incoming, graph.Both:
	default:
		return nil, &AlgorithmError{Op: "MultiSourceBFS", Cause: fmt.Errorf("%w: %s", ErrUnsupportedDirection, direction)}
	}
	if opts.Concurrency < 0 {
		return nil, &AlgorithmError{Op: "MultiSourceBFS", Cause: fmt.Errorf("%w: got %d", ErrInvalidConcurrency, opts.Concurrency)}
	}

	nodeCount := g.NodeCount()
	var unique []int
	if len(sources) == 0 {
		unique = make([]int, nodeCount)
		for i := range unique {
			unique[i] = i
		}
	} else {
		seen := make(map[int]struct{}, len(sources))
		unique = make([]int, 0, len(sources))
		for _, s := range sources {
			if s < 0 || s >= nodeCount {
				return nil, &AlgorithmError{Op: "MultiSourceBFS", Cause: fmt.Errorf("%w: %d not in [0, %d)", ErrInvalidSourceNode, s, nodeCount)}
			}
			if _, dup := seen[s]; dup {
				continue
			}
			seen[s] = struct{}{}
			unique = append(unique, s)
		}
	}

	if opts.Concurrency == 0 {
		opts.Concurrency = runtime.NumCPU()
	}
	logger := opts.Logger
	if logger == nil {
		logger = logging.NewNopLogger()
	}

	return &MultiSourceBFS{
		graph:     g,
		direction: direction,
		consumer:  consumer,
		sources:   unique,
		opts:      opts,
		words:     pools.NewWordPool(nodeCount),
		logger:    logger.With(logging.Algorithm("msbfs")),
	}, nil
}

// Waves returns the number of waves the sources are split into
func (m *MultiSourceBFS) Waves() int {
	return (len(m.sources) + MSBFSWidth - 1) / MSBFSWidth
}

// Run traverses all waves, at most Concurrency at a time. It returns the
// first consumer error or the context error; the remaining waves stop at
// their next level boundary.
func (m *MultiSourceBFS) Run(ctx context.Context) error {
	g, gctx := errgroup.WithContext(ctx)
	g.SetLimit(m.opts.Concurrency)

	for wave := 0; wave*MSBFSWidth < len(m.sources); wave++ {
		if gctx.Err() != nil {
			break
		}
		start := wave * MSBFSWidth
		sources := m.sources[start:min(start+MSBFSWidth, len(m.sources))]
		g.Go(func() error {
			return m.runWave(gctx, wave, sources)
		})
	}

	if err := g.Wait(); err != nil {
		return err
	}
	return ctx.Err()
}

// runWave runs one level-synchronous traversal for up to MSBFSWidth sources
func (m *MultiSourceBFS) runWave(ctx context.Context, wave int, sources []int) error {
	visit := m.words.Get() // frontier of the current level
	next := m.words.Get()  // sources arriving at the next level
	seen := m.words.Get()  // sources that already reached a node
	defer func() {
		m.words.Put(visit)
		m.words.Put(next)
		m.words.Put(seen)
	}()

	if err := ctx.Err(); err != nil {
		return err
	}

	for i, s := range sources {
		bit := uint64(1) << i
		visit[s] = bit
		seen[s] = bit
		if err := m.consumer(s, 0, sourceSet(sources, bit)); err != nil {
			return err
		}
	}

	var frontier uint64
	expand := func(_, neighborID int, _ int64) bool {
		next[neighborID] |= frontier
		return true
	}

	depth := 0
	for {
		if err := ctx.Err(); err != nil {
			return err
		}

		for nodeID, word := range visit {
			if word == 0 {
				continue
			}
			frontier = word
			m.graph.ForEachRelationship(nodeID, m.direction, expand)
		}
		depth++

		found := false
		for nodeID, word := range next {
			arrived := word &^ seen[nodeID]
			next[nodeID] = 0
			visit[nodeID] = arrived
			if arrived == 0 {
				continue
			}
			found = true
			seen[nodeID] |= arrived
			if err := m.consumer(nodeID, depth, sourceSet(sources, arrived)); err != nil {
				return err
			}
		}
		if !found {
			break
		}
	}

	// the last level only confirmed that nothing new was reached
	levels := depth - 1
	m.opts.Metrics.RecordMSBFSWave(levels)
	m.logger.Debug("msbfs wave finished",
		logging.Wave(wave),
		logging.Count(len(sources)),
		logging.Depth(levels))
	return nil
}

// sourceSet lazily yields the source ids whose bits are set in word
func sourceSet(sources []int, word uint64) iter.Seq[int] {
	return func(yield func(int) bool) {
		for w := word; w != 0; w &= w - 1 {
			if !yield(sources[bits.TrailingZeros64(w)]) {
				return
			}
		}
	}
}
