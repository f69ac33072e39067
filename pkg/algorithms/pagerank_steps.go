package algorithms

import (
	"context"
	"fmt"
	"math"

	"github.com/dd0wney/cluso-graphalgo/pkg/graph"
	"github.com/dd0wney/cluso-graphalgo/pkg/logging"
	"github.com/dd0wney/cluso-graphalgo/pkg/metrics"
	"github.com/dd0wney/cluso-graphalgo/pkg/parallel"
	"github.com/dd0wney/cluso-graphalgo/pkg/partition"
)

// exchangeArena holds the fixed-point score buffers shaped
// [producing step][consuming step][local offset in consumer].
// Buffers are allocated once and zeroed by their consumer after use.
type exchangeArena struct {
	cells [][][]int64
}

func newExchangeArena(lengths []int) *exchangeArena {
	cells := make([][][]int64, len(lengths))
	for p := range cells {
		cells[p] = make([][]int64, len(lengths))
		for c, length := range lengths {
			cells[p][c] = make([]int64, length)
		}
	}
	return &exchangeArena{cells: cells}
}

// row returns the buffers a producing step writes during the iterate phase
func (a *exchangeArena) row(producer int) [][]int64 {
	return a.cells[producer]
}

// column fills dst with the buffers addressed to consumer, one per producer
func (a *exchangeArena) column(consumer int, dst [][]int64) {
	for p := range a.cells {
		dst[p] = a.cells[p][consumer]
	}
}

func (a *exchangeArena) clear() {
	for _, row := range a.cells {
		for _, buf := range row {
			clear(buf)
		}
	}
}

type stepState int

const (
	stepIterating stepState = iota
	stepSynchronizing
)

func (s stepState) String() string {
	switch s {
	case stepIterating:
		return "iterate"
	case stepSynchronizing:
		return "synchronize"
	default:
		return fmt.Sprintf("stepState(%d)", int(s))
	}
}

// computeStep owns the ranks of one contiguous node range.
// Each run alternates between the iterate and synchronize phases.
type computeStep struct {
	rels    graph.RelationshipIterator
	degrees graph.Degrees
	index   partition.Index

	dampingFactor float64
	alpha         float64

	startNode int
	endNode   int
	pageRank  []float64

	outbound [][]int64 // [consuming step][local offset], written while iterating
	inbound  [][]int64 // [producing step][local offset], read while synchronizing

	contribution int64
	accept       graph.RelationshipConsumer

	delta float64
	state stepState
}

func newComputeStep(g graph.Graph, index partition.Index, p partition.Partition, nodeCount int, dampingFactor float64) *computeStep {
	ranks := make([]float64, p.NodeCount)
	for i := range ranks {
		ranks[i] = 1.0 / float64(nodeCount)
	}

	s := &computeStep{
		rels:          g,
		degrees:       g,
		index:         index,
		dampingFactor: dampingFactor,
		alpha:         1.0 - dampingFactor,
		startNode:     p.StartNode,
		endNode:       p.EndNode(),
		pageRank:      ranks,
		inbound:       make([][]int64, index.Len()),
		state:         stepIterating,
	}
	s.accept = func(_, targetID int, _ int64) bool {
		idx := s.index.Locate(targetID)
		s.outbound[idx][targetID-s.index.Start(idx)] += s.contribution
		return true
	}
	return s
}

// run executes the phase the step is currently in and advances its state
func (s *computeStep) run() error {
	switch s.state {
	case stepIterating:
		s.iterate()
		s.state = stepSynchronizing
		return nil
	case stepSynchronizing:
		s.synchronize()
		s.state = stepIterating
		return nil
	default:
		return fmt.Errorf("compute step [%d, %d) in unknown state %s", s.startNode, s.endNode, s.state)
	}
}

// iterate spreads every local rank over its outgoing relationships.
// Only this step's ranks are read and only its outbound row is written.
func (s *computeStep) iterate() {
	for nodeID := s.startNode; nodeID < s.endNode; nodeID++ {
		degree := s.degrees.Degree(nodeID, graph.Outgoing)
		if degree == 0 {
			continue
		}
		s.contribution = int64(ScoreScale * (s.pageRank[nodeID-s.startNode] / float64(degree)))
		if s.contribution == 0 {
			continue
		}
		s.rels.ForEachRelationship(nodeID, graph.Outgoing, s.accept)
	}
}

// synchronize folds the contributions addressed to this step into new
// ranks and zeroes the consumed buffers
func (s *computeStep) synchronize() {
	sums := s.inbound[0]
	for _, scores := range s.inbound[1:] {
		for j, score := range scores {
			sums[j] += score
			scores[j] = 0
		}
	}

	delta := 0.0
	for i, sum := range sums {
		next := s.alpha + s.dampingFactor*(float64(sum)/ScoreScale)
		delta = math.Max(delta, math.Abs(next-s.pageRank[i]))
		s.pageRank[i] = next
		sums[i] = 0
	}
	s.delta = delta
}

// computeSteps coordinates the steps and their shared exchange arena
type computeSteps struct {
	steps []*computeStep
	tasks []parallel.Task
	arena *exchangeArena
}

func newComputeSteps(g graph.Graph, parts []partition.Partition, dampingFactor float64) *computeSteps {
	index := partition.NewIndex(parts)
	lengths := make([]int, len(parts))
	for i, p := range parts {
		lengths[i] = p.NodeCount
	}

	cs := &computeSteps{
		steps: make([]*computeStep, len(parts)),
		tasks: make([]parallel.Task, len(parts)),
		arena: newExchangeArena(lengths),
	}
	for i, p := range parts {
		step := newComputeStep(g, index, p, g.NodeCount(), dampingFactor)
		step.outbound = cs.arena.row(i)
		cs.steps[i] = step
		cs.tasks[i] = step.run
	}
	return cs
}

// runIteration performs iterate, transpose and synchronize and returns the
// largest score change. Cancellation is only honoured during the iterate
// phase: a failed iterate discards every buffered contribution, and once it
// succeeds the iteration is always committed, so ranks never hold a
// partially folded iteration.
func (cs *computeSteps) runIteration(ctx context.Context, pool *parallel.WorkerPool, iteration int, logger logging.Logger, m *metrics.Registry) (float64, error) {
	if len(cs.steps) == 0 {
		return 0, nil
	}

	timer := logging.StartTimer(logger, "pagerank phase finished", logging.Iteration(iteration), logging.Phase(stepIterating.String()))
	if err := parallel.RunAll(ctx, pool, cs.tasks); err != nil {
		cs.abort()
		return 0, &AlgorithmError{Op: "PageRank.Compute", Phase: stepIterating.String(), Iteration: iteration, Cause: err}
	}
	cs.phaseDone(timer, stepIterating.String(), m)

	timer = logging.StartTimer(logger, "pagerank phase finished", logging.Iteration(iteration), logging.Phase("transpose"))
	cs.transpose()
	cs.phaseDone(timer, "transpose", m)

	timer = logging.StartTimer(logger, "pagerank phase finished", logging.Iteration(iteration), logging.Phase(stepSynchronizing.String()))
	if err := parallel.RunAll(context.Background(), pool, cs.tasks); err != nil {
		cs.abort()
		return 0, &AlgorithmError{Op: "PageRank.Compute", Phase: stepSynchronizing.String(), Iteration: iteration, Cause: err}
	}
	cs.phaseDone(timer, stepSynchronizing.String(), m)

	delta := 0.0
	for _, step := range cs.steps {
		delta = math.Max(delta, step.delta)
	}
	return delta, nil
}

func (cs *computeSteps) phaseDone(timer *logging.TimedOperation, phase string, m *metrics.Registry) {
	m.RecordPageRankPhase(phase, timer.Elapsed())
	timer.EndWithLevel(logging.DebugLevel, "pagerank phase finished")
}

// transpose hands every step the buffers addressed to it.
// concurrency^2 slice header assignments, no score data is copied.
func (cs *computeSteps) transpose() {
	for c, step := range cs.steps {
		cs.arena.column(c, step.inbound)
	}
}

// abort returns every step to the iterate phase and drops buffered scores
func (cs *computeSteps) abort() {
	cs.arena.clear()
	for _, step := range cs.steps {
		step.state = stepIterating
	}
}

// scores concatenates the step ranks in node id order
func (cs *computeSteps) scores() []float64 {
	total := 0
	for _, step := range cs.steps {
		total += len(step.pageRank)
	}
	ranks := make([]float64, total)
	for _, step := range cs.steps {
		copy(ranks[step.startNode:], step.pageRank)
	}
	return ranks
}
