package algorithms

import (
	"context"
	"math/rand"
	"testing"

	"github.com/prometheus/client_golang/prometheus"
	dto "github.com/prometheus/client_model/go"

	"github.com/dd0wney/cluso-graphalgo/pkg/graph"
)

// buildGraph creates nodes 0..nodeCount-1 with external ids equal to
// their internal ids, then adds the given relationships
func buildGraph(t *testing.T, nodeCount int, edges [][2]int64) *graph.AdjacencyGraph {
	t.Helper()

	b := graph.NewBuilder()
	for i := range nodeCount {
		b.AddNode(int64(i))
	}
	for _, e := range edges {
		b.AddRelationship(e[0], e[1])
	}
	return b.Build()
}

// cycleGraph creates 0 -> 1 -> ... -> n-1 -> 0
func cycleGraph(t *testing.T, n int) *graph.AdjacencyGraph {
	t.Helper()

	edges := make([][2]int64, n)
	for i := range n {
		edges[i] = [2]int64{int64(i), int64((i + 1) % n)}
	}
	return buildGraph(t, n, edges)
}

// pathGraph creates 0 -> 1 -> ... -> n-1
func pathGraph(t *testing.T, n int) *graph.AdjacencyGraph {
	t.Helper()

	edges := make([][2]int64, 0, n)
	for i := 1; i < n; i++ {
		edges = append(edges, [2]int64{int64(i - 1), int64(i)})
	}
	return buildGraph(t, n, edges)
}

// randomGraph creates a directed graph where every ordered pair is
// connected with probability p
func randomGraph(t *testing.T, rng *rand.Rand, n int, p float64) *graph.AdjacencyGraph {
	t.Helper()

	var edges [][2]int64
	for from := range n {
		for to := range n {
			if from != to && rng.Float64() < p {
				edges = append(edges, [2]int64{int64(from), int64(to)})
			}
		}
	}
	return buildGraph(t, n, edges)
}

// bfsDistances is a plain single-source BFS used as a reference.
// Unreachable nodes are -1.
func bfsDistances(g graph.Graph, source int, direction graph.Direction) []int {
	dist := make([]int, g.NodeCount())
	for i := range dist {
		dist[i] = -1
	}
	dist[source] = 0

	queue := []int{source}
	for len(queue) > 0 {
		v := queue[0]
		queue = queue[1:]
		g.ForEachRelationship(v, direction, func(_, w int, _ int64) bool {
			if dist[w] < 0 {
				dist[w] = dist[v] + 1
				queue = append(queue, w)
			}
			return true
		})
	}
	return dist
}

// faultyGraph panics when the relationships of faultNode are read
type faultyGraph struct {
	*graph.AdjacencyGraph
	faultNode int
}

func (g *faultyGraph) ForEachRelationship(nodeID int, direction graph.Direction, consumer graph.RelationshipConsumer) {
	if nodeID == g.faultNode {
		panic("relationship store unavailable")
	}
	g.AdjacencyGraph.ForEachRelationship(nodeID, direction, consumer)
}

// cancellingGraph cancels a context when the relationships of cancelNode
// are read, simulating a cancellation that lands mid-phase
type cancellingGraph struct {
	*graph.AdjacencyGraph
	cancelNode int
	cancel     context.CancelFunc
}

func (g *cancellingGraph) ForEachRelationship(nodeID int, direction graph.Direction, consumer graph.RelationshipConsumer) {
	if nodeID == g.cancelNode {
		g.cancel()
	}
	g.AdjacencyGraph.ForEachRelationship(nodeID, direction, consumer)
}

func counterValue(t *testing.T, c prometheus.Counter) float64 {
	t.Helper()
	var metric dto.Metric
	if err := c.Write(&metric); err != nil {
		t.Fatalf("Failed to write metric: %v", err)
	}
	return metric.Counter.GetValue()
}
