package algorithms

import (
	"context"
	"errors"
	"math"
	"math/rand"
	"testing"

	"github.com/dd0wney/cluso-graphalgo/pkg/graph"
)

func closeTo(a, b float64) bool {
	return math.Abs(a-b) < 1e-9
}

// TestClosenessCentrality_Path tests closeness on the undirected path 0-1-2
func TestClosenessCentrality_Path(t *testing.T) {
	g := pathGraph(t, 3)

	result, err := ClosenessCentrality(context.Background(), g, DefaultClosenessOptions())
	if err != nil {
		t.Fatalf("ClosenessCentrality failed: %v", err)
	}

	wantFarness := []int64{3, 2, 3}
	wantCloseness := []float64{2.0 / 3.0, 1.0, 2.0 / 3.0}
	wantHarmonic := []float64{0.75, 1.0, 0.75}
	for v := range 3 {
		if result.Farness[v] != wantFarness[v] {
			t.Errorf("Node %d: expected farness %d, got %d", v, wantFarness[v], result.Farness[v])
		}
		if result.ComponentSize[v] != 2 {
			t.Errorf("Node %d: expected component size 2, got %d", v, result.ComponentSize[v])
		}
		if !closeTo(result.Closeness[v], wantCloseness[v]) {
			t.Errorf("Node %d: expected closeness %f, got %f", v, wantCloseness[v], result.Closeness[v])
		}
		if !closeTo(result.Harmonic[v], wantHarmonic[v]) {
			t.Errorf("Node %d: expected harmonic %f, got %f", v, wantHarmonic[v], result.Harmonic[v])
		}
	}

	top := result.TopNodes(1)
	if len(top) != 1 || top[0].NodeID != 1 {
		t.Errorf("Expected middle node first, got %v", top)
	}
}

// TestClosenessCentrality_Outgoing checks directed closeness
func TestClosenessCentrality_Outgoing(t *testing.T) {
	g := pathGraph(t, 3)

	opts := DefaultClosenessOptions()
	opts.Direction = graph.Outgoing
	result, err := ClosenessCentrality(context.Background(), g, opts)
	if err != nil {
		t.Fatalf("ClosenessCentrality failed: %v", err)
	}

	if !closeTo(result.Closeness[0], 2.0/3.0) {
		t.Errorf("Expected closeness 2/3 for the head, got %f", result.Closeness[0])
	}
	if result.Closeness[2] != 0 || result.ComponentSize[2] != 0 {
		t.Errorf("Expected the tail to reach nothing, got closeness %f", result.Closeness[2])
	}
}

// TestClosenessCentrality_WassermanFaust checks normalization on a disconnected graph
func TestClosenessCentrality_WassermanFaust(t *testing.T) {
	g := buildGraph(t, 3, [][2]int64{{0, 1}})

	opts := DefaultClosenessOptions()
	opts.WassermanFaust = true
	result, err := ClosenessCentrality(context.Background(), g, opts)
	if err != nil {
		t.Fatalf("ClosenessCentrality failed: %v", err)
	}

	want := []float64{0.5, 0.5, 0}
	for v, w := range want {
		if !closeTo(result.Closeness[v], w) {
			t.Errorf("Node %d: expected closeness %f, got %f", v, w, result.Closeness[v])
		}
	}
}

// TestClosenessCentrality_MatchesBFS compares a random graph with per-node BFS
func TestClosenessCentrality_MatchesBFS(t *testing.T) {
	rng := rand.New(rand.NewSource(5))
	g := randomGraph(t, rng, 120, 0.02)

	opts := DefaultClosenessOptions()
	opts.Direction = graph.Outgoing
	result, err := ClosenessCentrality(context.Background(), g, opts)
	if err != nil {
		t.Fatalf("ClosenessCentrality failed: %v", err)
	}

	for v := range g.NodeCount() {
		total, reachable := 0, 0
		for _, d := range bfsDistances(g, v, graph.Outgoing) {
			if d > 0 {
				total += d
				reachable++
			}
		}

		want := 0.0
		if total > 0 {
			want = float64(reachable) / float64(total)
		}
		if !closeTo(result.Closeness[v], want) {
			t.Errorf("Node %d: expected closeness %f, got %f", v, want, result.Closeness[v])
		}
	}
}

// TestClosenessCentrality_Errors checks validation and cancellation
func TestClosenessCentrality_Errors(t *testing.T) {
	g := pathGraph(t, 3)

	opts := DefaultClosenessOptions()
	opts.Direction = graph.Direction(9)
	if _, err := ClosenessCentrality(context.Background(), g, opts); !errors.Is(err, ErrUnsupportedDirection) {
		t.Errorf("Expected ErrUnsupportedDirection, got %v", err)
	}

	ctx, cancel := context.WithCancel(context.Background())
	cancel()
	if _, err := ClosenessCentrality(ctx, g, DefaultClosenessOptions()); !errors.Is(err, context.Canceled) {
		t.Errorf("Expected context.Canceled, got %v", err)
	}
}
