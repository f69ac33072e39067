package algorithms

import (
	"container/heap"

	"github.com/dd0wney/cluso-graphalgo/pkg/graph"
)

// RankedNode represents a node with its score in external id space
type RankedNode struct {
	NodeID int64
	Score  float64
}

// rankedNodeHeap implements a min-heap for RankedNode by score.
// Keeping at most k elements with the minimum at the root finds the top k
// in O(n log k).
type rankedNodeHeap []RankedNode

func (h rankedNodeHeap) Len() int           { return len(h) }
func (h rankedNodeHeap) Less(i, j int) bool { return rankedBelow(h[i], h[j]) }
func (h rankedNodeHeap) Swap(i, j int)      { h[i], h[j] = h[j], h[i] }

// rankedBelow orders by score, ties ranking the lower external id higher
func rankedBelow(a, b RankedNode) bool {
	if a.Score == b.Score {
		return a.NodeID > b.NodeID
	}
	return a.Score < b.Score
}

func (h *rankedNodeHeap) Push(x any) {
	*h = append(*h, x.(RankedNode))
}

func (h *rankedNodeHeap) Pop() any {
	old := *h
	n := len(old)
	x := old[n-1]
	*h = old[0 : n-1]
	return x
}

// topNodes returns the n highest scores in descending order.
// scores is indexed by internal node id.
func topNodes(ids graph.IDMapping, scores []float64, n int) []RankedNode {
	if n <= 0 || len(scores) == 0 {
		return nil
	}

	h := make(rankedNodeHeap, 0, min(n, len(scores)))
	for nodeID, score := range scores {
		rn := RankedNode{
			NodeID: ids.ToOriginalNodeID(nodeID),
			Score:  score,
		}

		if h.Len() < n {
			heap.Push(&h, rn)
		} else if rankedBelow(h[0], rn) {
			heap.Pop(&h)
			heap.Push(&h, rn)
		}
	}

	result := make([]RankedNode, h.Len())
	for i := h.Len() - 1; i >= 0; i-- {
		result[i] = heap.Pop(&h).(RankedNode)
	}
	return result
}
