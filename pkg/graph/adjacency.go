package graph

import (
	"fmt"
	"iter"
)

// AdjacencyGraph is an immutable in-memory graph in compressed sparse row form.
// It is safe for concurrent readers.
type AdjacencyGraph struct {
	originalIDs []int64
	mappedIDs   map[int64]int

	// outOffsets[n]..outOffsets[n+1] indexes outTargets/outRelIDs for node n
	outOffsets []int
	outTargets []int
	outRelIDs  []int64

	inOffsets []int
	inSources []int
	inRelIDs  []int64

	weights []float64 // indexed by relationship id, nil when unweighted
}

type builderEdge struct {
	from, to int
	weight   float64
}

// Builder accumulates nodes and relationships for an AdjacencyGraph.
// Internal ids are assigned in first-seen order of the external ids.
type Builder struct {
	originalIDs []int64
	mappedIDs   map[int64]int
	edges       []builderEdge
	weighted    bool
}

// NewBuilder creates an empty graph builder
func NewBuilder() *Builder {
	return &Builder{
		mappedIDs: make(map[int64]int),
	}
}

// AddNode registers a node and returns its internal id.
// Adding a known node returns the existing id.
func (b *Builder) AddNode(originalID int64) int {
	if id, ok := b.mappedIDs[originalID]; ok {
		return id
	}
	id := len(b.originalIDs)
	b.originalIDs = append(b.originalIDs, originalID)
	b.mappedIDs[originalID] = id
	return id
}

// AddRelationship adds a directed relationship with weight 1
func (b *Builder) AddRelationship(from, to int64) {
	b.edges = append(b.edges, builderEdge{
		from:   b.AddNode(from),
		to:     b.AddNode(to),
		weight: 1.0,
	})
}

// AddWeightedRelationship adds a directed relationship with an explicit weight
func (b *Builder) AddWeightedRelationship(from, to int64, weight float64) {
	b.weighted = true
	b.edges = append(b.edges, builderEdge{
		from:   b.AddNode(from),
		to:     b.AddNode(to),
		weight: weight,
	})
}

// Build freezes the builder into an AdjacencyGraph.
// Relationship ids follow insertion order.
func (b *Builder) Build() *AdjacencyGraph {
	n := len(b.originalIDs)
	g := &AdjacencyGraph{
		originalIDs: append([]int64(nil), b.originalIDs...),
		mappedIDs:   make(map[int64]int, n),
		outOffsets:  make([]int, n+1),
		outTargets:  make([]int, len(b.edges)),
		outRelIDs:   make([]int64, len(b.edges)),
		inOffsets:   make([]int, n+1),
		inSources:   make([]int, len(b.edges)),
		inRelIDs:    make([]int64, len(b.edges)),
	}
	for k, v := range b.mappedIDs {
		g.mappedIDs[k] = v
	}

	for _, e := range b.edges {
		g.outOffsets[e.from+1]++
		g.inOffsets[e.to+1]++
	}
	for i := 0; i < n; i++ {
		g.outOffsets[i+1] += g.outOffsets[i]
		g.inOffsets[i+1] += g.inOffsets[i]
	}

	outPos := append([]int(nil), g.outOffsets[:n]...)
	inPos := append([]int(nil), g.inOffsets[:n]...)
	for relID, e := range b.edges {
		g.outTargets[outPos[e.from]] = e.to
		g.outRelIDs[outPos[e.from]] = int64(relID)
		outPos[e.from]++

		g.inSources[inPos[e.to]] = e.from
		g.inRelIDs[inPos[e.to]] = int64(relID)
		inPos[e.to]++
	}

	if b.weighted {
		g.weights = make([]float64, len(b.edges))
		for relID, e := range b.edges {
			g.weights[relID] = e.weight
		}
	}

	return g
}

// NodeCount returns the number of nodes
func (g *AdjacencyGraph) NodeCount() int {
	return len(g.originalIDs)
}

// RelationshipCount returns the number of relationships
func (g *AdjacencyGraph) RelationshipCount() int {
	return len(g.outTargets)
}

// ToOriginalNodeID returns the external id of an internal node id
func (g *AdjacencyGraph) ToOriginalNodeID(nodeID int) int64 {
	return g.originalIDs[nodeID]
}

// ToMappedNodeID returns the internal id of an external node id
func (g *AdjacencyGraph) ToMappedNodeID(originalID int64) (int, bool) {
	id, ok := g.mappedIDs[originalID]
	return id, ok
}

// Nodes yields all internal node ids in ascending order
func (g *AdjacencyGraph) Nodes() iter.Seq[int] {
	return func(yield func(int) bool) {
		for i := range g.originalIDs {
			if !yield(i) {
				return
			}
		}
	}
}

// Degree returns the number of relationships of a node in the given direction
func (g *AdjacencyGraph) Degree(nodeID int, direction Direction) int {
	out := g.outOffsets[nodeID+1] - g.outOffsets[nodeID]
	in := g.inOffsets[nodeID+1] - g.inOffsets[nodeID]
	switch direction {
	case Outgoing:
		return out
	case Incoming:
		return in
	default:
		return out + in
	}
}

// ForEachRelationship visits the relationships of nodeID in the given direction
func (g *AdjacencyGraph) ForEachRelationship(nodeID int, direction Direction, consumer RelationshipConsumer) {
	if direction == Outgoing || direction == Both {
		for i := g.outOffsets[nodeID]; i < g.outOffsets[nodeID+1]; i++ {
			if !consumer(nodeID, g.outTargets[i], g.outRelIDs[i]) {
				return
			}
		}
	}
	if direction == Incoming || direction == Both {
		for i := g.inOffsets[nodeID]; i < g.inOffsets[nodeID+1]; i++ {
			if !consumer(nodeID, g.inSources[i], g.inRelIDs[i]) {
				return
			}
		}
	}
}

// WeightOf returns the weight of a relationship, 1 for unweighted graphs
func (g *AdjacencyGraph) WeightOf(relationshipID int64) float64 {
	if g.weights == nil {
		return 1.0
	}
	return g.weights[relationshipID]
}

// Weighted reports whether the graph was built with explicit weights
func (g *AdjacencyGraph) Weighted() bool {
	return g.weights != nil
}

// String returns a short summary of the graph
func (g *AdjacencyGraph) String() string {
	return fmt.Sprintf("AdjacencyGraph{nodes: %d, relationships: %d}", g.NodeCount(), g.RelationshipCount())
}

var (
	_ Graph               = (*AdjacencyGraph)(nil)
	_ RelationshipWeights = (*AdjacencyGraph)(nil)
)
