// Package graph defines the read-only views the algorithms consume.
//
// Node ids handed to the algorithms are dense integers in [0, NodeCount()).
// Mapping them back to the ids of the backing store is the job of IDMapping.
package graph

import "iter"

// Direction selects which relationships of a node are visited
type Direction int

const (
	// Outgoing visits relationships that start at the node
	Outgoing Direction = iota
	// Incoming visits relationships that end at the node
	Incoming
	// Both visits outgoing relationships followed by incoming ones
	Both
)

// String returns the string representation of a direction
func (d Direction) String() string {
	switch d {
	case Outgoing:
		return "OUTGOING"
	case Incoming:
		return "INCOMING"
	case Both:
		return "BOTH"
	default:
		return "UNKNOWN"
	}
}

// IDMapping translates between internal and external node ids
type IDMapping interface {
	// NodeCount returns the number of nodes in the graph
	NodeCount() int
	// ToOriginalNodeID returns the external id of an internal node id
	ToOriginalNodeID(nodeID int) int64
	// ToMappedNodeID returns the internal id of an external node id
	ToMappedNodeID(originalID int64) (int, bool)
}

// NodeIterator yields every internal node id once per call, in ascending order
type NodeIterator interface {
	Nodes() iter.Seq[int]
}

// RelationshipConsumer receives one relationship of the visited node.
// nodeID is always the node being visited and neighborID the other end,
// regardless of direction. Returning false stops the iteration.
type RelationshipConsumer func(nodeID, neighborID int, relationshipID int64) bool

// RelationshipIterator visits the relationships of a single node
type RelationshipIterator interface {
	ForEachRelationship(nodeID int, direction Direction, consumer RelationshipConsumer)
}

// Degrees reports the number of relationships of a node
type Degrees interface {
	Degree(nodeID int, direction Direction) int
}

// RelationshipWeights is implemented by graphs that carry relationship weights
type RelationshipWeights interface {
	WeightOf(relationshipID int64) float64
}

// Graph is the full read-only view required by the algorithms
type Graph interface {
	IDMapping
	NodeIterator
	RelationshipIterator
	Degrees
}
