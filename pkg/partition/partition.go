// Package partition splits the dense node id space into contiguous,
// degree-balanced ranges that parallel compute steps can own exclusively.
package partition

import (
	"fmt"
	"iter"
	"math"
	"slices"

	"gonum.org/v1/gonum/stat"

	"github.com/dd0wney/cluso-graphalgo/pkg/graph"
)

const (
	// DefaultBatchSize is the default number of nodes per partition before degree adjustment
	DefaultBatchSize = 10_000

	// AverageDegree is the assumed average out-degree used to turn a node batch
	// size into a relationship batch size
	AverageDegree = 8
)

// Partition is a contiguous range of node ids
type Partition struct {
	StartNode int
	NodeCount int
	Degree    int64 // accumulated out-degree of the range
}

// EndNode returns the exclusive end of the range
func (p Partition) EndNode() int {
	return p.StartNode + p.NodeCount
}

// String returns a short description of the range
func (p Partition) String() string {
	return fmt.Sprintf("[%d, %d) degree=%d", p.StartNode, p.EndNode(), p.Degree)
}

// AdjustBatchSize scales a node batch size by AverageDegree so partitions
// end up balanced by relationship count. Non-positive or overflowing
// results disable the limit.
func AdjustBatchSize(batchSize int) int {
	if batchSize <= 0 || batchSize > math.MaxInt/AverageDegree {
		return math.MaxInt
	}
	return batchSize * AverageDegree
}

// ByDegree cuts the node sequence into partitions whose accumulated
// out-degree stays within batchSize. A node whose own degree exceeds
// batchSize gets a partition of its own. nodes must yield 0..nodeCount-1
// in order.
func ByDegree(nodeCount int, nodes iter.Seq[int], degrees graph.Degrees, batchSize int) []Partition {
	if nodeCount == 0 {
		return nil
	}
	if batchSize <= 0 {
		return Single(nodeCount, degrees)
	}

	partitions := make([]Partition, 0)
	current := Partition{}
	for nodeID := range nodes {
		degree := int64(degrees.Degree(nodeID, graph.Outgoing))
		if current.NodeCount > 0 && current.Degree+degree > int64(batchSize) {
			partitions = append(partitions, current)
			current = Partition{StartNode: current.EndNode()}
		}
		current.NodeCount++
		current.Degree += degree
	}
	if current.NodeCount > 0 {
		partitions = append(partitions, current)
	}
	return partitions
}

// Single returns one partition covering every node
func Single(nodeCount int, degrees graph.Degrees) []Partition {
	if nodeCount == 0 {
		return nil
	}
	p := Partition{NodeCount: nodeCount}
	for nodeID := 0; nodeID < nodeCount; nodeID++ {
		p.Degree += int64(degrees.Degree(nodeID, graph.Outgoing))
	}
	return []Partition{p}
}

// Merge groups consecutive partitions into at most concurrency partitions.
// Each group takes ceil(len/concurrency) partitions and the last group
// takes whatever remains. A non-positive concurrency keeps the input.
func Merge(partitions []Partition, concurrency int) []Partition {
	if concurrency <= 0 || len(partitions) <= concurrency {
		return slices.Clone(partitions)
	}

	perGroup := (len(partitions) + concurrency - 1) / concurrency
	merged := make([]Partition, 0, concurrency)
	for i := 0; i < len(partitions); i += perGroup {
		end := min(i+perGroup, len(partitions))
		group := Partition{StartNode: partitions[i].StartNode}
		for _, p := range partitions[i:end] {
			group.NodeCount += p.NodeCount
			group.Degree += p.Degree
		}
		merged = append(merged, group)
	}
	return merged
}

// Validate checks that partitions are disjoint, non-empty and cover [0, nodeCount)
func Validate(partitions []Partition, nodeCount int) error {
	next := 0
	for i, p := range partitions {
		if p.StartNode != next {
			return fmt.Errorf("partition %d starts at %d, expected %d", i, p.StartNode, next)
		}
		if p.NodeCount <= 0 {
			return fmt.Errorf("partition %d is empty", i)
		}
		next = p.EndNode()
	}
	if next != nodeCount {
		return fmt.Errorf("partitions cover [0, %d), expected [0, %d)", next, nodeCount)
	}
	return nil
}

// Index routes node ids to the partition that owns them
type Index struct {
	starts []int
}

// NewIndex builds a routing index over ordered partitions
func NewIndex(partitions []Partition) Index {
	starts := make([]int, len(partitions))
	for i, p := range partitions {
		starts[i] = p.StartNode
	}
	return Index{starts: starts}
}

// Locate returns the index i of the partition with starts[i] <= nodeID < starts[i+1]
func (ix Index) Locate(nodeID int) int {
	i, found := slices.BinarySearch(ix.starts, nodeID)
	if found {
		return i
	}
	return i - 1
}

// Start returns the first node id of partition i
func (ix Index) Start(i int) int {
	return ix.starts[i]
}

// Len returns the number of partitions
func (ix Index) Len() int {
	return len(ix.starts)
}

// Metrics describes partitioning quality
type Metrics struct {
	PartitionSizes   []int   // Nodes per partition
	PartitionDegrees []int64 // Relationships per partition
	LoadBalance      float64 // 0-1 (1 = every partition carries the same degree)
}

// Stats computes partition quality metrics
func Stats(partitions []Partition) Metrics {
	m := Metrics{
		PartitionSizes:   make([]int, len(partitions)),
		PartitionDegrees: make([]int64, len(partitions)),
		LoadBalance:      1.0,
	}
	if len(partitions) == 0 {
		return m
	}

	degrees := make([]float64, len(partitions))
	for i, p := range partitions {
		m.PartitionSizes[i] = p.NodeCount
		m.PartitionDegrees[i] = p.Degree
		degrees[i] = float64(p.Degree)
	}

	avg, variance := stat.PopMeanVariance(degrees, nil)
	if avg == 0 {
		return m
	}
	m.LoadBalance = 1.0 / (1.0 + variance/(avg*avg))
	return m
}
