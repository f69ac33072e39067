package metrics

import (
	"sync"

	"github.com/prometheus/client_golang/prometheus"
)

// Registry holds all metrics for the application.
// A nil *Registry is valid and records nothing.
type Registry struct {
	// Computation Metrics
	ComputationsTotal   *prometheus.CounterVec
	ComputationDuration *prometheus.HistogramVec

	// PageRank Metrics
	PageRankIterationsTotal prometheus.Counter
	PageRankPhaseDuration   *prometheus.HistogramVec
	PageRankPartitions      prometheus.Gauge
	PageRankLoadBalance     prometheus.Gauge

	// Multi-source BFS Metrics
	MSBFSWavesTotal  prometheus.Counter
	MSBFSLevelsTotal prometheus.Counter

	// Result Stream Metrics
	StreamResultsTotal     prometheus.Counter
	StreamQueueDepth       prometheus.Gauge
	StreamClosedEarlyTotal prometheus.Counter

	// Graph and runtime Metrics
	GraphNodes         prometheus.Gauge
	GraphRelationships prometheus.Gauge
	GraphLoadDuration  prometheus.Histogram
	GoRoutines         prometheus.Gauge
	HeapAllocBytes     prometheus.Gauge

	registry *prometheus.Registry
	mu       sync.RWMutex
}

var (
	// Global registry instance
	defaultRegistry *Registry
	once            sync.Once
)

// DefaultRegistry returns the global metrics registry
func DefaultRegistry() *Registry {
	once.Do(func() {
		defaultRegistry = NewRegistry()
	})
	return defaultRegistry
}

// NewRegistry creates a new metrics registry with all metrics initialized
func NewRegistry() *Registry {
	reg := prometheus.NewRegistry()

	r := &Registry{
		registry: reg,
	}

	r.initComputationMetrics()
	r.initPageRankMetrics()
	r.initMSBFSMetrics()
	r.initStreamMetrics()
	r.initGraphMetrics()

	return r
}

// GetPrometheusRegistry returns the underlying Prometheus registry
func (r *Registry) GetPrometheusRegistry() *prometheus.Registry {
	return r.registry
}
