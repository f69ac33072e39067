package metrics

import (
	"github.com/prometheus/client_golang/prometheus"
	"github.com/prometheus/client_golang/prometheus/promauto"
)

func (r *Registry) initGraphMetrics() {
	r.GraphNodes = promauto.With(r.registry).NewGauge(
		prometheus.GaugeOpts{
			Name: "graphalgo_graph_nodes",
			Help: "Number of nodes in the last loaded graph",
		},
	)

	r.GraphRelationships = promauto.With(r.registry).NewGauge(
		prometheus.GaugeOpts{
			Name: "graphalgo_graph_relationships",
			Help: "Number of relationships in the last loaded graph",
		},
	)

	r.GraphLoadDuration = promauto.With(r.registry).NewHistogram(
		prometheus.HistogramOpts{
			Name:    "graphalgo_graph_load_duration_seconds",
			Help:    "Time spent parsing and compacting an edge list",
			Buckets: prometheus.ExponentialBuckets(0.001, 4, 8),
		},
	)

	r.GoRoutines = promauto.With(r.registry).NewGauge(
		prometheus.GaugeOpts{
			Name: "graphalgo_goroutines",
			Help: "Number of goroutines at the last runtime sample",
		},
	)

	r.HeapAllocBytes = promauto.With(r.registry).NewGauge(
		prometheus.GaugeOpts{
			Name: "graphalgo_heap_alloc_bytes",
			Help: "Bytes of allocated heap objects at the last runtime sample",
		},
	)
}
