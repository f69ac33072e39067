package metrics

import (
	"github.com/prometheus/client_golang/prometheus"
	"github.com/prometheus/client_golang/prometheus/promauto"
)

func (r *Registry) initComputationMetrics() {
	r.ComputationsTotal = promauto.With(r.registry).NewCounterVec(
		prometheus.CounterOpts{
			Name: "graphalgo_computations_total",
			Help: "Total number of algorithm runs by outcome",
		},
		[]string{"algorithm", "status"},
	)

	r.ComputationDuration = promauto.With(r.registry).NewHistogramVec(
		prometheus.HistogramOpts{
			Name:    "graphalgo_computation_duration_seconds",
			Help:    "Algorithm run duration in seconds",
			Buckets: []float64{0.001, 0.01, 0.1, 0.5, 1.0, 5.0, 30.0, 120.0},
		},
		[]string{"algorithm"},
	)
}

func (r *Registry) initPageRankMetrics() {
	r.PageRankIterationsTotal = promauto.With(r.registry).NewCounter(
		prometheus.CounterOpts{
			Name: "graphalgo_pagerank_iterations_total",
			Help: "Total number of completed PageRank iterations",
		},
	)

	r.PageRankPhaseDuration = promauto.With(r.registry).NewHistogramVec(
		prometheus.HistogramOpts{
			Name:    "graphalgo_pagerank_phase_duration_seconds",
			Help:    "Duration of PageRank iterate, transpose and synchronize phases",
			Buckets: []float64{0.0001, 0.001, 0.01, 0.1, 1.0, 10.0},
		},
		[]string{"phase"},
	)

	r.PageRankPartitions = promauto.With(r.registry).NewGauge(
		prometheus.GaugeOpts{
			Name: "graphalgo_pagerank_partitions",
			Help: "Number of compute steps of the last PageRank setup",
		},
	)

	r.PageRankLoadBalance = promauto.With(r.registry).NewGauge(
		prometheus.GaugeOpts{
			Name: "graphalgo_pagerank_load_balance",
			Help: "Degree load balance of the last PageRank partitioning (1 = perfect)",
		},
	)
}

func (r *Registry) initMSBFSMetrics() {
	r.MSBFSWavesTotal = promauto.With(r.registry).NewCounter(
		prometheus.CounterOpts{
			Name: "graphalgo_msbfs_waves_total",
			Help: "Total number of completed multi-source BFS waves",
		},
	)

	r.MSBFSLevelsTotal = promauto.With(r.registry).NewCounter(
		prometheus.CounterOpts{
			Name: "graphalgo_msbfs_levels_total",
			Help: "Total number of BFS levels expanded across all waves",
		},
	)
}

func (r *Registry) initStreamMetrics() {
	r.StreamResultsTotal = promauto.With(r.registry).NewCounter(
		prometheus.CounterOpts{
			Name: "graphalgo_stream_results_total",
			Help: "Total number of shortest path results placed on result queues",
		},
	)

	r.StreamQueueDepth = promauto.With(r.registry).NewGauge(
		prometheus.GaugeOpts{
			Name: "graphalgo_stream_queue_depth",
			Help: "Results waiting in the most recently sampled result queue",
		},
	)

	r.StreamClosedEarlyTotal = promauto.With(r.registry).NewCounter(
		prometheus.CounterOpts{
			Name: "graphalgo_stream_closed_early_total",
			Help: "Total number of result streams closed before exhaustion",
		},
	)
}
