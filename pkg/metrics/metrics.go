package metrics

import (
	"net/http"
	"runtime"
	"time"

	"github.com/prometheus/client_golang/prometheus/promhttp"
)

// RecordComputation records a finished algorithm run
func (r *Registry) RecordComputation(algorithm, status string, duration time.Duration) {
	if r == nil {
		return
	}
	r.ComputationsTotal.WithLabelValues(algorithm, status).Inc()
	r.ComputationDuration.WithLabelValues(algorithm).Observe(duration.Seconds())
}

// RecordPageRankPhase records the duration of one PageRank phase
func (r *Registry) RecordPageRankPhase(phase string, duration time.Duration) {
	if r == nil {
		return
	}
	r.PageRankPhaseDuration.WithLabelValues(phase).Observe(duration.Seconds())
}

// RecordPageRankIteration counts a completed PageRank iteration
func (r *Registry) RecordPageRankIteration() {
	if r == nil {
		return
	}
	r.PageRankIterationsTotal.Inc()
}

// SetPageRankPartitioning records the shape of a PageRank setup
func (r *Registry) SetPageRankPartitioning(partitions int, loadBalance float64) {
	if r == nil {
		return
	}
	r.PageRankPartitions.Set(float64(partitions))
	r.PageRankLoadBalance.Set(loadBalance)
}

// RecordMSBFSWave records a completed BFS wave and the levels it expanded
func (r *Registry) RecordMSBFSWave(levels int) {
	if r == nil {
		return
	}
	r.MSBFSWavesTotal.Inc()
	r.MSBFSLevelsTotal.Add(float64(levels))
}

// RecordStreamResult counts a result placed on a result queue and samples its depth
func (r *Registry) RecordStreamResult(queueDepth int) {
	if r == nil {
		return
	}
	r.StreamResultsTotal.Inc()
	r.StreamQueueDepth.Set(float64(queueDepth))
}

// RecordStreamClosedEarly counts a stream closed before it was exhausted
func (r *Registry) RecordStreamClosedEarly() {
	if r == nil {
		return
	}
	r.StreamClosedEarlyTotal.Inc()
}

// RecordGraphLoad records the shape of a loaded graph and how long loading took
func (r *Registry) RecordGraphLoad(nodes, relationships int, duration time.Duration) {
	if r == nil {
		return
	}
	r.GraphNodes.Set(float64(nodes))
	r.GraphRelationships.Set(float64(relationships))
	r.GraphLoadDuration.Observe(duration.Seconds())
}

// SampleRuntime records goroutine count and heap usage
func (r *Registry) SampleRuntime() {
	if r == nil {
		return
	}
	r.mu.Lock()
	defer r.mu.Unlock()

	var m runtime.MemStats
	runtime.ReadMemStats(&m)

	r.GoRoutines.Set(float64(runtime.NumGoroutine()))
	r.HeapAllocBytes.Set(float64(m.HeapAlloc))
}

// Handler returns an HTTP handler exposing the registry in Prometheus format
func (r *Registry) Handler() http.Handler {
	return promhttp.HandlerFor(r.registry, promhttp.HandlerOpts{})
}
