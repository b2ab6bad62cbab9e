package metric

import (
	"github.com/prometheus/client_golang/prometheus"
)

// ConversionMetrics holds the core metrics recorded during a conversion run.
// All methods are nil-safe so callers can run without a registry.
type ConversionMetrics struct {
	resourcesProcessed *prometheus.CounterVec
	nodesCommitted     prometheus.Counter
	relsCommitted      prometheus.Counter
	batchesCommitted   *prometheus.CounterVec
	batchRetries       prometheus.Counter
	batchesFailed      prometheus.Counter
	batchBuildTime     *prometheus.HistogramVec
	batchCommitTime    *prometheus.HistogramVec
}

// NewConversionMetrics creates and registers the conversion metrics.
// Returns nil if registry is nil (metrics disabled).
func NewConversionMetrics(registry *MetricsRegistry) (*ConversionMetrics, error) {
	if registry == nil {
		return nil, nil
	}

	m := &ConversionMetrics{
		resourcesProcessed: prometheus.NewCounterVec(prometheus.CounterOpts{
			Name: "relgraph_resources_processed_total",
			Help: "Resources processed, labelled by phase",
		}, []string{"phase"}),
		nodesCommitted: prometheus.NewCounter(prometheus.CounterOpts{
			Name: "relgraph_nodes_committed_total",
			Help: "Nodes committed to the graph",
		}),
		relsCommitted: prometheus.NewCounter(prometheus.CounterOpts{
			Name: "relgraph_relationships_committed_total",
			Help: "Relationships committed to the graph",
		}),
		batchesCommitted: prometheus.NewCounterVec(prometheus.CounterOpts{
			Name: "relgraph_batches_committed_total",
			Help: "Batches committed, labelled by phase",
		}, []string{"phase"}),
		batchRetries: prometheus.NewCounter(prometheus.CounterOpts{
			Name: "relgraph_batch_retries_total",
			Help: "Transient batch commit retries",
		}),
		batchesFailed: prometheus.NewCounter(prometheus.CounterOpts{
			Name: "relgraph_batches_failed_total",
			Help: "Batches that failed after retry exhaustion",
		}),
		batchBuildTime: prometheus.NewHistogramVec(prometheus.HistogramOpts{
			Name:    "relgraph_batch_build_duration_seconds",
			Help:    "Time spent evaluating factory plans for one batch",
			Buckets: []float64{0.01, 0.05, 0.1, 0.5, 1.0, 5.0, 30.0},
		}, []string{"phase"}),
		batchCommitTime: prometheus.NewHistogramVec(prometheus.HistogramOpts{
			Name:    "relgraph_batch_commit_duration_seconds",
			Help:    "Time spent committing one batch transaction",
			Buckets: []float64{0.01, 0.05, 0.1, 0.5, 1.0, 5.0, 30.0},
		}, []string{"phase"}),
	}

	const service = "converter"
	registrations := []struct {
		name string
		err  error
	}{
		{"resources_processed", registry.RegisterCounterVec(service, "resources_processed", m.resourcesProcessed)},
		{"nodes_committed", registry.RegisterCounter(service, "nodes_committed", m.nodesCommitted)},
		{"relationships_committed", registry.RegisterCounter(service, "relationships_committed", m.relsCommitted)},
		{"batches_committed", registry.RegisterCounterVec(service, "batches_committed", m.batchesCommitted)},
		{"batch_retries", registry.RegisterCounter(service, "batch_retries", m.batchRetries)},
		{"batches_failed", registry.RegisterCounter(service, "batches_failed", m.batchesFailed)},
		{"batch_build_duration", registry.RegisterHistogramVec(service, "batch_build_duration", m.batchBuildTime)},
		{"batch_commit_duration", registry.RegisterHistogramVec(service, "batch_commit_duration", m.batchCommitTime)},
	}
	for _, reg := range registrations {
		if reg.err != nil {
			return nil, reg.err
		}
	}

	return m, nil
}

// RecordResources adds to the processed-resource counter for a phase
func (m *ConversionMetrics) RecordResources(phase string, count int) {
	if m == nil {
		return
	}
	m.resourcesProcessed.WithLabelValues(phase).Add(float64(count))
}

// RecordCommitted adds committed node and relationship counts
func (m *ConversionMetrics) RecordCommitted(nodes, relationships int) {
	if m == nil {
		return
	}
	m.nodesCommitted.Add(float64(nodes))
	m.relsCommitted.Add(float64(relationships))
}

// RecordBatchCommitted increments the committed-batch counter for a phase
func (m *ConversionMetrics) RecordBatchCommitted(phase string) {
	if m == nil {
		return
	}
	m.batchesCommitted.WithLabelValues(phase).Inc()
}

// RecordBatchRetry increments the transient retry counter
func (m *ConversionMetrics) RecordBatchRetry() {
	if m == nil {
		return
	}
	m.batchRetries.Inc()
}

// RecordBatchFailed increments the failed-batch counter
func (m *ConversionMetrics) RecordBatchFailed() {
	if m == nil {
		return
	}
	m.batchesFailed.Inc()
}

// RecordBuildDuration observes the plan-evaluation time for one batch
func (m *ConversionMetrics) RecordBuildDuration(phase string, seconds float64) {
	if m == nil {
		return
	}
	m.batchBuildTime.WithLabelValues(phase).Observe(seconds)
}

// RecordCommitDuration observes the transaction time for one batch
func (m *ConversionMetrics) RecordCommitDuration(phase string, seconds float64) {
	if m == nil {
		return
	}
	m.batchCommitTime.WithLabelValues(phase).Observe(seconds)
}
