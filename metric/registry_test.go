package metric

import (
	"testing"

	"github.com/prometheus/client_golang/prometheus"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestMetricsRegistry_DuplicateRejected(t *testing.T) {
	registry := NewMetricsRegistry()

	counter := prometheus.NewCounter(prometheus.CounterOpts{Name: "test_counter", Help: "test"})
	require.NoError(t, registry.RegisterCounter("svc", "test_counter", counter))

	other := prometheus.NewCounter(prometheus.CounterOpts{Name: "other_counter", Help: "test"})
	err := registry.RegisterCounter("svc", "test_counter", other)
	assert.Error(t, err)
	assert.Contains(t, err.Error(), "already registered")
}

func TestMetricsRegistry_Unregister(t *testing.T) {
	registry := NewMetricsRegistry()

	gauge := prometheus.NewGauge(prometheus.GaugeOpts{Name: "test_gauge", Help: "test"})
	require.NoError(t, registry.RegisterGauge("svc", "test_gauge", gauge))

	assert.True(t, registry.Unregister("svc", "test_gauge"))
	assert.False(t, registry.Unregister("svc", "test_gauge"))

	// Registration works again after unregister
	assert.NoError(t, registry.RegisterGauge("svc", "test_gauge", gauge))
}

func TestNewConversionMetrics(t *testing.T) {
	registry := NewMetricsRegistry()

	m, err := NewConversionMetrics(registry)
	require.NoError(t, err)
	require.NotNil(t, m)

	// Recording must not panic
	m.RecordResources("nodes", 5)
	m.RecordCommitted(3, 2)
	m.RecordBatchCommitted("nodes")
	m.RecordBatchRetry()
	m.RecordBatchFailed()
	m.RecordBuildDuration("relationships", 0.1)
	m.RecordCommitDuration("relationships", 0.2)

	// Double initialisation on the same registry collides
	_, err = NewConversionMetrics(registry)
	assert.Error(t, err)
}

func TestNewConversionMetrics_NilRegistry(t *testing.T) {
	m, err := NewConversionMetrics(nil)
	require.NoError(t, err)
	assert.Nil(t, m)

	// Nil receiver methods are safe
	m.RecordResources("nodes", 1)
	m.RecordCommitted(1, 1)
	m.RecordBatchCommitted("nodes")
	m.RecordBatchRetry()
	m.RecordBatchFailed()
	m.RecordBuildDuration("nodes", 0.1)
	m.RecordCommitDuration("nodes", 0.1)
}
