package converter

import (
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	pkgerrors "github.com/c360/relgraph/errors"
)

func TestParseOptions_Recognised(t *testing.T) {
	cfg, err := ParseOptions(map[string]any{
		"parallel":            false,
		"workers":             4,
		"batch_size":          100,
		"transaction_timeout": "45s",
		"retry_max":           7,
		"retry_backoff_ms":    250,
	})
	require.NoError(t, err)

	assert.False(t, cfg.Parallel)
	assert.Equal(t, 4, cfg.Workers)
	assert.Equal(t, 100, cfg.BatchSize)
	assert.Equal(t, 45*time.Second, cfg.TransactionTimeout)
	assert.Equal(t, 7, cfg.RetryMax)
	assert.Equal(t, 250*time.Millisecond, cfg.RetryBackoff)
}

func TestParseOptions_ProgressSink(t *testing.T) {
	called := false
	cfg, err := ParseOptions(map[string]any{
		"progress_sink": func(Phase, int, int) { called = true },
	})
	require.NoError(t, err)
	require.NotNil(t, cfg.ProgressSink)
	cfg.ProgressSink(PhaseNodes, 1, 2)
	assert.True(t, called)

	cfg, err = ParseOptions(map[string]any{"progress_sink": nil})
	require.NoError(t, err)
	assert.Nil(t, cfg.ProgressSink)
}

func TestParseOptions_UnknownOptionFailsFast(t *testing.T) {
	_, err := ParseOptions(map[string]any{"skip_nodes": true})
	require.Error(t, err)
	assert.ErrorIs(t, err, pkgerrors.ErrUnknownOption)
	assert.Contains(t, err.Error(), "skip_nodes")
}

func TestParseOptions_TypeMismatch(t *testing.T) {
	_, err := ParseOptions(map[string]any{"workers": "many"})
	require.Error(t, err)
	assert.ErrorIs(t, err, pkgerrors.ErrInvalidConfig)
}

func TestParseOptions_Bounds(t *testing.T) {
	_, err := ParseOptions(map[string]any{"workers": 0})
	assert.ErrorIs(t, err, pkgerrors.ErrInvalidConfig)

	_, err = ParseOptions(map[string]any{"batch_size": 0})
	assert.ErrorIs(t, err, pkgerrors.ErrInvalidConfig)

	_, err = ParseOptions(map[string]any{"retry_max": -1})
	assert.ErrorIs(t, err, pkgerrors.ErrInvalidConfig)
}

func TestDefaultConfigValid(t *testing.T) {
	assert.NoError(t, DefaultConfig().Validate())
}
