package converter

import (
	"fmt"
	"runtime"
	"time"

	"github.com/c360/relgraph/errors"
)

// Phase identifies one of the two passes over the resource iterator
type Phase string

const (
	// PhaseNodes is the first pass, committing nodes only
	PhaseNodes Phase = "nodes"
	// PhaseRelationships is the second pass, committing relationships only
	PhaseRelationships Phase = "relationships"
)

// ProgressFunc receives progress updates after each committed batch. total
// is -1 when the iterator length is unknown.
type ProgressFunc func(phase Phase, processed, total int)

// Config holds the recognised engine options
type Config struct {
	// Parallel enables the worker pool. Disabling it forces one worker and
	// single-resource batches, preserving iterator order in the graph.
	Parallel bool
	// Workers is the worker pool size
	Workers int
	// BatchSize is the number of resources per commit batch
	BatchSize int
	// TransactionTimeout bounds each graph transaction
	TransactionTimeout time.Duration
	// RetryMax is the number of additional attempts after transient
	// transaction failures
	RetryMax int
	// RetryBackoff is the initial delay between attempts
	RetryBackoff time.Duration
	// ProgressSink receives progress updates, nil to disable
	ProgressSink ProgressFunc
}

// DefaultConfig returns the default engine configuration
func DefaultConfig() Config {
	workers := runtime.NumCPU() - 2
	if workers < 1 {
		workers = 1
	}
	return Config{
		Parallel:           true,
		Workers:            workers,
		BatchSize:          5000,
		TransactionTimeout: 30 * time.Second,
		RetryMax:           3,
		RetryBackoff:       500 * time.Millisecond,
	}
}

// Validate checks option bounds
func (c Config) Validate() error {
	if c.Workers < 1 {
		return fmt.Errorf("%w: workers must be >= 1, got %d", errors.ErrInvalidConfig, c.Workers)
	}
	if c.BatchSize < 1 {
		return fmt.Errorf("%w: batch_size must be >= 1, got %d", errors.ErrInvalidConfig, c.BatchSize)
	}
	if c.RetryMax < 0 {
		return fmt.Errorf("%w: retry_max must be >= 0, got %d", errors.ErrInvalidConfig, c.RetryMax)
	}
	if c.RetryBackoff < 0 {
		return fmt.Errorf("%w: retry_backoff_ms must be >= 0, got %v", errors.ErrInvalidConfig, c.RetryBackoff)
	}
	return nil
}

// ParseOptions builds a Config from a loosely typed option map. Unrecognised
// option names fail fast.
func ParseOptions(options map[string]any) (Config, error) {
	cfg := DefaultConfig()
	for name, value := range options {
		var err error
		switch name {
		case "parallel":
			err = assign(&cfg.Parallel, value)
		case "workers":
			err = assignInt(&cfg.Workers, value)
		case "batch_size":
			err = assignInt(&cfg.BatchSize, value)
		case "transaction_timeout":
			err = assignDuration(&cfg.TransactionTimeout, value)
		case "retry_max":
			err = assignInt(&cfg.RetryMax, value)
		case "retry_backoff_ms":
			var ms int
			if err = assignInt(&ms, value); err == nil {
				cfg.RetryBackoff = time.Duration(ms) * time.Millisecond
			}
		case "progress_sink":
			switch v := value.(type) {
			case nil:
				cfg.ProgressSink = nil
			case ProgressFunc:
				cfg.ProgressSink = v
			case func(Phase, int, int):
				cfg.ProgressSink = v
			default:
				err = fmt.Errorf("expected callable, got %T", value)
			}
		default:
			return Config{}, fmt.Errorf("%w: %q", errors.ErrUnknownOption, name)
		}
		if err != nil {
			return Config{}, fmt.Errorf("%w: option %q: %v", errors.ErrInvalidConfig, name, err)
		}
	}
	if err := cfg.Validate(); err != nil {
		return Config{}, err
	}
	return cfg, nil
}

func assign[T any](dst *T, value any) error {
	typed, ok := value.(T)
	if !ok {
		return fmt.Errorf("expected %T, got %T", *dst, value)
	}
	*dst = typed
	return nil
}

func assignInt(dst *int, value any) error {
	switch v := value.(type) {
	case int:
		*dst = v
	case int64:
		*dst = int(v)
	case float64:
		if v != float64(int(v)) {
			return fmt.Errorf("expected integer, got %v", v)
		}
		*dst = int(v)
	default:
		return fmt.Errorf("expected integer, got %T", value)
	}
	return nil
}

func assignDuration(dst *time.Duration, value any) error {
	switch v := value.(type) {
	case time.Duration:
		*dst = v
	case string:
		parsed, err := time.ParseDuration(v)
		if err != nil {
			return err
		}
		*dst = parsed
	case int:
		*dst = time.Duration(v) * time.Second
	default:
		return fmt.Errorf("expected duration, got %T", value)
	}
	return nil
}
