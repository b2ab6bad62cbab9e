package errors

import (
	"context"
	"errors"
	"fmt"
	"strings"
	"testing"
	"time"
)

func TestErrorClass_String(t *testing.T) {
	tests := []struct {
		class    ErrorClass
		expected string
	}{
		{ErrorTransient, "transient"},
		{ErrorInvalid, "invalid"},
		{ErrorFatal, "fatal"},
		{ErrorClass(999), "unknown"},
	}

	for _, test := range tests {
		t.Run(test.expected, func(t *testing.T) {
			result := test.class.String()
			if result != test.expected {
				t.Errorf("expected %s, got %s", test.expected, result)
			}
		})
	}
}

func TestIsTransient(t *testing.T) {
	tests := []struct {
		name     string
		err      error
		expected bool
	}{
		{"nil error", nil, false},
		{"graph unavailable", ErrGraphUnavailable, true},
		{"graph timeout", ErrGraphTimeout, true},
		{"context deadline exceeded", context.DeadlineExceeded, true},
		{"schema parse", ErrSchemaParse, false},
		{"conversion failed", ErrConversionFailed, false},
		{"timeout in message", fmt.Errorf("operation timeout occurred"), true},
		{"deadlock in message", fmt.Errorf("transient deadlock detected"), true},
		{"classified transient", &ClassifiedError{Class: ErrorTransient, Err: fmt.Errorf("test")}, true},
		{"classified fatal", &ClassifiedError{Class: ErrorFatal, Err: fmt.Errorf("test")}, false},
	}

	for _, test := range tests {
		t.Run(test.name, func(t *testing.T) {
			result := IsTransient(test.err)
			if result != test.expected {
				t.Errorf("expected %v, got %v for error: %v", test.expected, result, test.err)
			}
		})
	}
}

func TestIsInvalid(t *testing.T) {
	tests := []struct {
		name     string
		err      error
		expected bool
	}{
		{"nil error", nil, false},
		{"schema parse", ErrSchemaParse, true},
		{"schema semantic", ErrSchemaSemantic, true},
		{"unknown symbol", ErrUnknownSymbol, true},
		{"unknown option", ErrUnknownOption, true},
		{"graph timeout", ErrGraphTimeout, false},
		{"classified invalid", &ClassifiedError{Class: ErrorInvalid, Err: fmt.Errorf("test")}, true},
	}

	for _, test := range tests {
		t.Run(test.name, func(t *testing.T) {
			result := IsInvalid(test.err)
			if result != test.expected {
				t.Errorf("expected %v, got %v for error: %v", test.expected, result, test.err)
			}
		})
	}
}

func TestIsFatal(t *testing.T) {
	tests := []struct {
		name     string
		err      error
		expected bool
	}{
		{"nil error", nil, false},
		{"conversion failed", ErrConversionFailed, true},
		{"resource access", ErrResourceAccess, true},
		{"invalid config", ErrInvalidConfig, true},
		{"graph timeout", ErrGraphTimeout, false},
		{"classified fatal", &ClassifiedError{Class: ErrorFatal, Err: fmt.Errorf("test")}, true},
	}

	for _, test := range tests {
		t.Run(test.name, func(t *testing.T) {
			result := IsFatal(test.err)
			if result != test.expected {
				t.Errorf("expected %v, got %v for error: %v", test.expected, result, test.err)
			}
		})
	}
}

func TestClassify(t *testing.T) {
	tests := []struct {
		name     string
		err      error
		expected ErrorClass
	}{
		{"nil defaults to transient", nil, ErrorTransient},
		{"schema parse is invalid", ErrSchemaParse, ErrorInvalid},
		{"conversion failed is fatal", ErrConversionFailed, ErrorFatal},
		{"graph timeout is transient", ErrGraphTimeout, ErrorTransient},
		{"unknown defaults to transient", fmt.Errorf("mystery"), ErrorTransient},
	}

	for _, test := range tests {
		t.Run(test.name, func(t *testing.T) {
			if got := Classify(test.err); got != test.expected {
				t.Errorf("expected %v, got %v", test.expected, got)
			}
		})
	}
}

func TestWrap(t *testing.T) {
	base := errors.New("boom")
	err := Wrap(base, "writer", "Commit", "merge nodes")
	if err == nil {
		t.Fatal("expected error")
	}
	if !strings.Contains(err.Error(), "writer.Commit: merge nodes failed") {
		t.Errorf("unexpected message: %s", err.Error())
	}
	if !errors.Is(err, base) {
		t.Error("wrapped error should unwrap to base")
	}
	if Wrap(nil, "writer", "Commit", "merge nodes") != nil {
		t.Error("wrapping nil should return nil")
	}
}

func TestWrapClassified(t *testing.T) {
	base := errors.New("boom")

	transient := WrapTransient(base, "writer", "Commit", "transaction")
	if !IsTransient(transient) {
		t.Error("WrapTransient should produce transient error")
	}
	if !errors.Is(transient, base) {
		t.Error("classified error should unwrap to base")
	}

	fatal := WrapFatal(base, "converter", "Run", "phase")
	if !IsFatal(fatal) {
		t.Error("WrapFatal should produce fatal error")
	}

	invalid := WrapInvalid(base, "schema", "Compile", "parse")
	if !IsInvalid(invalid) {
		t.Error("WrapInvalid should produce invalid error")
	}

	var ce *ClassifiedError
	if !errors.As(invalid, &ce) {
		t.Fatal("expected ClassifiedError")
	}
	if ce.Component != "schema" || ce.Operation != "Compile" {
		t.Errorf("unexpected context: %s.%s", ce.Component, ce.Operation)
	}
}

func TestRetryConfig_ShouldRetry(t *testing.T) {
	rc := DefaultRetryConfig()

	if rc.ShouldRetry(nil, 0) {
		t.Error("nil error should not retry")
	}
	if !rc.ShouldRetry(ErrGraphTimeout, 0) {
		t.Error("transient error should retry")
	}
	if rc.ShouldRetry(ErrGraphTimeout, rc.MaxRetries) {
		t.Error("should not retry past MaxRetries")
	}
	if rc.ShouldRetry(ErrSchemaParse, 0) {
		t.Error("invalid error should not retry")
	}
}

func TestRetryConfig_BackoffDelay(t *testing.T) {
	rc := RetryConfig{
		MaxRetries:    5,
		InitialDelay:  100 * time.Millisecond,
		MaxDelay:      1 * time.Second,
		BackoffFactor: 2.0,
	}

	if got := rc.BackoffDelay(0); got != 100*time.Millisecond {
		t.Errorf("attempt 0: expected 100ms, got %v", got)
	}
	if got := rc.BackoffDelay(1); got != 200*time.Millisecond {
		t.Errorf("attempt 1: expected 200ms, got %v", got)
	}
	if got := rc.BackoffDelay(10); got != 1*time.Second {
		t.Errorf("attempt 10: expected cap at 1s, got %v", got)
	}
}

func TestRetryConfig_ToRetryConfig(t *testing.T) {
	rc := DefaultRetryConfig()
	cfg := rc.ToRetryConfig()

	if cfg.MaxAttempts != rc.MaxRetries+1 {
		t.Errorf("expected %d total attempts, got %d", rc.MaxRetries+1, cfg.MaxAttempts)
	}
	if !cfg.AddJitter {
		t.Error("jitter should be enabled")
	}
}
