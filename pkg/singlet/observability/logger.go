// Package observability provides production-grade observability features
// for singlet: structured logging, metrics, and distributed tracing.
//
// Features:
//   - Structured logging via slog (Go stdlib)
//   - Metrics via OpenTelemetry
//   - Tracing via OpenTelemetry
//
// All features are opt-in and have no-op implementations when disabled.
package observability

import (
	"log/slog"
	"time"
)

// LogCreationStart logs the start of a singleton creation.
func LogCreationStart(logger *slog.Logger, registry, key string) {
	if logger == nil {
		return
	}
	logger.Debug("creation starting",
		slog.String("registry", registry),
		slog.String("key", key),
	)
}

// LogCreationComplete logs successful singleton creation.
func LogCreationComplete(logger *slog.Logger, registry, key string, durationMs float64) {
	if logger == nil {
		return
	}
	logger.Debug("creation completed",
		slog.String("registry", registry),
		slog.String("key", key),
		slog.Float64("duration_ms", durationMs),
	)
}

// LogCreationFailed logs a failed creation attempt. The key is evicted,
// so a later call may retry.
func LogCreationFailed(logger *slog.Logger, registry, key string, err error) {
	if logger == nil {
		return
	}
	logger.Error("creation failed",
		slog.String("registry", registry),
		slog.String("key", key),
		slog.String("error", err.Error()),
	)
}

// LogCycleDetected logs a detected circular dependency with the ordered
// chain of keys forming the cycle.
func LogCycleDetected(logger *slog.Logger, registry string, keys []string) {
	if logger == nil {
		return
	}
	logger.Error("circular dependency detected",
		slog.String("registry", registry),
		slog.Any("cycle", keys),
	)
}

// LogSlowWait warns that a caller was blocked on another caller's
// creation for longer than the configured threshold.
func LogSlowWait(logger *slog.Logger, registry, key string, durationMs, thresholdMs float64) {
	if logger == nil {
		return
	}
	logger.Warn("blocked on in-flight creation",
		slog.String("registry", registry),
		slog.String("key", key),
		slog.Float64("duration_ms", durationMs),
		slog.Float64("threshold_ms", thresholdMs),
	)
}

// LogInvalidation logs administrative eviction of cached singletons.
func LogInvalidation(logger *slog.Logger, registry string, count int) {
	if logger == nil {
		return
	}
	logger.Debug("entries invalidated",
		slog.String("registry", registry),
		slog.Int("count", count),
	)
}

// LogJournalError logs a journal write failure (non-fatal).
func LogJournalError(logger *slog.Logger, registry, key string, err error) {
	if logger == nil {
		return
	}
	logger.Warn("journal append failed",
		slog.String("registry", registry),
		slog.String("key", key),
		slog.String("error", err.Error()),
	)
}

// TimedOperation measures the duration of an operation.
// Returns a function that, when called, returns the elapsed time in milliseconds.
//
// Example:
//
//	done := TimedOperation()
//	// ... do work ...
//	durationMs := done()
func TimedOperation() func() float64 {
	start := time.Now()
	return func() float64 {
		return float64(time.Since(start).Milliseconds())
	}
}
