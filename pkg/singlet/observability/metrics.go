package observability

import (
	"context"
	"log/slog"
	"sync"
	"time"

	"go.opentelemetry.io/otel"
	"go.opentelemetry.io/otel/attribute"
	"go.opentelemetry.io/otel/metric"
)

// MetricsRecorder records singlet registry metrics.
// Use NewMetricsRecorder() for OTel metrics or NoopMetrics{} when disabled.
type MetricsRecorder interface {
	// RecordCreation records one creation attempt with its duration and
	// error status.
	RecordCreation(ctx context.Context, registry, key string, duration time.Duration, err error)

	// RecordWait records how long a caller was blocked on another
	// caller's in-flight creation.
	RecordWait(ctx context.Context, registry, key string, duration time.Duration)

	// RecordCycle records a detected circular dependency.
	RecordCycle(ctx context.Context, registry string)

	// RecordInvalidation records administrative eviction of cached entries.
	RecordInvalidation(ctx context.Context, registry string, count int64)
}

// otelMetrics implements MetricsRecorder using OpenTelemetry.
type otelMetrics struct {
	creations       metric.Int64Counter
	creationLatency metric.Float64Histogram
	creationErrors  metric.Int64Counter
	waitLatency     metric.Float64Histogram
	cycles          metric.Int64Counter
	invalidations   metric.Int64Counter
}

var (
	defaultMetrics     *otelMetrics
	defaultMetricsOnce sync.Once
	defaultMetricsErr  error
)

// getDefaultMetrics returns the default OTel metrics instance.
// Lazily initializes the metrics on first call.
func getDefaultMetrics() (*otelMetrics, error) {
	defaultMetricsOnce.Do(func() {
		defaultMetrics, defaultMetricsErr = newOtelMetrics()
	})
	return defaultMetrics, defaultMetricsErr
}

// newOtelMetrics creates a new OTel metrics instance.
func newOtelMetrics() (*otelMetrics, error) {
	meter := otel.Meter("singlet")

	creations, err := meter.Int64Counter("singlet.creation.attempts",
		metric.WithDescription("Number of singleton creation attempts"),
	)
	if err != nil {
		return nil, err
	}

	creationLatency, err := meter.Float64Histogram("singlet.creation.latency_ms",
		metric.WithDescription("Singleton creation latency in milliseconds"),
		metric.WithUnit("ms"),
	)
	if err != nil {
		return nil, err
	}

	creationErrors, err := meter.Int64Counter("singlet.creation.errors",
		metric.WithDescription("Number of failed creation attempts"),
	)
	if err != nil {
		return nil, err
	}

	waitLatency, err := meter.Float64Histogram("singlet.wait.latency_ms",
		metric.WithDescription("Time callers spent blocked on in-flight creations in milliseconds"),
		metric.WithUnit("ms"),
	)
	if err != nil {
		return nil, err
	}

	cycles, err := meter.Int64Counter("singlet.cycle.detections",
		metric.WithDescription("Number of detected circular dependencies"),
	)
	if err != nil {
		return nil, err
	}

	invalidations, err := meter.Int64Counter("singlet.invalidations",
		metric.WithDescription("Number of administratively evicted entries"),
	)
	if err != nil {
		return nil, err
	}

	return &otelMetrics{
		creations:       creations,
		creationLatency: creationLatency,
		creationErrors:  creationErrors,
		waitLatency:     waitLatency,
		cycles:          cycles,
		invalidations:   invalidations,
	}, nil
}

// NewMetricsRecorder returns a MetricsRecorder that uses OpenTelemetry.
// If metrics initialization fails, returns a no-op recorder.
//
// The recorder uses the global OTel meter provider. Configure the provider
// before calling this function:
//
//	import "go.opentelemetry.io/otel"
//	otel.SetMeterProvider(yourProvider)
func NewMetricsRecorder() MetricsRecorder {
	m, err := getDefaultMetrics()
	if err != nil {
		slog.Warn("metrics initialization failed, using no-op recorder",
			slog.String("error", err.Error()))
		return NoopMetrics{}
	}
	return m
}

// RecordCreation records one creation attempt.
func (m *otelMetrics) RecordCreation(ctx context.Context, registry, key string, duration time.Duration, err error) {
	attrs := []attribute.KeyValue{
		attribute.String("registry", registry),
		attribute.String("key", key),
	}

	m.creations.Add(ctx, 1, metric.WithAttributes(attrs...))
	m.creationLatency.Record(ctx, float64(duration.Milliseconds()), metric.WithAttributes(attrs...))

	if err != nil {
		m.creationErrors.Add(ctx, 1, metric.WithAttributes(attrs...))
	}
}

// RecordWait records time spent blocked on an in-flight creation.
func (m *otelMetrics) RecordWait(ctx context.Context, registry, key string, duration time.Duration) {
	attrs := []attribute.KeyValue{
		attribute.String("registry", registry),
		attribute.String("key", key),
	}
	m.waitLatency.Record(ctx, float64(duration.Milliseconds()), metric.WithAttributes(attrs...))
}

// RecordCycle records a detected circular dependency.
func (m *otelMetrics) RecordCycle(ctx context.Context, registry string) {
	m.cycles.Add(ctx, 1, metric.WithAttributes(
		attribute.String("registry", registry),
	))
}

// RecordInvalidation records administrative eviction.
func (m *otelMetrics) RecordInvalidation(ctx context.Context, registry string, count int64) {
	m.invalidations.Add(ctx, count, metric.WithAttributes(
		attribute.String("registry", registry),
	))
}
