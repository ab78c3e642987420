package singlet

import (
	"log/slog"
	"time"

	"github.com/randalmurphal/singlet/pkg/singlet/config"
	"github.com/randalmurphal/singlet/pkg/singlet/event"
	"github.com/randalmurphal/singlet/pkg/singlet/journal"
	"github.com/randalmurphal/singlet/pkg/singlet/observability"
)

// settings holds configuration for a registry.
type settings struct {
	name     string
	logger   *slog.Logger
	metrics  observability.MetricsRecorder
	spans    observability.SpanManager
	events   event.Publisher
	journal  journal.Store
	waitWarn time.Duration
}

// defaultSettings returns the default registry configuration.
// All observability is disabled (no-op) by default.
func defaultSettings() settings {
	return settings{
		name:    "singlet",
		metrics: observability.NoopMetrics{},
		spans:   observability.NoopSpanManager{},
	}
}

// Option configures a registry.
type Option func(*settings)

// WithName sets the registry name used in logs, metrics, spans, events,
// and journal entries. Default: "singlet".
func WithName(name string) Option {
	return func(s *settings) {
		if name != "" {
			s.name = name
		}
	}
}

// WithLogger sets the logger for registry diagnostics.
// Default: no logging.
func WithLogger(logger *slog.Logger) Option {
	return func(s *settings) {
		s.logger = logger
	}
}

// WithMetrics enables or disables OpenTelemetry metrics.
// Default: disabled (no-op recorder).
//
// Metrics use the global OTel meter provider; configure it before
// creating the registry.
func WithMetrics(enabled bool) Option {
	return func(s *settings) {
		if enabled {
			s.metrics = observability.NewMetricsRecorder()
		} else {
			s.metrics = observability.NoopMetrics{}
		}
	}
}

// WithTracing enables or disables OpenTelemetry tracing.
// Default: disabled (no-op span manager).
func WithTracing(enabled bool) Option {
	return func(s *settings) {
		if enabled {
			s.spans = observability.NewSpanManager()
		} else {
			s.spans = observability.NoopSpanManager{}
		}
	}
}

// WithEvents publishes lifecycle events to the given publisher,
// typically an *event.Bus. Default: no events.
func WithEvents(p event.Publisher) Option {
	return func(s *settings) {
		s.events = p
	}
}

// WithJournal records creation attempts to the given store. Journal
// writes are best-effort: failures are logged, never surfaced to
// callers. Default: no journal.
func WithJournal(store journal.Store) Option {
	return func(s *settings) {
		s.journal = store
	}
}

// WithWaitWarning logs a warning whenever a caller was blocked on
// another caller's creation for longer than d. Zero disables the
// warning. Default: disabled.
//
// This is purely diagnostic: waits remain unbounded unless the caller's
// context carries a deadline.
func WithWaitWarning(d time.Duration) Option {
	return func(s *settings) {
		if d > 0 {
			s.waitWarn = d
		}
	}
}

// FromConfig derives options from a loaded configuration.
//
// Recognized keys:
//   - "name" (string): registry name
//   - "wait_warning" (duration): slow-wait warning threshold
//   - "metrics" (bool): enable OTel metrics
//   - "tracing" (bool): enable OTel tracing
//
// Example:
//
//	cfg, err := config.FromFile("singlet.yaml")
//	if err != nil { ... }
//	reg := singlet.New[string, any](singlet.FromConfig(cfg)...)
func FromConfig(cfg config.Config) []Option {
	var opts []Option
	if name := cfg.String("name", ""); name != "" {
		opts = append(opts, WithName(name))
	}
	if d := cfg.Duration("wait_warning", 0); d > 0 {
		opts = append(opts, WithWaitWarning(d))
	}
	if cfg.Bool("metrics", false) {
		opts = append(opts, WithMetrics(true))
	}
	if cfg.Bool("tracing", false) {
		opts = append(opts, WithTracing(true))
	}
	return opts
}
