// Package event provides an in-process stream of registry lifecycle
// events.
//
// Every creation attempt, failure, cycle detection, and invalidation in a
// registry can be published as an Event. Host-framework glue (scope
// managers, debug tooling, test harnesses) subscribes to the stream to
// observe singleton lifecycles without coupling to the registry
// internals.
//
// Delivery is best-effort: Publish never blocks the registry's hot path,
// and events are dropped when a subscriber's buffer is full.
package event

import (
	"fmt"
	"time"

	"github.com/google/uuid"
)

// Type identifies a kind of registry lifecycle event.
type Type string

// Lifecycle event types.
const (
	TypeCreationStarted Type = "creation.started"
	TypeCreated         Type = "creation.completed"
	TypeCreationFailed  Type = "creation.failed"
	TypeCycleDetected   Type = "cycle.detected"
	TypeInvalidated     Type = "registry.invalidated"
)

// Event describes one registry lifecycle occurrence.
// Events are immutable once published.
type Event struct {
	// ID uniquely identifies this event.
	ID string `json:"id"`

	// Kind is the event type.
	Kind Type `json:"type"`

	// Registry is the name of the registry that emitted the event.
	Registry string `json:"registry"`

	// Key is the singleton key the event concerns, if any.
	Key string `json:"key,omitempty"`

	// Cycle is the ordered chain of keys forming a detected cycle.
	Cycle []string `json:"cycle,omitempty"`

	// Timestamp is when the event occurred.
	Timestamp time.Time `json:"timestamp"`

	// DurationMS is the creation or wait duration, where applicable.
	DurationMS float64 `json:"duration_ms,omitempty"`

	// Waiters is the number of callers that blocked on the attempt.
	Waiters int `json:"waiters,omitempty"`

	// Error contains error details for failed attempts.
	Error string `json:"error,omitempty"`
}

// New creates an event of the given type for a registry and key.
func New(kind Type, registry, key string) Event {
	return Event{
		ID:        fmt.Sprintf("evt-%s", uuid.New().String()[:8]),
		Kind:      kind,
		Registry:  registry,
		Key:       key,
		Timestamp: time.Now(),
	}
}

// Publisher accepts lifecycle events. *Bus implements it; tests and
// embedding applications may provide their own sink.
type Publisher interface {
	// Publish delivers an event. Implementations must not block.
	Publish(evt Event)
}

// PublisherFunc adapts a function to the Publisher interface.
type PublisherFunc func(evt Event)

// Publish implements Publisher.
func (f PublisherFunc) Publish(evt Event) {
	f(evt)
}
