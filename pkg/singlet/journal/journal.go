// Package journal provides persistent audit logging of singleton
// creation attempts.
//
// A registry configured with a journal appends one Entry per resolved
// creation attempt (success, failure, or detected cycle). The journal is
// diagnostic data for debug tooling and post-mortems; writes are
// best-effort and never affect registry correctness.
package journal

import (
	"context"
	"errors"
	"fmt"
	"time"

	"github.com/google/uuid"
)

// Outcome classifies how a creation attempt ended.
type Outcome string

// Attempt outcomes.
const (
	OutcomeCreated Outcome = "created"
	OutcomeFailed  Outcome = "failed"
	OutcomeCycle   Outcome = "cycle"
)

// Entry records one creation attempt.
type Entry struct {
	// ID uniquely identifies this entry. Assigned on append if empty.
	ID string

	// Registry is the name of the registry the attempt ran in.
	Registry string

	// Key is the singleton key that was requested.
	Key string

	// Outcome classifies how the attempt ended.
	Outcome Outcome

	// StartedAt is when the attempt began.
	StartedAt time.Time

	// Duration is how long the attempt ran.
	Duration time.Duration

	// Waiters is the number of callers that blocked on the attempt.
	Waiters int

	// Error contains error details for failed or cyclic attempts.
	Error string
}

// Sentinel errors for journal operations.
var (
	// ErrStoreClosed indicates the store has been closed.
	ErrStoreClosed = errors.New("journal store closed")
)

// Store persists creation attempt entries.
// Implementations must be safe for concurrent use.
type Store interface {
	// Append records one entry. Assigns an ID if the entry has none.
	Append(ctx context.Context, e Entry) error

	// ByKey returns all entries for a (registry, key) pair, oldest first.
	// Returns an empty slice (not an error) if there are none.
	ByKey(ctx context.Context, registry, key string) ([]Entry, error)

	// Recent returns up to limit entries, newest first.
	Recent(ctx context.Context, limit int) ([]Entry, error)

	// Close releases any resources (connections, files).
	Close() error
}

// newEntryID generates a journal entry identifier.
func newEntryID() string {
	return fmt.Sprintf("jrn-%s", uuid.New().String()[:8])
}
