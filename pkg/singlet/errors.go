package singlet

import (
	"errors"
	"fmt"
	"strings"
)

// Sentinel errors for registry operations.
var (
	// ErrNilContext indicates Get() was called with a nil context.
	ErrNilContext = errors.New("context cannot be nil")

	// ErrNilCreate indicates Get() was called with a nil create function.
	ErrNilCreate = errors.New("create function cannot be nil")

	// ErrCycle indicates a creation transitively depends on itself.
	ErrCycle = errors.New("circular dependency detected")

	// ErrCreationPanic is observed by waiters when the create function
	// panicked. The panic itself propagates on the creating goroutine.
	ErrCreationPanic = errors.New("create function panicked")
)

// CycleError reports a circular dependency between in-flight creations.
// Keys holds the ordered chain of keys forming the cycle, starting with
// the key whose creation detected it.
type CycleError struct {
	// Registry is the name of the registry that detected the cycle.
	Registry string
	// Keys is the ordered chain of keys forming the cycle.
	Keys []string
}

// Error implements the error interface.
func (e *CycleError) Error() string {
	return fmt.Sprintf("circular dependency in %s: %s", e.Registry, strings.Join(e.Keys, " -> "))
}

// Unwrap returns ErrCycle for errors.Is support.
func (e *CycleError) Unwrap() error {
	return ErrCycle
}

// CreationError is the failure a waiter observes when the creation it
// was blocked on fails. The creating caller receives the create
// function's error verbatim; every waiter receives its own CreationError
// wrapping that same underlying error.
type CreationError struct {
	// Key is the singleton key whose creation failed.
	Key string
	// Err is the underlying error from the create function.
	Err error
}

// Error implements the error interface.
func (e *CreationError) Error() string {
	return fmt.Sprintf("create %s: %v", e.Key, e.Err)
}

// Unwrap returns the underlying error for errors.Is/As support.
func (e *CreationError) Unwrap() error {
	return e.Err
}
