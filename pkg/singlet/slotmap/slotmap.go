// Package slotmap provides concurrent key-to-slot storage with atomic
// claim semantics.
//
// A Slot tracks the lifecycle of one lazily created value: it starts
// in-progress the moment a key is claimed, and is resolved exactly once
// with either a value or an error. Resolution releases a one-shot gate
// that any number of waiters can block on; the gate never resets.
//
// Claims for distinct keys never serialize behind a common lock: TryClaim
// is a single LoadOrStore on a sync.Map, so concurrent readers and
// claimants of unrelated keys proceed independently.
package slotmap

import (
	"fmt"
	"sync"
	"sync/atomic"
)

// Slot is the per-key state record for one creation attempt.
//
// A Slot is created in-progress by Map.TryClaim and resolved exactly once
// by Map.Resolve or Map.Fail. Value and Err must only be read after the
// Done channel is closed.
type Slot[K comparable, V any] struct {
	key  K
	done chan struct{}

	// value and err are written once, before done is closed, and only
	// read after done is closed.
	value V
	err   error

	resolved atomic.Bool
	waiters  atomic.Int32

	// dependee is the slot this slot's creator is itself blocked on,
	// or nil. Written and cleared only by the goroutine that owns this
	// slot's creation; read by any goroutine walking the dependency
	// chain for cycle detection.
	dependee atomic.Pointer[Slot[K, V]]
}

func newSlot[K comparable, V any](key K) *Slot[K, V] {
	return &Slot[K, V]{
		key:  key,
		done: make(chan struct{}),
	}
}

// Key returns the key this slot was claimed for.
func (s *Slot[K, V]) Key() K {
	return s.key
}

// Done returns the slot's wait gate. It is closed exactly once, when the
// slot resolves, and releases all current and future waiters.
func (s *Slot[K, V]) Done() <-chan struct{} {
	return s.done
}

// Resolved reports whether the slot has been resolved with a value or an
// error.
func (s *Slot[K, V]) Resolved() bool {
	return s.resolved.Load()
}

// Result returns the slot's value or error.
// It must only be called after Done is closed.
func (s *Slot[K, V]) Result() (V, error) {
	return s.value, s.err
}

// SetDependee records the slot this slot's creator is about to block on.
// Only the goroutine creating this slot may call it.
func (s *Slot[K, V]) SetDependee(target *Slot[K, V]) {
	s.dependee.Store(target)
}

// ClearDependee removes the dependency edge after the creator wakes.
func (s *Slot[K, V]) ClearDependee() {
	s.dependee.Store(nil)
}

// Dependee returns the slot this slot's creator is currently blocked on,
// or nil. Safe to call from any goroutine.
func (s *Slot[K, V]) Dependee() *Slot[K, V] {
	return s.dependee.Load()
}

// AddWaiter records one more caller blocked on this slot's gate.
func (s *Slot[K, V]) AddWaiter() {
	s.waiters.Add(1)
}

// Waiters returns the number of callers that blocked on this slot.
func (s *Slot[K, V]) Waiters() int {
	return int(s.waiters.Load())
}

// Map is a concurrent mapping from key to slot.
//
// All methods are safe for concurrent use. TryClaim for independent keys
// never blocks behind a shared lock.
type Map[K comparable, V any] struct {
	m sync.Map // map[K]*Slot[K, V]
}

// New creates an empty slot map.
func New[K comparable, V any]() *Map[K, V] {
	return &Map[K, V]{}
}

// Get returns the current slot for key, if any. It never blocks and has
// no side effects.
func (m *Map[K, V]) Get(key K) (*Slot[K, V], bool) {
	v, ok := m.m.Load(key)
	if !ok {
		return nil, false
	}
	return v.(*Slot[K, V]), true
}

// TryClaim installs a fresh in-progress slot for key if none exists and
// returns it with claimed=true. If a slot already exists it is returned
// unchanged with claimed=false. The claim is a single atomic LoadOrStore,
// so exactly one concurrent caller per key observes claimed=true.
func (m *Map[K, V]) TryClaim(key K) (slot *Slot[K, V], claimed bool) {
	fresh := newSlot[K, V](key)
	actual, loaded := m.m.LoadOrStore(key, fresh)
	return actual.(*Slot[K, V]), !loaded
}

// Resolve publishes a value for a claimed slot and releases its gate.
//
// The caller must be the claimant of slot. Resolving a slot twice, or a
// slot that is not the current mapping for key, indicates a coordinator
// bug and panics.
func (m *Map[K, V]) Resolve(key K, slot *Slot[K, V], value V) {
	if cur, ok := m.m.Load(key); !ok || cur != slot {
		panic(fmt.Sprintf("slotmap: resolve of slot not owned for key %v", key))
	}
	if !slot.resolved.CompareAndSwap(false, true) {
		panic(fmt.Sprintf("slotmap: slot for key %v resolved twice", key))
	}
	slot.value = value
	close(slot.done)
}

// Fail publishes an error for a claimed slot, removes the key so a later
// call may retry creation, and releases the gate. Waiters holding the
// slot observe the error; new callers see an absent key.
//
// The caller must be the claimant of slot; failing a foreign or already
// resolved slot panics.
func (m *Map[K, V]) Fail(key K, slot *Slot[K, V], err error) {
	if !slot.resolved.CompareAndSwap(false, true) {
		panic(fmt.Sprintf("slotmap: slot for key %v resolved twice", key))
	}
	slot.err = err
	// Remove before releasing the gate so a retrying caller never
	// observes the failed slot through Get.
	if !m.m.CompareAndDelete(key, slot) {
		panic(fmt.Sprintf("slotmap: fail of slot not owned for key %v", key))
	}
	close(slot.done)
}

// Remove evicts the slot for key, if any. Administrative hook for
// collaborators that force re-creation; it must not be called while a
// creation for key is in flight.
func (m *Map[K, V]) Remove(key K) bool {
	_, ok := m.m.LoadAndDelete(key)
	return ok
}

// Clear evicts all slots.
func (m *Map[K, V]) Clear() int {
	n := 0
	m.m.Range(func(key, _ any) bool {
		m.m.Delete(key)
		n++
		return true
	})
	return n
}

// Len returns the number of stored slots.
func (m *Map[K, V]) Len() int {
	n := 0
	m.m.Range(func(_, _ any) bool {
		n++
		return true
	})
	return n
}

// Keys returns the keys of all stored slots. The order is not guaranteed.
func (m *Map[K, V]) Keys() []K {
	var keys []K
	m.m.Range(func(key, _ any) bool {
		keys = append(keys, key.(K))
		return true
	})
	return keys
}

// Range iterates over the stored slots. If fn returns false, iteration
// stops. Mutations during iteration follow sync.Map semantics.
func (m *Map[K, V]) Range(fn func(K, *Slot[K, V]) bool) {
	m.m.Range(func(key, value any) bool {
		return fn(key.(K), value.(*Slot[K, V]))
	})
}
