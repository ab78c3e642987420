package singlet

import (
	"context"
	"fmt"
	"log/slog"
	"time"

	"github.com/randalmurphal/singlet/pkg/singlet/event"
	"github.com/randalmurphal/singlet/pkg/singlet/journal"
	"github.com/randalmurphal/singlet/pkg/singlet/observability"
	"github.com/randalmurphal/singlet/pkg/singlet/slotmap"
)

// CreateFunc produces the singleton value for a key. It is invoked at
// most once per successful attempt. The context it receives carries the
// creation frame: pass that context into any nested Get calls so
// dependency chains and cycles stay visible.
type CreateFunc[V any] func(ctx context.Context) (V, error)

// Registry is a single-flight lazy singleton cache.
//
// For each (registry, key) pair the create function runs at most once;
// all concurrent callers for the same key block until that single
// creation resolves and then share the identical value. Creations whose
// construction transitively depends on itself fail with a CycleError
// instead of deadlocking.
//
// Registry is safe for concurrent use. Construct one per scope
// (process, container, test) and pass it where it is needed; there is no
// global instance.
type Registry[K comparable, V any] struct {
	name     string
	slots    *slotmap.Map[K, V]
	logger   *slog.Logger
	metrics  observability.MetricsRecorder
	spans    observability.SpanManager
	events   event.Publisher
	journal  journal.Store
	waitWarn time.Duration
}

// New creates a registry.
//
// Example:
//
//	reg := singlet.New[string, *Database](
//	    singlet.WithName("app"),
//	    singlet.WithLogger(logger),
//	)
func New[K comparable, V any](opts ...Option) *Registry[K, V] {
	s := defaultSettings()
	for _, opt := range opts {
		opt(&s)
	}
	return &Registry[K, V]{
		name:     s.name,
		slots:    slotmap.New[K, V](),
		logger:   s.logger,
		metrics:  s.metrics,
		spans:    s.spans,
		events:   s.events,
		journal:  s.journal,
		waitWarn: s.waitWarn,
	}
}

// Name returns the registry name.
func (r *Registry[K, V]) Name() string {
	return r.name
}

// Get returns the singleton value for key, creating it with create if it
// does not exist yet.
//
// Exactly one concurrent caller per key runs create; the rest block on
// the result. If create fails, its error propagates to the creating
// caller verbatim and to every blocked caller wrapped in a
// CreationError; the key is evicted, so a later call retries. If the
// creation transitively requires key again, on this goroutine or
// through creations in flight on others, Get fails fast with a
// CycleError instead of deadlocking.
//
// A blocked caller waits indefinitely by default; a context with a
// deadline or cancellation bounds the wait without affecting the
// in-flight creation.
func (r *Registry[K, V]) Get(ctx context.Context, key K, create CreateFunc[V]) (V, error) {
	var zero V
	if ctx == nil {
		return zero, ErrNilContext
	}
	if create == nil {
		return zero, ErrNilCreate
	}

	// Fast path: resolved slot, no claiming, no bookkeeping.
	if s, ok := r.slots.Get(key); ok {
		select {
		case <-s.Done():
			return r.resolved(s)
		default:
		}
	}

	s, claimed := r.slots.TryClaim(key)
	if claimed {
		return r.runCreate(ctx, key, s, create)
	}
	return r.await(ctx, key, s)
}

// runCreate executes create for a slot this call just claimed,
// publishes the outcome, and releases all waiters.
func (r *Registry[K, V]) runCreate(ctx context.Context, key K, s *slotmap.Slot[K, V], create CreateFunc[V]) (V, error) {
	ks := keyString(key)
	start := time.Now()

	// A nested inline creation is a dependency edge just like a blocked
	// wait: link the enclosing creation to this slot so cycle walks on
	// any goroutine can see through same-goroutine nesting.
	if prev := creationSlot(ctx, r); prev != nil {
		prev.SetDependee(s)
		defer prev.ClearDependee()
	}

	cctx, span := r.spans.StartCreationSpan(ctx, r.name, ks)
	cctx = withCreation(cctx, r, s)

	observability.LogCreationStart(r.logger, r.name, ks)
	r.publish(event.New(event.TypeCreationStarted, r.name, ks))

	published := false
	defer func() {
		if published {
			return
		}
		// create panicked. Release waiters with a sentinel and evict
		// the key so a later call may retry, then let the panic
		// continue up the creating goroutine.
		r.slots.Fail(key, s, ErrCreationPanic)
		r.spans.EndSpanWithError(span, ErrCreationPanic)
		observability.LogCreationFailed(r.logger, r.name, ks, ErrCreationPanic)
	}()

	value, err := create(cctx)
	elapsed := time.Since(start)

	if err != nil {
		r.slots.Fail(key, s, err)
		published = true
		r.spans.EndSpanWithError(span, err)
		r.metrics.RecordCreation(ctx, r.name, ks, elapsed, err)
		observability.LogCreationFailed(r.logger, r.name, ks, err)

		evt := event.New(event.TypeCreationFailed, r.name, ks)
		evt.DurationMS = float64(elapsed.Milliseconds())
		evt.Waiters = s.Waiters()
		evt.Error = err.Error()
		r.publish(evt)

		r.record(journal.Entry{
			Registry:  r.name,
			Key:       ks,
			Outcome:   journal.OutcomeFailed,
			StartedAt: start,
			Duration:  elapsed,
			Waiters:   s.Waiters(),
			Error:     err.Error(),
		})
		var zero V
		return zero, err
	}

	r.slots.Resolve(key, s, value)
	published = true
	r.spans.EndSpanWithError(span, nil)
	r.metrics.RecordCreation(ctx, r.name, ks, elapsed, nil)
	observability.LogCreationComplete(r.logger, r.name, ks, float64(elapsed.Milliseconds()))

	evt := event.New(event.TypeCreated, r.name, ks)
	evt.DurationMS = float64(elapsed.Milliseconds())
	evt.Waiters = s.Waiters()
	r.publish(evt)

	r.record(journal.Entry{
		Registry:  r.name,
		Key:       ks,
		Outcome:   journal.OutcomeCreated,
		StartedAt: start,
		Duration:  elapsed,
		Waiters:   s.Waiters(),
	})
	return value, nil
}

// await blocks until another call's in-flight creation for key resolves,
// first linking a dependency edge (and checking for cycles) if this
// goroutine is itself creating a slot in this registry.
func (r *Registry[K, V]) await(ctx context.Context, key K, s *slotmap.Slot[K, V]) (V, error) {
	var zero V

	// The slot may have resolved between TryClaim and here.
	select {
	case <-s.Done():
		return r.resolved(s)
	default:
	}

	ks := keyString(key)

	if cur := creationSlot(ctx, r); cur != nil {
		if cerr := r.linkDependency(cur, s); cerr != nil {
			r.metrics.RecordCycle(ctx, r.name)
			observability.LogCycleDetected(r.logger, r.name, cerr.Keys)

			evt := event.New(event.TypeCycleDetected, r.name, ks)
			evt.Cycle = cerr.Keys
			r.publish(evt)

			r.record(journal.Entry{
				Registry:  r.name,
				Key:       ks,
				Outcome:   journal.OutcomeCycle,
				StartedAt: time.Now(),
				Error:     cerr.Error(),
			})
			return zero, cerr
		}
		defer cur.ClearDependee()
	}

	s.AddWaiter()
	start := time.Now()
	_, span := r.spans.StartWaitSpan(ctx, r.name, ks)

	select {
	case <-s.Done():
	case <-ctx.Done():
		r.spans.EndSpanWithError(span, ctx.Err())
		return zero, ctx.Err()
	}

	elapsed := time.Since(start)
	r.metrics.RecordWait(ctx, r.name, ks, elapsed)
	if r.waitWarn > 0 && elapsed >= r.waitWarn {
		observability.LogSlowWait(r.logger, r.name, ks,
			float64(elapsed.Milliseconds()), float64(r.waitWarn.Milliseconds()))
	}

	value, err := s.Result()
	r.spans.EndSpanWithError(span, err)
	if err != nil {
		return zero, &CreationError{Key: ks, Err: err}
	}
	return value, nil
}

// resolved short-circuits a slot that is already done.
func (r *Registry[K, V]) resolved(s *slotmap.Slot[K, V]) (V, error) {
	value, err := s.Result()
	if err != nil {
		var zero V
		return zero, &CreationError{Key: keyString(s.Key()), Err: err}
	}
	return value, nil
}

// Invalidate evicts the cached value for key so the next Get re-creates
// it. Reports whether an entry was evicted.
//
// Invalidation bypasses single-flight protection: the caller is
// responsible for ensuring no creation for key is in flight.
func (r *Registry[K, V]) Invalidate(key K) bool {
	ok := r.slots.Remove(key)
	if ok {
		r.metrics.RecordInvalidation(context.Background(), r.name, 1)
		observability.LogInvalidation(r.logger, r.name, 1)
		r.publish(event.New(event.TypeInvalidated, r.name, keyString(key)))
	}
	return ok
}

// Clear evicts all cached values and returns how many were removed.
// Like Invalidate, it must not race in-flight creations.
func (r *Registry[K, V]) Clear() int {
	n := r.slots.Clear()
	if n > 0 {
		r.metrics.RecordInvalidation(context.Background(), r.name, int64(n))
		observability.LogInvalidation(r.logger, r.name, n)
		r.publish(event.New(event.TypeInvalidated, r.name, ""))
	}
	return n
}

// Len returns the number of keys with a cached or in-flight value.
func (r *Registry[K, V]) Len() int {
	return r.slots.Len()
}

// Keys returns all keys with a cached or in-flight value.
// The order is not guaranteed.
func (r *Registry[K, V]) Keys() []K {
	return r.slots.Keys()
}

// publish sends a lifecycle event if an event sink is configured.
func (r *Registry[K, V]) publish(evt event.Event) {
	if r.events != nil {
		r.events.Publish(evt)
	}
}

// record appends a journal entry if a journal is configured.
// Failures are logged, never surfaced.
func (r *Registry[K, V]) record(e journal.Entry) {
	if r.journal == nil {
		return
	}
	if err := r.journal.Append(context.Background(), e); err != nil {
		observability.LogJournalError(r.logger, r.name, e.Key, err)
	}
}

// keyString renders a key for logs, events, and journal entries.
func keyString(key any) string {
	switch k := key.(type) {
	case string:
		return k
	case fmt.Stringer:
		return k.String()
	default:
		return fmt.Sprintf("%v", key)
	}
}
