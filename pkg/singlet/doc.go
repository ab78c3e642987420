/*
Package singlet provides single-flight lazy singleton registries with
cycle detection.

# Overview

singlet is a Go library for caching expensively constructed values by
key. Each key's create function runs at most once per registry; all
concurrent requesters for the same key block until that single creation
finishes and then share the identical value. Creations that transitively
depend on themselves, even across goroutines, fail fast with a
CycleError instead of deadlocking.

The library offers:
  - Type-safe generics for keys and values
  - Lock-free fast path for already-created values
  - Cross-goroutine circular dependency detection
  - Failure isolation: a failed creation never poisons its key
  - OpenTelemetry integration for observability

# Basic Usage

Create a registry and request values through Get:

	type Database struct {
	    DSN string
	}

	func main() {
	    reg := singlet.New[string, *Database](singlet.WithName("app"))

	    db, err := reg.Get(context.Background(), "primary-db",
	        func(ctx context.Context) (*Database, error) {
	            return &Database{DSN: "postgres://localhost/app"}, nil
	        })
	    if err != nil {
	        log.Fatal(err)
	    }
	    fmt.Println(db.DSN)
	}

Every later Get for "primary-db" returns the same *Database without
invoking the create function again.

# Dependencies Between Singletons

A create function may request other keys. Pass the context it receives
into the nested Get calls; that context carries the information the
registry needs to track which creation is requesting what:

	reg.Get(ctx, "service", func(ctx context.Context) (*Service, error) {
	    db, err := dbReg.Get(ctx, "primary-db", newDatabase)
	    if err != nil {
	        return nil, err
	    }
	    return &Service{DB: db}, nil
	})

# Failure and Retry

If a create function returns an error, the creating caller receives that
error verbatim and every blocked caller receives a CreationError
wrapping it. The key is evicted immediately, so the next Get for the key
runs a fresh creation attempt. A transient failure therefore never
poisons its key:

	_, err := reg.Get(ctx, "cfg", failingLoad) // error
	v, err := reg.Get(ctx, "cfg", workingLoad) // succeeds, cached

# Cycle Detection

When a creation ends up waiting, directly or through other in-flight
creations, on its own key, Get returns a *CycleError naming the ordered
key chain. errors.Is(err, singlet.ErrCycle) matches it:

	_, err := reg.Get(ctx, "a", func(ctx context.Context) (int, error) {
	    return reg.Get(ctx, "a", ...) // self-request
	})
	// errors.Is(err, singlet.ErrCycle) == true

Only the participants of the cycle fail; unrelated creations proceed.

# Invalidation

Invalidate and Clear evict cached values so later Gets re-create them.
They bypass single-flight protection, so callers must ensure no creation
for the affected keys is in flight:

	reg.Invalidate("primary-db")
	n := reg.Clear()

# Observability

Logging, OpenTelemetry metrics and tracing, lifecycle events, and a
creation journal are all opt-in:

	bus := event.NewBus(event.BusConfig{})
	store, _ := journal.NewSQLiteStore("creations.db")

	reg := singlet.New[string, *Database](
	    singlet.WithName("app"),
	    singlet.WithLogger(slog.Default()),
	    singlet.WithMetrics(true),
	    singlet.WithTracing(true),
	    singlet.WithEvents(bus),
	    singlet.WithJournal(store),
	    singlet.WithWaitWarning(5*time.Second),
	)

All observability defaults to off; a registry constructed with no
options performs no logging, metric, span, event, or journal work.

# Thread Safety

All Registry methods are safe for concurrent use. Get never holds a
registry-wide lock: requests for different keys proceed independently,
and a slow creation for one key does not serialize creations for others.

# Subpackages

  - slotmap: the keyed slot table underlying the registry
  - event: lifecycle event types and an in-process pub/sub bus
  - journal: creation history stores (in-memory and SQLite)
  - config: file-based configuration loading (YAML/JSON)
  - observability: logging, metrics, and tracing helpers
*/
package singlet
