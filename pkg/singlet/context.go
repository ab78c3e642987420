package singlet

import (
	"context"

	"github.com/randalmurphal/singlet/pkg/singlet/slotmap"
)

// frameKey is the context key for the creation frame chain.
type frameKey struct{}

// creationFrame marks that the current execution context is populating a
// slot. Frames chain through prev, so a create function that itself
// requests other keys (possibly from other registries) keeps every
// enclosing creation discoverable.
//
// This is the task-local equivalent of a per-thread "current creation"
// pointer: it travels on the context handed to the create function, so
// create functions must thread that context into any nested Get calls
// for re-entrancy and cycle detection to work.
type creationFrame struct {
	prev     *creationFrame
	registry any
	slot     any
}

// withCreation pushes a creation frame onto ctx.
func withCreation(ctx context.Context, registry, slot any) context.Context {
	prev, _ := ctx.Value(frameKey{}).(*creationFrame)
	return context.WithValue(ctx, frameKey{}, &creationFrame{
		prev:     prev,
		registry: registry,
		slot:     slot,
	})
}

// creationSlot returns the innermost slot the current execution context
// is populating for the given registry, or nil if it is not creating
// anything there.
func creationSlot[K comparable, V any](ctx context.Context, r *Registry[K, V]) *slotmap.Slot[K, V] {
	for f, _ := ctx.Value(frameKey{}).(*creationFrame); f != nil; f = f.prev {
		if f.registry == any(r) {
			return f.slot.(*slotmap.Slot[K, V])
		}
	}
	return nil
}
