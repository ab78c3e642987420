package singlet

import (
	"github.com/randalmurphal/singlet/pkg/singlet/slotmap"
)

// linkDependency records that waiting's creator is about to block on
// target, then checks whether that edge closes a cycle.
//
// The walk follows dependee pointers starting at target. An edge means
// the slot's creator is blocked on, or inline-creating, the pointed-to
// slot; blocked edges are written here, inline edges by runCreate when a
// creation nests another on the same goroutine. Each pointer is written
// and cleared only by the single goroutine that owns that slot's
// creation, and is individually atomic, so the walk may observe a stale
// edge but never a torn one. A stale edge can only make the walk
// terminate early (the other creation resolved); if a genuine cycle
// exists, every edge in it is stable because none of the involved
// creations can make progress.
//
// Revisiting any slot already seen (including waiting itself, which
// covers the length-1 self-request) means a cycle: the link is undone
// and a CycleError carrying the ordered key chain is returned. Otherwise
// the link stands and the caller must clear it after waking.
func (r *Registry[K, V]) linkDependency(waiting, target *slotmap.Slot[K, V]) *CycleError {
	waiting.SetDependee(target)

	seen := map[*slotmap.Slot[K, V]]bool{waiting: true}
	keys := []string{keyString(waiting.Key())}

	for n := target; n != nil; n = n.Dependee() {
		if seen[n] {
			waiting.ClearDependee()
			return &CycleError{Registry: r.name, Keys: keys}
		}
		seen[n] = true
		keys = append(keys, keyString(n.Key()))
	}
	return nil
}
