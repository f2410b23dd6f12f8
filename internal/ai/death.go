package ai

import (
	"github.com/pockerhead/VOIDRUN-sub000/contract"
	"github.com/pockerhead/VOIDRUN-sub000/internal/world"
)

// ForceDead moves id into the absorbing Dead state and drops its reactive
// override. It reports false when id was already dead or is unknown.
func ForceDead(w *world.World, f *world.Frame, id contract.EntityID) bool {
	state, ok := world.Value(w, id, world.AIStateComponent)
	if !ok || state.Kind == world.AIDead {
		return false
	}
	if !transition(w, f, id, EventDie, world.DeadState()) {
		return false
	}
	if brain, ok := brainOf(w, id); ok {
		brain.Override = nil
		brain.Provoked = false
	}
	return true
}
