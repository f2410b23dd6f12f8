package ai

import (
	"github.com/pockerhead/VOIDRUN-sub000/contract"
	"github.com/pockerhead/VOIDRUN-sub000/internal/world"
)

// Navigate applies pathfinding feedback. Arriving clears the reactive
// override and the patrol destination; an unreachable destination also
// expires the patrol timer so a new one is sampled on the next tick.
func Navigate(w *world.World, outcome contract.NavigationOutcome) bool {
	brain, ok := brainOf(w, outcome.Entity)
	if !ok || !living(w, outcome.Entity) {
		return false
	}
	brain.Override = nil
	state, ok := world.Get(w, outcome.Entity, world.AIStateComponent)
	if !ok || state.Kind != world.AIPatrol {
		return true
	}
	state.PatrolTarget = nil
	if outcome.Result == contract.NavigationUnreachable {
		state.Timer = 0
	}
	return true
}
