package ai

import (
	"github.com/pockerhead/VOIDRUN-sub000/contract"
	"github.com/pockerhead/VOIDRUN-sub000/internal/world"
)

// Intent derives id's movement from its AIState and reactive override.
func Intent(w *world.World, id contract.EntityID) contract.MovementIntent {
	state, ok := world.Value(w, id, world.AIStateComponent)
	if !ok {
		return contract.StopIntent(id)
	}
	switch state.Kind {
	case world.AIIdle, world.AIPatrol:
		if brain, ok := brainOf(w, id); ok && brain.Override != nil {
			return *brain.Override
		}
		if state.Kind == world.AIPatrol && state.PatrolTarget != nil {
			return contract.MovementIntent{Entity: id, Kind: contract.MoveTo, Position: *state.PatrolTarget}
		}
	case world.AICombat:
		if state.Target.Valid() {
			return contract.MovementIntent{Entity: id, Kind: contract.MoveFollow, Target: state.Target}
		}
	case world.AIRetreat:
		if state.Target.Valid() {
			return contract.MovementIntent{Entity: id, Kind: contract.MoveRetreatFrom, Target: state.Target}
		}
	}
	return contract.StopIntent(id)
}

// DeriveMovement re-derives and emits the movement intent of every NPC,
// corpses included. Player movement is derived from input elsewhere.
func DeriveMovement(w *world.World, f *world.Frame) {
	for _, id := range w.Query(world.AIStateComponent) {
		if world.Has(w, id, world.PlayerComponent) {
			continue
		}
		intent := Intent(w, id)
		if movement, ok := world.Get(w, id, world.MovementComponent); ok {
			movement.Intent = intent
		}
		f.Out.Move(intent)
	}
}
