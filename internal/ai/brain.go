// Package ai runs the per-entity finite-state machine that drives NPCs
// between Idle, Patrol, Combat, Retreat and Dead. AIState in the world store
// holds the data of the active state; the looplab transition table in each
// entity's Brain decides which moves between states are legal.
package ai

import (
	"errors"

	"github.com/looplab/fsm"
	"github.com/yohamta/donburi"

	"github.com/pockerhead/VOIDRUN-sub000/contract"
	"github.com/pockerhead/VOIDRUN-sub000/internal/world"
	"github.com/pockerhead/VOIDRUN-sub000/logging"
	ailog "github.com/pockerhead/VOIDRUN-sub000/logging/ai"
)

// Transition events.
const (
	EventPatrol  = "patrol"
	EventEngage  = "engage"
	EventRetreat = "retreat"
	EventDie     = "die"
)

var (
	stateIdle    = string(world.AIIdle)
	statePatrol  = string(world.AIPatrol)
	stateCombat  = string(world.AICombat)
	stateRetreat = string(world.AIRetreat)
	stateDead    = string(world.AIDead)
)

// Transitions is the legal move table. Nothing leaves dead.
var Transitions = fsm.Events{
	{Name: EventPatrol, Src: []string{stateIdle, statePatrol, stateCombat, stateRetreat}, Dst: statePatrol},
	{Name: EventEngage, Src: []string{stateIdle, statePatrol, stateCombat, stateRetreat}, Dst: stateCombat},
	{Name: EventRetreat, Src: []string{stateCombat}, Dst: stateRetreat},
	{Name: EventDie, Src: []string{stateIdle, statePatrol, stateCombat, stateRetreat}, Dst: stateDead},
}

// Brain is the controller state an NPC carries next to its AIState.
// Override is a reactive movement that takes precedence over patrol
// movement; Provoked requests target acquisition outside the perception
// slice.
type Brain struct {
	Machine  *fsm.FSM
	Override *contract.MovementIntent
	Provoked bool
}

var BrainComponent = donburi.NewComponentType[Brain]()

func newMachine(initial world.AIStateKind) *fsm.FSM {
	return fsm.NewFSM(string(initial), Transitions, fsm.Callbacks{})
}

// Attach gives id a brain synchronised with its current AIState. Entities
// without an AIConfig are not AI-driven and are left alone.
func Attach(w *world.World, id contract.EntityID) bool {
	if !world.Has(w, id, world.AIConfigComponent) || world.Has(w, id, BrainComponent) {
		return false
	}
	state, ok := world.Value(w, id, world.AIStateComponent)
	if !ok {
		state = world.IdleState()
		world.Set(w, id, world.AIStateComponent, state)
	}
	return world.Set(w, id, BrainComponent, Brain{Machine: newMachine(state.Kind)})
}

// transition fires event on id's machine and, when the table allows it,
// replaces the AIState with next. A self-transition is allowed and only
// updates the state data.
func transition(w *world.World, f *world.Frame, id contract.EntityID, event string, next world.AIState) bool {
	state, ok := world.Get(w, id, world.AIStateComponent)
	if !ok {
		return false
	}
	from := state.Kind
	if brain, ok := world.Get(w, id, BrainComponent); ok && brain.Machine != nil {
		if err := brain.Machine.Event(f.Ctx, event); err != nil {
			var same fsm.NoTransitionError
			if !errors.As(err, &same) {
				ailog.TransitionRefused(f.Ctx, f.Pub, f.Tick, w.Ref(id), ailog.TransitionRefusedPayload{
					State: string(from),
					Event: event,
					Error: err.Error(),
				}, nil)
				return false
			}
		}
	} else if from == world.AIDead {
		return false
	}
	*state = next

	if from != next.Kind {
		var target *logging.EntityRef
		if next.Target.Valid() {
			ref := w.Ref(next.Target)
			target = &ref
		}
		ailog.StateChanged(f.Ctx, f.Pub, f.Tick, w.Ref(id), target, ailog.StateChangedPayload{
			From:  string(from),
			To:    string(next.Kind),
			Event: event,
		}, nil)
	}
	return true
}

func brainOf(w *world.World, id contract.EntityID) (*Brain, bool) {
	return world.Get(w, id, BrainComponent)
}

// clearOverride drops any reactive movement id was following.
func clearOverride(w *world.World, id contract.EntityID) {
	if brain, ok := brainOf(w, id); ok {
		brain.Override = nil
	}
}
