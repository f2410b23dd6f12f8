package ai

import (
	"math"

	"github.com/pockerhead/VOIDRUN-sub000/contract"
	"github.com/pockerhead/VOIDRUN-sub000/internal/world"
)

// Patrol destinations are sampled in this annulus around the entity.
const (
	PatrolMinDistance = 5.0
	PatrolMaxDistance = 15.0
)

// Update evaluates every NPC's state machine for one tick. perceive marks
// the perception slice, the only tick on which unprovoked entities acquire
// or re-acquire targets.
func Update(w *world.World, f *world.Frame, perceive bool) {
	for _, id := range w.Query(BrainComponent, world.AIStateComponent, world.AIConfigComponent) {
		state, _ := world.Value(w, id, world.AIStateComponent)
		if state.Kind == world.AIDead || !w.Alive(id) {
			continue
		}
		brain, _ := brainOf(w, id)
		acquire := perceive || brain.Provoked
		brain.Provoked = false

		switch state.Kind {
		case world.AIIdle:
			// An investigation seeded while idle survives the first patrol leg.
			next := world.PatrolState(state.Timer)
			next.PatrolTarget = state.PatrolTarget
			transition(w, f, id, EventPatrol, next)
		case world.AIPatrol:
			patrol(w, f, id, acquire)
		case world.AICombat:
			fight(w, f, id, state, acquire)
		case world.AIRetreat:
			retreat(w, f, id, state)
		}
	}
}

func engage(w *world.World, f *world.Frame, id, target contract.EntityID) bool {
	if !transition(w, f, id, EventEngage, world.CombatState(target)) {
		return false
	}
	clearOverride(w, id)
	return true
}

func fallBackToPatrol(w *world.World, f *world.Frame, id contract.EntityID) {
	if transition(w, f, id, EventPatrol, world.PatrolState(0)) {
		clearOverride(w, id)
	}
}

func patrol(w *world.World, f *world.Frame, id contract.EntityID, acquire bool) {
	if acquire {
		if target, ok := firstLiving(w, id); ok {
			engage(w, f, id, target)
			return
		}
	}
	live, _ := world.Get(w, id, world.AIStateComponent)
	live.Timer -= f.DT
	if live.Timer > 0 {
		return
	}
	cfg, _ := world.Value(w, id, world.AIConfigComponent)
	destination := samplePatrolTarget(w, id)
	live.PatrolTarget = &destination
	live.Timer = cfg.PatrolDirectionChangeInterval
	clearOverride(w, id)
}

// samplePatrolTarget draws a point in the patrol annulus around id from the
// patrol stream.
func samplePatrolTarget(w *world.World, id contract.EntityID) contract.Vec3 {
	origin, _ := w.Position(id)
	rng := w.RNG(world.StreamPatrol)
	angle := world.RandomAngle(rng)
	distance := world.RandomDistance(rng, PatrolMinDistance, PatrolMaxDistance)
	return contract.Vec3{
		X: origin.X + math.Cos(angle)*distance,
		Y: origin.Y,
		Z: origin.Z + math.Sin(angle)*distance,
	}
}

// ShouldRetreat reports whether id is depleted enough to disengage. A swing
// in progress always finishes first.
func ShouldRetreat(w *world.World, id contract.EntityID) bool {
	if world.Has(w, id, world.MeleeAttackComponent) {
		return false
	}
	cfg, ok := world.Value(w, id, world.AIConfigComponent)
	if !ok {
		return false
	}
	if stamina, ok := world.Value(w, id, world.StaminaComponent); ok && stamina.Fraction() < cfg.RetreatStaminaThreshold {
		return true
	}
	health, ok := world.Value(w, id, world.HealthComponent)
	return ok && health.Fraction() < cfg.RetreatHealthThreshold
}

func fight(w *world.World, f *world.Frame, id contract.EntityID, state world.AIState, acquire bool) {
	if ShouldRetreat(w, id) {
		cfg, _ := world.Value(w, id, world.AIConfigComponent)
		if transition(w, f, id, EventRetreat, world.RetreatState(cfg.RetreatDuration, state.Target)) {
			clearOverride(w, id)
		}
		return
	}
	if !acquire {
		return
	}
	spotted, _ := world.Value(w, id, world.SpottedComponent)
	if spotted.Contains(state.Target) && living(w, state.Target) {
		return
	}
	if next, ok := firstLiving(w, id); ok {
		engage(w, f, id, next)
		return
	}
	fallBackToPatrol(w, f, id)
}

func retreat(w *world.World, f *world.Frame, id contract.EntityID, state world.AIState) {
	live, _ := world.Get(w, id, world.AIStateComponent)
	live.Timer -= f.DT
	if live.Timer > 0 {
		return
	}
	if from := state.Target; from.Valid() && living(w, from) {
		if spotted, ok := world.Get(w, id, world.SpottedComponent); ok {
			spotted.Add(from)
		}
		engage(w, f, id, from)
		return
	}
	if next, ok := firstLiving(w, id); ok {
		engage(w, f, id, next)
		return
	}
	fallBackToPatrol(w, f, id)
}
