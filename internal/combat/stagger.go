package combat

import (
	"github.com/pockerhead/VOIDRUN-sub000/contract"
	"github.com/pockerhead/VOIDRUN-sub000/internal/world"
	combatlog "github.com/pockerhead/VOIDRUN-sub000/logging/combat"
)

// Stagger cancels attacker's swing and staggers it for its own weapon's
// stagger duration. An existing stagger is extended, never shortened.
func Stagger(w *world.World, f *world.Frame, attacker, parriedBy contract.EntityID) {
	if !w.Exists(attacker) {
		return
	}
	duration := 0.0
	if stats, ok := world.Value(w, attacker, world.WeaponComponent); ok {
		duration = stats.StaggerDuration
	}
	CancelAttack(w, attacker)
	if current, ok := world.Value(w, attacker, world.StaggerComponent); ok && current.Remaining > duration {
		duration = current.Remaining
	}
	world.Set(w, attacker, world.StaggerComponent, world.StaggerState{Remaining: duration, ParriedBy: parriedBy})

	f.Out.Stagger(contract.Staggered{Entity: attacker, ParriedBy: parriedBy, Duration: duration})
	combatlog.Stagger(f.Ctx, f.Pub, f.Tick, w.Ref(attacker), w.Ref(parriedBy), combatlog.StaggerPayload{Duration: duration}, nil)
}

// AdvanceStaggers counts staggers down and removes the expired ones.
func AdvanceStaggers(w *world.World, f *world.Frame) {
	for _, id := range w.Query(world.StaggerComponent) {
		stagger, _ := world.Get(w, id, world.StaggerComponent)
		stagger.Remaining -= f.DT
		if stagger.Remaining <= 0 {
			world.Remove(w, id, world.StaggerComponent)
		}
	}
}
