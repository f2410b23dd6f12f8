package sim

import (
	"github.com/pockerhead/VOIDRUN-sub000/contract"
	"github.com/pockerhead/VOIDRUN-sub000/internal/ai"
	"github.com/pockerhead/VOIDRUN-sub000/internal/telemetry"
	"github.com/pockerhead/VOIDRUN-sub000/internal/world"
	combatlog "github.com/pockerhead/VOIDRUN-sub000/logging/combat"
	lifecycle "github.com/pockerhead/VOIDRUN-sub000/logging/lifecycle"
)

// resolveDeaths first removes corpses whose grace period ran out, then
// handles every entity whose health reached zero since the last tick.
func (e *Engine) resolveDeaths(f *world.Frame) {
	w := e.world
	for _, id := range w.Query(world.DespawnComponent) {
		despawn, _ := world.Get(w, id, world.DespawnComponent)
		despawn.Remaining -= f.DT
		if despawn.Remaining > 0 {
			continue
		}
		ref := w.Ref(id)
		grace := despawn.Grace
		w.Remove(id)
		f.Out.Despawned(id)
		lifecycle.Despawned(f.Ctx, f.Pub, f.Tick, ref, lifecycle.DespawnedPayload{GraceSeconds: grace}, nil)
	}

	for _, id := range w.Query(world.HealthComponent) {
		if w.Alive(id) || world.Has(w, id, world.DespawnComponent) {
			continue
		}
		e.kill(f, id)
	}
}

// kill makes id a corpse. The killer is whoever dealt the last attributed
// damage.
func (e *Engine) kill(f *world.Frame, id contract.EntityID) {
	w := e.world
	killer := contract.NoEntity
	var source contract.DamageSource
	if last, ok := world.Value(w, id, world.LastAttackerComponent); ok {
		killer = last.ID
		source = last.Source
	}

	ai.ForceDead(w, f, id)
	world.Remove(w, id, world.MeleeAttackComponent)
	world.Remove(w, id, world.ParryComponent)
	world.Remove(w, id, world.StaggerComponent)
	world.Remove(w, id, world.SpottedComponent)
	world.Remove(w, id, world.MovementComponent)
	world.Set(w, id, world.DespawnComponent, world.Despawn{Remaining: e.cfg.DespawnGrace, Grace: e.cfg.DespawnGrace})

	f.Out.Died(contract.EntityDied{Entity: id, Killer: killer})
	f.Metrics.Add(telemetry.MetricEntitiesDied, 1)
	combatlog.Defeat(f.Ctx, f.Pub, f.Tick, w.Ref(killer), w.Ref(id), combatlog.DefeatPayload{Source: string(source)}, nil)
}
