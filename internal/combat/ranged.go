package combat

import (
	"github.com/pockerhead/VOIDRUN-sub000/contract"
	"github.com/pockerhead/VOIDRUN-sub000/internal/world"
)

// MinFireRange is the distance inside which the tactical validator refuses
// fire intents.
const MinFireRange = 1.5

// FireEligible reports whether id may emit a fire intent this tick.
func FireEligible(w *world.World, id contract.EntityID) bool {
	if !damageable(w, id) {
		return false
	}
	state, ok := world.Value(w, id, world.AIStateComponent)
	if !ok || state.Kind != world.AICombat || !damageable(w, state.Target) {
		return false
	}
	stats, ok := world.Value(w, id, world.WeaponComponent)
	if !ok || !stats.Ranged() || !stats.Ready() {
		return false
	}
	if world.Has(w, id, world.MeleeAttackComponent) || world.Has(w, id, world.StaggerComponent) || world.Has(w, id, world.ParryComponent) {
		return false
	}
	// A hybrid in swinging distance prefers the blade.
	if stats.Melee() {
		if d, ok := groundDistance(w, id, state.Target); ok && d <= reach(stats) {
			return false
		}
	}
	return true
}

// Fire emits a FireIntent for every eligible AI combatant and restarts its
// cooldown immediately, whether or not the shot is later approved.
func Fire(w *world.World, f *world.Frame) {
	for _, id := range w.Query(world.AIConfigComponent, world.WeaponComponent) {
		if !FireEligible(w, id) {
			continue
		}
		intent, ok := FireIntentFor(w, id)
		if !ok {
			continue
		}
		if stats, ok := world.Get(w, id, world.WeaponComponent); ok {
			stats.StartCooldown()
		}
		f.Out.Fire(intent)
	}
}

// FireIntentFor builds the intent id would fire at its combat target.
func FireIntentFor(w *world.World, id contract.EntityID) (contract.FireIntent, bool) {
	state, ok := world.Value(w, id, world.AIStateComponent)
	if !ok || state.Kind != world.AICombat {
		return contract.FireIntent{}, false
	}
	stats, ok := world.Value(w, id, world.WeaponComponent)
	if !ok {
		return contract.FireIntent{}, false
	}
	damage := stats.BaseDamage
	if stamina, ok := world.Value(w, id, world.StaminaComponent); ok {
		damage *= stamina.DamageMultiplier()
	}
	return contract.FireIntent{
		Shooter:      id,
		Target:       state.Target,
		Damage:       damage,
		Speed:        stats.ProjectileSpeed,
		MaxRange:     stats.Range,
		HearingRange: stats.HearingRange,
	}, true
}
