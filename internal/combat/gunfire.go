package combat

import (
	"github.com/pockerhead/VOIDRUN-sub000/contract"
	"github.com/pockerhead/VOIDRUN-sub000/internal/world"
)

// InvestigateSpread bounds the offset added to a shot's origin on each
// ground axis, modelling imprecise sound localisation.
const InvestigateSpread = 3.0

// GunfireAlert tells one listener it heard a shot and where to look.
type GunfireAlert struct {
	Listener contract.EntityID
	Shooter  contract.EntityID
	Point    contract.Vec3
	Hostile  bool
}

// HearGunfire finds every living AI entity, other than the shooter and not
// already in Combat, within HearingRange of the shot. Offsets are drawn from
// the hearing stream in ascending listener order.
func HearGunfire(w *world.World, fired contract.WeaponFired) []GunfireAlert {
	if fired.HearingRange <= 0 {
		return nil
	}
	var alerts []GunfireAlert
	rng := w.RNG(world.StreamHearing)
	for _, id := range w.Query(world.AIStateComponent, world.SpottedComponent) {
		if id == fired.Shooter || !damageable(w, id) {
			continue
		}
		state, _ := world.Value(w, id, world.AIStateComponent)
		if state.Kind == world.AICombat || state.Kind == world.AIDead {
			continue
		}
		position, ok := w.Position(id)
		if !ok || contract.Distance(position, fired.Position) > fired.HearingRange {
			continue
		}
		point := contract.Vec3{
			X: fired.Position.X + world.RandomOffset(rng, InvestigateSpread),
			Y: fired.Position.Y,
			Z: fired.Position.Z + world.RandomOffset(rng, InvestigateSpread),
		}
		alerts = append(alerts, GunfireAlert{
			Listener: id,
			Shooter:  fired.Shooter,
			Point:    point,
			Hostile:  w.Hostile(id, fired.Shooter),
		})
	}
	return alerts
}
