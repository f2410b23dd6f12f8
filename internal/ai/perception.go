package ai

import (
	"github.com/pockerhead/VOIDRUN-sub000/contract"
	"github.com/pockerhead/VOIDRUN-sub000/internal/world"
)

// living reports whether id can still be fought.
func living(w *world.World, id contract.EntityID) bool {
	return w.Alive(id) && !w.Dead(id)
}

// Spot records that observer sees target. Same-faction sightings, dead
// observers and dead targets are ignored.
func Spot(w *world.World, observer, target contract.EntityID) bool {
	if !living(w, observer) || !living(w, target) || !w.Hostile(observer, target) {
		return false
	}
	spotted, ok := world.Get(w, observer, world.SpottedComponent)
	if !ok {
		return false
	}
	return spotted.Add(target)
}

// Lose removes target from observer's spotted list.
func Lose(w *world.World, observer, target contract.EntityID) bool {
	spotted, ok := world.Get(w, observer, world.SpottedComponent)
	if !ok {
		return false
	}
	return spotted.Remove(target)
}

// PruneDead drops dead and despawned entities from every spotted list.
func PruneDead(w *world.World) {
	keep := func(id contract.EntityID) bool { return living(w, id) }
	for _, id := range w.Query(world.SpottedComponent) {
		spotted, _ := world.Get(w, id, world.SpottedComponent)
		spotted.Retain(keep)
	}
}

// firstLiving returns the earliest-spotted enemy that is still alive.
func firstLiving(w *world.World, id contract.EntityID) (contract.EntityID, bool) {
	spotted, ok := world.Value(w, id, world.SpottedComponent)
	if !ok {
		return contract.NoEntity, false
	}
	for _, enemy := range spotted.IDs {
		if living(w, enemy) {
			return enemy, true
		}
	}
	return contract.NoEntity, false
}
