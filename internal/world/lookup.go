package world

import (
	"github.com/pockerhead/VOIDRUN-sub000/contract"
	"github.com/pockerhead/VOIDRUN-sub000/logging"
)

func (w *World) Identity(id contract.EntityID) (Identity, bool) {
	return Value(w, id, IdentityComponent)
}

// Alive reports whether id exists with health above zero.
func (w *World) Alive(id contract.EntityID) bool {
	health, ok := Get(w, id, HealthComponent)
	return ok && health.Alive()
}

// Dead reports whether id exists and its AI state is Dead.
func (w *World) Dead(id contract.EntityID) bool {
	state, ok := Get(w, id, AIStateComponent)
	return ok && state.Kind == AIDead
}

func (w *World) Position(id contract.EntityID) (contract.Vec3, bool) {
	transform, ok := Get(w, id, TransformComponent)
	if !ok {
		return contract.Vec3{}, false
	}
	return transform.Position, true
}

// Hostile reports whether a and b both exist and belong to opposing factions.
func (w *World) Hostile(a, b contract.EntityID) bool {
	if a == b {
		return false
	}
	ia, ok := w.Identity(a)
	if !ok {
		return false
	}
	ib, ok := w.Identity(b)
	if !ok {
		return false
	}
	return contract.Hostile(ia.Faction, ib.Faction)
}

// Ref builds the log reference for id. Unknown entities still get a ref so
// log lines about despawned entities keep their ID.
func (w *World) Ref(id contract.EntityID) logging.EntityRef {
	identity, ok := w.Identity(id)
	if !ok {
		return logging.EntityRef{ID: id, Kind: logging.EntityKindUnknown}
	}
	return logging.Entity(id, identity.Kind)
}
