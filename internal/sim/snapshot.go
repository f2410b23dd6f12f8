package sim

import (
	"crypto/sha256"
	"encoding/hex"
	"encoding/json"

	"github.com/pockerhead/VOIDRUN-sub000/contract"
	"github.com/pockerhead/VOIDRUN-sub000/internal/resource"
	"github.com/pockerhead/VOIDRUN-sub000/internal/weapon"
	"github.com/pockerhead/VOIDRUN-sub000/internal/world"
)

// EntityState is the checksummed slice of one entity.
type EntityState struct {
	ID        contract.EntityID      `json:"id"`
	Health    resource.Health        `json:"health"`
	Stamina   resource.Stamina       `json:"stamina"`
	Shield    *resource.EnergyShield `json:"shield,omitempty"`
	AI        world.AIState          `json:"ai"`
	Transform world.Transform        `json:"transform"`
}

// Snapshot is the world state at the end of a tick, sorted by ID.
type Snapshot struct {
	Tick     uint64        `json:"tick"`
	Entities []EntityState `json:"entities"`
}

func takeSnapshot(w *world.World, tick uint64) Snapshot {
	ids := w.Query(world.HealthComponent)
	snapshot := Snapshot{Tick: tick, Entities: make([]EntityState, 0, len(ids))}
	for _, id := range ids {
		state := EntityState{ID: id}
		state.Health, _ = world.Value(w, id, world.HealthComponent)
		state.Stamina, _ = world.Value(w, id, world.StaminaComponent)
		if shield, ok := world.Value(w, id, world.ShieldComponent); ok {
			state.Shield = &shield
		}
		state.AI, _ = world.Value(w, id, world.AIStateComponent)
		state.Transform, _ = world.Value(w, id, world.TransformComponent)
		snapshot.Entities = append(snapshot.Entities, state)
	}
	return snapshot
}

func (s Snapshot) encode() (json.RawMessage, string, error) {
	data, err := json.Marshal(s.Entities)
	if err != nil {
		return nil, "", err
	}
	sum := sha256.Sum256(data)
	return data, hex.EncodeToString(sum[:]), nil
}

// Checksum hashes the snapshot entities. The tick itself is not part of
// the digest.
func (s Snapshot) Checksum() (string, error) {
	_, sum, err := s.encode()
	return sum, err
}

// Snapshot captures the current state.
func (e *Engine) Snapshot() Snapshot {
	e.mu.Lock()
	defer e.mu.Unlock()
	return takeSnapshot(e.world, e.Tick())
}

// Checksum digests the current state.
func (e *Engine) Checksum() (string, error) {
	return e.Snapshot().Checksum()
}

// Observation is everything a presentation collaborator may read about one
// entity, including its transient phase machines.
type Observation struct {
	ID        contract.EntityID        `json:"id"`
	Identity  world.Identity           `json:"identity"`
	Transform world.Transform          `json:"transform"`
	Health    resource.Health          `json:"health"`
	Stamina   resource.Stamina         `json:"stamina"`
	Shield    *resource.EnergyShield   `json:"shield,omitempty"`
	Weapon    weapon.Stats             `json:"weapon"`
	Melee     *world.MeleeAttackState  `json:"melee,omitempty"`
	Parry     *world.ParryState        `json:"parry,omitempty"`
	Stagger   *world.StaggerState      `json:"stagger,omitempty"`
	AI        world.AIState            `json:"ai"`
	Movement  *contract.MovementIntent `json:"movement,omitempty"`
	Despawn   *world.Despawn           `json:"despawn,omitempty"`
}

// Observe reads one entity. It reports false for unknown or despawned IDs.
func (e *Engine) Observe(id contract.EntityID) (Observation, bool) {
	e.mu.Lock()
	defer e.mu.Unlock()
	w := e.world
	identity, ok := w.Identity(id)
	if !ok {
		return Observation{}, false
	}
	obs := Observation{ID: id, Identity: identity}
	obs.Transform, _ = world.Value(w, id, world.TransformComponent)
	obs.Health, _ = world.Value(w, id, world.HealthComponent)
	obs.Stamina, _ = world.Value(w, id, world.StaminaComponent)
	obs.Weapon, _ = world.Value(w, id, world.WeaponComponent)
	obs.AI, _ = world.Value(w, id, world.AIStateComponent)
	if v, ok := world.Value(w, id, world.ShieldComponent); ok {
		obs.Shield = &v
	}
	if v, ok := world.Value(w, id, world.MeleeAttackComponent); ok {
		v.HitEntities = append([]contract.EntityID(nil), v.HitEntities...)
		obs.Melee = &v
	}
	if v, ok := world.Value(w, id, world.ParryComponent); ok {
		obs.Parry = &v
	}
	if v, ok := world.Value(w, id, world.StaggerComponent); ok {
		obs.Stagger = &v
	}
	if v, ok := world.Value(w, id, world.MovementComponent); ok {
		obs.Movement = &v.Intent
	}
	if v, ok := world.Value(w, id, world.DespawnComponent); ok {
		obs.Despawn = &v
	}
	return obs, true
}
