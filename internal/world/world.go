// Package world stores simulation entities in a donburi ECS keyed by the
// core's own EntityID. Every iteration the simulation performs goes through
// Query, which returns IDs in ascending order so systems visit entities in a
// stable order regardless of archetype layout.
package world

import (
	"math/rand"
	"sort"

	"github.com/yohamta/donburi"
	"github.com/yohamta/donburi/component"
	"github.com/yohamta/donburi/filter"

	"github.com/pockerhead/VOIDRUN-sub000/contract"
)

// World owns the ECS, the ID index and the deterministic RNG streams.
type World struct {
	ecs    donburi.World
	index  map[contract.EntityID]donburi.Entity
	nextID contract.EntityID
	seed   string
	rngs   map[string]*rand.Rand
}

// New returns an empty world. An empty seed falls back to DefaultSeed.
func New(seed string) *World {
	if seed == "" {
		seed = DefaultSeed
	}
	return &World{
		ecs:   donburi.NewWorld(),
		index: make(map[contract.EntityID]donburi.Entity),
		seed:  seed,
		rngs:  make(map[string]*rand.Rand),
	}
}

func (w *World) Seed() string {
	return w.seed
}

// RNG returns the stream for label, creating it on first use.
func (w *World) RNG(label string) *rand.Rand {
	if rng, ok := w.rngs[label]; ok {
		return rng
	}
	rng := NewDeterministicRNG(w.seed, label)
	w.rngs[label] = rng
	return rng
}

// Entry resolves id to its live ECS entry.
func (w *World) Entry(id contract.EntityID) (*donburi.Entry, bool) {
	if w == nil {
		return nil, false
	}
	entity, ok := w.index[id]
	if !ok || !w.ecs.Valid(entity) {
		return nil, false
	}
	return w.ecs.Entry(entity), true
}

// Exists reports whether id is still in the world, corpse or not.
func (w *World) Exists(id contract.EntityID) bool {
	_, ok := w.Entry(id)
	return ok
}

func (w *World) Len() int {
	return len(w.index)
}

// IDs lists every entity in ascending order.
func (w *World) IDs() []contract.EntityID {
	ids := make([]contract.EntityID, 0, len(w.index))
	for id := range w.index {
		ids = append(ids, id)
	}
	sortIDs(ids)
	return ids
}

// Query lists, in ascending order, the entities that carry every component.
func (w *World) Query(components ...component.IComponentType) []contract.EntityID {
	layout := make([]component.IComponentType, 0, len(components)+1)
	layout = append(layout, IdentityComponent)
	layout = append(layout, components...)
	query := donburi.NewQuery(filter.Contains(layout...))
	var ids []contract.EntityID
	query.Each(w.ecs, func(entry *donburi.Entry) {
		ids = append(ids, IdentityComponent.Get(entry).ID)
	})
	sortIDs(ids)
	return ids
}

// Remove deletes id and all of its components.
func (w *World) Remove(id contract.EntityID) bool {
	entity, ok := w.index[id]
	if !ok {
		return false
	}
	delete(w.index, id)
	if w.ecs.Valid(entity) {
		w.ecs.Remove(entity)
	}
	return true
}

func (w *World) create(identity Identity) *donburi.Entry {
	w.nextID++
	identity.ID = w.nextID
	entity := w.ecs.Create(IdentityComponent)
	entry := w.ecs.Entry(entity)
	IdentityComponent.SetValue(entry, identity)
	w.index[identity.ID] = entity
	return entry
}

// Get returns a pointer to id's component. The pointer is only valid until
// the next component is added to or removed from the same entity.
func Get[T any](w *World, id contract.EntityID, c *donburi.ComponentType[T]) (*T, bool) {
	entry, ok := w.Entry(id)
	if !ok || !entry.HasComponent(c) {
		return nil, false
	}
	return c.Get(entry), true
}

// Value returns a copy of id's component.
func Value[T any](w *World, id contract.EntityID, c *donburi.ComponentType[T]) (T, bool) {
	ptr, ok := Get(w, id, c)
	if !ok {
		var zero T
		return zero, false
	}
	return *ptr, true
}

// Set attaches or overwrites id's component.
func Set[T any](w *World, id contract.EntityID, c *donburi.ComponentType[T], value T) bool {
	entry, ok := w.Entry(id)
	if !ok {
		return false
	}
	if !entry.HasComponent(c) {
		entry.AddComponent(c)
	}
	c.SetValue(entry, value)
	return true
}

// Remove detaches id's component and reports whether it was present.
func Remove[T any](w *World, id contract.EntityID, c *donburi.ComponentType[T]) bool {
	entry, ok := w.Entry(id)
	if !ok || !entry.HasComponent(c) {
		return false
	}
	entry.RemoveComponent(c)
	return true
}

// Has reports whether id carries c.
func Has(w *World, id contract.EntityID, c component.IComponentType) bool {
	entry, ok := w.Entry(id)
	return ok && entry.HasComponent(c)
}

func sortIDs(ids []contract.EntityID) {
	sort.Slice(ids, func(i, j int) bool { return ids[i] < ids[j] })
}
