package lifecycle

import (
	"context"

	"github.com/pockerhead/VOIDRUN-sub000/logging"
)

const (
	// EventSpawned is emitted when an entity joins the world.
	EventSpawned logging.EventType = "lifecycle.spawned"
	// EventDespawned is emitted when a corpse is removed from the world.
	EventDespawned logging.EventType = "lifecycle.despawned"
)

// SpawnedPayload captures spawn metadata.
type SpawnedPayload struct {
	Name    string  `json:"name,omitempty"`
	Faction string  `json:"faction"`
	Weapon  string  `json:"weapon"`
	X       float64 `json:"x"`
	Y       float64 `json:"y"`
	Z       float64 `json:"z"`
}

// DespawnedPayload captures how long the corpse persisted.
type DespawnedPayload struct {
	GraceSeconds float64 `json:"graceSeconds"`
}

// Spawned publishes an entity spawn.
func Spawned(ctx context.Context, pub logging.Publisher, tick uint64, actor logging.EntityRef, payload SpawnedPayload, extra map[string]any) {
	if pub == nil {
		return
	}
	event := logging.Event{
		Type:     EventSpawned,
		Tick:     tick,
		Actor:    actor,
		Severity: logging.SeverityInfo,
		Category: logging.CategoryLifecycle,
		Payload:  payload,
		Extra:    extra,
	}
	pub.Publish(ctx, event)
}

// Despawned publishes a corpse removal.
func Despawned(ctx context.Context, pub logging.Publisher, tick uint64, actor logging.EntityRef, payload DespawnedPayload, extra map[string]any) {
	if pub == nil {
		return
	}
	event := logging.Event{
		Type:     EventDespawned,
		Tick:     tick,
		Actor:    actor,
		Severity: logging.SeverityInfo,
		Category: logging.CategoryLifecycle,
		Payload:  payload,
		Extra:    extra,
	}
	pub.Publish(ctx, event)
}
