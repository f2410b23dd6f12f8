package ai

import (
	"testing"

	"github.com/stretchr/testify/require"

	"github.com/pockerhead/VOIDRUN-sub000/contract"
	"github.com/pockerhead/VOIDRUN-sub000/internal/weapon"
	"github.com/pockerhead/VOIDRUN-sub000/internal/world"
	"github.com/pockerhead/VOIDRUN-sub000/logging/sinks"
)

type harness struct {
	t      *testing.T
	w      *world.World
	events *sinks.Memory
	tick   uint64
}

func newHarness(t *testing.T) *harness {
	t.Helper()
	return &harness{t: t, w: world.New("ai-test"), events: sinks.NewMemory()}
}

func (h *harness) frame(dt float64) *world.Frame {
	h.tick++
	f := world.NewFrame(h.tick, dt)
	f.Pub = h.events
	return f
}

// npc spawns an armed NPC and puts it in state before attaching its brain.
func (h *harness) npc(name string, faction contract.Faction, at contract.Vec3, state world.AIState) contract.EntityID {
	h.t.Helper()
	sword, ok := weapon.DefaultCatalog.Get("sword")
	require.True(h.t, ok)
	id, err := h.w.Spawn(world.ActorSpec{
		Name:         name,
		Faction:      faction,
		Kind:         contract.ActorKindNPC,
		Position:     at,
		MaxHealth:    100,
		MaxStamina:   100,
		StaminaRegen: 10,
		Weapon:       &sword,
		AI: &world.AIConfig{
			RetreatStaminaThreshold:       0.2,
			RetreatHealthThreshold:        0.25,
			RetreatDuration:               3,
			PatrolDirectionChangeInterval: 10,
			Profile:                       "balanced",
		},
	})
	require.NoError(h.t, err)
	world.Set(h.w, id, world.AIStateComponent, state)
	require.True(h.t, Attach(h.w, id))
	return id
}

func (h *harness) state(id contract.EntityID) world.AIState {
	h.t.Helper()
	state, ok := world.Value(h.w, id, world.AIStateComponent)
	require.True(h.t, ok)
	return state
}

func (h *harness) machine(id contract.EntityID) string {
	h.t.Helper()
	brain, ok := world.Value(h.w, id, BrainComponent)
	require.True(h.t, ok)
	return brain.Machine.Current()
}

func (h *harness) spot(observer, target contract.EntityID) {
	h.t.Helper()
	require.True(h.t, Spot(h.w, observer, target))
}

func (h *harness) kill(id contract.EntityID) {
	health, _ := world.Get(h.w, id, world.HealthComponent)
	health.Current = 0
}
