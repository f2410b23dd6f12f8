package combat

import (
	"testing"

	"github.com/stretchr/testify/require"

	"github.com/pockerhead/VOIDRUN-sub000/contract"
	"github.com/pockerhead/VOIDRUN-sub000/internal/telemetry"
	"github.com/pockerhead/VOIDRUN-sub000/internal/weapon"
	"github.com/pockerhead/VOIDRUN-sub000/internal/world"
	"github.com/pockerhead/VOIDRUN-sub000/logging/sinks"
)

type harness struct {
	t       *testing.T
	w       *world.World
	events  *sinks.Memory
	metrics *telemetry.Counters
	tick    uint64
}

func newHarness(t *testing.T) *harness {
	t.Helper()
	return &harness{
		t:       t,
		w:       world.New("combat-test"),
		events:  sinks.NewMemory(),
		metrics: telemetry.NewCounters(),
	}
}

func (h *harness) frame(dt float64) *world.Frame {
	h.tick++
	f := world.NewFrame(h.tick, dt)
	f.Pub = h.events
	f.Metrics = h.metrics
	return f
}

// blade has binary-exact timings so phase tests can step without drift.
func blade() weapon.Stats {
	return weapon.Stats{
		Name:                "test_blade",
		Kind:                weapon.KindMelee,
		CanBlock:            true,
		CanParry:            true,
		BaseDamage:          20,
		AttackCooldown:      1,
		WindupDuration:      0.5,
		AttackDuration:      0.5,
		RecoveryDuration:    0.5,
		ParryWindow:         0.25,
		ParryActiveDuration: 0.5,
		StaggerDuration:     1,
		Range:               2,
	}
}

func catalogWeapon(t *testing.T, name string) weapon.Stats {
	t.Helper()
	stats, ok := weapon.DefaultCatalog.Get(name)
	require.True(t, ok, name)
	return stats
}

func (h *harness) npc(name string, faction contract.Faction, stats weapon.Stats, at contract.Vec3) contract.EntityID {
	h.t.Helper()
	id, err := h.w.Spawn(world.ActorSpec{
		Name:         name,
		Faction:      faction,
		Kind:         contract.ActorKindNPC,
		Position:     at,
		MaxHealth:    100,
		MaxStamina:   100,
		StaminaRegen: 10,
		Weapon:       &stats,
		AI: &world.AIConfig{
			RetreatStaminaThreshold:       0.2,
			RetreatHealthThreshold:        0.25,
			RetreatDuration:               3,
			PatrolDirectionChangeInterval: 4,
			Profile:                       "balanced",
		},
	})
	require.NoError(h.t, err)
	return id
}

func (h *harness) shielded(name string, faction contract.Faction, at contract.Vec3) contract.EntityID {
	h.t.Helper()
	stats := blade()
	id, err := h.w.Spawn(world.ActorSpec{
		Name:         name,
		Faction:      faction,
		Kind:         contract.ActorKindNPC,
		Position:     at,
		MaxHealth:    100,
		MaxStamina:   100,
		StaminaRegen: 10,
		Shield:       &world.ShieldSpec{MaxEnergy: 100, RechargeDelay: 2, RechargeRate: 10},
		Weapon:       &stats,
		AI:           &world.AIConfig{RetreatDuration: 3, PatrolDirectionChangeInterval: 4, Profile: "balanced"},
	})
	require.NoError(h.t, err)
	return id
}

func (h *harness) health(id contract.EntityID) uint32 {
	h.t.Helper()
	health, ok := world.Value(h.w, id, world.HealthComponent)
	require.True(h.t, ok)
	return health.Current
}

func (h *harness) swing(id contract.EntityID, phase world.MeleePhase, target contract.EntityID) {
	h.t.Helper()
	require.True(h.t, world.Set(h.w, id, world.MeleeAttackComponent, world.MeleeAttackState{
		Phase:      phase,
		PhaseTimer: 0.25,
		Timing:     world.MeleeTiming{Windup: 0.5, ParryWindow: 0.25, Hitbox: 0.25, Recovery: 0.5},
		AttackType: contract.AttackLight,
		Target:     target,
	}))
}

func (h *harness) engage(id, target contract.EntityID) {
	h.t.Helper()
	require.True(h.t, world.Set(h.w, id, world.AIStateComponent, world.CombatState(target)))
}
