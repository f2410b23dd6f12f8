package world

import (
	"testing"

	"github.com/stretchr/testify/require"

	"github.com/pockerhead/VOIDRUN-sub000/contract"
	"github.com/pockerhead/VOIDRUN-sub000/internal/weapon"
)

func sword() *weapon.Stats {
	stats, _ := weapon.DefaultCatalog.Get("sword")
	return &stats
}

func npcSpec(name string, faction contract.Faction) ActorSpec {
	return ActorSpec{
		Name:         name,
		Faction:      faction,
		Kind:         contract.ActorKindNPC,
		MaxHealth:    100,
		MaxStamina:   100,
		StaminaRegen: 10,
		Weapon:       sword(),
		AI:           &AIConfig{RetreatStaminaThreshold: 0.2, RetreatHealthThreshold: 0.25, RetreatDuration: 3, PatrolDirectionChangeInterval: 4, Profile: "balanced"},
	}
}

func TestSpawnFailsFast(t *testing.T) {
	w := New("test")

	unarmed := npcSpec("unarmed", contract.FactionRaiders)
	unarmed.Weapon = nil
	_, err := w.Spawn(unarmed)
	require.ErrorIs(t, err, ErrMissingWeapon)

	broken := npcSpec("broken", contract.FactionRaiders)
	broken.Weapon = &weapon.Stats{Name: "bad", Kind: weapon.KindMelee}
	_, err = w.Spawn(broken)
	require.ErrorIs(t, err, ErrInvalidWeapon)

	hollow := npcSpec("hollow", contract.FactionRaiders)
	hollow.MaxHealth = 0
	_, err = w.Spawn(hollow)
	require.ErrorIs(t, err, ErrInvalidResource)

	shielded := npcSpec("shielded", contract.FactionRaiders)
	shielded.Shield = &ShieldSpec{MaxEnergy: -1}
	_, err = w.Spawn(shielded)
	require.ErrorIs(t, err, ErrInvalidResource)

	brainless := npcSpec("brainless", contract.FactionRaiders)
	brainless.AI = nil
	_, err = w.Spawn(brainless)
	require.ErrorIs(t, err, ErrInvalidActor)

	require.Zero(t, w.Len(), "failed spawns must not leave entities behind")
}

func TestSpawnAttachesComponents(t *testing.T) {
	w := New("test")
	spec := npcSpec("grunt", contract.FactionRaiders)
	spec.Shield = &ShieldSpec{MaxEnergy: 50, RechargeDelay: 1, RechargeRate: 5}
	id, err := w.Spawn(spec)
	require.NoError(t, err)

	state, ok := Value(w, id, AIStateComponent)
	require.True(t, ok)
	require.Equal(t, AIIdle, state.Kind)
	require.True(t, Has(w, id, ShieldComponent))
	require.True(t, Has(w, id, SpottedComponent))
	require.False(t, Has(w, id, PlayerComponent))
	require.True(t, w.Alive(id))

	player := npcSpec("hero", contract.FactionPlayer)
	player.Kind = contract.ActorKindPlayer
	player.AI = nil
	pid, err := w.Spawn(player)
	require.NoError(t, err)
	require.True(t, Has(w, pid, PlayerComponent))
	require.False(t, Has(w, pid, AIConfigComponent))
	require.True(t, w.Hostile(id, pid))
	require.Equal(t, "player", string(w.Ref(pid).Kind))
}

func TestQueryIsSortedAndFiltered(t *testing.T) {
	w := New("test")
	var ids []contract.EntityID
	for i := 0; i < 6; i++ {
		id, err := w.Spawn(npcSpec("n", contract.FactionSynths))
		require.NoError(t, err)
		ids = append(ids, id)
	}
	// Shuffle archetypes so donburi iteration order differs from ID order.
	Set(w, ids[1], StaggerComponent, StaggerState{Remaining: 1})
	Set(w, ids[4], MeleeAttackComponent, MeleeAttackState{})
	Set(w, ids[0], StaggerComponent, StaggerState{Remaining: 1})

	require.Equal(t, ids, w.Query(HealthComponent))
	require.Equal(t, []contract.EntityID{ids[0], ids[1]}, w.Query(StaggerComponent))

	require.True(t, Remove(w, ids[1], StaggerComponent))
	require.False(t, Remove(w, ids[1], StaggerComponent))
	require.True(t, w.Remove(ids[2]))
	require.False(t, w.Exists(ids[2]))
	require.Len(t, w.IDs(), 5)
}

func TestMarkHitKeepsSortedSet(t *testing.T) {
	var attack MeleeAttackState
	require.True(t, attack.MarkHit(9))
	require.True(t, attack.MarkHit(3))
	require.False(t, attack.MarkHit(9))
	require.True(t, attack.MarkHit(5))
	require.Equal(t, []contract.EntityID{3, 5, 9}, attack.HitEntities)
	require.True(t, attack.HasHit(5))
	require.False(t, attack.HasHit(4))
}

func TestSpottedEnemiesPreservesOrder(t *testing.T) {
	var spotted SpottedEnemies
	require.True(t, spotted.Add(7))
	require.True(t, spotted.Add(2))
	require.False(t, spotted.Add(7))
	require.False(t, spotted.Add(contract.NoEntity))
	spotted.Retain(func(id contract.EntityID) bool { return id != 7 })
	require.Equal(t, []contract.EntityID{2}, spotted.IDs)
	require.True(t, spotted.Remove(2))
	require.Empty(t, spotted.IDs)
}

func TestRNGStreamsAreIndependentAndStable(t *testing.T) {
	a := New("seed-1")
	b := New("seed-1")
	first := a.RNG(StreamPatrol).Float64()
	a.RNG(StreamHearing).Float64()
	second := a.RNG(StreamPatrol).Float64()

	require.Equal(t, first, b.RNG(StreamPatrol).Float64())
	require.Equal(t, second, b.RNG(StreamPatrol).Float64(), "draws on another stream must not shift this one")
	require.NotEqual(t, DeterministicSeedValue("seed-1", StreamPatrol), DeterministicSeedValue("seed-2", StreamPatrol))

	for i := 0; i < 100; i++ {
		v := RandomOffset(a.RNG(StreamHearing), 3)
		require.GreaterOrEqual(t, v, -3.0)
		require.LessOrEqual(t, v, 3.0)
	}
}
