package tactical

import (
	"testing"

	"github.com/stretchr/testify/require"

	"github.com/pockerhead/VOIDRUN-sub000/contract"
	"github.com/pockerhead/VOIDRUN-sub000/internal/weapon"
	"github.com/pockerhead/VOIDRUN-sub000/internal/world"
)

const dt = 1.0 / 64

func spawn(t *testing.T, w *world.World, faction contract.Faction, at contract.Vec3, weaponName string) contract.EntityID {
	t.Helper()
	stats, ok := weapon.DefaultCatalog.Get(weaponName)
	require.True(t, ok)
	id, err := w.Spawn(world.ActorSpec{
		Name:         weaponName,
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
			RetreatDuration:               2,
			PatrolDirectionChangeInterval: 4,
			Profile:                       "balanced",
		},
	})
	require.NoError(t, err)
	return id
}

func wall() []Obstacle {
	return []Obstacle{{Min: contract.Vec3{X: 4, Z: -2}, Max: contract.Vec3{X: 5, Z: 2}}}
}

func kinds(in []contract.Inbound) []contract.InboundKind {
	out := make([]contract.InboundKind, len(in))
	for i, event := range in {
		out[i] = event.Kind
	}
	return out
}

func TestLineOfSightAndClearance(t *testing.T) {
	arena := NewArena(wall())
	require.False(t, arena.LineOfSight(contract.Vec3{}, contract.Vec3{X: 10}))
	require.True(t, arena.LineOfSight(contract.Vec3{}, contract.Vec3{X: 10, Z: 8}))
	require.True(t, arena.LineOfSight(contract.Vec3{}, contract.Vec3{X: 3}))
	require.False(t, arena.Clear(contract.Vec3{X: 3.8}, contract.Vec3{X: 3.9}), "body radius touches the wall")
	require.Len(t, arena.Obstacles(), 1)
}

func TestSyncTracksSpawnsAndDespawns(t *testing.T) {
	w := world.New("tactical")
	a := spawn(t, w, contract.FactionRaiders, contract.Vec3{}, "sword")
	spawn(t, w, contract.FactionSynths, contract.Vec3{X: 2}, "sword")
	arena := NewArena(nil)
	arena.Sync(w)
	require.Equal(t, 2, arena.Bodies())

	w.Remove(a)
	arena.Sync(w)
	require.Equal(t, 1, arena.Bodies())
}

func TestAttackApprovalChecksReach(t *testing.T) {
	w := world.New("tactical")
	a := spawn(t, w, contract.FactionRaiders, contract.Vec3{}, "sword")
	near := spawn(t, w, contract.FactionSynths, contract.Vec3{X: 2}, "sword")
	far := spawn(t, w, contract.FactionSynths, contract.Vec3{Z: 9}, "sword")
	r := NewReferee(NewArena(nil), DefaultConfig(), dt)

	reply := r.Respond(w, 1, []contract.Outbound{
		{Kind: contract.OutboundAttackIntent, Attack: &contract.AttackIntent{Attacker: a, AttackType: contract.AttackHeavy, Target: near}},
		{Kind: contract.OutboundAttackIntent, Attack: &contract.AttackIntent{Attacker: a, AttackType: contract.AttackLight, Target: far}},
	})
	require.GreaterOrEqual(t, len(reply), 2)
	require.Equal(t, contract.InboundAttackApproved, reply[0].Kind)
	sword, _ := weapon.DefaultCatalog.Get("sword")
	require.InDelta(t, sword.WindupDuration*1.5, reply[0].Approved.WindupDuration, 1e-9)
	require.Equal(t, contract.InboundIntentRejected, reply[1].Kind)
	require.Equal(t, ReasonOutOfReach, reply[1].Rejected.Reason)
}

func TestFireValidationAndBallistics(t *testing.T) {
	w := world.New("tactical")
	shooter := spawn(t, w, contract.FactionRaiders, contract.Vec3{}, "pistol")
	open := spawn(t, w, contract.FactionSynths, contract.Vec3{Z: 10}, "sword")
	hidden := spawn(t, w, contract.FactionSynths, contract.Vec3{X: 10}, "sword")
	tooNear := spawn(t, w, contract.FactionSynths, contract.Vec3{X: 1}, "sword")
	r := NewReferee(NewArena(wall()), DefaultConfig(), dt)

	fire := func(target contract.EntityID) contract.Outbound {
		return contract.Outbound{Kind: contract.OutboundFireIntent, Fire: &contract.FireIntent{
			Shooter: shooter, Target: target, Damage: 18, Speed: 80, MaxRange: 30, HearingRange: 25,
		}}
	}
	reply := r.validate(w, 1, []contract.Outbound{fire(open), fire(hidden), fire(tooNear)})
	require.Equal(t, []contract.InboundKind{
		contract.InboundWeaponFired,
		contract.InboundIntentRejected,
		contract.InboundIntentRejected,
	}, kinds(reply))
	require.Equal(t, ReasonNoSight, reply[1].Rejected.Reason)
	require.Equal(t, ReasonTooClose, reply[2].Rejected.Reason)
	require.Equal(t, 25.0, reply[0].Fired.HearingRange)
	require.Equal(t, 1, r.InFlight())

	// 10 units at 80 u/s is 0.125 s, eight ticks.
	require.Empty(t, r.land(w, 6))
	landed := r.land(w, 8)
	require.Len(t, landed, 1)
	require.Equal(t, contract.InboundProjectileImpact, landed[0].Kind)
	require.Equal(t, open, landed[0].Impact.Target)
	require.Equal(t, 18.0, landed[0].Impact.Damage)
	require.Equal(t, 0, r.InFlight())
}

func TestShieldedTargetsTakeShieldImpacts(t *testing.T) {
	w := world.New("tactical")
	shooter := spawn(t, w, contract.FactionRaiders, contract.Vec3{}, "pistol")
	stats, _ := weapon.DefaultCatalog.Get("sword")
	target, err := w.Spawn(world.ActorSpec{
		Name: "shielded", Faction: contract.FactionSynths, Kind: contract.ActorKindNPC,
		Position: contract.Vec3{Z: 5}, MaxHealth: 100, MaxStamina: 100, StaminaRegen: 10, Weapon: &stats,
		Shield: &world.ShieldSpec{MaxEnergy: 50, RechargeDelay: 1, RechargeRate: 10},
		AI:     &world.AIConfig{RetreatDuration: 1, PatrolDirectionChangeInterval: 1},
	})
	require.NoError(t, err)
	r := NewReferee(NewArena(nil), DefaultConfig(), dt)
	r.validate(w, 1, []contract.Outbound{{Kind: contract.OutboundFireIntent, Fire: &contract.FireIntent{
		Shooter: shooter, Target: target, Damage: 10, MaxRange: 30,
	}}})

	landed := r.land(w, 1)
	require.Len(t, landed, 1)
	require.Equal(t, contract.InboundProjectileShieldImpact, landed[0].Kind)
}

func TestHitboxScanCleavesHostilesOnly(t *testing.T) {
	w := world.New("tactical")
	a := spawn(t, w, contract.FactionRaiders, contract.Vec3{}, "sword")
	ally := spawn(t, w, contract.FactionRaiders, contract.Vec3{X: 1}, "sword")
	b := spawn(t, w, contract.FactionSynths, contract.Vec3{X: 1.5}, "sword")
	c := spawn(t, w, contract.FactionSynths, contract.Vec3{Z: -1.5}, "axe")
	spawn(t, w, contract.FactionSynths, contract.Vec3{X: 8}, "sword")
	world.Set(w, a, world.MeleeAttackComponent, world.MeleeAttackState{Phase: world.PhaseActiveHitbox, PhaseTimer: 0.1, HitEntities: []contract.EntityID{c}})
	world.Set(w, b, world.AIStateComponent, world.CombatState(a))
	r := NewReferee(NewArena(nil), DefaultConfig(), dt)

	reports := r.scanHitboxes(w)
	require.Len(t, reports, 1, "ally, already-hit and distant entities are skipped")
	require.Equal(t, b, reports[0].Damage.Target)
	require.True(t, reports[0].Damage.WasBlocked, "a defender squared up with a sword blocks")
	require.NotEqual(t, ally, reports[0].Damage.Target)

	world.Set(w, a, world.MeleeAttackComponent, world.MeleeAttackState{Phase: world.PhaseWindup, PhaseTimer: 0.1})
	require.Empty(t, r.scanHitboxes(w))
}

func TestHitboxScanScalesDamageByAttackerStamina(t *testing.T) {
	w := world.New("tactical")
	a := spawn(t, w, contract.FactionRaiders, contract.Vec3{}, "sword")
	b := spawn(t, w, contract.FactionSynths, contract.Vec3{X: 1.5}, "sword")
	world.Set(w, a, world.MeleeAttackComponent, world.MeleeAttackState{Phase: world.PhaseActiveHitbox, PhaseTimer: 0.1})
	stamina, _ := world.Get(w, a, world.StaminaComponent)
	stamina.Current = 25
	stats, _ := world.Value(w, a, world.WeaponComponent)
	r := NewReferee(NewArena(nil), DefaultConfig(), dt)

	reports := r.scanHitboxes(w)
	require.Len(t, reports, 1)
	require.Equal(t, b, reports[0].Damage.Target)
	require.InDelta(t, stats.BaseDamage*0.5, reports[0].Damage.Damage, 1e-9)
}

func TestPerceptionReportsChangesOnly(t *testing.T) {
	w := world.New("tactical")
	a := spawn(t, w, contract.FactionRaiders, contract.Vec3{}, "sword")
	b := spawn(t, w, contract.FactionSynths, contract.Vec3{Z: 6}, "sword")
	r := NewReferee(NewArena(wall()), DefaultConfig(), dt)
	r.arena.Sync(w)

	first := r.perceive(w)
	require.Equal(t, []contract.InboundKind{contract.InboundPerceptionSpotted, contract.InboundPerceptionSpotted}, kinds(first))
	require.Equal(t, a, first[0].Spotted.Observer)
	require.Empty(t, r.perceive(w))

	transform, _ := world.Get(w, b, world.TransformComponent)
	transform.Position = contract.Vec3{X: 10}
	r.arena.Sync(w)
	lost := r.perceive(w)
	require.Equal(t, []contract.InboundKind{contract.InboundPerceptionLost, contract.InboundPerceptionLost}, kinds(lost))
	require.Equal(t, b, lost[0].Lost.Target)
}

func TestMoverStepsArrivesAndStopsAtWalls(t *testing.T) {
	w := world.New("tactical")
	a := spawn(t, w, contract.FactionRaiders, contract.Vec3{}, "sword")
	cfg := DefaultConfig()
	r := NewReferee(NewArena(wall()), cfg, dt)
	r.arena.Sync(w)

	moveTo := func(to contract.Vec3) []contract.Outbound {
		return []contract.Outbound{{Kind: contract.OutboundMovementIntent, Movement: &contract.MovementIntent{Entity: a, Kind: contract.MoveTo, Position: to}}}
	}
	reply := r.move(w, moveTo(contract.Vec3{Z: 10}))
	require.Len(t, reply, 1)
	require.Equal(t, contract.InboundTransformSync, reply[0].Kind)
	require.InDelta(t, cfg.WalkSpeed*dt, reply[0].Transform.Position.Z, 1e-9)
	require.InDelta(t, 1.0, reply[0].Transform.Facing.Z, 1e-9)

	reply = r.move(w, moveTo(contract.Vec3{Z: 0.3}))
	require.Equal(t, contract.NavigationReached, reply[0].Navigation.Result)

	transform, _ := world.Get(w, a, world.TransformComponent)
	transform.Position = contract.Vec3{X: 3.55}
	reply = r.move(w, moveTo(contract.Vec3{X: 10}))
	require.Equal(t, contract.NavigationUnreachable, reply[0].Navigation.Result)

	reply = r.move(w, []contract.Outbound{{Kind: contract.OutboundMovementIntent, Movement: &contract.MovementIntent{Entity: a, Kind: contract.MoveStop}}})
	require.Empty(t, reply)
}
