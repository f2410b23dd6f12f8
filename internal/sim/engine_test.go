package sim

import (
	"context"
	"math"
	"math/rand"
	"testing"
	"time"

	"github.com/stretchr/testify/require"

	"github.com/pockerhead/VOIDRUN-sub000/contract"
	"github.com/pockerhead/VOIDRUN-sub000/internal/telemetry"
	"github.com/pockerhead/VOIDRUN-sub000/internal/weapon"
	"github.com/pockerhead/VOIDRUN-sub000/internal/world"
	"github.com/pockerhead/VOIDRUN-sub000/logging"
	lifecycle "github.com/pockerhead/VOIDRUN-sub000/logging/lifecycle"
	simulationlog "github.com/pockerhead/VOIDRUN-sub000/logging/simulation"
	"github.com/pockerhead/VOIDRUN-sub000/logging/sinks"
)

type fixture struct {
	t       *testing.T
	engine  *Engine
	events  *sinks.Memory
	metrics *telemetry.Counters
}

func newFixture(t *testing.T, cfg Config) *fixture {
	t.Helper()
	events := sinks.NewMemory()
	metrics := telemetry.NewCounters()
	if cfg.Seed == "" {
		cfg.Seed = "sim-test"
	}
	return &fixture{
		t:       t,
		engine:  NewEngine(cfg, Deps{Publisher: events, Metrics: metrics}),
		events:  events,
		metrics: metrics,
	}
}

func actor(name string, faction contract.Faction, at contract.Vec3, weaponName string) world.ActorSpec {
	stats, _ := weapon.DefaultCatalog.Get(weaponName)
	return world.ActorSpec{
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
			RetreatDuration:               2,
			PatrolDirectionChangeInterval: 4,
			Profile:                       "balanced",
		},
	}
}

func (fx *fixture) spawn(spec world.ActorSpec) contract.EntityID {
	fx.t.Helper()
	id, err := fx.engine.Spawn(spec)
	require.NoError(fx.t, err)
	return id
}

func (fx *fixture) push(in contract.Inbound) {
	fx.t.Helper()
	ok, reason := fx.engine.Push(in)
	require.True(fx.t, ok, reason)
}

func (fx *fixture) step() StepResult {
	return fx.engine.Step(context.Background())
}

func ofKind(events []contract.Outbound, kind contract.OutboundKind) []contract.Outbound {
	var out []contract.Outbound
	for _, event := range events {
		if event.Kind == kind {
			out = append(out, event)
		}
	}
	return out
}

func TestScheduleSlices(t *testing.T) {
	require.True(t, Perceives(21))
	require.True(t, Perceives(42))
	require.False(t, Perceives(20))
	require.True(t, Decides(6))
	require.False(t, Decides(7))
	require.Equal(t, 1.0/64, DT(0))
	require.Equal(t, 0.5, DT(2))
}

func TestSpawnPublishesLifecycleEvent(t *testing.T) {
	fx := newFixture(t, Config{})
	id := fx.spawn(actor("grunt", contract.FactionRaiders, contract.Vec3{X: 1}, "axe"))

	spawned := fx.events.OfType(lifecycle.EventSpawned)
	require.Len(t, spawned, 1)
	require.Equal(t, id, spawned[0].Actor.ID)
	payload, ok := spawned[0].Payload.(lifecycle.SpawnedPayload)
	require.True(t, ok)
	require.Equal(t, "axe", payload.Weapon)

	_, err := fx.engine.Spawn(world.ActorSpec{Name: "ghost", Faction: contract.FactionRaiders, Kind: contract.ActorKindNPC})
	require.Error(t, err)
}

func TestEveryEntityGetsAMovementIntentEachTick(t *testing.T) {
	fx := newFixture(t, Config{})
	a := fx.spawn(actor("a", contract.FactionRaiders, contract.Vec3{}, "sword"))
	b := fx.spawn(actor("b", contract.FactionSynths, contract.Vec3{X: 20}, "sword"))

	for i := 0; i < 3; i++ {
		moves := ofKind(fx.step().Events, contract.OutboundMovementIntent)
		require.Len(t, moves, 2)
		require.Equal(t, a, moves[0].Movement.Entity)
		require.Equal(t, b, moves[1].Movement.Entity)
	}
}

func TestEnvironmentalDeathEmitsOnceAndDespawnsAfterGrace(t *testing.T) {
	fx := newFixture(t, Config{DespawnGrace: 0.5})
	a := fx.spawn(actor("a", contract.FactionRaiders, contract.Vec3{}, "sword"))
	b := fx.spawn(actor("b", contract.FactionSynths, contract.Vec3{X: 1}, "sword"))
	fx.push(contract.Inbound{Kind: contract.InboundPerceptionSpotted, Spotted: &contract.PerceptionSpotted{Observer: a, Target: b}})
	fx.push(contract.Inbound{Kind: contract.InboundEnvironmentalDamage, Environmental: &contract.EnvironmentalDamage{Target: b, Damage: 500}})

	result := fx.step()
	died := ofKind(result.Events, contract.OutboundEntityDied)
	require.Len(t, died, 1)
	require.Equal(t, b, died[0].Died.Entity)
	require.False(t, died[0].Died.Killer.Valid(), "hazards credit nobody")

	obs, ok := fx.engine.Observe(b)
	require.True(t, ok)
	require.Equal(t, world.AIDead, obs.AI.Kind)
	require.Nil(t, obs.Movement)
	require.NotNil(t, obs.Despawn)
	require.Equal(t, uint64(1), fx.metrics.Get(telemetry.MetricEntitiesDied))

	for fx.engine.Tick() < 32 {
		result = fx.step()
		require.Empty(t, ofKind(result.Events, contract.OutboundEntityDied))
		require.Empty(t, ofKind(result.Events, contract.OutboundEntityDespawned))
	}
	_, ok = fx.engine.Observe(b)
	require.True(t, ok, "corpse persists through the grace period")

	result = fx.step()
	despawned := ofKind(result.Events, contract.OutboundEntityDespawned)
	require.Len(t, despawned, 1)
	require.Equal(t, b, despawned[0].Despawned.Entity)
	_, ok = fx.engine.Observe(b)
	require.False(t, ok)
	require.Equal(t, 1, fx.events.Count(lifecycle.EventDespawned))

	obs, ok = fx.engine.Observe(a)
	require.True(t, ok)
	require.NotEqual(t, world.AICombat, obs.AI.Kind, "survivor drops the dead target")
}

func TestProjectileKillCreditsShooterAndDuplicatesApplyOnce(t *testing.T) {
	fx := newFixture(t, Config{})
	a := fx.spawn(actor("a", contract.FactionRaiders, contract.Vec3{}, "sword"))
	b := fx.spawn(actor("b", contract.FactionSynths, contract.Vec3{X: 8}, "sword"))
	impact := contract.ProjectileImpact{ProjectileID: 7, Shooter: a, Target: b, Damage: 20}
	fx.push(contract.Inbound{Kind: contract.InboundProjectileImpact, Impact: &impact})
	fx.push(contract.Inbound{Kind: contract.InboundProjectileImpact, Impact: &impact})
	fx.step()

	obs, _ := fx.engine.Observe(b)
	require.Equal(t, uint32(80), obs.Health.Current)

	impact.Damage = 200
	fx.push(contract.Inbound{Kind: contract.InboundProjectileImpact, Impact: &impact})
	died := ofKind(fx.step().Events, contract.OutboundEntityDied)
	require.Len(t, died, 1)
	require.Equal(t, a, died[0].Died.Killer)
}

func TestUnidentifiedProjectilesBothLand(t *testing.T) {
	fx := newFixture(t, Config{})
	a := fx.spawn(actor("a", contract.FactionRaiders, contract.Vec3{}, "sword"))
	b := fx.spawn(actor("b", contract.FactionSynths, contract.Vec3{X: 8}, "sword"))
	impact := contract.ProjectileImpact{Shooter: a, Target: b, Damage: 20}
	fx.push(contract.Inbound{Kind: contract.InboundProjectileImpact, Impact: &impact})
	fx.push(contract.Inbound{Kind: contract.InboundProjectileImpact, Impact: &impact})
	fx.step()

	obs, _ := fx.engine.Observe(b)
	require.Equal(t, uint32(60), obs.Health.Current)
}

func TestApprovedCleaveDealsDeclaredDamageToEachTarget(t *testing.T) {
	fx := newFixture(t, Config{})
	a := fx.spawn(actor("a", contract.FactionRaiders, contract.Vec3{}, "sword"))
	b := fx.spawn(actor("b", contract.FactionSynths, contract.Vec3{X: 1.5}, "sword"))
	c := fx.spawn(actor("c", contract.FactionSynths, contract.Vec3{Z: -1.5}, "sword"))
	fx.push(contract.Inbound{Kind: contract.InboundAttackApproved, Approved: &contract.AttackApproved{Attacker: a, AttackType: contract.AttackLight, Target: b}})

	var obs Observation
	for i := 0; i < 2*TickRate; i++ {
		fx.step()
		obs, _ = fx.engine.Observe(a)
		if obs.Melee != nil && obs.Melee.Phase == world.PhaseActiveHitbox {
			break
		}
	}
	require.NotNil(t, obs.Melee)
	require.Equal(t, world.PhaseActiveHitbox, obs.Melee.Phase)
	require.Less(t, obs.Stamina.Current, obs.Stamina.Max, "the swing is paid for")

	for _, target := range []contract.EntityID{b, c} {
		fx.push(contract.Inbound{Kind: contract.InboundDamageReport, Damage: &contract.DamageReport{Attacker: a, Target: target, Damage: 20}})
	}
	dealt := ofKind(fx.step().Events, contract.OutboundDamageDealt)
	require.Len(t, dealt, 2)

	for _, target := range []contract.EntityID{b, c} {
		hit, ok := fx.engine.Observe(target)
		require.True(t, ok)
		require.Equal(t, uint32(80), hit.Health.Current)
	}
}

func TestGunfireSendsIdleListenerToTheShot(t *testing.T) {
	fx := newFixture(t, Config{})
	shooter := fx.spawn(actor("shooter", contract.FactionSynths, contract.Vec3{X: 10}, "pistol"))
	listener := fx.spawn(actor("listener", contract.FactionRaiders, contract.Vec3{X: 10, Z: 20}, "sword"))
	shot := contract.Vec3{X: 10}
	fx.push(contract.Inbound{Kind: contract.InboundWeaponFired, Fired: &contract.WeaponFired{Shooter: shooter, Position: shot, HearingRange: 25}})

	var first *contract.MovementIntent
	for i := 0; i < 5; i++ {
		var intent *contract.MovementIntent
		for _, event := range ofKind(fx.step().Events, contract.OutboundMovementIntent) {
			if event.Movement.Entity == listener {
				intent = event.Movement
			}
		}
		require.NotNil(t, intent, "tick %d", i+1)
		require.Equal(t, contract.MoveTo, intent.Kind, "tick %d", i+1)
		require.LessOrEqual(t, math.Abs(intent.Position.X-shot.X), 3.0)
		require.LessOrEqual(t, math.Abs(intent.Position.Z-shot.Z), 3.0)
		if first == nil {
			first = intent
		}
		require.Equal(t, first.Position, intent.Position, "tick %d", i+1)
	}

	obs, _ := fx.engine.Observe(listener)
	require.Equal(t, world.AIPatrol, obs.AI.Kind)
}

func TestObserveExposesSwingPhases(t *testing.T) {
	fx := newFixture(t, Config{})
	a := fx.spawn(actor("a", contract.FactionRaiders, contract.Vec3{}, "sword"))
	fx.push(contract.Inbound{Kind: contract.InboundAttackApproved, Approved: &contract.AttackApproved{Attacker: a, AttackType: contract.AttackLight}})
	fx.step()

	obs, ok := fx.engine.Observe(a)
	require.True(t, ok)
	require.NotNil(t, obs.Melee)
	require.Equal(t, world.PhaseWindup, obs.Melee.Phase)
	require.Equal(t, 85.0, obs.Stamina.Current, "regeneration runs before approvals")
	require.Equal(t, obs.Weapon.AttackCooldown, obs.Weapon.CooldownTimer)

	_, ok = fx.engine.Observe(contract.EntityID(999))
	require.False(t, ok)
}

func TestPushValidationAndBackpressure(t *testing.T) {
	fx := newFixture(t, Config{PerEntityLimit: 2, InboundCapacity: 3})
	a := fx.spawn(actor("a", contract.FactionRaiders, contract.Vec3{}, "sword"))
	b := fx.spawn(actor("b", contract.FactionSynths, contract.Vec3{}, "sword"))

	ok, reason := fx.engine.Push(contract.Inbound{Kind: contract.InboundDamageReport})
	require.False(t, ok)
	require.Equal(t, DropInvalid, reason)

	hazard := func(target contract.EntityID) contract.Inbound {
		return contract.Inbound{Kind: contract.InboundEnvironmentalDamage, Environmental: &contract.EnvironmentalDamage{Target: target, Damage: 1}}
	}
	fx.push(hazard(a))
	fx.push(hazard(a))
	ok, reason = fx.engine.Push(hazard(a))
	require.False(t, ok)
	require.Equal(t, DropEntityLimit, reason)

	fx.push(hazard(b))
	ok, reason = fx.engine.Push(hazard(b))
	require.False(t, ok)
	require.Equal(t, DropQueueFull, reason)
	require.Equal(t, 3, fx.engine.Pending())

	require.Equal(t, uint64(3), fx.metrics.Get(telemetry.MetricInboundDropped))
	require.Equal(t, 3, fx.events.Count(simulationlog.EventInboundDropped))

	result := fx.step()
	require.Equal(t, 3, result.Inbound)
	fx.push(hazard(a))
}

func TestKeyframesCarryTheChecksum(t *testing.T) {
	fx := newFixture(t, Config{KeyframeInterval: 4, Journal: DefaultConfig().Journal})
	fx.spawn(actor("a", contract.FactionRaiders, contract.Vec3{}, "sword"))

	var last StepResult
	for i := 0; i < 4; i++ {
		last = fx.step()
	}
	require.NotNil(t, last.Keyframe)
	sum, err := fx.engine.Checksum()
	require.NoError(t, err)
	require.Equal(t, sum, last.Keyframe.Checksum)
	require.Equal(t, 1, last.Keyframe.Entities)

	latest, ok := fx.engine.Journal().Latest()
	require.True(t, ok)
	require.Equal(t, uint64(4), latest.Tick)
	require.Len(t, fx.engine.Journal().Drain(), 4)
}

func TestPlayerInputBecomesSteerIntent(t *testing.T) {
	fx := newFixture(t, Config{})
	sword, _ := weapon.DefaultCatalog.Get("sword")
	p := fx.spawn(world.ActorSpec{
		Name:         "player",
		Faction:      contract.FactionPlayer,
		Kind:         contract.ActorKindPlayer,
		MaxHealth:    100,
		MaxStamina:   100,
		StaminaRegen: 10,
		Weapon:       &sword,
	})
	fx.push(contract.Inbound{Kind: contract.InboundPlayerInputFrame, Input: &contract.PlayerInputFrame{Entity: p, Direction: contract.Vec3{X: 1}, Attack: true}})

	result := fx.step()
	attacks := ofKind(result.Events, contract.OutboundAttackIntent)
	require.Len(t, attacks, 1)
	require.Equal(t, p, attacks[0].Attack.Attacker)
	moves := ofKind(result.Events, contract.OutboundMovementIntent)
	require.Len(t, moves, 1)
	require.Equal(t, contract.MoveSteer, moves[0].Movement.Kind)
}

// skirmish runs a closed loop that approves every attack intent and reports
// a hit for every live hitbox.
func skirmish(t *testing.T, seed string, ticks int) (string, int) {
	t.Helper()
	fx := newFixture(t, Config{Seed: seed})
	raiders := []contract.EntityID{
		fx.spawn(actor("r1", contract.FactionRaiders, contract.Vec3{X: 0}, "sword")),
		fx.spawn(actor("r2", contract.FactionRaiders, contract.Vec3{X: 0, Z: 1.5}, "axe")),
	}
	synths := []contract.EntityID{
		fx.spawn(actor("s1", contract.FactionSynths, contract.Vec3{X: 2}, "knife")),
		fx.spawn(actor("s2", contract.FactionSynths, contract.Vec3{X: 2, Z: 1.5}, "sword")),
	}
	all := append(append([]contract.EntityID{}, raiders...), synths...)
	for _, r := range raiders {
		for _, s := range synths {
			fx.push(contract.Inbound{Kind: contract.InboundPerceptionSpotted, Spotted: &contract.PerceptionSpotted{Observer: r, Target: s}})
			fx.push(contract.Inbound{Kind: contract.InboundPerceptionSpotted, Spotted: &contract.PerceptionSpotted{Observer: s, Target: r}})
		}
	}

	attacks := 0
	for i := 0; i < ticks; i++ {
		result := fx.step()
		for _, event := range ofKind(result.Events, contract.OutboundAttackIntent) {
			attacks++
			intent := event.Attack
			fx.engine.Push(contract.Inbound{Kind: contract.InboundAttackApproved, Approved: &contract.AttackApproved{
				Attacker:   intent.Attacker,
				AttackType: intent.AttackType,
				Target:     intent.Target,
			}})
		}
		for _, id := range all {
			obs, ok := fx.engine.Observe(id)
			if !ok || obs.Melee == nil || obs.Melee.Phase != world.PhaseActiveHitbox || !obs.Melee.Target.Valid() {
				continue
			}
			fx.engine.Push(contract.Inbound{Kind: contract.InboundDamageReport, Damage: &contract.DamageReport{
				Attacker: id,
				Target:   obs.Melee.Target,
				Damage:   obs.Weapon.BaseDamage,
			}})
		}
	}
	sum, err := fx.engine.Checksum()
	require.NoError(t, err)
	return sum, attacks
}

func TestSkirmishIsDeterministic(t *testing.T) {
	first, attacks := skirmish(t, "determinism", 640)
	require.Positive(t, attacks)
	for run := 0; run < 2; run++ {
		again, _ := skirmish(t, "determinism", 640)
		require.Equal(t, first, again, "run %d diverged", run+2)
	}
}

func TestResourceInvariantsUnderRandomReports(t *testing.T) {
	fx := newFixture(t, Config{DespawnGrace: 1})
	rng := rand.New(rand.NewSource(42))
	var ids []contract.EntityID
	for i := 0; i < 6; i++ {
		faction := contract.FactionRaiders
		if i%2 == 1 {
			faction = contract.FactionSynths
		}
		spec := actor("npc", faction, contract.Vec3{X: float64(i)}, "sword")
		if i%3 == 0 {
			spec.Shield = &world.ShieldSpec{MaxEnergy: 40, RechargeDelay: 1, RechargeRate: 20}
		}
		ids = append(ids, fx.spawn(spec))
	}
	pick := func() contract.EntityID { return ids[rng.Intn(len(ids))] }

	for tick := 0; tick < 400; tick++ {
		for n := rng.Intn(4); n > 0; n-- {
			damage := rng.Float64() * 30
			switch rng.Intn(5) {
			case 0:
				fx.engine.Push(contract.Inbound{Kind: contract.InboundEnvironmentalDamage, Environmental: &contract.EnvironmentalDamage{Target: pick(), Damage: damage}})
			case 1:
				fx.engine.Push(contract.Inbound{Kind: contract.InboundProjectileImpact, Impact: &contract.ProjectileImpact{Shooter: pick(), Target: pick(), Damage: damage}})
			case 2:
				fx.engine.Push(contract.Inbound{Kind: contract.InboundProjectileShieldImpact, ShieldImpact: &contract.ProjectileShieldImpact{Shooter: pick(), Target: pick(), Damage: damage}})
			case 3:
				fx.engine.Push(contract.Inbound{Kind: contract.InboundAttackApproved, Approved: &contract.AttackApproved{Attacker: pick(), AttackType: contract.AttackHeavy}})
			case 4:
				fx.engine.Push(contract.Inbound{Kind: contract.InboundDamageReport, Damage: &contract.DamageReport{Attacker: pick(), Target: pick(), Damage: damage}})
			}
		}
		fx.step()

		for _, id := range ids {
			obs, ok := fx.engine.Observe(id)
			if !ok {
				continue
			}
			require.LessOrEqual(t, obs.Health.Current, obs.Health.Max)
			require.GreaterOrEqual(t, obs.Stamina.Current, 0.0)
			require.LessOrEqual(t, obs.Stamina.Current, obs.Stamina.Max)
			if obs.Shield != nil {
				require.GreaterOrEqual(t, obs.Shield.CurrentEnergy, 0.0)
				require.LessOrEqual(t, obs.Shield.CurrentEnergy, obs.Shield.MaxEnergy)
			}
			if obs.Health.Current == 0 {
				require.Equal(t, world.AIDead, obs.AI.Kind)
				require.Nil(t, obs.Melee)
				require.Nil(t, obs.Parry)
				require.Nil(t, obs.Stagger)
			}
		}
	}
}

func TestLoopReportsBudgetOverruns(t *testing.T) {
	fx := newFixture(t, Config{})
	now := time.Unix(0, 0)
	clock := logging.ClockFunc(func() time.Time {
		now = now.Add(time.Second)
		return now
	})
	var seen []LoopResult
	loop := NewLoop(fx.engine, LoopHooks{AfterStep: func(r LoopResult) { seen = append(seen, r) }}).WithClock(clock)

	loop.Advance(context.Background(), 10*time.Millisecond)
	loop.Advance(context.Background(), 10*time.Millisecond)
	require.Len(t, seen, 2)
	require.True(t, seen[1].Overrun)
	require.Equal(t, uint64(2), fx.metrics.Get(telemetry.MetricTickOverruns))

	overruns := fx.events.OfType(simulationlog.EventTickBudgetOverrun)
	require.Len(t, overruns, 2)
	payload, ok := overruns[1].Payload.(simulationlog.TickBudgetOverrunPayload)
	require.True(t, ok)
	require.Equal(t, uint64(2), payload.Streak)

	loop.Advance(context.Background(), 0)
	require.False(t, seen[2].Overrun)
}

func TestLoopRunStopsOnCancel(t *testing.T) {
	fx := newFixture(t, Config{TickRate: 1000})
	ctx, cancel := context.WithTimeout(context.Background(), 20*time.Millisecond)
	defer cancel()
	err := NewLoop(fx.engine, LoopHooks{}).Run(ctx)
	require.ErrorIs(t, err, context.DeadlineExceeded)
	require.Positive(t, fx.engine.Tick())
}
