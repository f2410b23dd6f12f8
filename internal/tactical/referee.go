package tactical

import (
	"math"
	"sort"

	"github.com/pockerhead/VOIDRUN-sub000/contract"
	"github.com/pockerhead/VOIDRUN-sub000/internal/combat"
	"github.com/pockerhead/VOIDRUN-sub000/internal/weapon"
	"github.com/pockerhead/VOIDRUN-sub000/internal/world"
)

// Rejection reasons reported back to the core.
const (
	ReasonNoAttacker  = "attacker unavailable"
	ReasonNoTarget    = "target unavailable"
	ReasonOutOfReach  = "target out of reach"
	ReasonOutOfRange  = "target out of range"
	ReasonTooClose    = "target inside minimum range"
	ReasonNoSight     = "no line of sight"
	heavyWindupFactor = 1.5
)

// Config tunes the collaborator's physical model.
type Config struct {
	WalkSpeed        float64 `json:"walkSpeed" yaml:"walkSpeed"`
	SprintMultiplier float64 `json:"sprintMultiplier" yaml:"sprintMultiplier"`
	StopDistance     float64 `json:"stopDistance" yaml:"stopDistance"`
	ArriveRadius     float64 `json:"arriveRadius" yaml:"arriveRadius"`
	SightRange       float64 `json:"sightRange" yaml:"sightRange"`
	ReachTolerance   float64 `json:"reachTolerance" yaml:"reachTolerance"`
}

func DefaultConfig() Config {
	return Config{
		WalkSpeed:        3.5,
		SprintMultiplier: 1.6,
		StopDistance:     1.5,
		ArriveRadius:     0.5,
		SightRange:       25,
		ReachTolerance:   0.25,
	}
}

type flight struct {
	id      uint64
	shooter contract.EntityID
	target  contract.EntityID
	damage  float64
	arrives uint64
}

type sighting struct {
	observer contract.EntityID
	target   contract.EntityID
}

// Referee answers the core's outbound signals with the inbound events the
// next tick consumes.
type Referee struct {
	cfg        Config
	arena      *Arena
	dt         float64
	projectile uint64
	flights    []flight
	seen       map[sighting]struct{}
}

func NewReferee(arena *Arena, cfg Config, dt float64) *Referee {
	if arena == nil {
		arena = NewArena(nil)
	}
	return &Referee{
		cfg:   cfg,
		arena: arena,
		dt:    dt,
		seen:  make(map[sighting]struct{}),
	}
}

func (r *Referee) Arena() *Arena {
	return r.arena
}

// InFlight reports how many projectiles have not landed yet.
func (r *Referee) InFlight() int {
	return len(r.flights)
}

// Respond reads the world after tick and that tick's outbound signals and
// returns the collaborator's reply in a stable order.
func (r *Referee) Respond(w *world.World, tick uint64, events []contract.Outbound) []contract.Inbound {
	r.arena.Sync(w)
	var out []contract.Inbound
	out = append(out, r.validate(w, tick, events)...)
	out = append(out, r.land(w, tick)...)
	out = append(out, r.scanHitboxes(w)...)
	out = append(out, r.perceive(w)...)
	out = append(out, r.move(w, events)...)
	return out
}

func rejected(id contract.EntityID, intent contract.IntentKind, reason string) contract.Inbound {
	return contract.Inbound{Kind: contract.InboundIntentRejected, Rejected: &contract.IntentRejected{Entity: id, Intent: intent, Reason: reason}}
}

func standing(w *world.World, id contract.EntityID) bool {
	return w.Alive(id) && !w.Dead(id)
}

func reachOf(stats weapon.Stats) float64 {
	if stats.Kind == weapon.KindHybrid || stats.Range <= 0 {
		return combat.MeleeReach
	}
	return stats.Range
}

func (r *Referee) validate(w *world.World, tick uint64, events []contract.Outbound) []contract.Inbound {
	var out []contract.Inbound
	for _, event := range events {
		switch event.Kind {
		case contract.OutboundAttackIntent:
			out = append(out, r.approveAttack(w, *event.Attack))
		case contract.OutboundFireIntent:
			out = append(out, r.approveFire(w, tick, *event.Fire)...)
		}
	}
	return out
}

func (r *Referee) approveAttack(w *world.World, intent contract.AttackIntent) contract.Inbound {
	stats, ok := world.Value(w, intent.Attacker, world.WeaponComponent)
	if !ok || !standing(w, intent.Attacker) {
		return rejected(intent.Attacker, contract.IntentAttack, ReasonNoAttacker)
	}
	if intent.Target.Valid() {
		if !standing(w, intent.Target) {
			return rejected(intent.Attacker, contract.IntentAttack, ReasonNoTarget)
		}
		from, _ := w.Position(intent.Attacker)
		to, _ := w.Position(intent.Target)
		if contract.DistanceXZ(from, to) > reachOf(stats)+r.cfg.ReachTolerance {
			return rejected(intent.Attacker, contract.IntentAttack, ReasonOutOfReach)
		}
		if !r.arena.LineOfSight(from, to) {
			return rejected(intent.Attacker, contract.IntentAttack, ReasonNoSight)
		}
	}
	windup := stats.WindupDuration
	if intent.AttackType == contract.AttackHeavy {
		windup *= heavyWindupFactor
	}
	return contract.Inbound{Kind: contract.InboundAttackApproved, Approved: &contract.AttackApproved{
		Attacker:         intent.Attacker,
		AttackType:       intent.AttackType,
		Target:           intent.Target,
		WindupDuration:   windup,
		AttackDuration:   stats.AttackDuration,
		RecoveryDuration: stats.RecoveryDuration,
	}}
}

func (r *Referee) approveFire(w *world.World, tick uint64, intent contract.FireIntent) []contract.Inbound {
	if !standing(w, intent.Shooter) {
		return []contract.Inbound{rejected(intent.Shooter, contract.IntentFire, ReasonNoAttacker)}
	}
	if !standing(w, intent.Target) {
		return []contract.Inbound{rejected(intent.Shooter, contract.IntentFire, ReasonNoTarget)}
	}
	from, _ := w.Position(intent.Shooter)
	to, _ := w.Position(intent.Target)
	distance := contract.DistanceXZ(from, to)
	switch {
	case distance > intent.MaxRange:
		return []contract.Inbound{rejected(intent.Shooter, contract.IntentFire, ReasonOutOfRange)}
	case distance <= combat.MinFireRange:
		return []contract.Inbound{rejected(intent.Shooter, contract.IntentFire, ReasonTooClose)}
	case !r.arena.LineOfSight(from, to):
		return []contract.Inbound{rejected(intent.Shooter, contract.IntentFire, ReasonNoSight)}
	}

	travel := uint64(1)
	if intent.Speed > 0 && r.dt > 0 {
		if ticks := uint64(math.Ceil(distance / intent.Speed / r.dt)); ticks > travel {
			travel = ticks
		}
	}
	r.projectile++
	r.flights = append(r.flights, flight{
		id:      r.projectile,
		shooter: intent.Shooter,
		target:  intent.Target,
		damage:  intent.Damage,
		arrives: tick + travel,
	})
	return []contract.Inbound{{Kind: contract.InboundWeaponFired, Fired: &contract.WeaponFired{
		Shooter:      intent.Shooter,
		Target:       intent.Target,
		Position:     from,
		HearingRange: intent.HearingRange,
	}}}
}

// land delivers every projectile due by tick. A target with an active
// shield is struck on its shield collider.
func (r *Referee) land(w *world.World, tick uint64) []contract.Inbound {
	var out []contract.Inbound
	pending := r.flights[:0]
	for _, f := range r.flights {
		if f.arrives > tick+1 {
			pending = append(pending, f)
			continue
		}
		to, ok := w.Position(f.target)
		if !ok {
			continue
		}
		from, _ := w.Position(f.shooter)
		normal := from.Sub(to)
		normal.Y = 0
		point := to.Add(contract.Vec3{Y: 1 + world.RandomOffset(w.RNG(world.StreamTactical), 0.2)})
		impact := contract.ProjectileImpact{
			ProjectileID: f.id,
			Shooter:      f.shooter,
			Target:       f.target,
			Damage:       f.damage,
			ImpactPoint:  point,
			ImpactNormal: normal.Normalized(),
		}
		if shield, ok := world.Value(w, f.target, world.ShieldComponent); ok && shield.Active {
			shieldImpact := contract.ProjectileShieldImpact(impact)
			out = append(out, contract.Inbound{Kind: contract.InboundProjectileShieldImpact, ShieldImpact: &shieldImpact})
			continue
		}
		out = append(out, contract.Inbound{Kind: contract.InboundProjectileImpact, Impact: &impact})
	}
	r.flights = pending
	return out
}

// blocking reports whether target is squared up against attacker with a
// weapon that can block.
func blocking(w *world.World, target, attacker contract.EntityID) bool {
	stats, ok := world.Value(w, target, world.WeaponComponent)
	if !ok || !stats.CanBlock {
		return false
	}
	if world.Has(w, target, world.MeleeAttackComponent) || world.Has(w, target, world.ParryComponent) || world.Has(w, target, world.StaggerComponent) {
		return false
	}
	state, _ := world.Value(w, target, world.AIStateComponent)
	return state.Kind == world.AICombat && state.Target == attacker
}

// scanHitboxes reports every hostile inside a live hitbox that the swing
// has not struck yet.
func (r *Referee) scanHitboxes(w *world.World) []contract.Inbound {
	var out []contract.Inbound
	candidates := w.Query(world.HealthComponent)
	for _, id := range w.Query(world.MeleeAttackComponent) {
		attack, _ := world.Value(w, id, world.MeleeAttackComponent)
		if attack.Phase != world.PhaseActiveHitbox || !standing(w, id) {
			continue
		}
		stats, _ := world.Value(w, id, world.WeaponComponent)
		damage := stats.BaseDamage
		if stamina, ok := world.Value(w, id, world.StaminaComponent); ok {
			damage *= stamina.DamageMultiplier()
		}
		from, _ := w.Position(id)
		limit := reachOf(stats) + r.cfg.ReachTolerance
		for _, target := range candidates {
			if !w.Hostile(id, target) || !standing(w, target) || attack.HasHit(target) {
				continue
			}
			to, _ := w.Position(target)
			if contract.DistanceXZ(from, to) > limit || !r.arena.LineOfSight(from, to) {
				continue
			}
			normal := from.Sub(to)
			normal.Y = 0
			out = append(out, contract.Inbound{Kind: contract.InboundDamageReport, Damage: &contract.DamageReport{
				Attacker:     id,
				Target:       target,
				Damage:       damage,
				WasBlocked:   blocking(w, target, id),
				ImpactPoint:  to.Add(contract.Vec3{Y: 1}),
				ImpactNormal: normal.Normalized(),
			}})
		}
	}
	return out
}

// perceive reports sight changes for every AI observer.
func (r *Referee) perceive(w *world.World) []contract.Inbound {
	var out []contract.Inbound
	visible := make(map[sighting]struct{})
	targets := w.Query(world.HealthComponent)
	for _, observer := range w.Query(world.SpottedComponent) {
		if !standing(w, observer) {
			continue
		}
		from, _ := w.Position(observer)
		for _, target := range targets {
			if !w.Hostile(observer, target) || !standing(w, target) {
				continue
			}
			to, _ := w.Position(target)
			if contract.DistanceXZ(from, to) > r.cfg.SightRange || !r.arena.LineOfSight(from, to) {
				continue
			}
			key := sighting{observer: observer, target: target}
			visible[key] = struct{}{}
			if _, known := r.seen[key]; !known {
				out = append(out, contract.Inbound{Kind: contract.InboundPerceptionSpotted, Spotted: &contract.PerceptionSpotted{Observer: observer, Target: target}})
			}
		}
	}
	lost := make([]sighting, 0)
	for key := range r.seen {
		if _, still := visible[key]; !still {
			lost = append(lost, key)
		}
	}
	sort.Slice(lost, func(i, j int) bool {
		if lost[i].observer != lost[j].observer {
			return lost[i].observer < lost[j].observer
		}
		return lost[i].target < lost[j].target
	})
	for _, key := range lost {
		if w.Exists(key.observer) {
			out = append(out, contract.Inbound{Kind: contract.InboundPerceptionLost, Lost: &contract.PerceptionLost{Observer: key.observer, Target: key.target}})
		}
	}
	r.seen = visible
	return out
}
