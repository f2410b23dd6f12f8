package combat

import (
	"github.com/pockerhead/VOIDRUN-sub000/contract"
	"github.com/pockerhead/VOIDRUN-sub000/internal/resource"
	"github.com/pockerhead/VOIDRUN-sub000/internal/telemetry"
	"github.com/pockerhead/VOIDRUN-sub000/internal/world"
	combatlog "github.com/pockerhead/VOIDRUN-sub000/logging/combat"
)

const (
	reportMelee         = "DamageReport"
	reportProjectile    = "ProjectileImpact"
	reportShield        = "ProjectileShieldImpact"
	reportEnvironmental = "EnvironmentalDamage"
)

func ignore(w *world.World, f *world.Frame, actor contract.EntityID, report, reason string) {
	combatlog.ReportIgnored(f.Ctx, f.Pub, f.Tick, w.Ref(actor), combatlog.ReportPayload{Report: report, Reason: reason}, nil)
}

// damageable reports whether target can still take damage.
func damageable(w *world.World, target contract.EntityID) bool {
	return w.Alive(target) && !w.Dead(target)
}

// ResolveMeleeReport applies one melee hit report. It returns whether the
// report changed any state.
func ResolveMeleeReport(w *world.World, f *world.Frame, report contract.DamageReport) bool {
	if report.Attacker == report.Target {
		combatlog.SelfDamage(f.Ctx, f.Pub, f.Tick, w.Ref(report.Attacker), combatlog.ReportPayload{Report: reportMelee, Reason: "attacker is target"}, nil)
		return false
	}
	if !damageable(w, report.Target) {
		ignore(w, f, report.Attacker, reportMelee, "target cannot take damage")
		return false
	}
	if !w.Exists(report.Attacker) || !w.Alive(report.Attacker) {
		ignore(w, f, report.Attacker, reportMelee, "attacker gone")
		return false
	}

	attack, attacking := world.Value(w, report.Attacker, world.MeleeAttackComponent)
	if report.WasParried || (attacking && attack.Phase == world.PhaseActiveHitbox && Deflecting(w, report.Target)) {
		return resolveParried(w, f, report)
	}
	if !attacking || attack.Phase != world.PhaseActiveHitbox {
		ignore(w, f, report.Attacker, reportMelee, "hitbox not live")
		return false
	}
	if attack.HasHit(report.Target) {
		ignore(w, f, report.Attacker, reportMelee, "target already hit by this swing")
		return false
	}
	if live, ok := world.Get(w, report.Attacker, world.MeleeAttackComponent); ok {
		live.MarkHit(report.Target)
	}

	declared := report.Damage
	blocked := report.WasBlocked && canBlock(w, report.Target)
	if blocked {
		declared *= BlockedDamageFraction
	}

	dealt := contract.DamageDealt{
		Attacker:     report.Attacker,
		Target:       report.Target,
		Source:       contract.SourceMelee,
		Blocked:      blocked,
		ImpactPoint:  report.ImpactPoint,
		ImpactNormal: report.ImpactNormal,
	}
	apply(w, f, dealt, declared)
	return true
}

func canBlock(w *world.World, id contract.EntityID) bool {
	stats, ok := world.Value(w, id, world.WeaponComponent)
	return ok && stats.Melee() && stats.CanBlock
}

func resolveParried(w *world.World, f *world.Frame, report contract.DamageReport) bool {
	Stagger(w, f, report.Attacker, report.Target)
	dealt := contract.DamageDealt{
		Attacker:      report.Attacker,
		Target:        report.Target,
		Source:        contract.SourceMelee,
		ShieldOutcome: contract.ShieldNone,
		Parried:       true,
		ImpactPoint:   report.ImpactPoint,
		ImpactNormal:  report.ImpactNormal,
	}
	if world.Has(w, report.Target, world.ShieldComponent) {
		dealt.ShieldOutcome = contract.ShieldBypassed
	}
	f.Out.Damage(dealt)
	combatlog.Damage(f.Ctx, f.Pub, f.Tick, w.Ref(report.Attacker), w.Ref(report.Target), combatlog.DamagePayload{
		Source:       string(contract.SourceMelee),
		Parried:      true,
		TargetHealth: currentHealth(w, report.Target),
	}, nil)
	return true
}

type impactKey struct {
	shield     bool
	projectile uint64
	target     contract.EntityID
}

// ImpactFilter drops a projectile's repeated reports against the same
// target within one tick. Reports without a ProjectileID cannot be told
// apart and always pass.
type ImpactFilter struct {
	seen map[impactKey]struct{}
}

// First reports whether this is the first time impact is seen this tick.
func (d *ImpactFilter) First(impact contract.ProjectileImpact, shield bool) bool {
	if impact.ProjectileID == 0 {
		return true
	}
	if d.seen == nil {
		d.seen = make(map[impactKey]struct{})
	}
	key := impactKey{shield: shield, projectile: impact.ProjectileID, target: impact.Target}
	if _, dup := d.seen[key]; dup {
		return false
	}
	d.seen[key] = struct{}{}
	return true
}

// Reset forgets every impact; call once per tick.
func (d *ImpactFilter) Reset() {
	for k := range d.seen {
		delete(d.seen, k)
	}
}

// ResolveProjectileImpact applies a body hit through the shield-aware
// pipeline.
func ResolveProjectileImpact(w *world.World, f *world.Frame, impact contract.ProjectileImpact) bool {
	return resolveProjectile(w, f, impact, reportProjectile)
}

// ResolveShieldImpact applies a shield-collider hit. A target without a
// shield cannot have produced one, so the report is dropped.
func ResolveShieldImpact(w *world.World, f *world.Frame, impact contract.ProjectileShieldImpact) bool {
	if !world.Has(w, impact.Target, world.ShieldComponent) {
		ignore(w, f, impact.Shooter, reportShield, "target has no shield")
		return false
	}
	return resolveProjectile(w, f, contract.ProjectileImpact(impact), reportShield)
}

func resolveProjectile(w *world.World, f *world.Frame, impact contract.ProjectileImpact, report string) bool {
	if impact.Shooter == impact.Target {
		combatlog.SelfDamage(f.Ctx, f.Pub, f.Tick, w.Ref(impact.Shooter), combatlog.ReportPayload{Report: report, Reason: "shooter is target"}, nil)
		return false
	}
	if !damageable(w, impact.Target) {
		ignore(w, f, impact.Shooter, report, "target cannot take damage")
		return false
	}
	apply(w, f, contract.DamageDealt{
		Attacker:     impact.Shooter,
		Target:       impact.Target,
		Source:       contract.SourceRanged,
		ImpactPoint:  impact.ImpactPoint,
		ImpactNormal: impact.ImpactNormal,
	}, impact.Damage)
	return true
}

// ResolveEnvironmental applies hazard damage straight to health.
func ResolveEnvironmental(w *world.World, f *world.Frame, hazard contract.EnvironmentalDamage) bool {
	if !damageable(w, hazard.Target) {
		ignore(w, f, hazard.Target, reportEnvironmental, "target cannot take damage")
		return false
	}
	apply(w, f, contract.DamageDealt{Target: hazard.Target, Source: contract.SourceEnvironmental}, hazard.Damage)
	return true
}

// apply runs ApplyDamage for dealt.Target, emits DamageDealt and records
// the hit. dealt is completed with the outcome.
func apply(w *world.World, f *world.Frame, dealt contract.DamageDealt, raw float64) {
	health, ok := world.Get(w, dealt.Target, world.HealthComponent)
	if !ok {
		return
	}
	var shield *resource.EnergyShield
	if s, ok := world.Get(w, dealt.Target, world.ShieldComponent); ok {
		shield = s
	}
	outcome := ApplyDamage(health, shield, raw, dealt.Source)
	dealt.Damage = outcome.Applied
	dealt.Absorbed = outcome.Absorbed
	dealt.ShieldOutcome = outcome.Shield
	remaining := health.Current

	f.Out.Damage(dealt)
	f.Metrics.Add(telemetry.MetricDamageApplied, uint64(outcome.Applied))
	combatlog.Damage(f.Ctx, f.Pub, f.Tick, w.Ref(dealt.Attacker), w.Ref(dealt.Target), combatlog.DamagePayload{
		Amount:       outcome.Applied,
		Absorbed:     outcome.Absorbed,
		Source:       string(dealt.Source),
		Shield:       string(outcome.Shield),
		TargetHealth: remaining,
		Blocked:      dealt.Blocked,
	}, nil)

	if dealt.Attacker.Valid() {
		world.Set(w, dealt.Target, world.LastAttackerComponent, world.LastAttacker{ID: dealt.Attacker, Source: dealt.Source})
		f.RecordHit(world.HitRecord{Attacker: dealt.Attacker, Target: dealt.Target, Source: dealt.Source})
	}
}

func currentHealth(w *world.World, id contract.EntityID) uint32 {
	health, ok := world.Value(w, id, world.HealthComponent)
	if !ok {
		return 0
	}
	return health.Current
}
