package combat

import (
	"errors"

	"github.com/pockerhead/VOIDRUN-sub000/contract"
	"github.com/pockerhead/VOIDRUN-sub000/internal/telemetry"
	"github.com/pockerhead/VOIDRUN-sub000/internal/weapon"
	"github.com/pockerhead/VOIDRUN-sub000/internal/world"
	combatlog "github.com/pockerhead/VOIDRUN-sub000/logging/combat"
)

var (
	ErrUnknownEntity    = errors.New("combat: unknown entity")
	ErrDead             = errors.New("combat: entity is dead")
	ErrNoWeapon         = errors.New("combat: no weapon profile")
	ErrNotMelee         = errors.New("combat: weapon cannot swing")
	ErrAlreadyAttacking = errors.New("combat: attack already in progress")
	ErrStaggered        = errors.New("combat: entity is staggered")
	ErrParrying         = errors.New("combat: entity is parrying")
	ErrCoolingDown      = errors.New("combat: weapon cooling down")
)

// canAct checks the conditions every combat action shares.
func canAct(w *world.World, id contract.EntityID) (weapon.Stats, error) {
	if !w.Exists(id) {
		return weapon.Stats{}, ErrUnknownEntity
	}
	if w.Dead(id) || !w.Alive(id) {
		return weapon.Stats{}, ErrDead
	}
	stats, ok := world.Value(w, id, world.WeaponComponent)
	if !ok {
		return weapon.Stats{}, ErrNoWeapon
	}
	if world.Has(w, id, world.StaggerComponent) {
		return stats, ErrStaggered
	}
	return stats, nil
}

// CanSwing reports why id could not start a fresh swing right now.
func CanSwing(w *world.World, id contract.EntityID) error {
	stats, err := canAct(w, id)
	if err != nil {
		return err
	}
	switch {
	case !stats.Melee():
		return ErrNotMelee
	case !stats.Ready():
		return ErrCoolingDown
	case world.Has(w, id, world.MeleeAttackComponent):
		return ErrAlreadyAttacking
	case world.Has(w, id, world.ParryComponent):
		return ErrParrying
	}
	return nil
}

// timingFor resolves phase durations, preferring the approval's values and
// falling back to the weapon profile for any left at zero.
func timingFor(stats weapon.Stats, approval contract.AttackApproved) world.MeleeTiming {
	windup := approval.WindupDuration
	if windup <= 0 {
		windup = stats.WindupDuration
	}
	active := approval.AttackDuration
	if active <= 0 {
		active = stats.AttackDuration
	}
	recovery := approval.RecoveryDuration
	if recovery <= 0 {
		recovery = stats.RecoveryDuration
	}
	parryWindow := stats.ParryWindow
	if parryWindow > active {
		parryWindow = active
	}
	return world.MeleeTiming{
		Windup:      windup,
		ParryWindow: parryWindow,
		Hitbox:      active - parryWindow,
		Recovery:    recovery,
	}
}

// StartAttack turns an approval into a MeleeAttackState in Windup, starts
// the weapon cooldown and charges stamina.
func StartAttack(w *world.World, f *world.Frame, approval contract.AttackApproved) error {
	id := approval.Attacker
	stats, err := canAct(w, id)
	if err != nil {
		return err
	}
	if !stats.Melee() {
		return ErrNotMelee
	}
	if world.Has(w, id, world.MeleeAttackComponent) {
		return ErrAlreadyAttacking
	}
	if world.Has(w, id, world.ParryComponent) {
		return ErrParrying
	}

	attackType := approval.AttackType
	if attackType == "" {
		attackType = contract.AttackLight
	}
	timing := timingFor(stats, approval)

	if held, ok := world.Get(w, id, world.WeaponComponent); ok {
		held.StartCooldown()
	}
	spend(w, f, id, "attack_"+string(attackType), AttackCost(attackType))

	world.Set(w, id, world.MeleeAttackComponent, world.MeleeAttackState{
		Phase:      world.PhaseWindup,
		PhaseTimer: timing.Windup,
		Timing:     timing,
		AttackType: attackType,
		Target:     approval.Target,
	})
	combatlog.AttackStarted(f.Ctx, f.Pub, f.Tick, w.Ref(id), combatlog.AttackStartedPayload{
		AttackType: string(attackType),
		Weapon:     stats.Name,
		Windup:     timing.Windup,
	}, nil)
	return nil
}

// ApproveAttack applies an approval and reports a refusal as a rejected
// intent. It returns whether the swing started.
func ApproveAttack(w *world.World, f *world.Frame, approval contract.AttackApproved) bool {
	if err := StartAttack(w, f, approval); err != nil {
		Reject(w, f, approval.Attacker, contract.IntentAttack, err.Error())
		return false
	}
	return true
}

// Reject logs a refused intent. Refused intents are dropped; the deciding
// system re-evaluates on its next slice.
func Reject(w *world.World, f *world.Frame, id contract.EntityID, intent contract.IntentKind, reason string) {
	f.Metrics.Add(telemetry.MetricIntentsRejected, 1)
	combatlog.IntentRejected(f.Ctx, f.Pub, f.Tick, w.Ref(id), combatlog.IntentRejectedPayload{
		Intent: string(intent),
		Reason: reason,
	}, nil)
}

// nextPhase returns the phase that follows current and its duration. done is
// true once Recovery has elapsed.
func nextPhase(current world.MeleePhase, timing world.MeleeTiming) (world.MeleePhase, float64, bool) {
	switch current {
	case world.PhaseWindup:
		return world.PhaseActiveParryWindow, timing.ParryWindow, false
	case world.PhaseActiveParryWindow:
		return world.PhaseActiveHitbox, timing.Hitbox, false
	case world.PhaseActiveHitbox:
		return world.PhaseRecovery, timing.Recovery, false
	default:
		return current, 0, true
	}
}

// AdvanceAttacks runs every live swing's phase machine by one tick. Phases
// with zero duration are passed through within the same tick, and time left
// over from an expired phase is charged to the next one.
func AdvanceAttacks(w *world.World, f *world.Frame) {
	for _, id := range w.Query(world.MeleeAttackComponent) {
		attack, _ := world.Get(w, id, world.MeleeAttackComponent)
		attack.PhaseTimer -= f.DT
		finished := false
		for attack.PhaseTimer <= 0 {
			phase, duration, done := nextPhase(attack.Phase, attack.Timing)
			if done {
				finished = true
				break
			}
			attack.Phase = phase
			attack.PhaseTimer += duration
		}
		if finished {
			world.Remove(w, id, world.MeleeAttackComponent)
		}
	}
}

// CancelAttack removes id's swing, if any.
func CancelAttack(w *world.World, id contract.EntityID) bool {
	return world.Remove(w, id, world.MeleeAttackComponent)
}
