package combat

import (
	"context"

	"github.com/pockerhead/VOIDRUN-sub000/logging"
)

const (
	// EventDamage is emitted when a hit changes a target's health or shield.
	EventDamage logging.EventType = "combat.damage"
	// EventDefeat is emitted when an actor's health reaches zero.
	EventDefeat logging.EventType = "combat.defeat"
	// EventAttackStarted is emitted when an approved swing enters windup.
	EventAttackStarted logging.EventType = "combat.attack_started"
	// EventIntentRejected is emitted when an attack, fire or jump is refused.
	EventIntentRejected logging.EventType = "combat.intent_rejected"
	// EventStaminaDebt is emitted when an action was paid for with stamina the
	// actor did not have.
	EventStaminaDebt logging.EventType = "combat.stamina_debt"
	// EventParry is emitted when a parry opens.
	EventParry logging.EventType = "combat.parry"
	// EventStagger is emitted when a parried attacker is staggered.
	EventStagger logging.EventType = "combat.stagger"
	// EventSelfDamage is emitted when a report names the attacker as its own target.
	EventSelfDamage logging.EventType = "combat.self_damage"
	// EventReportIgnored is emitted when a combat report arrives that the
	// current state cannot honour.
	EventReportIgnored logging.EventType = "combat.report_ignored"
	// EventWeaponSwitched is emitted when an entity swaps its weapon profile.
	EventWeaponSwitched logging.EventType = "combat.weapon_switched"
)

// DamagePayload captures the outcome of one hit.
type DamagePayload struct {
	Amount       uint32  `json:"amount"`
	Absorbed     float64 `json:"absorbed,omitempty"`
	Source       string  `json:"source"`
	Shield       string  `json:"shield,omitempty"`
	TargetHealth uint32  `json:"targetHealth"`
	Blocked      bool    `json:"blocked,omitempty"`
	Parried      bool    `json:"parried,omitempty"`
}

// DefeatPayload describes the fatal blow.
type DefeatPayload struct {
	Source string `json:"source,omitempty"`
}

// AttackStartedPayload describes a swing entering windup.
type AttackStartedPayload struct {
	AttackType string  `json:"attackType"`
	Weapon     string  `json:"weapon"`
	Windup     float64 `json:"windup"`
}

// IntentRejectedPayload records why an intent was refused.
type IntentRejectedPayload struct {
	Intent string `json:"intent"`
	Reason string `json:"reason"`
}

// StaminaDebtPayload records an action paid for beyond the available pool.
type StaminaDebtPayload struct {
	Action    string  `json:"action"`
	Cost      float64 `json:"cost"`
	Available float64 `json:"available"`
}

// ParryPayload describes an opened parry.
type ParryPayload struct {
	InterruptedAttack bool `json:"interruptedAttack,omitempty"`
}

// StaggerPayload describes an applied stagger.
type StaggerPayload struct {
	Duration float64 `json:"duration"`
}

// ReportPayload names the report kind and why it was not applied.
type ReportPayload struct {
	Report string `json:"report"`
	Reason string `json:"reason"`
}

// WeaponSwitchedPayload names the old and new profile.
type WeaponSwitchedPayload struct {
	From string `json:"from"`
	To   string `json:"to"`
}

func publish(ctx context.Context, pub logging.Publisher, eventType logging.EventType, severity logging.Severity, tick uint64, actor logging.EntityRef, targets []logging.EntityRef, payload any, extra map[string]any) {
	if pub == nil {
		return
	}
	pub.Publish(ctx, logging.Event{
		Type:     eventType,
		Tick:     tick,
		Actor:    actor,
		Targets:  targets,
		Severity: severity,
		Category: logging.CategoryCombat,
		Payload:  payload,
		Extra:    extra,
	})
}

// Damage publishes a combat damage event for a single target.
func Damage(ctx context.Context, pub logging.Publisher, tick uint64, actor, target logging.EntityRef, payload DamagePayload, extra map[string]any) {
	publish(ctx, pub, EventDamage, logging.SeverityInfo, tick, actor, []logging.EntityRef{target}, payload, extra)
}

// Defeat publishes a combat defeat event for the eliminated target.
func Defeat(ctx context.Context, pub logging.Publisher, tick uint64, actor, target logging.EntityRef, payload DefeatPayload, extra map[string]any) {
	publish(ctx, pub, EventDefeat, logging.SeverityInfo, tick, actor, []logging.EntityRef{target}, payload, extra)
}

// AttackStarted publishes the start of a melee swing.
func AttackStarted(ctx context.Context, pub logging.Publisher, tick uint64, actor logging.EntityRef, payload AttackStartedPayload, extra map[string]any) {
	publish(ctx, pub, EventAttackStarted, logging.SeverityDebug, tick, actor, nil, payload, extra)
}

// IntentRejected publishes a warning for a refused intent.
func IntentRejected(ctx context.Context, pub logging.Publisher, tick uint64, actor logging.EntityRef, payload IntentRejectedPayload, extra map[string]any) {
	publish(ctx, pub, EventIntentRejected, logging.SeverityWarn, tick, actor, nil, payload, extra)
}

// StaminaDebt publishes a warning for an action paid beyond the pool.
func StaminaDebt(ctx context.Context, pub logging.Publisher, tick uint64, actor logging.EntityRef, payload StaminaDebtPayload, extra map[string]any) {
	publish(ctx, pub, EventStaminaDebt, logging.SeverityWarn, tick, actor, nil, payload, extra)
}

// Parry publishes an opened parry.
func Parry(ctx context.Context, pub logging.Publisher, tick uint64, actor logging.EntityRef, payload ParryPayload, extra map[string]any) {
	publish(ctx, pub, EventParry, logging.SeverityInfo, tick, actor, nil, payload, extra)
}

// Stagger publishes a stagger applied to actor by the parrying defender.
func Stagger(ctx context.Context, pub logging.Publisher, tick uint64, actor, parriedBy logging.EntityRef, payload StaggerPayload, extra map[string]any) {
	publish(ctx, pub, EventStagger, logging.SeverityInfo, tick, actor, []logging.EntityRef{parriedBy}, payload, extra)
}

// SelfDamage publishes a warning for a discarded self-targeted report.
func SelfDamage(ctx context.Context, pub logging.Publisher, tick uint64, actor logging.EntityRef, payload ReportPayload, extra map[string]any) {
	publish(ctx, pub, EventSelfDamage, logging.SeverityWarn, tick, actor, nil, payload, extra)
}

// ReportIgnored publishes a debug event for a report the state could not honour.
func ReportIgnored(ctx context.Context, pub logging.Publisher, tick uint64, actor logging.EntityRef, payload ReportPayload, extra map[string]any) {
	publish(ctx, pub, EventReportIgnored, logging.SeverityDebug, tick, actor, nil, payload, extra)
}

// WeaponSwitched publishes a weapon profile swap.
func WeaponSwitched(ctx context.Context, pub logging.Publisher, tick uint64, actor logging.EntityRef, payload WeaponSwitchedPayload, extra map[string]any) {
	publish(ctx, pub, EventWeaponSwitched, logging.SeverityInfo, tick, actor, nil, payload, extra)
}
