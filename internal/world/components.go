package world

import (
	"sort"

	"github.com/yohamta/donburi"

	"github.com/pockerhead/VOIDRUN-sub000/contract"
	"github.com/pockerhead/VOIDRUN-sub000/internal/resource"
	"github.com/pockerhead/VOIDRUN-sub000/internal/weapon"
)

// Identity is attached to every entity and carries the core's own reference.
type Identity struct {
	ID      contract.EntityID  `json:"id"`
	Faction contract.Faction   `json:"faction"`
	Kind    contract.ActorKind `json:"kind"`
	Name    string             `json:"name,omitempty"`
}

// Transform mirrors the collaborator's last reported transform.
type Transform struct {
	Position contract.Vec3 `json:"position"`
	Facing   contract.Vec3 `json:"facing"`
}

// MeleePhase is the current slice of a melee swing.
type MeleePhase uint8

const (
	PhaseWindup MeleePhase = iota
	PhaseActiveParryWindow
	PhaseActiveHitbox
	PhaseRecovery
)

func (p MeleePhase) String() string {
	switch p {
	case PhaseWindup:
		return "windup"
	case PhaseActiveParryWindow:
		return "active_parry_window"
	case PhaseActiveHitbox:
		return "active_hitbox"
	case PhaseRecovery:
		return "recovery"
	default:
		return "unknown"
	}
}

// MeleeTiming holds the phase durations a swing was approved with.
type MeleeTiming struct {
	Windup      float64 `json:"windup"`
	ParryWindow float64 `json:"parryWindow"`
	Hitbox      float64 `json:"hitbox"`
	Recovery    float64 `json:"recovery"`
}

// MeleeAttackState exists only while a swing is in progress.
type MeleeAttackState struct {
	Phase       MeleePhase          `json:"phase"`
	PhaseTimer  float64             `json:"phaseTimer"`
	Timing      MeleeTiming         `json:"timing"`
	AttackType  contract.AttackType `json:"attackType"`
	Target      contract.EntityID   `json:"target,omitempty"`
	HitEntities []contract.EntityID `json:"hitEntities,omitempty"`
}

// HasHit reports whether target was already struck by this swing.
func (m *MeleeAttackState) HasHit(target contract.EntityID) bool {
	i := sort.Search(len(m.HitEntities), func(i int) bool { return m.HitEntities[i] >= target })
	return i < len(m.HitEntities) && m.HitEntities[i] == target
}

// MarkHit records target, keeping HitEntities sorted. It returns false when
// the target was already recorded.
func (m *MeleeAttackState) MarkHit(target contract.EntityID) bool {
	i := sort.Search(len(m.HitEntities), func(i int) bool { return m.HitEntities[i] >= target })
	if i < len(m.HitEntities) && m.HitEntities[i] == target {
		return false
	}
	m.HitEntities = append(m.HitEntities, 0)
	copy(m.HitEntities[i+1:], m.HitEntities[i:])
	m.HitEntities[i] = target
	return true
}

// Threatening reports whether the swing can still be parried.
func (m MeleeAttackState) Threatening() bool {
	return m.Phase == PhaseWindup || m.Phase == PhaseActiveParryWindow
}

// ParryPhase is the current slice of a parry attempt.
type ParryPhase uint8

const (
	ParryWindup ParryPhase = iota
	ParryRecovery
)

func (p ParryPhase) String() string {
	if p == ParryWindup {
		return "windup"
	}
	return "recovery"
}

// ParryState exists only while a parry is in progress. Only Windup deflects.
type ParryState struct {
	Phase      ParryPhase `json:"phase"`
	PhaseTimer float64    `json:"phaseTimer"`
}

// StaggerState marks an attacker that was parried.
type StaggerState struct {
	Remaining float64           `json:"remaining"`
	ParriedBy contract.EntityID `json:"parriedBy,omitempty"`
}

// AIStateKind tags the active AIState variant.
type AIStateKind string

const (
	AIIdle    AIStateKind = "idle"
	AIPatrol  AIStateKind = "patrol"
	AICombat  AIStateKind = "combat"
	AIRetreat AIStateKind = "retreat"
	AIDead    AIStateKind = "dead"
)

// AIState is a tagged variant. Timer is the patrol direction timer in Patrol
// and the retreat timer in Retreat. Target is the combat target in Combat and
// the from-target in Retreat. PatrolTarget is only meaningful in Patrol.
type AIState struct {
	Kind         AIStateKind       `json:"kind"`
	Timer        float64           `json:"timer,omitempty"`
	Target       contract.EntityID `json:"target,omitempty"`
	PatrolTarget *contract.Vec3    `json:"patrolTarget,omitempty"`
}

func IdleState() AIState { return AIState{Kind: AIIdle} }

func PatrolState(timer float64) AIState { return AIState{Kind: AIPatrol, Timer: timer} }

func CombatState(target contract.EntityID) AIState {
	return AIState{Kind: AICombat, Target: target}
}

func RetreatState(timer float64, from contract.EntityID) AIState {
	return AIState{Kind: AIRetreat, Timer: timer, Target: from}
}

func DeadState() AIState { return AIState{Kind: AIDead} }

// SpottedEnemies keeps hostile entities in the order they were first seen.
type SpottedEnemies struct {
	IDs []contract.EntityID `json:"ids,omitempty"`
}

func (s *SpottedEnemies) Contains(id contract.EntityID) bool {
	for _, existing := range s.IDs {
		if existing == id {
			return true
		}
	}
	return false
}

// Add appends id unless already present.
func (s *SpottedEnemies) Add(id contract.EntityID) bool {
	if !id.Valid() || s.Contains(id) {
		return false
	}
	s.IDs = append(s.IDs, id)
	return true
}

func (s *SpottedEnemies) Remove(id contract.EntityID) bool {
	for i, existing := range s.IDs {
		if existing == id {
			s.IDs = append(s.IDs[:i], s.IDs[i+1:]...)
			return true
		}
	}
	return false
}

// Retain drops every id for which keep returns false, preserving order.
func (s *SpottedEnemies) Retain(keep func(contract.EntityID) bool) {
	kept := s.IDs[:0]
	for _, id := range s.IDs {
		if keep(id) {
			kept = append(kept, id)
		}
	}
	s.IDs = kept
}

// AIConfig is static per-entity tuning. Thresholds are fractions of max.
type AIConfig struct {
	RetreatStaminaThreshold       float64 `json:"retreatStaminaThreshold" yaml:"retreatStaminaThreshold"`
	RetreatHealthThreshold        float64 `json:"retreatHealthThreshold" yaml:"retreatHealthThreshold"`
	RetreatDuration               float64 `json:"retreatDuration" yaml:"retreatDuration"`
	PatrolDirectionChangeInterval float64 `json:"patrolDirectionChangeInterval" yaml:"patrolDirectionChangeInterval"`
	Profile                       string  `json:"profile" yaml:"profile"`
}

// Movement holds the intent derived for the current tick.
type Movement struct {
	Intent contract.MovementIntent `json:"intent"`
}

// Despawn counts down the corpse grace period.
type Despawn struct {
	Remaining float64 `json:"remaining"`
	Grace     float64 `json:"grace"`
}

// LastAttacker remembers who dealt the most recent damage.
type LastAttacker struct {
	ID     contract.EntityID     `json:"id"`
	Source contract.DamageSource `json:"source"`
}

// PlayerControl carries the player's held input between frames.
type PlayerControl struct {
	Direction contract.Vec3 `json:"direction"`
	Sprinting bool          `json:"sprinting,omitempty"`
	Jumping   bool          `json:"jumping,omitempty"`
}

var (
	IdentityComponent     = donburi.NewComponentType[Identity]()
	TransformComponent    = donburi.NewComponentType[Transform]()
	HealthComponent       = donburi.NewComponentType[resource.Health]()
	StaminaComponent      = donburi.NewComponentType[resource.Stamina]()
	ShieldComponent       = donburi.NewComponentType[resource.EnergyShield]()
	WeaponComponent       = donburi.NewComponentType[weapon.Stats]()
	MeleeAttackComponent  = donburi.NewComponentType[MeleeAttackState]()
	ParryComponent        = donburi.NewComponentType[ParryState]()
	StaggerComponent      = donburi.NewComponentType[StaggerState]()
	AIStateComponent      = donburi.NewComponentType[AIState]()
	SpottedComponent      = donburi.NewComponentType[SpottedEnemies]()
	AIConfigComponent     = donburi.NewComponentType[AIConfig]()
	MovementComponent     = donburi.NewComponentType[Movement]()
	DespawnComponent      = donburi.NewComponentType[Despawn]()
	LastAttackerComponent = donburi.NewComponentType[LastAttacker]()
	PlayerComponent       = donburi.NewComponentType[PlayerControl]()
)
