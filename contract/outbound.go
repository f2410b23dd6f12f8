package contract

// OutboundKind identifies signals the core produces for collaborators.
type OutboundKind string

const (
	OutboundAttackIntent    OutboundKind = "AttackIntent"
	OutboundFireIntent      OutboundKind = "FireIntent"
	OutboundMovementIntent  OutboundKind = "MovementIntent"
	OutboundDamageDealt     OutboundKind = "DamageDealt"
	OutboundEntityDied      OutboundKind = "EntityDied"
	OutboundEntityDespawned OutboundKind = "EntityDespawned"
	OutboundParryStarted    OutboundKind = "ParryStarted"
	OutboundStaggered       OutboundKind = "Staggered"
)

// AttackIntent is a strategic melee request; the tactical validator may
// reject it. Target is empty for player swings.
type AttackIntent struct {
	Attacker   EntityID   `json:"attacker"`
	AttackType AttackType `json:"attackType"`
	Target     EntityID   `json:"target,omitempty"`
}

// FireIntent is a strategic ranged request; the tactical validator checks
// range and line of sight before it becomes a WeaponFired event.
type FireIntent struct {
	Shooter      EntityID `json:"shooter"`
	Target       EntityID `json:"target"`
	Damage       float64  `json:"damage"`
	Speed        float64  `json:"speed"`
	MaxRange     float64  `json:"maxRange"`
	HearingRange float64  `json:"hearingRange"`
}

// MovementKind enumerates movement intent variants.
type MovementKind string

const (
	MoveIdle        MovementKind = "idle"
	MoveTo          MovementKind = "move_to"
	MoveFollow      MovementKind = "follow"
	MoveRetreatFrom MovementKind = "retreat_from"
	MoveStop        MovementKind = "stop"
	MoveSteer       MovementKind = "steer"
)

// MovementIntent is re-derived for every entity on every tick. Only the
// fields relevant to Kind are populated.
type MovementIntent struct {
	Entity    EntityID     `json:"entity"`
	Kind      MovementKind `json:"kind"`
	Position  Vec3         `json:"position,omitempty"`
	Target    EntityID     `json:"target,omitempty"`
	Direction Vec3         `json:"direction,omitempty"`
	Sprint    bool         `json:"sprint,omitempty"`
	Jump      bool         `json:"jump,omitempty"`
}

// StopIntent returns the stop intent for an entity.
func StopIntent(entity EntityID) MovementIntent {
	return MovementIntent{Entity: entity, Kind: MoveStop}
}

// DamageSource classifies how damage reached the target.
type DamageSource string

const (
	SourceMelee         DamageSource = "melee"
	SourceRanged        DamageSource = "ranged"
	SourceEnvironmental DamageSource = "environmental"
)

// ShieldOutcome reports what the energy shield did with a hit.
type ShieldOutcome string

const (
	ShieldNone     ShieldOutcome = "none"
	ShieldBypassed ShieldOutcome = "bypassed"
	ShieldInactive ShieldOutcome = "inactive"
	ShieldAbsorbed ShieldOutcome = "absorbed"
	ShieldBroken   ShieldOutcome = "broken"
)

// DamageDealt is published for VFX and audio feedback.
type DamageDealt struct {
	Attacker      EntityID      `json:"attacker,omitempty"`
	Target        EntityID      `json:"target"`
	Damage        uint32        `json:"damage"`
	Absorbed      float64       `json:"absorbed,omitempty"`
	Source        DamageSource  `json:"source"`
	ShieldOutcome ShieldOutcome `json:"shieldOutcome"`
	Blocked       bool          `json:"blocked,omitempty"`
	Parried       bool          `json:"parried,omitempty"`
	ImpactPoint   Vec3          `json:"impactPoint"`
	ImpactNormal  Vec3          `json:"impactNormal"`
}

// EntityDied is emitted once, on the tick Health reaches zero.
type EntityDied struct {
	Entity EntityID `json:"entity"`
	Killer EntityID `json:"killer,omitempty"`
}

// EntityDespawned is emitted when the corpse grace period ends and the
// collaborator may release presentation resources.
type EntityDespawned struct {
	Entity EntityID `json:"entity"`
}

// ParryStarted signals the collaborator to play the parry animation.
type ParryStarted struct {
	Entity            EntityID `json:"entity"`
	InterruptedAttack bool     `json:"interruptedAttack,omitempty"`
}

// Staggered signals that an attacker was parried and its swing cancelled.
type Staggered struct {
	Entity    EntityID `json:"entity"`
	ParriedBy EntityID `json:"parriedBy"`
	Duration  float64  `json:"duration"`
}

// Outbound is the envelope for every signal produced in a tick.
type Outbound struct {
	Tick      uint64           `json:"tick"`
	Kind      OutboundKind     `json:"kind"`
	Attack    *AttackIntent    `json:"attack,omitempty"`
	Fire      *FireIntent      `json:"fire,omitempty"`
	Movement  *MovementIntent  `json:"movement,omitempty"`
	Damage    *DamageDealt     `json:"damage,omitempty"`
	Died      *EntityDied      `json:"died,omitempty"`
	Despawned *EntityDespawned `json:"despawned,omitempty"`
	Parry     *ParryStarted    `json:"parry,omitempty"`
	Stagger   *Staggered       `json:"stagger,omitempty"`
}
