package contract

// InboundKind identifies events pushed into the core by collaborators.
type InboundKind string

const (
	InboundPerceptionSpotted      InboundKind = "PerceptionSpotted"
	InboundPerceptionLost         InboundKind = "PerceptionLost"
	InboundDamageReport           InboundKind = "DamageReport"
	InboundProjectileImpact       InboundKind = "ProjectileImpact"
	InboundProjectileShieldImpact InboundKind = "ProjectileShieldImpact"
	InboundAttackApproved         InboundKind = "AttackApproved"
	InboundJumpRequested          InboundKind = "JumpRequested"
	InboundPlayerInputFrame       InboundKind = "PlayerInputFrame"
	InboundNavigationOutcome      InboundKind = "NavigationOutcome"
	InboundWeaponFired            InboundKind = "WeaponFired"
	InboundIntentRejected         InboundKind = "IntentRejected"
	InboundTransformSync          InboundKind = "TransformSync"
	InboundWeaponSwitch           InboundKind = "WeaponSwitch"
	InboundEnvironmentalDamage    InboundKind = "EnvironmentalDamage"
)

// AttackType selects the stamina cost of a melee swing.
type AttackType string

const (
	AttackLight AttackType = "light"
	AttackHeavy AttackType = "heavy"
)

// PerceptionSpotted reports that observer can now see target.
type PerceptionSpotted struct {
	Observer EntityID `json:"observer" yaml:"observer"`
	Target   EntityID `json:"target" yaml:"target"`
}

// PerceptionLost reports that observer can no longer see target.
type PerceptionLost struct {
	Observer EntityID `json:"observer" yaml:"observer"`
	Target   EntityID `json:"target" yaml:"target"`
}

// DamageReport is a melee hit reported by the tactical layer while the
// attacker's hitbox was live.
type DamageReport struct {
	Attacker     EntityID `json:"attacker" yaml:"attacker"`
	Target       EntityID `json:"target" yaml:"target"`
	Damage       float64  `json:"damage" yaml:"damage"`
	WasBlocked   bool     `json:"wasBlocked,omitempty" yaml:"wasBlocked"`
	WasParried   bool     `json:"wasParried,omitempty" yaml:"wasParried"`
	ImpactPoint  Vec3     `json:"impactPoint" yaml:"impactPoint"`
	ImpactNormal Vec3     `json:"impactNormal" yaml:"impactNormal"`
}

// ProjectileImpact is a projectile that struck a body collider.
// ProjectileID identifies the projectile for per-tick deduplication; zero
// marks an unidentified report that is applied every time it arrives.
type ProjectileImpact struct {
	ProjectileID uint64   `json:"projectileId,omitempty" yaml:"projectileId"`
	Shooter      EntityID `json:"shooter" yaml:"shooter"`
	Target       EntityID `json:"target" yaml:"target"`
	Damage       float64  `json:"damage" yaml:"damage"`
	ImpactPoint  Vec3     `json:"impactPoint" yaml:"impactPoint"`
	ImpactNormal Vec3     `json:"impactNormal" yaml:"impactNormal"`
}

// ProjectileShieldImpact is a projectile that struck a shield collider. It is
// kept distinct from ProjectileImpact because it must never touch Health
// except through shield overflow.
type ProjectileShieldImpact struct {
	ProjectileID uint64   `json:"projectileId,omitempty" yaml:"projectileId"`
	Shooter      EntityID `json:"shooter" yaml:"shooter"`
	Target       EntityID `json:"target" yaml:"target"`
	Damage       float64  `json:"damage" yaml:"damage"`
	ImpactPoint  Vec3     `json:"impactPoint" yaml:"impactPoint"`
	ImpactNormal Vec3     `json:"impactNormal" yaml:"impactNormal"`
}

// AttackApproved is the tactical validator's acceptance of an AttackIntent.
// Zero durations fall back to the attacker's weapon profile.
type AttackApproved struct {
	Attacker         EntityID   `json:"attacker" yaml:"attacker"`
	AttackType       AttackType `json:"attackType" yaml:"attackType"`
	Target           EntityID   `json:"target,omitempty" yaml:"target"`
	WindupDuration   float64    `json:"windupDuration" yaml:"windupDuration"`
	AttackDuration   float64    `json:"attackDuration" yaml:"attackDuration"`
	RecoveryDuration float64    `json:"recoveryDuration" yaml:"recoveryDuration"`
}

// JumpRequested is emitted for the player-controlled entity only.
type JumpRequested struct {
	Entity EntityID `json:"entity" yaml:"entity"`
}

// PlayerInputFrame carries one frame of player input. Attack and Parry are
// button edges (pressed this frame), not held state.
type PlayerInputFrame struct {
	Entity     EntityID   `json:"entity" yaml:"entity"`
	Direction  Vec3       `json:"direction" yaml:"direction"`
	Sprint     bool       `json:"sprint,omitempty" yaml:"sprint"`
	Jump       bool       `json:"jump,omitempty" yaml:"jump"`
	Attack     bool       `json:"attack,omitempty" yaml:"attack"`
	AttackType AttackType `json:"attackType,omitempty" yaml:"attackType"`
	Parry      bool       `json:"parry,omitempty" yaml:"parry"`
}

// NavigationResult is the pathfinding collaborator's verdict.
type NavigationResult string

const (
	NavigationReached     NavigationResult = "reached"
	NavigationUnreachable NavigationResult = "unreachable"
)

// NavigationOutcome is pathfinding feedback for an entity's current move.
type NavigationOutcome struct {
	Entity EntityID         `json:"entity" yaml:"entity"`
	Result NavigationResult `json:"result" yaml:"result"`
}

// WeaponFired is an approved fire event. Every fire is audible within
// HearingRange of Position.
type WeaponFired struct {
	Shooter      EntityID `json:"shooter" yaml:"shooter"`
	Target       EntityID `json:"target,omitempty" yaml:"target"`
	Position     Vec3     `json:"position" yaml:"position"`
	HearingRange float64  `json:"hearingRange" yaml:"hearingRange"`
}

// IntentKind names the outbound intent a rejection refers to.
type IntentKind string

const (
	IntentAttack IntentKind = "attack"
	IntentFire   IntentKind = "fire"
	IntentJump   IntentKind = "jump"
	IntentParry  IntentKind = "parry"
	IntentSwitch IntentKind = "switch"
)

// IntentRejected reports that the tactical layer refused an intent.
type IntentRejected struct {
	Entity EntityID   `json:"entity" yaml:"entity"`
	Intent IntentKind `json:"intent" yaml:"intent"`
	Reason string     `json:"reason" yaml:"reason"`
}

// TransformSync mirrors an entity's presentation-layer transform into the core.
type TransformSync struct {
	Entity   EntityID `json:"entity" yaml:"entity"`
	Position Vec3     `json:"position" yaml:"position"`
	Facing   Vec3     `json:"facing" yaml:"facing"`
}

// WeaponSwitch swaps an entity's weapon profile wholesale.
type WeaponSwitch struct {
	Entity EntityID `json:"entity" yaml:"entity"`
	Weapon string   `json:"weapon" yaml:"weapon"`
}

// EnvironmentalDamage is direct damage from hazards. It bypasses shields.
type EnvironmentalDamage struct {
	Target EntityID `json:"target" yaml:"target"`
	Damage float64  `json:"damage" yaml:"damage"`
}

// Inbound is the envelope for every collaborator event. Exactly one payload
// pointer matching Kind is set.
type Inbound struct {
	Seq           uint64                  `json:"seq"`
	Kind          InboundKind             `json:"kind"`
	Spotted       *PerceptionSpotted      `json:"spotted,omitempty"`
	Lost          *PerceptionLost         `json:"lost,omitempty"`
	Damage        *DamageReport           `json:"damage,omitempty"`
	Impact        *ProjectileImpact       `json:"impact,omitempty"`
	ShieldImpact  *ProjectileShieldImpact `json:"shieldImpact,omitempty"`
	Approved      *AttackApproved         `json:"approved,omitempty"`
	Jump          *JumpRequested          `json:"jump,omitempty"`
	Input         *PlayerInputFrame       `json:"input,omitempty"`
	Navigation    *NavigationOutcome      `json:"navigation,omitempty"`
	Fired         *WeaponFired            `json:"fired,omitempty"`
	Rejected      *IntentRejected         `json:"rejected,omitempty"`
	Transform     *TransformSync          `json:"transform,omitempty"`
	Switch        *WeaponSwitch           `json:"switch,omitempty"`
	Environmental *EnvironmentalDamage    `json:"environmental,omitempty"`
}

// Valid reports whether the payload matching Kind is present.
func (in Inbound) Valid() bool {
	switch in.Kind {
	case InboundPerceptionSpotted:
		return in.Spotted != nil
	case InboundPerceptionLost:
		return in.Lost != nil
	case InboundDamageReport:
		return in.Damage != nil
	case InboundProjectileImpact:
		return in.Impact != nil
	case InboundProjectileShieldImpact:
		return in.ShieldImpact != nil
	case InboundAttackApproved:
		return in.Approved != nil
	case InboundJumpRequested:
		return in.Jump != nil
	case InboundPlayerInputFrame:
		return in.Input != nil
	case InboundNavigationOutcome:
		return in.Navigation != nil
	case InboundWeaponFired:
		return in.Fired != nil
	case InboundIntentRejected:
		return in.Rejected != nil
	case InboundTransformSync:
		return in.Transform != nil
	case InboundWeaponSwitch:
		return in.Switch != nil
	case InboundEnvironmentalDamage:
		return in.Environmental != nil
	default:
		return false
	}
}

// Subject returns the entity the event is primarily about, used for
// per-entity throttling and log attribution.
func (in Inbound) Subject() EntityID {
	switch {
	case in.Spotted != nil:
		return in.Spotted.Observer
	case in.Lost != nil:
		return in.Lost.Observer
	case in.Damage != nil:
		return in.Damage.Attacker
	case in.Impact != nil:
		return in.Impact.Shooter
	case in.ShieldImpact != nil:
		return in.ShieldImpact.Shooter
	case in.Approved != nil:
		return in.Approved.Attacker
	case in.Jump != nil:
		return in.Jump.Entity
	case in.Input != nil:
		return in.Input.Entity
	case in.Navigation != nil:
		return in.Navigation.Entity
	case in.Fired != nil:
		return in.Fired.Shooter
	case in.Rejected != nil:
		return in.Rejected.Entity
	case in.Transform != nil:
		return in.Transform.Entity
	case in.Switch != nil:
		return in.Switch.Entity
	case in.Environmental != nil:
		return in.Environmental.Target
	default:
		return NoEntity
	}
}

func Spotted(observer, target EntityID) Inbound {
	return Inbound{Kind: InboundPerceptionSpotted, Spotted: &PerceptionSpotted{Observer: observer, Target: target}}
}

func Lost(observer, target EntityID) Inbound {
	return Inbound{Kind: InboundPerceptionLost, Lost: &PerceptionLost{Observer: observer, Target: target}}
}

func Damage(report DamageReport) Inbound {
	return Inbound{Kind: InboundDamageReport, Damage: &report}
}

func Impact(impact ProjectileImpact) Inbound {
	return Inbound{Kind: InboundProjectileImpact, Impact: &impact}
}

func ShieldImpact(impact ProjectileShieldImpact) Inbound {
	return Inbound{Kind: InboundProjectileShieldImpact, ShieldImpact: &impact}
}

func Approved(approval AttackApproved) Inbound {
	return Inbound{Kind: InboundAttackApproved, Approved: &approval}
}

func Jump(entity EntityID) Inbound {
	return Inbound{Kind: InboundJumpRequested, Jump: &JumpRequested{Entity: entity}}
}

func Input(frame PlayerInputFrame) Inbound {
	return Inbound{Kind: InboundPlayerInputFrame, Input: &frame}
}

func Navigation(entity EntityID, result NavigationResult) Inbound {
	return Inbound{Kind: InboundNavigationOutcome, Navigation: &NavigationOutcome{Entity: entity, Result: result}}
}

func Fired(fired WeaponFired) Inbound {
	return Inbound{Kind: InboundWeaponFired, Fired: &fired}
}

func Rejected(entity EntityID, intent IntentKind, reason string) Inbound {
	return Inbound{Kind: InboundIntentRejected, Rejected: &IntentRejected{Entity: entity, Intent: intent, Reason: reason}}
}

func Transform(entity EntityID, position, facing Vec3) Inbound {
	return Inbound{Kind: InboundTransformSync, Transform: &TransformSync{Entity: entity, Position: position, Facing: facing}}
}

func Switch(entity EntityID, weapon string) Inbound {
	return Inbound{Kind: InboundWeaponSwitch, Switch: &WeaponSwitch{Entity: entity, Weapon: weapon}}
}

func Environmental(target EntityID, damage float64) Inbound {
	return Inbound{Kind: InboundEnvironmentalDamage, Environmental: &EnvironmentalDamage{Target: target, Damage: damage}}
}
