// Package weapon defines weapon profiles and the catalog they are authored in.
package weapon

import (
	"errors"
	"fmt"
	"math"
)

// ErrInvalidWeapon is returned when a profile violates its timing or range
// constraints.
var ErrInvalidWeapon = errors.New("weapon: invalid profile")

// Kind classifies which pipelines a weapon participates in.
type Kind string

const (
	KindMelee  Kind = "melee"
	KindRanged Kind = "ranged"
	KindHybrid Kind = "hybrid"
)

// Stats is an entity's active weapon profile. The whole struct is swapped on
// weapon switch; only CooldownTimer is live state.
type Stats struct {
	Name     string `json:"name" yaml:"name"`
	Kind     Kind   `json:"kind" yaml:"kind"`
	CanBlock bool   `json:"canBlock,omitempty" yaml:"canBlock"`
	CanParry bool   `json:"canParry,omitempty" yaml:"canParry"`

	BaseDamage     float64 `json:"baseDamage" yaml:"baseDamage"`
	AttackCooldown float64 `json:"attackCooldown" yaml:"attackCooldown"`
	CooldownTimer  float64 `json:"cooldownTimer" yaml:"-"`

	WindupDuration      float64 `json:"windupDuration,omitempty" yaml:"windupDuration"`
	AttackDuration      float64 `json:"attackDuration,omitempty" yaml:"attackDuration"`
	RecoveryDuration    float64 `json:"recoveryDuration,omitempty" yaml:"recoveryDuration"`
	ParryWindow         float64 `json:"parryWindow,omitempty" yaml:"parryWindow"`
	ParryActiveDuration float64 `json:"parryActiveDuration,omitempty" yaml:"parryActiveDuration"`
	StaggerDuration     float64 `json:"staggerDuration,omitempty" yaml:"staggerDuration"`

	Range           float64 `json:"range" yaml:"range"`
	ProjectileSpeed float64 `json:"projectileSpeed,omitempty" yaml:"projectileSpeed"`
	HearingRange    float64 `json:"hearingRange,omitempty" yaml:"hearingRange"`
}

// Melee reports whether the weapon can swing.
func (s Stats) Melee() bool {
	return s.Kind == KindMelee || s.Kind == KindHybrid
}

// Ranged reports whether the weapon can fire.
func (s Stats) Ranged() bool {
	return s.Kind == KindRanged || s.Kind == KindHybrid
}

// Parries reports whether the wielder may open a parry with this weapon.
func (s Stats) Parries() bool {
	return s.Melee() && s.CanParry
}

// Ready reports whether the cooldown has elapsed.
func (s Stats) Ready() bool {
	return s.CooldownTimer <= 0
}

// StartCooldown arms the cooldown timer for a fresh attack.
func (s *Stats) StartCooldown() {
	if s == nil {
		return
	}
	s.CooldownTimer = s.AttackCooldown
}

// TickCooldown counts the timer down by dt, stopping at zero.
func (s *Stats) TickCooldown(dt float64) {
	if s == nil || s.CooldownTimer <= 0 {
		return
	}
	s.CooldownTimer -= dt
	if s.CooldownTimer < 0 {
		s.CooldownTimer = 0
	}
}

// HitboxDuration is the part of the active phase after the parry window
// closes.
func (s Stats) HitboxDuration() float64 {
	return math.Max(0, s.AttackDuration-s.ParryWindow)
}

// Validate checks the profile against its kind.
func (s Stats) Validate() error {
	switch s.Kind {
	case KindMelee, KindRanged, KindHybrid:
	default:
		return fmt.Errorf("%w: %q has unknown kind %q", ErrInvalidWeapon, s.Name, s.Kind)
	}
	fields := map[string]float64{
		"baseDamage":          s.BaseDamage,
		"attackCooldown":      s.AttackCooldown,
		"windupDuration":      s.WindupDuration,
		"attackDuration":      s.AttackDuration,
		"recoveryDuration":    s.RecoveryDuration,
		"parryWindow":         s.ParryWindow,
		"parryActiveDuration": s.ParryActiveDuration,
		"staggerDuration":     s.StaggerDuration,
		"range":               s.Range,
		"projectileSpeed":     s.ProjectileSpeed,
		"hearingRange":        s.HearingRange,
	}
	for _, name := range fieldOrder {
		v := fields[name]
		if math.IsNaN(v) || math.IsInf(v, 0) || v < 0 {
			return fmt.Errorf("%w: %q field %s must be a non-negative number, got %v", ErrInvalidWeapon, s.Name, name, v)
		}
	}
	if s.Melee() {
		if s.AttackDuration <= 0 {
			return fmt.Errorf("%w: %q melee attackDuration must be positive", ErrInvalidWeapon, s.Name)
		}
		if s.ParryWindow > s.AttackDuration {
			return fmt.Errorf("%w: %q parryWindow %.3f exceeds attackDuration %.3f", ErrInvalidWeapon, s.Name, s.ParryWindow, s.AttackDuration)
		}
		if s.CanParry && s.ParryActiveDuration <= 0 {
			return fmt.Errorf("%w: %q can parry but parryActiveDuration is zero", ErrInvalidWeapon, s.Name)
		}
	}
	if s.Ranged() {
		if s.Range <= 0 {
			return fmt.Errorf("%w: %q ranged weapon needs a positive range", ErrInvalidWeapon, s.Name)
		}
		if s.ProjectileSpeed <= 0 {
			return fmt.Errorf("%w: %q ranged weapon needs a positive projectileSpeed", ErrInvalidWeapon, s.Name)
		}
	}
	return nil
}

var fieldOrder = []string{
	"baseDamage",
	"attackCooldown",
	"windupDuration",
	"attackDuration",
	"recoveryDuration",
	"parryWindow",
	"parryActiveDuration",
	"staggerDuration",
	"range",
	"projectileSpeed",
	"hearingRange",
}
