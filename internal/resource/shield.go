package resource

import "fmt"

// ShieldReactivationFraction is the energy fraction a broken shield must
// regenerate to before it comes back online. Deactivation happens at zero,
// so the gap between the two thresholds is the hysteresis band.
const ShieldReactivationFraction = 0.5

// EnergyShield absorbs ranged damage while active.
type EnergyShield struct {
	CurrentEnergy float64 `json:"currentEnergy"`
	MaxEnergy     float64 `json:"maxEnergy"`
	RechargeDelay float64 `json:"rechargeDelay"`
	RechargeRate  float64 `json:"rechargeRate"`
	SinceDamage   float64 `json:"sinceDamage"`
	Active        bool    `json:"active"`
}

// Absorption describes what the shield did with one hit.
type Absorption struct {
	Absorbed  float64
	Overflow  float64
	WasActive bool
	Broke     bool
}

// NewEnergyShield returns a full, active shield.
func NewEnergyShield(maxEnergy, rechargeDelay, rechargeRate float64) (EnergyShield, error) {
	if !finite(maxEnergy) || maxEnergy <= 0 {
		return EnergyShield{}, fmt.Errorf("%w: shield energy must be positive, got %v", ErrInvalidResource, maxEnergy)
	}
	if !finite(rechargeDelay) || rechargeDelay < 0 || !finite(rechargeRate) || rechargeRate < 0 {
		return EnergyShield{}, fmt.Errorf("%w: shield recharge must be non-negative", ErrInvalidResource)
	}
	return EnergyShield{
		CurrentEnergy: maxEnergy,
		MaxEnergy:     maxEnergy,
		RechargeDelay: rechargeDelay,
		RechargeRate:  rechargeRate,
		SinceDamage:   rechargeDelay,
		Active:        true,
	}, nil
}

// Absorb soaks amount into the shield. Anything beyond the remaining energy
// is returned as Overflow for the caller to apply to Health. An inactive
// shield passes everything through untouched.
func (s *EnergyShield) Absorb(amount float64) Absorption {
	if s == nil || !finite(amount) || amount <= 0 {
		return Absorption{}
	}
	if !s.Active {
		return Absorption{Overflow: amount}
	}
	s.SinceDamage = 0
	result := Absorption{WasActive: true}
	if amount < s.CurrentEnergy {
		s.CurrentEnergy -= amount
		result.Absorbed = amount
		return result
	}
	result.Absorbed = s.CurrentEnergy
	result.Overflow = amount - s.CurrentEnergy
	result.Broke = true
	s.CurrentEnergy = 0
	s.Active = false
	return result
}

// Recharge regenerates energy once RechargeDelay seconds have passed since
// the last absorbed hit, and re-enables a broken shield only after it has
// climbed back to ShieldReactivationFraction of max.
func (s *EnergyShield) Recharge(dt float64) {
	if s == nil || !finite(dt) || dt <= 0 {
		return
	}
	s.SinceDamage += dt
	if s.SinceDamage >= s.RechargeDelay {
		s.CurrentEnergy = clamp(s.CurrentEnergy+s.RechargeRate*dt, 0, s.MaxEnergy)
	}
	if !s.Active && s.CurrentEnergy+Epsilon >= s.MaxEnergy*ShieldReactivationFraction {
		s.Active = true
	}
}

// Fraction returns CurrentEnergy/MaxEnergy in [0, 1].
func (s EnergyShield) Fraction() float64 {
	if s.MaxEnergy <= 0 {
		return 0
	}
	return clamp(s.CurrentEnergy/s.MaxEnergy, 0, 1)
}

// Valid reports whether the invariant holds.
func (s EnergyShield) Valid() bool {
	return s.CurrentEnergy >= 0 && s.CurrentEnergy <= s.MaxEnergy
}
