package resource

import (
	"fmt"
	"math"
)

// Stamina is consumed by actions and regenerates every fixed tick.
type Stamina struct {
	Current   float64 `json:"current"`
	Max       float64 `json:"max"`
	RegenRate float64 `json:"regenRate"`
}

// NewStamina returns a full pool.
func NewStamina(max, regenRate float64) (Stamina, error) {
	if !finite(max) || max <= 0 {
		return Stamina{}, fmt.Errorf("%w: stamina max must be positive, got %v", ErrInvalidResource, max)
	}
	if !finite(regenRate) || regenRate < 0 {
		return Stamina{}, fmt.Errorf("%w: stamina regen must be non-negative, got %v", ErrInvalidResource, regenRate)
	}
	return Stamina{Current: max, Max: max, RegenRate: regenRate}, nil
}

// Regenerate adds RegenRate*dt clamped to Max.
func (s *Stamina) Regenerate(dt float64) {
	if s == nil || !finite(dt) || dt <= 0 {
		return
	}
	s.Current = clamp(s.Current+s.RegenRate*dt, 0, s.Max)
}

// CanAfford reports whether cost is fully covered.
func (s Stamina) CanAfford(cost float64) bool {
	return s.Current+Epsilon >= cost
}

// Consume subtracts cost clamped at zero. It returns false when the pool
// could not cover the full cost; the pool is drained either way.
func (s *Stamina) Consume(cost float64) bool {
	if s == nil || !finite(cost) || cost <= 0 {
		return true
	}
	enough := s.CanAfford(cost)
	s.Current = clamp(s.Current-cost, 0, s.Max)
	return enough
}

// Drain removes rate*dt and reports whether any stamina was left to drain.
func (s *Stamina) Drain(rate, dt float64) bool {
	if s == nil || s.Current <= 0 {
		return false
	}
	s.Current = clamp(s.Current-rate*dt, 0, s.Max)
	return true
}

// Fraction returns Current/Max in [0, 1].
func (s Stamina) Fraction() float64 {
	if s.Max <= 0 {
		return 0
	}
	return clamp(s.Current/s.Max, 0, 1)
}

// DamageMultiplier scales outgoing damage by sqrt(Current/Max), so a winded
// attacker still hits, only softer.
func (s Stamina) DamageMultiplier() float64 {
	return math.Sqrt(s.Fraction())
}

// Valid reports whether the invariant holds.
func (s Stamina) Valid() bool {
	return s.Current >= 0 && s.Current <= s.Max
}
