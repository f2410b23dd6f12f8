// Package combat owns the melee, parry, stagger and ranged pipelines and the
// shared damage entry point. Systems read and write components through the
// world store and publish through the frame they run under.
package combat

import (
	"github.com/pockerhead/VOIDRUN-sub000/contract"
	"github.com/pockerhead/VOIDRUN-sub000/internal/resource"
)

// BlockedDamageFraction is the share of declared damage a block lets through.
const BlockedDamageFraction = 0.3

// Outcome describes what ApplyDamage did.
type Outcome struct {
	Applied  uint32
	Absorbed float64
	Shield   contract.ShieldOutcome
	Killed   bool
}

// ApplyDamage is the single damage entry point. Melee and environmental
// damage go straight to health; ranged damage is soaked by an active shield
// first and only the overflow reaches health. shield may be nil.
func ApplyDamage(health *resource.Health, shield *resource.EnergyShield, raw float64, source contract.DamageSource) Outcome {
	if health == nil {
		return Outcome{Shield: contract.ShieldNone}
	}
	wasAlive := health.Alive()
	out := Outcome{Shield: contract.ShieldNone}
	remaining := raw

	switch source {
	case contract.SourceRanged:
		if shield != nil {
			result := shield.Absorb(raw)
			switch {
			case !result.WasActive:
				out.Shield = contract.ShieldInactive
			case result.Broke:
				out.Shield = contract.ShieldBroken
			default:
				out.Shield = contract.ShieldAbsorbed
			}
			out.Absorbed = result.Absorbed
			if result.WasActive {
				remaining = result.Overflow
			}
		}
	default:
		if shield != nil {
			out.Shield = contract.ShieldBypassed
		}
	}

	out.Applied = health.ApplyDamage(resource.Points(remaining))
	out.Killed = wasAlive && !health.Alive()
	return out
}
