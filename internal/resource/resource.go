// Package resource models the bounded scalar pools every combatant carries:
// health, stamina and the energy shield. All mutation goes through clamping
// or saturating operations so the pools can never leave their bounds.
package resource

import (
	"errors"
	"math"
)

// ErrInvalidResource is returned when a pool is constructed with bounds that
// cannot hold the invariant 0 <= current <= max.
var ErrInvalidResource = errors.New("resource: invalid bounds")

// Epsilon is the tolerance used when comparing fractional pools.
const Epsilon = 1e-9

func finite(v float64) bool {
	return !math.IsNaN(v) && !math.IsInf(v, 0)
}

func clamp(v, lo, hi float64) float64 {
	if v < lo {
		return lo
	}
	if v > hi {
		return hi
	}
	return v
}
