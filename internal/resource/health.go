package resource

import (
	"fmt"
	"math"
)

// Health is an integral hit-point pool. Current never exceeds Max and never
// drops below zero; reaching zero is what the death system reacts to.
type Health struct {
	Current uint32 `json:"current"`
	Max     uint32 `json:"max"`
}

// NewHealth returns a full pool.
func NewHealth(max uint32) (Health, error) {
	if max == 0 {
		return Health{}, fmt.Errorf("%w: health max must be positive", ErrInvalidResource)
	}
	return Health{Current: max, Max: max}, nil
}

// Alive reports whether the pool is above zero.
func (h Health) Alive() bool {
	return h.Current > 0
}

// Fraction returns Current/Max in [0, 1].
func (h Health) Fraction() float64 {
	if h.Max == 0 {
		return 0
	}
	return float64(h.Current) / float64(h.Max)
}

// Valid reports whether the invariant holds.
func (h Health) Valid() bool {
	return h.Current <= h.Max
}

// ApplyDamage subtracts amount with saturation and returns the points actually
// removed.
func (h *Health) ApplyDamage(amount uint32) uint32 {
	if h == nil || amount == 0 {
		return 0
	}
	if amount >= h.Current {
		applied := h.Current
		h.Current = 0
		return applied
	}
	h.Current -= amount
	return amount
}

// Heal adds amount clamped to Max and returns the points actually restored.
// A dead pool stays dead; revival is not a heal.
func (h *Health) Heal(amount uint32) uint32 {
	if h == nil || amount == 0 || h.Current == 0 {
		return 0
	}
	room := h.Max - h.Current
	if amount > room {
		amount = room
	}
	h.Current += amount
	return amount
}

// Points converts a fractional damage amount into hit points. Non-finite and
// negative amounts convert to zero; values round half away from zero.
func Points(amount float64) uint32 {
	if !finite(amount) || amount <= 0 {
		return 0
	}
	rounded := math.Round(amount)
	if rounded >= math.MaxUint32 {
		return math.MaxUint32
	}
	return uint32(rounded)
}
