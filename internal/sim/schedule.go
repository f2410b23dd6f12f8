package sim

const (
	// TickRate is the fixed simulation rate in Hz.
	TickRate = 64
	// PerceptionInterval spaces target acquisition to roughly 3 Hz.
	PerceptionInterval = 21
	// DecisionInterval spaces the unified combat decision to roughly 10 Hz.
	DecisionInterval = 6
	// DespawnGrace is how long a corpse stays in the world, in seconds.
	DespawnGrace = 5.0
)

// Perceives reports whether tick falls on the perception slice.
func Perceives(tick uint64) bool {
	return tick%PerceptionInterval == 0
}

// Decides reports whether tick falls on the combat-timing slice.
func Decides(tick uint64) bool {
	return tick%DecisionInterval == 0
}

// DT returns the fixed step for rate, falling back to TickRate.
func DT(rate int) float64 {
	if rate <= 0 {
		rate = TickRate
	}
	return 1.0 / float64(rate)
}
