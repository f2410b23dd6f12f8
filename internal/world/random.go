package world

import (
	"hash/fnv"
	"math"
	"math/rand"
)

// DefaultSeed seeds worlds created without an explicit seed.
const DefaultSeed = "voidrun"

// Named RNG streams. Each subsystem draws from its own stream so adding a
// draw in one system never shifts the sequence another system sees.
const (
	StreamPatrol   = "ai.patrol"
	StreamHearing  = "ai.hearing"
	StreamTactical = "tactical.spread"
)

// DeterministicSeedValue derives a stable seed for label under rootSeed.
func DeterministicSeedValue(rootSeed, label string) int64 {
	hasher := fnv.New64a()
	hasher.Write([]byte(rootSeed))
	hasher.Write([]byte{0})
	hasher.Write([]byte(label))
	sum := hasher.Sum64()
	if sum == 0 {
		sum = 1
	}
	return int64(sum)
}

// NewDeterministicRNG returns a generator seeded for label under rootSeed.
func NewDeterministicRNG(rootSeed, label string) *rand.Rand {
	return rand.New(rand.NewSource(DeterministicSeedValue(rootSeed, label)))
}

func RandomFloat(rng *rand.Rand) float64 {
	if rng == nil {
		return NewDeterministicRNG(DefaultSeed, "fallback").Float64()
	}
	return rng.Float64()
}

func RandomAngle(rng *rand.Rand) float64 {
	return RandomFloat(rng) * 2 * math.Pi
}

func RandomDistance(rng *rand.Rand, min, max float64) float64 {
	if max <= min {
		return min
	}
	return min + RandomFloat(rng)*(max-min)
}

// RandomOffset draws uniformly from [-spread, spread].
func RandomOffset(rng *rand.Rand, spread float64) float64 {
	if spread <= 0 {
		return 0
	}
	return (RandomFloat(rng)*2 - 1) * spread
}
