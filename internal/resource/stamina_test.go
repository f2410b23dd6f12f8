package resource

import (
	"math"
	"math/rand"
	"testing"

	"github.com/stretchr/testify/require"
)

func TestStaminaConsumeReportsDebt(t *testing.T) {
	s, err := NewStamina(100, 10)
	require.NoError(t, err)

	require.True(t, s.Consume(25))
	require.InDelta(t, 75, s.Current, Epsilon)

	s.Current = 8
	require.False(t, s.Consume(15), "consume beyond current must report debt")
	require.Equal(t, 0.0, s.Current)
}

func TestStaminaRegenerateClamps(t *testing.T) {
	s := Stamina{Current: 95, Max: 100, RegenRate: 10}
	s.Regenerate(1)
	require.Equal(t, 100.0, s.Current)
}

func TestStaminaDamageMultiplier(t *testing.T) {
	s := Stamina{Current: 25, Max: 100}
	require.InDelta(t, 0.5, s.DamageMultiplier(), 1e-12)

	s.Current = 0
	require.Equal(t, 0.0, s.DamageMultiplier())
}

func TestNewStaminaRejectsInvalidBounds(t *testing.T) {
	_, err := NewStamina(0, 1)
	require.ErrorIs(t, err, ErrInvalidResource)
	_, err = NewStamina(10, math.NaN())
	require.ErrorIs(t, err, ErrInvalidResource)
}

func TestResourceInvariantsUnderRandomStreams(t *testing.T) {
	rng := rand.New(rand.NewSource(42))
	health, _ := NewHealth(150)
	stamina, _ := NewStamina(100, 12)
	shield, _ := NewEnergyShield(80, 1.5, 20)

	const dt = 1.0 / 64
	for i := 0; i < 20000; i++ {
		switch rng.Intn(6) {
		case 0:
			health.ApplyDamage(Points(rng.Float64() * 40))
		case 1:
			health.Heal(uint32(rng.Intn(30)))
		case 2:
			stamina.Consume(rng.Float64() * 40)
		case 3:
			absorbed := shield.Absorb(rng.Float64() * 60)
			health.ApplyDamage(Points(absorbed.Overflow))
		case 4:
			stamina.Drain(12, dt)
		default:
			stamina.Regenerate(dt)
			shield.Recharge(dt)
		}
		if !health.Valid() || !stamina.Valid() || !shield.Valid() {
			t.Fatalf("invariant broken at step %d: health=%+v stamina=%+v shield=%+v", i, health, stamina, shield)
		}
	}
}
