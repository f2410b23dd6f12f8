package weapon

import (
	"errors"
	"math"
	"testing"
)

func TestValidateRejectsBadProfiles(t *testing.T) {
	cases := []struct {
		name  string
		stats Stats
	}{
		{"unknown kind", Stats{Name: "x", Kind: "laser"}},
		{"negative damage", Stats{Name: "x", Kind: KindMelee, BaseDamage: -1, AttackDuration: 1}},
		{"nan cooldown", Stats{Name: "x", Kind: KindMelee, AttackCooldown: math.NaN(), AttackDuration: 1}},
		{"melee without swing", Stats{Name: "x", Kind: KindMelee}},
		{"parry window too long", Stats{Name: "x", Kind: KindMelee, AttackDuration: 0.2, ParryWindow: 0.3}},
		{"parry without duration", Stats{Name: "x", Kind: KindMelee, CanParry: true, AttackDuration: 0.2}},
		{"ranged without range", Stats{Name: "x", Kind: KindRanged, ProjectileSpeed: 10}},
		{"ranged without speed", Stats{Name: "x", Kind: KindRanged, Range: 10}},
	}
	for _, tc := range cases {
		t.Run(tc.name, func(t *testing.T) {
			if err := tc.stats.Validate(); !errors.Is(err, ErrInvalidWeapon) {
				t.Fatalf("expected ErrInvalidWeapon, got %v", err)
			}
		})
	}
}

func TestCooldownTicksToZero(t *testing.T) {
	stats := Stats{AttackCooldown: 0.1}
	stats.StartCooldown()
	if stats.Ready() {
		t.Fatalf("expected cooldown to block right after start")
	}
	for i := 0; i < 10; i++ {
		stats.TickCooldown(1.0 / 64)
	}
	if !stats.Ready() {
		t.Fatalf("expected cooldown to elapse, timer=%v", stats.CooldownTimer)
	}
	if stats.CooldownTimer != 0 {
		t.Fatalf("expected timer clamped at zero, got %v", stats.CooldownTimer)
	}
}

func TestHybridParticipatesInBothPipelines(t *testing.T) {
	hybrid := Stats{Kind: KindHybrid}
	if !hybrid.Melee() || !hybrid.Ranged() {
		t.Fatalf("hybrid must be both melee and ranged")
	}
	if (Stats{Kind: KindRanged}).Melee() {
		t.Fatalf("ranged weapon must not swing")
	}
	if (Stats{Kind: KindRanged, CanParry: true}).Parries() {
		t.Fatalf("ranged weapon must not parry")
	}
}

func TestHitboxDuration(t *testing.T) {
	stats := Stats{AttackDuration: 0.25, ParryWindow: 0.1}
	if got := stats.HitboxDuration(); math.Abs(got-0.15) > 1e-12 {
		t.Fatalf("expected hitbox 0.15, got %v", got)
	}
}
