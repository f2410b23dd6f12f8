package combat

import (
	"errors"

	"github.com/pockerhead/VOIDRUN-sub000/contract"
	"github.com/pockerhead/VOIDRUN-sub000/internal/world"
	combatlog "github.com/pockerhead/VOIDRUN-sub000/logging/combat"
)

// ParryRecoveryDuration is the fixed cool-off after a parry window closes.
const ParryRecoveryDuration = 0.25

var (
	ErrCannotParry      = errors.New("combat: weapon cannot parry")
	ErrAlreadyParrying  = errors.New("combat: parry already in progress")
	ErrCommittedToSwing = errors.New("combat: swing is past windup")
)

// StartParry opens a parry window for id. A swing still in Windup is
// cancelled in favour of the parry; a swing past Windup cannot be.
func StartParry(w *world.World, f *world.Frame, id contract.EntityID) error {
	stats, err := canAct(w, id)
	if err != nil {
		return err
	}
	if !stats.Parries() {
		return ErrCannotParry
	}
	if world.Has(w, id, world.ParryComponent) {
		return ErrAlreadyParrying
	}
	interrupted := false
	if attack, ok := world.Value(w, id, world.MeleeAttackComponent); ok {
		if attack.Phase != world.PhaseWindup {
			return ErrCommittedToSwing
		}
		interrupted = true
	}

	spend(w, f, id, "parry", ParryCost)
	if interrupted {
		CancelAttack(w, id)
	}
	world.Set(w, id, world.ParryComponent, world.ParryState{
		Phase:      world.ParryWindup,
		PhaseTimer: stats.ParryActiveDuration,
	})

	f.Out.Parry(contract.ParryStarted{Entity: id, InterruptedAttack: interrupted})
	combatlog.Parry(f.Ctx, f.Pub, f.Tick, w.Ref(id), combatlog.ParryPayload{InterruptedAttack: interrupted}, nil)
	return nil
}

// Deflecting reports whether id's parry is in the window that zeroes hits.
func Deflecting(w *world.World, id contract.EntityID) bool {
	parry, ok := world.Get(w, id, world.ParryComponent)
	return ok && parry.Phase == world.ParryWindup
}

// AdvanceParries runs every parry's phase machine by one tick.
func AdvanceParries(w *world.World, f *world.Frame) {
	for _, id := range w.Query(world.ParryComponent) {
		parry, _ := world.Get(w, id, world.ParryComponent)
		parry.PhaseTimer -= f.DT
		if parry.PhaseTimer > 0 {
			continue
		}
		if parry.Phase == world.ParryWindup {
			parry.Phase = world.ParryRecovery
			parry.PhaseTimer += ParryRecoveryDuration
			if parry.PhaseTimer > 0 {
				continue
			}
		}
		world.Remove(w, id, world.ParryComponent)
	}
}
