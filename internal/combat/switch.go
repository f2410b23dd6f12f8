package combat

import (
	"errors"
	"fmt"

	"github.com/pockerhead/VOIDRUN-sub000/contract"
	"github.com/pockerhead/VOIDRUN-sub000/internal/weapon"
	"github.com/pockerhead/VOIDRUN-sub000/internal/world"
	combatlog "github.com/pockerhead/VOIDRUN-sub000/logging/combat"
)

var (
	ErrBusy          = errors.New("combat: cannot switch weapons mid-action")
	ErrUnknownWeapon = errors.New("combat: unknown weapon")
)

// SwitchWeapon swaps id's profile for the named catalog entry. The new
// profile inherits whatever cooldown the old one had left.
func SwitchWeapon(w *world.World, f *world.Frame, catalog *weapon.Catalog, id contract.EntityID, name string) error {
	current, err := canAct(w, id)
	if err != nil && !errors.Is(err, ErrStaggered) {
		return err
	}
	if world.Has(w, id, world.MeleeAttackComponent) || world.Has(w, id, world.ParryComponent) {
		return ErrBusy
	}
	next, ok := catalog.Get(name)
	if !ok {
		return fmt.Errorf("%w: %q", ErrUnknownWeapon, name)
	}
	next.CooldownTimer = current.CooldownTimer
	world.Set(w, id, world.WeaponComponent, next)
	combatlog.WeaponSwitched(f.Ctx, f.Pub, f.Tick, w.Ref(id), combatlog.WeaponSwitchedPayload{From: current.Name, To: next.Name}, nil)
	return nil
}
