// Package player turns the player's input frames into the same intents and
// actions the AI produces. Held input (direction, sprint) persists in the
// PlayerControl component between frames; attack, parry and jump are edges.
package player

import (
	"errors"

	"github.com/pockerhead/VOIDRUN-sub000/contract"
	"github.com/pockerhead/VOIDRUN-sub000/internal/combat"
	"github.com/pockerhead/VOIDRUN-sub000/internal/world"
)

const (
	// SprintDrainRate is stamina per second spent while sprinting.
	SprintDrainRate = 12.0
	// JumpCost is charged up front; a jump that cannot be paid is refused.
	JumpCost = 10.0
)

var ErrNotPlayer = errors.New("player: entity is not player-controlled")

func controllable(w *world.World, id contract.EntityID) error {
	if !world.Has(w, id, world.PlayerComponent) {
		return ErrNotPlayer
	}
	if !w.Alive(id) || w.Dead(id) {
		return combat.ErrDead
	}
	return nil
}

// ApplyInput records held input and fires this frame's button edges.
func ApplyInput(w *world.World, f *world.Frame, in contract.PlayerInputFrame) error {
	id := in.Entity
	if err := controllable(w, id); err != nil {
		return err
	}
	control, _ := world.Get(w, id, world.PlayerComponent)
	control.Direction = contract.Vec3{X: in.Direction.X, Z: in.Direction.Z}
	control.Sprinting = in.Sprint

	if in.Jump {
		Jump(w, f, id)
	}
	if in.Attack {
		attack(w, f, id, in.AttackType)
	}
	if in.Parry {
		if err := combat.StartParry(w, f, id); err != nil {
			combat.Reject(w, f, id, contract.IntentParry, err.Error())
		}
	}
	return nil
}

func attack(w *world.World, f *world.Frame, id contract.EntityID, attackType contract.AttackType) {
	if err := combat.CanSwing(w, id); err != nil {
		combat.Reject(w, f, id, contract.IntentAttack, err.Error())
		return
	}
	if attackType == "" {
		attackType = contract.AttackLight
	}
	f.Out.Attack(contract.AttackIntent{Attacker: id, AttackType: attackType})
}

// Jump charges JumpCost and flags the next movement intent. It reports
// whether the jump went ahead.
func Jump(w *world.World, f *world.Frame, id contract.EntityID) bool {
	if err := controllable(w, id); err != nil {
		return false
	}
	stamina, ok := world.Get(w, id, world.StaminaComponent)
	if !ok || !stamina.CanAfford(JumpCost) {
		combat.Reject(w, f, id, contract.IntentJump, "insufficient stamina")
		return false
	}
	stamina.Consume(JumpCost)
	control, _ := world.Get(w, id, world.PlayerComponent)
	control.Jumping = true
	return true
}

// DeriveMovement emits a steering intent for every player. Sprinting drains
// stamina and is dropped once the pool is empty.
func DeriveMovement(w *world.World, f *world.Frame) {
	for _, id := range w.Query(world.PlayerComponent) {
		if !w.Alive(id) || w.Dead(id) {
			f.Out.Move(contract.StopIntent(id))
			continue
		}
		control, _ := world.Get(w, id, world.PlayerComponent)
		moving := control.Direction.X != 0 || control.Direction.Z != 0
		sprint := false
		if control.Sprinting && moving {
			if stamina, ok := world.Get(w, id, world.StaminaComponent); ok {
				sprint = stamina.Drain(SprintDrainRate, f.DT)
			}
		}
		intent := contract.MovementIntent{Entity: id, Kind: contract.MoveIdle}
		if moving || control.Jumping {
			intent = contract.MovementIntent{
				Entity:    id,
				Kind:      contract.MoveSteer,
				Direction: control.Direction,
				Sprint:    sprint,
				Jump:      control.Jumping,
			}
		}
		control.Jumping = false
		if movement, ok := world.Get(w, id, world.MovementComponent); ok {
			movement.Intent = intent
		}
		f.Out.Move(intent)
	}
}
