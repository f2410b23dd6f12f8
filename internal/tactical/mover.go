package tactical

import (
	"github.com/pockerhead/VOIDRUN-sub000/contract"
	"github.com/pockerhead/VOIDRUN-sub000/internal/world"
)

// move integrates one tick of every movement intent. Bodies that would
// pass through an obstacle stay put; a blocked MoveTo is reported as
// unreachable and an arrived one as reached.
func (r *Referee) move(w *world.World, events []contract.Outbound) []contract.Inbound {
	var out []contract.Inbound
	for _, event := range events {
		if event.Kind != contract.OutboundMovementIntent {
			continue
		}
		intent := *event.Movement
		transform, ok := world.Value(w, intent.Entity, world.TransformComponent)
		if !ok || !standing(w, intent.Entity) {
			continue
		}
		from := transform.Position
		heading, distance, speed := r.heading(w, intent, from)
		if intent.Kind == contract.MoveTo && distance <= r.cfg.ArriveRadius {
			out = append(out, navigation(intent.Entity, contract.NavigationReached))
			continue
		}
		if distance <= 0 || speed <= 0 || heading == (contract.Vec3{}) {
			continue
		}
		step := speed * r.dt
		if step > distance {
			step = distance
		}
		to := from.Add(heading.Scale(step))
		if !r.arena.Clear(from, to) {
			if intent.Kind == contract.MoveTo {
				out = append(out, navigation(intent.Entity, contract.NavigationUnreachable))
			}
			continue
		}
		out = append(out, contract.Inbound{Kind: contract.InboundTransformSync, Transform: &contract.TransformSync{
			Entity:   intent.Entity,
			Position: to,
			Facing:   heading,
		}})
	}
	return out
}

// heading returns the unit ground direction, the distance still to cover
// and the speed for intent.
func (r *Referee) heading(w *world.World, intent contract.MovementIntent, from contract.Vec3) (contract.Vec3, float64, float64) {
	flat := func(v contract.Vec3) contract.Vec3 { return contract.Vec3{X: v.X, Z: v.Z} }
	switch intent.Kind {
	case contract.MoveTo:
		delta := flat(intent.Position.Sub(from))
		return delta.Normalized(), delta.Len(), r.cfg.WalkSpeed
	case contract.MoveFollow:
		to, ok := w.Position(intent.Target)
		if !ok {
			return contract.Vec3{}, 0, 0
		}
		delta := flat(to.Sub(from))
		return delta.Normalized(), delta.Len() - r.cfg.StopDistance, r.cfg.WalkSpeed
	case contract.MoveRetreatFrom:
		threat, ok := w.Position(intent.Target)
		if !ok {
			return contract.Vec3{}, 0, 0
		}
		away := flat(from.Sub(threat)).Normalized()
		return away, r.cfg.WalkSpeed * r.dt, r.cfg.WalkSpeed
	case contract.MoveSteer:
		direction := flat(intent.Direction)
		speed := r.cfg.WalkSpeed
		if intent.Sprint {
			speed *= r.cfg.SprintMultiplier
		}
		return direction.Normalized(), speed * r.dt, speed
	}
	return contract.Vec3{}, 0, 0
}

func navigation(id contract.EntityID, result contract.NavigationResult) contract.Inbound {
	return contract.Inbound{Kind: contract.InboundNavigationOutcome, Navigation: &contract.NavigationOutcome{Entity: id, Result: result}}
}
