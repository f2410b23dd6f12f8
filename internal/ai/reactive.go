package ai

import (
	"github.com/pockerhead/VOIDRUN-sub000/contract"
	"github.com/pockerhead/VOIDRUN-sub000/internal/combat"
	"github.com/pockerhead/VOIDRUN-sub000/internal/world"
	ailog "github.com/pockerhead/VOIDRUN-sub000/logging/ai"
)

// ReactToHits turns this tick's hits into reactions: a living NPC struck by
// a hostile attacker spots it, turns to follow it and is provoked into
// acquiring a target before the next perception slice.
func ReactToHits(w *world.World, f *world.Frame) {
	for _, hit := range f.Hits {
		if !living(w, hit.Target) || !living(w, hit.Attacker) || !w.Hostile(hit.Target, hit.Attacker) {
			continue
		}
		brain, ok := brainOf(w, hit.Target)
		if !ok {
			continue
		}
		follow := contract.MovementIntent{Entity: hit.Target, Kind: contract.MoveFollow, Target: hit.Attacker}
		brain.Override = &follow
		brain.Provoked = true
		if spotted, ok := world.Get(w, hit.Target, world.SpottedComponent); ok {
			spotted.Add(hit.Attacker)
		}
	}
}

// ApplyGunfire sends every alerted listener to investigate. Hostile shots
// also put the shooter on the listener's spotted list.
func ApplyGunfire(w *world.World, f *world.Frame, alerts []combat.GunfireAlert) {
	for _, alert := range alerts {
		brain, ok := brainOf(w, alert.Listener)
		if !ok || !living(w, alert.Listener) {
			continue
		}
		state, _ := world.Get(w, alert.Listener, world.AIStateComponent)
		if state.Kind == world.AICombat || state.Kind == world.AIDead {
			continue
		}
		point := alert.Point
		brain.Override = &contract.MovementIntent{Entity: alert.Listener, Kind: contract.MoveTo, Position: point}
		if state.Kind == world.AIPatrol || state.Kind == world.AIIdle {
			state.PatrolTarget = &point
			if cfg, ok := world.Value(w, alert.Listener, world.AIConfigComponent); ok {
				state.Timer = cfg.PatrolDirectionChangeInterval
			}
		}
		if alert.Hostile {
			Spot(w, alert.Listener, alert.Shooter)
		}
		ailog.Investigate(f.Ctx, f.Pub, f.Tick, w.Ref(alert.Listener), w.Ref(alert.Shooter), ailog.InvestigatePayload{
			X: point.X,
			Y: point.Y,
			Z: point.Z,
		}, nil)
	}
}
