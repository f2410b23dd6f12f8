package combat

import (
	"github.com/pockerhead/VOIDRUN-sub000/contract"
	"github.com/pockerhead/VOIDRUN-sub000/internal/telemetry"
	"github.com/pockerhead/VOIDRUN-sub000/internal/world"
	combatlog "github.com/pockerhead/VOIDRUN-sub000/logging/combat"
)

const (
	LightAttackCost = 15.0
	HeavyAttackCost = 25.0
	ParryCost       = 10.0
)

// AttackCost returns the stamina price of a swing.
func AttackCost(attackType contract.AttackType) float64 {
	if attackType == contract.AttackHeavy {
		return HeavyAttackCost
	}
	return LightAttackCost
}

// spend consumes cost from id's stamina. Running short never blocks the
// action; it is reported as stamina debt instead.
func spend(w *world.World, f *world.Frame, id contract.EntityID, action string, cost float64) {
	stamina, ok := world.Get(w, id, world.StaminaComponent)
	if !ok {
		return
	}
	available := stamina.Current
	if stamina.Consume(cost) {
		return
	}
	f.Metrics.Add(telemetry.MetricStaminaDebt, 1)
	combatlog.StaminaDebt(f.Ctx, f.Pub, f.Tick, w.Ref(id), combatlog.StaminaDebtPayload{
		Action:    action,
		Cost:      cost,
		Available: available,
	}, nil)
}
