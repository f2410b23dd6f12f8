package combat

import "github.com/pockerhead/VOIDRUN-sub000/internal/world"

// Regenerate recharges stamina and shields and counts weapon cooldowns down
// for every living entity.
func Regenerate(w *world.World, f *world.Frame) {
	for _, id := range w.Query(world.HealthComponent) {
		if !w.Alive(id) {
			continue
		}
		if stamina, ok := world.Get(w, id, world.StaminaComponent); ok {
			stamina.Regenerate(f.DT)
		}
		if shield, ok := world.Get(w, id, world.ShieldComponent); ok {
			shield.Recharge(f.DT)
		}
		if stats, ok := world.Get(w, id, world.WeaponComponent); ok {
			stats.TickCooldown(f.DT)
		}
	}
}
