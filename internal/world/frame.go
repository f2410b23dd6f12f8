package world

import (
	"context"

	"github.com/pockerhead/VOIDRUN-sub000/contract"
	"github.com/pockerhead/VOIDRUN-sub000/internal/telemetry"
	"github.com/pockerhead/VOIDRUN-sub000/logging"
)

// HitRecord notes that target took damage from attacker this tick. Reactive
// systems read these after the damage pipeline has run.
type HitRecord struct {
	Attacker contract.EntityID
	Target   contract.EntityID
	Source   contract.DamageSource
}

// Frame is the per-tick context every system runs under.
type Frame struct {
	Ctx     context.Context
	Tick    uint64
	DT      float64
	Pub     logging.Publisher
	Metrics telemetry.Metrics
	Out     *Outbox
	Hits    []HitRecord
}

// NewFrame returns a frame with no-op publisher and metrics and an empty outbox.
func NewFrame(tick uint64, dt float64) *Frame {
	return &Frame{
		Ctx:     context.Background(),
		Tick:    tick,
		DT:      dt,
		Pub:     logging.NopPublisher(),
		Metrics: telemetry.NopMetrics(),
		Out:     NewOutbox(tick),
	}
}

// RecordHit appends a hit for the reactive systems.
func (f *Frame) RecordHit(hit HitRecord) {
	f.Hits = append(f.Hits, hit)
}

// Outbox accumulates the outbound signals produced in one tick in emission
// order.
type Outbox struct {
	tick   uint64
	events []contract.Outbound
}

func NewOutbox(tick uint64) *Outbox {
	return &Outbox{tick: tick}
}

func (o *Outbox) push(event contract.Outbound) {
	if o == nil {
		return
	}
	event.Tick = o.tick
	o.events = append(o.events, event)
}

func (o *Outbox) Attack(intent contract.AttackIntent) {
	o.push(contract.Outbound{Kind: contract.OutboundAttackIntent, Attack: &intent})
}

func (o *Outbox) Fire(intent contract.FireIntent) {
	o.push(contract.Outbound{Kind: contract.OutboundFireIntent, Fire: &intent})
}

func (o *Outbox) Move(intent contract.MovementIntent) {
	o.push(contract.Outbound{Kind: contract.OutboundMovementIntent, Movement: &intent})
}

func (o *Outbox) Damage(dealt contract.DamageDealt) {
	o.push(contract.Outbound{Kind: contract.OutboundDamageDealt, Damage: &dealt})
}

func (o *Outbox) Died(died contract.EntityDied) {
	o.push(contract.Outbound{Kind: contract.OutboundEntityDied, Died: &died})
}

func (o *Outbox) Despawned(id contract.EntityID) {
	o.push(contract.Outbound{Kind: contract.OutboundEntityDespawned, Despawned: &contract.EntityDespawned{Entity: id}})
}

func (o *Outbox) Parry(started contract.ParryStarted) {
	o.push(contract.Outbound{Kind: contract.OutboundParryStarted, Parry: &started})
}

func (o *Outbox) Stagger(staggered contract.Staggered) {
	o.push(contract.Outbound{Kind: contract.OutboundStaggered, Stagger: &staggered})
}

// Events returns the accumulated signals.
func (o *Outbox) Events() []contract.Outbound {
	if o == nil {
		return nil
	}
	return o.events
}

// OfKind filters the accumulated signals.
func (o *Outbox) OfKind(kind contract.OutboundKind) []contract.Outbound {
	var out []contract.Outbound
	for _, event := range o.Events() {
		if event.Kind == kind {
			out = append(out, event)
		}
	}
	return out
}
