// Package sim owns the fixed-rate tick. Engine.Step drains the inbound
// queue and runs every system in a fixed order over entities in ascending
// ID order, so identical inputs and seed always produce identical state.
package sim

import (
	"context"
	"fmt"
	"sync"
	"sync/atomic"

	"github.com/pockerhead/VOIDRUN-sub000/contract"
	"github.com/pockerhead/VOIDRUN-sub000/internal/ai"
	"github.com/pockerhead/VOIDRUN-sub000/internal/combat"
	"github.com/pockerhead/VOIDRUN-sub000/internal/journal"
	"github.com/pockerhead/VOIDRUN-sub000/internal/player"
	"github.com/pockerhead/VOIDRUN-sub000/internal/telemetry"
	"github.com/pockerhead/VOIDRUN-sub000/internal/weapon"
	"github.com/pockerhead/VOIDRUN-sub000/internal/world"
	"github.com/pockerhead/VOIDRUN-sub000/logging"
	lifecycle "github.com/pockerhead/VOIDRUN-sub000/logging/lifecycle"
	simulationlog "github.com/pockerhead/VOIDRUN-sub000/logging/simulation"
)

// Config tunes one engine instance.
type Config struct {
	Seed             string
	TickRate         int
	InboundCapacity  int
	PerEntityLimit   int
	DespawnGrace     float64
	Profiles         combat.Profiles
	Catalog          *weapon.Catalog
	KeyframeInterval uint64
	Journal          journal.Config
}

// DefaultConfig returns the production tuning.
func DefaultConfig() Config {
	return Config{
		Seed:             world.DefaultSeed,
		TickRate:         TickRate,
		InboundCapacity:  4096,
		PerEntityLimit:   64,
		DespawnGrace:     DespawnGrace,
		Profiles:         combat.DefaultProfiles,
		KeyframeInterval: TickRate,
		Journal: journal.Config{
			MaxPendingBatches: 256,
			KeyframeCapacity:  32,
			KeyframeMaxAge:    TickRate * 30,
		},
	}
}

func (c Config) normalized() Config {
	if c.TickRate <= 0 {
		c.TickRate = TickRate
	}
	if c.InboundCapacity <= 0 {
		c.InboundCapacity = 4096
	}
	if c.DespawnGrace <= 0 {
		c.DespawnGrace = DespawnGrace
	}
	if c.Profiles == nil {
		c.Profiles = combat.DefaultProfiles
	}
	if c.Catalog == nil {
		c.Catalog = weapon.DefaultCatalog
	}
	return c
}

// Deps carries the injected collaborators.
type Deps struct {
	Publisher logging.Publisher
	Metrics   telemetry.Metrics
	Logger    telemetry.Logger
}

func (d Deps) normalized() Deps {
	if d.Publisher == nil {
		d.Publisher = logging.NopPublisher()
	}
	if d.Metrics == nil {
		d.Metrics = telemetry.NopMetrics()
	}
	if d.Logger == nil {
		d.Logger = telemetry.NopLogger()
	}
	return d
}

// StepResult is what one tick produced.
type StepResult struct {
	Tick     uint64
	Events   []contract.Outbound
	Inbound  int
	Keyframe *journal.Keyframe
}

// Engine owns the world and advances it one tick at a time. Push may be
// called from any goroutine; every other method serialises on the engine.
type Engine struct {
	mu      sync.Mutex
	cfg     Config
	deps    Deps
	world   *world.World
	dt      float64
	tick    atomic.Uint64
	seq     atomic.Uint64
	inbound *InboundBuffer
	impacts combat.ImpactFilter
	journal *journal.Journal

	queueMu   sync.Mutex
	perEntity map[contract.EntityID]int
	drops     map[contract.EntityID]uint64
}

func NewEngine(cfg Config, deps Deps) *Engine {
	cfg = cfg.normalized()
	deps = deps.normalized()
	return &Engine{
		cfg:       cfg,
		deps:      deps,
		world:     world.New(cfg.Seed),
		dt:        DT(cfg.TickRate),
		inbound:   NewInboundBuffer(cfg.InboundCapacity, deps.Metrics),
		journal:   journal.New(cfg.Journal, deps.Metrics),
		perEntity: make(map[contract.EntityID]int),
		drops:     make(map[contract.EntityID]uint64),
	}
}

// World exposes the store for tests and the tactical collaborator. Callers
// must not use it concurrently with Step.
func (e *Engine) World() *world.World {
	return e.world
}

func (e *Engine) Tick() uint64 {
	return e.tick.Load()
}

func (e *Engine) DT() float64 {
	return e.dt
}

func (e *Engine) Config() Config {
	return e.cfg
}

func (e *Engine) Journal() *journal.Journal {
	return e.journal
}

// Spawn creates an actor between ticks.
func (e *Engine) Spawn(spec world.ActorSpec) (contract.EntityID, error) {
	e.mu.Lock()
	defer e.mu.Unlock()
	id, err := e.world.Spawn(spec)
	if err != nil {
		return contract.NoEntity, err
	}
	ai.Attach(e.world, id)
	weaponName := ""
	if spec.Weapon != nil {
		weaponName = spec.Weapon.Name
	}
	lifecycle.Spawned(context.Background(), e.deps.Publisher, e.Tick(), e.world.Ref(id), lifecycle.SpawnedPayload{
		Name:    spec.Name,
		Faction: string(spec.Faction),
		Weapon:  weaponName,
		X:       spec.Position.X,
		Y:       spec.Position.Y,
		Z:       spec.Position.Z,
	}, nil)
	return id, nil
}

// Push stages an inbound event for the next tick. Sequence numbers are
// assigned under the queue lock so they match drain order. It returns false
// and the drop reason when the event is refused.
func (e *Engine) Push(in contract.Inbound) (bool, string) {
	if !in.Valid() {
		e.reportDrop(in, DropInvalid, 0)
		return false, DropInvalid
	}
	subject := Subject(in)

	reason := ""
	var count uint64
	e.queueMu.Lock()
	if e.cfg.PerEntityLimit > 0 && subject.Valid() {
		if e.perEntity[subject] >= e.cfg.PerEntityLimit {
			reason = DropEntityLimit
		} else {
			e.perEntity[subject]++
		}
	}
	if reason == "" {
		in.Seq = e.seq.Add(1)
	}
	if reason == "" && !e.inbound.Push(in) {
		reason = DropQueueFull
		if e.cfg.PerEntityLimit > 0 && subject.Valid() {
			e.perEntity[subject]--
		}
	}
	if reason != "" {
		e.drops[subject]++
		count = e.drops[subject]
	}
	e.queueMu.Unlock()

	if reason != "" {
		e.reportDrop(in, reason, count)
		return false, reason
	}
	return true, ""
}

func (e *Engine) reportDrop(in contract.Inbound, reason string, count uint64) {
	e.deps.Metrics.Add(telemetry.MetricInboundDropped, 1)
	subject := Subject(in)
	simulationlog.InboundDropped(context.Background(), e.deps.Publisher, e.Tick(), logging.EntityRef{ID: subject, Kind: logging.EntityKindUnknown}, simulationlog.InboundDroppedPayload{
		Kind:   string(in.Kind),
		Reason: reason,
	}, nil)
	if count > 0 && count&(count-1) == 0 {
		e.deps.Logger.Printf("[backpressure] dropping inbound entity=%s kind=%s count=%d reason=%s", subject, in.Kind, count, reason)
	}
}

func (e *Engine) drainInbound() []contract.Inbound {
	e.queueMu.Lock()
	defer e.queueMu.Unlock()
	events := e.inbound.Drain()
	if len(e.perEntity) > 0 {
		e.perEntity = make(map[contract.EntityID]int)
	}
	return events
}

// Pending reports how many inbound events wait for the next tick.
func (e *Engine) Pending() int {
	return e.inbound.Len()
}

// Step advances the simulation by one fixed tick.
func (e *Engine) Step(ctx context.Context) StepResult {
	e.mu.Lock()
	defer e.mu.Unlock()
	if ctx == nil {
		ctx = context.Background()
	}

	tick := e.tick.Add(1)
	f := world.NewFrame(tick, e.dt)
	f.Ctx = ctx
	f.Pub = e.deps.Publisher
	f.Metrics = e.deps.Metrics
	w := e.world

	in := sortInbound(e.drainInbound())

	for _, synced := range in.transforms {
		if transform, ok := world.Get(w, synced.Entity, world.TransformComponent); ok {
			transform.Position = synced.Position
			transform.Facing = synced.Facing
		}
	}
	for _, swap := range in.switches {
		if err := combat.SwitchWeapon(w, f, e.cfg.Catalog, swap.Entity, swap.Weapon); err != nil {
			combat.Reject(w, f, swap.Entity, contract.IntentSwitch, err.Error())
		}
	}
	for _, outcome := range in.navigation {
		ai.Navigate(w, outcome)
	}
	for _, rejected := range in.rejected {
		combat.Reject(w, f, rejected.Entity, rejected.Intent, rejected.Reason)
	}

	combat.Regenerate(w, f)

	for _, approval := range in.approvals {
		combat.ApproveAttack(w, f, approval)
	}

	e.impacts.Reset()
	for _, report := range in.melee {
		combat.ResolveMeleeReport(w, f, report)
	}
	for _, impact := range in.impacts {
		if e.impacts.First(impact, false) {
			combat.ResolveProjectileImpact(w, f, impact)
		}
	}
	for _, impact := range in.shieldImpacts {
		if e.impacts.First(contract.ProjectileImpact(impact), true) {
			combat.ResolveShieldImpact(w, f, impact)
		}
	}
	for _, hazard := range in.environmental {
		combat.ResolveEnvironmental(w, f, hazard)
	}

	e.resolveDeaths(f)

	for _, spotted := range in.spotted {
		ai.Spot(w, spotted.Observer, spotted.Target)
	}
	for _, lost := range in.lost {
		ai.Lose(w, lost.Observer, lost.Target)
	}
	ai.PruneDead(w)

	ai.ReactToHits(w, f)
	for _, fired := range in.fired {
		ai.ApplyGunfire(w, f, combat.HearGunfire(w, fired))
	}

	for _, input := range in.inputs {
		if err := player.ApplyInput(w, f, input); err != nil {
			e.deps.Logger.Printf("[input] tick=%d entity=%s: %v", tick, input.Entity, err)
		}
	}
	for _, jump := range in.jumps {
		player.Jump(w, f, jump.Entity)
	}

	combat.AdvanceAttacks(w, f)
	combat.AdvanceParries(w, f)
	combat.AdvanceStaggers(w, f)

	if Decides(tick) {
		combat.Decide(w, f, e.cfg.Profiles)
	}
	combat.Fire(w, f)

	ai.Update(w, f, Perceives(tick))

	ai.DeriveMovement(w, f)
	player.DeriveMovement(w, f)

	events := f.Out.Events()
	e.journal.Append(tick, events)
	e.deps.Metrics.Add(telemetry.MetricTicksStepped, 1)

	result := StepResult{Tick: tick, Events: events, Inbound: in.total}
	if e.cfg.KeyframeInterval > 0 && tick%e.cfg.KeyframeInterval == 0 {
		frame, err := e.keyframeLocked(ctx, tick)
		if err != nil {
			e.deps.Logger.Printf("[keyframe] tick=%d: %v", tick, err)
		} else {
			result.Keyframe = &frame
		}
	}
	return result
}

func (e *Engine) keyframeLocked(ctx context.Context, tick uint64) (journal.Keyframe, error) {
	snapshot := takeSnapshot(e.world, tick)
	state, sum, err := snapshot.encode()
	if err != nil {
		return journal.Keyframe{}, fmt.Errorf("encode snapshot: %w", err)
	}
	frame := journal.Keyframe{Tick: tick, Checksum: sum, Entities: len(snapshot.Entities), State: state}
	record := e.journal.RecordKeyframe(frame)
	frame.Sequence = record.NewestSequence
	simulationlog.Checksum(ctx, e.deps.Publisher, tick, simulationlog.ChecksumPayload{Checksum: sum, Entities: len(snapshot.Entities)}, nil)
	return frame, nil
}

// inboundBatch groups one tick's inbound events by kind, each group in
// arrival order.
type inboundBatch struct {
	total         int
	spotted       []contract.PerceptionSpotted
	lost          []contract.PerceptionLost
	melee         []contract.DamageReport
	impacts       []contract.ProjectileImpact
	shieldImpacts []contract.ProjectileShieldImpact
	approvals     []contract.AttackApproved
	jumps         []contract.JumpRequested
	inputs        []contract.PlayerInputFrame
	navigation    []contract.NavigationOutcome
	fired         []contract.WeaponFired
	rejected      []contract.IntentRejected
	transforms    []contract.TransformSync
	switches      []contract.WeaponSwitch
	environmental []contract.EnvironmentalDamage
}

func sortInbound(events []contract.Inbound) inboundBatch {
	batch := inboundBatch{total: len(events)}
	for _, in := range events {
		switch in.Kind {
		case contract.InboundPerceptionSpotted:
			batch.spotted = append(batch.spotted, *in.Spotted)
		case contract.InboundPerceptionLost:
			batch.lost = append(batch.lost, *in.Lost)
		case contract.InboundDamageReport:
			batch.melee = append(batch.melee, *in.Damage)
		case contract.InboundProjectileImpact:
			batch.impacts = append(batch.impacts, *in.Impact)
		case contract.InboundProjectileShieldImpact:
			batch.shieldImpacts = append(batch.shieldImpacts, *in.ShieldImpact)
		case contract.InboundAttackApproved:
			batch.approvals = append(batch.approvals, *in.Approved)
		case contract.InboundJumpRequested:
			batch.jumps = append(batch.jumps, *in.Jump)
		case contract.InboundPlayerInputFrame:
			batch.inputs = append(batch.inputs, *in.Input)
		case contract.InboundNavigationOutcome:
			batch.navigation = append(batch.navigation, *in.Navigation)
		case contract.InboundWeaponFired:
			batch.fired = append(batch.fired, *in.Fired)
		case contract.InboundIntentRejected:
			batch.rejected = append(batch.rejected, *in.Rejected)
		case contract.InboundTransformSync:
			batch.transforms = append(batch.transforms, *in.Transform)
		case contract.InboundWeaponSwitch:
			batch.switches = append(batch.switches, *in.Switch)
		case contract.InboundEnvironmentalDamage:
			batch.environmental = append(batch.environmental, *in.Environmental)
		}
	}
	return batch
}
