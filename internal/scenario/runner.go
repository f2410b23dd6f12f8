package scenario

import (
	"context"
	"fmt"
	"sort"
	"time"

	"github.com/pockerhead/VOIDRUN-sub000/contract"
	"github.com/pockerhead/VOIDRUN-sub000/internal/sim"
	"github.com/pockerhead/VOIDRUN-sub000/internal/tactical"
	"github.com/pockerhead/VOIDRUN-sub000/internal/world"
)

// Options wires a run into its surroundings.
type Options struct {
	Engine sim.Config
	Deps   sim.Deps
	// Seed overrides the scenario seed when set.
	Seed string
	// Realtime paces ticks at the engine rate and accounts each against
	// its budget. Otherwise the run goes flat out.
	Realtime bool
	// OnStart sees the engine after every actor spawned.
	OnStart func(*sim.Engine)
	// OnStep observes every tick after the collaborator replied.
	OnStep func(sim.StepResult)
}

// Result summarises a finished run.
type Result struct {
	Name      string                        `json:"name"`
	Seed      string                        `json:"seed"`
	Ticks     uint64                        `json:"ticks"`
	Checksum  string                        `json:"checksum"`
	Outbound  map[contract.OutboundKind]int `json:"outbound"`
	Rejected  int                           `json:"rejected"`
	Alive     []string                      `json:"alive"`
	Dead      []string                      `json:"dead"`
	Failures  []string                      `json:"failures,omitempty"`
	Cancelled bool                          `json:"cancelled,omitempty"`
}

// Passed reports whether every expectation held.
func (r Result) Passed() bool {
	return len(r.Failures) == 0 && !r.Cancelled
}

func mergeTactical(override *tactical.Config) tactical.Config {
	cfg := tactical.DefaultConfig()
	if override == nil {
		return cfg
	}
	pick := func(dst *float64, v float64) {
		if v > 0 {
			*dst = v
		}
	}
	pick(&cfg.WalkSpeed, override.WalkSpeed)
	pick(&cfg.SprintMultiplier, override.SprintMultiplier)
	pick(&cfg.StopDistance, override.StopDistance)
	pick(&cfg.ArriveRadius, override.ArriveRadius)
	pick(&cfg.SightRange, override.SightRange)
	pick(&cfg.ReachTolerance, override.ReachTolerance)
	return cfg
}

func (a Actor) spec(engine *sim.Engine) (world.ActorSpec, error) {
	stats, ok := engine.Config().Catalog.Get(a.Weapon)
	if !ok {
		return world.ActorSpec{}, fmt.Errorf("%w: actor %q uses unknown weapon %q", ErrInvalidScenario, a.Name, a.Weapon)
	}
	spec := world.ActorSpec{
		Name:         a.Name,
		Faction:      a.Faction,
		Kind:         contract.ActorKindNPC,
		Position:     a.Position,
		MaxHealth:    a.Health,
		MaxStamina:   a.Stamina,
		StaminaRegen: a.StaminaRegen,
		Shield:       a.Shield,
		Weapon:       &stats,
		AI:           a.AI,
	}
	if a.Player {
		spec.Kind = contract.ActorKindPlayer
		spec.AI = nil
	}
	if spec.MaxHealth == 0 {
		spec.MaxHealth = 100
	}
	if spec.MaxStamina == 0 {
		spec.MaxStamina = 100
	}
	if spec.StaminaRegen == 0 {
		spec.StaminaRegen = 10
	}
	return spec, nil
}

// Run plays sc to completion or until ctx is cancelled.
func Run(ctx context.Context, sc *Scenario, opts Options) (Result, error) {
	if err := sc.Validate(); err != nil {
		return Result{}, err
	}
	cfg := opts.Engine
	cfg.Seed = sc.Seed
	if opts.Seed != "" {
		cfg.Seed = opts.Seed
	}
	if cfg.Seed == "" {
		cfg.Seed = world.DefaultSeed
	}
	engine := sim.NewEngine(cfg, opts.Deps)

	ids := make(map[string]contract.EntityID, len(sc.Actors))
	for _, actor := range sc.Actors {
		spec, err := actor.spec(engine)
		if err != nil {
			return Result{}, err
		}
		id, err := engine.Spawn(spec)
		if err != nil {
			return Result{}, fmt.Errorf("scenario %s: %w", sc.Name, err)
		}
		ids[actor.Name] = id
	}

	script := make(map[uint64][]Step)
	for _, step := range sc.Script {
		script[step.Tick] = append(script[step.Tick], step)
	}

	referee := tactical.NewReferee(tactical.NewArena(sc.Arena.Obstacles), mergeTactical(sc.Tactical), engine.DT())
	result := Result{
		Name:     sc.Name,
		Seed:     engine.Config().Seed,
		Outbound: make(map[contract.OutboundKind]int),
	}

	if opts.OnStart != nil {
		opts.OnStart(engine)
	}

	loop := sim.NewLoop(engine, sim.LoopHooks{})
	var budget time.Duration
	var pace <-chan time.Time
	if opts.Realtime {
		budget = time.Second / time.Duration(engine.Config().TickRate)
		ticker := time.NewTicker(budget)
		defer ticker.Stop()
		pace = ticker.C
	}

	for tick := uint64(1); tick <= sc.Ticks; tick++ {
		if err := ctx.Err(); err != nil {
			result.Cancelled = true
			break
		}
		if pace != nil {
			select {
			case <-ctx.Done():
				result.Cancelled = true
			case <-pace:
			}
			if result.Cancelled {
				break
			}
		}
		for _, step := range script[tick] {
			for _, in := range step.inbound(ids) {
				if ok, _ := engine.Push(in); !ok {
					result.Rejected++
				}
			}
		}
		step := loop.Advance(ctx, budget).StepResult
		result.Ticks = step.Tick
		for _, event := range step.Events {
			result.Outbound[event.Kind]++
		}
		for _, in := range referee.Respond(engine.World(), step.Tick, step.Events) {
			if in.Kind == contract.InboundIntentRejected {
				result.Rejected++
			}
			engine.Push(in)
		}
		if opts.OnStep != nil {
			opts.OnStep(step)
		}
	}

	sum, err := engine.Checksum()
	if err != nil {
		return result, fmt.Errorf("scenario %s: checksum: %w", sc.Name, err)
	}
	result.Checksum = sum
	result.Alive, result.Dead = census(engine, sc, ids)
	result.Failures = check(sc.Expect, result.Alive)
	return result, nil
}

// census splits actors into living and dead-or-despawned, in scenario
// order.
func census(engine *sim.Engine, sc *Scenario, ids map[string]contract.EntityID) (alive, dead []string) {
	for _, actor := range sc.Actors {
		obs, ok := engine.Observe(ids[actor.Name])
		if ok && obs.Health.Alive() {
			alive = append(alive, actor.Name)
		} else {
			dead = append(dead, actor.Name)
		}
	}
	return alive, dead
}

func check(expect *Expectation, alive []string) []string {
	if expect == nil {
		return nil
	}
	living := make(map[string]bool, len(alive))
	for _, name := range alive {
		living[name] = true
	}
	var failures []string
	for _, name := range expect.Alive {
		if !living[name] {
			failures = append(failures, fmt.Sprintf("expected %s alive", name))
		}
	}
	for _, name := range expect.Dead {
		if living[name] {
			failures = append(failures, fmt.Sprintf("expected %s dead", name))
		}
	}
	sort.Strings(failures)
	return failures
}

// inbound resolves actor names into envelope events.
func (s Step) inbound(ids map[string]contract.EntityID) []contract.Inbound {
	var out []contract.Inbound
	if s.Teleport != nil {
		out = append(out, contract.Inbound{Kind: contract.InboundTransformSync, Transform: &contract.TransformSync{
			Entity:   ids[s.Teleport.Entity],
			Position: s.Teleport.Position,
		}})
	}
	if s.Switch != nil {
		out = append(out, contract.Inbound{Kind: contract.InboundWeaponSwitch, Switch: &contract.WeaponSwitch{
			Entity: ids[s.Switch.Entity],
			Weapon: s.Switch.Weapon,
		}})
	}
	if s.Spotted != nil {
		out = append(out, contract.Inbound{Kind: contract.InboundPerceptionSpotted, Spotted: &contract.PerceptionSpotted{
			Observer: ids[s.Spotted.Observer],
			Target:   ids[s.Spotted.Target],
		}})
	}
	if s.Lost != nil {
		out = append(out, contract.Inbound{Kind: contract.InboundPerceptionLost, Lost: &contract.PerceptionLost{
			Observer: ids[s.Lost.Observer],
			Target:   ids[s.Lost.Target],
		}})
	}
	if s.Environmental != nil {
		out = append(out, contract.Inbound{Kind: contract.InboundEnvironmentalDamage, Environmental: &contract.EnvironmentalDamage{
			Target: ids[s.Environmental.Target],
			Damage: s.Environmental.Damage,
		}})
	}
	if s.Impact != nil {
		impact := contract.ProjectileImpact{
			Shooter: ids[s.Impact.Shooter],
			Target:  ids[s.Impact.Target],
			Damage:  s.Impact.Damage,
		}
		if s.Impact.Shield {
			shield := contract.ProjectileShieldImpact(impact)
			out = append(out, contract.Inbound{Kind: contract.InboundProjectileShieldImpact, ShieldImpact: &shield})
		} else {
			out = append(out, contract.Inbound{Kind: contract.InboundProjectileImpact, Impact: &impact})
		}
	}
	if s.Input != nil {
		out = append(out, contract.Inbound{Kind: contract.InboundPlayerInputFrame, Input: &contract.PlayerInputFrame{
			Entity:     ids[s.Input.Entity],
			Direction:  s.Input.Direction,
			Sprint:     s.Input.Sprint,
			Jump:       s.Input.Jump,
			Attack:     s.Input.Attack,
			AttackType: s.Input.AttackType,
			Parry:      s.Input.Parry,
		}})
	}
	if s.Jump != "" {
		out = append(out, contract.Inbound{Kind: contract.InboundJumpRequested, Jump: &contract.JumpRequested{Entity: ids[s.Jump]}})
	}
	return out
}
