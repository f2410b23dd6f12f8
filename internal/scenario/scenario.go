// Package scenario loads scripted encounters and runs them against the
// engine in a closed loop with the tactical collaborator.
package scenario

import (
	"embed"
	"errors"
	"fmt"
	"io"
	"os"
	"sort"
	"strings"

	"gopkg.in/yaml.v3"

	"github.com/pockerhead/VOIDRUN-sub000/contract"
	"github.com/pockerhead/VOIDRUN-sub000/internal/tactical"
	"github.com/pockerhead/VOIDRUN-sub000/internal/world"
)

//go:embed builtin/*.yaml
var builtin embed.FS

// ErrInvalidScenario wraps every validation failure.
var ErrInvalidScenario = errors.New("scenario: invalid")

// Scenario is one scripted encounter.
type Scenario struct {
	Name     string            `json:"name" yaml:"name" jsonschema:"title=Scenario name,minLength=1,required"`
	Seed     string            `json:"seed,omitempty" yaml:"seed" jsonschema:"description=Root seed for every deterministic RNG stream"`
	Ticks    uint64            `json:"ticks" yaml:"ticks" jsonschema:"description=Number of fixed ticks to run,minimum=1,required"`
	Arena    Arena             `json:"arena,omitempty" yaml:"arena"`
	Tactical *tactical.Config  `json:"tactical,omitempty" yaml:"tactical" jsonschema:"description=Overrides for the reference collaborator's movement and sensing"`
	Actors   []Actor           `json:"actors" yaml:"actors" jsonschema:"minItems=1,required"`
	Script   []Step            `json:"script,omitempty" yaml:"script" jsonschema:"description=Inbound events injected before the given tick"`
	Expect   *Expectation      `json:"expect,omitempty" yaml:"expect"`
	Metadata map[string]string `json:"metadata,omitempty" yaml:"metadata"`
}

// Arena lists static obstacles.
type Arena struct {
	Obstacles []tactical.Obstacle `json:"obstacles,omitempty" yaml:"obstacles"`
}

// Actor describes one spawned entity. Names must be unique; the script
// refers to actors by name.
type Actor struct {
	Name         string            `json:"name" yaml:"name" jsonschema:"minLength=1,required"`
	Faction      contract.Faction  `json:"faction" yaml:"faction" jsonschema:"required"`
	Player       bool              `json:"player,omitempty" yaml:"player"`
	Position     contract.Vec3     `json:"position" yaml:"position"`
	Weapon       string            `json:"weapon" yaml:"weapon" jsonschema:"description=Weapon catalog name,required"`
	Health       uint32            `json:"health,omitempty" yaml:"health" jsonschema:"default=100"`
	Stamina      float64           `json:"stamina,omitempty" yaml:"stamina" jsonschema:"default=100"`
	StaminaRegen float64           `json:"staminaRegen,omitempty" yaml:"staminaRegen" jsonschema:"default=10"`
	Shield       *world.ShieldSpec `json:"shield,omitempty" yaml:"shield"`
	AI           *world.AIConfig   `json:"ai,omitempty" yaml:"ai" jsonschema:"description=Required unless player is set"`
}

// Step injects events before Tick runs.
type Step struct {
	Tick          uint64        `json:"tick" yaml:"tick" jsonschema:"minimum=1,required"`
	Spotted       *Sighting     `json:"spotted,omitempty" yaml:"spotted"`
	Lost          *Sighting     `json:"lost,omitempty" yaml:"lost"`
	Environmental *Hazard       `json:"environmental,omitempty" yaml:"environmental"`
	Impact        *Impact       `json:"impact,omitempty" yaml:"impact"`
	Switch        *WeaponSwitch `json:"switch,omitempty" yaml:"switch"`
	Input         *Input        `json:"input,omitempty" yaml:"input"`
	Jump          string        `json:"jump,omitempty" yaml:"jump"`
	Teleport      *Teleport     `json:"teleport,omitempty" yaml:"teleport"`
}

type Sighting struct {
	Observer string `json:"observer" yaml:"observer"`
	Target   string `json:"target" yaml:"target"`
}

type Hazard struct {
	Target string  `json:"target" yaml:"target"`
	Damage float64 `json:"damage" yaml:"damage"`
}

// Impact is a projectile the script fires directly at a target.
type Impact struct {
	Shooter string  `json:"shooter" yaml:"shooter"`
	Target  string  `json:"target" yaml:"target"`
	Damage  float64 `json:"damage" yaml:"damage"`
	Shield  bool    `json:"shield,omitempty" yaml:"shield"`
}

type WeaponSwitch struct {
	Entity string `json:"entity" yaml:"entity"`
	Weapon string `json:"weapon" yaml:"weapon"`
}

type Input struct {
	Entity     string              `json:"entity" yaml:"entity"`
	Direction  contract.Vec3       `json:"direction" yaml:"direction"`
	Sprint     bool                `json:"sprint,omitempty" yaml:"sprint"`
	Jump       bool                `json:"jump,omitempty" yaml:"jump"`
	Attack     bool                `json:"attack,omitempty" yaml:"attack"`
	AttackType contract.AttackType `json:"attackType,omitempty" yaml:"attackType"`
	Parry      bool                `json:"parry,omitempty" yaml:"parry"`
}

type Teleport struct {
	Entity   string        `json:"entity" yaml:"entity"`
	Position contract.Vec3 `json:"position" yaml:"position"`
}

// Expectation is checked after the last tick.
type Expectation struct {
	Alive []string `json:"alive,omitempty" yaml:"alive"`
	Dead  []string `json:"dead,omitempty" yaml:"dead"`
}

// Decode parses and validates a YAML scenario.
func Decode(r io.Reader) (*Scenario, error) {
	var sc Scenario
	decoder := yaml.NewDecoder(r)
	decoder.KnownFields(true)
	if err := decoder.Decode(&sc); err != nil {
		return nil, fmt.Errorf("scenario: decode: %w", err)
	}
	if err := sc.Validate(); err != nil {
		return nil, err
	}
	return &sc, nil
}

// LoadFile reads a scenario from disk.
func LoadFile(path string) (*Scenario, error) {
	f, err := os.Open(path)
	if err != nil {
		return nil, fmt.Errorf("scenario: open %q: %w", path, err)
	}
	defer f.Close()
	return Decode(f)
}

// Builtin loads a bundled scenario by name.
func Builtin(name string) (*Scenario, error) {
	f, err := builtin.Open("builtin/" + strings.ToLower(name) + ".yaml")
	if err != nil {
		return nil, fmt.Errorf("scenario: no builtin %q: %w", name, err)
	}
	defer f.Close()
	return Decode(f)
}

// BuiltinNames lists the bundled scenarios.
func BuiltinNames() []string {
	entries, _ := builtin.ReadDir("builtin")
	names := make([]string, 0, len(entries))
	for _, entry := range entries {
		names = append(names, strings.TrimSuffix(entry.Name(), ".yaml"))
	}
	sort.Strings(names)
	return names
}

// Validate checks structure and name references. Weapon names are checked
// against the catalog when the scenario runs.
func (sc *Scenario) Validate() error {
	if sc.Name == "" {
		return fmt.Errorf("%w: missing name", ErrInvalidScenario)
	}
	if sc.Ticks == 0 {
		return fmt.Errorf("%w: %s: ticks must be positive", ErrInvalidScenario, sc.Name)
	}
	if len(sc.Actors) == 0 {
		return fmt.Errorf("%w: %s: no actors", ErrInvalidScenario, sc.Name)
	}
	names := make(map[string]bool, len(sc.Actors))
	for _, actor := range sc.Actors {
		if actor.Name == "" {
			return fmt.Errorf("%w: %s: actor without a name", ErrInvalidScenario, sc.Name)
		}
		if names[actor.Name] {
			return fmt.Errorf("%w: %s: duplicate actor %q", ErrInvalidScenario, sc.Name, actor.Name)
		}
		if !actor.Player && actor.AI == nil {
			return fmt.Errorf("%w: %s: npc %q has no ai block", ErrInvalidScenario, sc.Name, actor.Name)
		}
		names[actor.Name] = true
	}
	for i, step := range sc.Script {
		if step.Tick == 0 || step.Tick > sc.Ticks {
			return fmt.Errorf("%w: %s: script[%d] tick %d outside 1..%d", ErrInvalidScenario, sc.Name, i, step.Tick, sc.Ticks)
		}
		for _, ref := range step.refs() {
			if !names[ref] {
				return fmt.Errorf("%w: %s: script[%d] names unknown actor %q", ErrInvalidScenario, sc.Name, i, ref)
			}
		}
	}
	if sc.Expect != nil {
		for _, ref := range append(append([]string{}, sc.Expect.Alive...), sc.Expect.Dead...) {
			if !names[ref] {
				return fmt.Errorf("%w: %s: expectation names unknown actor %q", ErrInvalidScenario, sc.Name, ref)
			}
		}
	}
	return nil
}

func (s Step) refs() []string {
	var refs []string
	if s.Spotted != nil {
		refs = append(refs, s.Spotted.Observer, s.Spotted.Target)
	}
	if s.Lost != nil {
		refs = append(refs, s.Lost.Observer, s.Lost.Target)
	}
	if s.Environmental != nil {
		refs = append(refs, s.Environmental.Target)
	}
	if s.Impact != nil {
		refs = append(refs, s.Impact.Shooter, s.Impact.Target)
	}
	if s.Switch != nil {
		refs = append(refs, s.Switch.Entity)
	}
	if s.Input != nil {
		refs = append(refs, s.Input.Entity)
	}
	if s.Jump != "" {
		refs = append(refs, s.Jump)
	}
	if s.Teleport != nil {
		refs = append(refs, s.Teleport.Entity)
	}
	return refs
}
