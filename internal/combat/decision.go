package combat

import (
	"bytes"
	_ "embed"
	"fmt"
	"sort"
	"strings"

	"gopkg.in/yaml.v3"

	"github.com/pockerhead/VOIDRUN-sub000/contract"
	"github.com/pockerhead/VOIDRUN-sub000/internal/weapon"
	"github.com/pockerhead/VOIDRUN-sub000/internal/world"
)

//go:embed profiles.yaml
var embeddedProfiles []byte

// DefaultProfile is used for entities whose AIConfig names no known profile.
const DefaultProfile = "balanced"

// MeleeReach is the coarse reach used to gate swings of hybrid weapons,
// whose Range describes their ranged mode.
const MeleeReach = 2.5

// Action is one option of the unified decision.
type Action uint8

const (
	ActionWait Action = iota
	ActionAttack
	ActionParry
)

func (a Action) String() string {
	switch a {
	case ActionAttack:
		return "attack"
	case ActionParry:
		return "parry"
	default:
		return "wait"
	}
}

// Profile weights the decision options.
type Profile struct {
	Attack     float64 `yaml:"attack"`
	Parry      float64 `yaml:"parry"`
	Wait       float64 `yaml:"wait"`
	HeavyAbove float64 `yaml:"heavyAbove"`
}

// Profiles indexes behaviour profiles by name.
type Profiles map[string]Profile

// DefaultProfiles holds the bundled profiles.
var DefaultProfiles = MustLoadProfiles()

// MustLoadProfiles decodes the embedded profiles or panics.
func MustLoadProfiles() Profiles {
	profiles, err := DecodeProfiles(embeddedProfiles)
	if err != nil {
		panic(fmt.Errorf("combat: load profiles: %w", err))
	}
	return profiles
}

// DecodeProfiles parses a profiles document.
func DecodeProfiles(data []byte) (Profiles, error) {
	var doc struct {
		Profiles map[string]Profile `yaml:"profiles"`
	}
	dec := yaml.NewDecoder(bytes.NewReader(data))
	dec.KnownFields(true)
	if err := dec.Decode(&doc); err != nil {
		return nil, err
	}
	out := make(Profiles, len(doc.Profiles))
	for name, profile := range doc.Profiles {
		if profile.Attack < 0 || profile.Parry < 0 || profile.Wait < 0 {
			return nil, fmt.Errorf("profile %q has a negative weight", name)
		}
		out[strings.ToLower(name)] = profile
	}
	if _, ok := out[DefaultProfile]; !ok {
		return nil, fmt.Errorf("profile %q missing", DefaultProfile)
	}
	return out, nil
}

// Lookup returns the named profile, falling back to DefaultProfile.
func (p Profiles) Lookup(name string) Profile {
	if profile, ok := p[strings.ToLower(strings.TrimSpace(name))]; ok {
		return profile
	}
	return p[DefaultProfile]
}

// Names lists the profiles in sorted order.
func (p Profiles) Names() []string {
	names := make([]string, 0, len(p))
	for name := range p {
		names = append(names, name)
	}
	sort.Strings(names)
	return names
}

// Options is the availability of each action for one entity this slice.
type Options struct {
	Attack bool
	Parry  bool
}

// Choose picks the highest-weighted available action. Equal weights resolve
// parry, then attack, then wait.
func (p Profile) Choose(opts Options) Action {
	best, bestWeight := ActionWait, p.Wait
	if opts.Attack && p.Attack >= bestWeight {
		best, bestWeight = ActionAttack, p.Attack
	}
	if opts.Parry && p.Parry >= bestWeight {
		best = ActionParry
	}
	return best
}

// Threatened reports whether a spotted enemy of id is winding up a swing
// that targets id or nobody in particular.
func Threatened(w *world.World, id contract.EntityID) bool {
	spotted, ok := world.Value(w, id, world.SpottedComponent)
	if !ok {
		return false
	}
	for _, enemy := range spotted.IDs {
		if !damageable(w, enemy) {
			continue
		}
		attack, ok := world.Value(w, enemy, world.MeleeAttackComponent)
		if !ok || !attack.Threatening() {
			continue
		}
		if attack.Target == id || !attack.Target.Valid() {
			return true
		}
	}
	return false
}

func reach(stats weapon.Stats) float64 {
	if stats.Kind == weapon.KindHybrid || stats.Range <= 0 {
		return MeleeReach
	}
	return stats.Range
}

// groundDistance is the X/Z distance between two entities whose transforms
// are both known.
func groundDistance(w *world.World, id, target contract.EntityID) (float64, bool) {
	from, ok := w.Position(id)
	if !ok {
		return 0, false
	}
	to, ok := w.Position(target)
	if !ok {
		return 0, false
	}
	return contract.DistanceXZ(from, to), true
}

// inReach treats unknown transforms as in reach and leaves the final call
// to the tactical validator.
func inReach(w *world.World, id, target contract.EntityID, stats weapon.Stats) bool {
	d, ok := groundDistance(w, id, target)
	return !ok || d <= reach(stats)
}

// Available evaluates which actions id may take right now.
func Available(w *world.World, id contract.EntityID) Options {
	var opts Options
	if !damageable(w, id) || world.Has(w, id, world.StaggerComponent) || world.Has(w, id, world.ParryComponent) {
		return opts
	}
	stats, ok := world.Value(w, id, world.WeaponComponent)
	if !ok {
		return opts
	}
	attack, attacking := world.Value(w, id, world.MeleeAttackComponent)

	state, _ := world.Value(w, id, world.AIStateComponent)
	opts.Attack = state.Kind == world.AICombat &&
		stats.Melee() &&
		stats.Ready() &&
		!attacking &&
		damageable(w, state.Target) &&
		inReach(w, id, state.Target, stats)

	opts.Parry = stats.Parries() &&
		(!attacking || attack.Phase == world.PhaseWindup) &&
		Threatened(w, id)
	return opts
}

// Decide runs the unified attack / parry / wait decision for every AI
// combatant. Attacks leave as AttackIntents for the tactical validator;
// parries start immediately.
func Decide(w *world.World, f *world.Frame, profiles Profiles) {
	for _, id := range w.Query(world.AIConfigComponent, world.WeaponComponent) {
		opts := Available(w, id)
		if !opts.Attack && !opts.Parry {
			continue
		}
		cfg, _ := world.Value(w, id, world.AIConfigComponent)
		profile := profiles.Lookup(cfg.Profile)
		switch profile.Choose(opts) {
		case ActionAttack:
			state, _ := world.Value(w, id, world.AIStateComponent)
			f.Out.Attack(contract.AttackIntent{
				Attacker:   id,
				AttackType: attackTypeFor(w, id, profile),
				Target:     state.Target,
			})
		case ActionParry:
			if err := StartParry(w, f, id); err != nil {
				ignore(w, f, id, "decision", err.Error())
			}
		}
	}
}

func attackTypeFor(w *world.World, id contract.EntityID, profile Profile) contract.AttackType {
	stamina, ok := world.Value(w, id, world.StaminaComponent)
	if ok && stamina.Fraction() >= profile.HeavyAbove {
		return contract.AttackHeavy
	}
	return contract.AttackLight
}
