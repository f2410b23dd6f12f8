package world

import (
	"errors"
	"fmt"

	"github.com/pockerhead/VOIDRUN-sub000/contract"
	"github.com/pockerhead/VOIDRUN-sub000/internal/resource"
	"github.com/pockerhead/VOIDRUN-sub000/internal/weapon"
)

var (
	// ErrMissingWeapon is returned when a combatant is spawned unarmed.
	ErrMissingWeapon = errors.New("world: combatant spawned without weapon profile")
	// ErrInvalidWeapon aliases weapon.ErrInvalidWeapon so callers can match
	// spawn failures without importing the weapon package.
	ErrInvalidWeapon = weapon.ErrInvalidWeapon
	// ErrInvalidResource aliases resource.ErrInvalidResource.
	ErrInvalidResource = resource.ErrInvalidResource
	// ErrInvalidActor is returned for specs missing identity data.
	ErrInvalidActor = errors.New("world: invalid actor")
)

// ShieldSpec configures an energy shield.
type ShieldSpec struct {
	MaxEnergy     float64 `json:"maxEnergy" yaml:"maxEnergy"`
	RechargeDelay float64 `json:"rechargeDelay" yaml:"rechargeDelay"`
	RechargeRate  float64 `json:"rechargeRate" yaml:"rechargeRate"`
}

// ActorSpec describes one actor to spawn. AI is required for NPCs and
// ignored for players.
type ActorSpec struct {
	Name         string
	Faction      contract.Faction
	Kind         contract.ActorKind
	Position     contract.Vec3
	Facing       contract.Vec3
	MaxHealth    uint32
	MaxStamina   float64
	StaminaRegen float64
	Shield       *ShieldSpec
	Weapon       *weapon.Stats
	AI           *AIConfig
}

// Spawn validates spec and creates the entity. Every failure is fatal for
// that actor: nothing is created when an error is returned.
func (w *World) Spawn(spec ActorSpec) (contract.EntityID, error) {
	if spec.Faction == "" {
		return contract.NoEntity, fmt.Errorf("%w: %q has no faction", ErrInvalidActor, spec.Name)
	}
	switch spec.Kind {
	case contract.ActorKindPlayer:
	case contract.ActorKindNPC:
		if spec.AI == nil {
			return contract.NoEntity, fmt.Errorf("%w: npc %q has no ai config", ErrInvalidActor, spec.Name)
		}
		if err := validateAIConfig(*spec.AI); err != nil {
			return contract.NoEntity, fmt.Errorf("%w: npc %q: %v", ErrInvalidActor, spec.Name, err)
		}
	default:
		return contract.NoEntity, fmt.Errorf("%w: %q has unknown kind %q", ErrInvalidActor, spec.Name, spec.Kind)
	}
	if spec.Weapon == nil {
		return contract.NoEntity, fmt.Errorf("%w: %q", ErrMissingWeapon, spec.Name)
	}
	stats := *spec.Weapon
	if err := stats.Validate(); err != nil {
		return contract.NoEntity, fmt.Errorf("spawn %q: %w", spec.Name, err)
	}
	health, err := resource.NewHealth(spec.MaxHealth)
	if err != nil {
		return contract.NoEntity, fmt.Errorf("spawn %q: %w", spec.Name, err)
	}
	stamina, err := resource.NewStamina(spec.MaxStamina, spec.StaminaRegen)
	if err != nil {
		return contract.NoEntity, fmt.Errorf("spawn %q: %w", spec.Name, err)
	}
	var shield *resource.EnergyShield
	if spec.Shield != nil {
		s, err := resource.NewEnergyShield(spec.Shield.MaxEnergy, spec.Shield.RechargeDelay, spec.Shield.RechargeRate)
		if err != nil {
			return contract.NoEntity, fmt.Errorf("spawn %q: %w", spec.Name, err)
		}
		shield = &s
	}

	entry := w.create(Identity{Faction: spec.Faction, Kind: spec.Kind, Name: spec.Name})
	id := IdentityComponent.Get(entry).ID

	Set(w, id, TransformComponent, Transform{Position: spec.Position, Facing: spec.Facing})
	Set(w, id, HealthComponent, health)
	Set(w, id, StaminaComponent, stamina)
	if shield != nil {
		Set(w, id, ShieldComponent, *shield)
	}
	stats.CooldownTimer = 0
	Set(w, id, WeaponComponent, stats)
	Set(w, id, AIStateComponent, IdleState())
	Set(w, id, MovementComponent, Movement{Intent: contract.StopIntent(id)})
	if spec.Kind == contract.ActorKindPlayer {
		Set(w, id, PlayerComponent, PlayerControl{})
	} else {
		Set(w, id, AIConfigComponent, *spec.AI)
		Set(w, id, SpottedComponent, SpottedEnemies{})
	}
	return id, nil
}

func validateAIConfig(cfg AIConfig) error {
	if cfg.RetreatStaminaThreshold < 0 || cfg.RetreatStaminaThreshold > 1 {
		return fmt.Errorf("retreat stamina threshold %v outside [0,1]", cfg.RetreatStaminaThreshold)
	}
	if cfg.RetreatHealthThreshold < 0 || cfg.RetreatHealthThreshold > 1 {
		return fmt.Errorf("retreat health threshold %v outside [0,1]", cfg.RetreatHealthThreshold)
	}
	if cfg.RetreatDuration < 0 || cfg.PatrolDirectionChangeInterval < 0 {
		return fmt.Errorf("durations must be non-negative")
	}
	return nil
}
