package contract

import "strconv"

// EntityID is the core's own entity reference. Presentation-layer handles
// never cross the boundary; collaborators keep their own reverse lookups.
type EntityID uint64

// NoEntity is the zero reference used for optional targets.
const NoEntity EntityID = 0

// Valid reports whether the reference points at an entity.
func (id EntityID) Valid() bool {
	return id != NoEntity
}

func (id EntityID) String() string {
	return strconv.FormatUint(uint64(id), 10)
}

// Faction groups entities that never treat each other as hostile.
type Faction string

const (
	FactionPlayer  Faction = "player"
	FactionRaiders Faction = "raiders"
	FactionSynths  Faction = "synths"
)

// Hostile reports whether two factions are enemies. Entities without a
// faction are never hostile to anything.
func Hostile(a, b Faction) bool {
	if a == "" || b == "" {
		return false
	}
	return a != b
}

// ActorKind distinguishes the player-controlled entity from AI actors.
type ActorKind string

const (
	ActorKindPlayer ActorKind = "player"
	ActorKindNPC    ActorKind = "npc"
)
