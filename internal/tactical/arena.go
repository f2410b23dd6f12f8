// Package tactical is a reference implementation of the physics-side
// collaborator. It keeps a chipmunk space on the ground plane (world X/Z
// mapped to space X/Y), validates intents against reach, range and line of
// sight, turns live hitboxes into damage reports, flies projectiles and moves
// bodies according to movement intents.
package tactical

import (
	"sort"

	"github.com/jakecoffman/cp"

	"github.com/pockerhead/VOIDRUN-sub000/contract"
	"github.com/pockerhead/VOIDRUN-sub000/internal/world"
)

const (
	categoryWall uint = 1 << iota
	categoryActor
)

const (
	collisionTypeWall cp.CollisionType = iota + 1
	collisionTypeActor
)

// BodyRadius is the ground footprint of every actor.
const BodyRadius = 0.4

// Obstacle is an axis-aligned box on the ground plane that blocks sight and
// movement. Y is ignored.
type Obstacle struct {
	Min contract.Vec3 `json:"min" yaml:"min"`
	Max contract.Vec3 `json:"max" yaml:"max"`
}

// Arena owns the chipmunk space.
type Arena struct {
	space     *cp.Space
	obstacles []Obstacle
	bodies    map[contract.EntityID]*cp.Body
}

func NewArena(obstacles []Obstacle) *Arena {
	space := cp.NewSpace()
	a := &Arena{
		space:     space,
		obstacles: append([]Obstacle(nil), obstacles...),
		bodies:    make(map[contract.EntityID]*cp.Body),
	}
	for _, o := range obstacles {
		bb := cp.BB{L: o.Min.X, B: o.Min.Z, R: o.Max.X, T: o.Max.Z}
		shape := cp.NewBox2(space.StaticBody, bb, 0)
		shape.SetCollisionType(collisionTypeWall)
		shape.SetFilter(cp.NewShapeFilter(cp.NO_GROUP, categoryWall, cp.ALL_CATEGORIES))
		space.AddShape(shape)
	}
	return a
}

func toSpace(v contract.Vec3) cp.Vector {
	return cp.Vector{X: v.X, Y: v.Z}
}

func (a *Arena) Obstacles() []Obstacle {
	return append([]Obstacle(nil), a.obstacles...)
}

// Sync mirrors the world into the space: bodies for new entities, positions
// for existing ones, and removal for despawned ones.
func (a *Arena) Sync(w *world.World) {
	live := make(map[contract.EntityID]bool)
	for _, id := range w.Query(world.TransformComponent) {
		live[id] = true
		position, _ := w.Position(id)
		body, ok := a.bodies[id]
		if !ok {
			body = a.space.AddBody(cp.NewKinematicBody())
			body.UserData = id
			shape := cp.NewCircle(body, BodyRadius, cp.Vector{})
			shape.SetCollisionType(collisionTypeActor)
			shape.SetSensor(true)
			shape.SetFilter(cp.NewShapeFilter(cp.NO_GROUP, categoryActor, categoryWall))
			a.space.AddShape(shape)
			a.bodies[id] = body
		}
		body.SetPosition(toSpace(position))
		a.space.ReindexShapesForBody(body)
	}
	stale := make([]contract.EntityID, 0)
	for id := range a.bodies {
		if !live[id] {
			stale = append(stale, id)
		}
	}
	sort.Slice(stale, func(i, j int) bool { return stale[i] < stale[j] })
	for _, id := range stale {
		body := a.bodies[id]
		var shapes []*cp.Shape
		body.EachShape(func(shape *cp.Shape) {
			shapes = append(shapes, shape)
		})
		for _, shape := range shapes {
			a.space.RemoveShape(shape)
		}
		a.space.RemoveBody(body)
		delete(a.bodies, id)
	}
}

// Bodies reports how many actors the space tracks.
func (a *Arena) Bodies() int {
	return len(a.bodies)
}

// LineOfSight reports whether no obstacle lies on the ground segment
// between from and to.
func (a *Arena) LineOfSight(from, to contract.Vec3) bool {
	filter := cp.NewShapeFilter(cp.NO_GROUP, categoryActor, categoryWall)
	hit := a.space.SegmentQueryFirst(toSpace(from), toSpace(to), 0, filter)
	return hit.Shape == nil
}

// Clear reports whether a body can travel from from to to without touching
// an obstacle.
func (a *Arena) Clear(from, to contract.Vec3) bool {
	filter := cp.NewShapeFilter(cp.NO_GROUP, categoryActor, categoryWall)
	hit := a.space.SegmentQueryFirst(toSpace(from), toSpace(to), BodyRadius, filter)
	return hit.Shape == nil
}
