package ai

import (
	"math/rand/v2"

	"github.com/udisondev/deepwatch/internal/model"
	"github.com/udisondev/deepwatch/internal/world"
)

// Arena is the shared state an NPC acts on during its tick. The game state
// implements it; behaviours never hold on to it between ticks.
type Arena interface {
	Grid() *world.Grid
	Rand() *rand.Rand

	// VesselsAt lists vessels in cell p in registration order.
	VesselsAt(p world.Point) []*model.Vessel
	// EntitiesWithin lists vessels then NPCs within dist of p, skipping except.
	EntitiesWithin(p world.Point, dist int, except model.Entity) []model.Entity

	// Spawn adds a new NPC of kind at p.
	Spawn(kind string, p world.Point, owner string) (*model.Npc, error)
	// Remove drops the NPC from the roster without side effects.
	Remove(id int) bool
	// Explode damages everything around p by power minus distance.
	Explode(p world.Point, power int)

	// Control posts to the game-master channel.
	Control(msg string)
}
