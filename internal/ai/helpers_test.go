package ai

import (
	"math/rand/v2"
	"testing"

	"github.com/stretchr/testify/require"

	"github.com/udisondev/deepwatch/internal/model"
	"github.com/udisondev/deepwatch/internal/world"
)

// fakeArena is a minimal Arena over a 10×10 grid.
type fakeArena struct {
	grid     *world.Grid
	rng      *rand.Rand
	reg      *Registry
	roster   *Roster
	bulletin *model.Bulletin
	vessels  []*model.Vessel
}

func newFakeArena(t *testing.T) *fakeArena {
	t.Helper()
	rng := rand.New(rand.NewPCG(3, 5))
	return &fakeArena{
		grid:     world.NewGrid(10, 10, rng),
		rng:      rng,
		reg:      Standard(),
		roster:   NewRoster(),
		bulletin: model.NewBulletin(),
	}
}

func (a *fakeArena) Grid() *world.Grid { return a.grid }
func (a *fakeArena) Rand() *rand.Rand  { return a.rng }

func (a *fakeArena) VesselsAt(p world.Point) []*model.Vessel {
	var out []*model.Vessel
	for _, v := range a.vessels {
		if v.Position() == p {
			out = append(out, v)
		}
	}
	return out
}

func (a *fakeArena) EntitiesWithin(p world.Point, dist int, except model.Entity) []model.Entity {
	var out []model.Entity
	for _, v := range a.vessels {
		if model.Entity(v) != except && world.Distance(p, v.Position()) <= dist {
			out = append(out, v)
		}
	}
	for _, n := range a.roster.All() {
		if model.Entity(n) != except && world.Distance(p, n.Position()) <= dist {
			out = append(out, n)
		}
	}
	return out
}

func (a *fakeArena) Spawn(kind string, p world.Point, owner string) (*model.Npc, error) {
	c, err := a.grid.MustCell(p)
	if err != nil {
		return nil, err
	}
	if !c.CanNPCEnter() {
		return nil, model.ErrPrecondition
	}
	n, err := a.reg.New(kind, a.roster.NextID(), p, owner, a.rng)
	if err != nil {
		return nil, err
	}
	n.AttachBulletin(a.bulletin)
	return n, a.roster.Add(n)
}

func (a *fakeArena) Remove(id int) bool { return a.roster.Remove(id) }

func (a *fakeArena) Explode(p world.Point, power int) {
	for _, e := range a.EntitiesWithin(p, power, nil) {
		if dmg := power - world.Distance(p, e.Position()); dmg > 0 {
			e.Damage(dmg)
		}
	}
}

func (a *fakeArena) Control(msg string) { a.bulletin.Control(msg) }

// spawn adds an NPC and fails the test on error.
func (a *fakeArena) spawn(t *testing.T, kind string, p world.Point) *model.Npc {
	t.Helper()
	n, err := a.Spawn(kind, p, "")
	require.NoError(t, err)
	return n
}

// vessel adds an active vessel at p.
func (a *fakeArena) vessel(name string, p world.Point) *model.Vessel {
	bank := model.NewPuzzleBank(nil)
	v := model.NewVessel(name, map[model.Role]string{model.RoleCaptain: name}, p, bank)
	v.AttachBulletin(a.bulletin)
	v.Power.Activate(true)
	a.vessels = append(a.vessels, v)
	return v
}

// tick runs n ticks of npc.
func (a *fakeArena) tick(t *testing.T, n *model.Npc, times int) {
	t.Helper()
	for range times {
		require.NoError(t, a.reg.Tick(a, n))
	}
}
