package game

import (
	"fmt"
	"log/slog"
	"math/rand/v2"
	"slices"

	"github.com/udisondev/deepwatch/internal/ai"
	"github.com/udisondev/deepwatch/internal/model"
	"github.com/udisondev/deepwatch/internal/world"
)

// State owns the world grid, the vessel registry and the NPC roster.
// Vessels are kept in registration order, which is the order every phase
// visits them in.
//
// State is not safe for concurrent use. The engine serialises ticks and
// commands around it.
type State struct {
	grid     *world.Grid
	rng      *rand.Rand
	registry *ai.Registry
	roster   *ai.Roster
	bank     *model.PuzzleBank
	bulletin *model.Bulletin

	order   []string
	vessels map[string]*model.Vessel
}

var _ ai.Arena = (*State)(nil)

// NewState creates a state over grid. The grid and every NPC behaviour
// share rng.
func NewState(grid *world.Grid, registry *ai.Registry, bank *model.PuzzleBank, rng *rand.Rand) *State {
	return &State{
		grid:     grid,
		rng:      rng,
		registry: registry,
		roster:   ai.NewRoster(),
		bank:     bank,
		bulletin: model.NewBulletin(),
		vessels:  make(map[string]*model.Vessel),
	}
}

func (s *State) Grid() *world.Grid         { return s.grid }
func (s *State) Rand() *rand.Rand          { return s.rng }
func (s *State) Registry() *ai.Registry    { return s.registry }
func (s *State) Roster() *ai.Roster        { return s.roster }
func (s *State) Bank() *model.PuzzleBank   { return s.bank }
func (s *State) Bulletin() *model.Bulletin { return s.bulletin }
func (s *State) Control(msg string)        { s.bulletin.Control(msg) }
func (s *State) News(msg string)           { s.bulletin.News(msg) }
func (s *State) Remove(id int) bool        { return s.roster.Remove(id) }
func (s *State) NPCs() []*model.Npc        { return s.roster.All() }

// NPC looks an NPC up by id.
func (s *State) NPC(id int) (*model.Npc, error) {
	n, ok := s.roster.Get(id)
	if !ok {
		return nil, fmt.Errorf("%w: #%d", ErrUnknownNpc, id)
	}
	return n, nil
}

// Vessels returns every vessel in registration order.
func (s *State) Vessels() []*model.Vessel {
	out := make([]*model.Vessel, 0, len(s.order))
	for _, k := range s.order {
		out = append(out, s.vessels[k])
	}
	return out
}

// Vessel looks a team up by name.
func (s *State) Vessel(name string) (*model.Vessel, error) {
	v, ok := s.vessels[model.VesselKey(name)]
	if !ok {
		return nil, fmt.Errorf("%w: %q", ErrUnknownVessel, name)
	}
	return v, nil
}

// Register adds a new, inactive vessel at p.
func (s *State) Register(name string, channels map[model.Role]string, p world.Point) (*model.Vessel, error) {
	key := model.VesselKey(name)
	if key == "" {
		return nil, fmt.Errorf("%w: empty team name", model.ErrInvalidCommand)
	}
	if _, dup := s.vessels[key]; dup {
		return nil, fmt.Errorf("%w: %s", ErrVesselExists, key)
	}
	c, err := s.grid.MustCell(p)
	if err != nil {
		return nil, fmt.Errorf("%w: %w", model.ErrInvalidCommand, err)
	}
	if c.IsObstacle() {
		return nil, fmt.Errorf("%w: obstacle at %s", ErrBlockedCell, p)
	}
	v := model.NewVessel(key, channels, p, s.bank)
	s.add(v)
	return v, nil
}

func (s *State) add(v *model.Vessel) {
	v.AttachBulletin(s.bulletin)
	s.order = append(s.order, v.Key())
	s.vessels[v.Key()] = v
}

// Delete removes a team for good. An open trade is cancelled.
func (s *State) Delete(name string) error {
	v, err := s.Vessel(name)
	if err != nil {
		return err
	}
	if partner, ok := v.Inventory.TradePartner(); ok {
		p, _ := s.Vessel(partner)
		model.TimeoutTrade(v, p)
	}
	delete(s.vessels, v.Key())
	s.order = slices.DeleteFunc(s.order, func(k string) bool { return k == v.Key() })
	return nil
}

// SetVessels replaces every vessel, keeping the given order.
func (s *State) SetVessels(vessels []*model.Vessel) {
	s.order = nil
	s.vessels = make(map[string]*model.Vessel, len(vessels))
	for _, v := range vessels {
		s.add(v)
	}
}

// SetNPCs replaces the NPC roster.
func (s *State) SetNPCs(npcs []*model.Npc) error {
	for _, n := range npcs {
		if _, err := s.registry.Get(n.Kind); err != nil {
			return fmt.Errorf("npc %d: %w", n.ID, err)
		}
		n.AttachBulletin(s.bulletin)
	}
	return s.roster.Replace(npcs)
}

// SetGrid replaces the world.
func (s *State) SetGrid(g *world.Grid) {
	s.grid = g
}

// VesselsAt lists vessels in cell p.
func (s *State) VesselsAt(p world.Point) []*model.Vessel {
	var out []*model.Vessel
	for _, k := range s.order {
		if v := s.vessels[k]; v.Position() == p {
			out = append(out, v)
		}
	}
	return out
}

// NPCsAt lists NPCs in cell p by id.
func (s *State) NPCsAt(p world.Point) []*model.Npc {
	var out []*model.Npc
	for _, n := range s.roster.All() {
		if n.Position() == p {
			out = append(out, n)
		}
	}
	return out
}

// EntitiesWithin lists vessels then NPCs within dist of p, skipping except.
func (s *State) EntitiesWithin(p world.Point, dist int, except model.Entity) []model.Entity {
	var out []model.Entity
	for _, v := range s.Vessels() {
		if model.Entity(v) != except && world.Distance(p, v.Position()) <= dist {
			out = append(out, v)
		}
	}
	for _, n := range s.roster.All() {
		if model.Entity(n) != except && world.Distance(p, n.Position()) <= dist {
			out = append(out, n)
		}
	}
	return out
}

// Spawn adds an NPC of kind at p. owner is kept only if it names a
// registered team.
func (s *State) Spawn(kind string, p world.Point, owner string) (*model.Npc, error) {
	c, err := s.grid.MustCell(p)
	if err != nil {
		return nil, fmt.Errorf("%w: %w", model.ErrInvalidCommand, err)
	}
	if !c.CanNPCEnter() {
		return nil, fmt.Errorf("%w: %s", ErrBlockedCell, p)
	}
	if _, ok := s.vessels[model.VesselKey(owner)]; !ok {
		owner = ""
	}
	n, err := s.registry.New(kind, s.roster.NextID(), p, model.VesselKey(owner), s.rng)
	if err != nil {
		return nil, err
	}
	n.AttachBulletin(s.bulletin)
	if err := s.roster.Add(n); err != nil {
		return nil, err
	}
	return n, nil
}

// Kill removes an NPC, running its death hook first when rattle is set.
func (s *State) Kill(id int, rattle bool) error {
	n, err := s.NPC(id)
	if err != nil {
		return err
	}
	if rattle {
		s.registry.Deathrattle(s, n)
	}
	s.roster.Remove(id)
	return nil
}

// Explode deals power minus distance damage to everything near p.
func (s *State) Explode(p world.Point, power int) {
	msg := fmt.Sprintf("Explosion in %s!", p)
	for _, v := range s.Vessels() {
		if dmg := power - world.Distance(p, v.Position()); dmg > 0 {
			v.Send(model.RoleCaptain, msg)
			v.Damage(dmg)
		}
	}
	for _, n := range s.roster.All() {
		if dmg := power - world.Distance(p, n.Position()); dmg > 0 {
			n.Send(model.RoleCaptain, msg)
			n.Damage(dmg)
		}
	}
	slog.Info("explosion", "pos", p, "power", power)
}
