package model

import (
	"encoding/json"
	"fmt"
	"slices"

	"github.com/zyedidia/generic/mapset"

	"github.com/udisondev/deepwatch/internal/world"
)

// Npc is a non-player entity: a creature, hazard or structure. Its
// behaviour lives in the ai package and is selected by Kind.
type Npc struct {
	ID       int
	Kind     string
	TypeName string
	Health   int
	Stealth  int
	Treasure []string

	// Owner is the registry key of the vessel that deployed it, if any.
	Owner string
	// Observant NPCs ignore camouflage.
	Observant bool
	// Carbon NPCs are biological.
	Carbon bool

	// Counter accumulates ticks toward the next attack.
	Counter   int
	Countdown int
	// Resource is what a trader deals in.
	Resource string
	// Visited holds the vessels seen in the cell last tick.
	Visited mapset.Set[string]

	pos      world.Point
	pending  int
	channel  Role
	bulletin *Bulletin
}

var _ Entity = (*Npc)(nil)

// NewNpc creates an NPC of the given kind at pos with health 1.
func NewNpc(id int, kind string, pos world.Point) *Npc {
	return &Npc{
		ID:       id,
		Kind:     kind,
		TypeName: world.Title(kind),
		Health:   1,
		Visited:  mapset.New[string](),
		pos:      pos,
		channel:  RoleControl,
	}
}

// Name is "TypeName (#id)".
func (n *Npc) Name() string {
	return fmt.Sprintf("%s (#%d)", n.TypeName, n.ID)
}

// FullName adds the position to Name.
func (n *Npc) FullName() string {
	return fmt.Sprintf("%s (#%d at %d, %d)", n.TypeName, n.ID, n.pos.X, n.pos.Y)
}

// Position is the NPC's current cell.
func (n *Npc) Position() world.Point { return n.pos }

// SetPosition moves the NPC without checks.
func (n *Npc) SetPosition(p world.Point) { n.pos = p }

// Damage queues damage resolved on the NPC's next tick.
func (n *Npc) Damage(amount int) {
	if amount > 0 {
		n.pending += amount
	}
}

// PendingDamage is the damage waiting to be resolved.
func (n *Npc) PendingDamage() int { return n.pending }

// TakePendingDamage returns and clears the queued damage.
func (n *Npc) TakePendingDamage() int {
	d := n.pending
	n.pending = 0
	return d
}

// SetChannel picks where the NPC's messages go: control or news.
func (n *Npc) SetChannel(r Role) { n.channel = r }

// Channel is where the NPC's messages go.
func (n *Npc) Channel() Role { return n.channel }

// AttachBulletin routes the NPC's messages to b.
func (n *Npc) AttachBulletin(b *Bulletin) { n.bulletin = b }

// Send relays msg to control as an event, or to news for broadcasters.
func (n *Npc) Send(_ Role, msg string) {
	if n.channel == RoleNews {
		n.bulletin.News(msg)
		return
	}
	n.bulletin.Control(fmt.Sprintf("Event from %s! %s", n.Name(), msg))
}

// OutwardBroadcast shows the name to scanners at least as strong as the
// NPC's stealth.
func (n *Npc) OutwardBroadcast(strength int) string {
	if strength >= n.Stealth {
		return n.Name()
	}
	return ""
}

// IsWeak is true: stunning shots hurt NPCs.
func (n *Npc) IsWeak() bool { return true }

// IsCarbon reports whether the NPC is biological.
func (n *Npc) IsCarbon() bool { return n.Carbon }

// Attackable reports whether the NPC may attack v. Camouflaged vessels are
// safe from NPCs that have never been hurt.
func (n *Npc) Attackable(v *Vessel) bool {
	return n.Observant || !v.Upgrades.Has(UpgradeCamo)
}

type npcJSON struct {
	Classname string   `json:"classname"`
	ID        int      `json:"id"`
	TypeName  string   `json:"typename"`
	Health    int      `json:"health"`
	Stealth   int      `json:"stealth"`
	Treasure  []string `json:"treasure"`
	X         int      `json:"x"`
	Y         int      `json:"y"`
	Owner     string   `json:"parent,omitempty"`
	Observant bool     `json:"observant"`
	Carbon    bool     `json:"carbon"`
	Pending   int      `json:"damage_to_apply"`
	Channel   Role     `json:"channel,omitempty"`
	Counter   int      `json:"tick_count,omitempty"`
	Countdown int      `json:"countdown,omitempty"`
	Resource  string   `json:"resource,omitempty"`
	Visited   []string `json:"visited,omitempty"`
}

func (n *Npc) MarshalJSON() ([]byte, error) {
	var visited []string
	if n.Visited.Size() > 0 {
		n.Visited.Each(func(k string) { visited = append(visited, k) })
		slices.Sort(visited)
	}
	return json.Marshal(npcJSON{
		Classname: n.Kind,
		ID:        n.ID,
		TypeName:  n.TypeName,
		Health:    n.Health,
		Stealth:   n.Stealth,
		Treasure:  n.Treasure,
		X:         n.pos.X,
		Y:         n.pos.Y,
		Owner:     n.Owner,
		Observant: n.Observant,
		Carbon:    n.Carbon,
		Pending:   n.pending,
		Channel:   n.channel,
		Counter:   n.Counter,
		Countdown: n.Countdown,
		Resource:  n.Resource,
		Visited:   visited,
	})
}

func (n *Npc) UnmarshalJSON(data []byte) error {
	var raw npcJSON
	if err := json.Unmarshal(data, &raw); err != nil {
		return fmt.Errorf("decoding npc: %w", err)
	}
	if raw.Classname == "" {
		return fmt.Errorf("decoding npc: %w: missing classname", ErrInvalidCommand)
	}
	*n = Npc{
		ID:        raw.ID,
		Kind:      raw.Classname,
		TypeName:  raw.TypeName,
		Health:    raw.Health,
		Stealth:   raw.Stealth,
		Treasure:  raw.Treasure,
		Owner:     raw.Owner,
		Observant: raw.Observant,
		Carbon:    raw.Carbon,
		Counter:   raw.Counter,
		Countdown: raw.Countdown,
		Resource:  raw.Resource,
		Visited:   mapset.New[string](),
		pos:       world.Point{X: raw.X, Y: raw.Y},
		pending:   raw.Pending,
		channel:   raw.Channel,
	}
	if n.TypeName == "" {
		n.TypeName = world.Title(n.Kind)
	}
	if n.channel == "" {
		n.channel = RoleControl
	}
	for _, k := range raw.Visited {
		n.Visited.Put(k)
	}
	return nil
}
