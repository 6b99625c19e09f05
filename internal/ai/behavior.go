package ai

import (
	"errors"
	"fmt"
	"math/rand/v2"
	"slices"
	"strings"

	"github.com/udisondev/deepwatch/internal/model"
	"github.com/udisondev/deepwatch/internal/world"
)

// ErrUnknownKind is returned for NPC type tags with no behaviour.
var ErrUnknownKind = fmt.Errorf("%w: unknown npc type", model.ErrInvalidCommand)

// errDuplicateKind is a programming error when building a registry.
var errDuplicateKind = errors.New("duplicate npc type")

// Behavior is the dispatch entry for one NPC type. Hooks left nil fall
// back to the shared defaults.
type Behavior struct {
	Kind        string
	DisplayName string
	Health      int
	Stealth     int
	Carbon      bool
	Observant   bool
	// Channel is where the NPC's own messages go. Zero means control.
	Channel model.Role

	// Init fills per-instance state such as treasure.
	Init func(n *model.Npc, rng *rand.Rand)
	// Tick replaces the default tick (damage resolution then Attack).
	Tick func(a Arena, n *model.Npc, b *Behavior)
	// Attack runs after damage resolution while the NPC is alive.
	Attack func(a Arena, n *model.Npc)
	// Interact answers a vessel in the same cell. Empty means no reply.
	Interact func(a Arena, n *model.Npc, v *model.Vessel, arg string) string
	// Deathrattle replaces the default death announcement.
	Deathrattle func(a Arena, n *model.Npc)
}

// Registry maps type tags to behaviours. It is read-only once built.
type Registry struct {
	kinds map[string]*Behavior
}

// NewRegistry builds a registry from behaviours.
func NewRegistry(behaviors ...*Behavior) (*Registry, error) {
	r := &Registry{kinds: make(map[string]*Behavior, len(behaviors))}
	for _, b := range behaviors {
		if _, dup := r.kinds[b.Kind]; dup {
			return nil, fmt.Errorf("registering %q: %w", b.Kind, errDuplicateKind)
		}
		r.kinds[b.Kind] = b
	}
	return r, nil
}

// Get returns the behaviour for kind.
func (r *Registry) Get(kind string) (*Behavior, error) {
	b, ok := r.kinds[strings.ToLower(strings.TrimSpace(kind))]
	if !ok {
		return nil, fmt.Errorf("%w: %q", ErrUnknownKind, kind)
	}
	return b, nil
}

// Kinds returns every registered type tag, sorted.
func (r *Registry) Kinds() []string {
	out := make([]string, 0, len(r.kinds))
	for k := range r.kinds {
		out = append(out, k)
	}
	slices.Sort(out)
	return out
}

// New creates an NPC of kind with its type defaults applied.
func (r *Registry) New(kind string, id int, p world.Point, owner string, rng *rand.Rand) (*model.Npc, error) {
	b, err := r.Get(kind)
	if err != nil {
		return nil, err
	}
	n := model.NewNpc(id, b.Kind, p)
	if b.DisplayName != "" {
		n.TypeName = b.DisplayName
	}
	if b.Health > 0 {
		n.Health = b.Health
	}
	n.Stealth = b.Stealth
	n.Carbon = b.Carbon
	n.Observant = b.Observant
	n.Owner = owner
	if b.Channel != "" {
		n.SetChannel(b.Channel)
	}
	if b.Init != nil {
		b.Init(n, rng)
	}
	return n, nil
}

// Tick runs one NPC tick.
func (r *Registry) Tick(a Arena, n *model.Npc) error {
	b, err := r.Get(n.Kind)
	if err != nil {
		return err
	}
	if b.Tick != nil {
		b.Tick(a, n, b)
		return nil
	}
	BaseTick(a, n, b)
	return nil
}

// Interact lets v interact with n. Returns "" when n has nothing to say.
func (r *Registry) Interact(a Arena, n *model.Npc, v *model.Vessel, arg string) string {
	b, err := r.Get(n.Kind)
	if err != nil || b.Interact == nil {
		return ""
	}
	return b.Interact(a, n, v, arg)
}

// Deathrattle runs n's death hook without removing it.
func (r *Registry) Deathrattle(a Arena, n *model.Npc) {
	b, err := r.Get(n.Kind)
	if err != nil {
		DefaultDeathrattle(a, n)
		return
	}
	b.deathrattle(a, n)
}

func (b *Behavior) deathrattle(a Arena, n *model.Npc) {
	if b.Deathrattle != nil {
		b.Deathrattle(a, n)
		return
	}
	DefaultDeathrattle(a, n)
}
