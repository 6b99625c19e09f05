package ai

import (
	"fmt"
	"log/slog"
	"slices"
	"sync"

	"github.com/udisondev/deepwatch/internal/model"
)

// Roster holds every live NPC keyed by id. Ids are dense: a new NPC takes
// the smallest id not currently in use.
type Roster struct {
	mu   sync.RWMutex
	npcs map[int]*model.Npc
}

// NewRoster creates an empty roster.
func NewRoster() *Roster {
	return &Roster{npcs: make(map[int]*model.Npc)}
}

// NextID returns the smallest free id.
func (r *Roster) NextID() int {
	r.mu.RLock()
	defer r.mu.RUnlock()
	return r.nextIDLocked()
}

func (r *Roster) nextIDLocked() int {
	id := 0
	for {
		if _, used := r.npcs[id]; !used {
			return id
		}
		id++
	}
}

// Add registers n under its own id.
func (r *Roster) Add(n *model.Npc) error {
	r.mu.Lock()
	defer r.mu.Unlock()
	if _, used := r.npcs[n.ID]; used {
		return fmt.Errorf("%w: npc id %d already in use", model.ErrPrecondition, n.ID)
	}
	r.npcs[n.ID] = n

	if IsDebugEnabled() {
		slog.Debug("npc registered", "id", n.ID, "kind", n.Kind, "pos", n.Position())
	}
	return nil
}

// Get returns the NPC with id.
func (r *Roster) Get(id int) (*model.Npc, bool) {
	r.mu.RLock()
	defer r.mu.RUnlock()
	n, ok := r.npcs[id]
	return n, ok
}

// Remove drops the NPC with id. Reports whether it was present.
func (r *Roster) Remove(id int) bool {
	r.mu.Lock()
	defer r.mu.Unlock()
	if _, ok := r.npcs[id]; !ok {
		return false
	}
	delete(r.npcs, id)

	if IsDebugEnabled() {
		slog.Debug("npc unregistered", "id", id)
	}
	return true
}

// All returns a snapshot of every NPC ordered by id. NPCs removed while the
// caller iterates stay in the snapshot.
func (r *Roster) All() []*model.Npc {
	r.mu.RLock()
	defer r.mu.RUnlock()
	out := make([]*model.Npc, 0, len(r.npcs))
	for _, n := range r.npcs {
		out = append(out, n)
	}
	slices.SortFunc(out, func(a, b *model.Npc) int { return a.ID - b.ID })
	return out
}

// Count is the number of live NPCs.
func (r *Roster) Count() int {
	r.mu.RLock()
	defer r.mu.RUnlock()
	return len(r.npcs)
}

// Replace swaps the whole roster, used when loading a save.
func (r *Roster) Replace(npcs []*model.Npc) error {
	next := make(map[int]*model.Npc, len(npcs))
	for _, n := range npcs {
		if _, dup := next[n.ID]; dup {
			return fmt.Errorf("%w: duplicate npc id %d", model.ErrInvalidCommand, n.ID)
		}
		next[n.ID] = n
	}
	r.mu.Lock()
	r.npcs = next
	r.mu.Unlock()
	return nil
}
