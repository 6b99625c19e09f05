// Package snapshot defines the persisted game state: three documents (the
// world, the vessel roster and the NPC roster) saved together under one
// revision id and timestamp, and loadable independently.
package snapshot

import (
	"bytes"
	"encoding/json"
	"errors"
	"fmt"
	"time"

	"github.com/google/uuid"

	"github.com/udisondev/deepwatch/internal/model"
	"github.com/udisondev/deepwatch/internal/world"
)

// Document names.
const (
	PartWorld   = "world"
	PartVessels = "vessels"
	PartNPCs    = "npcs"
	PartAll     = "all"
)

// Parts lists the documents in save order.
var Parts = []string{PartWorld, PartVessels, PartNPCs}

var (
	ErrUnknownPart = errors.New("unknown snapshot document")
	ErrNotFound    = errors.New("no saved snapshot")
)

// Snapshot is one saved state.
type Snapshot struct {
	Revision uuid.UUID
	Tick     int64
	SavedAt  time.Time

	World   *world.Grid
	Vessels Vessels
	NPCs    []*model.Npc
}

// New stamps a snapshot with a fresh revision id.
func New(tick int64, at time.Time, g *world.Grid, vessels []*model.Vessel, npcs []*model.Npc) *Snapshot {
	return &Snapshot{
		Revision: uuid.New(),
		Tick:     tick,
		SavedAt:  at.UTC(),
		World:    g,
		Vessels:  vessels,
		NPCs:     npcs,
	}
}

// Document encodes one part as JSON.
func (s *Snapshot) Document(part string) ([]byte, error) {
	var v any
	switch part {
	case PartWorld:
		v = s.World
	case PartVessels:
		v = s.Vessels
	case PartNPCs:
		npcs := s.NPCs
		if npcs == nil {
			npcs = []*model.Npc{}
		}
		v = npcs
	default:
		return nil, fmt.Errorf("%w: %q", ErrUnknownPart, part)
	}
	data, err := json.Marshal(v)
	if err != nil {
		return nil, fmt.Errorf("encoding %s: %w", part, err)
	}
	return data, nil
}

// SetDocument decodes one part into s.
func (s *Snapshot) SetDocument(part string, data []byte) error {
	var err error
	switch part {
	case PartWorld:
		g := world.NewGrid(0, 0, nil)
		if err = json.Unmarshal(data, g); err == nil {
			s.World = g
		}
	case PartVessels:
		var vs Vessels
		if err = json.Unmarshal(data, &vs); err == nil {
			s.Vessels = vs
		}
	case PartNPCs:
		var npcs []*model.Npc
		if err = json.Unmarshal(data, &npcs); err == nil {
			s.NPCs = npcs
		}
	default:
		return fmt.Errorf("%w: %q", ErrUnknownPart, part)
	}
	if err != nil {
		return fmt.Errorf("decoding %s: %w", part, err)
	}
	return nil
}

// Has reports whether part was loaded.
func (s *Snapshot) Has(part string) bool {
	switch part {
	case PartWorld:
		return s.World != nil
	case PartVessels:
		return s.Vessels != nil
	case PartNPCs:
		return s.NPCs != nil
	}
	return false
}

// Vessels is the roster document: a JSON object of team name to vessel
// whose key order is registration order.
type Vessels []*model.Vessel

func (vs Vessels) MarshalJSON() ([]byte, error) {
	var buf bytes.Buffer
	buf.WriteByte('{')
	for i, v := range vs {
		if i > 0 {
			buf.WriteByte(',')
		}
		key, err := json.Marshal(v.Key())
		if err != nil {
			return nil, err
		}
		body, err := json.Marshal(v)
		if err != nil {
			return nil, fmt.Errorf("vessel %s: %w", v.Key(), err)
		}
		buf.Write(key)
		buf.WriteByte(':')
		buf.Write(body)
	}
	buf.WriteByte('}')
	return buf.Bytes(), nil
}

func (vs *Vessels) UnmarshalJSON(data []byte) error {
	dec := json.NewDecoder(bytes.NewReader(data))
	tok, err := dec.Token()
	if err != nil {
		return err
	}
	if d, ok := tok.(json.Delim); !ok || d != '{' {
		return fmt.Errorf("vessel roster must be an object, got %v", tok)
	}
	out := Vessels{}
	seen := make(map[string]bool)
	for dec.More() {
		tok, err := dec.Token()
		if err != nil {
			return err
		}
		name, _ := tok.(string)
		v := new(model.Vessel)
		if err := dec.Decode(v); err != nil {
			return fmt.Errorf("vessel %s: %w", name, err)
		}
		if seen[v.Key()] {
			return fmt.Errorf("vessel %s listed twice", v.Key())
		}
		seen[v.Key()] = true
		out = append(out, v)
	}
	if _, err := dec.Token(); err != nil {
		return err
	}
	*vs = out
	return nil
}
