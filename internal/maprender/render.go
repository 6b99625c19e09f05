// Package maprender draws the world as ASCII with per-cell labels and
// publishes it to the external map viewer.
package maprender

import (
	"strconv"
	"strings"

	"github.com/udisondev/deepwatch/internal/model"
	"github.com/udisondev/deepwatch/internal/world"
)

// DefaultOptions is what players see on their own map.
const DefaultOptions world.MapOptions = "wds"

// Annotation labels one cell of the rendered map.
type Annotation struct {
	X    int    `json:"x"`
	Y    int    `json:"y"`
	Name string `json:"name"`
}

// Map is a rendered map: one text row per y, top row first.
type Map struct {
	ASCII       string
	Annotations []Annotation
}

// FilterOptions keeps only known layer letters from opts.
func FilterOptions(opts string) world.MapOptions {
	var b strings.Builder
	for _, r := range opts {
		if r < 0x80 && world.AllMapOptions.Has(byte(r)) && !strings.ContainsRune(b.String(), r) {
			b.WriteRune(r)
		}
	}
	return world.MapOptions(b.String())
}

// Render draws g. Vessels are marked with their index (0 to 9 by position in
// the list) and override whatever else is in the cell. With the 'n' layer
// NPC cells are drawn as 'N'.
func Render(g *world.Grid, vessels []*model.Vessel, npcs []*model.Npc, opts world.MapOptions) Map {
	xLimit, yLimit := g.Size()

	npcsAt := make(map[world.Point][]string)
	if opts.Has('n') {
		for _, n := range npcs {
			npcsAt[n.Position()] = append(npcsAt[n.Position()], n.Name())
		}
	}

	var m Map
	var b strings.Builder
	b.Grow((xLimit + 1) * yLimit)
	for y := range yLimit {
		for x := range xLimit {
			p := world.Point{X: x, Y: y}
			c := g.Cell(p)
			ch := string(c.MapChar(opts))
			name, named := c.MapName(opts)
			if here := npcsAt[p]; len(here) > 0 {
				ch, name, named = "N", world.JoinAnd(here), true
			}
			for i, v := range vessels {
				if v.Position() == p {
					ch, name, named = strconv.Itoa(i%10), v.Name(), true
				}
			}
			b.WriteString(ch)
			if named {
				m.Annotations = append(m.Annotations, Annotation{X: x, Y: y, Name: name})
			}
		}
		b.WriteByte('\n')
	}
	m.ASCII = b.String()
	return m
}
