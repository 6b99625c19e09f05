package world

import (
	"encoding/json"
	"fmt"
	"math/rand/v2"
)

// Default world size.
const (
	DefaultXLimit = 50
	DefaultYLimit = 50
)

// Grid is the fixed-size world map. cells is indexed [x][y].
type Grid struct {
	xLimit int
	yLimit int
	cells  [][]*Cell
	rng    *rand.Rand
}

// NewGrid creates an xLimit×yLimit grid of empty cells.
func NewGrid(xLimit, yLimit int, rng *rand.Rand) *Grid {
	g := &Grid{xLimit: xLimit, yLimit: yLimit, rng: rng}
	g.cells = make([][]*Cell, xLimit)
	for x := range g.cells {
		g.cells[x] = make([]*Cell, yLimit)
		for y := range g.cells[x] {
			g.cells[x][y] = NewCell()
		}
	}
	return g
}

// Size returns the grid dimensions.
func (g *Grid) Size() (xLimit, yLimit int) {
	return g.xLimit, g.yLimit
}

// InWorld reports whether p lies inside the grid.
func (g *Grid) InWorld(p Point) bool {
	return p.X >= 0 && p.X < g.xLimit && p.Y >= 0 && p.Y < g.yLimit
}

// Cell returns the cell at p, or nil when p is outside the world.
func (g *Grid) Cell(p Point) *Cell {
	if !g.InWorld(p) {
		return nil
	}
	return g.cells[p.X][p.Y]
}

// MustCell is Cell that returns ErrOutOfWorld instead of nil.
func (g *Grid) MustCell(p Point) (*Cell, error) {
	c := g.Cell(p)
	if c == nil {
		return nil, fmt.Errorf("%w: %s", ErrOutOfWorld, p)
	}
	return c, nil
}

// Bury drops a treasure token at p. Returns false outside the world.
func (g *Grid) Bury(p Point, item string) bool {
	c := g.Cell(p)
	if c == nil {
		return false
	}
	c.Bury(item)
	return true
}

// PickUp removes up to n random treasure tokens at p.
func (g *Grid) PickUp(p Point, n int) []string {
	c := g.Cell(p)
	if c == nil {
		return nil
	}
	return c.PickUp(g.rng, n)
}

// Tick runs the cell tick over every cell.
func (g *Grid) Tick() {
	for x := range g.cells {
		for _, c := range g.cells[x] {
			c.Tick(g.rng)
		}
	}
}

// Each visits every cell in column-major order.
func (g *Grid) Each(fn func(p Point, c *Cell)) {
	for x := range g.cells {
		for y, c := range g.cells[x] {
			fn(Point{X: x, Y: y}, c)
		}
	}
}

// Rand exposes the grid's random source to collaborators sharing it.
func (g *Grid) Rand() *rand.Rand {
	return g.rng
}

// SetRand replaces the random source, used after decoding a saved world.
func (g *Grid) SetRand(rng *rand.Rand) {
	g.rng = rng
}

// gridJSON is the persisted world document.
type gridJSON struct {
	XLimit int       `json:"x_limit"`
	YLimit int       `json:"y_limit"`
	Cells  [][]*Cell `json:"cells"`
}

func (g *Grid) MarshalJSON() ([]byte, error) {
	return json.Marshal(gridJSON{XLimit: g.xLimit, YLimit: g.yLimit, Cells: g.cells})
}

// UnmarshalJSON replaces the grid contents. The random source is kept.
func (g *Grid) UnmarshalJSON(data []byte) error {
	var raw gridJSON
	if err := json.Unmarshal(data, &raw); err != nil {
		return err
	}
	if raw.XLimit <= 0 || raw.YLimit <= 0 {
		return fmt.Errorf("invalid world size %dx%d", raw.XLimit, raw.YLimit)
	}
	if len(raw.Cells) != raw.XLimit {
		return fmt.Errorf("world has %d columns, want %d", len(raw.Cells), raw.XLimit)
	}
	for x, col := range raw.Cells {
		if len(col) != raw.YLimit {
			return fmt.Errorf("world column %d has %d cells, want %d", x, len(col), raw.YLimit)
		}
		for y, c := range col {
			if c == nil {
				col[y] = NewCell()
			}
		}
	}
	g.xLimit, g.yLimit, g.cells = raw.XLimit, raw.YLimit, raw.Cells
	return nil
}
