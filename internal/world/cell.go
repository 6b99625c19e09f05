package world

import (
	"encoding/json"
	"fmt"
	"math/rand/v2"
	"slices"
	"sort"
	"strconv"

	"github.com/zyedidia/generic/mapset"
)

// Cell spawn and decay chances per tick.
const (
	TreasureSpawnChance = 0.03
	ExploredDecayChance = 0.01
)

var weatherDifficulty = map[string]int{
	WeatherCalm:   2,
	WeatherNormal: 4,
	WeatherRough:  6,
	WeatherStormy: 8,
}

const (
	baseDifficulty  = 4
	ruinsDifficulty = 2
)

// Cell is one square of the world: treasure tokens, an attribute bag and the
// set of observers that have explored it.
type Cell struct {
	treasure   []string
	attributes map[string]string
	explored   mapset.Set[string]
}

// NewCell returns an empty cell with no attributes.
func NewCell() *Cell {
	return &Cell{
		attributes: make(map[string]string),
		explored:   mapset.New[string](),
	}
}

// Treasure returns a copy of the treasure tokens.
func (c *Cell) Treasure() []string {
	return slices.Clone(c.treasure)
}

// Attribute returns the value for key and whether it is present.
func (c *Cell) Attribute(key string) (string, bool) {
	v, ok := c.attributes[key]
	return v, ok
}

// HasAttribute reports whether key is set.
func (c *Cell) HasAttribute(key string) bool {
	_, ok := c.attributes[key]
	return ok
}

// Attributes returns a copy of the attribute bag.
func (c *Cell) Attributes() map[string]string {
	out := make(map[string]string, len(c.attributes))
	for k, v := range c.attributes {
		out[k] = v
	}
	return out
}

// AddAttribute validates and stores key=value. Returns false without error
// when the value is already set.
func (c *Cell) AddAttribute(key, value string) (bool, error) {
	v, err := normalizeAttribute(key, value)
	if err != nil {
		return false, err
	}
	if old, ok := c.attributes[key]; ok && old == v {
		return false, nil
	}
	c.attributes[key] = v
	c.explored.Clear()
	return true, nil
}

// RemoveAttribute deletes key. Returns false without error when absent.
func (c *Cell) RemoveAttribute(key string) (bool, error) {
	if !slices.Contains(attributeKeys, key) {
		return false, fmt.Errorf("%w: %q", ErrUnknownAttribute, key)
	}
	if _, ok := c.attributes[key]; !ok {
		return false, nil
	}
	delete(c.attributes, key)
	c.explored.Clear()
	return true, nil
}

// Difficulty is the movement progress needed to leave this cell.
func (c *Cell) Difficulty() int {
	d := baseDifficulty
	if w, ok := c.attributes[AttrWeather]; ok {
		if v, ok := weatherDifficulty[w]; ok {
			d = v
		}
	}
	if c.HasAttribute(AttrRuins) {
		d += ruinsDifficulty
	}
	return d
}

// IsObstacle reports whether the cell blocks entry.
func (c *Cell) IsObstacle() bool {
	return c.HasAttribute(AttrObstacle)
}

// DockedAt returns the docking station name if this is a docking cell.
func (c *Cell) DockedAt() (string, bool) {
	name, ok := c.attributes[AttrDocking]
	if !ok {
		return "", false
	}
	return Title(name), true
}

// CanNPCEnter reports whether NPCs may move into or be placed on this cell.
func (c *Cell) CanNPCEnter() bool {
	return !c.HasAttribute(AttrObstacle) && !c.HasAttribute(AttrDocking)
}

// Hiddenness is the scanning strength required to see this cell.
func (c *Cell) Hiddenness() int {
	v, ok := c.attributes[AttrHiddenness]
	if !ok {
		return 0
	}
	n, err := strconv.Atoi(v)
	if err != nil {
		return 0
	}
	return n
}

// Bury adds a treasure token.
func (c *Cell) Bury(item string) {
	c.treasure = append(c.treasure, item)
}

// PickUp removes up to n random treasure tokens.
func (c *Cell) PickUp(rng *rand.Rand, n int) []string {
	n = min(n, len(c.treasure))
	picked := make([]string, 0, n)
	for range n {
		i := rng.IntN(len(c.treasure))
		picked = append(picked, c.treasure[i])
		c.treasure = slices.Delete(c.treasure, i, i+1)
	}
	return picked
}

// Tick spawns treasure from deposits, ecosystems and ruins, and lets
// exploration memory fade.
func (c *Cell) Tick(rng *rand.Rand) {
	if c.HasAttribute(AttrDeposit) && rng.Float64() < TreasureSpawnChance {
		c.treasure = append(c.treasure, pick(rng, "tool", "plating"))
	}
	if c.HasAttribute(AttrDiverse) && rng.Float64() < TreasureSpawnChance {
		c.treasure = append(c.treasure, "specimen")
	}
	if c.HasAttribute(AttrRuins) && rng.Float64() < TreasureSpawnChance {
		c.treasure = append(c.treasure, pick(rng, "tool", "circuitry"))
	}

	if c.explored.Size() == 0 {
		return
	}
	var forgotten []string
	c.explored.Each(func(observer string) {
		if rng.Float64() < ExploredDecayChance {
			forgotten = append(forgotten, observer)
		}
	})
	for _, o := range forgotten {
		c.explored.Remove(o)
	}
}

// MarkExplored remembers that observer has seen this cell.
func (c *Cell) MarkExplored(observer string) {
	c.explored.Put(observer)
}

// IsExplored reports whether observer remembers this cell.
func (c *Cell) IsExplored(observer string) bool {
	return c.explored.Has(observer)
}

// Explorers returns the observers that remember this cell, sorted.
func (c *Cell) Explorers() []string {
	out := make([]string, 0, c.explored.Size())
	c.explored.Each(func(o string) { out = append(out, o) })
	sort.Strings(out)
	return out
}

// VisibleTo reports whether a scan of the given strength by observer reveals
// this cell.
func (c *Cell) VisibleTo(observer string, strength int) bool {
	return strength >= c.Hiddenness() || c.IsExplored(observer)
}

// TreasureString lists treasure as "Tool, Plating and Specimen".
func (c *Cell) TreasureString() string {
	return JoinTitled(c.treasure)
}

// Status describes the cell for administrators.
func (c *Cell) Status() string {
	keys := make([]string, 0, len(c.attributes))
	for k := range c.attributes {
		keys = append(keys, k)
	}
	sort.Strings(keys)
	attrs := make([]string, 0, len(keys))
	for _, k := range keys {
		if v := c.attributes[k]; v != "" {
			attrs = append(attrs, k+"="+v)
		} else {
			attrs = append(attrs, k)
		}
	}
	treasure := c.TreasureString()
	if treasure == "" {
		treasure = "nothing"
	}
	attrText := "none"
	if len(attrs) > 0 {
		attrText = JoinAnd(attrs)
	}
	return fmt.Sprintf("This square has treasures %s and attributes %s.", treasure, attrText)
}

// OutwardBroadcast is what a scan of the given strength reports about this
// cell. Empty when there is nothing to report.
func (c *Cell) OutwardBroadcast(strength int) string {
	var parts []string
	if c.attributes[AttrWeather] == WeatherStormy {
		parts = append(parts, "storm brewing")
	}
	if n := len(c.treasure); n > 0 {
		if strength > 2 {
			parts = append(parts, c.TreasureString())
		} else if n == 1 {
			parts = append(parts, "1 treasure")
		} else {
			parts = append(parts, fmt.Sprintf("%d treasures", n))
		}
	}
	if c.HasAttribute(AttrDiverse) {
		parts = append(parts, "a diverse ecosystem")
	}
	if ruins, ok := c.attributes[AttrRuins]; ok {
		parts = append(parts, fmt.Sprintf("some ruins (%s)", ruins))
	}
	if c.HasAttribute(AttrJunk) {
		parts = append(parts, "some submarine debris")
	}
	if c.HasAttribute(AttrDeposit) {
		parts = append(parts, "a mineral deposit")
	}
	if name, ok := c.DockedAt(); ok {
		parts = append(parts, fmt.Sprintf("docking station %q", name))
	}
	return Capitalize(JoinAnd(parts))
}

type cellJSON struct {
	Treasure   []string          `json:"treasure"`
	Attributes map[string]string `json:"attributes"`
	Explored   []string          `json:"explored"`
}

func (c *Cell) MarshalJSON() ([]byte, error) {
	treasure := c.treasure
	if treasure == nil {
		treasure = []string{}
	}
	return json.Marshal(cellJSON{
		Treasure:   treasure,
		Attributes: c.attributes,
		Explored:   c.Explorers(),
	})
}

func (c *Cell) UnmarshalJSON(data []byte) error {
	var raw cellJSON
	if err := json.Unmarshal(data, &raw); err != nil {
		return err
	}
	c.treasure = raw.Treasure
	c.attributes = make(map[string]string, len(raw.Attributes))
	for k, v := range raw.Attributes {
		norm, err := normalizeAttribute(k, v)
		if err != nil {
			return err
		}
		c.attributes[k] = norm
	}
	c.explored = mapset.New[string]()
	for _, o := range raw.Explored {
		c.explored.Put(o)
	}
	return nil
}

func pick(rng *rand.Rand, options ...string) string {
	return options[rng.IntN(len(options))]
}
