package model

import (
	"encoding/json"
	"fmt"
	"maps"
	"slices"
	"strings"

	"github.com/udisondev/deepwatch/internal/world"
)

// Currency is the item every vessel starts with one of.
const Currency = "gold"

// Resources are the tradeable goods NPC traders and cells deal in.
var Resources = []string{"tool", "plating", "circuitry", "specimen"}

// ItemCount is one line of an offer.
type ItemCount struct {
	Item     string
	Quantity int
}

// NormalizeItem lower-cases and trims an item name.
func NormalizeItem(item string) string {
	return strings.ToLower(strings.TrimSpace(item))
}

// Undroppable reports whether item is marked with a trailing '*'.
func Undroppable(item string) bool {
	return strings.HasSuffix(item, "*")
}

// Inventory holds items, the crane and the vessel's side of a trade.
type Inventory struct {
	items map[string]int

	// The crane takes two ticks: one to go down, one to come back up.
	craneDown      bool
	craneHolds     []string
	craneScheduled bool

	trade tradeState
}

// NewInventory returns an inventory holding one unit of currency.
func NewInventory() *Inventory {
	return &Inventory{items: map[string]int{Currency: 1}}
}

// Count returns how many of item are held.
func (inv *Inventory) Count(item string) int {
	return inv.items[NormalizeItem(item)]
}

// Items returns a copy of all held items with positive quantity.
func (inv *Inventory) Items() map[string]int {
	out := make(map[string]int, len(inv.items))
	for item, n := range inv.items {
		if n > 0 {
			out[item] = n
		}
	}
	return out
}

// Add gives quantity of item.
func (inv *Inventory) Add(item string, quantity int) error {
	if quantity <= 0 {
		return ErrBadQuantity
	}
	item = NormalizeItem(item)
	if item == "" {
		return ErrUnknownItem
	}
	inv.items[item] += quantity
	return nil
}

// Remove takes quantity of item. Nothing changes if not enough are held.
func (inv *Inventory) Remove(item string, quantity int) error {
	if quantity <= 0 {
		return ErrBadQuantity
	}
	item = NormalizeItem(item)
	if inv.items[item] < quantity {
		return fmt.Errorf("%w: %s", ErrNotEnoughItems, item)
	}
	inv.items[item] -= quantity
	if inv.items[item] == 0 {
		delete(inv.items, item)
	}
	return nil
}

func (inv *Inventory) addMany(items map[string]int) {
	for item, n := range items {
		inv.items[item] += n
	}
}

func (inv *Inventory) removeMany(items map[string]int) {
	for item, n := range items {
		inv.items[item] -= n
		if inv.items[item] <= 0 {
			delete(inv.items, item)
		}
	}
}

// Drop buries one unit of item in the cell at pos.
func (inv *Inventory) Drop(g *world.Grid, pos world.Point, item string) (string, error) {
	item = NormalizeItem(item)
	if inv.items[item] <= 0 {
		return "", fmt.Errorf("%w: %s", ErrNotEnoughItems, item)
	}
	if Undroppable(item) {
		return "", fmt.Errorf("%w: %s", ErrUndroppable, item)
	}
	if !g.Bury(pos, item) {
		return "", fmt.Errorf("%w: %s", world.ErrOutOfWorld, pos)
	}
	_ = inv.Remove(item, 1)
	return fmt.Sprintf("1x %s dropped!", world.Title(item)), nil
}

// CraneDown reports whether the crane is lowered.
func (inv *Inventory) CraneDown() bool { return inv.craneDown }

// CraneScheduled reports whether the crane lowers at the next tick.
func (inv *Inventory) CraneScheduled() bool { return inv.craneScheduled }

// DropCrane schedules the crane to lower at the next tick.
func (inv *Inventory) DropCrane(v *Vessel) (string, error) {
	if v.PowerOf(SystemCrane) == 0 {
		return "", ErrCraneUnpowered
	}
	if v.Upgrades.Has(UpgradeSnipped) {
		return "", ErrCraneSnipped
	}
	if inv.craneScheduled || inv.craneDown {
		return "", ErrCraneBusy
	}
	inv.craneScheduled = true
	return "Crane scheduled to lower!", nil
}

// CraneFalters drops whatever the crane holds back into the cell.
func (inv *Inventory) CraneFalters(v *Vessel, g *world.Grid) string {
	held := inv.craneHolds
	inv.craneHolds = nil
	inv.craneDown = false
	if len(held) == 0 {
		return ""
	}
	for _, t := range held {
		g.Bury(v.Position(), t)
	}
	return fmt.Sprintf("Dropped %s because the crane faltered!", world.JoinTitled(held))
}

// CraneTick resolves the crane for one tick.
func (inv *Inventory) CraneTick(v *Vessel, g *world.Grid) string {
	power := v.PowerOf(SystemCrane)
	if power == 0 {
		inv.craneScheduled = false
		return inv.CraneFalters(v, g)
	}
	switch {
	case inv.craneScheduled && !inv.craneDown:
		inv.craneScheduled = false
		inv.craneDown = true
		inv.craneHolds = g.PickUp(v.Position(), power)
		if !v.Upgrades.Has(UpgradeFastCrane) {
			n := len(inv.craneHolds)
			plural := "s"
			if n == 1 {
				plural = ""
			}
			return fmt.Sprintf("Crane went down and found %d treasure chest%s! Coming up next turn!", n, plural)
		}
		found := inv.craneUp(v)
		return fmt.Sprintf("Crane went down and up again, finding %s!", orNothing(found))
	case inv.craneDown:
		found := inv.craneUp(v)
		return fmt.Sprintf("Crane came back up with %s!", orNothing(found))
	}
	return ""
}

func (inv *Inventory) craneUp(v *Vessel) []string {
	held := inv.craneHolds
	inv.craneHolds = nil
	inv.craneDown = false
	for _, t := range held {
		inv.items[t]++
	}
	if len(held) > 0 {
		v.control(fmt.Sprintf("**%s** picked up treasure **%s**!", v.Name(), world.JoinTitled(held)))
	}
	return held
}

func orNothing(items []string) string {
	if len(items) == 0 {
		return "nothing"
	}
	return world.JoinTitled(items)
}

// Status renders the inventory section of a status report.
func (inv *Inventory) Status() string {
	items := slices.Sorted(maps.Keys(inv.items))
	var b strings.Builder
	for _, item := range items {
		if n := inv.items[item]; n > 0 {
			fmt.Fprintf(&b, "%dx %s\n", n, world.Title(item))
		}
	}
	if b.Len() == 0 {
		return ""
	}
	return "**Inventory**\n" + b.String()
}

// Trade state is ephemeral and never persisted.
type inventoryJSON struct {
	Items          map[string]int `json:"inventory"`
	CraneDown      bool           `json:"crane_down"`
	CraneHolds     []string       `json:"crane_holds"`
	CraneScheduled bool           `json:"schedule_crane"`
}

func (inv *Inventory) MarshalJSON() ([]byte, error) {
	return json.Marshal(inventoryJSON{
		Items:          inv.items,
		CraneDown:      inv.craneDown,
		CraneHolds:     inv.craneHolds,
		CraneScheduled: inv.craneScheduled,
	})
}

func (inv *Inventory) UnmarshalJSON(data []byte) error {
	var raw inventoryJSON
	if err := json.Unmarshal(data, &raw); err != nil {
		return err
	}
	inv.items = orEmpty(raw.Items)
	inv.craneDown = raw.CraneDown
	inv.craneHolds = raw.CraneHolds
	inv.craneScheduled = raw.CraneScheduled
	inv.trade = tradeState{}
	return nil
}
