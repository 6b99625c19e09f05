package ai

import (
	"fmt"
	"math/rand/v2"
	"strconv"

	"github.com/zyedidia/generic/mapset"

	"github.com/udisondev/deepwatch/internal/model"
	"github.com/udisondev/deepwatch/internal/world"
)

// NPC type tags.
const (
	KindSquid      = "squid"
	KindGiantSquid = "giant_squid"
	KindOctopus    = "octopus"
	KindShark      = "shark"
	KindWhale      = "whale"
	KindDolphin    = "dolphin"
	KindMantaRay   = "mantaray"
	KindEel        = "eel"
	KindAngler     = "angler"
	KindUrchin     = "urchin"
	KindCrab       = "crab"
	KindBouy       = "bouy"
	KindMine       = "mine"
	KindStormer    = "stormer"
	KindGoldTrader = "gold_trader"
)

const (
	mineCountdown    = 10
	mineBlast        = 2
	sharkSight       = 4
	sharkPeriod      = 3
	eelPeriod        = 2
	stormRadius      = 2
	shockDuration    = 5
	crabDamage       = 2
	urchinDamage     = 1
	tradePrice       = 2
	traderOptionBuy  = "1"
	traderOptionSell = "2"
)

func resource(rng *rand.Rand) string {
	return model.Resources[rng.IntN(len(model.Resources))]
}

func treasure(items ...string) func(n *model.Npc, _ *rand.Rand) {
	return func(n *model.Npc, _ *rand.Rand) {
		n.Treasure = append([]string(nil), items...)
	}
}

// Standard returns a registry with every built-in NPC type.
func Standard() *Registry {
	r, err := NewRegistry(
		&Behavior{
			Kind: KindSquid, DisplayName: "Squid", Health: 2, Carbon: true,
			Init:   treasure(model.Currency),
			Attack: Periodic(3, 1, "blooped you for one damage!"),
		},
		&Behavior{
			Kind: KindGiantSquid, DisplayName: "Giant Squid", Health: 3, Carbon: true,
			Init:   treasure(model.Currency, model.Currency),
			Attack: Periodic(2, 1, "blooped you for one damage!"),
		},
		&Behavior{
			Kind: KindOctopus, DisplayName: "Giant Octopus", Health: 1, Carbon: true,
			Init:   func(n *model.Npc, rng *rand.Rand) { n.Treasure = []string{resource(rng)} },
			Attack: Periodic(2, 2, "constricted you for two damage!"),
		},
		&Behavior{
			Kind: KindShark, DisplayName: "Shark", Health: 2, Carbon: true,
			Init:   func(n *model.Npc, rng *rand.Rand) { n.Treasure = []string{resource(rng)} },
			Attack: sharkAttack,
		},
		&Behavior{
			Kind: KindWhale, DisplayName: "Whale", Health: 5, Carbon: true,
			Init:   treasure(model.Currency, model.Currency, model.Currency),
			Attack: func(a Arena, n *model.Npc) {
				for _, v := range a.VesselsAt(n.Position()) {
					v.Send(model.RoleCaptain, fmt.Sprintf("%s is having a _whale_ of a time.", n.Name()))
				}
			},
		},
		&Behavior{
			Kind: KindDolphin, DisplayName: "Dolphin", Health: 2, Carbon: true,
			Init:     treasure("unexploded bomb*"),
			Interact: func(Arena, *model.Npc, *model.Vessel, string) string {
				return "The dolphin made a few happy noises!"
			},
		},
		&Behavior{
			Kind: KindMantaRay, DisplayName: "Manta Ray", Health: 2, Carbon: true,
			Init: func(n *model.Npc, rng *rand.Rand) {
				r := resource(rng)
				n.Treasure = []string{r, r}
			},
			Interact: func(Arena, *model.Npc, *model.Vessel, string) string {
				return "The manta ray swims happily!"
			},
			Deathrattle: mantaRayDeath,
		},
		&Behavior{
			Kind: KindEel, DisplayName: "Giant Eel", Health: 2, Carbon: true,
			Init:   func(n *model.Npc, rng *rand.Rand) { n.Treasure = []string{resource(rng)} },
			Attack: eelAttack,
		},
		&Behavior{
			Kind: KindAngler, DisplayName: "Angler Fish", Health: 2, Stealth: 2, Carbon: true,
			Init:   func(n *model.Npc, rng *rand.Rand) { n.Treasure = []string{model.Currency, resource(rng)} },
			Attack: Periodic(2, 1, "jumped out from hiding and did 1 damage!"),
		},
		&Behavior{
			Kind: KindUrchin, DisplayName: "Urchin", Health: 2, Stealth: 1, Carbon: true, Observant: true,
			Init:   func(n *model.Npc, rng *rand.Rand) { n.Treasure = []string{resource(rng)} },
			Attack: urchinAttack,
		},
		&Behavior{
			Kind: KindCrab, DisplayName: "Giant Crab", Health: 1, Carbon: true,
			Init:   treasure("crab meat"),
			Attack: crabAttack,
		},
		&Behavior{
			Kind: KindBouy, DisplayName: "Bouy", Health: 5, Channel: model.RoleNews,
		},
		&Behavior{
			Kind: KindMine, DisplayName: "Mine", Health: 1,
			Init:        func(n *model.Npc, _ *rand.Rand) { n.Countdown = mineCountdown },
			Attack:      mineCount,
			Deathrattle: func(a Arena, n *model.Npc) { a.Explode(n.Position(), mineBlast) },
		},
		&Behavior{
			Kind: KindStormer, DisplayName: "Storm Generator", Health: 1,
			Attack: func(a Arena, n *model.Npc) {
				area(a, n.Position(), stormRadius, func(c *world.Cell) {
					_, _ = c.AddAttribute(world.AttrWeather, world.WeatherStormy)
				})
			},
			Deathrattle: func(a Arena, n *model.Npc) {
				area(a, n.Position(), stormRadius, func(c *world.Cell) {
					_, _ = c.RemoveAttribute(world.AttrWeather)
				})
			},
		},
		&Behavior{
			Kind: KindGoldTrader, Health: 1,
			Init: func(n *model.Npc, rng *rand.Rand) {
				n.Resource = resource(rng)
				n.TypeName = world.Title(n.Resource) + " Trader"
			},
			Attack:   traderAdvertise,
			Interact: traderInteract,
		},
	)
	if err != nil {
		panic(err)
	}
	return r
}

func sharkAttack(a Arena, n *model.Npc) {
	if !cooldown(n, sharkPeriod) {
		return
	}
	MoveTowardVessel(a, n, sharkSight)
	for _, v := range a.VesselsAt(n.Position()) {
		DoAttack(n, v, 1, fmt.Sprintf("%s snapped you for one damage!", n.Name()))
	}
}

func eelAttack(a Arena, n *model.Npc) {
	if !cooldown(n, eelPeriod) {
		return
	}
	rng := a.Rand()
	Move(a, n, world.Point{X: rng.IntN(3) - 1, Y: rng.IntN(3) - 1})
	for _, v := range a.VesselsAt(n.Position()) {
		if DoAttack(n, v, 1, fmt.Sprintf("%s zapped you for one damage and (temporarily) shocked your submarine!", n.Name())) {
			// Already shocked vessels keep their current expiry.
			_, _ = v.Upgrades.Add(model.UpgradeShocked, shockDuration, 0)
		}
	}
}

func urchinAttack(a Arena, n *model.Npc) {
	seen := mapset.New[string]()
	for _, v := range a.VesselsAt(n.Position()) {
		seen.Put(v.Key())
		if !n.Visited.Has(v.Key()) {
			DoAttack(n, v, urchinDamage, fmt.Sprintf("%s jumped out from hiding and did 1 damage on your arrival!", n.Name()))
		}
	}
	n.Visited = seen
}

func crabAttack(a Arena, n *model.Npc) {
	for _, v := range a.VesselsAt(n.Position()) {
		if !v.Inventory.CraneDown() {
			continue
		}
		if !DoAttack(n, v, crabDamage, fmt.Sprintf("%s snipped at your crane cable and caused a balance issue, dealing two damage!", n.Name())) {
			continue
		}
		_, _ = v.Upgrades.Add(model.UpgradeSnipped, 0, 0)
		if msg := v.Inventory.CraneFalters(v, a.Grid()); msg != "" {
			v.Send(model.RoleCaptain, msg)
		}
	}
}

// mineCount counts down while vessels share the cell, then arms itself to
// blow up on the next tick.
func mineCount(a Arena, n *model.Npc) {
	vessels := a.VesselsAt(n.Position())
	if len(vessels) == 0 {
		return
	}
	if n.Countdown <= 0 {
		n.Damage(1)
		return
	}
	n.Countdown--
	for _, v := range vessels {
		v.Send(model.RoleCaptain, strconv.Itoa(n.Countdown))
	}
}

func mantaRayDeath(a Arena, n *model.Npc) {
	p := n.Position()
	msg := fmt.Sprintf("Manta Ray at %s was killed. The Manta Rayvenge Squad hears its cry!", p)
	for _, e := range a.EntitiesWithin(p, rattleRange, n) {
		e.Send(model.RoleCaptain, msg)
	}
	for _, d := range []world.Direction{world.South, world.East, world.West, world.North} {
		// Blocked or out-of-world cells just get no eel.
		_, _ = a.Spawn(KindEel, p.Add(d.Delta()), "")
	}
}

func traderAdvertise(a Arena, n *model.Npc) {
	res := world.Title(n.Resource)
	for _, v := range a.VesselsAt(n.Position()) {
		v.Send(model.RoleCaptain, fmt.Sprintf("%s here! Interact with option 1 to pay 2 Gold for one %s, or option 2 to pay one %s for 2 Gold.", n.Name(), res, res))
	}
}

func traderInteract(_ Arena, n *model.Npc, v *model.Vessel, arg string) string {
	res := world.Title(n.Resource)
	switch arg {
	case traderOptionBuy:
		if v.Inventory.Remove(model.Currency, tradePrice) != nil {
			return "Could not perform that trade!"
		}
		_ = v.Inventory.Add(n.Resource, 1)
		return fmt.Sprintf("Traded two Gold for one %s!", res)
	case traderOptionSell:
		if v.Inventory.Remove(n.Resource, 1) != nil {
			return "Could not perform that trade!"
		}
		_ = v.Inventory.Add(model.Currency, tradePrice)
		return fmt.Sprintf("Traded one %s for two Gold!", res)
	}
	return "Invalid option."
}
