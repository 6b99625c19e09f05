package ai

import (
	"math/rand/v2"
	"strings"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/udisondev/deepwatch/internal/model"
	"github.com/udisondev/deepwatch/internal/world"
)

func TestStandard_Defaults(t *testing.T) {
	reg := Standard()
	assert.Len(t, reg.Kinds(), 15)
	rng := rand.New(rand.NewPCG(1, 2))

	tests := []struct {
		kind     string
		typeName string
		health   int
		stealth  int
		carbon   bool
		channel  model.Role
	}{
		{" SQUID ", "Squid", 2, 0, true, model.RoleControl},
		{KindWhale, "Whale", 5, 0, true, model.RoleControl},
		{KindAngler, "Angler Fish", 2, 2, true, model.RoleControl},
		{KindUrchin, "Urchin", 2, 1, true, model.RoleControl},
		{KindBouy, "Bouy", 5, 0, false, model.RoleNews},
		{KindMine, "Mine", 1, 0, false, model.RoleControl},
	}
	for _, tt := range tests {
		t.Run(tt.typeName, func(t *testing.T) {
			n, err := reg.New(tt.kind, 7, world.Point{X: 1, Y: 1}, "alpha", rng)
			require.NoError(t, err)
			assert.Equal(t, tt.typeName, n.TypeName)
			assert.Equal(t, tt.health, n.Health)
			assert.Equal(t, tt.stealth, n.Stealth)
			assert.Equal(t, tt.carbon, n.Carbon)
			assert.Equal(t, tt.channel, n.Channel())
			assert.Equal(t, "alpha", n.Owner)
		})
	}
}

func TestStandard_UnknownKind(t *testing.T) {
	_, err := Standard().New("kraken", 0, world.Point{}, "", nil)
	assert.ErrorIs(t, err, ErrUnknownKind)
	assert.ErrorIs(t, err, model.ErrInvalidCommand)
}

func TestNewRegistry_Duplicate(t *testing.T) {
	_, err := NewRegistry(&Behavior{Kind: "a"}, &Behavior{Kind: "a"})
	assert.Error(t, err)
}

func TestTreasureByKind(t *testing.T) {
	a := newFakeArena(t)
	assert.Equal(t, []string{"gold", "gold", "gold"}, a.spawn(t, KindWhale, world.Point{}).Treasure)
	assert.Equal(t, []string{"crab meat"}, a.spawn(t, KindCrab, world.Point{}).Treasure)

	manta := a.spawn(t, KindMantaRay, world.Point{})
	require.Len(t, manta.Treasure, 2)
	assert.Equal(t, manta.Treasure[0], manta.Treasure[1])
	assert.Contains(t, model.Resources, manta.Treasure[0])

	trader := a.spawn(t, KindGoldTrader, world.Point{})
	assert.Equal(t, world.Title(trader.Resource)+" Trader", trader.TypeName)
}

func TestPeriodicAttack(t *testing.T) {
	a := newFakeArena(t)
	p := world.Point{X: 2, Y: 2}
	v := a.vessel("alpha", p)
	squid := a.spawn(t, KindSquid, p)

	a.tick(t, squid, 3)
	assert.Zero(t, v.Power.PendingDamage(), "squid needs three ticks to wind up")

	a.tick(t, squid, 1)
	assert.Equal(t, 1, v.Power.PendingDamage())
	assert.Equal(t, "Squid (#0) blooped you for one damage!", v.Mailbox().Drain()[model.RoleScientist])
	assert.Zero(t, squid.Counter)
}

func TestCamouflage_UntilObservant(t *testing.T) {
	a := newFakeArena(t)
	p := world.Point{X: 2, Y: 2}
	v := a.vessel("alpha", p)
	_, err := v.Upgrades.Add(model.UpgradeCamo, 0, 0)
	require.NoError(t, err)
	squid := a.spawn(t, KindSquid, p)

	a.tick(t, squid, 4)
	assert.Zero(t, v.Power.PendingDamage())

	squid.Damage(1)
	a.tick(t, squid, 4)
	assert.True(t, squid.Observant)
	assert.Equal(t, 1, squid.Health)
	assert.Equal(t, 1, v.Power.PendingDamage())

	control, _ := a.bulletin.Drain()
	assert.Contains(t, control, "**Squid (#0 at 2, 2)** took a total of 1 damage!")
}

func TestDeath_DropsTreasureAndLeavesRoster(t *testing.T) {
	a := newFakeArena(t)
	p := world.Point{X: 3, Y: 3}
	witness := a.vessel("alpha", world.Point{X: 6, Y: 6})
	far := a.vessel("bravo", world.Point{X: 9, Y: 9})
	squid := a.spawn(t, KindSquid, p)

	squid.Damage(2)
	a.tick(t, squid, 1)

	_, ok := a.roster.Get(squid.ID)
	assert.False(t, ok)
	assert.Equal(t, []string{"gold"}, a.grid.Cell(p).Treasure())

	control, _ := a.bulletin.Drain()
	assert.Contains(t, control, "**Squid (#0 at 3, 3)** took a total of 2 damage and **died**!")
	assert.Equal(t, "ENTITY **SQUID (#0)** HAS DIED", witness.Mailbox().Drain()[model.RoleCaptain])
	assert.False(t, far.Mailbox().Pending(model.RoleCaptain))
}

func TestMantaRay_SpawnsEels(t *testing.T) {
	a := newFakeArena(t)
	p := world.Point{X: 5, Y: 5}
	v := a.vessel("alpha", world.Point{X: 5, Y: 8})
	manta := a.spawn(t, KindMantaRay, p)

	manta.Damage(5)
	a.tick(t, manta, 1)

	eels := a.roster.All()
	require.Len(t, eels, 4)
	var got []world.Point
	for _, e := range eels {
		assert.Equal(t, KindEel, e.Kind)
		got = append(got, e.Position())
	}
	assert.ElementsMatch(t, []world.Point{{X: 5, Y: 6}, {X: 6, Y: 5}, {X: 4, Y: 5}, {X: 5, Y: 4}}, got)
	assert.Contains(t, v.Mailbox().Drain()[model.RoleCaptain], "Manta Rayvenge Squad")
}

func TestMantaRay_EelsSkipBlockedCells(t *testing.T) {
	a := newFakeArena(t)
	_, err := a.grid.Cell(world.Point{X: 5, Y: 1}).AddAttribute(world.AttrObstacle, "")
	require.NoError(t, err)
	manta := a.spawn(t, KindMantaRay, world.Point{X: 5, Y: 0})

	manta.Damage(2)
	a.tick(t, manta, 1)
	assert.Equal(t, 2, a.roster.Count(), "south is a wall and north is outside the world")
}

func TestEel_ShocksOnHit(t *testing.T) {
	a := newFakeArena(t)
	centre := world.Point{X: 5, Y: 5}
	var vessels []*model.Vessel
	for dx := -1; dx <= 1; dx++ {
		for dy := -1; dy <= 1; dy++ {
			name := "v" + string(rune('a'+len(vessels)))
			vessels = append(vessels, a.vessel(name, world.Point{X: 5 + dx, Y: 5 + dy}))
		}
	}
	eel := a.spawn(t, KindEel, centre)

	a.tick(t, eel, 3)

	hit := 0
	for _, v := range vessels {
		if v.Power.PendingDamage() == 0 {
			assert.False(t, v.Upgrades.Has(model.UpgradeShocked))
			continue
		}
		hit++
		assert.Equal(t, eel.Position(), v.Position())
		assert.True(t, v.Upgrades.Has(model.UpgradeShocked))
		require.Len(t, v.Upgrades.Postponed(), 1)
		assert.Equal(t, 5, v.Upgrades.Postponed()[0].Turns)
	}
	assert.Equal(t, 1, hit)
}

func TestShark_ClosesIn(t *testing.T) {
	a := newFakeArena(t)
	a.vessel("alpha", world.Point{X: 5, Y: 5})
	shark := a.spawn(t, KindShark, world.Point{X: 5, Y: 8})

	a.tick(t, shark, 4)
	assert.Equal(t, world.Point{X: 5, Y: 7}, shark.Position())
}

func TestUrchin_HitsNewArrivals(t *testing.T) {
	a := newFakeArena(t)
	p := world.Point{X: 1, Y: 1}
	v := a.vessel("alpha", p)
	_, err := v.Upgrades.Add(model.UpgradeCamo, 0, 0)
	require.NoError(t, err)
	urchin := a.spawn(t, KindUrchin, p)

	a.tick(t, urchin, 2)
	assert.Equal(t, 1, v.Power.PendingDamage(), "urchins see through camouflage and only hit on arrival")

	v.Movement.SetPosition(world.Point{X: 2, Y: 1})
	a.tick(t, urchin, 1)
	v.Movement.SetPosition(p)
	a.tick(t, urchin, 1)
	assert.Equal(t, 2, v.Power.PendingDamage())
}

func TestCrab_SnipsLoweredCrane(t *testing.T) {
	a := newFakeArena(t)
	p := world.Point{X: 4, Y: 4}
	v := a.vessel("alpha", p)
	require.NoError(t, v.Power.Unschedule(model.SystemWeapons))
	require.NoError(t, v.Power.Schedule(model.SystemCrane))
	v.Power.ApplySchedule()
	_, err := v.Inventory.DropCrane(v)
	require.NoError(t, err)
	v.Inventory.CraneTick(v, a.grid)
	require.True(t, v.Inventory.CraneDown())

	crab := a.spawn(t, KindCrab, p)
	a.tick(t, crab, 1)

	assert.Equal(t, 2, v.Power.PendingDamage())
	assert.True(t, v.Upgrades.Has(model.UpgradeSnipped))
	assert.False(t, v.Inventory.CraneDown())

	a.tick(t, crab, 1)
	assert.Equal(t, 2, v.Power.PendingDamage(), "crane is already up")
}

func TestMine_CountsDownThenExplodes(t *testing.T) {
	a := newFakeArena(t)
	p := world.Point{X: 5, Y: 5}
	mine := a.spawn(t, KindMine, p)

	a.tick(t, mine, 3)
	assert.Equal(t, mineCountdown, mine.Countdown, "no countdown without vessels")

	v := a.vessel("alpha", p)
	near := a.vessel("bravo", world.Point{X: 6, Y: 5})
	a.tick(t, mine, mineCountdown)
	assert.Zero(t, mine.Countdown)
	assert.Equal(t, "9\n8\n7\n6\n5\n4\n3\n2\n1\n0", v.Mailbox().Drain()[model.RoleCaptain])

	a.tick(t, mine, 1)
	assert.Equal(t, 1, mine.PendingDamage())
	assert.Zero(t, v.Power.PendingDamage())

	a.tick(t, mine, 1)
	assert.Zero(t, a.roster.Count())
	assert.Equal(t, 2, v.Power.PendingDamage())
	assert.Equal(t, 1, near.Power.PendingDamage())
}

func TestStormer_AreaWeather(t *testing.T) {
	a := newFakeArena(t)
	p := world.Point{X: 5, Y: 5}
	stormer := a.spawn(t, KindStormer, p)

	a.tick(t, stormer, 1)
	for _, q := range []world.Point{{X: 3, Y: 3}, {X: 7, Y: 7}, {X: 5, Y: 5}} {
		w, ok := a.grid.Cell(q).Attribute(world.AttrWeather)
		require.True(t, ok, q.String())
		assert.Equal(t, world.WeatherStormy, w)
	}
	_, ok := a.grid.Cell(world.Point{X: 8, Y: 5}).Attribute(world.AttrWeather)
	assert.False(t, ok)

	stormer.Damage(1)
	a.tick(t, stormer, 1)
	_, ok = a.grid.Cell(p).Attribute(world.AttrWeather)
	assert.False(t, ok)
}

func TestTrader_Interact(t *testing.T) {
	a := newFakeArena(t)
	p := world.Point{X: 0, Y: 0}
	v := a.vessel("alpha", p)
	trader := a.spawn(t, KindGoldTrader, p)
	trader.Resource = "tool"

	assert.Equal(t, "Could not perform that trade!", a.reg.Interact(a, trader, v, "1"))

	require.NoError(t, v.Inventory.Add(model.Currency, 2))
	assert.Equal(t, "Traded two Gold for one Tool!", a.reg.Interact(a, trader, v, "1"))
	assert.Equal(t, 1, v.Inventory.Count(model.Currency))
	assert.Equal(t, 1, v.Inventory.Count("tool"))

	assert.Equal(t, "Traded one Tool for two Gold!", a.reg.Interact(a, trader, v, "2"))
	assert.Equal(t, 3, v.Inventory.Count(model.Currency))
	assert.Zero(t, v.Inventory.Count("tool"))

	assert.Equal(t, "Invalid option.", a.reg.Interact(a, trader, v, "3"))
}

func TestTrader_Advertises(t *testing.T) {
	a := newFakeArena(t)
	v := a.vessel("alpha", world.Point{})
	trader := a.spawn(t, KindGoldTrader, world.Point{})

	a.tick(t, trader, 1)
	msg := v.Mailbox().Drain()[model.RoleCaptain]
	assert.True(t, strings.HasPrefix(msg, trader.Name()+" here!"), msg)
}

func TestInteract_Silent(t *testing.T) {
	a := newFakeArena(t)
	v := a.vessel("alpha", world.Point{})
	squid := a.spawn(t, KindSquid, world.Point{})
	dolphin := a.spawn(t, KindDolphin, world.Point{})

	assert.Empty(t, a.reg.Interact(a, squid, v, ""))
	assert.Equal(t, "The dolphin made a few happy noises!", a.reg.Interact(a, dolphin, v, ""))
}

func TestBouy_PostsNews(t *testing.T) {
	a := newFakeArena(t)
	bouy := a.spawn(t, KindBouy, world.Point{})
	bouy.Send(model.RoleCaptain, "Storm warning")

	_, news := a.bulletin.Drain()
	assert.Equal(t, []string{"Storm warning"}, news)
}
