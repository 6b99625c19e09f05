package ai

import (
	"fmt"
	"log/slog"
	"strings"

	"github.com/udisondev/deepwatch/internal/model"
	"github.com/udisondev/deepwatch/internal/world"
)

// rattleRange is how far death announcements carry.
const rattleRange = 5

// BaseTick resolves pending damage and, if the NPC survives, attacks.
// Reports whether the NPC is still alive.
func BaseTick(a Arena, n *model.Npc, b *Behavior) bool {
	if !ResolveDamage(a, n, b) {
		return false
	}
	if b.Attack != nil {
		b.Attack(a, n)
	}
	return true
}

// ResolveDamage applies queued damage. A dying NPC drops its treasure,
// runs its death hook and leaves the roster. Any damage marks the NPC
// observant for good. Reports whether the NPC is still alive.
func ResolveDamage(a Arena, n *model.Npc, b *Behavior) bool {
	dmg := n.TakePendingDamage()
	if dmg <= 0 {
		return true
	}
	n.Health -= dmg
	n.Observant = true

	if n.Health > 0 {
		a.Control(fmt.Sprintf("**%s** took a total of %d damage!", n.FullName(), dmg))
		return true
	}

	for _, t := range n.Treasure {
		a.Grid().Bury(n.Position(), t)
	}
	a.Control(fmt.Sprintf("**%s** took a total of %d damage and **died**!", n.FullName(), dmg))
	b.deathrattle(a, n)
	a.Remove(n.ID)

	if IsDebugEnabled() {
		slog.Debug("npc died", "npc", n.Name(), "kind", n.Kind, "treasure", n.Treasure)
	}
	return false
}

// DefaultDeathrattle tells everything nearby that n died.
func DefaultDeathrattle(a Arena, n *model.Npc) {
	msg := fmt.Sprintf("ENTITY **%s** HAS DIED", strings.ToUpper(n.Name()))
	for _, e := range a.EntitiesWithin(n.Position(), rattleRange, n) {
		e.Send(model.RoleCaptain, msg)
	}
}

// DoAttack hurts v if n is allowed to attack it. The scientist gets msg.
func DoAttack(n *model.Npc, v *model.Vessel, amount int, msg string) bool {
	if !n.Attackable(v) {
		return false
	}
	v.Send(model.RoleScientist, msg)
	v.Damage(amount)
	return true
}

// Periodic builds an attack that fires every period ticks, dealing damage
// to every vessel in the NPC's cell.
func Periodic(period, damage int, verb string) func(a Arena, n *model.Npc) {
	return func(a Arena, n *model.Npc) {
		if !cooldown(n, period) {
			return
		}
		for _, v := range a.VesselsAt(n.Position()) {
			DoAttack(n, v, damage, fmt.Sprintf("%s %s", n.Name(), verb))
		}
	}
}

// cooldown accumulates one unit per tick and reports when the counter has
// reached period, paying it back.
func cooldown(n *model.Npc, period int) bool {
	if n.Counter >= period {
		n.Counter -= period
		return true
	}
	n.Counter++
	return false
}

// Move steps n by delta if the target cell admits NPCs.
func Move(a Arena, n *model.Npc, delta world.Point) bool {
	next := n.Position().Add(delta)
	c := a.Grid().Cell(next)
	if c == nil || !c.CanNPCEnter() {
		return false
	}
	n.SetPosition(next)
	return true
}

// MoveTowardVessel steps toward the closest vessel within dist, trying the
// direct heading first and then its two neighbours.
func MoveTowardVessel(a Arena, n *model.Npc, dist int) bool {
	var (
		target *model.Vessel
		best   int
	)
	for _, e := range a.EntitiesWithin(n.Position(), dist, n) {
		v, ok := e.(*model.Vessel)
		if !ok {
			continue
		}
		d := world.Distance(n.Position(), v.Position())
		if target == nil || d < best {
			target, best = v, d
		}
	}
	if target == nil {
		return false
	}
	dir, ok := world.DirectionTo(n.Position(), target.Position())
	if !ok {
		return false
	}
	ccw, cw := dir.Rotate()
	for _, d := range []world.Direction{dir, ccw, cw} {
		if Move(a, n, d.Delta()) {
			return true
		}
	}
	return false
}

// area visits every cell within radius of p (a square).
func area(a Arena, p world.Point, radius int, fn func(c *world.Cell)) {
	for dx := -radius; dx <= radius; dx++ {
		for dy := -radius; dy <= radius; dy++ {
			if c := a.Grid().Cell(world.Point{X: p.X + dx, Y: p.Y + dy}); c != nil {
				fn(c)
			}
		}
	}
}
