package game

import (
	"fmt"
	"strings"
	"time"

	"github.com/udisondev/deepwatch/internal/model"
	"github.com/udisondev/deepwatch/internal/world"
)

// directionText places target relative to observer for scan reports.
func directionText(from, to world.Point) string {
	d, ok := world.DirectionTo(from, to)
	if !ok {
		return "in your current square!"
	}
	return fmt.Sprintf("in direction %s!", d)
}

// Sweep lists everything v's scanners can see, in random order. Cells that
// are revealed are remembered for v.
func (s *State) Sweep(v *model.Vessel) []string {
	dist := model.Range(v.PowerOf(model.SystemScanners))
	pos := v.Position()
	triangulate := v.Upgrades.Has(model.UpgradeTriangulation)

	var events []string
	for dy := -dist; dy <= dist; dy++ {
		for dx := -dist; dx <= dist; dx++ {
			p := pos.Add(world.Point{X: dx, Y: dy})
			c := s.grid.Cell(p)
			if c == nil {
				continue
			}
			d := world.Distance(pos, p)
			strength := dist - d
			if !c.VisibleTo(v.Key(), strength) {
				continue
			}
			c.MarkExplored(v.Key())
			event := c.OutwardBroadcast(strength)
			if event == "" {
				continue
			}
			dir, ok := world.DirectionTo(pos, p)
			switch {
			case !ok:
				events = append(events, event+" - in your current square!")
			case triangulate:
				events = append(events, fmt.Sprintf("%s - in direction %s at a distance of %d away!", event, dir, d))
			default:
				events = append(events, fmt.Sprintf("%s - in direction %s!", event, dir))
			}
		}
	}

	for _, e := range s.EntitiesWithin(pos, dist, v) {
		strength := dist - world.Distance(pos, e.Position())
		if b := e.OutwardBroadcast(strength); b != "" {
			events = append(events, b+" "+directionText(pos, e.Position()))
		}
	}

	s.rng.Shuffle(len(events), func(i, j int) { events[i], events[j] = events[j], events[i] })
	return events
}

// ScanReport runs a sweep for v and remembers it as the previous scan.
func (s *State) ScanReport(v *model.Vessel) string {
	var report string
	if events := s.Sweep(v); len(events) > 0 {
		report = "**Scanners found:**\n" + strings.Join(events, "\n") + "\n"
	}
	v.Scan.Remember(report)
	return report
}

// Broadcast sends text from v to every other vessel and NPC, garbled by
// distance.
func (s *State) Broadcast(v *model.Vessel, text string, now time.Time, cooldown time.Duration, garble int) error {
	if !v.Active() {
		return ErrInactive
	}
	if !v.Comms.Ready(now, cooldown) {
		return ErrCommsCooldown
	}
	comms := v.PowerOf(model.SystemComms)
	clarity := v.Upgrades.Has(model.UpgradeClarity)
	for _, e := range s.EntitiesWithin(v.Position(), maxDistance, v) {
		dist := world.Distance(v.Position(), e.Position())
		garbled, ok := model.Garble(text, dist, comms, garble, clarity, s.rng)
		if !ok {
			continue
		}
		e.Send(model.RoleCaptain, fmt.Sprintf("**Message received from %s**:\n`%s`\n**END MESSAGE**", v.Name(), garbled))
	}
	v.Comms.MarkUsed(now)
	return nil
}

// maxDistance is larger than any in-world diagonal distance.
const maxDistance = 1 << 30

// hits collects entities directly on target and one cell away, shuffled.
func (s *State) hits(target world.Point) (direct, indirect []model.Entity) {
	for _, e := range s.EntitiesWithin(target, 1, nil) {
		if e.Position() == target {
			direct = append(direct, e)
		} else {
			indirect = append(indirect, e)
		}
	}
	s.rng.Shuffle(len(direct), func(i, j int) { direct[i], direct[j] = direct[j], direct[i] })
	s.rng.Shuffle(len(indirect), func(i, j int) { indirect[i], indirect[j] = indirect[j], indirect[i] })
	return direct, indirect
}

func damageBonus(v *model.Vessel, e model.Entity) int {
	if e.IsCarbon() && v.Upgrades.Has(model.UpgradeAntiCarbon) {
		return 1
	}
	if !e.IsCarbon() && v.Upgrades.Has(model.UpgradeAntiPlastic) {
		return 1
	}
	return 0
}

// FireWeapons resolves v's planned shots and recharges its weapons.
// Returns the captain's report.
func (s *State) FireWeapons(v *model.Vessel) string {
	var lines []string
	for _, shot := range v.Weapons.TakeShots() {
		direct, indirect := s.hits(shot.Target)
		kind := "Non-damaging"
		if shot.Damaging {
			kind = "Damaging"
			for _, e := range direct {
				e.Damage(model.DirectHitDamage + damageBonus(v, e))
			}
			for _, e := range indirect {
				e.Damage(model.IndirectHitDamage + damageBonus(v, e))
			}
		} else {
			for _, e := range append(direct, indirect...) {
				if e.IsWeak() {
					e.Damage(1)
				}
			}
		}
		lines = append(lines, fmt.Sprintf("%s shot at %s directly hit %s; indirectly hit %s.",
			kind, shot.Target, names(direct), names(indirect)))
	}
	if msg, ok := v.Weapons.Recharge(v.PowerOf(model.SystemWeapons)); ok {
		lines = append(lines, msg)
	}
	return strings.Join(lines, "\n")
}

func names(es []model.Entity) string {
	if len(es) == 0 {
		return "nobody"
	}
	out := make([]string, len(es))
	for i, e := range es {
		out[i] = e.Name()
	}
	return world.JoinAnd(out)
}
