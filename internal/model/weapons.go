package model

import (
	"encoding/json"
	"fmt"

	"github.com/udisondev/deepwatch/internal/world"
)

// Weapon tuning.
const (
	DefaultWeaponRange = 4
	DamagingShotCost   = 2
	StunningShotCost   = 1
	DirectHitDamage    = 1
	IndirectHitDamage  = 2
)

// Shot is a planned shot resolved at the next tick.
type Shot struct {
	Damaging bool        `json:"damaging"`
	Target   world.Point `json:"target"`
}

// Weapons holds charge and the shots planned for the next tick.
type Weapons struct {
	charge  int
	reach   int
	planned []Shot
}

// NewWeapons returns weapons with one charge and standard range.
func NewWeapons() *Weapons {
	return &Weapons{charge: 1, reach: DefaultWeaponRange}
}

// Charge is the current charge.
func (w *Weapons) Charge() int { return w.charge }

// Reach is the maximum targeting distance.
func (w *Weapons) Reach() int { return w.reach }

// Planned returns the shots queued for the next tick.
func (w *Weapons) Planned() []Shot {
	out := make([]Shot, len(w.planned))
	copy(out, w.planned)
	return out
}

// Prepare queues a shot at target and pays its charge.
func (w *Weapons) Prepare(from world.Point, g *world.Grid, target world.Point, damaging bool) (string, error) {
	if !g.InWorld(target) {
		return "", fmt.Errorf("%w: %s", world.ErrOutOfWorld, target)
	}
	if world.Distance(from, target) > w.reach {
		return "", fmt.Errorf("%w: %s", ErrOutOfRange, target)
	}
	cost, kind := StunningShotCost, "Non-damaging"
	if damaging {
		cost, kind = DamagingShotCost, "Damaging"
	}
	if w.charge < cost {
		return "", ErrNoCharge
	}
	w.charge -= cost
	w.planned = append(w.planned, Shot{Damaging: damaging, Target: target})
	return fmt.Sprintf("%s shot fired at %s!", kind, target), nil
}

// TakeShots returns and clears the planned shots.
func (w *Weapons) TakeShots() []Shot {
	shots := w.planned
	w.planned = nil
	return shots
}

// Recharge adds ceil(power/2) charge, capped at power. Reports the new
// charge when it changed.
func (w *Weapons) Recharge(power int) (string, bool) {
	old := w.charge
	w.charge = min(power, old+(power+1)/2)
	if w.charge == old {
		return "", false
	}
	return fmt.Sprintf("Recharged weapons up to %d charge!", w.charge), true
}

// Status renders the weapons section of a status report.
func (w *Weapons) Status(power int) string {
	if power == 0 {
		return ""
	}
	return fmt.Sprintf("\nWeapons are powered with %d weapons charge(s) available (maximum %d).\n", w.charge, power)
}

type weaponsJSON struct {
	Charge  int    `json:"weapons_charge"`
	Range   int    `json:"range"`
	Planned []Shot `json:"planned_shots"`
}

func (w *Weapons) MarshalJSON() ([]byte, error) {
	return json.Marshal(weaponsJSON{Charge: w.charge, Range: w.reach, Planned: w.planned})
}

func (w *Weapons) UnmarshalJSON(data []byte) error {
	var raw weaponsJSON
	if err := json.Unmarshal(data, &raw); err != nil {
		return err
	}
	w.charge, w.reach, w.planned = raw.Charge, raw.Range, raw.Planned
	if w.reach == 0 {
		w.reach = DefaultWeaponRange
	}
	return nil
}
