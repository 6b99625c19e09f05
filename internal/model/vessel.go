package model

import (
	"encoding/json"
	"fmt"
	"strings"
	"time"

	"github.com/udisondev/deepwatch/internal/world"
)

// Vessel is a team's submarine. It exclusively owns its subsystems.
//
// Not safe for concurrent use; the engine serialises access between ticks
// and commands.
type Vessel struct {
	key      string
	channels map[Role]string

	Power     *Power
	Movement  *Movement
	Comms     *Comms
	Scan      *Scanner
	Weapons   *Weapons
	Inventory *Inventory
	Puzzles   *Puzzles
	Upgrades  *Upgrades

	mailbox  *Mailbox
	bulletin *Bulletin
}

var _ Entity = (*Vessel)(nil)

// VesselKey normalises a team name into a registry key.
func VesselKey(name string) string {
	return strings.ToLower(strings.TrimSpace(name))
}

// NewVessel creates an inactive vessel at pos with default subsystems.
// channels maps crew roles to delivery channel ids.
func NewVessel(name string, channels map[Role]string, pos world.Point, bank *PuzzleBank) *Vessel {
	v := &Vessel{
		key:       VesselKey(name),
		channels:  make(map[Role]string, len(channels)),
		Power:     NewPower(),
		Movement:  NewMovement(pos),
		Comms:     NewComms(),
		Scan:      NewScanner(),
		Weapons:   NewWeapons(),
		Inventory: NewInventory(),
		Puzzles:   NewPuzzles(bank),
		Upgrades:  NewUpgrades(),
		mailbox:   NewMailbox(),
	}
	for r, id := range channels {
		v.channels[r] = id
	}
	return v
}

// Key is the registry key (lower-case team name).
func (v *Vessel) Key() string { return v.key }

// Name is the display name.
func (v *Vessel) Name() string { return world.Title(v.key) }

// Channel returns the delivery channel for role.
func (v *Vessel) Channel(role Role) (string, bool) {
	id, ok := v.channels[role]
	return id, ok
}

// Channels returns a copy of the role to channel mapping.
func (v *Vessel) Channels() map[Role]string {
	out := make(map[Role]string, len(v.channels))
	for r, id := range v.channels {
		out[r] = id
	}
	return out
}

// Position is the vessel's current cell.
func (v *Vessel) Position() world.Point { return v.Movement.Position() }

// Active reports whether the vessel takes part in ticks.
func (v *Vessel) Active() bool { return v.Power.Active() }

// PowerOf is the effective power of system including upgrades.
func (v *Vessel) PowerOf(system string) int {
	p := v.Power.Get(system)
	if v.Upgrades.Has(UpgradeOverclocked) {
		p++
	}
	return p
}

// Damage queues damage for the end of the tick.
func (v *Vessel) Damage(amount int) {
	v.Power.Damage(amount)
}

// Send posts msg for one crew role. Shared roles go to the bulletin.
func (v *Vessel) Send(role Role, msg string) {
	switch role {
	case RoleControl:
		v.bulletin.Control(msg)
	case RoleNews:
		v.bulletin.News(msg)
	default:
		v.mailbox.Post(role, msg)
	}
}

// SendAll posts msg for every crew role.
func (v *Vessel) SendAll(msg string) {
	v.mailbox.PostAll(msg)
}

func (v *Vessel) control(msg string) {
	v.bulletin.Control(msg)
}

// Mailbox is the vessel's pending report buffer.
func (v *Vessel) Mailbox() *Mailbox { return v.mailbox }

// AttachBulletin routes control and news messages to b.
func (v *Vessel) AttachBulletin(b *Bulletin) {
	v.bulletin = b
}

// IsWeak is false: stunning shots do not affect vessels.
func (v *Vessel) IsWeak() bool { return false }

// IsCarbon is false: vessels are manmade.
func (v *Vessel) IsCarbon() bool { return false }

// OutwardBroadcast is what a scanner of the given strength sees. A stealthy
// vessel hides from strengths below min(3, unused power).
func (v *Vessel) OutwardBroadcast(strength int) string {
	if v.Upgrades.Has(UpgradeStealthy) && strength < min(stealthyFloor, v.Power.Unused()) {
		return ""
	}
	if strength > 0 {
		return "Submarine " + v.Name()
	}
	return "Submarine ???"
}

// Status renders the full status report. untilTick is negative when the
// engine is not running.
func (v *Vessel) Status(g *world.Grid, untilTick, interval time.Duration) string {
	var b strings.Builder
	fmt.Fprintf(&b, "Status for **%s**\n------------------------------------\n\n", v.Name())
	b.WriteString(v.Movement.Status(v, g, untilTick, interval))
	b.WriteString(v.Power.Status())
	b.WriteString(v.Inventory.Status())
	b.WriteString(v.Weapons.Status(v.PowerOf(SystemWeapons)))
	b.WriteString(v.Upgrades.Status())
	b.WriteString("\nNo more to report.")
	return b.String()
}

type vesselJSON struct {
	Name      string          `json:"name"`
	Channels  map[Role]string `json:"channels"`
	Power     *Power          `json:"power"`
	Movement  *Movement       `json:"movement"`
	Comms     *Comms          `json:"comms"`
	Scan      *Scanner        `json:"scan"`
	Weapons   *Weapons        `json:"weapons"`
	Inventory *Inventory      `json:"inventory"`
	Puzzles   *Puzzles        `json:"puzzles"`
	Upgrades  *Upgrades       `json:"upgrades"`
}

func (v *Vessel) MarshalJSON() ([]byte, error) {
	return json.Marshal(vesselJSON{
		Name:      v.key,
		Channels:  v.channels,
		Power:     v.Power,
		Movement:  v.Movement,
		Comms:     v.Comms,
		Scan:      v.Scan,
		Weapons:   v.Weapons,
		Inventory: v.Inventory,
		Puzzles:   v.Puzzles,
		Upgrades:  v.Upgrades,
	})
}

// UnmarshalJSON restores a vessel. Missing subsystems get defaults and the
// bulletin must be attached again by the owner.
func (v *Vessel) UnmarshalJSON(data []byte) error {
	raw := vesselJSON{
		Power:     NewPower(),
		Movement:  NewMovement(world.Point{}),
		Comms:     NewComms(),
		Scan:      NewScanner(),
		Weapons:   NewWeapons(),
		Inventory: NewInventory(),
		Puzzles:   &Puzzles{wearAndTear: initialWearAndTear},
		Upgrades:  NewUpgrades(),
	}
	if err := json.Unmarshal(data, &raw); err != nil {
		return fmt.Errorf("decoding vessel: %w", err)
	}
	if VesselKey(raw.Name) == "" {
		return fmt.Errorf("decoding vessel: %w: empty name", ErrInvalidCommand)
	}
	*v = Vessel{
		key:       VesselKey(raw.Name),
		channels:  raw.Channels,
		Power:     raw.Power,
		Movement:  raw.Movement,
		Comms:     raw.Comms,
		Scan:      raw.Scan,
		Weapons:   raw.Weapons,
		Inventory: raw.Inventory,
		Puzzles:   raw.Puzzles,
		Upgrades:  raw.Upgrades,
		mailbox:   NewMailbox(),
	}
	if v.channels == nil {
		v.channels = make(map[Role]string)
	}
	return nil
}
