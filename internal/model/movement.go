package model

import (
	"encoding/json"
	"fmt"
	"math"
	"time"

	"github.com/udisondev/deepwatch/internal/world"
)

// blessedDifficulty caps cell difficulty for vessels with the blessing upgrade.
const blessedDifficulty = 4

// Movement tracks position, heading and accumulated engine progress.
type Movement struct {
	pos       world.Point
	direction world.Direction
	progress  int
}

// NewMovement places a vessel at p facing north.
func NewMovement(p world.Point) *Movement {
	return &Movement{pos: p, direction: world.North}
}

// Position returns the current cell.
func (m *Movement) Position() world.Point { return m.pos }

// Direction returns the current heading.
func (m *Movement) Direction() world.Direction { return m.direction }

// Progress returns the accumulated engine progress.
func (m *Movement) Progress() int { return m.progress }

// SetDirection changes the heading.
func (m *Movement) SetDirection(d world.Direction) error {
	if !d.Valid() {
		return fmt.Errorf("%w: %q", world.ErrUnknownDirection, string(d))
	}
	m.direction = d
	return nil
}

// SetPosition moves the vessel without any entry effects.
func (m *Movement) SetPosition(p world.Point) {
	m.pos = p
}

// Accumulate adds engine power to progress and reports whether a step is
// due. When it is, threshold has already been consumed.
func (m *Movement) Accumulate(engines, threshold int) bool {
	m.progress += engines
	if m.progress >= threshold {
		m.progress -= threshold
		return true
	}
	return false
}

// StepOutcome is what happened when a vessel tried to advance one cell.
type StepOutcome int

const (
	StepMoved StepOutcome = iota
	StepBoundary
	StepObstacle
	StepDocked
)

// Step is the result of one movement tick.
type Step struct {
	Outcome StepOutcome
	// Heading is the direction the vessel tried to move in.
	Heading world.Direction
	Message string
}

// Relocated reports whether the vessel changed cell.
func (s Step) Relocated() bool {
	return s.Outcome == StepMoved
}

// Threshold is the progress needed to leave the current cell.
func Threshold(cell *world.Cell, blessed bool) int {
	d := cell.Difficulty()
	if blessed {
		d = min(d, blessedDifficulty)
	}
	return d
}

// Tick advances v's movement. The returned step is nil when no step was due.
func (m *Movement) Tick(v *Vessel, g *world.Grid) *Step {
	cell := g.Cell(m.pos)
	if cell == nil {
		return nil
	}
	if !m.Accumulate(v.PowerOf(SystemEngines), Threshold(cell, v.Upgrades.Has(UpgradeBlessing))) {
		return nil
	}

	heading := m.direction
	step := m.resolve(v, g)
	step.Heading = heading
	status := fmt.Sprintf("Moved **%s** in direction **%s**!\n**%s** is now at position **%s**.",
		v.Name(), heading, v.Name(), m.pos)
	if step.Message != "" {
		step.Message += "\n" + status
	} else {
		step.Message = status
	}
	return &step
}

func (m *Movement) resolve(v *Vessel, g *world.Grid) Step {
	next := m.pos.Add(m.direction.Delta())
	target := g.Cell(next)
	if target == nil {
		m.direction = m.direction.Reverse()
		return Step{
			Outcome: StepBoundary,
			Message: fmt.Sprintf("Your submarine reached the boundaries of the world, so was pushed back (now facing **%s**) and did not move this turn!", m.direction),
		}
	}
	if name, ok := target.DockedAt(); ok {
		m.direction = m.direction.Reverse()
		v.Power.Activate(false)
		return Step{
			Outcome: StepDocked,
			Message: fmt.Sprintf("Docked at **%s** at position %s! The power has been stopped. Please exit the submarine to enter the docking station.", name, m.pos),
		}
	}
	if target.IsObstacle() {
		v.Damage(1)
		m.direction = m.direction.Reverse()
		return Step{Outcome: StepObstacle, Message: "The submarine hit a wall and took one damage!"}
	}
	m.pos = next
	return Step{Outcome: StepMoved}
}

// Status renders the movement section of a status report. untilTick is
// the time left before the next tick, or a negative value if unknown.
func (m *Movement) Status(v *Vessel, g *world.Grid, untilTick, interval time.Duration) string {
	if !v.Power.Active() {
		return "Submarine is currently offline.\n\n"
	}
	msg := "Submarine is currently online.\n"
	if untilTick >= 0 {
		msg += fmt.Sprintf("Next game turn will occur in %ds.\n", int(untilTick.Seconds()))
		if engines := v.PowerOf(SystemEngines); engines > 0 {
			threshold := blessedDifficulty
			if cell := g.Cell(m.pos); cell != nil {
				threshold = Threshold(cell, v.Upgrades.Has(UpgradeBlessing))
			}
			turns := TurnsUntilMove(threshold, m.progress, engines)
			plural := "turn"
			if turns > 1 {
				plural = "turns"
			}
			eta := EstimateNextMove(untilTick, interval, turns)
			msg += fmt.Sprintf("Next move estimated to occur in %ds (%d %s).\n", int(eta.Seconds()), turns, plural)
		}
	}
	msg += fmt.Sprintf("Currently moving **%s** and in position **%s**.\n\n", m.direction, m.pos)
	return msg
}

// TurnsUntilMove is ceil(max(threshold-progress, 0) / engines).
func TurnsUntilMove(threshold, progress, engines int) int {
	if engines <= 0 {
		return math.MaxInt
	}
	remaining := max(threshold-progress, 0)
	return (remaining + engines - 1) / engines
}

// EstimateNextMove is the wall-clock time until the vessel next moves.
func EstimateNextMove(untilTick, interval time.Duration, turns int) time.Duration {
	if turns <= 1 {
		return untilTick
	}
	return untilTick + interval*time.Duration(turns-1)
}

type movementJSON struct {
	X         int             `json:"x"`
	Y         int             `json:"y"`
	Direction world.Direction `json:"direction"`
	Progress  int             `json:"movement_progress"`
}

func (m *Movement) MarshalJSON() ([]byte, error) {
	return json.Marshal(movementJSON{X: m.pos.X, Y: m.pos.Y, Direction: m.direction, Progress: m.progress})
}

func (m *Movement) UnmarshalJSON(data []byte) error {
	var raw movementJSON
	if err := json.Unmarshal(data, &raw); err != nil {
		return err
	}
	if raw.Direction == "" {
		raw.Direction = world.North
	}
	if !raw.Direction.Valid() {
		return fmt.Errorf("%w: %q", world.ErrUnknownDirection, string(raw.Direction))
	}
	m.pos = world.Point{X: raw.X, Y: raw.Y}
	m.direction = raw.Direction
	m.progress = raw.Progress
	return nil
}
