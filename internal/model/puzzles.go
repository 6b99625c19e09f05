package model

import (
	"encoding/json"
	"fmt"
	"math/rand/v2"
	"slices"
	"strings"

	"github.com/udisondev/deepwatch/internal/world"
)

// Reasons a puzzle is sent.
const (
	ReasonWearAndTear = "wear and tear"
	ReasonRepair      = "repair"
	ReasonFixing      = "fixing"
)

const initialWearAndTear = 5

// Puzzle is one engineering puzzle and its accepted answers.
type Puzzle struct {
	Name    string
	Answers []string
}

// PuzzleBank is the shared, ordered set of puzzles.
type PuzzleBank struct {
	names   []string
	answers map[string][]string
}

// NewPuzzleBank indexes puzzles by name, keeping the given order.
func NewPuzzleBank(puzzles []Puzzle) *PuzzleBank {
	b := &PuzzleBank{answers: make(map[string][]string, len(puzzles))}
	for _, p := range puzzles {
		if _, dup := b.answers[p.Name]; dup {
			continue
		}
		b.names = append(b.names, p.Name)
		b.answers[p.Name] = p.Answers
	}
	return b
}

// Names returns puzzle names in bank order.
func (b *PuzzleBank) Names() []string {
	if b == nil {
		return nil
	}
	return slices.Clone(b.names)
}

// Check reports whether answer solves the named puzzle.
func (b *PuzzleBank) Check(name, answer string) bool {
	if b == nil {
		return false
	}
	answer = strings.TrimSpace(answer)
	for _, a := range b.answers[name] {
		if strings.EqualFold(strings.TrimSpace(a), answer) {
			return true
		}
	}
	return false
}

// Puzzles is a vessel's engineering puzzle queue and wear-and-tear counter.
type Puzzles struct {
	queue       []string
	current     string
	reason      string
	wearAndTear int
}

// NewPuzzles starts a queue with every puzzle in the bank.
func NewPuzzles(bank *PuzzleBank) *Puzzles {
	return &Puzzles{queue: bank.Names(), wearAndTear: initialWearAndTear}
}

// Current returns the open puzzle and its reason.
func (p *Puzzles) Current() (name, reason string, ok bool) {
	return p.current, p.reason, p.current != ""
}

// WearAndTear is the number of resolved steps before the next wear puzzle.
func (p *Puzzles) WearAndTear() int {
	return p.wearAndTear
}

// Send delivers the next puzzle to the engineer. An open puzzle is first
// resolved as timed out.
func (p *Puzzles) Send(v *Vessel, bank *PuzzleBank, reason string) error {
	if p.current != "" {
		p.Resolve(v, bank, "", true)
	}
	if len(p.queue) == 0 {
		p.queue = bank.Names()
	}
	if len(p.queue) == 0 {
		return ErrNoPuzzles
	}
	p.current, p.queue = p.queue[0], p.queue[1:]
	p.reason = reason
	v.Send(RoleEngineer, fmt.Sprintf("Puzzle for **%s** received! You have until your submarine next moves to solve it!\nPuzzle: `%s`", reason, p.current))
	return nil
}

// Resolve marks the open puzzle. timedOut means the vessel moved before an
// answer came in. Returns false if there was no open puzzle.
func (p *Puzzles) Resolve(v *Vessel, bank *PuzzleBank, answer string, timedOut bool) bool {
	if p.current == "" {
		return false
	}
	condition := world.Title(p.reason)
	switch {
	case !timedOut && bank.Check(p.current, answer):
		if p.reason == ReasonRepair {
			v.SendAll(v.Power.Heal(1))
		}
		v.Send(RoleEngineer, fmt.Sprintf("Puzzle answered correctly! **%s** sorted!", condition))
		v.control(fmt.Sprintf("**%s** got puzzle **%q** **correct**!", v.Name(), p.current))
	default:
		if timedOut {
			v.Send(RoleEngineer, fmt.Sprintf("Ran out of time to solve puzzle. **%s** not sorted.", condition))
			if p.reason != ReasonRepair {
				v.Damage(1)
			}
		} else {
			v.Send(RoleEngineer, fmt.Sprintf("You got the answer wrong! **%s** not sorted.", condition))
			v.Damage(1)
		}
		p.queue = append(p.queue, p.current)
		v.control(fmt.Sprintf("**%s** got puzzle **%q** **wrong**!", v.Name(), p.current))
	}
	p.current, p.reason = "", ""
	return true
}

// OnStep runs after every resolved movement step: the open puzzle times out
// and wear and tear may send a new one.
func (p *Puzzles) OnStep(v *Vessel, bank *PuzzleBank, rng *rand.Rand) {
	p.Resolve(v, bank, "", true)
	if v.Upgrades.Has(UpgradeWearFree) {
		return
	}
	p.wearAndTear--
	if p.wearAndTear <= 0 {
		// An empty bank just skips the puzzle.
		_ = p.Send(v, bank, ReasonWearAndTear)
		p.wearAndTear = 4 + rng.IntN(3)
	}
}

type puzzlesJSON struct {
	Queue       []string `json:"puzzles"`
	Current     string   `json:"current_puzzle,omitempty"`
	Reason      string   `json:"puzzle_reason,omitempty"`
	WearAndTear int      `json:"wear_and_tear"`
}

func (p *Puzzles) MarshalJSON() ([]byte, error) {
	return json.Marshal(puzzlesJSON{Queue: p.queue, Current: p.current, Reason: p.reason, WearAndTear: p.wearAndTear})
}

func (p *Puzzles) UnmarshalJSON(data []byte) error {
	var raw puzzlesJSON
	if err := json.Unmarshal(data, &raw); err != nil {
		return err
	}
	p.queue, p.current, p.reason, p.wearAndTear = raw.Queue, raw.Current, raw.Reason, raw.WearAndTear
	return nil
}
