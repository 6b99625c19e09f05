package model

import (
	"encoding/json"
	"fmt"
	"slices"
	"strings"

	"github.com/udisondev/deepwatch/internal/world"
)

// Upgrade keywords granted by control.
const (
	UpgradeClarity       = "clarity"
	UpgradeSnipped       = "snipped"
	UpgradeFastCrane     = "fastcrane"
	UpgradeBlessing      = "blessing"
	UpgradeOverclocked   = "overclocked"
	UpgradeShocked       = "shocked"
	UpgradeTicking       = "ticking"
	UpgradeWearFree      = "wearfree"
	UpgradeStealthy      = "stealthy"
	UpgradeCamo          = "camo"
	UpgradeTriangulation = "triangulation"
	UpgradeAntiPlastic   = "antiplastic"
	UpgradeAntiCarbon    = "anticarbon"
)

// UpgradeDescriptions documents every known keyword.
var UpgradeDescriptions = map[string]string{
	UpgradeClarity:       "Gives you unscrambled messages up to a distance of 2p (p = comms power) away from your submarine.",
	UpgradeSnipped:       "Your crane cable is broken.",
	UpgradeFastCrane:     "Your crane now works at double speed (so only takes one tick to get its cargo).",
	UpgradeBlessing:      "Your sub ignores movement penalties from weather.",
	UpgradeOverclocked:   "Everything has +1 innate power.",
	UpgradeShocked:       "You cannot modify the power distribution of your submarine.",
	UpgradeTicking:       "Makes an annoying ticking noise.",
	UpgradeWearFree:      "You no longer gain engineering puzzles due to wear and tear.",
	UpgradeStealthy:      "Subs need 3+ scanning strength in order to see you.",
	UpgradeCamo:          "Undamaged NPCs don't attack you.",
	UpgradeTriangulation: "Objects in the scanner now have their distance as well as direction.",
	UpgradeAntiPlastic:   "Damaging shots deal more damage to manmade structures.",
	UpgradeAntiCarbon:    "Damaging shots deal more damage to biological structures.",
}

// PostponedEvent removes a keyword after a number of ticks and deals damage.
type PostponedEvent struct {
	Turns   int    `json:"turns"`
	Keyword string `json:"keyword"`
	Damage  int    `json:"damage"`
}

// Description is the event's label in status reports.
func (e PostponedEvent) Description() string {
	verb := "explodes"
	if e.Damage <= 0 {
		verb = "dissipates"
	}
	return fmt.Sprintf("**%s** %s", e.Keyword, verb)
}

// Upgrades holds keywords granted by control and their expiry events.
type Upgrades struct {
	keywords  []string
	postponed []PostponedEvent
}

// NewUpgrades returns an empty upgrade set.
func NewUpgrades() *Upgrades {
	return &Upgrades{}
}

// Has reports whether keyword is installed.
func (u *Upgrades) Has(keyword string) bool {
	return slices.Contains(u.keywords, keyword)
}

// Keywords returns installed keywords in install order.
func (u *Upgrades) Keywords() []string {
	return slices.Clone(u.keywords)
}

// Postponed returns pending expiry events.
func (u *Upgrades) Postponed() []PostponedEvent {
	return slices.Clone(u.postponed)
}

// Add installs keyword. With turns > 0 the keyword is removed after that
// many ticks and damage is dealt.
func (u *Upgrades) Add(keyword string, turns, damage int) (string, error) {
	keyword = strings.ToLower(strings.TrimSpace(keyword))
	if keyword == "" {
		return "", ErrUnknownKeyword
	}
	if u.Has(keyword) {
		return "", fmt.Errorf("%w: %s", ErrKeywordPresent, keyword)
	}
	u.keywords = append(u.keywords, keyword)
	if turns > 0 {
		u.postponed = append(u.postponed, PostponedEvent{Turns: turns, Keyword: keyword, Damage: damage})
	}
	if _, ok := UpgradeDescriptions[keyword]; ok {
		return fmt.Sprintf("Added %s!", keyword), nil
	}
	return fmt.Sprintf("Added %s, but it has no effect yet.", keyword), nil
}

// Remove uninstalls keyword. Reports whether it was present.
func (u *Upgrades) Remove(keyword string) bool {
	i := slices.Index(u.keywords, keyword)
	if i < 0 {
		return false
	}
	u.keywords = slices.Delete(u.keywords, i, i+1)
	return true
}

// Tick counts down postponed events and fires the ones that are due.
func (u *Upgrades) Tick(v *Vessel) {
	var remaining []PostponedEvent
	var due []PostponedEvent
	for _, e := range u.postponed {
		if e.Turns <= 1 {
			due = append(due, e)
			continue
		}
		e.Turns--
		remaining = append(remaining, e)
	}
	u.postponed = remaining

	for _, e := range due {
		if !u.Remove(e.Keyword) {
			continue
		}
		var result string
		switch {
		case e.Damage <= 0:
			result = "fizzled out"
		case e.Damage == 1:
			result = "exploded and dealt one damage"
		default:
			result = fmt.Sprintf("dramatically exploded and dealt %d damage", e.Damage)
		}
		v.Damage(e.Damage)
		v.Send(RoleEngineer, fmt.Sprintf("**%s** %s!", world.Title(e.Keyword), result))
	}
}

// Status renders the upgrades section of a status report.
func (u *Upgrades) Status() string {
	var b strings.Builder
	if len(u.keywords) > 0 {
		b.WriteString("You have active upgrades:\n")
		for _, k := range u.keywords {
			desc, ok := UpgradeDescriptions[k]
			if !ok {
				desc = "Unknown functionality."
			}
			fmt.Fprintf(&b, "`%s`: %s\n", k, desc)
		}
	}
	if len(u.postponed) > 0 {
		events := make([]string, len(u.postponed))
		for i, e := range u.postponed {
			events[i] = fmt.Sprintf("%s (%d)", e.Description(), e.Turns)
		}
		fmt.Fprintf(&b, "Events happening in later turns: %s.\n", world.JoinAnd(events))
	}
	if u.Has(UpgradeTicking) {
		b.WriteString("Something makes an annoying ticking noise!\n")
	}
	return b.String()
}

type upgradesJSON struct {
	Keywords  []string         `json:"keywords"`
	Postponed []PostponedEvent `json:"postponed_events"`
}

func (u *Upgrades) MarshalJSON() ([]byte, error) {
	return json.Marshal(upgradesJSON{Keywords: u.keywords, Postponed: u.postponed})
}

func (u *Upgrades) UnmarshalJSON(data []byte) error {
	var raw upgradesJSON
	if err := json.Unmarshal(data, &raw); err != nil {
		return err
	}
	u.keywords, u.postponed = raw.Keywords, raw.Postponed
	return nil
}
