package model

import (
	"encoding/json"
	"fmt"
	"maps"
	"math/rand/v2"
	"slices"
	"strings"
)

// Power system names every vessel starts with.
const (
	SystemEngines  = "engines"
	SystemScanners = "scanners"
	SystemComms    = "comms"
	SystemCrane    = "crane"
	SystemWeapons  = "weapons"
)

// DestroyedNotice is reported when reactor capacity reaches zero.
const DestroyedNotice = "**SUBMARINE DESTROYED. PLEASE SPEAK TO CONTROL.**"

// Power is a vessel's reactor: per-system allocation, the pending schedule
// committed at the next tick, and queued damage.
//
// Invariants: the scheduled total never exceeds Capacity, and every system's
// current and scheduled power stays within [0, max].
type Power struct {
	active      bool
	systems     []string
	current     map[string]int
	max         map[string]int
	innate      map[string]int
	scheduled   map[string]int
	capacity    int
	maxCapacity int
	pending     []int
}

// NewPower returns a reactor with the standard starting allocation.
func NewPower() *Power {
	p := &Power{
		systems:     []string{SystemEngines, SystemScanners, SystemComms, SystemCrane, SystemWeapons},
		current:     map[string]int{SystemEngines: 0, SystemScanners: 1, SystemComms: 1, SystemCrane: 0, SystemWeapons: 1},
		max:         map[string]int{SystemEngines: 1, SystemScanners: 1, SystemComms: 2, SystemCrane: 1, SystemWeapons: 1},
		innate:      map[string]int{SystemEngines: 1},
		capacity:    3,
		maxCapacity: 3,
	}
	p.scheduled = maps.Clone(p.current)
	return p
}

// Activate turns the vessel on or off.
func (p *Power) Activate(on bool) {
	p.active = on
}

// Active reports whether the vessel takes part in ticks.
func (p *Power) Active() bool {
	return p.active
}

// Destroyed reports whether the reactor has no capacity left.
func (p *Power) Destroyed() bool {
	return p.capacity <= 0
}

// Has reports whether system exists.
func (p *Power) Has(system string) bool {
	_, ok := p.max[system]
	return ok
}

// Systems returns system names in display order.
func (p *Power) Systems() []string {
	return slices.Clone(p.systems)
}

// Get returns the effective power of system: allocated plus innate.
func (p *Power) Get(system string) int {
	return p.current[system] + p.innate[system]
}

// Current returns the allocated power of system.
func (p *Power) Current(system string) int { return p.current[system] }

// Scheduled returns the power system will have after the next tick.
func (p *Power) Scheduled(system string) int { return p.scheduled[system] }

// Max returns the allocation cap of system.
func (p *Power) Max(system string) int { return p.max[system] }

// Innate returns the administrative floor of system.
func (p *Power) Innate(system string) int { return p.innate[system] }

// Capacity is the current reactor capacity.
func (p *Power) Capacity() int { return p.capacity }

// MaxCapacity is the capacity that healing can restore up to.
func (p *Power) MaxCapacity() int { return p.maxCapacity }

// Used is the total allocated power.
func (p *Power) Used() int {
	return sum(p.current)
}

// ScheduledUse is the total scheduled power.
func (p *Power) ScheduledUse() int {
	return sum(p.scheduled)
}

// Unused is idle reactor capacity.
func (p *Power) Unused() int {
	return p.capacity - p.Used()
}

// Schedule adds one point of power to each named system at the next tick.
// The batch is atomic: nothing changes if any step fails.
func (p *Power) Schedule(systems ...string) error {
	if len(systems) > p.capacity-p.ScheduledUse() {
		return ErrOverCapacity
	}
	next := maps.Clone(p.scheduled)
	for _, s := range systems {
		if !p.Has(s) {
			return fmt.Errorf("%w: %q", ErrUnknownSystem, s)
		}
		next[s]++
		if next[s] > p.max[s] {
			return fmt.Errorf("%w: %s", ErrOverMax, s)
		}
	}
	p.scheduled = next
	return nil
}

// Unschedule removes one point of power from each named system at the next
// tick. The batch is atomic.
func (p *Power) Unschedule(systems ...string) error {
	next := maps.Clone(p.scheduled)
	for _, s := range systems {
		if !p.Has(s) {
			return fmt.Errorf("%w: %q", ErrUnknownSystem, s)
		}
		next[s]--
		if next[s] < 0 {
			return fmt.Errorf("%w: %s", ErrUnderZero, s)
		}
	}
	p.scheduled = next
	return nil
}

// ApplySchedule commits the schedule. Returns a summary of what changed and
// whether anything did.
func (p *Power) ApplySchedule() (string, bool) {
	var lines []string
	for _, s := range p.systems {
		diff := p.scheduled[s] - p.current[s]
		switch {
		case diff > 0:
			lines = append(lines, fmt.Sprintf("Power to **%s** increased by %d.", s, diff))
		case diff < 0:
			lines = append(lines, fmt.Sprintf("Power to **%s** decreased by %d.", s, -diff))
		}
	}
	p.current = maps.Clone(p.scheduled)
	if len(lines) == 0 {
		return "No change to power.", false
	}
	return strings.Join(lines, "\n"), true
}

// Damage queues amount points of reactor damage for the next tick.
func (p *Power) Damage(amount int) {
	if amount > 0 {
		p.pending = append(p.pending, amount)
	}
}

// PendingDamage is the total queued damage.
func (p *Power) PendingDamage() int {
	total := 0
	for _, d := range p.pending {
		total += d
	}
	return total
}

// ResolveDamage applies queued damage one capacity point at a time. Idle
// capacity is lost first, then power is stripped from a random powered
// system. At zero capacity the vessel is deactivated and any remaining
// damage is absorbed.
func (p *Power) ResolveDamage(rng *rand.Rand) string {
	var lines []string
	for _, hit := range p.pending {
		for range hit {
			if p.capacity <= 0 {
				break
			}
			target := "reserves"
			if p.Used() >= p.capacity {
				var powered []string
				for _, s := range p.systems {
					if p.current[s] > 0 {
						powered = append(powered, s)
					}
				}
				if len(powered) > 0 {
					target = powered[rng.IntN(len(powered))]
					p.current[target]--
					if p.scheduled[target] > 0 {
						p.scheduled[target]--
					}
				}
			}
			p.capacity--
			p.trimSchedule(rng)
			lines = append(lines, fmt.Sprintf("Damage taken to %s!", target))
			if p.capacity == 0 {
				p.active = false
				lines = append(lines, DestroyedNotice)
			}
		}
	}
	p.pending = nil
	return strings.Join(lines, "\n")
}

// trimSchedule removes random scheduled points until the schedule fits.
func (p *Power) trimSchedule(rng *rand.Rand) {
	for p.ScheduledUse() > p.capacity {
		var scheduled []string
		for _, s := range p.systems {
			if p.scheduled[s] > 0 {
				scheduled = append(scheduled, s)
			}
		}
		if len(scheduled) == 0 {
			return
		}
		p.scheduled[scheduled[rng.IntN(len(scheduled))]]--
	}
}

// Heal restores capacity up to the maximum.
func (p *Power) Heal(amount int) string {
	p.capacity = min(p.capacity+amount, p.maxCapacity)
	return fmt.Sprintf("Healed back up to %d power!", p.capacity)
}

// ModifyReactor raises or lowers the maximum capacity. Positive amounts
// also heal; negative amounts queue damage.
func (p *Power) ModifyReactor(amount int) error {
	if p.maxCapacity+amount < 0 {
		return ErrBelowZero
	}
	p.maxCapacity += amount
	if amount > 0 {
		p.Heal(amount)
	} else {
		p.Damage(-amount)
	}
	return nil
}

// ModifySystem raises or lowers a system's allocation cap.
func (p *Power) ModifySystem(system string, amount int) error {
	if !p.Has(system) {
		return fmt.Errorf("%w: %q", ErrUnknownSystem, system)
	}
	if p.max[system]+amount < 0 {
		return ErrBelowZero
	}
	p.max[system] += amount
	p.current[system] = min(p.current[system], p.max[system])
	p.scheduled[system] = min(p.scheduled[system], p.max[system])
	return nil
}

// ModifyInnate raises or lowers a system's innate power.
func (p *Power) ModifyInnate(system string, amount int) error {
	if !p.Has(system) {
		return fmt.Errorf("%w: %q", ErrUnknownSystem, system)
	}
	if p.innate[system]+amount < 0 {
		return ErrBelowZero
	}
	p.innate[system] += amount
	return nil
}

// AddSystem adds an unpowered system with max 1.
func (p *Power) AddSystem(system string) error {
	if p.Has(system) {
		return fmt.Errorf("%w: %q", ErrSystemExists, system)
	}
	p.systems = append(p.systems, system)
	p.current[system] = 0
	p.scheduled[system] = 0
	p.max[system] = 1
	return nil
}

// Status renders the power section of a vessel status report.
func (p *Power) Status() string {
	var b strings.Builder
	fmt.Fprintf(&b, "**Power status** (%d/%d/%d used/available/max):\n", p.Used(), p.capacity, p.maxCapacity)
	for _, s := range p.systems {
		use, maxi, innate := p.current[s], p.max[s], p.innate[s]
		if maxi+innate <= 0 {
			continue
		}
		diff := p.scheduled[s] - use

		var extras []string
		if innate > 0 {
			extras = append(extras, fmt.Sprintf("%d innate", innate))
		}
		if diff > 0 {
			extras = append(extras, fmt.Sprintf("+%d scheduled", diff))
		} else if diff < 0 {
			extras = append(extras, fmt.Sprintf("-%d scheduled", -diff))
		}
		detail := fmt.Sprintf("(%d/%d", use, maxi)
		if len(extras) > 0 {
			detail += " with " + strings.Join(extras, ", ")
		}
		detail += ")"

		state := "offline"
		if use+innate > 0 {
			state = "online"
		}
		fmt.Fprintf(&b, "* **%s** is %s %s\n", strings.ToUpper(s[:1])+s[1:], state, detail)
	}
	return b.String()
}

type powerJSON struct {
	Active      bool           `json:"active"`
	Systems     []string       `json:"systems"`
	Current     map[string]int `json:"power"`
	Max         map[string]int `json:"power_max"`
	Innate      map[string]int `json:"innate_power"`
	Scheduled   map[string]int `json:"scheduled_power"`
	Capacity    int            `json:"total_power"`
	MaxCapacity int            `json:"total_power_max"`
	Pending     []int          `json:"scheduled_damage"`
}

func (p *Power) MarshalJSON() ([]byte, error) {
	return json.Marshal(powerJSON{
		Active:      p.active,
		Systems:     p.systems,
		Current:     p.current,
		Max:         p.max,
		Innate:      p.innate,
		Scheduled:   p.scheduled,
		Capacity:    p.capacity,
		MaxCapacity: p.maxCapacity,
		Pending:     p.pending,
	})
}

func (p *Power) UnmarshalJSON(data []byte) error {
	var raw powerJSON
	if err := json.Unmarshal(data, &raw); err != nil {
		return err
	}
	p.active = raw.Active
	p.systems = raw.Systems
	p.current = orEmpty(raw.Current)
	p.max = orEmpty(raw.Max)
	p.innate = orEmpty(raw.Innate)
	p.scheduled = orEmpty(raw.Scheduled)
	p.capacity = raw.Capacity
	p.maxCapacity = raw.MaxCapacity
	p.pending = raw.Pending
	if len(p.systems) == 0 {
		for s := range p.max {
			p.systems = append(p.systems, s)
		}
		slices.Sort(p.systems)
	}
	return nil
}

func sum(m map[string]int) int {
	total := 0
	for _, v := range m {
		total += v
	}
	return total
}

func orEmpty(m map[string]int) map[string]int {
	if m == nil {
		return make(map[string]int)
	}
	return m
}
