package game

import (
	"context"
	"errors"
	"fmt"
	"log/slog"
	"strings"
	"sync"
	"sync/atomic"
	"time"

	"github.com/google/uuid"

	"github.com/udisondev/deepwatch/internal/model"
	"github.com/udisondev/deepwatch/internal/notify"
	"github.com/udisondev/deepwatch/internal/persistence/snapshot"
)

// Store persists full snapshots.
type Store interface {
	Save(ctx context.Context, s *snapshot.Snapshot) error
	// Load returns the offset-th newest snapshot, 0 being the latest.
	Load(ctx context.Context, offset int) (*snapshot.Snapshot, error)
}

// Index records tick and save history. Implementations must not block.
type Index interface {
	RecordTick(tick int64, at time.Time, active, npcs int, took time.Duration) error
	RecordSave(revision uuid.UUID, tick int64, at time.Time, backend string) error
}

// Options tune the engine.
type Options struct {
	Interval      time.Duration
	CommsCooldown time.Duration
	Garble        int
	// Backend labels saves in the index.
	Backend string
}

// DefaultOptions matches the stock game speed.
func DefaultOptions() Options {
	return Options{
		Interval:      5 * time.Second,
		CommsCooldown: 30 * time.Second,
		Garble:        model.DefaultGarble,
		Backend:       "file",
	}
}

// Engine drives the turn loop and serialises every access to the state.
// Commands are refused with ErrTickInFlight while a tick is resolving.
type Engine struct {
	mu      sync.Mutex
	ticking atomic.Bool
	running atomic.Bool

	state    *State
	opts     Options
	notifier notify.Notifier
	store    Store
	index    Index

	tick     int64
	nextTick atomic.Int64 // unix nanoseconds, 0 when unknown
	now      func() time.Time
}

// NewEngine wires an engine. store and index may be nil.
func NewEngine(state *State, opts Options, notifier notify.Notifier, store Store, index Index) *Engine {
	if notifier == nil {
		notifier = notify.NewLog(nil)
	}
	if opts.Interval <= 0 {
		opts.Interval = DefaultOptions().Interval
	}
	return &Engine{
		state:    state,
		opts:     opts,
		notifier: notifier,
		store:    store,
		index:    index,
		now:      time.Now,
	}
}

// Start lets the loop advance turns.
func (e *Engine) Start() bool { return !e.running.Swap(true) }

// Stop pauses the loop. The state stays as of the last completed turn.
func (e *Engine) Stop() bool { return e.running.Swap(false) }

// Running reports whether the loop advances turns.
func (e *Engine) Running() bool { return e.running.Load() }

// Tick is the number of the last completed turn.
func (e *Engine) Tick() int64 {
	e.mu.Lock()
	defer e.mu.Unlock()
	return e.tick
}

// Run advances a turn every interval while the loop is started.
// Returns when ctx is cancelled.
func (e *Engine) Run(ctx context.Context) error {
	ticker := time.NewTicker(e.opts.Interval)
	defer ticker.Stop()
	e.nextTick.Store(e.now().Add(e.opts.Interval).UnixNano())

	for {
		select {
		case <-ctx.Done():
			return ctx.Err()
		case <-ticker.C:
			e.nextTick.Store(e.now().Add(e.opts.Interval).UnixNano())
			if !e.running.Load() {
				continue
			}
			if err := e.Advance(ctx); err != nil {
				slog.Error("advance turn", "error", err)
			}
		}
	}
}

// untilTick is the time left before the next turn, negative when the loop
// is stopped.
func (e *Engine) untilTick() time.Duration {
	next := e.nextTick.Load()
	if !e.running.Load() || next == 0 {
		return -1
	}
	return max(time.Until(time.Unix(0, next)), 0)
}

// Advance resolves one turn, delivers its reports and saves the result.
func (e *Engine) Advance(ctx context.Context) error {
	if !e.ticking.CompareAndSwap(false, true) {
		return ErrTickInFlight
	}
	defer e.ticking.Store(false)
	e.mu.Lock()
	defer e.mu.Unlock()

	start := e.now()
	e.tick++
	out, active := e.resolve()
	e.flush(ctx, e.tick, out, active)

	if e.store != nil {
		if err := e.saveLocked(ctx); err != nil {
			slog.Error("save after turn", "tick", e.tick, "error", err)
		}
	}
	took := e.now().Sub(start)
	if e.index != nil {
		if err := e.index.RecordTick(e.tick, start, len(active), e.state.roster.Count(), took); err != nil {
			slog.Warn("record tick", "tick", e.tick, "error", err)
		}
	}
	slog.Info("tick complete",
		"tick", e.tick,
		"active", len(active),
		"npcs", e.state.roster.Count(),
		"duration", took)
	return nil
}

// report gathers one turn's lines per vessel and role.
type report map[string]map[model.Role][]string

func (r report) add(v *model.Vessel, msg string, roles ...model.Role) {
	if msg == "" {
		return
	}
	lines := r[v.Key()]
	if lines == nil {
		lines = make(map[model.Role][]string)
		r[v.Key()] = lines
	}
	for _, role := range roles {
		lines[role] = append(lines[role], msg)
	}
}

// guard runs fn and turns a panic into a log line so the rest of the
// phase can go on.
func guard(phase, entity string, fn func()) {
	defer func() {
		if p := recover(); p != nil {
			slog.Error("tick phase failed", "phase", phase, "entity", entity, "panic", p)
		}
	}()
	fn()
}

// resolve runs every phase in order. It returns the phase results and the
// vessels that were active at the start of the turn.
func (e *Engine) resolve() (report, map[string]*model.Vessel) {
	s := e.state
	out := make(report)
	var active []*model.Vessel
	for _, v := range s.Vessels() {
		if v.Active() {
			active = append(active, v)
		}
	}
	// A vessel that docks mid-turn sits out the remaining phases.
	each := func(phase string, fn func(v *model.Vessel)) {
		for _, v := range active {
			if !v.Active() {
				continue
			}
			guard(phase, v.Key(), func() { fn(v) })
		}
	}
	crew := model.CrewRoles

	each("emergency", func(v *model.Vessel) {
		if v.Power.Capacity() == 1 {
			out.add(v, "**EMERGENCY!!!** "+emergencies[s.rng.IntN(len(emergencies))], crew...)
		}
	})
	each("power", func(v *model.Vessel) {
		if msg, changed := v.Power.ApplySchedule(); changed {
			out.add(v, msg, model.RoleCaptain, model.RoleEngineer)
		}
	})
	each("weapons", func(v *model.Vessel) {
		out.add(v, s.FireWeapons(v), model.RoleCaptain)
	})
	for _, n := range s.roster.All() {
		if _, alive := s.roster.Get(n.ID); !alive {
			continue
		}
		guard("npc", n.Name(), func() {
			if err := s.registry.Tick(s, n); err != nil {
				slog.Error("npc tick", "npc", n.Name(), "error", err)
			}
		})
	}
	guard("world", "grid", s.grid.Tick)
	each("crane", func(v *model.Vessel) {
		out.add(v, v.Inventory.CraneTick(v, s.grid), model.RoleScientist)
	})
	each("movement", func(v *model.Vessel) {
		step := v.Movement.Tick(v, s.grid)
		if step == nil {
			return
		}
		out.add(v, step.Message, model.RoleCaptain)
		if name, ok := v.Inventory.TradePartner(); ok {
			partner, _ := s.Vessel(name)
			model.TimeoutTrade(v, partner)
		}
		v.Puzzles.OnStep(v, s.bank, s.rng)
		if step.Relocated() {
			out.add(v, strings.TrimSuffix(s.ScanReport(v), "\n"), model.RoleCaptain, model.RoleScientist)
		}
	})
	each("upgrades", func(v *model.Vessel) {
		v.Upgrades.Tick(v)
	})
	for _, v := range s.Vessels() {
		guard("damage", v.Key(), func() {
			out.add(v, v.Power.ResolveDamage(s.rng), crew...)
		})
	}

	byKey := make(map[string]*model.Vessel, len(active))
	for _, v := range active {
		byKey[v.Key()] = v
	}
	return out, byKey
}

const turnHeaderFormat = "---------**TURN %d**----------"

// flush assembles and delivers the turn's reports. Mailbox lines posted
// during the turn come after the phase results.
func (e *Engine) flush(ctx context.Context, tick int64, out report, active map[string]*model.Vessel) {
	header := fmt.Sprintf(turnHeaderFormat, tick)
	for _, v := range e.state.Vessels() {
		lines := out[v.Key()]
		if lines == nil {
			lines = make(map[model.Role][]string)
		}
		for role, text := range v.Mailbox().Drain() {
			lines[role] = append(lines[role], text)
		}
		if len(lines[model.RoleCaptain]) == 0 {
			switch _, wasActive := active[v.Key()]; {
			case v.Power.Destroyed():
				lines[model.RoleCaptain] = []string{"Your submarine is **dead** so nothing happened."}
			case !wasActive:
				lines[model.RoleCaptain] = []string{"Your submarine is deactivated so nothing happened."}
			default:
				lines[model.RoleCaptain] = []string{"Your submarine is active, but there is nothing to notify you about."}
			}
		}
		for _, role := range model.CrewRoles {
			if len(lines[role]) == 0 {
				continue
			}
			e.deliver(ctx, v, role, header+"\n"+strings.Join(lines[role], "\n"), tick)
		}
	}
	e.flushBulletin(ctx, tick)
}

// flushPending delivers messages produced outside a turn, such as command
// side effects, without a turn header.
func (e *Engine) flushPending(ctx context.Context) {
	for _, v := range e.state.Vessels() {
		for role, text := range v.Mailbox().Drain() {
			e.deliver(ctx, v, role, text, 0)
		}
	}
	e.flushBulletin(ctx, 0)
}

func (e *Engine) flushBulletin(ctx context.Context, tick int64) {
	control, news := e.state.bulletin.Drain()
	if len(control) > 0 {
		e.send(ctx, notify.Report{Role: string(model.RoleControl), Text: strings.Join(control, "\n"), Tick: tick})
	}
	if len(news) > 0 {
		e.send(ctx, notify.Report{Role: string(model.RoleNews), Text: strings.Join(news, "\n"), Tick: tick})
	}
}

func (e *Engine) deliver(ctx context.Context, v *model.Vessel, role model.Role, text string, tick int64) {
	channel, _ := v.Channel(role)
	e.send(ctx, notify.Report{Team: v.Key(), Role: string(role), Channel: channel, Text: text, Tick: tick})
}

func (e *Engine) send(ctx context.Context, r notify.Report) {
	if err := e.notifier.Notify(ctx, r); err != nil {
		slog.Warn("deliver report", "team", r.Team, "role", r.Role, "error", err)
	}
}

// Do runs fn against the state between turns and delivers whatever it
// posted. Returns ErrTickInFlight while a turn is resolving.
func (e *Engine) Do(ctx context.Context, fn func(s *State) error) error {
	if e.ticking.Load() {
		return ErrTickInFlight
	}
	e.mu.Lock()
	defer e.mu.Unlock()
	err := fn(e.state)
	e.flushPending(ctx)
	return err
}

// Save writes a snapshot of the current state.
func (e *Engine) Save(ctx context.Context) error {
	if e.ticking.Load() {
		return ErrTickInFlight
	}
	e.mu.Lock()
	defer e.mu.Unlock()
	return e.saveLocked(ctx)
}

func (e *Engine) saveLocked(ctx context.Context) error {
	if e.store == nil {
		return ErrNoStore
	}
	s := e.state
	snap := snapshot.New(e.tick, e.now(), s.grid, s.Vessels(), s.roster.All())
	if err := e.store.Save(ctx, snap); err != nil {
		return fmt.Errorf("save tick %d: %w", e.tick, err)
	}
	if e.index != nil {
		if err := e.index.RecordSave(snap.Revision, snap.Tick, snap.SavedAt, e.opts.Backend); err != nil {
			slog.Warn("record save", "revision", snap.Revision, "error", err)
		}
	}
	return nil
}

// Load restores part (all, world, vessels or npcs) of the offset-th newest
// save.
func (e *Engine) Load(ctx context.Context, part string, offset int) error {
	if e.ticking.Load() {
		return ErrTickInFlight
	}
	if part != snapshot.PartAll && part != snapshot.PartWorld &&
		part != snapshot.PartVessels && part != snapshot.PartNPCs {
		return fmt.Errorf("%w: %q", ErrUnknownPart, part)
	}
	if offset < 0 {
		return fmt.Errorf("%w: negative offset", model.ErrInvalidCommand)
	}
	e.mu.Lock()
	defer e.mu.Unlock()
	if e.store == nil {
		return ErrNoStore
	}
	snap, err := e.store.Load(ctx, offset)
	if errors.Is(err, snapshot.ErrNotFound) {
		return fmt.Errorf("%w: %d", ErrNoSave, offset)
	}
	if err != nil {
		return fmt.Errorf("load offset %d: %w", offset, err)
	}
	return e.apply(snap, part)
}

func (e *Engine) apply(snap *snapshot.Snapshot, part string) error {
	s := e.state
	want := func(p string) bool { return part == snapshot.PartAll || part == p }

	if want(snapshot.PartNPCs) && snap.Has(snapshot.PartNPCs) {
		if err := s.SetNPCs(snap.NPCs); err != nil {
			return err
		}
	}
	if want(snapshot.PartWorld) && snap.Has(snapshot.PartWorld) {
		snap.World.SetRand(s.rng)
		s.SetGrid(snap.World)
	}
	if want(snapshot.PartVessels) && snap.Has(snapshot.PartVessels) {
		s.SetVessels(snap.Vessels)
	}
	if part == snapshot.PartAll || part == snapshot.PartWorld {
		e.tick = max(e.tick, snap.Tick)
	}
	slog.Info("snapshot loaded", "part", part, "revision", snap.Revision, "tick", snap.Tick)
	return nil
}

// State returns the state for read-only inspection in tests.
func (e *Engine) State() *State { return e.state }
