package game

import (
	"context"
	"errors"
	"fmt"
	"log/slog"
	"strings"

	"github.com/udisondev/deepwatch/internal/maprender"
	"github.com/udisondev/deepwatch/internal/model"
	"github.com/udisondev/deepwatch/internal/world"
)

// MapPublisher uploads a rendered map and returns where it can be viewed.
type MapPublisher interface {
	Publish(ctx context.Context, m maprender.Map) (string, error)
}

// Service is the command surface. Every method is one command and returns
// the text shown to whoever issued it.
type Service struct {
	engine *Engine
	maps   MapPublisher
}

// NewService creates the command surface over engine. maps may be nil.
func NewService(engine *Engine, maps MapPublisher) *Service {
	return &Service{engine: engine, maps: maps}
}

// Engine returns the engine the service drives.
func (sv *Service) Engine() *Engine { return sv.engine }

func (sv *Service) run(ctx context.Context, fn func(st *State) (string, error)) Result {
	var msg string
	err := sv.engine.Do(ctx, func(st *State) error {
		var err error
		msg, err = fn(st)
		return err
	})
	if err != nil {
		if !errors.Is(err, ErrTickInFlight) {
			slog.Debug("command failed", "error", err)
		}
		return Fail(err)
	}
	if msg == "" {
		return Okay()
	}
	return Say(msg)
}

func (sv *Service) withVessel(ctx context.Context, team string, fn func(st *State, v *model.Vessel) (string, error)) Result {
	return sv.run(ctx, func(st *State) (string, error) {
		v, err := st.Vessel(team)
		if err != nil {
			return "", err
		}
		return fn(st, v)
	})
}

// --- Player commands ---

// SetDirection points the vessel toward a compass direction.
func (sv *Service) SetDirection(ctx context.Context, team, direction string) Result {
	return sv.withVessel(ctx, team, func(_ *State, v *model.Vessel) (string, error) {
		d, err := world.ParseDirection(direction)
		if err != nil {
			return "", fmt.Errorf("%w: %w", model.ErrInvalidCommand, err)
		}
		return "", v.Movement.SetDirection(d)
	})
}

// Power schedules one extra point of power for each named system.
func (sv *Service) Power(ctx context.Context, team string, systems ...string) Result {
	return sv.withVessel(ctx, team, func(_ *State, v *model.Vessel) (string, error) {
		if v.Upgrades.Has(model.UpgradeShocked) {
			return "", ErrShocked
		}
		return "", v.Power.Schedule(systems...)
	})
}

// Unpower schedules one point less for each named system.
func (sv *Service) Unpower(ctx context.Context, team string, systems ...string) Result {
	return sv.withVessel(ctx, team, func(_ *State, v *model.Vessel) (string, error) {
		if v.Upgrades.Has(model.UpgradeShocked) {
			return "", ErrShocked
		}
		return "", v.Power.Unschedule(systems...)
	})
}

// Broadcast sends a message to everyone, garbled by distance.
func (sv *Service) Broadcast(ctx context.Context, team, text string) Result {
	opts := sv.engine.opts
	return sv.withVessel(ctx, team, func(st *State, v *model.Vessel) (string, error) {
		if err := st.Broadcast(v, text, sv.engine.now(), opts.CommsCooldown, opts.Garble); err != nil {
			return "", err
		}
		return "Message broadcast!", nil
	})
}

// Shoot plans a damaging or stunning shot at (x, y) for the next turn.
func (sv *Service) Shoot(ctx context.Context, team string, x, y int, damaging bool) Result {
	return sv.withVessel(ctx, team, func(st *State, v *model.Vessel) (string, error) {
		return v.Weapons.Prepare(v.Position(), st.grid, world.Point{X: x, Y: y}, damaging)
	})
}

// DropCrane lowers the crane at the next turn.
func (sv *Service) DropCrane(ctx context.Context, team string) Result {
	return sv.withVessel(ctx, team, func(_ *State, v *model.Vessel) (string, error) {
		return v.Inventory.DropCrane(v)
	})
}

// Drop buries one unit of item where the vessel is.
func (sv *Service) Drop(ctx context.Context, team, item string) Result {
	return sv.withVessel(ctx, team, func(st *State, v *model.Vessel) (string, error) {
		return v.Inventory.Drop(st.grid, v.Position(), item)
	})
}

// Trade opens a trade with partner.
func (sv *Service) Trade(ctx context.Context, team, partner string, items []model.ItemCount) Result {
	return sv.withVessel(ctx, team, func(st *State, v *model.Vessel) (string, error) {
		p, err := st.Vessel(partner)
		if err != nil {
			return "", err
		}
		return model.BeginTrade(v, p, items)
	})
}

func (sv *Service) withPartner(ctx context.Context, team string, fn func(v, p *model.Vessel) (string, error)) Result {
	return sv.withVessel(ctx, team, func(st *State, v *model.Vessel) (string, error) {
		name, ok := v.Inventory.TradePartner()
		if !ok {
			return "", model.ErrNoTrade
		}
		p, err := st.Vessel(name)
		if err != nil {
			return "", model.ErrNoTrade
		}
		return fn(v, p)
	})
}

// Offer makes a counteroffer in the open trade.
func (sv *Service) Offer(ctx context.Context, team string, items []model.ItemCount) Result {
	return sv.withPartner(ctx, team, func(v, p *model.Vessel) (string, error) {
		return model.MakeOffer(v, p, items)
	})
}

// Accept accepts the open trade.
func (sv *Service) Accept(ctx context.Context, team string) Result {
	return sv.withPartner(ctx, team, model.AcceptTrade)
}

// Reject cancels the open trade.
func (sv *Service) Reject(ctx context.Context, team string) Result {
	return sv.withPartner(ctx, team, model.RejectTrade)
}

// Interact talks to every NPC in the vessel's cell that its scanners can
// make out.
func (sv *Service) Interact(ctx context.Context, team, arg string) Result {
	return sv.withVessel(ctx, team, func(st *State, v *model.Vessel) (string, error) {
		scanners := v.PowerOf(model.SystemScanners)
		var b strings.Builder
		for _, n := range st.NPCsAt(v.Position()) {
			if scanners < n.Stealth {
				continue
			}
			if msg := st.registry.Interact(st, n, v, arg); msg != "" {
				fmt.Fprintf(&b, "Interaction with **%s**: %s\n", n.Name(), msg)
			}
		}
		if b.Len() == 0 {
			return "Nothing to report.", nil
		}
		return strings.TrimSuffix(b.String(), "\n"), nil
	})
}

// Puzzle asks for a repair puzzle, which heals on a correct answer.
func (sv *Service) Puzzle(ctx context.Context, team string) Result {
	return sv.withVessel(ctx, team, func(st *State, v *model.Vessel) (string, error) {
		return "", v.Puzzles.Send(v, st.bank, model.ReasonRepair)
	})
}

// Answer answers the open puzzle.
func (sv *Service) Answer(ctx context.Context, team, answer string) Result {
	return sv.withVessel(ctx, team, func(st *State, v *model.Vessel) (string, error) {
		if !v.Puzzles.Resolve(v, st.bank, answer, false) {
			return "", model.ErrNoPuzzle
		}
		return "", nil
	})
}

// Status reports the vessel's full status.
func (sv *Service) Status(ctx context.Context, team string) Result {
	return sv.withVessel(ctx, team, func(st *State, v *model.Vessel) (string, error) {
		return v.Status(st.grid, sv.engine.untilTick(), sv.engine.opts.Interval), nil
	})
}

// Scan repeats the vessel's last scan.
func (sv *Service) Scan(ctx context.Context, team string) Result {
	return sv.withVessel(ctx, team, func(_ *State, v *model.Vessel) (string, error) {
		if prev := v.Scan.Previous(); prev != "" {
			return prev, nil
		}
		return "Nothing to report.", nil
	})
}

// Death queues damage equal to the vessel's capacity. confirm must repeat
// the team name.
func (sv *Service) Death(ctx context.Context, team, confirm string) Result {
	return sv.withVessel(ctx, team, func(_ *State, v *model.Vessel) (string, error) {
		if model.VesselKey(confirm) != v.Key() {
			return "", ErrBadConfirm
		}
		v.Damage(v.Power.Capacity())
		v.SendAll("Submarine took catastrophic damage and will die on next game loop.")
		return "", nil
	})
}

// Activate turns the vessel on or off.
func (sv *Service) Activate(ctx context.Context, team string, on bool) Result {
	return sv.withVessel(ctx, team, func(_ *State, v *model.Vessel) (string, error) {
		if v.Active() == on {
			return fmt.Sprintf("%s activation unchanged.", v.Name()), nil
		}
		v.Power.Activate(on)
		if on {
			v.SendAll(fmt.Sprintf("%s is **ON** and running! Current direction: **%s**.", v.Name(), v.Movement.Direction()))
		} else {
			v.SendAll(fmt.Sprintf("%s is **OFF** and halted!", v.Name()))
		}
		return "", nil
	})
}

// ExitSub lets the crew leave at a docking station.
func (sv *Service) ExitSub(ctx context.Context, team string) Result {
	return sv.withVessel(ctx, team, func(st *State, v *model.Vessel) (string, error) {
		c := st.grid.Cell(v.Position())
		name, ok := c.DockedAt()
		if !ok {
			return "", ErrNotDocked
		}
		v.SendAll(fmt.Sprintf("Team has left submarine at **%s**. Submarine is now off if it wasn't already. You will be automatically returned when the submarine is turned back on.", world.Title(name)))
		v.Power.Activate(false)
		return "Successfully left the submarine.", nil
	})
}

// Map renders the world for one team, or for every team when team is
// empty, and returns the viewer URL.
func (sv *Service) Map(ctx context.Context, team, options string) Result {
	if sv.maps == nil {
		return Fail(ErrNoMapService)
	}
	var m maprender.Map
	res := sv.run(ctx, func(st *State) (string, error) {
		vessels := st.Vessels()
		opts := world.AllMapOptions
		if options != "" {
			opts = maprender.FilterOptions(options)
		}
		if team != "" {
			v, err := st.Vessel(team)
			if err != nil {
				return "", err
			}
			vessels = []*model.Vessel{v}
			opts = maprender.DefaultOptions
		}
		m = maprender.Render(st.grid, vessels, st.NPCs(), opts)
		return "", nil
	})
	if !res.OK {
		return res
	}
	url, err := sv.maps.Publish(ctx, m)
	if err != nil {
		slog.Warn("publish map", "team", team, "error", err)
		return Fail(err)
	}
	return Say("The map is visible here: " + url)
}

// --- Control commands ---

// Register creates a team at (x, y) with its crew delivery channels.
func (sv *Service) Register(ctx context.Context, team string, channels map[model.Role]string, x, y int) Result {
	return sv.run(ctx, func(st *State) (string, error) {
		v, err := st.Register(team, channels, world.Point{X: x, Y: y})
		if err != nil {
			return "", err
		}
		v.SendAll(fmt.Sprintf("Channel registered for sub **%s**.", v.Name()))
		slog.Info("team registered", "team", v.Key(), "pos", v.Position())
		return "", nil
	})
}

// KillTeam deletes a team.
func (sv *Service) KillTeam(ctx context.Context, team string) Result {
	return sv.run(ctx, func(st *State) (string, error) {
		return "", st.Delete(team)
	})
}

// Teleport moves a vessel without telling it. Only the world bounds are
// checked.
func (sv *Service) Teleport(ctx context.Context, team string, x, y int) Result {
	return sv.withVessel(ctx, team, func(st *State, v *model.Vessel) (string, error) {
		p := world.Point{X: x, Y: y}
		if !st.grid.InWorld(p) {
			return "", fmt.Errorf("%w: %w: %s", model.ErrInvalidCommand, world.ErrOutOfWorld, p)
		}
		v.Movement.SetPosition(p)
		return "", nil
	})
}

// Explode sets off an explosion of power at (x, y).
func (sv *Service) Explode(ctx context.Context, x, y, power int) Result {
	return sv.run(ctx, func(st *State) (string, error) {
		st.Explode(world.Point{X: x, Y: y}, power)
		return "", nil
	})
}

// Damage queues damage for the next turn, telling the crew why.
func (sv *Service) Damage(ctx context.Context, team string, amount int, reason string) Result {
	return sv.withVessel(ctx, team, func(_ *State, v *model.Vessel) (string, error) {
		if amount <= 0 {
			return "", model.ErrBadQuantity
		}
		v.Damage(amount)
		if reason != "" {
			v.SendAll(reason)
		}
		return "", nil
	})
}

// Heal restores capacity.
func (sv *Service) Heal(ctx context.Context, team string, amount int, reason string) Result {
	return sv.withVessel(ctx, team, func(_ *State, v *model.Vessel) (string, error) {
		if amount <= 0 {
			return "", model.ErrBadQuantity
		}
		v.Power.Heal(amount)
		if reason != "" {
			v.SendAll(reason)
		}
		return "", nil
	})
}

// Give adds items to a team's inventory.
func (sv *Service) Give(ctx context.Context, team, item string, quantity int) Result {
	return sv.withVessel(ctx, team, func(_ *State, v *model.Vessel) (string, error) {
		if err := v.Inventory.Add(item, quantity); err != nil {
			return "", err
		}
		v.Send(model.RoleCaptain, fmt.Sprintf("Obtained %dx %s!", quantity, world.Title(item)))
		return "", nil
	})
}

// Take removes items from a team's inventory.
func (sv *Service) Take(ctx context.Context, team, item string, quantity int) Result {
	return sv.withVessel(ctx, team, func(_ *State, v *model.Vessel) (string, error) {
		if err := v.Inventory.Remove(item, quantity); err != nil {
			return "", err
		}
		v.Send(model.RoleCaptain, fmt.Sprintf("Lost %dx %s!", quantity, world.Title(item)))
		return "", nil
	})
}

// Pay gives a team currency.
func (sv *Service) Pay(ctx context.Context, team string, amount int) Result {
	return sv.Give(ctx, team, model.Currency, amount)
}

// GetPaid takes currency from a team.
func (sv *Service) GetPaid(ctx context.Context, team string, amount int) Result {
	return sv.Take(ctx, team, model.Currency, amount)
}

// ForcePuzzle sends a fixing puzzle, which costs damage if missed.
func (sv *Service) ForcePuzzle(ctx context.Context, team string) Result {
	return sv.withVessel(ctx, team, func(st *State, v *model.Vessel) (string, error) {
		return "", v.Puzzles.Send(v, st.bank, model.ReasonFixing)
	})
}

// ControlMessage sends text to every crew channel of a team, ungarbled.
func (sv *Service) ControlMessage(ctx context.Context, team, text string) Result {
	return sv.withVessel(ctx, team, func(_ *State, v *model.Vessel) (string, error) {
		v.SendAll(text)
		return "", nil
	})
}

func upgraded(v *model.Vessel, what string) {
	v.Send(model.RoleEngineer, fmt.Sprintf("Submarine **%s** was upgraded! %s", v.Name(), what))
}

// UpgradeReactor changes the reactor's maximum capacity.
func (sv *Service) UpgradeReactor(ctx context.Context, team string, amount int) Result {
	return sv.withVessel(ctx, team, func(_ *State, v *model.Vessel) (string, error) {
		if err := v.Power.ModifyReactor(amount); err != nil {
			return "", err
		}
		upgraded(v, fmt.Sprintf("Power cap increased by %d.", amount))
		return "", nil
	})
}

// UpgradeSystem changes a system's maximum power.
func (sv *Service) UpgradeSystem(ctx context.Context, team, system string, amount int) Result {
	return sv.withVessel(ctx, team, func(_ *State, v *model.Vessel) (string, error) {
		if err := v.Power.ModifySystem(system, amount); err != nil {
			return "", err
		}
		upgraded(v, fmt.Sprintf("**%s** max power increased by %d.", world.Title(system), amount))
		return "", nil
	})
}

// UpgradeInnate changes a system's innate power.
func (sv *Service) UpgradeInnate(ctx context.Context, team, system string, amount int) Result {
	return sv.withVessel(ctx, team, func(_ *State, v *model.Vessel) (string, error) {
		if err := v.Power.ModifyInnate(system, amount); err != nil {
			return "", err
		}
		upgraded(v, fmt.Sprintf("**%s** innate power increased by %d.", world.Title(system), amount))
		return "", nil
	})
}

// InstallSystem adds a new power system.
func (sv *Service) InstallSystem(ctx context.Context, team, system string) Result {
	return sv.withVessel(ctx, team, func(_ *State, v *model.Vessel) (string, error) {
		system = strings.ToLower(strings.TrimSpace(system))
		if system == "" {
			return "", model.ErrUnknownSystem
		}
		if err := v.Power.AddSystem(system); err != nil {
			return "", err
		}
		upgraded(v, fmt.Sprintf("New system **%s** was installed.", system))
		return "", nil
	})
}

// InstallKeyword grants an upgrade keyword. With turns > 0 it expires after
// that many turns and deals damage.
func (sv *Service) InstallKeyword(ctx context.Context, team, keyword string, turns, damage int) Result {
	return sv.withVessel(ctx, team, func(_ *State, v *model.Vessel) (string, error) {
		msg, err := v.Upgrades.Add(keyword, turns, damage)
		if err != nil {
			return "", err
		}
		v.Send(model.RoleEngineer, fmt.Sprintf("Submarine **%s** was upgraded with the keyword **%s**!", v.Name(), strings.ToLower(keyword)))
		return msg, nil
	})
}

// UninstallKeyword removes an upgrade keyword.
func (sv *Service) UninstallKeyword(ctx context.Context, team, keyword string) Result {
	return sv.withVessel(ctx, team, func(_ *State, v *model.Vessel) (string, error) {
		keyword = strings.ToLower(strings.TrimSpace(keyword))
		if !v.Upgrades.Remove(keyword) {
			return "", fmt.Errorf("%w: %s", model.ErrUnknownKeyword, keyword)
		}
		v.Send(model.RoleEngineer, fmt.Sprintf("Submarine **%s** was downgraded, as keyword **%s** was removed.", v.Name(), keyword))
		return "", nil
	})
}

// Bury hides a treasure at (x, y).
func (sv *Service) Bury(ctx context.Context, treasure string, x, y int) Result {
	return sv.run(ctx, func(st *State) (string, error) {
		p := world.Point{X: x, Y: y}
		if !st.grid.Bury(p, model.NormalizeItem(treasure)) {
			return "", fmt.Errorf("%w: %w: %s", model.ErrInvalidCommand, world.ErrOutOfWorld, p)
		}
		return "", nil
	})
}

// AddAttribute sets a cell attribute.
func (sv *Service) AddAttribute(ctx context.Context, x, y int, key, value string) Result {
	return sv.run(ctx, func(st *State) (string, error) {
		c, err := st.grid.MustCell(world.Point{X: x, Y: y})
		if err != nil {
			return "", fmt.Errorf("%w: %w", model.ErrInvalidCommand, err)
		}
		changed, err := c.AddAttribute(key, value)
		if err != nil {
			return "", fmt.Errorf("%w: %w", model.ErrInvalidCommand, err)
		}
		if !changed {
			return "", fmt.Errorf("%w: %s already set", model.ErrInvalidCommand, key)
		}
		return "", nil
	})
}

// RemoveAttribute clears a cell attribute.
func (sv *Service) RemoveAttribute(ctx context.Context, x, y int, key string) Result {
	return sv.run(ctx, func(st *State) (string, error) {
		c, err := st.grid.MustCell(world.Point{X: x, Y: y})
		if err != nil {
			return "", fmt.Errorf("%w: %w", model.ErrInvalidCommand, err)
		}
		changed, err := c.RemoveAttribute(key)
		if err != nil {
			return "", fmt.Errorf("%w: %w", model.ErrInvalidCommand, err)
		}
		if !changed {
			return "", fmt.Errorf("%w: %s not set", model.ErrInvalidCommand, key)
		}
		return "", nil
	})
}

// AddNPC spawns an NPC, optionally owned by a team.
func (sv *Service) AddNPC(ctx context.Context, kind string, x, y int, owner string) Result {
	return sv.run(ctx, func(st *State) (string, error) {
		n, err := st.Spawn(strings.ToLower(kind), world.Point{X: x, Y: y}, owner)
		if err != nil {
			return "", err
		}
		return fmt.Sprintf("Created NPC #%d of type %s!", n.ID, n.TypeName), nil
	})
}

// RemoveNPC removes an NPC, running its death hook when rattle is set.
func (sv *Service) RemoveNPC(ctx context.Context, id int, rattle bool) Result {
	return sv.run(ctx, func(st *State) (string, error) {
		return "", st.Kill(id, rattle)
	})
}

// NPCTypes lists the NPC type tags.
func (sv *Service) NPCTypes(ctx context.Context) Result {
	return sv.run(ctx, func(st *State) (string, error) {
		return fmt.Sprintf("Possible NPC types: %s.", world.JoinAnd(st.registry.Kinds())), nil
	})
}

// Mutate sets an NPC's health.
func (sv *Service) Mutate(ctx context.Context, id, health int) Result {
	return sv.run(ctx, func(st *State) (string, error) {
		if health <= 0 {
			return "", ErrBadHealth
		}
		n, err := st.NPC(id)
		if err != nil {
			return "", err
		}
		n.Health = health
		return "", nil
	})
}

// Zoom reports everything about one cell and the vessels in it.
func (sv *Service) Zoom(ctx context.Context, x, y int) Result {
	return sv.run(ctx, func(st *State) (string, error) {
		p := world.Point{X: x, Y: y}
		c, err := st.grid.MustCell(p)
		if err != nil {
			return "", fmt.Errorf("%w: %w", model.ErrInvalidCommand, err)
		}
		var b strings.Builder
		fmt.Fprintf(&b, "Report for square **%s**\n%s\n\n", p, c.Status())
		for _, v := range st.VesselsAt(p) {
			b.WriteString(v.Status(st.grid, sv.engine.untilTick(), sv.engine.opts.Interval))
			b.WriteString("\n\n")
		}
		return b.String(), nil
	})
}

// Save writes a snapshot now.
func (sv *Service) Save(ctx context.Context) Result {
	return Fail(sv.engine.Save(ctx))
}

// Load restores part of the offset-th newest save.
func (sv *Service) Load(ctx context.Context, part string, offset int) Result {
	return Fail(sv.engine.Load(ctx, part, offset))
}

// StartLoop starts the turn loop.
func (sv *Service) StartLoop(context.Context) Result {
	if !sv.engine.Start() {
		return Say("The game loop is already running.")
	}
	slog.Info("game loop started")
	return Okay()
}

// StopLoop pauses the turn loop.
func (sv *Service) StopLoop(context.Context) Result {
	if !sv.engine.Stop() {
		return Say("The game loop is not running.")
	}
	slog.Info("game loop stopped")
	return Okay()
}
