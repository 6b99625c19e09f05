package gateway

import (
	"context"
	"fmt"
	"strconv"
	"strings"

	"github.com/udisondev/deepwatch/internal/game"
	"github.com/udisondev/deepwatch/internal/model"
)

var (
	ErrUnknownCommand = fmt.Errorf("%w: unknown command", model.ErrInvalidCommand)
	ErrNoTeam         = fmt.Errorf("%w: no team given", model.ErrInvalidCommand)
	ErrForbidden      = fmt.Errorf("%w: control commands need a control connection", model.ErrPrecondition)
)

// call runs a parsed command for team.
type call func(ctx context.Context, sv *game.Service, team string) game.Result

// handler parses args and returns the call to make. Parse failures are
// recorded on args and the call is never made.
type handler func(a *args) call

// dispatch runs frame f for a client with subscription sub.
func dispatch(ctx context.Context, sv *game.Service, sub subscription, f Frame) game.Result {
	name := strings.ToLower(strings.TrimSpace(f.Command))
	h, ok := playerCommands[name]
	team := sub.team
	if ok {
		if team == "" && sub.control {
			team = model.VesselKey(f.Team)
		}
		if team == "" {
			return game.Fail(ErrNoTeam)
		}
	} else {
		h, ok = controlCommands[name]
		if !ok {
			return game.Fail(ErrUnknownCommand)
		}
		if !sub.control {
			return game.Fail(ErrForbidden)
		}
		if f.Team != "" {
			team = model.VesselKey(f.Team)
		}
	}

	a := &args{list: f.Args}
	c := h(a)
	if a.err != nil {
		return game.Fail(fmt.Errorf("%w: %s: %w", model.ErrInvalidCommand, name, a.err))
	}
	return c(ctx, sv, team)
}

var playerCommands = map[string]handler{
	"setdir": func(a *args) call {
		dir := a.str(0)
		return func(ctx context.Context, sv *game.Service, team string) game.Result {
			return sv.SetDirection(ctx, team, dir)
		}
	},
	"power": func(a *args) call {
		systems := a.all()
		return func(ctx context.Context, sv *game.Service, team string) game.Result {
			return sv.Power(ctx, team, systems...)
		}
	},
	"unpower": func(a *args) call {
		systems := a.all()
		return func(ctx context.Context, sv *game.Service, team string) game.Result {
			return sv.Unpower(ctx, team, systems...)
		}
	},
	"broadcast": func(a *args) call {
		text := a.rest(0)
		return func(ctx context.Context, sv *game.Service, team string) game.Result {
			return sv.Broadcast(ctx, team, text)
		}
	},
	"shoot_damaging": shoot(true),
	"shoot_stunning": shoot(false),
	"crane": func(*args) call {
		return func(ctx context.Context, sv *game.Service, team string) game.Result {
			return sv.DropCrane(ctx, team)
		}
	},
	"drop": func(a *args) call {
		item := a.rest(0)
		return func(ctx context.Context, sv *game.Service, team string) game.Result {
			return sv.Drop(ctx, team, item)
		}
	},
	"trade": func(a *args) call {
		partner := a.str(0)
		items := a.items(1)
		return func(ctx context.Context, sv *game.Service, team string) game.Result {
			return sv.Trade(ctx, team, partner, items)
		}
	},
	"offer": func(a *args) call {
		items := a.items(0)
		return func(ctx context.Context, sv *game.Service, team string) game.Result {
			return sv.Offer(ctx, team, items)
		}
	},
	"accept_trade": func(*args) call {
		return func(ctx context.Context, sv *game.Service, team string) game.Result {
			return sv.Accept(ctx, team)
		}
	},
	"reject_trade": func(*args) call {
		return func(ctx context.Context, sv *game.Service, team string) game.Result {
			return sv.Reject(ctx, team)
		}
	},
	"interact": func(a *args) call {
		arg := a.optStr(0, "")
		return func(ctx context.Context, sv *game.Service, team string) game.Result {
			return sv.Interact(ctx, team, arg)
		}
	},
	"puzzle": func(*args) call {
		return func(ctx context.Context, sv *game.Service, team string) game.Result {
			return sv.Puzzle(ctx, team)
		}
	},
	"answer": func(a *args) call {
		answer := a.rest(0)
		return func(ctx context.Context, sv *game.Service, team string) game.Result {
			return sv.Answer(ctx, team, answer)
		}
	},
	"status": func(*args) call {
		return func(ctx context.Context, sv *game.Service, team string) game.Result {
			return sv.Status(ctx, team)
		}
	},
	"scan": func(*args) call {
		return func(ctx context.Context, sv *game.Service, team string) game.Result {
			return sv.Scan(ctx, team)
		}
	},
	"death": func(a *args) call {
		confirm := a.rest(0)
		return func(ctx context.Context, sv *game.Service, team string) game.Result {
			return sv.Death(ctx, team, confirm)
		}
	},
	"activate":   activation(true),
	"deactivate": activation(false),
	"exit_sub": func(*args) call {
		return func(ctx context.Context, sv *game.Service, team string) game.Result {
			return sv.ExitSub(ctx, team)
		}
	},
	"map": func(*args) call {
		return func(ctx context.Context, sv *game.Service, team string) game.Result {
			return sv.Map(ctx, team, "")
		}
	},
}

var controlCommands = map[string]handler{
	"register": func(a *args) call {
		x, y := a.optInt(0, 0), a.optInt(1, 0)
		return func(ctx context.Context, sv *game.Service, team string) game.Result {
			if team == "" {
				return game.Fail(ErrNoTeam)
			}
			return sv.Register(ctx, team, defaultChannels(team), x, y)
		}
	},
	"kill_team": func(*args) call {
		return func(ctx context.Context, sv *game.Service, team string) game.Result {
			return sv.KillTeam(ctx, team)
		}
	},
	"teleport": func(a *args) call {
		x, y := a.num(0), a.num(1)
		return func(ctx context.Context, sv *game.Service, team string) game.Result {
			return sv.Teleport(ctx, team, x, y)
		}
	},
	"explode": func(a *args) call {
		x, y, power := a.num(0), a.num(1), a.num(2)
		return func(ctx context.Context, sv *game.Service, _ string) game.Result {
			return sv.Explode(ctx, x, y, power)
		}
	},
	"damage": func(a *args) call {
		amount, reason := a.num(0), a.rest(1)
		return func(ctx context.Context, sv *game.Service, team string) game.Result {
			return sv.Damage(ctx, team, amount, reason)
		}
	},
	"heal": func(a *args) call {
		amount, reason := a.num(0), a.rest(1)
		return func(ctx context.Context, sv *game.Service, team string) game.Result {
			return sv.Heal(ctx, team, amount, reason)
		}
	},
	"give": func(a *args) call {
		item, qty := a.str(0), a.optInt(1, 1)
		return func(ctx context.Context, sv *game.Service, team string) game.Result {
			return sv.Give(ctx, team, item, qty)
		}
	},
	"take": func(a *args) call {
		item, qty := a.str(0), a.optInt(1, 1)
		return func(ctx context.Context, sv *game.Service, team string) game.Result {
			return sv.Take(ctx, team, item, qty)
		}
	},
	"pay": func(a *args) call {
		amount := a.num(0)
		return func(ctx context.Context, sv *game.Service, team string) game.Result {
			return sv.Pay(ctx, team, amount)
		}
	},
	"get_paid": func(a *args) call {
		amount := a.num(0)
		return func(ctx context.Context, sv *game.Service, team string) game.Result {
			return sv.GetPaid(ctx, team, amount)
		}
	},
	"force_puzzle": func(*args) call {
		return func(ctx context.Context, sv *game.Service, team string) game.Result {
			return sv.ForcePuzzle(ctx, team)
		}
	},
	"control_message": func(a *args) call {
		text := a.rest(0)
		return func(ctx context.Context, sv *game.Service, team string) game.Result {
			return sv.ControlMessage(ctx, team, text)
		}
	},
	"upgrade": func(a *args) call {
		amount := a.num(0)
		return func(ctx context.Context, sv *game.Service, team string) game.Result {
			return sv.UpgradeReactor(ctx, team, amount)
		}
	},
	"upgrade_system": func(a *args) call {
		system, amount := a.str(0), a.num(1)
		return func(ctx context.Context, sv *game.Service, team string) game.Result {
			return sv.UpgradeSystem(ctx, team, system, amount)
		}
	},
	"upgrade_innate": func(a *args) call {
		system, amount := a.str(0), a.num(1)
		return func(ctx context.Context, sv *game.Service, team string) game.Result {
			return sv.UpgradeInnate(ctx, team, system, amount)
		}
	},
	"install_system": func(a *args) call {
		system := a.str(0)
		return func(ctx context.Context, sv *game.Service, team string) game.Result {
			return sv.InstallSystem(ctx, team, system)
		}
	},
	"install_keyword": func(a *args) call {
		keyword, turns, damage := a.str(0), a.optInt(1, 0), a.optInt(2, 1)
		return func(ctx context.Context, sv *game.Service, team string) game.Result {
			return sv.InstallKeyword(ctx, team, keyword, turns, damage)
		}
	},
	"uninstall_keyword": func(a *args) call {
		keyword := a.str(0)
		return func(ctx context.Context, sv *game.Service, team string) game.Result {
			return sv.UninstallKeyword(ctx, team, keyword)
		}
	},
	"bury": func(a *args) call {
		treasure, x, y := a.str(0), a.num(1), a.num(2)
		return func(ctx context.Context, sv *game.Service, _ string) game.Result {
			return sv.Bury(ctx, treasure, x, y)
		}
	},
	"add_attribute": func(a *args) call {
		key, value, x, y := a.str(0), a.str(1), a.num(2), a.num(3)
		return func(ctx context.Context, sv *game.Service, _ string) game.Result {
			return sv.AddAttribute(ctx, x, y, key, value)
		}
	},
	"remove_attribute": func(a *args) call {
		key, x, y := a.str(0), a.num(1), a.num(2)
		return func(ctx context.Context, sv *game.Service, _ string) game.Result {
			return sv.RemoveAttribute(ctx, x, y, key)
		}
	},
	"add_npc": func(a *args) call {
		kind, x, y, owner := a.str(0), a.num(1), a.num(2), a.optStr(3, "")
		return func(ctx context.Context, sv *game.Service, _ string) game.Result {
			return sv.AddNPC(ctx, kind, x, y, owner)
		}
	},
	"remove_npc": func(a *args) call {
		id, rattle := a.num(0), a.optBool(1, true)
		return func(ctx context.Context, sv *game.Service, _ string) game.Result {
			return sv.RemoveNPC(ctx, id, rattle)
		}
	},
	"npc_types": func(*args) call {
		return func(ctx context.Context, sv *game.Service, _ string) game.Result {
			return sv.NPCTypes(ctx)
		}
	},
	"mutate": func(a *args) call {
		id, health := a.num(0), a.num(1)
		return func(ctx context.Context, sv *game.Service, _ string) game.Result {
			return sv.Mutate(ctx, id, health)
		}
	},
	"zoom": func(a *args) call {
		x, y := a.num(0), a.num(1)
		return func(ctx context.Context, sv *game.Service, _ string) game.Result {
			return sv.Zoom(ctx, x, y)
		}
	},
	"mapall": func(a *args) call {
		opts := strings.Join(a.all(), "")
		return func(ctx context.Context, sv *game.Service, _ string) game.Result {
			return sv.Map(ctx, "", opts)
		}
	},
	"save": func(*args) call {
		return func(ctx context.Context, sv *game.Service, _ string) game.Result {
			return sv.Save(ctx)
		}
	},
	"load": func(a *args) call {
		part, offset := a.optStr(0, "all"), a.optInt(1, 0)
		return func(ctx context.Context, sv *game.Service, _ string) game.Result {
			return sv.Load(ctx, part, offset)
		}
	},
	"startloop": func(*args) call {
		return func(ctx context.Context, sv *game.Service, _ string) game.Result {
			return sv.StartLoop(ctx)
		}
	},
	"stoploop": func(*args) call {
		return func(ctx context.Context, sv *game.Service, _ string) game.Result {
			return sv.StopLoop(ctx)
		}
	},
}

func shoot(damaging bool) handler {
	return func(a *args) call {
		x, y := a.num(0), a.num(1)
		return func(ctx context.Context, sv *game.Service, team string) game.Result {
			return sv.Shoot(ctx, team, x, y, damaging)
		}
	}
}

func activation(on bool) handler {
	return func(*args) call {
		return func(ctx context.Context, sv *game.Service, team string) game.Result {
			return sv.Activate(ctx, team, on)
		}
	}
}

// defaultChannels names each crew channel after the team.
func defaultChannels(team string) map[model.Role]string {
	out := make(map[model.Role]string, len(model.CrewRoles))
	for _, r := range model.CrewRoles {
		out[r] = team + "-" + string(r)
	}
	return out
}

// args reads positional command arguments, keeping the first error.
type args struct {
	list []string
	err  error
}

func (a *args) fail(format string, v ...any) {
	if a.err == nil {
		a.err = fmt.Errorf(format, v...)
	}
}

func (a *args) str(i int) string {
	if i >= len(a.list) {
		a.fail("missing argument %d", i+1)
		return ""
	}
	return a.list[i]
}

func (a *args) optStr(i int, def string) string {
	if i >= len(a.list) {
		return def
	}
	return a.list[i]
}

func (a *args) num(i int) int {
	s := a.str(i)
	if a.err != nil {
		return 0
	}
	n, err := strconv.Atoi(s)
	if err != nil {
		a.fail("argument %d: %q is not a number", i+1, s)
	}
	return n
}

func (a *args) optInt(i, def int) int {
	if i >= len(a.list) {
		return def
	}
	return a.num(i)
}

func (a *args) optBool(i int, def bool) bool {
	if i >= len(a.list) {
		return def
	}
	b, err := strconv.ParseBool(a.list[i])
	if err != nil {
		a.fail("argument %d: %q is not a boolean", i+1, a.list[i])
	}
	return b
}

// all returns every argument.
func (a *args) all() []string {
	return a.list
}

// rest joins the arguments from i on with spaces.
func (a *args) rest(i int) string {
	if i >= len(a.list) {
		return ""
	}
	return strings.Join(a.list[i:], " ")
}

// items reads "item quantity" pairs from i on.
func (a *args) items(i int) []model.ItemCount {
	tail := a.list[min(i, len(a.list)):]
	if len(tail)%2 != 0 {
		a.fail("items come in item and quantity pairs")
		return nil
	}
	out := make([]model.ItemCount, 0, len(tail)/2)
	for j := 0; j < len(tail); j += 2 {
		n, err := strconv.Atoi(tail[j+1])
		if err != nil {
			a.fail("quantity %q is not a number", tail[j+1])
			return nil
		}
		out = append(out, model.ItemCount{Item: tail[j], Quantity: n})
	}
	return out
}
