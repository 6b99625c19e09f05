package game

import (
	"errors"
	"fmt"
	"strings"

	"github.com/udisondev/deepwatch/internal/model"
	"github.com/udisondev/deepwatch/internal/world"
)

// ErrTickInFlight is returned by commands and saves while a turn is being
// resolved. It belongs to neither command category: the caller should retry.
var ErrTickInFlight = errors.New("a turn is being resolved, try again shortly")

var (
	ErrUnknownVessel = fmt.Errorf("%w: no such team", model.ErrInvalidCommand)
	ErrUnknownNpc    = fmt.Errorf("%w: no such npc", model.ErrInvalidCommand)
	ErrBadHealth     = fmt.Errorf("%w: health must be positive", model.ErrInvalidCommand)
	ErrBadConfirm    = fmt.Errorf("%w: confirmation does not match the team name", model.ErrInvalidCommand)
	ErrUnknownPart   = fmt.Errorf("%w: load expects all, world, vessels or npcs", model.ErrInvalidCommand)

	ErrVesselExists  = fmt.Errorf("%w: team already exists", model.ErrPrecondition)
	ErrInactive      = fmt.Errorf("%w: submarine is not active", model.ErrPrecondition)
	ErrShocked       = fmt.Errorf("%w: submarine is shocked and cannot change power", model.ErrPrecondition)
	ErrCommsCooldown = fmt.Errorf("%w: comms are still recharging", model.ErrPrecondition)
	ErrNotDocked     = fmt.Errorf("%w: unable to leave the submarine", model.ErrPrecondition)
	ErrBlockedCell   = fmt.Errorf("%w: that cell cannot hold it", model.ErrPrecondition)
	ErrNoSave        = fmt.Errorf("%w: no save at that offset", model.ErrPrecondition)
	ErrNoStore       = fmt.Errorf("%w: no storage configured", model.ErrPrecondition)
	ErrNoMapService  = fmt.Errorf("%w: map service unavailable", model.ErrPrecondition)
)

// Result is what a command hands back to the command layer for display.
type Result struct {
	OK      bool   `json:"ok"`
	Message string `json:"message,omitempty"`
}

// Okay is a bare success.
func Okay() Result { return Result{OK: true} }

// Say is a success carrying text.
func Say(msg string) Result { return Result{OK: true, Message: msg} }

// Fail maps err to a failure result. Invalid commands get a bare failure
// marker and preconditions carry their description.
func Fail(err error) Result {
	switch {
	case err == nil:
		return Okay()
	case errors.Is(err, ErrTickInFlight):
		return Result{Message: "The turn is being resolved. Please try again in a moment."}
	case errors.Is(err, model.ErrPrecondition):
		return Result{Message: describe(err)}
	default:
		return Result{}
	}
}

// describe turns "precondition failed: not enough reactor capacity: comms"
// into "Not enough reactor capacity: comms."
func describe(err error) string {
	msg := strings.TrimPrefix(err.Error(), model.ErrPrecondition.Error()+": ")
	return world.Capitalize(msg) + "."
}
