package model

import (
	"errors"
	"fmt"
)

// Category errors. Every command failure wraps exactly one of these.
var (
	// ErrInvalidCommand: malformed input. Shown as a bare failure marker.
	ErrInvalidCommand = errors.New("invalid command")
	// ErrPrecondition: well-formed but not possible right now.
	ErrPrecondition = errors.New("precondition failed")
)

var (
	ErrUnknownSystem  = fmt.Errorf("%w: unknown system", ErrInvalidCommand)
	ErrUnknownItem    = fmt.Errorf("%w: unknown item", ErrInvalidCommand)
	ErrBadQuantity    = fmt.Errorf("%w: quantity must be positive", ErrInvalidCommand)
	ErrUnknownKeyword = fmt.Errorf("%w: unknown upgrade", ErrInvalidCommand)

	ErrOverCapacity   = fmt.Errorf("%w: not enough reactor capacity", ErrPrecondition)
	ErrOverMax        = fmt.Errorf("%w: system already at maximum power", ErrPrecondition)
	ErrUnderZero      = fmt.Errorf("%w: system has no power to remove", ErrPrecondition)
	ErrBelowZero      = fmt.Errorf("%w: value would drop below zero", ErrPrecondition)
	ErrSystemExists   = fmt.Errorf("%w: system already exists", ErrPrecondition)
	ErrNotEnoughItems = fmt.Errorf("%w: not enough items", ErrPrecondition)
	ErrUndroppable    = fmt.Errorf("%w: item cannot be dropped", ErrPrecondition)
	ErrOutOfRange     = fmt.Errorf("%w: target out of range", ErrPrecondition)
	ErrNoCharge       = fmt.Errorf("%w: not enough weapons charge", ErrPrecondition)
	ErrCraneUnpowered = fmt.Errorf("%w: crane is unpowered", ErrPrecondition)
	ErrCraneSnipped   = fmt.Errorf("%w: crane cable was snipped", ErrPrecondition)
	ErrCraneBusy      = fmt.Errorf("%w: crane is already in use", ErrPrecondition)
	ErrKeywordPresent = fmt.Errorf("%w: upgrade already installed", ErrPrecondition)
	ErrNoPuzzle       = fmt.Errorf("%w: no puzzle in progress", ErrPrecondition)
	ErrNoPuzzles      = fmt.Errorf("%w: puzzle bank is empty", ErrPrecondition)

	ErrNotColocated = fmt.Errorf("%w: you must be in the same location to trade", ErrPrecondition)
	ErrAlreadyTrade = fmt.Errorf("%w: you already have an ongoing trade", ErrPrecondition)
	ErrPartnerBusy  = fmt.Errorf("%w: partner is currently busy trading", ErrPrecondition)
	ErrBadOffer     = fmt.Errorf("%w: offer provided is impossible", ErrPrecondition)
	ErrNoTrade      = fmt.Errorf("%w: no trade in progress", ErrPrecondition)
	ErrSelfTrade    = fmt.Errorf("%w: cannot trade with yourself", ErrPrecondition)
)
