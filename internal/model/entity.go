package model

import "github.com/udisondev/deepwatch/internal/world"

// Entity is anything in the world that has a position, can be hurt, can be
// messaged and can be seen by scanners.
type Entity interface {
	// Name is the display name used in reports.
	Name() string
	Position() world.Point
	// Damage queues damage resolved at the end of the tick.
	Damage(amount int)
	Send(role Role, msg string)
	// OutwardBroadcast is what a scanner of the given strength sees.
	// Empty means invisible.
	OutwardBroadcast(strength int) string
	// IsWeak reports whether stunning shots affect this entity.
	IsWeak() bool
	// IsCarbon reports whether this entity is biological.
	IsCarbon() bool
}
