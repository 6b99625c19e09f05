package world

import (
	"fmt"
	"math"
	"strings"
)

// Direction is one of the eight compass points. North is -y.
type Direction string

const (
	North     Direction = "n"
	NorthEast Direction = "ne"
	East      Direction = "e"
	SouthEast Direction = "se"
	South     Direction = "s"
	SouthWest Direction = "sw"
	West      Direction = "w"
	NorthWest Direction = "nw"
)

// compass lists directions clockwise starting from north.
var compass = []Direction{North, NorthEast, East, SouthEast, South, SouthWest, West, NorthWest}

var deltas = map[Direction]Point{
	North:     {0, -1},
	NorthEast: {1, -1},
	East:      {1, 0},
	SouthEast: {1, 1},
	South:     {0, 1},
	SouthWest: {-1, 1},
	West:      {-1, 0},
	NorthWest: {-1, -1},
}

// Directions returns all compass directions in clockwise order.
func Directions() []Direction {
	out := make([]Direction, len(compass))
	copy(out, compass)
	return out
}

// ParseDirection accepts a compass abbreviation in any case.
func ParseDirection(s string) (Direction, error) {
	d := Direction(strings.ToLower(strings.TrimSpace(s)))
	if _, ok := deltas[d]; !ok {
		return "", fmt.Errorf("%w: %q", ErrUnknownDirection, s)
	}
	return d, nil
}

// Valid reports whether d is one of the eight compass points.
func (d Direction) Valid() bool {
	_, ok := deltas[d]
	return ok
}

// Delta returns the unit step for d.
func (d Direction) Delta() Point {
	return deltas[d]
}

// Reverse returns the opposite compass point.
func (d Direction) Reverse() Direction {
	i := d.index()
	if i < 0 {
		return d
	}
	return compass[(i+4)%len(compass)]
}

// Rotate returns the two neighbouring compass points (counter-clockwise first).
func (d Direction) Rotate() (Direction, Direction) {
	i := d.index()
	if i < 0 {
		return d, d
	}
	n := len(compass)
	return compass[(i+n-1)%n], compass[(i+1)%n]
}

func (d Direction) String() string {
	return strings.ToUpper(string(d))
}

func (d Direction) index() int {
	for i, c := range compass {
		if c == d {
			return i
		}
	}
	return -1
}

// Point is a grid coordinate. Origin is the top-left corner.
type Point struct {
	X int `json:"x"`
	Y int `json:"y"`
}

// Add returns p shifted by delta.
func (p Point) Add(delta Point) Point {
	return Point{X: p.X + delta.X, Y: p.Y + delta.Y}
}

func (p Point) String() string {
	return fmt.Sprintf("(%d, %d)", p.X, p.Y)
}

// Distance is the number of king moves between a and b:
// walk the diagonal first, then the remainder.
func Distance(a, b Point) int {
	dx := abs(a.X - b.X)
	dy := abs(a.Y - b.Y)
	return min(dx, dy) + abs(dx-dy)
}

// DirectionTo returns the compass point closest to the vector a→b.
// ok is false when a == b.
func DirectionTo(a, b Point) (d Direction, ok bool) {
	dx := float64(b.X - a.X)
	dy := float64(b.Y - a.Y)
	if dx == 0 && dy == 0 {
		return "", false
	}

	// y grows southward, so atan2 on screen coordinates gives north as negative angles.
	angle := math.Atan2(dy, dx)
	var ns, ew string
	if angle >= -7*math.Pi/8 && angle <= -math.Pi/8 {
		ns = "n"
	}
	if angle >= math.Pi/8 && angle <= 7*math.Pi/8 {
		ns = "s"
	}
	if math.Abs(angle) > 5*math.Pi/8 {
		ew = "w"
	}
	if math.Abs(angle) < 3*math.Pi/8 {
		ew = "e"
	}
	return Direction(ns + ew), true
}

func abs(v int) int {
	if v < 0 {
		return -v
	}
	return v
}
