package model

import (
	"math/rand/v2"
	"testing"

	"github.com/udisondev/deepwatch/internal/world"
)

func testRand() *rand.Rand {
	return rand.New(rand.NewPCG(7, 11))
}

func newTestGrid(t *testing.T) *world.Grid {
	t.Helper()
	return world.NewGrid(10, 10, testRand())
}

// newTestVessel returns an active vessel with its bulletin attached.
func newTestVessel(t *testing.T, name string, pos world.Point) (*Vessel, *Bulletin) {
	t.Helper()
	bank := NewPuzzleBank([]Puzzle{{Name: "riddle", Answers: []string{"echo"}}})
	v := NewVessel(name, map[Role]string{RoleCaptain: name + "-captain"}, pos, bank)
	b := NewBulletin()
	v.AttachBulletin(b)
	v.Power.Activate(true)
	return v, b
}

// powerCrane moves the weapons point to the crane.
func powerCrane(t *testing.T, v *Vessel) {
	t.Helper()
	if err := v.Power.Unschedule(SystemWeapons); err != nil {
		t.Fatal(err)
	}
	if err := v.Power.Schedule(SystemCrane); err != nil {
		t.Fatal(err)
	}
	v.Power.ApplySchedule()
}
