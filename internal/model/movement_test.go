package model

import (
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/udisondev/deepwatch/internal/world"
)

func TestMovement_FourTicksOnNormalCell(t *testing.T) {
	g := newTestGrid(t)
	v, _ := newTestVessel(t, "alpha", world.Point{X: 5, Y: 5})
	require.Equal(t, 1, v.PowerOf(SystemEngines))

	for i := range 3 {
		assert.Nil(t, v.Movement.Tick(v, g), "tick %d", i+1)
		assert.Less(t, v.Movement.Progress(), 4)
	}
	step := v.Movement.Tick(v, g)
	require.NotNil(t, step)
	assert.Equal(t, StepMoved, step.Outcome)
	assert.True(t, step.Relocated())
	assert.Equal(t, world.North, step.Heading)
	assert.Equal(t, world.Point{X: 5, Y: 4}, v.Position())
	assert.Zero(t, v.Movement.Progress())
	assert.Contains(t, step.Message, "Moved **Alpha** in direction **N**!")
}

func TestMovement_Outcomes(t *testing.T) {
	tests := []struct {
		name      string
		start     world.Point
		facing    world.Direction
		attribute [2]string
		want      StepOutcome
		wantFace  world.Direction
		wantDmg   int
		wantOn    bool
	}{
		{"boundary", world.Point{X: 5, Y: 0}, world.North, [2]string{}, StepBoundary, world.South, 0, true},
		{"obstacle", world.Point{X: 5, Y: 5}, world.East, [2]string{world.AttrObstacle, ""}, StepObstacle, world.West, 1, true},
		{"docking", world.Point{X: 5, Y: 5}, world.SouthWest, [2]string{world.AttrDocking, "harbour"}, StepDocked, world.NorthEast, 0, false},
	}
	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			g := newTestGrid(t)
			v, _ := newTestVessel(t, "alpha", tt.start)
			require.NoError(t, v.Movement.SetDirection(tt.facing))
			if tt.attribute[0] != "" {
				target := tt.start.Add(tt.facing.Delta())
				_, err := g.Cell(target).AddAttribute(tt.attribute[0], tt.attribute[1])
				require.NoError(t, err)
			}

			var step *Step
			for range 4 {
				step = v.Movement.Tick(v, g)
			}
			require.NotNil(t, step)
			assert.Equal(t, tt.want, step.Outcome)
			assert.False(t, step.Relocated())
			assert.Equal(t, tt.start, v.Position())
			assert.Equal(t, tt.wantFace, v.Movement.Direction())
			assert.Equal(t, tt.wantDmg, v.Power.PendingDamage())
			assert.Equal(t, tt.wantOn, v.Active())
		})
	}
}

func TestMovement_WeatherAndBlessing(t *testing.T) {
	g := newTestGrid(t)
	p := world.Point{X: 2, Y: 2}
	_, err := g.Cell(p).AddAttribute(world.AttrWeather, world.WeatherStormy)
	require.NoError(t, err)

	assert.Equal(t, 8, Threshold(g.Cell(p), false))
	assert.Equal(t, 4, Threshold(g.Cell(p), true))
}

func TestMovement_AccumulateCarriesRemainder(t *testing.T) {
	m := NewMovement(world.Point{})
	assert.False(t, m.Accumulate(3, 4))
	assert.True(t, m.Accumulate(3, 4))
	assert.Equal(t, 2, m.Progress())
}

func TestTurnsUntilMove(t *testing.T) {
	tests := []struct {
		threshold, progress, engines, want int
	}{
		{4, 0, 1, 4},
		{4, 3, 1, 1},
		{4, 0, 3, 2},
		{4, 5, 1, 0},
	}
	for _, tt := range tests {
		assert.Equal(t, tt.want, TurnsUntilMove(tt.threshold, tt.progress, tt.engines))
	}
	assert.Equal(t, 35*time.Second, EstimateNextMove(5*time.Second, 10*time.Second, 4))
	assert.Equal(t, 5*time.Second, EstimateNextMove(5*time.Second, 10*time.Second, 1))
}

func TestMovement_SetDirectionRejectsUnknown(t *testing.T) {
	m := NewMovement(world.Point{})
	assert.ErrorIs(t, m.SetDirection(world.Direction("up")), world.ErrUnknownDirection)
	assert.Equal(t, world.North, m.Direction())
}
