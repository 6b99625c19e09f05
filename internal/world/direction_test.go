package world

import (
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestParseDirection(t *testing.T) {
	d, err := ParseDirection(" NE ")
	require.NoError(t, err)
	assert.Equal(t, NorthEast, d)

	_, err = ParseDirection("up")
	assert.ErrorIs(t, err, ErrUnknownDirection)
}

func TestDirection_Reverse(t *testing.T) {
	for _, d := range Directions() {
		assert.Equal(t, d, d.Reverse().Reverse(), d)
		assert.Equal(t, d.Delta(), Point{-d.Reverse().Delta().X, -d.Reverse().Delta().Y})
	}
	assert.Equal(t, South, North.Reverse())
	assert.Equal(t, NorthWest, SouthEast.Reverse())
}

func TestDirection_Rotate(t *testing.T) {
	a, b := North.Rotate()
	assert.Equal(t, NorthWest, a)
	assert.Equal(t, NorthEast, b)

	a, b = West.Rotate()
	assert.Equal(t, SouthWest, a)
	assert.Equal(t, NorthWest, b)
}

func TestDistance(t *testing.T) {
	tests := []struct {
		a, b Point
		want int
	}{
		{Point{0, 0}, Point{0, 0}, 0},
		{Point{0, 0}, Point{3, 3}, 3},
		{Point{0, 0}, Point{3, 1}, 3},
		{Point{5, 5}, Point{1, 4}, 4},
		{Point{2, 0}, Point{2, 6}, 6},
	}
	for _, tt := range tests {
		assert.Equal(t, tt.want, Distance(tt.a, tt.b), "%v→%v", tt.a, tt.b)
		assert.Equal(t, tt.want, Distance(tt.b, tt.a))
	}
}

func TestDirectionTo(t *testing.T) {
	origin := Point{5, 5}
	tests := []struct {
		to   Point
		want Direction
	}{
		{Point{5, 0}, North},
		{Point{5, 9}, South},
		{Point{9, 5}, East},
		{Point{0, 5}, West},
		{Point{8, 2}, NorthEast},
		{Point{2, 8}, SouthWest},
		{Point{8, 8}, SouthEast},
		{Point{2, 2}, NorthWest},
		{Point{9, 4}, East},
	}
	for _, tt := range tests {
		got, ok := DirectionTo(origin, tt.to)
		require.True(t, ok)
		assert.Equal(t, tt.want, got, "towards %v", tt.to)
	}

	_, ok := DirectionTo(origin, origin)
	assert.False(t, ok)
}
