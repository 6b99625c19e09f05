package snapshot

import (
	"math/rand/v2"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/udisondev/deepwatch/internal/model"
	"github.com/udisondev/deepwatch/internal/world"
)

func TestVessels_KeepOrder(t *testing.T) {
	bank := model.NewPuzzleBank(nil)
	var vs Vessels
	for i, team := range []string{"zulu", "alpha", "mike"} {
		vs = append(vs, model.NewVessel(team, nil, world.Point{X: i, Y: i}, bank))
	}
	s := New(4, time.Now(), world.NewGrid(3, 3, nil), vs, nil)

	data, err := s.Document(PartVessels)
	require.NoError(t, err)

	var out Snapshot
	require.NoError(t, out.SetDocument(PartVessels, data))
	require.Len(t, out.Vessels, 3)
	for i, want := range []string{"zulu", "alpha", "mike"} {
		assert.Equal(t, want, out.Vessels[i].Key())
		assert.Equal(t, world.Point{X: i, Y: i}, out.Vessels[i].Position())
	}
}

func TestVessels_Rejects(t *testing.T) {
	tests := []struct {
		name string
		data string
	}{
		{name: "array", data: `[]`},
		{name: "truncated", data: `{"alpha":`},
	}
	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			var vs Vessels
			require.Error(t, vs.UnmarshalJSON([]byte(tt.data)))
		})
	}
}

func TestSnapshot_Documents(t *testing.T) {
	g := world.NewGrid(2, 2, rand.New(rand.NewPCG(1, 2)))
	g.Bury(world.Point{X: 1, Y: 1}, "gold")
	s := New(7, time.Date(2026, 2, 3, 4, 5, 6, 0, time.FixedZone("x", 3600)), g, nil, nil)
	assert.Equal(t, time.UTC, s.SavedAt.Location())

	var out Snapshot
	assert.False(t, out.Has(PartWorld))
	for _, part := range Parts {
		data, err := s.Document(part)
		require.NoError(t, err)
		require.NoError(t, out.SetDocument(part, data))
		assert.True(t, out.Has(part), part)
	}
	assert.Empty(t, out.NPCs)
	assert.Empty(t, out.Vessels)
	assert.Equal(t, []string{"gold"}, out.World.Cell(world.Point{X: 1, Y: 1}).Treasure())
}

func TestSnapshot_UnknownPart(t *testing.T) {
	var s Snapshot
	_, err := s.Document("ships")
	require.ErrorIs(t, err, ErrUnknownPart)
	require.ErrorIs(t, s.SetDocument(PartAll, []byte(`{}`)), ErrUnknownPart)
	assert.False(t, s.Has(PartAll))
}
