package ai

import (
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/udisondev/deepwatch/internal/model"
	"github.com/udisondev/deepwatch/internal/world"
)

func TestRoster_DenseIDs(t *testing.T) {
	r := NewRoster()
	for range 3 {
		require.NoError(t, r.Add(model.NewNpc(r.NextID(), KindSquid, world.Point{})))
	}
	assert.Equal(t, 3, r.Count())

	require.True(t, r.Remove(1))
	assert.False(t, r.Remove(1))
	assert.Equal(t, 1, r.NextID())

	require.NoError(t, r.Add(model.NewNpc(r.NextID(), KindCrab, world.Point{})))
	n, ok := r.Get(1)
	require.True(t, ok)
	assert.Equal(t, KindCrab, n.Kind)
	assert.Equal(t, 3, r.NextID())
}

func TestRoster_AddDuplicate(t *testing.T) {
	r := NewRoster()
	require.NoError(t, r.Add(model.NewNpc(0, KindSquid, world.Point{})))
	err := r.Add(model.NewNpc(0, KindShark, world.Point{}))
	assert.ErrorIs(t, err, model.ErrPrecondition)
}

func TestRoster_AllIsOrderedSnapshot(t *testing.T) {
	r := NewRoster()
	for _, id := range []int{4, 0, 2} {
		require.NoError(t, r.Add(model.NewNpc(id, KindSquid, world.Point{})))
	}

	all := r.All()
	r.Remove(2)

	ids := make([]int, len(all))
	for i, n := range all {
		ids[i] = n.ID
	}
	assert.Equal(t, []int{0, 2, 4}, ids)
	assert.Equal(t, 2, r.Count())
}

func TestRoster_Replace(t *testing.T) {
	r := NewRoster()
	require.NoError(t, r.Add(model.NewNpc(0, KindSquid, world.Point{})))

	require.NoError(t, r.Replace([]*model.Npc{
		model.NewNpc(5, KindWhale, world.Point{}),
		model.NewNpc(6, KindEel, world.Point{}),
	}))
	_, ok := r.Get(0)
	assert.False(t, ok)
	assert.Equal(t, 2, r.Count())

	err := r.Replace([]*model.Npc{
		model.NewNpc(1, KindWhale, world.Point{}),
		model.NewNpc(1, KindEel, world.Point{}),
	})
	assert.ErrorIs(t, err, model.ErrInvalidCommand)
	assert.Equal(t, 2, r.Count(), "failed replace leaves roster untouched")
}
