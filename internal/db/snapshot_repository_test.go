package db_test

import (
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/udisondev/deepwatch/internal/db"
	"github.com/udisondev/deepwatch/internal/model"
	"github.com/udisondev/deepwatch/internal/persistence/snapshot"
	"github.com/udisondev/deepwatch/internal/testutil"
	"github.com/udisondev/deepwatch/internal/world"
)

func TestSnapshotRepository_SaveLoad(t *testing.T) {
	pool := testutil.SetupTestDB(t)
	repo := db.NewSnapshotRepository(pool)
	ctx := testutil.ContextWithTimeout(t, time.Minute)

	_, err := repo.Load(ctx, 0)
	require.ErrorIs(t, err, snapshot.ErrNotFound)

	rng := testutil.Rand(7)
	g := testutil.NewGrid(t, 5, 5, rng)
	testutil.SetAttribute(t, g, world.Point{X: 2, Y: 2}, world.AttrDocking, "harbour")
	bank := model.NewPuzzleBank(testutil.Fixtures.Puzzles)
	alpha := model.NewVessel("alpha", testutil.Channels("alpha"), world.Point{X: 1, Y: 1}, bank)
	beta := model.NewVessel("beta", testutil.Channels("beta"), world.Point{X: 3, Y: 3}, bank)
	squid := model.NewNpc(0, "squid", world.Point{X: 4, Y: 4})

	base := time.Date(2026, 3, 1, 12, 0, 0, 0, time.UTC)
	first := snapshot.New(1, base, g, []*model.Vessel{alpha}, nil)
	second := snapshot.New(2, base.Add(time.Second), g, []*model.Vessel{beta, alpha}, []*model.Npc{squid})
	require.NoError(t, repo.Save(ctx, first))
	require.NoError(t, repo.Save(ctx, second))

	n, err := repo.Count(ctx)
	require.NoError(t, err)
	assert.Equal(t, 2, n)

	latest, err := repo.Load(ctx, 0)
	require.NoError(t, err)
	assert.Equal(t, second.Revision, latest.Revision)
	assert.Equal(t, int64(2), latest.Tick)
	require.Len(t, latest.Vessels, 2)
	assert.Equal(t, "beta", latest.Vessels[0].Key())
	assert.Equal(t, "alpha", latest.Vessels[1].Key())
	require.Len(t, latest.NPCs, 1)
	name, ok := latest.World.Cell(world.Point{X: 2, Y: 2}).DockedAt()
	assert.True(t, ok)
	assert.Equal(t, "harbour", name)

	older, err := repo.Load(ctx, 1)
	require.NoError(t, err)
	assert.Equal(t, first.Revision, older.Revision)
	assert.Empty(t, older.NPCs)

	_, err = repo.Load(ctx, 2)
	require.ErrorIs(t, err, snapshot.ErrNotFound)
}
