package indexdb

import (
	"context"
	"path/filepath"
	"testing"
	"time"

	"github.com/google/uuid"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestSQLiteIndex_RecordAndQuery(t *testing.T) {
	path := filepath.Join(t.TempDir(), "nested", "index.sqlite")
	idx, err := OpenSQLite(path)
	require.NoError(t, err)

	base := time.Date(2026, 4, 1, 10, 0, 0, 0, time.UTC)
	rev1, rev2 := uuid.New(), uuid.New()
	for tick := int64(1); tick <= 3; tick++ {
		at := base.Add(time.Duration(tick) * 5 * time.Second)
		require.NoError(t, idx.RecordTick(tick, at, 2, int(tick), 1500*time.Microsecond))
	}
	require.NoError(t, idx.RecordSave(rev1, 2, base.Add(10*time.Second), "file"))
	require.NoError(t, idx.RecordSave(rev2, 3, base.Add(15*time.Second), "postgres"))
	require.NoError(t, idx.Close())
	require.NoError(t, idx.Close())

	reopened, err := OpenSQLite(path)
	require.NoError(t, err)
	t.Cleanup(func() { _ = reopened.Close() })
	ctx := context.Background()

	ticks, err := reopened.Ticks(ctx, 2)
	require.NoError(t, err)
	require.Len(t, ticks, 2)
	assert.Equal(t, int64(3), ticks[0].Tick)
	assert.Equal(t, int64(2), ticks[1].Tick)
	assert.Equal(t, 3, ticks[0].NPCs)
	assert.Equal(t, 1500*time.Microsecond, ticks[0].Duration)
	assert.True(t, base.Add(15*time.Second).Equal(ticks[0].At))

	saves, err := reopened.Saves(ctx, 10)
	require.NoError(t, err)
	require.Len(t, saves, 2)
	assert.Equal(t, rev2, saves[0].Revision)
	assert.Equal(t, "postgres", saves[0].Backend)
	assert.Equal(t, rev1, saves[1].Revision)
	assert.Equal(t, int64(0), reopened.Dropped())
}

func TestSQLiteIndex_ClosedIgnoresWrites(t *testing.T) {
	idx, err := OpenSQLite(filepath.Join(t.TempDir(), "index.sqlite"))
	require.NoError(t, err)
	require.NoError(t, idx.Close())

	assert.NotPanics(t, func() {
		require.NoError(t, idx.RecordTick(1, time.Now(), 0, 0, 0))
		require.NoError(t, idx.RecordSave(uuid.New(), 1, time.Now(), "file"))
	})
}

func TestOpenSQLite_EmptyPath(t *testing.T) {
	_, err := OpenSQLite("")
	require.Error(t, err)
}
