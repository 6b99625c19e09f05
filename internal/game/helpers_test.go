package game

import (
	"context"
	"testing"
	"time"

	"github.com/google/uuid"
	"github.com/stretchr/testify/require"

	"github.com/udisondev/deepwatch/internal/ai"
	"github.com/udisondev/deepwatch/internal/maprender"
	"github.com/udisondev/deepwatch/internal/model"
	"github.com/udisondev/deepwatch/internal/testutil"
	"github.com/udisondev/deepwatch/internal/world"
)

// harness is an engine over a 10×10 world with a recording notifier and an
// in-memory store.
type harness struct {
	engine *Engine
	svc    *Service
	state  *State
	rec    *testutil.Recorder
	store  *testutil.MemoryStore
	index  *fakeIndex
	maps   *fakeMaps
	clock  time.Time
}

func newHarness(t *testing.T, registry *ai.Registry) *harness {
	t.Helper()
	if registry == nil {
		registry = ai.Standard()
	}
	rng := testutil.Rand(42)
	grid := testutil.NewGrid(t, 10, 10, rng)
	state := NewState(grid, registry, model.NewPuzzleBank(testutil.Fixtures.Puzzles), rng)

	h := &harness{
		state: state,
		rec:   testutil.NewRecorder(),
		store: testutil.NewMemoryStore(),
		index: &fakeIndex{},
		maps:  &fakeMaps{url: "https://maps.example/m/1"},
		clock: time.Date(2026, 6, 1, 12, 0, 0, 0, time.UTC),
	}
	h.engine = NewEngine(state, DefaultOptions(), h.rec, h.store, h.index)
	h.engine.now = func() time.Time { return h.clock }
	h.svc = NewService(h.engine, h.maps)
	return h
}

// register adds an active team at (x, y).
func (h *harness) register(t *testing.T, team string, x, y int) *model.Vessel {
	t.Helper()
	ctx := context.Background()
	require.True(t, h.svc.Register(ctx, team, testutil.Channels(team), x, y).OK)
	require.True(t, h.svc.Activate(ctx, team, true).OK)
	v, err := h.state.Vessel(team)
	require.NoError(t, err)
	return v
}

func (h *harness) advance(t *testing.T, times int) {
	t.Helper()
	for range times {
		require.NoError(t, h.engine.Advance(context.Background()))
	}
}

func (h *harness) captain(team string) string {
	return h.rec.Last(team, string(model.RoleCaptain))
}

type fakeIndex struct {
	ticks []int64
	saves int
}

func (f *fakeIndex) RecordTick(tick int64, _ time.Time, _, _ int, _ time.Duration) error {
	f.ticks = append(f.ticks, tick)
	return nil
}

func (f *fakeIndex) RecordSave(_ uuid.UUID, _ int64, _ time.Time, _ string) error {
	f.saves++
	return nil
}

type fakeMaps struct {
	url  string
	last maprender.Map
}

func (f *fakeMaps) Publish(_ context.Context, m maprender.Map) (string, error) {
	f.last = m
	return f.url, nil
}

func pt(x, y int) world.Point { return world.Point{X: x, Y: y} }
