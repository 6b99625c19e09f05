package world

import (
	"encoding/json"
	"math/rand/v2"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func newTestGrid(t *testing.T, x, y int) *Grid {
	t.Helper()
	return NewGrid(x, y, rand.New(rand.NewPCG(1, 2)))
}

func TestGrid_InWorld(t *testing.T) {
	g := newTestGrid(t, 5, 4)

	tests := []struct {
		name string
		p    Point
		want bool
	}{
		{"origin", Point{0, 0}, true},
		{"far corner", Point{4, 3}, true},
		{"negative x", Point{-1, 0}, false},
		{"negative y", Point{0, -1}, false},
		{"x limit", Point{5, 0}, false},
		{"y limit", Point{0, 4}, false},
	}
	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			assert.Equal(t, tt.want, g.InWorld(tt.p))
			if tt.want {
				assert.NotNil(t, g.Cell(tt.p))
			} else {
				assert.Nil(t, g.Cell(tt.p))
			}
		})
	}
}

func TestGrid_BuryAndPickUp(t *testing.T) {
	g := newTestGrid(t, 3, 3)
	p := Point{1, 1}

	assert.True(t, g.Bury(p, "tool"))
	assert.True(t, g.Bury(p, "plating"))
	assert.False(t, g.Bury(Point{7, 7}, "tool"))

	got := g.PickUp(p, 5)
	assert.ElementsMatch(t, []string{"tool", "plating"}, got)
	assert.Empty(t, g.Cell(p).Treasure())
	assert.Nil(t, g.PickUp(Point{-1, 0}, 1))
}

func TestGrid_PickUpLimitedByPower(t *testing.T) {
	g := newTestGrid(t, 2, 2)
	p := Point{0, 0}
	for range 4 {
		g.Bury(p, "specimen")
	}

	assert.Len(t, g.PickUp(p, 1), 1)
	assert.Len(t, g.Cell(p).Treasure(), 3)
}

func TestGrid_JSONRoundTrip(t *testing.T) {
	g := newTestGrid(t, 3, 2)
	c := g.Cell(Point{2, 1})
	_, err := c.AddAttribute(AttrWeather, "rough")
	require.NoError(t, err)
	_, err = c.AddAttribute(AttrHiddenness, "3")
	require.NoError(t, err)
	c.Bury("tool")
	c.MarkExplored("nautilus")

	data, err := json.Marshal(g)
	require.NoError(t, err)

	restored := newTestGrid(t, 1, 1)
	require.NoError(t, json.Unmarshal(data, restored))

	x, y := restored.Size()
	assert.Equal(t, 3, x)
	assert.Equal(t, 2, y)
	rc := restored.Cell(Point{2, 1})
	assert.Equal(t, []string{"tool"}, rc.Treasure())
	assert.Equal(t, 6, rc.Difficulty())
	assert.Equal(t, 3, rc.Hiddenness())
	assert.True(t, rc.IsExplored("nautilus"))
}

func TestGrid_UnmarshalRejectsMismatchedShape(t *testing.T) {
	g := newTestGrid(t, 1, 1)
	err := json.Unmarshal([]byte(`{"x_limit":2,"y_limit":1,"cells":[[{}]]}`), g)
	assert.Error(t, err)
}

func TestGrid_UnmarshalValidatesAttributes(t *testing.T) {
	tests := []struct {
		name    string
		attrs   string
		wantErr error
	}{
		{"unknown key", `{"lava":""}`, ErrUnknownAttribute},
		{"hiddenness not a number", `{"hiddenness":"abc"}`, ErrInvalidAttribute},
		{"hiddenness out of range", `{"hiddenness":"100"}`, ErrInvalidAttribute},
		{"weather outside enum", `{"weather":"tornado"}`, ErrInvalidAttribute},
		{"wallstyle outside enum", `{"wallstyle":"x"}`, ErrInvalidAttribute},
		{"docking without a name", `{"docking":""}`, ErrInvalidAttribute},
	}
	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			g := newTestGrid(t, 1, 1)
			doc := `{"x_limit":1,"y_limit":1,"cells":[[{"treasure":[],"attributes":` + tt.attrs + `,"explored":[]}]]}`
			err := json.Unmarshal([]byte(doc), g)
			assert.ErrorIs(t, err, tt.wantErr)
		})
	}
}

func TestGrid_UnmarshalKeepsValidAttributes(t *testing.T) {
	g := newTestGrid(t, 1, 1)
	doc := `{"x_limit":1,"y_limit":1,"cells":[[{"treasure":["tool"],` +
		`"attributes":{"weather":"stormy","hiddenness":"7","obstacle":"","docking":"harbour"},"explored":["alpha"]}]]}`
	require.NoError(t, json.Unmarshal([]byte(doc), g))

	c := g.Cell(Point{0, 0})
	require.NotNil(t, c)
	assert.Equal(t, map[string]string{
		AttrWeather:    WeatherStormy,
		AttrHiddenness: "7",
		AttrObstacle:   "",
		AttrDocking:    "harbour",
	}, c.Attributes())
	assert.Equal(t, 7, c.Hiddenness())
	assert.True(t, c.IsExplored("alpha"))
}
