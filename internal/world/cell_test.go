package world

import (
	"math/rand/v2"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestCell_AddAttributeValidation(t *testing.T) {
	tests := []struct {
		name    string
		key     string
		value   string
		wantErr error
		stored  string
	}{
		{"weather enum", AttrWeather, "Stormy", nil, "stormy"},
		{"weather outside enum", AttrWeather, "foggy", ErrInvalidAttribute, ""},
		{"docking name", AttrDocking, "atlantis", nil, "atlantis"},
		{"docking empty", AttrDocking, "", ErrInvalidAttribute, ""},
		{"obstacle value ignored", AttrObstacle, "anything", nil, ""},
		{"hiddenness in range", AttrHiddenness, "42", nil, "42"},
		{"hiddenness too large", AttrHiddenness, "100", ErrInvalidAttribute, ""},
		{"hiddenness negative", AttrHiddenness, "-1", ErrInvalidAttribute, ""},
		{"hiddenness not a number", AttrHiddenness, "lots", ErrInvalidAttribute, ""},
		{"wallstyle enum", AttrWallStyle, "b", nil, "b"},
		{"wallstyle outside enum", AttrWallStyle, "x", ErrInvalidAttribute, ""},
		{"ruins may be empty", AttrRuins, "", nil, ""},
		{"unknown key", "lava", "hot", ErrUnknownAttribute, ""},
	}
	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			c := NewCell()
			changed, err := c.AddAttribute(tt.key, tt.value)
			if tt.wantErr != nil {
				assert.ErrorIs(t, err, tt.wantErr)
				assert.False(t, changed)
				assert.False(t, c.HasAttribute(tt.key))
				return
			}
			require.NoError(t, err)
			assert.True(t, changed)
			got, ok := c.Attribute(tt.key)
			assert.True(t, ok)
			assert.Equal(t, tt.stored, got)
		})
	}
}

func TestCell_AddAttributeUnchanged(t *testing.T) {
	c := NewCell()
	changed, err := c.AddAttribute(AttrWeather, "calm")
	require.NoError(t, err)
	assert.True(t, changed)

	changed, err = c.AddAttribute(AttrWeather, "calm")
	require.NoError(t, err)
	assert.False(t, changed)
}

func TestCell_AttributeChangeClearsExplored(t *testing.T) {
	c := NewCell()
	c.MarkExplored("nautilus")
	require.True(t, c.IsExplored("nautilus"))

	_, err := c.AddAttribute(AttrJunk, "")
	require.NoError(t, err)
	assert.False(t, c.IsExplored("nautilus"))

	c.MarkExplored("nautilus")
	changed, err := c.RemoveAttribute(AttrJunk)
	require.NoError(t, err)
	assert.True(t, changed)
	assert.False(t, c.IsExplored("nautilus"))

	changed, err = c.RemoveAttribute(AttrJunk)
	require.NoError(t, err)
	assert.False(t, changed)

	_, err = c.RemoveAttribute("lava")
	assert.ErrorIs(t, err, ErrUnknownAttribute)
}

func TestCell_Difficulty(t *testing.T) {
	tests := []struct {
		name    string
		weather string
		ruins   bool
		want    int
	}{
		{"no weather", "", false, 4},
		{"calm", WeatherCalm, false, 2},
		{"normal", WeatherNormal, false, 4},
		{"rough", WeatherRough, false, 6},
		{"stormy", WeatherStormy, false, 8},
		{"ruins on calm", WeatherCalm, true, 4},
		{"ruins without weather", "", true, 6},
	}
	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			c := NewCell()
			if tt.weather != "" {
				_, err := c.AddAttribute(AttrWeather, tt.weather)
				require.NoError(t, err)
			}
			if tt.ruins {
				_, err := c.AddAttribute(AttrRuins, "old temple")
				require.NoError(t, err)
			}
			assert.Equal(t, tt.want, c.Difficulty())
		})
	}
}

func TestCell_Visibility(t *testing.T) {
	c := NewCell()
	_, err := c.AddAttribute(AttrHiddenness, "3")
	require.NoError(t, err)

	assert.False(t, c.VisibleTo("nautilus", 2))
	assert.True(t, c.VisibleTo("nautilus", 3))

	c.MarkExplored("nautilus")
	assert.True(t, c.VisibleTo("nautilus", 0))
	assert.False(t, c.VisibleTo("kraken", 0))
}

func TestCell_TickSpawnsTreasure(t *testing.T) {
	c := NewCell()
	_, err := c.AddAttribute(AttrDeposit, "")
	require.NoError(t, err)

	rng := rand.New(rand.NewPCG(7, 7))
	for range 2000 {
		c.Tick(rng)
	}
	treasure := c.Treasure()
	assert.NotEmpty(t, treasure)
	for _, item := range treasure {
		assert.Contains(t, []string{"tool", "plating"}, item)
	}
}

func TestCell_TickWithoutAttributesSpawnsNothing(t *testing.T) {
	c := NewCell()
	rng := rand.New(rand.NewPCG(7, 7))
	for range 500 {
		c.Tick(rng)
	}
	assert.Empty(t, c.Treasure())
}

func TestCell_ExploredDecays(t *testing.T) {
	c := NewCell()
	c.MarkExplored("nautilus")
	rng := rand.New(rand.NewPCG(3, 4))
	for range 5000 {
		c.Tick(rng)
	}
	assert.False(t, c.IsExplored("nautilus"))
}

func TestCell_OutwardBroadcast(t *testing.T) {
	c := NewCell()
	assert.Equal(t, "", c.OutwardBroadcast(5))

	c.Bury("tool")
	c.Bury("gold")
	assert.Equal(t, "2 treasures", c.OutwardBroadcast(1))
	assert.Equal(t, "Tool and Gold", c.OutwardBroadcast(3))

	_, err := c.AddAttribute(AttrDocking, "atlantis")
	require.NoError(t, err)
	assert.Equal(t, `2 treasures and docking station "Atlantis"`, c.OutwardBroadcast(0))
}

func TestCell_MapChar(t *testing.T) {
	c := NewCell()
	assert.Equal(t, byte('.'), c.MapChar(AllMapOptions))

	_, err := c.AddAttribute(AttrObstacle, "")
	require.NoError(t, err)
	assert.Equal(t, byte('W'), c.MapChar(AllMapOptions))
	assert.Equal(t, byte('.'), c.MapChar("d"))

	_, err = c.AddAttribute(AttrWallStyle, "h")
	require.NoError(t, err)
	assert.Equal(t, byte('h'), c.MapChar(AllMapOptions))

	c.Bury("tool")
	assert.Equal(t, byte('T'), c.MapChar(AllMapOptions))
	name, ok := c.MapName(AllMapOptions)
	assert.True(t, ok)
	assert.Equal(t, "Tool", name)
}
