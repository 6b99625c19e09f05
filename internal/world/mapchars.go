package world

import "strings"

// MapOptions selects which layers a rendered map shows:
//
//	w walls, d docking stations, s weather, t treasure, n NPCs,
//	r ruins, j junk, m mineral deposits, e diverse ecosystems.
type MapOptions string

// AllMapOptions shows every layer.
const AllMapOptions MapOptions = "wdstnrjme"

var weatherChars = map[string]byte{
	WeatherCalm:   'C',
	WeatherNormal: '.',
	WeatherRough:  'R',
	WeatherStormy: 'S',
}

// Has reports whether layer is selected.
func (o MapOptions) Has(layer byte) bool {
	return strings.IndexByte(string(o), layer) >= 0
}

// MapChar is the ASCII character drawn for this cell.
func (c *Cell) MapChar(opts MapOptions) byte {
	switch {
	case opts.Has('t') && len(c.treasure) > 0:
		return 'T'
	case opts.Has('r') && c.HasAttribute(AttrRuins):
		return 'R'
	case opts.Has('j') && c.HasAttribute(AttrJunk):
		return 'J'
	case opts.Has('m') && c.HasAttribute(AttrDeposit):
		return 'M'
	case opts.Has('e') && c.HasAttribute(AttrDiverse):
		return 'D'
	case opts.Has('w') && c.IsObstacle():
		if style, ok := c.attributes[AttrWallStyle]; ok && style != "" {
			return style[0]
		}
		return 'W'
	case opts.Has('d') && c.HasAttribute(AttrDocking):
		return 'D'
	case opts.Has('s') && c.HasAttribute(AttrWeather):
		if ch, ok := weatherChars[c.attributes[AttrWeather]]; ok {
			return ch
		}
	}
	return '.'
}

// MapName is the label for this cell on a rendered map, if any.
func (c *Cell) MapName(opts MapOptions) (string, bool) {
	name := ""
	if opts.Has('t') && len(c.treasure) > 0 {
		name = c.TreasureString()
	}
	if opts.Has('d') {
		if dock, ok := c.DockedAt(); ok {
			name = dock
		}
	}
	if explicit, ok := c.attributes[AttrName]; ok && name == "" {
		name = explicit
	}
	return name, name != ""
}
