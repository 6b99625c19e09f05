package world

import (
	"encoding/json"
	"errors"
	"fmt"
	"slices"
	"strconv"
	"strings"

	"github.com/santhosh-tekuri/jsonschema/v5"
)

// Attribute keys a cell understands.
const (
	AttrWeather    = "weather"
	AttrDocking    = "docking"
	AttrObstacle   = "obstacle"
	AttrHiddenness = "hiddenness"
	AttrDeposit    = "deposit"
	AttrDiverse    = "diverse"
	AttrRuins      = "ruins"
	AttrJunk       = "junk"
	AttrWallStyle  = "wallstyle"
	AttrName       = "name"
)

// Weather states.
const (
	WeatherCalm   = "calm"
	WeatherNormal = "normal"
	WeatherRough  = "rough"
	WeatherStormy = "stormy"
)

var (
	ErrUnknownAttribute = errors.New("unknown attribute")
	ErrInvalidAttribute = errors.New("invalid attribute value")
	ErrUnknownDirection = errors.New("unknown direction")
	ErrOutOfWorld       = errors.New("coordinate outside of world")
)

var attributeKeys = []string{
	AttrDeposit, AttrDiverse, AttrHiddenness, AttrWeather, AttrDocking,
	AttrObstacle, AttrRuins, AttrJunk, AttrWallStyle, AttrName,
}

// flagAttributes carry no value.
var flagAttributes = []string{AttrObstacle, AttrDeposit, AttrDiverse, AttrJunk}

// WallStyles are the alternate map characters for obstacle cells.
var WallStyles = []string{"b", "h", "z", "v", "p", "l"}

const attributeSchemaJSON = `{
	"type": "object",
	"additionalProperties": false,
	"properties": {
		"weather":    {"enum": ["calm", "normal", "rough", "stormy"]},
		"docking":    {"type": "string", "minLength": 1, "maxLength": 64},
		"obstacle":   {"const": ""},
		"deposit":    {"const": ""},
		"diverse":    {"const": ""},
		"junk":       {"const": ""},
		"hiddenness": {"type": "integer", "minimum": 0, "maximum": 99},
		"ruins":      {"type": "string", "maxLength": 64},
		"wallstyle":  {"enum": ["b", "h", "z", "v", "p", "l"]},
		"name":       {"type": "string", "minLength": 1, "maxLength": 64}
	}
}`

var attributeSchema = jsonschema.MustCompileString("attributes.json", attributeSchemaJSON)

// AttributeKeys returns the accepted attribute keys.
func AttributeKeys() []string {
	return slices.Clone(attributeKeys)
}

// normalizeAttribute coerces a raw command value into its canonical stored
// form and validates it against the attribute schema.
func normalizeAttribute(key, raw string) (string, error) {
	if !slices.Contains(attributeKeys, key) {
		return "", fmt.Errorf("%w: %q", ErrUnknownAttribute, key)
	}

	var doc any
	switch {
	case slices.Contains(flagAttributes, key):
		raw = ""
		doc = raw
	case key == AttrHiddenness:
		n, err := strconv.Atoi(strings.TrimSpace(raw))
		if err != nil {
			return "", fmt.Errorf("%w: %s=%q is not an integer", ErrInvalidAttribute, key, raw)
		}
		raw = strconv.Itoa(n)
		doc = json.Number(raw)
	case key == AttrWeather || key == AttrWallStyle:
		raw = strings.ToLower(strings.TrimSpace(raw))
		doc = raw
	default:
		doc = raw
	}

	if err := attributeSchema.Validate(map[string]any{key: doc}); err != nil {
		return "", fmt.Errorf("%w: %s=%q: %v", ErrInvalidAttribute, key, raw, err)
	}
	return raw, nil
}
