package model

import (
	"encoding/json"
	"math/rand/v2"
	"strings"
	"time"
	"unicode"
	"unicode/utf8"
)

// DefaultGarble is the per-distance corruption factor.
const DefaultGarble = 10

// Comms tracks when the vessel last broadcast.
type Comms struct {
	lastUsed time.Time
}

// NewComms returns comms that can broadcast immediately.
func NewComms() *Comms {
	return &Comms{}
}

// Ready reports whether the cooldown since the last broadcast has passed.
func (c *Comms) Ready(now time.Time, cooldown time.Duration) bool {
	return c.lastUsed.IsZero() || !now.Before(c.lastUsed.Add(cooldown))
}

// MarkUsed starts the cooldown.
func (c *Comms) MarkUsed(now time.Time) {
	c.lastUsed = now
}

// LastUsed is the time of the last broadcast.
func (c *Comms) LastUsed() time.Time {
	return c.lastUsed
}

// GarbleChance is the per-character corruption probability in percent:
// clamp(factor × distance / comms, 0, 100). Clarity halves the distance.
func GarbleChance(distance, comms, factor int, clarity bool) float64 {
	if comms <= 0 {
		return 100
	}
	d := float64(max(distance, 0))
	if clarity {
		d /= 2
	}
	p := float64(factor) * d / float64(comms)
	return min(max(p, 0), 100)
}

// Garble corrupts non-whitespace characters of content into '_' with the
// chance given by GarbleChance. ok is false when the message is lost
// entirely.
func Garble(content string, distance, comms, factor int, clarity bool, rng *rand.Rand) (garbled string, ok bool) {
	chance := GarbleChance(distance, comms, factor, clarity)
	if chance >= 100 {
		return "", false
	}
	if chance <= 0 {
		return content, true
	}
	var b strings.Builder
	b.Grow(len(content))
	// Characters that survive are copied byte for byte, so invalid UTF-8
	// passes through untouched.
	for i := 0; i < len(content); {
		r, size := utf8.DecodeRuneInString(content[i:])
		if !unicode.IsSpace(r) && rng.Float64()*100 < chance {
			b.WriteByte('_')
		} else {
			b.WriteString(content[i : i+size])
		}
		i += size
	}
	return b.String(), true
}

type commsJSON struct {
	LastUsed time.Time `json:"last_comms"`
}

func (c *Comms) MarshalJSON() ([]byte, error) {
	return json.Marshal(commsJSON{LastUsed: c.lastUsed})
}

func (c *Comms) UnmarshalJSON(data []byte) error {
	var raw commsJSON
	if err := json.Unmarshal(data, &raw); err != nil {
		return err
	}
	c.lastUsed = raw.LastUsed
	return nil
}
