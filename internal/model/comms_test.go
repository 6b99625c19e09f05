package model

import (
	"testing"
	"time"
	"unicode/utf8"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestGarble_ZeroDistanceUnchanged(t *testing.T) {
	msg := "Surface at dawn, bring the tools."
	got, ok := Garble(msg, 0, 1, DefaultGarble, false, testRand())
	assert.True(t, ok)
	assert.Equal(t, msg, got)
}

func TestGarble_PreservesLengthAndWhitespace(t *testing.T) {
	msg := "the quick brown\tfox\njumps over the lazy dog ünïcode"
	for distance := range 10 {
		got, ok := Garble(msg, distance, 2, DefaultGarble, false, testRand())
		if !ok {
			continue
		}
		assert.Equal(t, utf8.RuneCountInString(msg), utf8.RuneCountInString(got))
		in, out := []rune(msg), []rune(got)
		for i := range in {
			if in[i] == ' ' || in[i] == '\t' || in[i] == '\n' {
				assert.Equal(t, in[i], out[i])
			} else {
				assert.True(t, out[i] == in[i] || out[i] == '_')
			}
		}
	}
}

func TestGarble_InvalidUTF8KeepsBytes(t *testing.T) {
	msg := "ab\xffcd\xfeef"
	for distance := 1; distance < 10; distance++ {
		got, ok := Garble(msg, distance, 2, DefaultGarble, false, testRand())
		require.True(t, ok)
		require.Len(t, got, len(msg))
		for i := range len(msg) {
			assert.True(t, got[i] == msg[i] || got[i] == '_', "byte %d: %q", i, got[i])
		}
	}
}

func TestGarbleChance(t *testing.T) {
	tests := []struct {
		name     string
		distance int
		comms    int
		clarity  bool
		want     float64
	}{
		{"adjacent", 0, 1, false, 0},
		{"mid range", 3, 2, false, 15},
		{"clarity halves distance", 3, 2, true, 7.5},
		{"clamped", 40, 1, false, 100},
		{"no comms", 1, 0, false, 100},
	}
	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			assert.InDelta(t, tt.want, GarbleChance(tt.distance, tt.comms, DefaultGarble, tt.clarity), 1e-9)
		})
	}
}

func TestGarbleChance_MonotonicInDistance(t *testing.T) {
	for comms := 1; comms <= 4; comms++ {
		prev := -1.0
		for d := range 30 {
			p := GarbleChance(d, comms, DefaultGarble, false)
			assert.GreaterOrEqual(t, p, prev)
			prev = p
		}
	}
}

func TestGarble_FullCorruptionSuppresses(t *testing.T) {
	got, ok := Garble("hello", 10, 1, DefaultGarble, false, testRand())
	assert.False(t, ok)
	assert.Empty(t, got)

	got, ok = Garble("hello", 9, 1, DefaultGarble, false, testRand())
	assert.True(t, ok)
	assert.Len(t, got, 5)
}

func TestComms_Cooldown(t *testing.T) {
	c := NewComms()
	now := time.Date(2026, 1, 1, 12, 0, 0, 0, time.UTC)
	assert.True(t, c.Ready(now, 30*time.Second))

	c.MarkUsed(now)
	assert.False(t, c.Ready(now.Add(29*time.Second), 30*time.Second))
	assert.True(t, c.Ready(now.Add(30*time.Second), 30*time.Second))
}

func TestScanRange(t *testing.T) {
	assert.Equal(t, 0, Range(0))
	assert.Equal(t, 1, Range(1))
	assert.Equal(t, 3, Range(2))
	assert.Equal(t, 4, Range(3))
}
