package testutil

import (
	"math/rand/v2"
	"testing"

	"github.com/udisondev/deepwatch/internal/world"
)

// Rand возвращает детерминированный генератор для seed.
func Rand(seed uint64) *rand.Rand {
	return rand.New(rand.NewPCG(seed, seed^0x9e3779b97f4a7c15))
}

// NewGrid создаёт пустой мир x на y с общим rng.
func NewGrid(t testing.TB, x, y int, rng *rand.Rand) *world.Grid {
	t.Helper()
	return world.NewGrid(x, y, rng)
}

// SetAttribute задаёт атрибут клетки и валит тест при ошибке.
func SetAttribute(t testing.TB, g *world.Grid, p world.Point, key, value string) {
	t.Helper()
	c, err := g.MustCell(p)
	if err != nil {
		t.Fatalf("cell %s: %v", p, err)
	}
	if _, err := c.AddAttribute(key, value); err != nil {
		t.Fatalf("attribute %s=%q at %s: %v", key, value, p, err)
	}
}
