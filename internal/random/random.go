// Package random provides the random source used for dice rolls.
package random

import (
	"math/rand"
	"time"

	"github.com/verte-zerg/tuidice/internal/dice"
)

// Generator wraps a private math/rand source.
type Generator struct {
	rnd *rand.Rand
}

// New returns a Generator seeded with the current time.
func New() *Generator {
	return NewSeeded(time.Now().UnixNano())
}

// NewSeeded returns a Generator with a fixed seed.
func NewSeeded(seed int64) *Generator {
	return &Generator{rnd: rand.New(rand.NewSource(seed))}
}

// Float64 returns a value in [0, 1).
func (g *Generator) Float64() float64 {
	return g.rnd.Float64()
}

// Source returns the generator as a dice.Source.
func (g *Generator) Source() dice.Source {
	return g.Float64
}
