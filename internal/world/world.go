// Package world provides the grid environment agents live in: food and
// work richness fields generated from layered simplex noise, plus the
// affordance queries the cognitive engine's snapshots are built from.
// The economic rules here stay deliberately thin — the world's job is to
// produce raw outcomes, not to be interesting on its own.
// See design doc Section 3.
package world

import (
	"math/rand"

	opensimplex "github.com/ojrac/opensimplex-go"
)

// Coord is a position on the grid.
type Coord struct {
	X int `json:"x"`
	Y int `json:"y"`
}

// GenConfig holds world generation parameters.
type GenConfig struct {
	Width  int   // Grid width in cells
	Height int   // Grid height in cells
	Seed   int64 // Noise seed (0 = random)
}

// DefaultGenConfig returns the standard world size.
func DefaultGenConfig() GenConfig {
	return GenConfig{Width: 64, Height: 64}
}

// SmallTestConfig returns a tiny deterministic world for tests.
func SmallTestConfig() GenConfig {
	return GenConfig{Width: 8, Height: 8, Seed: 42}
}

// World is the generated environment. Fields are immutable after
// generation; agents read them, they don't reshape them.
type World struct {
	Width, Height int

	food []float64 // Row-major richness in [0,1]
	work []float64
}

// Generate creates a world from layered simplex noise, one independent
// layer per field.
func Generate(cfg GenConfig) *World {
	seed := cfg.Seed
	if seed == 0 {
		seed = rand.Int63()
	}

	foodNoise := opensimplex.NewNormalized(seed)
	workNoise := opensimplex.NewNormalized(seed + 1)

	w := &World{
		Width:  cfg.Width,
		Height: cfg.Height,
		food:   make([]float64, cfg.Width*cfg.Height),
		work:   make([]float64, cfg.Width*cfg.Height),
	}

	const scale = 0.1
	for y := 0; y < cfg.Height; y++ {
		for x := 0; x < cfg.Width; x++ {
			fx, fy := float64(x)*scale, float64(y)*scale
			// Two octaves: broad regions plus local variation.
			food := 0.7*foodNoise.Eval2(fx, fy) + 0.3*foodNoise.Eval2(fx*4, fy*4)
			work := 0.7*workNoise.Eval2(fx, fy) + 0.3*workNoise.Eval2(fx*4, fy*4)
			i := y*cfg.Width + x
			w.food[i] = food
			w.work[i] = work
		}
	}
	return w
}

// Clamp snaps a coordinate into the grid bounds.
func (w *World) Clamp(c Coord) Coord {
	if c.X < 0 {
		c.X = 0
	}
	if c.X >= w.Width {
		c.X = w.Width - 1
	}
	if c.Y < 0 {
		c.Y = 0
	}
	if c.Y >= w.Height {
		c.Y = w.Height - 1
	}
	return c
}

// FoodAt returns the food richness at a coordinate.
func (w *World) FoodAt(c Coord) float64 {
	c = w.Clamp(c)
	return w.food[c.Y*w.Width+c.X]
}

// WorkAt returns the work opportunity richness at a coordinate.
func (w *World) WorkAt(c Coord) float64 {
	c = w.Clamp(c)
	return w.work[c.Y*w.Width+c.X]
}

// Affordance thresholds: a cell offers food or work when its richness
// clears these.
const (
	FoodThreshold = 0.45
	WorkThreshold = 0.45
)

// HasFood reports whether the cell offers food this tick.
func (w *World) HasFood(c Coord) bool { return w.FoodAt(c) >= FoodThreshold }

// HasWork reports whether the cell offers work this tick.
func (w *World) HasWork(c Coord) bool { return w.WorkAt(c) >= WorkThreshold }

// Distance returns the Chebyshev distance between two coordinates —
// agents interact with anyone within one ring of cells.
func Distance(a, b Coord) int {
	dx := a.X - b.X
	if dx < 0 {
		dx = -dx
	}
	dy := a.Y - b.Y
	if dy < 0 {
		dy = -dy
	}
	if dx > dy {
		return dx
	}
	return dy
}

// Step moves a coordinate one cell in a random direction, clamped to the
// grid. Used by the search action.
func (w *World) Step(c Coord, rng *rand.Rand) Coord {
	c.X += rng.Intn(3) - 1
	c.Y += rng.Intn(3) - 1
	return w.Clamp(c)
}
