// Package genome provides heritable agent traits and the genetics operator
// that combines two parents' learned material into a child's starting
// brain. The cognitive engine only depends on the Operator interface; this
// default implementation can be swapped for an external one.
// See design doc Section 6.
package genome

import (
	"math/rand"

	"github.com/talgya/micro-minds/internal/brain"
)

// Genome holds the heritable traits of one agent. Learning-relevant traits
// become brain hyperparameters; the rest shape the body (metabolism,
// stamina) and mate preference.
type Genome struct {
	Metabolism        float64 `json:"metabolism"`         // 0.5–1.5, energy burn rate
	Stamina           float64 `json:"stamina"`            // 0.5–1.5, rest recovery
	LearningCapacity  float64 `json:"learning_capacity"`  // 0.1–0.9 → learning rate
	Curiosity         float64 `json:"curiosity"`          // 0.05–0.3 → exploration rate
	AttractionProfile float64 `json:"attraction_profile"` // -1–1, mate preference shape
}

// NewRandom draws a genome from the founding-population distribution.
func NewRandom(rng *rand.Rand) Genome {
	return Genome{
		Metabolism:        0.5 + rng.Float64(),
		Stamina:           0.5 + rng.Float64(),
		LearningCapacity:  0.1 + rng.Float64()*0.8,
		Curiosity:         0.05 + rng.Float64()*0.25,
		AttractionProfile: rng.Float64()*2 - 1,
	}
}

// BrainConfig derives the cognitive hyperparameters from the genome,
// keeping the fixed capacities from the default tuning.
func (g Genome) BrainConfig() brain.Config {
	return g.BrainConfigFrom(brain.DefaultConfig())
}

// BrainConfigFrom overlays the genome-derived hyperparameters on a base
// capacity tuning (usually the colony's config file).
func (g Genome) BrainConfigFrom(base brain.Config) brain.Config {
	base.Alpha = g.LearningCapacity
	base.Epsilon = g.Curiosity
	return base
}

// Crossover creates a child genome picking each trait from either parent.
func Crossover(a, b Genome, rng *rand.Rand) Genome {
	pick := func(x, y float64) float64 {
		if rng.Float64() < 0.5 {
			return x
		}
		return y
	}
	return Genome{
		Metabolism:        pick(a.Metabolism, b.Metabolism),
		Stamina:           pick(a.Stamina, b.Stamina),
		LearningCapacity:  pick(a.LearningCapacity, b.LearningCapacity),
		Curiosity:         pick(a.Curiosity, b.Curiosity),
		AttractionProfile: pick(a.AttractionProfile, b.AttractionProfile),
	}
}

// Mutate perturbs traits in place with the given per-trait probability,
// clamping each to its valid range.
func (g *Genome) Mutate(rng *rand.Rand, rate float64) {
	if rng.Float64() < rate {
		g.Metabolism = clamp(g.Metabolism+rng.Float64()*0.4-0.2, 0.1, 2.0)
	}
	if rng.Float64() < rate {
		g.Stamina = clamp(g.Stamina+rng.Float64()*0.4-0.2, 0.1, 2.0)
	}
	if rng.Float64() < rate {
		g.LearningCapacity = clamp(g.LearningCapacity+rng.Float64()*0.2-0.1, 0.05, 1.0)
	}
	if rng.Float64() < rate {
		g.Curiosity = clamp(g.Curiosity+rng.Float64()*0.1-0.05, 0.0, 1.0)
	}
	if rng.Float64() < rate {
		g.AttractionProfile = clamp(g.AttractionProfile+rng.Float64()*0.6-0.3, -1.0, 1.0)
	}
}

func clamp(v, min, max float64) float64 {
	if v < min {
		return min
	}
	if v > max {
		return max
	}
	return v
}
