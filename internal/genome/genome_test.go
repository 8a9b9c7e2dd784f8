package genome

import (
	"math/rand"
	"testing"
)

func TestNewRandomWithinTraitRanges(t *testing.T) {
	rng := rand.New(rand.NewSource(1))
	for i := 0; i < 200; i++ {
		g := NewRandom(rng)
		if g.Metabolism < 0.5 || g.Metabolism > 1.5 {
			t.Fatalf("metabolism %v out of range", g.Metabolism)
		}
		if g.Stamina < 0.5 || g.Stamina > 1.5 {
			t.Fatalf("stamina %v out of range", g.Stamina)
		}
		if g.LearningCapacity < 0.1 || g.LearningCapacity > 0.9 {
			t.Fatalf("learning capacity %v out of range", g.LearningCapacity)
		}
		if g.Curiosity < 0.05 || g.Curiosity > 0.3 {
			t.Fatalf("curiosity %v out of range", g.Curiosity)
		}
		if g.AttractionProfile < -1 || g.AttractionProfile > 1 {
			t.Fatalf("attraction profile %v out of range", g.AttractionProfile)
		}
	}
}

func TestBrainConfigDerivation(t *testing.T) {
	g := Genome{LearningCapacity: 0.42, Curiosity: 0.17, Metabolism: 1, Stamina: 1}
	cfg := g.BrainConfig()
	if cfg.Alpha != 0.42 {
		t.Fatalf("alpha = %v, want learning capacity 0.42", cfg.Alpha)
	}
	if cfg.Epsilon != 0.17 {
		t.Fatalf("epsilon = %v, want curiosity 0.17", cfg.Epsilon)
	}
	if err := cfg.Validate(); err != nil {
		t.Fatalf("derived config invalid: %v", err)
	}
}

func TestCrossoverPicksFromParents(t *testing.T) {
	a := Genome{Metabolism: 0.6, Stamina: 0.7, LearningCapacity: 0.2, Curiosity: 0.1, AttractionProfile: -0.5}
	b := Genome{Metabolism: 1.4, Stamina: 1.3, LearningCapacity: 0.8, Curiosity: 0.25, AttractionProfile: 0.5}

	rng := rand.New(rand.NewSource(1))
	for i := 0; i < 50; i++ {
		c := Crossover(a, b, rng)
		if c.Metabolism != a.Metabolism && c.Metabolism != b.Metabolism {
			t.Fatalf("metabolism %v from neither parent", c.Metabolism)
		}
		if c.LearningCapacity != a.LearningCapacity && c.LearningCapacity != b.LearningCapacity {
			t.Fatalf("learning capacity %v from neither parent", c.LearningCapacity)
		}
		if c.AttractionProfile != a.AttractionProfile && c.AttractionProfile != b.AttractionProfile {
			t.Fatalf("attraction profile %v from neither parent", c.AttractionProfile)
		}
	}
}

func TestMutateStaysClamped(t *testing.T) {
	rng := rand.New(rand.NewSource(2))
	g := NewRandom(rng)
	for i := 0; i < 1000; i++ {
		g.Mutate(rng, 1.0)
		if g.Metabolism < 0.1 || g.Metabolism > 2.0 {
			t.Fatalf("metabolism %v escaped clamp", g.Metabolism)
		}
		if g.LearningCapacity < 0.05 || g.LearningCapacity > 1.0 {
			t.Fatalf("learning capacity %v escaped clamp", g.LearningCapacity)
		}
		if g.Curiosity < 0 || g.Curiosity > 1 {
			t.Fatalf("curiosity %v escaped clamp", g.Curiosity)
		}
		if g.AttractionProfile < -1 || g.AttractionProfile > 1 {
			t.Fatalf("attraction profile %v escaped clamp", g.AttractionProfile)
		}
	}
}
