package engine

import (
	"math"
	"math/rand"
	"testing"

	"github.com/talgya/micro-minds/internal/agents"
	"github.com/talgya/micro-minds/internal/genome"
	"github.com/talgya/micro-minds/internal/world"
)

// findCell scans the test world for a cell matching the predicate.
func findCell(t *testing.T, w *world.World, pred func(world.Coord) bool) world.Coord {
	t.Helper()
	for y := 0; y < w.Height; y++ {
		for x := 0; x < w.Width; x++ {
			c := world.Coord{X: x, Y: y}
			if pred(c) {
				return c
			}
		}
	}
	t.Skip("test world lacks a matching cell")
	return world.Coord{}
}

func plainAgent(pos world.Coord) *agents.Agent {
	return &agents.Agent{
		ID: 1, Energy: 50, Wealth: 20, Position: pos,
		Genome: genome.Genome{Metabolism: 1, Stamina: 1, LearningCapacity: 0.5, Curiosity: 0.1},
		Alive:  true,
	}
}

func TestResolveEat(t *testing.T) {
	sim, _ := testSim(t, 0)

	foodCell := findCell(t, sim.World, sim.World.HasFood)
	a := plainAgent(foodCell)

	ev := sim.resolveEat(a)
	wantNutrition := 20.0 * sim.World.FoodAt(foodCell)
	if math.Abs(ev.Raw-wantNutrition) > 1e-9 {
		t.Fatalf("raw = %v, want nutrition %v", ev.Raw, wantNutrition)
	}
	if a.Wealth != 15 {
		t.Fatalf("wealth = %v, want 15 after paying for food", a.Wealth)
	}
	if a.Energy <= 50 {
		t.Fatalf("energy did not increase: %v", a.Energy)
	}

	// Broke agents get the penalty and no meal.
	broke := plainAgent(foodCell)
	broke.Wealth = 1
	ev = sim.resolveEat(broke)
	if ev.Raw != -5 || broke.Energy != 50 {
		t.Fatalf("broke agent: raw %v energy %v, want -5 and unchanged", ev.Raw, broke.Energy)
	}

	// Barren cells waste the action.
	barren := findCell(t, sim.World, func(c world.Coord) bool { return !sim.World.HasFood(c) })
	wasted := plainAgent(barren)
	if ev := sim.resolveEat(wasted); ev.Raw != -1 {
		t.Fatalf("barren cell raw = %v, want -1", ev.Raw)
	}
}

func TestResolveWork(t *testing.T) {
	sim, _ := testSim(t, 0)

	workCell := findCell(t, sim.World, sim.World.HasWork)
	a := plainAgent(workCell)

	ev := sim.resolveWork(a)
	wantEarnings := 10.0 * 1.25 * sim.World.WorkAt(workCell)
	if math.Abs(ev.Raw-wantEarnings) > 1e-9 {
		t.Fatalf("raw = %v, want earnings %v", ev.Raw, wantEarnings)
	}
	if a.Energy != 35 {
		t.Fatalf("energy = %v, want 35 after labor cost", a.Energy)
	}

	exhausted := plainAgent(workCell)
	exhausted.Energy = 10
	if ev := sim.resolveWork(exhausted); ev.Raw != -10 {
		t.Fatalf("exhausted raw = %v, want -10", ev.Raw)
	}
}

func TestResolveRest(t *testing.T) {
	sim, _ := testSim(t, 0)
	a := plainAgent(world.Coord{})
	a.Corruption = 0.5

	ev := sim.resolveRest(a)
	if ev.Raw != 10 {
		t.Fatalf("raw = %v, want 10 recovered", ev.Raw)
	}
	if a.Energy != 60 {
		t.Fatalf("energy = %v, want 60", a.Energy)
	}
	if a.Corruption >= 0.5 {
		t.Fatalf("rest did not wash corruption: %v", a.Corruption)
	}

	// Recovery caps at full energy; the reward reflects the actual gain.
	full := plainAgent(world.Coord{})
	full.Energy = 95
	ev = sim.resolveRest(full)
	if full.Energy != 100 || ev.Raw != 5 {
		t.Fatalf("capped rest: energy %v raw %v, want 100 and 5", full.Energy, ev.Raw)
	}
}

func TestResolveMateWithoutCandidates(t *testing.T) {
	sim, _ := testSim(t, 0)
	a := plainAgent(world.Coord{})
	sim.Registry.Add(a)

	out := sim.resolveMate(a, 1, rand.New(rand.NewSource(1)))
	if out.Target != nil {
		t.Fatalf("found a mate in an empty world")
	}
	if out.Event.Raw != -0.2 {
		t.Fatalf("raw = %v, want -0.2", out.Event.Raw)
	}
}

func TestResolveTradeTargetsWealthiestNeighbor(t *testing.T) {
	sim, _ := testSim(t, 0)

	a := plainAgent(world.Coord{X: 3, Y: 3})
	poor := plainAgent(world.Coord{X: 4, Y: 3})
	poor.ID, poor.Wealth = 2, 5
	rich := plainAgent(world.Coord{X: 3, Y: 4})
	rich.ID, rich.Wealth = 3, 500
	far := plainAgent(world.Coord{X: 7, Y: 7})
	far.ID, far.Wealth = 4, 9999

	sim.Registry.Add(a)
	sim.Registry.Add(poor)
	sim.Registry.Add(rich)
	sim.Registry.Add(far)

	out := sim.resolveTrade(a, rand.New(rand.NewSource(1)))
	if out.Target == nil || out.Target.ID != rich.ID {
		t.Fatalf("trade target = %v, want wealthiest in-range neighbor", out.Target)
	}
}

func TestResolveSearchMovesAndCosts(t *testing.T) {
	sim, _ := testSim(t, 0)
	a := plainAgent(world.Coord{X: 3, Y: 3})

	ev := sim.resolveSearch(a, rand.New(rand.NewSource(1)))
	if ev.Raw != -1 {
		t.Fatalf("raw = %v, want -metabolism", ev.Raw)
	}
	if a.Energy != 49 {
		t.Fatalf("energy = %v, want 49", a.Energy)
	}
	if a.Position.X < 0 || a.Position.X >= sim.World.Width {
		t.Fatalf("search left the grid: %v", a.Position)
	}
}
