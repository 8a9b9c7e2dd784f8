// Action resolution — applies a chosen action to the world and produces
// the raw reward event the shaper normalizes. Outcomes are in the world's
// native units (nutrition, crowns, energy); the brain never sees them raw.
package engine

import (
	"fmt"
	"log/slog"
	"math/rand"

	"github.com/talgya/micro-minds/internal/agents"
	"github.com/talgya/micro-minds/internal/brain"
	"github.com/talgya/micro-minds/internal/world"
)

const foodCost = 5.0

// Outcome is the result of resolving one action: the raw reward event plus
// the peer the action targeted, if any.
type Outcome struct {
	Event  brain.RewardEvent
	Target *agents.Agent
}

// resolveAction executes the action's effects and returns the raw outcome.
func (s *Simulation) resolveAction(a *agents.Agent, action brain.ActionKind, tick uint64, rng *rand.Rand) Outcome {
	switch action {
	case brain.ActionEat:
		return Outcome{Event: s.resolveEat(a)}
	case brain.ActionWork:
		return Outcome{Event: s.resolveWork(a)}
	case brain.ActionRest:
		return Outcome{Event: s.resolveRest(a)}
	case brain.ActionMate:
		return s.resolveMate(a, tick, rng)
	case brain.ActionTrade:
		return s.resolveTrade(a, rng)
	case brain.ActionSearch:
		return Outcome{Event: s.resolveSearch(a, rng)}
	default:
		return Outcome{Event: brain.RewardEvent{Action: brain.ActionIdle}}
	}
}

// resolveEat buys and consumes food at the current cell. Nutrition scales
// with the cell's food richness.
func (s *Simulation) resolveEat(a *agents.Agent) brain.RewardEvent {
	ev := brain.RewardEvent{Action: brain.ActionEat}

	if !s.World.HasFood(a.Position) {
		ev.Raw = -1 // Nothing here — wasted effort
		return ev
	}
	if a.Wealth < foodCost {
		ev.Raw = -5 // Can't afford a meal
		return ev
	}

	a.Wealth -= foodCost
	nutrition := 20.0 * s.World.FoodAt(a.Position)
	a.Energy += nutrition
	if a.Energy > 100 {
		a.Energy = 100
	}
	ev.Raw = nutrition
	return ev
}

// resolveWork labors at the current cell: energy spent for crowns earned.
// Earnings scale with learning capacity, the same trait that drives the
// brain's learning rate.
func (s *Simulation) resolveWork(a *agents.Agent) brain.RewardEvent {
	ev := brain.RewardEvent{Action: brain.ActionWork}

	if a.Energy < 20 {
		ev.Raw = -10 // Too exhausted to work
		return ev
	}
	if !s.World.HasWork(a.Position) {
		ev.Raw = -2
		return ev
	}

	cost := 15.0 * a.Genome.Metabolism
	if a.Energy < cost {
		ev.Raw = -5
		return ev
	}
	a.Energy -= cost

	earnings := 10.0 * (1.0 + a.Genome.LearningCapacity/2) * s.World.WorkAt(a.Position)
	a.Wealth += earnings
	ev.Raw = earnings
	return ev
}

// resolveRest recovers energy scaled by stamina.
func (s *Simulation) resolveRest(a *agents.Agent) brain.RewardEvent {
	before := a.Energy
	a.Energy += 10.0 * a.Genome.Stamina
	if a.Energy > 100 {
		a.Energy = 100
	}
	// Idle recovery also washes off a little corruption.
	a.Corruption *= 0.995
	return brain.RewardEvent{Action: brain.ActionRest, Raw: a.Energy - before}
}

// resolveMate courts the most attractive candidate in range. Successful
// reproduction is the strongest outcome; bonding without offspring still
// pays socially.
func (s *Simulation) resolveMate(a *agents.Agent, tick uint64, rng *rand.Rand) Outcome {
	ev := brain.RewardEvent{Action: brain.ActionMate}

	mate := s.bestMate(a)
	if mate == nil {
		ev.Raw = -0.2
		return Outcome{Event: ev}
	}

	// Reproduction requires an opposite-sex pair with energy to spare.
	if a.Sex != mate.Sex && a.Energy > 40 && mate.Energy > 40 && rng.Float64() < 0.25 {
		mother, father := a, mate
		if mother.Sex != agents.SexFemale {
			mother, father = mate, a
		}
		child, err := s.Life.OnBirth(mother, father, tick, rng)
		if err != nil {
			slog.Warn("birth failed", "mother", mother.ID, "father", father.ID, "error", err)
			ev.Raw = 4
			return Outcome{Event: ev, Target: mate}
		}
		a.Energy -= 10
		mate.Energy -= 10
		s.Stats.Births++
		s.emit(tick, fmt.Sprintf("%s and %s had a child, %s", a.Name, mate.Name, child.Name), "birth")
		ev.Raw = 6
		return Outcome{Event: ev, Target: mate}
	}

	// Bonding without reproduction.
	ev.Raw = 4
	return Outcome{Event: ev, Target: mate}
}

// bestMate returns the candidate in range the agent finds most attractive,
// scored by the genome's attraction profile: positive profiles prefer
// stronger traits, negative ones prefer similar traits.
func (s *Simulation) bestMate(a *agents.Agent) *agents.Agent {
	var best *agents.Agent
	bestScore := 0.0
	for _, other := range s.Registry.Living() {
		if other.ID == a.ID || other.Sex == a.Sex {
			continue
		}
		if world.Distance(a.Position, other.Position) > InteractionRange {
			continue
		}
		if a.Energy <= 30 || other.Energy <= 30 {
			continue
		}
		score := attraction(a, other)
		if best == nil || score > bestScore {
			best = other
			bestScore = score
		}
	}
	return best
}

func attraction(a, candidate *agents.Agent) float64 {
	score := 1.0
	profile := a.Genome.AttractionProfile

	staminaDiff := candidate.Genome.Stamina - a.Genome.Stamina
	learnDiff := candidate.Genome.LearningCapacity - a.Genome.LearningCapacity
	if profile > 0 {
		score += (staminaDiff + learnDiff) * profile
	} else {
		score -= (abs(staminaDiff) + abs(learnDiff)) * -profile
	}
	return score
}

// resolveTrade exchanges goods with the wealthiest peer in range. The
// margin depends on local market richness; a lopsided bargain nudges the
// richer party's corruption upward.
func (s *Simulation) resolveTrade(a *agents.Agent, rng *rand.Rand) Outcome {
	ev := brain.RewardEvent{Action: brain.ActionTrade}

	var partner *agents.Agent
	for _, other := range s.Registry.Living() {
		if other.ID == a.ID {
			continue
		}
		if world.Distance(a.Position, other.Position) > InteractionRange {
			continue
		}
		if partner == nil || other.Wealth > partner.Wealth {
			partner = other
		}
	}
	if partner == nil {
		ev.Raw = -2
		return Outcome{Event: ev}
	}

	margin := 5.0*s.World.WorkAt(a.Position) - 1.0 + rng.Float64()
	a.Wealth += margin
	if a.Wealth < 0 {
		a.Wealth = 0
	}
	partner.Wealth += margin * 0.5

	if margin > 3 {
		a.Corruption += 0.01
		if a.Corruption > 1 {
			a.Corruption = 1
		}
	}

	ev.Raw = margin
	return Outcome{Event: ev, Target: partner}
}

// resolveSearch wanders one cell, paying a small energy cost for the
// chance of better ground.
func (s *Simulation) resolveSearch(a *agents.Agent, rng *rand.Rand) brain.RewardEvent {
	a.Position = s.World.Step(a.Position, rng)
	cost := 1.0 * a.Genome.Metabolism
	a.Energy -= cost
	return brain.RewardEvent{Action: brain.ActionSearch, Raw: -cost}
}

func abs(v float64) float64 {
	if v < 0 {
		return -v
	}
	return v
}
