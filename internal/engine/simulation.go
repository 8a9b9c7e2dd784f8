// Simulation orchestration — runs one decision/update cycle per living
// agent per tick and wires lifecycle events into the population.
package engine

import (
	"fmt"
	"log/slog"
	"math/rand"
	"sync"

	"github.com/talgya/micro-minds/internal/agents"
	"github.com/talgya/micro-minds/internal/brain"
	"github.com/talgya/micro-minds/internal/entropy"
	"github.com/talgya/micro-minds/internal/registry"
	"github.com/talgya/micro-minds/internal/world"
)

// InteractionRange is how far (in cells) agents can reach each other for
// mating and trading.
const InteractionRange = 2

// Event is a notable occurrence in the colony.
type Event struct {
	Tick        uint64 `json:"tick"`
	Description string `json:"description"`
	Category    string `json:"category"` // "birth", "death", "social", "agent"
}

// SimStats tracks aggregate colony statistics.
type SimStats struct {
	Population  int     `json:"population"`
	TotalWealth float64 `json:"total_wealth"`
	Births      int     `json:"births"`
	Deaths      int     `json:"deaths"`
	AvgMood     float64 `json:"avg_mood"`
	AvgEnergy   float64 `json:"avg_energy"`
}

// Simulation holds the colony state and runs the per-tick cognition cycle.
type Simulation struct {
	mu sync.RWMutex

	World    *world.World
	Registry *registry.Registry
	Life     *registry.Lifecycle
	Streams  *entropy.Streams

	// SweepEvery is the defensive memory sweep period in ticks.
	SweepEvery uint64

	Events   []Event
	Stats    SimStats
	LastTick uint64

	// Per-agent decision streams, derived lazily from the master seed.
	agentRNG map[agents.AgentID]*rand.Rand
}

// NewSimulation wires the colony together.
func NewSimulation(w *world.World, reg *registry.Registry, life *registry.Lifecycle, streams *entropy.Streams) *Simulation {
	return &Simulation{
		World:      w,
		Registry:   reg,
		Life:       life,
		Streams:    streams,
		SweepEvery: 100,
		agentRNG:   make(map[agents.AgentID]*rand.Rand),
	}
}

// rngFor returns the agent's stable decision stream.
func (s *Simulation) rngFor(id agents.AgentID) *rand.Rand {
	rng, ok := s.agentRNG[id]
	if !ok {
		rng = s.Streams.ForAgent(uint64(id))
		s.agentRNG[id] = rng
	}
	return rng
}

// TickMinute runs every tick: one decide → act → learn cycle per living
// agent, then the periodic defensive sweep.
func (s *Simulation) TickMinute(tick uint64) {
	s.mu.Lock()
	defer s.mu.Unlock()

	s.LastTick = tick
	for _, a := range s.Registry.Living() {
		s.runAgentCycle(a, tick)
	}

	if s.SweepEvery > 0 && tick%s.SweepEvery == 0 {
		s.Registry.Sweep(tick)
	}

	// Trim old events to prevent unbounded growth (keep last 1000).
	if len(s.Events) > 1000 {
		s.Events = s.Events[len(s.Events)-1000:]
	}
}

// runAgentCycle executes one full cognition cycle for one agent. A fault
// in this agent's cycle never touches another agent's state: the panic is
// recovered, logged, and the agent idles for the tick.
func (s *Simulation) runAgentCycle(a *agents.Agent, tick uint64) {
	defer func() {
		if r := recover(); r != nil {
			slog.Error("agent cycle panicked, idling agent for tick",
				"agent", a.ID, "tick", tick, "panic", r)
		}
	}()

	rng := s.rngFor(a.ID)

	snap := s.snapshotFor(a)
	legal := s.legalActions(a, snap)

	decision, err := a.Mind.SelectAction(snap, legal, rng)
	if err != nil {
		slog.Warn("action selection failed, idling",
			"agent", a.ID, "tick", tick, "error", err)
		return
	}

	preEnergy := a.Energy
	outcome := s.resolveAction(a, decision.Action, tick, rng)
	outcome.Event.ContextMul = brain.NearDeathDampening(preEnergy)

	reward := brain.Normalize(outcome.Event)
	a.AdjustMood(reward)

	// Upkeep: living costs energy regardless of the action taken.
	a.Energy -= 0.3 * a.Genome.Metabolism / a.Genome.Stamina
	dead := a.Energy <= 0

	nextSnap := s.snapshotFor(a)
	nextKey, nextFeats, err := brain.Encode(nextSnap)
	if err != nil {
		slog.Warn("post-action encode failed, skipping update",
			"agent", a.ID, "tick", tick, "error", err)
		return
	}

	t := brain.Transition{
		State:        decision.State,
		Features:     decision.Features,
		Action:       decision.Action,
		Reward:       reward,
		NextState:    nextKey,
		NextFeatures: nextFeats,
		Terminal:     dead,
	}
	if err := a.Mind.Observe(t); err != nil {
		// A Q-table past its soft cap means the encoder's boundedness
		// contract broke somewhere upstream. Loud, never silent.
		slog.Error("learning update failed", "agent", a.ID, "tick", tick, "error", err)
	}

	// Social side effects: both parties remember a peer-targeted action.
	if outcome.Target != nil {
		a.Mind.RecordInteraction(outcome.Target.Peer(), tick, decision.Action, reward)
		outcome.Target.Mind.RecordInteraction(a.Peer(), tick, decision.Action, reward)
	}

	if dead {
		s.Stats.Deaths++
		s.emit(tick, fmt.Sprintf("%s has died", a.Name), "death")
		s.Life.OnDeath(a, tick)
		// Release the decision stream with the agent; ids are never reused
		// within a run, so the entry can't be reclaimed by anyone else.
		delete(s.agentRNG, a.ID)
	}
}

// snapshotFor builds the encoder's view of an agent and its surroundings.
func (s *Simulation) snapshotFor(a *agents.Agent) brain.Snapshot {
	snap := brain.Snapshot{
		Energy:     a.Energy,
		Wealth:     a.Wealth,
		Mood:       a.Mood,
		Corruption: a.Corruption,
		CanIdle:    brain.AffordancePresent,
	}

	snap.FoodAvailable = presence(s.World.HasFood(a.Position))
	snap.WorkAvailable = presence(s.World.HasWork(a.Position))

	mateFound := false
	for _, other := range s.Registry.Living() {
		if other.ID == a.ID {
			continue
		}
		if world.Distance(a.Position, other.Position) <= InteractionRange {
			snap.NearbyPeers = append(snap.NearbyPeers, other.Peer())
			if other.Sex != a.Sex && other.Energy > 30 && a.Energy > 30 {
				mateFound = true
			}
		}
	}
	snap.MateCandidate = presence(mateFound)

	return snap
}

// legalActions derives the action set for the current affordances. Rest,
// search, and idle are always legal.
func (s *Simulation) legalActions(a *agents.Agent, snap brain.Snapshot) []brain.ActionKind {
	legal := []brain.ActionKind{brain.ActionRest, brain.ActionSearch, brain.ActionIdle}
	if snap.FoodAvailable == brain.AffordancePresent {
		legal = append(legal, brain.ActionEat)
	}
	if snap.WorkAvailable == brain.AffordancePresent && a.Energy > 5 {
		legal = append(legal, brain.ActionWork)
	}
	if snap.MateCandidate == brain.AffordancePresent {
		legal = append(legal, brain.ActionMate)
	}
	if len(snap.NearbyPeers) > 0 {
		legal = append(legal, brain.ActionTrade)
	}
	return legal
}

func presence(ok bool) brain.Affordance {
	if ok {
		return brain.AffordancePresent
	}
	return brain.AffordanceAbsent
}

func (s *Simulation) emit(tick uint64, desc, category string) {
	s.Events = append(s.Events, Event{Tick: tick, Description: desc, Category: category})
}

// UpdateStats recomputes the aggregate statistics. Called hourly.
func (s *Simulation) UpdateStats(tick uint64) {
	s.mu.Lock()
	defer s.mu.Unlock()

	living := s.Registry.Living()
	stats := SimStats{
		Population: len(living),
		Births:     s.Stats.Births,
		Deaths:     s.Stats.Deaths,
	}
	for _, a := range living {
		stats.TotalWealth += a.Wealth
		stats.AvgMood += a.Mood
		stats.AvgEnergy += a.Energy
	}
	if len(living) > 0 {
		stats.AvgMood /= float64(len(living))
		stats.AvgEnergy /= float64(len(living))
	}
	s.Stats = stats

	slog.Info("hourly report",
		"tick", tick,
		"population", stats.Population,
		"births", stats.Births,
		"deaths", stats.Deaths,
		"avg_mood", fmt.Sprintf("%.3f", stats.AvgMood),
		"avg_energy", fmt.Sprintf("%.1f", stats.AvgEnergy),
		"total_wealth", fmt.Sprintf("%.0f", stats.TotalWealth),
	)
}

// View returns a copy of the current stats for the API.
func (s *Simulation) View() (SimStats, uint64) {
	s.mu.RLock()
	defer s.mu.RUnlock()
	return s.Stats, s.LastTick
}

// RecentEvents returns up to n most recent events, newest last.
func (s *Simulation) RecentEvents(n int) []Event {
	s.mu.RLock()
	defer s.mu.RUnlock()
	if n > len(s.Events) {
		n = len(s.Events)
	}
	out := make([]Event, n)
	copy(out, s.Events[len(s.Events)-n:])
	return out
}

// WithAgents runs fn with the population under the read lock. The API uses
// this to build response views without racing the tick loop.
func (s *Simulation) WithAgents(fn func([]*agents.Agent)) {
	s.mu.RLock()
	defer s.mu.RUnlock()
	fn(s.Registry.Living())
}
