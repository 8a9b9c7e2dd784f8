package engine

import (
	"testing"

	"github.com/talgya/micro-minds/internal/agents"
	"github.com/talgya/micro-minds/internal/brain"
	"github.com/talgya/micro-minds/internal/entropy"
	"github.com/talgya/micro-minds/internal/genome"
	"github.com/talgya/micro-minds/internal/registry"
	"github.com/talgya/micro-minds/internal/world"
)

func testSim(t *testing.T, population int) (*Simulation, *agents.Spawner) {
	t.Helper()
	w := world.Generate(world.SmallTestConfig())
	spawner := agents.NewSpawner(1, brain.DefaultConfig())
	pop, err := spawner.SpawnPopulation(population, w)
	if err != nil {
		t.Fatalf("spawn failed: %v", err)
	}

	reg := registry.New()
	for _, a := range pop {
		reg.Add(a)
	}
	life := registry.NewLifecycle(reg, spawner, genome.NewDefaultOperator())
	return NewSimulation(w, reg, life, entropy.NewStreams(1)), spawner
}

func TestTickMinuteKeepsMemoriesBounded(t *testing.T) {
	sim, _ := testSim(t, 6)
	sim.SweepEvery = 10

	for tick := uint64(1); tick <= 200; tick++ {
		sim.TickMinute(tick)
		for _, a := range sim.Registry.Living() {
			stats := a.Mind.Stats()
			if stats.BufferLen > 100 {
				t.Fatalf("tick %d: episodic buffer %d over capacity", tick, stats.BufferLen)
			}
			if stats.KnownPeers > 50 {
				t.Fatalf("tick %d: social memory %d over capacity", tick, stats.KnownPeers)
			}
			if a.Mood < -1 || a.Mood > 1 {
				t.Fatalf("tick %d: mood %v out of range", tick, a.Mood)
			}
		}
	}
}

func TestStarvationDeathPurgesAgent(t *testing.T) {
	sim, spawner := testSim(t, 0)

	// A body that cannot out-earn its upkeep: rest recovers at most 1
	// energy while the metabolic burn is 6 per tick.
	g := genome.Genome{
		Metabolism: 2.0, Stamina: 0.1,
		LearningCapacity: 0.5, Curiosity: 0.1, AttractionProfile: 0,
	}
	mind, err := brain.New(g.BrainConfig(), entropy.NewStreams(1).ForAgent(99))
	if err != nil {
		t.Fatalf("brain failed: %v", err)
	}
	doomed := &agents.Agent{
		ID: spawner.NextID(), Name: "Doomed", Energy: 3, Wealth: 0,
		Genome: g, Mind: mind, Alive: true,
	}
	sim.Registry.Add(doomed)

	witness := &agents.Agent{
		ID: spawner.NextID(), Name: "Witness", Energy: 90, Wealth: 50,
		Genome: genome.Genome{Metabolism: 0.5, Stamina: 1.5, LearningCapacity: 0.5, Curiosity: 0.1},
		Alive:  true,
	}
	wm, err := brain.New(witness.Genome.BrainConfig(), entropy.NewStreams(1).ForAgent(100))
	if err != nil {
		t.Fatalf("brain failed: %v", err)
	}
	witness.Mind = wm
	witness.Mind.RecordInteraction(doomed.Peer(), 1, brain.ActionTrade, 0.5)
	sim.Registry.Add(witness)

	sim.TickMinute(1)

	if doomed.Alive {
		t.Fatalf("doomed agent survived an impossible energy budget")
	}
	if sim.Registry.Contains(doomed.ID) {
		t.Fatalf("dead agent still registered")
	}
	stats, _ := sim.View()
	if stats.Deaths != 1 {
		t.Fatalf("deaths = %d, want 1", stats.Deaths)
	}
	if _, ok := witness.Mind.Social().Entry(doomed.Peer()); ok {
		t.Fatalf("witness still remembers the purged agent")
	}
}

func TestDeathReleasesDecisionStream(t *testing.T) {
	sim, spawner := testSim(t, 0)

	doomedGenome := genome.Genome{
		Metabolism: 2.0, Stamina: 0.1, LearningCapacity: 0.5, Curiosity: 0.1,
	}
	for i := 0; i < 5; i++ {
		mind, err := brain.New(doomedGenome.BrainConfig(), entropy.NewStreams(1).ForAgent(uint64(200+i)))
		if err != nil {
			t.Fatalf("brain failed: %v", err)
		}
		sim.Registry.Add(&agents.Agent{
			ID: spawner.NextID(), Name: "Doomed", Energy: 0.1,
			Genome: doomedGenome, Mind: mind, Alive: true,
		})
	}

	survivor := &agents.Agent{
		ID: spawner.NextID(), Name: "Survivor", Energy: 90, Wealth: 50,
		Genome: genome.Genome{Metabolism: 0.5, Stamina: 1.5, LearningCapacity: 0.5, Curiosity: 0.1},
		Alive:  true,
	}
	sm, err := brain.New(survivor.Genome.BrainConfig(), entropy.NewStreams(1).ForAgent(300))
	if err != nil {
		t.Fatalf("brain failed: %v", err)
	}
	survivor.Mind = sm
	sim.Registry.Add(survivor)

	sim.TickMinute(1)

	if n := len(sim.Registry.Living()); n != 1 {
		t.Fatalf("living = %d, want only the survivor", n)
	}
	// Decision streams must track the population, not every agent ever born.
	if n := len(sim.agentRNG); n != 1 {
		t.Fatalf("decision streams retained = %d, want 1", n)
	}
	if _, ok := sim.agentRNG[survivor.ID]; !ok {
		t.Fatalf("survivor's decision stream was dropped")
	}
}

func TestSnapshotAffordancesMatchWorld(t *testing.T) {
	sim, _ := testSim(t, 2)
	a := sim.Registry.Living()[0]

	snap := sim.snapshotFor(a)
	if snap.CanIdle != brain.AffordancePresent {
		t.Errorf("idle affordance = %v, want present", snap.CanIdle)
	}
	wantFood := presence(sim.World.HasFood(a.Position))
	if snap.FoodAvailable != wantFood {
		t.Errorf("food affordance = %v, want %v", snap.FoodAvailable, wantFood)
	}
	if snap.Energy != a.Energy || snap.Wealth != a.Wealth {
		t.Errorf("snapshot vitals do not match the agent")
	}
}

func TestLegalActionsAlwaysIncludeSafeSet(t *testing.T) {
	sim, _ := testSim(t, 1)
	a := sim.Registry.Living()[0]
	snap := sim.snapshotFor(a)

	legal := sim.legalActions(a, snap)
	want := map[brain.ActionKind]bool{
		brain.ActionRest: false, brain.ActionSearch: false, brain.ActionIdle: false,
	}
	for _, act := range legal {
		if _, ok := want[act]; ok {
			want[act] = true
		}
	}
	for act, seen := range want {
		if !seen {
			t.Errorf("safe action %v missing from legal set", act)
		}
	}
}

func TestEventsTrimmed(t *testing.T) {
	sim, _ := testSim(t, 0)
	for i := 0; i < 1500; i++ {
		sim.emit(uint64(i), "event", "agent")
	}
	sim.TickMinute(1501)
	if len(sim.Events) > 1000 {
		t.Fatalf("events = %d, want <= 1000", len(sim.Events))
	}
	recent := sim.RecentEvents(10)
	if len(recent) != 10 {
		t.Fatalf("recent = %d, want 10", len(recent))
	}
	if recent[9].Tick != 1499 {
		t.Fatalf("newest event tick = %d, want 1499", recent[9].Tick)
	}
}
