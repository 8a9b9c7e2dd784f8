package brain

import (
	"errors"
	"math/rand"
	"testing"
)

func TestEpisodicBoundedAfterEveryInsert(t *testing.T) {
	buf := NewEpisodicBuffer(10)
	for i := 0; i < 100; i++ {
		buf.Add(Transition{Reward: float64(i)})
		if buf.Len() > buf.Cap() {
			t.Fatalf("after insert %d: len %d exceeds cap %d", i, buf.Len(), buf.Cap())
		}
	}
	if buf.Len() != 10 {
		t.Fatalf("len = %d, want 10", buf.Len())
	}
}

func TestEpisodicEvictsOldest(t *testing.T) {
	buf := NewEpisodicBuffer(3)
	for i := 1; i <= 4; i++ {
		buf.Add(Transition{Reward: float64(i)})
	}

	// Reward 1 was the oldest and must be gone.
	rng := rand.New(rand.NewSource(1))
	for i := 0; i < 200; i++ {
		for _, tr := range buf.Sample(rng, 3) {
			if tr.Reward == 1 {
				t.Fatalf("evicted transition still sampled")
			}
		}
	}
}

func TestEpisodicSampleEmpty(t *testing.T) {
	buf := NewEpisodicBuffer(5)
	if got := buf.Sample(rand.New(rand.NewSource(1)), 3); got != nil {
		t.Fatalf("sample of empty buffer = %v, want nil", got)
	}
}

func TestSocialEvictionAtCapacity(t *testing.T) {
	m := NewSocialMemory(50, 5)
	for i := 1; i <= 50; i++ {
		m.Record(PeerID(i), uint64(i), ActionTrade, 0.5, float64(i)/100)
	}
	if m.Len() != 50 {
		t.Fatalf("len = %d, want 50", m.Len())
	}

	// The 51st peer displaces exactly one entry.
	m.Record(PeerID(51), 51, ActionTrade, 0.5, 0.9)
	if m.Len() != 50 {
		t.Fatalf("after overflow: len = %d, want 50", m.Len())
	}
	if _, ok := m.Entry(51); !ok {
		t.Fatalf("new peer not remembered")
	}

	// Peer 1 had the lowest importance and similar recency decay — it is
	// the eviction candidate.
	if _, ok := m.Entry(1); ok {
		t.Errorf("lowest-importance peer survived eviction")
	}
}

func TestSocialEventCollapse(t *testing.T) {
	m := NewSocialMemory(10, 5)
	for i := 1; i <= 8; i++ {
		m.Record(7, uint64(i), ActionTrade, float64(i), 0.5)
	}

	e, ok := m.Entry(7)
	if !ok {
		t.Fatalf("peer missing")
	}
	if len(e.Events) != 5 {
		t.Fatalf("events = %d, want 5", len(e.Events))
	}
	// Outcomes 1, 2, 3 collapsed into the aggregate.
	if e.Aggregate.Count != 3 {
		t.Fatalf("aggregate count = %d, want 3", e.Aggregate.Count)
	}
	if e.Aggregate.MeanOutcome != 2 {
		t.Fatalf("aggregate mean = %v, want 2", e.Aggregate.MeanOutcome)
	}
	// Surviving events are the most recent five.
	if e.Events[0].Tick != 4 || e.Events[4].Tick != 8 {
		t.Fatalf("unexpected surviving events: first tick %d, last tick %d",
			e.Events[0].Tick, e.Events[4].Tick)
	}
}

func TestSocialTrustAffinityClamped(t *testing.T) {
	m := NewSocialMemory(10, 5)
	for i := 0; i < 100; i++ {
		m.Record(1, uint64(i), ActionMate, 1.0, 0.5)
		m.Record(2, uint64(i), ActionTrade, -1.0, 0.5)
	}

	friend, _ := m.Entry(1)
	if friend.Trust > 1 || friend.Affinity > 1 {
		t.Fatalf("positive peer out of range: trust %v affinity %v", friend.Trust, friend.Affinity)
	}
	if friend.Trust != 1 {
		t.Errorf("trust = %v, want saturated 1", friend.Trust)
	}

	enemy, _ := m.Entry(2)
	if enemy.Trust < 0 || enemy.Affinity < -1 {
		t.Fatalf("negative peer out of range: trust %v affinity %v", enemy.Trust, enemy.Affinity)
	}
}

func TestSocialForget(t *testing.T) {
	m := NewSocialMemory(10, 5)
	m.Record(3, 1, ActionTrade, 0.5, 0.5)
	m.Forget(3)
	if _, ok := m.Entry(3); ok {
		t.Fatalf("forgotten peer still present")
	}
	if m.Len() != 0 {
		t.Fatalf("len = %d, want 0", m.Len())
	}
}

func TestCheckBoundsRepairs(t *testing.T) {
	m := NewSocialMemory(2, 2)

	// Force violations directly — the public path can't produce them.
	for i := 1; i <= 4; i++ {
		m.entries[PeerID(i)] = &SocialEntry{
			Peer:       PeerID(i),
			Importance: float64(i) / 10,
			LastTick:   uint64(i),
			Events: []SocialEvent{
				{Tick: 1, Outcome: 1}, {Tick: 2, Outcome: 2}, {Tick: 3, Outcome: 3},
			},
		}
	}

	err := m.CheckBounds(10)
	if !errors.Is(err, ErrMemoryInvariant) {
		t.Fatalf("want ErrMemoryInvariant, got %v", err)
	}
	if m.Len() != 2 {
		t.Fatalf("after repair: len = %d, want 2", m.Len())
	}
	for _, e := range m.entries {
		if len(e.Events) > 2 {
			t.Fatalf("after repair: %d events, want <= 2", len(e.Events))
		}
	}

	// A healthy table reports nothing.
	if err := m.CheckBounds(11); err != nil {
		t.Fatalf("healthy table reported %v", err)
	}
}
