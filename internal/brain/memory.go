// Bounded memory stores — the episodic transition buffer feeding replay
// learning, and the social memory table tracking past peer interactions.
// Both have hard capacities and documented eviction policies.
// See design doc Section 5.2.
package brain

import (
	"fmt"
	"math"
	"math/rand"
)

// Transition is one decision outcome: state before, action taken, shaped
// reward, state after. Feature vectors are carried alongside the keys so
// replay training never re-encodes.
type Transition struct {
	State        StateKey
	Features     []float64
	Action       ActionKind
	Reward       float64
	NextState    StateKey
	NextFeatures []float64
	Terminal     bool
}

// EpisodicBuffer is a fixed-capacity ring buffer of transitions. Eviction
// policy: oldest-first — when full, a new insert overwrites the oldest
// entry. Chosen over priority eviction because replay sampling is uniform;
// the two must stay consistent.
type EpisodicBuffer struct {
	buf  []Transition
	head int // Next write position
	size int
}

// NewEpisodicBuffer creates a buffer holding at most capacity transitions.
func NewEpisodicBuffer(capacity int) *EpisodicBuffer {
	return &EpisodicBuffer{buf: make([]Transition, capacity)}
}

// Add inserts a transition, evicting the oldest when full.
func (b *EpisodicBuffer) Add(t Transition) {
	if len(b.buf) == 0 {
		return
	}
	b.buf[b.head] = t
	b.head = (b.head + 1) % len(b.buf)
	if b.size < len(b.buf) {
		b.size++
	}
}

// Len returns the number of stored transitions.
func (b *EpisodicBuffer) Len() int { return b.size }

// Cap returns the buffer capacity.
func (b *EpisodicBuffer) Cap() int { return len(b.buf) }

// Sample draws n transitions uniformly at random (with replacement when n
// exceeds the stored count). Returns nil when the buffer is empty.
func (b *EpisodicBuffer) Sample(rng *rand.Rand, n int) []Transition {
	if b.size == 0 || n <= 0 {
		return nil
	}
	if n > b.size {
		n = b.size
	}
	out := make([]Transition, n)
	for i := range out {
		out[i] = b.buf[rng.Intn(b.size)]
	}
	return out
}

// Clear empties the buffer. Used on checkpoint restore: episodic memory is
// never persisted.
func (b *EpisodicBuffer) Clear() {
	b.head = 0
	b.size = 0
}

// SocialEvent is one remembered micro-interaction with a peer.
type SocialEvent struct {
	Tick       uint64
	Action     ActionKind
	Outcome    float64 // Shaped reward of the interaction
	Importance float64 // 0–1
}

// SocialAggregate is the running collapse of micro-events that aged out of
// a peer's event list. Signal is folded in, never silently dropped.
type SocialAggregate struct {
	Count       int
	MeanOutcome float64
}

// SocialEntry is everything remembered about one peer.
type SocialEntry struct {
	Peer       PeerID
	Trust      float64 // 0–1, moves incrementally, never reset
	Affinity   float64 // -1–1
	LastTick   uint64
	Importance float64 // Eviction ranking weight
	Events     []SocialEvent
	Aggregate  SocialAggregate
}

// recencyHalfLifeTicks controls eviction scoring: an entry untouched for
// one half-life counts for half its importance.
const recencyHalfLifeTicks = 1000

// SocialMemory is the bounded per-agent table of peer entries.
type SocialMemory struct {
	entries          map[PeerID]*SocialEntry
	maxPeers         int
	maxEventsPerPeer int
}

// NewSocialMemory creates a table bounded to maxPeers entries with at most
// maxEventsPerPeer micro-events each.
func NewSocialMemory(maxPeers, maxEventsPerPeer int) *SocialMemory {
	return &SocialMemory{
		entries:          make(map[PeerID]*SocialEntry),
		maxPeers:         maxPeers,
		maxEventsPerPeer: maxEventsPerPeer,
	}
}

// Len returns the number of remembered peers.
func (m *SocialMemory) Len() int { return len(m.entries) }

// Entry returns the remembered entry for a peer, if any.
func (m *SocialMemory) Entry(peer PeerID) (SocialEntry, bool) {
	e, ok := m.entries[peer]
	if !ok {
		return SocialEntry{}, false
	}
	return *e, true
}

// Entries returns copies of every remembered entry, in no particular order.
func (m *SocialMemory) Entries() []SocialEntry {
	out := make([]SocialEntry, 0, len(m.entries))
	for _, e := range m.entries {
		out = append(out, *e)
	}
	return out
}

// Peers returns the ids of all remembered peers.
func (m *SocialMemory) Peers() []PeerID {
	out := make([]PeerID, 0, len(m.entries))
	for id := range m.entries {
		out = append(out, id)
	}
	return out
}

// Record inserts or updates the entry for a peer after an interaction.
// Trust and affinity move incrementally toward the outcome; they are never
// reset. When the peer's event list is full the oldest event collapses into
// the running aggregate. When the table itself is full the entry with the
// lowest importance x recency-decay score is evicted to make room.
func (m *SocialMemory) Record(peer PeerID, tick uint64, action ActionKind, outcome, importance float64) {
	e, ok := m.entries[peer]
	if !ok {
		if len(m.entries) >= m.maxPeers {
			m.evictLowest(tick)
		}
		e = &SocialEntry{Peer: peer, Trust: 0.5}
		m.entries[peer] = e
	}

	// Incremental adjustment: positive outcomes build trust and affinity,
	// negative ones erode them.
	e.Trust = clamp01(e.Trust + 0.1*outcome)
	e.Affinity = clampRange(e.Affinity+0.15*outcome, -1, 1)
	e.LastTick = tick
	if importance > e.Importance {
		e.Importance = importance
	}

	ev := SocialEvent{Tick: tick, Action: action, Outcome: outcome, Importance: importance}
	if len(e.Events) >= m.maxEventsPerPeer {
		m.collapseOldest(e)
	}
	e.Events = append(e.Events, ev)
}

// collapseOldest folds the oldest event into the aggregate record.
func (m *SocialMemory) collapseOldest(e *SocialEntry) {
	if len(e.Events) == 0 {
		return
	}
	oldest := e.Events[0]
	e.Events = e.Events[1:]
	agg := &e.Aggregate
	agg.MeanOutcome = (agg.MeanOutcome*float64(agg.Count) + oldest.Outcome) / float64(agg.Count+1)
	agg.Count++
}

// evictLowest removes the entry with the lowest importance x recency score.
func (m *SocialMemory) evictLowest(now uint64) {
	var worst PeerID
	worstScore := math.Inf(1)
	for id, e := range m.entries {
		score := e.Importance * recencyDecay(now, e.LastTick)
		if score < worstScore {
			worstScore = score
			worst = id
		}
	}
	delete(m.entries, worst)
}

// Forget removes a peer entirely. Called by the registry purge when the
// peer dies so no dangling id survives.
func (m *SocialMemory) Forget(peer PeerID) {
	delete(m.entries, peer)
}

// Clear empties the table. Social memory is never persisted.
func (m *SocialMemory) Clear() {
	m.entries = make(map[PeerID]*SocialEntry)
}

// CheckBounds re-validates the capacity invariants. On a violation it
// repairs by forced eviction and reports ErrMemoryInvariant so the caller
// can log the repair. A clean table returns nil.
func (m *SocialMemory) CheckBounds(now uint64) error {
	var violated bool
	for len(m.entries) > m.maxPeers {
		m.evictLowest(now)
		violated = true
	}
	for _, e := range m.entries {
		for len(e.Events) > m.maxEventsPerPeer {
			m.collapseOldest(e)
			violated = true
		}
	}
	if violated {
		return fmt.Errorf("%w: social memory exceeded bounds, repaired by eviction", ErrMemoryInvariant)
	}
	return nil
}

func recencyDecay(now, last uint64) float64 {
	if now <= last {
		return 1.0
	}
	age := float64(now - last)
	return math.Pow(0.5, age/recencyHalfLifeTicks)
}

func clamp01(v float64) float64 { return clampRange(v, 0, 1) }

func clampRange(v, min, max float64) float64 {
	if v < min {
		return min
	}
	if v > max {
		return max
	}
	return v
}
