// Brain ties the encoder, memory stores, reward shaper, and learning core
// into the per-agent decision cycle: encode, evaluate, act, observe, learn.
// Each brain is exclusively owned by its agent; nothing here is shared
// between agents.
// See design doc Section 5.5.
package brain

import (
	"fmt"
	"math/rand"
)

// Brain is one agent's complete cognitive state.
type Brain struct {
	cfg      Config
	core     *LearningCore
	episodic *EpisodicBuffer
	social   *SocialMemory

	decisions uint64 // Lifetime decision count, drives exploration decay
}

// Decision is the result of one action selection: the chosen action plus
// the encoded state, handed back so the caller can report the transition
// after the world applies the action.
type Decision struct {
	Action   ActionKind
	State    StateKey
	Features []float64
	Explored bool
}

// New creates a fresh brain from genome-derived hyperparameters. The
// supplied source seeds the network's initial weights.
func New(cfg Config, rng *rand.Rand) (*Brain, error) {
	if err := cfg.Validate(); err != nil {
		return nil, err
	}
	return &Brain{
		cfg:      cfg,
		core:     NewLearningCore(cfg, rng),
		episodic: NewEpisodicBuffer(cfg.EpisodicCapacity),
		social:   NewSocialMemory(cfg.MaxPeers, cfg.MaxEventsPerPeer),
	}, nil
}

// Material is the copyable view of a brain's inheritable state: the
// hyperparameters, the Q-table contents, and the live network parameters.
// Everything is deep-copied on export and import — parents and offspring
// never alias learned weights. Episodic and social memory are not part of
// inheritance; offspring start with empty memories.
type Material struct {
	Config  Config
	QValues map[StateKey][NumActions]float64
	Visits  map[StateKey]int
	Net     NetworkParams
}

// Material exports a deep copy of the brain's inheritable state for the
// genetics collaborator.
func (b *Brain) Material() Material {
	vals, vis := b.core.table.Export()
	return Material{
		Config:  b.cfg,
		QValues: vals,
		Visits:  vis,
		Net:     b.core.live.Params(),
	}
}

// NewFromMaterial creates a brain owning independent deep copies of
// inherited material. Mutating the child never changes the parent and vice
// versa. Memories start empty.
func NewFromMaterial(m Material, rng *rand.Rand) (*Brain, error) {
	if err := m.Config.Validate(); err != nil {
		return nil, err
	}
	b := &Brain{
		cfg:      m.Config,
		core:     NewLearningCore(m.Config, rng),
		episodic: NewEpisodicBuffer(m.Config.EpisodicCapacity),
		social:   NewSocialMemory(m.Config.MaxPeers, m.Config.MaxEventsPerPeer),
	}
	if m.QValues != nil {
		b.core.table = QTableFromExport(m.QValues, m.Visits)
	}
	if m.Net.InSize > 0 {
		b.core.live = NetworkFromParams(m.Net)
		b.core.target = b.core.live.Clone()
	}
	return b, nil
}

// explorationRate returns epsilon decayed over the agent's decision count:
// young brains explore, experienced ones exploit.
func (b *Brain) explorationRate() float64 {
	return b.cfg.Epsilon / (1.0 + float64(b.decisions)/200.0)
}

// SelectAction picks an action for the current snapshot: with probability
// epsilon a uniformly random legal action, otherwise the legal action with
// the highest hybrid value. Ties break by the fixed priority order so
// selection is deterministic under a fixed seed. The learning update
// happens later, in Observe, once the world reports the outcome.
func (b *Brain) SelectAction(snap Snapshot, legal []ActionKind, rng *rand.Rand) (Decision, error) {
	if len(legal) == 0 {
		legal = []ActionKind{ActionIdle}
	}
	key, feats, err := Encode(snap)
	if err != nil {
		return Decision{}, err
	}

	b.core.table.Visit(key)
	b.decisions++

	if rng.Float64() < b.explorationRate() {
		return Decision{
			Action:   legal[rng.Intn(len(legal))],
			State:    key,
			Features: feats,
			Explored: true,
		}, nil
	}

	values := b.core.Values(key, feats)
	legalSet := map[ActionKind]bool{}
	for _, a := range legal {
		legalSet[a] = true
	}

	var chosen ActionKind
	best := 0.0
	found := false
	for _, a := range tiePriority {
		if !legalSet[a] {
			continue
		}
		if !found || values[a] > best {
			chosen = a
			best = values[a]
			found = true
		}
	}
	return Decision{Action: chosen, State: key, Features: feats}, nil
}

// Observe records a completed transition and performs the learning updates:
// tabular TD(0) immediately, one replay minibatch on the network, and the
// periodic target sync.
func (b *Brain) Observe(t Transition) error {
	b.episodic.Add(t)

	_, err := b.core.UpdateTabular(t)

	if b.episodic.Len() >= b.cfg.BatchSize {
		b.core.TrainReplay(b.replayRNG(t), b.episodic)
	}
	b.core.TickSync()
	return err
}

// replayRNG derives a deterministic sampling source from the transition so
// replay is reproducible without threading a second generator through the
// engine.
func (b *Brain) replayRNG(t Transition) *rand.Rand {
	seed := int64(b.decisions)*31 + int64(t.Action)
	return rand.New(rand.NewSource(seed))
}

// RecordInteraction updates social memory after an action that targeted a
// peer.
func (b *Brain) RecordInteraction(peer PeerID, tick uint64, action ActionKind, outcome float64) {
	importance := outcome
	if importance < 0 {
		importance = -importance
	}
	if importance > 1 {
		importance = 1
	}
	b.social.Record(peer, tick, action, outcome, importance)
}

// ForgetPeer scrubs a dead peer from social memory. Called by the registry
// purge; no dangling id survives it.
func (b *Brain) ForgetPeer(peer PeerID) {
	b.social.Forget(peer)
}

// Social exposes the social memory table (read side for the API, purge
// side for the registry).
func (b *Brain) Social() *SocialMemory { return b.social }

// Episodic exposes the transition buffer for bound checks.
func (b *Brain) Episodic() *EpisodicBuffer { return b.episodic }

// Value returns the hybrid estimate for one state-action pair.
func (b *Brain) Value(s StateKey, feats []float64, a ActionKind) float64 {
	return b.core.Value(s, feats, a)
}

// Sweep re-validates memory bounds. A repaired violation is returned so the
// caller can log it; healthy state returns nil.
func (b *Brain) Sweep(now uint64) error {
	if b.episodic.Len() > b.episodic.Cap() {
		// Unreachable with the ring buffer, but the sweep checks anyway.
		return fmt.Errorf("%w: episodic buffer %d over capacity %d",
			ErrMemoryInvariant, b.episodic.Len(), b.episodic.Cap())
	}
	return b.social.CheckBounds(now)
}

// Stats summarizes the brain for observation endpoints.
type Stats struct {
	Decisions   uint64  `json:"decisions"`
	Epsilon     float64 `json:"epsilon"`
	QTableKeys  int     `json:"q_table_keys"`
	BufferLen   int     `json:"buffer_len"`
	KnownPeers  int     `json:"known_peers"`
}

// Stats returns a snapshot of the brain's learning progress.
func (b *Brain) Stats() Stats {
	return Stats{
		Decisions:  b.decisions,
		Epsilon:    b.explorationRate(),
		QTableKeys: b.core.table.Len(),
		BufferLen:  b.episodic.Len(),
		KnownPeers: b.social.Len(),
	}
}
