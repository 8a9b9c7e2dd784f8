// Learning core — owns the Q-table and the function approximator, computes
// hybrid value estimates, and performs the TD(0) and replay updates.
// See design doc Section 5.4.
package brain

import (
	"fmt"
	"math/rand"
)

// Gamma is the fixed discount factor. Genome-derived parameters cover the
// learning and exploration rates; the horizon is a world constant.
const Gamma = 0.95

// Config holds the genome-derived hyperparameters plus the fixed capacities
// of one agent's cognitive state.
type Config struct {
	Alpha   float64 // Learning rate, from genome, must be positive
	Epsilon float64 // Base exploration rate, from genome, in [0,1]

	EpisodicCapacity int // Transition ring buffer size
	MaxPeers         int // Social memory: total remembered peers
	MaxEventsPerPeer int // Social memory: micro-events per peer

	BatchSize           int     // Replay minibatch size
	TargetSyncTicks     uint64  // Target network refresh period
	ConfidenceThreshold float64 // Tabular visits for full Q-table confidence
	QTableSoftCap       int     // Key count past which growth is a config error
}

// DefaultConfig returns the capacities used when the genome doesn't
// override them. Values match the reference tuning.
func DefaultConfig() Config {
	return Config{
		Alpha:               0.1,
		Epsilon:             0.1,
		EpisodicCapacity:    100,
		MaxPeers:            50,
		MaxEventsPerPeer:    5,
		BatchSize:           32,
		TargetSyncTicks:     100,
		ConfidenceThreshold: 20,
		QTableSoftCap:       8192,
	}
}

// Validate reports ErrConfiguration for hyperparameters the learning rules
// cannot operate on.
func (c Config) Validate() error {
	if c.Alpha <= 0 || c.Alpha > 1 {
		return fmt.Errorf("%w: learning rate %v outside (0,1]", ErrConfiguration, c.Alpha)
	}
	if c.Epsilon < 0 || c.Epsilon > 1 {
		return fmt.Errorf("%w: exploration rate %v outside [0,1]", ErrConfiguration, c.Epsilon)
	}
	if c.EpisodicCapacity <= 0 {
		return fmt.Errorf("%w: episodic capacity %d", ErrConfiguration, c.EpisodicCapacity)
	}
	if c.MaxPeers <= 0 || c.MaxEventsPerPeer <= 0 {
		return fmt.Errorf("%w: social capacities %d/%d", ErrConfiguration, c.MaxPeers, c.MaxEventsPerPeer)
	}
	if c.BatchSize <= 0 {
		return fmt.Errorf("%w: batch size %d", ErrConfiguration, c.BatchSize)
	}
	if c.TargetSyncTicks == 0 {
		return fmt.Errorf("%w: target sync period 0", ErrConfiguration)
	}
	if c.ConfidenceThreshold <= 0 {
		return fmt.Errorf("%w: confidence threshold %v", ErrConfiguration, c.ConfidenceThreshold)
	}
	if c.QTableSoftCap <= 0 {
		return fmt.Errorf("%w: q-table soft cap %d", ErrConfiguration, c.QTableSoftCap)
	}
	return nil
}

// QTable is the sparse tabular value store: discretized state key to one
// value per action. Entries are created lazily on first touch; only keys
// the encoder can produce ever enter the table.
type QTable struct {
	values map[StateKey]*[NumActions]float64
	visits map[StateKey]int
}

// NewQTable creates an empty table.
func NewQTable() *QTable {
	return &QTable{
		values: make(map[StateKey]*[NumActions]float64),
		visits: make(map[StateKey]int),
	}
}

// row returns the value vector for a state, creating it lazily.
func (q *QTable) row(s StateKey) *[NumActions]float64 {
	r, ok := q.values[s]
	if !ok {
		r = &[NumActions]float64{}
		q.values[s] = r
	}
	return r
}

// Get returns the value of one state-action pair (0 for unseen states).
func (q *QTable) Get(s StateKey, a ActionKind) float64 {
	if r, ok := q.values[s]; ok {
		return r[a]
	}
	return 0
}

// MaxValue returns the best action value for a state (0 for unseen states).
func (q *QTable) MaxValue(s StateKey) float64 {
	r, ok := q.values[s]
	if !ok {
		return 0
	}
	best := r[0]
	for _, v := range r[1:] {
		if v > best {
			best = v
		}
	}
	return best
}

// Visits returns how often a state has been visited by the policy.
func (q *QTable) Visits(s StateKey) int { return q.visits[s] }

// Visit records one policy visit to a state.
func (q *QTable) Visit(s StateKey) { q.visits[s]++ }

// Len returns the number of distinct state keys.
func (q *QTable) Len() int { return len(q.values) }

// Export returns deep copies of the value and visit maps, for checkpoints
// and the genetics collaborator.
func (q *QTable) Export() (map[StateKey][NumActions]float64, map[StateKey]int) {
	vals := make(map[StateKey][NumActions]float64, len(q.values))
	for k, r := range q.values {
		vals[k] = *r
	}
	vis := make(map[StateKey]int, len(q.visits))
	for k, v := range q.visits {
		vis[k] = v
	}
	return vals, vis
}

// QTableFromExport rebuilds a table owning independent copies of the data.
func QTableFromExport(vals map[StateKey][NumActions]float64, vis map[StateKey]int) *QTable {
	q := NewQTable()
	for k, r := range vals {
		row := r
		q.values[k] = &row
	}
	for k, v := range vis {
		q.visits[k] = v
	}
	return q
}

// LearningCore combines the tabular and network learners.
type LearningCore struct {
	cfg    Config
	table  *QTable
	live   *Network
	target *Network

	ticksSinceSync uint64
}

// NewLearningCore builds a core with a fresh table and randomly initialized
// live network; the target starts as an exact copy of the live network.
func NewLearningCore(cfg Config, rng *rand.Rand) *LearningCore {
	live := NewNetwork(FeatureSize, HiddenSize, NumActions, cfg.Alpha, rng)
	return &LearningCore{
		cfg:    cfg,
		table:  NewQTable(),
		live:   live,
		target: live.Clone(),
	}
}

// Table exposes the Q-table for the policy's visit counting.
func (lc *LearningCore) Table() *QTable { return lc.table }

// Value returns the hybrid estimate for one state-action pair:
// w*Qtable + (1-w)*Qnet with w = min(1, visits/confidenceThreshold).
// Novel states lean on the network; well-visited states trust the table.
func (lc *LearningCore) Value(s StateKey, feats []float64, a ActionKind) float64 {
	w := float64(lc.table.Visits(s)) / lc.cfg.ConfidenceThreshold
	if w > 1 {
		w = 1
	}
	netVals := lc.live.Forward(feats)
	return w*lc.table.Get(s, a) + (1-w)*netVals[a]
}

// Values returns hybrid estimates for all actions at once, avoiding one
// network forward pass per action during argmax.
func (lc *LearningCore) Values(s StateKey, feats []float64) [NumActions]float64 {
	w := float64(lc.table.Visits(s)) / lc.cfg.ConfidenceThreshold
	if w > 1 {
		w = 1
	}
	netVals := lc.live.Forward(feats)
	var out [NumActions]float64
	for a := 0; a < NumActions; a++ {
		out[a] = w*lc.table.Get(s, ActionKind(a)) + (1-w)*netVals[a]
	}
	return out
}

// UpdateTabular applies the TD(0) rule for one transition and returns the
// TD error. A table that grew past the soft cap means the encoder broke its
// boundedness contract — reported, never silently truncated.
func (lc *LearningCore) UpdateTabular(t Transition) (float64, error) {
	row := lc.table.row(t.State)

	var nextMax float64
	if !t.Terminal {
		nextMax = lc.table.MaxValue(t.NextState)
	}
	tdErr := t.Reward + Gamma*nextMax - row[t.Action]
	row[t.Action] += lc.cfg.Alpha * tdErr

	if lc.table.Len() > lc.cfg.QTableSoftCap {
		return tdErr, fmt.Errorf("%w: q-table grew to %d keys past soft cap %d",
			ErrConfiguration, lc.table.Len(), lc.cfg.QTableSoftCap)
	}
	return tdErr, nil
}

// TrainReplay samples a minibatch from the episodic buffer and takes one
// gradient step per transition on the live network. TD targets come from
// the frozen target copy so the regression target doesn't move mid-batch.
func (lc *LearningCore) TrainReplay(rng *rand.Rand, buf *EpisodicBuffer) {
	batch := buf.Sample(rng, lc.cfg.BatchSize)
	for _, t := range batch {
		target := lc.live.Forward(t.Features)
		var nextMax float64
		if !t.Terminal {
			nextVals := lc.target.Forward(t.NextFeatures)
			nextMax = nextVals[0]
			for _, v := range nextVals[1:] {
				if v > nextMax {
					nextMax = v
				}
			}
		}
		target[t.Action] = t.Reward + Gamma*nextMax
		lc.live.Train(t.Features, target)
	}
}

// TickSync advances the sync counter and refreshes the target network when
// the period elapses.
func (lc *LearningCore) TickSync() {
	lc.ticksSinceSync++
	if lc.ticksSinceSync >= lc.cfg.TargetSyncTicks {
		lc.target.CopyFrom(lc.live)
		lc.ticksSinceSync = 0
	}
}
