// Checkpoint serialization — covers hyperparameters, the Q-table, and the
// network parameters only. Episodic and social memory are deliberately
// excluded: a reloaded brain starts with empty memories, matching birth.
package brain

import (
	"encoding/json"
	"fmt"
)

// Checkpoint is the persistable view of a brain.
type Checkpoint struct {
	Config  Config                           `json:"config"`
	QValues map[StateKey][NumActions]float64 `json:"q_values"`
	Visits  map[StateKey]int                 `json:"visits"`
	Net     NetworkParams                    `json:"net"`
	Target  NetworkParams                    `json:"target"`
}

// Checkpoint exports the brain's persistable state as deep copies.
func (b *Brain) Checkpoint() Checkpoint {
	vals, vis := b.core.table.Export()
	return Checkpoint{
		Config:  b.cfg,
		QValues: vals,
		Visits:  vis,
		Net:     b.core.live.Params(),
		Target:  b.core.target.Params(),
	}
}

// Marshal encodes a checkpoint as JSON.
func (c Checkpoint) Marshal() ([]byte, error) {
	data, err := json.Marshal(c)
	if err != nil {
		return nil, fmt.Errorf("marshal checkpoint: %w", err)
	}
	return data, nil
}

// UnmarshalCheckpoint decodes a serialized checkpoint.
func UnmarshalCheckpoint(data []byte) (Checkpoint, error) {
	var c Checkpoint
	if err := json.Unmarshal(data, &c); err != nil {
		return Checkpoint{}, fmt.Errorf("unmarshal checkpoint: %w", err)
	}
	return c, nil
}

// Restore rebuilds a brain from a checkpoint. Memories start empty.
func Restore(c Checkpoint) (*Brain, error) {
	if err := c.Config.Validate(); err != nil {
		return nil, err
	}
	b := &Brain{
		cfg:      c.Config,
		episodic: NewEpisodicBuffer(c.Config.EpisodicCapacity),
		social:   NewSocialMemory(c.Config.MaxPeers, c.Config.MaxEventsPerPeer),
	}
	live := NetworkFromParams(c.Net)
	target := NetworkFromParams(c.Target)
	b.core = &LearningCore{
		cfg:    c.Config,
		table:  QTableFromExport(c.QValues, c.Visits),
		live:   live,
		target: target,
	}
	return b, nil
}
