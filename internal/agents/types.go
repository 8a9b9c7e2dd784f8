// Package agents provides the agent data model and the spawner for the
// founding population. Learned behavior lives in each agent's brain; this
// package only carries the body.
// See design doc Section 4.
package agents

import (
	"github.com/talgya/micro-minds/internal/brain"
	"github.com/talgya/micro-minds/internal/genome"
	"github.com/talgya/micro-minds/internal/world"
)

// AgentID is a unique identifier for an agent. IDs are never reused while
// any reference to them can still exist — the registry purges social
// memories before an id is retired.
type AgentID uint64

// Sex represents biological sex for reproduction pairing.
type Sex uint8

const (
	SexMale   Sex = 0
	SexFemale Sex = 1
)

// Agent is one person in the colony.
type Agent struct {
	ID   AgentID `json:"id"`
	Name string  `json:"name"`
	Sex  Sex     `json:"sex"`

	// Vitals — the continuous dimensions the brain's encoder sees.
	Energy     float64 `json:"energy"`     // 0–100, death at 0
	Wealth     float64 `json:"wealth"`     // Crowns
	Mood       float64 `json:"mood"`       // -1.0–1.0
	Corruption float64 `json:"corruption"` // 0.0–1.0

	Position world.Coord `json:"position"`

	Genome genome.Genome `json:"genome"`

	// Mind is the agent's cognitive engine. Exclusively owned; never
	// shared between agents and excluded from the JSON view (checkpointed
	// separately).
	Mind *brain.Brain `json:"-"`

	BornTick uint64 `json:"born_tick"`
	Alive    bool   `json:"alive"`
}

// Peer returns the agent's id in the brain's peer namespace.
func (a *Agent) Peer() brain.PeerID { return brain.PeerID(a.ID) }

// AdjustMood moves mood by the scaled outcome of an action, then applies
// the natural decay toward neutral.
func (a *Agent) AdjustMood(shapedReward float64) {
	a.Mood += shapedReward / 5.0
	if a.Mood > 1 {
		a.Mood = 1
	}
	if a.Mood < -1 {
		a.Mood = -1
	}
	if a.Mood > 0 {
		a.Mood *= 0.99
	} else {
		a.Mood *= 0.98
	}
}
