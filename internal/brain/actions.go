// Package brain implements the per-agent cognitive engine: hybrid tabular +
// network reinforcement learning over a bounded encoded state space, with
// bounded episodic and social memory.
// See design doc Sections 5.1–5.6.
package brain

// ActionKind enumerates everything an agent can decide to do in a tick.
// The set is closed: the encoder, Q-table, and network all size their
// output on NumActions.
type ActionKind uint8

const (
	ActionEat    ActionKind = iota // Consume or buy food
	ActionWork                     // Labor for wealth
	ActionRest                     // Recover energy
	ActionMate                     // Court a nearby candidate
	ActionTrade                    // Exchange goods with a peer
	ActionSearch                   // Explore for resources
	ActionIdle                     // Do nothing
)

// NumActions is the size of the closed action set.
const NumActions = 7

// actionNames is indexed by ActionKind.
var actionNames = [NumActions]string{
	"eat", "work", "rest", "mate", "trade", "search", "idle",
}

// String returns the wire name of the action.
func (k ActionKind) String() string {
	if int(k) < len(actionNames) {
		return actionNames[k]
	}
	return "unknown"
}

// tiePriority is the fixed argmax tie-break order: survival first, then
// economic, then social actions. Deterministic so repeated selection on an
// identical state yields the identical action.
var tiePriority = [NumActions]ActionKind{
	ActionEat, ActionWork, ActionRest, ActionMate, ActionTrade, ActionSearch, ActionIdle,
}

// PeerID identifies another agent. Social memory holds ids only, never
// pointers — the registry is the single owner of agent lifetimes.
type PeerID uint64
