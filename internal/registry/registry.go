// Package registry is the single owner of agent lifetimes. All cross-agent
// references are id-based lookups into this registry — never owning
// pointers — so purging a dead agent here is sufficient to retire its id
// everywhere.
// See design doc Section 7.
package registry

import (
	"log/slog"

	"github.com/talgya/micro-minds/internal/agents"
)

// Registry holds the living population.
type Registry struct {
	byID  map[agents.AgentID]*agents.Agent
	order []*agents.Agent // Stable iteration order (insertion)
}

// New creates an empty registry.
func New() *Registry {
	return &Registry{byID: make(map[agents.AgentID]*agents.Agent)}
}

// Add registers an agent.
func (r *Registry) Add(a *agents.Agent) {
	r.byID[a.ID] = a
	r.order = append(r.order, a)
}

// Get returns the agent with the given id, if registered.
func (r *Registry) Get(id agents.AgentID) (*agents.Agent, bool) {
	a, ok := r.byID[id]
	return a, ok
}

// Contains reports whether an id is registered.
func (r *Registry) Contains(id agents.AgentID) bool {
	_, ok := r.byID[id]
	return ok
}

// Living returns the living agents in stable order. The slice is rebuilt
// per call; callers may not hold it across a purge.
func (r *Registry) Living() []*agents.Agent {
	out := make([]*agents.Agent, 0, len(r.order))
	for _, a := range r.order {
		if a.Alive {
			out = append(out, a)
		}
	}
	return out
}

// Len returns the number of living agents.
func (r *Registry) Len() int {
	n := 0
	for _, a := range r.order {
		if a.Alive {
			n++
		}
	}
	return n
}

// remove drops an agent from the registry entirely. Only the purge path
// calls this, after every cross-reference has been scrubbed.
func (r *Registry) remove(id agents.AgentID) {
	delete(r.byID, id)
	for i, a := range r.order {
		if a.ID == id {
			r.order = append(r.order[:i], r.order[i+1:]...)
			break
		}
	}
}

// Purge scrubs a dead agent's id from every survivor's social memory and
// retires the id. Linear in population size — no reverse index is kept,
// deaths are rare relative to ticks.
func (r *Registry) Purge(id agents.AgentID) {
	dead, ok := r.byID[id]
	if !ok {
		return
	}
	peer := dead.Peer()
	for _, a := range r.order {
		if a.ID == id || a.Mind == nil {
			continue
		}
		a.Mind.ForgetPeer(peer)
	}
	r.remove(id)
}

// Sweep is the defensive pass run every K ticks, independent of the death
// notification path: re-validate every brain's memory bounds and drop
// social entries whose owner is no longer registered. Repairs are logged,
// not fatal.
func (r *Registry) Sweep(tick uint64) {
	for _, a := range r.order {
		if !a.Alive || a.Mind == nil {
			continue
		}
		if err := a.Mind.Sweep(tick); err != nil {
			slog.Warn("memory sweep repaired invariant",
				"agent", a.ID, "tick", tick, "error", err)
		}
		for _, peer := range a.Mind.Social().Peers() {
			if !r.Contains(agents.AgentID(peer)) {
				a.Mind.ForgetPeer(peer)
				slog.Warn("memory sweep dropped stale peer",
					"agent", a.ID, "peer", peer, "tick", tick)
			}
		}
	}
}
