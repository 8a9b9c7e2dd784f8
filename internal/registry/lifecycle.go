// Lifecycle management — births with inherited cognition, deaths with
// cross-referenced cleanup.
package registry

import (
	"fmt"
	"log/slog"
	"math/rand"

	"github.com/talgya/micro-minds/internal/agents"
	"github.com/talgya/micro-minds/internal/brain"
	"github.com/talgya/micro-minds/internal/genome"
)

// Lifecycle wires birth and death into the registry.
type Lifecycle struct {
	reg     *Registry
	spawner *agents.Spawner
	op      genome.Operator
}

// NewLifecycle creates a lifecycle manager over the given registry.
func NewLifecycle(reg *Registry, spawner *agents.Spawner, op genome.Operator) *Lifecycle {
	return &Lifecycle{reg: reg, spawner: spawner, op: op}
}

// OnBirth produces a child of the two parents: crossed-over and mutated
// genome, inherited brain material deep-copied into an independent brain,
// empty episodic and social memory. The supplied source drives both the
// genetic and the network-initialization randomness, so two offspring of
// the same parents with different seeds end up with distinct parameters.
func (l *Lifecycle) OnBirth(mother, father *agents.Agent, tick uint64, rng *rand.Rand) (*agents.Agent, error) {
	childGenome := genome.Crossover(mother.Genome, father.Genome, rng)
	childGenome.Mutate(rng, 0.1)

	material := l.op.Inherit(
		mother.Mind.Material(),
		father.Mind.Material(),
		childGenome.BrainConfigFrom(l.spawner.BrainBase()),
		rng,
	)

	mind, err := brain.NewFromMaterial(material, rng)
	if err != nil {
		return nil, fmt.Errorf("birth from %d+%d: %w", mother.ID, father.ID, err)
	}

	sex := agents.SexMale
	if rng.Float64() < 0.5 {
		sex = agents.SexFemale
	}
	child := l.spawner.SpawnChild(sex, childGenome, mind, mother.Position, tick)
	l.reg.Add(child)

	slog.Info("agent born",
		"child", child.ID,
		"name", child.Name,
		"mother", mother.ID,
		"father", father.ID,
		"tick", tick,
	)
	return child, nil
}

// OnDeath marks the agent dead and purges it: its own stores are released
// with the agent, and its id is scrubbed from every survivor's social
// memory before the id could ever be reused.
func (l *Lifecycle) OnDeath(a *agents.Agent, tick uint64) {
	a.Alive = false
	l.reg.Purge(a.ID)
	slog.Info("agent died", "agent", a.ID, "name", a.Name, "tick", tick)
}
