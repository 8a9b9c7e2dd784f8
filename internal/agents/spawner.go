// Agent spawning — creates founders with random genomes and fresh brains.
package agents

import (
	"fmt"
	"math/rand"

	"github.com/talgya/micro-minds/internal/brain"
	"github.com/talgya/micro-minds/internal/genome"
	"github.com/talgya/micro-minds/internal/world"
)

// Spawner creates agents and owns the id sequence.
type Spawner struct {
	rng    *rand.Rand
	nextID AgentID
	base   brain.Config
}

// NewSpawner creates a spawner with the given seed. The base config carries
// the colony's memory and learning capacities; each genome overlays its own
// hyperparameters on it.
func NewSpawner(seed int64, base brain.Config) *Spawner {
	return &Spawner{
		rng:    rand.New(rand.NewSource(seed + 300)),
		nextID: 1,
		base:   base,
	}
}

// BrainBase returns the capacity tuning new brains start from.
func (s *Spawner) BrainBase() brain.Config { return s.base }

// SetNextID sets the next agent id to be issued (used when restoring).
func (s *Spawner) SetNextID(id AgentID) { s.nextID = id }

// NextID issues a fresh agent id.
func (s *Spawner) NextID() AgentID {
	id := s.nextID
	s.nextID++
	return id
}

// SpawnPopulation creates the founding population scattered over the world.
func (s *Spawner) SpawnPopulation(count int, w *world.World) ([]*Agent, error) {
	out := make([]*Agent, 0, count)
	for i := 0; i < count; i++ {
		a, err := s.SpawnOne(w)
		if err != nil {
			return nil, err
		}
		out = append(out, a)
	}
	return out, nil
}

// SpawnOne creates one founder with a random genome and a fresh brain.
func (s *Spawner) SpawnOne(w *world.World) (*Agent, error) {
	id := s.NextID()

	sex := SexMale
	if s.rng.Float64() < 0.5 {
		sex = SexFemale
	}

	g := genome.NewRandom(s.rng)
	mind, err := brain.New(g.BrainConfigFrom(s.base), s.rng)
	if err != nil {
		return nil, fmt.Errorf("spawn agent %d: %w", id, err)
	}

	return &Agent{
		ID:       id,
		Name:     s.generateName(sex),
		Sex:      sex,
		Energy:   70 + s.rng.Float64()*30,
		Wealth:   20 + s.rng.Float64()*30,
		Mood:     s.rng.Float64()*0.4 - 0.1,
		Position: world.Coord{X: s.rng.Intn(w.Width), Y: s.rng.Intn(w.Height)},
		Genome:   g,
		Mind:     mind,
		Alive:    true,
	}, nil
}

// SpawnChild creates an offspring body at the parents' location. The brain
// is supplied by the lifecycle, which handles inheritance.
func (s *Spawner) SpawnChild(sex Sex, g genome.Genome, mind *brain.Brain, pos world.Coord, tick uint64) *Agent {
	return &Agent{
		ID:       s.NextID(),
		Name:     s.generateName(sex),
		Sex:      sex,
		Energy:   60,
		Wealth:   0,
		Position: pos,
		Genome:   g,
		Mind:     mind,
		BornTick: tick,
		Alive:    true,
	}
}

var maleNames = []string{
	"Aldric", "Bram", "Cedric", "Dorn", "Edmund", "Fenwick", "Gareth",
	"Hadrian", "Ivo", "Jorah", "Kellan", "Leoric", "Merek", "Nolan",
	"Osric", "Percival", "Quentin", "Rowan", "Stellan", "Tobias",
}

var femaleNames = []string{
	"Adela", "Brenna", "Cora", "Delia", "Elswyth", "Freya", "Gwendolyn",
	"Helena", "Isolde", "Junia", "Kara", "Lyra", "Maren", "Nessa",
	"Odette", "Petra", "Quinn", "Rosalind", "Sable", "Thea",
}

var surnames = []string{
	"Ashdown", "Blackwood", "Coldwater", "Dunmore", "Eastgate", "Fairbairn",
	"Greymoor", "Hollowell", "Ironwood", "Kingsley", "Larkspur", "Marsh",
	"Northfield", "Oakhurst", "Pembrook", "Ravensworth", "Stonebridge",
	"Thistlewood", "Underhill", "Wexford",
}

func (s *Spawner) generateName(sex Sex) string {
	var first string
	if sex == SexMale {
		first = maleNames[s.rng.Intn(len(maleNames))]
	} else {
		first = femaleNames[s.rng.Intn(len(femaleNames))]
	}
	return first + " " + surnames[s.rng.Intn(len(surnames))]
}
