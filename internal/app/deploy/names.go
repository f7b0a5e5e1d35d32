package deploy

import (
	"fmt"
	"math/rand"
	"sync"
	"time"
)

var (
	nameAdjectives = []string{
		"bold", "brisk", "calm", "clever", "eager", "fancy", "gentle",
		"happy", "keen", "lively", "merry", "noble", "proud", "quick",
		"quiet", "rapid", "sharp", "shiny", "swift", "vivid", "warm",
		"wise", "witty", "zesty",
	}
	nameNouns = []string{
		"badger", "bison", "crane", "dolphin", "falcon", "ferret",
		"gecko", "heron", "ibis", "jackal", "koala", "lemur", "lynx",
		"marmot", "otter", "panda", "quokka", "raven", "salmon",
		"tapir", "toucan", "walrus", "wombat", "yak",
	}
)

// Namer generates human-readable app names of the form
// spin-{adjective}-{noun}-{number}. Sequential calls on the same Namer
// never repeat a name.
type Namer struct {
	rand *rand.Rand
	seen map[string]bool
	mu   sync.Mutex
}

// NewNamer creates a new name generator.
func NewNamer() *Namer {
	return NewNamerWithRand(rand.New(rand.NewSource(time.Now().UnixNano())))
}

// NewNamerWithRand creates a name generator with a given random source.
func NewNamerWithRand(r *rand.Rand) *Namer {
	return &Namer{
		rand: r,
		seen: map[string]bool{},
	}
}

// Generate returns a new app name not handed out by this Namer before.
func (n *Namer) Generate() string {
	n.mu.Lock()
	defer n.mu.Unlock()

	for {
		adjective := nameAdjectives[n.rand.Intn(len(nameAdjectives))]
		noun := nameNouns[n.rand.Intn(len(nameNouns))]
		number := 1000 + n.rand.Intn(9000)

		name := fmt.Sprintf("spin-%s-%s-%d", adjective, noun, number)
		if n.seen[name] {
			continue
		}

		n.seen[name] = true
		return name
	}
}
