package referee

import (
	"fmt"
	"math/rand/v2"
	"sync"
	"time"

	"github.com/nstehr/pitch/pitch-core/model"
)

// Hand signals are numbered 1 through MaxHandSignal.
const MaxHandSignal = 16

// HandSignalClassifier turns the current snapshot into a hand-signal code.
type HandSignalClassifier interface {
	Classify(snap *model.Snapshot) uint8
}

// RandomClassifier guesses uniformly. It stands in until a vision model is
// available.
type RandomClassifier struct {
	mu  sync.Mutex
	rng *rand.Rand
}

func NewRandomClassifier(seed uint64) *RandomClassifier {
	return &RandomClassifier{rng: rand.New(rand.NewPCG(seed, seed^0x9e3779b97f4a7c15))}
}

func (c *RandomClassifier) Classify(*model.Snapshot) uint8 {
	c.mu.Lock()
	defer c.mu.Unlock()
	return uint8(1 + c.rng.IntN(MaxHandSignal))
}

// DetectedClassifier reports the signal recognised by perception and asks
// Fallback when there is none.
type DetectedClassifier struct {
	Fallback HandSignalClassifier
}

func (c DetectedClassifier) Classify(snap *model.Snapshot) uint8 {
	if s := snap.HandSignal; s != nil && *s >= 1 && *s <= MaxHandSignal {
		return *s
	}
	return c.Fallback.Classify(snap)
}

// NewClassifier builds the classifier named in the configuration.
func NewClassifier(name string, seed uint64) (HandSignalClassifier, error) {
	if seed == 0 {
		seed = uint64(time.Now().UnixNano())
	}
	random := NewRandomClassifier(seed)
	switch name {
	case ClassifierRandom:
		return random, nil
	case ClassifierDetected, "":
		return DetectedClassifier{Fallback: random}, nil
	default:
		return nil, fmt.Errorf("%w: unknown classifier %q", ErrInvalidConfig, name)
	}
}
