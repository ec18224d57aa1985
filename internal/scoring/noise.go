package scoring

import (
	"math/rand"
	"time"
)

// Noise adds small exploration jitter to a score so the engine does
// not settle into a deterministic rut. High scores get reduced jitter
// to avoid missing strong plays. The rand source is injected so tests
// can seed it.
type Noise struct {
	rng *rand.Rand
}

// NewNoise creates a noise source from rng. A nil rng gets a
// time-seeded source; tests pass a fixed seed.
func NewNoise(rng *rand.Rand) *Noise {
	if rng == nil {
		rng = rand.New(rand.NewSource(time.Now().UnixNano()))
	}
	return &Noise{rng: rng}
}

// Apply jitters the score by up to ±2 points (±0.5 above 90) and
// clamps the result to [0,100].
func (n *Noise) Apply(score float64) float64 {
	limit := 2.0
	if score >= 90 {
		limit = 0.5
	}
	jitter := (n.rng.Float64()*2 - 1) * limit
	return clamp100(score + jitter)
}
