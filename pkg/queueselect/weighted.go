package queueselect

import (
	"math/rand"
	"time"

	"github.com/cidas/job-scheduler/pkg/staging"
)

// WeightedRandom draws a level with probability proportional to a
// configured weight vector (SELECT_WEIGHT). If the drawn level is empty,
// it redraws with that level's weight zeroed out; if every weight is
// zero, it falls back to level 0 (the caller observes the level is
// empty and aborts the attempt).
type WeightedRandom struct {
	weights []float64
	rng     *rand.Rand
}

// NewWeightedRandom builds a weighted selector. A nil rng gets a
// time-seeded default; tests should pass a deterministic one.
func NewWeightedRandom(weights []float64, rng *rand.Rand) *WeightedRandom {
	w := make([]float64, len(weights))
	copy(w, weights)
	if rng == nil {
		rng = rand.New(rand.NewSource(time.Now().UnixNano()))
	}
	return &WeightedRandom{weights: w, rng: rng}
}

func (s *WeightedRandom) SelectQueue(levels []staging.Container) staging.Container {
	weights := make([]float64, len(s.weights))
	copy(weights, s.weights)

	for {
		total := sumWeights(weights)
		if total <= 0 {
			return levels[0]
		}
		k := drawWeighted(s.rng, weights, total)
		if levels[k].Len() > 0 {
			return levels[k]
		}
		weights[k] = 0
	}
}

func (s *WeightedRandom) Advance() {}

func sumWeights(weights []float64) float64 {
	var total float64
	for _, w := range weights {
		total += w
	}
	return total
}

func drawWeighted(rng *rand.Rand, weights []float64, total float64) int {
	r := rng.Float64() * total
	var cum float64
	for i, w := range weights {
		cum += w
		if r < cum {
			return i
		}
	}
	return len(weights) - 1
}
