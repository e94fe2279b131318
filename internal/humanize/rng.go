package humanize

import (
	"fmt"
	"math"
	"math/rand"
	"time"
)

// NewSeed derives the default seed string spec.md §4.8 calls for: a
// timestamp plus a short random suffix, so a caller who didn't pin a seed
// can still replay the exact run from the value returned in Result.Seed.
func NewSeed() string {
	return fmt.Sprintf("%d-%04x", time.Now().UnixNano(), rand.Intn(0x10000))
}

// rngFromSeed turns an arbitrary seed string into a deterministic source.
// Two calls with the same seed produce the same stream of draws, which is
// the whole point of threading a seed through the pipeline (spec.md's
// "Humanize purity" invariant).
func rngFromSeed(seed string) *rand.Rand {
	if seed == "" {
		seed = NewSeed()
	}
	var h uint64 = 1469598103934665603 // FNV-1a offset basis
	for i := 0; i < len(seed); i++ {
		h ^= uint64(seed[i])
		h *= 1099511628211
	}
	return rand.New(rand.NewSource(int64(h)))
}

// boxMuller draws one standard-normal sample from rng using the
// Box-Muller transform, as spec.md §4.8 names explicitly for the drift
// stage's Gaussian noise.
func boxMuller(rng *rand.Rand) float64 {
	u1 := rng.Float64()
	if u1 <= 0 {
		u1 = 1e-12
	}
	u2 := rng.Float64()
	return math.Sqrt(-2*math.Log(u1)) * math.Cos(2*math.Pi*u2)
}
