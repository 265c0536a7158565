package heightfield

import "math/rand/v2"

// RNG is a thin wrapper around math/rand/v2 for deterministic seeding.
// Every synthesis or erosion run owns exactly one instance; two stages
// fed different seeds never share one.
type RNG struct {
	r *rand.Rand
}

// NewRNG creates a deterministic RNG keyed by the provided seed.
func NewRNG(seed int64) *RNG {
	return &RNG{r: rand.New(rand.NewPCG(uint64(seed), 0))}
}

// Float64 returns a random value in [0,1).
func (r *RNG) Float64() float64 { return r.r.Float64() }

// Uniform returns a random value in [lo,hi).
func (r *RNG) Uniform(lo, hi float64) float64 {
	return lo + (hi-lo)*r.r.Float64()
}

// IntN returns a random int in [0,n).
func (r *RNG) IntN(n int) int { return r.r.IntN(n) }
