package engine

import "math/rand/v2"

// RandomSource is the entropy consumed by ResolveSolo and the minigame generators.
type RandomSource interface {
	Float64() float64 // [0, 1)
	IntN(n int) int   // [0, n)
}

// globalRNG uses the runtime-seeded top level functions of math/rand/v2,
// which are safe for concurrent use.
type globalRNG struct{}

func (globalRNG) Float64() float64 { return rand.Float64() }
func (globalRNG) IntN(n int) int   { return rand.IntN(n) }

// DefaultRNG returns the process-wide random source.
func DefaultRNG() RandomSource { return globalRNG{} }

// Replicable RNG for simulations and tests. Not safe for concurrent use.
type seededRNG struct{ r *rand.Rand }

func NewSeededRNG(seed uint64) RandomSource {
	return &seededRNG{r: rand.New(rand.NewPCG(seed, 0))}
}

func (s *seededRNG) Float64() float64 { return s.r.Float64() }
func (s *seededRNG) IntN(n int) int   { return s.r.IntN(n) }

// rangeInclusive draws a uniform integer in [lo, hi].
func rangeInclusive(rng RandomSource, lo, hi int64) int64 {
	if hi <= lo {
		return lo
	}
	return lo + int64(rng.IntN(int(hi-lo+1)))
}
