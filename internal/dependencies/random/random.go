package random

import "math/rand/v2"

// Random is the shared pseudo-random source used for stand-in card draws,
// lobby codes and optional bet re-rolls. No cryptographic property is needed.
type Random interface {
	// IntRange returns a random int in [min, max)
	IntRange(min, max int) int
}

// MathRandom implements Random on top of math/rand/v2's global source,
// which is safe for concurrent use.
type MathRandom struct{}

// New creates a new MathRandom
func New() *MathRandom {
	return &MathRandom{}
}

// IntRange returns a random int in [min, max). It returns min when the range is empty.
func (r *MathRandom) IntRange(min, max int) int {
	if max <= min {
		return min
	}
	return min + rand.IntN(max-min)
}
