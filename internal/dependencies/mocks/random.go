package mocks

import (
	"sync"

	"github.com/jason-s-yu/picturepoker/internal/dependencies/random"
)

// MockRandom replays a fixed sequence of values. Each value is clamped into
// the requested range; once the sequence is exhausted it returns min.
type MockRandom struct {
	mu     sync.Mutex
	values []int
}

// Ensure MockRandom implements Random
var _ random.Random = (*MockRandom)(nil)

// NewMockRandom creates a MockRandom that returns values in order
func NewMockRandom(values ...int) *MockRandom {
	return &MockRandom{values: values}
}

// Push appends values to the sequence
func (r *MockRandom) Push(values ...int) {
	r.mu.Lock()
	defer r.mu.Unlock()
	r.values = append(r.values, values...)
}

// IntRange returns the next queued value, clamped into [min, max)
func (r *MockRandom) IntRange(min, max int) int {
	r.mu.Lock()
	defer r.mu.Unlock()
	if len(r.values) == 0 || max <= min {
		return min
	}
	v := r.values[0]
	r.values = r.values[1:]
	if v < min {
		return min
	}
	if v >= max {
		return max - 1
	}
	return v
}
