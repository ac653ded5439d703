package choreography

import (
	"math/rand/v2"
	"time"
)

// Selector picks which of n candidate primitives plays next. Implementations
// may keep state and are used by one sequencing call at a time.
type Selector interface {
	Choose(n int) int
}

// SelectorFunc adapts a function to Selector.
type SelectorFunc func(n int) int

// Choose calls f.
func (f SelectorFunc) Choose(n int) int {
	return f(n)
}

// RandomSelector picks uniformly at random.
type RandomSelector struct {
	rng *rand.Rand
}

// NewRandomSelector returns a selector seeded with seed.
func NewRandomSelector(seed uint64) *RandomSelector {
	return &RandomSelector{rng: rand.New(rand.NewPCG(seed, seed^0x9e3779b97f4a7c15))}
}

// NewTimeSeededSelector returns a selector seeded from the clock.
func NewTimeSeededSelector() *RandomSelector {
	return NewRandomSelector(uint64(time.Now().UnixNano()))
}

// Choose returns an index in [0, n).
func (s *RandomSelector) Choose(n int) int {
	if n <= 0 {
		return 0
	}
	return s.rng.IntN(n)
}

// CycleSelector replays a fixed list of indices (modulo n), for reproducible
// sequences in tests and previews.
type CycleSelector struct {
	picks []int
	next  int
}

// NewCycleSelector returns a selector that yields picks in order, wrapping around.
// With no picks it always chooses 0.
func NewCycleSelector(picks ...int) *CycleSelector {
	return &CycleSelector{picks: picks}
}

// Choose returns the next pick reduced modulo n.
func (s *CycleSelector) Choose(n int) int {
	if n <= 0 || len(s.picks) == 0 {
		return 0
	}
	v := s.picks[s.next%len(s.picks)]
	s.next++
	v %= n
	if v < 0 {
		v += n
	}
	return v
}
