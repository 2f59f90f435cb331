package rng

import "sync"

// Sequence replays a fixed list of draws, wrapping around when exhausted.
// It is safe for concurrent use.
type Sequence struct {
	mu     sync.Mutex
	values []float64
	next   int
	draws  int
}

// NewSequence returns a Sequence over values. An empty sequence always
// yields 0.
func NewSequence(values ...float64) *Sequence {
	return &Sequence{values: append([]float64(nil), values...)}
}

// Float64 returns the next scripted value.
func (s *Sequence) Float64() float64 {
	s.mu.Lock()
	defer s.mu.Unlock()
	s.draws++
	if len(s.values) == 0 {
		return 0
	}
	v := s.values[s.next]
	s.next = (s.next + 1) % len(s.values)
	return v
}

// Draws reports how many values have been consumed.
func (s *Sequence) Draws() int {
	s.mu.Lock()
	defer s.mu.Unlock()
	return s.draws
}
