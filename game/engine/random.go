package engine

import (
	"math/rand"
	"time"
)

// Randomizer supplies piece selection. *rand.Rand satisfies it.
type Randomizer interface {
	Intn(n int) int
}

// NewRandomizer returns a seeded source. A zero seed uses the clock.
func NewRandomizer(seed int64) Randomizer {
	if seed == 0 {
		seed = time.Now().UnixNano()
	}
	return rand.New(rand.NewSource(seed))
}

// sequence cycles through a fixed list of kind indices, for tests and replays
type sequence struct {
	picks []int
	next  int
}

// NewSequenceRandomizer returns a Randomizer that yields picks in order and
// then repeats them.
func NewSequenceRandomizer(picks ...int) Randomizer {
	if len(picks) == 0 {
		picks = []int{0}
	}
	return &sequence{picks: picks}
}

func (s *sequence) Intn(n int) int {
	v := s.picks[s.next%len(s.picks)]
	s.next++
	if v < 0 {
		v = -v
	}
	return v % n
}
