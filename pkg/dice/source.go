package dice

import (
	"math/rand"
	"sync"
)

// Source is the random stream behind a Roller. The interface exists so
// tests can pin a seed or substitute a scripted sequence.
type Source interface {
	IntN(n int) int
}

// SeededSource is a lockable PRNG with an optional fixed seed.
// Production use is entropy-seeded; tests call SetSeed for
// reproducible rolls.
type SeededSource struct {
	mu   sync.Mutex
	rng  *rand.Rand
	seed *int64
}

func NewSeededSource() *SeededSource {
	return &SeededSource{rng: rand.New(rand.NewSource(rand.Int63()))}
}

// SetSeed pins the stream to a fixed seed.
func (s *SeededSource) SetSeed(seed int64) {
	s.mu.Lock()
	defer s.mu.Unlock()
	s.seed = &seed
	s.rng = rand.New(rand.NewSource(seed))
}

// Seed returns the pinned seed, or false when the stream is entropy
// seeded.
func (s *SeededSource) Seed() (int64, bool) {
	s.mu.Lock()
	defer s.mu.Unlock()
	if s.seed == nil {
		return 0, false
	}
	return *s.seed, true
}

// Reset returns the stream to entropy seeding.
func (s *SeededSource) Reset() {
	s.mu.Lock()
	defer s.mu.Unlock()
	s.seed = nil
	s.rng = rand.New(rand.NewSource(rand.Int63()))
}

func (s *SeededSource) IntN(n int) int {
	s.mu.Lock()
	defer s.mu.Unlock()
	return s.rng.Intn(n)
}

var (
	defaultSource     *SeededSource
	defaultSourceOnce sync.Once
)

// Default returns the process-wide random source shared by every
// roller that is not given an explicit one.
func Default() *SeededSource {
	defaultSourceOnce.Do(func() {
		defaultSource = NewSeededSource()
	})
	return defaultSource
}
