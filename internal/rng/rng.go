// Package rng provides the randomness source injected into every component
// that makes probabilistic choices, so behavior is reproducible under test.
package rng

import (
	"math/rand"
	"sync"
)

// Rand is the minimal random interface the engine depends on.
type Rand interface {
	// Float64 returns a value in [0.0, 1.0).
	Float64() float64
	// IntN returns a value in [0, n). It panics if n <= 0.
	IntN(n int) int
}

// lockedRand wraps math/rand with a mutex so a single source can be shared
// across worker goroutines.
type lockedRand struct {
	mu  sync.Mutex
	src *rand.Rand
}

// New returns a seeded Rand safe for concurrent use.
func New(seed int64) Rand {
	return &lockedRand{src: rand.New(rand.NewSource(seed))}
}

func (r *lockedRand) Float64() float64 {
	r.mu.Lock()
	defer r.mu.Unlock()
	return r.src.Float64()
}

func (r *lockedRand) IntN(n int) int {
	r.mu.Lock()
	defer r.mu.Unlock()
	return r.src.Intn(n)
}
