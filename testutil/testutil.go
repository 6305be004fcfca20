package testutil

import (
	"math/rand"
	"sync"

	"github.com/cnsky2016/vespa/model"
)

// RNG struct encapsulates the random number generator and seed.
// It is thread-safe.
type RNG struct {
	rand *rand.Rand
	seed int64
	mu   sync.Mutex
}

// NewRNG creates a new RNG instance with the specified seed.
func NewRNG(seed int64) *RNG {
	return &RNG{
		rand: rand.New(rand.NewSource(seed)),
		seed: seed,
	}
}

// Reset resets the RNG to its initial seed.
func (r *RNG) Reset() {
	r.mu.Lock()
	defer r.mu.Unlock()
	r.rand.Seed(r.seed)
}

// Seed returns the initial seed.
func (r *RNG) Seed() int64 {
	return r.seed
}

// Intn returns a non-negative pseudo-random number in [0,n).
func (r *RNG) Intn(n int) int {
	r.mu.Lock()
	defer r.mu.Unlock()
	return r.rand.Intn(n)
}

// Uint64 returns a pseudo-random uint64.
func (r *RNG) Uint64() uint64 {
	r.mu.Lock()
	defer r.mu.Unlock()
	return r.rand.Uint64()
}

// GlobalIDs returns n distinct gids. The high bit is always set, so the
// result never collides with small hand-picked gids used by fixtures.
func (r *RNG) GlobalIDs(n int) []model.GlobalID {
	r.mu.Lock()
	defer r.mu.Unlock()

	seen := make(map[model.GlobalID]struct{}, n)
	out := make([]model.GlobalID, 0, n)
	for len(out) < n {
		gid := model.GlobalID(r.rand.Uint64() | 1<<63)
		if _, dup := seen[gid]; dup {
			continue
		}
		seen[gid] = struct{}{}
		out = append(out, gid)
	}
	return out
}

// Zipf returns a Zipf-distributed index in [0, n) with exponent s > 1.
// Useful to model a few parent documents referred to by most children.
func (r *RNG) Zipf(n int, s float64) int {
	r.mu.Lock()
	defer r.mu.Unlock()
	z := rand.NewZipf(r.rand, s, 1, uint64(n-1))
	return int(z.Uint64())
}
