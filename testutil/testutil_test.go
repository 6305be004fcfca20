package testutil

import (
	"testing"

	"github.com/cnsky2016/vespa/model"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestGlobalIDs(t *testing.T) {
	rng := NewRNG(4711)

	gids := rng.GlobalIDs(512)

	require.Len(t, gids, 512)
	seen := make(map[model.GlobalID]bool)
	for _, gid := range gids {
		assert.NotZero(t, gid)
		assert.False(t, seen[gid], "duplicate gid %s", gid)
		seen[gid] = true
	}
}

func TestReset(t *testing.T) {
	rng := NewRNG(42)
	first := rng.Uint64()

	rng.Reset()

	assert.Equal(t, first, rng.Uint64())
	assert.Equal(t, int64(42), rng.Seed())
}

func TestZipf(t *testing.T) {
	rng := NewRNG(4711)

	counts := make([]int, 10)
	for range 1000 {
		i := rng.Zipf(10, 1.5)
		require.GreaterOrEqual(t, i, 0)
		require.Less(t, i, 10)
		counts[i]++
	}
	assert.Greater(t, counts[0], counts[9])
}
