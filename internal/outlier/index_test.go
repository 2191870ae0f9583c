package outlier

import (
	"math/rand"
	"sort"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/BG-NOAA/sar-drift-converter/internal/domain"
)

func TestNeighborIndexMatchesBruteForce(t *testing.T) {
	rng := rand.New(rand.NewSource(7))

	const n = 120 // well above bruteForceLimit, forces the quadtree path
	obs := make([]domain.Observation, n)
	members := make([]int, n)
	for i := range obs {
		obs[i] = domain.Observation{
			Index: i,
			X1:    rng.Float64() * 60000,
			Y1:    rng.Float64() * 60000,
		}
		members[i] = i
	}

	idx := newNeighborIndex(obs, members)
	require.NotNil(t, idx.tree, "pool of %d should use the quadtree", n)

	const radius = 10000.0
	r2 := radius * radius
	for i := range members {
		got := idx.within(i, radius)
		sort.Ints(got)

		var want []int
		for j := range obs {
			if j == i {
				continue
			}
			dx := obs[j].X1 - obs[i].X1
			dy := obs[j].Y1 - obs[i].Y1
			if dx*dx+dy*dy <= r2 {
				want = append(want, j)
			}
		}
		assert.Equal(t, want, got, "neighbors of %d", i)
	}
}

func TestNeighborIndexClosedBall(t *testing.T) {
	// Two points exactly one radius apart are neighbors; a hair beyond is not.
	obs := []domain.Observation{
		{Index: 0, X1: 0, Y1: 0},
		{Index: 1, X1: 25000, Y1: 0},
		{Index: 2, X1: 0, Y1: 25000.001},
	}
	idx := newNeighborIndex(obs, []int{0, 1, 2})

	assert.Equal(t, []int{1}, idx.within(0, 25000))
	assert.Empty(t, idx.within(2, 25000))
}

func TestNeighborIndexExcludesSelfNotCoincident(t *testing.T) {
	// Co-located observations are each other's neighbors; only the query
	// point itself is excluded.
	obs := []domain.Observation{
		{Index: 0, X1: 100, Y1: 100},
		{Index: 1, X1: 100, Y1: 100},
	}
	idx := newNeighborIndex(obs, []int{0, 1})

	assert.Equal(t, []int{1}, idx.within(0, 1000))
	assert.Equal(t, []int{0}, idx.within(1, 1000))
}
