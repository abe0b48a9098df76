package harvest

import (
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/oddsmith/matchodds/internal/criteria"
)

func smallGrids() Grids {
	return Grids{
		MinAges:        []int{20, 25, 30},
		MaxAges:        []int{25, 30},
		ExcludeMarried: []bool{false, true},
		Races:          []criteria.Race{criteria.RaceAny, criteria.RaceWhite},
		MinHeights:     []float64{0, 170},
		ExcludeObese:   []bool{false},
		MinIncomes:     []int{0, 50000},
	}
}

func TestSpace_CountMatchesIndependentComputation(t *testing.T) {
	t.Parallel()
	g := smallGrids()
	// Valid (minAge, maxAge) pairs: 20<25, 20<30, 25<30 = 3.
	want := 3 * 2 * 2 * 2 * 1 * 2
	space := g.Space()
	assert.Equal(t, want, len(space))
	assert.Equal(t, 3, g.ValidPairCount())
}

func TestSpace_DefaultGridSizes(t *testing.T) {
	t.Parallel()
	g := DefaultGrids()
	require.Len(t, g.MinAges, 12)
	require.Len(t, g.MaxAges, 13)
	require.Len(t, g.ExcludeMarried, 2)
	require.Len(t, g.Races, 4)
	require.Len(t, g.MinHeights, 10)
	require.Len(t, g.ExcludeObese, 2)
	require.Len(t, g.MinIncomes, 9)

	// Count computed independently of the generator.
	want := g.ValidPairCount() * 2 * 4 * 10 * 2 * 9
	assert.Equal(t, want, len(g.Space()))
}

func TestSpace_DropsInvalidAgePairs(t *testing.T) {
	t.Parallel()
	for _, comb := range smallGrids().Space() {
		assert.Less(t, comb.Params.MinAge, comb.Params.MaxAge)
	}
}

func TestSpace_IDsUniqueAndDeterministic(t *testing.T) {
	t.Parallel()
	first := smallGrids().Space()
	second := smallGrids().Space()
	require.Equal(t, first, second)

	seen := make(map[string]struct{}, len(first))
	for _, comb := range first {
		_, dup := seen[comb.ID]
		require.False(t, dup, "duplicate combination id %s", comb.ID)
		seen[comb.ID] = struct{}{}
	}
}

func TestSpace_FixedIterationOrder(t *testing.T) {
	t.Parallel()
	space := smallGrids().Space()
	require.NotEmpty(t, space)
	// Outer-to-inner order means the innermost field (minIncome) varies first.
	assert.Equal(t, 0, space[0].Params.MinIncome)
	assert.Equal(t, 50000, space[1].Params.MinIncome)
	assert.Equal(t, space[0].Params.MinHeightCm, space[1].Params.MinHeightCm)
}

func TestSpace_EmptyGridYieldsNothing(t *testing.T) {
	t.Parallel()
	g := smallGrids()
	g.Races = nil
	assert.Empty(t, g.Space())
}
