// Package harvest enumerates the bounded parameter space and drives the
// resumable, throttled traversal that fills the cache.
package harvest

import (
	"github.com/oddsmith/matchodds/internal/criteria"
)

// Grids holds the independently configured value grid for each of the seven
// fields. Iteration order over the space is fixed outer-to-inner: minAge,
// maxAge, excludeMarried, race, minHeight, excludeObese, minIncome.
type Grids struct {
	MinAges        []int
	MaxAges        []int
	ExcludeMarried []bool
	Races          []criteria.Race
	MinHeights     []float64
	ExcludeObese   []bool
	MinIncomes     []int
}

// DefaultGrids covers ages 18-29 x 23-35, both marital and obesity filters,
// all four race codes, height floors up to 190cm and income floors up to
// 500k.
func DefaultGrids() Grids {
	return Grids{
		MinAges:        rangeInts(18, 29),
		MaxAges:        rangeInts(23, 35),
		ExcludeMarried: []bool{false, true},
		Races:          []criteria.Race{criteria.RaceAny, criteria.RaceWhite, criteria.RaceBlack, criteria.RaceAsian},
		MinHeights:     []float64{0, 150, 155, 160, 165, 170, 175, 180, 185, 190},
		ExcludeObese:   []bool{false, true},
		MinIncomes:     []int{0, 25000, 50000, 75000, 100000, 150000, 200000, 250000, 500000},
	}
}

// Space generates every valid point of the cartesian product exactly once, in
// fixed order. Tuples with minAge >= maxAge are dropped. Each field
// contributes an independent generator, so grid sizes can change without
// touching the traversal.
func (g Grids) Space() []criteria.Combination {
	sizes := []int{
		len(g.MinAges),
		len(g.MaxAges),
		len(g.ExcludeMarried),
		len(g.Races),
		len(g.MinHeights),
		len(g.ExcludeObese),
		len(g.MinIncomes),
	}
	for _, size := range sizes {
		if size == 0 {
			return nil
		}
	}

	combos := make([]criteria.Combination, 0, g.ValidPairCount()*sizes[2]*sizes[3]*sizes[4]*sizes[5]*sizes[6])
	indices := make([]int, len(sizes))
	for {
		params := criteria.Normalized{
			MinAge:         g.MinAges[indices[0]],
			MaxAge:         g.MaxAges[indices[1]],
			ExcludeMarried: g.ExcludeMarried[indices[2]],
			Race:           g.Races[indices[3]],
			MinHeightCm:    g.MinHeights[indices[4]],
			ExcludeObese:   g.ExcludeObese[indices[5]],
			MinIncome:      g.MinIncomes[indices[6]],
		}
		if params.MinAge < params.MaxAge {
			combos = append(combos, criteria.NewCombination(params))
		}
		if !advance(indices, sizes) {
			return combos
		}
	}
}

// ValidPairCount counts (minAge, maxAge) grid pairs satisfying
// minAge < maxAge.
func (g Grids) ValidPairCount() int {
	count := 0
	for _, lo := range g.MinAges {
		for _, hi := range g.MaxAges {
			if lo < hi {
				count++
			}
		}
	}
	return count
}

// advance increments the odometer with the last field innermost; it returns
// false once every tuple has been visited.
func advance(indices, sizes []int) bool {
	for pos := len(indices) - 1; pos >= 0; pos-- {
		indices[pos]++
		if indices[pos] < sizes[pos] {
			return true
		}
		indices[pos] = 0
	}
	return false
}

func rangeInts(lo, hi int) []int {
	out := make([]int, 0, hi-lo+1)
	for v := lo; v <= hi; v++ {
		out = append(out, v)
	}
	return out
}
