package criteria

import (
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestFingerprint_EquivalentRepresentationsCollide(t *testing.T) {
	t.Parallel()
	cases := []struct {
		name string
		a    map[string]any
		b    map[string]any
	}{
		{
			"race name vs numeric code",
			map[string]any{"race": "white"},
			map[string]any{"race": 1},
		},
		{
			"height any vs zero",
			map[string]any{"minHeight": "any"},
			map[string]any{"minHeight": 0},
		},
		{
			"string vs number",
			map[string]any{"minAge": "28", "maxAge": 33},
			map[string]any{"minAge": 28, "maxAge": "33"},
		},
		{
			"case-insensitive race",
			map[string]any{"race": "BLACK"},
			map[string]any{"race": "black"},
		},
		{
			"bool vs numeric truthiness",
			map[string]any{"excludeMarried": true},
			map[string]any{"excludeMarried": 1},
		},
	}
	for _, tc := range cases {
		t.Run(tc.name, func(t *testing.T) {
			t.Parallel()
			fa := Fingerprint(Normalize(tc.a))
			fb := Fingerprint(Normalize(tc.b))
			assert.Equal(t, fa, fb)
		})
	}
}

func TestFingerprint_FieldDifferencesDiverge(t *testing.T) {
	t.Parallel()
	base := Defaults()
	variants := []Normalized{
		{MinAge: 26, MaxAge: 35},
		{MinAge: 25, MaxAge: 36},
		{MinAge: 25, MaxAge: 35, ExcludeMarried: true},
		{MinAge: 25, MaxAge: 35, Race: RaceAsian},
		{MinAge: 25, MaxAge: 35, MinHeightCm: 170},
		{MinAge: 25, MaxAge: 35, ExcludeObese: true},
		{MinAge: 25, MaxAge: 35, MinIncome: 100000},
	}
	seen := map[string]struct{}{Fingerprint(base): {}}
	for _, v := range variants {
		fp := Fingerprint(v)
		_, dup := seen[fp]
		assert.False(t, dup, "variant %+v collided", v)
		seen[fp] = struct{}{}
	}
}

func TestFingerprint_StableLength(t *testing.T) {
	t.Parallel()
	fp := Fingerprint(Defaults())
	require.Len(t, fp, 64)
	assert.Equal(t, fp, Fingerprint(Defaults()))
}
