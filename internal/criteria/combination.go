package criteria

import (
	"strconv"
	"strings"
)

// Combination is one point in the enumerated parameter space: a deterministic
// ID derived from the seven ordered field values plus the canonical
// parameters themselves. The ID is distinct from the cache fingerprint but
// collision-equivalent with it, since both derive from the same fields.
type Combination struct {
	ID     string     `json:"id"`
	Params Normalized `json:"params"`
}

// NewCombination derives the ID from the ordered field values.
func NewCombination(params Normalized) Combination {
	parts := []string{
		strconv.Itoa(params.MinAge),
		strconv.Itoa(params.MaxAge),
		strconv.FormatBool(params.ExcludeMarried),
		strconv.Itoa(int(params.Race)),
		FormatHeight(params.MinHeightCm),
		strconv.FormatBool(params.ExcludeObese),
		strconv.Itoa(params.MinIncome),
	}
	return Combination{ID: strings.Join(parts, "-"), Params: params}
}
