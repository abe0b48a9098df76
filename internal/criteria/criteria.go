// Package criteria canonicalizes raw caller input into the fixed request
// schema and derives the stable fingerprint that keys the cache.
package criteria

import (
	"strconv"
	"strings"

	"github.com/spf13/cast"
)

// Default values applied when a field is missing or unparseable.
const (
	DefaultMinAge    = 25
	DefaultMaxAge    = 35
	DefaultMinHeight = 0
	DefaultMinIncome = 0
)

// Race identifies the requested race filter.
type Race int

// Race codes accepted on the wire, by name or number.
const (
	RaceAny Race = iota
	RaceWhite
	RaceBlack
	RaceAsian
)

// String returns the canonical lowercase name.
func (r Race) String() string {
	switch r {
	case RaceWhite:
		return "white"
	case RaceBlack:
		return "black"
	case RaceAsian:
		return "asian"
	default:
		return "any"
	}
}

// ParseRace maps a name or numeric code onto a Race. Matching is
// case-insensitive; anything unrecognized degrades to RaceAny.
func ParseRace(v any) Race {
	if v == nil {
		return RaceAny
	}
	if n, err := cast.ToIntE(v); err == nil {
		if n >= int(RaceAny) && n <= int(RaceAsian) {
			return Race(n)
		}
		return RaceAny
	}
	switch strings.ToLower(strings.TrimSpace(cast.ToString(v))) {
	case "white":
		return RaceWhite
	case "black":
		return RaceBlack
	case "asian":
		return RaceAsian
	default:
		return RaceAny
	}
}

// Normalized is the canonical request shape. Every field is always present;
// two Normalized values with equal fields are the same request.
type Normalized struct {
	MinAge         int     `json:"minAge" mapstructure:"min_age"`
	MaxAge         int     `json:"maxAge" mapstructure:"max_age"`
	ExcludeMarried bool    `json:"excludeMarried" mapstructure:"exclude_married"`
	Race           Race    `json:"race" mapstructure:"race"`
	MinHeightCm    float64 `json:"minHeight" mapstructure:"min_height"`
	ExcludeObese   bool    `json:"excludeObese" mapstructure:"exclude_obese"`
	MinIncome      int     `json:"minIncome" mapstructure:"min_income"`
}

// Defaults returns the Normalized value produced by empty input.
func Defaults() Normalized {
	return Normalized{
		MinAge:      DefaultMinAge,
		MaxAge:      DefaultMaxAge,
		Race:        RaceAny,
		MinHeightCm: DefaultMinHeight,
		MinIncome:   DefaultMinIncome,
	}
}

// Normalize canonicalizes arbitrary input. It is total: malformed or missing
// fields fall back to defaults rather than producing an error.
func Normalize(raw map[string]any) Normalized {
	n := Defaults()
	if len(raw) == 0 {
		return n
	}

	n.MinAge = intField(raw, DefaultMinAge, "minAge", "min_age")
	n.MaxAge = intField(raw, DefaultMaxAge, "maxAge", "max_age")
	n.ExcludeMarried = boolField(raw, "excludeMarried", "exclude_married")
	n.ExcludeObese = boolField(raw, "excludeObese", "exclude_obese")
	n.MinIncome = intField(raw, DefaultMinIncome, "minIncome", "min_income", "income")
	if v, ok := lookup(raw, "race"); ok {
		n.Race = ParseRace(v)
	}
	n.MinHeightCm = heightField(raw, "minHeight", "min_height", "height")
	return n
}

// Map renders the canonical field set back as a raw map. Normalizing the
// result reproduces the same Normalized value (normalization is idempotent).
func (n Normalized) Map() map[string]any {
	return map[string]any{
		"minAge":         n.MinAge,
		"maxAge":         n.MaxAge,
		"excludeMarried": n.ExcludeMarried,
		"race":           int(n.Race),
		"minHeight":      n.MinHeightCm,
		"excludeObese":   n.ExcludeObese,
		"minIncome":      n.MinIncome,
	}
}

// lookup finds the first present alias, matching keys case-insensitively.
func lookup(raw map[string]any, keys ...string) (any, bool) {
	for _, key := range keys {
		if v, ok := raw[key]; ok {
			return v, true
		}
	}
	for rawKey, v := range raw {
		for _, key := range keys {
			if strings.EqualFold(rawKey, key) {
				return v, true
			}
		}
	}
	return nil, false
}

func intField(raw map[string]any, fallback int, keys ...string) int {
	v, ok := lookup(raw, keys...)
	if !ok || v == nil {
		return fallback
	}
	n, err := cast.ToIntE(v)
	if err != nil {
		return fallback
	}
	return n
}

// boolField coerces via truthiness: nil, zero numbers, empty strings and the
// usual negative words are false, everything else present is true.
func boolField(raw map[string]any, keys ...string) bool {
	v, ok := lookup(raw, keys...)
	if !ok || v == nil {
		return false
	}
	if b, err := cast.ToBoolE(v); err == nil {
		return b
	}
	if n, err := cast.ToFloat64E(v); err == nil {
		return n != 0
	}
	if s, sok := v.(string); sok {
		switch strings.ToLower(strings.TrimSpace(s)) {
		case "", "no", "off":
			return false
		}
		return true
	}
	return true
}

// heightField treats "any" and anything falsy or unparseable as no minimum.
func heightField(raw map[string]any, keys ...string) float64 {
	v, ok := lookup(raw, keys...)
	if !ok || v == nil {
		return DefaultMinHeight
	}
	if s, sok := v.(string); sok && strings.EqualFold(strings.TrimSpace(s), "any") {
		return DefaultMinHeight
	}
	f, err := cast.ToFloat64E(v)
	if err != nil || f < 0 {
		return DefaultMinHeight
	}
	return f
}

// FormatHeight renders a height grid value the way the fingerprint and
// combination IDs expect it (no trailing zeros).
func FormatHeight(cm float64) string {
	return strconv.FormatFloat(cm, 'f', -1, 64)
}
