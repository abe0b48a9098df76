// Package export flattens the cache into tabular artifacts.
package export

import (
	"encoding/csv"
	"encoding/json"
	"fmt"
	"io"
	"strconv"
	"time"

	"github.com/oddsmith/matchodds/internal/cache"
	"github.com/oddsmith/matchodds/internal/criteria"
)

// Row is one flattened cache entry.
type Row struct {
	Fingerprint    string  `json:"fingerprint"`
	MinAge         int     `json:"minAge"`
	MaxAge         int     `json:"maxAge"`
	ExcludeMarried bool    `json:"excludeMarried"`
	Race           string  `json:"race"`
	MinHeightCm    float64 `json:"minHeight"`
	ExcludeObese   bool    `json:"excludeObese"`
	MinIncome      int     `json:"minIncome"`
	Probability    float64 `json:"probability"`
	ScoreLabel     string  `json:"scoreLabel"`
	ScoreFraction  string  `json:"scoreFraction"`
	CreatedAt      string  `json:"createdAt"`
	AccessCount    int     `json:"accessCount"`
}

// Rows flattens a store snapshot in fingerprint order.
func Rows(store *cache.Store) []Row {
	keys, entries := store.Snapshot()
	rows := make([]Row, 0, len(keys))
	for _, fp := range keys {
		entry := entries[fp]
		rows = append(rows, Row{
			Fingerprint:    fp,
			MinAge:         entry.Criteria.MinAge,
			MaxAge:         entry.Criteria.MaxAge,
			ExcludeMarried: entry.Criteria.ExcludeMarried,
			Race:           entry.Criteria.Race.String(),
			MinHeightCm:    entry.Criteria.MinHeightCm,
			ExcludeObese:   entry.Criteria.ExcludeObese,
			MinIncome:      entry.Criteria.MinIncome,
			Probability:    entry.Payload.Probability,
			ScoreLabel:     entry.Payload.ScoreLabel,
			ScoreFraction:  entry.Payload.ScoreFraction,
			CreatedAt:      entry.CreatedAt.UTC().Format(time.RFC3339),
			AccessCount:    entry.AccessCount,
		})
	}
	return rows
}

// JSON writes the flattened cache as a JSON array.
func JSON(w io.Writer, store *cache.Store) error {
	enc := json.NewEncoder(w)
	enc.SetIndent("", "  ")
	if err := enc.Encode(Rows(store)); err != nil {
		return fmt.Errorf("encode export: %w", err)
	}
	return nil
}

// CSV writes the flattened cache with a header row.
func CSV(w io.Writer, store *cache.Store) error {
	cw := csv.NewWriter(w)
	header := []string{
		"fingerprint", "min_age", "max_age", "exclude_married", "race",
		"min_height_cm", "exclude_obese", "min_income",
		"probability", "score_label", "score_fraction", "created_at", "access_count",
	}
	if err := cw.Write(header); err != nil {
		return fmt.Errorf("write csv header: %w", err)
	}
	for _, row := range Rows(store) {
		record := []string{
			row.Fingerprint,
			strconv.Itoa(row.MinAge),
			strconv.Itoa(row.MaxAge),
			strconv.FormatBool(row.ExcludeMarried),
			row.Race,
			criteria.FormatHeight(row.MinHeightCm),
			strconv.FormatBool(row.ExcludeObese),
			strconv.Itoa(row.MinIncome),
			strconv.FormatFloat(row.Probability, 'f', -1, 64),
			row.ScoreLabel,
			row.ScoreFraction,
			row.CreatedAt,
			strconv.Itoa(row.AccessCount),
		}
		if err := cw.Write(record); err != nil {
			return fmt.Errorf("write csv row: %w", err)
		}
	}
	cw.Flush()
	if err := cw.Error(); err != nil {
		return fmt.Errorf("flush csv: %w", err)
	}
	return nil
}
