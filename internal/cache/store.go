// Package cache implements the write-through fingerprint cache backing the
// on-demand service and the batch harvester.
package cache

import (
	"encoding/json"
	"fmt"
	"os"
	"path/filepath"
	"sort"
	"sync"
	"time"

	"go.uber.org/zap"

	"github.com/oddsmith/matchodds/internal/clock"
	"github.com/oddsmith/matchodds/internal/criteria"
)

// Payload carries the opaque extracted result fields stored per entry.
type Payload struct {
	Probability   float64           `json:"probability"`
	ScoreLabel    string            `json:"scoreLabel"`
	ScoreFraction string            `json:"scoreFraction"`
	Details       map[string]string `json:"details,omitempty"`
}

// Empty reports whether every required result field is missing.
func (p Payload) Empty() bool {
	return p.Probability == 0 && p.ScoreLabel == "" && p.ScoreFraction == ""
}

// Entry is one cached result. AccessCount starts at 1 on creation and only
// ever increases; entries never expire.
type Entry struct {
	Criteria       criteria.Normalized `json:"criteria"`
	Payload        Payload             `json:"payload"`
	CreatedAt      time.Time           `json:"createdAt"`
	LastAccessedAt time.Time           `json:"lastAccessedAt"`
	AccessCount    int                 `json:"accessCount"`
}

// Store is a persistent map from fingerprint to Entry. The whole map lives in
// memory; every mutation rewrites the backing file. Exactly one process may
// write a given backing file at a time.
type Store struct {
	mu      sync.RWMutex
	path    string
	entries map[string]Entry
	clock   clock.Clock
	logger  *zap.Logger
}

// Open loads the backing file (if any) into memory and returns the store.
func Open(path string, clk clock.Clock, logger *zap.Logger) (*Store, error) {
	if path == "" {
		return nil, fmt.Errorf("cache path is required")
	}
	if logger == nil {
		logger = zap.NewNop()
	}
	s := &Store{
		path:    path,
		entries: make(map[string]Entry),
		clock:   clk,
		logger:  logger,
	}
	if err := s.load(); err != nil {
		return nil, err
	}
	return s, nil
}

func (s *Store) load() error {
	data, err := os.ReadFile(s.path)
	if err != nil {
		if os.IsNotExist(err) {
			return nil
		}
		return fmt.Errorf("read cache file: %w", err)
	}
	if len(data) == 0 {
		return nil
	}
	if err := json.Unmarshal(data, &s.entries); err != nil {
		return fmt.Errorf("decode cache file: %w", err)
	}
	s.logger.Info("cache loaded",
		zap.String("path", s.path),
		zap.Int("entries", len(s.entries)),
	)
	return nil
}

// Get is a pure lookup with no access bookkeeping; callers that want hit
// accounting call Touch explicitly.
func (s *Store) Get(fingerprint string) (Entry, bool) {
	s.mu.RLock()
	defer s.mu.RUnlock()
	entry, ok := s.entries[fingerprint]
	return entry, ok
}

// Touch increments AccessCount and stamps LastAccessedAt on an existing
// entry, then persists. Touching a missing fingerprint is a no-op.
func (s *Store) Touch(fingerprint string) error {
	s.mu.Lock()
	defer s.mu.Unlock()
	entry, ok := s.entries[fingerprint]
	if !ok {
		return nil
	}
	entry.AccessCount++
	entry.LastAccessedAt = s.clock.Now()
	s.entries[fingerprint] = entry
	return s.flushLocked()
}

// Put creates the entry for a fingerprint, overwriting any existing one, and
// persists. A fresh entry always starts with AccessCount=1.
func (s *Store) Put(fingerprint string, params criteria.Normalized, payload Payload) error {
	now := s.clock.Now()
	s.mu.Lock()
	defer s.mu.Unlock()
	s.entries[fingerprint] = Entry{
		Criteria:       params,
		Payload:        payload,
		CreatedAt:      now,
		LastAccessedAt: now,
		AccessCount:    1,
	}
	return s.flushLocked()
}

// Clear empties the in-memory map and removes the backing file.
func (s *Store) Clear() error {
	s.mu.Lock()
	defer s.mu.Unlock()
	s.entries = make(map[string]Entry)
	if err := os.Remove(s.path); err != nil && !os.IsNotExist(err) {
		return fmt.Errorf("remove cache file: %w", err)
	}
	return nil
}

// Len reports the number of cached entries.
func (s *Store) Len() int {
	s.mu.RLock()
	defer s.mu.RUnlock()
	return len(s.entries)
}

// TotalAccesses sums AccessCount across all entries.
func (s *Store) TotalAccesses() int {
	s.mu.RLock()
	defer s.mu.RUnlock()
	total := 0
	for _, entry := range s.entries {
		total += entry.AccessCount
	}
	return total
}

// Snapshot returns fingerprints and entries ordered by fingerprint for
// deterministic export output.
func (s *Store) Snapshot() ([]string, map[string]Entry) {
	s.mu.RLock()
	defer s.mu.RUnlock()
	keys := make([]string, 0, len(s.entries))
	out := make(map[string]Entry, len(s.entries))
	for fp, entry := range s.entries {
		keys = append(keys, fp)
		out[fp] = entry
	}
	sort.Strings(keys)
	return keys, out
}

// flushLocked rewrites the whole backing file. A failure mid-write can leave
// the file truncated; that durability gap is surfaced to the caller rather
// than masked.
func (s *Store) flushLocked() error {
	if dir := filepath.Dir(s.path); dir != "." {
		if err := os.MkdirAll(dir, 0o750); err != nil {
			return fmt.Errorf("create cache dir: %w", err)
		}
	}
	data, err := json.MarshalIndent(s.entries, "", "  ")
	if err != nil {
		return fmt.Errorf("encode cache: %w", err)
	}
	if err := os.WriteFile(s.path, data, 0o600); err != nil {
		return fmt.Errorf("write cache file: %w", err)
	}
	return nil
}
