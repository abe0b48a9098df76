// Package progress persists harvest run state: the resumable checkpoint and
// the append-only journal of permanent failures.
package progress

import (
	"encoding/json"
	"fmt"
	"os"
	"path/filepath"
	"time"
)

// Checkpoint is the durable state of one harvest run. CurrentIndex only ever
// advances; it is rewritten after every processed combination so a crash
// loses at most the single in-flight item.
type Checkpoint struct {
	RunID             string    `json:"runId"`
	TotalCombinations int       `json:"totalCombinations"`
	ProcessedCount    int       `json:"processedCount"`
	CurrentIndex      int       `json:"currentIndex"`
	SuccessCount      int       `json:"successCount"`
	ErrorCount        int       `json:"errorCount"`
	StartTime         time.Time `json:"startTime"`
	LastProcessedAt   time.Time `json:"lastProcessedAt"`
}

// CheckpointStore reads and overwrites the checkpoint file.
type CheckpointStore struct {
	path string
}

// NewCheckpointStore returns a store writing to path.
func NewCheckpointStore(path string) *CheckpointStore {
	return &CheckpointStore{path: path}
}

// Load returns the persisted checkpoint and whether one exists.
func (s *CheckpointStore) Load() (Checkpoint, bool, error) {
	data, err := os.ReadFile(s.path)
	if err != nil {
		if os.IsNotExist(err) {
			return Checkpoint{}, false, nil
		}
		return Checkpoint{}, false, fmt.Errorf("read checkpoint: %w", err)
	}
	var cp Checkpoint
	if err := json.Unmarshal(data, &cp); err != nil {
		return Checkpoint{}, false, fmt.Errorf("decode checkpoint: %w", err)
	}
	return cp, true, nil
}

// Save overwrites the checkpoint file with cp.
func (s *CheckpointStore) Save(cp Checkpoint) error {
	if dir := filepath.Dir(s.path); dir != "." {
		if err := os.MkdirAll(dir, 0o750); err != nil {
			return fmt.Errorf("create checkpoint dir: %w", err)
		}
	}
	data, err := json.MarshalIndent(cp, "", "  ")
	if err != nil {
		return fmt.Errorf("encode checkpoint: %w", err)
	}
	if err := os.WriteFile(s.path, data, 0o600); err != nil {
		return fmt.Errorf("write checkpoint: %w", err)
	}
	return nil
}

// Reset removes the checkpoint file so the next run starts from index zero.
func (s *CheckpointStore) Reset() error {
	if err := os.Remove(s.path); err != nil && !os.IsNotExist(err) {
		return fmt.Errorf("remove checkpoint: %w", err)
	}
	return nil
}
