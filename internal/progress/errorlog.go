package progress

import (
	"encoding/json"
	"fmt"
	"os"
	"path/filepath"
	"time"

	"github.com/google/uuid"

	"github.com/oddsmith/matchodds/internal/criteria"
)

// ErrorRecord is one permanent fetch failure. Records are append-only and
// never mutated after being written.
type ErrorRecord struct {
	ID            string              `json:"id"`
	Timestamp     time.Time           `json:"timestamp"`
	CombinationID string              `json:"combinationId"`
	Params        criteria.Normalized `json:"params"`
	Message       string              `json:"message"`
	Context       map[string]string   `json:"context,omitempty"`
}

// ErrorLog journals permanent failures to a JSON array on disk.
type ErrorLog struct {
	path string
}

// NewErrorLog returns a log writing to path.
func NewErrorLog(path string) *ErrorLog {
	return &ErrorLog{path: path}
}

// Append adds a record to the journal. A missing ID is filled with a UUID.
func (l *ErrorLog) Append(record ErrorRecord) error {
	if record.ID == "" {
		record.ID = uuid.NewString()
	}
	records, err := l.Records()
	if err != nil {
		return err
	}
	records = append(records, record)

	if dir := filepath.Dir(l.path); dir != "." {
		if err := os.MkdirAll(dir, 0o750); err != nil {
			return fmt.Errorf("create error log dir: %w", err)
		}
	}
	data, err := json.MarshalIndent(records, "", "  ")
	if err != nil {
		return fmt.Errorf("encode error log: %w", err)
	}
	if err := os.WriteFile(l.path, data, 0o600); err != nil {
		return fmt.Errorf("write error log: %w", err)
	}
	return nil
}

// Records returns all journaled failures, oldest first.
func (l *ErrorLog) Records() ([]ErrorRecord, error) {
	data, err := os.ReadFile(l.path)
	if err != nil {
		if os.IsNotExist(err) {
			return nil, nil
		}
		return nil, fmt.Errorf("read error log: %w", err)
	}
	if len(data) == 0 {
		return nil, nil
	}
	var records []ErrorRecord
	if err := json.Unmarshal(data, &records); err != nil {
		return nil, fmt.Errorf("decode error log: %w", err)
	}
	return records, nil
}

// Count returns the number of journaled failures.
func (l *ErrorLog) Count() (int, error) {
	records, err := l.Records()
	if err != nil {
		return 0, err
	}
	return len(records), nil
}
