package extractor

import (
	"context"

	"github.com/oddsmith/matchodds/internal/cache"
	"github.com/oddsmith/matchodds/internal/criteria"
)

// Stub is a ContentExtractor for tests and offline development. It returns
// the configured payload, or the configured error for the first FailFirst
// calls.
type Stub struct {
	Payload   cache.Payload
	Err       error
	FailFirst int

	Calls int
}

// Extract returns the canned payload or error.
func (s *Stub) Extract(_ context.Context, _ criteria.Normalized) (cache.Payload, error) {
	s.Calls++
	if s.Err != nil && (s.FailFirst == 0 || s.Calls <= s.FailFirst) {
		return cache.Payload{}, s.Err
	}
	return s.Payload, nil
}
