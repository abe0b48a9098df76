// Package extractor turns canonical criteria into raw result fields by
// driving the external calculator page. The rest of the system only sees the
// ContentExtractor interface and the FetchError taxonomy.
package extractor

import (
	"context"
	"fmt"

	"github.com/oddsmith/matchodds/internal/cache"
	"github.com/oddsmith/matchodds/internal/criteria"
)

// Kind classifies a fetch failure.
type Kind string

// Failure kinds. All three are retryable up to the fetcher's budget.
const (
	KindTimeout     Kind = "timeout"
	KindNavigation  Kind = "navigation"
	KindEmptyResult Kind = "empty-result"
)

// FetchError is a typed extraction failure.
type FetchError struct {
	Kind Kind
	Err  error
}

func (e *FetchError) Error() string {
	if e.Err == nil {
		return string(e.Kind)
	}
	return fmt.Sprintf("%s: %v", e.Kind, e.Err)
}

func (e *FetchError) Unwrap() error {
	return e.Err
}

// NewFetchError wraps err with a failure kind.
func NewFetchError(kind Kind, err error) *FetchError {
	return &FetchError{Kind: kind, Err: err}
}

// ContentExtractor fetches the raw result fields for one canonical request.
type ContentExtractor interface {
	Extract(ctx context.Context, params criteria.Normalized) (cache.Payload, error)
}
