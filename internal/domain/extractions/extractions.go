// Package extractions defines extracted records and quarantined failures.
package extractions

import (
	"context"
	"errors"
	"time"
)

var (
	ErrNotFound        = errors.New("extracted record not found")
	ErrFailureNotFound = errors.New("failed extraction not found")
)

// ExtractedRecord is the normalized output of one extractor over one raw
// capture. Exactly one record exists per (raw_capture, source) pair at rest.
// Attributes hold schema primitives only; connector-native observations live
// in DiscoveredAttributes.
type ExtractedRecord struct {
	ID                   string
	RawCaptureID         string
	Source               string
	EntityClass          string
	Attributes           map[string]any
	DiscoveredAttributes map[string]any
	ExternalIDs          map[string]string
	ExtractionHash       string
	ModelUsed            string
	CreatedAt            time.Time
}

type Repository interface {
	Create(ctx context.Context, record ExtractedRecord) error
	// Replace deletes any existing record for the same (raw_capture, source)
	// pair and inserts the new one. Used by force-retry.
	Replace(ctx context.Context, record ExtractedRecord) error
	GetByCaptureAndSource(ctx context.Context, rawCaptureID, source string) (*ExtractedRecord, error)
	ListCreatedSince(ctx context.Context, since time.Time) ([]ExtractedRecord, error)
}

// Failure is a quarantined extraction. At most one exists per
// (raw_capture, source); it is deleted when a retry succeeds.
type Failure struct {
	ID            string
	RawCaptureID  string
	Source        string
	ErrorMessage  string
	ErrorDetails  map[string]any
	RetryCount    int
	LastAttemptAt time.Time
}

// FailureUpsertParams records or refreshes a failure. When IncrementRetry is
// set and a row already exists, its retry_count is bumped; error fields and
// last_attempt_at are always refreshed.
type FailureUpsertParams struct {
	RawCaptureID   string
	Source         string
	ErrorMessage   string
	ErrorDetails   map[string]any
	IncrementRetry bool
}

type FailureRepository interface {
	Upsert(ctx context.Context, params FailureUpsertParams) (*Failure, error)
	GetByCaptureAndSource(ctx context.Context, rawCaptureID, source string) (*Failure, error)
	ListRetryable(ctx context.Context, maxRetries, limit int) ([]Failure, error)
	Delete(ctx context.Context, rawCaptureID, source string) error
}
