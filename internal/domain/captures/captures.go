// Package captures defines the raw capture record produced by ingestion.
package captures

import (
	"context"
	"errors"
	"time"
)

var ErrNotFound = errors.New("raw capture not found")

// Capture statuses.
const (
	StatusStored = "stored"
	StatusFailed = "failed"
)

// RawCapture is one persisted connector payload. Rows are immutable after
// creation; byte-identical payloads are rejected upstream by content hash.
type RawCapture struct {
	ID          string
	Source      string
	SourceURL   string
	FilePath    string
	ContentHash string
	Status      string
	IngestedAt  time.Time
	Metadata    map[string]any
}

type Repository interface {
	Create(ctx context.Context, capture RawCapture) error
	GetByID(ctx context.Context, id string) (*RawCapture, error)
	ExistsByHash(ctx context.Context, contentHash string) (bool, error)
	ListBySource(ctx context.Context, source string, limit int) ([]RawCapture, error)
	ListAll(ctx context.Context, limit int) ([]RawCapture, error)
}
