// Package connector defines the pluggable source adapters that feed the
// pipeline. Connectors never interpret data: their output is the payload as
// received plus structural metadata.
package connector

import (
	"context"
	"fmt"
	"time"

	"github.com/oklog/ulid/v2"

	"github.com/LarjGit/edinburgh-finds-sub001/internal/artifact"
	"github.com/LarjGit/edinburgh-finds-sub001/internal/domain/captures"
	"github.com/LarjGit/edinburgh-finds-sub001/internal/hashing"
	"github.com/LarjGit/edinburgh-finds-sub001/internal/pipelog"
)

// Error wraps any failure raised by a connector: network errors, non-2xx
// responses, and timeouts alike.
type Error struct {
	Source string
	Op     string
	Err    error
}

func (e *Error) Error() string {
	return fmt.Sprintf("connector %s: %s: %v", e.Source, e.Op, e.Err)
}

func (e *Error) Unwrap() error { return e.Err }

// Connector is one external source adapter.
type Connector interface {
	SourceName() string
	// Fetch retrieves the raw payload for query. Failures are *Error.
	Fetch(ctx context.Context, query string) (map[string]any, error)
	// Save hashes the payload, persists the artifact, and creates the
	// RawCapture row. It returns the artifact file path.
	Save(ctx context.Context, payload map[string]any, sourceURL string) (string, error)
	// IsDuplicate reports whether a capture with this content hash exists.
	IsDuplicate(ctx context.Context, contentHash string) (bool, error)
}

// Deps carries the shared collaborators injected into every connector.
type Deps struct {
	Store    *artifact.Store
	Captures captures.Repository
	Logger   *pipelog.Logger
}

// base implements the persistence half of the Connector interface, shared by
// all concrete connectors.
type base struct {
	source string
	deps   Deps
}

func (b *base) SourceName() string { return b.source }

func (b *base) Save(ctx context.Context, payload map[string]any, sourceURL string) (string, error) {
	contentHash, err := hashing.Canonical(payload)
	if err != nil {
		return "", fmt.Errorf("save %s capture: %w", b.source, err)
	}

	recordID := fmt.Sprintf("%s_%s", ulid.Make().String(), contentHash[:8])
	filePath, err := b.deps.Store.Save(b.source, recordID, payload)
	if err != nil {
		return "", fmt.Errorf("save %s capture: %w", b.source, err)
	}

	capture := captures.RawCapture{
		ID:          ulid.Make().String(),
		Source:      b.source,
		SourceURL:   sourceURL,
		FilePath:    filePath,
		ContentHash: contentHash,
		Status:      captures.StatusStored,
		IngestedAt:  time.Now().UTC(),
		Metadata:    payloadMetadata(payload),
	}
	if err := b.deps.Captures.Create(ctx, capture); err != nil {
		return "", fmt.Errorf("save %s capture: %w", b.source, err)
	}

	if b.deps.Logger != nil {
		b.deps.Logger.Ingested(b.source, capture.ID, contentHash)
	}
	return filePath, nil
}

func (b *base) IsDuplicate(ctx context.Context, contentHash string) (bool, error) {
	exists, err := b.deps.Captures.ExistsByHash(ctx, contentHash)
	if err != nil {
		return false, fmt.Errorf("duplicate check %s: %w", b.source, err)
	}
	return exists, nil
}

// payloadMetadata records structural counts without interpreting content.
func payloadMetadata(payload map[string]any) map[string]any {
	metadata := make(map[string]any)
	for _, key := range []string{"organic", "places", "features", "results"} {
		if items, ok := payload[key].([]any); ok {
			metadata[key+"_count"] = len(items)
		}
	}
	return metadata
}
