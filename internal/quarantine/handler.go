package quarantine

import (
	"context"
	"fmt"

	"github.com/LarjGit/edinburgh-finds-sub001/internal/domain/extractions"
	"github.com/LarjGit/edinburgh-finds-sub001/internal/extract"
)

// NewExtractionHandler returns the standard retry handler: it re-runs the
// extractor over the failed capture with force-retry so a stale record from
// a partial earlier attempt is replaced. Failures come back as retryable
// with the runner's aggregated per-item detail.
func NewExtractionHandler(runner *extract.Runner) Handler {
	return func(ctx context.Context, failure extractions.Failure) (bool, error) {
		outcome, err := runner.RunSingle(ctx, failure.RawCaptureID, extract.Options{ForceRetry: true})
		if err != nil {
			return false, &RetryableError{
				Message: err.Error(),
				Details: map[string]any{
					"error_type": fmt.Sprintf("%T", err),
					"message":    err.Error(),
				},
			}
		}
		return outcome == extract.OutcomeExtracted, nil
	}
}
