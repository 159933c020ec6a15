// Package quarantine holds failed extractions for bounded retry.
package quarantine

import (
	"context"
	"errors"
	"fmt"

	"github.com/LarjGit/edinburgh-finds-sub001/internal/domain/extractions"
	"github.com/LarjGit/edinburgh-finds-sub001/internal/metrics"
	"github.com/LarjGit/edinburgh-finds-sub001/internal/pipelog"
)

// DefaultMaxRetries bounds automatic retries; beyond it a failure waits for
// human review.
const DefaultMaxRetries = 3

// RetryableError marks a handler failure that should bump the retry count
// and stay quarantined.
type RetryableError struct {
	Message string
	Details map[string]any
}

func (e *RetryableError) Error() string { return e.Message }

// Handler re-attempts one quarantined failure. Returning true with a nil
// error clears the failure; a *RetryableError re-queues it with its details;
// any other error re-queues it with synthetic details.
type Handler func(ctx context.Context, failure extractions.Failure) (bool, error)

// Summary reports one retry batch.
type Summary struct {
	Retried   int
	Succeeded int
	Failed    int
}

// Service wraps the failure repository with retry orchestration.
type Service struct {
	failures extractions.FailureRepository
	log      *pipelog.Logger
}

func NewService(failures extractions.FailureRepository, log *pipelog.Logger) *Service {
	return &Service{failures: failures, log: log}
}

// RecordFailure upserts a failure row for the (capture, source) pair.
func (s *Service) RecordFailure(ctx context.Context, rawCaptureID, source, message string, details map[string]any, incrementRetry bool) error {
	_, err := s.failures.Upsert(ctx, extractions.FailureUpsertParams{
		RawCaptureID:   rawCaptureID,
		Source:         source,
		ErrorMessage:   message,
		ErrorDetails:   details,
		IncrementRetry: incrementRetry,
	})
	if err != nil {
		return fmt.Errorf("record failure for %s/%s: %w", rawCaptureID, source, err)
	}
	return nil
}

// ListRetryable returns failures still under the retry budget.
func (s *Service) ListRetryable(ctx context.Context, maxRetries, limit int) ([]extractions.Failure, error) {
	if maxRetries <= 0 {
		maxRetries = DefaultMaxRetries
	}
	return s.failures.ListRetryable(ctx, maxRetries, limit)
}

// RetryBatch re-attempts every retryable failure through handler. Outcomes:
// success deletes the row, a RetryableError refreshes it with its details,
// any other error refreshes it with a synthetic {error_type, message}
// payload. Per-failure errors never abort the batch.
func (s *Service) RetryBatch(ctx context.Context, maxRetries, limit int, handler Handler) (*Summary, error) {
	batch, err := s.ListRetryable(ctx, maxRetries, limit)
	if err != nil {
		return nil, fmt.Errorf("list retryable: %w", err)
	}

	summary := &Summary{}
	for _, failure := range batch {
		summary.Retried++

		ok, handlerErr := handler(ctx, failure)
		if handlerErr == nil && ok {
			if err := s.failures.Delete(ctx, failure.RawCaptureID, failure.Source); err != nil {
				return summary, fmt.Errorf("clear failure for %s/%s: %w", failure.RawCaptureID, failure.Source, err)
			}
			summary.Succeeded++
			metrics.RetriesTotal.WithLabelValues("succeeded").Inc()
			continue
		}

		summary.Failed++
		metrics.RetriesTotal.WithLabelValues("failed").Inc()
		message, details := describeFailure(handlerErr)
		if err := s.RecordFailure(ctx, failure.RawCaptureID, failure.Source, message, details, true); err != nil {
			return summary, err
		}
		if s.log != nil {
			s.log.ExtractionFailure(failure.Source, failure.RawCaptureID, failure.Source, handlerErr)
		}
	}
	return summary, nil
}

func describeFailure(err error) (string, map[string]any) {
	if err == nil {
		// Handler returned false without an error: treat as an unknown
		// failure so the row is refreshed, not dropped.
		return "retry handler declined without error", map[string]any{
			"error_type": "handler_declined",
			"message":    "retry handler declined without error",
		}
	}

	var retryable *RetryableError
	if errors.As(err, &retryable) {
		return retryable.Message, retryable.Details
	}
	return err.Error(), map[string]any{
		"error_type": fmt.Sprintf("%T", err),
		"message":    err.Error(),
	}
}
