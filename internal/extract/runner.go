package extract

import (
	"context"
	"errors"
	"fmt"
	"sync"
	"time"

	"github.com/oklog/ulid/v2"
	"golang.org/x/sync/errgroup"

	"github.com/LarjGit/edinburgh-finds-sub001/internal/artifact"
	"github.com/LarjGit/edinburgh-finds-sub001/internal/domain/captures"
	"github.com/LarjGit/edinburgh-finds-sub001/internal/domain/extractions"
	"github.com/LarjGit/edinburgh-finds-sub001/internal/hashing"
	"github.com/LarjGit/edinburgh-finds-sub001/internal/metrics"
	"github.com/LarjGit/edinburgh-finds-sub001/internal/pipelog"
)

// Item outcomes.
const (
	OutcomeExtracted        = "extracted"
	OutcomeAlreadyExtracted = "already_extracted"
	OutcomeFailed           = "failed"
)

// Options control a runner invocation.
type Options struct {
	// DryRun performs extraction and validation but persists nothing.
	DryRun bool
	// ForceRetry re-extracts captures that already have a record.
	ForceRetry bool
	// Limit caps the number of captures processed. Zero means no cap.
	Limit int
}

// Summary aggregates a batch run.
type Summary struct {
	Successful       int
	Failed           int
	AlreadyExtracted int
	EstimatedCostUSD float64
}

// Total returns the number of captures the batch attempted.
func (s Summary) Total() int {
	return s.Successful + s.Failed + s.AlreadyExtracted
}

// costEstimator is implemented by LLM-backed extractors that can price one
// invocation.
type costEstimator interface {
	EstimateCostUSD() float64
}

// Runner drives extractors over raw captures.
type Runner struct {
	captures    captures.Repository
	records     extractions.Repository
	failures    extractions.FailureRepository
	store       *artifact.Store
	registry    *Registry
	log         *pipelog.Logger
	parallelism int
}

func NewRunner(captureRepo captures.Repository, recordRepo extractions.Repository, failureRepo extractions.FailureRepository, store *artifact.Store, registry *Registry, log *pipelog.Logger, parallelism int) *Runner {
	if parallelism < 1 {
		parallelism = 1
	}
	return &Runner{
		captures:    captureRepo,
		records:     recordRepo,
		failures:    failureRepo,
		store:       store,
		registry:    registry,
		log:         log,
		parallelism: parallelism,
	}
}

// RunSingle extracts one capture by ID. Idempotent: an existing record for
// the (capture, source) pair short-circuits to already_extracted unless
// force-retry is set.
func (r *Runner) RunSingle(ctx context.Context, rawCaptureID string, opts Options) (string, error) {
	capture, err := r.captures.GetByID(ctx, rawCaptureID)
	if err != nil {
		return OutcomeFailed, fmt.Errorf("load capture %s: %w", rawCaptureID, err)
	}
	return r.extractCapture(ctx, *capture, opts)
}

// RunBySource extracts all stored captures for one source.
func (r *Runner) RunBySource(ctx context.Context, source string, opts Options) (*Summary, error) {
	batch, err := r.captures.ListBySource(ctx, source, opts.Limit)
	if err != nil {
		return nil, fmt.Errorf("list captures for %s: %w", source, err)
	}
	return r.runBatch(ctx, batch, opts)
}

// RunAllPending extracts all stored captures across every source.
func (r *Runner) RunAllPending(ctx context.Context, opts Options) (*Summary, error) {
	batch, err := r.captures.ListAll(ctx, opts.Limit)
	if err != nil {
		return nil, fmt.Errorf("list captures: %w", err)
	}
	return r.runBatch(ctx, batch, opts)
}

// runBatch applies single-capture semantics per item. Per-item failures
// never abort the batch.
func (r *Runner) runBatch(ctx context.Context, batch []captures.RawCapture, opts Options) (*Summary, error) {
	summary := &Summary{}
	var mu sync.Mutex

	g, gctx := errgroup.WithContext(ctx)
	g.SetLimit(r.parallelism)

	for _, capture := range batch {
		if capture.Status != captures.StatusStored {
			continue
		}
		capture := capture
		g.Go(func() error {
			outcome, _ := r.extractCapture(gctx, capture, opts)
			mu.Lock()
			defer mu.Unlock()
			switch outcome {
			case OutcomeExtracted:
				summary.Successful++
				if extractor, ok := r.registry.Get(capture.Source); ok {
					if estimator, ok := extractor.(costEstimator); ok {
						summary.EstimatedCostUSD += estimator.EstimateCostUSD()
					}
				}
			case OutcomeAlreadyExtracted:
				summary.AlreadyExtracted++
			default:
				summary.Failed++
			}
			return nil
		})
	}
	if err := g.Wait(); err != nil {
		return summary, err
	}
	return summary, nil
}

func (r *Runner) extractCapture(ctx context.Context, capture captures.RawCapture, opts Options) (outcome string, err error) {
	start := time.Now()
	defer func() {
		metrics.ExtractionsTotal.WithLabelValues(capture.Source, outcome).Inc()
		metrics.ExtractionDuration.WithLabelValues(capture.Source).Observe(time.Since(start).Seconds())
	}()

	extractor, ok := r.registry.Get(capture.Source)
	if !ok {
		err := fmt.Errorf("no extractor for source %q", capture.Source)
		r.quarantine(ctx, capture, err, nil, opts)
		return OutcomeFailed, err
	}

	if !opts.ForceRetry {
		if _, err := r.records.GetByCaptureAndSource(ctx, capture.ID, capture.Source); err == nil {
			return OutcomeAlreadyExtracted, nil
		} else if !errors.Is(err, extractions.ErrNotFound) {
			return OutcomeFailed, err
		}
	}

	if r.log != nil {
		r.log.ExtractionStart(capture.Source, capture.ID, extractor.SourceName())
	}

	record, err := r.buildRecord(capture, extractor)
	if err != nil {
		if r.log != nil {
			r.log.ExtractionFailure(capture.Source, capture.ID, extractor.SourceName(), err)
		}
		r.quarantine(ctx, capture, err, errorDetails(err), opts)
		return OutcomeFailed, err
	}

	if opts.DryRun {
		return OutcomeExtracted, nil
	}

	persist := r.records.Create
	if opts.ForceRetry {
		persist = r.records.Replace
	}
	if err := persist(ctx, *record); err != nil {
		return OutcomeFailed, fmt.Errorf("persist extraction for %s: %w", capture.ID, err)
	}

	// A successful extraction clears any quarantined failure for this pair.
	if err := r.failures.Delete(ctx, capture.ID, capture.Source); err != nil && !errors.Is(err, extractions.ErrFailureNotFound) {
		return OutcomeFailed, err
	}

	if r.log != nil {
		r.log.ExtractionSuccess(capture.Source, capture.ID, extractor.SourceName(), len(record.Attributes), time.Since(start))
	}
	return OutcomeExtracted, nil
}

// buildRecord runs the extractor over every item in the capture's artifact
// and assembles the record from the primary (first) item.
func (r *Runner) buildRecord(capture captures.RawCapture, extractor Extractor) (*extractions.ExtractedRecord, error) {
	payload, err := r.store.Load(capture.FilePath)
	if err != nil {
		return nil, err
	}

	items := extractor.Items(payload)
	if len(items) == 0 {
		return nil, fmt.Errorf("no extractable items in capture")
	}

	var primary map[string]any
	var richText []string
	var itemErrs []error
	for i, item := range items {
		record, err := extractItem(extractor, item)
		if err != nil {
			itemErrs = append(itemErrs, fmt.Errorf("item %d: %w", i, err))
			continue
		}
		richText = append(richText, extractor.RichText(item)...)
		if primary == nil {
			primary = record
		}
	}
	// All-or-nothing per capture: any item failure fails the whole capture,
	// with every item's error aggregated for the quarantine row.
	if len(itemErrs) > 0 {
		return nil, errors.Join(itemErrs...)
	}

	externalIDs, _ := primary[externalIDsKey].(map[string]string)
	delete(primary, externalIDsKey)

	attributes, discovered := extractor.SplitAttributes(primary)
	if len(richText) > 0 {
		discovered["rich_text"] = richText
	}
	if len(items) > 1 {
		discovered["result_count"] = len(items)
	}

	entityClass, _ := attributes["entity_class"].(string)

	extractionHash, err := hashing.Canonical(map[string]any{
		"raw_capture_id": capture.ID,
		"source":         capture.Source,
		"attributes":     attributes,
		"discovered":     discovered,
		"external_ids":   externalIDs,
	})
	if err != nil {
		return nil, err
	}

	return &extractions.ExtractedRecord{
		ID:                   ulid.Make().String(),
		RawCaptureID:         capture.ID,
		Source:               capture.Source,
		EntityClass:          entityClass,
		Attributes:           attributes,
		DiscoveredAttributes: discovered,
		ExternalIDs:          externalIDs,
		ExtractionHash:       extractionHash,
		ModelUsed:            extractor.ModelUsed(),
		CreatedAt:            time.Now().UTC(),
	}, nil
}

// extractItem runs the full per-item sequence: extract, boundary check,
// validate.
func extractItem(extractor Extractor, item map[string]any) (map[string]any, error) {
	record, err := extractor.Extract(item)
	if err != nil {
		return nil, err
	}
	if err := checkBoundary(record); err != nil {
		return nil, err
	}
	return extractor.Validate(record)
}

// quarantine hands a failed capture to the failure table. Dry runs persist
// nothing.
func (r *Runner) quarantine(ctx context.Context, capture captures.RawCapture, cause error, details map[string]any, opts Options) {
	if opts.DryRun {
		return
	}
	if details == nil {
		details = errorDetails(cause)
	}
	_, err := r.failures.Upsert(ctx, extractions.FailureUpsertParams{
		RawCaptureID:   capture.ID,
		Source:         capture.Source,
		ErrorMessage:   cause.Error(),
		ErrorDetails:   details,
		IncrementRetry: false,
	})
	if err != nil && r.log != nil {
		logger := r.log.Raw()
		logger.Error().Err(err).Str("record_id", capture.ID).Msg("quarantine write failed")
	}
}

// errorDetails builds the structured detail payload for quarantine rows.
func errorDetails(err error) map[string]any {
	details := map[string]any{
		"error_type": fmt.Sprintf("%T", err),
		"message":    err.Error(),
	}
	var missing *MissingFieldError
	if errors.As(err, &missing) {
		details["field"] = missing.Field
	}
	return details
}
