// Package ingest drives connectors through the fetch, hash, dedupe-check,
// persist sequence and anchors each invocation to an orchestration run.
package ingest

import (
	"context"
	"fmt"
	"sync"
	"time"

	"github.com/google/uuid"
	"github.com/oklog/ulid/v2"
	"golang.org/x/sync/errgroup"

	"github.com/LarjGit/edinburgh-finds-sub001/internal/connector"
	"github.com/LarjGit/edinburgh-finds-sub001/internal/domain/captures"
	"github.com/LarjGit/edinburgh-finds-sub001/internal/domain/runs"
	"github.com/LarjGit/edinburgh-finds-sub001/internal/hashing"
	"github.com/LarjGit/edinburgh-finds-sub001/internal/metrics"
	"github.com/LarjGit/edinburgh-finds-sub001/internal/pipelog"
)

// Ingestion modes recorded on the orchestration run.
const (
	ModeSingle = "single"
	ModeMulti  = "multi"
)

// Result reports the outcome of one connector invocation.
type Result struct {
	Source       string
	Stored       bool
	Deduplicated bool
	Failed       bool
	ContentHash  string
	FilePath     string
	Err          error
}

// Summary aggregates one orchestration run.
type Summary struct {
	RunID        string
	Stored       int
	Deduplicated int
	Failed       int
	Results      []Result
}

// Orchestrator fans a query out to connectors and persists what comes back.
type Orchestrator struct {
	registry    *connector.Registry
	configs     map[string]connector.SourceConfig
	deps        connector.Deps
	runs        runs.Repository
	log         *pipelog.Logger
	parallelism int
}

func NewOrchestrator(registry *connector.Registry, configs map[string]connector.SourceConfig, deps connector.Deps, runRepo runs.Repository, log *pipelog.Logger, parallelism int) *Orchestrator {
	if parallelism < 1 {
		parallelism = 1
	}
	return &Orchestrator{
		registry:    registry,
		configs:     configs,
		deps:        deps,
		runs:        runRepo,
		log:         log,
		parallelism: parallelism,
	}
}

// Run executes the query against the named sources (all enabled configured
// sources when empty) under a new orchestration run. Per-source failures are
// recorded, not fatal; the run fails only when every source fails.
func (o *Orchestrator) Run(ctx context.Context, query string, sources []string) (*Summary, error) {
	if len(sources) == 0 {
		sources = o.enabledSources()
	}
	if len(sources) == 0 {
		return nil, fmt.Errorf("ingest: no enabled sources configured")
	}

	mode := ModeMulti
	if len(sources) == 1 {
		mode = ModeSingle
	}

	run := runs.OrchestrationRun{
		ID:            uuid.NewString(),
		Query:         query,
		IngestionMode: mode,
		Status:        runs.StatusRunning,
		CreatedAt:     time.Now().UTC(),
	}
	if err := o.runs.Create(ctx, run); err != nil {
		return nil, fmt.Errorf("ingest: create run: %w", err)
	}

	summary := &Summary{RunID: run.ID}
	var mu sync.Mutex

	g, gctx := errgroup.WithContext(ctx)
	g.SetLimit(o.parallelism)

	for _, source := range sources {
		source := source
		g.Go(func() error {
			result := o.runSource(gctx, source, query)
			mu.Lock()
			defer mu.Unlock()
			summary.Results = append(summary.Results, result)
			switch {
			case result.Stored:
				summary.Stored++
				metrics.CapturesStored.WithLabelValues(result.Source).Inc()
			case result.Deduplicated:
				summary.Deduplicated++
				metrics.CapturesDeduplicated.WithLabelValues(result.Source).Inc()
			case result.Failed:
				summary.Failed++
				metrics.CapturesFailed.WithLabelValues(result.Source).Inc()
			}
			return nil
		})
	}
	if err := g.Wait(); err != nil {
		_ = o.runs.UpdateStatus(ctx, run.ID, runs.StatusFailed)
		return summary, err
	}

	status := runs.StatusCompleted
	if summary.Stored == 0 && summary.Deduplicated == 0 && summary.Failed > 0 {
		status = runs.StatusFailed
	}
	if err := o.runs.UpdateStatus(ctx, run.ID, status); err != nil {
		return summary, fmt.Errorf("ingest: update run status: %w", err)
	}
	return summary, nil
}

// runSource runs the full connector sequence for one source. Connector
// errors are recorded against a failed capture row; the artifact is absent
// in that case.
func (o *Orchestrator) runSource(ctx context.Context, source, query string) Result {
	result := Result{Source: source}

	cfg, ok := o.configs[source]
	if !ok {
		result.Failed = true
		result.Err = fmt.Errorf("source %q not configured", source)
		return result
	}

	conn, err := o.registry.Build(source, cfg, o.deps)
	if err != nil {
		result.Failed = true
		result.Err = err
		return result
	}

	payload, err := conn.Fetch(ctx, query)
	if err != nil {
		result.Failed = true
		result.Err = err
		o.recordFailedCapture(ctx, source, cfg.BaseURL, err)
		return result
	}

	contentHash, err := hashing.Canonical(payload)
	if err != nil {
		result.Failed = true
		result.Err = err
		return result
	}
	result.ContentHash = contentHash

	dup, err := conn.IsDuplicate(ctx, contentHash)
	if err != nil {
		result.Failed = true
		result.Err = err
		return result
	}
	if dup {
		result.Deduplicated = true
		if o.log != nil {
			o.log.Deduplicated(source, contentHash)
		}
		return result
	}

	filePath, err := conn.Save(ctx, payload, cfg.BaseURL)
	if err != nil {
		result.Failed = true
		result.Err = err
		o.recordFailedCapture(ctx, source, cfg.BaseURL, err)
		return result
	}
	result.Stored = true
	result.FilePath = filePath
	return result
}

// recordFailedCapture leaves an audit row for a capture that never produced
// an artifact. Best effort: a second failure here is logged and dropped.
func (o *Orchestrator) recordFailedCapture(ctx context.Context, source, sourceURL string, cause error) {
	capture := captures.RawCapture{
		ID:         ulid.Make().String(),
		Source:     source,
		SourceURL:  sourceURL,
		Status:     captures.StatusFailed,
		IngestedAt: time.Now().UTC(),
		Metadata:   map[string]any{"error": cause.Error()},
	}
	if err := o.deps.Captures.Create(ctx, capture); err != nil && o.log != nil {
		logger := o.log.Raw()
		logger.Error().Err(err).Str("source", source).Msg("record failed capture")
	}
}

func (o *Orchestrator) enabledSources() []string {
	var sources []string
	for _, name := range o.registry.Names() {
		if cfg, ok := o.configs[name]; ok && cfg.Enabled {
			sources = append(sources, name)
		}
	}
	return sources
}
