// Package pipelog is the small event surface every pipeline stage logs
// through. Field names are part of the contract consumed by downstream log
// processing; optional fields are omitted, never nulled.
package pipelog

import (
	"time"

	"github.com/rs/zerolog"
)

// Logger wraps a zerolog.Logger with the typed pipeline events.
type Logger struct {
	zl zerolog.Logger
}

func New(zl zerolog.Logger) *Logger {
	return &Logger{zl: zl}
}

// With returns a Logger whose events all carry the given source.
func (l *Logger) With(source string) *Logger {
	return &Logger{zl: l.zl.With().Str("source", source).Logger()}
}

// Raw exposes the underlying zerolog.Logger for one-off events.
func (l *Logger) Raw() zerolog.Logger {
	return l.zl
}

func (l *Logger) ExtractionStart(source, recordID, extractor string) {
	l.zl.Info().
		Str("source", source).
		Str("record_id", recordID).
		Str("extractor", extractor).
		Str("operation", "extract").
		Msg("extraction started")
}

func (l *Logger) ExtractionSuccess(source, recordID, extractor string, fieldsExtracted int, duration time.Duration) {
	l.zl.Info().
		Str("source", source).
		Str("record_id", recordID).
		Str("extractor", extractor).
		Str("operation", "extract").
		Int("fields_extracted", fieldsExtracted).
		Float64("duration_seconds", duration.Seconds()).
		Msg("extraction succeeded")
}

func (l *Logger) ExtractionFailure(source, recordID, extractor string, err error) {
	l.zl.Error().
		Str("source", source).
		Str("record_id", recordID).
		Str("extractor", extractor).
		Str("operation", "extract").
		Err(err).
		Msg("extraction failed")
}

// LLMCall records token usage and cost for one model invocation.
func (l *Logger) LLMCall(model string, tokensIn, tokensOut int, costUSD float64) {
	l.zl.Info().
		Str("operation", "llm_call").
		Str("model", model).
		Int("tokens_in", tokensIn).
		Int("tokens_out", tokensOut).
		Int("tokens_total", tokensIn+tokensOut).
		Float64("cost_usd", costUSD).
		Msg("llm call")
}

// Ingested records a stored capture.
func (l *Logger) Ingested(source, recordID, contentHash string) {
	l.zl.Info().
		Str("source", source).
		Str("record_id", recordID).
		Str("operation", "ingest").
		Str("content_hash", contentHash).
		Msg("capture stored")
}

// Deduplicated records a capture skipped because its hash already exists.
func (l *Logger) Deduplicated(source, contentHash string) {
	l.zl.Info().
		Str("source", source).
		Str("operation", "ingest").
		Str("content_hash", contentHash).
		Msg("deduplicated")
}

// FieldConflict records a near-trust merge dispute.
func (l *Logger) FieldConflict(field, winnerSource string, severity float64) {
	l.zl.Warn().
		Str("operation", "merge").
		Str("field", field).
		Str("source", winnerSource).
		Float64("confidence_score", severity).
		Msg("field conflict")
}
