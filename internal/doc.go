// Package internal documents the pipeline internals.
//
// The internal tree is organized by responsibility:
// - connector, ingest: fetching raw payloads and persisting raw captures
// - extract, quarantine: mapping captures to records, holding failures for retry
// - match, trust, merge, finalize: deduplication and canonical entity assembly
// - domain: typed records and repository contracts per area
// - storage: Postgres repositories and migrations
// - artifact, hashing, slug, modules: shared pipeline primitives
// - config, pipelog, metrics: shared infrastructure
//
// Code in internal/ is not meant for external import.
package internal
