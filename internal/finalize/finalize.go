// Package finalize maps merged extraction groups into canonical entities.
package finalize

import (
	"context"
	"fmt"
	"sort"

	"github.com/oklog/ulid/v2"

	"github.com/LarjGit/edinburgh-finds-sub001/internal/domain/entities"
	"github.com/LarjGit/edinburgh-finds-sub001/internal/domain/extractions"
	"github.com/LarjGit/edinburgh-finds-sub001/internal/domain/runs"
	"github.com/LarjGit/edinburgh-finds-sub001/internal/merge"
	"github.com/LarjGit/edinburgh-finds-sub001/internal/metrics"
	"github.com/LarjGit/edinburgh-finds-sub001/internal/modules"
	"github.com/LarjGit/edinburgh-finds-sub001/internal/pipelog"
	"github.com/LarjGit/edinburgh-finds-sub001/internal/slug"
)

// Summary reports one finalization pass.
type Summary struct {
	EntitiesCreated int
	EntitiesUpdated int
	Conflicts       int
}

// Finalizer groups extracted records by slug, merges each group, and upserts
// canonical entities. Re-running for the same orchestration run creates
// nothing new and rewrites the same rows with equal content.
type Finalizer struct {
	runs     runs.Repository
	records  extractions.Repository
	entities entities.Repository
	merger   *merge.EntityMerger
	log      *pipelog.Logger
}

func NewFinalizer(runRepo runs.Repository, recordRepo extractions.Repository, entityRepo entities.Repository, merger *merge.EntityMerger, log *pipelog.Logger) *Finalizer {
	return &Finalizer{
		runs:     runRepo,
		records:  recordRepo,
		entities: entityRepo,
		merger:   merger,
		log:      log,
	}
}

// Run finalizes every extraction created at or after the run's timestamp.
// The at-or-after window covers deduplicated captures whose fresh extractions
// still belong to this run.
func (f *Finalizer) Run(ctx context.Context, runID string) (*Summary, error) {
	run, err := f.runs.GetByID(ctx, runID)
	if err != nil {
		return nil, fmt.Errorf("finalize: load run %s: %w", runID, err)
	}

	records, err := f.records.ListCreatedSince(ctx, run.CreatedAt)
	if err != nil {
		return nil, fmt.Errorf("finalize: list extractions: %w", err)
	}

	summary := &Summary{}
	for _, group := range groupBySlug(records) {
		merged := f.merger.Merge(group.records)
		if merged == nil {
			continue
		}

		entity := buildEntity(group.slug, merged)
		if len(entity.Modules) > 0 {
			if err := modules.ValidateNamespacing(entity.Modules); err != nil {
				return summary, fmt.Errorf("finalize: modules for %s: %w", group.slug, err)
			}
		}
		created, err := f.entities.Upsert(ctx, entity)
		if err != nil {
			return summary, fmt.Errorf("finalize: upsert %s: %w", group.slug, err)
		}
		if created {
			summary.EntitiesCreated++
			metrics.EntitiesFinalized.WithLabelValues("created").Inc()
		} else {
			summary.EntitiesUpdated++
			metrics.EntitiesFinalized.WithLabelValues("updated").Inc()
		}

		summary.Conflicts += len(merged.Conflicts)
		for _, conflict := range merged.Conflicts {
			metrics.MergeConflicts.WithLabelValues(conflict.FieldName).Inc()
			if f.log != nil {
				f.log.FieldConflict(conflict.FieldName, conflict.WinnerSource, conflict.Severity)
			}
		}
	}
	return summary, nil
}

type slugGroup struct {
	slug    string
	records []merge.SourceRecord
}

// groupBySlug buckets records by the slug of their entity name. Records
// without a usable name are skipped; they cannot key an entity. Groups come
// back slug-sorted so processing order is stable.
func groupBySlug(records []extractions.ExtractedRecord) []slugGroup {
	buckets := make(map[string][]merge.SourceRecord)
	for _, record := range records {
		name, _ := record.Attributes["entity_name"].(string)
		key := slug.Make(name)
		if key == "" {
			continue
		}
		buckets[key] = append(buckets[key], merge.SourceRecord{
			RecordID:    record.ID,
			Source:      record.Source,
			EntityClass: record.EntityClass,
			Attributes:  record.Attributes,
			Discovered:  record.DiscoveredAttributes,
			ExternalIDs: record.ExternalIDs,
		})
	}

	groups := make([]slugGroup, 0, len(buckets))
	for key, bucket := range buckets {
		groups = append(groups, slugGroup{slug: key, records: bucket})
	}
	sort.Slice(groups, func(i, j int) bool { return groups[i].slug < groups[j].slug })
	return groups
}

// buildEntity maps merged fields onto entity columns. The mapping is
// explicit: merged "website" lands in WebsiteURL, nothing is copied by key
// reflection.
func buildEntity(entitySlug string, merged *merge.MergedEntity) entities.CanonicalEntity {
	entity := entities.CanonicalEntity{
		ID:              ulid.Make().String(),
		Slug:            entitySlug,
		EntityClass:     merged.EntityClass,
		EntityName:      stringField(merged, "entity_name"),
		Summary:         stringField(merged, "summary"),
		StreetAddress:   stringField(merged, "street_address"),
		City:            stringField(merged, "city"),
		Postcode:        stringField(merged, "postcode"),
		Country:         stringField(merged, "country"),
		Phone:           stringField(merged, "phone"),
		Email:           stringField(merged, "email"),
		WebsiteURL:      stringField(merged, "website"),
		Latitude:        floatField(merged, "latitude"),
		Longitude:       floatField(merged, "longitude"),
		Modules:         moduleField(merged),
		DiscoveredAttrs: merged.Discovered,
		ExternalIDs:     merged.ExternalIDs,
		SourceInfo:      merged.SourceInfo,
		FieldConfidence: merged.FieldConfidence,
	}

	entity.CanonicalActivities = arrayField(merged, "canonical_activities")
	entity.CanonicalRoles = arrayField(merged, "canonical_roles")
	entity.CanonicalPlaceTypes = arrayField(merged, "canonical_place_types")
	entity.CanonicalAccess = arrayField(merged, "canonical_access")
	return entity
}

func stringField(merged *merge.MergedEntity, name string) string {
	s, _ := merged.Attributes[name].(string)
	return s
}

func floatField(merged *merge.MergedEntity, name string) *float64 {
	switch v := merged.Attributes[name].(type) {
	case float64:
		return &v
	case int:
		f := float64(v)
		return &f
	}
	return nil
}

func arrayField(merged *merge.MergedEntity, name string) []string {
	switch v := merged.Attributes[name].(type) {
	case []string:
		return v
	case []any:
		out := make([]string, 0, len(v))
		for _, element := range v {
			if s, ok := element.(string); ok {
				out = append(out, s)
			}
		}
		return out
	}
	return nil
}

func moduleField(merged *merge.MergedEntity) map[string]any {
	if modules, ok := merged.Attributes["modules"].(map[string]any); ok {
		return modules
	}
	return nil
}
