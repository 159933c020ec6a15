package postgres

import (
	"context"
	"errors"
	"fmt"
	"time"

	"github.com/jackc/pgx/v5"
	"github.com/jackc/pgx/v5/pgxpool"

	"github.com/LarjGit/edinburgh-finds-sub001/internal/domain/entities"
)

var _ entities.Repository = (*EntityRepository)(nil)

type EntityRepository struct {
	pool *pgxpool.Pool
	tx   pgx.Tx
}

func (r *EntityRepository) Upsert(ctx context.Context, entity entities.CanonicalEntity) (bool, error) {
	now := time.Now().UTC()

	var created bool
	err := pick(r.pool, r.tx).QueryRow(ctx, `
INSERT INTO canonical_entities
       (id, slug, entity_class, entity_name, summary,
        canonical_activities, canonical_roles, canonical_place_types, canonical_access,
        latitude, longitude, street_address, city, postcode, country,
        phone, email, website_url,
        modules, discovered_attributes, external_ids, source_info, field_confidence,
        created_at, updated_at)
VALUES ($1, $2, $3, $4, NULLIF($5, ''),
        $6, $7, $8, $9,
        $10, $11, NULLIF($12, ''), NULLIF($13, ''), NULLIF($14, ''), NULLIF($15, ''),
        NULLIF($16, ''), NULLIF($17, ''), NULLIF($18, ''),
        $19, $20, $21, $22, $23,
        $24, $24)
ON CONFLICT (slug) DO UPDATE SET
       entity_class          = EXCLUDED.entity_class,
       entity_name           = EXCLUDED.entity_name,
       summary               = EXCLUDED.summary,
       canonical_activities  = EXCLUDED.canonical_activities,
       canonical_roles       = EXCLUDED.canonical_roles,
       canonical_place_types = EXCLUDED.canonical_place_types,
       canonical_access      = EXCLUDED.canonical_access,
       latitude              = EXCLUDED.latitude,
       longitude             = EXCLUDED.longitude,
       street_address        = EXCLUDED.street_address,
       city                  = EXCLUDED.city,
       postcode              = EXCLUDED.postcode,
       country               = EXCLUDED.country,
       phone                 = EXCLUDED.phone,
       email                 = EXCLUDED.email,
       website_url           = EXCLUDED.website_url,
       modules               = EXCLUDED.modules,
       discovered_attributes = EXCLUDED.discovered_attributes,
       external_ids          = EXCLUDED.external_ids,
       source_info           = EXCLUDED.source_info,
       field_confidence      = EXCLUDED.field_confidence,
       updated_at            = EXCLUDED.updated_at
RETURNING (created_at = updated_at)
`,
		entity.ID,
		entity.Slug,
		entity.EntityClass,
		entity.EntityName,
		entity.Summary,
		nonNilSlice(entity.CanonicalActivities),
		nonNilSlice(entity.CanonicalRoles),
		nonNilSlice(entity.CanonicalPlaceTypes),
		nonNilSlice(entity.CanonicalAccess),
		entity.Latitude,
		entity.Longitude,
		entity.StreetAddress,
		entity.City,
		entity.Postcode,
		entity.Country,
		entity.Phone,
		entity.Email,
		entity.WebsiteURL,
		nonNilMap(entity.Modules),
		nonNilMap(entity.DiscoveredAttrs),
		nonNilMap(entity.ExternalIDs),
		nonNilMap(entity.SourceInfo),
		nonNilMap(entity.FieldConfidence),
		now,
	).Scan(&created)
	if err != nil {
		return false, fmt.Errorf("upsert entity %s: %w", entity.Slug, err)
	}
	return created, nil
}

func (r *EntityRepository) GetBySlug(ctx context.Context, slug string) (*entities.CanonicalEntity, error) {
	row := pick(r.pool, r.tx).QueryRow(ctx, `
SELECT id, slug, entity_class, entity_name, COALESCE(summary, ''),
       canonical_activities, canonical_roles, canonical_place_types, canonical_access,
       latitude, longitude,
       COALESCE(street_address, ''), COALESCE(city, ''), COALESCE(postcode, ''), COALESCE(country, ''),
       COALESCE(phone, ''), COALESCE(email, ''), COALESCE(website_url, ''),
       modules, discovered_attributes, external_ids, source_info, field_confidence,
       created_at, updated_at
  FROM canonical_entities
 WHERE slug = $1
`, slug)

	var entity entities.CanonicalEntity
	err := row.Scan(
		&entity.ID,
		&entity.Slug,
		&entity.EntityClass,
		&entity.EntityName,
		&entity.Summary,
		&entity.CanonicalActivities,
		&entity.CanonicalRoles,
		&entity.CanonicalPlaceTypes,
		&entity.CanonicalAccess,
		&entity.Latitude,
		&entity.Longitude,
		&entity.StreetAddress,
		&entity.City,
		&entity.Postcode,
		&entity.Country,
		&entity.Phone,
		&entity.Email,
		&entity.WebsiteURL,
		&entity.Modules,
		&entity.DiscoveredAttrs,
		&entity.ExternalIDs,
		&entity.SourceInfo,
		&entity.FieldConfidence,
		&entity.CreatedAt,
		&entity.UpdatedAt,
	)
	if err != nil {
		if errors.Is(err, pgx.ErrNoRows) {
			return nil, entities.ErrNotFound
		}
		return nil, fmt.Errorf("get entity %s: %w", slug, err)
	}
	return &entity, nil
}
