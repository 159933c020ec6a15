// Package entities defines the canonical entity projection.
package entities

import (
	"context"
	"errors"
	"time"
)

var ErrNotFound = errors.New("canonical entity not found")

// CanonicalEntity is the deduplicated, multi-sourced projection of one
// real-world entity, keyed by slug. SourceInfo maps each scalar field to the
// connector that supplied the winning value; FieldConfidence maps each scalar
// field to an agreement ratio in [0, 1].
type CanonicalEntity struct {
	ID                  string
	Slug                string
	EntityClass         string
	EntityName          string
	Summary             string
	CanonicalActivities []string
	CanonicalRoles      []string
	CanonicalPlaceTypes []string
	CanonicalAccess     []string
	Latitude            *float64
	Longitude           *float64
	StreetAddress       string
	City                string
	Postcode            string
	Country             string
	Phone               string
	Email               string
	WebsiteURL          string
	Modules             map[string]any
	DiscoveredAttrs     map[string]any
	ExternalIDs         map[string]string
	SourceInfo          map[string]string
	FieldConfidence     map[string]float64
	CreatedAt           time.Time
	UpdatedAt           time.Time
}

type Repository interface {
	// Upsert inserts or updates by slug and reports whether a new row was
	// created.
	Upsert(ctx context.Context, entity CanonicalEntity) (created bool, err error)
	GetBySlug(ctx context.Context, slug string) (*CanonicalEntity, error)
}
