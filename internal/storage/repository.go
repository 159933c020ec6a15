// Package storage groups data access by domain.
package storage

import (
	"context"

	"github.com/LarjGit/edinburgh-finds-sub001/internal/domain/captures"
	"github.com/LarjGit/edinburgh-finds-sub001/internal/domain/entities"
	"github.com/LarjGit/edinburgh-finds-sub001/internal/domain/extractions"
	"github.com/LarjGit/edinburgh-finds-sub001/internal/domain/runs"
)

// Repository groups data access by domain.
type Repository interface {
	Captures() captures.Repository
	Extractions() extractions.Repository
	Failures() extractions.FailureRepository
	Entities() entities.Repository
	Runs() runs.Repository

	WithTx(ctx context.Context, fn func(context.Context, Repository) error) error
}
