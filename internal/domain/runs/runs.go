// Package runs anchors one end-to-end pipeline invocation.
package runs

import (
	"context"
	"errors"
	"time"
)

var ErrNotFound = errors.New("orchestration run not found")

// Run statuses.
const (
	StatusRunning   = "running"
	StatusCompleted = "completed"
	StatusFailed    = "failed"
)

// OrchestrationRun groups the captures and extractions originating from one
// invocation so finalization can be scoped to them.
type OrchestrationRun struct {
	ID            string
	Query         string
	IngestionMode string
	Status        string
	CreatedAt     time.Time
}

type Repository interface {
	Create(ctx context.Context, run OrchestrationRun) error
	GetByID(ctx context.Context, id string) (*OrchestrationRun, error)
	UpdateStatus(ctx context.Context, id, status string) error
}
