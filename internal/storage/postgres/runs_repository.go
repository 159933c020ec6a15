package postgres

import (
	"context"
	"errors"
	"fmt"

	"github.com/jackc/pgx/v5"
	"github.com/jackc/pgx/v5/pgxpool"

	"github.com/LarjGit/edinburgh-finds-sub001/internal/domain/runs"
)

var _ runs.Repository = (*RunRepository)(nil)

type RunRepository struct {
	pool *pgxpool.Pool
	tx   pgx.Tx
}

func (r *RunRepository) Create(ctx context.Context, run runs.OrchestrationRun) error {
	_, err := pick(r.pool, r.tx).Exec(ctx, `
INSERT INTO orchestration_runs (id, query, ingestion_mode, status, created_at)
VALUES ($1, $2, $3, $4, $5)
`,
		run.ID,
		run.Query,
		run.IngestionMode,
		run.Status,
		run.CreatedAt,
	)
	if err != nil {
		return fmt.Errorf("create run: %w", err)
	}
	return nil
}

func (r *RunRepository) GetByID(ctx context.Context, id string) (*runs.OrchestrationRun, error) {
	row := pick(r.pool, r.tx).QueryRow(ctx, `
SELECT id, query, ingestion_mode, status, created_at
  FROM orchestration_runs
 WHERE id = $1
`, id)

	var run runs.OrchestrationRun
	err := row.Scan(&run.ID, &run.Query, &run.IngestionMode, &run.Status, &run.CreatedAt)
	if err != nil {
		if errors.Is(err, pgx.ErrNoRows) {
			return nil, runs.ErrNotFound
		}
		return nil, fmt.Errorf("get run %s: %w", id, err)
	}
	return &run, nil
}

func (r *RunRepository) UpdateStatus(ctx context.Context, id, status string) error {
	tag, err := pick(r.pool, r.tx).Exec(ctx, `
UPDATE orchestration_runs SET status = $2 WHERE id = $1
`, id, status)
	if err != nil {
		return fmt.Errorf("update run %s status: %w", id, err)
	}
	if tag.RowsAffected() == 0 {
		return runs.ErrNotFound
	}
	return nil
}
