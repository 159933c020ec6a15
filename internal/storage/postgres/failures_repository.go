package postgres

import (
	"context"
	"errors"
	"fmt"
	"time"

	"github.com/jackc/pgx/v5"
	"github.com/jackc/pgx/v5/pgxpool"
	"github.com/oklog/ulid/v2"

	"github.com/LarjGit/edinburgh-finds-sub001/internal/domain/extractions"
)

var _ extractions.FailureRepository = (*FailureRepository)(nil)

type FailureRepository struct {
	pool *pgxpool.Pool
	tx   pgx.Tx
}

func (r *FailureRepository) Upsert(ctx context.Context, params extractions.FailureUpsertParams) (*extractions.Failure, error) {
	row := pick(r.pool, r.tx).QueryRow(ctx, `
INSERT INTO failed_extractions
       (id, raw_capture_id, source, error_message, error_details, retry_count, last_attempt_at)
VALUES ($1, $2, $3, $4, $5, 0, $6)
ON CONFLICT (raw_capture_id, source) DO UPDATE SET
       error_message   = EXCLUDED.error_message,
       error_details   = EXCLUDED.error_details,
       retry_count     = failed_extractions.retry_count + $7,
       last_attempt_at = EXCLUDED.last_attempt_at
RETURNING id, raw_capture_id, source, error_message, error_details, retry_count, last_attempt_at
`,
		ulid.Make().String(),
		params.RawCaptureID,
		params.Source,
		params.ErrorMessage,
		nonNilMap(params.ErrorDetails),
		time.Now().UTC(),
		boolToIncrement(params.IncrementRetry),
	)

	var failure extractions.Failure
	err := row.Scan(
		&failure.ID,
		&failure.RawCaptureID,
		&failure.Source,
		&failure.ErrorMessage,
		&failure.ErrorDetails,
		&failure.RetryCount,
		&failure.LastAttemptAt,
	)
	if err != nil {
		return nil, fmt.Errorf("upsert failure %s/%s: %w", params.RawCaptureID, params.Source, err)
	}
	return &failure, nil
}

func (r *FailureRepository) GetByCaptureAndSource(ctx context.Context, rawCaptureID, source string) (*extractions.Failure, error) {
	row := pick(r.pool, r.tx).QueryRow(ctx, `
SELECT id, raw_capture_id, source, error_message, error_details, retry_count, last_attempt_at
  FROM failed_extractions
 WHERE raw_capture_id = $1 AND source = $2
`, rawCaptureID, source)

	var failure extractions.Failure
	err := row.Scan(
		&failure.ID,
		&failure.RawCaptureID,
		&failure.Source,
		&failure.ErrorMessage,
		&failure.ErrorDetails,
		&failure.RetryCount,
		&failure.LastAttemptAt,
	)
	if err != nil {
		if errors.Is(err, pgx.ErrNoRows) {
			return nil, extractions.ErrFailureNotFound
		}
		return nil, fmt.Errorf("get failure %s/%s: %w", rawCaptureID, source, err)
	}
	return &failure, nil
}

func (r *FailureRepository) ListRetryable(ctx context.Context, maxRetries, limit int) ([]extractions.Failure, error) {
	rows, err := pick(r.pool, r.tx).Query(ctx, `
SELECT id, raw_capture_id, source, error_message, error_details, retry_count, last_attempt_at
  FROM failed_extractions
 WHERE retry_count < $1
 ORDER BY last_attempt_at ASC, id ASC
 LIMIT NULLIF($2, 0)
`, maxRetries, limit)
	if err != nil {
		return nil, fmt.Errorf("list retryable failures: %w", err)
	}
	defer rows.Close()

	var out []extractions.Failure
	for rows.Next() {
		var failure extractions.Failure
		err := rows.Scan(
			&failure.ID,
			&failure.RawCaptureID,
			&failure.Source,
			&failure.ErrorMessage,
			&failure.ErrorDetails,
			&failure.RetryCount,
			&failure.LastAttemptAt,
		)
		if err != nil {
			return nil, fmt.Errorf("scan failure: %w", err)
		}
		out = append(out, failure)
	}
	if err := rows.Err(); err != nil {
		return nil, fmt.Errorf("iterate failures: %w", err)
	}
	return out, nil
}

func (r *FailureRepository) Delete(ctx context.Context, rawCaptureID, source string) error {
	tag, err := pick(r.pool, r.tx).Exec(ctx, `
DELETE FROM failed_extractions WHERE raw_capture_id = $1 AND source = $2
`, rawCaptureID, source)
	if err != nil {
		return fmt.Errorf("delete failure %s/%s: %w", rawCaptureID, source, err)
	}
	if tag.RowsAffected() == 0 {
		return extractions.ErrFailureNotFound
	}
	return nil
}

func boolToIncrement(increment bool) int {
	if increment {
		return 1
	}
	return 0
}
