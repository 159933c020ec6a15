package postgres

import (
	"context"
	"errors"
	"fmt"

	"github.com/jackc/pgx/v5"
	"github.com/jackc/pgx/v5/pgxpool"

	"github.com/LarjGit/edinburgh-finds-sub001/internal/domain/captures"
)

var _ captures.Repository = (*CaptureRepository)(nil)

type CaptureRepository struct {
	pool *pgxpool.Pool
	tx   pgx.Tx
}

func (r *CaptureRepository) Create(ctx context.Context, capture captures.RawCapture) error {
	_, err := pick(r.pool, r.tx).Exec(ctx, `
INSERT INTO raw_captures (id, source, source_url, file_path, content_hash, status, ingested_at, metadata)
VALUES ($1, $2, $3, $4, NULLIF($5, ''), $6, $7, $8)
`,
		capture.ID,
		capture.Source,
		capture.SourceURL,
		capture.FilePath,
		capture.ContentHash,
		capture.Status,
		capture.IngestedAt,
		nonNilMap(capture.Metadata),
	)
	if err != nil {
		return fmt.Errorf("create raw capture: %w", err)
	}
	return nil
}

func (r *CaptureRepository) GetByID(ctx context.Context, id string) (*captures.RawCapture, error) {
	row := pick(r.pool, r.tx).QueryRow(ctx, `
SELECT id, source, source_url, file_path, COALESCE(content_hash, ''), status, ingested_at, metadata
  FROM raw_captures
 WHERE id = $1
`, id)
	capture, err := scanCapture(row)
	if err != nil {
		if errors.Is(err, pgx.ErrNoRows) {
			return nil, captures.ErrNotFound
		}
		return nil, fmt.Errorf("get raw capture %s: %w", id, err)
	}
	return capture, nil
}

func (r *CaptureRepository) ExistsByHash(ctx context.Context, contentHash string) (bool, error) {
	var exists bool
	err := pick(r.pool, r.tx).QueryRow(ctx, `
SELECT EXISTS (SELECT 1 FROM raw_captures WHERE content_hash = $1)
`, contentHash).Scan(&exists)
	if err != nil {
		return false, fmt.Errorf("check capture hash: %w", err)
	}
	return exists, nil
}

func (r *CaptureRepository) ListBySource(ctx context.Context, source string, limit int) ([]captures.RawCapture, error) {
	rows, err := pick(r.pool, r.tx).Query(ctx, `
SELECT id, source, source_url, file_path, COALESCE(content_hash, ''), status, ingested_at, metadata
  FROM raw_captures
 WHERE source = $1
 ORDER BY ingested_at ASC, id ASC
 LIMIT NULLIF($2, 0)
`, source, limit)
	if err != nil {
		return nil, fmt.Errorf("list captures for %s: %w", source, err)
	}
	defer rows.Close()
	return collectCaptures(rows)
}

func (r *CaptureRepository) ListAll(ctx context.Context, limit int) ([]captures.RawCapture, error) {
	rows, err := pick(r.pool, r.tx).Query(ctx, `
SELECT id, source, source_url, file_path, COALESCE(content_hash, ''), status, ingested_at, metadata
  FROM raw_captures
 ORDER BY source ASC, ingested_at ASC, id ASC
 LIMIT NULLIF($1, 0)
`, limit)
	if err != nil {
		return nil, fmt.Errorf("list captures: %w", err)
	}
	defer rows.Close()
	return collectCaptures(rows)
}

func scanCapture(row pgx.Row) (*captures.RawCapture, error) {
	var capture captures.RawCapture
	err := row.Scan(
		&capture.ID,
		&capture.Source,
		&capture.SourceURL,
		&capture.FilePath,
		&capture.ContentHash,
		&capture.Status,
		&capture.IngestedAt,
		&capture.Metadata,
	)
	if err != nil {
		return nil, err
	}
	return &capture, nil
}

func collectCaptures(rows pgx.Rows) ([]captures.RawCapture, error) {
	var out []captures.RawCapture
	for rows.Next() {
		capture, err := scanCapture(rows)
		if err != nil {
			return nil, fmt.Errorf("scan raw capture: %w", err)
		}
		out = append(out, *capture)
	}
	if err := rows.Err(); err != nil {
		return nil, fmt.Errorf("iterate raw captures: %w", err)
	}
	return out, nil
}
