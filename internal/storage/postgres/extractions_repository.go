package postgres

import (
	"context"
	"errors"
	"fmt"
	"time"

	"github.com/jackc/pgx/v5"
	"github.com/jackc/pgx/v5/pgxpool"

	"github.com/LarjGit/edinburgh-finds-sub001/internal/domain/extractions"
)

var _ extractions.Repository = (*ExtractionRepository)(nil)

type ExtractionRepository struct {
	pool *pgxpool.Pool
	tx   pgx.Tx
}

const extractionColumns = `
id, raw_capture_id, source, entity_class, attributes, discovered_attributes,
external_ids, extraction_hash, COALESCE(model_used, ''), created_at`

func (r *ExtractionRepository) Create(ctx context.Context, record extractions.ExtractedRecord) error {
	_, err := pick(r.pool, r.tx).Exec(ctx, `
INSERT INTO extracted_records
       (id, raw_capture_id, source, entity_class, attributes, discovered_attributes,
        external_ids, extraction_hash, model_used, created_at)
VALUES ($1, $2, $3, $4, $5, $6, $7, $8, NULLIF($9, ''), $10)
`,
		record.ID,
		record.RawCaptureID,
		record.Source,
		record.EntityClass,
		nonNilMap(record.Attributes),
		nonNilMap(record.DiscoveredAttributes),
		nonNilMap(record.ExternalIDs),
		record.ExtractionHash,
		record.ModelUsed,
		record.CreatedAt,
	)
	if err != nil {
		return fmt.Errorf("create extraction: %w", err)
	}
	return nil
}

func (r *ExtractionRepository) Replace(ctx context.Context, record extractions.ExtractedRecord) error {
	_, err := pick(r.pool, r.tx).Exec(ctx, `
INSERT INTO extracted_records
       (id, raw_capture_id, source, entity_class, attributes, discovered_attributes,
        external_ids, extraction_hash, model_used, created_at)
VALUES ($1, $2, $3, $4, $5, $6, $7, $8, NULLIF($9, ''), $10)
ON CONFLICT (raw_capture_id, source) DO UPDATE SET
       entity_class          = EXCLUDED.entity_class,
       attributes            = EXCLUDED.attributes,
       discovered_attributes = EXCLUDED.discovered_attributes,
       external_ids          = EXCLUDED.external_ids,
       extraction_hash       = EXCLUDED.extraction_hash,
       model_used            = EXCLUDED.model_used,
       created_at            = EXCLUDED.created_at
`,
		record.ID,
		record.RawCaptureID,
		record.Source,
		record.EntityClass,
		nonNilMap(record.Attributes),
		nonNilMap(record.DiscoveredAttributes),
		nonNilMap(record.ExternalIDs),
		record.ExtractionHash,
		record.ModelUsed,
		record.CreatedAt,
	)
	if err != nil {
		return fmt.Errorf("replace extraction: %w", err)
	}
	return nil
}

func (r *ExtractionRepository) GetByCaptureAndSource(ctx context.Context, rawCaptureID, source string) (*extractions.ExtractedRecord, error) {
	row := pick(r.pool, r.tx).QueryRow(ctx, `
SELECT `+extractionColumns+`
  FROM extracted_records
 WHERE raw_capture_id = $1 AND source = $2
`, rawCaptureID, source)
	record, err := scanExtraction(row)
	if err != nil {
		if errors.Is(err, pgx.ErrNoRows) {
			return nil, extractions.ErrNotFound
		}
		return nil, fmt.Errorf("get extraction %s/%s: %w", rawCaptureID, source, err)
	}
	return record, nil
}

func (r *ExtractionRepository) ListCreatedSince(ctx context.Context, since time.Time) ([]extractions.ExtractedRecord, error) {
	rows, err := pick(r.pool, r.tx).Query(ctx, `
SELECT `+extractionColumns+`
  FROM extracted_records
 WHERE created_at >= $1
 ORDER BY created_at ASC, id ASC
`, since)
	if err != nil {
		return nil, fmt.Errorf("list extractions since %s: %w", since, err)
	}
	defer rows.Close()

	var out []extractions.ExtractedRecord
	for rows.Next() {
		record, err := scanExtraction(rows)
		if err != nil {
			return nil, fmt.Errorf("scan extraction: %w", err)
		}
		out = append(out, *record)
	}
	if err := rows.Err(); err != nil {
		return nil, fmt.Errorf("iterate extractions: %w", err)
	}
	return out, nil
}

func scanExtraction(row pgx.Row) (*extractions.ExtractedRecord, error) {
	var record extractions.ExtractedRecord
	err := row.Scan(
		&record.ID,
		&record.RawCaptureID,
		&record.Source,
		&record.EntityClass,
		&record.Attributes,
		&record.DiscoveredAttributes,
		&record.ExternalIDs,
		&record.ExtractionHash,
		&record.ModelUsed,
		&record.CreatedAt,
	)
	if err != nil {
		return nil, err
	}
	return &record, nil
}
