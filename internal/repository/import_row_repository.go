package repository

import (
	"context"
	"encoding/json"
	"errors"
	"fmt"
	"time"

	"github.com/rpattn/crmimport/internal/domain"

	"github.com/google/uuid"
	"github.com/jackc/pgx/v5"
	"github.com/jackc/pgx/v5/pgtype"
	"github.com/jackc/pgx/v5/pgxpool"
)

type importRowRepository struct {
	pool *pgxpool.Pool
}

// NewImportRowRepository wires a repository backed by pgxpool.
func NewImportRowRepository(pool *pgxpool.Pool) ImportRowRepository {
	return &importRowRepository{pool: pool}
}

const rowColumns = `id, session_id, row_number, raw_data, normalized_data, status,
	matched_client_id, validation_errors, duplicate_matches, batch_duplicates,
	duplicate_confidence, created_at, updated_at`

// CreateBatch inserts rows with pgx batching so large files do not pay a
// round trip per row.
func (r *importRowRepository) CreateBatch(ctx context.Context, rows []domain.ImportRow) error {
	if len(rows) == 0 {
		return nil
	}

	batch := &pgx.Batch{}
	for _, row := range rows {
		rawData, normalizedData, validationErrors, duplicateMatches, batchDuplicates, err := marshalRowPayloads(row)
		if err != nil {
			return err
		}
		batch.Queue(
			`INSERT INTO import_rows (id, session_id, row_number, raw_data, normalized_data, status,
				matched_client_id, validation_errors, duplicate_matches, batch_duplicates,
				duplicate_confidence, created_at, updated_at)
			 VALUES ($1, $2, $3, $4, $5, $6, $7, $8, $9, $10, $11, $12, $13)`,
			row.ID,
			row.SessionID,
			row.RowNumber,
			rawData,
			normalizedData,
			row.Status,
			row.MatchedClientID,
			validationErrors,
			duplicateMatches,
			batchDuplicates,
			row.DuplicateConfidence,
			row.CreatedAt,
			row.UpdatedAt,
		)
	}

	results := r.pool.SendBatch(ctx, batch)
	defer results.Close()

	for range rows {
		if _, err := results.Exec(); err != nil {
			return fmt.Errorf("failed to insert import rows: %w", err)
		}
	}

	return nil
}

func (r *importRowRepository) GetByID(ctx context.Context, id uuid.UUID) (domain.ImportRow, error) {
	row := r.pool.QueryRow(
		ctx,
		`SELECT `+rowColumns+` FROM import_rows WHERE id = $1`,
		id,
	)

	imported, err := scanImportRow(row)
	if err != nil {
		if errors.Is(err, pgx.ErrNoRows) {
			return domain.ImportRow{}, fmt.Errorf("import row not found: %s", id)
		}
		return domain.ImportRow{}, fmt.Errorf("failed to get import row: %w", err)
	}

	return imported, nil
}

func (r *importRowRepository) ListBySession(ctx context.Context, sessionID uuid.UUID, status *domain.RowStatus, limit int, offset int) ([]domain.ImportRow, error) {
	if limit <= 0 {
		limit = 50
	}
	if offset < 0 {
		offset = 0
	}

	query := `SELECT ` + rowColumns + `
		 FROM import_rows
		 WHERE session_id = $1`
	args := []any{sessionID}
	if status != nil {
		query += ` AND status = $2`
		args = append(args, *status)
	}
	query += fmt.Sprintf(` ORDER BY row_number LIMIT $%d OFFSET $%d`, len(args)+1, len(args)+2)
	args = append(args, limit, offset)

	rows, err := r.pool.Query(ctx, query, args...)
	if err != nil {
		return nil, fmt.Errorf("failed to list import rows: %w", err)
	}
	defer rows.Close()

	return collectImportRows(rows)
}

func (r *importRowRepository) Update(ctx context.Context, row domain.ImportRow) (domain.ImportRow, error) {
	_, normalizedData, validationErrors, duplicateMatches, batchDuplicates, err := marshalRowPayloads(row)
	if err != nil {
		return domain.ImportRow{}, err
	}

	row.UpdatedAt = time.Now()

	tag, err := r.pool.Exec(
		ctx,
		`UPDATE import_rows
		 SET normalized_data = $2, status = $3, matched_client_id = $4,
			 validation_errors = $5, duplicate_matches = $6, batch_duplicates = $7,
			 duplicate_confidence = $8, updated_at = $9
		 WHERE id = $1`,
		row.ID,
		normalizedData,
		row.Status,
		row.MatchedClientID,
		validationErrors,
		duplicateMatches,
		batchDuplicates,
		row.DuplicateConfidence,
		row.UpdatedAt,
	)
	if err != nil {
		return domain.ImportRow{}, fmt.Errorf("failed to update import row: %w", err)
	}
	if tag.RowsAffected() == 0 {
		return domain.ImportRow{}, fmt.Errorf("import row not found: %s", row.ID)
	}

	return row, nil
}

func (r *importRowRepository) CountByStatus(ctx context.Context, sessionID uuid.UUID) (map[domain.RowStatus]int, error) {
	rows, err := r.pool.Query(
		ctx,
		`SELECT status, COUNT(*) FROM import_rows WHERE session_id = $1 GROUP BY status`,
		sessionID,
	)
	if err != nil {
		return nil, fmt.Errorf("failed to count import rows: %w", err)
	}
	defer rows.Close()

	counts := map[domain.RowStatus]int{}
	for rows.Next() {
		var (
			status domain.RowStatus
			count  int
		)
		if scanErr := rows.Scan(&status, &count); scanErr != nil {
			return nil, fmt.Errorf("failed to scan import row count: %w", scanErr)
		}
		counts[status] = count
	}

	if rowsErr := rows.Err(); rowsErr != nil {
		return nil, fmt.Errorf("failed to iterate import row counts: %w", rowsErr)
	}

	return counts, nil
}

func (r *importRowRepository) DeleteBySession(ctx context.Context, sessionID uuid.UUID) error {
	_, err := r.pool.Exec(ctx, `DELETE FROM import_rows WHERE session_id = $1`, sessionID)
	if err != nil {
		return fmt.Errorf("failed to delete import rows: %w", err)
	}
	return nil
}

func marshalRowPayloads(row domain.ImportRow) (rawData, normalizedData, validationErrors, duplicateMatches, batchDuplicates []byte, err error) {
	rawData, err = json.Marshal(row.RawData)
	if err != nil {
		return nil, nil, nil, nil, nil, fmt.Errorf("failed to marshal raw data: %w", err)
	}
	if row.NormalizedData != nil {
		normalizedData, err = json.Marshal(row.NormalizedData)
		if err != nil {
			return nil, nil, nil, nil, nil, fmt.Errorf("failed to marshal normalized data: %w", err)
		}
	}
	if row.ValidationErrors != nil {
		validationErrors, err = json.Marshal(row.ValidationErrors)
		if err != nil {
			return nil, nil, nil, nil, nil, fmt.Errorf("failed to marshal validation errors: %w", err)
		}
	}
	if row.DuplicateMatches != nil {
		duplicateMatches, err = json.Marshal(row.DuplicateMatches)
		if err != nil {
			return nil, nil, nil, nil, nil, fmt.Errorf("failed to marshal duplicate matches: %w", err)
		}
	}
	if row.BatchDuplicates != nil {
		batchDuplicates, err = json.Marshal(row.BatchDuplicates)
		if err != nil {
			return nil, nil, nil, nil, nil, fmt.Errorf("failed to marshal batch duplicates: %w", err)
		}
	}
	return rawData, normalizedData, validationErrors, duplicateMatches, batchDuplicates, nil
}

func collectImportRows(rows pgx.Rows) ([]domain.ImportRow, error) {
	collected := []domain.ImportRow{}
	for rows.Next() {
		row, scanErr := scanImportRow(rows)
		if scanErr != nil {
			return nil, fmt.Errorf("failed to scan import row: %w", scanErr)
		}
		collected = append(collected, row)
	}

	if rowsErr := rows.Err(); rowsErr != nil {
		return nil, fmt.Errorf("failed to iterate import rows: %w", rowsErr)
	}

	return collected, nil
}

func scanImportRow(row pgx.Row) (domain.ImportRow, error) {
	var (
		imported         domain.ImportRow
		rawData          []byte
		normalizedData   []byte
		matchedClientID  pgtype.UUID
		validationErrors []byte
		duplicateMatches []byte
		batchDuplicates  []byte
	)

	err := row.Scan(
		&imported.ID,
		&imported.SessionID,
		&imported.RowNumber,
		&rawData,
		&normalizedData,
		&imported.Status,
		&matchedClientID,
		&validationErrors,
		&duplicateMatches,
		&batchDuplicates,
		&imported.DuplicateConfidence,
		&imported.CreatedAt,
		&imported.UpdatedAt,
	)
	if err != nil {
		return domain.ImportRow{}, err
	}

	if len(rawData) > 0 {
		if err := json.Unmarshal(rawData, &imported.RawData); err != nil {
			return domain.ImportRow{}, fmt.Errorf("failed to unmarshal raw data: %w", err)
		}
	}
	if len(normalizedData) > 0 {
		if err := json.Unmarshal(normalizedData, &imported.NormalizedData); err != nil {
			return domain.ImportRow{}, fmt.Errorf("failed to unmarshal normalized data: %w", err)
		}
	}
	if matchedClientID.Valid {
		id := uuid.UUID(matchedClientID.Bytes)
		imported.MatchedClientID = &id
	}
	if len(validationErrors) > 0 {
		if err := json.Unmarshal(validationErrors, &imported.ValidationErrors); err != nil {
			return domain.ImportRow{}, fmt.Errorf("failed to unmarshal validation errors: %w", err)
		}
	}
	if len(duplicateMatches) > 0 {
		if err := json.Unmarshal(duplicateMatches, &imported.DuplicateMatches); err != nil {
			return domain.ImportRow{}, fmt.Errorf("failed to unmarshal duplicate matches: %w", err)
		}
	}
	if len(batchDuplicates) > 0 {
		if err := json.Unmarshal(batchDuplicates, &imported.BatchDuplicates); err != nil {
			return domain.ImportRow{}, fmt.Errorf("failed to unmarshal batch duplicates: %w", err)
		}
	}

	return imported, nil
}
