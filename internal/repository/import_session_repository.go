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

type importSessionRepository struct {
	pool *pgxpool.Pool
}

// NewImportSessionRepository wires a repository backed by pgxpool.
func NewImportSessionRepository(pool *pgxpool.Pool) ImportSessionRepository {
	return &importSessionRepository{pool: pool}
}

const sessionColumns = `id, team_id, user_id, mapping_id, source_type, original_filename, file_path,
	database_source, status, total_rows, processed_rows, success_count, error_count, duplicate_count,
	detected_columns, suggested_mappings, column_mappings, errors_summary,
	started_at, completed_at, retention_until, created_at, updated_at`

func (r *importSessionRepository) Create(ctx context.Context, session domain.ImportSession) (domain.ImportSession, error) {
	databaseSource, detectedColumns, suggestedMappings, columnMappings, errorsSummary, err := marshalSessionPayloads(session)
	if err != nil {
		return domain.ImportSession{}, err
	}

	_, err = r.pool.Exec(
		ctx,
		`INSERT INTO import_sessions (id, team_id, user_id, mapping_id, source_type, original_filename, file_path,
			database_source, status, total_rows, processed_rows, success_count, error_count, duplicate_count,
			detected_columns, suggested_mappings, column_mappings, errors_summary,
			started_at, completed_at, retention_until, created_at, updated_at)
		 VALUES ($1, $2, $3, $4, $5, $6, $7, $8, $9, $10, $11, $12, $13, $14, $15, $16, $17, $18, $19, $20, $21, $22, $23)`,
		session.ID,
		session.TeamID,
		session.UserID,
		session.MappingID,
		session.SourceType,
		session.OriginalFilename,
		session.FilePath,
		databaseSource,
		session.Status,
		session.TotalRows,
		session.ProcessedRows,
		session.SuccessCount,
		session.ErrorCount,
		session.DuplicateCount,
		detectedColumns,
		suggestedMappings,
		columnMappings,
		errorsSummary,
		session.StartedAt,
		session.CompletedAt,
		session.RetentionUntil,
		session.CreatedAt,
		session.UpdatedAt,
	)
	if err != nil {
		return domain.ImportSession{}, fmt.Errorf("failed to create import session: %w", err)
	}

	return session, nil
}

func (r *importSessionRepository) GetByID(ctx context.Context, id uuid.UUID) (domain.ImportSession, error) {
	row := r.pool.QueryRow(
		ctx,
		`SELECT `+sessionColumns+` FROM import_sessions WHERE id = $1`,
		id,
	)

	session, err := scanSession(row)
	if err != nil {
		if errors.Is(err, pgx.ErrNoRows) {
			return domain.ImportSession{}, fmt.Errorf("import session not found: %s", id)
		}
		return domain.ImportSession{}, fmt.Errorf("failed to get import session: %w", err)
	}

	return session, nil
}

func (r *importSessionRepository) Update(ctx context.Context, session domain.ImportSession) (domain.ImportSession, error) {
	databaseSource, detectedColumns, suggestedMappings, columnMappings, errorsSummary, err := marshalSessionPayloads(session)
	if err != nil {
		return domain.ImportSession{}, err
	}

	session.UpdatedAt = time.Now()

	tag, err := r.pool.Exec(
		ctx,
		`UPDATE import_sessions
		 SET mapping_id = $2, status = $3, total_rows = $4, processed_rows = $5,
			 success_count = $6, error_count = $7, duplicate_count = $8,
			 database_source = $9, detected_columns = $10, suggested_mappings = $11,
			 column_mappings = $12, errors_summary = $13,
			 started_at = $14, completed_at = $15, retention_until = $16, updated_at = $17
		 WHERE id = $1`,
		session.ID,
		session.MappingID,
		session.Status,
		session.TotalRows,
		session.ProcessedRows,
		session.SuccessCount,
		session.ErrorCount,
		session.DuplicateCount,
		databaseSource,
		detectedColumns,
		suggestedMappings,
		columnMappings,
		errorsSummary,
		session.StartedAt,
		session.CompletedAt,
		session.RetentionUntil,
		session.UpdatedAt,
	)
	if err != nil {
		return domain.ImportSession{}, fmt.Errorf("failed to update import session: %w", err)
	}
	if tag.RowsAffected() == 0 {
		return domain.ImportSession{}, fmt.Errorf("import session not found: %s", session.ID)
	}

	return session, nil
}

func (r *importSessionRepository) ListByTeam(ctx context.Context, teamID uuid.UUID, limit int, offset int) ([]domain.ImportSession, error) {
	if limit <= 0 {
		limit = 50
	}
	if offset < 0 {
		offset = 0
	}

	rows, err := r.pool.Query(
		ctx,
		`SELECT `+sessionColumns+`
		 FROM import_sessions
		 WHERE team_id = $1
		 ORDER BY created_at DESC
		 LIMIT $2 OFFSET $3`,
		teamID,
		limit,
		offset,
	)
	if err != nil {
		return nil, fmt.Errorf("failed to list import sessions: %w", err)
	}
	defer rows.Close()

	sessions := []domain.ImportSession{}
	for rows.Next() {
		session, scanErr := scanSession(rows)
		if scanErr != nil {
			return nil, fmt.Errorf("failed to scan import session: %w", scanErr)
		}
		sessions = append(sessions, session)
	}

	if rowsErr := rows.Err(); rowsErr != nil {
		return nil, fmt.Errorf("failed to iterate import sessions: %w", rowsErr)
	}

	return sessions, nil
}

func (r *importSessionRepository) Delete(ctx context.Context, id uuid.UUID) error {
	tag, err := r.pool.Exec(ctx, `DELETE FROM import_sessions WHERE id = $1`, id)
	if err != nil {
		return fmt.Errorf("failed to delete import session: %w", err)
	}
	if tag.RowsAffected() == 0 {
		return fmt.Errorf("import session not found: %s", id)
	}
	return nil
}

// DeleteExpired removes sessions past their retention deadline and returns
// them so the caller can clean up uploaded files. Rows cascade.
func (r *importSessionRepository) DeleteExpired(ctx context.Context, now time.Time) ([]domain.ImportSession, error) {
	rows, err := r.pool.Query(
		ctx,
		`DELETE FROM import_sessions
		 WHERE retention_until IS NOT NULL AND retention_until < $1
		 RETURNING `+sessionColumns,
		now,
	)
	if err != nil {
		return nil, fmt.Errorf("failed to delete expired import sessions: %w", err)
	}
	defer rows.Close()

	deleted := []domain.ImportSession{}
	for rows.Next() {
		session, scanErr := scanSession(rows)
		if scanErr != nil {
			return nil, fmt.Errorf("failed to scan deleted import session: %w", scanErr)
		}
		deleted = append(deleted, session)
	}

	if rowsErr := rows.Err(); rowsErr != nil {
		return nil, fmt.Errorf("failed to iterate deleted import sessions: %w", rowsErr)
	}

	return deleted, nil
}

func marshalSessionPayloads(session domain.ImportSession) (databaseSource, detectedColumns, suggestedMappings, columnMappings, errorsSummary []byte, err error) {
	if session.DatabaseSource != nil {
		databaseSource, err = json.Marshal(session.DatabaseSource)
		if err != nil {
			return nil, nil, nil, nil, nil, fmt.Errorf("failed to marshal database source: %w", err)
		}
	}
	if session.DetectedColumns != nil {
		detectedColumns, err = json.Marshal(session.DetectedColumns)
		if err != nil {
			return nil, nil, nil, nil, nil, fmt.Errorf("failed to marshal detected columns: %w", err)
		}
	}
	if session.SuggestedMappings != nil {
		suggestedMappings, err = json.Marshal(session.SuggestedMappings)
		if err != nil {
			return nil, nil, nil, nil, nil, fmt.Errorf("failed to marshal suggested mappings: %w", err)
		}
	}
	if session.ColumnMappings != nil {
		columnMappings, err = json.Marshal(session.ColumnMappings)
		if err != nil {
			return nil, nil, nil, nil, nil, fmt.Errorf("failed to marshal column mappings: %w", err)
		}
	}
	if session.ErrorsSummary != nil {
		errorsSummary, err = json.Marshal(session.ErrorsSummary)
		if err != nil {
			return nil, nil, nil, nil, nil, fmt.Errorf("failed to marshal errors summary: %w", err)
		}
	}
	return databaseSource, detectedColumns, suggestedMappings, columnMappings, errorsSummary, nil
}

func scanSession(row pgx.Row) (domain.ImportSession, error) {
	var (
		session           domain.ImportSession
		mappingID         pgtype.UUID
		originalFilename  pgtype.Text
		filePath          pgtype.Text
		databaseSource    []byte
		detectedColumns   []byte
		suggestedMappings []byte
		columnMappings    []byte
		errorsSummary     []byte
		startedAt         pgtype.Timestamptz
		completedAt       pgtype.Timestamptz
		retentionUntil    pgtype.Timestamptz
	)

	err := row.Scan(
		&session.ID,
		&session.TeamID,
		&session.UserID,
		&mappingID,
		&session.SourceType,
		&originalFilename,
		&filePath,
		&databaseSource,
		&session.Status,
		&session.TotalRows,
		&session.ProcessedRows,
		&session.SuccessCount,
		&session.ErrorCount,
		&session.DuplicateCount,
		&detectedColumns,
		&suggestedMappings,
		&columnMappings,
		&errorsSummary,
		&startedAt,
		&completedAt,
		&retentionUntil,
		&session.CreatedAt,
		&session.UpdatedAt,
	)
	if err != nil {
		return domain.ImportSession{}, err
	}

	if mappingID.Valid {
		id := uuid.UUID(mappingID.Bytes)
		session.MappingID = &id
	}
	if originalFilename.Valid {
		session.OriginalFilename = originalFilename.String
	}
	if filePath.Valid {
		session.FilePath = filePath.String
	}
	if len(databaseSource) > 0 {
		source := domain.DatabaseSource{}
		if err := json.Unmarshal(databaseSource, &source); err != nil {
			return domain.ImportSession{}, fmt.Errorf("failed to unmarshal database source: %w", err)
		}
		session.DatabaseSource = &source
	}
	if len(detectedColumns) > 0 {
		if err := json.Unmarshal(detectedColumns, &session.DetectedColumns); err != nil {
			return domain.ImportSession{}, fmt.Errorf("failed to unmarshal detected columns: %w", err)
		}
	}
	if len(suggestedMappings) > 0 {
		if err := json.Unmarshal(suggestedMappings, &session.SuggestedMappings); err != nil {
			return domain.ImportSession{}, fmt.Errorf("failed to unmarshal suggested mappings: %w", err)
		}
	}
	if len(columnMappings) > 0 {
		if err := json.Unmarshal(columnMappings, &session.ColumnMappings); err != nil {
			return domain.ImportSession{}, fmt.Errorf("failed to unmarshal column mappings: %w", err)
		}
	}
	if len(errorsSummary) > 0 {
		if err := json.Unmarshal(errorsSummary, &session.ErrorsSummary); err != nil {
			return domain.ImportSession{}, fmt.Errorf("failed to unmarshal errors summary: %w", err)
		}
	}
	if startedAt.Valid {
		t := startedAt.Time
		session.StartedAt = &t
	}
	if completedAt.Valid {
		t := completedAt.Time
		session.CompletedAt = &t
	}
	if retentionUntil.Valid {
		t := retentionUntil.Time
		session.RetentionUntil = &t
	}

	return session, nil
}
