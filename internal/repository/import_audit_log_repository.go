package repository

import (
	"context"
	"fmt"

	"github.com/rpattn/crmimport/internal/domain"

	"github.com/google/uuid"
	"github.com/jackc/pgx/v5/pgtype"
	"github.com/jackc/pgx/v5/pgxpool"
)

type importAuditLogRepository struct {
	pool *pgxpool.Pool
}

// NewImportAuditLogRepository wires a repository backed by pgxpool.
func NewImportAuditLogRepository(pool *pgxpool.Pool) ImportAuditLogRepository {
	return &importAuditLogRepository{pool: pool}
}

func (r *importAuditLogRepository) Record(ctx context.Context, entry domain.ImportAuditEntry) error {
	if r.pool == nil {
		return fmt.Errorf("import audit log repository not initialized")
	}

	if entry.ID == uuid.Nil {
		entry.ID = uuid.New()
	}

	_, err := r.pool.Exec(
		ctx,
		`INSERT INTO import_audit_logs (id, session_id, row_id, row_number, action, error_message)
		 VALUES ($1, $2, $3, $4, $5, $6)`,
		entry.ID,
		entry.SessionID,
		entry.RowID,
		entry.RowNumber,
		entry.Action,
		entry.ErrorMessage,
	)
	if err != nil {
		return fmt.Errorf("failed to record import audit entry: %w", err)
	}

	return nil
}

func (r *importAuditLogRepository) ListBySession(ctx context.Context, sessionID uuid.UUID, limit int, offset int) ([]domain.ImportAuditEntry, error) {
	if r.pool == nil {
		return nil, fmt.Errorf("import audit log repository not initialized")
	}

	if limit <= 0 {
		limit = 200
	}
	if offset < 0 {
		offset = 0
	}

	rows, err := r.pool.Query(
		ctx,
		`SELECT id, session_id, row_id, row_number, action, error_message, created_at
		 FROM import_audit_logs
		 WHERE session_id = $1
		 ORDER BY created_at DESC
		 LIMIT $2 OFFSET $3`,
		sessionID,
		limit,
		offset,
	)
	if err != nil {
		return nil, fmt.Errorf("failed to list import audit entries: %w", err)
	}
	defer rows.Close()

	entries := []domain.ImportAuditEntry{}
	for rows.Next() {
		var (
			entry     domain.ImportAuditEntry
			rowID     pgtype.UUID
			rowNumber pgtype.Int4
			createdAt pgtype.Timestamptz
		)
		if scanErr := rows.Scan(
			&entry.ID,
			&entry.SessionID,
			&rowID,
			&rowNumber,
			&entry.Action,
			&entry.ErrorMessage,
			&createdAt,
		); scanErr != nil {
			return nil, fmt.Errorf("failed to scan import audit entry: %w", scanErr)
		}

		if rowID.Valid {
			id := uuid.UUID(rowID.Bytes)
			entry.RowID = &id
		}
		if rowNumber.Valid {
			value := int(rowNumber.Int32)
			entry.RowNumber = &value
		}
		if createdAt.Valid {
			entry.CreatedAt = createdAt.Time
		}

		entries = append(entries, entry)
	}

	if rowsErr := rows.Err(); rowsErr != nil {
		return nil, fmt.Errorf("failed to iterate import audit entries: %w", rowsErr)
	}

	return entries, nil
}
