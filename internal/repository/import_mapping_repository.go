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
	"github.com/jackc/pgx/v5/pgxpool"
)

type importMappingRepository struct {
	pool *pgxpool.Pool
}

// NewImportMappingRepository wires a repository backed by pgxpool.
func NewImportMappingRepository(pool *pgxpool.Pool) ImportMappingRepository {
	return &importMappingRepository{pool: pool}
}

func (r *importMappingRepository) Create(ctx context.Context, mapping domain.ImportMapping) (domain.ImportMapping, error) {
	columnMappings, defaultValues, err := marshalMappingPayloads(mapping)
	if err != nil {
		return domain.ImportMapping{}, err
	}

	_, err = r.pool.Exec(
		ctx,
		`INSERT INTO import_mappings (id, team_id, name, source_type, column_mappings, default_values, created_at, updated_at)
		 VALUES ($1, $2, $3, $4, $5, $6, $7, $8)`,
		mapping.ID,
		mapping.TeamID,
		mapping.Name,
		mapping.SourceType,
		columnMappings,
		defaultValues,
		mapping.CreatedAt,
		mapping.UpdatedAt,
	)
	if err != nil {
		return domain.ImportMapping{}, fmt.Errorf("failed to create import mapping: %w", err)
	}

	return mapping, nil
}

func (r *importMappingRepository) GetByID(ctx context.Context, id uuid.UUID) (domain.ImportMapping, error) {
	row := r.pool.QueryRow(
		ctx,
		`SELECT id, team_id, name, source_type, column_mappings, default_values, created_at, updated_at
		 FROM import_mappings WHERE id = $1`,
		id,
	)

	mapping, err := scanMapping(row)
	if err != nil {
		if errors.Is(err, pgx.ErrNoRows) {
			return domain.ImportMapping{}, fmt.Errorf("import mapping not found: %s", id)
		}
		return domain.ImportMapping{}, fmt.Errorf("failed to get import mapping: %w", err)
	}

	return mapping, nil
}

func (r *importMappingRepository) ListByTeam(ctx context.Context, teamID uuid.UUID) ([]domain.ImportMapping, error) {
	rows, err := r.pool.Query(
		ctx,
		`SELECT id, team_id, name, source_type, column_mappings, default_values, created_at, updated_at
		 FROM import_mappings
		 WHERE team_id = $1
		 ORDER BY name`,
		teamID,
	)
	if err != nil {
		return nil, fmt.Errorf("failed to list import mappings: %w", err)
	}
	defer rows.Close()

	mappings := []domain.ImportMapping{}
	for rows.Next() {
		mapping, scanErr := scanMapping(rows)
		if scanErr != nil {
			return nil, fmt.Errorf("failed to scan import mapping: %w", scanErr)
		}
		mappings = append(mappings, mapping)
	}

	if rowsErr := rows.Err(); rowsErr != nil {
		return nil, fmt.Errorf("failed to iterate import mappings: %w", rowsErr)
	}

	return mappings, nil
}

func (r *importMappingRepository) Update(ctx context.Context, mapping domain.ImportMapping) (domain.ImportMapping, error) {
	columnMappings, defaultValues, err := marshalMappingPayloads(mapping)
	if err != nil {
		return domain.ImportMapping{}, err
	}

	mapping.UpdatedAt = time.Now()

	tag, err := r.pool.Exec(
		ctx,
		`UPDATE import_mappings
		 SET name = $2, source_type = $3, column_mappings = $4, default_values = $5, updated_at = $6
		 WHERE id = $1`,
		mapping.ID,
		mapping.Name,
		mapping.SourceType,
		columnMappings,
		defaultValues,
		mapping.UpdatedAt,
	)
	if err != nil {
		return domain.ImportMapping{}, fmt.Errorf("failed to update import mapping: %w", err)
	}
	if tag.RowsAffected() == 0 {
		return domain.ImportMapping{}, fmt.Errorf("import mapping not found: %s", mapping.ID)
	}

	return mapping, nil
}

func (r *importMappingRepository) Delete(ctx context.Context, id uuid.UUID) error {
	tag, err := r.pool.Exec(ctx, `DELETE FROM import_mappings WHERE id = $1`, id)
	if err != nil {
		return fmt.Errorf("failed to delete import mapping: %w", err)
	}
	if tag.RowsAffected() == 0 {
		return fmt.Errorf("import mapping not found: %s", id)
	}
	return nil
}

func marshalMappingPayloads(mapping domain.ImportMapping) (columnMappings, defaultValues []byte, err error) {
	columnMappings, err = json.Marshal(mapping.ColumnMappings)
	if err != nil {
		return nil, nil, fmt.Errorf("failed to marshal column mappings: %w", err)
	}
	if mapping.DefaultValues != nil {
		defaultValues, err = json.Marshal(mapping.DefaultValues)
		if err != nil {
			return nil, nil, fmt.Errorf("failed to marshal default values: %w", err)
		}
	}
	return columnMappings, defaultValues, nil
}

func scanMapping(row pgx.Row) (domain.ImportMapping, error) {
	var (
		mapping        domain.ImportMapping
		columnMappings []byte
		defaultValues  []byte
	)

	err := row.Scan(
		&mapping.ID,
		&mapping.TeamID,
		&mapping.Name,
		&mapping.SourceType,
		&columnMappings,
		&defaultValues,
		&mapping.CreatedAt,
		&mapping.UpdatedAt,
	)
	if err != nil {
		return domain.ImportMapping{}, err
	}

	if len(columnMappings) > 0 {
		if err := json.Unmarshal(columnMappings, &mapping.ColumnMappings); err != nil {
			return domain.ImportMapping{}, fmt.Errorf("failed to unmarshal column mappings: %w", err)
		}
	}
	if len(defaultValues) > 0 {
		if err := json.Unmarshal(defaultValues, &mapping.DefaultValues); err != nil {
			return domain.ImportMapping{}, fmt.Errorf("failed to unmarshal default values: %w", err)
		}
	}

	return mapping, nil
}
