package domain

import (
	"time"

	"github.com/google/uuid"
)

// ImportMapping is a reusable saved column mapping.
type ImportMapping struct {
	ID             uuid.UUID         `json:"id"`
	TeamID         uuid.UUID         `json:"team_id"`
	Name           string            `json:"name"`
	SourceType     SourceType        `json:"source_type"`
	ColumnMappings []ColumnMapping   `json:"column_mappings"`
	DefaultValues  map[string]string `json:"default_values,omitempty"`
	CreatedAt      time.Time         `json:"created_at"`
	UpdatedAt      time.Time         `json:"updated_at"`
}

// NewImportMapping creates a saved mapping for a team.
func NewImportMapping(teamID uuid.UUID, name string, sourceType SourceType, mappings []ColumnMapping) ImportMapping {
	now := time.Now()
	return ImportMapping{
		ID:             uuid.New(),
		TeamID:         teamID,
		Name:           name,
		SourceType:     sourceType,
		ColumnMappings: mappings,
		CreatedAt:      now,
		UpdatedAt:      now,
	}
}
