package domain

import (
	"time"

	"github.com/google/uuid"
)

// SessionStatus enumerates the import session lifecycle.
type SessionStatus string

const (
	SessionStatusPending    SessionStatus = "pending"
	SessionStatusAnalyzing  SessionStatus = "analyzing"
	SessionStatusMapping    SessionStatus = "mapping"
	SessionStatusProcessing SessionStatus = "processing"
	SessionStatusCompleted  SessionStatus = "completed"
	SessionStatusFailed     SessionStatus = "failed"
)

// ValidSessionStatus reports whether the value belongs to the closed status set.
func ValidSessionStatus(status SessionStatus) bool {
	switch status {
	case SessionStatusPending, SessionStatusAnalyzing, SessionStatusMapping,
		SessionStatusProcessing, SessionStatusCompleted, SessionStatusFailed:
		return true
	}
	return false
}

// SourceType distinguishes file uploads from external database pulls.
type SourceType string

const (
	SourceTypeFile     SourceType = "file"
	SourceTypeDatabase SourceType = "database"
)

// ColumnMapping links one source column to a catalog field key.
type ColumnMapping struct {
	SourceColumn string `json:"source_column"`
	TargetField  string `json:"target_field"`
}

// SuggestedMapping carries an automatic mapping proposal for one column.
type SuggestedMapping struct {
	SourceColumn string               `json:"source_column"`
	TargetField  string               `json:"target_field"`
	Confidence   float64              `json:"confidence"`
	Method       string               `json:"method"`
	Alternatives []MappingAlternative `json:"alternatives,omitempty"`
}

// MappingAlternative is a lower ranked candidate for a column.
type MappingAlternative struct {
	TargetField string  `json:"target_field"`
	Confidence  float64 `json:"confidence"`
}

// DatabaseSource describes an external relational source for a session.
type DatabaseSource struct {
	Driver   string `json:"driver"`
	Host     string `json:"host,omitempty"`
	Port     int    `json:"port,omitempty"`
	Database string `json:"database,omitempty"`
	Username string `json:"username,omitempty"`
	Password string `json:"password,omitempty"`
	Path     string `json:"path,omitempty"`
	Table    string `json:"table,omitempty"`
	Query    string `json:"query,omitempty"`
}

// ImportSession tracks one import end to end.
type ImportSession struct {
	ID                uuid.UUID          `json:"id"`
	TeamID            uuid.UUID          `json:"team_id"`
	UserID            uuid.UUID          `json:"user_id"`
	MappingID         *uuid.UUID         `json:"mapping_id,omitempty"`
	SourceType        SourceType         `json:"source_type"`
	OriginalFilename  string             `json:"original_filename,omitempty"`
	FilePath          string             `json:"file_path,omitempty"`
	DatabaseSource    *DatabaseSource    `json:"database_source,omitempty"`
	Status            SessionStatus      `json:"status"`
	TotalRows         int                `json:"total_rows"`
	ProcessedRows     int                `json:"processed_rows"`
	SuccessCount      int                `json:"success_count"`
	ErrorCount        int                `json:"error_count"`
	DuplicateCount    int                `json:"duplicate_count"`
	DetectedColumns   []string           `json:"detected_columns,omitempty"`
	SuggestedMappings []SuggestedMapping `json:"suggested_mappings,omitempty"`
	ColumnMappings    []ColumnMapping    `json:"column_mappings,omitempty"`
	ErrorsSummary     []string           `json:"errors_summary,omitempty"`
	StartedAt         *time.Time         `json:"started_at,omitempty"`
	CompletedAt       *time.Time         `json:"completed_at,omitempty"`
	RetentionUntil    *time.Time         `json:"retention_until,omitempty"`
	CreatedAt         time.Time          `json:"created_at"`
	UpdatedAt         time.Time          `json:"updated_at"`
}

// NewFileImportSession creates a pending session backed by an uploaded file.
func NewFileImportSession(teamID, userID uuid.UUID, originalFilename, filePath string) ImportSession {
	now := time.Now()
	return ImportSession{
		ID:               uuid.New(),
		TeamID:           teamID,
		UserID:           userID,
		SourceType:       SourceTypeFile,
		OriginalFilename: originalFilename,
		FilePath:         filePath,
		Status:           SessionStatusPending,
		CreatedAt:        now,
		UpdatedAt:        now,
	}
}

// NewDatabaseImportSession creates a pending session backed by an external database.
func NewDatabaseImportSession(teamID, userID uuid.UUID, source DatabaseSource) ImportSession {
	now := time.Now()
	return ImportSession{
		ID:             uuid.New(),
		TeamID:         teamID,
		UserID:         userID,
		SourceType:     SourceTypeDatabase,
		DatabaseSource: &source,
		Status:         SessionStatusPending,
		CreatedAt:      now,
		UpdatedAt:      now,
	}
}

// IsFileImport reports whether the session reads from an uploaded file.
func (s ImportSession) IsFileImport() bool {
	return s.SourceType == SourceTypeFile
}

// IsDatabaseImport reports whether the session reads from an external database.
func (s ImportSession) IsDatabaseImport() bool {
	return s.SourceType == SourceTypeDatabase
}

// IsExpired reports whether the retention deadline has passed.
func (s ImportSession) IsExpired() bool {
	return s.RetentionUntil != nil && s.RetentionUntil.Before(time.Now())
}

// ProgressPercentage returns processed rows as a percentage of the total.
func (s ImportSession) ProgressPercentage() float64 {
	if s.TotalRows == 0 {
		return 0
	}
	return float64(int(float64(s.ProcessedRows)/float64(s.TotalRows)*10000)) / 100
}
