package domain

import (
	"time"

	"github.com/google/uuid"
)

// RowStatus enumerates the per-row state machine.
type RowStatus string

const (
	RowStatusPending   RowStatus = "pending"
	RowStatusValid     RowStatus = "valid"
	RowStatusInvalid   RowStatus = "invalid"
	RowStatusDuplicate RowStatus = "duplicate"
	RowStatusImported  RowStatus = "imported"
	RowStatusSkipped   RowStatus = "skipped"
)

// ValidRowStatus reports whether the value belongs to the closed status set.
func ValidRowStatus(status RowStatus) bool {
	switch status {
	case RowStatusPending, RowStatusValid, RowStatusInvalid,
		RowStatusDuplicate, RowStatusImported, RowStatusSkipped:
		return true
	}
	return false
}

// DuplicateMatch records one candidate client match for a row.
type DuplicateMatch struct {
	ClientID      uuid.UUID `json:"client_id"`
	Score         float64   `json:"score"`
	Reasons       []string  `json:"reasons"`
	Nom           string    `json:"nom,omitempty"`
	Prenom        string    `json:"prenom,omitempty"`
	Email         string    `json:"email,omitempty"`
	Telephone     string    `json:"telephone,omitempty"`
	DateNaissance string    `json:"date_naissance,omitempty"`
}

// DuplicateCheck is the outcome of matching one row against the
// existing client base.
type DuplicateCheck struct {
	HasDuplicates   bool             `json:"has_duplicates"`
	Confidence      float64          `json:"confidence"`
	ConfidenceLevel string           `json:"confidence_level"`
	Matches         []DuplicateMatch `json:"matches"`
	BestMatch       *DuplicateMatch  `json:"best_match,omitempty"`
}

// BatchDuplicate flags a row that collides with an earlier row of the
// same file.
type BatchDuplicate struct {
	RowNumber int     `json:"row_number"`
	Score     float64 `json:"score"`
}

// ImportRow is one source row flowing through the pipeline.
type ImportRow struct {
	ID                  uuid.UUID         `json:"id"`
	SessionID           uuid.UUID         `json:"session_id"`
	RowNumber           int               `json:"row_number"`
	RawData             map[string]string `json:"raw_data"`
	NormalizedData      map[string]any    `json:"normalized_data,omitempty"`
	Status              RowStatus         `json:"status"`
	MatchedClientID     *uuid.UUID        `json:"matched_client_id,omitempty"`
	ValidationErrors    map[string]string `json:"validation_errors,omitempty"`
	DuplicateMatches    []DuplicateMatch  `json:"duplicate_matches,omitempty"`
	BatchDuplicates     []BatchDuplicate  `json:"batch_duplicates,omitempty"`
	DuplicateConfidence float64           `json:"duplicate_confidence,omitempty"`
	CreatedAt           time.Time         `json:"created_at"`
	UpdatedAt           time.Time         `json:"updated_at"`
}

// NewImportRow creates a pending row for a session.
func NewImportRow(sessionID uuid.UUID, rowNumber int, raw map[string]string) ImportRow {
	now := time.Now()
	return ImportRow{
		ID:        uuid.New(),
		SessionID: sessionID,
		RowNumber: rowNumber,
		RawData:   raw,
		Status:    RowStatusPending,
		CreatedAt: now,
		UpdatedAt: now,
	}
}

// Importable reports whether the row may be committed to the CRM.
func (r ImportRow) Importable() bool {
	return r.Status == RowStatusValid || r.Status == RowStatusDuplicate
}

// HasPotentialDuplicates reports whether any candidates were recorded.
func (r ImportRow) HasPotentialDuplicates() bool {
	return len(r.DuplicateMatches) > 0
}
