package domain

import (
	"time"

	"github.com/google/uuid"
)

// ImportAuditEntry captures row level issues that occur during an import.
type ImportAuditEntry struct {
	ID           uuid.UUID  `json:"id"`
	SessionID    uuid.UUID  `json:"session_id"`
	RowID        *uuid.UUID `json:"row_id,omitempty"`
	RowNumber    *int       `json:"row_number,omitempty"`
	Action       string     `json:"action"`
	ErrorMessage string     `json:"error_message"`
	CreatedAt    time.Time  `json:"created_at"`
}
