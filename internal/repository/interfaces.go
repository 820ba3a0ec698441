package repository

import (
	"context"
	"time"

	"github.com/rpattn/crmimport/internal/domain"

	"github.com/google/uuid"
)

// ImportSessionRepository defines the interface for import session operations
type ImportSessionRepository interface {
	Create(ctx context.Context, session domain.ImportSession) (domain.ImportSession, error)
	GetByID(ctx context.Context, id uuid.UUID) (domain.ImportSession, error)
	Update(ctx context.Context, session domain.ImportSession) (domain.ImportSession, error)
	ListByTeam(ctx context.Context, teamID uuid.UUID, limit int, offset int) ([]domain.ImportSession, error)
	Delete(ctx context.Context, id uuid.UUID) error
	DeleteExpired(ctx context.Context, now time.Time) ([]domain.ImportSession, error)
}

// ImportRowRepository defines the interface for import row operations
type ImportRowRepository interface {
	CreateBatch(ctx context.Context, rows []domain.ImportRow) error
	GetByID(ctx context.Context, id uuid.UUID) (domain.ImportRow, error)
	ListBySession(ctx context.Context, sessionID uuid.UUID, status *domain.RowStatus, limit int, offset int) ([]domain.ImportRow, error)
	Update(ctx context.Context, row domain.ImportRow) (domain.ImportRow, error)
	CountByStatus(ctx context.Context, sessionID uuid.UUID) (map[domain.RowStatus]int, error)
	DeleteBySession(ctx context.Context, sessionID uuid.UUID) error
}

// ImportMappingRepository defines the interface for saved mapping operations
type ImportMappingRepository interface {
	Create(ctx context.Context, mapping domain.ImportMapping) (domain.ImportMapping, error)
	GetByID(ctx context.Context, id uuid.UUID) (domain.ImportMapping, error)
	ListByTeam(ctx context.Context, teamID uuid.UUID) ([]domain.ImportMapping, error)
	Update(ctx context.Context, mapping domain.ImportMapping) (domain.ImportMapping, error)
	Delete(ctx context.Context, id uuid.UUID) error
}

// ClientRepository defines the interface for client operations, including
// the duplicate candidate lookups used during import processing.
type ClientRepository interface {
	Create(ctx context.Context, client domain.Client) (domain.Client, error)
	GetByID(ctx context.Context, id uuid.UUID) (domain.Client, error)
	FindByEmail(ctx context.Context, teamID uuid.UUID, email string) ([]domain.Client, error)
	FindByTelephone(ctx context.Context, teamID uuid.UUID, digits string) ([]domain.Client, error)
	FindByName(ctx context.Context, teamID uuid.UUID, nom, prenom string) ([]domain.Client, error)
	CommitImport(ctx context.Context, bundle domain.ClientImport) (domain.Client, error)
	MergeImport(ctx context.Context, clientID uuid.UUID, bundle domain.ClientImport) (domain.Client, error)
}

// ImportAuditLogRepository stores row level import errors for observability.
type ImportAuditLogRepository interface {
	Record(ctx context.Context, entry domain.ImportAuditEntry) error
	ListBySession(ctx context.Context, sessionID uuid.UUID, limit int, offset int) ([]domain.ImportAuditEntry, error)
}
