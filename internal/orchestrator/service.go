// Package orchestrator drives import sessions through their lifecycle:
// upload, analysis, mapping, batch processing and the final commit of
// rows into the client base.
package orchestrator

import (
	"context"
	"fmt"
	"io"
	"os"
	"path/filepath"
	"sort"
	"strconv"
	"strings"
	"time"

	"github.com/google/uuid"
	"github.com/sirupsen/logrus"

	"github.com/rpattn/crmimport/internal/connector"
	"github.com/rpattn/crmimport/internal/dedup"
	"github.com/rpattn/crmimport/internal/domain"
	"github.com/rpattn/crmimport/internal/mapping"
	"github.com/rpattn/crmimport/internal/repository"
	"github.com/rpattn/crmimport/internal/source"
	"github.com/rpattn/crmimport/internal/validation"
)

// DefaultBatchSize is how many rows one process call handles.
const DefaultBatchSize = 50

// maxDatabaseRows caps how many rows a database-backed session pulls.
const maxDatabaseRows = 10000

// Config carries orchestrator tunables.
type Config struct {
	UploadDir string
	Retention time.Duration
}

// Service coordinates the import pipeline.
type Service struct {
	sessions  repository.ImportSessionRepository
	rows      repository.ImportRowRepository
	mappings  repository.ImportMappingRepository
	clients   repository.ClientRepository
	audit     repository.ImportAuditLogRepository
	dedup     *dedup.Service
	connector *connector.Service
	log       *logrus.Logger
	cfg       Config
}

// NewService wires the pipeline services together.
func NewService(
	sessions repository.ImportSessionRepository,
	rows repository.ImportRowRepository,
	mappings repository.ImportMappingRepository,
	clients repository.ClientRepository,
	audit repository.ImportAuditLogRepository,
	dedupService *dedup.Service,
	connectorService *connector.Service,
	log *logrus.Logger,
	cfg Config,
) *Service {
	if cfg.Retention <= 0 {
		cfg.Retention = 30 * 24 * time.Hour
	}
	if cfg.UploadDir == "" {
		cfg.UploadDir = "./uploads"
	}
	return &Service{
		sessions:  sessions,
		rows:      rows,
		mappings:  mappings,
		clients:   clients,
		audit:     audit,
		dedup:     dedupService,
		connector: connectorService,
		log:       log,
		cfg:       cfg,
	}
}

// CreateFileSession stores the uploaded file and opens a pending session.
func (s *Service) CreateFileSession(ctx context.Context, teamID, userID uuid.UUID, originalFilename string, file io.Reader) (domain.ImportSession, error) {
	ext := strings.ToLower(filepath.Ext(originalFilename))
	if err := os.MkdirAll(s.cfg.UploadDir, 0o755); err != nil {
		return domain.ImportSession{}, fmt.Errorf("failed to create upload directory: %w", err)
	}

	storedPath := filepath.Join(s.cfg.UploadDir, uuid.NewString()+ext)
	out, err := os.Create(storedPath)
	if err != nil {
		return domain.ImportSession{}, fmt.Errorf("failed to store uploaded file: %w", err)
	}
	if _, err := io.Copy(out, file); err != nil {
		out.Close()
		os.Remove(storedPath)
		return domain.ImportSession{}, fmt.Errorf("failed to store uploaded file: %w", err)
	}
	if err := out.Close(); err != nil {
		os.Remove(storedPath)
		return domain.ImportSession{}, fmt.Errorf("failed to store uploaded file: %w", err)
	}

	session := domain.NewFileImportSession(teamID, userID, filepath.Base(originalFilename), storedPath)
	retention := time.Now().Add(s.cfg.Retention)
	session.RetentionUntil = &retention

	created, err := s.sessions.Create(ctx, session)
	if err != nil {
		os.Remove(storedPath)
		return domain.ImportSession{}, err
	}

	s.log.WithFields(logrus.Fields{
		"session_id": created.ID,
		"team_id":    created.TeamID,
		"filename":   created.OriginalFilename,
	}).Info("import session created")

	return created, nil
}

// CreateDatabaseSession opens a pending session backed by an external
// database connection.
func (s *Service) CreateDatabaseSession(ctx context.Context, teamID, userID uuid.UUID, src domain.DatabaseSource) (domain.ImportSession, error) {
	supported := false
	for _, driver := range connector.SupportedDrivers {
		if driver == src.Driver {
			supported = true
			break
		}
	}
	if !supported {
		return domain.ImportSession{}, fmt.Errorf("driver non supporté: %s", src.Driver)
	}
	if src.Table == "" && src.Query == "" {
		return domain.ImportSession{}, fmt.Errorf("une table ou une requête est requise")
	}

	session := domain.NewDatabaseImportSession(teamID, userID, src)
	retention := time.Now().Add(s.cfg.Retention)
	session.RetentionUntil = &retention

	created, err := s.sessions.Create(ctx, session)
	if err != nil {
		return domain.ImportSession{}, err
	}

	s.log.WithFields(logrus.Fields{
		"session_id": created.ID,
		"team_id":    created.TeamID,
		"driver":     src.Driver,
	}).Info("import session created")

	return created, nil
}

// GetSession returns one session.
func (s *Service) GetSession(ctx context.Context, id uuid.UUID) (domain.ImportSession, error) {
	return s.sessions.GetByID(ctx, id)
}

// ListSessions returns a team's sessions, newest first.
func (s *Service) ListSessions(ctx context.Context, teamID uuid.UUID, limit, offset int) ([]domain.ImportSession, error) {
	return s.sessions.ListByTeam(ctx, teamID, limit, offset)
}

// Analyze detects the source columns and proposes column mappings.
func (s *Service) Analyze(ctx context.Context, sessionID uuid.UUID) (domain.ImportSession, error) {
	session, err := s.sessions.GetByID(ctx, sessionID)
	if err != nil {
		return domain.ImportSession{}, err
	}

	columns, totalRows, err := s.detectColumns(ctx, session)
	if err != nil {
		session.Status = domain.SessionStatusFailed
		session.ErrorsSummary = append(session.ErrorsSummary, err.Error())
		if _, updateErr := s.sessions.Update(ctx, session); updateErr != nil {
			s.log.WithError(updateErr).Warn("failed to persist failed session")
		}
		return domain.ImportSession{}, fmt.Errorf("failed to analyze source: %w", err)
	}

	session.DetectedColumns = columns
	session.SuggestedMappings = mapping.Suggest(columns)
	session.TotalRows = totalRows
	session.Status = domain.SessionStatusMapping

	updated, err := s.sessions.Update(ctx, session)
	if err != nil {
		return domain.ImportSession{}, err
	}

	s.log.WithFields(logrus.Fields{
		"session_id": session.ID,
		"columns":    len(columns),
		"total_rows": totalRows,
	}).Info("import source analyzed")

	return updated, nil
}

func (s *Service) detectColumns(ctx context.Context, session domain.ImportSession) ([]string, int, error) {
	if session.IsFileImport() {
		return source.DetectColumns(session.FilePath)
	}

	src := *session.DatabaseSource
	if src.Query != "" {
		records, err := s.connector.RunQuery(ctx, src, src.Query, 1)
		if err != nil {
			return nil, 0, err
		}
		if len(records) == 0 {
			return nil, 0, nil
		}
		columns := make([]string, 0, len(records[0]))
		for column := range records[0] {
			columns = append(columns, column)
		}
		sort.Strings(columns)
		return columns, 0, nil
	}

	tableColumns, err := s.connector.ListColumns(ctx, src, src.Table)
	if err != nil {
		return nil, 0, err
	}
	columns := make([]string, len(tableColumns))
	for i, column := range tableColumns {
		columns[i] = column.Name
	}

	total, err := s.connector.CountRows(ctx, src, src.Table)
	if err != nil {
		return nil, 0, err
	}

	return columns, total, nil
}

// MappingSuggestions bundles the detected columns with both the live
// and the analysis-time mapping proposals for one session.
type MappingSuggestions struct {
	DetectedColumns     []string                  `json:"detected_columns"`
	Suggestions         []domain.SuggestedMapping `json:"suggestions"`
	AnalysisSuggestions []domain.SuggestedMapping `json:"analysis_suggestions,omitempty"`
}

// SuggestMappings recomputes mapping proposals for an analyzed session
// and returns them next to the ones recorded at analysis time.
func (s *Service) SuggestMappings(ctx context.Context, sessionID uuid.UUID) (MappingSuggestions, error) {
	session, err := s.sessions.GetByID(ctx, sessionID)
	if err != nil {
		return MappingSuggestions{}, err
	}
	if len(session.DetectedColumns) == 0 {
		return MappingSuggestions{}, fmt.Errorf("les colonnes n'ont pas encore été détectées")
	}

	return MappingSuggestions{
		DetectedColumns:     session.DetectedColumns,
		Suggestions:         mapping.Suggest(session.DetectedColumns),
		AnalysisSuggestions: session.SuggestedMappings,
	}, nil
}

// UpdateMappings stores the column mappings on the session. A mapping
// record is always persisted so the configuration survives the session:
// named after saveAs when given, under a generated name otherwise, and
// updated in place once the session already owns one.
func (s *Service) UpdateMappings(ctx context.Context, sessionID uuid.UUID, columnMappings []domain.ColumnMapping, defaultValues map[string]string, saveAs string) (domain.ImportSession, error) {
	session, err := s.sessions.GetByID(ctx, sessionID)
	if err != nil {
		return domain.ImportSession{}, err
	}
	if session.Status != domain.SessionStatusMapping {
		return domain.ImportSession{}, fmt.Errorf("la session n'est pas en attente de mapping")
	}

	if problems := mapping.ValidateMappings(columnMappings); len(problems) > 0 {
		return domain.ImportSession{}, fmt.Errorf("%s", strings.Join(problems, "; "))
	}

	session.ColumnMappings = columnMappings

	if session.MappingID != nil {
		saved, err := s.mappings.GetByID(ctx, *session.MappingID)
		if err != nil {
			return domain.ImportSession{}, err
		}
		saved.ColumnMappings = columnMappings
		saved.DefaultValues = defaultValues
		if saveAs != "" {
			saved.Name = saveAs
		}
		if _, err := s.mappings.Update(ctx, saved); err != nil {
			return domain.ImportSession{}, err
		}
	} else {
		name := saveAs
		if name == "" {
			name = "Import " + time.Now().Format("2006-01-02 15:04")
		}
		record := domain.NewImportMapping(session.TeamID, name, session.SourceType, columnMappings)
		record.DefaultValues = defaultValues
		saved, err := s.mappings.Create(ctx, record)
		if err != nil {
			return domain.ImportSession{}, err
		}
		session.MappingID = &saved.ID
	}

	return s.sessions.Update(ctx, session)
}

// ApplySavedMapping copies a stored mapping onto the session.
func (s *Service) ApplySavedMapping(ctx context.Context, sessionID, mappingID uuid.UUID) (domain.ImportSession, error) {
	session, err := s.sessions.GetByID(ctx, sessionID)
	if err != nil {
		return domain.ImportSession{}, err
	}
	if session.Status != domain.SessionStatusMapping {
		return domain.ImportSession{}, fmt.Errorf("la session n'est pas en attente de mapping")
	}

	saved, err := s.mappings.GetByID(ctx, mappingID)
	if err != nil {
		return domain.ImportSession{}, err
	}
	if saved.TeamID != session.TeamID {
		return domain.ImportSession{}, fmt.Errorf("import mapping not found: %s", mappingID)
	}

	session.ColumnMappings = saved.ColumnMappings
	session.MappingID = &saved.ID

	return s.sessions.Update(ctx, session)
}

// ListMappings returns a team's saved mappings.
func (s *Service) ListMappings(ctx context.Context, teamID uuid.UUID) ([]domain.ImportMapping, error) {
	return s.mappings.ListByTeam(ctx, teamID)
}

// DeleteMapping removes a saved mapping.
func (s *Service) DeleteMapping(ctx context.Context, id uuid.UUID) error {
	return s.mappings.Delete(ctx, id)
}

// Start materializes the source rows and moves the session into
// processing.
func (s *Service) Start(ctx context.Context, sessionID uuid.UUID) (domain.ImportSession, error) {
	session, err := s.sessions.GetByID(ctx, sessionID)
	if err != nil {
		return domain.ImportSession{}, err
	}
	if len(session.ColumnMappings) == 0 {
		return domain.ImportSession{}, fmt.Errorf("no column mappings configured for session %s", sessionID)
	}
	if session.Status != domain.SessionStatusPending && session.Status != domain.SessionStatusMapping {
		return domain.ImportSession{}, fmt.Errorf("session %s cannot start processing from status %s", sessionID, session.Status)
	}

	sourceRows, err := s.fetchSourceRows(ctx, session)
	if err != nil {
		return domain.ImportSession{}, fmt.Errorf("failed to read source rows: %w", err)
	}

	for start := 0; start < len(sourceRows); start += source.ChunkSize {
		end := start + source.ChunkSize
		if end > len(sourceRows) {
			end = len(sourceRows)
		}
		chunk := make([]domain.ImportRow, 0, end-start)
		for _, row := range sourceRows[start:end] {
			chunk = append(chunk, domain.NewImportRow(session.ID, row.Number, row.Data))
		}
		if err := s.rows.CreateBatch(ctx, chunk); err != nil {
			return domain.ImportSession{}, err
		}
	}

	now := time.Now()
	session.TotalRows = len(sourceRows)
	session.ProcessedRows = 0
	session.SuccessCount = 0
	session.ErrorCount = 0
	session.DuplicateCount = 0
	session.Status = domain.SessionStatusProcessing
	session.StartedAt = &now

	updated, err := s.sessions.Update(ctx, session)
	if err != nil {
		return domain.ImportSession{}, err
	}

	s.log.WithFields(logrus.Fields{
		"session_id": session.ID,
		"total_rows": session.TotalRows,
	}).Info("import processing started")

	return updated, nil
}

func (s *Service) fetchSourceRows(ctx context.Context, session domain.ImportSession) ([]source.Row, error) {
	if session.IsFileImport() {
		parsed, err := source.ParseFile(session.FilePath)
		if err != nil {
			return nil, err
		}
		return parsed.Rows, nil
	}

	src := *session.DatabaseSource
	if src.Query != "" {
		records, err := s.connector.RunQuery(ctx, src, src.Query, maxDatabaseRows)
		if err != nil {
			return nil, err
		}
		rows := make([]source.Row, len(records))
		for i, record := range records {
			rows[i] = source.Row{Number: i + 1, Data: record}
		}
		return rows, nil
	}

	rows := []source.Row{}
	offset := 0
	for len(rows) < maxDatabaseRows {
		page, err := s.connector.FetchTableData(ctx, src, src.Table, offset, source.ChunkSize)
		if err != nil {
			return nil, err
		}
		for _, record := range page.Rows {
			rows = append(rows, source.Row{Number: len(rows) + 1, Data: record})
		}
		if !page.HasMore || len(page.Rows) == 0 {
			break
		}
		offset += len(page.Rows)
	}
	return rows, nil
}

// BatchResult reports the outcome of one processing call.
type BatchResult struct {
	Processed int  `json:"processed"`
	Remaining int  `json:"remaining"`
	Completed bool `json:"completed"`
}

// ProcessBatch validates, normalizes and duplicate-checks the next slice
// of pending rows. Row level failures are logged and audited, never
// abort the batch.
func (s *Service) ProcessBatch(ctx context.Context, sessionID uuid.UUID, offset, limit int) (BatchResult, error) {
	if limit <= 0 {
		limit = DefaultBatchSize
	}
	if offset < 0 {
		offset = 0
	}

	session, err := s.sessions.GetByID(ctx, sessionID)
	if err != nil {
		return BatchResult{}, err
	}
	if session.Status != domain.SessionStatusProcessing {
		return BatchResult{}, fmt.Errorf("session %s is not processing", sessionID)
	}

	var defaults map[string]string
	if session.MappingID != nil {
		saved, err := s.mappings.GetByID(ctx, *session.MappingID)
		if err != nil {
			s.log.WithError(err).WithField("session_id", sessionID).Warn("failed to load saved mapping defaults")
		} else {
			defaults = saved.DefaultValues
		}
	}

	pending := domain.RowStatusPending
	batch, err := s.rows.ListBySession(ctx, sessionID, &pending, limit, offset)
	if err != nil {
		return BatchResult{}, err
	}

	seen := make([]map[string]any, 0, len(batch))
	processed, valid, invalid, duplicates := 0, 0, 0, 0

	for _, row := range batch {
		mapped := mapping.Apply(row.RawData, session.ColumnMappings)
		applyDefaults(mapped, defaults)
		result := validation.ValidateAndNormalize(mapped)
		row.NormalizedData = result.Data

		if !result.Valid {
			row.Status = domain.RowStatusInvalid
			row.ValidationErrors = result.Errors
			invalid++
		} else {
			check, dedupErr := s.dedup.FindDuplicates(ctx, session.TeamID, result.Data)
			if dedupErr != nil {
				s.recordRowIssue(ctx, row, "duplicate_check", dedupErr)
			}

			row.DuplicateMatches = check.Matches
			row.DuplicateConfidence = check.Confidence
			row.BatchDuplicates = s.dedup.CheckBatch(result.Data, seen, len(seen)+1)

			if check.BestMatch != nil {
				clientID := check.BestMatch.ClientID
				row.MatchedClientID = &clientID
			}

			if check.HasDuplicates || len(row.BatchDuplicates) > 0 {
				row.Status = domain.RowStatusDuplicate
				duplicates++
			} else {
				row.Status = domain.RowStatusValid
				valid++
			}
		}

		seen = append(seen, result.Data)

		if _, err := s.rows.Update(ctx, row); err != nil {
			s.recordRowIssue(ctx, row, "persist_row", err)
			continue
		}
		processed++
	}

	session.ProcessedRows += processed
	session.SuccessCount += valid
	session.ErrorCount += invalid
	session.DuplicateCount += duplicates

	completed := session.ProcessedRows >= session.TotalRows
	if completed {
		now := time.Now()
		session.Status = domain.SessionStatusCompleted
		session.CompletedAt = &now
	}

	if _, err := s.sessions.Update(ctx, session); err != nil {
		return BatchResult{}, err
	}

	if completed {
		s.log.WithFields(logrus.Fields{
			"session_id": session.ID,
			"valid":      session.SuccessCount,
			"invalid":    session.ErrorCount,
			"duplicates": session.DuplicateCount,
		}).Info("import processing completed")
	}

	return BatchResult{
		Processed: processed,
		Remaining: session.TotalRows - session.ProcessedRows,
		Completed: completed,
	}, nil
}

// Import actions a reviewer can take on one row.
const (
	ActionCreate = "create"
	ActionMerge  = "merge"
	ActionSkip   = "skip"
)

// ImportRow commits or skips one reviewed row.
func (s *Service) ImportRow(ctx context.Context, rowID uuid.UUID, action string) (domain.ImportRow, error) {
	row, err := s.rows.GetByID(ctx, rowID)
	if err != nil {
		return domain.ImportRow{}, err
	}

	if !row.Importable() {
		return domain.ImportRow{}, fmt.Errorf("row %s cannot be imported in status %s", rowID, row.Status)
	}

	if action == ActionSkip {
		row.Status = domain.RowStatusSkipped
		return s.rows.Update(ctx, row)
	}

	session, err := s.sessions.GetByID(ctx, row.SessionID)
	if err != nil {
		return domain.ImportRow{}, err
	}

	bundle := buildBundle(session, row)

	switch action {
	case ActionCreate:
		client, err := s.clients.CommitImport(ctx, bundle)
		if err != nil {
			s.recordRowIssue(ctx, row, ActionCreate, err)
			return domain.ImportRow{}, err
		}
		clientID := client.ID
		row.MatchedClientID = &clientID

	case ActionMerge:
		if row.MatchedClientID == nil {
			return domain.ImportRow{}, fmt.Errorf("row %s has no matched client to merge into", rowID)
		}
		if _, err := s.clients.MergeImport(ctx, *row.MatchedClientID, bundle); err != nil {
			s.recordRowIssue(ctx, row, ActionMerge, err)
			return domain.ImportRow{}, err
		}

	default:
		return domain.ImportRow{}, fmt.Errorf("unknown import action: %s", action)
	}

	row.Status = domain.RowStatusImported
	return s.rows.Update(ctx, row)
}

// ImportValidRows commits every valid row of a session as a new client.
// Failed rows are audited and left in place.
func (s *Service) ImportValidRows(ctx context.Context, sessionID uuid.UUID) (int, error) {
	session, err := s.sessions.GetByID(ctx, sessionID)
	if err != nil {
		return 0, err
	}

	validStatus := domain.RowStatusValid
	snapshot := []domain.ImportRow{}
	for offset := 0; ; offset += 500 {
		page, err := s.rows.ListBySession(ctx, sessionID, &validStatus, 500, offset)
		if err != nil {
			return 0, err
		}
		snapshot = append(snapshot, page...)
		if len(page) < 500 {
			break
		}
	}

	imported := 0
	for _, row := range snapshot {
		bundle := buildBundle(session, row)
		client, err := s.clients.CommitImport(ctx, bundle)
		if err != nil {
			s.recordRowIssue(ctx, row, ActionCreate, err)
			continue
		}
		clientID := client.ID
		row.MatchedClientID = &clientID
		row.Status = domain.RowStatusImported
		if _, err := s.rows.Update(ctx, row); err != nil {
			s.recordRowIssue(ctx, row, "persist_row", err)
			continue
		}
		imported++
	}

	s.log.WithFields(logrus.Fields{
		"session_id": sessionID,
		"imported":   imported,
	}).Info("valid rows imported")

	return imported, nil
}

// SessionStats summarizes a session's row states.
type SessionStats struct {
	Session  domain.ImportSession     `json:"session"`
	Counts   map[domain.RowStatus]int `json:"counts"`
	Progress float64                  `json:"progress"`
}

// Stats returns per-status row counts and overall progress.
func (s *Service) Stats(ctx context.Context, sessionID uuid.UUID) (SessionStats, error) {
	session, err := s.sessions.GetByID(ctx, sessionID)
	if err != nil {
		return SessionStats{}, err
	}

	counts, err := s.rows.CountByStatus(ctx, sessionID)
	if err != nil {
		return SessionStats{}, err
	}

	return SessionStats{
		Session:  session,
		Counts:   counts,
		Progress: session.ProgressPercentage(),
	}, nil
}

// ListRows returns a page of a session's rows, optionally filtered by
// status.
func (s *Service) ListRows(ctx context.Context, sessionID uuid.UUID, status *domain.RowStatus, limit, offset int) ([]domain.ImportRow, error) {
	return s.rows.ListBySession(ctx, sessionID, status, limit, offset)
}

// AuditTrail returns a session's recorded row issues.
func (s *Service) AuditTrail(ctx context.Context, sessionID uuid.UUID, limit, offset int) ([]domain.ImportAuditEntry, error) {
	return s.audit.ListBySession(ctx, sessionID, limit, offset)
}

// DeleteSession removes one session with its rows and uploaded file.
// Clients already committed from the session are left in place.
func (s *Service) DeleteSession(ctx context.Context, sessionID uuid.UUID) error {
	session, err := s.sessions.GetByID(ctx, sessionID)
	if err != nil {
		return err
	}

	if err := s.rows.DeleteBySession(ctx, sessionID); err != nil {
		return err
	}
	if err := s.sessions.Delete(ctx, sessionID); err != nil {
		return err
	}

	if session.IsFileImport() && session.FilePath != "" {
		if err := os.Remove(session.FilePath); err != nil && !os.IsNotExist(err) {
			s.log.WithError(err).WithField("path", session.FilePath).Warn("failed to remove uploaded file")
		}
	}

	s.log.WithFields(logrus.Fields{
		"session_id": sessionID,
		"team_id":    session.TeamID,
	}).Info("import session deleted")

	return nil
}

// PurgeExpired removes sessions past their retention deadline together
// with their uploaded files.
func (s *Service) PurgeExpired(ctx context.Context) (int, error) {
	deleted, err := s.sessions.DeleteExpired(ctx, time.Now())
	if err != nil {
		return 0, err
	}

	for _, session := range deleted {
		if session.IsFileImport() && session.FilePath != "" {
			if err := os.Remove(session.FilePath); err != nil && !os.IsNotExist(err) {
				s.log.WithError(err).WithField("path", session.FilePath).Warn("failed to remove uploaded file")
			}
		}
	}

	if len(deleted) > 0 {
		s.log.WithField("sessions", len(deleted)).Info("expired import sessions purged")
	}

	return len(deleted), nil
}

func (s *Service) recordRowIssue(ctx context.Context, row domain.ImportRow, action string, cause error) {
	s.log.WithError(cause).WithFields(logrus.Fields{
		"session_id": row.SessionID,
		"row_number": row.RowNumber,
		"action":     action,
	}).Warn("import row issue")

	rowID := row.ID
	rowNumber := row.RowNumber
	entry := domain.ImportAuditEntry{
		SessionID:    row.SessionID,
		RowID:        &rowID,
		RowNumber:    &rowNumber,
		Action:       action,
		ErrorMessage: cause.Error(),
	}
	if err := s.audit.Record(ctx, entry); err != nil {
		s.log.WithError(err).Warn("failed to record audit entry")
	}
}

// applyDefaults fills fields the column mappings left absent or empty
// with a saved mapping's default values. Mapped values always win.
func applyDefaults(mapped map[string]any, defaults map[string]string) {
	for field, value := range defaults {
		current, ok := mapped[field]
		if !ok {
			mapped[field] = value
			continue
		}
		if text, isText := current.(string); isText && strings.TrimSpace(text) == "" {
			mapped[field] = value
		}
	}
}

// buildBundle turns a row's normalized data into the client bundle the
// repository commits. Data reloaded from storage arrives as generic
// JSON values, so section buckets tolerate both concrete and boxed
// slices.
func buildBundle(session domain.ImportSession, row domain.ImportRow) domain.ClientImport {
	attributes := map[string]string{}
	conjoint := map[string]any{}
	var enfants []map[string]any
	sections := map[string][]map[string]any{}

	for key, value := range row.NormalizedData {
		switch key {
		case mapping.KeyConjoint:
			if m := toSectionMap(value); len(m) > 0 {
				conjoint = m
			}
		case mapping.KeyEnfants:
			enfants = toSectionSlice(value)
		case mapping.KeyNombreEnfants:
			// Derived count, recomputed from the enfants rows.
		default:
			if table, isBucket := strings.CutPrefix(key, "_"); isBucket {
				if m := toSectionMap(value); len(m) > 0 {
					sections[table] = append(sections[table], m)
					continue
				}
				for _, slot := range toSectionSlice(value) {
					if len(slot) > 0 {
						sections[table] = append(sections[table], slot)
					}
				}
				continue
			}
			if text := attributeString(value); text != "" {
				attributes[key] = text
			}
		}
	}

	client := domain.NewClient(session.TeamID, attributes)
	sessionID := session.ID
	client.ImportSessionID = &sessionID

	return domain.ClientImport{
		Client:   client,
		Conjoint: conjoint,
		Enfants:  enfants,
		Sections: sections,
	}
}

func toSectionMap(value any) map[string]any {
	m, _ := value.(map[string]any)
	return m
}

func toSectionSlice(value any) []map[string]any {
	switch typed := value.(type) {
	case []map[string]any:
		return typed
	case []any:
		slots := make([]map[string]any, 0, len(typed))
		for _, item := range typed {
			if m, ok := item.(map[string]any); ok {
				slots = append(slots, m)
			}
		}
		return slots
	}
	return nil
}

func attributeString(value any) string {
	switch typed := value.(type) {
	case nil:
		return ""
	case string:
		return strings.TrimSpace(typed)
	case bool:
		return strconv.FormatBool(typed)
	case int:
		return strconv.Itoa(typed)
	case float64:
		return strconv.FormatFloat(typed, 'f', -1, 64)
	default:
		return fmt.Sprint(typed)
	}
}
