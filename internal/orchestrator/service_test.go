package orchestrator

import (
	"context"
	"fmt"
	"io"
	"os"
	"path/filepath"
	"sort"
	"strings"
	"testing"
	"time"

	"github.com/google/uuid"
	"github.com/sirupsen/logrus"

	"github.com/rpattn/crmimport/internal/connector"
	"github.com/rpattn/crmimport/internal/dedup"
	"github.com/rpattn/crmimport/internal/domain"
)

type stubSessionRepo struct {
	sessions map[uuid.UUID]domain.ImportSession
}

func newStubSessionRepo() *stubSessionRepo {
	return &stubSessionRepo{sessions: map[uuid.UUID]domain.ImportSession{}}
}

func (r *stubSessionRepo) Create(_ context.Context, session domain.ImportSession) (domain.ImportSession, error) {
	r.sessions[session.ID] = session
	return session, nil
}

func (r *stubSessionRepo) GetByID(_ context.Context, id uuid.UUID) (domain.ImportSession, error) {
	session, ok := r.sessions[id]
	if !ok {
		return domain.ImportSession{}, fmt.Errorf("import session not found: %s", id)
	}
	return session, nil
}

func (r *stubSessionRepo) Update(_ context.Context, session domain.ImportSession) (domain.ImportSession, error) {
	if _, ok := r.sessions[session.ID]; !ok {
		return domain.ImportSession{}, fmt.Errorf("import session not found: %s", session.ID)
	}
	r.sessions[session.ID] = session
	return session, nil
}

func (r *stubSessionRepo) ListByTeam(_ context.Context, teamID uuid.UUID, _ int, _ int) ([]domain.ImportSession, error) {
	listed := []domain.ImportSession{}
	for _, session := range r.sessions {
		if session.TeamID == teamID {
			listed = append(listed, session)
		}
	}
	return listed, nil
}

func (r *stubSessionRepo) Delete(_ context.Context, id uuid.UUID) error {
	if _, ok := r.sessions[id]; !ok {
		return fmt.Errorf("import session not found: %s", id)
	}
	delete(r.sessions, id)
	return nil
}

func (r *stubSessionRepo) DeleteExpired(_ context.Context, now time.Time) ([]domain.ImportSession, error) {
	deleted := []domain.ImportSession{}
	for id, session := range r.sessions {
		if session.RetentionUntil != nil && session.RetentionUntil.Before(now) {
			deleted = append(deleted, session)
			delete(r.sessions, id)
		}
	}
	return deleted, nil
}

type stubRowRepo struct {
	rows map[uuid.UUID]domain.ImportRow
}

func newStubRowRepo() *stubRowRepo {
	return &stubRowRepo{rows: map[uuid.UUID]domain.ImportRow{}}
}

func (r *stubRowRepo) CreateBatch(_ context.Context, rows []domain.ImportRow) error {
	for _, row := range rows {
		r.rows[row.ID] = row
	}
	return nil
}

func (r *stubRowRepo) GetByID(_ context.Context, id uuid.UUID) (domain.ImportRow, error) {
	row, ok := r.rows[id]
	if !ok {
		return domain.ImportRow{}, fmt.Errorf("import row not found: %s", id)
	}
	return row, nil
}

func (r *stubRowRepo) ListBySession(_ context.Context, sessionID uuid.UUID, status *domain.RowStatus, limit int, offset int) ([]domain.ImportRow, error) {
	listed := []domain.ImportRow{}
	for _, row := range r.rows {
		if row.SessionID != sessionID {
			continue
		}
		if status != nil && row.Status != *status {
			continue
		}
		listed = append(listed, row)
	}
	sort.Slice(listed, func(i, j int) bool { return listed[i].RowNumber < listed[j].RowNumber })
	if offset >= len(listed) {
		return nil, nil
	}
	listed = listed[offset:]
	if limit > 0 && len(listed) > limit {
		listed = listed[:limit]
	}
	return listed, nil
}

func (r *stubRowRepo) Update(_ context.Context, row domain.ImportRow) (domain.ImportRow, error) {
	if _, ok := r.rows[row.ID]; !ok {
		return domain.ImportRow{}, fmt.Errorf("import row not found: %s", row.ID)
	}
	r.rows[row.ID] = row
	return row, nil
}

func (r *stubRowRepo) CountByStatus(_ context.Context, sessionID uuid.UUID) (map[domain.RowStatus]int, error) {
	counts := map[domain.RowStatus]int{}
	for _, row := range r.rows {
		if row.SessionID == sessionID {
			counts[row.Status]++
		}
	}
	return counts, nil
}

func (r *stubRowRepo) DeleteBySession(_ context.Context, sessionID uuid.UUID) error {
	for id, row := range r.rows {
		if row.SessionID == sessionID {
			delete(r.rows, id)
		}
	}
	return nil
}

type stubMappingRepo struct {
	mappings map[uuid.UUID]domain.ImportMapping
}

func newStubMappingRepo() *stubMappingRepo {
	return &stubMappingRepo{mappings: map[uuid.UUID]domain.ImportMapping{}}
}

func (r *stubMappingRepo) Create(_ context.Context, mapping domain.ImportMapping) (domain.ImportMapping, error) {
	r.mappings[mapping.ID] = mapping
	return mapping, nil
}

func (r *stubMappingRepo) GetByID(_ context.Context, id uuid.UUID) (domain.ImportMapping, error) {
	mapping, ok := r.mappings[id]
	if !ok {
		return domain.ImportMapping{}, fmt.Errorf("import mapping not found: %s", id)
	}
	return mapping, nil
}

func (r *stubMappingRepo) ListByTeam(_ context.Context, teamID uuid.UUID) ([]domain.ImportMapping, error) {
	listed := []domain.ImportMapping{}
	for _, mapping := range r.mappings {
		if mapping.TeamID == teamID {
			listed = append(listed, mapping)
		}
	}
	return listed, nil
}

func (r *stubMappingRepo) Update(_ context.Context, mapping domain.ImportMapping) (domain.ImportMapping, error) {
	r.mappings[mapping.ID] = mapping
	return mapping, nil
}

func (r *stubMappingRepo) Delete(_ context.Context, id uuid.UUID) error {
	if _, ok := r.mappings[id]; !ok {
		return fmt.Errorf("import mapping not found: %s", id)
	}
	delete(r.mappings, id)
	return nil
}

type stubClientRepo struct {
	clients   []domain.Client
	committed []domain.ClientImport
	merged    map[uuid.UUID][]domain.ClientImport
}

func newStubClientRepo(existing ...domain.Client) *stubClientRepo {
	return &stubClientRepo{clients: existing, merged: map[uuid.UUID][]domain.ClientImport{}}
}

func (r *stubClientRepo) Create(_ context.Context, client domain.Client) (domain.Client, error) {
	r.clients = append(r.clients, client)
	return client, nil
}

func (r *stubClientRepo) GetByID(_ context.Context, id uuid.UUID) (domain.Client, error) {
	for _, client := range r.clients {
		if client.ID == id {
			return client, nil
		}
	}
	return domain.Client{}, fmt.Errorf("client not found: %s", id)
}

func (r *stubClientRepo) FindByEmail(_ context.Context, teamID uuid.UUID, email string) ([]domain.Client, error) {
	found := []domain.Client{}
	for _, client := range r.clients {
		if client.TeamID == teamID && strings.EqualFold(client.Email(), email) {
			found = append(found, client)
		}
	}
	return found, nil
}

func (r *stubClientRepo) FindByTelephone(_ context.Context, teamID uuid.UUID, digits string) ([]domain.Client, error) {
	found := []domain.Client{}
	for _, client := range r.clients {
		if client.TeamID == teamID && digits != "" && strings.Contains(client.Telephone(), digits) {
			found = append(found, client)
		}
	}
	return found, nil
}

func (r *stubClientRepo) FindByName(_ context.Context, teamID uuid.UUID, nom, prenom string) ([]domain.Client, error) {
	nom = strings.ToLower(nom)
	prenom = strings.ToLower(prenom)
	found := []domain.Client{}
	for _, client := range r.clients {
		if client.TeamID != teamID {
			continue
		}
		clientNom := strings.ToLower(client.Nom())
		clientPrenom := strings.ToLower(client.Prenom())
		direct := strings.Contains(clientNom, nom) && strings.Contains(clientPrenom, prenom)
		swapped := strings.Contains(clientNom, prenom) && strings.Contains(clientPrenom, nom)
		if direct || swapped {
			found = append(found, client)
		}
	}
	return found, nil
}

func (r *stubClientRepo) CommitImport(_ context.Context, bundle domain.ClientImport) (domain.Client, error) {
	r.committed = append(r.committed, bundle)
	r.clients = append(r.clients, bundle.Client)
	return bundle.Client, nil
}

func (r *stubClientRepo) MergeImport(_ context.Context, clientID uuid.UUID, bundle domain.ClientImport) (domain.Client, error) {
	for i, client := range r.clients {
		if client.ID != clientID {
			continue
		}
		for field, value := range bundle.Client.Attributes {
			if !client.Has(field) && strings.TrimSpace(value) != "" {
				client = client.WithAttribute(field, value)
			}
		}
		r.clients[i] = client
		r.merged[clientID] = append(r.merged[clientID], bundle)
		return client, nil
	}
	return domain.Client{}, fmt.Errorf("client not found: %s", clientID)
}

type stubAuditRepo struct {
	entries []domain.ImportAuditEntry
}

func (r *stubAuditRepo) Record(_ context.Context, entry domain.ImportAuditEntry) error {
	r.entries = append(r.entries, entry)
	return nil
}

func (r *stubAuditRepo) ListBySession(_ context.Context, sessionID uuid.UUID, _ int, _ int) ([]domain.ImportAuditEntry, error) {
	listed := []domain.ImportAuditEntry{}
	for _, entry := range r.entries {
		if entry.SessionID == sessionID {
			listed = append(listed, entry)
		}
	}
	return listed, nil
}

type testEnv struct {
	svc      *Service
	sessions *stubSessionRepo
	rows     *stubRowRepo
	mappings *stubMappingRepo
	clients  *stubClientRepo
	audit    *stubAuditRepo
}

func newTestEnv(t *testing.T, existingClients ...domain.Client) *testEnv {
	t.Helper()

	logger := logrus.New()
	logger.SetOutput(io.Discard)

	sessions := newStubSessionRepo()
	rows := newStubRowRepo()
	mappings := newStubMappingRepo()
	clients := newStubClientRepo(existingClients...)
	audit := &stubAuditRepo{}

	svc := NewService(
		sessions,
		rows,
		mappings,
		clients,
		audit,
		dedup.NewService(clients, logger),
		connector.NewService(logger),
		logger,
		Config{UploadDir: t.TempDir(), Retention: time.Hour},
	)

	return &testEnv{svc: svc, sessions: sessions, rows: rows, mappings: mappings, clients: clients, audit: audit}
}

var testMappings = []domain.ColumnMapping{
	{SourceColumn: "Nom", TargetField: "nom"},
	{SourceColumn: "Prénom", TargetField: "prenom"},
	{SourceColumn: "Email", TargetField: "email"},
	{SourceColumn: "Date de naissance", TargetField: "date_naissance"},
}

const testCSV = "Nom;Prénom;Email;Date de naissance\n" +
	"Dupont;Jean;jean.dupont@example.com;12/05/1980\n" +
	";Marie;marie@example.com;01/01/1990\n" +
	"Martin;Paul;paul.martin@example.com;03/04/1975\n"

func existingClient(teamID uuid.UUID) domain.Client {
	return domain.NewClient(teamID, map[string]string{
		"nom":            "Martin",
		"prenom":         "Paul",
		"email":          "paul.martin@example.com",
		"date_naissance": "1975-04-03",
	})
}

func preparedSession(t *testing.T, env *testEnv, teamID uuid.UUID) domain.ImportSession {
	t.Helper()
	ctx := context.Background()

	session, err := env.svc.CreateFileSession(ctx, teamID, uuid.New(), "clients.csv", strings.NewReader(testCSV))
	if err != nil {
		t.Fatalf("CreateFileSession: %v", err)
	}

	if _, err := env.svc.Analyze(ctx, session.ID); err != nil {
		t.Fatalf("Analyze: %v", err)
	}
	if _, err := env.svc.UpdateMappings(ctx, session.ID, testMappings, nil, ""); err != nil {
		t.Fatalf("UpdateMappings: %v", err)
	}

	started, err := env.svc.Start(ctx, session.ID)
	if err != nil {
		t.Fatalf("Start: %v", err)
	}
	return started
}

func TestAnalyzeDetectsColumnsAndSuggestsMappings(t *testing.T) {
	env := newTestEnv(t)
	ctx := context.Background()

	session, err := env.svc.CreateFileSession(ctx, uuid.New(), uuid.New(), "clients.csv", strings.NewReader(testCSV))
	if err != nil {
		t.Fatalf("CreateFileSession: %v", err)
	}
	if session.Status != domain.SessionStatusPending {
		t.Fatalf("expected pending status, got %s", session.Status)
	}

	analyzed, err := env.svc.Analyze(ctx, session.ID)
	if err != nil {
		t.Fatalf("Analyze: %v", err)
	}

	if analyzed.Status != domain.SessionStatusMapping {
		t.Fatalf("expected mapping status, got %s", analyzed.Status)
	}
	if analyzed.TotalRows != 3 {
		t.Fatalf("expected 3 rows, got %d", analyzed.TotalRows)
	}
	if len(analyzed.DetectedColumns) != 4 {
		t.Fatalf("expected 4 columns, got %v", analyzed.DetectedColumns)
	}

	byColumn := map[string]domain.SuggestedMapping{}
	for _, suggestion := range analyzed.SuggestedMappings {
		byColumn[suggestion.SourceColumn] = suggestion
	}
	if byColumn["Nom"].TargetField != "nom" {
		t.Fatalf("expected Nom to map to nom, got %+v", byColumn["Nom"])
	}
	if byColumn["Prénom"].TargetField != "prenom" {
		t.Fatalf("expected Prénom to map to prenom, got %+v", byColumn["Prénom"])
	}
}

func TestAnalyzeMarksSessionFailedOnUnreadableSource(t *testing.T) {
	env := newTestEnv(t)
	ctx := context.Background()

	session, err := env.svc.CreateFileSession(ctx, uuid.New(), uuid.New(), "clients.pdf", strings.NewReader("%PDF-1.4"))
	if err != nil {
		t.Fatalf("CreateFileSession: %v", err)
	}

	if _, err := env.svc.Analyze(ctx, session.ID); err == nil {
		t.Fatal("expected an error for an unsupported format")
	}

	failed, err := env.svc.GetSession(ctx, session.ID)
	if err != nil {
		t.Fatalf("GetSession: %v", err)
	}
	if failed.Status != domain.SessionStatusFailed {
		t.Fatalf("expected failed status, got %s", failed.Status)
	}
	if len(failed.ErrorsSummary) == 0 {
		t.Fatal("expected an errors summary entry")
	}
}

func TestUpdateMappingsRejectsUnknownTarget(t *testing.T) {
	env := newTestEnv(t)
	ctx := context.Background()

	session, err := env.svc.CreateFileSession(ctx, uuid.New(), uuid.New(), "clients.csv", strings.NewReader(testCSV))
	if err != nil {
		t.Fatalf("CreateFileSession: %v", err)
	}
	if _, err := env.svc.Analyze(ctx, session.ID); err != nil {
		t.Fatalf("Analyze: %v", err)
	}

	_, err = env.svc.UpdateMappings(ctx, session.ID, []domain.ColumnMapping{
		{SourceColumn: "Nom", TargetField: "nonexistent_field"},
	}, nil, "")
	if err == nil {
		t.Fatal("expected an error for an unknown target field")
	}
	if !strings.Contains(err.Error(), "Champ cible invalide") {
		t.Fatalf("unexpected error message: %v", err)
	}
}

func TestUpdateMappingsRequiresMappingStatus(t *testing.T) {
	env := newTestEnv(t)
	ctx := context.Background()

	session, err := env.svc.CreateFileSession(ctx, uuid.New(), uuid.New(), "clients.csv", strings.NewReader(testCSV))
	if err != nil {
		t.Fatalf("CreateFileSession: %v", err)
	}

	// The session is still pending: no columns were detected yet.
	if _, err := env.svc.UpdateMappings(ctx, session.ID, testMappings, nil, ""); err == nil {
		t.Fatal("expected an error configuring a mapping before analysis")
	}
}

func TestUpdateMappingsPersistsMappingWithoutName(t *testing.T) {
	env := newTestEnv(t)
	ctx := context.Background()
	teamID := uuid.New()

	session, err := env.svc.CreateFileSession(ctx, teamID, uuid.New(), "clients.csv", strings.NewReader(testCSV))
	if err != nil {
		t.Fatalf("CreateFileSession: %v", err)
	}
	if _, err := env.svc.Analyze(ctx, session.ID); err != nil {
		t.Fatalf("Analyze: %v", err)
	}

	updated, err := env.svc.UpdateMappings(ctx, session.ID, testMappings, nil, "")
	if err != nil {
		t.Fatalf("UpdateMappings: %v", err)
	}
	if updated.MappingID == nil {
		t.Fatal("expected an auto-created mapping on the session")
	}

	saved, err := env.svc.ListMappings(ctx, teamID)
	if err != nil {
		t.Fatalf("ListMappings: %v", err)
	}
	if len(saved) != 1 || !strings.HasPrefix(saved[0].Name, "Import ") {
		t.Fatalf("unexpected saved mappings: %+v", saved)
	}

	// A second configuration updates the record instead of piling up copies.
	if _, err := env.svc.UpdateMappings(ctx, session.ID, testMappings, nil, "Export CRM"); err != nil {
		t.Fatalf("UpdateMappings again: %v", err)
	}
	saved, err = env.svc.ListMappings(ctx, teamID)
	if err != nil {
		t.Fatalf("ListMappings: %v", err)
	}
	if len(saved) != 1 || saved[0].Name != "Export CRM" {
		t.Fatalf("expected the mapping to be renamed in place, got %+v", saved)
	}
}

func TestUpdateMappingsSavesReusableMapping(t *testing.T) {
	env := newTestEnv(t)
	ctx := context.Background()
	teamID := uuid.New()

	session, err := env.svc.CreateFileSession(ctx, teamID, uuid.New(), "clients.csv", strings.NewReader(testCSV))
	if err != nil {
		t.Fatalf("CreateFileSession: %v", err)
	}
	if _, err := env.svc.Analyze(ctx, session.ID); err != nil {
		t.Fatalf("Analyze: %v", err)
	}

	updated, err := env.svc.UpdateMappings(ctx, session.ID, testMappings, nil, "Export CRM standard")
	if err != nil {
		t.Fatalf("UpdateMappings: %v", err)
	}
	if updated.MappingID == nil {
		t.Fatal("expected the saved mapping to be linked to the session")
	}

	saved, err := env.svc.ListMappings(ctx, teamID)
	if err != nil {
		t.Fatalf("ListMappings: %v", err)
	}
	if len(saved) != 1 || saved[0].Name != "Export CRM standard" {
		t.Fatalf("unexpected saved mappings: %+v", saved)
	}
}

func TestStartRequiresMappings(t *testing.T) {
	env := newTestEnv(t)
	ctx := context.Background()

	session, err := env.svc.CreateFileSession(ctx, uuid.New(), uuid.New(), "clients.csv", strings.NewReader(testCSV))
	if err != nil {
		t.Fatalf("CreateFileSession: %v", err)
	}

	if _, err := env.svc.Start(ctx, session.ID); err == nil {
		t.Fatal("expected an error when starting without mappings")
	}
}

func TestProcessBatchClassifiesRows(t *testing.T) {
	teamID := uuid.New()
	existing := existingClient(teamID)
	env := newTestEnv(t, existing)
	ctx := context.Background()

	session := preparedSession(t, env, teamID)
	if session.Status != domain.SessionStatusProcessing {
		t.Fatalf("expected processing status, got %s", session.Status)
	}

	result, err := env.svc.ProcessBatch(ctx, session.ID, 0, 0)
	if err != nil {
		t.Fatalf("ProcessBatch: %v", err)
	}
	if result.Processed != 3 || result.Remaining != 0 || !result.Completed {
		t.Fatalf("unexpected batch result: %+v", result)
	}

	rows, err := env.svc.ListRows(ctx, session.ID, nil, 10, 0)
	if err != nil {
		t.Fatalf("ListRows: %v", err)
	}
	if len(rows) != 3 {
		t.Fatalf("expected 3 rows, got %d", len(rows))
	}

	if rows[0].Status != domain.RowStatusValid {
		t.Fatalf("row 1: expected valid, got %s", rows[0].Status)
	}
	if rows[0].NormalizedData["nom"] != "Dupont" {
		t.Fatalf("row 1: unexpected nom %v", rows[0].NormalizedData["nom"])
	}
	if rows[0].NormalizedData["date_naissance"] != "1980-05-12" {
		t.Fatalf("row 1: unexpected date %v", rows[0].NormalizedData["date_naissance"])
	}

	if rows[1].Status != domain.RowStatusInvalid {
		t.Fatalf("row 2: expected invalid, got %s", rows[1].Status)
	}
	if _, ok := rows[1].ValidationErrors["nom"]; !ok {
		t.Fatalf("row 2: expected a nom validation error, got %v", rows[1].ValidationErrors)
	}

	if rows[2].Status != domain.RowStatusDuplicate {
		t.Fatalf("row 3: expected duplicate, got %s", rows[2].Status)
	}
	if rows[2].MatchedClientID == nil || *rows[2].MatchedClientID != existing.ID {
		t.Fatalf("row 3: expected match against existing client")
	}
	if rows[2].DuplicateConfidence < dedup.DuplicateThreshold {
		t.Fatalf("row 3: expected confidence >= %v, got %v", dedup.DuplicateThreshold, rows[2].DuplicateConfidence)
	}

	final, err := env.svc.GetSession(ctx, session.ID)
	if err != nil {
		t.Fatalf("GetSession: %v", err)
	}
	if final.Status != domain.SessionStatusCompleted {
		t.Fatalf("expected completed session, got %s", final.Status)
	}
	if final.SuccessCount != 1 || final.ErrorCount != 1 || final.DuplicateCount != 1 {
		t.Fatalf("unexpected counters: %+v", final)
	}
	if final.CompletedAt == nil {
		t.Fatal("expected completed_at to be set")
	}
}

func TestProcessBatchFlagsEmailOnlyMatch(t *testing.T) {
	teamID := uuid.New()
	existing := domain.NewClient(teamID, map[string]string{
		"nom":    "Durand",
		"prenom": "Pierre",
		"email":  "jean.dupont@example.com",
	})
	env := newTestEnv(t, existing)
	ctx := context.Background()

	session := preparedSession(t, env, teamID)
	if _, err := env.svc.ProcessBatch(ctx, session.ID, 0, 0); err != nil {
		t.Fatalf("ProcessBatch: %v", err)
	}

	rows, err := env.svc.ListRows(ctx, session.ID, nil, 10, 0)
	if err != nil {
		t.Fatalf("ListRows: %v", err)
	}

	// Row 1 shares only its email with the stored client: that single
	// exact signal must already route it to review.
	if rows[0].Status != domain.RowStatusDuplicate {
		t.Fatalf("row 1: expected duplicate, got %s", rows[0].Status)
	}
	if rows[0].MatchedClientID == nil || *rows[0].MatchedClientID != existing.ID {
		t.Fatalf("row 1: expected match against existing client, got %v", rows[0].MatchedClientID)
	}
	if rows[0].DuplicateConfidence < 0.34 || rows[0].DuplicateConfidence > 0.36 {
		t.Fatalf("row 1: unexpected confidence %v", rows[0].DuplicateConfidence)
	}
}

func TestProcessBatchAppliesMappingDefaults(t *testing.T) {
	env := newTestEnv(t)
	ctx := context.Background()

	session, err := env.svc.CreateFileSession(ctx, uuid.New(), uuid.New(), "clients.csv", strings.NewReader(testCSV))
	if err != nil {
		t.Fatalf("CreateFileSession: %v", err)
	}
	if _, err := env.svc.Analyze(ctx, session.ID); err != nil {
		t.Fatalf("Analyze: %v", err)
	}
	if _, err := env.svc.UpdateMappings(ctx, session.ID, testMappings, map[string]string{
		"ville": "Paris",
		"nom":   "Inconnu",
	}, ""); err != nil {
		t.Fatalf("UpdateMappings: %v", err)
	}
	if _, err := env.svc.Start(ctx, session.ID); err != nil {
		t.Fatalf("Start: %v", err)
	}
	if _, err := env.svc.ProcessBatch(ctx, session.ID, 0, 0); err != nil {
		t.Fatalf("ProcessBatch: %v", err)
	}

	rows, err := env.svc.ListRows(ctx, session.ID, nil, 10, 0)
	if err != nil {
		t.Fatalf("ListRows: %v", err)
	}

	if rows[0].NormalizedData["ville"] != "Paris" {
		t.Fatalf("row 1: expected the ville default, got %v", rows[0].NormalizedData["ville"])
	}
	// A mapped value always wins over the default.
	if rows[0].NormalizedData["nom"] != "Dupont" {
		t.Fatalf("row 1: expected the mapped nom, got %v", rows[0].NormalizedData["nom"])
	}
	// Row 2 has an empty Nom cell: the default fills it in.
	if rows[1].NormalizedData["nom"] != "Inconnu" {
		t.Fatalf("row 2: expected the nom default, got %v", rows[1].NormalizedData["nom"])
	}
}

func TestStartRejectsFailedSession(t *testing.T) {
	env := newTestEnv(t)
	ctx := context.Background()

	session, err := env.svc.CreateFileSession(ctx, uuid.New(), uuid.New(), "clients.csv", strings.NewReader(testCSV))
	if err != nil {
		t.Fatalf("CreateFileSession: %v", err)
	}
	if _, err := env.svc.Analyze(ctx, session.ID); err != nil {
		t.Fatalf("Analyze: %v", err)
	}
	if _, err := env.svc.UpdateMappings(ctx, session.ID, testMappings, nil, ""); err != nil {
		t.Fatalf("UpdateMappings: %v", err)
	}

	stored, err := env.sessions.GetByID(ctx, session.ID)
	if err != nil {
		t.Fatalf("GetByID: %v", err)
	}
	stored.Status = domain.SessionStatusFailed
	if _, err := env.sessions.Update(ctx, stored); err != nil {
		t.Fatalf("Update: %v", err)
	}

	if _, err := env.svc.Start(ctx, session.ID); err == nil {
		t.Fatal("expected an error starting a failed session")
	}
}

func TestSuggestMappings(t *testing.T) {
	env := newTestEnv(t)
	ctx := context.Background()

	session, err := env.svc.CreateFileSession(ctx, uuid.New(), uuid.New(), "clients.csv", strings.NewReader(testCSV))
	if err != nil {
		t.Fatalf("CreateFileSession: %v", err)
	}

	if _, err := env.svc.SuggestMappings(ctx, session.ID); err == nil {
		t.Fatal("expected an error before column detection")
	}

	if _, err := env.svc.Analyze(ctx, session.ID); err != nil {
		t.Fatalf("Analyze: %v", err)
	}

	suggestions, err := env.svc.SuggestMappings(ctx, session.ID)
	if err != nil {
		t.Fatalf("SuggestMappings: %v", err)
	}
	if len(suggestions.DetectedColumns) != 4 {
		t.Fatalf("expected 4 detected columns, got %v", suggestions.DetectedColumns)
	}
	if len(suggestions.AnalysisSuggestions) == 0 {
		t.Fatal("expected the analysis-time suggestions to be carried over")
	}
	byColumn := map[string]string{}
	for _, suggestion := range suggestions.Suggestions {
		byColumn[suggestion.SourceColumn] = suggestion.TargetField
	}
	if byColumn["Nom"] != "nom" {
		t.Fatalf("expected Nom to map to nom, got %v", byColumn)
	}
}

func TestImportRowActions(t *testing.T) {
	teamID := uuid.New()
	existing := existingClient(teamID)
	env := newTestEnv(t, existing)
	ctx := context.Background()

	session := preparedSession(t, env, teamID)
	if _, err := env.svc.ProcessBatch(ctx, session.ID, 0, 0); err != nil {
		t.Fatalf("ProcessBatch: %v", err)
	}
	rows, err := env.svc.ListRows(ctx, session.ID, nil, 10, 0)
	if err != nil {
		t.Fatalf("ListRows: %v", err)
	}

	if _, err := env.svc.ImportRow(ctx, rows[0].ID, "explode"); err == nil {
		t.Fatal("expected an error for an unknown action")
	}

	// Valid row becomes a new client.
	created, err := env.svc.ImportRow(ctx, rows[0].ID, ActionCreate)
	if err != nil {
		t.Fatalf("ImportRow create: %v", err)
	}
	if created.Status != domain.RowStatusImported {
		t.Fatalf("expected imported status, got %s", created.Status)
	}
	if len(env.clients.committed) != 1 {
		t.Fatalf("expected one committed bundle, got %d", len(env.clients.committed))
	}
	bundle := env.clients.committed[0]
	if bundle.Client.Nom() != "Dupont" || bundle.Client.Prenom() != "Jean" {
		t.Fatalf("unexpected committed client: %+v", bundle.Client.Attributes)
	}
	if bundle.Client.ImportSessionID == nil || *bundle.Client.ImportSessionID != session.ID {
		t.Fatal("expected the committed client to reference its session")
	}

	// Duplicate row merges into the matched client.
	merged, err := env.svc.ImportRow(ctx, rows[2].ID, ActionMerge)
	if err != nil {
		t.Fatalf("ImportRow merge: %v", err)
	}
	if merged.Status != domain.RowStatusImported {
		t.Fatalf("expected imported status, got %s", merged.Status)
	}
	if len(env.clients.merged[existing.ID]) != 1 {
		t.Fatal("expected a merge against the existing client")
	}

	// Invalid rows are not eligible for any resolution, skip included.
	if _, err := env.svc.ImportRow(ctx, rows[1].ID, ActionCreate); err == nil {
		t.Fatal("expected an error importing an invalid row")
	}
	if _, err := env.svc.ImportRow(ctx, rows[1].ID, ActionSkip); err == nil {
		t.Fatal("expected an error skipping an invalid row")
	}
}

func TestSkipRequiresReviewedRow(t *testing.T) {
	teamID := uuid.New()
	env := newTestEnv(t, existingClient(teamID))
	ctx := context.Background()

	session := preparedSession(t, env, teamID)

	// Only the first row has been processed; the others stay pending.
	if _, err := env.svc.ProcessBatch(ctx, session.ID, 0, 1); err != nil {
		t.Fatalf("ProcessBatch: %v", err)
	}
	rows, err := env.svc.ListRows(ctx, session.ID, nil, 10, 0)
	if err != nil {
		t.Fatalf("ListRows: %v", err)
	}

	if rows[1].Status != domain.RowStatusPending {
		t.Fatalf("row 2: expected pending, got %s", rows[1].Status)
	}
	if _, err := env.svc.ImportRow(ctx, rows[1].ID, ActionSkip); err == nil {
		t.Fatal("expected an error skipping a pending row")
	}

	skipped, err := env.svc.ImportRow(ctx, rows[0].ID, ActionSkip)
	if err != nil {
		t.Fatalf("ImportRow skip: %v", err)
	}
	if skipped.Status != domain.RowStatusSkipped {
		t.Fatalf("expected skipped status, got %s", skipped.Status)
	}

	// Terminal states stay terminal.
	if _, err := env.svc.ImportRow(ctx, rows[0].ID, ActionSkip); err == nil {
		t.Fatal("expected an error skipping an already skipped row")
	}
}

func TestImportValidRows(t *testing.T) {
	teamID := uuid.New()
	env := newTestEnv(t, existingClient(teamID))
	ctx := context.Background()

	session := preparedSession(t, env, teamID)
	if _, err := env.svc.ProcessBatch(ctx, session.ID, 0, 0); err != nil {
		t.Fatalf("ProcessBatch: %v", err)
	}

	imported, err := env.svc.ImportValidRows(ctx, session.ID)
	if err != nil {
		t.Fatalf("ImportValidRows: %v", err)
	}
	if imported != 1 {
		t.Fatalf("expected 1 imported row, got %d", imported)
	}

	stats, err := env.svc.Stats(ctx, session.ID)
	if err != nil {
		t.Fatalf("Stats: %v", err)
	}
	if stats.Counts[domain.RowStatusImported] != 1 {
		t.Fatalf("unexpected counts: %v", stats.Counts)
	}
	if stats.Counts[domain.RowStatusValid] != 0 {
		t.Fatalf("expected no remaining valid rows, got %v", stats.Counts)
	}
}

func TestDeleteSessionRemovesRowsAndFile(t *testing.T) {
	teamID := uuid.New()
	env := newTestEnv(t)
	ctx := context.Background()

	session := preparedSession(t, env, teamID)
	if _, err := os.Stat(session.FilePath); err != nil {
		t.Fatalf("expected stored upload: %v", err)
	}

	if err := env.svc.DeleteSession(ctx, session.ID); err != nil {
		t.Fatalf("DeleteSession: %v", err)
	}

	if _, err := env.svc.GetSession(ctx, session.ID); err == nil {
		t.Fatal("expected the session to be gone")
	}
	rows, err := env.rows.ListBySession(ctx, session.ID, nil, 10, 0)
	if err != nil {
		t.Fatalf("ListBySession: %v", err)
	}
	if len(rows) != 0 {
		t.Fatalf("expected the rows to be gone, got %d", len(rows))
	}
	if _, err := os.Stat(session.FilePath); !os.IsNotExist(err) {
		t.Fatalf("expected the uploaded file to be removed, got %v", err)
	}
}

func TestPurgeExpiredRemovesSessionsAndFiles(t *testing.T) {
	env := newTestEnv(t)
	ctx := context.Background()

	session, err := env.svc.CreateFileSession(ctx, uuid.New(), uuid.New(), "clients.csv", strings.NewReader(testCSV))
	if err != nil {
		t.Fatalf("CreateFileSession: %v", err)
	}
	if _, err := os.Stat(session.FilePath); err != nil {
		t.Fatalf("expected stored upload: %v", err)
	}

	// Force the retention deadline into the past.
	expired := time.Now().Add(-time.Minute)
	session.RetentionUntil = &expired
	if _, err := env.sessions.Update(ctx, session); err != nil {
		t.Fatalf("Update: %v", err)
	}

	purged, err := env.svc.PurgeExpired(ctx)
	if err != nil {
		t.Fatalf("PurgeExpired: %v", err)
	}
	if purged != 1 {
		t.Fatalf("expected 1 purged session, got %d", purged)
	}
	if _, err := os.Stat(session.FilePath); !os.IsNotExist(err) {
		t.Fatalf("expected the uploaded file to be removed, got %v", err)
	}
	if _, err := env.svc.GetSession(ctx, session.ID); err == nil {
		t.Fatal("expected the session to be gone")
	}
}

func TestCreateDatabaseSessionValidation(t *testing.T) {
	env := newTestEnv(t)
	ctx := context.Background()

	if _, err := env.svc.CreateDatabaseSession(ctx, uuid.New(), uuid.New(), domain.DatabaseSource{Driver: "sqlsrv", Table: "clients"}); err == nil {
		t.Fatal("expected an error for an unsupported driver")
	}
	if _, err := env.svc.CreateDatabaseSession(ctx, uuid.New(), uuid.New(), domain.DatabaseSource{Driver: "sqlite"}); err == nil {
		t.Fatal("expected an error when neither table nor query is set")
	}

	session, err := env.svc.CreateDatabaseSession(ctx, uuid.New(), uuid.New(), domain.DatabaseSource{
		Driver: "sqlite",
		Path:   filepath.Join(t.TempDir(), "source.db"),
		Table:  "clients",
	})
	if err != nil {
		t.Fatalf("CreateDatabaseSession: %v", err)
	}
	if !session.IsDatabaseImport() {
		t.Fatal("expected a database-backed session")
	}
}
