package orchestrator

import (
	"encoding/json"
	"fmt"
	"net/http"
	"strconv"
	"strings"

	"github.com/google/uuid"
	"github.com/sirupsen/logrus"

	"github.com/rpattn/crmimport/internal/auth"
	"github.com/rpattn/crmimport/internal/connector"
	"github.com/rpattn/crmimport/internal/domain"
)

// maxUploadSize bounds in-memory parsing of multipart uploads.
const maxUploadSize = 32 << 20

// Handler exposes the import pipeline over REST.
type Handler struct {
	svc       *Service
	connector *connector.Service
	log       *logrus.Logger
}

// NewHandler wires the HTTP surface.
func NewHandler(svc *Service, connectorService *connector.Service, log *logrus.Logger) *Handler {
	return &Handler{svc: svc, connector: connectorService, log: log}
}

// Register mounts all routes on the mux.
func (h *Handler) Register(mux *http.ServeMux) {
	mux.HandleFunc("POST /api/imports", h.createSession)
	mux.HandleFunc("GET /api/imports", h.listSessions)
	mux.HandleFunc("GET /api/imports/{id}", h.getSession)
	mux.HandleFunc("DELETE /api/imports/{id}", h.deleteSession)
	mux.HandleFunc("POST /api/imports/{id}/analyze", h.analyze)
	mux.HandleFunc("GET /api/imports/{id}/suggestions", h.suggestMappings)
	mux.HandleFunc("PUT /api/imports/{id}/mapping", h.updateMapping)
	mux.HandleFunc("POST /api/imports/{id}/start", h.start)
	mux.HandleFunc("POST /api/imports/{id}/process", h.process)
	mux.HandleFunc("GET /api/imports/{id}/rows", h.listRows)
	mux.HandleFunc("POST /api/imports/{id}/rows/{rowID}", h.importRow)
	mux.HandleFunc("POST /api/imports/{id}/import-valid", h.importValid)
	mux.HandleFunc("GET /api/imports/{id}/stats", h.stats)
	mux.HandleFunc("GET /api/imports/{id}/audit", h.auditTrail)
	mux.HandleFunc("GET /api/mappings", h.listMappings)
	mux.HandleFunc("DELETE /api/mappings/{id}", h.deleteMapping)
	mux.HandleFunc("POST /api/connections/test", h.testConnection)
	mux.HandleFunc("POST /api/connections/tables", h.listTables)
	mux.HandleFunc("POST /api/connections/columns", h.listColumns)
	mux.HandleFunc("POST /api/connections/preview", h.previewTable)
}

func (h *Handler) createSession(w http.ResponseWriter, r *http.Request) {
	teamID, ok := auth.TeamIDFromContext(r.Context())
	if !ok {
		writeError(w, http.StatusUnauthorized, "team scope is required")
		return
	}
	userID, _ := auth.UserIDFromContext(r.Context())

	if strings.HasPrefix(r.Header.Get("Content-Type"), "multipart/form-data") {
		if err := r.ParseMultipartForm(maxUploadSize); err != nil {
			writeError(w, http.StatusBadRequest, "invalid multipart payload")
			return
		}
		file, header, err := r.FormFile("file")
		if err != nil {
			writeError(w, http.StatusBadRequest, "missing file field")
			return
		}
		defer file.Close()

		session, err := h.svc.CreateFileSession(r.Context(), teamID, userID, header.Filename, file)
		if err != nil {
			writeError(w, http.StatusInternalServerError, err.Error())
			return
		}
		writeJSON(w, http.StatusCreated, session)
		return
	}

	var payload struct {
		DatabaseSource *domain.DatabaseSource `json:"database_source"`
	}
	if err := json.NewDecoder(r.Body).Decode(&payload); err != nil || payload.DatabaseSource == nil {
		writeError(w, http.StatusBadRequest, "expected a file upload or a database_source payload")
		return
	}

	session, err := h.svc.CreateDatabaseSession(r.Context(), teamID, userID, *payload.DatabaseSource)
	if err != nil {
		writeError(w, http.StatusBadRequest, err.Error())
		return
	}
	writeJSON(w, http.StatusCreated, session)
}

func (h *Handler) listSessions(w http.ResponseWriter, r *http.Request) {
	teamID, ok := auth.TeamIDFromContext(r.Context())
	if !ok {
		writeError(w, http.StatusUnauthorized, "team scope is required")
		return
	}

	limit, offset := pagination(r)
	sessions, err := h.svc.ListSessions(r.Context(), teamID, limit, offset)
	if err != nil {
		writeError(w, http.StatusInternalServerError, err.Error())
		return
	}
	writeJSON(w, http.StatusOK, map[string]any{"sessions": sessions})
}

func (h *Handler) getSession(w http.ResponseWriter, r *http.Request) {
	session, ok := h.scopedSession(w, r)
	if !ok {
		return
	}

	stats, err := h.svc.Stats(r.Context(), session.ID)
	if err != nil {
		writeError(w, http.StatusInternalServerError, err.Error())
		return
	}
	writeJSON(w, http.StatusOK, stats)
}

func (h *Handler) deleteSession(w http.ResponseWriter, r *http.Request) {
	session, ok := h.scopedSession(w, r)
	if !ok {
		return
	}

	if err := h.svc.DeleteSession(r.Context(), session.ID); err != nil {
		writeError(w, http.StatusInternalServerError, err.Error())
		return
	}
	w.WriteHeader(http.StatusNoContent)
}

func (h *Handler) suggestMappings(w http.ResponseWriter, r *http.Request) {
	session, ok := h.scopedSession(w, r)
	if !ok {
		return
	}

	suggestions, err := h.svc.SuggestMappings(r.Context(), session.ID)
	if err != nil {
		writeError(w, http.StatusUnprocessableEntity, err.Error())
		return
	}
	writeJSON(w, http.StatusOK, suggestions)
}

func (h *Handler) analyze(w http.ResponseWriter, r *http.Request) {
	session, ok := h.scopedSession(w, r)
	if !ok {
		return
	}

	analyzed, err := h.svc.Analyze(r.Context(), session.ID)
	if err != nil {
		writeError(w, http.StatusUnprocessableEntity, err.Error())
		return
	}
	writeJSON(w, http.StatusOK, analyzed)
}

func (h *Handler) updateMapping(w http.ResponseWriter, r *http.Request) {
	session, ok := h.scopedSession(w, r)
	if !ok {
		return
	}

	var payload struct {
		MappingID      *uuid.UUID             `json:"mapping_id"`
		ColumnMappings []domain.ColumnMapping `json:"column_mappings"`
		DefaultValues  map[string]string      `json:"default_values"`
		SaveAs         string                 `json:"save_as"`
	}
	if err := json.NewDecoder(r.Body).Decode(&payload); err != nil {
		writeError(w, http.StatusBadRequest, "invalid JSON payload")
		return
	}

	var updated domain.ImportSession
	var err error
	if payload.MappingID != nil {
		updated, err = h.svc.ApplySavedMapping(r.Context(), session.ID, *payload.MappingID)
	} else {
		updated, err = h.svc.UpdateMappings(r.Context(), session.ID, payload.ColumnMappings, payload.DefaultValues, payload.SaveAs)
	}
	if err != nil {
		writeError(w, http.StatusUnprocessableEntity, err.Error())
		return
	}
	writeJSON(w, http.StatusOK, updated)
}

func (h *Handler) start(w http.ResponseWriter, r *http.Request) {
	session, ok := h.scopedSession(w, r)
	if !ok {
		return
	}

	started, err := h.svc.Start(r.Context(), session.ID)
	if err != nil {
		writeError(w, http.StatusUnprocessableEntity, err.Error())
		return
	}
	writeJSON(w, http.StatusOK, started)
}

func (h *Handler) process(w http.ResponseWriter, r *http.Request) {
	session, ok := h.scopedSession(w, r)
	if !ok {
		return
	}

	limit, offset := 0, 0
	if raw := r.URL.Query().Get("limit"); raw != "" {
		if parsed, err := strconv.Atoi(raw); err == nil && parsed > 0 {
			limit = parsed
		}
	}
	if raw := r.URL.Query().Get("offset"); raw != "" {
		if parsed, err := strconv.Atoi(raw); err == nil && parsed >= 0 {
			offset = parsed
		}
	}

	result, err := h.svc.ProcessBatch(r.Context(), session.ID, offset, limit)
	if err != nil {
		writeError(w, http.StatusUnprocessableEntity, err.Error())
		return
	}
	writeJSON(w, http.StatusOK, result)
}

func (h *Handler) listRows(w http.ResponseWriter, r *http.Request) {
	session, ok := h.scopedSession(w, r)
	if !ok {
		return
	}

	var status *domain.RowStatus
	if raw := r.URL.Query().Get("status"); raw != "" {
		candidate := domain.RowStatus(raw)
		if !domain.ValidRowStatus(candidate) {
			writeError(w, http.StatusBadRequest, fmt.Sprintf("unknown row status: %s", raw))
			return
		}
		status = &candidate
	}

	limit, offset := pagination(r)
	rows, err := h.svc.ListRows(r.Context(), session.ID, status, limit, offset)
	if err != nil {
		writeError(w, http.StatusInternalServerError, err.Error())
		return
	}
	writeJSON(w, http.StatusOK, map[string]any{"rows": rows})
}

func (h *Handler) importRow(w http.ResponseWriter, r *http.Request) {
	session, ok := h.scopedSession(w, r)
	if !ok {
		return
	}

	rowID, err := uuid.Parse(r.PathValue("rowID"))
	if err != nil {
		writeError(w, http.StatusBadRequest, "invalid row id")
		return
	}

	var payload struct {
		Action string `json:"action"`
	}
	if err := json.NewDecoder(r.Body).Decode(&payload); err != nil {
		writeError(w, http.StatusBadRequest, "invalid JSON payload")
		return
	}

	row, err := h.svc.ImportRow(r.Context(), rowID, payload.Action)
	if err != nil {
		writeError(w, http.StatusUnprocessableEntity, err.Error())
		return
	}
	if row.SessionID != session.ID {
		writeError(w, http.StatusNotFound, "row does not belong to this session")
		return
	}
	writeJSON(w, http.StatusOK, row)
}

func (h *Handler) importValid(w http.ResponseWriter, r *http.Request) {
	session, ok := h.scopedSession(w, r)
	if !ok {
		return
	}

	imported, err := h.svc.ImportValidRows(r.Context(), session.ID)
	if err != nil {
		writeError(w, http.StatusInternalServerError, err.Error())
		return
	}
	writeJSON(w, http.StatusOK, map[string]any{"imported": imported})
}

func (h *Handler) stats(w http.ResponseWriter, r *http.Request) {
	session, ok := h.scopedSession(w, r)
	if !ok {
		return
	}

	stats, err := h.svc.Stats(r.Context(), session.ID)
	if err != nil {
		writeError(w, http.StatusInternalServerError, err.Error())
		return
	}
	writeJSON(w, http.StatusOK, stats)
}

func (h *Handler) auditTrail(w http.ResponseWriter, r *http.Request) {
	session, ok := h.scopedSession(w, r)
	if !ok {
		return
	}

	limit, offset := pagination(r)
	entries, err := h.svc.AuditTrail(r.Context(), session.ID, limit, offset)
	if err != nil {
		writeError(w, http.StatusInternalServerError, err.Error())
		return
	}
	writeJSON(w, http.StatusOK, map[string]any{"entries": entries})
}

func (h *Handler) listMappings(w http.ResponseWriter, r *http.Request) {
	teamID, ok := auth.TeamIDFromContext(r.Context())
	if !ok {
		writeError(w, http.StatusUnauthorized, "team scope is required")
		return
	}

	mappings, err := h.svc.ListMappings(r.Context(), teamID)
	if err != nil {
		writeError(w, http.StatusInternalServerError, err.Error())
		return
	}
	writeJSON(w, http.StatusOK, map[string]any{"mappings": mappings})
}

func (h *Handler) deleteMapping(w http.ResponseWriter, r *http.Request) {
	id, err := uuid.Parse(r.PathValue("id"))
	if err != nil {
		writeError(w, http.StatusBadRequest, "invalid mapping id")
		return
	}
	if err := h.svc.DeleteMapping(r.Context(), id); err != nil {
		writeError(w, http.StatusNotFound, err.Error())
		return
	}
	w.WriteHeader(http.StatusNoContent)
}

func (h *Handler) testConnection(w http.ResponseWriter, r *http.Request) {
	src, ok := decodeSource(w, r)
	if !ok {
		return
	}
	writeJSON(w, http.StatusOK, h.connector.TestConnection(r.Context(), src))
}

func (h *Handler) listTables(w http.ResponseWriter, r *http.Request) {
	src, ok := decodeSource(w, r)
	if !ok {
		return
	}
	tables, err := h.connector.ListTables(r.Context(), src)
	if err != nil {
		writeError(w, http.StatusUnprocessableEntity, err.Error())
		return
	}
	writeJSON(w, http.StatusOK, map[string]any{"tables": tables})
}

func (h *Handler) listColumns(w http.ResponseWriter, r *http.Request) {
	src, ok := decodeSource(w, r)
	if !ok {
		return
	}
	columns, err := h.connector.ListColumns(r.Context(), src, src.Table)
	if err != nil {
		writeError(w, http.StatusUnprocessableEntity, err.Error())
		return
	}
	writeJSON(w, http.StatusOK, map[string]any{"columns": columns})
}

func (h *Handler) previewTable(w http.ResponseWriter, r *http.Request) {
	src, ok := decodeSource(w, r)
	if !ok {
		return
	}

	limit, offset := pagination(r)
	data, err := h.connector.FetchTableData(r.Context(), src, src.Table, offset, limit)
	if err != nil {
		writeError(w, http.StatusUnprocessableEntity, err.Error())
		return
	}
	writeJSON(w, http.StatusOK, data)
}

// scopedSession loads the session from the path and enforces team scope.
func (h *Handler) scopedSession(w http.ResponseWriter, r *http.Request) (domain.ImportSession, bool) {
	id, err := uuid.Parse(r.PathValue("id"))
	if err != nil {
		writeError(w, http.StatusBadRequest, "invalid session id")
		return domain.ImportSession{}, false
	}

	session, err := h.svc.GetSession(r.Context(), id)
	if err != nil {
		writeError(w, http.StatusNotFound, err.Error())
		return domain.ImportSession{}, false
	}

	if err := auth.EnforceTeamScope(r.Context(), session.TeamID); err != nil {
		writeError(w, http.StatusForbidden, err.Error())
		return domain.ImportSession{}, false
	}

	return session, true
}

func decodeSource(w http.ResponseWriter, r *http.Request) (domain.DatabaseSource, bool) {
	var src domain.DatabaseSource
	if err := json.NewDecoder(r.Body).Decode(&src); err != nil {
		writeError(w, http.StatusBadRequest, "invalid JSON payload")
		return domain.DatabaseSource{}, false
	}
	return src, true
}

func pagination(r *http.Request) (limit, offset int) {
	limit = 50
	if raw := r.URL.Query().Get("limit"); raw != "" {
		if parsed, err := strconv.Atoi(raw); err == nil && parsed > 0 {
			limit = parsed
		}
	}
	if raw := r.URL.Query().Get("offset"); raw != "" {
		if parsed, err := strconv.Atoi(raw); err == nil && parsed >= 0 {
			offset = parsed
		}
	}
	return limit, offset
}

func writeJSON(w http.ResponseWriter, status int, payload any) {
	w.Header().Set("Content-Type", "application/json")
	w.WriteHeader(status)
	encoder := json.NewEncoder(w)
	encoder.SetIndent("", "  ")
	_ = encoder.Encode(payload)
}

func writeError(w http.ResponseWriter, status int, message string) {
	writeJSON(w, status, map[string]string{"error": message})
}
