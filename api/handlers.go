/*
handlers.go - HTTP API handlers for the productivity attribution engine

PURPOSE:
  Exposes report generation and the worker data it reads via REST API.
  Handles HTTP request/response, JSON serialization, and delegates to the
  attribution engine and store.

ENDPOINTS:
  Workers:
    GET    /api/workers                   List all workers
    POST   /api/workers                   Create or replace a worker
    GET    /api/workers/{id}              Get worker details
    POST   /api/workers/{id}/changes      Append a region / work status change
    GET    /api/workers/{id}/history      Resolved periods (?field=&start=&end=)
    POST   /api/workers/{id}/overrides    Set a worker-specific weekly target

  Daily summaries:
    POST   /api/daily-summaries           Upsert one summary or an array

  Reports:
    POST   /api/reports                   Generate a report
    POST   /api/reports/trend             One report per week / month / year
    GET    /api/reports/runs              Scheduled report runs (?limit=)

  Scenarios:
    GET    /api/scenarios                 List demo datasets
    POST   /api/scenarios/load            Load a demo dataset

REQUEST FLOW:
  1. Parse HTTP request into a *Request DTO
  2. Convert to domain types (date parsing)
  3. Call the store or engine
  4. Round and serialize the response
  5. Map errors to HTTP status

ERROR HANDLING:
  Errors are returned as JSON with appropriate HTTP status:
  - 400: Invalid input, invalid report window
  - 404: Worker not found
  - 500: Internal errors
  Degradations (history gaps, leave service down) are not errors: they
  come back as warnings / leave_degraded on a 200 report.

SEE ALSO:
  - dto.go: Request/response data structures
  - scenarios.go: Demo dataset loaders
  - server.go: Router setup and middleware
*/
package api

import (
	"bytes"
	"encoding/json"
	"fmt"
	"log/slog"
	"net/http"
	"strconv"

	"github.com/go-chi/chi/v5"
	"github.com/warp/productivity-engine/attribution"
	"github.com/warp/productivity-engine/generic"
)

// =============================================================================
// HANDLER CONTEXT
// =============================================================================

// Store is everything the API reads and writes.
type Store interface {
	attribution.Store
	attribution.Writer
	attribution.RunStore
}

// Handler holds all dependencies for HTTP handlers.
type Handler struct {
	Store  Store
	Engine *attribution.Engine
	Logger *slog.Logger
}

// NewHandler creates a new handler.
func NewHandler(store Store, engine *attribution.Engine, logger *slog.Logger) *Handler {
	if logger == nil {
		logger = slog.Default()
	}
	return &Handler{
		Store:  store,
		Engine: engine,
		Logger: logger.With(slog.String("component", "api")),
	}
}

const defaultRunLimit = 20

// =============================================================================
// WORKER HANDLERS
// =============================================================================

// ListWorkers returns all workers.
func (h *Handler) ListWorkers(w http.ResponseWriter, r *http.Request) {
	workers, err := h.Store.ListWorkers(r.Context())
	if err != nil {
		h.writeDomainError(w, "Failed to list workers", err)
		return
	}

	dtos := make([]WorkerDTO, len(workers))
	for i, wk := range workers {
		dtos[i] = toWorkerDTO(wk)
	}
	writeJSON(w, http.StatusOK, dtos)
}

// GetWorker returns a single worker.
func (h *Handler) GetWorker(w http.ResponseWriter, r *http.Request) {
	worker, err := h.Store.GetWorker(r.Context(), chi.URLParam(r, "id"))
	if err != nil {
		h.writeDomainError(w, "Failed to get worker", err)
		return
	}
	writeJSON(w, http.StatusOK, toWorkerDTO(worker))
}

// CreateWorker creates or replaces a worker.
func (h *Handler) CreateWorker(w http.ResponseWriter, r *http.Request) {
	var req CreateWorkerRequest
	if err := json.NewDecoder(r.Body).Decode(&req); err != nil {
		writeError(w, http.StatusBadRequest, "Invalid request body", err)
		return
	}

	worker, err := req.ToWorker()
	if err != nil {
		h.writeDomainError(w, "Invalid worker", err)
		return
	}
	if err := h.Store.SaveWorker(r.Context(), worker); err != nil {
		h.writeDomainError(w, "Failed to save worker", err)
		return
	}

	saved, err := h.Store.GetWorker(r.Context(), worker.ID)
	if err != nil {
		h.writeDomainError(w, "Failed to read back worker", err)
		return
	}
	writeJSON(w, http.StatusCreated, toWorkerDTO(saved))
}

// AppendChange records a region or work status change.
func (h *Handler) AppendChange(w http.ResponseWriter, r *http.Request) {
	var req ChangeRequest
	if err := json.NewDecoder(r.Body).Decode(&req); err != nil {
		writeError(w, http.StatusBadRequest, "Invalid request body", err)
		return
	}

	rec, err := req.ToRecord(chi.URLParam(r, "id"))
	if err != nil {
		h.writeDomainError(w, "Invalid change", err)
		return
	}
	saved, err := h.Store.AppendChange(r.Context(), rec)
	if err != nil {
		h.writeDomainError(w, "Failed to append change", err)
		return
	}
	writeJSON(w, http.StatusCreated, toChangeRecordDTO(saved))
}

// GetHistory resolves one attribute of a worker across a window.
func (h *Handler) GetHistory(w http.ResponseWriter, r *http.Request) {
	ctx := r.Context()
	q := r.URL.Query()

	field := attribution.Field(q.Get("field"))
	if field == "" {
		field = attribution.FieldWorkStatus
	}
	if !field.Valid() {
		writeError(w, http.StatusBadRequest, "field must be region or work_status", nil)
		return
	}
	start, err := parseDate("start", q.Get("start"))
	if err != nil {
		h.writeDomainError(w, "Invalid window", err)
		return
	}
	end, err := parseDate("end", q.Get("end"))
	if err != nil {
		h.writeDomainError(w, "Invalid window", err)
		return
	}
	window := generic.Period{Start: start, End: end}

	worker, err := h.Store.GetWorker(ctx, chi.URLParam(r, "id"))
	if err != nil {
		h.writeDomainError(w, "Failed to get worker", err)
		return
	}
	records, err := h.Store.ChangeRecords(ctx, worker.ID, field)
	if err != nil {
		h.writeDomainError(w, "Failed to read change log", err)
		return
	}
	result, err := attribution.ResolveHistory(worker, field, window, records)
	if err != nil {
		h.writeDomainError(w, "Failed to resolve history", err)
		return
	}

	writeJSON(w, http.StatusOK, NewHistoryDTO(worker.ID, field, window, result))
}

// SaveOverride sets a worker-specific weekly target.
func (h *Handler) SaveOverride(w http.ResponseWriter, r *http.Request) {
	var req OverrideRequest
	if err := json.NewDecoder(r.Body).Decode(&req); err != nil {
		writeError(w, http.StatusBadRequest, "Invalid request body", err)
		return
	}

	o, err := req.ToOverride(chi.URLParam(r, "id"))
	if err != nil {
		h.writeDomainError(w, "Invalid override", err)
		return
	}
	saved, err := h.Store.SaveOverride(r.Context(), o)
	if err != nil {
		h.writeDomainError(w, "Failed to save override", err)
		return
	}
	writeJSON(w, http.StatusCreated, toOverrideDTO(saved))
}

// =============================================================================
// DAILY SUMMARY HANDLERS
// =============================================================================

// SaveDailySummaries upserts a single summary object or an array of them.
func (h *Handler) SaveDailySummaries(w http.ResponseWriter, r *http.Request) {
	var raw json.RawMessage
	if err := json.NewDecoder(r.Body).Decode(&raw); err != nil {
		writeError(w, http.StatusBadRequest, "Invalid request body", err)
		return
	}

	var reqs []DailySummaryRequest
	if trimmed := bytes.TrimSpace(raw); len(trimmed) > 0 && trimmed[0] == '[' {
		if err := json.Unmarshal(trimmed, &reqs); err != nil {
			writeError(w, http.StatusBadRequest, "Invalid request body", err)
			return
		}
	} else {
		var one DailySummaryRequest
		if err := json.Unmarshal(trimmed, &one); err != nil {
			writeError(w, http.StatusBadRequest, "Invalid request body", err)
			return
		}
		reqs = append(reqs, one)
	}

	for i, req := range reqs {
		ds, err := req.ToSummary()
		if err == nil {
			err = h.Store.SaveDailySummary(r.Context(), ds)
		}
		if err != nil {
			h.writeDomainError(w, fmt.Sprintf("Failed to save summary %d", i), err)
			return
		}
	}

	writeJSON(w, http.StatusCreated, map[string]int{"saved": len(reqs)})
}

// =============================================================================
// REPORT HANDLERS
// =============================================================================

// GenerateReport runs the engine for one window.
func (h *Handler) GenerateReport(w http.ResponseWriter, r *http.Request) {
	req, ok := h.decodeReportRequest(w, r)
	if !ok {
		return
	}

	report, err := h.Engine.Report(r.Context(), req)
	if err != nil {
		h.writeDomainError(w, "Failed to generate report", err)
		return
	}
	writeJSON(w, http.StatusOK, NewReportDTO(report))
}

// GenerateTrend runs one report per week, month or year of the window.
func (h *Handler) GenerateTrend(w http.ResponseWriter, r *http.Request) {
	req, ok := h.decodeReportRequest(w, r)
	if !ok {
		return
	}

	reports, err := h.Engine.Trend(r.Context(), req)
	if err != nil {
		h.writeDomainError(w, "Failed to generate trend", err)
		return
	}

	writeJSON(w, http.StatusOK, NewTrendDTO(req, reports))
}

// ListReportRuns returns the most recent scheduled runs.
func (h *Handler) ListReportRuns(w http.ResponseWriter, r *http.Request) {
	limit := defaultRunLimit
	if s := r.URL.Query().Get("limit"); s != "" {
		n, err := strconv.Atoi(s)
		if err != nil || n <= 0 {
			writeError(w, http.StatusBadRequest, "limit must be a positive integer", err)
			return
		}
		limit = n
	}

	runs, err := h.Store.ListReportRuns(r.Context(), limit)
	if err != nil {
		h.writeDomainError(w, "Failed to list report runs", err)
		return
	}

	dtos := make([]ReportRunDTO, len(runs))
	for i, run := range runs {
		dtos[i] = NewReportRunDTO(run)
	}
	writeJSON(w, http.StatusOK, dtos)
}

func (h *Handler) decodeReportRequest(w http.ResponseWriter, r *http.Request) (attribution.ReportRequest, bool) {
	var body ReportRequestDTO
	if err := json.NewDecoder(r.Body).Decode(&body); err != nil {
		writeError(w, http.StatusBadRequest, "Invalid request body", err)
		return attribution.ReportRequest{}, false
	}
	req, err := body.ToRequest()
	if err != nil {
		h.writeDomainError(w, "Invalid report request", err)
		return attribution.ReportRequest{}, false
	}
	return req, true
}

// =============================================================================
// HELPERS
// =============================================================================

func writeJSON(w http.ResponseWriter, status int, data any) {
	w.Header().Set("Content-Type", "application/json")
	w.WriteHeader(status)
	json.NewEncoder(w).Encode(data)
}

func writeError(w http.ResponseWriter, status int, message string, err error) {
	resp := ErrorResponse{Error: message}
	if err != nil {
		resp.Details = err.Error()
	}
	writeJSON(w, status, resp)
}

// writeDomainError picks the status from the error's sentinel.
func (h *Handler) writeDomainError(w http.ResponseWriter, message string, err error) {
	switch {
	case generic.IsNotFound(err):
		writeError(w, http.StatusNotFound, message, err)
	case generic.IsClientError(err):
		writeError(w, http.StatusBadRequest, message, err)
	default:
		h.Logger.Error(message, slog.Any("error", err))
		writeError(w, http.StatusInternalServerError, message, err)
	}
}
