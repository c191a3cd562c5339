/*
handlers.go - HTTP API handlers for the attendance and cost ledger

PURPOSE:
  Exposes the ledger engine via REST API. Handles HTTP request/response,
  JSON serialization and validation, and delegates to the engine.

ENDPOINTS:
  Master data:
    GET    /api/workers                    List workers (?all=true includes deleted)
    POST   /api/workers                    Create or update a worker
    DELETE /api/workers/{id}               Soft-delete a worker
    (same shape for /api/groups, /api/activities, /api/areas)

  Rosters:
    GET    /api/months/{month}/roster      Workers assigned to a month
    PUT    /api/months/{month}/roster      Replace the month roster

  Attendance (attendance.go):
    GET    /api/months/{month}/instances                   Group sheets of a month
    POST   /api/months/{month}/groups/{groupID}            Activate a group
    GET    /api/months/{month}/groups/{groupID}            One group sheet
    POST   /api/months/{month}/groups/{groupID}/marks/cycle Advance a mark
    PUT    /api/months/{month}/groups/{groupID}/marks      Set a mark directly
    PUT    /api/months/{month}/groups/{groupID}/days/{date}/tags
    GET    /api/months/{month}/cap-violations

  Expenses and payments (expenses.go), reports and balances (reports.go),
  scenarios and import/export (scenarios.go).

ARCHITECTURE:
  Handler holds the Store and nothing else of substance. Every request
  loads a fresh snapshot, runs an engine computation or matrix write on
  it, and saves back only the records it changed. Writes hold h.mu for
  the whole load-modify-save sequence.

ERROR HANDLING:
  Errors are returned as JSON with appropriate HTTP status:
  - 400: Malformed JSON, failed validation (details: field -> tag), bad
         month/day keys, bad status codes
  - 404: Unknown or deleted worker, group, instance, expense, payment
  - 409: Writes against inactive groups
  - 500: Store failures (logged with the request id)

SECURITY NOTE:
  No authentication. All endpoints are public.

SEE ALSO:
  - dto.go: Request/response data structures
  - server.go: Router setup and middleware
*/
package api

import (
	"encoding/json"
	"errors"
	"io"
	"net/http"
	"reflect"
	"sort"
	"strings"
	"sync"

	"github.com/bijoor/farm-attendance-sub000/engine"
	"github.com/bijoor/farm-attendance-sub000/factory"
	"github.com/go-chi/chi/v5"
	"github.com/go-chi/chi/v5/middleware"
	"github.com/go-playground/validator/v10"
	"github.com/google/uuid"
	"github.com/shopspring/decimal"
	"github.com/sirupsen/logrus"
)

// =============================================================================
// HANDLER CONTEXT
// =============================================================================

// Handler holds all dependencies for HTTP handlers.
type Handler struct {
	Store   engine.Store
	Factory *factory.SnapshotFactory
	Log     logrus.FieldLogger

	validate *validator.Validate

	// mu serializes load-modify-save sequences.
	mu sync.Mutex

	// Track currently loaded scenario
	currentScenario string
}

// NewHandler creates a handler over the given store. A nil logger
// discards everything.
func NewHandler(store engine.Store, log logrus.FieldLogger) *Handler {
	if log == nil {
		l := logrus.New()
		l.SetOutput(io.Discard)
		log = l
	}
	return &Handler{
		Store:    store,
		Factory:  factory.NewSnapshotFactory(),
		Log:      log,
		validate: newValidator(),
	}
}

func newValidator() *validator.Validate {
	v := validator.New()

	// Report JSON field names, not Go field names.
	v.RegisterTagNameFunc(func(fld reflect.StructField) string {
		name := strings.SplitN(fld.Tag.Get("json"), ",", 2)[0]
		if name == "-" {
			return ""
		}
		return name
	})

	_ = v.RegisterValidation("monthkey", func(fl validator.FieldLevel) bool {
		return engine.MonthKey(fl.Field().String()).Valid()
	})
	_ = v.RegisterValidation("daykey", func(fl validator.FieldLevel) bool {
		return engine.DayKey(fl.Field().String()).Valid()
	})
	_ = v.RegisterValidation("money", func(fl validator.FieldLevel) bool {
		d, err := decimal.NewFromString(fl.Field().String())
		return err == nil && !d.IsNegative()
	})
	_ = v.RegisterValidation("positive", func(fl validator.FieldLevel) bool {
		d, err := decimal.NewFromString(fl.Field().String())
		return err == nil && d.IsPositive()
	})
	_ = v.RegisterValidation("mark", func(fl validator.FieldLevel) bool {
		_, err := engine.ParseStatus(fl.Field().String())
		return err == nil
	})
	return v
}

// =============================================================================
// WORKER HANDLERS
// =============================================================================

// ListWorkers returns workers sorted by name.
func (h *Handler) ListWorkers(w http.ResponseWriter, r *http.Request) {
	snap, ok := h.load(w, r)
	if !ok {
		return
	}

	workers := snap.LiveWorkers()
	if includeDeleted(r) {
		workers = append([]engine.Worker(nil), snap.Workers...)
		sort.Slice(workers, func(i, j int) bool {
			return workers[i].DisplayName() < workers[j].DisplayName()
		})
	}

	dtos := make([]WorkerDTO, len(workers))
	for i, wk := range workers {
		dtos[i] = toWorkerDTO(wk)
	}
	writeJSON(w, http.StatusOK, dtos)
}

// SaveWorker creates a worker, or updates it when the id exists.
// A rate change applies to every past mark on the next report.
func (h *Handler) SaveWorker(w http.ResponseWriter, r *http.Request) {
	var req SaveWorkerRequest
	if !h.decode(w, r, &req) {
		return
	}

	h.mu.Lock()
	defer h.mu.Unlock()

	snap, ok := h.load(w, r)
	if !ok {
		return
	}

	worker := engine.Worker{
		ID:        engine.WorkerID(req.ID),
		Name:      req.Name,
		LocalName: req.LocalName,
		DailyRate: decimal.RequireFromString(req.DailyRate),
		State:     engine.State(stateOf(engine.State(req.State))),
	}
	status := http.StatusOK
	if worker.ID == "" {
		worker.ID = engine.WorkerID(uuid.NewString())
	}
	if existing, found := snap.Worker(worker.ID); !found || existing.Deleted {
		status = http.StatusCreated
	}

	if err := h.Store.SaveWorker(r.Context(), worker); err != nil {
		h.fail(w, r, "Failed to save worker", err)
		return
	}
	writeJSON(w, status, toWorkerDTO(worker))
}

// DeleteWorker soft-deletes a worker. Past marks stay but stop costing.
func (h *Handler) DeleteWorker(w http.ResponseWriter, r *http.Request) {
	h.mu.Lock()
	defer h.mu.Unlock()

	snap, ok := h.load(w, r)
	if !ok {
		return
	}

	id := engine.WorkerID(chi.URLParam(r, "id"))
	worker, found := snap.Worker(id)
	if !found || worker.Deleted {
		h.fail(w, r, "Worker not found", &engine.ReferenceError{Kind: engine.RefWorker, ID: string(id)})
		return
	}
	worker.Deleted = true
	if err := h.Store.SaveWorker(r.Context(), worker); err != nil {
		h.fail(w, r, "Failed to delete worker", err)
		return
	}
	w.WriteHeader(http.StatusNoContent)
}

// =============================================================================
// GROUP HANDLERS
// =============================================================================

// ListGroups returns groups in display order.
func (h *Handler) ListGroups(w http.ResponseWriter, r *http.Request) {
	snap, ok := h.load(w, r)
	if !ok {
		return
	}

	groups := snap.LiveGroups()
	if includeDeleted(r) {
		groups = append([]engine.Group(nil), snap.Groups...)
		sort.SliceStable(groups, func(i, j int) bool { return groups[i].Order < groups[j].Order })
	}

	dtos := make([]GroupDTO, len(groups))
	for i, g := range groups {
		dtos[i] = toGroupDTO(g)
	}
	writeJSON(w, http.StatusOK, dtos)
}

func (h *Handler) SaveGroup(w http.ResponseWriter, r *http.Request) {
	var req SaveGroupRequest
	if !h.decode(w, r, &req) {
		return
	}

	h.mu.Lock()
	defer h.mu.Unlock()

	snap, ok := h.load(w, r)
	if !ok {
		return
	}

	group := engine.Group{
		ID:        engine.GroupID(req.ID),
		Name:      req.Name,
		LocalName: req.LocalName,
		Order:     req.Order,
		State:     engine.State(stateOf(engine.State(req.State))),
	}
	if group.ID == "" {
		group.ID = engine.GroupID(uuid.NewString())
	}
	status := http.StatusOK
	if existing, found := snap.Group(group.ID); !found || existing.Deleted {
		status = http.StatusCreated
	}

	if err := h.Store.SaveGroup(r.Context(), group); err != nil {
		h.fail(w, r, "Failed to save group", err)
		return
	}
	writeJSON(w, status, toGroupDTO(group))
}

// DeleteGroup soft-deletes a group. Its instances, expenses and payments
// drop out of every report and its balance queries return 404.
func (h *Handler) DeleteGroup(w http.ResponseWriter, r *http.Request) {
	h.mu.Lock()
	defer h.mu.Unlock()

	snap, ok := h.load(w, r)
	if !ok {
		return
	}

	id := engine.GroupID(chi.URLParam(r, "id"))
	group, found := snap.Group(id)
	if !found || group.Deleted {
		h.fail(w, r, "Group not found", &engine.ReferenceError{Kind: engine.RefGroup, ID: string(id)})
		return
	}
	group.Deleted = true
	if err := h.Store.SaveGroup(r.Context(), group); err != nil {
		h.fail(w, r, "Failed to delete group", err)
		return
	}
	w.WriteHeader(http.StatusNoContent)
}

// =============================================================================
// ACTIVITY AND AREA HANDLERS
// =============================================================================

func (h *Handler) ListActivities(w http.ResponseWriter, r *http.Request) {
	snap, ok := h.load(w, r)
	if !ok {
		return
	}
	dtos := []TagDTO{}
	for _, a := range snap.Activities {
		if !a.Deleted || includeDeleted(r) {
			dtos = append(dtos, TagDTO{Code: a.Code, Name: a.Name, Deleted: a.Deleted})
		}
	}
	writeJSON(w, http.StatusOK, dtos)
}

func (h *Handler) SaveActivity(w http.ResponseWriter, r *http.Request) {
	var req SaveTagRequest
	if !h.decode(w, r, &req) {
		return
	}
	a := engine.Activity{Code: req.Code, Name: req.Name}
	if err := h.Store.SaveActivity(r.Context(), a); err != nil {
		h.fail(w, r, "Failed to save activity", err)
		return
	}
	writeJSON(w, http.StatusCreated, TagDTO{Code: a.Code, Name: a.Name})
}

func (h *Handler) DeleteActivity(w http.ResponseWriter, r *http.Request) {
	h.mu.Lock()
	defer h.mu.Unlock()

	snap, ok := h.load(w, r)
	if !ok {
		return
	}
	code := chi.URLParam(r, "code")
	for _, a := range snap.Activities {
		if a.Code == code && !a.Deleted {
			a.Deleted = true
			if err := h.Store.SaveActivity(r.Context(), a); err != nil {
				h.fail(w, r, "Failed to delete activity", err)
				return
			}
			w.WriteHeader(http.StatusNoContent)
			return
		}
	}
	writeError(w, http.StatusNotFound, "Activity not found", nil)
}

func (h *Handler) ListAreas(w http.ResponseWriter, r *http.Request) {
	snap, ok := h.load(w, r)
	if !ok {
		return
	}
	dtos := []TagDTO{}
	for _, a := range snap.Areas {
		if !a.Deleted || includeDeleted(r) {
			dtos = append(dtos, TagDTO{Code: a.Code, Name: a.Name, Deleted: a.Deleted})
		}
	}
	writeJSON(w, http.StatusOK, dtos)
}

func (h *Handler) SaveArea(w http.ResponseWriter, r *http.Request) {
	var req SaveTagRequest
	if !h.decode(w, r, &req) {
		return
	}
	a := engine.Area{Code: req.Code, Name: req.Name}
	if err := h.Store.SaveArea(r.Context(), a); err != nil {
		h.fail(w, r, "Failed to save area", err)
		return
	}
	writeJSON(w, http.StatusCreated, TagDTO{Code: a.Code, Name: a.Name})
}

func (h *Handler) DeleteArea(w http.ResponseWriter, r *http.Request) {
	h.mu.Lock()
	defer h.mu.Unlock()

	snap, ok := h.load(w, r)
	if !ok {
		return
	}
	code := chi.URLParam(r, "code")
	for _, a := range snap.Areas {
		if a.Code == code && !a.Deleted {
			a.Deleted = true
			if err := h.Store.SaveArea(r.Context(), a); err != nil {
				h.fail(w, r, "Failed to delete area", err)
				return
			}
			w.WriteHeader(http.StatusNoContent)
			return
		}
	}
	writeError(w, http.StatusNotFound, "Area not found", nil)
}

// =============================================================================
// ROSTER HANDLERS
// =============================================================================

// GetRoster returns the workers assigned to a month. Without a saved
// roster every active worker is listed.
func (h *Handler) GetRoster(w http.ResponseWriter, r *http.Request) {
	month, err := engine.ParseMonthKey(chi.URLParam(r, "month"))
	if err != nil {
		h.fail(w, r, "Invalid month", err)
		return
	}
	snap, ok := h.load(w, r)
	if !ok {
		return
	}

	ids, explicit := snap.Rosters[month]
	if !explicit {
		ids = snap.Roster(&engine.MonthGroupInstance{Month: month})
	}
	dto := RosterDTO{Month: string(month), WorkerIDs: []string{}, Explicit: explicit}
	for _, id := range ids {
		dto.WorkerIDs = append(dto.WorkerIDs, string(id))
	}
	writeJSON(w, http.StatusOK, dto)
}

// SaveRoster replaces the month roster. Unknown worker ids are rejected.
func (h *Handler) SaveRoster(w http.ResponseWriter, r *http.Request) {
	month, err := engine.ParseMonthKey(chi.URLParam(r, "month"))
	if err != nil {
		h.fail(w, r, "Invalid month", err)
		return
	}
	var req SaveRosterRequest
	if !h.decode(w, r, &req) {
		return
	}

	h.mu.Lock()
	defer h.mu.Unlock()

	snap, ok := h.load(w, r)
	if !ok {
		return
	}

	ids := make([]engine.WorkerID, 0, len(req.WorkerIDs))
	for _, raw := range req.WorkerIDs {
		id := engine.WorkerID(raw)
		if wk, found := snap.Worker(id); !found || wk.Deleted {
			h.fail(w, r, "Unknown worker in roster", &engine.ReferenceError{Kind: engine.RefWorker, ID: raw})
			return
		}
		ids = append(ids, id)
	}
	if err := h.Store.SaveRoster(r.Context(), month, ids); err != nil {
		h.fail(w, r, "Failed to save roster", err)
		return
	}
	writeJSON(w, http.StatusOK, RosterDTO{Month: string(month), WorkerIDs: req.WorkerIDs, Explicit: true})
}

// =============================================================================
// HELPERS
// =============================================================================

// load fetches a snapshot, writing a 500 on failure.
func (h *Handler) load(w http.ResponseWriter, r *http.Request) (*engine.Snapshot, bool) {
	snap, err := h.Store.LoadSnapshot(r.Context())
	if err != nil {
		h.fail(w, r, "Failed to load data", err)
		return nil, false
	}
	return snap, true
}

// decode reads a JSON body into dst and validates it. An empty body
// decodes as an empty object.
func (h *Handler) decode(w http.ResponseWriter, r *http.Request, dst any) bool {
	if err := json.NewDecoder(r.Body).Decode(dst); err != nil && !errors.Is(err, io.EOF) {
		writeError(w, http.StatusBadRequest, "Invalid request body", err)
		return false
	}
	if err := h.validate.Struct(dst); err != nil {
		var ve validator.ValidationErrors
		if errors.As(err, &ve) {
			writeJSON(w, http.StatusBadRequest, ErrorResponse{
				Error:   "Validation failed",
				Details: validationDetails(ve),
			})
			return false
		}
		writeError(w, http.StatusBadRequest, "Invalid request", err)
		return false
	}
	return true
}

// validationDetails maps each failed field to the tag it failed.
func validationDetails(errs validator.ValidationErrors) map[string]string {
	out := make(map[string]string, len(errs))
	for _, ve := range errs {
		out[ve.Field()] = ve.Tag()
	}
	return out
}

// fail writes an error response with a status derived from the error.
// Only unexpected errors are logged.
func (h *Handler) fail(w http.ResponseWriter, r *http.Request, message string, err error) {
	switch {
	case engine.IsNotFound(err):
		writeError(w, http.StatusNotFound, message, err)
	case engine.IsClientError(err):
		writeError(w, http.StatusBadRequest, message, err)
	default:
		h.Log.WithFields(logrus.Fields{
			"request_id": middleware.GetReqID(r.Context()),
			"method":     r.Method,
			"path":       r.URL.Path,
		}).WithError(err).Error(message)
		writeError(w, http.StatusInternalServerError, message, err)
	}
}

func includeDeleted(r *http.Request) bool {
	return r.URL.Query().Get("all") == "true"
}

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
