package api

import (
	"net/http"
	"sort"

	"github.com/bijoor/farm-attendance-sub000/engine"
	"github.com/go-chi/chi/v5"
	"github.com/sirupsen/logrus"
)

// =============================================================================
// GROUP SHEETS
// =============================================================================

// ListInstances returns every group sheet of a month in group order.
// GET /api/months/{month}/instances
func (h *Handler) ListInstances(w http.ResponseWriter, r *http.Request) {
	month, err := engine.ParseMonthKey(chi.URLParam(r, "month"))
	if err != nil {
		h.fail(w, r, "Invalid month", err)
		return
	}
	snap, ok := h.load(w, r)
	if !ok {
		return
	}

	dtos := []InstanceDTO{}
	for _, mi := range snap.Matrix().Month(month) {
		if g, found := snap.Group(mi.GroupID); !found || g.Deleted {
			continue
		}
		dtos = append(dtos, toInstanceDTO(snap, mi))
	}
	sort.SliceStable(dtos, func(i, j int) bool {
		if dtos[i].Order != dtos[j].Order {
			return dtos[i].Order < dtos[j].Order
		}
		return dtos[i].GroupID < dtos[j].GroupID
	})
	writeJSON(w, http.StatusOK, dtos)
}

// GetInstance returns one group sheet.
// GET /api/months/{month}/groups/{groupID}
func (h *Handler) GetInstance(w http.ResponseWriter, r *http.Request) {
	snap, ok := h.load(w, r)
	if !ok {
		return
	}
	mi, err := instanceFromPath(snap, r)
	if err != nil {
		h.fail(w, r, "Group sheet not found", err)
		return
	}
	writeJSON(w, http.StatusOK, toInstanceDTO(snap, mi))
}

// ActivateInstance opens a group's sheet for a month. Activating twice
// returns the existing sheet; a worker subset in the body replaces the
// sheet's subset.
// POST /api/months/{month}/groups/{groupID}
func (h *Handler) ActivateInstance(w http.ResponseWriter, r *http.Request) {
	month, err := engine.ParseMonthKey(chi.URLParam(r, "month"))
	if err != nil {
		h.fail(w, r, "Invalid month", err)
		return
	}
	var req ActivateRequest
	if !h.decode(w, r, &req) {
		return
	}

	h.mu.Lock()
	defer h.mu.Unlock()

	snap, ok := h.load(w, r)
	if !ok {
		return
	}

	groupID := engine.GroupID(chi.URLParam(r, "groupID"))
	group, found := snap.Group(groupID)
	if !found || group.Deleted {
		h.fail(w, r, "Group not found", &engine.ReferenceError{Kind: engine.RefGroup, ID: string(groupID)})
		return
	}
	if !group.IsActive() {
		writeError(w, http.StatusConflict, "Group is inactive", nil)
		return
	}

	m := snap.Matrix()
	created := m.InstanceFor(month, groupID) == nil
	mi, err := m.Activate(month, groupID)
	if err != nil {
		h.fail(w, r, "Failed to activate group", err)
		return
	}
	if req.WorkerIDs != nil {
		mi.WorkerIDs = make([]engine.WorkerID, len(req.WorkerIDs))
		for i, id := range req.WorkerIDs {
			mi.WorkerIDs[i] = engine.WorkerID(id)
		}
	}

	if created || req.WorkerIDs != nil {
		if err := h.Store.SaveInstance(r.Context(), mi); err != nil {
			h.fail(w, r, "Failed to save group sheet", err)
			return
		}
	}

	status := http.StatusOK
	if created {
		status = http.StatusCreated
		h.Log.WithFields(logrus.Fields{"month": month, "group_id": groupID}).Info("group activated")
	}
	writeJSON(w, status, toInstanceDTO(snap, mi))
}

// =============================================================================
// MARKS
// =============================================================================

// CycleMark advances a worker's mark by one step of the attendance ring,
// taking the worker's marks in the month's other groups into account.
// POST /api/months/{month}/groups/{groupID}/marks/cycle
func (h *Handler) CycleMark(w http.ResponseWriter, r *http.Request) {
	var req CycleMarkRequest
	if !h.decode(w, r, &req) {
		return
	}
	h.writeMark(w, r, engine.WorkerID(req.WorkerID), engine.DayKey(req.Date),
		func(m *engine.AttendanceMatrix, id engine.InstanceID, wid engine.WorkerID, day engine.DayKey) error {
			_, err := m.Cycle(id, wid, day)
			return err
		})
}

// SetMark writes a mark directly. The daily cap is not enforced; the
// response says whether the worker is now over it.
// PUT /api/months/{month}/groups/{groupID}/marks
func (h *Handler) SetMark(w http.ResponseWriter, r *http.Request) {
	var req SetMarkRequest
	if !h.decode(w, r, &req) {
		return
	}
	status, err := engine.ParseStatus(req.Status)
	if err != nil {
		h.fail(w, r, "Invalid status", err)
		return
	}
	h.writeMark(w, r, engine.WorkerID(req.WorkerID), engine.DayKey(req.Date),
		func(m *engine.AttendanceMatrix, id engine.InstanceID, wid engine.WorkerID, day engine.DayKey) error {
			return m.SetStatus(id, wid, day, status)
		})
}

type markWrite func(m *engine.AttendanceMatrix, id engine.InstanceID, wid engine.WorkerID, day engine.DayKey) error

func (h *Handler) writeMark(w http.ResponseWriter, r *http.Request, workerID engine.WorkerID, day engine.DayKey, write markWrite) {
	h.mu.Lock()
	defer h.mu.Unlock()

	snap, ok := h.load(w, r)
	if !ok {
		return
	}
	mi, err := instanceFromPath(snap, r)
	if err != nil {
		h.fail(w, r, "Group sheet not found", err)
		return
	}
	if wk, found := snap.Worker(workerID); !found || wk.Deleted {
		h.fail(w, r, "Worker not found", &engine.ReferenceError{Kind: engine.RefWorker, ID: string(workerID)})
		return
	}

	m := snap.Matrix()
	if err := write(m, mi.ID, workerID, day); err != nil {
		h.fail(w, r, "Failed to write mark", err)
		return
	}
	if err := h.Store.SaveDayEntry(r.Context(), mi.ID, *mi.Entry(day)); err != nil {
		h.fail(w, r, "Failed to save mark", err)
		return
	}

	dto := MarkDTO{
		InstanceID: string(mi.ID),
		WorkerID:   string(workerID),
		Date:       string(day),
		Status:     string(mi.Status(workerID, day)),
		DailyTotal: m.DailyTotal(workerID, day).String(),
		Exceeded:   m.Exceeded(workerID, day),
	}
	if dto.Exceeded {
		h.Log.WithFields(logrus.Fields{
			"worker_id":   workerID,
			"date":        day,
			"daily_total": dto.DailyTotal,
		}).Warn("daily attendance above one day")
	}
	writeJSON(w, http.StatusOK, dto)
}

// SetDayTags sets the activity and area of a group-day. Empty codes clear
// the tag; unknown codes are rejected.
// PUT /api/months/{month}/groups/{groupID}/days/{date}/tags
func (h *Handler) SetDayTags(w http.ResponseWriter, r *http.Request) {
	day, err := engine.ParseDayKey(chi.URLParam(r, "date"))
	if err != nil {
		h.fail(w, r, "Invalid date", err)
		return
	}
	var req SetDayTagsRequest
	if !h.decode(w, r, &req) {
		return
	}

	h.mu.Lock()
	defer h.mu.Unlock()

	snap, ok := h.load(w, r)
	if !ok {
		return
	}
	mi, err := instanceFromPath(snap, r)
	if err != nil {
		h.fail(w, r, "Group sheet not found", err)
		return
	}
	if req.Activity != "" && !hasActivity(snap, req.Activity) {
		writeError(w, http.StatusBadRequest, "Unknown activity code", nil)
		return
	}
	if req.Area != "" && !hasArea(snap, req.Area) {
		writeError(w, http.StatusBadRequest, "Unknown area code", nil)
		return
	}

	if err := snap.Matrix().SetDayTags(mi.ID, day, req.Activity, req.Area); err != nil {
		h.fail(w, r, "Failed to set day tags", err)
		return
	}
	entry := mi.Entry(day)
	if err := h.Store.SaveDayEntry(r.Context(), mi.ID, *entry); err != nil {
		h.fail(w, r, "Failed to save day tags", err)
		return
	}
	writeJSON(w, http.StatusOK, DayEntryDTO{
		Date:     string(entry.Date),
		Activity: entry.ActivityCode,
		Area:     entry.AreaCode,
		Marks:    marksOf(entry),
	})
}

// ListCapViolations lists every worker-day of the month whose combined
// attendance is above one day.
// GET /api/months/{month}/cap-violations
func (h *Handler) ListCapViolations(w http.ResponseWriter, r *http.Request) {
	month, err := engine.ParseMonthKey(chi.URLParam(r, "month"))
	if err != nil {
		h.fail(w, r, "Invalid month", err)
		return
	}
	snap, ok := h.load(w, r)
	if !ok {
		return
	}

	dtos := []CapViolationDTO{}
	for _, v := range snap.Matrix().CapViolations(month) {
		dtos = append(dtos, CapViolationDTO{
			WorkerID: string(v.WorkerID),
			Date:     string(v.Date),
			Total:    v.Total.String(),
		})
	}
	writeJSON(w, http.StatusOK, dtos)
}

// =============================================================================
// HELPERS
// =============================================================================

func instanceFromPath(snap *engine.Snapshot, r *http.Request) (*engine.MonthGroupInstance, error) {
	month, err := engine.ParseMonthKey(chi.URLParam(r, "month"))
	if err != nil {
		return nil, err
	}
	groupID := engine.GroupID(chi.URLParam(r, "groupID"))
	if g, found := snap.Group(groupID); !found || g.Deleted {
		return nil, &engine.ReferenceError{Kind: engine.RefGroup, ID: string(groupID)}
	}
	mi := snap.Matrix().InstanceFor(month, groupID)
	if mi == nil {
		return nil, &engine.ReferenceError{Kind: engine.RefInstance, ID: string(engine.InstanceIDFor(month, groupID))}
	}
	return mi, nil
}

func hasActivity(snap *engine.Snapshot, code string) bool {
	for _, a := range snap.Activities {
		if a.Code == code && !a.Deleted {
			return true
		}
	}
	return false
}

func hasArea(snap *engine.Snapshot, code string) bool {
	for _, a := range snap.Areas {
		if a.Code == code && !a.Deleted {
			return true
		}
	}
	return false
}

func marksOf(e *engine.DayEntry) map[string]string {
	out := make(map[string]string, len(e.Marks))
	for wid, s := range e.Marks {
		out[string(wid)] = string(s)
	}
	return out
}
