package handler

import (
	"encoding/json"
	"log/slog"
	"net/http"

	"github.com/mwhitlock/lexcal/internal/model"
	"github.com/mwhitlock/lexcal/internal/planner"
)

type CalendarHandler struct {
	planner *planner.Planner
	logger  *slog.Logger
}

func NewCalendarHandler(p *planner.Planner, logger *slog.Logger) *CalendarHandler {
	return &CalendarHandler{planner: p, logger: logger}
}

// List handles GET /api/calendars. It refetches and returns the partitioned
// sets; a remote read failure degrades to empty sets rather than an error.
func (h *CalendarHandler) List(w http.ResponseWriter, r *http.Request) {
	if err := h.planner.FetchCalendars(r.Context()); err != nil {
		h.logger.Error("fetch calendars", "error", err)
	}
	snap := h.planner.Snapshot()
	writeJSON(w, http.StatusOK, map[string]any{
		"my_calendars":    snap.MyCalendars,
		"other_calendars": snap.OtherCalendars,
	})
}

// Create handles POST /api/calendars.
func (h *CalendarHandler) Create(w http.ResponseWriter, r *http.Request) {
	var cal model.Calendar
	if err := json.NewDecoder(r.Body).Decode(&cal); err != nil {
		errorJSON(w, http.StatusBadRequest, "invalid JSON")
		return
	}

	created, res, err := h.planner.CreateCalendar(r.Context(), cal)
	if err != nil {
		writeMutationError(w, h.logger, res, err)
		return
	}
	writeJSON(w, http.StatusCreated, created)
}

// Update handles PUT /api/calendars/{id}.
func (h *CalendarHandler) Update(w http.ResponseWriter, r *http.Request) {
	var cal model.Calendar
	if err := json.NewDecoder(r.Body).Decode(&cal); err != nil {
		errorJSON(w, http.StatusBadRequest, "invalid JSON")
		return
	}
	cal.ID = r.PathValue("id")

	updated, res, err := h.planner.UpdateCalendar(r.Context(), cal)
	if err != nil {
		writeMutationError(w, h.logger, res, err)
		return
	}
	writeJSON(w, http.StatusOK, updated)
}

// Delete handles DELETE /api/calendars/{id}.
func (h *CalendarHandler) Delete(w http.ResponseWriter, r *http.Request) {
	res, err := h.planner.DeleteCalendar(r.Context(), r.PathValue("id"))
	if err != nil {
		writeMutationError(w, h.logger, res, err)
		return
	}
	w.WriteHeader(http.StatusNoContent)
}

// SetChecked handles PUT /api/calendars/{id}/checked. The checked flag is
// session-local visibility state, not a persisted attribute.
func (h *CalendarHandler) SetChecked(w http.ResponseWriter, r *http.Request) {
	var req struct {
		Checked bool `json:"checked"`
	}
	if err := json.NewDecoder(r.Body).Decode(&req); err != nil {
		errorJSON(w, http.StatusBadRequest, "invalid JSON")
		return
	}

	id := r.PathValue("id")
	if !h.planner.SetCalendarChecked(id, req.Checked) {
		errorJSON(w, http.StatusNotFound, "calendar not found")
		return
	}
	writeJSON(w, http.StatusOK, map[string]any{"id": id, "checked": req.Checked})
}
