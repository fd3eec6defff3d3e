package handler

import (
	"log/slog"
	"net/http"
	"time"

	"github.com/mwhitlock/lexcal/internal/planner"
)

type ScheduleHandler struct {
	planner *planner.Planner
	logger  *slog.Logger
}

func NewScheduleHandler(p *planner.Planner, logger *slog.Logger) *ScheduleHandler {
	return &ScheduleHandler{planner: p, logger: logger}
}

// Get handles GET /api/schedule?start=RFC3339&end=RFC3339. It refreshes the
// cache, filters by checked calendars, and expands recurring templates into
// concrete instances within the range.
func (h *ScheduleHandler) Get(w http.ResponseWriter, r *http.Request) {
	start, err := time.Parse(time.RFC3339, r.URL.Query().Get("start"))
	if err != nil {
		errorJSON(w, http.StatusBadRequest, "start must be an RFC 3339 timestamp")
		return
	}
	end, err := time.Parse(time.RFC3339, r.URL.Query().Get("end"))
	if err != nil {
		errorJSON(w, http.StatusBadRequest, "end must be an RFC 3339 timestamp")
		return
	}
	if end.Before(start) {
		errorJSON(w, http.StatusBadRequest, "end must not precede start")
		return
	}

	if err := h.planner.FetchCalendars(r.Context()); err != nil {
		h.logger.Error("fetch calendars", "error", err)
	}
	if err := h.planner.FetchEvents(r.Context()); err != nil {
		h.logger.Error("fetch events", "error", err)
	}

	events, err := h.planner.Schedule(start, end)
	if err != nil {
		h.logger.Error("build schedule", "error", err)
		errorJSON(w, http.StatusInternalServerError, "internal error")
		return
	}
	writeJSON(w, http.StatusOK, events)
}
