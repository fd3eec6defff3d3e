package handler

import (
	"encoding/json"
	"log/slog"
	"net/http"

	"github.com/mwhitlock/lexcal/internal/model"
	"github.com/mwhitlock/lexcal/internal/planner"
)

type EventHandler struct {
	planner *planner.Planner
	logger  *slog.Logger
}

func NewEventHandler(p *planner.Planner, logger *slog.Logger) *EventHandler {
	return &EventHandler{planner: p, logger: logger}
}

// List handles GET /api/events. Returns the full merged cache; range-limited
// expansion lives under /api/schedule.
func (h *EventHandler) List(w http.ResponseWriter, r *http.Request) {
	if err := h.planner.FetchEvents(r.Context()); err != nil {
		h.logger.Error("fetch events", "error", err)
	}
	writeJSON(w, http.StatusOK, h.planner.Snapshot().Events)
}

// Create handles POST /api/events.
func (h *EventHandler) Create(w http.ResponseWriter, r *http.Request) {
	var event model.Event
	if err := json.NewDecoder(r.Body).Decode(&event); err != nil {
		errorJSON(w, http.StatusBadRequest, "invalid JSON")
		return
	}

	created, res, err := h.planner.CreateEvent(r.Context(), event)
	if err != nil {
		writeMutationError(w, h.logger, res, err)
		return
	}
	writeJSON(w, http.StatusCreated, created)
}

// Update handles PUT /api/events/{id}.
func (h *EventHandler) Update(w http.ResponseWriter, r *http.Request) {
	var event model.Event
	if err := json.NewDecoder(r.Body).Decode(&event); err != nil {
		errorJSON(w, http.StatusBadRequest, "invalid JSON")
		return
	}
	event.ID = r.PathValue("id")

	updated, res, err := h.planner.UpdateEvent(r.Context(), event)
	if err != nil {
		writeMutationError(w, h.logger, res, err)
		return
	}
	writeJSON(w, http.StatusOK, updated)
}

// Delete handles DELETE /api/events/{id}.
func (h *EventHandler) Delete(w http.ResponseWriter, r *http.Request) {
	res, err := h.planner.DeleteEvent(r.Context(), r.PathValue("id"))
	if err != nil {
		writeMutationError(w, h.logger, res, err)
		return
	}
	w.WriteHeader(http.StatusNoContent)
}
