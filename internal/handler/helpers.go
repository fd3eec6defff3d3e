package handler

import (
	"encoding/json"
	"errors"
	"log/slog"
	"net/http"

	"github.com/mwhitlock/lexcal/internal/model"
)

func writeJSON(w http.ResponseWriter, status int, v any) {
	w.Header().Set("Content-Type", "application/json")
	w.WriteHeader(status)
	if err := json.NewEncoder(w).Encode(v); err != nil {
		slog.Error("encode response", "error", err)
	}
}

func errorJSON(w http.ResponseWriter, status int, msg string) {
	writeJSON(w, status, map[string]string{"error": msg})
}

// writeMutationError maps the planner's error taxonomy onto HTTP statuses.
// A remote failure still reports the optimistic applied/persisted state so
// the client knows its local view diverged.
func writeMutationError(w http.ResponseWriter, logger *slog.Logger, res model.MutationResult, err error) {
	var verr *model.ValidationError
	var rerr *model.RemoteError

	switch {
	case errors.Is(err, model.ErrUnauthenticated):
		errorJSON(w, http.StatusUnauthorized, "authentication required")
	case errors.As(err, &verr):
		errorJSON(w, http.StatusBadRequest, verr.Error())
	case errors.As(err, &rerr):
		logger.Error("remote write failed", "op", rerr.Op, "error", rerr.Err)
		writeJSON(w, http.StatusBadGateway, map[string]any{
			"error":     rerr.Error(),
			"applied":   res.Applied,
			"persisted": res.Persisted,
		})
	default:
		logger.Error("mutation failed", "error", err)
		errorJSON(w, http.StatusInternalServerError, "internal error")
	}
}
