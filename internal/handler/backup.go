package handler

import (
	"log/slog"
	"net/http"

	"github.com/mwhitlock/lexcal/internal/backup"
	"github.com/mwhitlock/lexcal/internal/store"
)

type BackupHandler struct {
	manager *backup.Manager
	backups *store.BackupStore
	logger  *slog.Logger
}

func NewBackupHandler(m *backup.Manager, bs *store.BackupStore, logger *slog.Logger) *BackupHandler {
	return &BackupHandler{manager: m, backups: bs, logger: logger}
}

// Status handles GET /api/backups/status.
func (h *BackupHandler) Status(w http.ResponseWriter, r *http.Request) {
	writeJSON(w, http.StatusOK, h.manager.Status())
}

// Run handles POST /api/backups. The backup runs inline; callers watching
// status over the websocket see running then idle or error.
func (h *BackupHandler) Run(w http.ResponseWriter, r *http.Request) {
	if !h.manager.Enabled() {
		errorJSON(w, http.StatusConflict, "backups are not configured")
		return
	}

	id, err := h.manager.BackupNow(r.Context())
	if err != nil {
		h.logger.Error("manual backup", "error", err)
		errorJSON(w, http.StatusBadGateway, "backup failed")
		return
	}
	writeJSON(w, http.StatusCreated, map[string]int64{"id": id})
}

// History handles GET /api/backups.
func (h *BackupHandler) History(w http.ResponseWriter, r *http.Request) {
	records, err := h.backups.ListRecent(20)
	if err != nil {
		h.logger.Error("list backups", "error", err)
		errorJSON(w, http.StatusInternalServerError, "internal error")
		return
	}
	writeJSON(w, http.StatusOK, records)
}
