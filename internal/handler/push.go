package handler

import (
	"encoding/json"
	"log/slog"
	"net/http"
	"strconv"

	"github.com/mwhitlock/lexcal/internal/auth"
	"github.com/mwhitlock/lexcal/internal/model"
	"github.com/mwhitlock/lexcal/internal/push"
	"github.com/mwhitlock/lexcal/internal/store"
)

type PushHandler struct {
	service *push.Service
	store   *store.PushStore
	logger  *slog.Logger
}

func NewPushHandler(svc *push.Service, ps *store.PushStore, logger *slog.Logger) *PushHandler {
	return &PushHandler{service: svc, store: ps, logger: logger}
}

// VAPIDKey handles GET /api/push/vapid-key.
func (h *PushHandler) VAPIDKey(w http.ResponseWriter, r *http.Request) {
	writeJSON(w, http.StatusOK, map[string]string{"key": h.service.VAPIDPublicKey()})
}

type subscribeRequest struct {
	Endpoint   string `json:"endpoint"`
	DeviceName string `json:"device_name"`
	Keys       struct {
		P256dh string `json:"p256dh"`
		Auth   string `json:"auth"`
	} `json:"keys"`
}

// Subscribe handles POST /api/push/subscribe.
func (h *PushHandler) Subscribe(w http.ResponseWriter, r *http.Request) {
	var req subscribeRequest
	if err := json.NewDecoder(r.Body).Decode(&req); err != nil {
		errorJSON(w, http.StatusBadRequest, "invalid JSON")
		return
	}
	if req.Endpoint == "" || req.Keys.P256dh == "" || req.Keys.Auth == "" {
		errorJSON(w, http.StatusBadRequest, "endpoint and keys are required")
		return
	}

	sub, err := h.store.Upsert(model.PushSubscription{
		UserID:     auth.UserID(r.Context()),
		Endpoint:   req.Endpoint,
		P256dhKey:  req.Keys.P256dh,
		AuthKey:    req.Keys.Auth,
		DeviceName: req.DeviceName,
	})
	if err != nil {
		h.logger.Error("save push subscription", "error", err)
		errorJSON(w, http.StatusInternalServerError, "internal error")
		return
	}
	writeJSON(w, http.StatusCreated, sub)
}

// Unsubscribe handles DELETE /api/push/subscriptions/{id}.
func (h *PushHandler) Unsubscribe(w http.ResponseWriter, r *http.Request) {
	id, err := strconv.ParseInt(r.PathValue("id"), 10, 64)
	if err != nil {
		errorJSON(w, http.StatusBadRequest, "invalid subscription id")
		return
	}

	if err := h.store.Delete(id, auth.UserID(r.Context())); err != nil {
		h.logger.Error("delete push subscription", "error", err)
		errorJSON(w, http.StatusInternalServerError, "internal error")
		return
	}
	w.WriteHeader(http.StatusNoContent)
}
