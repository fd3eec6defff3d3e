package handler

import (
	"encoding/json"
	"log/slog"
	"net/http"
	"strings"

	"golang.org/x/crypto/bcrypt"

	"github.com/mwhitlock/lexcal/internal/auth"
	"github.com/mwhitlock/lexcal/internal/middleware"
	"github.com/mwhitlock/lexcal/internal/store"
)

type AuthHandler struct {
	users    *store.UserStore
	sessions *store.SessionStore
	logger   *slog.Logger
}

func NewAuthHandler(us *store.UserStore, ss *store.SessionStore, logger *slog.Logger) *AuthHandler {
	return &AuthHandler{users: us, sessions: ss, logger: logger}
}

type credentialsRequest struct {
	Email    string `json:"email"`
	Name     string `json:"name"`
	Password string `json:"password"`
}

// Register handles POST /api/auth/register.
func (h *AuthHandler) Register(w http.ResponseWriter, r *http.Request) {
	var req credentialsRequest
	if err := json.NewDecoder(r.Body).Decode(&req); err != nil {
		errorJSON(w, http.StatusBadRequest, "invalid JSON")
		return
	}
	req.Email = strings.TrimSpace(strings.ToLower(req.Email))
	if req.Email == "" || len(req.Password) < 8 {
		errorJSON(w, http.StatusBadRequest, "email and a password of at least 8 characters are required")
		return
	}

	existing, err := h.users.GetByEmail(req.Email)
	if err != nil {
		h.logger.Error("register lookup", "error", err)
		errorJSON(w, http.StatusInternalServerError, "internal error")
		return
	}
	if existing != nil {
		errorJSON(w, http.StatusConflict, "an account with this email already exists")
		return
	}

	hash, err := bcrypt.GenerateFromPassword([]byte(req.Password), bcrypt.DefaultCost)
	if err != nil {
		h.logger.Error("hash password", "error", err)
		errorJSON(w, http.StatusInternalServerError, "internal error")
		return
	}

	user, err := h.users.Create(req.Email, strings.TrimSpace(req.Name), string(hash))
	if err != nil {
		h.logger.Error("create user", "error", err)
		errorJSON(w, http.StatusInternalServerError, "internal error")
		return
	}

	if err := h.startSession(w, r, user.ID); err != nil {
		return
	}
	writeJSON(w, http.StatusCreated, user)
}

// Login handles POST /api/auth/login.
func (h *AuthHandler) Login(w http.ResponseWriter, r *http.Request) {
	var req credentialsRequest
	if err := json.NewDecoder(r.Body).Decode(&req); err != nil {
		errorJSON(w, http.StatusBadRequest, "invalid JSON")
		return
	}
	req.Email = strings.TrimSpace(strings.ToLower(req.Email))

	user, err := h.users.GetByEmail(req.Email)
	if err != nil {
		h.logger.Error("login lookup", "error", err)
		errorJSON(w, http.StatusInternalServerError, "internal error")
		return
	}
	// Same answer for unknown email and wrong password.
	if user == nil || bcrypt.CompareHashAndPassword([]byte(user.PasswordHash), []byte(req.Password)) != nil {
		errorJSON(w, http.StatusUnauthorized, "invalid email or password")
		return
	}

	if err := h.startSession(w, r, user.ID); err != nil {
		return
	}
	writeJSON(w, http.StatusOK, user)
}

// Logout handles POST /api/auth/logout.
func (h *AuthHandler) Logout(w http.ResponseWriter, r *http.Request) {
	if cookie, err := r.Cookie(middleware.SessionCookieName); err == nil && cookie.Value != "" {
		if err := h.sessions.Delete(cookie.Value); err != nil {
			h.logger.Error("delete session", "error", err)
		}
	}

	http.SetCookie(w, &http.Cookie{
		Name:     middleware.SessionCookieName,
		Value:    "",
		Path:     "/",
		MaxAge:   -1,
		HttpOnly: true,
	})
	w.WriteHeader(http.StatusNoContent)
}

// Me handles GET /api/auth/me.
func (h *AuthHandler) Me(w http.ResponseWriter, r *http.Request) {
	user, err := h.users.GetByID(auth.UserID(r.Context()))
	if err != nil {
		h.logger.Error("me lookup", "error", err)
		errorJSON(w, http.StatusInternalServerError, "internal error")
		return
	}
	if user == nil {
		errorJSON(w, http.StatusUnauthorized, "authentication required")
		return
	}
	writeJSON(w, http.StatusOK, user)
}

func (h *AuthHandler) startSession(w http.ResponseWriter, r *http.Request, userID string) error {
	sess, err := h.sessions.Create(userID)
	if err != nil {
		h.logger.Error("create session", "error", err)
		errorJSON(w, http.StatusInternalServerError, "internal error")
		return err
	}
	http.SetCookie(w, &http.Cookie{
		Name:     middleware.SessionCookieName,
		Value:    sess.Token,
		Path:     "/",
		MaxAge:   30 * 24 * 60 * 60,
		HttpOnly: true,
		SameSite: http.SameSiteLaxMode,
		Secure:   r.TLS != nil,
	})
	return nil
}
