package middleware

import (
	"net/http"

	"github.com/mwhitlock/lexcal/internal/auth"
	"github.com/mwhitlock/lexcal/internal/store"
)

// SessionCookieName is the cookie carrying the session token.
const SessionCookieName = "lexcal_session"

// RequireAuth validates the session cookie and populates the auth context.
// This is a JSON API, so failures answer 401 rather than redirecting.
func RequireAuth(sessions *store.SessionStore) func(http.Handler) http.Handler {
	return func(next http.Handler) http.Handler {
		return http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
			cookie, err := r.Cookie(SessionCookieName)
			if err != nil || cookie.Value == "" {
				unauthorized(w)
				return
			}

			sess, err := sessions.GetByToken(cookie.Value)
			if err != nil || sess == nil {
				unauthorized(w)
				return
			}

			ac := auth.AuthContext{
				UserID:    sess.UserID,
				SessionID: sess.ID,
			}
			ctx := auth.WithAuth(r.Context(), ac)
			next.ServeHTTP(w, r.WithContext(ctx))
		})
	}
}

func unauthorized(w http.ResponseWriter) {
	w.Header().Set("Content-Type", "application/json")
	w.WriteHeader(http.StatusUnauthorized)
	w.Write([]byte(`{"error":"authentication required"}`))
}
