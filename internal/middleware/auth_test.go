package middleware

import (
	"net/http"
	"net/http/httptest"
	"testing"

	"github.com/mwhitlock/lexcal/internal/auth"
	"github.com/mwhitlock/lexcal/internal/database"
	"github.com/mwhitlock/lexcal/internal/store"
)

func setupAuthMiddlewareDB(t *testing.T) (*store.SessionStore, *store.UserStore) {
	t.Helper()
	db, err := database.Open(":memory:")
	if err != nil {
		t.Fatalf("open test db: %v", err)
	}
	t.Cleanup(func() { db.Close() })
	return store.NewSessionStore(db), store.NewUserStore(db)
}

func TestRequireAuthNoCookie(t *testing.T) {
	ss, _ := setupAuthMiddlewareDB(t)

	handler := RequireAuth(ss)(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		t.Fatal("should not reach handler")
	}))

	req := httptest.NewRequest("GET", "/api/events", nil)
	rec := httptest.NewRecorder()
	handler.ServeHTTP(rec, req)

	if rec.Code != http.StatusUnauthorized {
		t.Errorf("status = %d, want %d", rec.Code, http.StatusUnauthorized)
	}
	if ct := rec.Header().Get("Content-Type"); ct != "application/json" {
		t.Errorf("Content-Type = %q, want application/json", ct)
	}
}

func TestRequireAuthInvalidToken(t *testing.T) {
	ss, _ := setupAuthMiddlewareDB(t)

	handler := RequireAuth(ss)(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		t.Fatal("should not reach handler")
	}))

	req := httptest.NewRequest("GET", "/api/events", nil)
	req.AddCookie(&http.Cookie{Name: SessionCookieName, Value: "invalid-token"})
	rec := httptest.NewRecorder()
	handler.ServeHTTP(rec, req)

	if rec.Code != http.StatusUnauthorized {
		t.Errorf("status = %d, want %d", rec.Code, http.StatusUnauthorized)
	}
}

func TestRequireAuthValidSession(t *testing.T) {
	ss, us := setupAuthMiddlewareDB(t)

	u, err := us.Create("alice@example.com", "Alice", "hash")
	if err != nil {
		t.Fatalf("create user: %v", err)
	}
	sess, err := ss.Create(u.ID)
	if err != nil {
		t.Fatalf("create session: %v", err)
	}

	var gotAC auth.AuthContext
	handler := RequireAuth(ss)(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		ac, ok := auth.FromContext(r.Context())
		if !ok {
			t.Fatal("expected AuthContext in request context")
		}
		gotAC = ac
		w.WriteHeader(http.StatusOK)
	}))

	req := httptest.NewRequest("GET", "/api/events", nil)
	req.AddCookie(&http.Cookie{Name: SessionCookieName, Value: sess.Token})
	rec := httptest.NewRecorder()
	handler.ServeHTTP(rec, req)

	if rec.Code != http.StatusOK {
		t.Errorf("status = %d, want %d", rec.Code, http.StatusOK)
	}
	if gotAC.UserID != u.ID {
		t.Errorf("UserID = %q, want %q", gotAC.UserID, u.ID)
	}
	if gotAC.SessionID != sess.ID {
		t.Errorf("SessionID = %d, want %d", gotAC.SessionID, sess.ID)
	}
}
