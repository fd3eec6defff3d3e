package server

import (
	"database/sql"
	"encoding/json"
	"log/slog"
	"net/http"
	"time"

	"github.com/mwhitlock/lexcal/internal/backup"
	"github.com/mwhitlock/lexcal/internal/handler"
	"github.com/mwhitlock/lexcal/internal/middleware"
	"github.com/mwhitlock/lexcal/internal/planner"
	"github.com/mwhitlock/lexcal/internal/push"
	"github.com/mwhitlock/lexcal/internal/store"
	ws "github.com/mwhitlock/lexcal/internal/websocket"
)

// PushConfig carries the VAPID key pair. Empty keys disable push entirely.
type PushConfig struct {
	VAPIDPublicKey  string
	VAPIDPrivateKey string
}

type Server struct {
	db            *sql.DB
	hub           *ws.Hub
	planner       *planner.Planner
	authH         *handler.AuthHandler
	calendarH     *handler.CalendarHandler
	eventH        *handler.EventHandler
	scheduleH     *handler.ScheduleHandler
	pushH         *handler.PushHandler
	backupH       *handler.BackupHandler
	sessionStore  *store.SessionStore
	pushStore     *store.PushStore
	rateLimiter   *middleware.RateLimiter
	backupManager *backup.Manager
	pushService   *push.Service
	pushScheduler *push.Scheduler
	logger        *slog.Logger
}

func New(db *sql.DB, backupCfg backup.Config, pushCfg PushConfig, logger *slog.Logger) *Server {
	hub := ws.NewHub(logger.With("component", "websocket"))

	userStore := store.NewUserStore(db)
	sessionStore := store.NewSessionStore(db)
	eventStore := store.NewEventStore(db)
	backupStore := store.NewBackupStore(db)
	pushSt := store.NewPushStore(db)

	pl := planner.New(db, logger)
	pl.SetNotifier(hub)

	backupMgr := backup.NewManager(backupCfg, db, backupStore, logger, func(s backup.Status) {
		hub.Broadcast(ws.Message{
			Type:   "backup_status",
			Entity: "backup",
			Action: string(s.State),
		})
	})

	var pushSvc *push.Service
	var pushSched *push.Scheduler
	var pushH *handler.PushHandler
	if pushCfg.VAPIDPublicKey != "" && pushCfg.VAPIDPrivateKey != "" {
		pushSvc = push.NewService(pushCfg.VAPIDPublicKey, pushCfg.VAPIDPrivateKey)
		pushSched = push.NewScheduler(pushSvc, pushSt, eventStore, logger.With("component", "push"))
		pushH = handler.NewPushHandler(pushSvc, pushSt, logger.With("component", "push_handler"))
	}

	return &Server{
		db:            db,
		hub:           hub,
		planner:       pl,
		authH:         handler.NewAuthHandler(userStore, sessionStore, logger.With("component", "auth")),
		calendarH:     handler.NewCalendarHandler(pl, logger.With("component", "calendar")),
		eventH:        handler.NewEventHandler(pl, logger.With("component", "event")),
		scheduleH:     handler.NewScheduleHandler(pl, logger.With("component", "schedule")),
		pushH:         pushH,
		backupH:       handler.NewBackupHandler(backupMgr, backupStore, logger.With("component", "backup_handler")),
		sessionStore:  sessionStore,
		pushStore:     pushSt,
		rateLimiter:   middleware.NewRateLimiter(),
		backupManager: backupMgr,
		pushService:   pushSvc,
		pushScheduler: pushSched,
		logger:        logger,
	}
}

// SessionStore returns the session store for cleanup tasks.
func (s *Server) SessionStore() *store.SessionStore {
	return s.sessionStore
}

// RateLimiter returns the rate limiter for cleanup tasks.
func (s *Server) RateLimiter() *middleware.RateLimiter {
	return s.rateLimiter
}

// BackupManager returns the backup manager.
func (s *Server) BackupManager() *backup.Manager {
	return s.backupManager
}

// PushScheduler returns the push notification scheduler. Nil when push is
// not configured.
func (s *Server) PushScheduler() *push.Scheduler {
	return s.pushScheduler
}

func (s *Server) Router() http.Handler {
	outerMux := http.NewServeMux()

	// Public routes (no auth required)
	outerMux.HandleFunc("POST /api/auth/register", s.rateLimitedHandler(s.authH.Register))
	outerMux.HandleFunc("POST /api/auth/login", s.rateLimitedHandler(s.authH.Login))
	outerMux.HandleFunc("GET /health", s.healthHandler)

	// Protected routes — wrapped with RequireAuth middleware
	protectedMux := http.NewServeMux()
	s.registerProtectedRoutes(protectedMux)

	authMiddleware := middleware.RequireAuth(s.sessionStore)
	outerMux.Handle("/", authMiddleware(protectedMux))

	return middleware.RequestLogger(s.logger.With("component", "http"))(outerMux)
}

func (s *Server) healthHandler(w http.ResponseWriter, r *http.Request) {
	w.Header().Set("Content-Type", "application/json")
	json.NewEncoder(w).Encode(map[string]string{"status": "ok"})
}

func (s *Server) rateLimitedHandler(h http.HandlerFunc) http.HandlerFunc {
	keyFunc := func(r *http.Request) string {
		return middleware.RealIP(r)
	}
	rl := middleware.RateLimit(s.rateLimiter, keyFunc, 10, time.Minute)
	return func(w http.ResponseWriter, r *http.Request) {
		rl(http.HandlerFunc(h)).ServeHTTP(w, r)
	}
}

func (s *Server) registerProtectedRoutes(mux *http.ServeMux) {
	mux.HandleFunc("POST /api/auth/logout", s.authH.Logout)
	mux.HandleFunc("GET /api/auth/me", s.authH.Me)

	// Calendar API routes
	mux.HandleFunc("GET /api/calendars", s.calendarH.List)
	mux.HandleFunc("POST /api/calendars", s.calendarH.Create)
	mux.HandleFunc("PUT /api/calendars/{id}", s.calendarH.Update)
	mux.HandleFunc("DELETE /api/calendars/{id}", s.calendarH.Delete)
	mux.HandleFunc("PUT /api/calendars/{id}/checked", s.calendarH.SetChecked)

	// Event API routes
	mux.HandleFunc("GET /api/events", s.eventH.List)
	mux.HandleFunc("POST /api/events", s.eventH.Create)
	mux.HandleFunc("PUT /api/events/{id}", s.eventH.Update)
	mux.HandleFunc("DELETE /api/events/{id}", s.eventH.Delete)

	// Expanded schedule for a date range
	mux.HandleFunc("GET /api/schedule", s.scheduleH.Get)

	// Push notification API routes
	if s.pushH != nil {
		mux.HandleFunc("GET /api/push/vapid-key", s.pushH.VAPIDKey)
		mux.HandleFunc("POST /api/push/subscribe", s.pushH.Subscribe)
		mux.HandleFunc("DELETE /api/push/subscriptions/{id}", s.pushH.Unsubscribe)
	}

	// Backup API routes
	mux.HandleFunc("GET /api/backups", s.backupH.History)
	mux.HandleFunc("GET /api/backups/status", s.backupH.Status)
	mux.HandleFunc("POST /api/backups", s.backupH.Run)

	// WebSocket
	mux.HandleFunc("GET /ws", ws.HandleWebSocket(s.hub))
}
