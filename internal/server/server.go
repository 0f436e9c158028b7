package server

import (
	"context"
	"log/slog"
	"net/http"

	"github.com/claude/rutinas/internal/authstate"
	"github.com/claude/rutinas/internal/routine"
	"github.com/claude/rutinas/internal/session"
	"github.com/claude/rutinas/internal/storage"
	"github.com/go-chi/chi/v5"
	"github.com/google/uuid"
)

// Library stores saved routines. *storage.DB satisfies it.
type Library interface {
	SaveRoutine(ctx context.Context, r routine.Routine) (routine.Routine, error)
	GetRoutine(ctx context.Context, id uuid.UUID) (routine.Routine, error)
	ListRoutines(ctx context.Context, limit int) ([]storage.RoutineSummary, error)
	DeleteRoutine(ctx context.Context, id uuid.UUID) error
}

// LoginFlag holds the local "is logged in" flag. *authstate.Store satisfies it.
type LoginFlag interface {
	IsLoggedIn(ctx context.Context) (bool, error)
	SetLoggedIn(ctx context.Context, loggedIn bool) error
}

var (
	_ Library   = (*storage.DB)(nil)
	_ LoginFlag = (*authstate.Store)(nil)
)

// Server holds dependencies for HTTP handlers.
type Server struct {
	sessions *session.Registry
	library  Library   // nil when the routine library is disabled
	login    LoginFlag // nil when no state dir is configured
	log      *slog.Logger
	apiKey   string
	identity func(http.Handler) http.Handler
	router   chi.Router
}

// New creates a new Server. library and login may be nil; their routes then
// answer 503.
func New(sessions *session.Registry, library Library, login LoginFlag, apiKey string, log *slog.Logger) *Server {
	s := &Server{
		sessions: sessions,
		library:  library,
		login:    login,
		log:      log,
		apiKey:   apiKey,
		identity: DevIdentity,
		router:   chi.NewRouter(),
	}
	s.routes()
	return s
}

// SetTailscale switches request identity to tailnet users resolved by lc.
// Must be called before the server starts handling requests.
func (s *Server) SetTailscale(lc WhoIser) {
	s.identity = TailscaleIdentity(lc, s.log)
}

// ServeHTTP implements http.Handler.
func (s *Server) ServeHTTP(w http.ResponseWriter, r *http.Request) {
	s.router.ServeHTTP(w, r)
}

func (s *Server) routes() {
	s.router.Use(RequestLogging(s.log))
	s.router.Use(CORS)

	s.router.Get("/healthz", func(w http.ResponseWriter, r *http.Request) {
		writeJSON(w, http.StatusOK, map[string]any{"status": "ok", "sessions": s.sessions.Len()})
	})

	s.router.Route("/api/v1", func(r chi.Router) {
		r.Use(APIKeyAuth(s.apiKey))
		r.Use(func(next http.Handler) http.Handler {
			return http.HandlerFunc(func(w http.ResponseWriter, req *http.Request) {
				s.identity(next).ServeHTTP(w, req)
			})
		})

		r.Get("/me", s.handleMe)

		// Editing sessions
		r.Post("/sessions", s.handleOpenSession)
		r.Get("/sessions/{id}", s.handleGetSession)
		r.Delete("/sessions/{id}", s.handleCloseSession)
		r.Post("/sessions/{id}/actions", s.handleDispatch)
		r.Post("/sessions/{id}/save", s.handleSaveSession)

		// Routine library
		r.Get("/routines", s.handleListRoutines)
		r.Get("/routines/{id}", s.handleGetRoutine)
		r.Delete("/routines/{id}", s.handleDeleteRoutine)
		r.Post("/routines/{id}/sessions", s.handleOpenFromRoutine)

		// Login flag
		r.Get("/auth/state", s.handleGetAuthState)
		r.Put("/auth/state", s.handlePutAuthState)
	})
}
