package server

import (
	"encoding/json"
	"errors"
	"io"
	"net/http"
	"strconv"

	"github.com/claude/rutinas/internal/routine"
	"github.com/claude/rutinas/internal/storage"
	"github.com/go-chi/chi/v5"
	"github.com/google/uuid"
)

// maxActionBytes bounds the size of a dispatched action body.
const maxActionBytes = 1 << 20

type sessionResponse struct {
	ID      uuid.UUID       `json:"id"`
	Routine routine.Routine `json:"routine"`
}

func (s *Server) handleMe(w http.ResponseWriter, r *http.Request) {
	writeJSON(w, http.StatusOK, userInfoFromContext(r))
}

func (s *Server) handleOpenSession(w http.ResponseWriter, r *http.Request) {
	owner := userInfoFromContext(r).Login
	id, store := s.sessions.Open(owner)
	writeJSON(w, http.StatusCreated, sessionResponse{ID: id, Routine: store.Current()})
}

func (s *Server) handleGetSession(w http.ResponseWriter, r *http.Request) {
	id, store, ok := s.sessionFromRequest(w, r)
	if !ok {
		return
	}
	writeJSON(w, http.StatusOK, sessionResponse{ID: id, Routine: store.Current()})
}

func (s *Server) handleCloseSession(w http.ResponseWriter, r *http.Request) {
	id, err := uuid.Parse(chi.URLParam(r, "id"))
	if err != nil {
		writeJSON(w, http.StatusBadRequest, map[string]string{"error": "invalid session ID"})
		return
	}
	if !s.sessions.Close(id, userInfoFromContext(r).Login) {
		writeJSON(w, http.StatusNotFound, map[string]string{"error": "session not found"})
		return
	}
	w.WriteHeader(http.StatusNoContent)
}

func (s *Server) handleDispatch(w http.ResponseWriter, r *http.Request) {
	id, store, ok := s.sessionFromRequest(w, r)
	if !ok {
		return
	}

	body, err := io.ReadAll(io.LimitReader(r.Body, maxActionBytes))
	if err != nil {
		writeJSON(w, http.StatusBadRequest, map[string]string{"error": "reading body: " + err.Error()})
		return
	}

	action, err := routine.DecodeAction(body)
	if err != nil {
		writeJSON(w, statusForActionError(err), map[string]string{"error": err.Error()})
		return
	}

	action, err = routine.Guard(action)
	if err != nil {
		writeJSON(w, statusForActionError(err), map[string]string{"error": err.Error()})
		return
	}

	next, err := store.Dispatch(action)
	if err != nil {
		writeJSON(w, statusForActionError(err), map[string]string{"error": err.Error()})
		return
	}
	writeJSON(w, http.StatusOK, sessionResponse{ID: id, Routine: next})
}

func statusForActionError(err error) int {
	switch {
	case errors.Is(err, routine.ErrInvalidExercise):
		return http.StatusUnprocessableEntity
	case errors.Is(err, routine.ErrUnknownAction),
		errors.Is(err, routine.ErrMissingField),
		errors.Is(err, routine.ErrInvalidSection):
		return http.StatusBadRequest
	}
	var syntaxErr *json.SyntaxError
	var typeErr *json.UnmarshalTypeError
	if errors.As(err, &syntaxErr) || errors.As(err, &typeErr) {
		return http.StatusBadRequest
	}
	return http.StatusInternalServerError
}

func (s *Server) handleSaveSession(w http.ResponseWriter, r *http.Request) {
	if s.library == nil {
		writeJSON(w, http.StatusServiceUnavailable, map[string]string{"error": "routine library disabled"})
		return
	}
	id, store, ok := s.sessionFromRequest(w, r)
	if !ok {
		return
	}

	saved, err := s.library.SaveRoutine(r.Context(), store.Current())
	if err != nil {
		s.log.Error("save routine failed", "session", id, "error", err)
		writeJSON(w, http.StatusInternalServerError, map[string]string{"error": err.Error()})
		return
	}
	current := store.AssignID(*saved.ID)
	s.log.Info("routine saved", "session", id, "routine", *saved.ID)
	writeJSON(w, http.StatusOK, sessionResponse{ID: id, Routine: current})
}

func (s *Server) handleOpenFromRoutine(w http.ResponseWriter, r *http.Request) {
	saved, ok := s.routineFromRequest(w, r)
	if !ok {
		return
	}
	id, store := s.sessions.OpenWith(userInfoFromContext(r).Login, saved)
	writeJSON(w, http.StatusCreated, sessionResponse{ID: id, Routine: store.Current()})
}

func (s *Server) handleListRoutines(w http.ResponseWriter, r *http.Request) {
	if s.library == nil {
		writeJSON(w, http.StatusServiceUnavailable, map[string]string{"error": "routine library disabled"})
		return
	}
	limit := 50
	if l := r.URL.Query().Get("limit"); l != "" {
		if parsed, err := strconv.Atoi(l); err == nil && parsed > 0 {
			limit = parsed
		}
	}
	list, err := s.library.ListRoutines(r.Context(), limit)
	if err != nil {
		writeJSON(w, http.StatusInternalServerError, map[string]string{"error": err.Error()})
		return
	}
	writeJSON(w, http.StatusOK, list)
}

func (s *Server) handleGetRoutine(w http.ResponseWriter, r *http.Request) {
	saved, ok := s.routineFromRequest(w, r)
	if !ok {
		return
	}
	writeJSON(w, http.StatusOK, saved)
}

func (s *Server) handleDeleteRoutine(w http.ResponseWriter, r *http.Request) {
	if s.library == nil {
		writeJSON(w, http.StatusServiceUnavailable, map[string]string{"error": "routine library disabled"})
		return
	}
	id, err := uuid.Parse(chi.URLParam(r, "id"))
	if err != nil {
		writeJSON(w, http.StatusBadRequest, map[string]string{"error": "invalid routine ID"})
		return
	}
	if err := s.library.DeleteRoutine(r.Context(), id); err != nil {
		if errors.Is(err, storage.ErrNotFound) {
			writeJSON(w, http.StatusNotFound, map[string]string{"error": "routine not found"})
			return
		}
		writeJSON(w, http.StatusInternalServerError, map[string]string{"error": err.Error()})
		return
	}
	w.WriteHeader(http.StatusNoContent)
}

type authState struct {
	LoggedIn bool `json:"logged_in"`
}

func (s *Server) handleGetAuthState(w http.ResponseWriter, r *http.Request) {
	if s.login == nil {
		writeJSON(w, http.StatusServiceUnavailable, map[string]string{"error": "login state unavailable"})
		return
	}
	in, err := s.login.IsLoggedIn(r.Context())
	if err != nil {
		writeJSON(w, http.StatusInternalServerError, map[string]string{"error": err.Error()})
		return
	}
	writeJSON(w, http.StatusOK, authState{LoggedIn: in})
}

func (s *Server) handlePutAuthState(w http.ResponseWriter, r *http.Request) {
	if s.login == nil {
		writeJSON(w, http.StatusServiceUnavailable, map[string]string{"error": "login state unavailable"})
		return
	}
	var body struct {
		LoggedIn *bool `json:"logged_in"`
	}
	if err := json.NewDecoder(r.Body).Decode(&body); err != nil {
		writeJSON(w, http.StatusBadRequest, map[string]string{"error": "invalid JSON: " + err.Error()})
		return
	}
	if body.LoggedIn == nil {
		writeJSON(w, http.StatusBadRequest, map[string]string{"error": "logged_in is required"})
		return
	}
	if err := s.login.SetLoggedIn(r.Context(), *body.LoggedIn); err != nil {
		writeJSON(w, http.StatusInternalServerError, map[string]string{"error": err.Error()})
		return
	}
	writeJSON(w, http.StatusOK, authState{LoggedIn: *body.LoggedIn})
}

// sessionFromRequest resolves the {id} URL parameter to a session owned by
// the caller, writing the error response when it cannot.
func (s *Server) sessionFromRequest(w http.ResponseWriter, r *http.Request) (uuid.UUID, *routine.Store, bool) {
	id, err := uuid.Parse(chi.URLParam(r, "id"))
	if err != nil {
		writeJSON(w, http.StatusBadRequest, map[string]string{"error": "invalid session ID"})
		return uuid.Nil, nil, false
	}
	store, ok := s.sessions.Get(id, userInfoFromContext(r).Login)
	if !ok {
		writeJSON(w, http.StatusNotFound, map[string]string{"error": "session not found"})
		return uuid.Nil, nil, false
	}
	return id, store, true
}

// routineFromRequest loads the saved routine named by the {id} URL parameter.
func (s *Server) routineFromRequest(w http.ResponseWriter, r *http.Request) (routine.Routine, bool) {
	if s.library == nil {
		writeJSON(w, http.StatusServiceUnavailable, map[string]string{"error": "routine library disabled"})
		return routine.Routine{}, false
	}
	id, err := uuid.Parse(chi.URLParam(r, "id"))
	if err != nil {
		writeJSON(w, http.StatusBadRequest, map[string]string{"error": "invalid routine ID"})
		return routine.Routine{}, false
	}
	saved, err := s.library.GetRoutine(r.Context(), id)
	if err != nil {
		if errors.Is(err, storage.ErrNotFound) {
			writeJSON(w, http.StatusNotFound, map[string]string{"error": "routine not found"})
			return routine.Routine{}, false
		}
		writeJSON(w, http.StatusInternalServerError, map[string]string{"error": err.Error()})
		return routine.Routine{}, false
	}
	return saved, true
}

func writeJSON(w http.ResponseWriter, status int, v any) {
	w.Header().Set("Content-Type", "application/json")
	w.WriteHeader(status)
	json.NewEncoder(w).Encode(v)
}
