package endpoints

import (
	"encoding/json"
	"errors"
	"net/http"

	"github.com/wallsified/pdf-o-matico/internal/session"
	"github.com/wallsified/pdf-o-matico/internal/svcctx"
	"github.com/wallsified/pdf-o-matico/internal/tools"
)

// ErrorResponse is a standard error response. Session failures also carry
// the session state after the failed operation.
type ErrorResponse struct {
	Error string         `json:"error"`
	Kind  string         `json:"kind,omitempty"`
	State *session.State `json:"state,omitempty"`
}

// writeJSON writes a JSON response.
func writeJSON(w http.ResponseWriter, status int, v any) {
	w.Header().Set("Content-Type", "application/json")
	w.WriteHeader(status)
	json.NewEncoder(w).Encode(v)
}

// writeError writes a JSON error response.
func writeError(w http.ResponseWriter, status int, msg string) {
	writeJSON(w, status, ErrorResponse{Error: msg})
}

// statusFor maps session and tool errors to HTTP status codes.
func statusFor(err error) int {
	switch {
	case errors.Is(err, session.ErrNotFound):
		return http.StatusNotFound
	case errors.Is(err, session.ErrBusy):
		return http.StatusConflict
	case errors.Is(err, tools.ErrProcessing):
		return http.StatusInternalServerError
	}
	var te *tools.Error
	if errors.As(err, &te) {
		return http.StatusBadRequest
	}
	return http.StatusInternalServerError
}

// writeSessionError renders a failed session operation.
func writeSessionError(w http.ResponseWriter, err error, s *session.Session) {
	resp := ErrorResponse{Error: err.Error()}
	if errors.Is(err, session.ErrBusy) {
		resp.Kind = "busy"
	} else {
		resp.Kind = tools.KindOf(err)
	}
	if s != nil {
		st := s.State()
		resp.State = &st
	}
	writeJSON(w, statusFor(err), resp)
}

// lookupSession resolves the {id} path value, writing the error response
// itself when the session cannot be found.
func lookupSession(w http.ResponseWriter, r *http.Request) (*session.Session, bool) {
	sessions := svcctx.SessionsFrom(r.Context())
	if sessions == nil {
		writeError(w, http.StatusServiceUnavailable, "session manager not initialized")
		return nil, false
	}
	s, err := sessions.Get(r.PathValue("id"))
	if err != nil {
		writeJSON(w, statusFor(err), ErrorResponse{Error: err.Error(), Kind: "not_found"})
		return nil, false
	}
	return s, true
}
