package endpoints

import (
	"encoding/json"
	"fmt"
	"net/http"

	"github.com/spf13/cobra"

	"github.com/wallsified/pdf-o-matico/internal/api"
	"github.com/wallsified/pdf-o-matico/internal/session"
	"github.com/wallsified/pdf-o-matico/internal/svcctx"
)

// sessionGroup nests session commands under "api sessions".
type sessionGroup struct{}

func (sessionGroup) Group() string { return "sessions" }

// CreateSessionRequest is the body for POST /api/sessions.
type CreateSessionRequest struct {
	Tool string `json:"tool"`
}

// CreateSessionEndpoint handles POST /api/sessions.
type CreateSessionEndpoint struct{ sessionGroup }

var _ api.Endpoint = (*CreateSessionEndpoint)(nil)

func (e *CreateSessionEndpoint) Route() (string, string, http.HandlerFunc) {
	return "POST", "/api/sessions", e.handler
}

func (e *CreateSessionEndpoint) RequiresInit() bool { return true }

// handler godoc
//
//	@Summary	Create a session
//	@Tags		sessions
//	@Accept		json
//	@Produce	json
//	@Param		request	body		CreateSessionRequest	true	"Tool to drive"
//	@Success	201		{object}	session.State
//	@Failure	400		{object}	ErrorResponse
//	@Router		/api/sessions [post]
func (e *CreateSessionEndpoint) handler(w http.ResponseWriter, r *http.Request) {
	var req CreateSessionRequest
	if err := json.NewDecoder(r.Body).Decode(&req); err != nil {
		writeError(w, http.StatusBadRequest, fmt.Sprintf("invalid request body: %v", err))
		return
	}
	if req.Tool == "" {
		writeError(w, http.StatusBadRequest, "tool is required")
		return
	}

	s, err := svcctx.SessionsFrom(r.Context()).Create(req.Tool)
	if err != nil {
		writeError(w, http.StatusBadRequest, err.Error())
		return
	}
	writeJSON(w, http.StatusCreated, s.State())
}

func (e *CreateSessionEndpoint) Command(getServerURL func() string) *cobra.Command {
	return &cobra.Command{
		Use:   "create <tool>",
		Short: "Start a session for a tool",
		Args:  cobra.ExactArgs(1),
		RunE: func(cmd *cobra.Command, args []string) error {
			client := api.NewClient(getServerURL())
			var resp session.State
			if err := client.Post(cmd.Context(), "/api/sessions", CreateSessionRequest{Tool: args[0]}, &resp); err != nil {
				return err
			}
			return api.Output(resp)
		},
	}
}

// ListSessionsResponse is the response for GET /api/sessions.
type ListSessionsResponse struct {
	Sessions []session.State `json:"sessions" yaml:"sessions"`
}

// ListSessionsEndpoint handles GET /api/sessions.
type ListSessionsEndpoint struct{ sessionGroup }

func (e *ListSessionsEndpoint) Route() (string, string, http.HandlerFunc) {
	return "GET", "/api/sessions", e.handler
}

func (e *ListSessionsEndpoint) RequiresInit() bool { return true }

// handler godoc
//
//	@Summary	List sessions
//	@Tags		sessions
//	@Produce	json
//	@Success	200	{object}	ListSessionsResponse
//	@Router		/api/sessions [get]
func (e *ListSessionsEndpoint) handler(w http.ResponseWriter, r *http.Request) {
	writeJSON(w, http.StatusOK, ListSessionsResponse{Sessions: svcctx.SessionsFrom(r.Context()).List()})
}

func (e *ListSessionsEndpoint) Command(getServerURL func() string) *cobra.Command {
	return &cobra.Command{
		Use:   "list",
		Short: "List live sessions",
		RunE: func(cmd *cobra.Command, args []string) error {
			client := api.NewClient(getServerURL())
			var resp ListSessionsResponse
			if err := client.Get(cmd.Context(), "/api/sessions", &resp); err != nil {
				return err
			}
			return api.Output(resp.Sessions)
		},
	}
}

// GetSessionEndpoint handles GET /api/sessions/{id}.
type GetSessionEndpoint struct{ sessionGroup }

func (e *GetSessionEndpoint) Route() (string, string, http.HandlerFunc) {
	return "GET", "/api/sessions/{id}", e.handler
}

func (e *GetSessionEndpoint) RequiresInit() bool { return true }

// handler godoc
//
//	@Summary	Get session state
//	@Tags		sessions
//	@Produce	json
//	@Param		id	path		string	true	"Session ID"
//	@Success	200	{object}	session.State
//	@Failure	404	{object}	ErrorResponse
//	@Router		/api/sessions/{id} [get]
func (e *GetSessionEndpoint) handler(w http.ResponseWriter, r *http.Request) {
	s, ok := lookupSession(w, r)
	if !ok {
		return
	}
	writeJSON(w, http.StatusOK, s.State())
}

func (e *GetSessionEndpoint) Command(getServerURL func() string) *cobra.Command {
	return &cobra.Command{
		Use:   "get <id>",
		Short: "Show a session's state",
		Args:  cobra.ExactArgs(1),
		RunE: func(cmd *cobra.Command, args []string) error {
			client := api.NewClient(getServerURL())
			var resp session.State
			if err := client.Get(cmd.Context(), "/api/sessions/"+args[0], &resp); err != nil {
				return err
			}
			return api.Output(resp)
		},
	}
}

// DeleteSessionEndpoint handles DELETE /api/sessions/{id}.
type DeleteSessionEndpoint struct{ sessionGroup }

func (e *DeleteSessionEndpoint) Route() (string, string, http.HandlerFunc) {
	return "DELETE", "/api/sessions/{id}", e.handler
}

func (e *DeleteSessionEndpoint) RequiresInit() bool { return true }

// handler godoc
//
//	@Summary	Delete a session and its uploads
//	@Tags		sessions
//	@Param		id	path	string	true	"Session ID"
//	@Success	204
//	@Failure	404	{object}	ErrorResponse
//	@Router		/api/sessions/{id} [delete]
func (e *DeleteSessionEndpoint) handler(w http.ResponseWriter, r *http.Request) {
	if err := svcctx.SessionsFrom(r.Context()).Delete(r.PathValue("id")); err != nil {
		writeJSON(w, statusFor(err), ErrorResponse{Error: err.Error()})
		return
	}
	w.WriteHeader(http.StatusNoContent)
}

func (e *DeleteSessionEndpoint) Command(getServerURL func() string) *cobra.Command {
	return &cobra.Command{
		Use:   "delete <id>",
		Short: "Delete a session and its uploads",
		Args:  cobra.ExactArgs(1),
		RunE: func(cmd *cobra.Command, args []string) error {
			client := api.NewClient(getServerURL())
			if err := client.Delete(cmd.Context(), "/api/sessions/"+args[0]); err != nil {
				return err
			}
			cmd.Printf("Deleted session %s\n", args[0])
			return nil
		},
	}
}
