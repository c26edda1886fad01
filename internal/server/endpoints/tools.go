package endpoints

import (
	"net/http"

	"github.com/spf13/cobra"

	"github.com/wallsified/pdf-o-matico/internal/api"
	"github.com/wallsified/pdf-o-matico/internal/svcctx"
	"github.com/wallsified/pdf-o-matico/internal/tools"
)

// ToolsResponse lists the available tools.
type ToolsResponse struct {
	Tools []tools.Info `json:"tools" yaml:"tools"`
}

// ListToolsEndpoint handles GET /api/tools.
type ListToolsEndpoint struct{}

var _ api.Endpoint = (*ListToolsEndpoint)(nil)

func (e *ListToolsEndpoint) Route() (string, string, http.HandlerFunc) {
	return "GET", "/api/tools", e.handler
}

func (e *ListToolsEndpoint) RequiresInit() bool { return true }

// handler godoc
//
//	@Summary	List tools
//	@Tags		tools
//	@Produce	json
//	@Success	200	{object}	ToolsResponse
//	@Router		/api/tools [get]
func (e *ListToolsEndpoint) handler(w http.ResponseWriter, r *http.Request) {
	registry := svcctx.ToolsFrom(r.Context())
	if registry == nil {
		writeError(w, http.StatusServiceUnavailable, "tool registry not initialized")
		return
	}
	writeJSON(w, http.StatusOK, ToolsResponse{Tools: registry.Infos()})
}

func (e *ListToolsEndpoint) Command(getServerURL func() string) *cobra.Command {
	return &cobra.Command{
		Use:   "tools",
		Short: "List available tools",
		RunE: func(cmd *cobra.Command, args []string) error {
			client := api.NewClient(getServerURL())
			var resp ToolsResponse
			if err := client.Get(cmd.Context(), "/api/tools", &resp); err != nil {
				return err
			}
			return api.Output(resp.Tools)
		},
	}
}
