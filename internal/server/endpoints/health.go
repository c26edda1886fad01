package endpoints

import (
	"net/http"

	"github.com/spf13/cobra"

	"github.com/wallsified/pdf-o-matico/internal/api"
	"github.com/wallsified/pdf-o-matico/internal/svcctx"
)

// HealthResponse is the response for the liveness endpoint.
type HealthResponse struct {
	Status string `json:"status" yaml:"status"`
}

// HealthEndpoint handles GET /health.
type HealthEndpoint struct{}

var _ api.Endpoint = (*HealthEndpoint)(nil)

func (e *HealthEndpoint) Route() (string, string, http.HandlerFunc) {
	return "GET", "/health", e.handler
}

func (e *HealthEndpoint) RequiresInit() bool { return false }

// handler godoc
//
//	@Summary	Liveness check
//	@Tags		health
//	@Produce	json
//	@Success	200	{object}	HealthResponse
//	@Router		/health [get]
func (e *HealthEndpoint) handler(w http.ResponseWriter, r *http.Request) {
	writeJSON(w, http.StatusOK, HealthResponse{Status: "ok"})
}

func (e *HealthEndpoint) Command(getServerURL func() string) *cobra.Command {
	return &cobra.Command{
		Use:   "health",
		Short: "Check server health",
		RunE: func(cmd *cobra.Command, args []string) error {
			client := api.NewClient(getServerURL())
			var resp HealthResponse
			if err := client.Get(cmd.Context(), "/health", &resp); err != nil {
				return err
			}
			return api.Output(resp)
		},
	}
}

// ReadyResponse reports the dependencies a transform needs.
type ReadyResponse struct {
	Status     string `json:"status" yaml:"status"`
	Store      string `json:"store" yaml:"store"`
	Rasterizer string `json:"rasterizer" yaml:"rasterizer"`
}

// ReadyEndpoint handles GET /ready.
type ReadyEndpoint struct{}

func (e *ReadyEndpoint) Route() (string, string, http.HandlerFunc) {
	return "GET", "/ready", e.handler
}

func (e *ReadyEndpoint) RequiresInit() bool { return false }

// handler godoc
//
//	@Summary		Readiness check
//	@Description	Reports whether the upload store is writable and the rasterizer binary is installed
//	@Tags			health
//	@Produce		json
//	@Success		200	{object}	ReadyResponse
//	@Failure		503	{object}	ReadyResponse
//	@Router			/ready [get]
func (e *ReadyEndpoint) handler(w http.ResponseWriter, r *http.Request) {
	resp := ReadyResponse{Status: "ok", Store: "ok", Rasterizer: "ok"}
	status := http.StatusOK

	if st := svcctx.StoreFrom(r.Context()); st == nil {
		resp.Store = "not_initialized"
	} else if err := st.Writable(); err != nil {
		svcctx.LoggerFrom(r.Context()).Warn("upload store not writable", "error", err)
		resp.Store = "unwritable"
	}
	if resp.Store != "ok" {
		resp.Status = "unavailable"
		status = http.StatusServiceUnavailable
	}

	// Only rasterize needs poppler; the other tools keep working without it.
	if rz := svcctx.RasterizerFrom(r.Context()); rz == nil {
		resp.Rasterizer = "not_initialized"
	} else if err := rz.Available(); err != nil {
		resp.Rasterizer = "missing"
	}
	if resp.Rasterizer != "ok" && resp.Status == "ok" {
		resp.Status = "degraded"
	}

	writeJSON(w, status, resp)
}

func (e *ReadyEndpoint) Command(getServerURL func() string) *cobra.Command {
	return &cobra.Command{
		Use:   "ready",
		Short: "Check server readiness (store and rasterizer)",
		RunE: func(cmd *cobra.Command, args []string) error {
			client := api.NewClient(getServerURL())
			var resp ReadyResponse
			if err := client.Get(cmd.Context(), "/ready", &resp); err != nil {
				return err
			}
			return api.Output(resp)
		},
	}
}
