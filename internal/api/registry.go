package api

import (
	"net/http"

	"github.com/spf13/cobra"
)

// Registry holds all registered endpoints.
type Registry struct {
	endpoints []Endpoint
}

// NewRegistry creates a new endpoint registry.
func NewRegistry() *Registry {
	return &Registry{}
}

// Register adds an endpoint to the registry.
func (r *Registry) Register(ep Endpoint) {
	r.endpoints = append(r.endpoints, ep)
}

// RegisterRoutes registers all endpoint HTTP routes with the given mux,
// using Go 1.22 "METHOD /path" patterns. initMiddleware wraps handlers
// that need the session manager.
func (r *Registry) RegisterRoutes(mux *http.ServeMux, initMiddleware func(http.HandlerFunc) http.HandlerFunc) {
	for _, ep := range r.endpoints {
		method, path, handler := ep.Route()
		if ep.RequiresInit() {
			handler = initMiddleware(handler)
		}
		mux.HandleFunc(method+" "+path, handler)
	}
}

// BuildCommands returns the "api" command tree for all registered endpoints.
// getServerURL is called at runtime to get the server URL.
func (r *Registry) BuildCommands(getServerURL func() string) *cobra.Command {
	apiCmd := &cobra.Command{
		Use:   "api",
		Short: "Commands that call the running server",
		Long: `API commands call a running pdf-o-matico server via HTTP.

These commands require a running server (pdfomatico serve).
Use --server to specify a custom server URL.

Examples:
  pdfomatico api health                         # Check server health
  pdfomatico api tools                          # List available tools
  pdfomatico api sessions create split          # Start a split session
  pdfomatico api sessions upload <id> a.pdf     # Upload into a session`,
	}

	// Endpoints sharing a parent command (e.g. "sessions") are grouped
	// under it in registration order.
	groups := make(map[string]*cobra.Command)
	for _, ep := range r.endpoints {
		cmd := ep.Command(getServerURL)
		if cmd == nil {
			continue
		}
		group, ok := ep.(interface{ Group() string })
		if !ok || group.Group() == "" {
			apiCmd.AddCommand(cmd)
			continue
		}
		parent, exists := groups[group.Group()]
		if !exists {
			parent = &cobra.Command{
				Use:   group.Group(),
				Short: "Manage " + group.Group(),
			}
			groups[group.Group()] = parent
			apiCmd.AddCommand(parent)
		}
		parent.AddCommand(cmd)
	}

	return apiCmd
}

// Endpoints returns all registered endpoints.
func (r *Registry) Endpoints() []Endpoint {
	return r.endpoints
}
