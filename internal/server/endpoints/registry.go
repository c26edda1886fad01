package endpoints

import (
	"github.com/spf13/cobra"

	"github.com/wallsified/pdf-o-matico/internal/api"
)

// All returns all endpoint instances.
func All() []api.Endpoint {
	return []api.Endpoint{
		// Health endpoints
		&HealthEndpoint{},
		&ReadyEndpoint{},

		// Tool catalogue
		&ListToolsEndpoint{},

		// Session lifecycle
		&CreateSessionEndpoint{},
		&ListSessionsEndpoint{},
		&GetSessionEndpoint{},
		&DeleteSessionEndpoint{},
		&UploadEndpoint{},
		&TransformEndpoint{},

		// Swagger/OpenAPI
		&SwaggerEndpoint{},
	}
}

// Commands returns the "api" command tree: every endpoint's command plus
// the one-shot process command.
func Commands(getServerURL func() string) *cobra.Command {
	registry := api.NewRegistry()
	for _, ep := range All() {
		registry.Register(ep)
	}
	cmd := registry.BuildCommands(getServerURL)
	cmd.AddCommand(ProcessCommand(getServerURL))
	return cmd
}
