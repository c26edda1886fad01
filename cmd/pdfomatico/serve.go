package main

import (
	"log/slog"

	"github.com/spf13/cobra"

	"github.com/wallsified/pdf-o-matico/internal/config"
	"github.com/wallsified/pdf-o-matico/internal/server"
)

var (
	serveHost string
	servePort string
)

var serveCmd = &cobra.Command{
	Use:   "serve",
	Short: "Start the pdf-o-matico server",
	Long: `Start the pdf-o-matico HTTP server.

Uploads live under the home directory (or uploads.dir) only for as long
as a session needs them. Idle sessions are swept after uploads.session_ttl
and every session is removed when the server shuts down (Ctrl+C or SIGTERM).

The config file is watched: log level and rate limits apply immediately,
other changes need a restart.

The server provides:
  - /health        Liveness check
  - /ready         Readiness check (upload store, pdftoppm)
  - /api/tools     Available tools
  - /api/sessions  Session lifecycle
  - /swagger.json  OpenAPI document

Examples:
  pdfomatico serve                    # Start on the configured address
  pdfomatico serve --port 3000        # Start on custom port
  pdfomatico serve --host 0.0.0.0     # Bind to all interfaces`,
	RunE: func(cmd *cobra.Command, args []string) error {
		ctx := cmd.Context()

		h, cm, err := loadConfig()
		if err != nil {
			return err
		}
		if err := h.EnsureExists(); err != nil {
			return err
		}

		logger := newLogger(cm.Get().Log)
		slog.SetDefault(logger)
		if file := cm.ConfigFile(); file != "" {
			logger.Info("using config file", "path", file)
			cm.WatchConfig(logger)
		}
		cm.OnChange(func(c *config.Config) {
			if logLevelFlag == "" {
				logLevel.Set(c.Log.SlogLevel())
			}
		})

		srv, err := server.New(server.Config{
			Host:          serveHost,
			Port:          servePort,
			Home:          h,
			ConfigManager: cm,
			Logger:        logger,
		})
		if err != nil {
			return err
		}

		// Start server (blocks until shutdown)
		return srv.Start(ctx)
	},
}

func init() {
	serveCmd.Flags().StringVar(&serveHost, "host", "", "Host to bind to (default: server.host)")
	serveCmd.Flags().StringVar(&servePort, "port", "", "Port to listen on (default: server.port)")

	rootCmd.AddCommand(serveCmd)
}
