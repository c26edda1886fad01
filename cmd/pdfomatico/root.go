package main

import (
	"errors"
	"fmt"
	"io/fs"
	"log/slog"
	"os"
	"strings"

	"github.com/joho/godotenv"
	"github.com/spf13/cobra"

	"github.com/wallsified/pdf-o-matico/internal/api"
	"github.com/wallsified/pdf-o-matico/internal/config"
	"github.com/wallsified/pdf-o-matico/internal/home"
	"github.com/wallsified/pdf-o-matico/version"
)

var (
	cfgFile      string
	homeDir      string
	outputFormat string
	logLevelFlag string
	logFormat    string
)

// logLevel is shared by every handler so config reloads take effect at once.
var logLevel = new(slog.LevelVar)

var rootCmd = &cobra.Command{
	Use:   "pdfomatico",
	Short: "Split, merge, compress, rasterize, extract and rotate PDFs",
	Long: `pdf-o-matico is a small PDF toolbox served over HTTP.

Each tool runs as a session: upload one or more PDFs, run the tool,
download the result. Uploaded files are removed as soon as the tool
has run, whatever the outcome.

Tools:
  - split      one PDF per page range group ("1-3,4-6")
  - merge      concatenate PDFs in upload order
  - compress   rewrite with object streams and deduplication
  - rasterize  one PNG per page, zipped
  - extract    a single PDF with the selected pages
  - rotate     rotate every page by 90, 180 or 270 degrees`,
	Version:       version.GitRelease,
	SilenceUsage:  true,
}

func init() {
	rootCmd.PersistentFlags().StringVar(
		&cfgFile, "config", "", "config file (default: ./config.yaml or ~/.pdfomatico/config.yaml)",
	)
	rootCmd.PersistentFlags().StringVar(
		&homeDir, "home", "", "pdf-o-matico home directory (default: ~/.pdfomatico)",
	)
	rootCmd.PersistentFlags().StringVarP(
		&outputFormat, "output", "o", "yaml", "output format: yaml or json",
	)
	rootCmd.PersistentFlags().StringVar(
		&logLevelFlag, "log-level", "", "log level: debug, info, warn, error (default: from config)",
	)
	rootCmd.PersistentFlags().StringVar(
		&logFormat, "log-format", "", "log format: text or json (default: from config)",
	)

	// Set output format and load dotenv files before any command runs
	rootCmd.PersistentPreRunE = func(cmd *cobra.Command, args []string) error {
		api.SetOutputFormat(outputFormat)
		if err := loadEnv(); err != nil {
			return err
		}
		slog.SetDefault(newLogger(config.LogCfg{Level: logLevelFlag, Format: logFormat}))
		return nil
	}

	rootCmd.AddCommand(versionCmd)
}

// loadEnv loads ~/.pdfomatico/.env and ./.env. Variables already set in the
// environment win; missing files are ignored.
func loadEnv() error {
	h, err := home.New(homeDir)
	if err != nil {
		return err
	}
	for _, path := range []string{h.EnvPath(), ".env"} {
		if err := godotenv.Load(path); err != nil && !errors.Is(err, fs.ErrNotExist) {
			return fmt.Errorf("failed to load %s: %w", path, err)
		}
	}
	return nil
}

// newLogger builds a stderr logger. Flags override cfg.
func newLogger(cfg config.LogCfg) *slog.Logger {
	if logLevelFlag != "" {
		cfg.Level = logLevelFlag
	}
	if logFormat != "" {
		cfg.Format = logFormat
	}
	logLevel.Set(cfg.SlogLevel())

	opts := &slog.HandlerOptions{Level: logLevel}
	if strings.EqualFold(cfg.Format, "json") {
		return slog.New(slog.NewJSONHandler(os.Stderr, opts))
	}
	return slog.New(slog.NewTextHandler(os.Stderr, opts))
}

// loadConfig resolves the home directory and loads configuration from
// --config, ./config.yaml or the home directory, in that order.
func loadConfig() (*home.Dir, *config.Manager, error) {
	h, err := home.New(homeDir)
	if err != nil {
		return nil, nil, err
	}
	cm, err := config.NewManager(cfgFile, h.Path())
	if err != nil {
		return nil, nil, err
	}
	return h, cm, nil
}
