package main

import (
	"log/slog"
	"os"
	"path/filepath"

	"github.com/google/uuid"
	"github.com/spf13/cobra"

	"github.com/wallsified/pdf-o-matico/internal/api"
	"github.com/wallsified/pdf-o-matico/internal/pagerange"
	"github.com/wallsified/pdf-o-matico/internal/pdf"
	"github.com/wallsified/pdf-o-matico/internal/session"
	"github.com/wallsified/pdf-o-matico/internal/store"
	"github.com/wallsified/pdf-o-matico/internal/tools"
)

var (
	runParams tools.Params
	runOutDir string
)

// RunResult is what the run command reports.
type RunResult struct {
	Tool  string         `json:"tool" yaml:"tool"`
	Files []string       `json:"files" yaml:"files"`
	Pages string         `json:"pages,omitempty" yaml:"pages,omitempty"`
	Saved *api.SavedFile `json:"saved" yaml:"saved"`
}

var runCmd = &cobra.Command{
	Use:   "run <tool> <file.pdf>...",
	Short: "Run a tool locally without a server",
	Long: `Run a tool in-process against local files.

The session goes through the same steps as on the server: the files are
validated and staged in a temporary directory, the tool runs, and the
staged copies are removed.

Examples:
  pdfomatico run split report.pdf --ranges "1-3,4-9" --out ./parts
  pdfomatico run merge a.pdf b.pdf c.pdf
  pdfomatico run rasterize slides.pdf --out ./images`,
	Args: cobra.MinimumNArgs(2),
	RunE: func(cmd *cobra.Command, args []string) error {
		ctx := cmd.Context()

		_, cm, err := loadConfig()
		if err != nil {
			return err
		}
		settings := cm.Get()
		logger := slog.Default()

		tmp, err := os.MkdirTemp("", "pdfomatico-run-*")
		if err != nil {
			return err
		}
		defer os.RemoveAll(tmp)

		st, err := store.New(tmp, logger)
		if err != nil {
			return err
		}

		registry := tools.NewRegistry(tools.Options{RasterWorkers: settings.Rasterize.Workers})
		tool, err := registry.Get(args[0])
		if err != nil {
			return err
		}

		engine := pdf.NewPDFCPU(pdf.Config{
			Strict: settings.PDF.Strict(),
			Rasterizer: pdf.NewPoppler(pdf.PopplerConfig{
				Binary:   settings.Rasterize.Binary,
				DPI:      settings.Rasterize.DPI,
				Attempts: uint(max(settings.Rasterize.Retries, 1)),
				Logger:   logger,
			}),
			Logger: logger,
		})

		s, err := session.New(session.Config{
			ID:     uuid.NewString(),
			Tool:   tool,
			Engine: engine,
			Store:  st,
			Logger: logger,
		})
		if err != nil {
			return err
		}
		defer s.Close()

		files := make([]session.File, 0, len(args)-1)
		for _, path := range args[1:] {
			f, err := os.Open(path)
			if err != nil {
				return err
			}
			defer f.Close()
			files = append(files, session.File{Name: filepath.Base(path), Reader: f})
		}
		if err := s.Upload(ctx, files); err != nil {
			return err
		}

		result := RunResult{Tool: tools.Name(tool), Files: s.State().Files}
		// Report the normalized selection; a bad one fails in Transform.
		if tools.Name(tool) == "extract" {
			if pages, err := pagerange.Parse(runParams.Ranges, s.State().TotalPages); err == nil {
				result.Pages = pagerange.Format(pages)
			}
		}

		if err := s.SetParams(runParams); err != nil {
			return err
		}
		artifact, err := s.Transform(ctx)
		if err != nil {
			return err
		}

		result.Saved, err = api.Save(runOutDir, &api.File{
			Name:        artifact.Name,
			ContentType: artifact.ContentType,
			Data:        artifact.Data,
		})
		if err != nil {
			return err
		}
		return api.Output(result)
	},
}

func init() {
	runCmd.Flags().StringVar(&runParams.Ranges, "ranges", "", "Page ranges, e.g. \"1-3,5\" (split, extract)")
	runCmd.Flags().IntVar(&runParams.Angle, "angle", tools.DefaultAngle, "Rotation angle: 90, 180 or 270 (rotate)")
	runCmd.Flags().StringVar(&runOutDir, "out", ".", "Directory to write the result to")

	rootCmd.AddCommand(runCmd)
}
