package pdf

import (
	"context"
	"fmt"
	"log/slog"
	"os"
	"os/exec"
	"path/filepath"
	"strconv"
	"time"

	"github.com/avast/retry-go/v4"
)

// Poppler renders pages with pdftoppm (poppler-utils).
type Poppler struct {
	binary   string
	dpi      int
	attempts uint
	logger   *slog.Logger
}

// PopplerConfig configures a Poppler rasterizer.
type PopplerConfig struct {
	// Binary is the pdftoppm executable (default: pdftoppm on PATH)
	Binary string
	// DPI is the render resolution (default: 150)
	DPI int
	// Attempts is how many times a failed render is tried (default: 2)
	Attempts uint
	// Logger is the structured logger to use
	Logger *slog.Logger
}

// NewPoppler creates a pdftoppm-backed rasterizer.
func NewPoppler(cfg PopplerConfig) *Poppler {
	if cfg.Binary == "" {
		cfg.Binary = "pdftoppm"
	}
	if cfg.DPI <= 0 {
		cfg.DPI = 150
	}
	if cfg.Attempts == 0 {
		cfg.Attempts = 2
	}
	if cfg.Logger == nil {
		cfg.Logger = slog.Default()
	}
	return &Poppler{
		binary:   cfg.Binary,
		dpi:      cfg.DPI,
		attempts: cfg.Attempts,
		logger:   cfg.Logger.With("component", "poppler"),
	}
}

var _ Rasterizer = (*Poppler)(nil)

// Available reports whether the pdftoppm binary can be found.
func (p *Poppler) Available() error {
	if _, err := exec.LookPath(p.binary); err != nil {
		return fmt.Errorf("%s not found: %w", p.binary, err)
	}
	return nil
}

// Render renders a single page of data to PNG.
func (p *Poppler) Render(ctx context.Context, data []byte, page int) ([]byte, error) {
	tmpDir, err := os.MkdirTemp("", "pdfomatico-render-*")
	if err != nil {
		return nil, fmt.Errorf("failed to create temp dir: %w", err)
	}
	defer os.RemoveAll(tmpDir)

	inPath := filepath.Join(tmpDir, "input.pdf")
	if err := os.WriteFile(inPath, data, 0o600); err != nil {
		return nil, fmt.Errorf("failed to write render input: %w", err)
	}

	// -singlefile writes <prefix>.png without a page-number suffix
	outputPrefix := filepath.Join(tmpDir, "page")
	pageStr := strconv.Itoa(page)

	err = retry.Do(
		func() error {
			cmd := exec.CommandContext(ctx, p.binary,
				"-png",
				"-f", pageStr,
				"-l", pageStr,
				"-r", strconv.Itoa(p.dpi),
				"-singlefile",
				inPath,
				outputPrefix,
			)
			output, err := cmd.CombinedOutput()
			if err != nil {
				return fmt.Errorf("pdftoppm failed: %w (output: %s)", err, string(output))
			}
			return nil
		},
		retry.Context(ctx),
		retry.Attempts(p.attempts),
		retry.Delay(200*time.Millisecond),
		retry.LastErrorOnly(true),
		retry.OnRetry(func(n uint, err error) {
			p.logger.Warn("retrying page render", "page", page, "attempt", n+1, "error", err)
		}),
	)
	if err != nil {
		return nil, err
	}

	img, err := os.ReadFile(outputPrefix + ".png")
	if err != nil {
		return nil, fmt.Errorf("pdftoppm did not create expected output: %w", err)
	}
	return img, nil
}
