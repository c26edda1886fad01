package pdf

import (
	"bytes"
	"context"
	"errors"
	"fmt"
	"io"
	"log/slog"

	"github.com/pdfcpu/pdfcpu/pkg/api"
	"github.com/pdfcpu/pdfcpu/pkg/pdfcpu"
	"github.com/pdfcpu/pdfcpu/pkg/pdfcpu/model"
)

// PDFCPU implements Engine on top of pdfcpu.
type PDFCPU struct {
	strict     bool
	rasterizer Rasterizer
	logger     *slog.Logger
}

// Config configures a PDFCPU engine.
type Config struct {
	// Strict enables pdfcpu's strict validation mode (default: relaxed)
	Strict bool
	// Rasterizer renders pages for Rasterize. Required only for that operation.
	Rasterizer Rasterizer
	// Logger is the structured logger to use
	Logger *slog.Logger
}

// NewPDFCPU creates a pdfcpu-backed engine.
func NewPDFCPU(cfg Config) *PDFCPU {
	logger := cfg.Logger
	if logger == nil {
		logger = slog.Default()
	}
	return &PDFCPU{
		strict:     cfg.Strict,
		rasterizer: cfg.Rasterizer,
		logger:     logger.With("component", "pdfcpu"),
	}
}

var _ Engine = (*PDFCPU)(nil)

// document keeps both the parsed context and the raw bytes: page copies
// work on the context, while whole-file operations re-read the bytes.
type document struct {
	ctx  *model.Context
	data []byte
}

func (d *document) PageCount() int { return d.ctx.PageCount }

// configuration returns a fresh pdfcpu configuration.
// pdfcpu mutates the configuration during a run, so it is never shared.
func (e *PDFCPU) configuration() *model.Configuration {
	conf := model.NewDefaultConfiguration()
	if e.strict {
		conf.ValidationMode = model.ValidationStrict
	} else {
		conf.ValidationMode = model.ValidationRelaxed
	}
	return conf
}

func (e *PDFCPU) open(doc Document) (*document, error) {
	d, ok := doc.(*document)
	if !ok || d == nil {
		return nil, ErrForeignDocument
	}
	return d, nil
}

// Read parses and validates data.
func (e *PDFCPU) Read(data []byte) (Document, error) {
	if len(data) == 0 {
		return nil, fmt.Errorf("%w: empty input", ErrUnreadable)
	}

	ctx, err := api.ReadContext(bytes.NewReader(data), e.configuration())
	if err != nil {
		return nil, fmt.Errorf("%w: %v", ErrUnreadable, err)
	}
	if err := api.ValidateContext(ctx); err != nil {
		return nil, fmt.Errorf("%w: %v", ErrUnreadable, err)
	}
	if ctx.PageCount == 0 {
		return nil, ErrEmptyDocument
	}

	return &document{ctx: ctx, data: data}, nil
}

// Extract copies pages into a new document.
func (e *PDFCPU) Extract(doc Document, pages []int) ([]byte, error) {
	d, err := e.open(doc)
	if err != nil {
		return nil, err
	}
	if len(pages) == 0 {
		return nil, errors.New("no pages to extract")
	}

	out, err := pdfcpu.ExtractPages(d.ctx, pages, false)
	if err != nil {
		return nil, fmt.Errorf("failed to copy pages: %w", err)
	}

	var buf bytes.Buffer
	if err := api.WriteContext(out, &buf); err != nil {
		return nil, fmt.Errorf("failed to write document: %w", err)
	}
	return buf.Bytes(), nil
}

// Merge concatenates documents in order.
func (e *PDFCPU) Merge(docs []Document) ([]byte, error) {
	if len(docs) == 0 {
		return nil, errors.New("no documents to merge")
	}

	readers := make([]io.ReadSeeker, len(docs))
	for i, doc := range docs {
		d, err := e.open(doc)
		if err != nil {
			return nil, err
		}
		readers[i] = bytes.NewReader(d.data)
	}

	var buf bytes.Buffer
	if err := api.MergeRaw(readers, &buf, false, e.configuration()); err != nil {
		return nil, fmt.Errorf("failed to merge documents: %w", err)
	}
	return buf.Bytes(), nil
}

// Compress runs pdfcpu's optimizer, which rewrites streams with Flate and
// drops redundant objects.
func (e *PDFCPU) Compress(doc Document) ([]byte, error) {
	d, err := e.open(doc)
	if err != nil {
		return nil, err
	}

	conf := e.configuration()
	conf.WriteObjectStream = true
	conf.WriteXRefStream = true

	var buf bytes.Buffer
	if err := api.Optimize(bytes.NewReader(d.data), &buf, conf); err != nil {
		return nil, fmt.Errorf("failed to optimize document: %w", err)
	}

	e.logger.Debug("compressed document",
		"pages", d.PageCount(),
		"in_bytes", len(d.data),
		"out_bytes", buf.Len(),
	)
	return buf.Bytes(), nil
}

// Rotate turns every page clockwise by degrees.
func (e *PDFCPU) Rotate(doc Document, degrees int) ([]byte, error) {
	d, err := e.open(doc)
	if err != nil {
		return nil, err
	}

	var buf bytes.Buffer
	if err := api.Rotate(bytes.NewReader(d.data), &buf, degrees, nil, e.configuration()); err != nil {
		return nil, fmt.Errorf("failed to rotate pages: %w", err)
	}
	return buf.Bytes(), nil
}

// Rasterize renders one page through the configured Rasterizer.
func (e *PDFCPU) Rasterize(ctx context.Context, doc Document, page int) ([]byte, error) {
	d, err := e.open(doc)
	if err != nil {
		return nil, err
	}
	if e.rasterizer == nil {
		return nil, errors.New("no rasterizer configured")
	}
	return e.rasterizer.Render(ctx, d.data, page)
}
