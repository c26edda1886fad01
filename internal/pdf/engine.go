// Package pdf wraps the PDF library the tools drive.
// Every tool goes through Engine so the lifecycle code never touches pdfcpu
// or poppler directly.
package pdf

import (
	"context"
	"errors"
)

var (
	// ErrUnreadable is returned when bytes cannot be parsed as a PDF.
	ErrUnreadable = errors.New("not a readable PDF")

	// ErrEmptyDocument is returned for a PDF that parses but has no pages.
	ErrEmptyDocument = errors.New("PDF has no pages")

	// ErrForeignDocument is returned when a Document from another engine is passed in.
	ErrForeignDocument = errors.New("document was not opened by this engine")
)

// Document is a parsed, validated PDF.
type Document interface {
	PageCount() int
}

// Engine exposes the operations the tools need from a PDF library.
// Page numbers are 1-based and assumed in bounds; callers resolve them first.
type Engine interface {
	// Read parses and validates data.
	Read(data []byte) (Document, error)

	// Extract copies the given pages, in the given order, into a new document.
	Extract(doc Document, pages []int) ([]byte, error)

	// Merge concatenates documents in order.
	Merge(docs []Document) ([]byte, error)

	// Compress re-encodes content streams without changing pages or order.
	Compress(doc Document) ([]byte, error)

	// Rotate turns every page clockwise by degrees (90, 180 or 270).
	Rotate(doc Document, degrees int) ([]byte, error)

	// Rasterize renders one page to PNG.
	Rasterize(ctx context.Context, doc Document, page int) ([]byte, error)
}

// Rasterizer renders a single page of a PDF to PNG bytes.
type Rasterizer interface {
	Render(ctx context.Context, data []byte, page int) ([]byte, error)
}
