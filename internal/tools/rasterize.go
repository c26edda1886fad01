package tools

import (
	"context"
	"fmt"

	"golang.org/x/sync/errgroup"

	"github.com/wallsified/pdf-o-matico/internal/pdf"
)

// Rasterize renders every page to PNG and returns the images as a zip,
// one entry per page in page order.
type Rasterize struct {
	// Workers bounds concurrent page renders.
	Workers int
}

func (t *Rasterize) Info() Info {
	return Info{
		Name:        "rasterize",
		Title:       "PDF to Images",
		Description: "Export all pages as images in a ZIP file",
		Route:       "/pdf-to-images",
	}
}

func (t *Rasterize) Check(params Params, docs int) error {
	return requireSingle(docs)
}

func (t *Rasterize) Run(ctx context.Context, engine pdf.Engine, inputs []Input, params Params) (*Artifact, error) {
	in := inputs[0]
	base := BaseName(in.Name)
	total := in.Doc.PageCount()

	entries := make([]zipEntry, total)
	g, gctx := errgroup.WithContext(ctx)
	if t.Workers > 0 {
		g.SetLimit(t.Workers)
	}
	for i := 0; i < total; i++ {
		page := i + 1
		g.Go(func() error {
			png, err := engine.Rasterize(gctx, in.Doc, page)
			if err != nil {
				return fmt.Errorf("page %d: %w", page, err)
			}
			entries[page-1] = zipEntry{name: fmt.Sprintf("%s_page_%d.png", base, page), data: png}
			return nil
		})
	}
	if err := g.Wait(); err != nil {
		return nil, Wrap(ErrProcessing, err, "An error occurred during image conversion")
	}

	archive, err := writeZip(entries)
	if err != nil {
		return nil, Wrap(ErrProcessing, err, "An error occurred during image conversion")
	}
	return &Artifact{
		Name:        base + "_images.zip",
		ContentType: ContentTypeZip,
		Data:        archive,
	}, nil
}
