package tools

import (
	"context"

	"github.com/wallsified/pdf-o-matico/internal/pdf"
)

// Compress re-encodes content streams, keeping pages and order.
type Compress struct{}

func (t *Compress) Info() Info {
	return Info{
		Name:        "compress",
		Title:       "Compress PDF",
		Description: "Reduce file size while maintaining quality",
		Route:       "/compress-pdf",
	}
}

func (t *Compress) Check(params Params, docs int) error {
	return requireSingle(docs)
}

func (t *Compress) Run(ctx context.Context, engine pdf.Engine, inputs []Input, params Params) (*Artifact, error) {
	in := inputs[0]
	data, err := engine.Compress(in.Doc)
	if err != nil {
		return nil, Wrap(ErrProcessing, err, "An error occurred during compression")
	}
	return &Artifact{
		Name:        BaseName(in.Name) + "_compressed.pdf",
		ContentType: ContentTypePDF,
		Data:        data,
	}, nil
}
