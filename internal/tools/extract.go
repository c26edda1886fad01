package tools

import (
	"context"
	"strings"

	"github.com/wallsified/pdf-o-matico/internal/pagerange"
	"github.com/wallsified/pdf-o-matico/internal/pdf"
)

// Extract copies a page selection into a new document, in ascending order.
type Extract struct{}

func (t *Extract) Info() Info {
	return Info{
		Name:        "extract",
		Title:       "Extract Pages",
		Description: "Select and extract specific pages from your PDF",
		Route:       "/extract-pages",
		Params:      []string{"ranges"},
	}
}

func (t *Extract) Check(params Params, docs int) error {
	if err := requireSingle(docs); err != nil {
		return err
	}
	if strings.TrimSpace(params.Ranges) == "" {
		return Errorf(ErrEmptySelection, "Please enter pages or ranges to extract.")
	}
	return nil
}

func (t *Extract) Run(ctx context.Context, engine pdf.Engine, inputs []Input, params Params) (*Artifact, error) {
	in := inputs[0]

	pages, err := pagerange.Parse(params.Ranges, in.Doc.PageCount())
	if err != nil {
		return nil, &Error{
			Kind: ErrInvalidRange,
			Msg:  "Invalid page selection: '" + params.Ranges + "'. Use comma-separated numbers or ranges (e.g., 1,3-5).",
			Err:  err,
		}
	}

	data, err := engine.Extract(in.Doc, pages)
	if err != nil {
		return nil, Wrap(ErrProcessing, err, "An error occurred during page extraction")
	}
	return &Artifact{
		Name:        BaseName(in.Name) + "_extracted.pdf",
		ContentType: ContentTypePDF,
		Data:        data,
	}, nil
}
