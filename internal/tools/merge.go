package tools

import (
	"context"

	"github.com/wallsified/pdf-o-matico/internal/pdf"
)

// MergedName is the fixed file name of a merge result.
const MergedName = "merged_document.pdf"

// Merge concatenates every uploaded document in upload order.
type Merge struct{}

func (t *Merge) Info() Info {
	return Info{
		Name:        "merge",
		Title:       "Merge PDF",
		Description: "Combine multiple PDFs into a single document",
		Route:       "/merge-pdf",
		Multi:       true,
	}
}

func (t *Merge) Check(params Params, docs int) error {
	if docs < 2 {
		return Errorf(ErrInsufficientFiles, "Please upload at least two PDF files to merge.")
	}
	return nil
}

func (t *Merge) Run(ctx context.Context, engine pdf.Engine, inputs []Input, params Params) (*Artifact, error) {
	docs := make([]pdf.Document, len(inputs))
	for i, in := range inputs {
		docs[i] = in.Doc
	}

	data, err := engine.Merge(docs)
	if err != nil {
		return nil, Wrap(ErrProcessing, err, "An error occurred during merging")
	}
	return &Artifact{
		Name:        MergedName,
		ContentType: ContentTypePDF,
		Data:        data,
	}, nil
}
