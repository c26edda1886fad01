package tools

import (
	"context"
	"fmt"
	"strings"

	"github.com/wallsified/pdf-o-matico/internal/pagerange"
	"github.com/wallsified/pdf-o-matico/internal/pdf"
)

// Split writes one document per comma-separated group of the range string
// and returns them as a zip.
type Split struct{}

func (t *Split) Info() Info {
	return Info{
		Name:        "split",
		Title:       "Split PDF",
		Description: "Separate a PDF into multiple files by page range",
		Route:       "/split-pdf",
		Params:      []string{"ranges"},
	}
}

func (t *Split) Check(params Params, docs int) error {
	if err := requireSingle(docs); err != nil {
		return err
	}
	if strings.TrimSpace(params.Ranges) == "" {
		return Errorf(ErrEmptySelection, "Please enter page ranges to split.")
	}
	return nil
}

func (t *Split) Run(ctx context.Context, engine pdf.Engine, inputs []Input, params Params) (*Artifact, error) {
	in := inputs[0]
	total := in.Doc.PageCount()

	// Resolve every group before copying anything so a bad group late in
	// the list fails without any engine work.
	groups := pagerange.SplitGroups(params.Ranges)
	selections := make([][]int, len(groups))
	for i, group := range groups {
		pages, err := pagerange.Parse(group, total)
		if err != nil {
			return nil, &Error{Kind: ErrInvalidRange, Msg: fmt.Sprintf("Invalid page range: %s", group), Err: err}
		}
		selections[i] = pages
	}

	base := BaseName(in.Name)
	entries := make([]zipEntry, len(selections))
	for i, pages := range selections {
		data, err := engine.Extract(in.Doc, pages)
		if err != nil {
			return nil, Wrap(ErrProcessing, err, "An error occurred during splitting")
		}
		entries[i] = zipEntry{name: fmt.Sprintf("%s_part_%d.pdf", base, i+1), data: data}
	}

	archive, err := writeZip(entries)
	if err != nil {
		return nil, Wrap(ErrProcessing, err, "An error occurred during splitting")
	}
	return &Artifact{
		Name:        base + "_split.zip",
		ContentType: ContentTypeZip,
		Data:        archive,
	}, nil
}
