package tools

import (
	"context"

	"github.com/wallsified/pdf-o-matico/internal/pdf"
)

// DefaultAngle is used when a rotate request omits the angle.
const DefaultAngle = 90

// Rotate turns every page by one of the allowed angles.
type Rotate struct{}

// angle resolves the requested rotation; zero means not supplied.
func angle(params Params) int {
	if params.Angle == 0 {
		return DefaultAngle
	}
	return params.Angle
}

// ValidAngle reports whether degrees is one of 90, 180 or 270.
func ValidAngle(degrees int) bool {
	switch degrees {
	case 90, 180, 270:
		return true
	}
	return false
}

func (t *Rotate) Info() Info {
	return Info{
		Name:        "rotate",
		Title:       "Rotate Pages",
		Description: "Rotate pages clockwise or counterclockwise",
		Route:       "/rotate-pages",
		Params:      []string{"angle"},
	}
}

func (t *Rotate) Check(params Params, docs int) error {
	if err := requireSingle(docs); err != nil {
		return err
	}
	if !ValidAngle(angle(params)) {
		return Errorf(ErrInvalidRotation, "Invalid rotation angle. Please select 90, 180, or 270 degrees.")
	}
	return nil
}

func (t *Rotate) Run(ctx context.Context, engine pdf.Engine, inputs []Input, params Params) (*Artifact, error) {
	in := inputs[0]
	data, err := engine.Rotate(in.Doc, angle(params))
	if err != nil {
		return nil, Wrap(ErrProcessing, err, "An error occurred during rotation")
	}
	return &Artifact{
		Name:        BaseName(in.Name) + "_rotated.pdf",
		ContentType: ContentTypePDF,
		Data:        data,
	}, nil
}
