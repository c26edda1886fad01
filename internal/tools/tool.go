// Package tools implements the six document operations as strategies the
// session lifecycle can drive: each tool checks its own preconditions and
// turns validated input documents into one downloadable artifact.
package tools

import (
	"context"
	"path/filepath"
	"strings"

	"github.com/wallsified/pdf-o-matico/internal/pdf"
)

// Content types of artifacts.
const (
	ContentTypePDF = "application/pdf"
	ContentTypeZip = "application/zip"
)

// Params are the user-supplied operation parameters.
// Only the fields a tool uses are read.
type Params struct {
	Ranges string `json:"ranges,omitempty" yaml:"ranges,omitempty"`
	Angle  int    `json:"angle,omitempty" yaml:"angle,omitempty"`
}

// Input is one uploaded document handed to a tool.
type Input struct {
	Name string
	Doc  pdf.Document
}

// Artifact is a transform result ready for download.
type Artifact struct {
	Name        string
	ContentType string
	Data        []byte
}

// Info describes a tool for listings.
type Info struct {
	Name        string   `json:"name" yaml:"name"`
	Title       string   `json:"title" yaml:"title"`
	Description string   `json:"description" yaml:"description"`
	Route       string   `json:"route" yaml:"route"`
	Multi       bool     `json:"multi" yaml:"multi"`
	Params      []string `json:"params,omitempty" yaml:"params,omitempty"`
}

// Tool is one operation kind.
type Tool interface {
	// Info describes the tool.
	Info() Info

	// Check validates preconditions. It must not touch the engine.
	// docs is the number of documents currently uploaded.
	Check(params Params, docs int) error

	// Run transforms inputs into an artifact. Check has already passed.
	Run(ctx context.Context, engine pdf.Engine, inputs []Input, params Params) (*Artifact, error)
}

// Name returns a tool's registry name.
func Name(t Tool) string {
	return t.Info().Name
}

// BaseName strips the extension from an uploaded file name.
func BaseName(name string) string {
	base := filepath.Base(name)
	return strings.TrimSuffix(base, filepath.Ext(base))
}

// requireSingle is the shared precondition of the single-file tools.
func requireSingle(docs int) error {
	if docs == 0 {
		return Errorf(ErrNoFileSelected, "Please upload a PDF file first.")
	}
	return nil
}
