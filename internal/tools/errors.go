package tools

import (
	"errors"
	"fmt"

	"github.com/wallsified/pdf-o-matico/internal/pagerange"
)

// Error kinds. Every error a session reports matches exactly one of these
// with errors.Is.
var (
	ErrNoFileSelected    = errors.New("no file selected")
	ErrInvalidPDF        = errors.New("invalid PDF")
	ErrEmptySelection    = errors.New("empty selection")
	ErrInvalidRange      = pagerange.ErrInvalidRange
	ErrInvalidRotation   = errors.New("invalid rotation")
	ErrProcessing        = errors.New("processing error")
	ErrInsufficientFiles = errors.New("insufficient files")
)

var kindNames = []struct {
	kind error
	name string
}{
	{ErrNoFileSelected, "no_file_selected"},
	{ErrInvalidPDF, "invalid_pdf"},
	{ErrEmptySelection, "empty_selection"},
	{ErrInvalidRange, "invalid_range"},
	{ErrInvalidRotation, "invalid_rotation"},
	{ErrInsufficientFiles, "insufficient_files"},
	{ErrProcessing, "processing_error"},
}

// Error is a user-facing failure. Msg is shown as-is; Kind is one of the
// sentinels above and Err, when set, is the underlying cause.
type Error struct {
	Kind error
	Msg  string
	Err  error
}

func (e *Error) Error() string { return e.Msg }

func (e *Error) Unwrap() []error {
	errs := []error{e.Kind}
	if e.Err != nil {
		errs = append(errs, e.Err)
	}
	return errs
}

// Errorf builds an *Error of the given kind.
func Errorf(kind error, format string, args ...any) *Error {
	return &Error{Kind: kind, Msg: fmt.Sprintf(format, args...)}
}

// Wrap builds an *Error of the given kind around cause. The cause's text is
// appended to msg.
func Wrap(kind error, cause error, msg string) *Error {
	return &Error{Kind: kind, Msg: fmt.Sprintf("%s: %v", msg, cause), Err: cause}
}

// KindOf returns the snake_case name of err's kind, "processing_error" for
// errors outside the taxonomy, and "" for nil.
func KindOf(err error) string {
	if err == nil {
		return ""
	}
	var te *Error
	if errors.As(err, &te) {
		for _, k := range kindNames {
			if te.Kind == k.kind {
				return k.name
			}
		}
	}
	for _, k := range kindNames {
		if errors.Is(err, k.kind) {
			return k.name
		}
	}
	return "processing_error"
}
