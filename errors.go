package html2pdf

import (
	"errors"
	"fmt"

	"github.com/alnah/go-html2pdf/internal/pipeline"
)

// Sentinel errors for library operations.
var (
	ErrNotFound     = errors.New("input not found")
	ErrInvalidInput = errors.New("invalid input")

	// ErrPreprocess is returned (inside a RenderError) when the browser
	// strategy could not parse or rewrite the document.
	ErrPreprocess = pipeline.ErrPreprocess

	// Engine errors.
	ErrEngineNotFound = errors.New("rendering engine not installed")
	ErrEngineFailed   = errors.New("rendering engine failed")
	ErrBrowserConnect = errors.New("failed to connect to browser")
	ErrPageCreate     = errors.New("failed to create browser page")
	ErrPageLoad       = errors.New("failed to load page")
	ErrPDFGeneration  = errors.New("PDF generation failed")
	ErrInvalidPDF     = errors.New("output is not a valid PDF")

	// Option validation errors.
	ErrUnknownEngine        = errors.New("unknown engine")
	ErrUnknownDriver        = errors.New("unknown browser driver")
	ErrInvalidMediaType     = errors.New("invalid media type")
	ErrInvalidWaitCondition = errors.New("invalid wait condition")
	ErrInvalidPage          = errors.New("invalid page settings")
	ErrInvalidViewport      = errors.New("invalid viewport")
)

// RenderError reports a failure inside a rendering engine. Err carries the
// underlying cause and is reachable through errors.Is and errors.As.
type RenderError struct {
	Engine Engine
	Err    error
}

func (e *RenderError) Error() string {
	return fmt.Sprintf("%s engine: %v", e.Engine, e.Err)
}

func (e *RenderError) Unwrap() error { return e.Err }

// renderErr wraps err in a RenderError unless it already is one.
func renderErr(engine Engine, err error) error {
	var re *RenderError
	if errors.As(err, &re) {
		return err
	}
	return &RenderError{Engine: engine, Err: err}
}
