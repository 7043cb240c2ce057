package html2pdf

import (
	"fmt"
	"os"

	"github.com/pdfcpu/pdfcpu/pkg/api"
	"github.com/pdfcpu/pdfcpu/pkg/pdfcpu/model"
)

// pdfVerifier checks a written PDF and reports its page count.
type pdfVerifier interface {
	Verify(path string) (pages int, err error)
}

// pdfcpuVerifier validates structure with pdfcpu.
type pdfcpuVerifier struct{}

func (pdfcpuVerifier) Verify(path string) (int, error) {
	f, err := os.Open(path) // #nosec G304 -- path is the converter's own output
	if err != nil {
		return 0, fmt.Errorf("%w: %v", ErrInvalidPDF, err)
	}
	defer func() { _ = f.Close() }()

	ctx, err := api.ReadContext(f, model.NewDefaultConfiguration())
	if err != nil {
		return 0, fmt.Errorf("%w: %v", ErrInvalidPDF, err)
	}
	if err := api.ValidateContext(ctx); err != nil {
		return 0, fmt.Errorf("%w: %v", ErrInvalidPDF, err)
	}
	if ctx.PageCount < 1 {
		return 0, fmt.Errorf("%w: no pages", ErrInvalidPDF)
	}
	return ctx.PageCount, nil
}

// verifyOutput runs v on the rendered file and deletes it when invalid, so a
// corrupt PDF is never left behind.
func verifyOutput(v pdfVerifier, engine Engine, path string) (int, error) {
	pages, err := v.Verify(path)
	if err != nil {
		_ = os.Remove(path)
		return 0, renderErr(engine, err)
	}
	return pages, nil
}
