package html2pdf

import (
	"context"
	"path/filepath"

	"github.com/charmbracelet/log"

	"github.com/alnah/go-html2pdf/internal/fileutil"
)

// Strategy renders one resolved document to PDF. Implementations own every
// external resource they start and release it before Render returns.
type Strategy interface {
	Engine() Engine
	Render(ctx context.Context, paths ResolvedPaths, opts RenderOptions) (RenderResult, error)
}

// Compile-time interface checks
var (
	_ Strategy = (*boxStrategy)(nil)
	_ Strategy = (*browserStrategy)(nil)
)

// existingStylesheets keeps the stylesheets present on disk, made absolute.
// Each missing one is reported as a warning, then skipped. Callers surface
// warnings themselves, so the log line is debug only.
func existingStylesheets(logger *log.Logger, sheets []string) (found, warnings []string) {
	for _, s := range sheets {
		if !fileutil.FileExists(s) {
			msg := "CSS file not found: " + s
			logger.Debug(msg)
			warnings = append(warnings, msg)
			continue
		}
		if abs, err := filepath.Abs(s); err == nil {
			s = abs
		}
		found = append(found, s)
	}
	return found, warnings
}
